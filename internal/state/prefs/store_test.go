// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package prefs

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billowria/teampulse/internal/gateway"
	"github.com/billowria/teampulse/internal/platform/database/schema"
)

// # Fakes

type fakeTables struct {
	mutex    sync.Mutex
	readRows []gateway.Row
	readErr  error
	upserts  []gateway.Row
}

func (tables *fakeTables) Read(_ context.Context, _ string, _ []gateway.Filter, _ []string) ([]gateway.Row, error) {
	tables.mutex.Lock()
	defer tables.mutex.Unlock()
	if tables.readErr != nil {
		return nil, tables.readErr
	}
	return tables.readRows, nil
}

func (tables *fakeTables) Upsert(_ context.Context, table string, row gateway.Row, _ []string) (gateway.Row, error) {
	tables.mutex.Lock()
	defer tables.mutex.Unlock()
	if table != schema.Accounts.Name {
		panic("unexpected table " + table)
	}
	tables.upserts = append(tables.upserts, row)
	return row, nil
}

func (tables *fakeTables) Update(_ context.Context, _ string, _ []gateway.Filter, _ gateway.Row) error {
	return nil
}

func (tables *fakeTables) upsertCount() int {
	tables.mutex.Lock()
	defer tables.mutex.Unlock()
	return len(tables.upserts)
}

func (tables *fakeTables) lastUpsert() gateway.Row {
	tables.mutex.Lock()
	defer tables.mutex.Unlock()
	if len(tables.upserts) == 0 {
		return nil
	}
	return tables.upserts[len(tables.upserts)-1]
}

const testDebounce = 20 * time.Millisecond

func newTestStore(tables *fakeTables, cache LocalCache, systemDark func() bool) *Store {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return NewStore(context.Background(), Config{
		Tables:     tables,
		Cache:      cache,
		SystemDark: systemDark,
		Debounce:   testDebounce,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func waitForFlush() { time.Sleep(4 * testDebounce) }

// # Seeding

func TestDefaultsBeforeAnyData(t *testing.T) {
	store := newTestStore(&fakeTables{}, nil, nil)

	snapshot := store.Snapshot()
	assert.Equal(t, ThemeOcean, snapshot.ThemeMode)
	assert.False(t, snapshot.StaticBackground)
	assert.False(t, snapshot.HideParticles)
}

func TestCacheSeedsStartupState(t *testing.T) {
	cache := NewMemoryCache()
	require.NoError(t, cache.Store(context.Background(), map[string]string{
		FlagThemeMode:     "forest",
		FlagHideParticles: "true",
	}))

	store := newTestStore(&fakeTables{}, cache, nil)

	snapshot := store.Snapshot()
	assert.Equal(t, ThemeForest, snapshot.ThemeMode)
	assert.True(t, snapshot.HideParticles)
	assert.False(t, snapshot.StaticBackground)
}

// # Remote Reconciliation

func TestRemoteWinsOverLocalCache(t *testing.T) {
	cache := NewMemoryCache()
	require.NoError(t, cache.Store(context.Background(), map[string]string{
		FlagThemeMode: "light",
	}))
	tables := &fakeTables{readRows: []gateway.Row{{
		"preferences": map[string]any{
			"themeMode":        "space",
			"staticBackground": true,
		},
	}}}

	store := newTestStore(tables, cache, nil)
	store.AttachUser(context.Background(), "user-1")

	snapshot := store.Snapshot()
	assert.Equal(t, ThemeSpace, snapshot.ThemeMode)
	assert.True(t, snapshot.StaticBackground)

	// The winning state is mirrored back into the cache.
	flags, err := cache.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "space", flags[FlagThemeMode])
}

func TestAbsentRemoteKeepsLocalSeed(t *testing.T) {
	cache := NewMemoryCache()
	require.NoError(t, cache.Store(context.Background(), map[string]string{
		FlagThemeMode: "diwali",
	}))

	store := newTestStore(&fakeTables{}, cache, nil)
	store.AttachUser(context.Background(), "user-1")

	assert.Equal(t, ThemeDiwali, store.Snapshot().ThemeMode)
}

func TestRemoteFetchFailureKeepsLocalState(t *testing.T) {
	tables := &fakeTables{readErr: assert.AnError}

	store := newTestStore(tables, nil, nil)
	store.AttachUser(context.Background(), "user-1")

	assert.Equal(t, ThemeOcean, store.Snapshot().ThemeMode)
}

// # Debounced Writes

func TestBurstOfSetsProducesOneWriteWithFinalState(t *testing.T) {
	tables := &fakeTables{}
	store := newTestStore(tables, nil, nil)
	store.AttachUser(context.Background(), "user-1")

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, FlagThemeMode, "light"))
	require.NoError(t, store.Set(ctx, FlagStaticBackground, "true"))
	require.NoError(t, store.Set(ctx, FlagThemeMode, "dark"))

	waitForFlush()

	require.Equal(t, 1, tables.upsertCount())
	row := tables.lastUpsert()
	assert.Equal(t, "user-1", row["id"])

	flags, ok := row["preferences"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "dark", flags[FlagThemeMode])
	assert.Equal(t, "true", flags[FlagStaticBackground])
}

func TestSignOutCancelsPendingWrite(t *testing.T) {
	tables := &fakeTables{}
	store := newTestStore(tables, nil, nil)
	store.AttachUser(context.Background(), "user-1")

	require.NoError(t, store.Set(context.Background(), FlagThemeMode, "light"))
	store.DetachUser(context.Background())

	waitForFlush()

	assert.Zero(t, tables.upsertCount())
	assert.Equal(t, DefaultThemeMode, store.Snapshot().ThemeMode)
}

func TestUserSwitchCancelsPendingWrite(t *testing.T) {
	tables := &fakeTables{}
	store := newTestStore(tables, nil, nil)
	store.AttachUser(context.Background(), "user-a")

	require.NoError(t, store.Set(context.Background(), FlagThemeMode, "light"))
	store.AttachUser(context.Background(), "user-b")

	waitForFlush()

	// user-a's pending choice must never land on user-b's row.
	require.Zero(t, tables.upsertCount())

	// The new owner's own writes still flush normally.
	require.NoError(t, store.Set(context.Background(), FlagThemeMode, "dark"))
	waitForFlush()

	require.Equal(t, 1, tables.upsertCount())
	assert.Equal(t, "user-b", tables.lastUpsert()["id"])
}

func TestSetsAcrossSeparateWindowsEachFlush(t *testing.T) {
	tables := &fakeTables{}
	store := newTestStore(tables, nil, nil)
	store.AttachUser(context.Background(), "user-1")

	require.NoError(t, store.Set(context.Background(), FlagHideParticles, "true"))
	waitForFlush()
	require.NoError(t, store.Set(context.Background(), FlagHideParticles, "false"))
	waitForFlush()

	assert.Equal(t, 2, tables.upsertCount())
}

// # Mutation Guards

func TestSetRejectsUnknownFlagAndValue(t *testing.T) {
	store := newTestStore(&fakeTables{}, nil, nil)

	assert.Error(t, store.Set(context.Background(), "fancyMode", "true"))
	assert.Error(t, store.Set(context.Background(), FlagThemeMode, "neon"))
	assert.Error(t, store.Set(context.Background(), FlagHideParticles, "yes"))
}

func TestSetMirrorsCacheSynchronously(t *testing.T) {
	cache := NewMemoryCache()
	store := newTestStore(&fakeTables{}, cache, nil)

	require.NoError(t, store.Set(context.Background(), FlagThemeMode, "dark"))

	flags, err := cache.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dark", flags[FlagThemeMode])
}

// # Theme Resolution

func TestResolvedThemeTracksSystemSignalLive(t *testing.T) {
	systemDark := false
	store := newTestStore(&fakeTables{}, nil, func() bool { return systemDark })
	require.NoError(t, store.Set(context.Background(), FlagThemeMode, "system"))

	assert.Equal(t, ResolvedLight, store.ResolvedTheme())

	systemDark = true
	assert.Equal(t, ResolvedDark, store.ResolvedTheme())
}

func TestPremiumThemesAlwaysResolveDark(t *testing.T) {
	for _, mode := range []ThemeMode{ThemeSpace, ThemeOcean, ThemeForest, ThemeDiwali} {
		assert.Equal(t, ResolvedDark, Resolve(mode, false), "mode %s", mode)
		assert.Equal(t, ResolvedDark, Resolve(mode, true), "mode %s", mode)
	}
	assert.Equal(t, ResolvedLight, Resolve(ThemeLight, true))
	assert.Equal(t, ResolvedDark, Resolve(ThemeDark, false))
}
