// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package prefs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/billowria/teampulse/internal/gateway"
	"github.com/billowria/teampulse/internal/platform/apperr"
	"github.com/billowria/teampulse/internal/platform/constants"
	"github.com/billowria/teampulse/internal/platform/database/schema"
	"github.com/billowria/teampulse/pkg/convert"
)

// Config wires a [Store]'s collaborators.
type Config struct {
	Tables gateway.Tables
	Cache  LocalCache

	// SystemDark reports the OS dark-mode signal. Nil means light.
	SystemDark func() bool

	// Debounce overrides the remote write coalescing window. Zero selects
	// the platform default.
	Debounce time.Duration

	Logger *slog.Logger
}

// Store is the preference reconciler. It owns the merged preference view
// and is the sole writer of both the local cache and the remote profile
// preference field.
type Store struct {
	tables     gateway.Tables
	cache      LocalCache
	systemDark func() bool
	debounce   time.Duration
	logger     *slog.Logger

	mutex       sync.Mutex
	preferences Preferences
	userID      string
	flushTimer  *time.Timer
}

/*
NewStore builds a reconciler seeded from the local cache.

The cache read is best-effort. A failure logs a warning and falls back to
the documented defaults so construction never blocks on I/O errors.

Parameters:
  - context: Construction-scoped context for the cache read
  - config: Collaborator wiring

Returns:
  - *Store: Reconciler in detached (no user) state
*/
func NewStore(context context.Context, config Config) *Store {
	store := &Store{
		tables:      config.Tables,
		cache:       config.Cache,
		systemDark:  config.SystemDark,
		debounce:    config.Debounce,
		logger:      config.Logger,
		preferences: Default(),
	}
	if store.systemDark == nil {
		store.systemDark = func() bool { return false }
	}
	if store.debounce <= 0 {
		store.debounce = constants.PreferenceWriteDebounce
	}
	if store.logger == nil {
		store.logger = slog.Default()
	}

	flags, err := store.cache.Load(context)
	if err != nil {
		store.logger.Warn("preference cache load failed", "error", err)
		return store
	}
	store.preferences = decodeFlags(store.preferences, flags)
	return store
}

/*
AttachUser binds the store to an authenticated user and reconciles against
the remote profile field.

A non-empty remote preference object overwrites the local state wholesale.
An absent or empty one leaves the local seed in place so the first
debounced write establishes the remote copy. Remote fetch failures keep
the local state and are logged, never surfaced.

Parameters:
  - context: Request-scoped context
  - userID: Owner of the remote profile row
*/
func (store *Store) AttachUser(context context.Context, userID string) {
	store.mutex.Lock()
	if store.userID != userID {
		// A pending write belongs to the previous owner. It must never
		// flush against the user being attached.
		store.cancelFlushLocked()
	}
	store.userID = userID
	store.mutex.Unlock()

	rows, err := store.tables.Read(
		context,
		schema.Accounts.Name,
		[]gateway.Filter{gateway.Eq("id", userID)},
		[]string{"preferences"},
	)
	if err != nil {
		store.logger.Warn("remote preference fetch failed", "user_id", userID, "error", err)
		return
	}
	if len(rows) == 0 {
		return
	}

	remote := remoteFlags(rows[0]["preferences"])
	if len(remote) == 0 {
		return
	}

	store.mutex.Lock()
	if store.userID != userID {
		// The user changed while the fetch was in flight. Drop the result.
		store.mutex.Unlock()
		return
	}
	store.preferences = decodeFlags(Default(), remote)
	snapshot := store.preferences
	store.mutex.Unlock()

	store.mirrorCache(context, snapshot)
}

// DetachUser cancels any pending remote write, unbinds the user and
// restores the default theme. Sign-out resets to neutral on purpose.
func (store *Store) DetachUser(context context.Context) {
	store.mutex.Lock()
	store.cancelFlushLocked()
	store.userID = ""
	store.preferences.ThemeMode = DefaultThemeMode
	snapshot := store.preferences
	store.mutex.Unlock()

	store.mirrorCache(context, snapshot)
}

/*
Set updates one preference flag.

The in-memory state and local cache update synchronously. The remote
write is coalesced: every call restarts the debounce window, and the
flush writes the state as of the last call. A sign-out before the window
elapses cancels the write entirely.

Parameters:
  - context: Request-scoped context for the cache mirror
  - flag: One of the Flag* identifiers
  - value: Theme mode name, or "true"/"false" for boolean flags

Returns:
  - error: ErrValidation on an unknown flag or malformed value
*/
func (store *Store) Set(context context.Context, flag, value string) error {
	if err := validateFlag(flag, value); err != nil {
		return err
	}

	store.mutex.Lock()
	store.preferences = decodeFlags(store.preferences, map[string]string{flag: value})
	snapshot := store.preferences
	store.scheduleFlushLocked()
	store.mutex.Unlock()

	store.mirrorCache(context, snapshot)
	return nil
}

// Snapshot returns the current merged preference state.
func (store *Store) Snapshot() Preferences {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.preferences
}

// ResolvedTheme computes the base palette for the current theme mode. It
// is evaluated fresh on every call so a "system" mode tracks the OS
// signal live.
func (store *Store) ResolvedTheme() Theme {
	store.mutex.Lock()
	mode := store.preferences.ThemeMode
	store.mutex.Unlock()
	return Resolve(mode, store.systemDark())
}

// # Debounced Writer

// scheduleFlushLocked restarts the coalescing window. Callers hold the
// mutex.
func (store *Store) scheduleFlushLocked() {
	store.cancelFlushLocked()
	store.flushTimer = time.AfterFunc(store.debounce, store.flush)
}

func (store *Store) cancelFlushLocked() {
	if store.flushTimer != nil {
		store.flushTimer.Stop()
		store.flushTimer = nil
	}
}

// flush writes the full preference object to the remote profile field.
// It runs on the timer goroutine after the debounce window elapses.
func (store *Store) flush() {
	store.mutex.Lock()
	userID := store.userID
	snapshot := store.preferences
	store.flushTimer = nil
	store.mutex.Unlock()

	// No owner means the write was raced by a sign-out. Preferences are
	// never written against a missing user.
	if userID == "" {
		return
	}

	_, err := store.tables.Upsert(
		context.Background(),
		schema.Accounts.Name,
		gateway.Row{"id": userID, "preferences": encodeFlags(snapshot)},
		[]string{"id"},
	)
	if err != nil {
		store.logger.Warn("remote preference write failed", "user_id", userID, "error", err)
	}
}

func (store *Store) mirrorCache(context context.Context, snapshot Preferences) {
	if err := store.cache.Store(context, encodeFlags(snapshot)); err != nil {
		store.logger.Warn("preference cache write failed", "error", err)
	}
}

// # Helpers

func validateFlag(flag, value string) error {
	switch flag {
	case FlagThemeMode:
		if !IsKnownThemeMode(value) {
			return apperr.ValidationError(fmt.Sprintf("Unknown theme mode %q", value))
		}
	case FlagStaticBackground, FlagNoMouseInteraction, FlagHideParticles, FlagDisableLogoAnimation:
		if value != "true" && value != "false" {
			return apperr.ValidationError(fmt.Sprintf("Flag %q expects \"true\" or \"false\"", flag))
		}
	default:
		return apperr.ValidationError(fmt.Sprintf("Unknown preference flag %q", flag))
	}
	return nil
}

// remoteFlags normalizes the JSON profile field into the string flag form.
// The column decodes as map[string]any with string or bool values.
func remoteFlags(value any) map[string]string {
	object, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	flags := make(map[string]string, len(object))
	for name, raw := range object {
		switch typed := raw.(type) {
		case string:
			flags[name] = typed
		case bool:
			flags[name] = convert.FromBool(typed)
		}
	}
	return flags
}
