// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package session

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
	"github.com/billowria/teampulse/internal/platform/sec"
)

// # Fakes

type fakeAuth struct {
	mutex     sync.Mutex
	current   *gateway.Session
	listeners []func(*gateway.Session)
}

func (auth *fakeAuth) CurrentSession(_ context.Context) (*gateway.Session, error) {
	auth.mutex.Lock()
	defer auth.mutex.Unlock()
	return auth.current, nil
}

func (auth *fakeAuth) OnSessionChange(fn func(*gateway.Session)) func() {
	auth.mutex.Lock()
	defer auth.mutex.Unlock()
	auth.listeners = append(auth.listeners, fn)
	return func() {}
}

func (auth *fakeAuth) SignOut(_ context.Context) error {
	auth.emit(nil)
	return nil
}

func (auth *fakeAuth) emit(session *gateway.Session) {
	auth.mutex.Lock()
	auth.current = session
	listeners := make([]func(*gateway.Session), len(auth.listeners))
	copy(listeners, auth.listeners)
	auth.mutex.Unlock()

	for _, fn := range listeners {
		fn(session)
	}
}

// fakeRoleTables serves role rows per user and can hold a fetch open on a
// per-user gate channel to order overlapping lookups.
type fakeRoleTables struct {
	mutex sync.Mutex
	roles map[string]string
	gates map[string]chan struct{}
	errs  map[string]error
}

func newFakeRoleTables() *fakeRoleTables {
	return &fakeRoleTables{
		roles: map[string]string{},
		gates: map[string]chan struct{}{},
		errs:  map[string]error{},
	}
}

func (tables *fakeRoleTables) Read(_ context.Context, _ string, filters []gateway.Filter, _ []string) ([]gateway.Row, error) {
	userID, _ := filters[0].Value.(string)

	tables.mutex.Lock()
	gate := tables.gates[userID]
	tables.mutex.Unlock()
	if gate != nil {
		<-gate
	}

	tables.mutex.Lock()
	defer tables.mutex.Unlock()
	if err := tables.errs[userID]; err != nil {
		return nil, err
	}
	role, ok := tables.roles[userID]
	if !ok {
		return nil, nil
	}
	return []gateway.Row{{"role": role}}, nil
}

func (tables *fakeRoleTables) Upsert(_ context.Context, _ string, row gateway.Row, _ []string) (gateway.Row, error) {
	return row, nil
}

func (tables *fakeRoleTables) Update(_ context.Context, _ string, _ []gateway.Filter, _ gateway.Row) error {
	return nil
}

// fakeBinder records attach/detach calls in arrival order so tests can
// assert on their relative ordering, not just their counts.
type fakeBinder struct {
	mutex  sync.Mutex
	events []string
}

func (binder *fakeBinder) AttachUser(_ context.Context, userID string) {
	binder.mutex.Lock()
	defer binder.mutex.Unlock()
	binder.events = append(binder.events, "attach:"+userID)
}

func (binder *fakeBinder) DetachUser(_ context.Context) {
	binder.mutex.Lock()
	defer binder.mutex.Unlock()
	binder.events = append(binder.events, "detach")
}

func (binder *fakeBinder) detachCount() int {
	binder.mutex.Lock()
	defer binder.mutex.Unlock()
	count := 0
	for _, event := range binder.events {
		if event == "detach" {
			count++
		}
	}
	return count
}

func (binder *fakeBinder) sequence() []string {
	binder.mutex.Lock()
	defer binder.mutex.Unlock()
	events := make([]string, len(binder.events))
	copy(events, binder.events)
	return events
}

func newTestBootstrap(auth *fakeAuth, tables *fakeRoleTables, binder *fakeBinder) *Bootstrap {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	// A nil *fakeBinder must reach NewBootstrap as a nil interface, not a
	// typed-nil pointer, or the prefs nil-check in Bootstrap passes and
	// calls methods on a nil receiver.
	var prefs PreferenceBinder
	if binder != nil {
		prefs = binder
	}
	return NewBootstrap(auth, tables, prefs, logger)
}

func waitForStatus(t *testing.T, bootstrap *Bootstrap, want func(Status) bool) Status {
	t.Helper()
	require.Eventually(t, func() bool {
		return want(bootstrap.Current())
	}, time.Second, 5*time.Millisecond)
	return bootstrap.Current()
}

// # Transitions

func TestStartWithoutSessionGoesAnonymous(t *testing.T) {
	bootstrap := newTestBootstrap(&fakeAuth{}, newFakeRoleTables(), nil)

	assert.Equal(t, StateLoading, bootstrap.Current().State)

	bootstrap.Start(context.Background())
	defer bootstrap.Stop()

	assert.Equal(t, StateAnonymous, bootstrap.Current().State)
}

func TestExistingSessionAuthenticatesAsMemberThenResolvesRole(t *testing.T) {
	tables := newFakeRoleTables()
	tables.roles["user-1"] = "admin"
	gate := make(chan struct{})
	tables.gates["user-1"] = gate

	auth := &fakeAuth{current: &gateway.Session{UserID: "user-1", Token: "t"}}
	bootstrap := newTestBootstrap(auth, tables, nil)
	bootstrap.Start(context.Background())
	defer bootstrap.Stop()

	// Role fetch still in flight: authenticated with the default role.
	status := bootstrap.Current()
	assert.Equal(t, StateAuthenticated, status.State)
	assert.Equal(t, "user-1", status.UserID)
	assert.Equal(t, sec.RoleMember, status.Role)

	close(gate)
	status = waitForStatus(t, bootstrap, func(s Status) bool { return s.Role == sec.RoleAdmin })
	assert.Equal(t, "user-1", status.UserID)
}

func TestRoleFetchFailureDefaultsToMember(t *testing.T) {
	tables := newFakeRoleTables()
	tables.errs["user-1"] = assert.AnError

	auth := &fakeAuth{current: &gateway.Session{UserID: "user-1"}}
	bootstrap := newTestBootstrap(auth, tables, nil)
	bootstrap.Start(context.Background())
	defer bootstrap.Stop()

	status := bootstrap.Current()
	assert.Equal(t, StateAuthenticated, status.State)
	assert.Equal(t, sec.RoleMember, status.Role)
}

func TestMissingAccountRowDefaultsToMember(t *testing.T) {
	auth := &fakeAuth{current: &gateway.Session{UserID: "ghost"}}
	bootstrap := newTestBootstrap(auth, newFakeRoleTables(), nil)
	bootstrap.Start(context.Background())
	defer bootstrap.Stop()

	assert.Equal(t, sec.RoleMember, bootstrap.Current().Role)
}

func TestStaleRoleFetchIsDiscarded(t *testing.T) {
	tables := newFakeRoleTables()
	tables.roles["user-a"] = "manager"
	tables.roles["user-b"] = "admin"
	gateA := make(chan struct{})
	tables.gates["user-a"] = gateA

	auth := &fakeAuth{}
	bootstrap := newTestBootstrap(auth, tables, nil)
	bootstrap.Start(context.Background())
	defer bootstrap.Stop()

	// Session A arrives, its role fetch stalls on the gate.
	auth.emit(&gateway.Session{UserID: "user-a"})
	// Session B supersedes A and resolves normally.
	auth.emit(&gateway.Session{UserID: "user-b"})
	waitForStatus(t, bootstrap, func(s Status) bool { return s.Role == sec.RoleAdmin })

	// A's fetch finally completes. Its result must not be applied.
	close(gateA)
	time.Sleep(50 * time.Millisecond)

	status := bootstrap.Current()
	assert.Equal(t, "user-b", status.UserID)
	assert.Equal(t, sec.RoleAdmin, status.Role)
}

// # Sign-out

func TestSignOutTransitionsToAnonymousAndDetachesPreferences(t *testing.T) {
	tables := newFakeRoleTables()
	tables.roles["user-1"] = "member"
	binder := &fakeBinder{}

	auth := &fakeAuth{current: &gateway.Session{UserID: "user-1"}}
	bootstrap := newTestBootstrap(auth, tables, binder)
	bootstrap.Start(context.Background())
	defer bootstrap.Stop()

	require.NoError(t, bootstrap.SignOut(context.Background()))

	assert.Equal(t, StateAnonymous, bootstrap.Current().State)
	assert.Equal(t, 1, binder.detachCount())
}

func TestSignOutRacingSignInNeverLeavesPreferencesAttached(t *testing.T) {
	tables := newFakeRoleTables()
	tables.roles["user-a"] = "member"
	binder := &fakeBinder{}

	auth := &fakeAuth{}
	bootstrap := newTestBootstrap(auth, tables, binder)
	bootstrap.Start(context.Background())
	defer bootstrap.Stop()

	// Sign-in immediately followed by sign-out. The attach runs on its
	// own goroutine; a late one belongs to a superseded session and must
	// be discarded, never delivered after the sign-out's detach.
	auth.emit(&gateway.Session{UserID: "user-a"})
	auth.emit(nil)

	waitForStatus(t, bootstrap, func(s Status) bool { return s.State == StateAnonymous })
	time.Sleep(50 * time.Millisecond)

	events := binder.sequence()
	require.NotEmpty(t, events)
	assert.Equal(t, "detach", events[len(events)-1])
}

func TestSubscribersObserveTransitionsInOrder(t *testing.T) {
	auth := &fakeAuth{}
	bootstrap := newTestBootstrap(auth, newFakeRoleTables(), nil)

	var mutex sync.Mutex
	var states []State
	unsubscribe := bootstrap.Subscribe(func(status Status) {
		mutex.Lock()
		states = append(states, status.State)
		mutex.Unlock()
	})
	defer unsubscribe()

	bootstrap.Start(context.Background())
	defer bootstrap.Stop()
	auth.emit(&gateway.Session{UserID: "user-1"})
	auth.emit(nil)

	waitForStatus(t, bootstrap, func(s Status) bool { return s.State == StateAnonymous })

	mutex.Lock()
	defer mutex.Unlock()
	require.GreaterOrEqual(t, len(states), 3)
	assert.Equal(t, StateAnonymous, states[0])
	assert.Equal(t, StateAuthenticated, states[1])
	assert.Equal(t, StateAnonymous, states[len(states)-1])
}
