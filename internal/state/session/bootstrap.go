// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

/*
Package session implements the application-wide authentication state
machine that gates which surface the client mounts.

The machine has three states and no terminal state:

	Loading -> Anonymous | Authenticated(role)

Loading is only the initial state. Once the gateway reports the current
session the machine settles into Anonymous or Authenticated and follows
the gateway's session change feed for the lifetime of the process.

Role resolution never blocks a transition. A fresh session is immediately
Authenticated with the member role; the real role is fetched in the
background and applied only if the session that started the fetch is
still the current one. A fetch failure or a missing account row keeps
member, it is never an error.
*/
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/billowria/teampulse/internal/gateway"
	"github.com/billowria/teampulse/internal/platform/database/schema"
	"github.com/billowria/teampulse/internal/platform/sec"
)

// # States

type State string

const (
	StateLoading       State = "loading"
	StateAnonymous     State = "anonymous"
	StateAuthenticated State = "authenticated"
)

// Status is one observable snapshot of the machine. UserID and Role are
// only meaningful in the Authenticated state.
type Status struct {
	State  State
	UserID string
	Role   sec.UserRole
}

// PreferenceBinder is the preference store surface the machine drives:
// attach on sign-in, detach (with theme reset) on sign-out.
type PreferenceBinder interface {
	AttachUser(ctx context.Context, userID string)
	DetachUser(ctx context.Context)
}

type statusListener struct {
	id int
	fn func(Status)
}

// # Machine

// Bootstrap owns the session state machine. All other components read
// session state through it and never talk to the auth gateway directly.
type Bootstrap struct {
	auth   gateway.Auth
	tables gateway.Tables
	prefs  PreferenceBinder
	logger *slog.Logger

	mutex          sync.Mutex
	status         Status
	generation     uint64
	unsubscribe    func()
	listeners      []statusListener
	nextListenerID int
}

func NewBootstrap(auth gateway.Auth, tables gateway.Tables, prefs PreferenceBinder, logger *slog.Logger) *Bootstrap {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bootstrap{
		auth:   auth,
		tables: tables,
		prefs:  prefs,
		logger: logger,
		status: Status{State: StateLoading},
	}
}

/*
Start subscribes to the session change feed and resolves the initial
session.

The subscription is registered before the initial lookup so a change
arriving during the lookup is never lost. A lookup failure is logged and
leaves the machine in Loading; the next session change event will settle
it.

Parameters:
  - context: Startup-scoped context for the initial lookup
*/
func (bootstrap *Bootstrap) Start(context context.Context) {
	bootstrap.unsubscribe = bootstrap.auth.OnSessionChange(bootstrap.apply)

	current, err := bootstrap.auth.CurrentSession(context)
	if err != nil {
		bootstrap.logger.Warn("initial session lookup failed", "error", err)
		return
	}
	bootstrap.apply(current)
}

// Stop cancels the session change subscription.
func (bootstrap *Bootstrap) Stop() {
	if bootstrap.unsubscribe != nil {
		bootstrap.unsubscribe()
		bootstrap.unsubscribe = nil
	}
}

// Current returns the machine's present status.
func (bootstrap *Bootstrap) Current() Status {
	bootstrap.mutex.Lock()
	defer bootstrap.mutex.Unlock()
	return bootstrap.status
}

// SignOut terminates the session through the gateway. The resulting nil
// session event drives the Anonymous transition.
func (bootstrap *Bootstrap) SignOut(ctx context.Context) error {
	return bootstrap.auth.SignOut(ctx)
}

// Subscribe registers a status observer, invoked on every transition in
// delivery order. The returned function unsubscribes.
func (bootstrap *Bootstrap) Subscribe(fn func(Status)) func() {
	bootstrap.mutex.Lock()
	defer bootstrap.mutex.Unlock()

	bootstrap.nextListenerID++
	id := bootstrap.nextListenerID
	bootstrap.listeners = append(bootstrap.listeners, statusListener{id: id, fn: fn})

	return func() {
		bootstrap.mutex.Lock()
		defer bootstrap.mutex.Unlock()
		for index, listener := range bootstrap.listeners {
			if listener.id == id {
				bootstrap.listeners = append(bootstrap.listeners[:index], bootstrap.listeners[index+1:]...)
				return
			}
		}
	}
}

// # Transitions

// apply processes one session change event. Events arrive in delivery
// order; the generation counter taken here invalidates any role fetch
// still in flight for a superseded session.
func (bootstrap *Bootstrap) apply(session *gateway.Session) {
	bootstrap.mutex.Lock()
	bootstrap.generation++
	generation := bootstrap.generation

	if session == nil {
		bootstrap.status = Status{State: StateAnonymous}
		snapshot := bootstrap.status
		listeners := bootstrap.snapshotListenersLocked()
		bootstrap.mutex.Unlock()

		if bootstrap.prefs != nil {
			bootstrap.prefs.DetachUser(context.Background())
		}
		notify(listeners, snapshot)
		return
	}

	// Authenticated immediately with the default role. The real role
	// arrives asynchronously and must never gate the transition.
	bootstrap.status = Status{State: StateAuthenticated, UserID: session.UserID, Role: sec.RoleMember}
	snapshot := bootstrap.status
	listeners := bootstrap.snapshotListenersLocked()
	bootstrap.mutex.Unlock()

	notify(listeners, snapshot)

	if bootstrap.prefs != nil {
		go bootstrap.attachPreferences(generation, session.UserID)
	}
	go bootstrap.resolveRole(generation, session.UserID)
}

// attachPreferences binds the preference store to the session's user. The
// generation check discards the attach when the session was superseded
// before this goroutine ran, so a sign-out's detach is never undone by a
// late attach.
func (bootstrap *Bootstrap) attachPreferences(generation uint64, userID string) {
	bootstrap.mutex.Lock()
	stale := bootstrap.generation != generation
	bootstrap.mutex.Unlock()
	if stale {
		return
	}
	bootstrap.prefs.AttachUser(context.Background(), userID)
}

// resolveRole fetches the account's role and applies it if the session
// that started the fetch is still current. A stale result is discarded.
func (bootstrap *Bootstrap) resolveRole(generation uint64, userID string) {
	role := sec.RoleMember

	rows, err := bootstrap.tables.Read(
		context.Background(),
		schema.Accounts.Name,
		[]gateway.Filter{gateway.Eq("id", userID)},
		[]string{"role"},
	)
	switch {
	case err != nil:
		bootstrap.logger.Warn("role fetch failed, defaulting to member", "user_id", userID, "error", err)
	case len(rows) > 0:
		if name, ok := rows[0]["role"].(string); ok {
			role = sec.ParseRole(name)
		}
	}

	bootstrap.mutex.Lock()
	if bootstrap.generation != generation {
		bootstrap.mutex.Unlock()
		return
	}
	bootstrap.status.Role = role
	snapshot := bootstrap.status
	listeners := bootstrap.snapshotListenersLocked()
	bootstrap.mutex.Unlock()

	notify(listeners, snapshot)
}

func (bootstrap *Bootstrap) snapshotListenersLocked() []statusListener {
	snapshot := make([]statusListener, len(bootstrap.listeners))
	copy(snapshot, bootstrap.listeners)
	return snapshot
}

func notify(listeners []statusListener, status Status) {
	for _, listener := range listeners {
		listener.fn(status)
	}
}
