// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package auth

import (
	"context"
	"sync"

	"github.com/billowria/teampulse/internal/gateway"
)

// SessionBridge adapts the auth [Service] to the [gateway.Auth] contract
// consumed by the client state core.
//
// It tracks the most recent session emitted by the service so that
// CurrentSession answers from memory without a storage round trip. The
// bridge re-broadcasts service transitions to its own subscribers in the
// order they arrive, which is what gives the state core its ordering
// guarantee for sign-in/sign-out sequences.
type SessionBridge struct {
	service *Service

	mutex   sync.RWMutex
	current *gateway.Session
}

// NewSessionBridge wires a bridge onto the auth service's change feed.
func NewSessionBridge(service *Service) *SessionBridge {
	bridge := &SessionBridge{service: service}

	service.OnSessionChange(func(session *gateway.Session) {
		bridge.mutex.Lock()
		bridge.current = session
		bridge.mutex.Unlock()
	})

	return bridge
}

/*
CurrentSession returns the active session, or nil if anonymous.

Parameters:
  - ctx: context.Context (checked for cancellation)

Returns:
  - *gateway.Session: Last observed session state
  - error: Context cancellation only
*/
func (bridge *SessionBridge) CurrentSession(ctx context.Context) (*gateway.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bridge.mutex.RLock()
	defer bridge.mutex.RUnlock()
	return bridge.current, nil
}

// OnSessionChange forwards a subscription to the service change feed.
func (bridge *SessionBridge) OnSessionChange(fn func(*gateway.Session)) (unsubscribe func()) {
	return bridge.service.OnSessionChange(fn)
}

/*
SignOut terminates the current session and emits a nil session event.

Parameters:
  - ctx: context.Context

Returns:
  - error: Revocation failures
*/
func (bridge *SessionBridge) SignOut(ctx context.Context) error {
	bridge.mutex.RLock()
	session := bridge.current
	bridge.mutex.RUnlock()

	if session == nil {
		return nil
	}

	return bridge.service.Logout(ctx, session.Token)
}
