// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

/*
Package gateway defines the remote data contract consumed by the client
state core (session bootstrap, preference reconciler, notification
aggregator).

The core never talks to Postgres or Redis directly — it sees four narrow
capabilities: authentication with change events, a filtered table store, a
realtime change-event bus, and binary object storage. Production
implementations live in this package; tests substitute in-memory fakes.

Architecture:

  - Auth: session lookup, change subscription, sign-out.
  - Tables: filtered reads, whole-row upserts, filtered patches.
  - Realtime: per-table/per-event publish and subscribe.
  - Storage: blob upload plus public URL issuance.
*/
package gateway

import (
	"context"
	"io"
)

// # Sessions

// Session is the authenticated identity as seen by the state core.
//
// Token is the opaque provider token; it is passed through and never parsed.
type Session struct {
	UserID string
	Token  string
}

// Auth exposes authentication state and its change feed.
type Auth interface {

	// CurrentSession returns the active session, or nil if anonymous.
	CurrentSession(ctx context.Context) (*Session, error)

	// OnSessionChange registers a callback invoked with the new session
	// (nil on sign-out) every time authentication state changes.
	// Callbacks fire in delivery order. The returned function unsubscribes.
	OnSessionChange(fn func(*Session)) (unsubscribe func())

	// SignOut terminates the current session and emits a nil session event.
	SignOut(ctx context.Context) error
}

// # Table Store

// Row is a single table record keyed by logical column name.
type Row map[string]any

// Filter is one predicate of a table read or update.
type Filter struct {
	Column string
	Op     FilterOp
	Value  any
}

// FilterOp enumerates the supported predicate operators.
type FilterOp string

const (
	OpEq FilterOp = "eq"
	OpIn FilterOp = "in"
	OpGt FilterOp = "gt"
	OpLt FilterOp = "lt"
)

// Eq builds an equality filter.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

// In builds a set-membership filter.
func In(column string, values []string) Filter {
	return Filter{Column: column, Op: OpIn, Value: values}
}

// Gt builds a strictly-greater-than filter.
func Gt(column string, value any) Filter {
	return Filter{Column: column, Op: OpGt, Value: value}
}

// Tables is the queryable table store.
//
// Table and column names are validated against the schema registry; a name
// outside the contract is a validation error, never raw SQL.
type Tables interface {

	// Read returns all rows matching every filter, projected to the given
	// columns (all contract columns when projection is empty).
	Read(ctx context.Context, table string, filters []Filter, projection []string) ([]Row, error)

	// Upsert inserts the row or, on conflict over conflictColumns, updates
	// the remaining columns. Returns the stored row.
	Upsert(ctx context.Context, table string, row Row, conflictColumns []string) (Row, error)

	// Update patches all rows matching the filters.
	Update(ctx context.Context, table string, filters []Filter, patch Row) error
}

// # Realtime Bus

// Event is a change-event type on the realtime bus.
type Event string

const (
	EventInsert Event = "insert"
	EventUpdate Event = "update"
	EventDelete Event = "delete"
)

// Realtime carries row change events between service instances.
type Realtime interface {

	// Subscribe registers a callback for change events on one table/event
	// pair. The returned function cancels the subscription.
	Subscribe(table string, event Event, fn func(payload Row)) (unsubscribe func(), err error)

	// Publish emits a change event to every subscriber of the pair.
	Publish(ctx context.Context, table string, event Event, payload Row) error
}

// # Object Storage

// Storage stores binary objects and issues public URLs for them.
type Storage interface {

	// Upload persists the blob under bucket/path and returns the stored path.
	Upload(ctx context.Context, bucket, path string, blob io.Reader) (string, error)

	// PublicURL returns the publicly reachable URL for a stored object.
	PublicURL(bucket, path string) string
}

// # Aggregate

// Gateway bundles the four capabilities handed to the state core.
type Gateway struct {
	Auth     Auth
	Tables   Tables
	Realtime Realtime
	Storage  Storage
}
