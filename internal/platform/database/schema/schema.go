// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

/*
Package schema centralizes physical table and column names.

Every SQL statement in the repositories references these definitions instead
of string literals, and the generic table gateway validates requested
table/column identifiers against this registry before building SQL. This is
the single authority on what the remote data contract may touch.
*/
package schema

// Table describes a physical table and its addressable columns.
type Table struct {
	// Name is the fully qualified table name (schema.table).
	Name string
	// Cols maps logical column identifiers to physical column names.
	Cols map[string]string
}

// Column resolves a logical column identifier to its physical name.
// The second return value reports whether the column is part of the contract.
func (t Table) Column(logical string) (string, bool) {
	physical, ok := t.Cols[logical]
	return physical, ok
}

// registry indexes every contract table by its public name.
var registry = map[string]Table{
	Accounts.Name:          Accounts,
	Sessions.Name:          Sessions,
	Teams.Name:             Teams,
	Announcements.Name:     Announcements,
	AnnouncementReads.Name: AnnouncementReads,
	LeaveRequests.Name:     LeaveRequests,
	Timesheets.Name:        Timesheets,
}

// Lookup returns the [Table] definition for a fully qualified name.
func Lookup(name string) (Table, bool) {
	table, ok := registry[name]
	return table, ok
}
