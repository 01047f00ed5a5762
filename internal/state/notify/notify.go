// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

/*
Package notify implements the notification aggregator: one unified,
time-ordered feed merged from three independently shaped record streams.

Pending leave requests and pending timesheets are manager-only sources
and carry no durable read state; their presence in the pending set is
the unread signal. Announcements are team-scoped, time-bounded and carry
a durable per-user read receipt.

The feed is never patched in place. Every trigger (mount, realtime
event, local action) reruns the full merge and replaces the feed
atomically, so the view cannot diverge from the remote source of truth.
Fetch failures keep the previous feed; a transient error never blanks
the view.
*/
package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/billowria/teampulse/internal/gateway"
	"github.com/billowria/teampulse/internal/platform/database/schema"
	"github.com/billowria/teampulse/internal/platform/sec"
	"github.com/billowria/teampulse/pkg/slice"
)

// # Feed Items

const (
	TypeLeaveRequest = "leave_request"
	TypeAnnouncement = "announcement"
	TypeTimesheet    = "timesheet"
)

// Item is one entry of the merged feed. ID is synthetic and unique
// across all three source types.
type Item struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Title     string      `json:"title"`
	Message   string      `json:"message"`
	CreatedAt time.Time   `json:"created_at"`
	Read      bool        `json:"read"`
	Source    gateway.Row `json:"source"`
}

func itemID(itemType, sourceID string) string {
	return itemType + "-" + sourceID
}

// splitItemID recovers the source type and record id from a synthetic
// feed id. ok is false for an id no source type produced.
func splitItemID(id string) (itemType, sourceID string, ok bool) {
	for _, candidate := range []string{TypeLeaveRequest, TypeAnnouncement, TypeTimesheet} {
		if rest, found := strings.CutPrefix(id, candidate+"-"); found && rest != "" {
			return candidate, rest, true
		}
	}
	return "", "", false
}

// Identity scopes one user's view of the feed.
type Identity struct {
	UserID string
	TeamID string
	Role   sec.UserRole
}

// # Merge

/*
fetchFeed runs the full three-source merge for one identity.

Manager-only sources are skipped entirely for a non-managerial role, the
queries are never issued. All sources are fetched before any result is
assembled, so the caller can swap the feed in one atomic replacement.

Any fetch error aborts the merge; the caller keeps its previous feed.
*/
func fetchFeed(ctx context.Context, tables gateway.Tables, identity Identity, now time.Time) ([]Item, error) {
	var items []Item

	if identity.Role.IsManagerial() {
		leaves, err := tables.Read(ctx, schema.LeaveRequests.Name,
			[]gateway.Filter{
				gateway.Eq("teamid", identity.TeamID),
				gateway.Eq("status", "pending"),
			},
			[]string{"id", "requesterid", "reason", "startdate", "enddate", "createdat"},
		)
		if err != nil {
			return nil, err
		}
		for _, row := range leaves {
			items = append(items, Item{
				ID:        itemID(TypeLeaveRequest, rowString(row, "id")),
				Type:      TypeLeaveRequest,
				Title:     "Leave request awaiting review",
				Message:   rowString(row, "reason"),
				CreatedAt: rowTime(row, "createdat"),
				Read:      false,
				Source:    row,
			})
		}

		sheets, err := tables.Read(ctx, schema.Timesheets.Name,
			[]gateway.Filter{
				gateway.Eq("teamid", identity.TeamID),
				gateway.Eq("status", "pending"),
			},
			[]string{"id", "userid", "weekstart", "totalhours", "createdat"},
		)
		if err != nil {
			return nil, err
		}
		for _, row := range sheets {
			items = append(items, Item{
				ID:        itemID(TypeTimesheet, rowString(row, "id")),
				Type:      TypeTimesheet,
				Title:     "Timesheet awaiting review",
				CreatedAt: rowTime(row, "createdat"),
				Read:      false,
				Source:    row,
			})
		}
	}

	announcements, err := tables.Read(ctx, schema.Announcements.Name,
		[]gateway.Filter{
			gateway.Eq("teamid", identity.TeamID),
			gateway.Gt("expiresat", now),
		},
		[]string{"id", "title", "message", "priority", "createdat"},
	)
	if err != nil {
		return nil, err
	}

	receipts, err := readReceipts(ctx, tables, identity.UserID, announcements)
	if err != nil {
		return nil, err
	}

	for _, row := range announcements {
		id := rowString(row, "id")
		items = append(items, Item{
			ID:        itemID(TypeAnnouncement, id),
			Type:      TypeAnnouncement,
			Title:     rowString(row, "title"),
			Message:   rowString(row, "message"),
			CreatedAt: rowTime(row, "createdat"),
			Read:      receipts[id],
			Source:    row,
		})
	}

	// Ties keep source order, the sort must be stable.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

// readReceipts fetches the durable read flags for exactly the given
// announcements. A missing receipt row means unread.
func readReceipts(ctx context.Context, tables gateway.Tables, userID string, announcements []gateway.Row) (map[string]bool, error) {
	if len(announcements) == 0 {
		return nil, nil
	}

	ids := slice.Map(announcements, func(row gateway.Row) string {
		return rowString(row, "id")
	})

	rows, err := tables.Read(ctx, schema.AnnouncementReads.Name,
		[]gateway.Filter{
			gateway.Eq("userid", userID),
			gateway.In("announcementid", ids),
		},
		[]string{"announcementid", "isread"},
	)
	if err != nil {
		return nil, err
	}

	receipts := make(map[string]bool, len(rows))
	for _, row := range rows {
		isRead, _ := row["isread"].(bool)
		receipts[rowString(row, "announcementid")] = isRead
	}
	return receipts, nil
}

// # Remote Mutations

// upsertReadReceipt durably marks one announcement read for one user.
// Idempotent, a second call rewrites the same receipt.
func upsertReadReceipt(ctx context.Context, tables gateway.Tables, userID, announcementID string) error {
	_, err := tables.Upsert(ctx, schema.AnnouncementReads.Name,
		gateway.Row{
			"announcementid": announcementID,
			"userid":         userID,
			"isread":         true,
			"readat":         time.Now().UTC(),
		},
		[]string{"announcementid", "userid"},
	)
	return err
}

// decideLeaveRequest flips a pending leave request to its final status.
// The pending filter makes a raced decision a silent no-op at this layer.
func decideLeaveRequest(ctx context.Context, tables gateway.Tables, leaveID, decision string) error {
	return tables.Update(ctx, schema.LeaveRequests.Name,
		[]gateway.Filter{
			gateway.Eq("id", leaveID),
			gateway.Eq("status", "pending"),
		},
		gateway.Row{"status": decision},
	)
}

// # Row Helpers

// rowString normalizes a gateway value to a string. pgx hydrates uuid
// columns as raw 16-byte arrays, those render in canonical form.
func rowString(row gateway.Row, column string) string {
	switch value := row[column].(type) {
	case string:
		return value
	case [16]byte:
		return uuid.UUID(value).String()
	case fmt.Stringer:
		return value.String()
	}
	return ""
}

func rowTime(row gateway.Row, column string) time.Time {
	value, _ := row[column].(time.Time)
	return value
}
