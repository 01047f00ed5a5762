// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package notify

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
	"github.com/billowria/teampulse/internal/platform/sec"
)

// # Fakes

type recordedUpdate struct {
	table   string
	filters []gateway.Filter
	patch   gateway.Row
}

type fakeTables struct {
	mutex     sync.Mutex
	rows      map[string][]gateway.Row
	errs      map[string]error
	readOrder []string
	updates   []recordedUpdate
	upserts   []gateway.Row
	updateErr error
	upsertErr error
}

func newFakeTables() *fakeTables {
	return &fakeTables{
		rows: map[string][]gateway.Row{},
		errs: map[string]error{},
	}
}

func (tables *fakeTables) Read(_ context.Context, table string, _ []gateway.Filter, _ []string) ([]gateway.Row, error) {
	tables.mutex.Lock()
	defer tables.mutex.Unlock()
	tables.readOrder = append(tables.readOrder, table)
	if err := tables.errs[table]; err != nil {
		return nil, err
	}
	return tables.rows[table], nil
}

func (tables *fakeTables) Upsert(_ context.Context, table string, row gateway.Row, _ []string) (gateway.Row, error) {
	tables.mutex.Lock()
	defer tables.mutex.Unlock()
	if tables.upsertErr != nil {
		return nil, tables.upsertErr
	}
	if table != schema.AnnouncementReads.Name {
		panic("unexpected upsert table " + table)
	}
	tables.upserts = append(tables.upserts, row)
	// Serve the new receipt on subsequent reads.
	tables.rows[table] = append(tables.rows[table], row)
	return row, nil
}

func (tables *fakeTables) Update(_ context.Context, table string, filters []gateway.Filter, patch gateway.Row) error {
	tables.mutex.Lock()
	defer tables.mutex.Unlock()
	if tables.updateErr != nil {
		return tables.updateErr
	}
	tables.updates = append(tables.updates, recordedUpdate{table: table, filters: filters, patch: patch})
	// Every update in this package moves a row out of pending, so it
	// stops matching the pending reads. Drop it from the served set.
	kept := tables.rows[table][:0]
	for _, row := range tables.rows[table] {
		if row["id"] != filters[0].Value {
			kept = append(kept, row)
		}
	}
	tables.rows[table] = kept
	return nil
}

func (tables *fakeTables) readTables() []string {
	tables.mutex.Lock()
	defer tables.mutex.Unlock()
	order := make([]string, len(tables.readOrder))
	copy(order, tables.readOrder)
	return order
}

type fakeRealtime struct {
	mutex     sync.Mutex
	listeners map[string][]func(gateway.Row)
}

func newFakeRealtime() *fakeRealtime {
	return &fakeRealtime{listeners: map[string][]func(gateway.Row){}}
}

func realtimeKey(table string, event gateway.Event) string {
	return table + "/" + string(event)
}

func (bus *fakeRealtime) Subscribe(table string, event gateway.Event, fn func(gateway.Row)) (func(), error) {
	bus.mutex.Lock()
	defer bus.mutex.Unlock()
	key := realtimeKey(table, event)
	bus.listeners[key] = append(bus.listeners[key], fn)
	return func() {}, nil
}

func (bus *fakeRealtime) Publish(_ context.Context, table string, event gateway.Event, payload gateway.Row) error {
	bus.mutex.Lock()
	listeners := append([]func(gateway.Row){}, bus.listeners[realtimeKey(table, event)]...)
	bus.mutex.Unlock()
	for _, fn := range listeners {
		fn(payload)
	}
	return nil
}

type fakeNotifier struct {
	mutex     sync.Mutex
	decisions []string
}

func (notifier *fakeNotifier) LeaveDecided(_ context.Context, requesterID, leaveID, decision string) {
	notifier.mutex.Lock()
	defer notifier.mutex.Unlock()
	notifier.decisions = append(notifier.decisions, requesterID+"/"+leaveID+"/"+decision)
}

// # Scenario Data

var feedBase = time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC)

// seedManagerScenario loads one pending leave request, one unread and one
// read announcement and one pending timesheet.
func seedManagerScenario(tables *fakeTables) {
	tables.rows[schema.LeaveRequests.Name] = []gateway.Row{
		{"id": "leave-1", "requesterid": "member-9", "reason": "vacation", "createdat": feedBase.Add(-1 * time.Hour)},
	}
	tables.rows[schema.Timesheets.Name] = []gateway.Row{
		{"id": "sheet-1", "userid": "member-9", "createdat": feedBase.Add(-3 * time.Hour)},
	}
	tables.rows[schema.Announcements.Name] = []gateway.Row{
		{"id": "ann-1", "title": "Maintenance window", "message": "Friday night", "createdat": feedBase.Add(-2 * time.Hour)},
		{"id": "ann-2", "title": "Welcome", "message": "New teammate", "createdat": feedBase.Add(-4 * time.Hour)},
	}
	tables.rows[schema.AnnouncementReads.Name] = []gateway.Row{
		{"announcementid": "ann-2", "isread": true},
	}
}

var managerIdentity = Identity{UserID: "mgr-1", TeamID: "team-1", Role: sec.RoleManager}

func newTestAggregator(tables *fakeTables, realtime *fakeRealtime, notifier RequesterNotifier) *Aggregator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAggregator(tables, realtime, notifier, logger)
}

func attach(t *testing.T, aggregator *Aggregator, identity Identity) {
	t.Helper()
	require.NoError(t, aggregator.AttachUser(context.Background(), identity))
	t.Cleanup(aggregator.DetachUser)
}

// # Merge

func TestManagerFeedMergesAllSourcesSortedNewestFirst(t *testing.T) {
	tables := newFakeTables()
	seedManagerScenario(tables)
	aggregator := newTestAggregator(tables, newFakeRealtime(), nil)

	attach(t, aggregator, managerIdentity)

	feed := aggregator.Feed()
	require.Len(t, feed, 4)

	ids := make([]string, len(feed))
	for index, item := range feed {
		ids[index] = item.ID
	}
	assert.Equal(t, []string{
		"leave_request-leave-1",
		"announcement-ann-1",
		"timesheet-sheet-1",
		"announcement-ann-2",
	}, ids)

	// The read announcement is in the feed but off the badge.
	assert.True(t, feed[3].Read)
	assert.Equal(t, 3, aggregator.UnreadCount())
}

func TestMemberFeedSkipsManagerOnlyQueries(t *testing.T) {
	tables := newFakeTables()
	seedManagerScenario(tables)
	aggregator := newTestAggregator(tables, newFakeRealtime(), nil)

	attach(t, aggregator, Identity{UserID: "member-9", TeamID: "team-1", Role: sec.RoleMember})

	feed := aggregator.Feed()
	require.Len(t, feed, 2)
	for _, item := range feed {
		assert.Equal(t, TypeAnnouncement, item.Type)
	}

	for _, table := range tables.readTables() {
		assert.NotEqual(t, schema.LeaveRequests.Name, table)
		assert.NotEqual(t, schema.Timesheets.Name, table)
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	tables := newFakeTables()
	seedManagerScenario(tables)
	aggregator := newTestAggregator(tables, newFakeRealtime(), nil)

	attach(t, aggregator, managerIdentity)
	first := aggregator.Feed()

	aggregator.Refresh(context.Background())
	second := aggregator.Feed()

	assert.Equal(t, first, second)
}

func TestRefreshFailureKeepsPreviousFeed(t *testing.T) {
	tables := newFakeTables()
	seedManagerScenario(tables)
	aggregator := newTestAggregator(tables, newFakeRealtime(), nil)

	attach(t, aggregator, managerIdentity)
	before := aggregator.Feed()
	require.NotEmpty(t, before)

	tables.mutex.Lock()
	tables.errs[schema.Announcements.Name] = assert.AnError
	tables.mutex.Unlock()

	aggregator.Refresh(context.Background())

	assert.Equal(t, before, aggregator.Feed())
}

func TestRealtimeInsertTriggersRefetch(t *testing.T) {
	tables := newFakeTables()
	seedManagerScenario(tables)
	realtime := newFakeRealtime()
	aggregator := newTestAggregator(tables, realtime, nil)

	attach(t, aggregator, managerIdentity)
	require.Len(t, aggregator.Feed(), 4)

	tables.mutex.Lock()
	tables.rows[schema.LeaveRequests.Name] = append(tables.rows[schema.LeaveRequests.Name],
		gateway.Row{"id": "leave-2", "requesterid": "member-4", "reason": "moving", "createdat": feedBase})
	tables.mutex.Unlock()

	require.NoError(t, realtime.Publish(context.Background(), schema.LeaveRequests.Name, gateway.EventInsert,
		gateway.Row{"id": "leave-2"}))

	require.Eventually(t, func() bool {
		return len(aggregator.Feed()) == 5
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "leave_request-leave-2", aggregator.Feed()[0].ID)
}

// # Read Receipts

func TestMarkAnnouncementReadIsIdempotent(t *testing.T) {
	tables := newFakeTables()
	seedManagerScenario(tables)
	aggregator := newTestAggregator(tables, newFakeRealtime(), nil)

	attach(t, aggregator, managerIdentity)
	require.Equal(t, 3, aggregator.UnreadCount())

	require.NoError(t, aggregator.MarkAnnouncementRead(context.Background(), "ann-1"))
	assert.Equal(t, 2, aggregator.UnreadCount())

	require.NoError(t, aggregator.MarkAnnouncementRead(context.Background(), "ann-1"))
	assert.Equal(t, 2, aggregator.UnreadCount())

	tables.mutex.Lock()
	defer tables.mutex.Unlock()
	require.Len(t, tables.upserts, 2)
	assert.Equal(t, "mgr-1", tables.upserts[0]["userid"])
	assert.Equal(t, true, tables.upserts[0]["isread"])
}

// # Dismissal

func TestDismissLeaveRequestRecordsRejection(t *testing.T) {
	tables := newFakeTables()
	seedManagerScenario(tables)
	aggregator := newTestAggregator(tables, newFakeRealtime(), nil)

	attach(t, aggregator, managerIdentity)

	require.NoError(t, aggregator.Dismiss(context.Background(), "leave_request-leave-1"))

	tables.mutex.Lock()
	require.Len(t, tables.updates, 1)
	update := tables.updates[0]
	tables.mutex.Unlock()

	assert.Equal(t, schema.LeaveRequests.Name, update.table)
	assert.Equal(t, gateway.Row{"status": "rejected"}, update.patch)

	for _, item := range aggregator.Feed() {
		assert.NotEqual(t, "leave_request-leave-1", item.ID)
	}
}

func TestDismissTimesheetIsLocalOnlyAndSurvivesRefetch(t *testing.T) {
	tables := newFakeTables()
	seedManagerScenario(tables)
	aggregator := newTestAggregator(tables, newFakeRealtime(), nil)

	attach(t, aggregator, managerIdentity)

	require.NoError(t, aggregator.Dismiss(context.Background(), "timesheet-sheet-1"))

	tables.mutex.Lock()
	assert.Empty(t, tables.updates)
	assert.Empty(t, tables.upserts)
	tables.mutex.Unlock()

	// The hide is view-state only but persists across a full refetch.
	aggregator.Refresh(context.Background())
	for _, item := range aggregator.Feed() {
		assert.NotEqual(t, "timesheet-sheet-1", item.ID)
	}
}

func TestDismissAnnouncementDelegatesToReadReceipt(t *testing.T) {
	tables := newFakeTables()
	seedManagerScenario(tables)
	aggregator := newTestAggregator(tables, newFakeRealtime(), nil)

	attach(t, aggregator, managerIdentity)

	require.NoError(t, aggregator.Dismiss(context.Background(), "announcement-ann-1"))

	tables.mutex.Lock()
	require.Len(t, tables.upserts, 1)
	assert.Equal(t, "ann-1", tables.upserts[0]["announcementid"])
	tables.mutex.Unlock()

	// Announcements stay in the feed when dismissed, only their read flag flips.
	require.Len(t, aggregator.Feed(), 4)
	assert.Equal(t, 2, aggregator.UnreadCount())
}

func TestLeaveDecisionEnqueuesReconcilingRefetch(t *testing.T) {
	tables := newFakeTables()
	seedManagerScenario(tables)
	aggregator := newTestAggregator(tables, newFakeRealtime(), nil)

	attach(t, aggregator, managerIdentity)
	readsBefore := len(tables.readTables())

	require.NoError(t, aggregator.Dismiss(context.Background(), "leave_request-leave-1"))

	// The in-place removal is reconciled against the sources by a
	// follow-up full refetch.
	require.Eventually(t, func() bool {
		return len(tables.readTables()) > readsBefore
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		feed := aggregator.Feed()
		for _, item := range feed {
			if item.ID == "leave_request-leave-1" {
				return false
			}
		}
		return len(feed) == 3
	}, time.Second, 5*time.Millisecond)
}

func TestDismissFailureLeavesFeedUnchanged(t *testing.T) {
	tables := newFakeTables()
	seedManagerScenario(tables)
	aggregator := newTestAggregator(tables, newFakeRealtime(), nil)

	attach(t, aggregator, managerIdentity)
	before := aggregator.Feed()

	tables.mutex.Lock()
	tables.updateErr = assert.AnError
	tables.mutex.Unlock()

	require.Error(t, aggregator.Dismiss(context.Background(), "leave_request-leave-1"))
	assert.Equal(t, before, aggregator.Feed())
}

func TestDismissRejectsUnknownID(t *testing.T) {
	aggregator := newTestAggregator(newFakeTables(), newFakeRealtime(), nil)
	assert.Error(t, aggregator.Dismiss(context.Background(), "bogus-id"))
}

// # Decisions

func TestActOnLeaveRequestNotifiesRequester(t *testing.T) {
	tables := newFakeTables()
	seedManagerScenario(tables)
	notifier := &fakeNotifier{}
	aggregator := newTestAggregator(tables, newFakeRealtime(), notifier)

	attach(t, aggregator, managerIdentity)

	require.NoError(t, aggregator.ActOnLeaveRequest(context.Background(), "leave-1", "approved"))

	tables.mutex.Lock()
	require.Len(t, tables.updates, 1)
	assert.Equal(t, gateway.Row{"status": "approved"}, tables.updates[0].patch)
	tables.mutex.Unlock()

	notifier.mutex.Lock()
	assert.Equal(t, []string{"member-9/leave-1/approved"}, notifier.decisions)
	notifier.mutex.Unlock()

	for _, item := range aggregator.Feed() {
		assert.NotEqual(t, "leave_request-leave-1", item.ID)
	}
}

func TestActOnLeaveRequestRejectsBadDecision(t *testing.T) {
	aggregator := newTestAggregator(newFakeTables(), newFakeRealtime(), nil)
	assert.Error(t, aggregator.ActOnLeaveRequest(context.Background(), "leave-1", "maybe"))
}
