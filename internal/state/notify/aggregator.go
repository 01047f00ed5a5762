// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/billowria/teampulse/internal/gateway"
	"github.com/billowria/teampulse/internal/platform/apperr"
	"github.com/billowria/teampulse/internal/platform/database/schema"
)

// RequesterNotifier is the downstream side effect fired after a leave
// decision. It is an external collaborator and may be nil.
type RequesterNotifier interface {
	LeaveDecided(ctx context.Context, requesterID, leaveID, decision string)
}

// Aggregator owns the live merged feed for one attached identity. It
// keeps the feed current through realtime subscriptions and exposes the
// per-item actions.
type Aggregator struct {
	tables   gateway.Tables
	realtime gateway.Realtime
	notifier RequesterNotifier
	logger   *slog.Logger

	mutex    sync.Mutex
	identity Identity
	attached bool
	feed     []Item

	// hidden carries the ids of locally dismissed timesheets. They have
	// no remote dismissal concept, the hide lasts for the attachment.
	hidden map[string]bool

	unsubscribes []func()
	refreshQueue chan struct{}
	done         chan struct{}
}

func NewAggregator(tables gateway.Tables, realtime gateway.Realtime, notifier RequesterNotifier, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		tables:   tables,
		realtime: realtime,
		notifier: notifier,
		logger:   logger,
		hidden:   map[string]bool{},
	}
}

/*
AttachUser binds the aggregator to an identity, runs the initial merge
and starts following inserts on the leave-request and announcement
tables.

Each realtime event enqueues a full refetch rather than patching the
feed; queued triggers coalesce so a burst of events runs one merge.

Parameters:
  - context: Scope for the initial merge
  - identity: Viewer, their team and role

Returns:
  - error: Subscription failure; the initial merge itself is fail-soft
*/
func (aggregator *Aggregator) AttachUser(context context.Context, identity Identity) error {
	aggregator.mutex.Lock()
	aggregator.identity = identity
	aggregator.attached = true
	aggregator.feed = nil
	aggregator.hidden = map[string]bool{}
	aggregator.refreshQueue = make(chan struct{}, 1)
	aggregator.done = make(chan struct{})
	done := aggregator.done
	queue := aggregator.refreshQueue
	aggregator.mutex.Unlock()

	var unsubscribes []func()
	for _, table := range []string{schema.LeaveRequests.Name, schema.Announcements.Name} {
		unsubscribe, err := aggregator.realtime.Subscribe(table, gateway.EventInsert, func(gateway.Row) {
			aggregator.enqueueRefresh()
		})
		if err != nil {
			for _, undo := range unsubscribes {
				undo()
			}
			aggregator.mutex.Lock()
			aggregator.detachLocked()
			aggregator.mutex.Unlock()
			return err
		}
		unsubscribes = append(unsubscribes, unsubscribe)
	}

	aggregator.mutex.Lock()
	aggregator.unsubscribes = unsubscribes
	aggregator.mutex.Unlock()

	go aggregator.refreshLoop(done, queue)

	aggregator.Refresh(context)
	return nil
}

// DetachUser stops the realtime subscriptions and clears all view state.
func (aggregator *Aggregator) DetachUser() {
	aggregator.mutex.Lock()
	defer aggregator.mutex.Unlock()
	aggregator.detachLocked()
}

func (aggregator *Aggregator) detachLocked() {
	for _, unsubscribe := range aggregator.unsubscribes {
		unsubscribe()
	}
	aggregator.unsubscribes = nil
	if aggregator.done != nil {
		close(aggregator.done)
		aggregator.done = nil
	}
	aggregator.attached = false
	aggregator.identity = Identity{}
	aggregator.feed = nil
	aggregator.hidden = map[string]bool{}
}

func (aggregator *Aggregator) enqueueRefresh() {
	aggregator.mutex.Lock()
	queue := aggregator.refreshQueue
	aggregator.mutex.Unlock()
	if queue == nil {
		return
	}
	select {
	case queue <- struct{}{}:
	default:
		// A refetch is already queued, this trigger coalesces into it.
	}
}

func (aggregator *Aggregator) refreshLoop(done <-chan struct{}, queue <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-queue:
			aggregator.Refresh(context.Background())
		}
	}
}

/*
Refresh reruns the full merge and replaces the feed atomically.

A fetch failure is logged and leaves the previous feed in place.

Parameters:
  - context: Scope for the source fetches
*/
func (aggregator *Aggregator) Refresh(context context.Context) {
	aggregator.mutex.Lock()
	if !aggregator.attached {
		aggregator.mutex.Unlock()
		return
	}
	identity := aggregator.identity
	aggregator.mutex.Unlock()

	items, err := fetchFeed(context, aggregator.tables, identity, time.Now().UTC())
	if err != nil {
		aggregator.logger.Warn("notification refetch failed, keeping previous feed",
			"user_id", identity.UserID, "error", err)
		return
	}

	aggregator.mutex.Lock()
	defer aggregator.mutex.Unlock()
	if aggregator.identity != identity {
		return
	}
	aggregator.feed = aggregator.withoutHiddenLocked(items)
}

func (aggregator *Aggregator) withoutHiddenLocked(items []Item) []Item {
	if len(aggregator.hidden) == 0 {
		return items
	}
	kept := items[:0]
	for _, item := range items {
		if !aggregator.hidden[item.ID] {
			kept = append(kept, item)
		}
	}
	return kept
}

// Feed returns a copy of the current merged feed.
func (aggregator *Aggregator) Feed() []Item {
	aggregator.mutex.Lock()
	defer aggregator.mutex.Unlock()
	feed := make([]Item, len(aggregator.feed))
	copy(feed, aggregator.feed)
	return feed
}

// UnreadCount returns the badge count, the number of unread items.
func (aggregator *Aggregator) UnreadCount() int {
	aggregator.mutex.Lock()
	defer aggregator.mutex.Unlock()
	count := 0
	for _, item := range aggregator.feed {
		if !item.Read {
			count++
		}
	}
	return count
}

// # Per-item Actions

/*
MarkAnnouncementRead durably marks one announcement read and flips the
matching feed item.

Idempotent. Marking an already-read announcement is a no-op success and
the unread count never drops below zero.

Parameters:
  - context: Request-scoped context
  - announcementID: Source announcement id

Returns:
  - error: Remote receipt write failure; the feed is left unchanged
*/
func (aggregator *Aggregator) MarkAnnouncementRead(context context.Context, announcementID string) error {
	aggregator.mutex.Lock()
	userID := aggregator.identity.UserID
	aggregator.mutex.Unlock()

	if err := upsertReadReceipt(context, aggregator.tables, userID, announcementID); err != nil {
		aggregator.logger.Warn("read receipt write failed",
			"announcement_id", announcementID, "error", err)
		return err
	}

	aggregator.mutex.Lock()
	id := itemID(TypeAnnouncement, announcementID)
	for index := range aggregator.feed {
		if aggregator.feed[index].ID == id {
			aggregator.feed[index].Read = true
		}
	}
	aggregator.mutex.Unlock()

	// Reconcile the optimistic flip against the sources.
	aggregator.enqueueRefresh()
	return nil
}

/*
Dismiss removes one item from the feed with type-specific semantics.

A leave request has no neutral hidden status, so its dismissal is
recorded as a rejection of the underlying request. That conflation is
deliberate and logged every time it happens. A timesheet is hidden
locally only, nothing changes remotely. An announcement dismissal is a
durable read receipt.

Parameters:
  - context: Request-scoped context
  - notificationID: Synthetic feed id

Returns:
  - error: ErrValidation on an unrecognized id, or the remote mutation
    failure; on failure the feed is left unchanged
*/
func (aggregator *Aggregator) Dismiss(context context.Context, notificationID string) error {
	itemType, sourceID, ok := splitItemID(notificationID)
	if !ok {
		return apperr.ValidationError("Unrecognized notification id")
	}

	switch itemType {
	case TypeLeaveRequest:
		aggregator.logger.Warn("leave notification dismissed, recording rejection of the request",
			"leave_id", sourceID)
		if err := decideLeaveRequest(context, aggregator.tables, sourceID, "rejected"); err != nil {
			aggregator.logger.Warn("leave dismissal failed", "leave_id", sourceID, "error", err)
			return err
		}
		aggregator.removeItem(notificationID)
		aggregator.enqueueRefresh()
		return nil

	case TypeTimesheet:
		aggregator.mutex.Lock()
		aggregator.hidden[notificationID] = true
		aggregator.mutex.Unlock()
		aggregator.removeItem(notificationID)
		return nil

	case TypeAnnouncement:
		return aggregator.MarkAnnouncementRead(context, sourceID)

	default:
		return apperr.ValidationError("Unrecognized notification id")
	}
}

/*
ActOnLeaveRequest approves or rejects a pending leave request from the
feed, then fires the requester notification side effect.

Parameters:
  - context: Request-scoped context
  - leaveID: Source leave request id
  - decision: "approved" or "rejected"

Returns:
  - error: ErrValidation on a bad decision, or the remote mutation
    failure; on failure the feed is left unchanged
*/
func (aggregator *Aggregator) ActOnLeaveRequest(context context.Context, leaveID, decision string) error {
	if decision != "approved" && decision != "rejected" {
		return apperr.ValidationError("Decision must be approved or rejected")
	}

	aggregator.mutex.Lock()
	requesterID := ""
	for _, item := range aggregator.feed {
		if item.ID == itemID(TypeLeaveRequest, leaveID) {
			requesterID = rowString(item.Source, "requesterid")
		}
	}
	aggregator.mutex.Unlock()

	if err := decideLeaveRequest(context, aggregator.tables, leaveID, decision); err != nil {
		aggregator.logger.Warn("leave decision failed", "leave_id", leaveID, "error", err)
		return err
	}

	aggregator.removeItem(itemID(TypeLeaveRequest, leaveID))
	aggregator.enqueueRefresh()

	if aggregator.notifier != nil && requesterID != "" {
		aggregator.notifier.LeaveDecided(context, requesterID, leaveID, decision)
	}
	return nil
}

// removeItem drops one item from the feed after a successful remote
// mutation. The optimistic removal never precedes the success path.
func (aggregator *Aggregator) removeItem(id string) {
	aggregator.mutex.Lock()
	defer aggregator.mutex.Unlock()
	kept := aggregator.feed[:0]
	for _, item := range aggregator.feed {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	aggregator.feed = kept
}
