package test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/kilimnik/refine/mutate"
)

// GivenUniqueID returns a fresh record identifier for test data.
func GivenUniqueID(t testing.TB) mutate.RecordID {
	id, err := uuid.NewV7()
	assert.NoError(t, err, "error in arranging test data")

	return id.String()
}

// UpdateCall records one single-record update issued to a fake provider.
type UpdateCall struct {
	Resource mutate.ResourceName
	ID       mutate.RecordID
	Values   mutate.Values
	Meta     mutate.Metadata
}

// UpdateManyCall records one batch update issued to a fake provider.
type UpdateManyCall struct {
	Resource mutate.ResourceName
	IDs      []mutate.RecordID
	Values   mutate.Values
	Meta     mutate.Metadata
}

// SingleProvider is a scriptable fake implementing mutate.DataProvider
// without batch support, forcing the client onto the fallback path.
type SingleProvider struct {
	mu      sync.Mutex
	failFor map[mutate.RecordID]error
	calls   []UpdateCall
}

func NewSingleProvider() *SingleProvider {
	return &SingleProvider{failFor: make(map[mutate.RecordID]error)}
}

// FailFor makes every update of the given record identifier fail with err.
func (p *SingleProvider) FailFor(id mutate.RecordID, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failFor[id] = err
}

func (p *SingleProvider) Update(
	_ context.Context,
	resource mutate.ResourceName,
	id mutate.RecordID,
	values mutate.Values,
	meta mutate.Metadata,
) (mutate.Record, error) {

	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, UpdateCall{Resource: resource, ID: id, Values: values, Meta: meta})

	if err := p.failFor[id]; err != nil {
		return nil, err
	}

	record := mutate.Record{"id": id}
	for field, value := range values {
		record[field] = value
	}

	return record, nil
}

// UpdateCalls returns a copy of the recorded single-record update calls.
func (p *SingleProvider) UpdateCalls() []UpdateCall {
	p.mu.Lock()
	defer p.mu.Unlock()

	calls := make([]UpdateCall, len(p.calls))
	copy(calls, p.calls)

	return calls
}

// BulkProvider is a scriptable fake implementing mutate.BulkDataProvider.
// Queued failures are consumed one per UpdateMany call, which makes retry
// behavior observable.
type BulkProvider struct {
	single *SingleProvider

	mu        sync.Mutex
	failQueue []error
	bulkCalls []UpdateManyCall
}

func NewBulkProvider() *BulkProvider {
	return &BulkProvider{single: NewSingleProvider()}
}

// FailNext queues errors returned by the upcoming UpdateMany calls, one
// error per call, in order.
func (p *BulkProvider) FailNext(errs ...error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failQueue = append(p.failQueue, errs...)
}

func (p *BulkProvider) Update(
	ctx context.Context,
	resource mutate.ResourceName,
	id mutate.RecordID,
	values mutate.Values,
	meta mutate.Metadata,
) (mutate.Record, error) {

	return p.single.Update(ctx, resource, id, values, meta)
}

func (p *BulkProvider) UpdateMany(
	_ context.Context,
	resource mutate.ResourceName,
	ids []mutate.RecordID,
	values mutate.Values,
	meta mutate.Metadata,
) ([]mutate.Record, error) {

	p.mu.Lock()
	defer p.mu.Unlock()

	p.bulkCalls = append(p.bulkCalls, UpdateManyCall{Resource: resource, IDs: ids, Values: values, Meta: meta})

	if len(p.failQueue) > 0 {
		err := p.failQueue[0]
		p.failQueue = p.failQueue[1:]

		return nil, err
	}

	records := make([]mutate.Record, 0, len(ids))
	for _, id := range ids {
		record := mutate.Record{"id": id}
		for field, value := range values {
			record[field] = value
		}
		records = append(records, record)
	}

	return records, nil
}

// UpdateManyCalls returns a copy of the recorded batch update calls.
func (p *BulkProvider) UpdateManyCalls() []UpdateManyCall {
	p.mu.Lock()
	defer p.mu.Unlock()

	calls := make([]UpdateManyCall, len(p.bulkCalls))
	copy(calls, p.bulkCalls)

	return calls
}

// UpdateCalls returns a copy of the recorded single-record update calls.
func (p *BulkProvider) UpdateCalls() []UpdateCall {
	return p.single.UpdateCalls()
}

// RecordingNotifier captures opened and closed notifications.
type RecordingNotifier struct {
	mu     sync.Mutex
	opened []mutate.Notification
	closed []string
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) Open(notification mutate.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.opened = append(n.opened, notification)
}

func (n *RecordingNotifier) Close(key string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.closed = append(n.closed, key)
}

func (n *RecordingNotifier) Opened() []mutate.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	opened := make([]mutate.Notification, len(n.opened))
	copy(opened, n.opened)

	return opened
}

func (n *RecordingNotifier) Closed() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	closed := make([]string, len(n.closed))
	copy(closed, n.closed)

	return closed
}

// LastOpened returns the most recently opened notification, if any.
func (n *RecordingNotifier) LastOpened() (mutate.Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.opened) == 0 {
		return mutate.Notification{}, false
	}

	return n.opened[len(n.opened)-1], true
}

// RecordingInvalidator captures invalidation batches.
type RecordingInvalidator struct {
	mu      sync.Mutex
	batches [][]mutate.QueryKey
	err     error
}

func NewRecordingInvalidator() *RecordingInvalidator {
	return &RecordingInvalidator{}
}

// FailWith makes every Invalidate call return err.
func (i *RecordingInvalidator) FailWith(err error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.err = err
}

func (i *RecordingInvalidator) Invalidate(_ context.Context, keys []mutate.QueryKey) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := make([]mutate.QueryKey, len(keys))
	copy(batch, keys)
	i.batches = append(i.batches, batch)

	return i.err
}

func (i *RecordingInvalidator) Batches() [][]mutate.QueryKey {
	i.mu.Lock()
	defer i.mu.Unlock()

	batches := make([][]mutate.QueryKey, len(i.batches))
	copy(batches, i.batches)

	return batches
}

// RecordingPublisher captures published live events.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []mutate.LiveEvent
	err    error
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

// FailWith makes every Publish call return err.
func (p *RecordingPublisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.err = err
}

func (p *RecordingPublisher) Publish(_ context.Context, event mutate.LiveEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return p.err
}

func (p *RecordingPublisher) Events() []mutate.LiveEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	events := make([]mutate.LiveEvent, len(p.events))
	copy(events, p.events)

	return events
}

// RecordingApplier captures optimistic applies and rollbacks.
type RecordingApplier struct {
	mu         sync.Mutex
	applied    []UpdateManyCall
	rolledBack []UpdateManyCall
	applyErr   error
}

func NewRecordingApplier() *RecordingApplier {
	return &RecordingApplier{}
}

// FailWith makes every Apply call return err.
func (a *RecordingApplier) FailWith(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.applyErr = err
}

func (a *RecordingApplier) Apply(
	_ context.Context,
	resource mutate.ResourceName,
	ids []mutate.RecordID,
	values mutate.Values,
) error {

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.applyErr != nil {
		return a.applyErr
	}

	a.applied = append(a.applied, UpdateManyCall{Resource: resource, IDs: ids, Values: values})

	return nil
}

func (a *RecordingApplier) Rollback(_ context.Context, resource mutate.ResourceName, ids []mutate.RecordID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.rolledBack = append(a.rolledBack, UpdateManyCall{Resource: resource, IDs: ids})
}

func (a *RecordingApplier) Applied() []UpdateManyCall {
	a.mu.Lock()
	defer a.mu.Unlock()

	applied := make([]UpdateManyCall, len(a.applied))
	copy(applied, a.applied)

	return applied
}

func (a *RecordingApplier) RolledBack() []UpdateManyCall {
	a.mu.Lock()
	defer a.mu.Unlock()

	rolledBack := make([]UpdateManyCall, len(a.rolledBack))
	copy(rolledBack, a.rolledBack)

	return rolledBack
}
