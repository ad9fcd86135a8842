package mutate

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DataProvider is the data-access collaborator for single-record updates.
//
// Providers that support batch updates should additionally implement
// BulkDataProvider; the client detects the capability with a type
// assertion and otherwise degrades to one Update call per identifier.
type DataProvider interface {
	Update(ctx context.Context, resource ResourceName, id RecordID, values Values, meta Metadata) (Record, error)
}

// BulkDataProvider extends DataProvider with a batch update operation.
// This interface is optional - the client uses UpdateMany when available,
// falling back to sequential single-record updates for plain DataProvider
// implementations. The fallback amplifies request count and is discouraged
// for providers that can express the batch natively.
type BulkDataProvider interface {
	DataProvider
	UpdateMany(ctx context.Context, resource ResourceName, ids []RecordID, values Values, meta Metadata) ([]Record, error)
}

// NotificationType classifies a notification shown to the operator.
type NotificationType string

const (
	NotificationTypeSuccess  NotificationType = "success"
	NotificationTypeError    NotificationType = "error"
	NotificationTypeProgress NotificationType = "progress"
)

// Notification is the descriptor handed to the notification collaborator.
// Progress notifications for undoable mutations carry the undo window
// length and a cancellation callback.
type Notification struct {
	Key             string
	Message         string
	Description     string
	Type            NotificationType
	UndoableTimeout time.Duration
	CancelMutation  func()
}

// Notifier is the notification collaborator.
type Notifier interface {
	// Open shows a notification. Repeated calls with the same key replace
	// the previous notification.
	Open(notification Notification)

	// Close dismisses the notification with the given key, if still shown.
	Close(key string)
}

// LiveEventType classifies a realtime event.
type LiveEventType string

const (
	LiveEventCreated LiveEventType = "created"
	LiveEventUpdated LiveEventType = "updated"
	LiveEventDeleted LiveEventType = "deleted"
)

// LiveEventPayload carries the identifiers affected by a mutation.
type LiveEventPayload struct {
	IDs []RecordID `json:"ids"`
}

// LiveEvent is emitted after a successful mutation so other connected
// clients can react to the change.
type LiveEvent struct {
	ID      uuid.UUID        `json:"id"`
	Channel string           `json:"channel"`
	Type    LiveEventType    `json:"type"`
	Payload LiveEventPayload `json:"payload"`
	Date    time.Time        `json:"date"`
}

// BuildLiveEvent is a factory method for LiveEvent. The channel is derived
// from the resource name as "resources/<resource>".
func BuildLiveEvent(resource ResourceName, eventType LiveEventType, ids []RecordID) LiveEvent {
	return LiveEvent{
		ID:      uuid.New(),
		Channel: "resources/" + resource,
		Type:    eventType,
		Payload: LiveEventPayload{IDs: ids},
		Date:    time.Now(),
	}
}

// Publisher is the realtime collaborator.
type Publisher interface {
	Publish(ctx context.Context, event LiveEvent) error
}

// Invalidator is the cache-invalidation collaborator. The invalidation
// store owns its own consistency; the client only issues requests to it.
type Invalidator interface {
	Invalidate(ctx context.Context, keys []QueryKey) error
}

// OptimisticApplier applies a pending change to cached data before the
// server acknowledgment and rolls it back when the request fails or the
// mutation is cancelled. Used for optimistic and undoable modes.
type OptimisticApplier interface {
	Apply(ctx context.Context, resource ResourceName, ids []RecordID, values Values) error
	Rollback(ctx context.Context, resource ResourceName, ids []RecordID)
}
