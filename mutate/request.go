package mutate

import (
	"slices"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// InvalidationTarget names a cache key scope whose cached results are
// discarded after a successful write, forcing a refetch.
type InvalidationTarget string

const (
	// InvalidateList discards the cached list queries of the resource.
	InvalidateList InvalidationTarget = "list"

	// InvalidateMany discards the cached getMany queries of the resource.
	InvalidateMany InvalidationTarget = "many"

	// InvalidateDetail discards the cached detail query of each mutated record.
	InvalidateDetail InvalidationTarget = "detail"

	// InvalidateAll discards every cached query of the data provider.
	InvalidateAll InvalidationTarget = "all"

	// InvalidateResourceAll discards every cached query of the resource.
	InvalidateResourceAll InvalidationTarget = "resourceAll"

	// InvalidateNone disables invalidation for the mutation entirely.
	InvalidateNone InvalidationTarget = "false"
)

// DefaultInvalidates returns the invalidation targets applied when a
// request does not name its own: list, many, and detail.
func DefaultInvalidates() []InvalidationTarget {
	return []InvalidationTarget{InvalidateList, InvalidateMany, InvalidateDetail}
}

// SuccessNotificationBuilder customizes the notification shown after a
// successful mutation. Returning nil suppresses the notification.
type SuccessNotificationBuilder func(records []Record, req MutationRequest) *Notification

// ErrorNotificationBuilder customizes the notification shown after a
// failed mutation. Returning nil suppresses the notification.
type ErrorNotificationBuilder func(err error, req MutationRequest) *Notification

// MutationRequest describes a single batch update.
//
// While its properties are exported, it should be constructed with
// BuildMutationRequest, which validates the required fields.
type MutationRequest struct {
	// Resource names the backend resource the mutation targets.
	Resource ResourceName

	// IDs are the identifiers of the records to update. At least one.
	IDs []RecordID

	// Values is the partial value set applied to every targeted record.
	Values Values

	// MutationMode overrides the resolved mutation mode for this call only.
	MutationMode *MutationMode

	// UndoableTimeout overrides the resolved undo window for this call only.
	UndoableTimeout *time.Duration

	// OnCancel is invoked if the mutation is cancelled during the undo window.
	OnCancel func()

	// OnInterval is invoked with the cumulative elapsed time on every
	// overtime interval while the request is outstanding.
	OnInterval func(elapsed time.Duration)

	// SuccessNotification replaces the default success notification.
	SuccessNotification SuccessNotificationBuilder

	// ErrorNotification replaces the default error notification.
	ErrorNotification ErrorNotificationBuilder

	// Meta is passed through to the data provider untouched.
	Meta Metadata

	// DataProviderName selects the data provider the host application routes
	// this request to, and scopes the invalidation keys.
	DataProviderName string

	// Invalidates lists the cache scopes to discard after success.
	// Empty means the default targets (list, many, detail).
	// Containing InvalidateNone disables invalidation entirely.
	Invalidates []InvalidationTarget
}

// BuildMutationRequest is a factory method for MutationRequest.
//
// It populates the request with the given resource, record identifiers, and
// partial values, and validates that none of them is empty.
func BuildMutationRequest(resource ResourceName, ids []RecordID, values Values) (MutationRequest, error) {
	req := MutationRequest{
		Resource: resource,
		IDs:      ids,
		Values:   values,
	}

	if err := req.Validate(); err != nil {
		return MutationRequest{}, err
	}

	return req, nil
}

// Validate ensures the request names a resource, at least one record
// identifier, and a non-empty value set.
func (r MutationRequest) Validate() error {
	if r.Resource == "" {
		return ErrEmptyResourceName
	}

	if len(r.IDs) == 0 {
		return ErrNoRecordIDs
	}

	if len(r.Values) == 0 {
		return ErrNoValues
	}

	return nil
}

// ValuesJSON serializes the partial value set, used for live event payloads
// and debug logging.
func (r MutationRequest) ValuesJSON() ([]byte, error) {
	return jsoniter.ConfigFastest.Marshal(r.Values)
}

// QueryKey identifies one cached query scope in the invalidation store.
// Detail keys additionally carry the record identifier.
type QueryKey struct {
	DataProvider string
	Resource     ResourceName
	Scope        InvalidationTarget
	ID           RecordID
}

// BuildInvalidationKeys produces the exact set of query keys to discard for
// the given targets.
//
// Semantics per target:
//   - list/many: one key scoped to the resource
//   - detail: one key per distinct record identifier
//   - resourceAll: one key covering every scope of the resource
//   - all: one key covering every resource of the data provider
//   - false: disables invalidation; the result is empty regardless of
//     other targets
//
// An empty target list falls back to DefaultInvalidates.
func BuildInvalidationKeys(
	dataProviderName string,
	resource ResourceName,
	targets []InvalidationTarget,
	ids []RecordID,
) []QueryKey {

	if len(targets) == 0 {
		targets = DefaultInvalidates()
	}

	if slices.Contains(targets, InvalidateNone) {
		return nil
	}

	keys := make([]QueryKey, 0, len(targets)+len(ids))
	seenIDs := make(map[RecordID]struct{}, len(ids))

	for _, target := range targets {
		switch target {
		case InvalidateList, InvalidateMany:
			keys = append(keys, QueryKey{DataProvider: dataProviderName, Resource: resource, Scope: target})

		case InvalidateDetail:
			for _, id := range ids {
				if _, seen := seenIDs[id]; seen {
					continue
				}
				seenIDs[id] = struct{}{}
				keys = append(keys, QueryKey{DataProvider: dataProviderName, Resource: resource, Scope: target, ID: id})
			}

		case InvalidateResourceAll:
			keys = append(keys, QueryKey{DataProvider: dataProviderName, Resource: resource, Scope: target})

		case InvalidateAll:
			keys = append(keys, QueryKey{DataProvider: dataProviderName, Scope: target})
		}
	}

	return keys
}
