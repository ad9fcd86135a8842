// Package mutate provides the core contract for batch record mutations
// in admin-panel backends.
//
// This package defines option resolution with per-field precedence, the
// mutation lifecycle state machine (pessimistic, optimistic, and undoable
// timing modes), cache invalidation key building, and the collaborator
// interfaces for data access, notifications, realtime publication, and
// cache invalidation.
//
// The mutation lifecycle supports:
//   - Pessimistic mode: side effects strictly after server acknowledgment
//   - Optimistic mode: cache applied before the request, rolled back on failure
//   - Undoable mode: a cancellable countdown before the request is issued
//
// Key types:
//   - ResolvedOptions: fully populated configuration after per-field resolution
//   - MutationRequest: a single batch update request
//   - Mutation: the handle returned for an in-flight mutation call
//
// Common usage pattern:
//
//	client, err := mutate.NewClient(
//		provider,
//		mutate.WithOptions(mutate.Options{MutationMode: mutate.Ptr(mutate.MutationModeUndoable)}),
//		mutate.WithNotifier(notifier),
//		mutate.WithInvalidator(invalidator),
//	)
//
//	req, _ := mutate.BuildMutationRequest("posts", []mutate.RecordID{"1", "2"}, mutate.Values{"status": "published"})
//	mutation, _ := client.UpdateMany(ctx, req)
//	records, err := mutation.Wait(ctx)
package mutate
