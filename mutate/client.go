package mutate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

const (
	logMsgStarted                = "started"
	logMsgCompleted              = "completed"
	logMsgCancelled              = "cancelled during undo window"
	logMsgRetryingCommit         = "retrying failed commit"
	logMsgMutationFailed         = "mutation failed"
	logMsgBulkUnsupported        = "data provider lacks batch support, updating records one by one"
	logMsgInvalidationFailed     = "cache invalidation failed"
	logMsgPublishFailed          = "publishing live event failed"
	logMsgOptimisticApplyFailed  = "optimistic cache apply failed"
	logMsgOperation              = "mutation operation: "
	logAttrError                 = "error"
	logAttrResource              = "resource"
	logAttrRecordCount           = "record_count"
	logAttrMutationMode          = "mutation_mode"
	logAttrDurationMS            = "duration_ms"
	logAttrAttempt               = "attempt"
	metricMutationDuration       = "mutation_duration"
	metricMutationErrors         = "mutation_errors"
	metricMutationsCancelled     = "mutations_cancelled"
	metricFallbackUpdates        = "fallback_updates"
	spanNameUpdateMany           = "mutate.update_many"
	spanStatusOK                 = "ok"
	spanStatusError              = "error"
	spanStatusCancelled          = "cancelled"
	notificationKeySuffix        = "-updateMany"
	undoNotificationMessage      = "You have %.0f seconds to undo"
	successNotificationMessage   = "Successfully updated %s"
	errorNotificationMessage     = "Error when updating %s"
)

// Client submits mutation requests against a data provider and drives the
// side effects of the mutation lifecycle: notifications, cache
// invalidation, and realtime publication. All collaborators besides the
// data provider are optional; unset collaborators are skipped.
type Client struct {
	provider DataProvider

	callSite Options
	params   Params
	ambient  ContextOptions
	resolved ResolvedOptions

	notifier    Notifier
	publisher   Publisher
	invalidator Invalidator
	applier     OptimisticApplier

	logger           Logger
	contextualLogger ContextualLogger
	metrics          MetricsCollector
	tracing          TracingCollector
}

// NewClient creates a new Client around the given data provider with
// optional configuration. Option resolution happens once here; the
// resolved options are immutable afterwards.
func NewClient(provider DataProvider, options ...Option) (*Client, error) {
	if provider == nil {
		return nil, ErrNilDataProvider
	}

	c := &Client{provider: provider}

	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}

	c.resolved = ResolveOptions(c.callSite, c.params, c.ambient)

	return c, nil
}

// Options returns the resolved options the client operates with.
func (c *Client) Options() ResolvedOptions {
	return c.resolved
}

// UpdateMany submits a batch update request and returns the handle for the
// in-flight mutation. The lifecycle runs asynchronously; use the handle to
// wait for the outcome, observe the overtime signal, or cancel an undoable
// mutation during its countdown.
func (c *Client) UpdateMany(ctx context.Context, req MutationRequest) (*Mutation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	mode := firstSet(c.resolved.MutationMode, req.MutationMode)
	undoableTimeout := firstSet(c.resolved.UndoableTimeout, req.UndoableTimeout)

	m := newMutation(c.resolved.OvertimeInterval, req.OnInterval)
	m.begin()

	c.logOperation(ctx, logMsgStarted,
		logAttrResource, req.Resource,
		logAttrRecordCount, len(req.IDs),
		logAttrMutationMode, string(mode))

	go c.run(ctx, m, req, mode, undoableTimeout)

	return m, nil
}

func (c *Client) run(
	ctx context.Context,
	m *Mutation,
	req MutationRequest,
	mode MutationMode,
	undoableTimeout time.Duration,
) {

	start := time.Now()
	ctx, span := c.startSpan(ctx, req, mode)

	applied := c.applyOptimistic(ctx, req, mode)

	if mode == MutationModeUndoable {
		c.openUndoNotification(m, req, undoableTimeout)

		switch m.awaitCountdown(ctx, undoableTimeout) {
		case countdownCancelled:
			c.finishCancelled(ctx, m, req, span, applied, nil)
			return

		case countdownContextEnded:
			c.finishCancelled(ctx, m, req, span, applied, ctx.Err())
			return

		case countdownElapsed:
			// commit below
		}
	}

	m.setState(StateCommitting)

	records, commitErr := c.commitWithRetry(ctx, req)
	duration := time.Since(start)

	if commitErr != nil {
		c.finishFailed(ctx, m, req, span, applied, records, commitErr, duration)
		return
	}

	c.finishSucceeded(ctx, m, req, span, records, duration)
}

// applyOptimistic applies the pending change to cached data for optimistic
// and undoable modes. It returns whether an apply happened and therefore
// must be rolled back on any non-success outcome.
func (c *Client) applyOptimistic(ctx context.Context, req MutationRequest, mode MutationMode) bool {
	if c.applier == nil || mode == MutationModePessimistic {
		return false
	}

	if applyErr := c.applier.Apply(ctx, req.Resource, req.IDs, req.Values); applyErr != nil {
		c.logWarn(ctx, logMsgOptimisticApplyFailed, logAttrError, applyErr.Error(), logAttrResource, req.Resource)
		return false
	}

	return true
}

// commitWithRetry issues the commit, re-attempting the whole batch up to
// the resolved retry count. Retries are plain sequential re-attempts; the
// countdown is never re-entered.
func (c *Client) commitWithRetry(ctx context.Context, req MutationRequest) ([]Record, error) {
	var records []Record
	var commitErr error

	for attempt := 0; attempt <= c.resolved.RetryCount; attempt++ {
		if attempt > 0 {
			c.logOperation(ctx, logMsgRetryingCommit, logAttrResource, req.Resource, logAttrAttempt, attempt)
		}

		records, commitErr = c.commit(ctx, req)
		if commitErr == nil {
			return records, nil
		}
	}

	return records, commitErr
}

func (c *Client) commit(ctx context.Context, req MutationRequest) ([]Record, error) {
	if bulk, ok := c.provider.(BulkDataProvider); ok {
		records, updateErr := bulk.UpdateMany(ctx, req.Resource, req.IDs, req.Values, req.Meta)
		if updateErr != nil {
			return nil, errors.Join(ErrUpdatingRecordsFailed, updateErr)
		}

		return records, nil
	}

	return c.updateOneByOne(ctx, req)
}

// updateOneByOne is the degraded fallback for providers without batch
// support. It executes sequentially in ID order, continues past individual
// failures, returns the successfully updated records, and surfaces one
// aggregate error joining the per-record errors.
func (c *Client) updateOneByOne(ctx context.Context, req MutationRequest) ([]Record, error) {
	c.logWarn(ctx, logMsgBulkUnsupported, logAttrResource, req.Resource, logAttrRecordCount, len(req.IDs))
	c.incrementCounter(ctx, metricFallbackUpdates, c.metricLabels(req))

	records := make([]Record, 0, len(req.IDs))
	var recordErrs []error

	for _, id := range req.IDs {
		record, updateErr := c.provider.Update(ctx, req.Resource, id, req.Values, req.Meta)
		if updateErr != nil {
			recordErrs = append(recordErrs, fmt.Errorf("record %s: %w", id, updateErr))
			continue
		}

		records = append(records, record)
	}

	if len(recordErrs) > 0 {
		allErrs := append([]error{ErrPartialUpdateFailure}, recordErrs...)
		return records, errors.Join(allErrs...)
	}

	return records, nil
}

func (c *Client) finishSucceeded(
	ctx context.Context,
	m *Mutation,
	req MutationRequest,
	span SpanContext,
	records []Record,
	duration time.Duration,
) {

	c.openSuccessNotification(records, req)
	c.invalidate(ctx, req)
	c.publish(ctx, req)

	c.recordDuration(ctx, metricMutationDuration, duration, c.metricLabels(req))
	c.logOperation(ctx, logMsgCompleted,
		logAttrResource, req.Resource,
		logAttrRecordCount, len(records),
		logAttrDurationMS, durationToMilliseconds(duration))
	c.finishSpan(span, spanStatusOK, map[string]string{logAttrRecordCount: strconv.Itoa(len(records))})

	m.settle(StateSucceeded, records, nil)
}

func (c *Client) finishFailed(
	ctx context.Context,
	m *Mutation,
	req MutationRequest,
	span SpanContext,
	applied bool,
	records []Record,
	commitErr error,
	duration time.Duration,
) {

	if applied {
		c.applier.Rollback(ctx, req.Resource, req.IDs)
	}

	c.openErrorNotification(commitErr, req)

	c.incrementCounter(ctx, metricMutationErrors, c.metricLabels(req))
	c.recordDuration(ctx, metricMutationDuration, duration, c.metricLabels(req))
	c.logError(ctx, logMsgMutationFailed, logAttrError, commitErr.Error(), logAttrResource, req.Resource)
	c.finishSpan(span, spanStatusError, map[string]string{logAttrError: commitErr.Error()})

	m.settle(StateFailed, records, commitErr)
}

func (c *Client) finishCancelled(
	ctx context.Context,
	m *Mutation,
	req MutationRequest,
	span SpanContext,
	applied bool,
	cause error,
) {

	if applied {
		c.applier.Rollback(ctx, req.Resource, req.IDs)
	}

	if c.notifier != nil {
		c.notifier.Close(c.notificationKey(req))
	}

	if req.OnCancel != nil {
		req.OnCancel()
	}

	c.incrementCounter(ctx, metricMutationsCancelled, c.metricLabels(req))
	c.logOperation(ctx, logMsgCancelled, logAttrResource, req.Resource, logAttrRecordCount, len(req.IDs))
	c.finishSpan(span, spanStatusCancelled, nil)

	m.settle(StateCancelled, nil, cause)
}

func (c *Client) openUndoNotification(m *Mutation, req MutationRequest, undoableTimeout time.Duration) {
	if c.notifier == nil {
		return
	}

	c.notifier.Open(Notification{
		Key:             c.notificationKey(req),
		Message:         fmt.Sprintf(undoNotificationMessage, undoableTimeout.Seconds()),
		Type:            NotificationTypeProgress,
		UndoableTimeout: undoableTimeout,
		CancelMutation:  func() { m.Cancel() },
	})
}

func (c *Client) openSuccessNotification(records []Record, req MutationRequest) {
	if c.notifier == nil {
		return
	}

	notification := &Notification{
		Key:     c.notificationKey(req),
		Message: fmt.Sprintf(successNotificationMessage, c.displayName(req)),
		Type:    NotificationTypeSuccess,
	}

	if req.SuccessNotification != nil {
		notification = req.SuccessNotification(records, req)
	}

	if notification == nil {
		return
	}

	c.notifier.Open(*notification)
}

func (c *Client) openErrorNotification(commitErr error, req MutationRequest) {
	if c.notifier == nil {
		return
	}

	notification := &Notification{
		Key:         c.notificationKey(req),
		Message:     fmt.Sprintf(errorNotificationMessage, c.displayName(req)),
		Description: commitErr.Error(),
		Type:        NotificationTypeError,
	}

	if req.ErrorNotification != nil {
		notification = req.ErrorNotification(commitErr, req)
	}

	if notification == nil {
		return
	}

	c.notifier.Open(*notification)
}

func (c *Client) invalidate(ctx context.Context, req MutationRequest) {
	if c.invalidator == nil {
		return
	}

	keys := BuildInvalidationKeys(req.DataProviderName, req.Resource, req.Invalidates, req.IDs)
	if len(keys) == 0 {
		return
	}

	if invalidateErr := c.invalidator.Invalidate(ctx, keys); invalidateErr != nil {
		c.logWarn(ctx, logMsgInvalidationFailed, logAttrError, invalidateErr.Error(), logAttrResource, req.Resource)
	}
}

func (c *Client) publish(ctx context.Context, req MutationRequest) {
	if c.publisher == nil {
		return
	}

	event := BuildLiveEvent(req.Resource, LiveEventUpdated, req.IDs)

	if publishErr := c.publisher.Publish(ctx, event); publishErr != nil {
		c.logWarn(ctx, logMsgPublishFailed, logAttrError, publishErr.Error(), logAttrResource, req.Resource)
	}
}

func (c *Client) notificationKey(req MutationRequest) string {
	return req.Resource + notificationKeySuffix
}

// displayName renders the resource name for notifications using the
// resolved text transformers: singular for one record, as-is otherwise.
func (c *Client) displayName(req MutationRequest) string {
	name := req.Resource
	if len(req.IDs) == 1 {
		name = c.resolved.TextTransformers.Singular(name)
	}

	return c.resolved.TextTransformers.Humanize(name)
}

// logOperation logs operational information at info level if a logger is configured.
func (c *Client) logOperation(ctx context.Context, action string, args ...any) {
	if c.contextualLogger != nil {
		c.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
		return
	}

	if c.logger != nil {
		c.logger.Info(logMsgOperation+action, args...)
	}
}

func (c *Client) logWarn(ctx context.Context, msg string, args ...any) {
	if c.contextualLogger != nil {
		c.contextualLogger.WarnContext(ctx, msg, args...)
		return
	}

	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Client) logError(ctx context.Context, msg string, args ...any) {
	if c.contextualLogger != nil {
		c.contextualLogger.ErrorContext(ctx, msg, args...)
		return
	}

	if c.logger != nil {
		c.logger.Error(msg, args...)
	}
}

func (c *Client) recordDuration(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	if c.metrics == nil {
		return
	}

	if contextual, ok := c.metrics.(ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	c.metrics.RecordDuration(metric, duration, labels)
}

func (c *Client) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if c.metrics == nil {
		return
	}

	if contextual, ok := c.metrics.(ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	c.metrics.IncrementCounter(metric, labels)
}

func (c *Client) startSpan(ctx context.Context, req MutationRequest, mode MutationMode) (context.Context, SpanContext) {
	if c.tracing == nil {
		return ctx, nil
	}

	return c.tracing.StartSpan(ctx, spanNameUpdateMany, map[string]string{
		logAttrResource:     req.Resource,
		logAttrMutationMode: string(mode),
		logAttrRecordCount:  strconv.Itoa(len(req.IDs)),
	})
}

func (c *Client) finishSpan(span SpanContext, status string, attrs map[string]string) {
	if c.tracing == nil || span == nil {
		return
	}

	c.tracing.FinishSpan(span, status, attrs)
}

func (c *Client) metricLabels(req MutationRequest) map[string]string {
	return map[string]string{logAttrResource: req.Resource}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
