package postgresengine

import (
	"context"
	"math"
	"time"

	"github.com/kilimnik/refine/mutate"
)

// logQueryWithDuration logs SQL queries with execution time at debug level if
// a logger is configured. The contextual logger takes precedence.
func (p Provider) logQueryWithDuration(
	ctx context.Context,
	sqlQuery string,
	action string,
	duration time.Duration,
) {

	if p.contextualLogger != nil {
		p.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action,
			logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
		return
	}

	if p.logger != nil {
		p.logger.Debug(logMsgSQLExecuted+action,
			logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (p Provider) logOperation(ctx context.Context, action string, args ...any) {
	if p.contextualLogger != nil {
		p.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
		return
	}

	if p.logger != nil {
		p.logger.Info(logMsgOperation+action, args...)
	}
}

// logWarn logs non-critical issues at warn level if a logger is configured.
func (p Provider) logWarn(ctx context.Context, msg string, args ...any) {
	if p.contextualLogger != nil {
		p.contextualLogger.WarnContext(ctx, msg, args...)
		return
	}

	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

// logError logs error information at error level if a logger is configured.
func (p Provider) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if p.contextualLogger != nil {
		p.contextualLogger.ErrorContext(ctx, msg, allArgs...)
		return
	}

	if p.logger != nil {
		p.logger.Error(msg, allArgs...)
	}
}

// recordSuccessMetrics records duration and record count for a successful
// update if a metrics collector is configured.
func (p Provider) recordSuccessMetrics(
	ctx context.Context,
	resource mutate.ResourceName,
	recordCount int,
	duration time.Duration,
) {

	if p.metricsCollector == nil {
		return
	}

	labels := map[string]string{logAttrResource: resource, "status": statusSuccess}

	if contextual, ok := p.metricsCollector.(mutate.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metricUpdateDuration, duration, labels)
		contextual.RecordValueContext(ctx, metricRecordsUpdated, float64(recordCount), labels)
		return
	}

	p.metricsCollector.RecordDuration(metricUpdateDuration, duration, labels)
	p.metricsCollector.RecordValue(metricRecordsUpdated, float64(recordCount), labels)
}

// recordErrorMetrics increments the database error counter if a metrics
// collector is configured.
func (p Provider) recordErrorMetrics(ctx context.Context, resource mutate.ResourceName) {
	if p.metricsCollector == nil {
		return
	}

	labels := map[string]string{logAttrResource: resource, "status": statusError}

	if contextual, ok := p.metricsCollector.(mutate.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metricDatabaseErrors, labels)
		return
	}

	p.metricsCollector.IncrementCounter(metricDatabaseErrors, labels)
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
