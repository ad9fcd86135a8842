package postgresengine

import (
	"github.com/kilimnik/refine/mutate"
)

// Option defines a functional option for configuring Provider.
type Option func(*Provider) error

// WithTableMapping sets the resource-to-table mapping for the Provider.
// Resources without a mapping use the resource name as the table name.
func WithTableMapping(tables map[mutate.ResourceName]string) Option {
	return func(p *Provider) error {
		for _, table := range tables {
			if table == "" {
				return mutate.ErrEmptyTableName
			}
		}

		p.tables = tables

		return nil
	}
}

// WithIDColumn sets the primary key column the update statements filter on.
func WithIDColumn(column string) Option {
	return func(p *Provider) error {
		if column == "" {
			return mutate.ErrEmptyIDColumnName
		}

		p.idColumn = column

		return nil
	}
}

// WithLogger sets the logger for the Provider.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL queries with execution timing (development use)
// Info level: Record counts and durations (production-safe)
// Warn level: Non-critical issues like cleanup failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger mutate.Logger) Option {
	return func(p *Provider) error {
		p.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Provider.
// The metrics collector will receive performance and operational metrics
// including update durations, record counts, and database errors.
func WithMetrics(collector mutate.MetricsCollector) Option {
	return func(p *Provider) error {
		p.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Provider.
// The tracing collector will receive distributed tracing information
// including span creation for update operations and error tracking.
func WithTracing(collector mutate.TracingCollector) Option {
	return func(p *Provider) error {
		p.tracingCollector = collector
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Provider.
// The contextual logger will receive log messages with context information
// including automatic trace/span correlation when tracing is enabled.
func WithContextualLogger(logger mutate.ContextualLogger) Option {
	return func(p *Provider) error {
		p.contextualLogger = logger
		return nil
	}
}
