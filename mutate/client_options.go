package mutate

import "time"

// Option defines a functional option for configuring a Client.
type Option func(*Client) error

// WithOptions sets the call-site option bag. Fields left nil fall through
// to the convenience parameters, the ambient context options, and the
// system defaults, independently per field.
func WithOptions(options Options) Option {
	return func(c *Client) error {
		c.callSite = options
		return nil
	}
}

// WithContextOptions sets the ambient, process-wide context options.
// They rank below call-site options and convenience parameters.
func WithContextOptions(ambient ContextOptions) Option {
	return func(c *Client) error {
		c.ambient = ambient
		return nil
	}
}

// WithMutationMode sets the mutation mode convenience parameter. It ranks
// below an explicit call-site option and above the ambient context value.
func WithMutationMode(mode MutationMode) Option {
	return func(c *Client) error {
		c.params.MutationMode = &mode
		return nil
	}
}

// WithUndoableTimeout sets the undo window convenience parameter.
func WithUndoableTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		c.params.UndoableTimeout = &timeout
		return nil
	}
}

// WithSyncWithLocation sets the sync-with-location convenience parameter.
func WithSyncWithLocation(sync bool) Option {
	return func(c *Client) error {
		c.params.SyncWithLocation = &sync
		return nil
	}
}

// WithWarnWhenUnsavedChanges sets the unsaved-changes warning convenience parameter.
func WithWarnWhenUnsavedChanges(warn bool) Option {
	return func(c *Client) error {
		c.params.WarnWhenUnsavedChanges = &warn
		return nil
	}
}

// WithLiveMode sets the live mode convenience parameter.
func WithLiveMode(mode LiveMode) Option {
	return func(c *Client) error {
		c.params.LiveMode = &mode
		return nil
	}
}

// WithNotifier sets the notification collaborator. The notifier receives
// success and error notifications after each mutation settles, and the
// progress notification carrying the cancellation callback for undoable
// mutations.
func WithNotifier(notifier Notifier) Option {
	return func(c *Client) error {
		c.notifier = notifier
		return nil
	}
}

// WithPublisher sets the realtime collaborator. When configured, a live
// event is published after every successful mutation.
func WithPublisher(publisher Publisher) Option {
	return func(c *Client) error {
		c.publisher = publisher
		return nil
	}
}

// WithInvalidator sets the cache-invalidation collaborator. When
// configured, the query keys for the request's invalidation targets are
// discarded after every successful mutation.
func WithInvalidator(invalidator Invalidator) Option {
	return func(c *Client) error {
		c.invalidator = invalidator
		return nil
	}
}

// WithOptimisticApplier sets the collaborator applying pending changes to
// cached data for optimistic and undoable mutations.
func WithOptimisticApplier(applier OptimisticApplier) Option {
	return func(c *Client) error {
		c.applier = applier
		return nil
	}
}

// WithLogger sets the logger for the Client.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Info level: mutation lifecycle transitions with durations (production-safe)
// Warn level: non-critical issues like invalidation or publish failures
// Error level: mutation failures.
func WithLogger(logger Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Client.
// The contextual logger will receive log messages with context information
// including automatic trace/span correlation when tracing is enabled.
// When both loggers are set, the contextual logger wins.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(c *Client) error {
		c.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Client.
// The metrics collector will receive mutation durations, error and
// cancellation counts, and fallback-path counts.
func WithMetrics(collector MetricsCollector) Option {
	return func(c *Client) error {
		c.metrics = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Client.
// The tracing collector will receive one span per mutation call covering
// the full lifecycle including the undoable countdown.
func WithTracing(collector TracingCollector) Option {
	return func(c *Client) error {
		c.tracing = collector
		return nil
	}
}
