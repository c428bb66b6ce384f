package worker

import (
	"time"

	"github.com/okian/rinkline/pkg/logger"
)

// Option applies a configuration option to a Worker.
type Option func(*Worker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithRetries sets how many times a failed save is retried.
func WithRetries(n int) Option {
	return func(w *Worker) {
		if n >= 0 {
			w.retries = n
		}
	}
}

// WithBackoff sets the base delay between retries.
func WithBackoff(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.backoff = d
		}
	}
}

// WithFailureHandler registers fn for events that could not be saved.
func WithFailureHandler(fn FailureHandler) Option {
	return func(w *Worker) {
		w.onFailure = fn
	}
}
