package pipelens

import "log/slog"

type options struct {
	chunkSize int
	logger    *slog.Logger
}

// Option configures a Parser.
type Option func(*options)

// WithChunkSize sets how many lines are decoded between progress callbacks.
// Chunking is a cooperative-scheduling concern only; it never reorders events.
// Default: 1000.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithLogger routes decoder diagnostics (dropped-line warnings) through the
// given logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func defaultOptions() options {
	return options{
		chunkSize: 1000,
		logger:    slog.Default(),
	}
}
