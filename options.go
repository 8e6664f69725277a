package htm

import (
	"go.uber.org/zap"
)

// Option configures a graph or an algorithm at construction.
type Option func(*options)

type options struct {
	logger      *zap.Logger
	metrics     *Metrics
	connections *Connections
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics reports activity to m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithConnections attaches an algorithm to an existing graph instead of
// building a private one, so the spatial pooler and the temporal memory
// share structure and random stream.
func WithConnections(c *Connections) Option {
	return func(o *options) {
		o.connections = c
	}
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}
