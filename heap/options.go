package heap

import (
	"github.com/phuslu/log"
	"heapfile/logging"
)

type Option func(*options)

type options struct {
	logger *log.Logger
}

// WithLogger sets the logger diagnostics are written to.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewDefaultLogger()
	}
	return o
}
