package ka3d

import (
	"log/slog"

	"github.com/twinfer/ka3d-dat/pkg/datfile"
	"golang.org/x/text/encoding"
)

// options holds configuration for the codec
type options struct {
	checkBounds bool
	logger      *slog.Logger
	encoding    encoding.Encoding
	debugMode   bool
}

// Option is a function that configures codec options
type Option func(*options)

// WithCheckBounds makes every segment close strict: a cursor past the
// declared end fails the decode instead of being tolerated.
func WithCheckBounds(strict bool) Option {
	return func(o *options) {
		o.checkBounds = strict
	}
}

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTextEncoding transcodes strings through enc. nil keeps raw UTF-8.
func WithTextEncoding(enc encoding.Encoding) Option {
	return func(o *options) {
		o.encoding = enc
	}
}

// WithDebugMode enables debug logging
func WithDebugMode(enabled bool) Option {
	return func(o *options) {
		o.debugMode = enabled
	}
}

// defaultOptions returns the default configuration
func defaultOptions() options {
	return options{
		logger:      slog.Default(),
		checkBounds: false,
	}
}

func (o options) readerOptions() []datfile.ReaderOption {
	return []datfile.ReaderOption{
		datfile.WithCheckBounds(o.checkBounds),
		datfile.WithReaderLogger(o.logger),
		datfile.WithReaderEncoding(o.encoding),
	}
}

func (o options) writerOptions() []datfile.WriterOption {
	return []datfile.WriterOption{
		datfile.WithWriterLogger(o.logger),
		datfile.WithWriterEncoding(o.encoding),
	}
}
