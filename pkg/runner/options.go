package runner

import (
	"log/slog"
	"os"
)

// DefaultInputBufferSize is the default number of lines to buffer for input handlers.
const DefaultInputBufferSize = 64

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithRenderer configures the content renderer of the default TextHandler.
func WithRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) {
		r.Renderer = renderer
	}
}

// WithFileReader overrides how /file reads uploads from disk.
func WithFileReader(read func(path string) ([]byte, error)) Option {
	return func(r *Runner) {
		r.readFile = read
	}
}

func defaultReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
