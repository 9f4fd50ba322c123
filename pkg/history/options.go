package history

import (
	"log/slog"
	"slices"
)

// DefaultIDField is the server field used as the entry key unless WithIDField overrides it.
const DefaultIDField = "id"

// Option configures a History.
type Option func(*History)

// WithDefaultFields sets the fields shown by ListServers and
// ListTranslatedServers when a call passes no explicit field list.
func WithDefaultFields(fields ...string) Option {
	return func(h *History) {
		h.defaultFields = slices.Clone(fields)
	}
}

// WithIDField changes the server field used as the entry key.
func WithIDField(name string) Option {
	return func(h *History) {
		if name != "" {
			h.idField = name
		}
	}
}

// WithLogger sets the logger. Mutations are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(h *History) {
		if logger != nil {
			h.log = logger
		}
	}
}

// WithObserver sets the observer notified of history operations.
func WithObserver(observer Observer) Option {
	return func(h *History) {
		if observer != nil {
			h.observer = observer
		}
	}
}
