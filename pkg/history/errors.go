package history

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange is returned when a position is not a live index.
	ErrIndexOutOfRange = errors.New("history: index out of range")

	// ErrUnknownID is returned when no live entry has the given id.
	ErrUnknownID = errors.New("history: unknown id")

	// ErrDuplicateID is returned when a push or update would give two live entries the same id.
	ErrDuplicateID = errors.New("history: duplicate id")

	// ErrEmptyHistory is returned by operations that need at least one entry.
	ErrEmptyHistory = errors.New("history: no entries")

	// ErrMissingID is returned when a server record has no id field.
	ErrMissingID = errors.New("history: server record has no id")

	// ErrInvalidID is returned when an id cannot be used as an index key.
	ErrInvalidID = errors.New("history: id is not comparable")

	// ErrHook is matched by every error a remove hook returns.
	ErrHook = errors.New("history: remove hook failed")
)

// IndexError is returned when a position argument is outside [0, Length).
type IndexError struct {
	Op     string
	Index  int
	Length int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("history: %s: index %d out of range (length %d)", e.Op, e.Index, e.Length)
}

// Is reports whether target is ErrIndexOutOfRange.
func (e *IndexError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *IndexError) Hint() string {
	if e.Length == 0 {
		return "The history is empty. Push an entry first."
	}
	return fmt.Sprintf("Use an index between 0 and %d.", e.Length-1)
}

// IDError is returned for id lookups and id constraint violations. Kind is one
// of ErrUnknownID, ErrDuplicateID, ErrMissingID or ErrInvalidID.
type IDError struct {
	Op   string
	ID   any
	Kind error
}

func (e *IDError) Error() string {
	switch e.Kind {
	case ErrMissingID:
		return fmt.Sprintf("history: %s: server record has no id", e.Op)
	case ErrInvalidID:
		return fmt.Sprintf("history: %s: id %v (%T) is not comparable", e.Op, e.ID, e.ID)
	case ErrDuplicateID:
		return fmt.Sprintf("history: %s: id %v already present", e.Op, e.ID)
	default:
		return fmt.Sprintf("history: %s: no entry with id %v", e.Op, e.ID)
	}
}

func (e *IDError) Unwrap() error {
	return e.Kind
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *IDError) Hint() string {
	switch e.Kind {
	case ErrMissingID:
		return "Set the id field on the server record."
	case ErrInvalidID:
		return "Use a string, number or other comparable value as the id."
	case ErrDuplicateID:
		return fmt.Sprintf("Entry %v is already recorded. Use UpdateServer or ReloadServer to change it.", e.ID)
	default:
		return fmt.Sprintf("Check that an entry with id %v was pushed and not removed.", e.ID)
	}
}

// HookError wraps an error returned by a remove hook.
type HookError struct {
	Index int
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("history: remove hook for index %d: %v", e.Index, e.Err)
}

func (e *HookError) Unwrap() []error {
	return []error{ErrHook, e.Err}
}

// HintError is an interface for errors that provide resolution hints.
type HintError interface {
	error
	Hint() string
}
