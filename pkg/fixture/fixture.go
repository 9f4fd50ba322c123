// Package fixture loads recorded API histories from YAML or JSON files.
//
// A fixture lists entries to push, translations to store and optional
// mutation steps, and builds a *history.History from them:
//
//	fx, err := fixture.LoadFromFile("pets.yaml")
//	if err != nil {
//	    return err
//	}
//	h, err := fx.Build(history.WithLogger(logger))
package fixture

import (
	"fmt"

	"github.com/getmockd/apihistory/pkg/history"
)

// Step operations.
const (
	OpRemove           = "remove"
	OpReplace          = "replace"
	OpUpdateClient     = "updateClient"
	OpUpdateServer     = "updateServer"
	OpUpdateLastServer = "updateLastServer"
	OpReloadServer     = "reloadServer"
)

// Fixture describes a history to build.
type Fixture struct {
	// IDField overrides the server id field ("id" by default).
	IDField string `json:"idField,omitempty" yaml:"idField,omitempty"`

	// DefaultFields is the default projection for server listings.
	DefaultFields []string `json:"defaultFields,omitempty" yaml:"defaultFields,omitempty"`

	// Entries are pushed in order.
	Entries []Entry `json:"entries" yaml:"entries"`

	// Translations are stored after all entries are pushed.
	Translations []Translation `json:"translations,omitempty" yaml:"translations,omitempty"`

	// Steps are applied after translations, in order.
	Steps []Step `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// Entry is one pushed interaction. With Server set it is pushed as is;
// otherwise the server record is Client plus ID.
type Entry struct {
	ID     any            `json:"id,omitempty" yaml:"id,omitempty"`
	Client map[string]any `json:"client,omitempty" yaml:"client,omitempty"`
	Server map[string]any `json:"server,omitempty" yaml:"server,omitempty"`
}

// Translation is an overlay for one entry, addressed by ID or by Index.
type Translation struct {
	ID     any            `json:"id,omitempty" yaml:"id,omitempty"`
	Index  *int           `json:"index,omitempty" yaml:"index,omitempty"`
	Locale string         `json:"locale" yaml:"locale"`
	Fields map[string]any `json:"fields" yaml:"fields"`
}

// Step is a mutation applied to the built history.
type Step struct {
	Op     string         `json:"op" yaml:"op"`
	Index  *int           `json:"index,omitempty" yaml:"index,omitempty"`
	Client map[string]any `json:"client,omitempty" yaml:"client,omitempty"`
	Server map[string]any `json:"server,omitempty" yaml:"server,omitempty"`
}

// Validate checks the fixture's shape. It does not check ids, which Build
// reports through the history's own errors.
func (f *Fixture) Validate() error {
	for i, e := range f.Entries {
		if e.Server == nil && e.ID == nil {
			return fmt.Errorf("%w: entries[%d]: needs an id or a server record", ErrInvalidFixture, i)
		}
	}

	for i, tr := range f.Translations {
		if tr.Locale == "" {
			return fmt.Errorf("%w: translations[%d]: locale is required", ErrInvalidFixture, i)
		}
		if (tr.ID == nil) == (tr.Index == nil) {
			return fmt.Errorf("%w: translations[%d]: set exactly one of id and index", ErrInvalidFixture, i)
		}
	}

	for i, s := range f.Steps {
		needIndex, needClient, needServer := false, false, false
		switch s.Op {
		case OpRemove:
			needIndex = true
		case OpReplace:
			needIndex, needClient, needServer = true, true, true
		case OpUpdateClient:
			needIndex, needClient = true, true
		case OpUpdateServer:
			needIndex, needServer = true, true
		case OpUpdateLastServer, OpReloadServer:
			needServer = true
		default:
			return fmt.Errorf("%w: steps[%d]: unknown op %q", ErrInvalidFixture, i, s.Op)
		}
		if needIndex && s.Index == nil {
			return fmt.Errorf("%w: steps[%d]: %s needs an index", ErrInvalidFixture, i, s.Op)
		}
		if needClient && s.Client == nil {
			return fmt.Errorf("%w: steps[%d]: %s needs a client record", ErrInvalidFixture, i, s.Op)
		}
		if needServer && s.Server == nil {
			return fmt.Errorf("%w: steps[%d]: %s needs a server record", ErrInvalidFixture, i, s.Op)
		}
	}
	return nil
}

// Build creates a history from the fixture. opts are applied after the
// fixture's own id field and default fields, so callers can override them.
func (f *Fixture) Build(opts ...history.Option) (*history.History, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var base []history.Option
	if f.IDField != "" {
		base = append(base, history.WithIDField(f.IDField))
	}
	if f.DefaultFields != nil {
		base = append(base, history.WithDefaultFields(f.DefaultFields...))
	}
	h := history.New(append(base, opts...)...)

	for i, e := range f.Entries {
		var err error
		if e.Server != nil {
			err = h.Push(e.Client, e.Server)
		} else {
			err = h.PushWithID(e.Client, e.ID)
		}
		if err != nil {
			return nil, fmt.Errorf("entries[%d]: %w", i, err)
		}
	}

	for i, tr := range f.Translations {
		var err error
		if tr.Index != nil {
			err = h.Translate(*tr.Index, tr.Locale, tr.Fields)
		} else {
			err = h.TranslateWithServer(history.Record{h.IDField(): tr.ID}, tr.Locale, tr.Fields)
		}
		if err != nil {
			return nil, fmt.Errorf("translations[%d]: %w", i, err)
		}
	}

	for i, s := range f.Steps {
		if err := apply(h, s); err != nil {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, s.Op, err)
		}
	}
	return h, nil
}

func apply(h *history.History, s Step) error {
	switch s.Op {
	case OpRemove:
		return h.Remove(*s.Index)
	case OpReplace:
		return h.Replace(*s.Index, s.Client, s.Server)
	case OpUpdateClient:
		return h.UpdateClient(*s.Index, s.Client)
	case OpUpdateServer:
		return h.UpdateServer(*s.Index, s.Server)
	case OpUpdateLastServer:
		return h.UpdateLastServer(s.Server)
	case OpReloadServer:
		return h.ReloadServer(s.Server)
	}
	return fmt.Errorf("%w: unknown op %q", ErrInvalidFixture, s.Op)
}
