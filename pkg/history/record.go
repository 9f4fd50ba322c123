package history

import (
	"github.com/mohae/deepcopy"
)

// Record is a string-keyed map with arbitrarily nested values.
type Record = map[string]any

// Entry is one recorded interaction.
type Entry struct {
	// Client is what the caller sent. It never carries the id field.
	Client Record `json:"client" yaml:"client"`
	// Server is the authoritative record and carries the id field.
	Server Record `json:"server" yaml:"server"`
}

func cloneRecord(r Record) Record {
	if r == nil {
		return nil
	}
	return deepcopy.Copy(r).(Record)
}

func cloneValue(v any) any {
	return deepcopy.Copy(v)
}

// mergeRecord returns a copy of base with overlay applied on top. Nested maps
// are merged key by key; any other overlay value replaces the base value.
func mergeRecord(base, overlay Record) Record {
	out := cloneRecord(base)
	if out == nil {
		out = make(Record, len(overlay))
	}
	for k, v := range overlay {
		if ov, ok := v.(map[string]any); ok {
			if bv, ok := out[k].(map[string]any); ok {
				out[k] = mergeRecord(bv, ov)
				continue
			}
		}
		out[k] = cloneValue(v)
	}
	return out
}
