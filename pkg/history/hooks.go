package history

import (
	"errors"
	"slices"

	"github.com/google/uuid"
)

// RemoveHook is called with the position an entry occupied when it was removed.
type RemoveHook func(index int) error

// HookHandle identifies a registered remove hook.
type HookHandle string

type hookEntry struct {
	handle HookHandle
	fn     RemoveHook
}

// PushRemoveHook registers fn to run, in registration order, after every
// removal, including the ones done by Replace and Clear. A nil fn is ignored
// and yields an empty handle.
func (h *History) PushRemoveHook(fn RemoveHook) HookHandle {
	if fn == nil {
		return ""
	}
	handle := HookHandle(uuid.NewString())
	h.hooks = append(h.hooks, hookEntry{handle: handle, fn: fn})
	return handle
}

// DropRemoveHook unregisters the hook with the given handle. It reports
// whether a hook was removed.
func (h *History) DropRemoveHook(handle HookHandle) bool {
	i := slices.IndexFunc(h.hooks, func(e hookEntry) bool { return e.handle == handle })
	if i < 0 {
		return false
	}
	h.hooks = slices.Delete(h.hooks, i, i+1)
	return true
}

// runRemoveHooks calls every hook registered when the removal happened, even
// when an earlier one fails.
func (h *History) runRemoveHooks(index int) error {
	var errs []error
	for _, hook := range slices.Clone(h.hooks) {
		if err := hook.fn(index); err != nil {
			h.log.Warn("remove hook failed", "index", index, "hook", hook.handle, "error", err)
			errs = append(errs, h.fail("removeHook", &HookError{Index: index, Err: err}))
		}
	}
	return errors.Join(errs...)
}
