package history

import (
	"errors"
	"log/slog"
	"reflect"
	"slices"

	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/apihistory/pkg/logging"
)

// History is an ordered list of entries with a unique id index.
type History struct {
	idField       string
	defaultFields []string

	entries []Entry
	byID    map[any]int

	// overlays maps entry id -> canonical locale -> partial server record.
	overlays map[any]map[string]Record

	hooks    []hookEntry
	programs map[string]*vm.Program

	log      *slog.Logger
	observer Observer
}

// New creates an empty History.
func New(opts ...Option) *History {
	h := &History{
		idField:  DefaultIDField,
		byID:     make(map[any]int),
		overlays: make(map[any]map[string]Record),
		programs: make(map[string]*vm.Program),
		log:      logging.Nop(),
		observer: &NoopObserver{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// IDField returns the server field used as the entry key.
func (h *History) IDField() string {
	return h.idField
}

// DefaultFields returns the default projection, or nil when none was configured.
func (h *History) DefaultFields() []string {
	return slices.Clone(h.defaultFields)
}

// Push appends an entry. server must carry an id that no live entry uses.
func (h *History) Push(client, server Record) error {
	id, err := h.idOf("push", server)
	if err != nil {
		return err
	}
	if _, exists := h.byID[id]; exists {
		return h.fail("push", &IDError{Op: "push", ID: id, Kind: ErrDuplicateID})
	}
	h.appendEntry(id, client, server)
	return nil
}

// PushWithID appends an entry whose server record is a copy of client with the
// id field set to id.
func (h *History) PushWithID(client Record, id any) error {
	server := cloneRecord(client)
	if server == nil {
		server = make(Record, 1)
	}
	server[h.idField] = id
	return h.Push(client, server)
}

// Remove deletes the entry at index and shifts later entries down by one.
// Remove hooks run after the entry is gone and receive index. Hook errors are
// returned joined; the history is consistent either way.
func (h *History) Remove(index int) error {
	if err := h.checkIndex("remove", index); err != nil {
		return err
	}
	h.removeAt(index)
	return h.runRemoveHooks(index)
}

// Replace removes the entry at index and appends a new entry at the end. The
// new id may equal the removed entry's id. Nothing changes if validation fails.
func (h *History) Replace(index int, client, server Record) error {
	if err := h.checkIndex("replace", index); err != nil {
		return err
	}
	id, err := h.idOf("replace", server)
	if err != nil {
		return err
	}
	if pos, exists := h.byID[id]; exists && pos != index {
		return h.fail("replace", &IDError{Op: "replace", ID: id, Kind: ErrDuplicateID})
	}

	h.removeAt(index)
	hookErr := h.runRemoveHooks(index)

	// A hook may have pushed the same id in the meantime.
	if _, exists := h.byID[id]; exists {
		return errors.Join(hookErr, h.fail("replace", &IDError{Op: "replace", ID: id, Kind: ErrDuplicateID}))
	}
	h.appendEntry(id, client, server)
	return hookErr
}

// UpdateClient replaces the client record at index.
func (h *History) UpdateClient(index int, client Record) error {
	if err := h.checkIndex("updateClient", index); err != nil {
		return err
	}
	h.entries[index].Client = cloneRecord(client)
	h.log.Debug("client updated", "index", index)
	h.observer.OnUpdate(index, h.entries[index].Server[h.idField])
	return nil
}

// UpdateServer replaces the server record at index, id included. Overlays
// stored for the old id move to the new one.
func (h *History) UpdateServer(index int, server Record) error {
	if err := h.checkIndex("updateServer", index); err != nil {
		return err
	}
	newID, err := h.idOf("updateServer", server)
	if err != nil {
		return err
	}
	if pos, exists := h.byID[newID]; exists && pos != index {
		return h.fail("updateServer", &IDError{Op: "updateServer", ID: newID, Kind: ErrDuplicateID})
	}

	oldID := h.entries[index].Server[h.idField]
	h.entries[index].Server = cloneRecord(server)
	if oldID != newID {
		if overlay, ok := h.overlays[oldID]; ok {
			delete(h.overlays, oldID)
			h.overlays[newID] = overlay
		}
	}
	h.reindex()

	h.log.Debug("server updated", "index", index, "oldID", oldID, "id", newID)
	h.observer.OnUpdate(index, newID)
	return nil
}

// UpdateLastServer is UpdateServer on the last entry.
func (h *History) UpdateLastServer(server Record) error {
	if len(h.entries) == 0 {
		return h.fail("updateLastServer", ErrEmptyHistory)
	}
	return h.UpdateServer(h.LastIndex(), server)
}

// ReloadServer replaces the server record of the entry whose id matches
// server's id, wherever that entry sits. Positions do not change.
func (h *History) ReloadServer(server Record) error {
	id, err := h.idOf("reloadServer", server)
	if err != nil {
		return err
	}
	pos, err := h.lookup("reloadServer", id)
	if err != nil {
		return err
	}
	h.entries[pos].Server = cloneRecord(server)
	h.log.Debug("server reloaded", "index", pos, "id", id)
	h.observer.OnUpdate(pos, id)
	return nil
}

// Clear removes every entry, last first, running remove hooks for each.
func (h *History) Clear() error {
	var errs []error
	for i := len(h.entries) - 1; i >= 0; i-- {
		h.removeAt(i)
		errs = append(errs, h.runRemoveHooks(i))
	}
	return errors.Join(errs...)
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// LastIndex returns Len()-1, or -1 when the history is empty.
func (h *History) LastIndex() int {
	return len(h.entries) - 1
}

// LastID returns the id of the last entry.
func (h *History) LastID() (any, error) {
	if len(h.entries) == 0 {
		return nil, ErrEmptyHistory
	}
	return cloneValue(h.entries[len(h.entries)-1].Server[h.idField]), nil
}

// LastServer returns the server record of the last entry.
func (h *History) LastServer() (Record, error) {
	if len(h.entries) == 0 {
		return nil, ErrEmptyHistory
	}
	return cloneRecord(h.entries[len(h.entries)-1].Server), nil
}

// Client returns the client record at index.
func (h *History) Client(index int) (Record, error) {
	if err := h.checkIndex("client", index); err != nil {
		return nil, err
	}
	return cloneRecord(h.entries[index].Client), nil
}

// Server returns the server record at index.
func (h *History) Server(index int) (Record, error) {
	if err := h.checkIndex("server", index); err != nil {
		return nil, err
	}
	return cloneRecord(h.entries[index].Server), nil
}

// ServerByID returns the server record of the entry with the given id.
func (h *History) ServerByID(id any) (Record, error) {
	pos, err := h.lookup("serverByID", id)
	if err != nil {
		return nil, err
	}
	return cloneRecord(h.entries[pos].Server), nil
}

// IndexOf returns the current position of the entry with the given id.
func (h *History) IndexOf(id any) (int, error) {
	return h.lookup("indexOf", id)
}

// Entries returns a copy of every entry in position order.
func (h *History) Entries() []Entry {
	out := make([]Entry, len(h.entries))
	for i, e := range h.entries {
		out[i] = Entry{Client: cloneRecord(e.Client), Server: cloneRecord(e.Server)}
	}
	return out
}

// ListClients returns every client record in position order.
func (h *History) ListClients() []Record {
	out := make([]Record, len(h.entries))
	for i, e := range h.entries {
		out[i] = cloneRecord(e.Client)
	}
	return out
}

// ListServers returns projected server records. A nil fields uses the default
// fields; a nil indices lists every position in order, otherwise the given
// positions are listed in the given order.
func (h *History) ListServers(fields []string, indices []int) ([]Record, error) {
	positions, err := h.positions("listServers", indices)
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(positions))
	for i, pos := range positions {
		out[i] = Project(h.entries[pos].Server, fields, h.defaultFields)
	}
	return out, nil
}

func (h *History) appendEntry(id any, client, server Record) {
	h.entries = append(h.entries, Entry{
		Client: cloneRecord(client),
		Server: cloneRecord(server),
	})
	h.byID[id] = len(h.entries) - 1
	h.log.Debug("entry pushed", "index", len(h.entries)-1, "id", id)
	h.observer.OnPush(id)
}

func (h *History) removeAt(index int) {
	id := h.entries[index].Server[h.idField]
	h.entries = slices.Delete(h.entries, index, index+1)
	delete(h.overlays, id)
	h.reindex()
	h.log.Debug("entry removed", "index", index, "id", id)
	h.observer.OnRemove(index, id)
}

// reindex rebuilds the id index from the entries.
func (h *History) reindex() {
	byID := make(map[any]int, len(h.entries))
	for i, e := range h.entries {
		byID[e.Server[h.idField]] = i
	}
	h.byID = byID
}

func (h *History) positions(op string, indices []int) ([]int, error) {
	if indices == nil {
		all := make([]int, len(h.entries))
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	for _, i := range indices {
		if err := h.checkIndex(op, i); err != nil {
			return nil, err
		}
	}
	return indices, nil
}

func (h *History) checkIndex(op string, index int) error {
	if index < 0 || index >= len(h.entries) {
		return h.fail(op, &IndexError{Op: op, Index: index, Length: len(h.entries)})
	}
	return nil
}

func (h *History) idOf(op string, server Record) (any, error) {
	id, ok := server[h.idField]
	if !ok || id == nil {
		return nil, h.fail(op, &IDError{Op: op, Kind: ErrMissingID})
	}
	if err := h.checkID(op, id); err != nil {
		return nil, err
	}
	return id, nil
}

func (h *History) checkID(op string, id any) error {
	if id == nil || !reflect.TypeOf(id).Comparable() {
		return h.fail(op, &IDError{Op: op, ID: id, Kind: ErrInvalidID})
	}
	return nil
}

func (h *History) lookup(op string, id any) (int, error) {
	if err := h.checkID(op, id); err != nil {
		return -1, err
	}
	pos, ok := h.byID[id]
	if !ok {
		return -1, h.fail(op, &IDError{Op: op, ID: id, Kind: ErrUnknownID})
	}
	return pos, nil
}

func (h *History) fail(op string, err error) error {
	h.observer.OnError(op, err)
	return err
}
