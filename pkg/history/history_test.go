package history

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Fixtures
// =============================================================================

func pets() []Record {
	return []Record{
		{"id": 1, "type": "dog", "name": "Russell", "owner": Record{"gender": "male"}},
		{"id": 3, "type": "cat", "name": "Snowball", "owner": Record{"gender": "female"}},
		{"id": 4, "type": "dog", "name": "Terry", "owner": Record{"gender": "male"}},
		{"id": 7, "type": "cat", "name": "Jewel", "owner": Record{"gender": "male"}},
		{"id": 8, "type": "dog", "name": "Buzz", "owner": Record{"gender": "female"}},
	}
}

func morePets() []Record {
	return []Record{
		{"id": 9, "type": "dog", "name": "Tatum", "owner": Record{"gender": "female"}},
		{"id": 11, "type": "cat", "name": "Jason", "owner": Record{"gender": "male"}},
		{"id": 13, "type": "dog", "name": "Red", "owner": Record{"gender": "male"}},
	}
}

func withExtraFields(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		ext := Record{
			"fieldstr1": fmt.Sprintf("fieldStr1_%d", i),
			"fieldstr2": fmt.Sprintf("fieldStr2_%d", i),
			"fieldint":  i,
		}
		for k, v := range r {
			ext[k] = v
		}
		out[i] = ext
	}
	return out
}

func omit(r Record, keys ...string) Record {
	out := make(Record, len(r))
	for k, v := range r {
		if !slices.Contains(keys, k) {
			out[k] = v
		}
	}
	return out
}

func with(r Record, key string, value any) Record {
	out := omit(r)
	out[key] = value
	return out
}

func newPetHistory(t *testing.T, records []Record, opts ...Option) *History {
	t.Helper()
	h := New(opts...)
	for _, r := range records {
		require.NoError(t, h.PushWithID(omit(r, "id"), r["id"]))
	}
	return h
}

// checkRecords verifies every read accessor against the expected live server
// records, in position order.
func checkRecords(t *testing.T, h *History, expected []Record) {
	t.Helper()

	require.Equal(t, len(expected), h.Len())
	require.Equal(t, len(expected)-1, h.LastIndex())

	last := expected[len(expected)-1]
	lastID, err := h.LastID()
	require.NoError(t, err)
	assert.Equal(t, last["id"], lastID)
	lastServer, err := h.LastServer()
	require.NoError(t, err)
	assert.Equal(t, last, lastServer)

	clients := make([]Record, len(expected))
	limited := make([]Record, len(expected))
	for i, want := range expected {
		client, err := h.Client(i)
		require.NoError(t, err)
		assert.Equal(t, omit(want, "id"), client, "client %d", i)

		server, err := h.Server(i)
		require.NoError(t, err)
		assert.Equal(t, want, server, "server %d", i)

		byID, err := h.ServerByID(want["id"])
		require.NoError(t, err)
		assert.Equal(t, want, byID, "server by id %v", want["id"])

		pos, err := h.IndexOf(want["id"])
		require.NoError(t, err)
		assert.Equal(t, i, pos)

		clients[i] = omit(want, "id")
		limited[i] = Record{"id": want["id"], "name": want["name"]}
	}

	assert.Equal(t, clients, h.ListClients())

	servers, err := h.ListServers(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, expected, servers)

	projected, err := h.ListServers([]string{"id", "name"}, nil)
	require.NoError(t, err)
	assert.Equal(t, limited, projected)

	tail := make([]int, 0, len(expected))
	for i := 1; i < len(expected); i++ {
		tail = append(tail, i)
	}
	servers, err = h.ListServers(nil, tail)
	require.NoError(t, err)
	assert.Equal(t, expected[1:], servers)

	projected, err = h.ListServers([]string{"id", "name"}, tail)
	require.NoError(t, err)
	assert.Equal(t, limited[1:], projected)
}

// =============================================================================
// Push
// =============================================================================

func TestPush(t *testing.T) {
	h := New()
	for _, r := range pets() {
		require.NoError(t, h.Push(omit(r, "id"), r))
	}
	checkRecords(t, h, pets())
}

func TestPushWithID(t *testing.T) {
	h := newPetHistory(t, pets())
	checkRecords(t, h, pets())
}

func TestPushWithID_NilClient(t *testing.T) {
	h := New()
	require.NoError(t, h.PushWithID(nil, "a"))

	server, err := h.Server(0)
	require.NoError(t, err)
	assert.Equal(t, Record{"id": "a"}, server)

	client, err := h.Client(0)
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestPush_DuplicateID(t *testing.T) {
	h := newPetHistory(t, pets())

	err := h.Push(Record{"name": "Other"}, Record{"id": 3, "name": "Other"})
	require.ErrorIs(t, err, ErrDuplicateID)

	var idErr *IDError
	require.ErrorAs(t, err, &idErr)
	assert.Equal(t, 3, idErr.ID)
	assert.Equal(t, "push", idErr.Op)

	assert.ErrorIs(t, h.PushWithID(Record{}, 8), ErrDuplicateID)
	assert.Equal(t, 5, h.Len())
}

func TestPush_IDValidation(t *testing.T) {
	tests := []struct {
		name   string
		server Record
		want   error
	}{
		{"missing id", Record{"name": "x"}, ErrMissingID},
		{"nil id", Record{"id": nil}, ErrMissingID},
		{"nil record", nil, ErrMissingID},
		{"slice id", Record{"id": []any{1}}, ErrInvalidID},
		{"map id", Record{"id": Record{"a": 1}}, ErrInvalidID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			err := h.Push(Record{}, tt.server)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, h.Len())
		})
	}
}

func TestPush_CustomIDField(t *testing.T) {
	h := New(WithIDField("uuid"))
	assert.Equal(t, "uuid", h.IDField())

	require.NoError(t, h.PushWithID(Record{"name": "Russell"}, "u-1"))
	require.NoError(t, h.Push(Record{"name": "Snowball"}, Record{"uuid": "u-2", "id": 1, "name": "Snowball"}))

	server, err := h.ServerByID("u-1")
	require.NoError(t, err)
	assert.Equal(t, Record{"uuid": "u-1", "name": "Russell"}, server)

	err = h.Push(Record{}, Record{"id": 5})
	assert.ErrorIs(t, err, ErrMissingID)

	lastID, err := h.LastID()
	require.NoError(t, err)
	assert.Equal(t, "u-2", lastID)
}

func TestPush_StoresCopies(t *testing.T) {
	client := Record{"name": "Russell", "owner": Record{"gender": "male"}}
	server := Record{"id": 1, "name": "Russell", "owner": Record{"gender": "male"}}

	h := New()
	require.NoError(t, h.Push(client, server))

	client["name"] = "changed"
	server["owner"].(Record)["gender"] = "changed"

	gotClient, err := h.Client(0)
	require.NoError(t, err)
	assert.Equal(t, "Russell", gotClient["name"])

	gotServer, err := h.Server(0)
	require.NoError(t, err)
	assert.Equal(t, Record{"gender": "male"}, gotServer["owner"])
}

func TestReads_ReturnCopies(t *testing.T) {
	h := newPetHistory(t, pets())

	server, err := h.Server(0)
	require.NoError(t, err)
	server["owner"].(Record)["gender"] = "changed"
	server["name"] = "changed"

	listed, err := h.ListServers(nil, nil)
	require.NoError(t, err)
	listed[1]["name"] = "changed"

	clients := h.ListClients()
	clients[2]["name"] = "changed"

	entries := h.Entries()
	entries[3].Server["name"] = "changed"

	checkRecords(t, h, pets())
}

// =============================================================================
// Remove / Replace
// =============================================================================

func TestRemove(t *testing.T) {
	h := newPetHistory(t, pets())
	expected := pets()

	for _, index := range []int{1, 2, 1, 0} {
		require.NoError(t, h.Remove(index))
		expected = slices.Delete(expected, index, index+1)
		checkRecords(t, h, expected)
	}

	require.NoError(t, h.Remove(0))
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, -1, h.LastIndex())

	_, err := h.LastID()
	assert.ErrorIs(t, err, ErrEmptyHistory)
	_, err = h.LastServer()
	assert.ErrorIs(t, err, ErrEmptyHistory)
	assert.Empty(t, h.ListClients())
}

func TestRemove_ShiftsPositions(t *testing.T) {
	h := New()
	require.NoError(t, h.PushWithID(Record{"type": "dog", "name": "Russell"}, 1))
	require.NoError(t, h.PushWithID(Record{"type": "cat", "name": "Snowball"}, 3))

	require.NoError(t, h.Remove(0))

	assert.Equal(t, 1, h.Len())
	lastID, err := h.LastID()
	require.NoError(t, err)
	assert.Equal(t, 3, lastID)

	client, err := h.Client(0)
	require.NoError(t, err)
	assert.Equal(t, Record{"type": "cat", "name": "Snowball"}, client)

	_, err = h.ServerByID(1)
	assert.ErrorIs(t, err, ErrUnknownID)
}

func TestRemove_OutOfRange(t *testing.T) {
	h := newPetHistory(t, pets())

	for _, index := range []int{-1, 5, 100} {
		err := h.Remove(index)
		require.ErrorIs(t, err, ErrIndexOutOfRange)

		var idxErr *IndexError
		require.ErrorAs(t, err, &idxErr)
		assert.Equal(t, index, idxErr.Index)
		assert.Equal(t, 5, idxErr.Length)
	}
	checkRecords(t, h, pets())
}

func TestReplace(t *testing.T) {
	h := newPetHistory(t, pets())
	expected := pets()
	extra := morePets()

	for i, index := range []int{1, 3} {
		r := extra[i]
		require.NoError(t, h.Replace(index, omit(r, "id"), r))
		expected = append(slices.Delete(expected, index, index+1), r)
		checkRecords(t, h, expected)
	}
}

func TestReplace_EquivalentToRemoveThenPush(t *testing.T) {
	replaced := newPetHistory(t, pets())
	manual := newPetHistory(t, pets())

	for i, index := range []int{0, 2, 4} {
		r := morePets()[i]
		require.NoError(t, replaced.Replace(index, omit(r, "id"), r))
		require.NoError(t, manual.Remove(index))
		require.NoError(t, manual.Push(omit(r, "id"), r))
		assert.Equal(t, manual.Entries(), replaced.Entries())
	}
}

func TestReplace_SameID(t *testing.T) {
	h := newPetHistory(t, pets())
	renamed := with(pets()[0], "name", "Rusty")

	require.NoError(t, h.Replace(0, omit(renamed, "id"), renamed))

	expected := append(pets()[1:], renamed)
	checkRecords(t, h, expected)
}

func TestReplace_Errors(t *testing.T) {
	h := newPetHistory(t, pets())

	assert.ErrorIs(t, h.Replace(7, Record{}, Record{"id": 100}), ErrIndexOutOfRange)
	assert.ErrorIs(t, h.Replace(0, Record{}, Record{"id": 3}), ErrDuplicateID)
	assert.ErrorIs(t, h.Replace(0, Record{}, Record{"name": "x"}), ErrMissingID)

	checkRecords(t, h, pets())
}

func TestClear(t *testing.T) {
	h := newPetHistory(t, pets())
	require.NoError(t, h.Translate(0, "sp", Record{"type": "perro"}))

	require.NoError(t, h.Clear())
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.overlays)
	assert.Empty(t, h.byID)

	require.NoError(t, h.PushWithID(Record{"type": "dog"}, 1))
	translated, err := h.TranslatedServer(0, "sp")
	require.NoError(t, err)
	assert.Equal(t, Record{"id": 1, "type": "dog"}, translated)
}

// =============================================================================
// ListServers
// =============================================================================

func TestListServers_DefaultFields(t *testing.T) {
	records := withExtraFields(pets())
	h := newPetHistory(t, records, WithDefaultFields("name", "fieldstr1", "fieldint"))
	assert.Equal(t, []string{"name", "fieldstr1", "fieldint"}, h.DefaultFields())

	t.Run("defaults", func(t *testing.T) {
		expected := make([]Record, len(records))
		for i, r := range records {
			expected[i] = omit(r, "fieldstr2", "id", "type", "owner")
		}

		got, err := h.ListServers(nil, nil)
		require.NoError(t, err)
		assert.Equal(t, expected, got)

		got, err = h.ListServers(nil, []int{0, 2, 4})
		require.NoError(t, err)
		assert.Equal(t, []Record{expected[0], expected[2], expected[4]}, got)
	})

	t.Run("explicit fields override defaults", func(t *testing.T) {
		fields := []string{"id", "name", "fieldstr2", "fieldint"}
		expected := make([]Record, len(records))
		for i, r := range records {
			expected[i] = omit(r, "fieldstr1", "type", "owner")
		}

		got, err := h.ListServers(fields, nil)
		require.NoError(t, err)
		assert.Equal(t, expected, got)

		got, err = h.ListServers(fields, []int{0, 2, 4})
		require.NoError(t, err)
		assert.Equal(t, []Record{expected[0], expected[2], expected[4]}, got)

		// The override applies to that call only.
		got, err = h.ListServers(nil, []int{0})
		require.NoError(t, err)
		assert.Equal(t, []Record{omit(records[0], "fieldstr2", "id", "type", "owner")}, got)
	})
}

func TestListServers_SingleDefaultField(t *testing.T) {
	h := New(WithDefaultFields("name"))
	require.NoError(t, h.Push(Record{"type": "dog", "name": "Russell"}, Record{"id": 1, "type": "dog", "name": "Russell"}))

	got, err := h.ListServers(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []Record{{"name": "Russell"}}, got)

	got, err = h.ListServers([]string{"id", "name"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []Record{{"id": 1, "name": "Russell"}}, got)
}

func TestListServers_Indices(t *testing.T) {
	h := newPetHistory(t, pets())

	got, err := h.ListServers([]string{"id"}, []int{4, 0, 4})
	require.NoError(t, err)
	assert.Equal(t, []Record{{"id": 8}, {"id": 1}, {"id": 8}}, got)

	got, err = h.ListServers(nil, []int{})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = h.ListServers(nil, []int{0, 5})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestListServers_EmptyFieldList(t *testing.T) {
	h := newPetHistory(t, pets()[:2], WithDefaultFields("name"))

	got, err := h.ListServers([]string{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []Record{{}, {}}, got)
}

// =============================================================================
// Updates
// =============================================================================

func TestUpdateClientAndUpdateServer(t *testing.T) {
	h := newPetHistory(t, pets())
	base, extra := pets(), morePets()

	require.NoError(t, h.UpdateClient(1, omit(extra[0], "id")))
	require.NoError(t, h.UpdateClient(3, omit(extra[1], "id")))

	expected := []Record{base[0], extra[0], base[2], extra[1], base[4]}
	clients := make([]Record, len(expected))
	for i, r := range expected {
		clients[i] = omit(r, "id")
	}
	assert.Equal(t, clients, h.ListClients())

	require.NoError(t, h.UpdateServer(1, extra[0]))
	require.NoError(t, h.UpdateServer(3, extra[1]))
	checkRecords(t, h, expected)

	for _, oldID := range []any{3, 7} {
		_, err := h.ServerByID(oldID)
		assert.ErrorIs(t, err, ErrUnknownID)
	}

	require.NoError(t, h.UpdateClient(4, omit(extra[2], "id")))
	clients[4] = omit(extra[2], "id")
	assert.Equal(t, clients, h.ListClients())

	require.NoError(t, h.UpdateLastServer(extra[2]))
	expected[4] = extra[2]
	checkRecords(t, h, expected)

	require.NoError(t, h.Remove(0))
	require.NoError(t, h.Remove(3))
	checkRecords(t, h, expected[1:4])
}

func TestUpdateServer_Errors(t *testing.T) {
	h := newPetHistory(t, pets())

	assert.ErrorIs(t, h.UpdateServer(5, Record{"id": 100}), ErrIndexOutOfRange)
	assert.ErrorIs(t, h.UpdateServer(0, Record{"id": 3}), ErrDuplicateID)
	assert.ErrorIs(t, h.UpdateServer(0, Record{"name": "x"}), ErrMissingID)
	assert.ErrorIs(t, h.UpdateClient(-1, Record{}), ErrIndexOutOfRange)

	// Keeping the same id is not a collision.
	renamed := with(pets()[0], "name", "Rusty")
	require.NoError(t, h.UpdateServer(0, renamed))

	expected := pets()
	expected[0] = renamed
	checkRecords(t, h, expected)
}

func TestUpdateLastServer_Empty(t *testing.T) {
	h := New()
	assert.ErrorIs(t, h.UpdateLastServer(Record{"id": 1}), ErrEmptyHistory)
}

func TestReloadServer(t *testing.T) {
	base, extra := pets(), morePets()
	expected := append(base[:4:4], extra[0], extra[1])
	h := newPetHistory(t, expected)

	require.NoError(t, h.UpdateClient(2, omit(base[4], "id")))
	require.NoError(t, h.UpdateClient(4, omit(extra[2], "id")))

	update0 := with(base[4], "id", base[2]["id"])
	update1 := with(extra[2], "id", extra[0]["id"])
	require.NoError(t, h.ReloadServer(update0))
	require.NoError(t, h.ReloadServer(update1))

	expected[2] = update0
	expected[4] = update1
	checkRecords(t, h, expected)

	require.NoError(t, h.Remove(1))
	require.NoError(t, h.Remove(3))
	checkRecords(t, h, []Record{expected[0], expected[2], expected[3], expected[5]})
}

func TestReloadServer_FollowsID(t *testing.T) {
	h := newPetHistory(t, pets())
	require.NoError(t, h.Remove(0))
	require.NoError(t, h.Remove(0))

	// id 7 moved from position 3 to 1.
	refreshed := with(pets()[3], "name", "Jewel II")
	require.NoError(t, h.ReloadServer(refreshed))

	pos, err := h.IndexOf(7)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	server, err := h.Server(1)
	require.NoError(t, err)
	assert.Equal(t, refreshed, server)
}

func TestReloadServer_UnknownID(t *testing.T) {
	h := newPetHistory(t, pets())

	err := h.ReloadServer(Record{"id": 42, "name": "ghost"})
	require.ErrorIs(t, err, ErrUnknownID)

	var idErr *IDError
	require.True(t, errors.As(err, &idErr))
	assert.Equal(t, 42, idErr.ID)

	assert.ErrorIs(t, h.ReloadServer(Record{"name": "ghost"}), ErrMissingID)
	checkRecords(t, h, pets())
}

// =============================================================================
// Lookups
// =============================================================================

func TestLookupErrors(t *testing.T) {
	h := newPetHistory(t, pets())

	_, err := h.Client(5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = h.Server(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = h.ServerByID(2)
	assert.ErrorIs(t, err, ErrUnknownID)
	_, err = h.ServerByID([]int{1})
	assert.ErrorIs(t, err, ErrInvalidID)
	_, err = h.IndexOf(nil)
	assert.ErrorIs(t, err, ErrInvalidID)

	// Ids compare with ==, so a float does not find an int id.
	_, err = h.ServerByID(1.0)
	assert.ErrorIs(t, err, ErrUnknownID)
}
