// Package history records API interactions for mock and test tooling and lets
// callers inspect them afterwards.
//
// Every interaction is an Entry holding two records: the client view (what the
// caller sent) and the server view (what was recorded as authoritative). The
// server view carries a unique identifier, "id" by default, which the History
// indexes alongside the entry's position.
//
// # Core Types
//
//   - History: ordered entries plus an id index, translation overlays and remove hooks
//   - Entry: one client/server pair
//   - Record: an arbitrary, possibly nested, string-keyed map
//
// # Positions and Ids
//
// Positions are zero-based and shift left when an entry is removed. Replace
// removes the entry at a position and appends the new one at the end. Ids are
// stable: overlays are attached to ids, so they follow an entry through removals
// elsewhere in the history.
//
// # Projection
//
// ListServers and ListTranslatedServers show either the fields given on the
// call, the default fields given to New, or the whole record.
//
// # Translations
//
// Translate stores a partial record for an (entry, locale) pair. Reading a
// translated server deep-merges the overlay on top of a copy of the stored
// record; the stored record itself is never changed.
//
// # Usage
//
//	h := history.New(history.WithDefaultFields("name"))
//	_ = h.PushWithID(history.Record{"type": "dog", "name": "Russell"}, 1)
//	_ = h.Translate(0, "sp", history.Record{"type": "perro"})
//	servers, _ := h.ListServers(nil, nil) // [{name: Russell}]
//	sp, _ := h.TranslatedServer(0, "sp")  // {id: 1, type: perro, name: Russell}
//
// # Thread Safety
//
// History is meant to be driven by a single caller. It holds no locks; wrap it
// in one mutex if several goroutines need it. Every read returns a deep copy.
package history
