package history

import (
	"slices"
)

// Translate merges partial into the overlay of the entry at index for locale.
// Later calls for the same entry and locale add to earlier ones field by field.
func (h *History) Translate(index int, locale string, partial Record) error {
	if err := h.checkIndex("translate", index); err != nil {
		return err
	}
	h.storeOverlay(h.entries[index].Server[h.idField], locale, partial)
	return nil
}

// TranslateWithServer is Translate with the entry found by server's id instead
// of by position.
func (h *History) TranslateWithServer(server Record, locale string, partial Record) error {
	id, err := h.idOf("translateWithServer", server)
	if err != nil {
		return err
	}
	if _, err := h.lookup("translateWithServer", id); err != nil {
		return err
	}
	h.storeOverlay(id, locale, partial)
	return nil
}

// TranslatedServer returns the server record at index with the locale overlay
// deep-merged on top. Without an overlay for locale it equals Server(index).
func (h *History) TranslatedServer(index int, locale string) (Record, error) {
	if err := h.checkIndex("translatedServer", index); err != nil {
		return nil, err
	}
	return h.translated(index, locale), nil
}

// ServerTranslation is TranslatedServer addressed by id.
func (h *History) ServerTranslation(id any, locale string) (Record, error) {
	pos, err := h.lookup("serverTranslation", id)
	if err != nil {
		return nil, err
	}
	return h.translated(pos, locale), nil
}

// TranslatedHistory returns every translated server record in position order.
func (h *History) TranslatedHistory(locale string) []Record {
	out := make([]Record, len(h.entries))
	for i := range h.entries {
		out[i] = h.translated(i, locale)
	}
	return out
}

// ListTranslatedServers is ListServers over translated records, for every position.
func (h *History) ListTranslatedServers(locale string, fields []string) []Record {
	out := make([]Record, len(h.entries))
	for i := range h.entries {
		out[i] = Project(h.translated(i, locale), fields, h.defaultFields)
	}
	return out
}

// Locales returns the sorted locales that hold an overlay for the entry with id.
func (h *History) Locales(id any) ([]string, error) {
	if _, err := h.lookup("locales", id); err != nil {
		return nil, err
	}
	locales := make([]string, 0, len(h.overlays[id]))
	for locale := range h.overlays[id] {
		locales = append(locales, locale)
	}
	slices.Sort(locales)
	return locales, nil
}

func (h *History) storeOverlay(id any, locale string, partial Record) {
	locale = canonicalLocale(locale)
	byLocale, ok := h.overlays[id]
	if !ok {
		byLocale = make(map[string]Record)
		h.overlays[id] = byLocale
	}
	byLocale[locale] = mergeRecord(byLocale[locale], partial)
	h.log.Debug("translation stored", "id", id, "locale", locale)
	h.observer.OnTranslate(id, locale)
}

func (h *History) translated(pos int, locale string) Record {
	server := h.entries[pos].Server
	overlay, ok := h.overlays[server[h.idField]][canonicalLocale(locale)]
	if !ok {
		return cloneRecord(server)
	}
	return mergeRecord(server, overlay)
}
