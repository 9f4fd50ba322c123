package history

import (
	"golang.org/x/text/language"
)

// canonicalLocale normalizes BCP 47 tags so that "en-us" and "en-US" share an
// overlay. Tags the language registry rejects are kept verbatim.
func canonicalLocale(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return locale
	}
	return tag.String()
}
