// apps/go-server/internal/dict/dict.go
//
// Dictionary identifiers understood by the lookup service and the tile session.
//
//   - fr:   French word list (default).
//   - en:   English word list.
//   - fren: French and English lists searched together.
//   - all:  every loaded list.
//
// Each identifier expands into the word lists ("sources") it searches.

package dict

import (
	"errors"
	"net/url"
	"strings"
)

// ID names one of the enumerated dictionaries.
type ID string

const (
	French  ID = "fr"
	English ID = "en"
	FrEn    ID = "fren"
	All     ID = "all"

	// Default is pre-selected when a session starts.
	Default = French
)

// ErrUnknown is returned by Parse for identifiers outside the enumerated set.
var ErrUnknown = errors.New("unknown dictionary")

// IDs lists the enumerated dictionaries in display order.
func IDs() []ID { return []ID{French, English, FrEn, All} }

// Parse validates s. Matching is case-insensitive; an empty string selects Default.
func Parse(s string) (ID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Default, nil
	}
	for _, id := range IDs() {
		if string(id) == s {
			return id, nil
		}
	}
	return "", ErrUnknown
}

// Sources expands id into the word lists it searches.
// For All, loaded is returned as-is (the lists actually present in the index).
func Sources(id ID, loaded []string) []string {
	switch id {
	case French:
		return []string{string(French)}
	case English:
		return []string{string(English)}
	case FrEn:
		return []string{string(French), string(English)}
	case All:
		return append([]string(nil), loaded...)
	}
	return nil
}

// ReferenceURL links a word to its external reference page.
func ReferenceURL(word string) string {
	return "https://fr.wiktionary.org/wiki/" + url.PathEscape(word)
}
