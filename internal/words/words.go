// apps/go-server/internal/words/words.go
//
// Provides word list management and letter arithmetic for the lookup service.
//
// Responsibilities:
//   - Normalize words and letter sets (fold accents, uppercase, letters only).
//   - Compute the sorted-letter key and 26-bit letter mask used by the index.
//   - Check whether a word can be spelled from a letter multiset.
//   - Load dictionaries from WORDS_DIR or fall back to embedded defaults.
//
// Word lists:
//   - One word per line, blank lines and "#" comments ignored.
//   - The list name is the file name without ".txt" (fr.txt → "fr").
//   - Words keep their original spelling (accents included); only the
//     normalized form is used for matching.

package words

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/robalobadob/lettertiles/apps/go-server/assets"
)

// MinLength is the shortest word the index returns.
const MinLength = 2

var ligatures = strings.NewReplacer("œ", "oe", "Œ", "OE", "æ", "ae", "Æ", "AE", "ß", "ss")

// Normalize folds accents and ligatures, uppercases, and keeps only A–Z.
func Normalize(s string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		ligatures.Replace(s),
	)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(folded) {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SortedLetters returns the letters of a normalized string in ascending order.
func SortedLetters(normalized string) string {
	b := []byte(normalized)
	sort.Slice(b, func(i, j int) bool { return b[i] < b[j] })
	return string(b)
}

// LetterMask sets bit i for every letter 'A'+i present in normalized.
func LetterMask(normalized string) int64 {
	var m int64
	for i := 0; i < len(normalized); i++ {
		m |= 1 << (normalized[i] - 'A')
	}
	return m
}

// AllLetters is the mask with every letter set.
const AllLetters int64 = 1<<26 - 1

// Counts is a per-letter multiset.
type Counts [26]int

// CountLetters builds the multiset of a normalized string.
func CountLetters(normalized string) Counts {
	var c Counts
	for i := 0; i < len(normalized); i++ {
		c[normalized[i]-'A']++
	}
	return c
}

// Contains reports whether every letter of o is available in c.
func (c Counts) Contains(o Counts) bool {
	for i := range c {
		if o[i] > c[i] {
			return false
		}
	}
	return true
}

// Fits reports whether word (normalized) can be spelled from letters (normalized).
func Fits(word, letters string) bool {
	return len(word) <= len(letters) && CountLetters(letters).Contains(CountLetters(word))
}

// LoadLists returns every word list keyed by name. With dir set, each
// <dir>/*.txt file is one list; otherwise the embedded defaults are used.
func LoadLists(dir string) (map[string][]string, error) {
	if dir == "" {
		return loadEmbedded()
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("words: no *.txt lists in %s", dir)
	}
	out := make(map[string][]string, len(paths))
	for _, p := range paths {
		list, err := readWordFile(p)
		if err != nil {
			return nil, fmt.Errorf("words: read %s: %w", p, err)
		}
		out[strings.TrimSuffix(filepath.Base(p), ".txt")] = list
	}
	return out, nil
}

func loadEmbedded() (map[string][]string, error) {
	names, err := assets.DictionaryNames()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(names))
	for _, name := range names {
		lines, err := assets.DictionaryLines(name)
		if err != nil {
			return nil, err
		}
		out[name] = normalizeLines(lines)
	}
	if len(out) == 0 {
		return nil, errors.New("words: no embedded dictionaries")
	}
	return out, nil
}

// readWordFile loads one word per line from a file.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return normalizeLines(lines), sc.Err()
}

// normalizeLines trims and lowercases entries, drops comments, duplicates and
// anything shorter than MinLength letters once normalized.
func normalizeLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		w := strings.ToLower(strings.TrimSpace(line))
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		if len(Normalize(w)) < MinLength {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
