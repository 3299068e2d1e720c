// apps/go-server/internal/tiles/session.go
//
// Session is the tile-arrangement state machine for one user.
// Responsibilities:
//   - Own the ordered tiles, the excluded-word set, the active dictionary and pagination.
//   - Apply user actions (submit, reorder, lock, shuffle, select, remove, dictionary).
//   - Decide which lookup to issue after each action and discard stale responses.
//
// Notes:
//   - Every tile-affecting action bumps the generation counter. Apply/Fail only
//     take effect when they carry the current generation, so a slow response to
//     an older lookup can never overwrite a newer one.
//   - Session does no I/O and no locking; Controller wraps it for concurrent use.
//   - The excluded-word set survives resubmission; it lives as long as the session.

package tiles

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/robalobadob/lettertiles/apps/go-server/internal/dict"
	"github.com/robalobadob/lettertiles/apps/go-server/internal/lookup"
)

type Session struct {
	tiles      []Tile
	excluded   map[string]struct{}
	dictionary dict.ID
	page       int

	generation uint64
	pending    bool
	loaded     bool
	result     lookup.Result
	errMsg     string

	rng *rand.Rand
}

// Option configures a Session.
type Option func(*Session)

// WithRand makes Shuffle draw from r instead of the global source.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rng = r }
}

// NewSession returns an empty session on the default dictionary.
func NewSession(opts ...Option) *Session {
	s := &Session{
		excluded:   make(map[string]struct{}),
		dictionary: dict.Default,
		page:       1,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// FilterLetters uppercases raw and keeps only A–Z.
func FilterLetters(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Submit replaces the tiles with one unlocked tile per letter of raw.
// Returns ErrNoLetters, leaving the session untouched, when raw has no letters.
func (s *Session) Submit(raw string) (*Request, error) {
	letters := FilterLetters(raw)
	if letters == "" {
		return nil, ErrNoLetters
	}
	s.tiles = make([]Tile, 0, len(letters))
	for _, r := range letters {
		s.tiles = append(s.tiles, Tile{Letter: string(r)})
	}
	s.errMsg = ""
	return s.refresh(), nil
}

// Reorder swaps the tiles at from and to (drop-onto semantics, not insert).
// Equal indices are a no-op and issue no lookup.
func (s *Session) Reorder(from, to int) (*Request, error) {
	if !s.valid(from) || !s.valid(to) {
		return nil, ErrIndexOutOfRange
	}
	if from == to {
		return nil, nil
	}
	s.tiles[from], s.tiles[to] = s.tiles[to], s.tiles[from]
	return s.refresh(), nil
}

// ToggleLock flips the locked flag of tile i.
func (s *Session) ToggleLock(i int) (*Request, error) {
	if !s.valid(i) {
		return nil, ErrIndexOutOfRange
	}
	s.tiles[i].Locked = !s.tiles[i].Locked
	return s.refresh(), nil
}

// Shuffle moves locked tiles to the front, keeping their relative order, and
// follows them with a uniform random permutation of the unlocked tiles.
func (s *Session) Shuffle() *Request {
	locked := make([]Tile, 0, len(s.tiles))
	var unlocked []Tile
	for _, t := range s.tiles {
		if t.Locked {
			locked = append(locked, t)
		} else {
			unlocked = append(unlocked, t)
		}
	}
	// Fisher–Yates
	for i := len(unlocked) - 1; i > 0; i-- {
		j := s.intN(i + 1)
		unlocked[i], unlocked[j] = unlocked[j], unlocked[i]
	}
	s.tiles = append(locked, unlocked...)
	return s.refresh()
}

// SelectWord locks, for each letter of word in order, the first unlocked tile
// carrying it. Matched tiles move to the front in match order; the rest keep
// their relative order. Letters with no available tile are skipped silently.
func (s *Session) SelectWord(word string) *Request {
	remaining := slices.Clone(s.tiles)
	picked := make([]Tile, 0, len(word))
	for _, r := range strings.ToUpper(word) {
		letter := string(r)
		for i, t := range remaining {
			if t.Locked || t.Letter != letter {
				continue
			}
			t.Locked = true
			picked = append(picked, t)
			remaining = slices.Delete(remaining, i, i+1)
			break
		}
	}
	s.tiles = append(picked, remaining...)
	return s.refresh()
}

// RemoveWord hides word from every later render and refreshes the lookup.
func (s *Session) RemoveWord(word string) *Request {
	s.excluded[word] = struct{}{}
	return s.refresh()
}

// SetDictionary switches the active dictionary.
func (s *Session) SetDictionary(name string) (*Request, error) {
	id, err := dict.Parse(name)
	if err != nil {
		return nil, err
	}
	s.dictionary = id
	return s.refresh(), nil
}

// SetPage moves to page n of the filtered word list without fetching.
func (s *Session) SetPage(n int) error {
	total := totalPages(len(s.Words()), PageSize)
	if n < 1 || (n > total && n != 1) {
		return ErrPageOutOfRange
	}
	s.page = n
	return nil
}

// NextPage advances one page if there is one.
func (s *Session) NextPage() bool {
	if s.page >= totalPages(len(s.Words()), PageSize) {
		return false
	}
	s.page++
	return true
}

// PrevPage goes back one page if not on the first.
func (s *Session) PrevPage() bool {
	if s.page <= 1 {
		return false
	}
	s.page--
	return true
}

// Apply installs the lookup result for generation gen.
// Returns false, changing nothing, when gen has been superseded.
func (s *Session) Apply(gen uint64, res lookup.Result) bool {
	if gen != s.generation || !s.pending {
		return false
	}
	s.pending = false
	s.loaded = true
	s.result = lookup.Result{
		Words:        slices.Clone(res.Words),
		Combinations: slices.Clone(res.Combinations),
	}
	s.errMsg = ""
	s.page = 1
	return true
}

// Fail records a lookup failure for generation gen. Stale generations and
// cancellations are ignored. Previously displayed results are kept.
func (s *Session) Fail(gen uint64, err error) bool {
	if gen != s.generation || !s.pending {
		return false
	}
	s.pending = false
	if errors.Is(err, context.Canceled) {
		return false
	}
	s.errMsg = fmt.Sprintf("error fetching words: %v", err)
	return true
}

// Generation is the id of the most recently triggered lookup.
func (s *Session) Generation() uint64 { return s.generation }

// Pending reports whether the current lookup is still awaiting its response.
func (s *Session) Pending() bool { return s.pending }

// Tiles returns a copy of the tile sequence.
func (s *Session) Tiles() []Tile { return slices.Clone(s.tiles) }

// Dictionary is the active dictionary.
func (s *Session) Dictionary() dict.ID { return s.dictionary }

// Page is the current 1-based results page.
func (s *Session) Page() int { return s.page }

// UnlockedLetters concatenates the letters of unlocked tiles in tile order.
func (s *Session) UnlockedLetters() string {
	var b strings.Builder
	for _, t := range s.tiles {
		if !t.Locked {
			b.WriteString(t.Letter)
		}
	}
	return b.String()
}

// IsExcluded reports whether word was removed by the user.
func (s *Session) IsExcluded(word string) bool {
	_, ok := s.excluded[word]
	return ok
}

// Words is the last received word list minus excluded words.
func (s *Session) Words() []string {
	out := make([]string, 0, len(s.result.Words))
	for _, w := range s.result.Words {
		if !s.IsExcluded(w) {
			out = append(out, w)
		}
	}
	return out
}

// Combinations is the last received combination list with excluded words
// dropped individually; combinations left empty are dropped entirely.
func (s *Session) Combinations() [][]string {
	out := make([][]string, 0, len(s.result.Combinations))
	for _, combo := range s.result.Combinations {
		kept := make([]string, 0, len(combo))
		for _, w := range combo {
			if !s.IsExcluded(w) {
				kept = append(kept, w)
			}
		}
		if len(kept) > 0 {
			out = append(out, kept)
		}
	}
	return out
}

// View renders the session for the presentation layer.
func (s *Session) View() View {
	excluded := make([]string, 0, len(s.excluded))
	for w := range s.excluded {
		excluded = append(excluded, w)
	}
	slices.Sort(excluded)

	tiles := s.Tiles()
	if tiles == nil {
		tiles = []Tile{}
	}
	return View{
		Generation:      s.generation,
		Tiles:           tiles,
		UnlockedLetters: s.UnlockedLetters(),
		Dictionary:      s.dictionary,
		Dictionaries:    dict.IDs(),
		Pending:         s.pending,
		Loaded:          s.loaded,
		Words:           Paginate(s.Words(), s.page, PageSize),
		Combinations:    s.Combinations(),
		Excluded:        excluded,
		Error:           s.errMsg,
	}
}

// refresh starts a new lookup generation. Any earlier lookup is superseded.
// With no unlocked letters both result panes are cleared and nil is returned.
func (s *Session) refresh() *Request {
	s.generation++
	s.page = 1
	letters := s.UnlockedLetters()
	if letters == "" {
		s.pending = false
		s.loaded = false
		s.result = lookup.Result{}
		return nil
	}
	s.pending = true
	return &Request{Generation: s.generation, Letters: letters, Dictionary: s.dictionary}
}

func (s *Session) valid(i int) bool { return i >= 0 && i < len(s.tiles) }

func (s *Session) intN(n int) int {
	if s.rng != nil {
		return s.rng.IntN(n)
	}
	return rand.IntN(n)
}
