package words

import (
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
)

// CombinationOptions bounds the combination search.
type CombinationOptions struct {
	MaxDepth   int           // words per combination (default 3)
	Timeout    time.Duration // wall-clock budget (default 5s)
	MaxResults int           // stop collecting after this many (default 10000)
	Clock      clockwork.Clock
}

func (o CombinationOptions) withDefaults() CombinationOptions {
	if o.MaxDepth <= 0 {
		o.MaxDepth = 3
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.MaxResults <= 0 {
		o.MaxResults = 10000
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	return o
}

// Combinations finds groups of candidates that can be spelled together from
// letters. A group is kept when it uses every letter or reaches MaxDepth words.
// Each multiset of words is reported once, in candidate order. Results are
// sorted by letters used, then by word count, both descending.
//
// complete is false when the search stopped early on Timeout or MaxResults.
func Combinations(letters string, candidates []string, opts CombinationOptions) (_ [][]string, complete bool) {
	opts = opts.withDefaults()
	pool := CountLetters(Normalize(letters))

	type cand struct {
		word   string
		counts Counts
		size   int
	}
	cands := make([]cand, 0, len(candidates))
	for _, w := range candidates {
		n := Normalize(w)
		if n == "" {
			continue
		}
		c := CountLetters(n)
		if pool.Contains(c) {
			cands = append(cands, cand{word: w, counts: c, size: len(n)})
		}
	}

	total := 0
	for _, n := range pool {
		total += n
	}

	type found struct {
		words []string
		used  int
	}
	var (
		results []found
		current []string
		begin   = opts.Clock.Now()
	)
	complete = true

	// walk extends current with candidates from index from onwards, so each
	// multiset is visited in a single order.
	var walk func(remaining Counts, left, from int) bool
	walk = func(remaining Counts, left, from int) bool {
		if opts.Clock.Now().Sub(begin) > opts.Timeout || len(results) >= opts.MaxResults {
			complete = false
			return false
		}
		for i := from; i < len(cands); i++ {
			c := cands[i]
			if !remaining.Contains(c.counts) {
				continue
			}
			current = append(current, c.word)
			ok := true
			if left == c.size || len(current) >= opts.MaxDepth {
				results = append(results, found{words: append([]string(nil), current...), used: total - left + c.size})
			} else {
				next := remaining
				for k := range next {
					next[k] -= c.counts[k]
				}
				ok = walk(next, left-c.size, i)
			}
			current = current[:len(current)-1]
			if !ok {
				return false
			}
		}
		return true
	}
	if total > 0 {
		walk(pool, total, 0)
	}

	sort.SliceStable(results, func(a, b int) bool {
		if results[a].used != results[b].used {
			return results[a].used > results[b].used
		}
		return len(results[a].words) > len(results[b].words)
	})
	out := make([][]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.words)
	}
	return out, complete
}
