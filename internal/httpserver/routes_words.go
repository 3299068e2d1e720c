// apps/go-server/internal/httpserver/routes_words.go
//
// Word lookup service:
//   - GET /api/words/{letters}?dict=fr → {"words": [...], "combinations": [[...], ...]}
//
// Letters are normalized (accents folded, uppercase, letters only). Words come
// back longest first, then alphabetically, capped at maxWords; combinations are
// capped at maxCombinations. Identical concurrent queries (same dictionary and
// same letter multiset) share one search.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/lettertiles/apps/go-server/internal/dict"
	"github.com/robalobadob/lettertiles/apps/go-server/internal/lookup"
	"github.com/robalobadob/lettertiles/apps/go-server/internal/metrics"
	"github.com/robalobadob/lettertiles/apps/go-server/internal/wordindex"
	"github.com/robalobadob/lettertiles/apps/go-server/internal/words"
)

const (
	maxWords        = 500
	maxCombinations = 50
	searchTimeout   = 30 * time.Second
)

func (s *Server) handleWords(w http.ResponseWriter, r *http.Request) {
	d, err := dict.Parse(r.URL.Query().Get("dict"))
	if err != nil {
		metrics.WordQueriesTotal.WithLabelValues("unknown", "bad_request").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	letters := words.Normalize(chi.URLParam(r, "letters"))
	if letters == "" {
		metrics.WordQueriesTotal.WithLabelValues(string(d), "bad_request").Inc()
		writeError(w, http.StatusBadRequest, "no letters")
		return
	}

	logger := hlog.FromRequest(r)
	logger.Info().Str("letters", letters).Str("dict", string(d)).Msg("word lookup")

	key := string(d) + ":" + words.SortedLetters(letters)
	ch := s.flight.DoChan(key, func() (any, error) {
		// detached so one caller going away does not fail the others
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), searchTimeout)
		defer cancel()
		return s.search(ctx, d, letters)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			metrics.WordQueriesTotal.WithLabelValues(string(d), "error").Inc()
			logger.Error().Err(res.Err).Msg("word lookup failed")
			writeError(w, http.StatusInternalServerError, "lookup_failed")
			return
		}
		metrics.WordQueriesTotal.WithLabelValues(string(d), "ok").Inc()
		writeJSON(w, http.StatusOK, res.Val)
	case <-r.Context().Done():
		metrics.WordQueriesTotal.WithLabelValues(string(d), "cancelled").Inc()
		logger.Debug().Msg("word lookup abandoned by client")
	}
}

// search runs the index query and the combination search for one letter set.
func (s *Server) search(ctx context.Context, d dict.ID, letters string) (*lookup.Result, error) {
	loaded, err := s.index.Dictionaries(ctx)
	if err != nil {
		return nil, err
	}
	sources := dict.Sources(d, loaded)
	if len(sources) == 0 {
		return nil, errors.New("dictionary has no word lists")
	}

	start := time.Now()
	found, err := s.index.Find(ctx, sources, letters, wordindex.DefaultLimit)
	if err != nil {
		return nil, err
	}
	metrics.WordQueryDuration.WithLabelValues("words").Observe(time.Since(start).Seconds())

	start = time.Now()
	combos, complete := words.Combinations(letters, found, s.combos)
	metrics.WordQueryDuration.WithLabelValues("combinations").Observe(time.Since(start).Seconds())
	if !complete {
		metrics.CombinationSearchTimeouts.Inc()
	}

	if len(found) > maxWords {
		found = found[:maxWords]
	}
	if len(combos) > maxCombinations {
		combos = combos[:maxCombinations]
	}
	return &lookup.Result{Words: found, Combinations: combos}, nil
}
