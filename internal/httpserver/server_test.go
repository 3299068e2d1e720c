package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/lettertiles/apps/go-server/internal/dict"
	"github.com/robalobadob/lettertiles/apps/go-server/internal/lookup"
	"github.com/robalobadob/lettertiles/apps/go-server/internal/store"
	"github.com/robalobadob/lettertiles/apps/go-server/internal/tiles"
	"github.com/robalobadob/lettertiles/apps/go-server/internal/wordindex"
)

type lookuperFunc func(ctx context.Context, letters string, d dict.ID) (*lookup.Result, error)

func (f lookuperFunc) Lookup(ctx context.Context, letters string, d dict.ID) (*lookup.Result, error) {
	return f(ctx, letters, d)
}

func testOptions() Options {
	return Options{
		ClientOrigin:       "http://localhost:5173",
		SessionSecret:      "test_secret_0123456789",
		LookupTimeout:      2 * time.Second,
		CombinationTimeout: time.Second,
		CombinationDepth:   3,
	}
}

func seededIndex(t *testing.T) *wordindex.Index {
	t.Helper()
	x, err := wordindex.Open(filepath.Join(t.TempDir(), "words.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = x.Close() })
	_, err = x.Seed(context.Background(), "fr", []string{"chat", "chaton", "thé", "on", "ton", "cha", "no", "tac"})
	require.NoError(t, err)
	_, err = x.Seed(context.Background(), "en", []string{"cat", "act", "hat", "at"})
	require.NoError(t, err)
	return x
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandleWords(t *testing.T) {
	srv := New(testOptions(), store.NewMemoryStore(nil), seededIndex(t), nil)

	rec := get(t, srv.Handler(), "/api/words/chaton?dict=fr")
	require.Equal(t, http.StatusOK, rec.Code)

	var res lookup.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, []string{"chaton", "chat", "cha", "tac", "ton", "no", "on"}, res.Words)
	assert.Contains(t, res.Combinations, []string{"chaton"})
	assert.Contains(t, res.Combinations, []string{"chat", "no"})
}

func TestHandleWords_DefaultsToFrenchAndFoldsAccents(t *testing.T) {
	srv := New(testOptions(), store.NewMemoryStore(nil), seededIndex(t), nil)

	rec := get(t, srv.Handler(), "/api/words/th%C3%A9")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"words":["thé"],"combinations":[["thé"]]}`, rec.Body.String())
}

func TestHandleWords_CombinedDictionaries(t *testing.T) {
	srv := New(testOptions(), store.NewMemoryStore(nil), seededIndex(t), nil)

	rec := get(t, srv.Handler(), "/api/words/TAC?dict=fren")
	require.Equal(t, http.StatusOK, rec.Code)
	var res lookup.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, []string{"act", "cat", "tac", "at"}, res.Words)
}

func TestHandleWords_BadRequests(t *testing.T) {
	srv := New(testOptions(), store.NewMemoryStore(nil), seededIndex(t), nil)

	rec := get(t, srv.Handler(), "/api/words/abc?dict=xx")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown dictionary")

	rec = get(t, srv.Handler(), "/api/words/123")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type brokenIndex struct{}

func (brokenIndex) Ping(context.Context) error { return errors.New("disk on fire") }

func (brokenIndex) Dictionaries(context.Context) ([]string, error) {
	return nil, errors.New("disk on fire")
}

func (brokenIndex) Find(context.Context, []string, string, int) ([]string, error) {
	return nil, errors.New("disk on fire")
}

func TestHandleHealth(t *testing.T) {
	srv := New(testOptions(), store.NewMemoryStore(nil), seededIndex(t), nil)
	rec := get(t, srv.Handler(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":true`)

	srv = New(testOptions(), store.NewMemoryStore(nil), brokenIndex{}, nil)
	rec = get(t, srv.Handler(), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = get(t, srv.Handler(), "/api/words/abc")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNotFoundAndCORS(t *testing.T) {
	srv := New(testOptions(), store.NewMemoryStore(nil), seededIndex(t), nil)

	rec := get(t, srv.Handler(), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/session/submit", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := New(testOptions(), store.NewMemoryStore(nil), seededIndex(t), nil)
	_ = get(t, srv.Handler(), "/api/words/chat")

	rec := get(t, srv.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "word_queries_total")
}

// sessionClient drives the session API of a running test server.
type sessionClient struct {
	t    *testing.T
	base string
	http *http.Client
}

func newSessionClient(t *testing.T, base string) *sessionClient {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &sessionClient{t: t, base: base, http: &http.Client{Jar: jar}}
}

func (c *sessionClient) post(path, body string) (int, tiles.View, string) {
	c.t.Helper()
	resp, err := c.http.Post(c.base+path, "application/json", strings.NewReader(body))
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var raw json.RawMessage
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&raw))
	var v tiles.View
	_ = json.Unmarshal(raw, &v)
	return resp.StatusCode, v, string(raw)
}

func tileLetters(v tiles.View) string {
	var b strings.Builder
	for _, t := range v.Tiles {
		b.WriteString(t.Letter)
	}
	return b.String()
}

func wordList(v tiles.View) []string {
	out := []string{}
	for _, e := range v.Words.Items {
		out = append(out, e.Word)
	}
	return out
}

func startSessionServer(t *testing.T) *httptest.Server {
	t.Helper()
	var client *lookup.Client
	lk := lookuperFunc(func(ctx context.Context, letters string, d dict.ID) (*lookup.Result, error) {
		return client.Lookup(ctx, letters, d)
	})
	srv := New(testOptions(), store.NewMemoryStore(nil), seededIndex(t), lk)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	client = lookup.NewClient(ts.URL, 2*time.Second)
	return ts
}

func TestSessionFlow(t *testing.T) {
	ts := startSessionServer(t)
	c := newSessionClient(t, ts.URL)

	code, v, _ := c.post("/session", "")
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, dict.French, v.Dictionary)
	assert.Empty(t, v.Tiles)

	code, v, _ = c.post("/session/submit", `{"text":"ch-at"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "CHAT", tileLetters(v))
	assert.False(t, v.Pending)
	assert.Equal(t, []string{"chat", "cha", "tac"}, wordList(v))
	assert.Equal(t, "https://fr.wiktionary.org/wiki/chat", v.Words.Items[0].ReferenceURL)

	code, v, _ = c.post("/session/remove", `{"word":"cha"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"chat", "tac"}, wordList(v))
	assert.Equal(t, []string{"cha"}, v.Excluded)

	code, v, _ = c.post("/session/select", `{"word":"tac"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "TACH", tileLetters(v))
	assert.Equal(t, "H", v.UnlockedLetters)
	assert.Empty(t, v.Words.Items)
	assert.Empty(t, v.Combinations)

	code, v, _ = c.post("/session/lock", `{"index":0}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "TH", v.UnlockedLetters)

	code, v, _ = c.post("/session/dictionary", `{"dict":"en"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, dict.English, v.Dictionary)

	code, v, _ = c.post("/session/reorder", `{"from":0,"to":3}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "HACT", tileLetters(v))

	code, v, _ = c.post("/session/shuffle", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "AC", tileLetters(tiles.View{Tiles: v.Tiles[:2]}))

	code, _, _ = c.post("/session/page", `{"direction":"next"}`)
	assert.Equal(t, http.StatusOK, code)
}

func TestSession_ValidationErrors(t *testing.T) {
	ts := startSessionServer(t)
	c := newSessionClient(t, ts.URL)

	code, _, raw := c.post("/session/submit", `{"text":"42"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, raw, tiles.ErrNoLetters.Error())

	code, _, _ = c.post("/session/lock", `{"index":3}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _, _ = c.post("/session/dictionary", `{"dict":"xx"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _, _ = c.post("/session/page", `{"page":9}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _, raw = c.post("/session/submit", `{`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, raw, "bad_json")
}

func TestSession_IsolatedPerClient(t *testing.T) {
	ts := startSessionServer(t)
	a := newSessionClient(t, ts.URL)
	b := newSessionClient(t, ts.URL)

	_, va, _ := a.post("/session/submit", `{"text":"chat"}`)
	_, vb, _ := b.post("/session/submit", `{"text":"on"}`)
	assert.Equal(t, "CHAT", tileLetters(va))
	assert.Equal(t, "ON", tileLetters(vb))

	_, va, _ = a.post("/session/lock", `{"index":0}`)
	assert.Equal(t, "HAT", va.UnlockedLetters)
}

func TestSession_LookupFailureKeepsResults(t *testing.T) {
	var fail atomic.Bool
	lk := lookuperFunc(func(ctx context.Context, letters string, d dict.ID) (*lookup.Result, error) {
		if fail.Load() {
			return nil, &lookup.StatusError{Code: http.StatusBadGateway}
		}
		return &lookup.Result{Words: []string{"chat"}, Combinations: [][]string{}}, nil
	})
	srv := New(testOptions(), store.NewMemoryStore(nil), seededIndex(t), lk)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	c := newSessionClient(t, ts.URL)

	_, v, _ := c.post("/session/submit", `{"text":"chat"}`)
	assert.Equal(t, []string{"chat"}, wordList(v))

	fail.Store(true)
	code, v, _ := c.post("/session/lock", `{"index":0}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, v.Error, "502")
	assert.Equal(t, []string{"chat"}, wordList(v))
}

func TestSession_TokenTampering(t *testing.T) {
	srv := New(testOptions(), store.NewMemoryStore(nil), seededIndex(t), nil)

	tok, _, err := srv.signSessionToken("abc")
	require.NoError(t, err)
	sid, err := srv.parseSessionToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "abc", sid)

	other := New(Options{SessionSecret: "another_secret_987654"}, store.NewMemoryStore(nil), seededIndex(t), nil)
	_, err = other.parseSessionToken(tok)
	assert.Error(t, err)
}
