// apps/go-server/internal/lookup/client.go
//
// HTTP client for the word lookup contract:
//
//	GET {base}/api/words/{LETTERS}?dict={id}
//	200 → {"words": [...], "combinations": [[...], ...]}
//
// Any non-2xx status or transport error is a per-request failure. A cancelled
// context is passed through untouched so callers can tell it apart with
// errors.Is(err, context.Canceled).

package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/robalobadob/lettertiles/apps/go-server/internal/dict"
)

// Result is the lookup service's success payload.
type Result struct {
	Words        []string   `json:"words"`
	Combinations [][]string `json:"combinations"`
}

// StatusError reports a non-2xx answer from the lookup service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("lookup service returned %d", e.Code)
	}
	return fmt.Sprintf("lookup service returned %d: %s", e.Code, e.Body)
}

// Client calls a lookup service rooted at BaseURL.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client. A zero timeout leaves requests bounded only by their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Lookup fetches words and combinations for letters in dictionary d.
func (c *Client) Lookup(ctx context.Context, letters string, d dict.ID) (*Result, error) {
	u := c.baseURL + "/api/words/" + url.PathEscape(letters) + "?" + url.Values{"dict": {string(d)}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("lookup %s: %w", letters, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}
	if out.Words == nil {
		out.Words = []string{}
	}
	if out.Combinations == nil {
		out.Combinations = [][]string{}
	}
	return &out, nil
}
