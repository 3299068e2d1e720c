// apps/go-server/internal/tiles/controller.go
//
// Controller makes a Session safe for concurrent callers and runs its lookups.
//
//   - At most one lookup is current. Starting a new one cancels the previous
//     request's context, so the network call is abandoned as well.
//   - The session's generation check is what actually guarantees ordering:
//     a response that races past cancellation is still discarded.
//   - Callers may wait for the lookup their action triggered before rendering.

package tiles

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/lettertiles/apps/go-server/internal/dict"
	"github.com/robalobadob/lettertiles/apps/go-server/internal/lookup"
	"github.com/robalobadob/lettertiles/apps/go-server/internal/metrics"
)

// Lookuper fetches words and combinations for a letter set.
type Lookuper interface {
	Lookup(ctx context.Context, letters string, d dict.ID) (*lookup.Result, error)
}

// Op is one user action against a session. It returns the lookup to issue, if any.
type Op func(*Session) (*Request, error)

type Controller struct {
	ID string

	mu       sync.Mutex
	session  *Session
	lookuper Lookuper
	timeout  time.Duration

	cancel context.CancelFunc
	done   chan struct{} // closed when the current lookup settles
	closed bool
}

// NewController wraps s. timeout bounds each lookup; zero means no bound.
func NewController(id string, s *Session, l Lookuper, timeout time.Duration) *Controller {
	return &Controller{ID: id, session: s, lookuper: l, timeout: timeout}
}

// Do applies op and starts its lookup. The returned channel closes once that
// lookup has settled (applied, failed or superseded).
func (c *Controller) Do(op Op) (<-chan struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.session.Generation()
	req, err := op(c.session)
	if err != nil {
		return closedChan(), err
	}
	if c.session.Generation() != before && c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if req == nil || c.closed {
		return closedChan(), nil
	}
	return c.startLocked(req), nil
}

// Run applies op, waits for its lookup (or ctx) and returns the resulting view.
func (c *Controller) Run(ctx context.Context, op Op) (View, error) {
	done, err := c.Do(op)
	if err != nil {
		return c.View(), err
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
	return c.View(), nil
}

// View renders the session under the lock.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.View()
}

// Wait blocks until the current lookup settles or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels any in-flight lookup; later actions update state but issue no lookups.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) startLocked(req *Request) <-chan struct{} {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), c.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	metrics.SessionLookupsTotal.WithLabelValues("issued").Inc()

	logger := log.With().Str("session", c.ID).Uint64("generation", req.Generation).Logger()
	logger.Debug().Str("letters", req.Letters).Str("dict", string(req.Dictionary)).Msg("lookup issued")

	go func() {
		defer close(done)
		defer cancel()

		res, err := c.lookuper.Lookup(ctx, req.Letters, req.Dictionary)

		c.mu.Lock()
		defer c.mu.Unlock()
		switch {
		case err != nil:
			if c.session.Fail(req.Generation, err) {
				metrics.SessionLookupsTotal.WithLabelValues("failed").Inc()
				logger.Warn().Err(err).Msg("lookup failed")
				return
			}
			metrics.SessionLookupsTotal.WithLabelValues("discarded").Inc()
			if !errors.Is(err, context.Canceled) {
				logger.Debug().Err(err).Msg("stale lookup error discarded")
			}
		case res == nil:
			c.session.Fail(req.Generation, errors.New("empty lookup response"))
			metrics.SessionLookupsTotal.WithLabelValues("failed").Inc()
		case c.session.Apply(req.Generation, *res):
			metrics.SessionLookupsTotal.WithLabelValues("applied").Inc()
			logger.Debug().Int("words", len(res.Words)).Int("combinations", len(res.Combinations)).Msg("lookup applied")
		default:
			metrics.SessionLookupsTotal.WithLabelValues("discarded").Inc()
			logger.Debug().Msg("stale lookup response discarded")
		}
	}()
	return done
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
