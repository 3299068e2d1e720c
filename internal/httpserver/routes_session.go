// apps/go-server/internal/httpserver/routes_session.go
//
// HTTP routes for the tile session (one per browser, identified by cookie):
//   - POST   /session            → start a fresh session (replaces the cookie)
//   - GET    /session            → current view
//   - DELETE /session            → discard the session
//   - POST   /session/submit     {"text": "..."}
//   - POST   /session/reorder    {"from": 0, "to": 2}
//   - POST   /session/lock       {"index": 1}
//   - POST   /session/shuffle
//   - POST   /session/select     {"word": "chat"}
//   - POST   /session/remove     {"word": "chat"}
//   - POST   /session/dictionary {"dict": "en"}
//   - POST   /session/page       {"page": 2} or {"direction": "next"|"prev"}
//
// Every action answers with the session view once the lookup it triggered has
// settled. Validation failures answer 400 and leave the session untouched.

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/lettertiles/apps/go-server/internal/dict"
	"github.com/robalobadob/lettertiles/apps/go-server/internal/store"
	"github.com/robalobadob/lettertiles/apps/go-server/internal/tiles"
)

type submitReq struct {
	Text string `json:"text"`
}

type reorderReq struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type lockReq struct {
	Index int `json:"index"`
}

type wordReq struct {
	Word string `json:"word"`
}

type dictReq struct {
	Dict string `json:"dict"`
}

type pageReq struct {
	Page      int    `json:"page"`
	Direction string `json:"direction"`
}

// mountSession registers all /session routes.
func (s *Server) mountSession(r chi.Router) {
	r.Route("/session", func(r chi.Router) {
		r.Post("/", s.handleNewSession)
		r.Get("/", s.handleView)
		r.Delete("/", s.handleDeleteSession)

		r.Post("/submit", func(w http.ResponseWriter, r *http.Request) {
			var req submitReq
			if !decode(w, r, &req) {
				return
			}
			s.run(w, r, func(ss *tiles.Session) (*tiles.Request, error) { return ss.Submit(req.Text) })
		})
		r.Post("/reorder", func(w http.ResponseWriter, r *http.Request) {
			var req reorderReq
			if !decode(w, r, &req) {
				return
			}
			s.run(w, r, func(ss *tiles.Session) (*tiles.Request, error) { return ss.Reorder(req.From, req.To) })
		})
		r.Post("/lock", func(w http.ResponseWriter, r *http.Request) {
			var req lockReq
			if !decode(w, r, &req) {
				return
			}
			s.run(w, r, func(ss *tiles.Session) (*tiles.Request, error) { return ss.ToggleLock(req.Index) })
		})
		r.Post("/shuffle", func(w http.ResponseWriter, r *http.Request) {
			s.run(w, r, func(ss *tiles.Session) (*tiles.Request, error) { return ss.Shuffle(), nil })
		})
		r.Post("/select", func(w http.ResponseWriter, r *http.Request) {
			var req wordReq
			if !decode(w, r, &req) {
				return
			}
			s.run(w, r, func(ss *tiles.Session) (*tiles.Request, error) { return ss.SelectWord(req.Word), nil })
		})
		r.Post("/remove", func(w http.ResponseWriter, r *http.Request) {
			var req wordReq
			if !decode(w, r, &req) {
				return
			}
			if req.Word == "" {
				writeError(w, http.StatusBadRequest, "word is required")
				return
			}
			s.run(w, r, func(ss *tiles.Session) (*tiles.Request, error) { return ss.RemoveWord(req.Word), nil })
		})
		r.Post("/dictionary", func(w http.ResponseWriter, r *http.Request) {
			var req dictReq
			if !decode(w, r, &req) {
				return
			}
			s.run(w, r, func(ss *tiles.Session) (*tiles.Request, error) { return ss.SetDictionary(req.Dict) })
		})
		r.Post("/page", func(w http.ResponseWriter, r *http.Request) {
			var req pageReq
			if !decode(w, r, &req) {
				return
			}
			s.run(w, r, func(ss *tiles.Session) (*tiles.Request, error) {
				switch req.Direction {
				case "next":
					ss.NextPage()
					return nil, nil
				case "prev":
					ss.PrevPage()
					return nil, nil
				}
				return nil, ss.SetPage(req.Page)
			})
		})
	})
}

// handleNewSession always starts over with a fresh session.
func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	if old, ok := s.existingSession(r); ok {
		_ = s.sessions.Delete(r.Context(), old.ID)
	}
	ctrl, err := s.createSession(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session_failed")
		return
	}
	writeJSON(w, http.StatusCreated, ctrl.View())
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.sessionFor(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session_failed")
		return
	}
	writeJSON(w, http.StatusOK, ctrl.View())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if ctrl, ok := s.existingSession(r); ok {
		_ = s.sessions.Delete(r.Context(), ctrl.ID)
	}
	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// run applies op to the caller's session and writes the resulting view.
func (s *Server) run(w http.ResponseWriter, r *http.Request, op tiles.Op) {
	ctrl, err := s.sessionFor(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session_failed")
		return
	}
	view, err := ctrl.Run(r.Context(), op)
	if err != nil {
		if isValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		hlog.FromRequest(r).Error().Err(err).Str("session", ctrl.ID).Msg("session action failed")
		writeError(w, http.StatusInternalServerError, "action_failed")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// sessionFor returns the caller's session, creating one when the cookie is
// missing, invalid or points at a session that no longer exists.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) (*tiles.Controller, error) {
	if ctrl, ok := s.existingSession(r); ok {
		return ctrl, nil
	}
	return s.createSession(w, r)
}

func (s *Server) existingSession(r *http.Request) (*tiles.Controller, bool) {
	tok := bearerOrCookie(r)
	if tok == "" {
		return nil, false
	}
	sid, err := s.parseSessionToken(tok)
	if err != nil {
		return nil, false
	}
	ctrl, err := s.sessions.Get(r.Context(), sid)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			hlog.FromRequest(r).Warn().Err(err).Msg("session lookup")
		}
		return nil, false
	}
	return ctrl, true
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) (*tiles.Controller, error) {
	id := uuid.NewString()
	ctrl := tiles.NewController(id, tiles.NewSession(), s.lookuper, s.opts.LookupTimeout)
	if err := s.sessions.Save(r.Context(), ctrl); err != nil {
		return nil, err
	}
	tok, exp, err := s.signSessionToken(id)
	if err != nil {
		_ = s.sessions.Delete(r.Context(), id)
		return nil, err
	}
	s.setSessionCookie(w, tok, exp)
	hlog.FromRequest(r).Info().Str("session", id).Msg("session created")
	return ctrl, nil
}

// decode reads a JSON body into v. An empty body is accepted as zero values.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json")
		return false
	}
	return true
}

func isValidation(err error) bool {
	return errors.Is(err, tiles.ErrNoLetters) ||
		errors.Is(err, tiles.ErrIndexOutOfRange) ||
		errors.Is(err, tiles.ErrPageOutOfRange) ||
		errors.Is(err, dict.ErrUnknown)
}
