package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionCookieName = "tiles_session"
	sessionTokenTTL   = 7 * 24 * time.Hour
)

// signSessionToken creates an HS256 JWT carrying the session id.
func (s *Server) signSessionToken(sid string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(sessionTokenTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sid,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	})
	ss, err := t.SignedString([]byte(s.opts.SessionSecret))
	return ss, exp, err
}

// parseSessionToken validates tok and returns its session id.
func (s *Server) parseSessionToken(tok string) (string, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.opts.SessionSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return "", errors.New("invalid session token")
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", errors.New("invalid session token")
	}
	return sid, nil
}

func (s *Server) cookieSameSite() http.SameSite {
	if s.opts.SecureCookies {
		return http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	return http.SameSiteLaxMode
}

// setSessionCookie writes the session token cookie.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: s.cookieSameSite(),
		Expires:  exp,
	})
}

// clearSessionCookie deletes the session token cookie.
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: s.cookieSameSite(),
		MaxAge:   -1,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or session cookie.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(sessionCookieName); err == nil {
		return c.Value
	}
	return ""
}
