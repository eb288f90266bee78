// Package session wraps gin session access: the logged-in user binding,
// one-time flash notices and the per-session CSRF token.
package session

import (
	"encoding/gob"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	loginUserId = "LOGIN_USER_ID"
	csrfToken   = "CSRF_TOKEN"
)

// Flash is a one-time notice shown on the next rendered page.
// Level is a bootstrap-style category: success, danger, info, warning.
type Flash struct {
	Level   string
	Message string
}

func init() {
	gob.Register(Flash{})
}

// SetLoginUser binds the session to the given user id, replacing any
// previous binding.
func SetLoginUser(c *gin.Context, userId int) error {
	s := sessions.Default(c)
	s.Set(loginUserId, userId)
	return s.Save()
}

func SetMaxAge(c *gin.Context, maxAge int) error {
	s := sessions.Default(c)
	s.Options(sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
	})
	return s.Save()
}

// GetLoginUserId returns the bound user id, or 0 when the session is
// anonymous or the stored value is unusable.
func GetLoginUserId(c *gin.Context) int {
	s := sessions.Default(c)
	if obj := s.Get(loginUserId); obj != nil {
		if id, ok := obj.(int); ok {
			return id
		}
	}
	return 0
}

func IsLogin(c *gin.Context) bool {
	return GetLoginUserId(c) != 0
}

// ClearSession drops the user binding and expires the cookie. Safe to
// call on an already anonymous session.
func ClearSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{
		Path:   "/",
		MaxAge: -1,
	})
	return s.Save()
}

// AddFlash queues a one-time notice for the next rendered page.
func AddFlash(c *gin.Context, level, message string) error {
	s := sessions.Default(c)
	s.AddFlash(Flash{Level: level, Message: message})
	return s.Save()
}

// GetFlashes drains and returns all queued notices.
func GetFlashes(c *gin.Context) []Flash {
	s := sessions.Default(c)
	raw := s.Flashes()
	if len(raw) == 0 {
		return nil
	}
	// Flashes() consumes the queue, persist the removal.
	if err := s.Save(); err != nil {
		return nil
	}
	flashes := make([]Flash, 0, len(raw))
	for _, obj := range raw {
		if f, ok := obj.(Flash); ok {
			flashes = append(flashes, f)
		}
	}
	return flashes
}

// GetCSRFToken returns the per-session CSRF token, generating one with
// the given generator on first use.
func GetCSRFToken(c *gin.Context, generate func() string) (string, error) {
	s := sessions.Default(c)
	if obj := s.Get(csrfToken); obj != nil {
		if token, ok := obj.(string); ok && token != "" {
			return token, nil
		}
	}
	token := generate()
	s.Set(csrfToken, token)
	if err := s.Save(); err != nil {
		return "", err
	}
	return token, nil
}
