// Package middleware provides the request-processing stages composed in
// front of the songvault handlers.
package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"songvault/database"
	"songvault/database/model"
	"songvault/web/locale"
	"songvault/web/session"

	"github.com/gin-gonic/gin"
)

const currentUserKey = "CURRENT_USER"

// CurrentUser resolves the session's user id to a user record and stores
// it in the request context. Any resolution failure (no session, tampered
// cookie, deleted user) silently leaves the request anonymous.
func CurrentUser(users database.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if session.IsLogin(c) {
			user, err := users.FindByID(session.GetLoginUserId(c))
			if err == nil {
				c.Set(currentUserKey, user)
			}
		}
		c.Next()
	}
}

// GetCurrentUser returns the authenticated user for this request, or nil
// when the request is anonymous.
func GetCurrentUser(c *gin.Context) *model.User {
	if obj, exists := c.Get(currentUserKey); exists {
		if user, ok := obj.(*model.User); ok {
			return user
		}
	}
	return nil
}

// RequireLogin gates protected routes: anonymous requests are redirected
// to the login page with the original path preserved as the next param.
func RequireLogin(basePath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetCurrentUser(c) == nil {
			session.AddFlash(c, "info", locale.I18n("flash.loginRequired"))
			next := url.QueryEscape(c.Request.URL.RequestURI())
			c.Redirect(http.StatusFound, basePath+"login?next="+next)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SafeNextPath validates a post-login redirect target. Only local paths
// are allowed; anything that could leave the site is rejected.
func SafeNextPath(next string) bool {
	if next == "" || !strings.HasPrefix(next, "/") {
		return false
	}
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return false
	}
	u, err := url.Parse(next)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}
