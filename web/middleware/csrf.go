package middleware

import (
	"crypto/subtle"
	"net/http"

	"songvault/logger"
	"songvault/util/random"
	"songvault/web/session"

	"github.com/gin-gonic/gin"
)

const (
	csrfTokenLength = 32
	csrfFormField   = "csrf_token"
	csrfHeader      = "X-CSRF-Token"
	csrfContextKey  = "CSRF_TOKEN"
)

// CSRF issues a per-session token, exposes it to handlers and templates,
// and rejects mutating requests that do not echo it back in the
// csrf_token form field or the X-CSRF-Token header.
func CSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := session.GetCSRFToken(c, func() string {
			return random.Seq(csrfTokenLength)
		})
		if err != nil {
			logger.Warning("unable to issue csrf token:", err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Set(csrfContextKey, token)

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		submitted := c.PostForm(csrfFormField)
		if submitted == "" {
			submitted = c.GetHeader(csrfHeader)
		}
		if subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) != 1 {
			logger.Warningf("csrf token mismatch on %s %s", c.Request.Method, c.Request.URL.Path)
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}

		c.Next()
	}
}

// GetCSRFToken returns the token issued for this request's session.
func GetCSRFToken(c *gin.Context) string {
	return c.GetString(csrfContextKey)
}
