package controller

import (
	"net"
	"net/http"
	"strings"

	"songvault/config"
	"songvault/logger"
	"songvault/web/entity"
	"songvault/web/locale"
	"songvault/web/middleware"
	"songvault/web/session"

	"github.com/gin-gonic/gin"
)

// getRemoteIp extracts the real IP address from the request headers or remote address.
func getRemoteIp(c *gin.Context) string {
	value := c.GetHeader("X-Real-IP")
	if value != "" {
		return value
	}
	value = c.GetHeader("X-Forwarded-For")
	if value != "" {
		ips := strings.Split(value, ",")
		return ips[0]
	}
	addr := c.Request.RemoteAddr
	ip, _, _ := net.SplitHostPort(addr)
	return ip
}

// jsonObj sends a JSON response with an object and error status.
func jsonObj(c *gin.Context, obj any, err error) {
	jsonMsgObj(c, "", obj, err)
}

func jsonMsgObj(c *gin.Context, msg string, obj any, err error) {
	m := entity.Msg{
		Obj: obj,
	}
	if err == nil {
		m.Success = true
		if msg != "" {
			m.Msg = msg
		}
	} else {
		m.Success = false
		m.Msg = msg + " (" + err.Error() + ")"
		logger.Warning(msg+" failed: ", err)
	}
	c.JSON(http.StatusOK, m)
}

// html renders a template with flashes, CSRF token and the current user
// merged into the data.
func html(c *gin.Context, name string, title string, data gin.H) {
	htmlStatus(c, http.StatusOK, name, title, data)
}

func htmlStatus(c *gin.Context, status int, name string, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["title"] = locale.I18n(title)
	data["flashes"] = session.GetFlashes(c)
	data["csrf_token"] = middleware.GetCSRFToken(c)
	data["cur_user"] = middleware.GetCurrentUser(c)
	data["base_path"] = c.GetString("base_path")
	data["cur_ver"] = config.GetVersion()
	c.HTML(status, name, data)
}

// flash queues a one-time notice resolved through the locale bundle.
func flash(c *gin.Context, level, key string, params ...string) {
	if err := session.AddFlash(c, level, locale.I18n(key, params...)); err != nil {
		logger.Warning("unable to save flash:", err)
	}
}

// redirect issues the 302 used after successful form submissions.
func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}
