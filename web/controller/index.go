// Package controller provides the HTTP handlers for the songvault web
// application: registration, login, dashboard, profile and songs.
package controller

import (
	"errors"

	"songvault/logger"
	"songvault/web/middleware"
	"songvault/web/service"
	"songvault/web/session"

	"github.com/gin-gonic/gin"
)

// RegisterForm is the registration and account-update request body.
type RegisterForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
	Confirm  string `form:"confirm"`
}

// LoginForm is the login request body.
type LoginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
	Next     string `form:"next"`
}

// IndexController handles the index page and the register/login/logout flow.
type IndexController struct {
	settingService *service.SettingService
	userService    *service.UserService
}

// NewIndexController creates the controller and registers its routes.
func NewIndexController(g *gin.RouterGroup, settingService *service.SettingService, userService *service.UserService) *IndexController {
	a := &IndexController{
		settingService: settingService,
		userService:    userService,
	}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.index)
	g.GET("/register", a.registerPage)
	g.POST("/register", a.register)
	g.GET("/login", a.loginPage)
	g.POST("/login", a.login)
	g.GET("/logout", a.logout)
}

// index renders the landing page with links to register and login.
func (a *IndexController) index(c *gin.Context) {
	html(c, "index.html", "pages.index.title", nil)
}

func (a *IndexController) registerPage(c *gin.Context) {
	if middleware.GetCurrentUser(c) != nil {
		redirect(c, c.GetString("base_path")+"dashboard")
		return
	}
	html(c, "register.html", "pages.register.title", nil)
}

// register handles account creation. Validation failures re-render the
// page (200) with a distinct flash; a duplicate email redirects to login
// with the "Already Registered" notice.
func (a *IndexController) register(c *gin.Context) {
	var form RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		flash(c, "danger", "flash.invalidEmail")
		html(c, "register.html", "pages.register.title", nil)
		return
	}

	basePath := c.GetString("base_path")
	_, err := a.userService.Register(form.Email, form.Password, form.Confirm)
	switch {
	case err == nil:
		logger.Infof("new user registered: %s", service.NormalizeEmail(form.Email))
		flash(c, "success", "flash.registered")
		redirect(c, basePath+"login")
	case errors.Is(err, service.ErrAlreadyRegistered):
		flash(c, "info", "flash.alreadyRegistered")
		redirect(c, basePath+"login")
	case errors.Is(err, service.ErrInvalidEmail):
		flash(c, "danger", "flash.invalidEmail")
		html(c, "register.html", "pages.register.title", gin.H{"email": form.Email})
	case errors.Is(err, service.ErrPasswordTooShort):
		flash(c, "danger", "flash.passwordLength")
		html(c, "register.html", "pages.register.title", gin.H{"email": form.Email})
	case errors.Is(err, service.ErrPasswordMismatch):
		flash(c, "danger", "flash.passwordMismatch")
		html(c, "register.html", "pages.register.title", gin.H{"email": form.Email})
	default:
		logger.Error("register failed:", err)
		htmlStatus(c, 500, "error.html", "pages.index.title", nil)
	}
}

func (a *IndexController) loginPage(c *gin.Context) {
	if middleware.GetCurrentUser(c) != nil {
		redirect(c, c.GetString("base_path")+"dashboard")
		return
	}
	html(c, "login.html", "pages.login.title", gin.H{
		"next": c.Query("next"),
	})
}

// login verifies credentials and establishes the session. Unknown email
// and wrong password produce the identical notice.
func (a *IndexController) login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		flash(c, "danger", "flash.invalidCredentials")
		html(c, "login.html", "pages.login.title", nil)
		return
	}

	user := a.userService.CheckUser(form.Email, form.Password)
	if user == nil {
		logger.Warningf("failed login for %q, IP: %q", service.NormalizeEmail(form.Email), getRemoteIp(c))
		flash(c, "danger", "flash.invalidCredentials")
		html(c, "login.html", "pages.login.title", gin.H{"next": form.Next})
		return
	}

	sessionMaxAge, err := a.settingService.GetSessionMaxAge()
	if err != nil {
		logger.Warning("unable to get session max age:", err)
	}
	if sessionMaxAge > 0 {
		if err := session.SetMaxAge(c, sessionMaxAge*60); err != nil {
			logger.Warning("unable to set session max age:", err)
		}
	}
	if err := session.SetLoginUser(c, user.Id); err != nil {
		logger.Warning("unable to save session:", err)
		htmlStatus(c, 500, "error.html", "pages.login.title", nil)
		return
	}

	logger.Infof("%s logged in successfully, IP: %s", user.Email, getRemoteIp(c))

	basePath := c.GetString("base_path")
	if middleware.SafeNextPath(form.Next) {
		redirect(c, form.Next)
		return
	}
	redirect(c, basePath+"dashboard")
}

// logout clears the session. Safe to call while anonymous.
func (a *IndexController) logout(c *gin.Context) {
	if user := middleware.GetCurrentUser(c); user != nil {
		logger.Infof("%s logged out", user.Email)
	}
	if err := session.ClearSession(c); err != nil {
		logger.Warning("unable to clear session:", err)
	}
	redirect(c, c.GetString("base_path"))
}
