package controller

import (
	"errors"

	"songvault/logger"
	"songvault/web/middleware"
	"songvault/web/service"

	"github.com/gin-gonic/gin"
)

// ProfileForm is the profile-update request body.
type ProfileForm struct {
	About string `form:"about"`
}

// DashboardController handles the dashboard page and the authenticated
// profile and account mutations.
type DashboardController struct {
	userService *service.UserService
	songService *service.SongService
}

// NewDashboardController creates the controller and registers its routes
// on an authenticated group.
func NewDashboardController(g *gin.RouterGroup, userService *service.UserService, songService *service.SongService) *DashboardController {
	a := &DashboardController{
		userService: userService,
		songService: songService,
	}
	a.initRouter(g)
	return a
}

func (a *DashboardController) initRouter(g *gin.RouterGroup) {
	g.GET("/dashboard", a.dashboard)
	g.POST("/profile", a.updateProfile)
	g.POST("/account", a.updateAccount)
}

func (a *DashboardController) dashboard(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	songCount, err := a.songService.CountUserSongs(user.Id)
	if err != nil {
		logger.Warning("unable to count songs:", err)
	}
	html(c, "dashboard.html", "pages.dashboard.title", gin.H{
		"user":      user,
		"songCount": songCount,
	})
}

// updateProfile persists the free-text about field.
func (a *DashboardController) updateProfile(c *gin.Context) {
	var form ProfileForm
	if err := c.ShouldBind(&form); err != nil {
		flash(c, "danger", "flash.aboutTooLong")
		redirect(c, c.GetString("base_path")+"dashboard")
		return
	}

	user := middleware.GetCurrentUser(c)
	basePath := c.GetString("base_path")
	err := a.userService.UpdateProfile(user.Id, form.About)
	switch {
	case err == nil:
		flash(c, "success", "flash.profileUpdated")
	case errors.Is(err, service.ErrAboutTooLong):
		flash(c, "danger", "flash.aboutTooLong")
	default:
		logger.Error("profile update failed:", err)
		htmlStatus(c, 500, "error.html", "pages.dashboard.title", nil)
		return
	}
	redirect(c, basePath+"dashboard")
}

// updateAccount changes email and/or password, applying the registration
// validation rules.
func (a *DashboardController) updateAccount(c *gin.Context) {
	var form RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		flash(c, "danger", "flash.invalidEmail")
		redirect(c, c.GetString("base_path")+"dashboard")
		return
	}

	user := middleware.GetCurrentUser(c)
	basePath := c.GetString("base_path")
	err := a.userService.UpdateAccount(user.Id, form.Email, form.Password, form.Confirm)
	switch {
	case err == nil:
		logger.Infof("user %d updated account credentials", user.Id)
		flash(c, "success", "flash.accountUpdated")
	case errors.Is(err, service.ErrInvalidEmail):
		flash(c, "danger", "flash.invalidEmail")
	case errors.Is(err, service.ErrPasswordTooShort):
		flash(c, "danger", "flash.passwordLength")
	case errors.Is(err, service.ErrPasswordMismatch):
		flash(c, "danger", "flash.passwordMismatch")
	case errors.Is(err, service.ErrAlreadyRegistered):
		flash(c, "danger", "flash.emailTaken")
	default:
		logger.Error("account update failed:", err)
		htmlStatus(c, 500, "error.html", "pages.dashboard.title", nil)
		return
	}
	redirect(c, basePath+"dashboard")
}
