// Package web provides the songvault web server: routing, sessions,
// templates and background job scheduling.
package web

import (
	"context"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net"
	"net/http"
	"strconv"

	"songvault/config"
	"songvault/database"
	"songvault/logger"
	"songvault/util/common"
	"songvault/web/controller"
	"songvault/web/job"
	"songvault/web/locale"
	"songvault/web/middleware"
	"songvault/web/service"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

//go:embed html/*
var htmlFS embed.FS

//go:embed translation/*
var i18nFS embed.FS

const sessionName = "songvault"

// Server is the songvault web server with its controllers, services and
// scheduled jobs.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	index     *controller.IndexController
	dashboard *controller.DashboardController
	song      *controller.SongController

	settingService *service.SettingService
	userService    *service.UserService
	songService    *service.SongService
	spotifyService *service.SpotifyService

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new web server instance. The database must be
// initialized before calling this.
func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	db := database.GetDB()
	return &Server{
		ctx:            ctx,
		cancel:         cancel,
		settingService: &service.SettingService{},
		userService:    service.NewUserService(database.NewUserRepository(db)),
		songService:    service.NewSongService(database.NewSongRepository(db)),
		spotifyService: service.NewSpotifyService(),
	}
}

// getHtmlTemplate parses the embedded HTML templates.
func (s *Server) getHtmlTemplate(funcMap template.FuncMap) (*template.Template, error) {
	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(htmlFS, "html", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			newT, parseErr := t.ParseFS(htmlFS, path+"/*.html")
			if parseErr != nil {
				// ignore folders without matches
				return nil
			}
			t = newT
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// initRouter initializes gin, registers middleware, templates and
// controllers and returns the configured engine.
func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()

	if err := locale.InitLocalizer(i18nFS); err != nil {
		return nil, err
	}

	webDomain, err := s.settingService.GetWebDomain()
	if err != nil {
		return nil, err
	}
	if webDomain != "" {
		engine.Use(middleware.DomainValidator(webDomain))
	}

	basePath, err := s.settingService.GetBasePath()
	if err != nil {
		return nil, err
	}
	engine.Use(func(c *gin.Context) {
		c.Set("base_path", basePath)
	})

	engine.Use(gzip.Gzip(
		gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{basePath + "api/"}),
	))

	secret, err := s.settingService.GetSecret()
	if err != nil {
		return nil, err
	}
	store := cookie.NewStore(secret)
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
	})
	engine.Use(sessions.Sessions(sessionName, store))

	engine.Use(middleware.CurrentUser(database.NewUserRepository(database.GetDB())))

	csrfEnable, err := s.settingService.GetCSRFEnable()
	if err != nil {
		return nil, err
	}
	if csrfEnable {
		engine.Use(middleware.CSRF())
	}

	funcMap := template.FuncMap{"i18n": locale.I18n}
	engine.SetFuncMap(funcMap)
	tpl, err := s.getHtmlTemplate(funcMap)
	if err != nil {
		return nil, err
	}
	engine.SetHTMLTemplate(tpl)

	// Anonymous-reachable pages
	g := engine.Group(basePath)
	s.index = controller.NewIndexController(g, s.settingService, s.userService)

	// Authenticated pages
	authed := g.Group("", middleware.RequireLogin(basePath))
	s.dashboard = controller.NewDashboardController(authed, s.userService, s.songService)

	songs := authed.Group("songs")
	api := g.Group("api", middleware.RequireLogin(basePath))
	s.song = controller.NewSongController(songs, api, s.songService, s.spotifyService)

	engine.NoRoute(controller.NotFound)

	return engine, nil
}

// startTask schedules the background jobs.
func (s *Server) startTask() {
	s.cron.AddJob("@daily", job.NewClearLogsJob())
}

// Start initializes and starts the web server.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	loc, err := s.settingService.GetTimeLocation()
	if err != nil {
		return err
	}
	s.cron = cron.New(cron.WithLocation(loc))
	s.cron.Start()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listen, err := s.settingService.GetListen()
	if err != nil {
		return err
	}
	port, err := s.settingService.GetPort()
	if err != nil {
		return err
	}

	listenAddr := net.JoinHostPort(listen, strconv.Itoa(port))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	logger.Info("Web server running HTTP on", listener.Addr())

	s.listener = listener
	s.httpServer = &http.Server{Handler: engine}

	go func() {
		defer common.Recover("web server serve")
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("web server exited:", err)
			s.cancel()
		}
	}()

	s.startTask()

	return nil
}

// Stop gracefully shuts down the web server and its cron jobs.
func (s *Server) Stop() error {
	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}
	var err1, err2 error
	if s.httpServer != nil {
		err1 = s.httpServer.Shutdown(s.ctx)
	}
	if s.listener != nil {
		err2 = s.listener.Close()
	}
	return common.Combine(err1, err2)
}

// GetCtx returns the server's context. It is canceled when the server
// stops or the listener dies.
func (s *Server) GetCtx() context.Context { return s.ctx }
