package controller

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"songvault/config"
	"songvault/logger"
	"songvault/util/random"
	"songvault/web/middleware"
	"songvault/web/service"

	"github.com/gin-gonic/gin"
)

// SongController handles the music catalog: listing, CSV upload and the
// per-song view with the optional embedded player.
type SongController struct {
	songService    *service.SongService
	spotifyService *service.SpotifyService
}

// NewSongController creates the controller and registers its routes.
// songs is the authenticated group, api the read-only song view group.
func NewSongController(songs *gin.RouterGroup, api *gin.RouterGroup, songService *service.SongService, spotifyService *service.SpotifyService) *SongController {
	a := &SongController{
		songService:    songService,
		spotifyService: spotifyService,
	}
	a.initRouter(songs, api)
	return a
}

func (a *SongController) initRouter(songs *gin.RouterGroup, api *gin.RouterGroup) {
	songs.GET("", a.list)
	songs.GET("/", a.list)
	songs.GET("/upload", a.uploadPage)
	songs.POST("/upload", a.upload)

	api.GET("/songs", a.apiList)
	api.GET("/song/:id", a.view)
}

// apiList returns the current user's songs as JSON.
func (a *SongController) apiList(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	songs, err := a.songService.GetUserSongs(user.Id)
	jsonObj(c, songs, err)
}

func (a *SongController) list(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	songs, err := a.songService.GetUserSongs(user.Id)
	if err != nil {
		logger.Error("unable to list songs:", err)
		htmlStatus(c, 500, "error.html", "pages.songs.title", nil)
		return
	}
	html(c, "songs.html", "pages.songs.title", gin.H{
		"songs": songs,
	})
}

func (a *SongController) uploadPage(c *gin.Context) {
	html(c, "upload.html", "pages.upload.title", nil)
}

// upload imports a catalog CSV for the current user.
func (a *SongController) upload(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	basePath := c.GetString("base_path")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		flash(c, "danger", "flash.uploadMissing")
		redirect(c, basePath+"songs/upload")
		return
	}

	// keep the raw upload for troubleshooting
	saved := filepath.Join(config.GetUploadFolder(),
		fmt.Sprintf("%d-%d-%04d-%s", user.Id, time.Now().Unix(), random.Num(10000), filepath.Base(fileHeader.Filename)))
	if err := c.SaveUploadedFile(fileHeader, saved); err != nil {
		logger.Warning("unable to save upload:", err)
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Warning("unable to open upload:", err)
		flash(c, "danger", "flash.uploadFailed")
		redirect(c, basePath+"songs/upload")
		return
	}
	defer file.Close()

	count, err := a.songService.ImportCSV(user.Id, file)
	if err != nil {
		if !errors.Is(err, service.ErrEmptyUpload) {
			logger.Error("csv import failed:", err)
		}
		flash(c, "danger", "flash.uploadFailed")
		redirect(c, basePath+"songs/upload")
		return
	}

	flash(c, "success", "flash.uploadDone", "Count=="+strconv.Itoa(count))
	redirect(c, basePath+"songs/")
}

// view renders the song information page. The embedded player is shown
// only when the metadata lookup resolves a track id.
func (a *SongController) view(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		htmlStatus(c, 404, "404.html", "pages.song.title", nil)
		return
	}

	song, err := a.songService.GetSong(id)
	if err != nil {
		htmlStatus(c, 404, "404.html", "pages.song.title", nil)
		return
	}

	trackId := a.spotifyService.FindTrackId(song.Title, song.Artist)
	html(c, "song.html", "pages.song.title", gin.H{
		"song":    song,
		"trackId": trackId,
	})
}
