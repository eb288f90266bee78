package controller

import (
	"github.com/gin-gonic/gin"
)

// NotFound renders the 404 page. Registered as the engine's NoRoute
// handler.
func NotFound(c *gin.Context) {
	htmlStatus(c, 404, "404.html", "pages.index.title", nil)
}
