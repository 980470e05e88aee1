package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zulandar/shovo/internal/room"
	"gorm.io/gorm"
)

// registerRoutes sets up all routes on the Gin router.
func registerRoutes(router *gin.Engine, opts StartOpts) {
	router.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/r/new") })
	router.GET("/r/:room", handleRoom())
	router.GET("/healthz", handleHealth(opts.DB))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	api.GET("/search", handleSearch(opts.Search))
	api.GET("/trending", handleTrending(opts.Search))
	api.GET("/details", handleDetails(opts.Cache))

	api.POST("/refresh", handleRefreshStart(opts.Refresh))
	api.GET("/refresh/status", handleRefreshStatus(opts.Refresh))

	api.GET("/list", handleListGet(opts.DB))
	api.POST("/list", handleListAdd(opts.DB))
	api.PATCH("/list", handleListWatched(opts.DB))
	api.DELETE("/list", handleListDelete(opts.DB))
	api.PATCH("/list/order", handleListOrder(opts.DB))
	api.PATCH("/list/rename", handleListRename(opts.DB))
}

// handleRoom sends /r/new to a freshly generated room. Other rooms are
// acknowledged with their sanitized name.
func handleRoom() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("room")
		if name == "new" {
			c.Redirect(http.StatusFound, "/r/"+room.NewRoomID())
			return
		}
		c.JSON(http.StatusOK, gin.H{"room": room.SanitizeRoom(name)})
	}
}

func handleHealth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func abortError(c *gin.Context, status int, code string) {
	c.AbortWithStatusJSON(status, gin.H{"error": code})
}

// jsonBody decodes a JSON object body. It reports false, after writing an
// invalid_payload response, when the request is not JSON.
func jsonBody(c *gin.Context) (map[string]any, bool) {
	ct := c.ContentType()
	if ct != "application/json" && !strings.HasSuffix(ct, "+json") {
		abortError(c, http.StatusBadRequest, "invalid_payload")
		return nil, false
	}
	body := map[string]any{}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortError(c, http.StatusBadRequest, "invalid_payload")
		return nil, false
	}
	return body, true
}

// roomFrom returns the sanitized room named by the query string, falling
// back to the JSON body.
func roomFrom(c *gin.Context, body map[string]any) string {
	if q := c.Query("room"); q != "" {
		return room.SanitizeRoom(q)
	}
	s, _ := body["room"].(string)
	return room.SanitizeRoom(s)
}
