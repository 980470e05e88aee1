package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/shovo/internal/refresh"
	"github.com/zulandar/shovo/internal/room"
)

func handleRefreshStart(orch Refresher) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, ok := jsonBody(c)
		if !ok {
			return
		}
		name := roomFrom(c, body)
		if name == "" {
			abortError(c, http.StatusBadRequest, "missing_room")
			return
		}
		total, err := orch.Start(c.Request.Context(), name)
		switch {
		case errors.Is(err, refresh.ErrRefreshInProgress):
			abortError(c, http.StatusConflict, "refresh_in_progress")
			return
		case err != nil:
			internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "started", "total": total})
	}
}

func handleRefreshStatus(orch Refresher) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := room.SanitizeRoom(c.Query("room"))
		if name == "" {
			abortError(c, http.StatusBadRequest, "missing_room")
			return
		}
		c.JSON(http.StatusOK, orch.Status(name))
	}
}
