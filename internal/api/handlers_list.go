package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/shovo/internal/room"
	"gorm.io/gorm"
)

const defaultPerPage = 10

func handleListGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := room.SanitizeRoom(c.Query("room"))
		if name == "" {
			abortError(c, http.StatusBadRequest, "missing_room")
			return
		}
		watched := c.DefaultQuery("status", "unwatched") == "watched"
		page := queryInt(c, "page", 1)
		perPage := queryInt(c, "per_page", defaultPerPage)

		result, err := room.List(db.WithContext(c.Request.Context()), name, watched, page, perPage)
		if err != nil {
			internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func handleListAdd(db *gorm.DB) gin.HandlerFunc {
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
		opts := room.AppendOpts{
			TitleID:          stringField(body, "title_id"),
			Title:            stringField(body, "title"),
			Year:             optString(body, "year"),
			TypeLabel:        optString(body, "type_label"),
			Image:            optString(body, "image"),
			Rating:           optString(body, "rating"),
			RottenTomatoes:   optString(body, "rotten_tomatoes"),
			RuntimeMinutes:   optInt(body, "runtime_minutes"),
			TotalSeasons:     optInt(body, "total_seasons"),
			TotalEpisodes:    optInt(body, "total_episodes"),
			AvgEpisodeLength: optInt(body, "avg_episode_length"),
			Watched:          room.ParseWatched(body["watched"]),
		}
		if opts.TitleID == "" || opts.Title == "" {
			abortError(c, http.StatusBadRequest, "missing_title")
			return
		}
		if err := room.Append(db.WithContext(c.Request.Context()), name, opts); err != nil {
			internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func handleListWatched(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, name, titleID, ok := itemRequest(c)
		if !ok {
			return
		}
		watched := room.ParseWatched(body["watched"])
		if err := room.SetWatched(db.WithContext(c.Request.Context()), name, titleID, watched); err != nil {
			internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func handleListDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, name, titleID, ok := itemRequest(c)
		if !ok {
			return
		}
		if err := room.Remove(db.WithContext(c.Request.Context()), name, titleID); err != nil {
			internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func handleListOrder(db *gorm.DB) gin.HandlerFunc {
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
		raw, _ := body["order"].([]any)
		if len(raw) == 0 {
			abortError(c, http.StatusBadRequest, "invalid_order")
			return
		}
		order := make([]string, 0, len(raw))
		for _, v := range raw {
			id, ok := v.(string)
			if !ok || id == "" {
				abortError(c, http.StatusBadRequest, "invalid_order")
				return
			}
			order = append(order, id)
		}
		if err := room.Reorder(db.WithContext(c.Request.Context()), name, order); err != nil {
			internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func handleListRename(db *gorm.DB) gin.HandlerFunc {
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
		next := room.SanitizeRoom(stringField(body, "next_room"))
		if next == "" {
			abortError(c, http.StatusBadRequest, "missing_next_room")
			return
		}
		renamed, err := room.Rename(db.WithContext(c.Request.Context()), name, next)
		switch {
		case errors.Is(err, room.ErrRoomExists):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error":   "room_exists",
				"message": "That List ID already exists. Pick another name.",
			})
			return
		case err != nil:
			internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "room": renamed})
	}
}

// itemRequest validates a JSON request naming one item of a room.
func itemRequest(c *gin.Context) (map[string]any, string, string, bool) {
	body, ok := jsonBody(c)
	if !ok {
		return nil, "", "", false
	}
	name := roomFrom(c, body)
	if name == "" {
		abortError(c, http.StatusBadRequest, "missing_room")
		return nil, "", "", false
	}
	titleID := stringField(body, "title_id")
	if titleID == "" {
		abortError(c, http.StatusBadRequest, "missing_title_id")
		return nil, "", "", false
	}
	return body, name, titleID, true
}

func internalError(c *gin.Context, err error) {
	c.Error(err)
	abortError(c, http.StatusInternalServerError, "internal_error")
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return def
	}
	return v
}

func stringField(body map[string]any, key string) string {
	if s := optString(body, key); s != nil {
		return *s
	}
	return ""
}

// optString renders a JSON string or number field as text. Absent, null and
// other values yield nil.
func optString(body map[string]any, key string) *string {
	switch v := body[key].(type) {
	case string:
		return &v
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		return &s
	}
	return nil
}

// optInt reads a JSON number or numeric string field.
func optInt(body map[string]any, key string) *int {
	switch v := body[key].(type) {
	case float64:
		n := int(v)
		return &n
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return &n
		}
	}
	return nil
}
