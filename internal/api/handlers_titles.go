package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/shovo/internal/enrich"
	"github.com/zulandar/shovo/internal/source"
)

func handleSearch(search Searcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := search.Suggest(c.Request.Context(), c.Query("q"))
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "imdb_fetch_failed", "detail": err.Error()})
			return
		}
		if len(results) > source.MaxResults {
			results = results[:source.MaxResults]
		}
		c.JSON(http.StatusOK, gin.H{"results": nonNil(results)})
	}
}

func handleTrending(search Searcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := search.Trending(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "imdb_fetch_failed", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": nonNil(results)})
	}
}

func handleDetails(cache Enricher) gin.HandlerFunc {
	return func(c *gin.Context) {
		titleID := c.Query("title_id")
		if titleID == "" {
			abortError(c, http.StatusBadRequest, "missing_title_id")
			return
		}
		classifier := enrich.ClassifierOrMovie(c.Query("type_label"))
		rec := cache.Get(c.Request.Context(), titleID, classifier)
		c.JSON(http.StatusOK, gin.H{
			"rating":             rec.Rating,
			"rotten_tomatoes":    rec.RottenTomatoes,
			"runtime_minutes":    rec.RuntimeMinutes,
			"total_seasons":      rec.TotalSeasons,
			"total_episodes":     rec.TotalEpisodes,
			"avg_episode_length": rec.AvgEpisodeLength,
		})
	}
}

func nonNil(results []source.Title) []source.Title {
	if results == nil {
		return []source.Title{}
	}
	return results
}
