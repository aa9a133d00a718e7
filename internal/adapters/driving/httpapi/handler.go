// Package httpapi exposes the resolution pipeline over HTTP using gin.
package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Shubham12864/cinescope/internal/core/domain"
	"github.com/Shubham12864/cinescope/internal/core/ports/driving"
)

type Handler struct {
	Search driving.SearchService
	Images driving.ImageService
	Health driving.HealthReporter
}

func NewHandler(search driving.SearchService, images driving.ImageService, health driving.HealthReporter) *Handler {
	return &Handler{Search: search, Images: images, Health: health}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/search", h.search)       // GET /api/search?q=...
	rg.GET("/movies/:id", h.getByID)  // GET /api/movies/tt1375666
	rg.GET("/images", h.image)        // GET /api/images?ref=...
	rg.GET("/health", h.healthReport) // GET /api/health
}

func (h *Handler) search(c *gin.Context) {
	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}

	opts := domain.SearchOptions{
		Limit: parseInt(c.Query("limit"), 10),
		Genre: c.Query("genre"),
	}
	if y := parseInt(c.Query("yearFrom"), 0); y > 0 {
		opts.YearFrom = &y
	}
	if y := parseInt(c.Query("yearTo"), 0); y > 0 {
		opts.YearTo = &y
	}

	resp, err := h.Search.Search(c.Request.Context(), q, opts)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		case errors.Is(err, domain.ErrAllSourcesFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": "all sources failed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getByID(c *gin.Context) {
	id := c.Param("id")

	record, err := h.Search.GetByID(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		case errors.Is(err, domain.ErrAllSourcesFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": "all sources failed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		}
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *Handler) image(c *gin.Context) {
	ref := c.Query("ref")
	if strings.TrimSpace(ref) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter ref"})
		return
	}

	size := domain.ImageSize{
		Width:  parseInt(c.Query("w"), 0),
		Height: parseInt(c.Query("h"), 0),
	}

	img, err := h.Images.ResolveImage(c.Request.Context(), ref, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "image resolution failed"})
		return
	}

	etag := `"` + img.ContentHash + `"`
	if img.ContentHash != "" {
		if match := c.GetHeader("If-None-Match"); match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
	}
	if img.MaxAge > 0 {
		c.Header("Cache-Control", "public, max-age="+strconv.Itoa(int(img.MaxAge.Seconds())))
	}

	c.Data(http.StatusOK, img.ContentType, img.Data)
}

func (h *Handler) healthReport(c *gin.Context) {
	snap := h.Health.Snapshot()

	status := "ok"
	for _, st := range snap.Adapters {
		if st.Disabled || !st.Healthy {
			status = "degraded"
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"adapters": snap.Adapters,
		"takenAt":  snap.TakenAt,
		"cache":    h.Health.CacheStats(),
	})
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
