package in

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"apptrack/internal/modules/usage/dto"
	usagein "apptrack/internal/modules/usage/port/in"
	apperrors "apptrack/internal/platform/errors"
)

const defaultTopApps = 5

// HTTPHandler exposes tracker control and usage queries as JSON endpoints.
type HTTPHandler struct {
	usecase        usagein.Usecase
	streamInterval time.Duration
}

func NewHTTPHandler(usecase usagein.Usecase, streamInterval time.Duration) HTTPHandler {
	if streamInterval <= 0 {
		streamInterval = 5 * time.Second
	}
	return HTTPHandler{usecase: usecase, streamInterval: streamInterval}
}

func (h HTTPHandler) Register(r gin.IRouter) {
	tracker := r.Group("/api/tracker")
	tracker.GET("/status", h.Status)
	tracker.POST("/start", h.Start)
	tracker.POST("/stop", h.Stop)
	tracker.GET("/data", h.Data)
	tracker.GET("/stats", h.Stats)
	tracker.GET("/export", h.Export)
	tracker.POST("/backup", h.Backup)
	tracker.GET("/stream", h.Stream)

	usage := r.Group("/api/usage")
	usage.GET("/daily", h.Daily)
	usage.GET("/top", h.Top)
	usage.GET("/categories", h.Categories)
	usage.GET("/report", h.Report)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput), errors.Is(err, apperrors.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrProjectionDisabled):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrAlreadyRunning):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrProbeUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

func (h HTTPHandler) Status(c *gin.Context) {
	status, err := h.usecase.Status(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h HTTPHandler) Start(c *gin.Context) {
	if err := h.usecase.Start(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	h.Status(c)
}

func (h HTTPHandler) Stop(c *gin.Context) {
	if err := h.usecase.Stop(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	h.Status(c)
}

func (h HTTPHandler) Data(c *gin.Context) {
	history, err := h.usecase.History(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h HTTPHandler) Stats(c *gin.Context) {
	stats, err := h.usecase.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h HTTPHandler) Export(c *gin.Context) {
	out, err := h.usecase.Export(c.Request.Context(), dto.ExportInput{Format: c.DefaultQuery("format", "json")})
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, out.Filename))
	c.Data(http.StatusOK, out.ContentType, out.Body)
}

func (h HTTPHandler) Backup(c *gin.Context) {
	out, err := h.usecase.Backup(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Stream pushes a status event every interval until the client leaves.
func (h HTTPHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ticker := time.NewTicker(h.streamInterval)
	defer ticker.Stop()
	for {
		status, err := h.usecase.Status(ctx)
		if err != nil {
			c.SSEvent("error", gin.H{"error": err.Error()})
		} else {
			c.SSEvent("status", status)
		}
		c.Writer.Flush()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (h HTTPHandler) Daily(c *gin.Context) {
	out, err := h.usecase.DailyUsage(c.Request.Context(), dto.DailyUsageInput{Date: c.Query("date")})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h HTTPHandler) Top(c *gin.Context) {
	n := defaultTopApps
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			fail(c, fmt.Errorf("%w: n must be an integer", apperrors.ErrInvalidInput))
			return
		}
		n = parsed
	}
	out, err := h.usecase.TopApplications(c.Request.Context(), n)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": out})
}

func (h HTTPHandler) Categories(c *gin.Context) {
	out, err := h.usecase.CategoryAnalysis(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

func (h HTTPHandler) Report(c *gin.Context) {
	out, err := h.usecase.Report(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if c.Query("format") == "text" {
		c.String(http.StatusOK, out.Text)
		return
	}
	c.JSON(http.StatusOK, out)
}
