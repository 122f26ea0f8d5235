package bootstrap

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"apptrack/internal/platform/id"
	"apptrack/internal/platform/logging"
)

const requestIDHeader = "X-Request-ID"

// NewServer builds the HTTP API around the wired app. The caller owns
// ListenAndServe and Shutdown.
func NewServer(app *App) *http.Server {
	return &http.Server{
		Addr:              app.Config.HTTP.Listen,
		Handler:           NewRouter(app, id.UUID{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(app *App, ids id.Generator) *gin.Engine {
	if !app.Config.LogDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		requestID(ids),
		accessLog(app.Logger),
		app.Metrics.Middleware(),
		cors.New(corsConfig(app.Config.HTTP.CORSOrigins)),
	)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(app.Metrics.Handler()))
	app.UsageHTTP.Register(engine)
	return engine
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, requestIDHeader)
	cfg.ExposeHeaders = []string{requestIDHeader, "Content-Disposition"}
	return cfg
}

// requestID keeps a caller-supplied id or issues a new one.
func requestID(ids id.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = ids.New()
		}
		c.Set("request_id", rid)
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}

func accessLog(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")))
	}
}
