package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	slogGin "github.com/samber/slog-gin"

	"github.com/urpagin/wallsync/internal/server/handlers/image"
	"github.com/urpagin/wallsync/internal/server/middlewares"
	"github.com/urpagin/wallsync/internal/version"
)

func SetupRoutes(config *Config, svc *Services) http.Handler {
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20 // 8 MiB

	imageH := image.New(svc.Store, config.MaxUploadBytes)

	httpLogger := slog.Default().WithGroup("http")
	r.Use(slogGin.NewWithConfig(httpLogger, slogGin.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    true,
	}))
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.BestSpeed))
	r.Use(cors.Default())

	r.GET("/", IndexHandler)
	r.GET("/healthz", HealthHandler)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/catalog", imageH.Catalog)
		v1.GET("/content/:id", imageH.Content)
		v1.POST("/content", middlewares.RateLimiter(config.UploadRate), imageH.Upload)
		v1.DELETE("/content/:id", middlewares.RateLimiter(config.UploadRate), imageH.Delete)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "not found",
		})
	})

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error": "method not allowed",
		})
	})

	return r.Handler()
}

func IndexHandler(ctx *gin.Context) {
	ctx.String(http.StatusOK, version.DetailedWithApp())
}

func HealthHandler(ctx *gin.Context) {
	ctx.PureJSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
