package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/facegate/internal/api/handlers"
	"github.com/your-org/facegate/internal/api/ws"
	"github.com/your-org/facegate/internal/approval"
	"github.com/your-org/facegate/internal/auth"
	"github.com/your-org/facegate/internal/gallery"
	"github.com/your-org/facegate/internal/notify"
	"github.com/your-org/facegate/internal/storage"
)

type RouterConfig struct {
	// AdminAPIKey gates enrollment endpoints. Reviewer endpoints are
	// deliberately open: identity there is pre-verified by an external
	// gate, and the notification links must be plain clickable URLs.
	AdminAPIKey string
	Engine      *approval.Engine
	Gallery     *gallery.Manager
	MinIO       *storage.MinIOStore
	Events      *notify.NATSNotifier
	Hub         *ws.Hub
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.MinIO, cfg.Events)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")

	// WebSocket status push
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Submissions
	submitH := handlers.NewSubmissionHandler(cfg.Engine)
	v1.POST("/submissions", submitH.Submit)

	// Requests: requester polling and reviewer resolution. GET variants of
	// approve/deny serve the links embedded in reviewer notifications.
	reqH := handlers.NewRequestHandler(cfg.Engine)
	v1.GET("/requests/:id", reqH.Status)
	v1.GET("/requests/:id/approve", reqH.Approve)
	v1.POST("/requests/:id/approve", reqH.Approve)
	v1.GET("/requests/:id/deny", reqH.Deny)
	v1.POST("/requests/:id/deny", reqH.Deny)
	v1.GET("/requests/:id/preview", reqH.Preview)

	// Gallery administration (API-key gated)
	admin := v1.Group("/gallery")
	admin.Use(auth.APIKeyMiddleware(cfg.AdminAPIKey))

	galleryH := handlers.NewGalleryHandler(cfg.Gallery)
	admin.POST("", galleryH.Enroll)
	admin.GET("", galleryH.List)
	admin.DELETE("/:label", galleryH.Unenroll)

	return r
}
