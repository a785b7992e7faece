package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jedlsf/buwis-friend/internal/auth"
	"github.com/jedlsf/buwis-friend/internal/config"
	"github.com/jedlsf/buwis-friend/internal/handler"
	"github.com/jedlsf/buwis-friend/internal/metrics"
	"github.com/jedlsf/buwis-friend/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Health  *handler.HealthHandler
	Session *handler.SessionHandler
	Tax     *handler.TaxHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	log zerolog.Logger,
	validator auth.TokenValidator,
	m *metrics.Metrics,
	h Handlers,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(m.Middleware())
	if cfg.Server.MaxBodyBytes > 0 {
		limit := cfg.Server.MaxBodyBytes
		r.Use(func(c *gin.Context) {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
			c.Next()
		})
	}

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)
	r.GET("/metrics", m.Handler())

	// Protected routes - require valid JWT
	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(validator))

	taxes := v1.Group("/tax")
	taxes.POST("/breakdown", h.Tax.Breakdown)
	taxes.POST("/income-tax", h.Tax.IncomeTax)
	taxes.GET("/deadlines", h.Tax.Deadlines)

	sessions := v1.Group("/sessions")
	sessions.POST("", h.Session.Create)
	sessions.GET("", h.Session.List)
	sessions.POST("/import", h.Session.Import)
	sessions.GET("/:id", h.Session.Get)
	sessions.DELETE("/:id", h.Session.Delete)
	sessions.PUT("/:id/tax-config", h.Session.UpdateTaxConfig)
	sessions.POST("/:id/invoices", h.Session.AddInvoices)
	sessions.DELETE("/:id/invoices", h.Session.ClearInvoices)
	sessions.PUT("/:id/invoices/:number", h.Session.ReplaceInvoice)
	sessions.DELETE("/:id/invoices/:number", h.Session.RemoveInvoice)
	sessions.GET("/:id/export", h.Session.Export)
	sessions.POST("/:id/reports", h.Session.PublishReport)

	return r
}
