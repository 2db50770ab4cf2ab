// Package api exposes the console over HTTP using gin.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/estudiopraxis/console/internal/ala"
	"github.com/estudiopraxis/console/internal/config"
)

// Server is the HTTP surface of the console.
type Server struct {
	engine *gin.Engine
	cfg    *config.Config
	logger *zap.Logger
}

// NewServer builds the router with middleware and routes registered.
func NewServer(cfg *config.Config, svc *ala.Service, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	registerValidations()
	engine := gin.New()

	engine.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	engine.Use(ginzap.RecoveryWithZap(logger, true))
	engine.Use(otelgin.Middleware("praxis-console"))
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	s := &Server{engine: engine, cfg: cfg, logger: logger}
	s.registerRoutes(svc)
	return s
}

func (s *Server) registerRoutes(svc *ala.Service) {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := newALAHandlers(svc, s.logger.Sugar())

	v1 := s.engine.Group("/api/v1")
	v1.Use(authMiddleware(s.cfg.Auth.JWTSecret))

	alaGroup := v1.Group("/ala")
	{
		alaGroup.POST("/verify", h.verify)
		alaGroup.GET("/verifications", h.list)
		alaGroup.GET("/verifications/:id", h.get)
		alaGroup.PATCH("/verifications/:id", h.updateObservations)
		alaGroup.DELETE("/verifications/:id", h.remove)
		alaGroup.POST("/verifications/:id/supplementary-search", h.supplementarySearch)
		alaGroup.POST("/verifications/:id/certificate", h.certificate)

		alaGroup.GET("/lists/metadata", requireRole("admin"), h.listMetadata)
		alaGroup.POST("/lists/refresh", requireRole("admin"), h.refreshLists)
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// HTTPServer builds the net/http server for the configured port.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
