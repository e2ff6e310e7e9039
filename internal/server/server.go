package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"classbook/internal/auth"
	"classbook/internal/booking"
	"classbook/internal/calendar"
	"classbook/internal/config"
	"classbook/internal/schedule"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Deps struct {
	Templates schedule.Service
	Bookings  booking.Service
	// Checks run on every /health request, keyed by dependency name.
	Checks map[string]HealthCheck
}

type Server struct {
	router *gin.Engine
	http   *http.Server
	config *config.Config
}

func New(cfg *config.Config, deps Deps) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware(cfg.CORSOrigins))

	templateHandler := schedule.NewHandler(deps.Templates)
	bookingHandler := booking.NewHandler(deps.Bookings)
	feedHandler := calendar.NewHandler(deps.Templates, cfg.FacilityLocation)

	router.GET("/health", Health(deps.Checks))
	router.GET("/metrics", Metrics())
	router.GET("/calendar.ics", feedHandler.Feed)
	SetupSwagger(router)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	limit := RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)

	member := router.Group("/")
	member.Use(authMiddleware, limit)
	{
		member.GET("/templates", templateHandler.ListTemplates)
		member.GET("/templates/:templateID", templateHandler.GetTemplate)
		member.GET("/templates/:templateID/occupancy", bookingHandler.GetOccupancy)
		member.GET("/calendar", bookingHandler.Calendar)
		member.POST("/reservations", bookingHandler.Book)
		member.GET("/reservations/me", bookingHandler.ListMine)
		member.DELETE("/reservations/:reservationID", bookingHandler.Cancel)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/templates", templateHandler.CreateTemplate)
		admin.DELETE("/templates/:templateID", bookingHandler.DeleteTemplate)
		admin.GET("/templates/:templateID/roster", bookingHandler.ListRoster)
	}

	return &Server{
		router: router,
		config: cfg,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}

	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}

	return cors.New(cfg)
}
