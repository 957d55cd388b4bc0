package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Yolouth/rezerwacja-konsultacji/internal/metrics"
)

type RouterConfig struct {
	AllowedOrigin  string
	RequestTimeout time.Duration
}

func NewRouter(h *BookingsHandler, m *metrics.Metrics, log *slog.Logger, cfg RouterConfig) *gin.Engine {
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log.With(slog.String("component", "http"))))
	if m != nil {
		r.Use(RequestMetrics(m))
	}
	if cfg.AllowedOrigin != "" {
		r.Use(cors.New(cors.Config{
			AllowOrigins: []string{cfg.AllowedOrigin},
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	api := r.Group("/api")
	api.Use(RequestTimeout(cfg.RequestTimeout))
	{
		api.GET("/available-slots", h.AvailableSlots)
		api.POST("/book-training", h.BookTraining)
		api.GET("/bookings", h.ListBookings)
	}

	return r
}
