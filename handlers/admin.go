package handlers

import (
	"context"
	"net/http"
	"time"

	"route-optimization-api/services"
	"route-optimization-api/store"

	"github.com/gin-gonic/gin"
	"gonum.org/v1/gonum/stat"
)

type RouteAnalytics interface {
	Count(ctx context.Context) (int64, error)
	DistancesAndDurations(ctx context.Context) (distances, durations []float64, err error)
}

type PredictionAnalytics interface {
	Count(ctx context.Context) (int64, error)
	CountsByInterval(ctx context.Context, interval string, since time.Time) ([]store.TimeBucket, error)
}

type DBPinger interface {
	PingContext(ctx context.Context) error
}

type AdminHandler struct {
	routes      RouteAnalytics
	predictions PredictionAnalytics
	cache       *services.CacheService
	db          DBPinger
	startedAt   time.Time
}

func NewAdminHandler(routes RouteAnalytics, predictions PredictionAnalytics, cache *services.CacheService, db DBPinger) *AdminHandler {
	return &AdminHandler{
		routes:      routes,
		predictions: predictions,
		cache:       cache,
		db:          db,
		startedAt:   time.Now(),
	}
}

type AnalyticsSummary struct {
	TotalRoutes        int64   `json:"total_routes"`
	TotalPredictions   int64   `json:"total_predictions"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
	AvgDistanceKM      float64 `json:"avg_distance_km"`
	StdDistanceKM      float64 `json:"std_distance_km"`
}

func (h *AdminHandler) Summary(c *gin.Context) {
	const cacheKey = "admin:analytics:summary"

	var cached AnalyticsSummary
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	totalRoutes, err := h.routes.Count(c.Request.Context())
	if err != nil {
		translateError(c, err)
		return
	}
	totalPredictions, err := h.predictions.Count(c.Request.Context())
	if err != nil {
		translateError(c, err)
		return
	}
	distances, durations, err := h.routes.DistancesAndDurations(c.Request.Context())
	if err != nil {
		translateError(c, err)
		return
	}

	summary := AnalyticsSummary{
		TotalRoutes:      totalRoutes,
		TotalPredictions: totalPredictions,
	}
	if len(durations) > 0 {
		summary.AvgDurationMinutes = stat.Mean(durations, nil) / 60
	}
	if len(distances) > 0 {
		km := make([]float64, len(distances))
		for i, d := range distances {
			km[i] = d / 1000
		}
		summary.AvgDistanceKM = stat.Mean(km, nil)
		if len(km) > 1 {
			summary.StdDistanceKM = stat.StdDev(km, nil)
		}
	}

	go h.cache.Set(context.Background(), cacheKey, summary, 60*time.Second)

	c.JSON(http.StatusOK, summary)
}

func (h *AdminHandler) Timeseries(c *gin.Context) {
	interval := c.DefaultQuery("interval", "hour")

	var since time.Time
	switch interval {
	case "hour":
		since = time.Now().UTC().Add(-24 * time.Hour)
	case "day":
		since = time.Now().UTC().AddDate(0, 0, -30)
	default:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "interval must be hour or day"})
		return
	}

	buckets, err := h.predictions.CountsByInterval(c.Request.Context(), interval, since)
	if err != nil {
		translateError(c, err)
		return
	}
	if buckets == nil {
		buckets = []store.TimeBucket{}
	}

	c.JSON(http.StatusOK, gin.H{"data": buckets, "interval": interval})
}

func (h *AdminHandler) SystemStatus(c *gin.Context) {
	dbStatus := "connected"
	dbStart := time.Now()
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		dbStatus = "unreachable"
	}
	dbLatency := time.Since(dbStart)

	cacheStatus := "connected"
	if err := h.cache.Ping(c.Request.Context()); err != nil {
		cacheStatus = "unreachable"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "operational",
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"database": gin.H{
			"status":     dbStatus,
			"latency_ms": float64(dbLatency.Microseconds()) / 1000,
		},
		"cache": gin.H{
			"status": cacheStatus,
		},
	})
}
