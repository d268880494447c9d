package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"testing"
	"time"

	"route-optimization-api/store"

	"github.com/gin-gonic/gin"
)

type fakeRouteAnalytics struct {
	count     int64
	distances []float64
	durations []float64
}

func (f *fakeRouteAnalytics) Count(context.Context) (int64, error) { return f.count, nil }

func (f *fakeRouteAnalytics) DistancesAndDurations(context.Context) ([]float64, []float64, error) {
	return f.distances, f.durations, nil
}

type fakePredictionAnalytics struct {
	count   int64
	buckets []store.TimeBucket
}

func (f *fakePredictionAnalytics) Count(context.Context) (int64, error) { return f.count, nil }

func (f *fakePredictionAnalytics) CountsByInterval(context.Context, string, time.Time) ([]store.TimeBucket, error) {
	return f.buckets, nil
}

type fakePinger struct {
	err error
}

func (f *fakePinger) PingContext(context.Context) error { return f.err }

func newAdminRouter(routes RouteAnalytics, predictions PredictionAnalytics, db DBPinger) *gin.Engine {
	router := gin.New()
	h := NewAdminHandler(routes, predictions, noCache(), db)
	router.GET("/api/admin/analytics/summary", h.Summary)
	router.GET("/api/admin/analytics/timeseries", h.Timeseries)
	router.GET("/api/admin/system/status", h.SystemStatus)
	return router
}

func TestAnalyticsSummary(t *testing.T) {
	routes := &fakeRouteAnalytics{
		count:     3,
		distances: []float64{1000, 2000, 3000},
		durations: []float64{600, 1200, 1800},
	}
	predictions := &fakePredictionAnalytics{count: 12}
	router := newAdminRouter(routes, predictions, &fakePinger{})

	w := doJSON(t, router, "GET", "/api/admin/analytics/summary", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp AnalyticsSummary
	decodeBody(t, w, &resp)
	if resp.TotalRoutes != 3 {
		t.Errorf("total_routes = %d, want 3", resp.TotalRoutes)
	}
	if resp.TotalPredictions != 12 {
		t.Errorf("total_predictions = %d, want 12", resp.TotalPredictions)
	}
	if math.Abs(resp.AvgDurationMinutes-20) > 1e-9 {
		t.Errorf("avg_duration_minutes = %v, want 20", resp.AvgDurationMinutes)
	}
	if math.Abs(resp.AvgDistanceKM-2) > 1e-9 {
		t.Errorf("avg_distance_km = %v, want 2", resp.AvgDistanceKM)
	}
	if math.Abs(resp.StdDistanceKM-1) > 1e-9 {
		t.Errorf("std_distance_km = %v, want 1", resp.StdDistanceKM)
	}
}

func TestAnalyticsSummaryEmpty(t *testing.T) {
	router := newAdminRouter(&fakeRouteAnalytics{}, &fakePredictionAnalytics{}, &fakePinger{})

	w := doJSON(t, router, "GET", "/api/admin/analytics/summary", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp AnalyticsSummary
	decodeBody(t, w, &resp)
	if resp.AvgDurationMinutes != 0 || resp.AvgDistanceKM != 0 || resp.StdDistanceKM != 0 {
		t.Errorf("empty dataset should yield zero stats, got %+v", resp)
	}
}

func TestAnalyticsTimeseries(t *testing.T) {
	predictions := &fakePredictionAnalytics{buckets: []store.TimeBucket{
		{Bucket: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC), Value: 4},
		{Bucket: time.Date(2026, 8, 29, 11, 0, 0, 0, time.UTC), Value: 7},
	}}
	router := newAdminRouter(&fakeRouteAnalytics{}, predictions, &fakePinger{})

	w := doJSON(t, router, "GET", "/api/admin/analytics/timeseries?interval=hour", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data     []store.TimeBucket `json:"data"`
		Interval string             `json:"interval"`
	}
	decodeBody(t, w, &resp)
	if resp.Interval != "hour" {
		t.Errorf("interval = %q, want hour", resp.Interval)
	}
	if len(resp.Data) != 2 {
		t.Errorf("len(data) = %d, want 2", len(resp.Data))
	}
}

func TestAnalyticsTimeseriesBadInterval(t *testing.T) {
	router := newAdminRouter(&fakeRouteAnalytics{}, &fakePredictionAnalytics{}, &fakePinger{})

	w := doJSON(t, router, "GET", "/api/admin/analytics/timeseries?interval=week", nil, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
}

func TestSystemStatus(t *testing.T) {
	router := newAdminRouter(&fakeRouteAnalytics{}, &fakePredictionAnalytics{}, &fakePinger{})

	w := doJSON(t, router, "GET", "/api/admin/system/status", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Status   string `json:"status"`
		Database struct {
			Status string `json:"status"`
		} `json:"database"`
	}
	decodeBody(t, w, &resp)
	if resp.Status != "operational" {
		t.Errorf("status = %q, want operational", resp.Status)
	}
	if resp.Database.Status != "connected" {
		t.Errorf("database.status = %q, want connected", resp.Database.Status)
	}
}

func TestSystemStatusDatabaseDown(t *testing.T) {
	router := newAdminRouter(&fakeRouteAnalytics{}, &fakePredictionAnalytics{}, &fakePinger{err: errors.New("dial refused")})

	w := doJSON(t, router, "GET", "/api/admin/system/status", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Database struct {
			Status string `json:"status"`
		} `json:"database"`
	}
	decodeBody(t, w, &resp)
	if resp.Database.Status != "unreachable" {
		t.Errorf("database.status = %q, want unreachable", resp.Database.Status)
	}
}
