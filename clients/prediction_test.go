package clients

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"route-optimization-api/config"
)

var testNow = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

func newTestPredictionClient(baseURL string) *PredictionClient {
	c := NewPredictionClient(config.PredictionConfig{
		BaseURL:      baseURL,
		TimeoutSec:   2,
		MaxPastHours: 24,
	})
	c.now = func() time.Time { return testNow }
	return c
}

func validFeatures() TripFeatures {
	return TripFeatures{
		PickupLat:      40.7484,
		PickupLng:      -73.9857,
		DropoffLat:     40.7517,
		DropoffLng:     -73.9881,
		DepartureTime:  testNow.Add(time.Hour).Format(time.RFC3339),
		PassengerCount: 1,
	}
}

func TestPredictDurationSuccess(t *testing.T) {
	var gotFeatures modelFeatures
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotFeatures); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(PredictionResult{
			DurationSeconds: 930,
			TrafficLevel:    2,
			Confidence:      0.9,
			ModelVersion:    "v1.0.0",
		})
	}))
	defer server.Close()

	c := newTestPredictionClient(server.URL)
	result, err := c.PredictDuration(context.Background(), validFeatures())
	if err != nil {
		t.Fatalf("PredictDuration failed: %v", err)
	}

	if result.DurationSeconds != 930 {
		t.Errorf("DurationSeconds = %v, want 930", result.DurationSeconds)
	}
	if result.TrafficLevel != 2 {
		t.Errorf("TrafficLevel = %d, want 2", result.TrafficLevel)
	}
	if result.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", result.Confidence)
	}
	if gotFeatures.DistanceKM <= 0 {
		t.Errorf("DistanceKM = %v, want > 0", gotFeatures.DistanceKM)
	}
	if gotFeatures.Hour != 13 {
		t.Errorf("Hour = %d, want 13", gotFeatures.Hour)
	}
}

func TestPredictDurationStaleDepartureTime(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	c := newTestPredictionClient(server.URL)

	f := validFeatures()
	f.DepartureTime = testNow.AddDate(-10, 0, 0).Format(time.RFC3339)

	_, err := c.PredictDuration(context.Background(), f)
	if !errors.Is(err, ErrInvalidFeatures) {
		t.Errorf("err = %v, want ErrInvalidFeatures", err)
	}
	if calls != 0 {
		t.Errorf("model was called %d times, want 0", calls)
	}
}

func TestPredictDurationRecentPastAllowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(PredictionResult{DurationSeconds: 600, TrafficLevel: 1, Confidence: 0.8})
	}))
	defer server.Close()

	c := newTestPredictionClient(server.URL)

	// within the 24h staleness window
	f := validFeatures()
	f.DepartureTime = testNow.Add(-2 * time.Hour).Format(time.RFC3339)

	if _, err := c.PredictDuration(context.Background(), f); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPredictDurationUnparseableDepartureTime(t *testing.T) {
	c := newTestPredictionClient("http://127.0.0.1:1")

	f := validFeatures()
	f.DepartureTime = "next tuesday"

	_, err := c.PredictDuration(context.Background(), f)
	if !errors.Is(err, ErrInvalidFeatures) {
		t.Errorf("err = %v, want ErrInvalidFeatures", err)
	}
}

func TestPredictDurationModelTimeFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(PredictionResult{DurationSeconds: 600, TrafficLevel: 1, Confidence: 0.8})
	}))
	defer server.Close()

	c := newTestPredictionClient(server.URL)

	// legacy "2006-01-02 15:04:05" training format
	f := validFeatures()
	f.DepartureTime = "2026-08-29 13:00:00"

	if _, err := c.PredictDuration(context.Background(), f); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPredictDurationOutOfRangeCoordinates(t *testing.T) {
	c := newTestPredictionClient("http://127.0.0.1:1")

	f := validFeatures()
	f.PickupLat = 95

	_, err := c.PredictDuration(context.Background(), f)
	if !errors.Is(err, ErrInvalidFeatures) {
		t.Errorf("err = %v, want ErrInvalidFeatures", err)
	}
}

func TestPredictDurationBadPassengerCount(t *testing.T) {
	c := newTestPredictionClient("http://127.0.0.1:1")

	f := validFeatures()
	f.PassengerCount = 9

	_, err := c.PredictDuration(context.Background(), f)
	if !errors.Is(err, ErrInvalidFeatures) {
		t.Errorf("err = %v, want ErrInvalidFeatures", err)
	}
}

func TestPredictDurationModelDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestPredictionClient(server.URL)
	_, err := c.PredictDuration(context.Background(), validFeatures())
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("err = %v, want ErrModelUnavailable", err)
	}
}

func TestPredictDurationRejectsBadModelOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(PredictionResult{DurationSeconds: 600, TrafficLevel: 7, Confidence: 0.5})
	}))
	defer server.Close()

	c := newTestPredictionClient(server.URL)
	_, err := c.PredictDuration(context.Background(), validFeatures())
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("err = %v, want ErrModelUnavailable", err)
	}
}

func TestPrepareFeaturesTimeFlags(t *testing.T) {
	cases := []struct {
		name       string
		departure  time.Time
		isWeekend  int
		isNight    int
		isRushHour int
	}{
		{"weekday morning rush", time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC), 0, 0, 1},
		{"weekday midday", time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC), 0, 0, 0},
		{"weekday evening rush", time.Date(2026, 8, 26, 17, 30, 0, 0, time.UTC), 0, 0, 1},
		{"weekday late night", time.Date(2026, 8, 26, 23, 0, 0, 0, time.UTC), 0, 1, 0},
		{"saturday early morning", time.Date(2026, 8, 29, 3, 0, 0, 0, time.UTC), 1, 1, 0},
		{"sunday midday", time.Date(2026, 8, 30, 13, 0, 0, 0, time.UTC), 1, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := prepareFeatures(validFeatures(), tc.departure)
			if got.IsWeekend != tc.isWeekend {
				t.Errorf("IsWeekend = %d, want %d", got.IsWeekend, tc.isWeekend)
			}
			if got.IsNight != tc.isNight {
				t.Errorf("IsNight = %d, want %d", got.IsNight, tc.isNight)
			}
			if got.IsRushHour != tc.isRushHour {
				t.Errorf("IsRushHour = %d, want %d", got.IsRushHour, tc.isRushHour)
			}
		})
	}
}

func TestHaversineKM(t *testing.T) {
	// Empire State Building to Times Square, roughly 1.1 km
	d := HaversineKM(40.7484, -73.9857, 40.7580, -73.9855)
	if d < 1.0 || d > 1.2 {
		t.Errorf("HaversineKM = %v, want about 1.1", d)
	}

	if got := HaversineKM(40.7, -74.0, 40.7, -74.0); math.Abs(got) > 1e-9 {
		t.Errorf("distance to self = %v, want 0", got)
	}
}
