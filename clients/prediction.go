package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"route-optimization-api/config"
)

var (
	ErrInvalidFeatures  = errors.New("invalid trip features")
	ErrModelUnavailable = errors.New("prediction model unavailable")
)

// TripFeatures describes a trip to the external duration model.
type TripFeatures struct {
	PickupLat      float64
	PickupLng      float64
	DropoffLat     float64
	DropoffLng     float64
	DepartureTime  string
	PassengerCount int
}

type PredictionResult struct {
	DurationSeconds float64 `json:"duration_seconds"`
	TrafficLevel    int     `json:"traffic_level"`
	Confidence      float64 `json:"confidence"`
	ModelVersion    string  `json:"model_version"`
}

type ModelInfo struct {
	ModelType    string   `json:"model_type"`
	ModelVersion string   `json:"model_version"`
	FeaturesUsed []string `json:"features_used"`
	TrainedAt    string   `json:"trained_at"`
}

// PredictionClient is a thin adapter over the external trained model
// service. Feature validation happens before any network call.
type PredictionClient struct {
	baseURL string
	maxPast time.Duration
	http    *http.Client
	now     func() time.Time
}

func NewPredictionClient(cfg config.PredictionConfig) *PredictionClient {
	return &PredictionClient{
		baseURL: cfg.BaseURL,
		maxPast: time.Duration(cfg.MaxPastHours) * time.Hour,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
		now: time.Now,
	}
}

// departure times arrive either as RFC 3339 or as the model's
// "2006-01-02 15:04:05" training format.
func parseDepartureTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}

type modelFeatures struct {
	PickupLat      float64 `json:"pickup_latitude"`
	PickupLng      float64 `json:"pickup_longitude"`
	DropoffLat     float64 `json:"dropoff_latitude"`
	DropoffLng     float64 `json:"dropoff_longitude"`
	PassengerCount int     `json:"passenger_count"`
	DistanceKM     float64 `json:"distance_km"`
	Hour           int     `json:"hour"`
	DayOfWeek      int     `json:"day_of_week"`
	Month          int     `json:"month"`
	IsWeekend      int     `json:"is_weekend"`
	IsNight        int     `json:"is_night"`
	IsRushHour     int     `json:"is_rush_hour"`
}

// prepareFeatures derives the engineered features the model was trained
// on. Day of week is Monday-based (0=Monday, 6=Sunday).
func prepareFeatures(f TripFeatures, departure time.Time) modelFeatures {
	hour := departure.Hour()
	dow := (int(departure.Weekday()) + 6) % 7

	boolInt := func(b bool) int {
		if b {
			return 1
		}
		return 0
	}

	return modelFeatures{
		PickupLat:      f.PickupLat,
		PickupLng:      f.PickupLng,
		DropoffLat:     f.DropoffLat,
		DropoffLng:     f.DropoffLng,
		PassengerCount: f.PassengerCount,
		DistanceKM:     HaversineKM(f.PickupLat, f.PickupLng, f.DropoffLat, f.DropoffLng),
		Hour:           hour,
		DayOfWeek:      dow,
		Month:          int(departure.Month()),
		IsWeekend:      boolInt(dow >= 5),
		IsNight:        boolInt(hour >= 20 || hour < 6),
		IsRushHour:     boolInt((hour >= 7 && hour <= 10) || (hour >= 16 && hour <= 19)),
	}
}

// HaversineKM returns the great-circle distance between two points in km.
func HaversineKM(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKM = 6371.0

	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dlat := toRad(lat2 - lat1)
	dlng := toRad(lng2 - lng1)
	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dlng/2)*math.Sin(dlng/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(a))
}

// PredictDuration asks the model service for a trip duration estimate.
// Stale or unparseable departure times fail fast with ErrInvalidFeatures.
func (c *PredictionClient) PredictDuration(ctx context.Context, f TripFeatures) (*PredictionResult, error) {
	pickup := Coordinate{Lat: f.PickupLat, Lng: f.PickupLng}
	dropoff := Coordinate{Lat: f.DropoffLat, Lng: f.DropoffLng}
	if !pickup.Valid() || !dropoff.Valid() {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidFeatures)
	}

	departure, err := parseDepartureTime(f.DepartureTime)
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable departure_time %q", ErrInvalidFeatures, f.DepartureTime)
	}
	if age := c.now().Sub(departure); age > c.maxPast {
		return nil, fmt.Errorf("%w: departure_time is %s in the past", ErrInvalidFeatures, age.Round(time.Minute))
	}
	if f.PassengerCount < 1 || f.PassengerCount > 8 {
		return nil, fmt.Errorf("%w: passenger_count must be between 1 and 8", ErrInvalidFeatures)
	}

	body, err := json.Marshal(prepareFeatures(f, departure))
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: model rejected features", ErrInvalidFeatures)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: model returned %d", ErrModelUnavailable, resp.StatusCode)
	}

	var result PredictionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if result.TrafficLevel < 1 || result.TrafficLevel > 4 {
		return nil, fmt.Errorf("%w: traffic level %d out of range", ErrModelUnavailable, result.TrafficLevel)
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v out of range", ErrModelUnavailable, result.Confidence)
	}
	return &result, nil
}

// ModelInfo fetches metadata about the deployed model.
func (c *PredictionClient) ModelInfo(ctx context.Context) (*ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/model-info", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: model returned %d", ErrModelUnavailable, resp.StatusCode)
	}

	var info ModelInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return &info, nil
}
