package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"route-optimization-api/config"
)

var (
	ErrInvalidCoordinates = errors.New("coordinates out of range")
	ErrNoRouteFound       = errors.New("no route found between the specified points")
	ErrRoutingUnavailable = errors.New("routing service unavailable")
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

type DirectionsResult struct {
	Geometry        string         `json:"geometry"`
	DistanceMeters  float64        `json:"distance_meters"`
	DurationSeconds float64        `json:"duration_seconds"`
	Segments        []RouteSegment `json:"segments"`
}

type RouteSegment struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
	Instruction     string  `json:"instruction"`
	Name            string  `json:"name"`
}

type GeocodeResult struct {
	Name        string     `json:"name"`
	Coordinates Coordinate `json:"coordinates"`
	Layer       string     `json:"type"`
}

// RoutingClient is a thin adapter over an OpenRouteService-compatible
// directions API. It performs no retries of its own; retry policy belongs
// to the caller.
type RoutingClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewRoutingClient(cfg config.RoutingConfig) *RoutingClient {
	return &RoutingClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
	}
}

// wire types for the provider's geojson directions response
type orsDirectionsRequest struct {
	Coordinates [][2]float64 `json:"coordinates"`
}

type orsDirectionsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
			Segments []struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
				Steps    []struct {
					Distance    float64 `json:"distance"`
					Duration    float64 `json:"duration"`
					Instruction string  `json:"instruction"`
					Name        string  `json:"name"`
				} `json:"steps"`
			} `json:"segments"`
		} `json:"properties"`
	} `json:"features"`
}

// Directions computes a route through start, any waypoints in order, and
// end. Coordinates are validated before any network call.
func (c *RoutingClient) Directions(ctx context.Context, start, end Coordinate, waypoints []Coordinate) (*DirectionsResult, error) {
	coords := make([]Coordinate, 0, len(waypoints)+2)
	coords = append(coords, start)
	coords = append(coords, waypoints...)
	coords = append(coords, end)

	pairs := make([][2]float64, 0, len(coords))
	for _, co := range coords {
		if !co.Valid() {
			return nil, fmt.Errorf("%w: lat=%v lng=%v", ErrInvalidCoordinates, co.Lat, co.Lng)
		}
		// provider expects lng,lat order
		pairs = append(pairs, [2]float64{co.Lng, co.Lat})
	}

	body, err := json.Marshal(orsDirectionsRequest{Coordinates: pairs})
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/v2/directions/driving-car/geojson"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRoutingUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNoRouteFound
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: provider returned %d", ErrRoutingUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: provider returned %d", ErrRoutingUnavailable, resp.StatusCode)
	}

	var parsed orsDirectionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRoutingUnavailable, err)
	}
	if len(parsed.Features) == 0 {
		return nil, ErrNoRouteFound
	}

	feature := parsed.Features[0]

	geometry, err := json.Marshal(feature.Geometry.Coordinates)
	if err != nil {
		return nil, err
	}

	var segments []RouteSegment
	for _, seg := range feature.Properties.Segments {
		for _, step := range seg.Steps {
			segments = append(segments, RouteSegment{
				DistanceMeters:  step.Distance,
				DurationSeconds: step.Duration,
				Instruction:     step.Instruction,
				Name:            step.Name,
			})
		}
	}

	return &DirectionsResult{
		Geometry:        string(geometry),
		DistanceMeters:  feature.Properties.Summary.Distance,
		DurationSeconds: feature.Properties.Summary.Duration,
		Segments:        segments,
	}, nil
}

type orsGeocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Label string `json:"label"`
			Layer string `json:"layer"`
		} `json:"properties"`
	} `json:"features"`
}

// Geocode resolves a free-text place query, biased toward the focus point.
func (c *RoutingClient) Geocode(ctx context.Context, query string, focus Coordinate) ([]GeocodeResult, error) {
	if !focus.Valid() {
		return nil, fmt.Errorf("%w: lat=%v lng=%v", ErrInvalidCoordinates, focus.Lat, focus.Lng)
	}

	params := url.Values{}
	params.Set("text", query)
	params.Set("focus.point.lon", fmt.Sprintf("%f", focus.Lng))
	params.Set("focus.point.lat", fmt.Sprintf("%f", focus.Lat))

	endpoint := c.baseURL + "/geocode/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRoutingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: provider returned %d", ErrRoutingUnavailable, resp.StatusCode)
	}

	var parsed orsGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRoutingUnavailable, err)
	}

	results := make([]GeocodeResult, 0, len(parsed.Features))
	for _, f := range parsed.Features {
		if len(f.Geometry.Coordinates) < 2 {
			continue
		}
		results = append(results, GeocodeResult{
			Name: f.Properties.Label,
			Coordinates: Coordinate{
				Lng: f.Geometry.Coordinates[0],
				Lat: f.Geometry.Coordinates[1],
			},
			Layer: f.Properties.Layer,
		})
	}
	return results, nil
}
