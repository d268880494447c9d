package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"route-optimization-api/clients"
	"route-optimization-api/models"
	"route-optimization-api/services"

	"github.com/gin-gonic/gin"
)

type PredictionStore interface {
	Create(ctx context.Context, p *models.TrafficPrediction) error
	ListForRoute(ctx context.Context, routeID uint) ([]models.TrafficPrediction, error)
}

type PredictionAPI interface {
	PredictDuration(ctx context.Context, f clients.TripFeatures) (*clients.PredictionResult, error)
	ModelInfo(ctx context.Context) (*clients.ModelInfo, error)
}

type PredictionsHandler struct {
	predictions PredictionStore
	model       PredictionAPI
	cache       *services.CacheService
}

func NewPredictionsHandler(predictions PredictionStore, model PredictionAPI, cache *services.CacheService) *PredictionsHandler {
	return &PredictionsHandler{predictions: predictions, model: model, cache: cache}
}

type PredictRequest struct {
	StartLocation  *PointInput `json:"start_location" binding:"required"`
	EndLocation    *PointInput `json:"end_location" binding:"required"`
	DepartureTime  string      `json:"departure_time" binding:"required"`
	PassengerCount int         `json:"passenger_count" binding:"omitempty,min=1,max=8"`
	RouteID        *uint       `json:"route_id"`
}

type PredictResponse struct {
	DurationSeconds float64 `json:"trip_duration_seconds"`
	DurationMinutes float64 `json:"trip_duration_minutes"`
	TrafficLevel    int     `json:"traffic_level"`
	Confidence      float64 `json:"confidence"`
	ModelVersion    string  `json:"model_version"`
	PredictionID    *uint   `json:"prediction_id,omitempty"`
}

// Predict runs the trip features through the external model. When
// route_id is present the result is also appended to that route's
// prediction history (the endpoint's single write) and published to the
// live feed.
func (h *PredictionsHandler) Predict(c *gin.Context) {
	var req PredictRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.PassengerCount == 0 {
		req.PassengerCount = 1
	}

	features := clients.TripFeatures{
		PickupLat:      *req.StartLocation.Lat,
		PickupLng:      *req.StartLocation.Lng,
		DropoffLat:     *req.EndLocation.Lat,
		DropoffLng:     *req.EndLocation.Lng,
		DepartureTime:  req.DepartureTime,
		PassengerCount: req.PassengerCount,
	}

	result, err := retryOnce(
		func() (*clients.PredictionResult, error) {
			return h.model.PredictDuration(c.Request.Context(), features)
		},
		func(err error) bool { return errors.Is(err, clients.ErrModelUnavailable) },
	)
	if err != nil {
		translateError(c, err)
		return
	}

	resp := PredictResponse{
		DurationSeconds: result.DurationSeconds,
		DurationMinutes: result.DurationSeconds / 60,
		TrafficLevel:    result.TrafficLevel,
		Confidence:      result.Confidence,
		ModelVersion:    result.ModelVersion,
	}

	if req.RouteID != nil {
		prediction := models.TrafficPrediction{
			RouteID:         *req.RouteID,
			PredictedAt:     time.Now().UTC(),
			TrafficLevel:    result.TrafficLevel,
			Confidence:      result.Confidence,
			DurationSeconds: result.DurationSeconds,
			ModelVersion:    result.ModelVersion,
		}
		if err := h.predictions.Create(c.Request.Context(), &prediction); err != nil {
			translateError(c, err)
			return
		}
		resp.PredictionID = &prediction.ID

		go h.cache.Publish(context.Background(), services.PredictionsChannel, prediction)
	}

	c.JSON(http.StatusOK, resp)
}

func (h *PredictionsHandler) ListForRoute(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	rows, err := h.predictions.ListForRoute(c.Request.Context(), id)
	if err != nil {
		translateError(c, err)
		return
	}
	if rows == nil {
		rows = []models.TrafficPrediction{}
	}

	c.JSON(http.StatusOK, gin.H{"route_id": id, "predictions": rows})
}

func (h *PredictionsHandler) ModelInfo(c *gin.Context) {
	info, err := retryOnce(
		func() (*clients.ModelInfo, error) {
			return h.model.ModelInfo(c.Request.Context())
		},
		func(err error) bool { return errors.Is(err, clients.ErrModelUnavailable) },
	)
	if err != nil {
		translateError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
