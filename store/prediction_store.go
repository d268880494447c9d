package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"route-optimization-api/models"

	"gorm.io/gorm"
)

type PredictionStore struct {
	db *gorm.DB
}

func NewPredictionStore(db *gorm.DB) *PredictionStore {
	return &PredictionStore{db: db}
}

// Create appends one prediction. The referenced route must exist and
// the level/confidence invariants are checked before the write.
func (s *PredictionStore) Create(ctx context.Context, p *models.TrafficPrediction) error {
	if p.TrafficLevel < 1 || p.TrafficLevel > 4 {
		return fmt.Errorf("%w: traffic level %d", ErrInvalidPrediction, p.TrafficLevel)
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v", ErrInvalidPrediction, p.Confidence)
	}

	var exists int64
	if err := s.db.WithContext(ctx).Model(&models.Route{}).
		Where("id = ?", p.RouteID).Count(&exists).Error; err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}

	return s.db.WithContext(ctx).Create(p).Error
}

func (s *PredictionStore) ListForRoute(ctx context.Context, routeID uint) ([]models.TrafficPrediction, error) {
	var exists int64
	if err := s.db.WithContext(ctx).Model(&models.Route{}).
		Where("id = ?", routeID).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrNotFound
	}

	var rows []models.TrafficPrediction
	err := s.db.WithContext(ctx).
		Where("route_id = ?", routeID).
		Order("predicted_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *PredictionStore) Count(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.TrafficPrediction{}).Count(&total).Error
	return total, err
}

// CountsByInterval buckets prediction volume by hour or day for the
// analytics timeseries endpoint.
func (s *PredictionStore) CountsByInterval(ctx context.Context, interval string, since time.Time) ([]TimeBucket, error) {
	var trunc string
	switch interval {
	case "hour":
		trunc = "hour"
	case "day":
		trunc = "day"
	default:
		return nil, errors.New("interval must be hour or day")
	}

	var buckets []TimeBucket
	err := s.db.WithContext(ctx).Model(&models.TrafficPrediction{}).
		Select(fmt.Sprintf("date_trunc('%s', predicted_at) AS bucket, count(*) AS value", trunc)).
		Where("predicted_at >= ?", since).
		Group("bucket").
		Order("bucket ASC").
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}
	return buckets, nil
}

type TimeBucket struct {
	Bucket time.Time `json:"timestamp"`
	Value  float64   `json:"value"`
}
