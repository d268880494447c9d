package store

import (
	"context"
	"errors"

	"route-optimization-api/models"

	"gorm.io/gorm"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

type RouteStore struct {
	db *gorm.DB
}

func NewRouteStore(db *gorm.DB) *RouteStore {
	return &RouteStore{db: db}
}

// Create persists a route and its waypoints in one transaction.
// Waypoint sequence order is rewritten to be contiguous and zero-based
// in the order given.
func (s *RouteStore) Create(ctx context.Context, route *models.Route) error {
	for i := range route.Waypoints {
		route.Waypoints[i].SequenceOrder = i
	}
	return s.db.WithContext(ctx).Create(route).Error
}

// ByID loads a route with its waypoints (in path order) and prediction
// history (newest first).
func (s *RouteStore) ByID(ctx context.Context, id uint) (*models.Route, error) {
	var route models.Route
	err := s.db.WithContext(ctx).
		Preload("Waypoints", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_order ASC")
		}).
		Preload("Predictions", func(db *gorm.DB) *gorm.DB {
			return db.Order("predicted_at DESC")
		}).
		First(&route, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &route, nil
}

// List returns a page of routes ordered by creation time then id, plus
// the total count. An offset past the end yields an empty page, not an
// error.
func (s *RouteStore) List(ctx context.Context, limit, offset int) ([]models.Route, int64, error) {
	if limit < 1 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Route{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var routes []models.Route
	err := s.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&routes).Error
	if err != nil {
		return nil, 0, err
	}
	return routes, total, nil
}

// Delete removes a route; waypoints and predictions cascade.
func (s *RouteStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("route_id = ?", id).Delete(&models.Waypoint{}).Error; err != nil {
			return err
		}
		if err := tx.Where("route_id = ?", id).Delete(&models.TrafficPrediction{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Route{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Count is used by the analytics endpoints.
func (s *RouteStore) Count(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Route{}).Count(&total).Error
	return total, err
}

// DistancesAndDurations returns the computed distance and duration of
// every stored route for aggregate analytics.
func (s *RouteStore) DistancesAndDurations(ctx context.Context) (distances, durations []float64, err error) {
	var rows []struct {
		DistanceMeters  float64
		DurationSeconds float64
	}
	err = s.db.WithContext(ctx).Model(&models.Route{}).
		Select("distance_meters", "duration_seconds").
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}
	for _, r := range rows {
		distances = append(distances, r.DistanceMeters)
		durations = append(durations, r.DurationSeconds)
	}
	return distances, durations, nil
}
