package models

import "time"

type Route struct {
	ID              uint                `gorm:"primaryKey" json:"id"`
	Name            string              `gorm:"not null" json:"name"`
	StartLat        float64             `gorm:"not null" json:"start_lat"`
	StartLng        float64             `gorm:"not null" json:"start_lng"`
	EndLat          float64             `gorm:"not null" json:"end_lat"`
	EndLng          float64             `gorm:"not null" json:"end_lng"`
	Geometry        string              `json:"geometry"`
	DistanceMeters  float64             `json:"distance_meters"`
	DurationSeconds float64             `json:"duration_seconds"`
	CreatedAt       time.Time           `json:"created_at"`
	Waypoints       []Waypoint          `gorm:"constraint:OnDelete:CASCADE" json:"waypoints,omitempty"`
	Predictions     []TrafficPrediction `gorm:"constraint:OnDelete:CASCADE" json:"predictions,omitempty"`
}

func (Route) TableName() string { return "routes" }

// Waypoint is an intermediate stop on a route. SequenceOrder is
// zero-based and contiguous within a route.
type Waypoint struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	RouteID       uint    `gorm:"not null;index;uniqueIndex:idx_route_seq" json:"route_id"`
	Lat           float64 `gorm:"not null" json:"lat"`
	Lng           float64 `gorm:"not null" json:"lng"`
	SequenceOrder int     `gorm:"not null;uniqueIndex:idx_route_seq" json:"sequence_order"`
}

func (Waypoint) TableName() string { return "waypoints" }
