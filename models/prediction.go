package models

import "time"

// TrafficPrediction is an append-only record of a model prediction for a
// route. Rows are never updated after creation.
type TrafficPrediction struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	RouteID         uint      `gorm:"not null;index" json:"route_id"`
	PredictedAt     time.Time `gorm:"not null" json:"predicted_at"`
	TrafficLevel    int       `gorm:"not null" json:"traffic_level"`
	Confidence      float64   `gorm:"not null" json:"confidence"`
	DurationSeconds float64   `json:"duration_seconds"`
	ModelVersion    string    `json:"model_version"`
	CreatedAt       time.Time `json:"created_at"`
}

func (TrafficPrediction) TableName() string { return "traffic_predictions" }
