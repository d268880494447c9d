package models

import "time"

const (
	RoleAdmin   = "admin"
	RoleUser    = "user"
	RoleAnalyst = "analyst"
)

type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
	Username       string    `gorm:"uniqueIndex;not null" json:"username"`
	HashedPassword string    `gorm:"not null" json:"-"`
	FullName       string    `json:"full_name"`
	Role           string    `gorm:"not null;default:user" json:"role"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }
