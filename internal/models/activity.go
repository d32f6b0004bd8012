package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is an append-only entry describing something the registry did.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	Details    string            `gorm:"type:text" json:"details"`
	EntityType string            `gorm:"size:64" json:"entity_type"`
	EntityID   *uint             `json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}

// Setting is a key/value pair; writes replace the whole value.
type Setting struct {
	Key       string    `gorm:"primaryKey;size:128" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
