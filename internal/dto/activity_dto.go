package dto

import (
	"time"

	"github.com/noah-isme/student-registry/internal/models"
)

// ActivityCreateRequest is the payload accepted by the manual activity endpoint.
type ActivityCreateRequest struct {
	Action     string                 `json:"action" validate:"required,max=64"`
	Details    string                 `json:"details" validate:"max=2000"`
	EntityType string                 `json:"entity_type" validate:"omitempty,max=64"`
	EntityID   *uint                  `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// ActivityResponse is the API view of an activity entry.
type ActivityResponse struct {
	ID         uint                   `json:"id"`
	Action     string                 `json:"action"`
	Details    string                 `json:"details"`
	EntityType string                 `json:"entity_type,omitempty"`
	EntityID   *uint                  `json:"entity_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NewActivityResponse maps the persisted entry to its API view.
func NewActivityResponse(entry models.ActivityLog) ActivityResponse {
	var metadata map[string]interface{}
	if len(entry.Metadata) > 0 {
		metadata = map[string]interface{}(entry.Metadata)
	}

	return ActivityResponse{
		ID:         entry.ID,
		Action:     entry.Action,
		Details:    entry.Details,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   metadata,
		CreatedAt:  entry.CreatedAt,
	}
}
