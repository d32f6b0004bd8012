package dto

import (
	"time"

	"github.com/noah-isme/student-registry/internal/models"
)

// SettingPutRequest replaces a setting value.
type SettingPutRequest struct {
	Value string `json:"value" validate:"max=4096"`
}

// SettingResponse is the API view of a setting.
type SettingResponse struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
	CacheHit  bool      `json:"cache_hit"`
}

// NewSettingResponse maps a stored setting to its API view.
func NewSettingResponse(setting models.Setting) SettingResponse {
	return SettingResponse{
		Key:       setting.Key,
		Value:     setting.Value,
		UpdatedAt: setting.UpdatedAt,
	}
}
