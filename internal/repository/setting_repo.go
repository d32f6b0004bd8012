package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/student-registry/internal/models"
)

// SettingRepository stores key/value settings with last-write-wins semantics.
type SettingRepository interface {
	Get(ctx context.Context, key string) (models.Setting, error)
	Put(ctx context.Context, key, value string) (models.Setting, error)
}

type settingRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSettingRepository constructs the settings repository.
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db, now: time.Now}
}

func (r *settingRepository) Get(ctx context.Context, key string) (models.Setting, error) {
	var setting models.Setting
	if err := r.db.WithContext(ctx).Where(map[string]interface{}{"key": key}).First(&setting).Error; err != nil {
		return models.Setting{}, err
	}

	return setting, nil
}

func (r *settingRepository) Put(ctx context.Context, key, value string) (models.Setting, error) {
	setting := models.Setting{Key: key, Value: value, UpdatedAt: r.now().UTC()}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return models.Setting{}, err
	}

	return setting, nil
}
