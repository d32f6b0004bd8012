package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/student-registry/internal/models"
)

// ErrConstraintViolation indicates the external student identifier already exists
// among active records.
var ErrConstraintViolation = errors.New("student identifier already active")

// StudentFilter narrows active and archived listings.
type StudentFilter struct {
	Search   string
	Page     int
	PageSize int
}

// DuplicatePair is an archived row whose active origin still exists, the trace
// left behind by an interrupted archive.
type DuplicatePair struct {
	Active   models.StudentRecord
	Archived models.ArchivedRecord
}

// RecordStore persists the active and archived student collections.
type RecordStore interface {
	FindActiveByStudentID(ctx context.Context, studentID string) (models.StudentRecord, error)
	InsertActive(ctx context.Context, record *models.StudentRecord) error
	UpdateActive(ctx context.Context, id uint, updates map[string]interface{}) (models.StudentRecord, error)
	GetActive(ctx context.Context, id uint) (models.StudentRecord, error)
	ListActive(ctx context.Context, filter StudentFilter) ([]models.StudentRecord, int64, error)
	RemoveActive(ctx context.Context, id uint) error

	InsertArchived(ctx context.Context, record *models.ArchivedRecord) error
	GetArchived(ctx context.Context, id uint) (models.ArchivedRecord, error)
	ListArchived(ctx context.Context, filter StudentFilter) ([]models.ArchivedRecord, int64, error)
	RemoveArchived(ctx context.Context, id uint) error

	FindDuplicates(ctx context.Context) ([]DuplicatePair, error)
	Transaction(ctx context.Context, fn func(store RecordStore) error) error
}

type recordStore struct {
	db *gorm.DB
}

// NewRecordStore constructs the gorm backed record store.
func NewRecordStore(db *gorm.DB) RecordStore {
	return &recordStore{db: db}
}

func (r *recordStore) FindActiveByStudentID(ctx context.Context, studentID string) (models.StudentRecord, error) {
	var record models.StudentRecord
	if err := r.db.WithContext(ctx).Where("student_id = ?", studentID).First(&record).Error; err != nil {
		return models.StudentRecord{}, err
	}

	return record, nil
}

func (r *recordStore) InsertActive(ctx context.Context, record *models.StudentRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrConstraintViolation
		}
		return err
	}

	return nil
}

func (r *recordStore) UpdateActive(ctx context.Context, id uint, updates map[string]interface{}) (models.StudentRecord, error) {
	delete(updates, "student_id")
	delete(updates, "id")

	result := r.db.WithContext(ctx).Model(&models.StudentRecord{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return models.StudentRecord{}, result.Error
	}

	if result.RowsAffected == 0 {
		// updated_at is always bumped, so zero rows means the record is absent.
		return models.StudentRecord{}, gorm.ErrRecordNotFound
	}

	return r.GetActive(ctx, id)
}

func (r *recordStore) GetActive(ctx context.Context, id uint) (models.StudentRecord, error) {
	var record models.StudentRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return models.StudentRecord{}, err
	}

	return record, nil
}

func (r *recordStore) ListActive(ctx context.Context, filter StudentFilter) ([]models.StudentRecord, int64, error) {
	query := applySearch(r.db.WithContext(ctx).Model(&models.StudentRecord{}), filter.Search)

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = paginate(query.Order("registered_at DESC").Order("id DESC"), filter)

	var records []models.StudentRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *recordStore) RemoveActive(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.StudentRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *recordStore) InsertArchived(ctx context.Context, record *models.ArchivedRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *recordStore) GetArchived(ctx context.Context, id uint) (models.ArchivedRecord, error) {
	var record models.ArchivedRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return models.ArchivedRecord{}, err
	}

	return record, nil
}

func (r *recordStore) ListArchived(ctx context.Context, filter StudentFilter) ([]models.ArchivedRecord, int64, error) {
	query := applySearch(r.db.WithContext(ctx).Model(&models.ArchivedRecord{}), filter.Search)

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = paginate(query.Order("archived_at DESC").Order("id DESC"), filter)

	var records []models.ArchivedRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *recordStore) RemoveArchived(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.ArchivedRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *recordStore) FindDuplicates(ctx context.Context) ([]DuplicatePair, error) {
	var archived []models.ArchivedRecord
	err := r.db.WithContext(ctx).
		Where("EXISTS (SELECT 1 FROM active_students a WHERE a.id = archived_students.original_id AND a.student_id = archived_students.student_id)").
		Order("archived_at DESC").
		Find(&archived).Error
	if err != nil {
		return nil, err
	}

	pairs := make([]DuplicatePair, 0, len(archived))
	for _, item := range archived {
		active, err := r.GetActive(ctx, item.OriginalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		pairs = append(pairs, DuplicatePair{Active: active, Archived: item})
	}

	return pairs, nil
}

func (r *recordStore) Transaction(ctx context.Context, fn func(store RecordStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&recordStore{db: tx})
	})
}

func applySearch(query *gorm.DB, search string) *gorm.DB {
	search = strings.TrimSpace(search)
	if search == "" {
		return query
	}

	like := "%" + strings.ToLower(search) + "%"
	return query.Where("LOWER(name) LIKE ? OR LOWER(student_id) LIKE ? OR LOWER(course) LIKE ?", like, like, like)
}

func paginate(query *gorm.DB, filter StudentFilter) *gorm.DB {
	if filter.PageSize <= 0 {
		return query
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * filter.PageSize

	return query.Limit(filter.PageSize).Offset(offset)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique constraint") ||
		strings.Contains(s, "duplicate key") ||
		strings.Contains(s, "sqlstate 23505")
}
