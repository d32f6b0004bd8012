package models

import (
	"time"

	"gorm.io/gorm"
)

// Layouts used for the human-readable registration and archival stamps.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// StudentRecord is a student currently in service. StudentID is the external
// identifier printed on the card and is unique among active records.
type StudentRecord struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	StudentID      string    `gorm:"size:64;not null;uniqueIndex:idx_active_students_student_id" json:"student_id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Gender         string    `gorm:"size:32" json:"gender"`
	Course         string    `gorm:"size:128" json:"course"`
	Year           string    `gorm:"size:16" json:"year"`
	Section        string    `gorm:"size:32" json:"section"`
	Email          string    `gorm:"size:255" json:"email"`
	Phone          string    `gorm:"size:64" json:"phone"`
	Birthday       string    `gorm:"size:10" json:"birthday"`
	ValidUntil     string    `gorm:"size:10" json:"valid_until"`
	Photo          string    `gorm:"type:text" json:"photo"`
	RegisteredDate string    `gorm:"size:10" json:"registered_date"`
	RegisteredTime string    `gorm:"size:8" json:"registered_time"`
	RegisteredAt   time.Time `gorm:"not null;index" json:"registered_at"`
	IsNew          bool      `gorm:"not null;default:true" json:"is_new"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName pins the active collection table name.
func (StudentRecord) TableName() string {
	return "active_students"
}

// ArchivedRecord is a student moved out of service. OriginalID points at the
// active row it came from and is informational only; StudentID is not unique here.
type ArchivedRecord struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OriginalID     uint      `gorm:"not null;index" json:"original_id"`
	StudentID      string    `gorm:"size:64;not null;index" json:"student_id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Gender         string    `gorm:"size:32" json:"gender"`
	Course         string    `gorm:"size:128" json:"course"`
	Year           string    `gorm:"size:16" json:"year"`
	Section        string    `gorm:"size:32" json:"section"`
	Email          string    `gorm:"size:255" json:"email"`
	Phone          string    `gorm:"size:64" json:"phone"`
	Birthday       string    `gorm:"size:10" json:"birthday"`
	ValidUntil     string    `gorm:"size:10" json:"valid_until"`
	Photo          string    `gorm:"type:text" json:"photo"`
	RegisteredDate string    `gorm:"size:10" json:"registered_date"`
	RegisteredTime string    `gorm:"size:8" json:"registered_time"`
	RegisteredAt   time.Time `gorm:"not null" json:"registered_at"`
	IsNew          bool      `gorm:"not null" json:"is_new"`
	ArchivedDate   string    `gorm:"size:10" json:"archived_date"`
	ArchivedTime   string    `gorm:"size:8" json:"archived_time"`
	ArchivedAt     time.Time `gorm:"not null;index" json:"archived_at"`
}

// BeforeSave stores the ordering instant in UTC.
func (r *StudentRecord) BeforeSave(*gorm.DB) error {
	r.RegisteredAt = r.RegisteredAt.UTC()
	return nil
}

// BeforeSave stores both ordering instants in UTC.
func (a *ArchivedRecord) BeforeSave(*gorm.DB) error {
	a.RegisteredAt = a.RegisteredAt.UTC()
	a.ArchivedAt = a.ArchivedAt.UTC()
	return nil
}

// TableName pins the archived collection table name.
func (ArchivedRecord) TableName() string {
	return "archived_students"
}

// NewArchivedRecord copies every field of an active record and stamps the archival time.
// ArchivedAt is stored in UTC; sqlite compares timestamps as text, so mixed offsets would misorder listings.
func NewArchivedRecord(record StudentRecord, at time.Time) ArchivedRecord {
	return ArchivedRecord{
		OriginalID:     record.ID,
		StudentID:      record.StudentID,
		Name:           record.Name,
		Gender:         record.Gender,
		Course:         record.Course,
		Year:           record.Year,
		Section:        record.Section,
		Email:          record.Email,
		Phone:          record.Phone,
		Birthday:       record.Birthday,
		ValidUntil:     record.ValidUntil,
		Photo:          record.Photo,
		RegisteredDate: record.RegisteredDate,
		RegisteredTime: record.RegisteredTime,
		RegisteredAt:   record.RegisteredAt,
		IsNew:          record.IsNew,
		ArchivedDate:   at.Format(DateLayout),
		ArchivedTime:   at.Format(TimeLayout),
		ArchivedAt:     at.UTC(),
	}
}

// ToActive rebuilds an active record from the archived copy. The archival stamps
// and back-reference are dropped and the record is no longer considered new.
func (a ArchivedRecord) ToActive() StudentRecord {
	return StudentRecord{
		StudentID:      a.StudentID,
		Name:           a.Name,
		Gender:         a.Gender,
		Course:         a.Course,
		Year:           a.Year,
		Section:        a.Section,
		Email:          a.Email,
		Phone:          a.Phone,
		Birthday:       a.Birthday,
		ValidUntil:     a.ValidUntil,
		Photo:          a.Photo,
		RegisteredDate: a.RegisteredDate,
		RegisteredTime: a.RegisteredTime,
		RegisteredAt:   a.RegisteredAt,
		IsNew:          false,
	}
}
