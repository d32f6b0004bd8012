package dto

import (
	"time"

	"github.com/noah-isme/student-registry/internal/models"
)

// StudentRegisterRequest is the validated shape of a new registration.
type StudentRegisterRequest struct {
	StudentID    string     `json:"student_id" validate:"required,max=64,printascii"`
	Name         string     `json:"name" validate:"required,max=255"`
	Gender       string     `json:"gender" validate:"omitempty,max=32"`
	Course       string     `json:"course" validate:"omitempty,max=128"`
	Year         string     `json:"year" validate:"omitempty,max=16"`
	Section      string     `json:"section" validate:"omitempty,max=32"`
	Email        string     `json:"email" validate:"omitempty,email,max=255"`
	Phone        string     `json:"phone" validate:"omitempty,max=64"`
	Birthday     string     `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	ValidUntil   string     `json:"valid_until" validate:"omitempty,datetime=2006-01-02"`
	Photo        string     `json:"photo"`
	RegisteredAt *time.Time `json:"registered_at"`
}

// StudentUpdateRequest carries a partial update. Nil fields are left unchanged;
// the external student identifier is not part of the mutable set.
type StudentUpdateRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=255"`
	Gender     *string `json:"gender" validate:"omitempty,max=32"`
	Course     *string `json:"course" validate:"omitempty,max=128"`
	Year       *string `json:"year" validate:"omitempty,max=16"`
	Section    *string `json:"section" validate:"omitempty,max=32"`
	Email      *string `json:"email" validate:"omitempty,email|len=0,max=255"`
	Phone      *string `json:"phone" validate:"omitempty,max=64"`
	Birthday   *string `json:"birthday" validate:"omitempty,datetime=2006-01-02|len=0"`
	ValidUntil *string `json:"valid_until" validate:"omitempty,datetime=2006-01-02|len=0"`
	Photo      *string `json:"photo"`
	IsNew      *bool   `json:"is_new"`
}

// StudentResponse is the API view of an active record.
type StudentResponse struct {
	ID             uint      `json:"id"`
	StudentID      string    `json:"student_id"`
	Name           string    `json:"name"`
	Gender         string    `json:"gender"`
	Course         string    `json:"course"`
	Year           string    `json:"year"`
	Section        string    `json:"section"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Birthday       string    `json:"birthday"`
	ValidUntil     string    `json:"valid_until"`
	Photo          string    `json:"photo"`
	RegisteredDate string    `json:"registered_date"`
	RegisteredTime string    `json:"registered_time"`
	RegisteredAt   time.Time `json:"registered_at"`
	IsNew          bool      `json:"is_new"`
}

// NewStudentResponse maps an active record to its API view.
func NewStudentResponse(record models.StudentRecord) StudentResponse {
	return StudentResponse{
		ID:             record.ID,
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
	}
}

// StudentListResponse wraps a page of active records.
type StudentListResponse struct {
	Items      []StudentResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// ArchivedStudentResponse is the API view of an archived record.
type ArchivedStudentResponse struct {
	StudentResponse
	OriginalID   uint      `json:"original_id"`
	ArchivedDate string    `json:"archived_date"`
	ArchivedTime string    `json:"archived_time"`
	ArchivedAt   time.Time `json:"archived_at"`
}

// NewArchivedStudentResponse maps an archived record to its API view.
func NewArchivedStudentResponse(record models.ArchivedRecord) ArchivedStudentResponse {
	return ArchivedStudentResponse{
		StudentResponse: StudentResponse{
			ID:             record.ID,
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
		},
		OriginalID:   record.OriginalID,
		ArchivedDate: record.ArchivedDate,
		ArchivedTime: record.ArchivedTime,
		ArchivedAt:   record.ArchivedAt,
	}
}

// ArchivedStudentListResponse wraps a page of archived records.
type ArchivedStudentListResponse struct {
	Items      []ArchivedStudentResponse `json:"items"`
	Pagination PaginationMeta            `json:"pagination"`
}

// DuplicatePairResponse describes a record present in both collections.
type DuplicatePairResponse struct {
	StudentID  string `json:"student_id"`
	ActiveID   uint   `json:"active_id"`
	ArchivedID uint   `json:"archived_id"`
	Name       string `json:"name"`
}
