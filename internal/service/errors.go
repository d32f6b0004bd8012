package service

import (
	"errors"
	"fmt"

	"github.com/noah-isme/student-registry/internal/models"
)

var (
	// ErrDuplicateIdentifier indicates another active record already holds the student identifier.
	ErrDuplicateIdentifier = errors.New("student identifier already registered")
	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("student record not found")
	// ErrPartialArchive indicates a two-step move left the record in both collections.
	ErrPartialArchive = errors.New("record move left inconsistent state")
	// ErrStorageUnavailable indicates the record store could not complete the operation.
	ErrStorageUnavailable = errors.New("record store unavailable")
	// ErrInvalidRecord indicates the input failed validation before reaching the store.
	ErrInvalidRecord = errors.New("invalid student record")
)

// DuplicateIdentifierError carries the active record that owns the identifier.
type DuplicateIdentifierError struct {
	Existing models.StudentRecord
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("student identifier %q already registered (id %d)", e.Existing.StudentID, e.Existing.ID)
}

// Is reports the sentinel for errors.Is checks.
func (e *DuplicateIdentifierError) Is(target error) bool {
	return target == ErrDuplicateIdentifier
}

// PartialMoveError describes an archive or restore whose removal step failed after
// the insert step committed. Both copies exist until an operator reconciles them.
type PartialMoveError struct {
	Operation  string
	StudentID  string
	ActiveID   uint
	ArchivedID uint
	Err        error
}

func (e *PartialMoveError) Error() string {
	return fmt.Sprintf("%s of student %q incomplete (active %d, archived %d): %v",
		e.Operation, e.StudentID, e.ActiveID, e.ArchivedID, e.Err)
}

// Is reports the sentinel for errors.Is checks.
func (e *PartialMoveError) Is(target error) bool {
	return target == ErrPartialArchive
}

func (e *PartialMoveError) Unwrap() error {
	return e.Err
}

func storageError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

func invalidRecord(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
}
