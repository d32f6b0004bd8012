package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/student-registry/internal/dto"
	"github.com/noah-isme/student-registry/internal/repository"
)

// ReconcileService finds and repairs records left in both collections by an
// interrupted archive or restore.
type ReconcileService interface {
	Scan(ctx context.Context) ([]dto.DuplicatePairResponse, error)
	Repair(ctx context.Context, archivedID uint) (dto.Confirmation, error)
}

type reconcileService struct {
	store    repository.RecordStore
	activity ActivityRecorder
	logger   zerolog.Logger
}

// NewReconcileService constructs the reconciliation service. activity may be nil.
func NewReconcileService(store repository.RecordStore, activity ActivityRecorder, logger zerolog.Logger) ReconcileService {
	return &reconcileService{
		store:    store,
		activity: activity,
		logger:   logger.With().Str("component", "reconcile_service").Logger(),
	}
}

func (s *reconcileService) Scan(ctx context.Context) ([]dto.DuplicatePairResponse, error) {
	pairs, err := s.store.FindDuplicates(ctx)
	if err != nil {
		return nil, storageError(err)
	}

	responses := make([]dto.DuplicatePairResponse, 0, len(pairs))
	for _, pair := range pairs {
		responses = append(responses, dto.DuplicatePairResponse{
			StudentID:  pair.Active.StudentID,
			ActiveID:   pair.Active.ID,
			ArchivedID: pair.Archived.ID,
			Name:       pair.Active.Name,
		})
	}

	return responses, nil
}

// Repair drops the archived copy of a duplicate pair, returning the record to
// its pre-archive state. The active row is authoritative.
func (s *reconcileService) Repair(ctx context.Context, archivedID uint) (dto.Confirmation, error) {
	pairs, err := s.store.FindDuplicates(ctx)
	if err != nil {
		return dto.Confirmation{}, storageError(err)
	}

	for _, pair := range pairs {
		if pair.Archived.ID != archivedID {
			continue
		}

		if err := s.store.RemoveArchived(ctx, pair.Archived.ID); err != nil {
			return dto.Confirmation{}, lookupError(err)
		}

		s.logger.Info().
			Str("student_id", pair.Active.StudentID).
			Uint("active_id", pair.Active.ID).
			Uint("archived_id", pair.Archived.ID).
			Msg("duplicate archived copy removed")

		if s.activity != nil {
			if _, err := s.activity.Record(ctx, ActivityEntry{
				Action:     "record.reconciled",
				Details:    fmt.Sprintf("Removed stale archived copy of %s (%s)", pair.Active.Name, pair.Active.StudentID),
				EntityType: "student",
				EntityID:   &pair.Active.ID,
				Metadata:   map[string]interface{}{"student_id": pair.Active.StudentID, "archived_id": pair.Archived.ID},
			}); err != nil {
				s.logger.Warn().Err(err).Msg("failed to record reconciliation activity")
			}
		}

		activeID := pair.Active.ID
		removedID := pair.Archived.ID
		return dto.Confirmation{
			Operation:  "reconcile",
			ActiveID:   &activeID,
			ArchivedID: &removedID,
			StudentID:  pair.Active.StudentID,
		}, nil
	}

	return dto.Confirmation{}, ErrNotFound
}
