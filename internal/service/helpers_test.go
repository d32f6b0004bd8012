package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/student-registry/internal/dto"
	"github.com/noah-isme/student-registry/internal/models"
	"github.com/noah-isme/student-registry/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// stepClock returns a clock that advances one minute per call.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Minute)
		return current
	}
}

type recordingActivity struct {
	mu      sync.Mutex
	entries []ActivityEntry
	err     error
}

func (r *recordingActivity) Record(_ context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return dto.ActivityResponse{}, r.err
	}
	r.entries = append(r.entries, entry)
	return dto.ActivityResponse{ID: uint(len(r.entries)), Action: entry.Action, Details: entry.Details}, nil
}

func (r *recordingActivity) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

// faultyStore injects failures into the removal step of a move. When atomic is
// false the unit of work runs without a database transaction.
type faultyStore struct {
	repository.RecordStore
	removeActiveErr   error
	removeArchivedErr error
	atomic            bool
}

func (f *faultyStore) RemoveActive(ctx context.Context, id uint) error {
	if f.removeActiveErr != nil {
		return f.removeActiveErr
	}
	return f.RecordStore.RemoveActive(ctx, id)
}

func (f *faultyStore) RemoveArchived(ctx context.Context, id uint) error {
	if f.removeArchivedErr != nil {
		return f.removeArchivedErr
	}
	return f.RecordStore.RemoveArchived(ctx, id)
}

func (f *faultyStore) Transaction(ctx context.Context, fn func(store repository.RecordStore) error) error {
	if !f.atomic {
		return fn(f)
	}
	return f.RecordStore.Transaction(ctx, func(tx repository.RecordStore) error {
		return fn(&faultyStore{
			RecordStore:       tx,
			removeActiveErr:   f.removeActiveErr,
			removeArchivedErr: f.removeArchivedErr,
			atomic:            true,
		})
	})
}
