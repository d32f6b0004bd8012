package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-registry/internal/dto"
	"github.com/noah-isme/student-registry/internal/models"
	"github.com/noah-isme/student-registry/internal/repository"
)

type memoryActivityRepo struct {
	entries []models.ActivityLog
	err     error
	lastLim int
}

func (m *memoryActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	if m.err != nil {
		return m.err
	}
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, error) {
	m.lastLim = filter.Limit
	out := make([]models.ActivityLog, 0, len(m.entries))
	for i := len(m.entries) - 1; i >= 0 && (filter.Limit <= 0 || len(out) < filter.Limit); i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

type capturePublisher struct {
	events []ActivityEvent
	err    error
}

func (c *capturePublisher) Publish(_ context.Context, event ActivityEvent) error {
	c.events = append(c.events, event)
	return c.err
}

func TestActivityServiceRecordSanitizes(t *testing.T) {
	repo := &memoryActivityRepo{}
	publisher := &capturePublisher{}
	svc := NewActivityService(repo, testValidator(), publisher, testLogger())

	entry, err := svc.Record(context.Background(), ActivityEntry{
		Action:     " Record.Registered ",
		Details:    "<script>alert('x')</script>Registered Ann",
		EntityType: "Student",
		EntityID:   ptrUint(5),
		Metadata: map[string]interface{}{
			"email":      "ann@example.com",
			"phone":      "0917",
			"student_id": "S1",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "record.registered", entry.Action)
	require.Equal(t, "student", entry.EntityType)
	require.Equal(t, "Registered Ann", entry.Details)
	require.Equal(t, "***", entry.Metadata["email"])
	require.Equal(t, "***", entry.Metadata["phone"])
	require.Equal(t, "S1", entry.Metadata["student_id"])
	require.Len(t, publisher.events, 1)
	require.Equal(t, entry.ID, publisher.events[0].Activity.ID)
}

func TestActivityServicePublishFailureIsSwallowed(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testValidator(), &capturePublisher{err: errors.New("nats down")}, testLogger())

	_, err := svc.Record(context.Background(), ActivityEntry{Action: "record.archived"})
	require.NoError(t, err)
	require.Len(t, repo.entries, 1)
}

func TestActivityServiceRequiresAction(t *testing.T) {
	svc := NewActivityService(&memoryActivityRepo{}, testValidator(), nil, testLogger())

	_, err := svc.Record(context.Background(), ActivityEntry{Details: "nothing"})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), dto.ActivityCreateRequest{Details: "missing action"})
	require.Error(t, err)
}

func TestActivityServiceListClampsLimit(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testValidator(), nil, testLogger())
	ctx := context.Background()

	for _, action := range []string{"a.one", "a.two", "a.three"} {
		_, err := svc.Create(ctx, dto.ActivityCreateRequest{Action: action})
		require.NoError(t, err)
	}

	entries, err := svc.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "a.three", entries[0].Action)

	_, err = svc.List(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, defaultActivityLimit, repo.lastLim)

	_, err = svc.List(ctx, 10_000)
	require.NoError(t, err)
	require.Equal(t, maxActivityLimit, repo.lastLim)
}

func ptrUint(v uint) *uint {
	return &v
}
