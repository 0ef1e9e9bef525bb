package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sow_tracker/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkCandidate(userID, eventID uuid.UUID) notification.Candidate {
	return notification.Candidate{
		UserID:       userID,
		Type:         notification.TypePregnancyCheck,
		DedupKey:     notification.BreedingKey(eventID),
		DueOn:        jan(22),
		ScheduledFor: time.Date(2025, time.January, 21, 9, 0, 0, 0, time.UTC),
		Title:        "Pregnancy check due",
	}
}

func TestEnsureScheduled_IsIdempotent(t *testing.T) {
	repo := newFakeNotifRepo()
	s := NewScheduler(repo, testLogger())
	c := checkCandidate(uuid.New(), uuid.New())

	inserted, err := s.EnsureScheduled(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.EnsureScheduled(context.Background(), c)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, 1, repo.count())
}

func TestEnsureScheduled_ConcurrentCallsInsertOnce(t *testing.T) {
	repo := newFakeNotifRepo()
	s := NewScheduler(repo, testLogger())
	c := checkCandidate(uuid.New(), uuid.New())

	var inserted atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.EnsureScheduled(context.Background(), c)
			assert.NoError(t, err)
			if ok {
				inserted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, inserted.Load())
	assert.Equal(t, 1, repo.count())
}

func TestEnsureScheduled_NewMilestoneDateIsANewReminder(t *testing.T) {
	repo := newFakeNotifRepo()
	s := NewScheduler(repo, testLogger())
	c := checkCandidate(uuid.New(), uuid.New())

	_, err := s.EnsureScheduled(context.Background(), c)
	require.NoError(t, err)
	c.DueOn = jan(29)
	inserted, err := s.EnsureScheduled(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, 2, repo.count())
}

func TestEnsureScheduled_RejectsIncompleteCandidate(t *testing.T) {
	s := NewScheduler(newFakeNotifRepo(), testLogger())
	c := checkCandidate(uuid.Nil, uuid.New())

	_, err := s.EnsureScheduled(context.Background(), c)
	assert.Error(t, err)
}

func TestEnsureScheduled_WrapsStoreError(t *testing.T) {
	repo := newFakeNotifRepo()
	repo.insertErr = errors.New("connection reset")
	s := NewScheduler(repo, testLogger())

	_, err := s.EnsureScheduled(context.Background(), checkCandidate(uuid.New(), uuid.New()))
	require.Error(t, err)
	assert.ErrorIs(t, err, repo.insertErr)
	assert.Contains(t, err.Error(), "pregnancy_check")
}

func TestCancel_RemovesOnlyRequestedTypes(t *testing.T) {
	repo := newFakeNotifRepo()
	s := NewScheduler(repo, testLogger())
	userID, eventID := uuid.New(), uuid.New()

	check := checkCandidate(userID, eventID)
	farrow := check
	farrow.Type = notification.TypeFarrowingAlert
	farrow.DueOn = time.Date(2025, time.April, 25, 0, 0, 0, 0, time.UTC)
	for _, c := range []notification.Candidate{check, farrow} {
		_, err := s.EnsureScheduled(context.Background(), c)
		require.NoError(t, err)
	}

	n, err := s.Cancel(context.Background(), userID, notification.BreedingKey(eventID), notification.TypePregnancyCheck)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Len(t, repo.byType(notification.TypeFarrowingAlert), 1)
	assert.Empty(t, repo.byType(notification.TypePregnancyCheck))
}
