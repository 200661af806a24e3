package repository

import (
	"context"
	"learnquest_backend/internal/model"
	"learnquest_backend/internal/testutil"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func streakSeed(userID uint) model.Streak {
	return model.Streak{
		UserID:           userID,
		CurrentStreak:    5,
		MaxStreak:        5,
		LastActivityDate: datatypes.Date(testutil.Day(2026, time.March, 1)),
	}
}

func TestStreakRepository_GetOrCreateSeedsOnce(t *testing.T) {
	db := testutil.DB(t)
	repo := NewStreakRepository(db)
	ctx := context.Background()

	none, err := repo.FindByUser(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, none)

	s, err := repo.GetOrCreate(ctx, streakSeed(1))
	require.NoError(t, err)
	assert.Equal(t, 5, s.CurrentStreak)

	other := streakSeed(1)
	other.CurrentStreak = 2
	again, err := repo.GetOrCreate(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, s.ID, again.ID)
	assert.Equal(t, 5, again.CurrentStreak)
	assert.Equal(t, testutil.Day(2026, time.March, 1), time.Time(again.LastActivityDate).UTC())
}

func TestStreakRepository_TransitionSerializesUpdates(t *testing.T) {
	db := testutil.DB(t)
	repo := NewStreakRepository(db)
	ctx := context.Background()

	const workers = 4
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Transition(ctx, streakSeed(2), func(s *model.Streak) bool {
				s.CurrentStreak--
				return true
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := repo.FindByUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentStreak)
}

func TestStreakRepository_TransitionWithoutChangeDoesNotWrite(t *testing.T) {
	db := testutil.DB(t)
	repo := NewStreakRepository(db)
	ctx := context.Background()

	_, err := repo.Transition(ctx, streakSeed(3), func(s *model.Streak) bool {
		s.CurrentStreak = 0
		return false
	})
	require.NoError(t, err)

	s, err := repo.FindByUser(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, s.CurrentStreak)
}
