package service

import (
	"learnquest_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var testStreakPolicy = StreakPolicy{Cap: 5, InitialStreak: 5, FreezeDuration: 5 * time.Minute}

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func activeStreak(current, maxStreak int, last time.Time) *model.Streak {
	return &model.Streak{
		UserID:           1,
		CurrentStreak:    current,
		MaxStreak:        maxStreak,
		LastActivityDate: datatypes.Date(last),
	}
}

func TestApplyActivity_QuizCompletedSameDayIsIdempotent(t *testing.T) {
	s := activeStreak(2, 2, day(1))
	now := day(2).Add(9 * time.Hour)

	first := ApplyActivity(s, model.ActivityQuizCompleted, day(2), now, testStreakPolicy)
	require.True(t, first.Changed)
	assert.Equal(t, 3, s.CurrentStreak)
	snapshot := *s

	second := ApplyActivity(s, model.ActivityQuizCompleted, day(2), now.Add(time.Hour), testStreakPolicy)
	assert.False(t, second.Changed)
	assert.False(t, second.Advanced)
	assert.Equal(t, snapshot, *s)
}

func TestApplyActivity_ConsecutiveDayIsCapped(t *testing.T) {
	s := activeStreak(4, 4, day(1))

	ApplyActivity(s, model.ActivityQuizCompleted, day(2), day(2), testStreakPolicy)
	assert.Equal(t, 5, s.CurrentStreak)

	res := ApplyActivity(s, model.ActivityQuizCompleted, day(3), day(3), testStreakPolicy)
	assert.True(t, res.Advanced)
	assert.Equal(t, 5, s.CurrentStreak)
	assert.Equal(t, 5, s.MaxStreak)
	assert.Equal(t, day(3), time.Time(s.LastActivityDate))
}

func TestApplyActivity_GapResetsToOne(t *testing.T) {
	s := activeStreak(4, 4, day(1))

	res := ApplyActivity(s, model.ActivityQuizCompleted, day(4), day(4), testStreakPolicy)
	require.True(t, res.Changed)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 4, s.MaxStreak, "max_streak keeps the high-water mark")
	assert.False(t, s.IsFrozen)
}

func TestApplyActivity_StaleDateIsIgnored(t *testing.T) {
	s := activeStreak(3, 3, day(5))
	snapshot := *s

	res := ApplyActivity(s, model.ActivityQuizCompleted, day(3), day(5), testStreakPolicy)
	assert.False(t, res.Changed)
	assert.Equal(t, snapshot, *s)
}

func TestApplyActivity_NoPreviousActivityStartsAtOne(t *testing.T) {
	s := &model.Streak{UserID: 1}

	ApplyActivity(s, model.ActivityQuizCompleted, day(1), day(1), testStreakPolicy)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.MaxStreak)
}

func TestApplyActivity_MissedDecrementsThenFreezes(t *testing.T) {
	s := activeStreak(2, 5, day(1))
	now := day(2).Add(10 * time.Hour)

	res := ApplyActivity(s, model.ActivityQuizMissed, day(2), now, testStreakPolicy)
	require.True(t, res.Changed)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.False(t, s.IsFrozen)

	ApplyActivity(s, model.ActivityQuizMissed, day(2), now, testStreakPolicy)
	assert.Equal(t, 0, s.CurrentStreak)
	assert.True(t, s.IsFrozen)
	require.NotNil(t, s.FreezeUntil)
	assert.True(t, s.FreezeUntil.After(now))
	assert.Equal(t, now.Add(5*time.Minute), *s.FreezeUntil)
	assert.Equal(t, 5, s.MaxStreak)
}

func TestApplyActivity_FrozenRejectsQuizAttempt(t *testing.T) {
	now := day(2).Add(10 * time.Hour)
	until := now.Add(3 * time.Minute)
	s := activeStreak(0, 3, day(1))
	s.IsFrozen = true
	s.FreezeUntil = &until
	snapshot := *s

	res := ApplyActivity(s, model.ActivityQuizAttempt, day(2), now, testStreakPolicy)
	assert.True(t, res.Rejected)
	assert.False(t, res.Changed)
	assert.Equal(t, msgStreakFrozen, res.Message)
	assert.Equal(t, snapshot, *s)
}

func TestApplyActivity_FrozenQuizCompletedStillCounts(t *testing.T) {
	now := day(2).Add(10 * time.Hour)
	until := now.Add(5 * time.Minute)
	s := activeStreak(0, 3, day(1))
	s.IsFrozen = true
	s.FreezeUntil = &until

	res := ApplyActivity(s, model.ActivityQuizCompleted, day(2), now, testStreakPolicy)
	assert.False(t, res.Rejected)
	assert.True(t, res.Changed)
	assert.True(t, res.Advanced)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 3, s.MaxStreak)
	assert.Equal(t, day(2), time.Time(s.LastActivityDate))
	assert.True(t, s.IsFrozen)
	require.NotNil(t, s.FreezeUntil)
	assert.Equal(t, until, *s.FreezeUntil)

	again := ApplyActivity(s, model.ActivityQuizCompleted, day(2), now, testStreakPolicy)
	assert.False(t, again.Changed)
	assert.Equal(t, 1, s.CurrentStreak)
}

func TestApplyActivity_LearningActivityRecoversFrozenStreak(t *testing.T) {
	now := day(2).Add(10 * time.Hour)
	until := now.Add(5 * time.Minute)
	s := activeStreak(0, 3, day(1))
	s.IsFrozen = true
	s.FreezeUntil = &until

	res := ApplyActivity(s, model.ActivityLearning, day(2), now, testStreakPolicy)
	assert.True(t, res.Changed)
	assert.True(t, res.Advanced)
	assert.False(t, s.IsFrozen)
	assert.Nil(t, s.FreezeUntil)
	assert.Equal(t, 1, s.CurrentStreak)
}

func TestApplyActivity_LearningActivityWhileActiveIsNoop(t *testing.T) {
	s := activeStreak(3, 3, day(1))
	snapshot := *s

	res := ApplyActivity(s, model.ActivityLearning, day(2), day(2), testStreakPolicy)
	assert.False(t, res.Changed)
	assert.Equal(t, snapshot, *s)
}

func TestApplyActivity_ExpiredFreezeUnfreezesFirst(t *testing.T) {
	now := day(2).Add(10 * time.Hour)
	until := now.Add(-time.Second)
	s := activeStreak(0, 3, day(1))
	s.IsFrozen = true
	s.FreezeUntil = &until

	res := ApplyActivity(s, model.ActivityQuizAttempt, day(2), now, testStreakPolicy)
	assert.False(t, res.Rejected)
	assert.True(t, res.Changed)
	assert.False(t, s.IsFrozen)
	assert.Nil(t, s.FreezeUntil)
	assert.Equal(t, 1, s.CurrentStreak)
}

func TestApplyActivity_FreezeUntilBoundaryStillFrozen(t *testing.T) {
	now := day(2).Add(10 * time.Hour)
	until := now
	s := activeStreak(0, 3, day(1))
	s.IsFrozen = true
	s.FreezeUntil = &until

	res := ApplyActivity(s, model.ActivityQuizAttempt, day(2), now, testStreakPolicy)
	assert.True(t, res.Rejected)
	assert.True(t, s.IsFrozen)
}

func TestNewStreakSeed(t *testing.T) {
	seed := NewStreakSeed(7, day(3).Add(15*time.Hour), testStreakPolicy)
	assert.Equal(t, uint(7), seed.UserID)
	assert.Equal(t, 5, seed.CurrentStreak)
	assert.Equal(t, 5, seed.MaxStreak)
	assert.Equal(t, day(3), time.Time(seed.LastActivityDate))
	assert.False(t, seed.IsFrozen)
}
