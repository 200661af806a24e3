package repository

import (
	"context"
	"errors"
	"learnquest_backend/internal/model"
	"learnquest_backend/internal/testutil"
	"learnquest_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuizRepository_Counts(t *testing.T) {
	db := testutil.DB(t)
	repo := NewQuizRepository(db)
	ctx := context.Background()
	a := testutil.SeedModule(t, db, "A")
	b := testutil.SeedModule(t, db, "B")

	for i, score := range []int{100, 40, 75, 100} {
		moduleID := a.ID
		if i%2 == 1 {
			moduleID = b.ID
		}
		require.NoError(t, repo.Create(ctx, &model.QuizResult{
			UserID:      1,
			ModuleID:    moduleID,
			Score:       score,
			Passed:      score >= 70,
			CompletedAt: time.Now(),
		}))
	}

	taken, err := repo.CountByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), taken)

	passed, err := repo.CountPassedByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), passed)

	perfect, err := repo.CountPerfectByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), perfect)

	all, err := repo.ListByUser(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	onlyB, err := repo.ListByUser(ctx, 1, b.ID)
	require.NoError(t, err)
	assert.Len(t, onlyB, 2)
}

func TestQuizRepository_CreateWithProgress(t *testing.T) {
	db := testutil.DB(t)
	repo := NewQuizRepository(db)
	ctx := context.Background()
	a := testutil.SeedModule(t, db, "A")
	b := testutil.SeedModule(t, db, "B")
	now := time.Now()

	first, err := repo.CreateWithProgress(ctx, &model.QuizResult{UserID: 2, ModuleID: a.ID, Score: 40, CompletedAt: now}, 50, now)
	require.NoError(t, err)
	assert.Equal(t, 50, first.Progress.CompletionPercentage)
	assert.False(t, first.NewlyCompleted())
	assert.Nil(t, first.CompletedModules)

	done, err := repo.CreateWithProgress(ctx, &model.QuizResult{UserID: 2, ModuleID: a.ID, Score: 90, Passed: true, CompletedAt: now}, 100, now)
	require.NoError(t, err)
	assert.True(t, done.NewlyCompleted())
	require.NotNil(t, done.CompletedModules)
	assert.Equal(t, int64(1), *done.CompletedModules)

	other, err := repo.CreateWithProgress(ctx, &model.QuizResult{UserID: 2, ModuleID: b.ID, Score: 100, Passed: true, CompletedAt: now}, 100, now)
	require.NoError(t, err)
	require.NotNil(t, other.CompletedModules)
	assert.Equal(t, int64(2), *other.CompletedModules)

	taken, err := repo.CountByUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), taken)
}

func TestQuizRepository_CreateWithProgressRollsBack(t *testing.T) {
	db := testutil.DB(t)
	repo := NewQuizRepository(db)
	ctx := context.Background()
	module := testutil.SeedModule(t, db, "A")
	testutil.FailWrites(t, db, "user_progress", errors.New("progress table unavailable"))

	result := &model.QuizResult{UserID: 3, ModuleID: module.ID, Score: 80, Passed: true, CompletedAt: time.Now()}
	_, err := repo.CreateWithProgress(ctx, result, 100, time.Now())
	require.ErrorIs(t, err, util.ErrStore)
	assert.Zero(t, result.ID)

	taken, err := repo.CountByUser(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, taken, "quiz result must not survive a failed progress write")
}
