package repository

import (
	"context"
	"learnquest_backend/internal/model"
	"learnquest_backend/internal/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleRepository_UpsertAndExists(t *testing.T) {
	db := testutil.DB(t)
	repo := NewModuleRepository(db)
	ctx := context.Background()

	ok, err := repo.Exists(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Upsert(ctx, []model.LearningModule{{ID: 42, TitleEn: "Draft", Order: 1}}))
	require.NoError(t, repo.Upsert(ctx, []model.LearningModule{{ID: 42, TitleEn: "Final", Order: 2}}))

	ok, err = repo.Exists(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)

	var m model.LearningModule
	require.NoError(t, db.First(&m, 42).Error)
	assert.Equal(t, "Final", m.TitleEn)
	assert.Equal(t, 2, m.Order)
}
