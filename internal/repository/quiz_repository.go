package repository

import (
	"context"
	"learnquest_backend/internal/model"
	"learnquest_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) Create(ctx context.Context, result *model.QuizResult) error {
	if err := r.DB.WithContext(ctx).Create(result).Error; err != nil {
		return util.StoreError("save quiz result", err)
	}
	return nil
}

// CreateWithProgress 在同一事务内保存测验记录并推进模块进度，任一步失败都不会留下测验记录
func (r *QuizRepository) CreateWithProgress(ctx context.Context, result *model.QuizResult, candidate int, now time.Time) (*RatchetResult, error) {
	var progress *RatchetResult
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(result).Error; err != nil {
			return err
		}
		var err error
		progress, err = ratchetProgress(tx, result.UserID, result.ModuleID, candidate, now)
		return err
	})
	if err != nil {
		result.ID = 0
		return nil, util.StoreError("save quiz result", err)
	}
	return progress, nil
}

func (r *QuizRepository) count(ctx context.Context, op string, query string, args ...interface{}) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.QuizResult{}).
		Where(query, args...).
		Count(&count).Error
	if err != nil {
		return 0, util.StoreError(op, err)
	}
	return count, nil
}

func (r *QuizRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "count quiz attempts", "user_id = ?", userID)
}

func (r *QuizRepository) CountPassedByUser(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "count passed quizzes", "user_id = ? AND passed = ?", userID, true)
}

func (r *QuizRepository) CountPerfectByUser(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "count perfect scores", "user_id = ? AND score = ?", userID, 100)
}

// ListByUser moduleID 为 0 时返回全部模块的记录
func (r *QuizRepository) ListByUser(ctx context.Context, userID, moduleID uint) ([]model.QuizResult, error) {
	var results []model.QuizResult
	query := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if moduleID != 0 {
		query = query.Where("module_id = ?", moduleID)
	}
	if err := query.Order("completed_at DESC, id DESC").Find(&results).Error; err != nil {
		return nil, util.StoreError("list quiz results", err)
	}
	return results, nil
}
