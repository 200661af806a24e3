package repository

import (
	"context"
	"errors"
	"learnquest_backend/internal/model"
	"learnquest_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StreakRepository struct {
	DB *gorm.DB
}

func NewStreakRepository(db *gorm.DB) *StreakRepository {
	return &StreakRepository{DB: db}
}

// FindByUser 未找到时返回 nil, nil
func (r *StreakRepository) FindByUser(ctx context.Context, userID uint) (*model.Streak, error) {
	var streak model.Streak
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&streak).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, util.StoreError("find streak", err)
	}
	return &streak, nil
}

// GetOrCreate 返回用户的连续学习记录，不存在时按 seed 创建
func (r *StreakRepository) GetOrCreate(ctx context.Context, seed model.Streak) (*model.Streak, error) {
	var streak *model.Streak
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := lockOrCreateStreak(tx, seed)
		streak = s
		return err
	})
	if err != nil {
		return nil, util.StoreError("get or create streak", err)
	}
	return streak, nil
}

// Transition 在事务中锁定用户行后调用 apply；apply 返回 true 时保存修改。
// 同一用户的并发请求在行锁上排队，保证状态机按顺序执行。
func (r *StreakRepository) Transition(ctx context.Context, seed model.Streak, apply func(s *model.Streak) bool) (*model.Streak, error) {
	var streak *model.Streak
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := lockOrCreateStreak(tx, seed)
		if err != nil {
			return err
		}
		if apply(s) {
			if err := tx.Save(s).Error; err != nil {
				return err
			}
		}
		streak = s
		return nil
	})
	if err != nil {
		return nil, util.StoreError("update streak", err)
	}
	return streak, nil
}

func lockOrCreateStreak(tx *gorm.DB, seed model.Streak) (*model.Streak, error) {
	fresh := seed
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return nil, err
	}

	var streak model.Streak
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", seed.UserID).
		First(&streak).Error
	if err != nil {
		return nil, err
	}
	return &streak, nil
}
