package repository

import (
	"context"
	"errors"
	"learnquest_backend/internal/model"
	"learnquest_backend/internal/util"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// RatchetResult 一次进度写入的结果
type RatchetResult struct {
	Progress *model.UserProgress
	// Previous 写入前的完成度，Existed 为 false 时无意义
	Previous int
	Existed  bool
	// CompletedModules 本次写入使模块首次达到 100% 时，同一事务内统计的已完成模块数
	CompletedModules *int64
}

// NewlyCompleted 本次写入是否让模块首次完成
func (r *RatchetResult) NewlyCompleted() bool {
	return r.Progress.CompletionPercentage == 100 && (!r.Existed || r.Previous < 100)
}

// FindByUserAndModule 未找到时返回 nil, nil
func (r *ProgressRepository) FindByUserAndModule(ctx context.Context, userID, moduleID uint) (*model.UserProgress, error) {
	var progress model.UserProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, util.StoreError("find progress", err)
	}
	return &progress, nil
}

// Ratchet 在一个事务内写入 max(已有值, candidate)
func (r *ProgressRepository) Ratchet(ctx context.Context, userID, moduleID uint, candidate int, now time.Time) (*RatchetResult, error) {
	var result *RatchetResult
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = ratchetProgress(tx, userID, moduleID, candidate, now)
		return err
	})
	if err != nil {
		return nil, util.StoreError("ratchet progress", err)
	}
	return result, nil
}

// ratchetProgress 必须在事务内调用。
// 先尝试插入（冲突时忽略），插入失败说明行已存在，再加行锁读取并只向上更新。
func ratchetProgress(tx *gorm.DB, userID, moduleID uint, candidate int, now time.Time) (*RatchetResult, error) {
	result := &RatchetResult{}

	fresh := model.UserProgress{
		UserID:               userID,
		ModuleID:             moduleID,
		CompletionPercentage: candidate,
		LastAccessed:         now,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh)
	if ins.Error != nil {
		return nil, ins.Error
	}
	if ins.RowsAffected == 1 {
		result.Progress = &fresh
	} else {
		var current model.UserProgress
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND module_id = ?", userID, moduleID).
			First(&current).Error
		if err != nil {
			return nil, err
		}

		result.Existed = true
		result.Previous = current.CompletionPercentage

		next := max(current.CompletionPercentage, candidate)
		err = tx.Model(&model.UserProgress{}).
			Where("id = ?", current.ID).
			Updates(map[string]interface{}{
				"completion_percentage": next,
				"last_accessed":         now,
				"updated_at":            now,
			}).Error
		if err != nil {
			return nil, err
		}

		current.CompletionPercentage = next
		current.LastAccessed = now
		current.UpdatedAt = now
		result.Progress = &current
	}

	if result.NewlyCompleted() {
		var count int64
		err := tx.Model(&model.UserProgress{}).
			Where("user_id = ? AND completion_percentage = ?", userID, 100).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		result.CompletedModules = &count
	}
	return result, nil
}

// CountCompleted 已完成（100%）的模块数
func (r *ProgressRepository) CountCompleted(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.UserProgress{}).
		Where("user_id = ? AND completion_percentage = ?", userID, 100).
		Count(&count).Error
	if err != nil {
		return 0, util.StoreError("count completed modules", err)
	}
	return count, nil
}

func (r *ProgressRepository) ListByUser(ctx context.Context, userID uint) ([]model.ModuleProgress, error) {
	var rows []model.ModuleProgress
	err := r.DB.WithContext(ctx).
		Table("user_progress").
		Select("user_progress.*, modules.title_en AS module_title_en, modules.title_st AS module_title_st").
		Joins("LEFT JOIN modules ON modules.id = user_progress.module_id").
		Where("user_progress.user_id = ?", userID).
		Order("user_progress.updated_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, util.StoreError("list progress", err)
	}
	return rows, nil
}
