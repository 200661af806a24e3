package repository

import (
	"context"
	"learnquest_backend/internal/model"
	"learnquest_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ModuleRepository struct {
	DB *gorm.DB
}

func NewModuleRepository(db *gorm.DB) *ModuleRepository {
	return &ModuleRepository{DB: db}
}

func (r *ModuleRepository) Exists(ctx context.Context, moduleID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.LearningModule{}).
		Where("id = ?", moduleID).
		Count(&count).Error
	if err != nil {
		return false, util.StoreError("check module", err)
	}
	return count > 0, nil
}

// Upsert 按 ID 写入模块，已存在时覆盖标题等字段
func (r *ModuleRepository) Upsert(ctx context.Context, modules []model.LearningModule) error {
	if len(modules) == 0 {
		return nil
	}
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"category_id", "title_en", "title_st", "description", "order", "updated_at"}),
		}).
		Create(&modules).Error
	if err != nil {
		return util.StoreError("upsert modules", err)
	}
	return nil
}
