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

type AchievementRepository struct {
	DB *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: db}
}

// ListActive criteria 为空时返回全部启用的成就
func (r *AchievementRepository) ListActive(ctx context.Context, criteria model.CriteriaType) ([]model.Achievement, error) {
	var achievements []model.Achievement
	query := r.DB.WithContext(ctx).Where("is_active = ?", true)
	if criteria != "" {
		query = query.Where("criteria_type = ?", criteria)
	}
	if err := query.Order("points DESC, id ASC").Find(&achievements).Error; err != nil {
		return nil, util.StoreError("list achievements", err)
	}
	return achievements, nil
}

// FindByID 未找到时返回 nil, nil
func (r *AchievementRepository) FindByID(ctx context.Context, id uint) (*model.Achievement, error) {
	var achievement model.Achievement
	err := r.DB.WithContext(ctx).First(&achievement, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, util.StoreError("find achievement", err)
	}
	return &achievement, nil
}

func (r *AchievementRepository) EarnedIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.WithContext(ctx).Model(&model.UserAchievement{}).
		Where("user_id = ?", userID).
		Pluck("achievement_id", &ids).Error
	if err != nil {
		return nil, util.StoreError("list earned achievements", err)
	}
	return ids, nil
}

func (r *AchievementRepository) HasUserAchievement(ctx context.Context, userID, achievementID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.UserAchievement{}).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		Count(&count).Error
	if err != nil {
		return false, util.StoreError("check user achievement", err)
	}
	return count > 0, nil
}

// Unlock 插入用户成就，唯一索引冲突时返回 util.ErrAlreadyEarned
func (r *AchievementRepository) Unlock(ctx context.Context, userID, achievementID uint, at time.Time) (*model.UserAchievement, error) {
	ua := &model.UserAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		EarnedAt:      at,
	}
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(ua)
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return nil, util.ErrAlreadyEarned
	}
	if res.Error != nil {
		return nil, util.StoreError("unlock achievement", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, util.ErrAlreadyEarned
	}
	return ua, nil
}

func (r *AchievementRepository) ListUserAchievements(ctx context.Context, userID uint) ([]model.EarnedAchievement, error) {
	var rows []model.EarnedAchievement
	err := r.DB.WithContext(ctx).
		Table("user_achievements").
		Select("achievements.*, user_achievements.earned_at").
		Joins("JOIN achievements ON achievements.id = user_achievements.achievement_id").
		Where("user_achievements.user_id = ?", userID).
		Order("user_achievements.earned_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, util.StoreError("list user achievements", err)
	}
	return rows, nil
}

// SumEarnedPoints 用户已获得成就的奖励积分总和
func (r *AchievementRepository) SumEarnedPoints(ctx context.Context, userID uint) (int64, error) {
	var total int64
	err := r.DB.WithContext(ctx).
		Table("user_achievements").
		Select("COALESCE(SUM(achievements.points), 0)").
		Joins("JOIN achievements ON achievements.id = user_achievements.achievement_id").
		Where("user_achievements.user_id = ?", userID).
		Scan(&total).Error
	if err != nil {
		return 0, util.StoreError("sum achievement points", err)
	}
	return total, nil
}
