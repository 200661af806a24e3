package model

import (
	"time"
)

type CriteriaType string

const (
	CriteriaModulesCompleted CriteriaType = "modules_completed"
	CriteriaPerfectScores    CriteriaType = "perfect_scores"
	CriteriaStreakDays       CriteriaType = "streak_days"
	CriteriaTotalPoints      CriteriaType = "total_points"
	CriteriaQuizzesTaken     CriteriaType = "quizzes_taken"
	CriteriaQuizzesPassed    CriteriaType = "quizzes_passed"
)

// CriteriaTypes 所有支持的达成条件
func CriteriaTypes() []CriteriaType {
	return []CriteriaType{
		CriteriaModulesCompleted,
		CriteriaPerfectScores,
		CriteriaStreakDays,
		CriteriaTotalPoints,
		CriteriaQuizzesTaken,
		CriteriaQuizzesPassed,
	}
}

func (c CriteriaType) IsKnown() bool {
	for _, known := range CriteriaTypes() {
		if c == known {
			return true
		}
	}
	return false
}

// Achievement 成就目录，由管理端维护
type Achievement struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	NameEn        string       `gorm:"size:100;not null" json:"name_en"`
	NameSt        string       `gorm:"size:100" json:"name_st"`
	DescriptionEn string       `gorm:"size:255" json:"description_en"`
	DescriptionSt string       `gorm:"size:255" json:"description_st"`
	Icon          string       `gorm:"size:255" json:"icon"`
	Category      string       `gorm:"size:50" json:"category"`
	Rarity        string       `gorm:"size:20;default:'common'" json:"rarity"`
	CriteriaType  CriteriaType `gorm:"size:50;not null;index" json:"criteria_type"`
	CriteriaValue int          `gorm:"not null;default:1" json:"criteria_value"`
	Points        int          `gorm:"not null;default:0" json:"points"`
	IsActive      bool         `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (Achievement) TableName() string {
	return "achievements"
}

// UserAchievement (user_id, achievement_id) 唯一，同一成就只能获得一次
type UserAchievement struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_user_achievement" json:"user_id"`
	AchievementID uint      `gorm:"not null;uniqueIndex:idx_user_achievement" json:"achievement_id"`
	EarnedAt      time.Time `gorm:"not null" json:"earned_at"`
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}

// EarnedAchievement 用户已获得成就的展示视图
type EarnedAchievement struct {
	Achievement
	EarnedAt time.Time `json:"earned_at"`
}

// DefaultAchievements 初始成就目录
func DefaultAchievements() []Achievement {
	list := []Achievement{
		{NameEn: "First Steps", DescriptionEn: "Complete your first module", Icon: "footprints", Category: "completion", Rarity: "common", CriteriaType: CriteriaModulesCompleted, CriteriaValue: 1, Points: 10},
		{NameEn: "Quick Learner", DescriptionEn: "Complete 3 modules", Icon: "bolt", Category: "completion", Rarity: "uncommon", CriteriaType: CriteriaModulesCompleted, CriteriaValue: 3, Points: 30},
		{NameEn: "Module Master", DescriptionEn: "Complete 5 modules", Icon: "crown", Category: "completion", Rarity: "rare", CriteriaType: CriteriaModulesCompleted, CriteriaValue: 5, Points: 50},
		{NameEn: "Quiz Novice", DescriptionEn: "Complete your first quiz", Icon: "pencil", Category: "quiz", Rarity: "common", CriteriaType: CriteriaQuizzesTaken, CriteriaValue: 1, Points: 10},
		{NameEn: "Quiz Master", DescriptionEn: "Pass 5 quizzes", Icon: "trophy", Category: "quiz", Rarity: "rare", CriteriaType: CriteriaQuizzesPassed, CriteriaValue: 5, Points: 50},
		{NameEn: "Perfect Score", DescriptionEn: "Score 100% on a quiz", Icon: "star", Category: "performance", Rarity: "epic", CriteriaType: CriteriaPerfectScores, CriteriaValue: 1, Points: 40},
		{NameEn: "Streak Keeper", DescriptionEn: "Keep a 5 day streak", Icon: "flame", Category: "streak", Rarity: "rare", CriteriaType: CriteriaStreakDays, CriteriaValue: 5, Points: 30},
		{NameEn: "Point Collector", DescriptionEn: "Earn 100 achievement points", Icon: "gem", Category: "performance", Rarity: "legendary", CriteriaType: CriteriaTotalPoints, CriteriaValue: 100, Points: 20},
	}
	for i := range list {
		list[i].IsActive = true
	}
	return list
}
