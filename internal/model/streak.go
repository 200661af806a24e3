package model

import (
	"time"

	"gorm.io/datatypes"
)

type ActivityType string

const (
	ActivityQuizAttempt     ActivityType = "quiz_attempt"
	ActivityQuizCompleted   ActivityType = "quiz_completed"
	ActivityQuizMissed      ActivityType = "quiz_missed"
	ActivityLearning        ActivityType = "learning_activity"
	ActivityModuleCompleted ActivityType = "module_completed"
	ActivityProgressUpdated ActivityType = "progress_updated"
	ActivityStreakUpdated   ActivityType = "streak_updated"
)

// IsStreakActivity 是否为连续学习引擎能处理的活动类型
func (a ActivityType) IsStreakActivity() bool {
	switch a {
	case ActivityQuizAttempt, ActivityQuizCompleted, ActivityQuizMissed, ActivityLearning:
		return true
	}
	return false
}

// Streak 每个用户一行，只由连续学习引擎修改
type Streak struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           uint           `gorm:"not null;uniqueIndex" json:"user_id"`
	CurrentStreak    int            `gorm:"not null;default:0" json:"current_streak"`
	MaxStreak        int            `gorm:"not null;default:0" json:"max_streak"`
	LastActivityDate datatypes.Date `json:"last_activity_date"`
	IsFrozen         bool           `gorm:"not null;default:false" json:"is_frozen"`
	FreezeUntil      *time.Time     `json:"freeze_until"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (Streak) TableName() string {
	return "user_streaks"
}
