package model

import (
	"time"
)

// QuizResult 一次测验提交的记录，只追加，不修改
type QuizResult struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	ModuleID       uint      `gorm:"not null;index" json:"module_id"`
	Score          int       `gorm:"not null" json:"score"`
	TotalQuestions int       `gorm:"not null;default:0" json:"total_questions"`
	TimeSpent      int       `gorm:"not null;default:0" json:"time_spent"`
	Passed         bool      `gorm:"not null;default:false;index" json:"passed"`
	CompletedAt    time.Time `gorm:"not null" json:"completed_at"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}
