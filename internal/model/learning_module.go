package model

import (
	"time"
)

// LearningModule 学习模块，由内容管理端维护，这里只用于存在性校验和展示
type LearningModule struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CategoryID  uint      `gorm:"index" json:"category_id"`
	TitleEn     string    `gorm:"size:255;not null" json:"title_en"`
	TitleSt     string    `gorm:"size:255" json:"title_st"`
	Description string    `gorm:"type:text" json:"description"`
	Order       int       `gorm:"default:0" json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (LearningModule) TableName() string {
	return "modules"
}

// UserProgress 用户在某个模块上的完成度，completion_percentage 只增不减
type UserProgress struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	UserID               uint      `gorm:"not null;uniqueIndex:idx_user_module" json:"user_id"`
	ModuleID             uint      `gorm:"not null;uniqueIndex:idx_user_module;index" json:"module_id"`
	CompletionPercentage int       `gorm:"not null;default:0" json:"completion_percentage"`
	LastAccessed         time.Time `json:"last_accessed"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}

// ModuleProgress 带模块标题的进度视图
type ModuleProgress struct {
	UserProgress
	ModuleTitleEn string `json:"module_title_en"`
	ModuleTitleSt string `json:"module_title_st"`
}
