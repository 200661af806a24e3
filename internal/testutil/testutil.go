package testutil

import (
	"context"
	"fmt"
	"learnquest_backend/internal/model"
	"learnquest_backend/pkg/database"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB 每个测试一个独立的内存 sqlite 库，已迁移并写入默认成就目录
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("test db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	return db
}

func SeedModule(tb testing.TB, db *gorm.DB, title string) *model.LearningModule {
	tb.Helper()
	m := &model.LearningModule{TitleEn: title, TitleSt: title}
	if err := db.WithContext(context.Background()).Create(m).Error; err != nil {
		tb.Fatalf("seed module: %v", err)
	}
	return m
}

// SeedAchievement 写入一条额外的启用成就
func SeedAchievement(tb testing.TB, db *gorm.DB, a model.Achievement) *model.Achievement {
	tb.Helper()
	a.IsActive = true
	if a.Rarity == "" {
		a.Rarity = "common"
	}
	if err := db.Create(&a).Error; err != nil {
		tb.Fatalf("seed achievement: %v", err)
	}
	return &a
}

// ClearAchievements 删除默认目录，便于测试只关注自己写入的规则
func ClearAchievements(tb testing.TB, db *gorm.DB) {
	tb.Helper()
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Achievement{}).Error; err != nil {
		tb.Fatalf("clear achievements: %v", err)
	}
}

func AchievementByName(tb testing.TB, db *gorm.DB, name string) model.Achievement {
	tb.Helper()
	var a model.Achievement
	if err := db.Where("name_en = ?", name).First(&a).Error; err != nil {
		tb.Fatalf("find achievement %q: %v", name, err)
	}
	return a
}

func CountUserAchievements(tb testing.TB, db *gorm.DB, userID, achievementID uint) int64 {
	tb.Helper()
	var n int64
	err := db.Model(&model.UserAchievement{}).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		Count(&n).Error
	if err != nil {
		tb.Fatalf("count user achievements: %v", err)
	}
	return n
}

// Day 返回 UTC 当天零点
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Names 提取成就名称，便于断言
func Names(list []model.Achievement) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.NameEn)
	}
	return out
}

// FailWrites 让之后对 table 的插入和更新都返回 err，调用返回的函数后恢复正常
func FailWrites(tb testing.TB, db *gorm.DB, table string, err error) (restore func()) {
	tb.Helper()

	var off atomic.Bool
	fail := func(tx *gorm.DB) {
		if !off.Load() && tx.Statement.Table == table {
			_ = tx.AddError(err)
		}
	}
	if e := db.Callback().Create().Before("gorm:create").Register("testutil:fail_create", fail); e != nil {
		tb.Fatalf("register create hook: %v", e)
	}
	if e := db.Callback().Update().Before("gorm:update").Register("testutil:fail_update", fail); e != nil {
		tb.Fatalf("register update hook: %v", e)
	}
	return func() { off.Store(true) }
}
