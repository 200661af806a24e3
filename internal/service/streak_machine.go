package service

import (
	"learnquest_backend/internal/config"
	"learnquest_backend/internal/model"
	"strconv"
	"time"

	"gorm.io/datatypes"
)

const (
	msgStreakFrozen     = "Streak is frozen. Complete learning activities to recover."
	msgAlreadyRecorded  = "Activity already recorded today"
	msgStaleActivity    = "Activity date is before the last recorded activity"
	msgRecovered        = "Streak recovered"
	msgNothingToRecover = "Learning activity recorded"
	msgAttemptAllowed   = "Quiz attempt allowed"
)

// StreakPolicy 连续学习状态机参数
type StreakPolicy struct {
	Cap            int
	InitialStreak  int
	FreezeDuration time.Duration
}

func streakPolicyFrom(g config.GamificationConfig) StreakPolicy {
	return StreakPolicy{
		Cap:            g.StreakCap,
		InitialStreak:  g.InitialStreak,
		FreezeDuration: g.FreezeDuration,
	}
}

// Transition 一次状态机迁移的结果
type Transition struct {
	// Changed 为 true 时需要持久化
	Changed bool
	// Rejected 冻结期间的测验活动被拒绝
	Rejected bool
	// Advanced 连续天数增长或从冻结中恢复，需要触发成就检查
	Advanced bool
	Message  string
}

// civilDate 截掉时间部分，按 UTC 日历日比较
func civilDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(civilDate(to).Sub(civilDate(from)).Hours() / 24)
}

// ApplyActivity 连续学习状态机，原地修改 s。
// today 是活动所属的日历日，now 用于冻结期计算。
func ApplyActivity(s *model.Streak, activity model.ActivityType, today, now time.Time, p StreakPolicy) Transition {
	var t Transition

	// 冻结到期自动解冻，从 1 开始恢复
	if s.IsFrozen && s.FreezeUntil != nil && now.After(*s.FreezeUntil) {
		s.IsFrozen = false
		s.FreezeUntil = nil
		s.CurrentStreak = 1
		t.Changed = true
		t.Advanced = true
	}

	// 冻结只拦截开始测验，完成测验照常按日期计算，冻结状态保持不变
	if s.IsFrozen && activity == model.ActivityQuizAttempt {
		t.Rejected = true
		t.Message = msgStreakFrozen
		return t
	}

	switch activity {
	case model.ActivityQuizCompleted:
		last := time.Time(s.LastActivityDate)
		if !last.IsZero() {
			diff := daysBetween(last, today)
			if diff == 0 {
				t.Message = msgAlreadyRecorded
				return t
			}
			if diff < 0 {
				t.Message = msgStaleActivity
				return t
			}
			if diff == 1 {
				s.CurrentStreak = min(s.CurrentStreak+1, p.Cap)
			} else {
				s.CurrentStreak = 1
			}
		} else {
			s.CurrentStreak = 1
		}
		s.MaxStreak = max(s.MaxStreak, s.CurrentStreak)
		s.LastActivityDate = datatypes.Date(civilDate(today))
		t.Changed = true
		t.Advanced = true

	case model.ActivityQuizMissed:
		s.CurrentStreak = max(0, s.CurrentStreak-1)
		if s.CurrentStreak == 0 {
			until := now.Add(p.FreezeDuration)
			s.IsFrozen = true
			s.FreezeUntil = &until
		}
		t.Changed = true

	case model.ActivityLearning:
		if s.IsFrozen {
			s.IsFrozen = false
			s.FreezeUntil = nil
			s.CurrentStreak = 1
			t.Changed = true
			t.Advanced = true
			t.Message = msgRecovered
		} else {
			t.Message = msgNothingToRecover
		}

	case model.ActivityQuizAttempt:
		t.Message = msgAttemptAllowed
	}

	if t.Message == "" {
		t.Message = streakMessage(s)
	}
	return t
}

func streakMessage(s *model.Streak) string {
	if s.IsFrozen {
		return "Streak frozen. Complete learning activities to recover."
	}
	return "Streak updated to " + strconv.Itoa(s.CurrentStreak)
}

// NewStreakSeed 首次查询时创建的初始记录
func NewStreakSeed(userID uint, today time.Time, p StreakPolicy) model.Streak {
	return model.Streak{
		UserID:           userID,
		CurrentStreak:    p.InitialStreak,
		MaxStreak:        p.InitialStreak,
		LastActivityDate: datatypes.Date(civilDate(today)),
	}
}
