package service

import (
	"context"
	"learnquest_backend/internal/model"
	"learnquest_backend/internal/util"
	"learnquest_backend/pkg/logger"
	"learnquest_backend/pkg/monitoring"
	"learnquest_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type streakStore interface {
	GetOrCreate(ctx context.Context, seed model.Streak) (*model.Streak, error)
	Transition(ctx context.Context, seed model.Streak, apply func(s *model.Streak) bool) (*model.Streak, error)
}

type StreakService struct {
	StreakRepo streakStore
	Policy     *Policy

	now func() time.Time
}

func NewStreakService(streakRepo streakStore, policy *Policy) *StreakService {
	return &StreakService{StreakRepo: streakRepo, Policy: policy, now: time.Now}
}

// StreakOutcome 一次活动处理后的结果
type StreakOutcome struct {
	Streak   *model.Streak       `json:"streak"`
	Success  bool                `json:"success"`
	Message  string              `json:"message"`
	Advanced bool                `json:"-"`
	Unlocked []model.Achievement `json:"unlocked_achievements"`
}

// GetStreak 首次查询时按初始值创建记录
func (s *StreakService) GetStreak(ctx context.Context, userID uint) (*model.Streak, error) {
	if userID == 0 {
		return nil, util.Invalidf("user_id is required")
	}
	now := s.now()
	seed := NewStreakSeed(userID, now, streakPolicyFrom(s.Policy.Get()))
	return s.StreakRepo.GetOrCreate(ctx, seed)
}

// ApplyActivity today 为零值时使用当前日期
func (s *StreakService) ApplyActivity(ctx context.Context, userID uint, activity model.ActivityType, today time.Time) (*StreakOutcome, error) {
	ctx, span := tracing.Tracer.Start(ctx, "StreakService.ApplyActivity")
	var err error
	defer func() { tracing.End(span, err) }()
	span.SetAttributes(attribute.String("streak.activity", string(activity)))

	if userID == 0 {
		err = util.Invalidf("user_id is required")
		return nil, err
	}
	if !activity.IsStreakActivity() {
		err = util.Invalidf("unsupported activity_type %q", activity)
		return nil, err
	}

	now := s.now()
	if today.IsZero() {
		today = now
	}
	policy := streakPolicyFrom(s.Policy.Get())
	seed := NewStreakSeed(userID, today, policy)

	var result Transition
	var streak *model.Streak
	streak, err = s.StreakRepo.Transition(ctx, seed, func(row *model.Streak) bool {
		result = ApplyActivity(row, activity, today, now, policy)
		return result.Changed
	})
	if err != nil {
		return nil, err
	}

	monitoring.StreakTransitions.WithLabelValues(string(activity), transitionOutcome(result)).Inc()
	logger.Log.Debug("streak activity applied",
		zap.Uint("user_id", userID),
		zap.String("activity", string(activity)),
		zap.Int("current_streak", streak.CurrentStreak),
		zap.Bool("is_frozen", streak.IsFrozen),
		zap.Bool("rejected", result.Rejected))

	return &StreakOutcome{
		Streak:   streak,
		Success:  !result.Rejected,
		Message:  result.Message,
		Advanced: result.Advanced,
		Unlocked: []model.Achievement{},
	}, nil
}

func transitionOutcome(t Transition) string {
	switch {
	case t.Rejected:
		return "rejected"
	case t.Changed:
		return "changed"
	default:
		return "unchanged"
	}
}
