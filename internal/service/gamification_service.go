package service

import (
	"context"
	"learnquest_backend/internal/model"
	"learnquest_backend/internal/repository"
	"learnquest_backend/internal/util"
	"learnquest_backend/pkg/logger"
	"learnquest_backend/pkg/monitoring"
	"learnquest_backend/pkg/tracing"
	"strconv"
	"time"

	"go.uber.org/zap"
)

type quizStore interface {
	CreateWithProgress(ctx context.Context, result *model.QuizResult, candidate int, now time.Time) (*repository.RatchetResult, error)
	ListByUser(ctx context.Context, userID, moduleID uint) ([]model.QuizResult, error)
}

// GamificationService 请求处理层的统一入口。
// 主操作（测验、进度、连续学习）的存储错误直接返回，成就评估失败只记录日志。
type GamificationService struct {
	Progress     *ProgressService
	Streaks      *StreakService
	Achievements *AchievementService
	QuizRepo     quizStore
	Policy       *Policy

	now func() time.Time
}

func NewGamificationService(
	progress *ProgressService,
	streaks *StreakService,
	achievements *AchievementService,
	quizRepo quizStore,
	policy *Policy,
) *GamificationService {
	return &GamificationService{
		Progress:     progress,
		Streaks:      streaks,
		Achievements: achievements,
		QuizRepo:     quizRepo,
		Policy:       policy,
		now:          time.Now,
	}
}

// SetClock 替换所有引擎使用的时钟，测试用
func (s *GamificationService) SetClock(now func() time.Time) {
	s.now = now
	s.Progress.now = now
	s.Streaks.now = now
	s.Achievements.now = now
}

type QuizSubmission struct {
	UserID         uint
	ModuleID       uint
	Score          int
	TotalQuestions int
	TimeSpent      int
}

type QuizOutcome struct {
	QuizResultID         uint                `json:"quiz_result_id"`
	Passed               bool                `json:"passed"`
	Progress             *model.UserProgress `json:"progress"`
	IsNewlyCompleted     bool                `json:"is_newly_completed"`
	UnlockedAchievements []model.Achievement `json:"unlocked_achievements"`
}

type ProgressOutcome struct {
	Progress             *model.UserProgress `json:"progress"`
	IsNewlyCompleted     bool                `json:"is_newly_completed"`
	UnlockedAchievements []model.Achievement `json:"unlocked_achievements"`
}

// ActivityData 客户端随 check-achievements 上报的附加数据
type ActivityData struct {
	Score     *int `json:"score"`
	IsPerfect bool `json:"is_perfect"`
}

func (s *GamificationService) OnQuizSubmitted(ctx context.Context, sub QuizSubmission) (*QuizOutcome, error) {
	ctx, span := tracing.Tracer.Start(ctx, "GamificationService.OnQuizSubmitted")
	var err error
	defer func() { tracing.End(span, err) }()

	if err = validateIDs(sub.UserID, sub.ModuleID); err != nil {
		return nil, err
	}
	if err = validatePercent("score", sub.Score); err != nil {
		return nil, err
	}
	if sub.TotalQuestions < 0 || sub.TimeSpent < 0 {
		err = util.Invalidf("total_questions and time_spent must not be negative")
		return nil, err
	}
	if err = s.Progress.ensureModule(ctx, sub.ModuleID); err != nil {
		return nil, err
	}

	policy := s.Policy.Get()
	now := s.now()
	result := &model.QuizResult{
		UserID:         sub.UserID,
		ModuleID:       sub.ModuleID,
		Score:          sub.Score,
		TotalQuestions: sub.TotalQuestions,
		TimeSpent:      sub.TimeSpent,
		Passed:         sub.Score >= policy.PassThreshold,
		CompletedAt:    now,
	}
	candidate := CandidateCompletion(sub.Score, policy)

	// 测验记录与进度在同一事务内写入
	var res *repository.RatchetResult
	res, err = s.QuizRepo.CreateWithProgress(ctx, result, candidate, now)
	if err != nil {
		return nil, err
	}
	monitoring.QuizSubmissions.WithLabelValues(strconv.FormatBool(result.Passed)).Inc()
	update := recorded(sub.UserID, sub.ModuleID, candidate, res)

	score := sub.Score
	unlocked := s.evaluate(ctx, sub.UserID, TriggerContext{
		Activity:         model.ActivityQuizCompleted,
		Score:            &score,
		ModuleCompleted:  update.IsNewlyCompleted,
		CompletedModules: update.CompletedModules,
	})

	return &QuizOutcome{
		QuizResultID:         result.ID,
		Passed:               result.Passed,
		Progress:             update.Progress,
		IsNewlyCompleted:     update.IsNewlyCompleted,
		UnlockedAchievements: unlocked,
	}, nil
}

func (s *GamificationService) OnProgressUpdate(ctx context.Context, userID, moduleID uint, percentage int) (*ProgressOutcome, error) {
	update, err := s.Progress.SetProgress(ctx, userID, moduleID, percentage)
	if err != nil {
		return nil, err
	}

	unlocked := []model.Achievement{}
	if update.IsNewlyCompleted {
		unlocked = s.evaluate(ctx, userID, TriggerContext{
			Activity:         model.ActivityModuleCompleted,
			ModuleCompleted:  true,
			CompletedModules: update.CompletedModules,
		})
	}
	return &ProgressOutcome{
		Progress:             update.Progress,
		IsNewlyCompleted:     update.IsNewlyCompleted,
		UnlockedAchievements: unlocked,
	}, nil
}

func (s *GamificationService) OnDailyActivity(ctx context.Context, userID uint, activity model.ActivityType, today time.Time) (*StreakOutcome, error) {
	outcome, err := s.Streaks.ApplyActivity(ctx, userID, activity, today)
	if err != nil {
		return nil, err
	}
	if outcome.Advanced {
		current := outcome.Streak.CurrentStreak
		outcome.Unlocked = s.evaluate(ctx, userID, TriggerContext{
			Activity:      model.ActivityStreakUpdated,
			CurrentStreak: &current,
		})
	}
	return outcome, nil
}

// CheckAchievements 由客户端显式触发，评估失败时返回错误
func (s *GamificationService) CheckAchievements(ctx context.Context, userID uint, activity model.ActivityType, data ActivityData) ([]model.Achievement, error) {
	if userID == 0 {
		return nil, util.Invalidf("user_id is required")
	}
	if activity == "" {
		return nil, util.Invalidf("activity_type is required")
	}
	if data.Score != nil {
		if err := validatePercent("score", *data.Score); err != nil {
			return nil, err
		}
	}

	trigger := TriggerContext{
		Activity:        activity,
		Score:           data.Score,
		ModuleCompleted: activity == model.ActivityModuleCompleted,
	}
	if data.IsPerfect && trigger.Score == nil {
		perfect := 100
		trigger.Score = &perfect
	}
	return s.Achievements.Evaluate(ctx, userID, trigger)
}

func (s *GamificationService) ListQuizResults(ctx context.Context, userID, moduleID uint) ([]model.QuizResult, error) {
	if userID == 0 {
		return nil, util.Invalidf("user_id is required")
	}
	return s.QuizRepo.ListByUser(ctx, userID, moduleID)
}

// evaluate 主操作已经成功，成就评估失败不影响结果
func (s *GamificationService) evaluate(ctx context.Context, userID uint, trigger TriggerContext) []model.Achievement {
	unlocked, err := s.Achievements.Evaluate(ctx, userID, trigger)
	if err != nil {
		monitoring.AchievementEvaluationErrors.Inc()
		logger.Log.Warn("achievement evaluation failed",
			zap.Uint("user_id", userID),
			zap.String("trigger", string(trigger.Activity)),
			zap.Error(err))
		return []model.Achievement{}
	}
	return unlocked
}
