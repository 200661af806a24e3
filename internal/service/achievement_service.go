package service

import (
	"context"
	"errors"
	"learnquest_backend/internal/model"
	"learnquest_backend/internal/util"
	"learnquest_backend/pkg/logger"
	"learnquest_backend/pkg/monitoring"
	"learnquest_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type catalogReader interface {
	ListActive(ctx context.Context, criteria model.CriteriaType) ([]model.Achievement, error)
}

type achievementStore interface {
	EarnedIDs(ctx context.Context, userID uint) ([]uint, error)
	FindByID(ctx context.Context, id uint) (*model.Achievement, error)
	Unlock(ctx context.Context, userID, achievementID uint, at time.Time) (*model.UserAchievement, error)
	ListUserAchievements(ctx context.Context, userID uint) ([]model.EarnedAchievement, error)
	SumEarnedPoints(ctx context.Context, userID uint) (int64, error)
}

type quizCounter interface {
	CountByUser(ctx context.Context, userID uint) (int64, error)
	CountPassedByUser(ctx context.Context, userID uint) (int64, error)
	CountPerfectByUser(ctx context.Context, userID uint) (int64, error)
}

type completionCounter interface {
	CountCompleted(ctx context.Context, userID uint) (int64, error)
}

type streakReader interface {
	FindByUser(ctx context.Context, userID uint) (*model.Streak, error)
}

// AchievementService 成就评估：一次取出未获得的候选成就和所需汇总数据，在内存中判断后逐个解锁
type AchievementService struct {
	AchievementRepo achievementStore
	Catalog         catalogReader
	QuizRepo        quizCounter
	ProgressRepo    completionCounter
	StreakRepo      streakReader

	now func() time.Time
}

func NewAchievementService(
	achievementRepo achievementStore,
	catalog catalogReader,
	quizRepo quizCounter,
	progressRepo completionCounter,
	streakRepo streakReader,
) *AchievementService {
	return &AchievementService{
		AchievementRepo: achievementRepo,
		Catalog:         catalog,
		QuizRepo:        quizRepo,
		ProgressRepo:    progressRepo,
		StreakRepo:      streakRepo,
		now:             time.Now,
	}
}

// Evaluate 返回本次新解锁的成就。
// 只有候选集本身读取失败才返回错误，单个规则或解锁失败会记录日志后跳过。
func (s *AchievementService) Evaluate(ctx context.Context, userID uint, trigger TriggerContext) ([]model.Achievement, error) {
	ctx, span := tracing.Tracer.Start(ctx, "AchievementService.Evaluate")
	var err error
	defer func() { tracing.End(span, err) }()
	span.SetAttributes(attribute.String("achievement.trigger", string(trigger.Activity)))

	unlocked := []model.Achievement{}

	var earned []uint
	earned, err = s.AchievementRepo.EarnedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	var catalog []model.Achievement
	catalog, err = s.Catalog.ListActive(ctx, "")
	if err != nil {
		return nil, err
	}

	candidates := filterUnearned(catalog, earned)
	if len(candidates) == 0 {
		return unlocked, nil
	}

	agg, failed := s.loadAggregates(ctx, userID, neededCriteria(candidates), trigger)
	for criteria, cerr := range failed {
		monitoring.AchievementEvaluationErrors.Inc()
		logger.Log.Warn("skip achievement criteria",
			zap.Uint("user_id", userID),
			zap.String("criteria_type", string(criteria)),
			zap.Error(cerr))
	}

	usable := candidates[:0:0]
	for _, a := range candidates {
		if _, bad := failed[a.CriteriaType]; !bad {
			usable = append(usable, a)
		}
	}

	now := s.now()
	for _, a := range SelectUnlocks(usable, agg, trigger) {
		if s.unlock(ctx, userID, a, now) {
			unlocked = append(unlocked, a)
		}
	}

	points := agg.TotalPoints
	for _, a := range unlocked {
		points += int64(a.Points)
	}
	remaining := usable
	for {
		next := SelectPointUnlocks(remaining, points)
		if len(next) == 0 {
			break
		}
		a := next[0]
		remaining = removeAchievement(remaining, a.ID)
		if s.unlock(ctx, userID, a, now) {
			unlocked = append(unlocked, a)
			points += int64(a.Points)
		}
	}

	span.SetAttributes(attribute.Int("achievement.unlocked", len(unlocked)))
	return unlocked, nil
}

func (s *AchievementService) loadAggregates(ctx context.Context, userID uint, need map[model.CriteriaType]bool, t TriggerContext) (Aggregates, map[model.CriteriaType]error) {
	var agg Aggregates
	failed := map[model.CriteriaType]error{}

	if need[model.CriteriaModulesCompleted] {
		if n, ok := t.completedModules(); ok {
			agg.CompletedModules = n
		} else if n, err := s.ProgressRepo.CountCompleted(ctx, userID); err != nil {
			failed[model.CriteriaModulesCompleted] = err
		} else {
			agg.CompletedModules = n
		}
	}

	if need[model.CriteriaQuizzesTaken] {
		if n, err := s.QuizRepo.CountByUser(ctx, userID); err != nil {
			failed[model.CriteriaQuizzesTaken] = err
		} else {
			agg.QuizzesTaken = n
		}
	}

	if need[model.CriteriaQuizzesPassed] {
		if n, err := s.QuizRepo.CountPassedByUser(ctx, userID); err != nil {
			failed[model.CriteriaQuizzesPassed] = err
		} else {
			agg.QuizzesPassed = n
		}
	}

	// 非满分事件不会解锁满分成就，无需查询历史
	if need[model.CriteriaPerfectScores] && t.PerfectScore() {
		if n, err := s.QuizRepo.CountPerfectByUser(ctx, userID); err != nil {
			failed[model.CriteriaPerfectScores] = err
		} else {
			agg.PerfectScores = n
		}
	}

	if need[model.CriteriaStreakDays] {
		if t.CurrentStreak != nil {
			agg.CurrentStreak = *t.CurrentStreak
		} else if st, err := s.StreakRepo.FindByUser(ctx, userID); err != nil {
			failed[model.CriteriaStreakDays] = err
		} else if st != nil {
			agg.CurrentStreak = st.CurrentStreak
		}
	}

	if need[model.CriteriaTotalPoints] {
		if n, err := s.AchievementRepo.SumEarnedPoints(ctx, userID); err != nil {
			failed[model.CriteriaTotalPoints] = err
		} else {
			agg.TotalPoints = n
		}
	}

	return agg, failed
}

// unlock 已获得视为正常情况，其他错误记录后跳过
func (s *AchievementService) unlock(ctx context.Context, userID uint, a model.Achievement, at time.Time) bool {
	_, err := s.AchievementRepo.Unlock(ctx, userID, a.ID, at)
	if errors.Is(err, util.ErrAlreadyEarned) {
		logger.Log.Debug("achievement already earned",
			zap.Uint("user_id", userID),
			zap.Uint("achievement_id", a.ID))
		return false
	}
	if err != nil {
		monitoring.AchievementEvaluationErrors.Inc()
		logger.Log.Warn("unlock achievement failed",
			zap.Uint("user_id", userID),
			zap.Uint("achievement_id", a.ID),
			zap.Error(err))
		return false
	}

	monitoring.AchievementsUnlocked.WithLabelValues(string(a.CriteriaType)).Inc()
	logger.Log.Info("achievement unlocked",
		zap.Uint("user_id", userID),
		zap.Uint("achievement_id", a.ID),
		zap.String("name", a.NameEn))
	return true
}

// ManualUnlock 直接授予指定成就，重复授予时 alreadyEarned 为 true
func (s *AchievementService) ManualUnlock(ctx context.Context, userID, achievementID uint) (achievement *model.Achievement, alreadyEarned bool, err error) {
	if userID == 0 || achievementID == 0 {
		return nil, false, util.Invalidf("user_id and achievement_id are required")
	}
	achievement, err = s.AchievementRepo.FindByID(ctx, achievementID)
	if err != nil {
		return nil, false, err
	}
	if achievement == nil {
		return nil, false, util.NotFoundf("achievement %d", achievementID)
	}

	_, err = s.AchievementRepo.Unlock(ctx, userID, achievementID, s.now())
	if errors.Is(err, util.ErrAlreadyEarned) {
		return achievement, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	monitoring.AchievementsUnlocked.WithLabelValues(string(achievement.CriteriaType)).Inc()
	return achievement, false, nil
}

func (s *AchievementService) ListCatalog(ctx context.Context) ([]model.Achievement, error) {
	return s.Catalog.ListActive(ctx, "")
}

type catalogInvalidator interface {
	Invalidate(ctx context.Context) error
}

// RefreshCatalog 管理端修改成就目录后清除缓存
func (s *AchievementService) RefreshCatalog(ctx context.Context) error {
	inv, ok := s.Catalog.(catalogInvalidator)
	if !ok {
		return nil
	}
	return inv.Invalidate(ctx)
}

func (s *AchievementService) ListUserAchievements(ctx context.Context, userID uint) ([]model.EarnedAchievement, error) {
	if userID == 0 {
		return nil, util.Invalidf("user_id is required")
	}
	return s.AchievementRepo.ListUserAchievements(ctx, userID)
}

func removeAchievement(list []model.Achievement, id uint) []model.Achievement {
	out := list[:0:0]
	for _, a := range list {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}
