package service

import (
	"context"
	"learnquest_backend/internal/config"
	"learnquest_backend/internal/model"
	"learnquest_backend/internal/repository"
	"learnquest_backend/internal/util"
	"learnquest_backend/pkg/logger"
	"learnquest_backend/pkg/monitoring"
	"learnquest_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type progressStore interface {
	Ratchet(ctx context.Context, userID, moduleID uint, candidate int, now time.Time) (*repository.RatchetResult, error)
	ListByUser(ctx context.Context, userID uint) ([]model.ModuleProgress, error)
}

type moduleStore interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

type ProgressService struct {
	ProgressRepo progressStore
	ModuleRepo   moduleStore
	Policy       *Policy

	now func() time.Time
}

func NewProgressService(progressRepo progressStore, moduleRepo moduleStore, policy *Policy) *ProgressService {
	return &ProgressService{
		ProgressRepo: progressRepo,
		ModuleRepo:   moduleRepo,
		Policy:       policy,
		now:          time.Now,
	}
}

// ProgressUpdate 一次进度写入后的状态
type ProgressUpdate struct {
	Progress         *model.UserProgress `json:"progress"`
	IsNewlyCompleted bool                `json:"is_newly_completed"`
	// CompletedModules 仅在首次完成时由写入事务给出
	CompletedModules *int64 `json:"-"`
}

// CandidateCompletion 及格直接算完成，否则至少给部分分
func CandidateCompletion(score int, g config.GamificationConfig) int {
	if score >= g.PassThreshold {
		return 100
	}
	return max(g.PartialCreditFloor, score)
}

func validatePercent(name string, v int) error {
	if v < 0 || v > 100 {
		return util.Invalidf("%s must be within [0,100], got %d", name, v)
	}
	return nil
}

func validateIDs(userID, moduleID uint) error {
	if userID == 0 {
		return util.Invalidf("user_id is required")
	}
	if moduleID == 0 {
		return util.Invalidf("module_id is required")
	}
	return nil
}

// RecordQuizOutcome 把测验分数折算成模块完成度并写入
func (s *ProgressService) RecordQuizOutcome(ctx context.Context, userID, moduleID uint, score int) (*ProgressUpdate, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ProgressService.RecordQuizOutcome")
	var err error
	defer func() { tracing.End(span, err) }()

	if err = validateIDs(userID, moduleID); err != nil {
		return nil, err
	}
	if err = validatePercent("score", score); err != nil {
		return nil, err
	}
	if err = s.ensureModule(ctx, moduleID); err != nil {
		return nil, err
	}

	candidate := CandidateCompletion(score, s.Policy.Get())
	span.SetAttributes(attribute.Int("progress.candidate", candidate))

	var update *ProgressUpdate
	update, err = s.ratchet(ctx, userID, moduleID, candidate)
	return update, err
}

// SetProgress 非测验途径的进度更新，同样只增不减
func (s *ProgressService) SetProgress(ctx context.Context, userID, moduleID uint, percentage int) (*ProgressUpdate, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ProgressService.SetProgress")
	var err error
	defer func() { tracing.End(span, err) }()

	if err = validateIDs(userID, moduleID); err != nil {
		return nil, err
	}
	if err = validatePercent("completion_percentage", percentage); err != nil {
		return nil, err
	}
	if err = s.ensureModule(ctx, moduleID); err != nil {
		return nil, err
	}

	var update *ProgressUpdate
	update, err = s.ratchet(ctx, userID, moduleID, percentage)
	return update, err
}

func (s *ProgressService) ListUserProgress(ctx context.Context, userID uint) ([]model.ModuleProgress, error) {
	if userID == 0 {
		return nil, util.Invalidf("user_id is required")
	}
	return s.ProgressRepo.ListByUser(ctx, userID)
}

func (s *ProgressService) ensureModule(ctx context.Context, moduleID uint) error {
	ok, err := s.ModuleRepo.Exists(ctx, moduleID)
	if err != nil {
		return err
	}
	if !ok {
		return util.NotFoundf("module %d", moduleID)
	}
	return nil
}

func (s *ProgressService) ratchet(ctx context.Context, userID, moduleID uint, candidate int) (*ProgressUpdate, error) {
	res, err := s.ProgressRepo.Ratchet(ctx, userID, moduleID, candidate, s.now())
	if err != nil {
		return nil, err
	}
	return recorded(userID, moduleID, candidate, res), nil
}

func recorded(userID, moduleID uint, candidate int, res *repository.RatchetResult) *ProgressUpdate {
	newlyCompleted := res.NewlyCompleted()
	if newlyCompleted {
		monitoring.ProgressCompletions.Inc()
		logger.Log.Info("module completed",
			zap.Uint("user_id", userID),
			zap.Uint("module_id", moduleID))
	} else {
		logger.Log.Debug("progress recorded",
			zap.Uint("user_id", userID),
			zap.Uint("module_id", moduleID),
			zap.Int("candidate", candidate),
			zap.Int("completion", res.Progress.CompletionPercentage))
	}

	return &ProgressUpdate{
		Progress:         res.Progress,
		IsNewlyCompleted: newlyCompleted,
		CompletedModules: res.CompletedModules,
	}
}
