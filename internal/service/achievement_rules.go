package service

import (
	"learnquest_backend/internal/model"
	"sort"
)

// TriggerContext 触发本次成就检查的事件，调用方已知的计数可直接带上以省去查询
type TriggerContext struct {
	Activity model.ActivityType
	// Score 触发事件的测验分数，非测验事件为 nil
	Score *int
	// ModuleCompleted 本次事件让某个模块首次完成，此时 CompletedModules 为写入事务内的计数
	ModuleCompleted  bool
	CompletedModules *int64
	CurrentStreak    *int
}

// completedModules 只有模块刚完成且带了计数时才采用调用方的值
func (t TriggerContext) completedModules() (int64, bool) {
	if !t.ModuleCompleted || t.CompletedModules == nil {
		return 0, false
	}
	return *t.CompletedModules, true
}

// PerfectScore 满分只看本次测验，不回溯历史
func (t TriggerContext) PerfectScore() bool {
	return t.Score != nil && *t.Score == 100
}

// Aggregates 规则判断所需的用户汇总数据
type Aggregates struct {
	CompletedModules int64
	QuizzesTaken     int64
	QuizzesPassed    int64
	PerfectScores    int64
	CurrentStreak    int
	TotalPoints      int64
}

// Qualifies 判断单个成就是否达成，total_points 由 SelectPointUnlocks 处理
func Qualifies(a model.Achievement, agg Aggregates, t TriggerContext) bool {
	v := int64(a.CriteriaValue)
	switch a.CriteriaType {
	case model.CriteriaModulesCompleted:
		return agg.CompletedModules >= v
	case model.CriteriaPerfectScores:
		if !t.PerfectScore() {
			return false
		}
		return v <= 1 || agg.PerfectScores >= v
	case model.CriteriaStreakDays:
		return int64(agg.CurrentStreak) >= v
	case model.CriteriaQuizzesTaken:
		// 首次测验类成就要求恰好一次
		if v == 1 {
			return agg.QuizzesTaken == 1
		}
		return agg.QuizzesTaken >= v
	case model.CriteriaQuizzesPassed:
		return agg.QuizzesPassed >= v
	case model.CriteriaTotalPoints:
		return agg.TotalPoints >= v
	}
	return false
}

// SelectUnlocks 返回除 total_points 外所有达成的候选成就，保持输入顺序
func SelectUnlocks(candidates []model.Achievement, agg Aggregates, t TriggerContext) []model.Achievement {
	var out []model.Achievement
	for _, a := range candidates {
		if a.CriteriaType == model.CriteriaTotalPoints {
			continue
		}
		if Qualifies(a, agg, t) {
			out = append(out, a)
		}
	}
	return out
}

// SelectPointUnlocks 积分类成就按阈值从低到高解锁，解锁获得的积分计入后续判断
func SelectPointUnlocks(candidates []model.Achievement, points int64) []model.Achievement {
	var pending []model.Achievement
	for _, a := range candidates {
		if a.CriteriaType == model.CriteriaTotalPoints {
			pending = append(pending, a)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CriteriaValue < pending[j].CriteriaValue
	})

	var out []model.Achievement
	for _, a := range pending {
		if points < int64(a.CriteriaValue) {
			break
		}
		out = append(out, a)
		points += int64(a.Points)
	}
	return out
}

// neededCriteria 候选集中出现的规则类型，只为这些类型加载汇总数据
func neededCriteria(candidates []model.Achievement) map[model.CriteriaType]bool {
	need := make(map[model.CriteriaType]bool, len(candidates))
	for _, a := range candidates {
		need[a.CriteriaType] = true
	}
	return need
}

func filterUnearned(catalog []model.Achievement, earned []uint) []model.Achievement {
	have := make(map[uint]struct{}, len(earned))
	for _, id := range earned {
		have[id] = struct{}{}
	}
	out := make([]model.Achievement, 0, len(catalog))
	for _, a := range catalog {
		if _, ok := have[a.ID]; !ok {
			out = append(out, a)
		}
	}
	return out
}
