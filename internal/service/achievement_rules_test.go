package service

import (
	"learnquest_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func rule(id uint, criteria model.CriteriaType, value, points int) model.Achievement {
	return model.Achievement{ID: id, NameEn: string(criteria), CriteriaType: criteria, CriteriaValue: value, Points: points}
}

func TestQualifies(t *testing.T) {
	perfect := TriggerContext{Activity: model.ActivityQuizCompleted, Score: intPtr(100)}
	ninety := TriggerContext{Activity: model.ActivityQuizCompleted, Score: intPtr(90)}

	cases := []struct {
		name    string
		a       model.Achievement
		agg     Aggregates
		trigger TriggerContext
		want    bool
	}{
		{"modules below threshold", rule(1, model.CriteriaModulesCompleted, 3, 0), Aggregates{CompletedModules: 2}, ninety, false},
		{"modules at threshold", rule(1, model.CriteriaModulesCompleted, 3, 0), Aggregates{CompletedModules: 3}, ninety, true},
		{"perfect on perfect trigger", rule(2, model.CriteriaPerfectScores, 1, 0), Aggregates{}, perfect, true},
		{"perfect ignores history", rule(2, model.CriteriaPerfectScores, 1, 0), Aggregates{PerfectScores: 4}, ninety, false},
		{"perfect without score", rule(2, model.CriteriaPerfectScores, 1, 0), Aggregates{}, TriggerContext{Activity: model.ActivityModuleCompleted}, false},
		{"repeated perfect needs count", rule(2, model.CriteriaPerfectScores, 3, 0), Aggregates{PerfectScores: 2}, perfect, false},
		{"repeated perfect reached", rule(2, model.CriteriaPerfectScores, 3, 0), Aggregates{PerfectScores: 3}, perfect, true},
		{"streak", rule(3, model.CriteriaStreakDays, 5, 0), Aggregates{CurrentStreak: 5}, TriggerContext{}, true},
		{"streak short", rule(3, model.CriteriaStreakDays, 5, 0), Aggregates{CurrentStreak: 4}, TriggerContext{}, false},
		{"first quiz exact", rule(4, model.CriteriaQuizzesTaken, 1, 0), Aggregates{QuizzesTaken: 1}, ninety, true},
		{"first quiz later", rule(4, model.CriteriaQuizzesTaken, 1, 0), Aggregates{QuizzesTaken: 2}, ninety, false},
		{"quiz count threshold", rule(4, model.CriteriaQuizzesTaken, 10, 0), Aggregates{QuizzesTaken: 12}, ninety, true},
		{"passed threshold", rule(5, model.CriteriaQuizzesPassed, 5, 0), Aggregates{QuizzesPassed: 5}, ninety, true},
		{"passed short", rule(5, model.CriteriaQuizzesPassed, 5, 0), Aggregates{QuizzesPassed: 4}, ninety, false},
		{"unknown type", rule(6, model.CriteriaType("login_days"), 1, 0), Aggregates{}, ninety, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Qualifies(tc.a, tc.agg, tc.trigger))
		})
	}
}

func TestSelectUnlocks_SkipsPointRules(t *testing.T) {
	candidates := []model.Achievement{
		rule(1, model.CriteriaModulesCompleted, 1, 10),
		rule(2, model.CriteriaTotalPoints, 0, 5),
		rule(3, model.CriteriaStreakDays, 10, 30),
	}

	got := SelectUnlocks(candidates, Aggregates{CompletedModules: 1, CurrentStreak: 2, TotalPoints: 100}, TriggerContext{})
	assert.Len(t, got, 1)
	assert.Equal(t, uint(1), got[0].ID)
}

func TestSelectPointUnlocks_ChainsEarnedPoints(t *testing.T) {
	candidates := []model.Achievement{
		rule(10, model.CriteriaTotalPoints, 120, 0),
		rule(11, model.CriteriaTotalPoints, 50, 30),
		rule(12, model.CriteriaTotalPoints, 75, 40),
		rule(13, model.CriteriaModulesCompleted, 1, 10),
	}

	got := SelectPointUnlocks(candidates, 60)
	ids := make([]uint, 0, len(got))
	for _, a := range got {
		ids = append(ids, a.ID)
	}
	// 60 -> 50 解锁 (+30 = 90) -> 75 解锁 (+40 = 130) -> 120 解锁
	assert.Equal(t, []uint{11, 12, 10}, ids)

	assert.Empty(t, SelectPointUnlocks(candidates, 10))
}

func TestFilterUnearned(t *testing.T) {
	catalog := []model.Achievement{rule(1, model.CriteriaStreakDays, 1, 0), rule(2, model.CriteriaStreakDays, 2, 0), rule(3, model.CriteriaStreakDays, 3, 0)}

	got := filterUnearned(catalog, []uint{2})
	assert.Equal(t, []uint{1, 3}, []uint{got[0].ID, got[1].ID})
	assert.Len(t, got, 2)
}
