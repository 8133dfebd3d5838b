package progress

import "testing"

func TestEvaluateMilestones(t *testing.T) {
	tests := []struct {
		score    int
		expected AchievementID
	}{
		{0, EndedBeforeStarted},
		{25, Chick},
		{50, FlyTheNest},
		{75, ExperimentedFlier},
		{100, KingOfTheSky},
	}

	for _, tc := range tests {
		id, ok := Evaluate(tc.score)
		if !ok || id != tc.expected {
			t.Errorf("Evaluate(%d) = (%q, %v), expected %q", tc.score, id, ok, tc.expected)
		}
	}
}

func TestEvaluateNonMilestones(t *testing.T) {
	for _, score := range []int{1, 24, 26, 49, 51, 99, 101, 1000} {
		if id, ok := Evaluate(score); ok {
			t.Errorf("Evaluate(%d) unlocked %q, expected none", score, id)
		}
	}
}

func TestAchievementsOrder(t *testing.T) {
	ids := Achievements()
	if len(ids) != 5 || ids[0] != EndedBeforeStarted || ids[4] != KingOfTheSky {
		t.Errorf("Unexpected achievement list: %v", ids)
	}
}
