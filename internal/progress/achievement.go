package progress

// AchievementID names an unlockable milestone.
type AchievementID string

const (
	EndedBeforeStarted AchievementID = "ended_before_started"
	Chick              AchievementID = "chick"
	FlyTheNest         AchievementID = "fly_the_nest"
	ExperimentedFlier  AchievementID = "experimented_flier"
	KingOfTheSky       AchievementID = "king_of_the_sky"
)

// milestones are checked in order; the first exact match wins.
var milestones = []struct {
	score int
	id    AchievementID
}{
	{0, EndedBeforeStarted},
	{25, Chick},
	{50, FlyTheNest},
	{75, ExperimentedFlier},
	{100, KingOfTheSky},
}

// Achievements lists every achievement in milestone order.
func Achievements() []AchievementID {
	ids := make([]AchievementID, len(milestones))
	for i, m := range milestones {
		ids[i] = m.id
	}
	return ids
}

// Evaluate returns the achievement unlocked by finishing a run with exactly
// score points. Scores between milestones unlock nothing.
func Evaluate(score int) (AchievementID, bool) {
	for _, m := range milestones {
		if score == m.score {
			return m.id, true
		}
	}
	return "", false
}
