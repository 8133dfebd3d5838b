package progress

// BirdSpec is the static description of a roster slot.
type BirdSpec struct {
	Name  string
	Price int
	// InfoPills are ascending aggregated-score thresholds. Crossing one unlocks
	// the next hint of this bird.
	InfoPills []int
}

// UnlockedPills counts the hints unlocked at the given aggregated score.
func (b BirdSpec) UnlockedPills(aggregated int) int {
	n := 0
	for _, threshold := range b.InfoPills {
		if aggregated < threshold {
			break
		}
		n++
	}
	return n
}

// BirdRecord is the per-player state of one roster slot.
type BirdRecord struct {
	Purchased         bool
	AggregatedScore   int // lifetime score earned while this bird was active
	LastInfoPillShown int // number of hints already revealed
}
