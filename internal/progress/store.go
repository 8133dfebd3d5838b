package progress

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownBird       = errors.New("progress: unknown bird")
	ErrBirdNotPurchased  = errors.New("progress: bird not purchased")
	ErrAlreadyPurchased  = errors.New("progress: bird already purchased")
	ErrInsufficientCoins = errors.New("progress: not enough coins")
	ErrNegativeAmount    = errors.New("progress: negative amount")
	ErrUnknownDifficulty = errors.New("progress: unknown difficulty")
	ErrRosterMismatch    = errors.New("progress: roster size mismatch")
)

// Store is the in-memory record of a player's progression. It is not safe
// for concurrent use; the session machine is its single writer.
type Store struct {
	roster     []BirdSpec
	difficulty Difficulty
	records    map[Difficulty]int
	coins      int
	current    int
	birds      []BirdRecord
}

// NewStore creates the install-time state for the given roster: no records,
// no coins, the first bird owned and selected.
func NewStore(roster []BirdSpec) *Store {
	s := &Store{
		roster:  append([]BirdSpec(nil), roster...),
		records: make(map[Difficulty]int, len(Difficulties)),
		birds:   make([]BirdRecord, len(roster)),
	}
	if len(s.birds) > 0 {
		s.birds[0].Purchased = true
	}
	return s
}

// Len returns the roster size.
func (s *Store) Len() int { return len(s.birds) }

// Spec returns the static description of bird index.
func (s *Store) Spec(index int) (BirdSpec, error) {
	if index < 0 || index >= len(s.roster) {
		return BirdSpec{}, fmt.Errorf("%w: %d", ErrUnknownBird, index)
	}
	return s.roster[index], nil
}

func (s *Store) Difficulty() Difficulty { return s.difficulty }

// SetDifficulty switches the active level.
func (s *Store) SetDifficulty(d Difficulty) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownDifficulty, int(d))
	}
	s.difficulty = d
	return nil
}

// Record returns the high score of d.
func (s *Store) Record(d Difficulty) int { return s.records[d] }

// UpdateRecord raises the record of d to score when it is higher.
func (s *Store) UpdateRecord(d Difficulty, score int) (record int, newRecord bool) {
	existing := s.records[d]
	if score > existing {
		s.records[d] = score
		return score, true
	}
	return existing, false
}

// ReconcileRecord merges an authoritative remote value into the record of d.
func (s *Store) ReconcileRecord(d Difficulty, remote int) int {
	if remote > s.records[d] {
		s.records[d] = remote
	}
	return s.records[d]
}

func (s *Store) Coins() int { return s.coins }

// Credit adds amount coins.
func (s *Store) Credit(amount int) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeAmount, amount)
	}
	s.coins += amount
	return nil
}

// Purchase debits the price of bird index and marks it owned. On
// ErrInsufficientCoins nothing changes.
func (s *Store) Purchase(index int) error {
	spec, err := s.Spec(index)
	if err != nil {
		return err
	}
	if s.birds[index].Purchased {
		return fmt.Errorf("%w: %d", ErrAlreadyPurchased, index)
	}
	if s.coins < spec.Price {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientCoins, s.coins, spec.Price)
	}
	s.coins -= spec.Price
	s.birds[index].Purchased = true
	return nil
}

func (s *Store) CurrentBird() int { return s.current }

// SelectBird makes bird index the active one.
func (s *Store) SelectBird(index int) error {
	b, err := s.Bird(index)
	if err != nil {
		return err
	}
	if !b.Purchased {
		return fmt.Errorf("%w: %d", ErrBirdNotPurchased, index)
	}
	s.current = index
	return nil
}

// Bird returns a copy of the record of bird index.
func (s *Store) Bird(index int) (BirdRecord, error) {
	if index < 0 || index >= len(s.birds) {
		return BirdRecord{}, fmt.Errorf("%w: %d", ErrUnknownBird, index)
	}
	return s.birds[index], nil
}

// Birds returns a copy of every bird record in roster order.
func (s *Store) Birds() []BirdRecord {
	return append([]BirdRecord(nil), s.birds...)
}

// AddAggregatedScore credits score to the lifetime total of bird index.
func (s *Store) AddAggregatedScore(index, score int) error {
	if score < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeAmount, score)
	}
	if _, err := s.Bird(index); err != nil {
		return err
	}
	s.birds[index].AggregatedScore += score
	return nil
}

// RevealInfoPills returns how many hints of bird index become visible once
// score is added to its aggregated total, and marks them as shown.
func (s *Store) RevealInfoPills(index, score int) (int, error) {
	spec, err := s.Spec(index)
	if err != nil {
		return 0, err
	}
	b := &s.birds[index]
	unlocked := spec.UnlockedPills(b.AggregatedScore + score)
	n := unlocked - b.LastInfoPillShown
	if n <= 0 {
		return 0, nil
	}
	b.LastInfoPillShown = unlocked
	return n, nil
}

// SyncInfoPillMarker recomputes the shown-hint marker of bird index from its
// aggregated score. The marker is not persisted, so hints already earned in a
// restored save are treated as seen.
func (s *Store) SyncInfoPillMarker(index int) (int, error) {
	spec, err := s.Spec(index)
	if err != nil {
		return 0, err
	}
	b := &s.birds[index]
	if unlocked := spec.UnlockedPills(b.AggregatedScore); unlocked > b.LastInfoPillShown {
		b.LastInfoPillShown = unlocked
	}
	return b.LastInfoPillShown, nil
}

// Snapshot copies the persisted part of the store.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Difficulty:       s.difficulty,
		EasyRecord:       s.records[Easy],
		NormalRecord:     s.records[Normal],
		HardRecord:       s.records[Hard],
		Coins:            s.coins,
		CurrentBird:      s.current,
		Purchased:        make([]bool, len(s.birds)),
		AggregatedScores: make([]int, len(s.birds)),
	}
	for i, b := range s.birds {
		snap.Purchased[i] = b.Purchased
		snap.AggregatedScores[i] = b.AggregatedScore
	}
	return snap
}

// Restore replaces the persisted state with snap. Either the whole snapshot
// is applied or, on error, nothing is. A current bird that is out of range or
// not owned falls back to the first owned bird.
func (s *Store) Restore(snap Snapshot) error {
	if err := snap.Validate(len(s.birds)); err != nil {
		return err
	}

	birds := make([]BirdRecord, len(s.birds))
	for i := range birds {
		birds[i] = BirdRecord{
			Purchased:       snap.Purchased[i],
			AggregatedScore: snap.AggregatedScores[i],
		}
	}
	if len(birds) > 0 {
		// The starter bird is free and always owned.
		birds[0].Purchased = true
	}

	current := snap.CurrentBird
	if current < 0 || current >= len(birds) || !birds[current].Purchased {
		current = 0
	}

	s.difficulty = snap.Difficulty
	s.records = map[Difficulty]int{
		Easy:   snap.EasyRecord,
		Normal: snap.NormalRecord,
		Hard:   snap.HardRecord,
	}
	s.coins = snap.Coins
	s.current = current
	s.birds = birds
	return nil
}
