package progress

import "github.com/shopspring/decimal"

// Default bonus bounds applied to the end-of-run reward.
const (
	MinBonusReward = 10
	MaxBonusReward = 100
)

// Rewards holds the clamp bounds of the "more reward" bonus.
type Rewards struct {
	MinBonus int
	MaxBonus int
}

// DefaultRewards returns the standard 10..100 bonus bounds.
func DefaultRewards() Rewards {
	return Rewards{MinBonus: MinBonusReward, MaxBonus: MaxBonusReward}
}

// ComputeReward converts a final score into coins: floor(score * multiplier).
// The product is computed in decimal so multipliers like 0.29 do not lose a
// coin to binary rounding.
func ComputeReward(score int, multiplier float64) int {
	if score <= 0 || multiplier <= 0 {
		return 0
	}
	product := decimal.NewFromInt(int64(score)).Mul(decimal.NewFromFloat(multiplier))
	return int(product.Floor().IntPart())
}

// Bonus clamps reward into [MinBonus, MaxBonus]. A zero reward still yields
// MinBonus.
func (r Rewards) Bonus(reward int) int {
	if reward < r.MinBonus {
		return r.MinBonus
	}
	if reward > r.MaxBonus {
		return r.MaxBonus
	}
	return reward
}

// ComputeBonusReward clamps reward with the default bounds.
func ComputeBonusReward(reward int) int {
	return DefaultRewards().Bonus(reward)
}
