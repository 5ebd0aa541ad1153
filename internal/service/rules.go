// Package service contains the game's business logic: the contribution
// ledger, the discovery engine, and the feeding engine.
//
// The layering follows handler → service → repository. Services receive
// repository interfaces and upstream clients as interfaces, know nothing
// about HTTP, and return typed apperror values the handlers translate to
// status codes.
package service

// This file holds the balance-affecting game rules. The numbers are the
// product, not tunables — changing any of them changes every player's
// economy, so they live in one place with their tests next door.

const (
	// MinDiscoverCost is the minimum grass power a discovery ritual
	// costs, and the minimum balance required to attempt one.
	MinDiscoverCost = 10

	// DefaultFeedAmount is used when a feed request omits feed_amount.
	DefaultFeedAmount = 10

	// MaxAffection caps the 0–100 intimacy score.
	MaxAffection = 100

	// MaxLevel is the top of the level bands.
	MaxLevel = 5
)

// RewardForCount maps a daily contribution count to a grass power reward.
//
// The step function is intentionally discontinuous at tier boundaries
// (2 contributions pay 10, 3 pay 24): each tier multiplies the WHOLE
// count, not just the portion above the boundary. Do not smooth it.
func RewardForCount(count int) int {
	switch {
	case count <= 0:
		return 0
	case count <= 2:
		return count * 5
	case count <= 5:
		return count * 8
	case count <= 10:
		return count * 12
	case count <= 20:
		return count * 15
	default:
		return count * 20
	}
}

// LevelForAffection maps affection to a level via fixed bands:
// [0–19]→1, [20–39]→2, [40–59]→3, [60–79]→4, [80–100]→5.
// It is a pure, non-decreasing function of affection.
func LevelForAffection(affection int) int {
	switch {
	case affection < 20:
		return 1
	case affection < 40:
		return 2
	case affection < 60:
		return 3
	case affection < 80:
		return 4
	default:
		return MaxLevel
	}
}

// affectionGain computes how much affection one feeding grants.
//
// base = floor(amount/5); higher levels eat less efficiently
// (penalty = level × 0.1, applied before the floor); but feeding always
// grants at least 1 point, however high the level.
func affectionGain(amount, level int) int {
	base := amount / 5
	gain := int(float64(base) - float64(level)*0.1)
	if gain < 1 {
		return 1
	}
	return gain
}

// discoverCost is the ritual price for a species: its unlock threshold,
// floored at the minimum ritual cost.
func discoverCost(threshold int) int {
	if threshold < MinDiscoverCost {
		return MinDiscoverCost
	}
	return threshold
}
