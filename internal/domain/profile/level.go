// Package profile contains the user-profile context: the EcoUser aggregate
// with cumulative points, the derived level and unlocked milestones.
package profile

// Level is a gamification tier derived purely from total points.
// It is never stored independently of the rule: every write that changes
// total points recomputes the level.
type Level string

const (
	LevelSeedling    Level = "seedling"
	LevelSapling     Level = "sapling"
	LevelTree        Level = "tree"
	LevelAncientTree Level = "ancient_tree"
)

// levelThresholds are the minimum points per tier, ascending.
var levelThresholds = []struct {
	level     Level
	minPoints int64
}{
	{LevelSeedling, 0},
	{LevelSapling, 200},
	{LevelTree, 500},
	{LevelAncientTree, 1000},
}

// LevelFromPoints selects the highest tier whose threshold is <= points.
// Deterministic; negative totals map to the lowest tier.
func LevelFromPoints(points int64) Level {
	result := LevelSeedling
	for _, t := range levelThresholds {
		if points >= t.minPoints {
			result = t.level
		}
	}
	return result
}

// MinPoints returns the threshold of a level.
func (l Level) MinPoints() int64 {
	for _, t := range levelThresholds {
		if t.level == l {
			return t.minPoints
		}
	}
	return 0
}

// NextLevelAt returns the threshold of the tier above l, or 0 when l is
// already the highest tier.
func NextLevelAt(l Level) int64 {
	for i, t := range levelThresholds {
		if t.level == l && i+1 < len(levelThresholds) {
			return levelThresholds[i+1].minPoints
		}
	}
	return 0
}

// DisplayName returns a human-readable tier name.
func (l Level) DisplayName() string {
	switch l {
	case LevelSapling:
		return "Sapling"
	case LevelTree:
		return "Tree"
	case LevelAncientTree:
		return "Ancient Tree"
	default:
		return "Seedling"
	}
}
