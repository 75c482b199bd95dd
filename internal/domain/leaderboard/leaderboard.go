// Package leaderboard contains the read-side ranking over gamification
// state. It never mutates anything; rank is recomputed from profiles on
// every query.
package leaderboard

import (
	"sort"

	"github.com/michi-haensler/EcoTrack/internal/domain/profile"
	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

// Scope selects which users a leaderboard covers.
// The zero value is the global scope.
type Scope struct {
	ClassID shared.ClassID // empty = all users
}

// ScopeGlobal is the leaderboard over all users.
var ScopeGlobal = Scope{}

// ScopeClass scopes the leaderboard to one class.
func ScopeClass(classID shared.ClassID) Scope {
	return Scope{ClassID: classID}
}

// IsGlobal reports whether the scope covers all users.
func (s Scope) IsGlobal() bool { return s.ClassID == "" }

// Entry is one ranked row.
type Entry struct {
	Rank        int              `json:"rank"`
	EcoUserID   shared.EcoUserID `json:"eco_user_id"`
	UserID      shared.UserID    `json:"user_id"`
	ClassID     shared.ClassID   `json:"class_id,omitempty"`
	TotalPoints int64            `json:"total_points"`
	Level       string           `json:"level"`
}

// Rank orders users by total points descending with ID ascending as the
// stable tiebreak, assigns 1-based sequential positions and truncates to
// limit. Tied scores get distinct sequential ranks (not dense ranking), so
// re-running the query over unchanged data yields the identical order.
func Rank(users []*profile.EcoUser, limit int) []Entry {
	sorted := make([]*profile.EcoUser, len(users))
	copy(sorted, users)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TotalPoints != sorted[j].TotalPoints {
			return sorted[i].TotalPoints > sorted[j].TotalPoints
		}
		return sorted[i].ID < sorted[j].ID
	})

	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}

	entries := make([]Entry, len(sorted))
	for i, u := range sorted {
		entries[i] = Entry{
			Rank:        i + 1,
			EcoUserID:   u.ID,
			UserID:      u.UserID,
			ClassID:     u.ClassID,
			TotalPoints: u.TotalPoints,
			Level:       u.Level.DisplayName(),
		}
	}
	return entries
}
