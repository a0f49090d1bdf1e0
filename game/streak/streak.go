// Package streak owns every mutation of a profile's daily streak.
package streak

import (
	"github.com/kasuganosora/mathquest/game/clock"
	"github.com/kasuganosora/mathquest/game/profile"
)

// Evaluate returns a copy of p with streak and lastPlayed updated for today.
//
// Completing something on a new day extends the streak by one; a second
// completion on the same day changes nothing. An idle evaluation on any day
// other than lastPlayed breaks the streak.
func Evaluate(p *profile.UserProfile, completedToday bool, today string) *profile.UserProfile {
	out := p.Clone()
	today = clock.NormalizeDay(today)
	last := clock.NormalizeDay(p.LastPlayed)

	if !completedToday {
		if last != "" && last != today {
			out.Streak = 0
		}
		out.LastPlayed = last
		return out
	}

	if last != today {
		out.Streak = p.Streak + 1
	}
	out.LastPlayed = today
	return out
}
