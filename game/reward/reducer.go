package reward

import (
	"slices"
	"time"

	"github.com/kasuganosora/mathquest/game/badge"
	"github.com/kasuganosora/mathquest/game/clock"
	"github.com/kasuganosora/mathquest/game/progress"
	"github.com/kasuganosora/mathquest/game/scenario"
	"github.com/kasuganosora/mathquest/game/streak"
	"github.com/kasuganosora/mathquest/resource"
)

// rules is the read-only context a reducer needs besides the state itself.
type rules struct {
	modules  []*resource.LearningModule // personalized, in unlock order
	badges   []*resource.RewardBadge
	registry *badge.Registry
	known    func(badgeID string) bool
	today    string
}

// settle runs the shared tail of every reward event: points, streak, then
// badges against the fresh streak, then the event's own badge grant.
func settle(s State, earned int, snap progress.Snapshot, grant string, r rules) State {
	s.TotalPoints += earned
	p := streak.Evaluate(s.Profile, true, r.today)
	p.Badges = r.registry.Evaluate(badge.Stats{
		Profile:      p,
		PointsEarned: earned,
		TotalPoints:  s.TotalPoints,
		Progress:     snap,
	}, r.badges)
	p.Badges = badge.Merge(p.Badges, grant)
	s.Profile = p
	return s
}

// reduceModule records mod as completed and unlocks it together with the
// module after it. The returned module is the look-ahead unlock, nil at the
// end of the track.
func reduceModule(s State, mod *resource.LearningModule, r rules) (State, Status, *resource.LearningModule) {
	if slices.Contains(s.CompletedModules, mod.ID) {
		return s, StatusAlreadyDone, nil
	}
	s = s.clone()
	next := progress.NextAfter(r.modules, mod.ID)

	known := progress.IDs(r.modules)
	unlocked := make([]string, 0, len(s.Profile.UnlockedModules)+2)
	add := func(id string) {
		if slices.Contains(known, id) && !slices.Contains(unlocked, id) {
			unlocked = append(unlocked, id)
		}
	}
	for _, id := range s.Profile.UnlockedModules {
		add(id)
	}
	add(mod.ID)
	if next != nil {
		add(next.ID)
	}
	s.Profile.UnlockedModules = unlocked
	s.CompletedModules = append(s.CompletedModules, mod.ID)

	s = settle(s, mod.MiniGame.Reward.Points, progress.Compute(r.modules, unlocked), "", r)
	return s, StatusApplied, next
}

// reduceChallenge records ch in today's daily record and pays its full
// reward. A second completion on the same day pays nothing.
func reduceChallenge(s State, ch *resource.DailyChallenge, r rules) (State, Status) {
	if s.Daily.Done(r.today, ch.ID) {
		return s, StatusAlreadyDone
	}
	s = s.clone()
	s.Daily = s.Daily.With(r.today, ch.ID)
	snap := progress.Compute(r.modules, s.Profile.UnlockedModules)
	return settle(s, ch.Reward.Points, snap, "", r), StatusApplied
}

// reduceScenario marks the scenario complete and merges its fixed badge.
// A badge outside the known set is never granted.
func reduceScenario(s State, payload scenario.CompletionPayload, r rules) (State, Status) {
	if slices.Contains(s.CompletedScenarios, payload.ScenarioID) {
		return s, StatusAlreadyDone
	}
	s = s.clone()
	s.CompletedScenarios = append(s.CompletedScenarios, payload.ScenarioID)
	snap := progress.Compute(r.modules, s.Profile.UnlockedModules)
	grant := payload.Reward.BadgeID
	if !r.isKnown(grant) {
		grant = ""
	}
	return settle(s, payload.Reward.Points, snap, grant, r), StatusApplied
}

func (r rules) isKnown(badgeID string) bool {
	return badgeID != "" && r.known != nil && r.known(badgeID)
}

// knownBadges drops every id that fails known.
func knownBadges(ids []string, known func(string) bool) []string {
	return slices.DeleteFunc(slices.Clone(ids), func(id string) bool {
		return known == nil || !known(id)
	})
}

// refreshStreak is the idle evaluation applied whenever state is read. It
// only runs once a full day has been missed, so a learner who played
// yesterday keeps the streak alive until today ends.
func refreshStreak(s State, today string) (State, bool) {
	s.Daily = s.Daily.ForDay(today)
	last := clock.NormalizeDay(s.Profile.LastPlayed)
	if last == "" || last >= yesterday(today) {
		return s, false
	}
	p := streak.Evaluate(s.Profile, false, today)
	if p.Streak == s.Profile.Streak && p.LastPlayed == s.Profile.LastPlayed {
		return s, false
	}
	s = s.clone()
	s.Profile = p
	return s, true
}

func yesterday(today string) string {
	t, err := time.Parse(clock.DayLayout, today)
	if err != nil {
		return today
	}
	return t.AddDate(0, 0, -1).Format(clock.DayLayout)
}
