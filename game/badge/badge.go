// Package badge evaluates threshold badges through a registry of predicates,
// so new badge kinds are added without touching the reward flow.
package badge

import (
	"slices"
	"sync"

	"github.com/kasuganosora/mathquest/game/profile"
	"github.com/kasuganosora/mathquest/game/progress"
	"github.com/kasuganosora/mathquest/resource"
)

const (
	HabitStreaker = "habit-streaker"
	ComboMaster   = "combo-master"
	Explorer      = "explorer"
)

// Stats is everything a predicate may look at. Profile already carries the
// streak computed for the current event.
type Stats struct {
	Profile      *profile.UserProfile
	PointsEarned int
	TotalPoints  int
	Progress     progress.Snapshot
}

// Predicate reports whether stats clear threshold.
type Predicate func(stats Stats, threshold int) bool

// Registry maps badge id to its unlock predicate.
type Registry struct {
	mu    sync.RWMutex
	preds map[string]Predicate
}

// NewRegistry returns a registry with the built-in badges registered.
func NewRegistry() *Registry {
	r := &Registry{preds: make(map[string]Predicate)}
	r.Register(HabitStreaker, func(s Stats, threshold int) bool {
		return s.Profile.Streak >= threshold
	})
	r.Register(ComboMaster, func(s Stats, threshold int) bool {
		return s.PointsEarned >= threshold
	})
	r.Register(Explorer, func(s Stats, threshold int) bool {
		return s.Progress.UnlockedCount >= threshold
	})
	return r
}

// Register adds or replaces the predicate for id.
func (r *Registry) Register(id string, pred Predicate) {
	r.mu.Lock()
	r.preds[id] = pred
	r.mu.Unlock()
}

func (r *Registry) lookup(id string) (Predicate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.preds[id]
	return p, ok
}

// Evaluate returns the profile's badges plus any catalog badge whose
// predicate now holds. Existing badges are kept in order; new ones follow in
// catalog order. Badges without a registered predicate never auto-unlock.
func (r *Registry) Evaluate(stats Stats, catalog []*resource.RewardBadge) []string {
	out := slices.Clone(stats.Profile.Badges)
	if out == nil {
		out = []string{}
	}
	for _, b := range catalog {
		if slices.Contains(out, b.ID) {
			continue
		}
		pred, ok := r.lookup(b.ID)
		if ok && pred(stats, b.Threshold) {
			out = append(out, b.ID)
		}
	}
	return out
}

// Newly returns the ids in after that are missing from before.
func Newly(before, after []string) []string {
	var out []string
	for _, id := range after {
		if !slices.Contains(before, id) {
			out = append(out, id)
		}
	}
	return out
}

// Merge adds id to badges if it is non-empty and absent.
func Merge(badges []string, id string) []string {
	if id == "" || slices.Contains(badges, id) {
		return badges
	}
	return append(badges, id)
}
