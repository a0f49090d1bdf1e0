// Package progress computes completion snapshots over the personalized
// module catalog.
package progress

import (
	"math"

	"github.com/kasuganosora/mathquest/resource"
)

// Snapshot summarizes how much of a catalog a learner has unlocked.
type Snapshot struct {
	UnlockedCount  int `json:"unlockedCount"`
	TotalCount     int `json:"totalCount"`
	CompletionRate int `json:"completionRate"` // 0..100
}

// Compute counts the distinct unlocked ids that exist in modules. Duplicate
// and unknown ids never change the result.
func Compute(modules []*resource.LearningModule, unlockedIDs []string) Snapshot {
	inCatalog := make(map[string]bool, len(modules))
	for _, m := range modules {
		inCatalog[m.ID] = true
	}
	counted := make(map[string]bool, len(unlockedIDs))
	for _, id := range unlockedIDs {
		if inCatalog[id] {
			counted[id] = true
		}
	}
	snap := Snapshot{UnlockedCount: len(counted), TotalCount: len(modules)}
	if snap.TotalCount > 0 {
		snap.CompletionRate = int(math.Round(float64(snap.UnlockedCount) / float64(snap.TotalCount) * 100))
	}
	return snap
}

// Personalize keeps the modules whose track includes focus, in catalog order.
func Personalize(modules []*resource.LearningModule, focus resource.Audience) []*resource.LearningModule {
	out := make([]*resource.LearningModule, 0, len(modules))
	for _, m := range modules {
		if m.ServesFocus(focus) {
			out = append(out, m)
		}
	}
	return out
}

// NextAfter returns the module following id in modules, or nil when id is
// last or absent.
func NextAfter(modules []*resource.LearningModule, id string) *resource.LearningModule {
	for i, m := range modules {
		if m.ID == id {
			if i+1 < len(modules) {
				return modules[i+1]
			}
			return nil
		}
	}
	return nil
}

// IDs returns the module ids in order.
func IDs(modules []*resource.LearningModule) []string {
	ids := make([]string, len(modules))
	for i, m := range modules {
		ids[i] = m.ID
	}
	return ids
}
