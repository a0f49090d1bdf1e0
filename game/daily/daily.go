// Package daily picks the challenge of the day and tracks which challenges a
// learner has cleared today.
package daily

import (
	"errors"
	"slices"

	"github.com/kasuganosora/mathquest/resource"
)

var ErrEmptyCatalog = errors.New("daily: challenge catalog is empty")

// SelectOfDay returns catalog[dayOfMonth mod len(catalog)].
func SelectOfDay(catalog []*resource.DailyChallenge, dayOfMonth int) (*resource.DailyChallenge, error) {
	if len(catalog) == 0 {
		return nil, ErrEmptyCatalog
	}
	idx := dayOfMonth % len(catalog)
	if idx < 0 {
		idx += len(catalog)
	}
	return catalog[idx], nil
}

// Record lists the challenges completed on Date.
type Record struct {
	Date      string   `json:"date"`
	Completed []string `json:"completedChallenges"`
}

// ForDay returns the record as seen on today: a record from another day reads
// as empty.
func (r Record) ForDay(today string) Record {
	if r.Date != today {
		return Record{Date: today, Completed: []string{}}
	}
	return Record{Date: r.Date, Completed: slices.Clone(r.Completed)}
}

// Done reports whether challengeID was completed today.
func (r Record) Done(today, challengeID string) bool {
	return slices.Contains(r.ForDay(today).Completed, challengeID)
}

// With returns today's record with challengeID added.
func (r Record) With(today, challengeID string) Record {
	out := r.ForDay(today)
	if !slices.Contains(out.Completed, challengeID) {
		out.Completed = append(out.Completed, challengeID)
	}
	return out
}
