package reward

import (
	"context"
	"slices"
	"time"

	"github.com/kasuganosora/mathquest/game/daily"
	"github.com/kasuganosora/mathquest/game/profile"
	"github.com/kasuganosora/mathquest/store"
)

// Document names under a profile's key space.
const (
	docProfile            = "profile"
	docTotalPoints        = "total-points"
	docCompletedModules   = "completed-modules"
	docCompletedScenarios = "completed-scenarios"
	docDailyRecord        = "daily-record"
	docUpdatedAt          = "updated-at"
)

// State is everything the store holds for one learner. A nil Profile means
// the learner has not onboarded.
type State struct {
	Profile            *profile.UserProfile `json:"profile"`
	TotalPoints        int                  `json:"totalPoints"`
	CompletedModules   []string             `json:"completedModules"`
	CompletedScenarios []string             `json:"completedScenarios"`
	Daily              daily.Record         `json:"dailyRecord"`
	UpdatedAt          time.Time            `json:"updatedAt"`
}

func (s State) clone() State {
	c := s
	c.Profile = s.Profile.Clone()
	c.CompletedModules = slices.Clone(s.CompletedModules)
	c.CompletedScenarios = slices.Clone(s.CompletedScenarios)
	c.Daily.Completed = slices.Clone(s.Daily.Completed)
	return c
}

func loadState(ctx context.Context, st *store.Store, profileID string) (State, error) {
	var (
		s   State
		err error
	)
	if s.Profile, err = store.Load[*profile.UserProfile](ctx, st, store.Key(profileID, docProfile), nil); err != nil {
		return State{}, err
	}
	if s.TotalPoints, err = store.Load(ctx, st, store.Key(profileID, docTotalPoints), 0); err != nil {
		return State{}, err
	}
	if s.CompletedModules, err = store.Load(ctx, st, store.Key(profileID, docCompletedModules), []string{}); err != nil {
		return State{}, err
	}
	if s.CompletedScenarios, err = store.Load(ctx, st, store.Key(profileID, docCompletedScenarios), []string{}); err != nil {
		return State{}, err
	}
	if s.Daily, err = store.Load(ctx, st, store.Key(profileID, docDailyRecord), daily.Record{Completed: []string{}}); err != nil {
		return State{}, err
	}
	if s.UpdatedAt, err = store.Load(ctx, st, store.Key(profileID, docUpdatedAt), time.Time{}); err != nil {
		return State{}, err
	}
	return s, nil
}

// saveState writes every document. The store gives no cross-key atomicity;
// the per-profile lock keeps writers from interleaving.
func saveState(ctx context.Context, st *store.Store, s State) error {
	id := s.Profile.ID
	docs := []struct {
		name string
		v    any
	}{
		{docProfile, s.Profile},
		{docTotalPoints, s.TotalPoints},
		{docCompletedModules, nonNil(s.CompletedModules)},
		{docCompletedScenarios, nonNil(s.CompletedScenarios)},
		{docDailyRecord, s.Daily},
		{docUpdatedAt, s.UpdatedAt},
	}
	for _, d := range docs {
		if err := st.Save(ctx, store.Key(id, d.name), d.v); err != nil {
			return err
		}
	}
	return nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
