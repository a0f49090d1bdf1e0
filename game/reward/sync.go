package reward

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kasuganosora/mathquest/game/profile"
	"github.com/kasuganosora/mathquest/mirror"
	"github.com/kasuganosora/mathquest/model"
	"github.com/kasuganosora/mathquest/resource"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var ErrSyncDisabled = errors.New("reward: remote sync is disabled")

func jsonColumn(v any) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(data)
}

func toSnapshot(s State) *model.ProfileSnapshot {
	p := s.Profile
	return &model.ProfileSnapshot{
		ProfileID:          p.ID,
		Name:               p.Name,
		Focus:              string(p.Focus),
		Avatar:             jsonColumn(p.Avatar),
		UnlockedModules:    jsonColumn(nonNil(p.UnlockedModules)),
		Badges:             jsonColumn(nonNil(p.Badges)),
		CompletedModules:   jsonColumn(nonNil(s.CompletedModules)),
		CompletedScenarios: jsonColumn(nonNil(s.CompletedScenarios)),
		Streak:             p.Streak,
		LastPlayed:         p.LastPlayed,
		OnboardingScore:    p.OnboardingScore,
		TotalPoints:        s.TotalPoints,
		UpdatedAt:          s.UpdatedAt,
	}
}

func fromSnapshot(snap *model.ProfileSnapshot) (State, error) {
	p := &profile.UserProfile{
		ID:              snap.ProfileID,
		Name:            snap.Name,
		Focus:           resource.Audience(snap.Focus),
		Streak:          snap.Streak,
		LastPlayed:      snap.LastPlayed,
		OnboardingScore: snap.OnboardingScore,
	}
	s := State{Profile: p, TotalPoints: snap.TotalPoints, UpdatedAt: snap.UpdatedAt}
	cols := []struct {
		raw datatypes.JSON
		dst any
	}{
		{snap.Avatar, &p.Avatar},
		{snap.UnlockedModules, &p.UnlockedModules},
		{snap.Badges, &p.Badges},
		{snap.CompletedModules, &s.CompletedModules},
		{snap.CompletedScenarios, &s.CompletedScenarios},
	}
	for _, c := range cols {
		if len(c.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(c.raw, c.dst); err != nil {
			return State{}, fmt.Errorf("decode snapshot %s: %w", snap.ProfileID, err)
		}
	}
	s.Profile = p.Clone()
	s.CompletedModules = nonNil(s.CompletedModules)
	s.CompletedScenarios = nonNil(s.CompletedScenarios)
	return s, nil
}

func (svc *Service) dailyRun(s State) *model.DailyRun {
	points := 0
	for _, id := range s.Daily.Completed {
		if ch := svc.catalog.ChallengeByID(id); ch != nil {
			points += ch.Reward.Points
		}
	}
	return &model.DailyRun{
		ProfileID: s.Profile.ID,
		Date:      s.Daily.Date,
		Completed: jsonColumn(nonNil(s.Daily.Completed)),
		Points:    points,
		UpdatedAt: s.UpdatedAt,
	}
}

// MergeRemote replaces local state with snap when snap is newer. The whole
// profile is taken from one side; fields are never mixed. The local daily
// record is kept since snapshots do not carry it.
func (svc *Service) MergeRemote(ctx context.Context, snap *model.ProfileSnapshot) (Status, error) {
	unlock := svc.locks.lock(snap.ProfileID)
	defer unlock()

	local, err := loadState(ctx, svc.store, snap.ProfileID)
	if err != nil {
		return StatusSkipped, err
	}
	if local.Profile != nil && !snap.UpdatedAt.After(local.UpdatedAt) {
		return StatusAlreadyDone, nil
	}
	remote, err := fromSnapshot(snap)
	if err != nil {
		return StatusSkipped, err
	}
	remote.Daily = local.Daily
	if kept := knownBadges(remote.Profile.Badges, svc.catalog.KnownBadge); len(kept) != len(remote.Profile.Badges) {
		svc.logger.Warn("dropping unknown badges from remote snapshot",
			zap.String("profile_id", snap.ProfileID),
			zap.Strings("badges", remote.Profile.Badges))
		remote.Profile.Badges = kept
	}
	if err := saveState(ctx, svc.store, remote); err != nil {
		return StatusSkipped, err
	}
	svc.rank(ctx, remote.Profile.ID, remote.TotalPoints)
	svc.logger.Info("remote snapshot merged",
		zap.String("profile_id", snap.ProfileID),
		zap.Time("remote_updated_at", snap.UpdatedAt),
		zap.Time("local_updated_at", local.UpdatedAt))
	return StatusApplied, nil
}

// PullRemote fetches the mirrored snapshot of profileID and merges it.
func (svc *Service) PullRemote(ctx context.Context, profileID string) (Status, error) {
	if svc.mirror == nil {
		return StatusSkipped, ErrSyncDisabled
	}
	snap, err := svc.mirror.Fetch(ctx, profileID)
	if errors.Is(err, mirror.ErrNotFound) {
		return StatusSkipped, nil
	}
	if err != nil {
		return StatusSkipped, err
	}
	return svc.MergeRemote(ctx, snap)
}
