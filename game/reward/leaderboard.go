package reward

import (
	"context"

	"github.com/kasuganosora/mathquest/game/profile"
	"github.com/kasuganosora/mathquest/store"
	"go.uber.org/zap"
)

const (
	leaderboardKey = "leaderboard:total"
	leaderboardMax = 100
)

// Standing is one row of the leaderboard.
type Standing struct {
	Rank      int    `json:"rank"`
	ProfileID string `json:"profileId"`
	Name      string `json:"name"`
	Points    int    `json:"points"`
}

func (svc *Service) rank(ctx context.Context, profileID string, points int) {
	if err := svc.store.Cache().ZAdd(ctx, leaderboardKey, float64(points), profileID); err != nil {
		svc.logger.Warn("leaderboard update failed", zap.String("profile_id", profileID), zap.Error(err))
	}
}

// Leaderboard returns the top learners by total points, highest first.
func (svc *Service) Leaderboard(ctx context.Context, limit int) ([]Standing, error) {
	if limit <= 0 || limit > leaderboardMax {
		limit = leaderboardMax
	}
	c := svc.store.Cache()
	members, err := c.ZRevRange(ctx, leaderboardKey, 0, int64(limit-1))
	if err != nil {
		return nil, err
	}
	out := make([]Standing, 0, len(members))
	for i, id := range members {
		score, err := c.ZScore(ctx, leaderboardKey, id)
		if err != nil {
			continue
		}
		row := Standing{Rank: i + 1, ProfileID: id, Points: int(score)}
		p, err := store.Load[*profile.UserProfile](ctx, svc.store, store.Key(id, docProfile), nil)
		if err == nil && p != nil {
			row.Name = p.Name
		}
		out = append(out, row)
	}
	return out, nil
}
