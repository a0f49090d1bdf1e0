// Package notify pushes celebration notices to a profile's channel.
package notify

import (
	"context"
	"encoding/json"

	"github.com/kasuganosora/mathquest/cache"
	"go.uber.org/zap"
)

// Kind classifies a notice.
type Kind string

const (
	KindOnboarding        Kind = "onboarding"
	KindCheckpoint        Kind = "checkpoint"
	KindMastery           Kind = "mastery"
	KindDailyClear        Kind = "daily-clear"
	KindDailyDuplicate    Kind = "daily-duplicate"
	KindScenarioClaim     Kind = "scenario-claim"
	KindScenarioDuplicate Kind = "scenario-duplicate"
)

// Notice is the payload sent on a celebrate channel.
type Notice struct {
	Kind    Kind     `json:"kind"`
	Message string   `json:"message"`
	Points  int      `json:"points,omitempty"`
	Badges  []string `json:"badges,omitempty"`
}

// Channel names the pub/sub channel for a profile.
func Channel(profileID string) string {
	return "celebrate:" + profileID
}

// Publisher sends notices. Delivery is best effort.
type Publisher struct {
	ps     cache.PubSub
	logger *zap.Logger
}

func NewPublisher(ps cache.PubSub, logger *zap.Logger) *Publisher {
	return &Publisher{ps: ps, logger: logger}
}

// Send publishes n for profileID. Failures are logged, never returned.
func (p *Publisher) Send(ctx context.Context, profileID string, n Notice) {
	if p == nil || p.ps == nil {
		return
	}
	data, err := json.Marshal(n)
	if err != nil {
		p.logger.Error("encode notice", zap.Error(err))
		return
	}
	if err := p.ps.Publish(ctx, Channel(profileID), string(data)); err != nil {
		p.logger.Warn("publish notice failed",
			zap.String("profile_id", profileID),
			zap.String("kind", string(n.Kind)),
			zap.Error(err))
	}
}

// Subscribe returns decoded notices for profileID until cancel is called.
func (p *Publisher) Subscribe(ctx context.Context, profileID string) (<-chan Notice, func(), error) {
	msgs, cancel, err := p.ps.Subscribe(ctx, Channel(profileID))
	if err != nil {
		return nil, nil, err
	}
	out := make(chan Notice, 16)
	go func() {
		defer close(out)
		for msg := range msgs {
			var n Notice
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				p.logger.Warn("drop malformed notice", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			select {
			case out <- n:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, cancel, nil
}
