package reward

import (
	"testing"
	"time"

	"github.com/kasuganosora/mathquest/game/badge"
	"github.com/kasuganosora/mathquest/game/clock"
	"github.com/kasuganosora/mathquest/game/progress"
	"github.com/kasuganosora/mathquest/notify"
	"github.com/kasuganosora/mathquest/resource"
	"github.com/kasuganosora/mathquest/store"
	"github.com/kasuganosora/mathquest/testutil"
	"go.uber.org/zap"
)

var college = []resource.Audience{resource.AudienceCollege}

func dragModule(id, name string, points int, focus []resource.Audience) *resource.LearningModule {
	return &resource.LearningModule{
		ID:         id,
		Name:       name,
		TrackFocus: focus,
		MiniGame: resource.MiniGame{
			ID:     id + "-game",
			Type:   resource.GameDragDrop,
			Reward: resource.MiniGameReward{Points: points},
			Payload: &resource.DragDropPayload{
				TargetEquation: "x + y = 14",
				Solutions:      []resource.EquationPair{{Left: 6, Right: 8}},
			},
		},
	}
}

func testCatalog() *resource.Catalog {
	both := []resource.Audience{resource.AudienceCollege, resource.AudienceProfessional}
	return &resource.Catalog{
		Modules: []*resource.LearningModule{
			dragModule("number-sense", "Number Sense", 100, both),
			dragModule("algebra-mountain", "Algebra Mountain", 200, college),
			dragModule("boardroom", "Boardroom", 90, []resource.Audience{resource.AudienceProfessional}),
			dragModule("geometry-cove", "Geometry Cove", 120, both),
		},
		Challenges: []*resource.DailyChallenge{
			{ID: "speed-sprint", Title: "Speed Sprint", TimeLimitMinutes: 5, Reward: resource.ChallengeReward{Points: 75},
				Prompts: []resource.Prompt{
					{ID: "p1", Question: "2+2", Choices: []string{"4", "5"}, CorrectIndex: 0},
					{ID: "p2", Question: "3x3", Choices: []string{"6", "9"}, CorrectIndex: 1},
				}},
			{ID: "strategy-lab", Title: "Strategy Lab", TimeLimitMinutes: 10, Reward: resource.ChallengeReward{Points: 110},
				Tasks: []string{"Plan the week"}},
		},
		Badges: []*resource.RewardBadge{
			{ID: "habit-streaker", Threshold: 2},
			{ID: "combo-master", Threshold: 150},
			{ID: "explorer", Threshold: 3},
		},
		Scenarios: []*resource.ScenarioDefinition{
			{
				ID:       "risk-sprint",
				Personas: map[resource.Audience]*resource.Persona{resource.AudienceCollege: {Objective: "pace"}},
				Parameters: []resource.ScenarioParameter{
					{ID: "focusAllocation", Min: 0, Max: 100, Step: 1, DefaultValue: 40, TargetRange: [2]float64{48, 60}},
				},
				Reward: resource.ScenarioReward{Points: 80, BadgeID: "forest-strategist", Celebration: "Risk sprint aligned!"},
			},
		},
	}
}

func testRules(today string) rules {
	cat := testCatalog()
	return rules{
		modules:  progress.Personalize(cat.Modules, resource.AudienceCollege),
		badges:   cat.Badges,
		registry: badge.NewRegistry(),
		known:    cat.KnownBadge,
		today:    today,
	}
}

// passingAnswers clears the placement quiz with 75 of 120.
var passingAnswers = map[string]string{"sequence": "81", "balance": "7"}

type harness struct {
	svc   *Service
	clock *clock.Manual
	store *store.Store
	ps    *notify.Publisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	c, ps := testutil.SetupTestCache(t)
	logger := zap.NewNop()
	st := store.New(c, logger)
	clk := clock.NewManual(time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC))
	pub := notify.NewPublisher(ps, logger)
	return &harness{
		svc:   NewService(st, testCatalog(), clk, pub, nil, "", logger),
		clock: clk,
		store: st,
		ps:    pub,
	}
}
