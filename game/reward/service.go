// Package reward is the progression orchestrator. Every reward event loads
// the learner's state, runs a pure reducer over it, commits the result and
// then tells the notification channel, metrics and the remote mirror.
package reward

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/kasuganosora/mathquest/game/badge"
	"github.com/kasuganosora/mathquest/game/challenge"
	"github.com/kasuganosora/mathquest/game/clock"
	"github.com/kasuganosora/mathquest/game/daily"
	"github.com/kasuganosora/mathquest/game/minigame"
	"github.com/kasuganosora/mathquest/game/profile"
	"github.com/kasuganosora/mathquest/game/progress"
	"github.com/kasuganosora/mathquest/game/scenario"
	"github.com/kasuganosora/mathquest/metrics"
	"github.com/kasuganosora/mathquest/mirror"
	"github.com/kasuganosora/mathquest/notify"
	"github.com/kasuganosora/mathquest/resource"
	"github.com/kasuganosora/mathquest/store"
	"go.uber.org/zap"
)

var (
	ErrProfileNotFound = errors.New("reward: profile not found")
	ErrInvalidName     = errors.New("reward: name is required")
	ErrInvalidFocus    = errors.New("reward: unknown focus")
	ErrNoStarterModule = errors.New("reward: no module serves this focus")
	ErrUnknownModule   = errors.New("reward: module not in learner's track")
	ErrModuleLocked    = errors.New("reward: module is locked")
	ErrUnknownScenario = errors.New("reward: scenario not available")
)

// Status is the disposition of a reward event.
type Status int

const (
	StatusApplied Status = iota
	StatusAlreadyDone
	StatusSkipped // no profile
	StatusNotReady
)

func (s Status) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusAlreadyDone:
		return "already_done"
	case StatusSkipped:
		return "skipped"
	case StatusNotReady:
		return "not_ready"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome reports what one event did.
type Outcome struct {
	Status         Status               `json:"status"`
	Message        string               `json:"message,omitempty"`
	PointsEarned   int                  `json:"pointsEarned"`
	TotalPoints    int                  `json:"totalPoints"`
	NewBadges      []string             `json:"newBadges,omitempty"`
	UnlockedModule string               `json:"unlockedModule,omitempty"`
	Profile        *profile.UserProfile `json:"profile,omitempty"`
	Verification   *minigame.Result     `json:"verification,omitempty"`
	Readiness      *scenario.Readiness  `json:"readiness,omitempty"`
}

// Service owns all learner state mutations.
type Service struct {
	store    *store.Store
	catalog  *resource.Catalog
	registry *badge.Registry
	clock    clock.Clock
	notifier *notify.Publisher
	mirror   *mirror.Service
	starter  string
	locks    keyedMutex
	logger   *zap.Logger
}

// NewService creates a reward Service. notifier and mir may be nil.
func NewService(st *store.Store, cat *resource.Catalog, clk clock.Clock, notifier *notify.Publisher,
	mir *mirror.Service, starterModule string, logger *zap.Logger) *Service {
	return &Service{
		store:    st,
		catalog:  cat,
		registry: badge.NewRegistry(),
		clock:    clk,
		notifier: notifier,
		mirror:   mir,
		starter:  starterModule,
		logger:   logger,
	}
}

// Badges exposes the predicate registry so callers can add badge kinds.
func (svc *Service) Badges() *badge.Registry {
	return svc.registry
}

func (svc *Service) rulesFor(p *profile.UserProfile) rules {
	return rules{
		modules:  progress.Personalize(svc.catalog.Modules, p.Focus),
		badges:   svc.catalog.Badges,
		registry: svc.registry,
		known:    svc.catalog.KnownBadge,
		today:    clock.Today(svc.clock),
	}
}

// loadForEvent loads profileID and applies the idle streak check, so every
// event settles against the same streak whether or not state was read first.
// A nil profile means the learner does not exist.
func (svc *Service) loadForEvent(ctx context.Context, profileID string) (State, error) {
	s, err := loadState(ctx, svc.store, profileID)
	if err != nil || s.Profile == nil {
		return s, err
	}
	s, _ = refreshStreak(s, clock.Today(svc.clock))
	return s, nil
}

// Onboard scores the placement quiz and creates the learner's profile with
// its starter module.
func (svc *Service) Onboard(ctx context.Context, name string, focus resource.Audience, answers map[string]string) (*State, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}
	if !focus.Valid() {
		return nil, ErrInvalidFocus
	}
	score, passed := profile.ScoreOnboarding(answers)
	if !passed {
		return nil, profile.ErrOnboardingFailed
	}
	starter := svc.starterFor(focus)
	if starter == "" {
		return nil, ErrNoStarterModule
	}

	p := profile.New(name, focus, score, starter)
	unlock := svc.locks.lock(p.ID)
	defer unlock()

	s := State{
		Profile:            p,
		CompletedModules:   []string{},
		CompletedScenarios: []string{},
		Daily:              daily.Record{Completed: []string{}},
	}
	if err := svc.commit(ctx, &s); err != nil {
		return nil, err
	}
	svc.logger.Info("learner onboarded",
		zap.String("profile_id", p.ID),
		zap.String("focus", string(focus)),
		zap.Int("score", score))
	svc.notifier.Send(ctx, p.ID, notify.Notice{Kind: notify.KindOnboarding, Message: "Welcome to MathQuest!"})
	return &s, nil
}

func (svc *Service) starterFor(focus resource.Audience) string {
	track := progress.Personalize(svc.catalog.Modules, focus)
	if svc.starter != "" {
		for _, m := range track {
			if m.ID == svc.starter {
				return m.ID
			}
		}
	}
	if len(track) == 0 {
		return ""
	}
	return track[0].ID
}

// State returns the learner's state after the idle streak check. A broken
// streak is persisted.
func (svc *Service) State(ctx context.Context, profileID string) (*State, error) {
	unlock := svc.locks.lock(profileID)
	defer unlock()

	s, err := loadState(ctx, svc.store, profileID)
	if err != nil {
		return nil, err
	}
	if s.Profile == nil {
		return nil, ErrProfileNotFound
	}
	s, changed := refreshStreak(s, clock.Today(svc.clock))
	if changed {
		svc.logger.Info("streak reset after idle day",
			zap.String("profile_id", profileID),
			zap.String("last_played", s.Profile.LastPlayed))
		if err := svc.commit(ctx, &s); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// Refresh runs the idle streak check and reports the disposition.
func (svc *Service) Refresh(ctx context.Context, profileID string) (Status, error) {
	if _, err := svc.State(ctx, profileID); err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return StatusSkipped, nil
		}
		return StatusSkipped, err
	}
	return StatusApplied, nil
}

// Modules returns the learner's track and progress over it.
func (svc *Service) Modules(ctx context.Context, profileID string) ([]*resource.LearningModule, progress.Snapshot, error) {
	s, err := svc.State(ctx, profileID)
	if err != nil {
		return nil, progress.Snapshot{}, err
	}
	track := progress.Personalize(svc.catalog.Modules, s.Profile.Focus)
	return track, progress.Compute(track, s.Profile.UnlockedModules), nil
}

// PlayModule verifies a mini-game attempt and completes the module when it
// passes.
func (svc *Service) PlayModule(ctx context.Context, profileID, moduleID string, attempt minigame.Attempt) (Outcome, error) {
	unlock := svc.locks.lock(profileID)
	defer unlock()

	s, err := svc.loadForEvent(ctx, profileID)
	if err != nil {
		return Outcome{}, err
	}
	if s.Profile == nil {
		return Outcome{Status: StatusSkipped}, nil
	}
	r := svc.rulesFor(s.Profile)
	mod := moduleIn(r.modules, moduleID)
	if mod == nil {
		return Outcome{}, ErrUnknownModule
	}
	if !s.Profile.IsUnlocked(mod.ID) {
		return Outcome{}, ErrModuleLocked
	}
	result, err := minigame.Verify(mod.MiniGame, attempt)
	if err != nil {
		return Outcome{}, fmt.Errorf("verify %s: %w", mod.ID, err)
	}
	if !result.Passed {
		return Outcome{
			Status:       StatusNotReady,
			Message:      result.Detail,
			TotalPoints:  s.TotalPoints,
			Profile:      s.Profile,
			Verification: &result,
		}, nil
	}
	out, err := svc.completeModule(ctx, s, mod, r)
	out.Verification = &result
	return out, err
}

// CompleteModule records a module completion without a mini-game attempt.
func (svc *Service) CompleteModule(ctx context.Context, profileID, moduleID string) (Outcome, error) {
	unlock := svc.locks.lock(profileID)
	defer unlock()

	s, err := svc.loadForEvent(ctx, profileID)
	if err != nil {
		return Outcome{}, err
	}
	if s.Profile == nil {
		return Outcome{Status: StatusSkipped}, nil
	}
	r := svc.rulesFor(s.Profile)
	mod := moduleIn(r.modules, moduleID)
	if mod == nil {
		return Outcome{}, ErrUnknownModule
	}
	return svc.completeModule(ctx, s, mod, r)
}

func (svc *Service) completeModule(ctx context.Context, s State, mod *resource.LearningModule, r rules) (Outcome, error) {
	after, status, next := reduceModule(s, mod, r)
	if status == StatusAlreadyDone {
		metrics.DuplicateRejected("module")
		return Outcome{Status: status, TotalPoints: s.TotalPoints, Profile: s.Profile}, nil
	}
	if err := svc.commit(ctx, &after); err != nil {
		return Outcome{}, err
	}
	out := svc.applied(s, after)
	metrics.ModuleCompleted()
	metrics.PointsAwarded("module", out.PointsEarned)

	notice := notify.Notice{Points: out.PointsEarned, Badges: out.NewBadges}
	if next != nil {
		out.UnlockedModule = next.ID
		notice.Kind = notify.KindCheckpoint
		notice.Message = "Checkpoint unlocked: " + next.Name + "!"
	} else {
		notice.Kind = notify.KindMastery
		notice.Message = "You mastered " + mod.Name + "!"
	}
	out.Message = notice.Message
	svc.notifier.Send(ctx, after.Profile.ID, notice)
	svc.logger.Info("module completed",
		zap.String("profile_id", after.Profile.ID),
		zap.String("module_id", mod.ID),
		zap.String("unlocked", out.UnlockedModule),
		zap.Int("points", out.PointsEarned))
	return out, nil
}

// TodayChallenge returns the challenge of the current day.
func (svc *Service) TodayChallenge() (*resource.DailyChallenge, error) {
	return daily.SelectOfDay(svc.catalog.Challenges, clock.DayOfMonth(svc.clock))
}

// ChallengeDoneToday reports whether challengeID is in today's record.
func (svc *Service) ChallengeDoneToday(ctx context.Context, profileID, challengeID string) (bool, error) {
	s, err := loadState(ctx, svc.store, profileID)
	if err != nil {
		return false, err
	}
	if s.Profile == nil {
		return false, ErrProfileNotFound
	}
	return s.Daily.Done(clock.Today(svc.clock), challengeID), nil
}

// FinishRun is the challenge manager's finisher. Every finalized run pays
// the challenge reward once per day, whatever its accuracy.
func (svc *Service) FinishRun(ctx context.Context, profileID string, ch *resource.DailyChallenge, sum challenge.Summary) {
	out, err := svc.CompleteChallenge(ctx, profileID, ch)
	if err != nil {
		svc.logger.Error("award challenge run failed",
			zap.String("profile_id", profileID),
			zap.String("challenge_id", ch.ID),
			zap.Error(err))
		return
	}
	svc.logger.Info("challenge run settled",
		zap.String("profile_id", profileID),
		zap.String("challenge_id", ch.ID),
		zap.Stringer("status", out.Status),
		zap.Int("accuracy", sum.Accuracy),
		zap.Int("best_combo", sum.BestCombo),
		zap.Bool("completed", sum.Completed))
}

// CompleteChallenge records a daily challenge clear.
func (svc *Service) CompleteChallenge(ctx context.Context, profileID string, ch *resource.DailyChallenge) (Outcome, error) {
	unlock := svc.locks.lock(profileID)
	defer unlock()

	s, err := svc.loadForEvent(ctx, profileID)
	if err != nil {
		return Outcome{}, err
	}
	if s.Profile == nil {
		return Outcome{Status: StatusSkipped}, nil
	}
	r := svc.rulesFor(s.Profile)
	after, status := reduceChallenge(s, ch, r)
	if status == StatusAlreadyDone {
		metrics.DuplicateRejected("challenge")
		msg := "Daily challenge already cleared today"
		svc.notifier.Send(ctx, profileID, notify.Notice{Kind: notify.KindDailyDuplicate, Message: msg})
		return Outcome{Status: status, Message: msg, TotalPoints: s.TotalPoints, Profile: s.Profile}, nil
	}
	if err := svc.commit(ctx, &after); err != nil {
		return Outcome{}, err
	}
	out := svc.applied(s, after)
	out.Message = fmt.Sprintf("Daily challenge cleared! +%d pts", out.PointsEarned)
	metrics.PointsAwarded("challenge", out.PointsEarned)
	svc.notifier.Send(ctx, profileID, notify.Notice{
		Kind: notify.KindDailyClear, Message: out.Message, Points: out.PointsEarned, Badges: out.NewBadges,
	})
	svc.mirror.PushDailyRun(svc.dailyRun(after))
	return out, nil
}

// Readiness evaluates scenarioID against values without changing state.
func (svc *Service) Readiness(scenarioID string, values map[string]float64) (scenario.Readiness, error) {
	def := svc.catalog.ScenarioByID(scenarioID)
	if def == nil {
		return scenario.Readiness{}, ErrUnknownScenario
	}
	dial := scenario.NewDial(def)
	dial.Apply(values)
	return dial.Readiness(), nil
}

// Scenarios lists the scenarios offered to the learner's focus with the
// ones already completed.
func (svc *Service) Scenarios(ctx context.Context, profileID string) ([]*resource.ScenarioDefinition, []string, error) {
	s, err := loadState(ctx, svc.store, profileID)
	if err != nil {
		return nil, nil, err
	}
	if s.Profile == nil {
		return nil, nil, ErrProfileNotFound
	}
	return svc.catalog.ScenariosFor(s.Profile.Focus), s.CompletedScenarios, nil
}

// ClaimScenario checks readiness and, when every target is met, completes
// the scenario.
func (svc *Service) ClaimScenario(ctx context.Context, profileID, scenarioID string, values map[string]float64) (Outcome, error) {
	unlock := svc.locks.lock(profileID)
	defer unlock()

	s, err := svc.loadForEvent(ctx, profileID)
	if err != nil {
		return Outcome{}, err
	}
	if s.Profile == nil {
		return Outcome{Status: StatusSkipped}, nil
	}
	def := svc.catalog.ScenarioByID(scenarioID)
	if def == nil || !def.ServesFocus(s.Profile.Focus) {
		return Outcome{}, ErrUnknownScenario
	}
	dial := scenario.NewDial(def)
	dial.Apply(values)
	done := slices.Contains(s.CompletedScenarios, def.ID)
	payload, claim := scenario.Claim(def, dial.Values(), done)
	switch claim {
	case scenario.NotReady:
		rd := dial.Readiness()
		return Outcome{
			Status:      StatusNotReady,
			Message:     fmt.Sprintf("%d of %d parameters on target", rd.Dialed, rd.Total),
			TotalPoints: s.TotalPoints,
			Profile:     s.Profile,
			Readiness:   &rd,
		}, nil
	case scenario.AlreadyClaimed:
		return svc.scenarioDuplicate(ctx, s), nil
	}
	return svc.completeScenario(ctx, s, *payload)
}

// CompleteScenario applies a completion payload. The scenario must exist in
// the catalog and serve the learner's focus; its reward always comes from the
// catalog. A scenario pays out once per profile.
func (svc *Service) CompleteScenario(ctx context.Context, profileID string, payload scenario.CompletionPayload) (Outcome, error) {
	unlock := svc.locks.lock(profileID)
	defer unlock()

	s, err := svc.loadForEvent(ctx, profileID)
	if err != nil {
		return Outcome{}, err
	}
	if s.Profile == nil {
		return Outcome{Status: StatusSkipped}, nil
	}
	def := svc.catalog.ScenarioByID(payload.ScenarioID)
	if def == nil || !def.ServesFocus(s.Profile.Focus) {
		return Outcome{}, ErrUnknownScenario
	}
	payload = scenario.CompletionPayload{ScenarioID: def.ID, Reward: def.Reward}
	return svc.completeScenario(ctx, s, payload)
}

func (svc *Service) completeScenario(ctx context.Context, s State, payload scenario.CompletionPayload) (Outcome, error) {
	after, status := reduceScenario(s, payload, svc.rulesFor(s.Profile))
	if status == StatusAlreadyDone {
		return svc.scenarioDuplicate(ctx, s), nil
	}
	if err := svc.commit(ctx, &after); err != nil {
		return Outcome{}, err
	}
	out := svc.applied(s, after)
	out.Message = payload.Reward.Celebration
	metrics.PointsAwarded("scenario", out.PointsEarned)
	svc.notifier.Send(ctx, after.Profile.ID, notify.Notice{
		Kind: notify.KindScenarioClaim, Message: out.Message, Points: out.PointsEarned, Badges: out.NewBadges,
	})
	svc.logger.Info("scenario completed",
		zap.String("profile_id", after.Profile.ID),
		zap.String("scenario_id", payload.ScenarioID),
		zap.Int("points", out.PointsEarned))
	return out, nil
}

func (svc *Service) scenarioDuplicate(ctx context.Context, s State) Outcome {
	metrics.DuplicateRejected("scenario")
	msg := "Scenario already logged, keep exploring!"
	svc.notifier.Send(ctx, s.Profile.ID, notify.Notice{Kind: notify.KindScenarioDuplicate, Message: msg})
	return Outcome{Status: StatusAlreadyDone, Message: msg, TotalPoints: s.TotalPoints, Profile: s.Profile}
}

// applied builds the outcome of a committed event.
func (svc *Service) applied(before, after State) Outcome {
	newly := badge.Newly(before.Profile.Badges, after.Profile.Badges)
	metrics.BadgesUnlocked(newly)
	return Outcome{
		Status:       StatusApplied,
		PointsEarned: after.TotalPoints - before.TotalPoints,
		TotalPoints:  after.TotalPoints,
		NewBadges:    newly,
		Profile:      after.Profile,
	}
}

// commit stamps, persists, ranks and mirrors s.
func (svc *Service) commit(ctx context.Context, s *State) error {
	s.UpdatedAt = svc.clock.Now().UTC()
	if err := saveState(ctx, svc.store, *s); err != nil {
		return fmt.Errorf("commit %s: %w", s.Profile.ID, err)
	}
	svc.rank(ctx, s.Profile.ID, s.TotalPoints)
	svc.mirror.PushSnapshot(toSnapshot(*s))
	return nil
}

func moduleIn(modules []*resource.LearningModule, id string) *resource.LearningModule {
	for _, m := range modules {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// keyedMutex serializes work per profile id.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refLock)
	}
	l := k.locks[key]
	if l == nil {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Exists reports whether profileID has been onboarded.
func (svc *Service) Exists(ctx context.Context, profileID string) (bool, error) {
	return svc.store.Exists(ctx, store.Key(profileID, docProfile))
}
