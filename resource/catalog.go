package resource

import (
	"slices"
	"strconv"
)

// Audience is a learner track. A profile has exactly one.
type Audience string

const (
	AudienceCollege      Audience = "college"
	AudienceProfessional Audience = "professional"
)

// Valid reports whether a is a known audience.
func (a Audience) Valid() bool {
	return a == AudienceCollege || a == AudienceProfessional
}

// LearningModule is one checkpoint on the progress map. Catalog order is the
// unlock order.
type LearningModule struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	TrackFocus      []Audience `json:"trackFocus"`
	CheckpointLabel string     `json:"checkpointLabel"`
	Summary         string     `json:"summary"`
	MentorTip       string     `json:"mentorTip"`
	MiniGame        MiniGame   `json:"miniGame"`
}

// ServesFocus reports whether the module belongs to the given track.
func (m *LearningModule) ServesFocus(focus Audience) bool {
	return slices.Contains(m.TrackFocus, focus)
}

// ChallengeReward is what a finished daily run pays out.
type ChallengeReward struct {
	Points      int `json:"points"`
	StreakBonus int `json:"streakBonus,omitempty"`
}

// Prompt is a single multiple-choice question in a daily run.
type Prompt struct {
	ID           string   `json:"id"`
	Question     string   `json:"question"`
	Choices      []string `json:"choices"`
	CorrectIndex int      `json:"correctIndex"`
	Hint         string   `json:"hint,omitempty"`
}

// DailyChallenge is a timed run of prompts, one per calendar day.
type DailyChallenge struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	TimeLimitMinutes int             `json:"timeLimitMinutes"`
	Description      string          `json:"description"`
	Reward           ChallengeReward `json:"reward"`
	Tasks            []string        `json:"tasks"`
	Prompts          []Prompt        `json:"prompts,omitempty"`
}

// Fallback choices offered when a challenge ships tasks but no prompts.
var fallbackChoices = []string{"Completed", "Need more time"}

// RunPrompts returns the challenge prompts, deriving one self-report prompt
// per task when none are authored.
func (c *DailyChallenge) RunPrompts() []Prompt {
	if len(c.Prompts) > 0 {
		return slices.Clone(c.Prompts)
	}
	out := make([]Prompt, 0, len(c.Tasks))
	for i, task := range c.Tasks {
		out = append(out, Prompt{
			ID:           c.ID + "-" + strconv.Itoa(i),
			Question:     task,
			Choices:      slices.Clone(fallbackChoices),
			CorrectIndex: 0,
		})
	}
	return out
}

// RewardBadge is a threshold badge evaluated after every reward event.
type RewardBadge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Threshold   int    `json:"threshold"`
}

// ScenarioParameter is one dial in a scenario simulation.
type ScenarioParameter struct {
	ID           string     `json:"id"`
	Label        string     `json:"label"`
	Description  string     `json:"description,omitempty"`
	Min          float64    `json:"min"`
	Max          float64    `json:"max"`
	Step         float64    `json:"step"`
	Unit         string     `json:"unit"`
	DefaultValue float64    `json:"defaultValue"`
	TargetRange  [2]float64 `json:"targetRange"`
	Insight      string     `json:"insight,omitempty"`
	Caution      string     `json:"caution,omitempty"`
}

// ModuleContext ties a scenario back to the module it draws on.
type ModuleContext struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Insight string `json:"insight,omitempty"`
}

// Persona is the audience-specific framing of a scenario.
type Persona struct {
	CardDescription string `json:"cardDescription"`
	Narrative       string `json:"narrative"`
	Objective       string `json:"objective"`
}

type ScenarioSuccess struct {
	Summary     string   `json:"summary"`
	Checkpoints []string `json:"checkpoints"`
}

type ScenarioReward struct {
	Points      int    `json:"points"`
	BadgeID     string `json:"badgeId,omitempty"`
	Celebration string `json:"celebration"`
}

// ScenarioDefinition is a what-if simulation that pays out once per profile.
type ScenarioDefinition struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	ModuleContext ModuleContext         `json:"moduleContext"`
	Personas      map[Audience]*Persona `json:"personas"`
	Parameters    []ScenarioParameter   `json:"parameters"`
	Success       ScenarioSuccess       `json:"success"`
	Reward        ScenarioReward        `json:"reward"`
}

// ServesFocus reports whether the scenario has a persona for focus.
func (s *ScenarioDefinition) ServesFocus(focus Audience) bool {
	return s.Personas[focus] != nil
}
