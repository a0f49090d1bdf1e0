package resource

import (
	"encoding/json"
	"errors"
	"fmt"
)

// GameType discriminates the MiniGame payload.
type GameType string

const (
	GameDragDrop GameType = "drag-drop"
	GameVisual   GameType = "visual"
	GameBoss     GameType = "boss"
)

// MiniGameReward is granted when a module's mini-game is cleared.
type MiniGameReward struct {
	Points int    `json:"points"`
	Badge  string `json:"badge,omitempty"` // display title only, not a badge id
}

// MiniGame is the playable part of a module. Payload holds one of
// *DragDropPayload, *SliderPayload, *LayoutPayload or *BossPayload.
type MiniGame struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Type            GameType       `json:"type"`
	Description     string         `json:"description"`
	DurationMinutes int            `json:"durationMinutes"`
	Reward          MiniGameReward `json:"reward"`
	Payload         Payload        `json:"payload"`
}

// Payload is implemented by every mini-game payload variant.
type Payload interface {
	gameType() GameType
}

type EquationPair struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// DragDropPayload: drop two tiles so that left+right balances the equation.
type DragDropPayload struct {
	TargetEquation string         `json:"targetEquation"`
	Solutions      []EquationPair `json:"solutions"`
	Tiles          []int          `json:"tiles"`
}

type SliderTarget struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Optimal float64 `json:"optimal"`
}

// SliderPayload: estimate each probability within tolerance.
type SliderPayload struct {
	SliderTargets []SliderTarget `json:"sliderTargets"`
}

type Shape struct {
	ID    string   `json:"id"`
	Cells [][2]int `json:"cells"`
}

// LayoutPayload: pick shapes until their covered cells reach GoalCoverage.
type LayoutPayload struct {
	BoardSize    int     `json:"boardSize"`
	Shapes       []Shape `json:"shapes"`
	GoalCoverage int     `json:"goalCoverage"`
}

type BossQuestion struct {
	ID          string   `json:"id"`
	Prompt      string   `json:"prompt"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
}

// BossPayload: a timed quiz duel.
type BossPayload struct {
	Questions        []BossQuestion `json:"questions"`
	TimeLimitSeconds int            `json:"timeLimitSeconds"`
}

func (*DragDropPayload) gameType() GameType { return GameDragDrop }
func (*SliderPayload) gameType() GameType   { return GameVisual }
func (*LayoutPayload) gameType() GameType   { return GameVisual }
func (*BossPayload) gameType() GameType     { return GameBoss }

var ErrUnknownGameType = errors.New("resource: unknown mini-game type")

// UnmarshalJSON decodes the payload variant selected by the type field. A
// visual game is a slider game when it carries sliderTargets, otherwise a
// layout game.
func (g *MiniGame) UnmarshalJSON(data []byte) error {
	type plain MiniGame
	var raw struct {
		plain
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*g = MiniGame(raw.plain)

	var payload Payload
	switch g.Type {
	case GameDragDrop:
		payload = &DragDropPayload{}
	case GameVisual:
		var head struct {
			SliderTargets json.RawMessage `json:"sliderTargets"`
		}
		if len(raw.Payload) > 0 {
			if err := json.Unmarshal(raw.Payload, &head); err != nil {
				return fmt.Errorf("resource: mini-game %s payload: %w", g.ID, err)
			}
		}
		if head.SliderTargets != nil {
			payload = &SliderPayload{}
		} else {
			payload = &LayoutPayload{}
		}
	case GameBoss:
		payload = &BossPayload{}
	default:
		return fmt.Errorf("%w %q (mini-game %s)", ErrUnknownGameType, g.Type, g.ID)
	}
	if len(raw.Payload) > 0 {
		if err := json.Unmarshal(raw.Payload, payload); err != nil {
			return fmt.Errorf("resource: mini-game %s payload: %w", g.ID, err)
		}
	}
	g.Payload = payload
	return nil
}
