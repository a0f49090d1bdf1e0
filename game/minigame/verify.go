// Package minigame checks a submitted mini-game attempt against the module's
// payload before the module can be marked complete.
package minigame

import (
	"errors"
	"fmt"
	"math"

	"github.com/kasuganosora/mathquest/resource"
)

const (
	// SliderTolerance is the allowed |value - optimal| for every slider.
	SliderTolerance = 0.12
	// BossWinCorrect is the number of right answers that defeats the boss.
	BossWinCorrect = 2
)

var ErrUnsupportedPayload = errors.New("minigame: unsupported payload")

// Attempt carries the learner's answer. Only the fields of the module's game
// type are read.
type Attempt struct {
	// drag-drop
	Left  *int `json:"left,omitempty"`
	Right *int `json:"right,omitempty"`
	// visual / slider, values in 0..1
	Sliders map[string]float64 `json:"sliders,omitempty"`
	// visual / layout
	Shapes []string `json:"shapes,omitempty"`
	// boss: question id -> chosen option
	Answers        map[string]string `json:"answers,omitempty"`
	ElapsedSeconds int               `json:"elapsedSeconds,omitempty"`
}

// Result is the verdict plus a game-specific score (matches, coverage,
// correct answers).
type Result struct {
	Passed bool   `json:"passed"`
	Score  int    `json:"score"`
	Detail string `json:"detail"`
}

// Verify dispatches on the payload variant.
func Verify(game resource.MiniGame, a Attempt) (Result, error) {
	switch p := game.Payload.(type) {
	case *resource.DragDropPayload:
		return verifyDragDrop(p, a), nil
	case *resource.SliderPayload:
		return verifySliders(p, a), nil
	case *resource.LayoutPayload:
		return verifyLayout(p, a), nil
	case *resource.BossPayload:
		return verifyBoss(p, a), nil
	default:
		return Result{}, fmt.Errorf("%w: %T (game %s)", ErrUnsupportedPayload, game.Payload, game.ID)
	}
}

func verifyDragDrop(p *resource.DragDropPayload, a Attempt) Result {
	if a.Left == nil || a.Right == nil {
		return Result{Detail: "Drop tiles into both slots to balance the tower."}
	}
	for _, s := range p.Solutions {
		if s.Left == *a.Left && s.Right == *a.Right {
			return Result{Passed: true, Score: 1, Detail: "Tower stabilised!"}
		}
	}
	return Result{Detail: "The tower wobbles, try a different combo."}
}

func verifySliders(p *resource.SliderPayload, a Attempt) Result {
	within := 0
	for _, target := range p.SliderTargets {
		v, ok := a.Sliders[target.ID]
		// epsilon absorbs float error at the tolerance edge
		if ok && math.Abs(v-target.Optimal) <= SliderTolerance+1e-9 {
			within++
		}
	}
	if within == len(p.SliderTargets) {
		return Result{Passed: true, Score: within, Detail: "Probability plan locked in."}
	}
	return Result{Score: within, Detail: fmt.Sprintf("%d of %d estimates on target.", within, len(p.SliderTargets))}
}

func verifyLayout(p *resource.LayoutPayload, a Attempt) Result {
	covered := make(map[[2]int]struct{})
	for _, id := range a.Shapes {
		for _, s := range p.Shapes {
			if s.ID != id {
				continue
			}
			for _, cell := range s.Cells {
				covered[cell] = struct{}{}
			}
		}
	}
	n := len(covered)
	if n >= p.GoalCoverage {
		return Result{Passed: true, Score: n, Detail: "Layout covers the goal."}
	}
	return Result{Score: n, Detail: fmt.Sprintf("Coverage %d of %d.", n, p.GoalCoverage)}
}

func verifyBoss(p *resource.BossPayload, a Attempt) Result {
	answered, correct := 0, 0
	for _, q := range p.Questions {
		ans, ok := a.Answers[q.ID]
		if !ok {
			continue
		}
		answered++
		if ans == q.Answer {
			correct++
		}
	}
	switch {
	case p.TimeLimitSeconds > 0 && a.ElapsedSeconds > p.TimeLimitSeconds:
		return Result{Score: correct, Detail: "The market closed before the duel ended."}
	case answered < len(p.Questions):
		return Result{Score: correct, Detail: "Answer every question to finish the duel."}
	case correct >= BossWinCorrect:
		return Result{Passed: true, Score: correct, Detail: "Critical hit! The boss is down."}
	default:
		return Result{Score: correct, Detail: "The Quant Titan remains undefeated. Try again tomorrow!"}
	}
}
