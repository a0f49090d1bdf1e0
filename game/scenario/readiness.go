// Package scenario scores parameter dials against target ranges and gates the
// one-time scenario reward.
package scenario

import (
	"fmt"
	"math"
	"strconv"

	"github.com/kasuganosora/mathquest/resource"
)

// ParamStatus is the per-dial feedback shown next to each slider.
type ParamStatus struct {
	ID      string  `json:"id"`
	Value   float64 `json:"value"`
	InRange bool    `json:"inRange"`
	Delta   float64 `json:"delta"` // distance to the nearest target bound, 0 when in range
	Message string  `json:"message"`
}

// Readiness is the overall scenario score.
type Readiness struct {
	Met    bool          `json:"met"`
	Dialed int           `json:"dialed"`
	Total  int           `json:"total"`
	Ratio  int           `json:"ratio"` // 0..100
	Params []ParamStatus `json:"params"`
}

// Within reports lo <= v <= hi.
func Within(v float64, target [2]float64) bool {
	return v >= target[0] && v <= target[1]
}

// Evaluate scores values against def. Missing values fall back to the
// parameter default. A scenario without parameters is never met.
func Evaluate(def *resource.ScenarioDefinition, values map[string]float64) Readiness {
	r := Readiness{Total: len(def.Parameters), Params: make([]ParamStatus, 0, len(def.Parameters))}
	for _, p := range def.Parameters {
		v, ok := values[p.ID]
		if !ok {
			v = p.DefaultValue
		}
		st := ParamStatus{ID: p.ID, Value: v, InRange: Within(v, p.TargetRange)}
		if st.InRange {
			r.Dialed++
			st.Message = p.Insight
		} else {
			if v < p.TargetRange[0] {
				st.Delta = p.TargetRange[0] - v
			} else {
				st.Delta = v - p.TargetRange[1]
			}
			st.Message = fmt.Sprintf("%s (%s off target)", p.Caution, FormatValue(st.Delta, p.Unit))
		}
		r.Params = append(r.Params, st)
	}
	if r.Total > 0 {
		r.Met = r.Dialed == r.Total
		r.Ratio = int(math.Round(float64(r.Dialed) / float64(r.Total) * 100))
	}
	return r
}

// FormatValue renders v with at most one decimal and its unit.
func FormatValue(v float64, unit string) string {
	var s string
	if v == math.Trunc(v) {
		s = strconv.FormatFloat(v, 'f', 0, 64)
	} else {
		s = strconv.FormatFloat(v, 'f', 1, 64)
	}
	if unit == "%" {
		return s + unit
	}
	return s + " " + unit
}

// CompletionPayload is emitted exactly once per scenario per profile.
type CompletionPayload struct {
	ScenarioID string                  `json:"scenarioId"`
	Reward     resource.ScenarioReward `json:"reward"`
}

// ClaimStatus explains a Claim outcome.
type ClaimStatus int

const (
	Claimed ClaimStatus = iota
	NotReady
	AlreadyClaimed
)

func (s ClaimStatus) String() string {
	switch s {
	case Claimed:
		return "claimed"
	case NotReady:
		return "not_ready"
	case AlreadyClaimed:
		return "already_claimed"
	default:
		return "unknown"
	}
}

// Claim produces the completion payload when every target is met and the
// scenario has not been completed before.
func Claim(def *resource.ScenarioDefinition, values map[string]float64, alreadyCompleted bool) (*CompletionPayload, ClaimStatus) {
	if alreadyCompleted {
		return nil, AlreadyClaimed
	}
	if !Evaluate(def, values).Met {
		return nil, NotReady
	}
	return &CompletionPayload{ScenarioID: def.ID, Reward: def.Reward}, Claimed
}
