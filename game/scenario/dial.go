package scenario

import (
	"errors"
	"maps"
	"math"

	"github.com/kasuganosora/mathquest/resource"
)

var ErrUnknownParameter = errors.New("scenario: unknown parameter")

// Dial holds live slider values for one scenario, starting from defaults.
// Every value stays inside [min, max] on the parameter's step grid.
type Dial struct {
	def    *resource.ScenarioDefinition
	values map[string]float64
}

// NewDial starts every parameter at its default.
func NewDial(def *resource.ScenarioDefinition) *Dial {
	d := &Dial{def: def, values: make(map[string]float64, len(def.Parameters))}
	for _, p := range def.Parameters {
		d.values[p.ID] = snap(p, p.DefaultValue)
	}
	return d
}

// Set moves a dial and returns the stored (clamped, snapped) value.
func (d *Dial) Set(paramID string, v float64) (float64, error) {
	for _, p := range d.def.Parameters {
		if p.ID == paramID {
			d.values[paramID] = snap(p, v)
			return d.values[paramID], nil
		}
	}
	return 0, ErrUnknownParameter
}

// Apply sets several dials at once, ignoring unknown ids.
func (d *Dial) Apply(values map[string]float64) {
	for id, v := range values {
		_, _ = d.Set(id, v)
	}
}

// Values returns a copy of the current values.
func (d *Dial) Values() map[string]float64 {
	return maps.Clone(d.values)
}

// Readiness scores the current values.
func (d *Dial) Readiness() Readiness {
	return Evaluate(d.def, d.values)
}

func snap(p resource.ScenarioParameter, v float64) float64 {
	if v < p.Min {
		v = p.Min
	}
	if v > p.Max {
		v = p.Max
	}
	if p.Step > 0 {
		steps := math.Round((v - p.Min) / p.Step)
		v = p.Min + steps*p.Step
		if v > p.Max {
			v = p.Max
		}
		// keep 4.5 from drifting to 4.499999
		v = math.Round(v*1e6) / 1e6
	}
	return v
}
