package minigame

import (
	"testing"

	"github.com/kasuganosora/mathquest/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func dragGame() resource.MiniGame {
	return resource.MiniGame{ID: "equation-balance", Type: resource.GameDragDrop, Payload: &resource.DragDropPayload{
		TargetEquation: "x + y = 14",
		Solutions:      []resource.EquationPair{{Left: 5, Right: 9}, {Left: 6, Right: 8}},
	}}
}

func TestVerify_DragDrop(t *testing.T) {
	r, err := Verify(dragGame(), Attempt{Left: intp(6), Right: intp(8)})
	require.NoError(t, err)
	assert.True(t, r.Passed)

	r, _ = Verify(dragGame(), Attempt{Left: intp(8), Right: intp(6)})
	assert.False(t, r.Passed, "pairs are ordered")

	r, _ = Verify(dragGame(), Attempt{Left: intp(5)})
	assert.False(t, r.Passed)
	assert.Contains(t, r.Detail, "both slots")
}

func TestVerify_Sliders(t *testing.T) {
	g := resource.MiniGame{ID: "probability-simulator", Type: resource.GameVisual, Payload: &resource.SliderPayload{
		SliderTargets: []resource.SliderTarget{{ID: "a", Optimal: 0.35}, {ID: "b", Optimal: 0.22}},
	}}

	r, _ := Verify(g, Attempt{Sliders: map[string]float64{"a": 0.47, "b": 0.10}})
	assert.True(t, r.Passed, "edge of tolerance is inclusive")

	r, _ = Verify(g, Attempt{Sliders: map[string]float64{"a": 0.35, "b": 0.40}})
	assert.False(t, r.Passed)
	assert.Equal(t, 1, r.Score)

	r, _ = Verify(g, Attempt{Sliders: map[string]float64{"a": 0.35}})
	assert.False(t, r.Passed, "missing slider fails")
}

func TestVerify_Layout(t *testing.T) {
	g := resource.MiniGame{ID: "shape-shift", Type: resource.GameVisual, Payload: &resource.LayoutPayload{
		BoardSize: 5,
		Shapes: []resource.Shape{
			{ID: "triangle", Cells: [][2]int{{0, 0}, {1, 0}, {0, 1}}},
			{ID: "l-shape", Cells: [][2]int{{0, 0}, {0, 1}, {1, 1}}},
			{ID: "line", Cells: [][2]int{{0, 0}, {1, 0}, {2, 0}}},
		},
		GoalCoverage: 4,
	}}

	r, _ := Verify(g, Attempt{Shapes: []string{"triangle", "l-shape"}})
	assert.True(t, r.Passed)
	assert.Equal(t, 4, r.Score, "overlapping cells count once")

	r, _ = Verify(g, Attempt{Shapes: []string{"triangle", "ghost"}})
	assert.False(t, r.Passed)
	assert.Equal(t, 3, r.Score)
}

func TestVerify_Boss(t *testing.T) {
	g := resource.MiniGame{ID: "boss-battle", Type: resource.GameBoss, Payload: &resource.BossPayload{
		Questions: []resource.BossQuestion{
			{ID: "q1", Answer: "5%"}, {ID: "q2", Answer: "$5,377"}, {ID: "q3", Answer: "50/50 Split"},
		},
		TimeLimitSeconds: 150,
	}}
	answers := map[string]string{"q1": "5%", "q2": "$5,300", "q3": "50/50 Split"}

	r, _ := Verify(g, Attempt{Answers: answers, ElapsedSeconds: 120})
	assert.True(t, r.Passed)
	assert.Equal(t, 2, r.Score)

	r, _ = Verify(g, Attempt{Answers: answers, ElapsedSeconds: 151})
	assert.False(t, r.Passed, "boss timer expired")

	r, _ = Verify(g, Attempt{Answers: map[string]string{"q1": "5%", "q3": "50/50 Split"}, ElapsedSeconds: 10})
	assert.False(t, r.Passed, "unanswered question")

	padded := map[string]string{"q1": "5%", "q3": "50/50 Split", "bonus": "x"}
	r, _ = Verify(g, Attempt{Answers: padded, ElapsedSeconds: 10})
	assert.False(t, r.Passed, "keys outside the question set do not count as answers")

	r, _ = Verify(g, Attempt{Answers: map[string]string{"q1": "4%", "q2": "$5,377", "q3": "All-in on Asset A"}})
	assert.False(t, r.Passed)
	assert.Equal(t, 1, r.Score)
}

func TestVerify_MissingPayload(t *testing.T) {
	_, err := Verify(resource.MiniGame{ID: "empty"}, Attempt{})
	assert.ErrorIs(t, err, ErrUnsupportedPayload)
}
