package challenge

import (
	"sync"
	"testing"

	"github.com/kasuganosora/mathquest/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func speedSprint() *resource.DailyChallenge {
	return &resource.DailyChallenge{
		ID:               "speed-sprint",
		TimeLimitMinutes: 5,
		Reward:           resource.ChallengeReward{Points: 75, StreakBonus: 1},
		Prompts: []resource.Prompt{
			{ID: "speed-sprint-1", Choices: []string{"a", "b", "c"}, CorrectIndex: 0, Hint: "Count cards again."},
			{ID: "speed-sprint-2", Choices: []string{"a", "b", "c"}, CorrectIndex: 0},
			{ID: "speed-sprint-3", Choices: []string{"a", "b", "c"}, CorrectIndex: 2},
		},
	}
}

func startedRun(t *testing.T) *Run {
	t.Helper()
	r := NewRun("run-1", speedSprint())
	require.NoError(t, r.Start())
	return r
}

func answerAndAdvance(t *testing.T, r *Run, choice int) bool {
	t.Helper()
	_, err := r.Answer(choice)
	require.NoError(t, err)
	done, err := r.Advance()
	require.NoError(t, err)
	return done
}

func TestRun_FullRunCompleted(t *testing.T) {
	r := startedRun(t)
	for i := 0; i < 10; i++ {
		r.Tick()
	}
	assert.False(t, answerAndAdvance(t, r, 0))
	assert.False(t, answerAndAdvance(t, r, 1))
	assert.True(t, answerAndAdvance(t, r, 2))

	sum := r.Summary()
	require.NotNil(t, sum)
	assert.Equal(t, 3, sum.Solved)
	assert.Equal(t, 2, sum.Correct)
	assert.Equal(t, 67, sum.Accuracy)
	assert.Equal(t, 1, sum.BestCombo)
	assert.True(t, sum.AllSolved)
	assert.True(t, sum.Completed)
	assert.Equal(t, 10, sum.TimeElapsedSeconds)
	assert.Equal(t, Finished, r.Phase())
}

func TestRun_TimeoutAfterOneAnswer(t *testing.T) {
	r := startedRun(t)
	var got []Summary
	r.OnFinish(func(s Summary) { got = append(got, s) })

	_, err := r.Answer(0)
	require.NoError(t, err)
	for i := 0; i < 300; i++ {
		r.Tick()
	}

	require.Len(t, got, 1)
	sum := got[0]
	assert.Equal(t, 1, sum.Solved)
	assert.Equal(t, 1, sum.Correct)
	assert.Equal(t, 100, sum.Accuracy)
	assert.False(t, sum.AllSolved)
	assert.False(t, sum.Completed)
	assert.Equal(t, 300, sum.TimeElapsedSeconds)

	r.Tick()
	assert.Len(t, got, 1, "ticks after finish are ignored")
}

func TestRun_AnswerLocksPrompt(t *testing.T) {
	r := startedRun(t)

	fb, err := r.Answer(1)
	require.NoError(t, err)
	assert.False(t, fb.Correct)
	assert.Equal(t, 0, fb.CorrectIndex)
	assert.Equal(t, "Count cards again.", fb.Hint)

	fb2, err := r.Answer(0)
	assert.ErrorIs(t, err, ErrAnswerLocked)
	assert.False(t, fb2.Correct, "second answer does not overwrite the first")

	sum, first := r.Exit()
	assert.True(t, first)
	assert.Equal(t, 1, sum.Solved)
	assert.Equal(t, 0, sum.Correct)
}

func TestRun_ComboTracksConsecutiveCorrect(t *testing.T) {
	r := startedRun(t)

	fb, _ := r.Answer(0)
	assert.Equal(t, 1, fb.Combo)
	_, _ = r.Advance()
	fb, _ = r.Answer(0)
	assert.Equal(t, 2, fb.Combo)
	assert.Empty(t, fb.Hint)
	_, _ = r.Advance()
	fb, _ = r.Answer(0)
	assert.Equal(t, 0, fb.Combo)

	sum, _ := r.Exit()
	assert.Equal(t, 2, sum.BestCombo)
}

func TestRun_AdvanceRequiresFeedback(t *testing.T) {
	r := startedRun(t)
	_, err := r.Advance()
	assert.ErrorIs(t, err, ErrFeedbackPending)
}

func TestRun_ActionsBeforeStart(t *testing.T) {
	r := NewRun("run-1", speedSprint())
	_, err := r.Answer(0)
	assert.ErrorIs(t, err, ErrNotRunning)
	_, err = r.Advance()
	assert.ErrorIs(t, err, ErrNotRunning)

	r.Tick()
	assert.Equal(t, 300, r.View().RemainingSeconds, "countdown only runs while running")
}

func TestRun_FinalizeIsIdempotent(t *testing.T) {
	r := startedRun(t)
	calls := 0
	r.OnFinish(func(Summary) { calls++ })

	_, _ = r.Answer(0)
	first, ok := r.Finalize(true)
	assert.True(t, ok)
	assert.False(t, first.Completed, "completed requires all prompts solved")

	again, ok := r.Exit()
	assert.False(t, ok)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, calls)

	_, err := r.Answer(0)
	assert.ErrorIs(t, err, ErrRunFinished)
	assert.ErrorIs(t, r.Start(), ErrRunFinished)
}

func TestRun_ExitAndTimeoutRaceFinalizeOnce(t *testing.T) {
	ch := speedSprint()
	ch.TimeLimitMinutes = 0
	r := NewRun("run-1", ch)
	require.NoError(t, r.Start())

	var mu sync.Mutex
	calls := 0
	r.OnFinish(func(Summary) { mu.Lock(); calls++; mu.Unlock() })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); r.Tick() }()
		go func() { defer wg.Done(); r.Exit() }()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)
}

func TestRun_FallbackPrompts(t *testing.T) {
	ch := &resource.DailyChallenge{ID: "mystery-easter-egg", TimeLimitMinutes: 7, Tasks: []string{"one", "two"}}
	r := NewRun("run-1", ch)
	require.NoError(t, r.Start())

	v := r.View()
	require.NotNil(t, v.Prompt)
	assert.Equal(t, "mystery-easter-egg-0", v.Prompt.ID)
	assert.Equal(t, []string{"Completed", "Need more time"}, v.Prompt.Choices)
	assert.Equal(t, 2, v.TotalPrompts)

	assert.False(t, answerAndAdvance(t, r, 0))
	assert.True(t, answerAndAdvance(t, r, 0))
	assert.True(t, r.Summary().Completed)
}

func TestRun_NoPrompts(t *testing.T) {
	r := NewRun("run-1", &resource.DailyChallenge{ID: "empty", TimeLimitMinutes: 1})
	require.NoError(t, r.Start())

	_, err := r.Answer(0)
	assert.ErrorIs(t, err, ErrNoPrompt)

	done, err := r.Advance()
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 0, r.Summary().Accuracy)
}

func TestRun_ViewHidesAnswerKey(t *testing.T) {
	r := startedRun(t)
	v := r.View()
	assert.Equal(t, "running", v.Phase)
	assert.Nil(t, v.Feedback)
	assert.Equal(t, "speed-sprint-1", v.Prompt.ID)

	_, _ = r.Answer(2)
	v = r.View()
	require.NotNil(t, v.Feedback)
	assert.Equal(t, 0, v.Feedback.CorrectIndex)

	r.Exit()
	v = r.View()
	assert.Nil(t, v.Prompt)
	require.NotNil(t, v.Summary)
}
