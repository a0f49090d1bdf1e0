package streak

import (
	"testing"

	"github.com/kasuganosora/mathquest/game/profile"
	"github.com/stretchr/testify/assert"
)

func withStreak(streak int, last string) *profile.UserProfile {
	return &profile.UserProfile{ID: "p1", Streak: streak, LastPlayed: last}
}

func TestEvaluate_SameDayIsIdempotent(t *testing.T) {
	p := Evaluate(withStreak(3, "2024-01-05"), true, "2024-01-05")
	assert.Equal(t, 3, p.Streak)
	assert.Equal(t, "2024-01-05", p.LastPlayed)

	again := Evaluate(p, true, "2024-01-05")
	assert.Equal(t, 3, again.Streak)
}

func TestEvaluate_NextDayIncrements(t *testing.T) {
	p := Evaluate(withStreak(3, "2024-01-04"), true, "2024-01-05")
	assert.Equal(t, 4, p.Streak)
	assert.Equal(t, "2024-01-05", p.LastPlayed)
}

func TestEvaluate_FirstEverCompletion(t *testing.T) {
	p := Evaluate(withStreak(0, ""), true, "2024-01-05")
	assert.Equal(t, 1, p.Streak)
	assert.Equal(t, "2024-01-05", p.LastPlayed)
}

func TestEvaluate_IdleOnLaterDayBreaks(t *testing.T) {
	p := Evaluate(withStreak(3, "2024-01-01"), false, "2024-01-05")
	assert.Equal(t, 0, p.Streak)
	assert.Equal(t, "2024-01-01", p.LastPlayed)
}

func TestEvaluate_IdleSameDayOrNeverPlayed(t *testing.T) {
	assert.Equal(t, 3, Evaluate(withStreak(3, "2024-01-05"), false, "2024-01-05").Streak)

	fresh := Evaluate(withStreak(0, ""), false, "2024-01-05")
	assert.Equal(t, 0, fresh.Streak)
	assert.Equal(t, "", fresh.LastPlayed)
}

func TestEvaluate_TruncatesTimestamps(t *testing.T) {
	p := Evaluate(withStreak(2, "2024-01-05T08:30:00.000Z"), true, "2024-01-05T21:00:00Z")
	assert.Equal(t, 2, p.Streak)
	assert.Equal(t, "2024-01-05", p.LastPlayed)
}

func TestEvaluate_DoesNotMutateInput(t *testing.T) {
	in := withStreak(3, "2024-01-04")
	_ = Evaluate(in, true, "2024-01-05")
	assert.Equal(t, 3, in.Streak)
	assert.Equal(t, "2024-01-04", in.LastPlayed)
}
