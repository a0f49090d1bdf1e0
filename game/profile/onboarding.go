package profile

import "errors"

// ErrOnboardingFailed is returned when the placement quiz score is below the
// pass mark.
var ErrOnboardingFailed = errors.New("profile: onboarding quiz not passed")

// PlacementPuzzle is one question of the onboarding quiz.
type PlacementPuzzle struct {
	ID          string   `json:"id"`
	Prompt      string   `json:"prompt"`
	Options     []string `json:"options"`
	Answer      string   `json:"-"`
	Explanation string   `json:"explanation"`
	Score       int      `json:"score"`
}

// PlacementQuiz is the fixed onboarding adventure.
var PlacementQuiz = []PlacementPuzzle{
	{
		ID:          "sequence",
		Prompt:      "Crack the portal code: 3, 9, 27, ?",
		Options:     []string{"30", "54", "81"},
		Answer:      "81",
		Explanation: "Multiply by 3 each time. 27 x 3 = 81.",
		Score:       40,
	},
	{
		ID:          "balance",
		Prompt:      "Balance the energy core: 2x + 5 = 19. What is x?",
		Options:     []string{"7", "6", "5"},
		Answer:      "7",
		Explanation: "Subtract 5 then divide: (19 - 5) / 2 = 7.",
		Score:       35,
	},
	{
		ID:          "probability",
		Prompt:      "Pick the better odds: Which has higher probability?",
		Options:     []string{"Rolling a sum of 7 with two dice", "Flipping 3 heads in a row"},
		Answer:      "Rolling a sum of 7 with two dice",
		Explanation: "6 of 36 outcomes sum to 7 (about 16.7%), versus 12.5% for three heads.",
		Score:       45,
	},
}

// passPercent of the maximum quiz score is required to finish onboarding.
const passPercent = 40

// ScoreOnboarding totals the scores of correctly answered puzzles. Unknown
// puzzle ids are ignored.
func ScoreOnboarding(answers map[string]string) (score int, passed bool) {
	total := 0
	for _, p := range PlacementQuiz {
		total += p.Score
		if answers[p.ID] == p.Answer {
			score += p.Score
		}
	}
	return score, score*100 >= total*passPercent
}
