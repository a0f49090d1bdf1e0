// Package challenge implements the timed daily-challenge run: one answer per
// prompt, a combo counter, and a summary that is produced exactly once.
package challenge

import (
	"errors"
	"math"
	"sync"

	"github.com/kasuganosora/mathquest/resource"
)

var (
	ErrNotRunning      = errors.New("challenge: run is not running")
	ErrAlreadyStarted  = errors.New("challenge: run already started")
	ErrRunFinished     = errors.New("challenge: run already finished")
	ErrAnswerLocked    = errors.New("challenge: prompt already answered")
	ErrFeedbackPending = errors.New("challenge: answer the prompt before moving on")
	ErrNoPrompt        = errors.New("challenge: no prompt to answer")
)

// Phase is the run lifecycle state.
type Phase int

const (
	NotStarted Phase = iota
	Running
	Finished
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Result records the answer given to one prompt.
type Result struct {
	PromptID string `json:"promptId"`
	Choice   int    `json:"choice"`
	Correct  bool   `json:"correct"`
}

// Feedback is revealed after answering the current prompt.
type Feedback struct {
	Correct      bool   `json:"correct"`
	CorrectIndex int    `json:"correctIndex"`
	Hint         string `json:"hint,omitempty"`
	Combo        int    `json:"combo"`
}

// Summary is the immutable outcome of a finished run.
type Summary struct {
	ChallengeID        string   `json:"challengeId"`
	Solved             int      `json:"solved"`
	Correct            int      `json:"correct"`
	Accuracy           int      `json:"accuracy"`
	BestCombo          int      `json:"bestCombo"`
	AllSolved          bool     `json:"allSolved"`
	Completed          bool     `json:"completed"`
	TimeElapsedSeconds int      `json:"timeElapsedSeconds"`
	Results            []Result `json:"results"`
}

// PromptView is a prompt without its answer key.
type PromptView struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
}

// View is a point-in-time snapshot of a run for clients.
type View struct {
	RunID            string      `json:"runId"`
	ChallengeID      string      `json:"challengeId"`
	Phase            string      `json:"phase"`
	PromptIndex      int         `json:"promptIndex"`
	TotalPrompts     int         `json:"totalPrompts"`
	Prompt           *PromptView `json:"prompt,omitempty"`
	RemainingSeconds int         `json:"remainingSeconds"`
	Combo            int         `json:"combo"`
	Feedback         *Feedback   `json:"feedback,omitempty"`
	Summary          *Summary    `json:"summary,omitempty"`
}

// Run is the state machine for one attempt at a daily challenge.
type Run struct {
	mu        sync.Mutex
	id        string
	challenge *resource.DailyChallenge
	prompts   []resource.Prompt
	total     int
	remaining int
	index     int
	results   []Result
	combo     int
	feedback  *Feedback
	phase     Phase
	summary   *Summary
	hooks     []func(Summary)
}

// NewRun prepares a run with the challenge's prompts and full time budget.
func NewRun(id string, ch *resource.DailyChallenge) *Run {
	total := ch.TimeLimitMinutes * 60
	return &Run{
		id:        id,
		challenge: ch,
		prompts:   ch.RunPrompts(),
		total:     total,
		remaining: total,
	}
}

func (r *Run) ID() string                           { return r.id }
func (r *Run) Challenge() *resource.DailyChallenge { return r.challenge }

// OnFinish registers fn to receive the summary when the run finalizes. Hooks
// run outside the run's lock, in registration order.
func (r *Run) OnFinish(fn func(Summary)) {
	r.mu.Lock()
	r.hooks = append(r.hooks, fn)
	r.mu.Unlock()
}

// Start moves the run from NotStarted to Running.
func (r *Run) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.phase {
	case Running:
		return ErrAlreadyStarted
	case Finished:
		return ErrRunFinished
	}
	r.phase = Running
	return nil
}

// Answer records choice for the current prompt. Only the first answer per
// prompt counts; an out-of-range choice is simply wrong.
func (r *Run) Answer(choice int) (Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.runningLocked(); err != nil {
		return Feedback{}, err
	}
	if r.index >= len(r.prompts) {
		return Feedback{}, ErrNoPrompt
	}
	if r.feedback != nil {
		return *r.feedback, ErrAnswerLocked
	}
	p := r.prompts[r.index]
	correct := choice == p.CorrectIndex
	r.results = append(r.results, Result{PromptID: p.ID, Choice: choice, Correct: correct})
	if correct {
		r.combo++
	} else {
		r.combo = 0
	}
	fb := Feedback{Correct: correct, CorrectIndex: p.CorrectIndex, Combo: r.combo}
	if !correct {
		fb.Hint = p.Hint
	}
	r.feedback = &fb
	return fb, nil
}

// Advance moves to the next prompt once feedback is shown. Advancing past the
// last prompt finalizes the run as completed.
func (r *Run) Advance() (finished bool, err error) {
	r.mu.Lock()
	if err := r.runningLocked(); err != nil {
		r.mu.Unlock()
		return false, err
	}
	if len(r.prompts) > 0 && r.feedback == nil {
		r.mu.Unlock()
		return false, ErrFeedbackPending
	}
	if r.index+1 < len(r.prompts) {
		r.index++
		r.feedback = nil
		r.mu.Unlock()
		return false, nil
	}
	sum, hooks, _ := r.finalizeLocked(true)
	r.mu.Unlock()
	runHooks(hooks, sum)
	return true, nil
}

// Exit abandons the run. The summary is still produced and handed to hooks.
func (r *Run) Exit() (Summary, bool) {
	return r.Finalize(false)
}

// Tick consumes one second of the time budget; reaching zero finalizes the
// run as not completed.
func (r *Run) Tick() {
	r.mu.Lock()
	if r.phase != Running {
		r.mu.Unlock()
		return
	}
	if r.remaining > 0 {
		r.remaining--
	}
	if r.remaining > 0 {
		r.mu.Unlock()
		return
	}
	sum, hooks, _ := r.finalizeLocked(false)
	r.mu.Unlock()
	runHooks(hooks, sum)
}

// Finalize ends the run. Only the first call computes the summary and fires
// hooks; later calls return the stored summary and false.
func (r *Run) Finalize(completed bool) (Summary, bool) {
	r.mu.Lock()
	sum, hooks, first := r.finalizeLocked(completed)
	r.mu.Unlock()
	if first {
		runHooks(hooks, sum)
	}
	return sum, first
}

// Summary returns the final summary, or nil while the run is live.
func (r *Run) Summary() *Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.summary == nil {
		return nil
	}
	s := *r.summary
	return &s
}

// Phase returns the current lifecycle state.
func (r *Run) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// View snapshots the run for clients.
func (r *Run) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := View{
		RunID:            r.id,
		ChallengeID:      r.challenge.ID,
		Phase:            r.phase.String(),
		PromptIndex:      r.index,
		TotalPrompts:     len(r.prompts),
		RemainingSeconds: r.remaining,
		Combo:            r.combo,
	}
	if r.phase != Finished && r.index < len(r.prompts) {
		p := r.prompts[r.index]
		v.Prompt = &PromptView{ID: p.ID, Question: p.Question, Choices: p.Choices}
	}
	if r.feedback != nil {
		fb := *r.feedback
		v.Feedback = &fb
	}
	if r.summary != nil {
		s := *r.summary
		v.Summary = &s
	}
	return v
}

func (r *Run) runningLocked() error {
	switch r.phase {
	case NotStarted:
		return ErrNotRunning
	case Finished:
		return ErrRunFinished
	}
	return nil
}

func (r *Run) finalizeLocked(requested bool) (Summary, []func(Summary), bool) {
	if r.summary != nil {
		return *r.summary, nil, false
	}
	solved := len(r.results)
	correct := 0
	best, streak := 0, 0
	for _, res := range r.results {
		if res.Correct {
			correct++
			streak++
			best = max(best, streak)
		} else {
			streak = 0
		}
	}
	accuracy := 0
	if solved > 0 {
		accuracy = int(math.Round(float64(correct) / float64(solved) * 100))
	}
	allSolved := solved == len(r.prompts)
	sum := Summary{
		ChallengeID:        r.challenge.ID,
		Solved:             solved,
		Correct:            correct,
		Accuracy:           accuracy,
		BestCombo:          best,
		AllSolved:          allSolved,
		Completed:          requested && allSolved,
		TimeElapsedSeconds: max(0, r.total-r.remaining),
		Results:            append([]Result(nil), r.results...),
	}
	r.summary = &sum
	r.phase = Finished
	r.feedback = nil
	hooks := r.hooks
	r.hooks = nil
	return sum, hooks, true
}

func runHooks(hooks []func(Summary), sum Summary) {
	for _, h := range hooks {
		h(sum)
	}
}
