package domain

import "sort"

// QuizMode is the question-selection strategy for a quiz.
type QuizMode string

const (
	ModeMixed        QuizMode = "mixed"
	ModeWeakSubjects QuizMode = "weak-subjects"
	ModePastExam     QuizMode = "past-exam"
)

// ParseQuizMode maps a wire value to a QuizMode.
func ParseQuizMode(s string) (QuizMode, bool) {
	switch QuizMode(s) {
	case ModeMixed, ModeWeakSubjects, ModePastExam:
		return QuizMode(s), true
	default:
		return "", false
	}
}

const (
	// FreeQuestionCap is the question count enforced for non-premium users.
	FreeQuestionCap = 10
)

// PremiumQuestionCounts are the question counts a premium user may choose.
var PremiumQuestionCounts = []int{10, 20, 40}

// QuizConfig is the finalized output of the configuration wizard. It is
// consumed once to instantiate a session and not persisted.
type QuizConfig struct {
	Subjects         []string
	Mode             QuizMode
	QuestionCount    int
	TimeLimitMinutes *int // nil means no limit; always nil for non-premium
}

// WizardStep is the wizard's position in its state machine.
type WizardStep int

const (
	StepSelectingSubjectsAndMode WizardStep = iota
	StepConfiguring
	StepReady
)

// Wizard accumulates a quiz configuration across two UI steps:
// subject/mode selection, then count/time-limit configuration.
type Wizard struct {
	step          WizardStep
	subjects      map[string]struct{}
	mode          QuizMode
	subjectsFixed bool // true in weak-subjects mode; manual edits are ignored
}

// NewWizard creates a wizard at the subject/mode selection step.
func NewWizard() *Wizard {
	return &Wizard{
		step:     StepSelectingSubjectsAndMode,
		subjects: make(map[string]struct{}),
	}
}

// Step returns the wizard's current step.
func (w *Wizard) Step() WizardStep {
	return w.step
}

// SelectSubjects replaces the subject selection. Validation is deferred to
// Advance. In weak-subjects mode the selection is system-owned and manual
// edits are ignored.
func (w *Wizard) SelectSubjects(subjects []string) {
	if w.subjectsFixed {
		return
	}
	w.subjects = make(map[string]struct{}, len(subjects))
	for _, s := range subjects {
		w.subjects[s] = struct{}{}
	}
}

// SelectMode sets the quiz mode. Choosing weak-subjects overrides the subject
// selection with the system-selected set and locks further manual edits;
// choosing any other mode unlocks them again.
func (w *Wizard) SelectMode(mode QuizMode) {
	w.mode = mode
	if mode == ModeWeakSubjects {
		w.subjectsFixed = true
		w.subjects = make(map[string]struct{})
		for _, s := range WeakSubjects() {
			w.subjects[s] = struct{}{}
		}
	} else {
		w.subjectsFixed = false
	}
}

// Subjects returns the current selection in canonical-catalog order, with
// unknown subjects sorted last.
func (w *Wizard) Subjects() []string {
	out := make([]string, 0, len(w.subjects))
	for s := range w.subjects {
		out = append(out, s)
	}
	rank := make(map[string]int, len(CanonicalSubjects))
	for i, s := range CanonicalSubjects {
		rank[s] = i
	}
	sort.Slice(out, func(i, j int) bool {
		ri, iok := rank[out[i]]
		rj, jok := rank[out[j]]
		if iok != jok {
			return iok
		}
		if iok && jok {
			return ri < rj
		}
		return out[i] < out[j]
	})
	return out
}

// Advance validates the selection step and moves the wizard to configuration.
// It fails with an empty-selection error if no subject is selected or the
// mode is unset.
func (w *Wizard) Advance() error {
	if len(w.subjects) == 0 || w.mode == "" {
		return NewEmptySelectionError()
	}
	w.step = StepConfiguring
	return nil
}

// Back returns the wizard to the selection step. Prior selections are kept.
func (w *Wizard) Back() {
	if w.step == StepConfiguring {
		w.step = StepSelectingSubjectsAndMode
	}
}

// Finalize produces the QuizConfig, clamping the requested count and time
// limit to the caller's tier. This is a server-trust-boundary correction:
// any code path accepting a client-supplied config must re-run these clamps.
func (w *Wizard) Finalize(questionCount int, timeLimitMinutes *int, isPremium bool) QuizConfig {
	cfg := QuizConfig{
		Subjects:         w.Subjects(),
		Mode:             w.mode,
		QuestionCount:    ClampQuestionCount(questionCount, isPremium),
		TimeLimitMinutes: ClampTimeLimit(timeLimitMinutes, isPremium),
	}
	w.step = StepReady
	return cfg
}

// ClampQuestionCount enforces the tier caps on a requested question count.
// Non-premium users always get the free cap. Premium users get the nearest
// allowed count at or below the request, defaulting to the smallest.
func ClampQuestionCount(requested int, isPremium bool) int {
	if !isPremium {
		return FreeQuestionCap
	}
	chosen := PremiumQuestionCounts[0]
	for _, c := range PremiumQuestionCounts {
		if requested >= c {
			chosen = c
		}
	}
	return chosen
}

// ClampTimeLimit forces the time limit absent for non-premium users and
// rejects non-positive values.
func ClampTimeLimit(requested *int, isPremium bool) *int {
	if !isPremium || requested == nil || *requested <= 0 {
		return nil
	}
	v := *requested
	return &v
}
