package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestWizard_Advance_EmptySelection(t *testing.T) {
	tests := []struct {
		name     string
		subjects []string
		mode     QuizMode
		wantErr  bool
	}{
		{"no subjects no mode", nil, "", true},
		{"subjects but no mode", []string{"anatomy"}, "", true},
		{"mode but no subjects", nil, ModeMixed, true},
		{"both set", []string{"anatomy"}, ModeMixed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWizard()
			w.SelectSubjects(tt.subjects)
			if tt.mode != "" {
				w.SelectMode(tt.mode)
			}
			err := w.Advance()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Advance() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var de *DomainError
				if !errors.As(err, &de) || de.Code != CodeEmptySelection {
					t.Errorf("Advance() error code = %v, want %v", err, CodeEmptySelection)
				}
				if w.Step() != StepSelectingSubjectsAndMode {
					t.Errorf("wizard advanced despite validation failure")
				}
			} else if w.Step() != StepConfiguring {
				t.Errorf("Step() = %v, want StepConfiguring", w.Step())
			}
		})
	}
}

func TestWizard_WeakSubjectsOverridesSelection(t *testing.T) {
	w := NewWizard()
	w.SelectSubjects([]string{"pathology"})
	w.SelectMode(ModeWeakSubjects)

	want := WeakSubjects()
	if got := w.Subjects(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Subjects() = %v, want system-selected %v", got, want)
	}

	// Manual edits are locked while in weak-subjects mode.
	w.SelectSubjects([]string{"pharmacology"})
	if got := w.Subjects(); !reflect.DeepEqual(got, want) {
		t.Errorf("Subjects() = %v after manual edit, want unchanged %v", got, want)
	}

	// Switching mode unlocks the selection again.
	w.SelectMode(ModeMixed)
	w.SelectSubjects([]string{"pharmacology"})
	if got := w.Subjects(); !reflect.DeepEqual(got, []string{"pharmacology"}) {
		t.Errorf("Subjects() = %v, want [pharmacology]", got)
	}
}

func TestWizard_BackRetainsSelections(t *testing.T) {
	w := NewWizard()
	w.SelectSubjects([]string{"anatomy", "physiology"})
	w.SelectMode(ModeMixed)
	if err := w.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}

	w.Back()
	if w.Step() != StepSelectingSubjectsAndMode {
		t.Fatalf("Step() = %v after Back, want selection step", w.Step())
	}
	if got := w.Subjects(); !reflect.DeepEqual(got, []string{"anatomy", "physiology"}) {
		t.Errorf("Subjects() = %v after Back, selections should be retained", got)
	}
}

func TestClampQuestionCount(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		isPremium bool
		want      int
	}{
		{"free user requesting 40", 40, false, 10},
		{"free user requesting 10", 10, false, 10},
		{"free user requesting nonsense", -5, false, 10},
		{"premium exact 20", 20, true, 20},
		{"premium exact 40", 40, true, 40},
		{"premium between tiers rounds down", 30, true, 20},
		{"premium below smallest tier", 5, true, 10},
		{"premium above largest tier", 100, true, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampQuestionCount(tt.requested, tt.isPremium); got != tt.want {
				t.Errorf("ClampQuestionCount(%d, %v) = %d, want %d", tt.requested, tt.isPremium, got, tt.want)
			}
		})
	}
}

func TestWizard_Finalize_NonPremiumClamps(t *testing.T) {
	w := NewWizard()
	w.SelectSubjects([]string{"anatomy"})
	w.SelectMode(ModeMixed)
	if err := w.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}

	limit := 60
	cfg := w.Finalize(40, &limit, false)

	if cfg.QuestionCount != FreeQuestionCap {
		t.Errorf("QuestionCount = %d, want %d", cfg.QuestionCount, FreeQuestionCap)
	}
	if cfg.TimeLimitMinutes != nil {
		t.Errorf("TimeLimitMinutes = %v, want nil for non-premium", *cfg.TimeLimitMinutes)
	}
	if w.Step() != StepReady {
		t.Errorf("Step() = %v, want StepReady", w.Step())
	}
}

func TestWizard_Finalize_PremiumKeepsRequest(t *testing.T) {
	w := NewWizard()
	w.SelectSubjects([]string{"anatomy"})
	w.SelectMode(ModePastExam)
	if err := w.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}

	limit := 45
	cfg := w.Finalize(40, &limit, true)

	if cfg.QuestionCount != 40 {
		t.Errorf("QuestionCount = %d, want 40", cfg.QuestionCount)
	}
	if cfg.TimeLimitMinutes == nil || *cfg.TimeLimitMinutes != 45 {
		t.Errorf("TimeLimitMinutes = %v, want 45", cfg.TimeLimitMinutes)
	}
	if cfg.Mode != ModePastExam {
		t.Errorf("Mode = %v, want %v", cfg.Mode, ModePastExam)
	}
}

func TestAllowsCapability(t *testing.T) {
	premium := &Profile{ID: "u1", IsPremium: true}
	free := &Profile{ID: "u2"}

	if !AllowsCapability(premium, CapabilityPremium) {
		t.Error("premium profile should pass the premium gate")
	}
	if AllowsCapability(free, CapabilityPremium) {
		t.Error("free profile should not pass the premium gate")
	}
	if AllowsCapability(nil, CapabilityPremium) {
		t.Error("nil profile should not pass any gate")
	}
	if AllowsCapability(premium, Capability("unknown")) {
		t.Error("unknown capability should never pass")
	}
}
