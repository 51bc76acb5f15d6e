package voice

import (
	"strings"
	"testing"
)

func TestFormatQuestionsJoinsWithNewlines(t *testing.T) {
	got := FormatQuestions([]string{
		"Tell me about yourself",
		"Why this role?",
	})

	want := "- Tell me about yourself\n- Why this role?"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormatQuestionsEmptyListIsEmptyBlock(t *testing.T) {
	if got := FormatQuestions(nil); got != "" {
		t.Fatalf("expected empty block, got %q", got)
	}
}

func TestInterviewerScriptCarriesQuestionsVariable(t *testing.T) {
	cfg := Interviewer([]string{"What are your strengths?"})

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid interviewer config, got %v", err)
	}
	if cfg.Assistant == nil {
		t.Fatalf("expected inline assistant script")
	}
	if !strings.Contains(cfg.Assistant.SystemPrompt, "{{questions}}") {
		t.Fatalf("expected system prompt to reference the questions variable")
	}
	if got := cfg.Variables["questions"]; got != "- What are your strengths?" {
		t.Fatalf("unexpected questions block %q", got)
	}
	if cfg.Assistant.AnalysisSchema == nil {
		t.Fatalf("expected analysis schema on the interviewer script")
	}
}

func TestStartConfigValidation(t *testing.T) {
	testCases := []struct {
		name     string
		cfg      StartConfig
		expected error
	}{
		{name: "no target", cfg: StartConfig{}, expected: ErrNoTarget},
		{name: "both targets", cfg: StartConfig{WorkflowID: "wf", Assistant: &Assistant{}}, expected: ErrTwoTargets},
		{name: "workflow only", cfg: StartConfig{WorkflowID: "wf"}, expected: nil},
		{name: "assistant only", cfg: StartConfig{Assistant: &Assistant{}}, expected: nil},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.cfg.Validate(); got != testCase.expected {
				t.Fatalf("expected %v, got %v", testCase.expected, got)
			}
		})
	}
}
