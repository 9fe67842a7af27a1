package detect

import (
	"strings"
	"testing"
)

func TestScanner_Scan_Empty(t *testing.T) {
	s := NewScanner()
	pos := s.Scan("")

	if pos.NeedsInput != -1 || pos.ReadyForReview != -1 || pos.Completing != -1 ||
		pos.Working != -1 || pos.Completed != -1 {
		t.Errorf("Scan(\"\") = %+v, want all -1", pos)
	}
}

func TestScanner_Scan_RightmostMatchWins(t *testing.T) {
	s := NewScanner()
	output := "[JAT:WORKING task=a]\nnoise\n[JAT:WORKING task=b]"

	pos := s.Scan(output)
	if pos.Working < 0 {
		t.Fatal("expected working marker to be found")
	}
	wantOff := len("[JAT:WORKING task=a]\nnoise\n")
	if pos.Working != wantOff {
		t.Errorf("Working = %d, want offset of second marker %d", pos.Working, wantOff)
	}
}

func TestScanner_Scan_GroupPositionIsRightmostAcrossPatterns(t *testing.T) {
	s := NewScanner()
	// Two different patterns of the same group: the later one decides
	// the group position.
	output := "[JAT:NEEDS_REVIEW]\noutput\n👀 READY FOR REVIEW"

	pos := s.Scan(output)
	wantOff := len([]rune("[JAT:NEEDS_REVIEW]\noutput\n"))
	if pos.ReadyForReview != wantOff {
		t.Errorf("ReadyForReview = %d, want %d", pos.ReadyForReview, wantOff)
	}
}

func TestScanner_Scan_WindowingInvariant(t *testing.T) {
	s := NewScanner()

	// Marker followed by more than ScanWindow characters of filler must
	// not be detected.
	buried := "[JAT:NEEDS_REVIEW]" + strings.Repeat("x", ScanWindow+1)
	if pos := s.Scan(buried); pos.ReadyForReview != -1 {
		t.Errorf("marker outside window detected at %d, want -1", pos.ReadyForReview)
	}

	// The same marker just inside the window is visible.
	visible := strings.Repeat("x", ScanWindow-len("[JAT:NEEDS_REVIEW]")) + "[JAT:NEEDS_REVIEW]"
	if pos := s.Scan(visible); pos.ReadyForReview < 0 {
		t.Error("marker inside window not detected")
	}
}

func TestScanner_Scan_WindowMeasuredInRunes(t *testing.T) {
	s := NewScanner()

	// Multi-byte filler: 3000 runes of filler push the marker out of
	// the window even though tmux buffers are byte streams.
	buried := "[JAT:COMPLETED]" + strings.Repeat("→", ScanWindow)
	if pos := s.Scan(buried); pos.Completed != -1 {
		t.Errorf("marker outside rune window detected at %d, want -1", pos.Completed)
	}

	// 2999 runes of multi-byte filler (well over 3000 bytes) keep a
	// trailing marker visible.
	visible := strings.Repeat("→", 2999) + "[JAT:COMPLETED]"
	pos := s.Scan(visible)
	if pos.Completed < 0 {
		t.Fatal("trailing marker not detected after multi-byte filler")
	}
}

func TestScanner_Scan_InteractivePromptShapes(t *testing.T) {
	s := NewScanner()

	tests := []struct {
		name   string
		output string
	}{
		{
			name:   "explicit tag",
			output: "[JAT:NEEDS_INPUT]",
		},
		{
			name:   "clarification banner",
			output: "❓ NEED CLARIFICATION on the API shape",
		},
		{
			name:   "claude select prompt footer",
			output: "Which approach?\n  1. Rewrite\n  2. Patch\nEnter to select · Tab/Arrow keys to navigate · Esc to cancel",
		},
		{
			name:   "consecutive unchecked checkboxes",
			output: "Pick options:\n  ☐ Add tests\n  ☐ Update docs\n",
		},
		{
			name:   "free-form answer prompt",
			output: "Type something\n❯ Next",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if pos := s.Scan(tc.output); pos.NeedsInput < 0 {
				t.Errorf("needs-input prompt not detected in %q", tc.output)
			}
		})
	}
}

func TestScanner_Scan_RepeatedPromptFooterStaysRightmost(t *testing.T) {
	s := NewScanner()

	// A prompt shown, answered, work announced, then a second prompt.
	// The footer match must anchor at the second occurrence, after the
	// working marker, or the resolver will see a stale needs-input.
	footer := "Enter to select · Tab/Arrow keys to navigate · Esc to cancel"
	output := footer + "\nanswered\n[JAT:WORKING task=abc-1]\nWhich file?\n" + footer

	pos := s.Scan(output)
	if pos.NeedsInput < 0 || pos.Working < 0 {
		t.Fatalf("positions = %+v, want both groups matched", pos)
	}
	if pos.NeedsInput <= pos.Working {
		t.Errorf("NeedsInput = %d, Working = %d; re-shown prompt should be rightmost",
			pos.NeedsInput, pos.Working)
	}

	if st := s.ResolveOutput(output, true, false); st != StateNeedsInput {
		t.Errorf("state = %v, want needs-input for the re-shown prompt", st)
	}
}

func TestScanner_Scan_SingleCheckboxDoesNotMatch(t *testing.T) {
	s := NewScanner()
	output := "Done:\n  ☐ one unchecked item\n  ☑ a checked one\n"

	if pos := s.Scan(output); pos.NeedsInput >= 0 {
		t.Errorf("single unchecked checkbox misdetected as needs-input at %d", pos.NeedsInput)
	}
}

func TestTrailingWindow(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want string
	}{
		{"shorter than window", "abc", 5, "abc"},
		{"exactly window", "abcde", 5, "abcde"},
		{"longer than window", "abcdefgh", 3, "fgh"},
		{"multi-byte runes", "αβγδε", 2, "δε"},
		{"empty", "", 4, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := TrailingWindow(tc.text, tc.n); got != tc.want {
				t.Errorf("TrailingWindow(%q, %d) = %q, want %q", tc.text, tc.n, got, tc.want)
			}
		})
	}
}

func TestStripAnsi(t *testing.T) {
	in := "\x1b[32m[JAT:WORKING task=abc-1]\x1b[0m"
	want := "[JAT:WORKING task=abc-1]"
	if got := StripAnsi(in); got != want {
		t.Errorf("StripAnsi(%q) = %q, want %q", in, got, want)
	}
}
