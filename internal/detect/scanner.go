package detect

import (
	"regexp"
	"unicode/utf8"
)

// ScanWindow is the number of trailing characters of output considered
// when scanning for markers. Markers that have scrolled past this window
// are invisible to the resolver even if they exist earlier in the
// buffer. Measured in runes, not bytes, so multi-byte output never
// splits a sequence.
const ScanWindow = 3000

// Marker pattern groups. A group matches if any of its patterns match;
// the group's position is the rightmost match among all of them.
var (
	// NeedsInputPatterns detect the agent blocking on a human response:
	// the explicit marker tag, the clarification banner, and the shapes
	// of Claude Code's interactive prompts (option selectors, checkbox
	// question lists, free-form answer prompts).
	NeedsInputPatterns = []string{
		`\[JAT:NEEDS_INPUT\]`,
		`❓ NEED CLARIFICATION`,
		// Claude Code select-prompt footer. Lazy quantifiers so a
		// re-shown footer yields its own match instead of one match
		// anchored at the first occurrence; the resolver needs the
		// rightmost.
		`(?s)Enter to select.*?Tab/Arrow keys to navigate.*?Esc to cancel`,
		// Two or more consecutive unchecked checkbox lines
		`(?m)^[ \t]*[☐□][^\n]*\n[ \t]*[☐□]`,
		// Free-form answer prompt with a Next option
		`(?s)Type something.{0,400}?Next`,
	}

	// WorkingPatterns detect the agent announcing active work on a task.
	WorkingPatterns = []string{
		`\[JAT:WORKING task=[^\]]+\]`,
	}

	// ReadyForReviewPatterns detect finished work awaiting a review
	// decision.
	ReadyForReviewPatterns = []string{
		`\[JAT:NEEDS_REVIEW\]`,
		`\[JAT:READY actions=[^\]]+\]`,
		`👀 READY FOR REVIEW`,
	}

	// CompletingPatterns detect the completion routine mid-flight.
	CompletingPatterns = []string{
		`jat:complete is running`,
		`Marking task complete`,
	}

	// CompletedPatterns detect a finished task. [JAT:IDLE] counts here:
	// the agent prints it after wrapping up, and with no task assigned
	// both tags mean the same thing to the resolver.
	CompletedPatterns = []string{
		`\[JAT:COMPLETED\]`,
		`\[JAT:IDLE\]`,
		`✅ TASK COMPLETE`,
	}
)

// Positions holds the rightmost match offset of each marker group within
// the scan window, or -1 when the group did not match. Offsets are rune
// offsets into the window; only their relative order is meaningful.
type Positions struct {
	NeedsInput     int
	ReadyForReview int
	Completing     int
	Working        int
	Completed      int
}

// Scanner locates lifecycle markers in terminal output. It holds
// pre-compiled patterns and is safe for concurrent use.
type Scanner struct {
	needsInput     []*regexp.Regexp
	working        []*regexp.Regexp
	readyForReview []*regexp.Regexp
	completing     []*regexp.Regexp
	completed      []*regexp.Regexp
}

// NewScanner creates a scanner with all marker patterns pre-compiled.
func NewScanner() *Scanner {
	return &Scanner{
		needsInput:     compilePatterns(NeedsInputPatterns),
		working:        compilePatterns(WorkingPatterns),
		readyForReview: compilePatterns(ReadyForReviewPatterns),
		completing:     compilePatterns(CompletingPatterns),
		completed:      compilePatterns(CompletedPatterns),
	}
}

// compilePatterns compiles a list of regex pattern strings.
// Invalid patterns are silently skipped.
func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			compiled = append(compiled, re)
		}
	}
	return compiled
}

// Scan finds the rightmost match of each marker group within the last
// ScanWindow characters of output. Cost is bounded by the window size
// regardless of total output length. Scan has no side effects.
func (s *Scanner) Scan(output string) Positions {
	window := TrailingWindow(output, ScanWindow)
	return Positions{
		NeedsInput:     lastMatch(window, s.needsInput),
		ReadyForReview: lastMatch(window, s.readyForReview),
		Completing:     lastMatch(window, s.completing),
		Working:        lastMatch(window, s.working),
		Completed:      lastMatch(window, s.completed),
	}
}

// lastMatch returns the rune offset of the rightmost match of any
// pattern in the group, or -1 if none match.
func lastMatch(window string, patterns []*regexp.Regexp) int {
	best := -1
	for _, re := range patterns {
		locs := re.FindAllStringIndex(window, -1)
		if len(locs) == 0 {
			continue
		}
		start := locs[len(locs)-1][0]
		if off := utf8.RuneCountInString(window[:start]); off > best {
			best = off
		}
	}
	return best
}

// TrailingWindow returns the last n runes of text. Shorter text is
// returned unchanged.
func TrailingWindow(text string, n int) string {
	if len(text) <= n {
		// Byte length bounds rune length, so the whole text fits.
		return text
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}

// StripAnsi removes ANSI escape codes from text. This handles both CSI
// sequences (ESC[...letter) and OSC sequences (ESC]...BEL).
func StripAnsi(text string) string {
	return ansiRegex.ReplaceAllString(text, "")
}

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]|\x1b\][^\x07]*\x07`)
