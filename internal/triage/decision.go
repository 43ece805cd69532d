package triage

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Closure phrases owners use when there is nothing more to report.
var closureRe = regexp.MustCompile(`沒有|都正常|只有一次|不再|後來就|沒事|沒異常|都還好`)

// Decision is the finalization verdict for one turn.
type Decision struct {
	ShouldFinalize bool
	Class          FinalizeClass
}

// Classify grades this turn's signals: high severity is always critical,
// low/medium severity becomes stable only once the stability score shows
// repeated corroboration.
func Classify(severity Severity, stabilityScore int) FinalizeClass {
	switch {
	case severity == SeverityHigh:
		return ClassCritical
	case severity == SeverityLow && stabilityScore >= 2:
		return ClassStable
	case severity == SeverityMedium && stabilityScore >= 3:
		return ClassStable
	default:
		return ClassNone
	}
}

// Decide determines whether the conversation moves from symptom gathering to
// the final assessment. A conversation never closes without at least one
// identified ailment. Low/medium severity needs repeated corroboration or an
// unambiguous "nothing more to add" answer; high severity closes faster.
func Decide(candidates []string, severity Severity, followUp, userMessage string, stabilityScore int) Decision {
	class := Classify(severity, stabilityScore)
	d := Decision{Class: class}

	if len(candidates) == 0 {
		return d
	}

	hasFollowUp := strings.TrimSpace(followUp) != ""
	answered := isTerminalAnswer(userMessage)

	switch class {
	case ClassStable:
		d.ShouldFinalize = stabilityScore >= 2 || (answered && !hasFollowUp)
	case ClassCritical:
		d.ShouldFinalize = stabilityScore >= 3 || !hasFollowUp
	}
	return d
}

// ShortCircuit reports whether the previous turn's stored state already
// justifies finalizing, sparing this turn an extraction oracle call: a low
// severity that has held steady for two rounds will not change the verdict.
func ShortCircuit(prev StabilityRecord) bool {
	return prev.LastSeverity == SeverityLow && prev.Score >= 2
}

// isTerminalAnswer judges whether the owner's reply reads as a closing
// answer: a known closure phrase, or a reply long enough to be a full
// description rather than a yes/no.
func isTerminalAnswer(message string) bool {
	m := strings.ToLower(message)
	return closureRe.MatchString(m) || utf8.RuneCountInString(m) > 20
}
