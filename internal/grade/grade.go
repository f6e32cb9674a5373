// Package grade turns free-text classifier output into a structured decision.
//
// The marker phrases below are a contract with the prompt in internal/llm.
// Changing either side requires bumping ContractVersion and updating the tests.
package grade

import "strings"

// ContractVersion identifies the prompt/marker pairing in use.
const ContractVersion = "2025-10.v1"

const (
	// RelevantMarker opens every answer about a loan advertisement.
	RelevantMarker = "เกี่ยวกับสินเชื่อ"
	// IrrelevantMarker opens every answer about anything else.
	IrrelevantMarker = "ไม่เกี่ยวกับสินเชื่อ"
	// NotComplyMarker flags a loan advertisement that breaks the rules.
	NotComplyMarker = "NOT COMPLY"
	// ComplyMarker flags a loan advertisement that follows the rules.
	ComplyMarker = "COMPLY"
)

// Verdict is the compliance outcome of a decision.
type Verdict string

const (
	Comply    Verdict = "COMPLY"
	NotComply Verdict = "NOT_COMPLY"
	Unknown   Verdict = "UNKNOWN"
)

// Decision is the graded view of one classifier answer.
type Decision struct {
	IsSubjectMatter bool
	Verdict         Verdict
	Rationale       string
}

// AlertWorthy reports whether the decision must raise an alert.
func (d Decision) AlertWorthy() bool {
	return d.IsSubjectMatter && d.Verdict == NotComply
}

// normalize is applied identically to the text before every marker check.
func normalize(text string) string {
	return strings.ToUpper(strings.TrimSpace(text))
}

// Grade derives a Decision from classifier text. It never fails.
func Grade(text string) Decision {
	n := normalize(text)

	d := Decision{
		IsSubjectMatter: strings.HasPrefix(n, normalize(RelevantMarker)),
		Verdict:         Unknown,
		Rationale:       strings.TrimSpace(text),
	}

	switch {
	case strings.Contains(n, NotComplyMarker):
		d.Verdict = NotComply
	case strings.Contains(n, ComplyMarker):
		d.Verdict = Comply
	}
	return d
}
