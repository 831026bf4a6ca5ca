package assessment

import "strings"

// Severity is the ordinal risk classification assigned by the scoring
// authority: minimal < mild < moderate < severe.
type Severity string

const (
	SeverityMinimal  Severity = "minimal"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

var severityRank = map[Severity]int{
	SeverityMinimal:  0,
	SeverityMild:     1,
	SeverityModerate: 2,
	SeveritySevere:   3,
}

// ParseSeverity normalizes a wire value. Unknown values are preserved
// verbatim with ok=false so callers can fail closed.
func ParseSeverity(s string) (Severity, bool) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	_, ok := severityRank[sev]
	return sev, ok
}

// AtLeast reports whether s is at or above other on the ordinal scale.
// Unknown severities never satisfy any threshold.
func (s Severity) AtLeast(other Severity) bool {
	rs, ok := severityRank[s]
	if !ok {
		return false
	}
	ro, ok := severityRank[other]
	if !ok {
		return false
	}
	return rs >= ro
}

// RequiresEscalation reports whether the crisis escalation workflow must be
// offered for this severity (moderate or above).
func (s Severity) RequiresEscalation() bool {
	return s.AtLeast(SeverityModerate)
}
