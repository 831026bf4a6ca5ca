package assessment

import "testing"

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   Severity
		wantOK bool
	}{
		{"minimal", "minimal", SeverityMinimal, true},
		{"mild", "mild", SeverityMild, true},
		{"moderate", "moderate", SeverityModerate, true},
		{"severe", "severe", SeveritySevere, true},
		{"mixed case", "Severe", SeveritySevere, true},
		{"surrounding whitespace", "  moderate ", SeverityModerate, true},
		{"unknown tier preserved", "catastrophic", Severity("catastrophic"), false},
		{"empty", "", Severity(""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseSeverity(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("ParseSeverity(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAtLeast(t *testing.T) {
	ordered := []Severity{SeverityMinimal, SeverityMild, SeverityModerate, SeveritySevere}

	for i, s := range ordered {
		for j, other := range ordered {
			if got := s.AtLeast(other); got != (i >= j) {
				t.Errorf("%s.AtLeast(%s) = %v, want %v", s, other, got, i >= j)
			}
		}
	}

	// Unknown severities never satisfy any threshold, in either position.
	unknown := Severity("catastrophic")
	if unknown.AtLeast(SeverityMinimal) {
		t.Error("unknown severity satisfied a threshold")
	}
	if SeveritySevere.AtLeast(unknown) {
		t.Error("unknown threshold was satisfied")
	}
}

func TestRequiresEscalation(t *testing.T) {
	tests := []struct {
		sev  Severity
		want bool
	}{
		{SeverityMinimal, false},
		{SeverityMild, false},
		{SeverityModerate, true},
		{SeveritySevere, true},
		{Severity("unknown"), false},
		{Severity(""), false},
	}
	for _, tt := range tests {
		if got := tt.sev.RequiresEscalation(); got != tt.want {
			t.Errorf("RequiresEscalation(%q) = %v, want %v", tt.sev, got, tt.want)
		}
	}
}
