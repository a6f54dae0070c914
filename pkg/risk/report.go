package risk

import (
	"fmt"
	"strings"
)

// Severity ranks a finding.
type Severity string

const (
	SeverityHigh    Severity = "HIGH"
	SeveritySuspect Severity = "SUSPECT"
	SeverityMedium  Severity = "MEDIUM"
	SeverityLow     Severity = "LOW"
	SeverityInfo    Severity = "INFO"
	SeverityError   Severity = "ERROR"
)

// Finding is one explanation line.
type Finding struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (f Finding) String() string {
	return "[" + string(f.Severity) + "] " + f.Message
}

// HasRisk reports whether the assessment carries a flag or any finding
// above INFO. Report-only findings such as an unlocked bootloader count.
func (a Assessment) HasRisk() bool {
	for _, flagged := range a.Flags {
		if flagged {
			return true
		}
	}
	for _, f := range a.Findings {
		if f.Severity != SeverityInfo {
			return true
		}
	}
	return false
}

// NativeReport renders a native assessment with its score.
func NativeReport(a Assessment) string {
	if !a.HasRisk() {
		return render(fmt.Sprintf("✅ Native environment clean (risk score: %d/%d)", a.Score, MaxScore), a.Findings)
	}
	return render(fmt.Sprintf("⚠️ Native risks found (risk score: %d/%d):", a.Score, MaxScore), a.Findings)
}

// PlatformReport renders a platform assessment without a score.
func PlatformReport(a Assessment) string {
	if !a.HasRisk() {
		return render("✅ Device environment clean", a.Findings)
	}
	return render("⚠️ Device risks found:", a.Findings)
}

// FailureReport renders an analysis that could not complete.
func FailureReport(tier string, cause any) string {
	return fmt.Sprintf("❌ %s analysis failed: %v", tier, cause)
}

func render(header string, findings []Finding) string {
	var b strings.Builder
	b.WriteString(header)
	for _, f := range findings {
		b.WriteByte('\n')
		b.WriteString(f.String())
	}
	return b.String()
}
