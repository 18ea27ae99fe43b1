package eligibility

import (
	"fmt"
	"time"
)

const rejectionBlacklisted = "blacklisted; not eligible for rehire"

func buildReport(subject Subject, employeeID string, checks []CheckResult, evaluatedAt time.Time) *Report {
	report := &Report{
		Subject:     Subject{Name: subject.Name, PersonalID: maskPersonalID(subject.PersonalID)},
		EmployeeID:  employeeID,
		Checks:      checks,
		EvaluatedAt: evaluatedAt,
	}

	report.OverallStatus = Decide(checks)

	switch report.OverallStatus {
	case DecisionNotFound:
		report.Recommendation = "no employment record on file; process as a new applicant"
	case DecisionRejected:
		report.RejectionReason = rejectionBlacklisted
		report.Recommendation = "rehire not recommended"
	case DecisionApproved:
		report.Recommendation = "all checks passed; rehire recommended"
	case DecisionReviewRequired:
		report.Warnings = Warnings(checks)
		report.ReviewNotes = ReviewNotes(report.Warnings)
		report.Recommendation = fmt.Sprintf("%d warning(s); manager review required", len(report.Warnings))
	}

	return report
}

// maskPersonalID はレポートに生の個人識別番号を残さないよう末尾 4 桁以外を伏せます。
func maskPersonalID(raw string) string {
	if raw == "" {
		return ""
	}
	runes := []rune(raw)
	if len(runes) <= 4 {
		return "****"
	}
	masked := make([]rune, len(runes))
	for i := range runes {
		if i < len(runes)-4 {
			masked[i] = '*'
		} else {
			masked[i] = runes[i]
		}
	}
	return string(masked)
}
