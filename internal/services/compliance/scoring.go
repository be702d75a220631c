package compliance

import (
	"math"

	"github.com/gridseye/necomply/internal/models"
)

// Summarize counts findings by status and computes the compliance score.
// Only the four recognized status values are counted; anything else is
// ignored for the summary but stays in the findings list. The score is
// (pass*100 + warning*50) / applicable, rounded to one decimal place,
// where applicable excludes not_applicable findings. No applicable
// findings scores 0.
func Summarize(findings []models.Finding) models.ComplianceSummary {
	var summary models.ComplianceSummary
	for _, finding := range findings {
		switch finding.Status {
		case models.StatusPass:
			summary.PassingCount++
		case models.StatusWarning:
			summary.WarningCount++
		case models.StatusFail:
			summary.FailingCount++
		case models.StatusNotApplicable:
			summary.NotApplicableCount++
		}
	}

	applicable := summary.PassingCount + summary.WarningCount + summary.FailingCount
	summary.TotalCodesEvaluated = applicable

	if applicable > 0 {
		score := float64(summary.PassingCount*100+summary.WarningCount*50) / float64(applicable)
		summary.ComplianceScore = math.Round(score*10) / 10
	}

	return summary
}
