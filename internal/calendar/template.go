package calendar

import (
	"strings"

	"onboarding-tracker/internal/workflow"
)

// RenderTemplate substitutes the candidate placeholders an admin may use in
// step titles and descriptions. Unknown placeholders pass through untouched;
// rich HTML rendering happens in the delivery layer, not here.
func RenderTemplate(s string, c *workflow.CandidateProfile) string {
	if s == "" || c == nil {
		return s
	}
	return strings.NewReplacer(
		"{{firstName}}", c.FirstName,
		"{{lastName}}", c.LastName,
		"{{position}}", c.Position,
		"{{department}}", c.Department,
	).Replace(s)
}
