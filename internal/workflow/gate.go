package workflow

// GateReason explains a gate verdict. Stable codes: the UI switches on them
// to pick a prompt.
type GateReason string

const (
	GateOK                 GateReason = "ok"
	GateUnknownStep        GateReason = "unknown_step"
	GatePreviousIncomplete GateReason = "previous_step_incomplete"
	GateMissingDocument    GateReason = "missing_offer_document"
)

// requiresDocument lists step types that cannot act without the uploaded
// offer document.
var requiresDocument = map[StepType]bool{
	StepOfferLetter: true,
}

// CanAct decides whether the action for stepNumber may be invoked. The first
// step in the department order is always permitted; step N is permitted iff
// step N-1 resolves completed. Document-prerequisite types additionally need
// the candidate's document reference or an attachment on the step's own
// matched event. No side effects.
//
// Templates must be the department's full ordered sequence; step numbers
// need not be contiguous.
func CanAct(tpls []StepTemplate, stepNumber int, c *CandidateProfile, events []CalendarEvent) (bool, GateReason) {
	idx := -1
	for i, tpl := range tpls {
		if tpl.StepNumber == stepNumber {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, GateUnknownStep
	}
	tpl := tpls[idx]

	if idx > 0 {
		if Resolve(tpls[idx-1], c, events) != StatusCompleted {
			return false, GatePreviousIncomplete
		}
	}

	if requiresDocument[tpl.Type] && !hasOfferDocument(tpl, c, events) {
		return false, GateMissingDocument
	}
	return true, GateOK
}

func hasOfferDocument(tpl StepTemplate, c *CandidateProfile, events []CalendarEvent) bool {
	if c != nil && c.OfferLetterPath != "" {
		return true
	}
	n := tpl.StepNumber
	if ev := MatchEvent(events, tpl.Type, &n); ev != nil && len(ev.Attachments) > 0 {
		return true
	}
	return false
}
