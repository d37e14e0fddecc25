package workflow

// Resolve maps one step template plus a candidate snapshot and their event
// list to a status. Pure: callers re-derive on every refresh, nothing is
// cached.
//
// Rules evaluate in fixed priority order, first match wins:
//
//  1. matched event COMPLETED            -> completed
//  2. independent completion flag true   -> completed
//  3. matched event SCHEDULED/RESCHEDULED-> scheduled
//  4. type-specific intermediate signal  -> pending
//  5. otherwise                          -> waiting
//
// Rule 2 sitting above rule 3 is what makes cancellation behave: cancelling
// a step's only event drops it back to waiting, but a step whose flag is
// independently set stays completed.
func Resolve(tpl StepTemplate, c *CandidateProfile, events []CalendarEvent) StepStatus {
	n := tpl.StepNumber
	ev := MatchEvent(events, tpl.Type, &n)

	if ev != nil && ev.Status == EventCompleted {
		return StatusCompleted
	}
	if HasCompletionFlag(c, tpl.Type) {
		return StatusCompleted
	}
	if ev != nil && ev.Live() {
		return StatusScheduled
	}
	if hasPendingSignal(c, tpl.Type) {
		return StatusPending
	}
	return StatusWaiting
}

// ResolveAll resolves every template against the same snapshot, pairing each
// with its matched event. Templates are expected in step-number order.
func ResolveAll(tpls []StepTemplate, c *CandidateProfile, events []CalendarEvent) []StepInstance {
	out := make([]StepInstance, 0, len(tpls))
	for _, tpl := range tpls {
		n := tpl.StepNumber
		out = append(out, StepInstance{
			Template: tpl,
			Event:    MatchEvent(events, tpl.Type, &n),
			Status:   Resolve(tpl, c, events),
		})
	}
	return out
}
