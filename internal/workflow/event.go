package workflow

import "time"

// EventType is the tag a calendar event is stored under. It usually equals
// the step type; see EventTypeFor for the two historical aliases.
type EventType string

const (
	EventTypeManual       EventType = "MANUAL"
	EventTypeWhatsappTask EventType = "WHATSAPP_TASK"
)

// EventStatus is the lifecycle state of a calendar event. Events are
// cancelled, never deleted.
type EventStatus string

const (
	EventScheduled   EventStatus = "SCHEDULED"
	EventCompleted   EventStatus = "COMPLETED"
	EventCancelled   EventStatus = "CANCELLED"
	EventRescheduled EventStatus = "RESCHEDULED"
)

// CalendarEvent is one scheduled occurrence of a step for a candidate.
type CalendarEvent struct {
	ID           string      `json:"id"`
	CandidateID  int64       `json:"candidate_id"`
	Type         EventType   `json:"type"`
	StepNumber   *int        `json:"step_number,omitempty"` // disambiguates steps sharing a type
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	StartTime    time.Time   `json:"start_time"` // UTC
	EndTime      time.Time   `json:"end_time"`   // UTC
	Status       EventStatus `json:"status"`
	Attendees    []string    `json:"attendees,omitempty"`
	Attachments  []string    `json:"attachments,omitempty"` // ordered references
	CancelReason string      `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Live reports whether the event still represents a scheduled occurrence.
func (e *CalendarEvent) Live() bool {
	return e.Status == EventScheduled || e.Status == EventRescheduled
}

// statusRank orders candidate matches: a completed event outranks a live
// one, which outranks a cancelled one.
func statusRank(s EventStatus) int {
	switch s {
	case EventCompleted:
		return 3
	case EventScheduled, EventRescheduled:
		return 2
	case EventCancelled:
		return 1
	}
	return 0
}

// MatchEvent finds the candidate's event for a step. The key is
// (aliased type, stepNumber); the type-only fallback applies only when the
// caller cannot supply a step number, so two steps sharing a type never
// resolve to each other's event. When a step number is supplied, events
// stored without one do not match.
//
// Among matches the best-ranked status wins; ties go to the latest start
// time.
func MatchEvent(events []CalendarEvent, t StepType, stepNumber *int) *CalendarEvent {
	wantType := EventTypeFor(t)

	var best *CalendarEvent
	for i := range events {
		ev := &events[i]
		if ev.Type != wantType {
			continue
		}
		if stepNumber != nil {
			if ev.StepNumber == nil || *ev.StepNumber != *stepNumber {
				continue
			}
		}
		if best == nil {
			best = ev
			continue
		}
		br, er := statusRank(best.Status), statusRank(ev.Status)
		if er > br || (er == br && ev.StartTime.After(best.StartTime)) {
			best = ev
		}
	}
	return best
}

// MatchLiveEvent is MatchEvent restricted to SCHEDULED/RESCHEDULED events.
// The reconciler uses it for duplicate-create detection.
func MatchLiveEvent(events []CalendarEvent, t StepType, stepNumber *int) *CalendarEvent {
	wantType := EventTypeFor(t)

	var best *CalendarEvent
	for i := range events {
		ev := &events[i]
		if ev.Type != wantType || !ev.Live() {
			continue
		}
		if stepNumber != nil {
			if ev.StepNumber == nil || *ev.StepNumber != *stepNumber {
				continue
			}
		}
		if best == nil || ev.StartTime.After(best.StartTime) {
			best = ev
		}
	}
	return best
}
