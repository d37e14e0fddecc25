// Package schedule computes the UTC instant a step should run at.
//
// Every local<->UTC conversion in the system goes through the fixed
// organization offset (+05:30); round-trips are lossless. The three
// scheduling modes are an explicit tagged variant consumed by one entry
// point instead of being interleaved with UI state.
package schedule

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"onboarding-tracker/internal/workflow"
)

// OrgZone is the fixed organization offset. No DST, no tz database lookup.
var OrgZone = time.FixedZone("UTC+05:30", 5*3600+30*60)

// Documented time-of-day fallbacks for templates without a scheduled time.
const (
	fallbackJoiningTime = "09:00"
	fallbackEventTime   = "14:00"
)

// DefaultDuration applies when the caller does not size the event.
const DefaultDuration = 30 * time.Minute

// ErrMissingBaseDate means RelativeToJoining was asked for a candidate with
// no expected joining date. Recoverable: the caller must fall back to Exact
// mode, never assume a date.
var ErrMissingBaseDate = errors.New("candidate has no expected joining date")

// Mode selects how the target instant is derived.
type Mode string

const (
	// ModeExact: the caller supplies a local wall-clock date-time directly.
	ModeExact Mode = "exact"
	// ModeRelativeToJoining: offset days from the expected joining date.
	ModeRelativeToJoining Mode = "relative_to_joining"
	// ModeRelativeToEvent: offset days from a reference step's event start,
	// or its sent timestamp, or now (provisional).
	ModeRelativeToEvent Mode = "relative_to_event"
)

// Intent is one scheduling request. Exactly one constructor should build it;
// the zero value is not valid.
type Intent struct {
	Mode Mode

	// Exact local wall clock, ModeExact only. The location is ignored;
	// the components are read as org-local time.
	LocalTime time.Time

	// Template supplies DueDateOffset and ScheduledTime for the relative
	// modes.
	Template workflow.StepTemplate

	// Candidate supplies the joining date, ModeRelativeToJoining only.
	Candidate *workflow.CandidateProfile

	// Reference inputs, ModeRelativeToEvent only.
	ReferenceEvent  *workflow.CalendarEvent
	ReferenceSentAt *time.Time

	// Now anchors the provisional fallback of ModeRelativeToEvent. Zero
	// means time.Now.
	Now time.Time

	// Duration of the produced slot; zero means DefaultDuration.
	Duration time.Duration
}

// Exact builds an Intent from a local wall-clock date-time.
func Exact(local time.Time, d time.Duration) Intent {
	return Intent{Mode: ModeExact, LocalTime: local, Duration: d}
}

// RelativeToJoining builds an Intent anchored on the candidate's expected
// joining date.
func RelativeToJoining(tpl workflow.StepTemplate, c *workflow.CandidateProfile, d time.Duration) Intent {
	return Intent{Mode: ModeRelativeToJoining, Template: tpl, Candidate: c, Duration: d}
}

// RelativeToEvent builds an Intent anchored on a reference step's event (or
// its sent timestamp when the step completed without a scheduled event).
func RelativeToEvent(tpl workflow.StepTemplate, ref *workflow.CalendarEvent, sentAt *time.Time, d time.Duration) Intent {
	return Intent{Mode: ModeRelativeToEvent, Template: tpl, ReferenceEvent: ref, ReferenceSentAt: sentAt, Duration: d}
}

// Slot is a computed UTC start/end pair.
type Slot struct {
	Start time.Time `json:"start"` // UTC
	End   time.Time `json:"end"`   // UTC
}

// Calculate resolves an Intent to a UTC slot.
func Calculate(in Intent) (Slot, error) {
	d := in.Duration
	if d <= 0 {
		d = DefaultDuration
	}

	var start time.Time
	switch in.Mode {
	case ModeExact:
		lt := in.LocalTime
		start = ToUTC(time.Date(lt.Year(), lt.Month(), lt.Day(), lt.Hour(), lt.Minute(), 0, 0, OrgZone))

	case ModeRelativeToJoining:
		if in.Candidate == nil || in.Candidate.ExpectedJoiningDate == nil {
			return Slot{}, ErrMissingBaseDate
		}
		base := in.Candidate.ExpectedJoiningDate.In(OrgZone)
		var err error
		start, err = atOffset(base, in.Template.DueDateOffset, in.Template.ScheduledTime, fallbackJoiningTime)
		if err != nil {
			return Slot{}, err
		}

	case ModeRelativeToEvent:
		base := in.Now
		if base.IsZero() {
			base = time.Now()
		}
		switch {
		case in.ReferenceEvent != nil:
			base = in.ReferenceEvent.StartTime
		case in.ReferenceSentAt != nil:
			base = *in.ReferenceSentAt
		}
		var err error
		start, err = atOffset(base.In(OrgZone), in.Template.DueDateOffset, in.Template.ScheduledTime, fallbackEventTime)
		if err != nil {
			return Slot{}, err
		}

	default:
		return Slot{}, errors.Errorf("unknown scheduling mode %q", in.Mode)
	}

	return Slot{Start: start, End: start.Add(d)}, nil
}

// atOffset shifts the base date by offset days and applies the template's
// wall-clock time, or the documented fallback when the template has none.
func atOffset(base time.Time, offsetDays int, hhmm, fallback string) (time.Time, error) {
	if hhmm == "" {
		hhmm = fallback
	}
	h, m, err := parseWallClock(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	day := base.AddDate(0, 0, offsetDays)
	return ToUTC(time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, OrgZone)), nil
}

func parseWallClock(hhmm string) (int, int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "invalid scheduled time %q", hhmm)
	}
	return t.Hour(), t.Minute(), nil
}

// ToUTC converts an org-local instant to UTC.
func ToUTC(local time.Time) time.Time {
	return local.UTC()
}

// ToLocal converts a UTC instant to the org-local offset for display.
func ToLocal(utc time.Time) time.Time {
	return utc.In(OrgZone)
}

// FormatLocal renders a UTC instant the way the UI shows it.
func FormatLocal(utc time.Time) string {
	return fmt.Sprintf("%s (UTC+05:30)", ToLocal(utc).Format("2006-01-02 15:04"))
}
