package workflow

import "time"

// CandidateProfile is the snapshot of one candidate as served by the
// candidate service. This package only reads it.
type CandidateProfile struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Position   string `json:"position"`
	Department string `json:"department"`

	ExpectedJoiningDate *time.Time `json:"expected_joining_date,omitempty"`

	// Completion flags, each owned by whatever flow performs the action.
	// They are independent of calendar events: cancelling an event never
	// clears a flag.
	OfferSentAt               *time.Time `json:"offer_sent_at,omitempty"`
	OfferSignedAt             *time.Time `json:"offer_signed_at,omitempty"`
	WelcomeEmailSentAt        *time.Time `json:"welcome_email_sent_at,omitempty"`
	OnboardingFormSentAt      *time.Time `json:"onboarding_form_sent_at,omitempty"`
	OnboardingFormCompletedAt *time.Time `json:"onboarding_form_completed_at,omitempty"`
	WhatsappGroupsAdded       bool       `json:"whatsapp_groups_added"`
	TrainingPlanSent          bool       `json:"training_plan_sent"`

	// OfferLetterPath references the uploaded offer document, if any.
	OfferLetterPath string `json:"offer_letter_path,omitempty"`
}

// completionFlags maps a step type to the candidate flag that marks it
// completed independently of any calendar event. Types absent from the map
// complete through their event only. Adding a step type with a flag means
// adding one row here, not a new branch anywhere.
var completionFlags = map[StepType]func(*CandidateProfile) bool{
	StepOfferLetter:      func(c *CandidateProfile) bool { return c.OfferSentAt != nil },
	StepOfferReminder:    func(c *CandidateProfile) bool { return c.OfferSignedAt != nil },
	StepWelcomeEmail:     func(c *CandidateProfile) bool { return c.WelcomeEmailSentAt != nil },
	StepOnboardingForm:   func(c *CandidateProfile) bool { return c.OnboardingFormCompletedAt != nil },
	StepWhatsappAddition: func(c *CandidateProfile) bool { return c.WhatsappGroupsAdded },
	StepTrainingPlan:     func(c *CandidateProfile) bool { return c.TrainingPlanSent },
}

// pendingSignals maps a step type to its intermediate "in flight" signal:
// the action started but has not been confirmed done. Same declarative shape
// as completionFlags.
var pendingSignals = map[StepType]func(*CandidateProfile) bool{
	StepOnboardingForm: func(c *CandidateProfile) bool {
		return c.OnboardingFormSentAt != nil && c.OnboardingFormCompletedAt == nil
	},
	StepFormReminder: func(c *CandidateProfile) bool {
		return c.OnboardingFormSentAt != nil && c.OnboardingFormCompletedAt == nil
	},
	StepOfferReminder: func(c *CandidateProfile) bool {
		return c.OfferSentAt != nil && c.OfferSignedAt == nil
	},
}

// completionTimes maps a step type to the timestamp its completion flag
// carries, for step types whose flag is a time. Used as the reference "sent"
// instant by event-relative scheduling.
var completionTimes = map[StepType]func(*CandidateProfile) *time.Time{
	StepOfferLetter:    func(c *CandidateProfile) *time.Time { return c.OfferSentAt },
	StepOfferReminder:  func(c *CandidateProfile) *time.Time { return c.OfferSignedAt },
	StepWelcomeEmail:   func(c *CandidateProfile) *time.Time { return c.WelcomeEmailSentAt },
	StepOnboardingForm: func(c *CandidateProfile) *time.Time { return c.OnboardingFormCompletedAt },
}

// CompletionTimeFor returns when the step's completion flag was set, or nil
// when the type has no timestamped flag or the flag is unset.
func CompletionTimeFor(c *CandidateProfile, t StepType) *time.Time {
	if c == nil {
		return nil
	}
	if f, ok := completionTimes[t]; ok {
		return f(c)
	}
	return nil
}

// TracksCompletionFlag reports whether the step type completes through a
// candidate flag at all. Types outside the table complete through their
// calendar event only.
func TracksCompletionFlag(t StepType) bool {
	_, ok := completionFlags[t]
	return ok
}

// HasCompletionFlag reports whether the candidate carries the independent
// completion flag for the given step type.
func HasCompletionFlag(c *CandidateProfile, t StepType) bool {
	if c == nil {
		return false
	}
	if f, ok := completionFlags[t]; ok {
		return f(c)
	}
	return false
}

// hasPendingSignal reports whether the step's intermediate signal fired.
func hasPendingSignal(c *CandidateProfile, t StepType) bool {
	if c == nil {
		return false
	}
	if f, ok := pendingSignals[t]; ok {
		return f(c)
	}
	return false
}
