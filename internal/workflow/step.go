package workflow

// StepType identifies one kind of onboarding action a department can
// configure. The set mirrors the admin step editor.
type StepType string

const (
	StepOfferLetter         StepType = "OFFER_LETTER"
	StepOfferReminder       StepType = "OFFER_REMINDER"
	StepWelcomeEmail        StepType = "WELCOME_EMAIL"
	StepHRInduction         StepType = "HR_INDUCTION"
	StepWhatsappAddition    StepType = "WHATSAPP_ADDITION"
	StepOnboardingForm      StepType = "ONBOARDING_FORM"
	StepFormReminder        StepType = "FORM_REMINDER"
	StepCEOInduction        StepType = "CEO_INDUCTION"
	StepSalesInduction      StepType = "SALES_INDUCTION"
	StepDepartmentInduction StepType = "DEPARTMENT_INDUCTION"
	StepTrainingPlan        StepType = "TRAINING_PLAN"
	StepCheckinCall         StepType = "CHECKIN_CALL"
	StepCustom              StepType = "CUSTOM"
)

// ValidStepTypes lists every known step type, in the order the admin UI
// presents them.
var ValidStepTypes = []StepType{
	StepOfferLetter, StepOfferReminder, StepWelcomeEmail, StepHRInduction,
	StepWhatsappAddition, StepOnboardingForm, StepFormReminder,
	StepCEOInduction, StepSalesInduction, StepDepartmentInduction,
	StepTrainingPlan, StepCheckinCall, StepCustom,
}

// IsValidStepType reports whether s is a known step type.
func IsValidStepType(s StepType) bool {
	for _, t := range ValidStepTypes {
		if t == s {
			return true
		}
	}
	return false
}

// eventTypeAliases maps a step type to the event-type tag its calendar
// events are stored under. Historical naming: custom steps were filed as
// MANUAL events and whatsapp additions as WHATSAPP_TASK. Every other type
// self-maps.
var eventTypeAliases = map[StepType]EventType{
	StepCustom:           EventTypeManual,
	StepWhatsappAddition: EventTypeWhatsappTask,
}

// EventTypeFor returns the event-type tag to search a candidate's calendar
// with for the given step type.
func EventTypeFor(s StepType) EventType {
	if alias, ok := eventTypeAliases[s]; ok {
		return alias
	}
	return EventType(s)
}

// StepStatus is the resolved state of one step for one candidate.
type StepStatus string

const (
	// StatusCompleted: the step's event finished, or an independent
	// candidate flag marks it done.
	StatusCompleted StepStatus = "completed"
	// StatusScheduled: a live calendar event exists for the step.
	StatusScheduled StepStatus = "scheduled"
	// StatusPending: a type-specific intermediate signal fired (e.g. form
	// sent but not yet filled in).
	StatusPending StepStatus = "pending"
	// StatusWaiting: nothing has happened for this step yet.
	StatusWaiting StepStatus = "waiting"
)

// StepTemplate is one admin-configured onboarding action for a department.
// Templates are read-only to this package; the admin config service owns
// them.
type StepTemplate struct {
	Department    string   `json:"department"`
	StepNumber    int      `json:"step_number"`
	Type          StepType `json:"type"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Icon          string   `json:"icon"`
	IsAuto        bool     `json:"is_auto"`
	DueDateOffset int      `json:"due_date_offset"` // days, may be zero or negative
	ScheduledTime string   `json:"scheduled_time"`  // local wall clock "HH:mm", may be empty
}

// StepInstance is the runtime pairing of a template with one candidate's
// progress. Derived on every refresh, never persisted.
type StepInstance struct {
	Template StepTemplate   `json:"template"`
	Event    *CalendarEvent `json:"event,omitempty"`
	Status   StepStatus     `json:"status"`
}
