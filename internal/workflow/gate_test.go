package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func engineeringSteps() []StepTemplate {
	return []StepTemplate{
		tplOf(1, StepOfferLetter),
		tplOf(2, StepWelcomeEmail),
		tplOf(3, StepHRInduction),
	}
}

func TestCanActFirstStepSkipsOrderingCheck(t *testing.T) {
	tpls := engineeringSteps()
	c := &CandidateProfile{OfferLetterPath: "/uploads/offer_1.pdf"}

	ok, reason := CanAct(tpls, 1, c, nil)
	assert.True(t, ok)
	assert.Equal(t, GateOK, reason)
}

func TestCanActRequiresPreviousStepCompleted(t *testing.T) {
	tpls := engineeringSteps()
	c := &CandidateProfile{}

	ok, reason := CanAct(tpls, 2, c, nil)
	assert.False(t, ok)
	assert.Equal(t, GatePreviousIncomplete, reason)

	// Completing step 1 through its flag unlocks step 2.
	c.OfferSentAt = timePtr(time.Now())
	ok, reason = CanAct(tpls, 2, c, nil)
	assert.True(t, ok)
	assert.Equal(t, GateOK, reason)

	// Step 3 still waits on step 2.
	ok, reason = CanAct(tpls, 3, c, nil)
	assert.False(t, ok)
	assert.Equal(t, GatePreviousIncomplete, reason)
}

func TestCanActUnknownStep(t *testing.T) {
	ok, reason := CanAct(engineeringSteps(), 99, &CandidateProfile{}, nil)
	assert.False(t, ok)
	assert.Equal(t, GateUnknownStep, reason)
}

func TestCanActOfferLetterNeedsDocument(t *testing.T) {
	tpls := engineeringSteps()

	// No uploaded document and no event attachments.
	ok, reason := CanAct(tpls, 1, &CandidateProfile{}, nil)
	assert.False(t, ok)
	assert.Equal(t, GateMissingDocument, reason)

	// Candidate-level document reference satisfies the gate.
	ok, reason = CanAct(tpls, 1, &CandidateProfile{OfferLetterPath: "/uploads/offer.pdf"}, nil)
	assert.True(t, ok)
	assert.Equal(t, GateOK, reason)

	// An attachment on the step's own event also satisfies it.
	events := []CalendarEvent{
		{Type: "OFFER_LETTER", StepNumber: intPtr(1), Status: EventScheduled,
			Attachments: []string{"/uploads/offer.pdf"}},
	}
	ok, reason = CanAct(tpls, 1, &CandidateProfile{}, events)
	assert.True(t, ok)
	assert.Equal(t, GateOK, reason)
}

func TestCanActNonContiguousStepNumbers(t *testing.T) {
	tpls := []StepTemplate{
		tplOf(10, StepWelcomeEmail),
		tplOf(20, StepHRInduction),
	}
	c := &CandidateProfile{}

	ok, reason := CanAct(tpls, 20, c, nil)
	assert.False(t, ok)
	assert.Equal(t, GatePreviousIncomplete, reason)

	c.WelcomeEmailSentAt = timePtr(time.Now())
	ok, reason = CanAct(tpls, 20, c, nil)
	assert.True(t, ok)
	assert.Equal(t, GateOK, reason)
}
