// Package funnel implements the lead funnel: an explicit state machine over
// the step sequence, a per-browsing-session context object, and the service
// orchestrating validation, metric derivation and record-store writes.
package funnel

import "fmt"

// Stage is the funnel position of one session.
type Stage string

const (
	// StageNew means the session exists but no lead has been captured.
	StageNew                 Stage = "new"
	StageContactCollected    Stage = "contact_collected"
	StageCalculatorSubmitted Stage = "calculator_submitted"
	StageQualified           Stage = "qualified"
	StageDisqualified        Stage = "disqualified"
	StageVideoEngaged        Stage = "video_engaged"
	StageBookingOffered      Stage = "booking_offered"
)

// Step is an input to the state machine.
type Step string

const (
	StepSubmitContact    Step = "submit_contact"
	StepSubmitCalculator Step = "submit_calculator"
	StepQualify          Step = "qualify"
	StepDisqualify       Step = "disqualify"
	StepEngageVideo      Step = "engage_video"
	StepOfferBooking     Step = "offer_booking"
)

// transitions lists the steps accepted at each stage. A step may map a stage
// onto itself: retries of the same form are always safe because store writes
// are merge-by-presence.
var transitions = map[Stage]map[Step]Stage{
	StageNew: {
		StepSubmitContact: StageContactCollected,
	},
	StageContactCollected: {
		StepSubmitContact:    StageContactCollected,
		StepSubmitCalculator: StageCalculatorSubmitted,
	},
	StageCalculatorSubmitted: {
		StepSubmitCalculator: StageCalculatorSubmitted,
		StepQualify:          StageQualified,
		StepDisqualify:       StageDisqualified,
		// Optimal performers may skip qualification entirely.
		StepOfferBooking: StageBookingOffered,
	},
	StageQualified: {
		StepEngageVideo:  StageVideoEngaged,
		StepOfferBooking: StageBookingOffered,
	},
	StageVideoEngaged: {
		StepEngageVideo:  StageVideoEngaged,
		StepOfferBooking: StageBookingOffered,
	},
	// Disqualified is soft-terminal: the user sees a disqualification message
	// and the funnel stops advancing, but nothing else happens.
	StageDisqualified: {},
	// BookingOffered is terminal.
	StageBookingOffered: {},
}

// Next returns the stage reached by applying step at the current stage.
func Next(current Stage, step Step) (Stage, error) {
	allowed, ok := transitions[current]
	if !ok {
		return current, fmt.Errorf("unknown funnel stage %q", current)
	}
	next, ok := allowed[step]
	if !ok {
		return current, fmt.Errorf("step %q not allowed at stage %q", step, current)
	}
	return next, nil
}

// Terminal reports whether no further steps are accepted at the stage.
func Terminal(stage Stage) bool {
	return len(transitions[stage]) == 0
}
