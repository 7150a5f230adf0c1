package funnel

import "testing"

func TestNextHappyPath(t *testing.T) {
	path := []struct {
		step Step
		want Stage
	}{
		{StepSubmitContact, StageContactCollected},
		{StepSubmitCalculator, StageCalculatorSubmitted},
		{StepQualify, StageQualified},
		{StepEngageVideo, StageVideoEngaged},
		{StepOfferBooking, StageBookingOffered},
	}

	stage := StageNew
	for _, p := range path {
		next, err := Next(stage, p.step)
		if err != nil {
			t.Fatalf("Next(%q, %q): %v", stage, p.step, err)
		}
		if next != p.want {
			t.Fatalf("Next(%q, %q) = %q, want %q", stage, p.step, next, p.want)
		}
		stage = next
	}
}

func TestNextRetriesSameStage(t *testing.T) {
	cases := []struct {
		stage Stage
		step  Step
	}{
		{StageContactCollected, StepSubmitContact},
		{StageCalculatorSubmitted, StepSubmitCalculator},
		{StageVideoEngaged, StepEngageVideo},
	}
	for _, c := range cases {
		next, err := Next(c.stage, c.step)
		if err != nil {
			t.Fatalf("Next(%q, %q): %v", c.stage, c.step, err)
		}
		if next != c.stage {
			t.Fatalf("Next(%q, %q) = %q, want same stage", c.stage, c.step, next)
		}
	}
}

func TestNextOptimalSkipsQualification(t *testing.T) {
	next, err := Next(StageCalculatorSubmitted, StepOfferBooking)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next != StageBookingOffered {
		t.Fatalf("Next = %q, want %q", next, StageBookingOffered)
	}
}

func TestNextRejectsOutOfOrderSteps(t *testing.T) {
	cases := []struct {
		stage Stage
		step  Step
	}{
		{StageNew, StepSubmitCalculator},
		{StageNew, StepQualify},
		{StageContactCollected, StepQualify},
		{StageContactCollected, StepEngageVideo},
		{StageQualified, StepSubmitContact},
		{StageDisqualified, StepQualify},
		{StageDisqualified, StepEngageVideo},
		{StageBookingOffered, StepSubmitContact},
	}
	for _, c := range cases {
		if _, err := Next(c.stage, c.step); err == nil {
			t.Errorf("Next(%q, %q): expected error", c.stage, c.step)
		}
	}
}

func TestTerminal(t *testing.T) {
	if !Terminal(StageDisqualified) {
		t.Error("disqualified should be terminal")
	}
	if !Terminal(StageBookingOffered) {
		t.Error("booking_offered should be terminal")
	}
	if Terminal(StageQualified) {
		t.Error("qualified should not be terminal")
	}
}
