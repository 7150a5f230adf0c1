package phone

import "testing"

func TestIsTenDigit(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"5551234567", true},
		{"(555) 123-4567", true},
		{"555.123.4567", true},
		{"1-555-123-4567", true},
		{"+1 555 123 4567", true},
		{"555-1234", false},
		{"55512345678", false},
		{"", false},
		{"abcdefghij", false},
	}

	for _, tc := range tests {
		if got := IsTenDigit(tc.input); got != tc.want {
			t.Errorf("IsTenDigit(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestDigits(t *testing.T) {
	if got := Digits("(555) 123-4567"); got != "5551234567" {
		t.Errorf("Digits stripped to %q, want 5551234567", got)
	}
}

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"(202) 555-0142", "+12025550142"},
		{"not a number", "not a number"},
		{"  ", ""},
	}

	for _, tc := range tests {
		if got := NormalizeE164(tc.input); got != tc.want {
			t.Errorf("NormalizeE164(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
