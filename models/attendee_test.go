package models

import (
	"regexp"
	"testing"
)

func TestNormalizeRegistrationIDIdempotent(t *testing.T) {
	inputs := []string{"EP-1A2B3C4D", "  ep-1a2b3c4d ", "abc_123", "X", "\tq-9\n", ""}
	for _, in := range inputs {
		once := NormalizeRegistrationID(in)
		twice := NormalizeRegistrationID(once)
		if once != twice {
			t.Fatalf("normalize not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
	if got := NormalizeRegistrationID("  ep-1a2b "); got != "EP-1A2B" {
		t.Fatalf("expected EP-1A2B, got %q", got)
	}
}

func TestValidRegistrationID(t *testing.T) {
	valid := []string{"EP-1A2B3C4D", "ABC_123", "0"}
	for _, id := range valid {
		if !ValidRegistrationID(id) {
			t.Fatalf("expected %q to be valid", id)
		}
	}
	invalid := []string{"", "ep-1a2b", "EP 1", "EP-1/2", "EP-1;DROP"}
	for _, id := range invalid {
		if ValidRegistrationID(id) {
			t.Fatalf("expected %q to be invalid", id)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"9998887770":      "9998887770",
		" 999-888-7770 ":  "9998887770",
		"+91 99988 87770": "9998887770",
		"919998887770":    "9998887770",
		"09998887770":     "9998887770",
		"(999) 888.7770":  "9998887770",
		"12345":           "12345",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
	if ValidPhone("12345") || ValidPhone("99988877701") || ValidPhone("99988877a0") {
		t.Fatalf("expected invalid phones to be rejected")
	}
	if !ValidPhone("9998887770") {
		t.Fatalf("expected 10 digit phone to be valid")
	}
}

func TestParseScannedCode(t *testing.T) {
	cases := map[string]string{
		"ep-1a2b3c4d":                                "EP-1A2B3C4D",
		"https://pass.example.com/verify?id=ep-77aa": "EP-77AA",
		"https://pass.example.com/p?rid=EP-1":        "EP-1",
		"https://pass.example.com/pass/ep-42":        "EP-42",
		"  EP-9  ":                                   "EP-9",
	}
	for in, want := range cases {
		if got := ParseScannedCode(in); got != want {
			t.Fatalf("ParseScannedCode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewRegistrationID(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z0-9-]+$`)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := NewRegistrationID("ep")
		if !pattern.MatchString(id) {
			t.Fatalf("generated id %q does not match pattern", id)
		}
		if len(id) != len("EP-")+8 {
			t.Fatalf("unexpected id length for %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
	if id := NewRegistrationID(""); !pattern.MatchString(id) || len(id) != 10 {
		t.Fatalf("unexpected unprefixed id %q", id)
	}
}
