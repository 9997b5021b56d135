package domain

import (
	"errors"
	"testing"
)

func TestParseWatchStatus(t *testing.T) {
	cases := map[string]WatchStatus{
		"watching":      StatusWatching,
		" COMPLETED ":   StatusCompleted,
		"plan-to-watch": StatusPlanToWatch,
		"Plan To Watch": StatusPlanToWatch,
		"PLAN_TO_WATCH": StatusPlanToWatch,
	}
	for in, want := range cases {
		got, err := ParseWatchStatus(in)
		if err != nil {
			t.Fatalf("ParseWatchStatus(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseWatchStatus(%q): want %q, got %q", in, want, got)
		}
	}

	if _, err := ParseWatchStatus("dropped"); !errors.Is(err, ErrInvalidWatchStatus) {
		t.Fatalf("expected ErrInvalidWatchStatus, got %v", err)
	}
}

func TestEnvelopeOK(t *testing.T) {
	if (Envelope[int]{Success: true}).OK() {
		t.Fatalf("success without data must not be OK")
	}
	if !Succeeded(3).OK() {
		t.Fatalf("Succeeded must be OK")
	}
	if Failed[int](500).OK() {
		t.Fatalf("Failed must not be OK")
	}
}
