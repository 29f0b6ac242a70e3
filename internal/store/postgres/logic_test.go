package postgres

import "testing"

func TestEffectiveLimitAppliesDefaultForNonPositive(t *testing.T) {
	if got := effectiveLimit(0, 20); got != 20 {
		t.Fatalf("want 20, got %d", got)
	}
	if got := effectiveLimit(-5, 20); got != 20 {
		t.Fatalf("want 20, got %d", got)
	}
}

func TestEffectiveLimitPassesThroughPositive(t *testing.T) {
	if got := effectiveLimit(5, 20); got != 5 {
		t.Fatalf("want 5, got %d", got)
	}
}
