package repair

import (
	"testing"

	"spool/internal/validation"
)

func TestDecideHealthyVerdict(t *testing.T) {
	if got := Decide(validation.VerdictOK, 0, 2); got != ActionNoAction {
		t.Fatalf("Decide(ok) = %q, want %q", got, ActionNoAction)
	}
	// A healthy artifact never triggers repair even with exhausted retries.
	if got := Decide(validation.VerdictOK, 5, 2); got != ActionNoAction {
		t.Fatalf("Decide(ok, exhausted) = %q, want %q", got, ActionNoAction)
	}
}

func TestDecideBoundedRetries(t *testing.T) {
	verdicts := []validation.Verdict{
		validation.VerdictMissing,
		validation.VerdictTruncated,
		validation.VerdictUnreadable,
		validation.VerdictMismatchedDuration,
	}

	for _, verdict := range verdicts {
		if got := Decide(verdict, 0, 2); got != ActionReFetch {
			t.Fatalf("Decide(%q, 0, 2) = %q, want %q", verdict, got, ActionReFetch)
		}
		if got := Decide(verdict, 1, 2); got != ActionReFetch {
			t.Fatalf("Decide(%q, 1, 2) = %q, want %q", verdict, got, ActionReFetch)
		}
		if got := Decide(verdict, 2, 2); got != ActionAbandon {
			t.Fatalf("Decide(%q, 2, 2) = %q, want %q", verdict, got, ActionAbandon)
		}
	}
}

func TestDecideMonotonicBound(t *testing.T) {
	// Once retries reach the bound, further counts never flip back to re-fetch.
	for count := 0; count < 10; count++ {
		got := Decide(validation.VerdictTruncated, count, 3)
		if count < 3 && got != ActionReFetch {
			t.Fatalf("count %d: got %q, want %q", count, got, ActionReFetch)
		}
		if count >= 3 && got != ActionAbandon {
			t.Fatalf("count %d: got %q, want %q", count, got, ActionAbandon)
		}
	}
}

func TestDecideZeroRetriesAllowed(t *testing.T) {
	if got := Decide(validation.VerdictMissing, 0, 0); got != ActionAbandon {
		t.Fatalf("Decide with maxRetries=0 = %q, want %q", got, ActionAbandon)
	}
}
