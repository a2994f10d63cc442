package contextx

import "testing"

func TestWithGroupRoundTrip(t *testing.T) {
	ctx := WithGroup(t.Context(), "low")
	got := GroupFromContext(ctx)
	if got != "low" {
		t.Fatalf("got %q, want %q", got, "low")
	}
}

func TestGroupFromContextMissing(t *testing.T) {
	got := GroupFromContext(t.Context())
	if got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}
