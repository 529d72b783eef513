package providerhttp

import "testing"

func TestLookupAndConverters(t *testing.T) {
	t.Parallel()

	root := map[string]any{
		"fixture": map[string]any{
			"id":     float64(1035012),
			"status": map[string]any{"short": " 1H ", "elapsed": float64(37)},
		},
		"goals":     map[string]any{"home": float64(2), "away": nil},
		"intScore":  "3",
		"badScore":  "n/a",
		"standings": []any{map[string]any{"table": []any{map[string]any{"position": float64(1)}, "skip"}}},
	}

	if got := String(root, "fixture.id"); got != "1035012" {
		t.Fatalf("expected whole number rendering, got %q", got)
	}
	if got := String(root, "fixture.status.short"); got != "1H" {
		t.Fatalf("expected trimmed status, got %q", got)
	}
	if got := String(root, "fixture.status.elapsed"); got != "37" {
		t.Fatalf("expected elapsed text, got %q", got)
	}
	if got := IntOr(root, "goals.away", 0); got != 0 {
		t.Fatalf("expected null goals to default, got %d", got)
	}
	if got, ok := Int(root, "intScore"); !ok || got != 3 {
		t.Fatalf("expected numeric string to parse, got %d ok=%v", got, ok)
	}
	if _, ok := Int(root, "badScore"); ok {
		t.Fatalf("expected non numeric string to fail")
	}
	if rows := Objects(root, "standings.0.table"); len(rows) != 1 {
		t.Fatalf("expected one object row, got %d", len(rows))
	}
	if Lookup(root, "standings.5.table") != nil {
		t.Fatalf("expected out-of-range index to be nil")
	}
	if got := FirstNonEmpty("", "  ", " x "); got != "x" {
		t.Fatalf("expected x, got %q", got)
	}
}
