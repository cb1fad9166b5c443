package env

import "testing"

func TestGet(t *testing.T) {
	t.Setenv("FLOWERPOS_TEST_VAR", "console")
	if got := Get("FLOWERPOS_TEST_VAR", "json"); got != "console" {
		t.Fatalf("expected set value, got %q", got)
	}

	t.Setenv("FLOWERPOS_TEST_VAR", "   ")
	if got := Get("FLOWERPOS_TEST_VAR", "json"); got != "json" {
		t.Fatalf("blank value must fall back, got %q", got)
	}

	if got := Get("FLOWERPOS_TEST_VAR_MISSING", "json"); got != "json" {
		t.Fatalf("unset value must fall back, got %q", got)
	}
}
