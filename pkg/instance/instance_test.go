package instance

import "testing"

func TestGetIDPrefersDyno(t *testing.T) {
	t.Setenv("DYNO", "web.1")
	t.Setenv("HOSTNAME", "container-abc")
	if got := GetID(); got != "web.1" {
		t.Fatalf("expected dyno id got %q", got)
	}
}

func TestGetIDFallsBackToHostname(t *testing.T) {
	t.Setenv("DYNO", "")
	t.Setenv("HOSTNAME", "container-abc")
	if got := GetID(); got != "container-abc" {
		t.Fatalf("expected hostname got %q", got)
	}
}

func TestGetIDDefaultsToLocal(t *testing.T) {
	t.Setenv("DYNO", "")
	t.Setenv("HOSTNAME", "")
	if got := GetID(); got != "local" {
		t.Fatalf("expected local got %q", got)
	}
}
