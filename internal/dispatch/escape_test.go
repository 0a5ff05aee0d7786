package dispatch

import (
	"os/exec"
	"testing"
)

func TestEscapeSingleQuoted_Cafe(t *testing.T) {
	got := EscapeSingleQuoted("O'Brien's Cafe")
	want := `O'\''Brien'\''s Cafe`
	if got != want {
		t.Fatalf("EscapeSingleQuoted = %q, want %q", got, want)
	}
}

// TestQuoteSingle_ShellRoundTrip feeds the quoted form through a real shell
// and expects the original bytes back.
func TestQuoteSingle_ShellRoundTrip(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	inputs := []string{
		"",
		"O'Brien's Cafe",
		"'",
		"''",
		"'leading and trailing'",
		`{"title":"Joe's","footer":"it's $5 \"off\""}`,
		"$(echo pwned) `id` ; rm -rf /tmp/nothing",
		"line one\nline two\ttabbed",
		"café – résumé",
		`back\slash \' mixed`,
	}

	for _, in := range inputs {
		out, err := exec.Command(sh, "-c", "printf '%s' "+QuoteSingle(in)).Output()
		if err != nil {
			t.Fatalf("shell failed for %q: %v", in, err)
		}
		if string(out) != in {
			t.Errorf("round trip mismatch: got %q, want %q", out, in)
		}
	}
}
