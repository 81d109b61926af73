package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootHelp(t *testing.T) {
	var out, err bytes.Buffer
	code := Run([]string{"--help"}, &out, &err)
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d", ExitOK, code)
	}
	if err.Len() != 0 {
		t.Fatalf("expected no stderr output, got %q", err.String())
	}
	for _, cmd := range commands {
		if !strings.Contains(out.String(), cmd.Name) {
			t.Fatalf("expected command %q in output", cmd.Name)
		}
	}
}

func TestNoArgsShowsUsage(t *testing.T) {
	var out, err bytes.Buffer
	if code := Run(nil, &out, &err); code != ExitUsage {
		t.Fatalf("expected exit %d, got %d", ExitUsage, code)
	}
	if !strings.Contains(out.String(), "Usage:") {
		t.Fatalf("expected usage output, got %q", out.String())
	}
}

func TestUnknownCommand(t *testing.T) {
	var out, err bytes.Buffer
	if code := Run([]string{"nope"}, &out, &err); code != ExitUsage {
		t.Fatalf("expected exit %d, got %d", ExitUsage, code)
	}
	if out.Len() != 0 || !strings.Contains(err.String(), "Unknown command") {
		t.Fatalf("stdout %q stderr %q", out.String(), err.String())
	}
}

func TestCommandHelp(t *testing.T) {
	for _, cmd := range commands {
		var out, err bytes.Buffer
		if code := Run([]string{cmd.Name, "--help"}, &out, &err); code != ExitOK {
			t.Fatalf("%s: exit %d", cmd.Name, code)
		}
		if !strings.Contains(out.String(), "examprep "+cmd.Name) {
			t.Fatalf("%s: usage %q", cmd.Name, out.String())
		}
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "bank.yml")
	os.WriteFile(good, []byte(`questions:
  - id: p1
    subject: physics
    options: [a, b]
    correctAnswer: 1
  - id: c1
    subject: chemistry
    options: [a, b]
    correctAnswers: [0, 1]
`), 0o644)
	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`{"questions":[{"id":"x","subject":"s","options":["a"],"correctAnswer":3}]}`), 0o644)

	var out, errb bytes.Buffer
	if code := Run([]string{"validate", good}, &out, &errb); code != ExitOK {
		t.Fatalf("good bank: exit %d: %s", code, errb.String())
	}
	if !strings.Contains(out.String(), "2 questions in 2 subjects") {
		t.Fatalf("output %q", out.String())
	}

	out.Reset()
	errb.Reset()
	if code := Run([]string{"validate", bad}, &out, &errb); code != ExitError {
		t.Fatalf("bad bank: exit %d", code)
	}
	if !strings.Contains(errb.String(), "out of range") {
		t.Fatalf("stderr %q", errb.String())
	}

	if code := Run([]string{"validate"}, &out, &errb); code != ExitUsage {
		t.Fatalf("missing path: exit %d", code)
	}
}

func TestParseMix(t *testing.T) {
	m, err := parseMix("30, 40,30")
	if err != nil || m.Easy != 30 || m.Medium != 40 || m.Hard != 30 {
		t.Fatalf("got %+v, %v", m, err)
	}
	for _, bad := range []string{"30,70", "a,b,c", "0,0,0", "-1,50,51"} {
		if _, err := parseMix(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestFormatClock(t *testing.T) {
	cases := map[int]string{0: "0:00", 5: "0:05", 754: "12:34", 3725: "1:02:05", -3: "0:00"}
	for in, want := range cases {
		if got := formatClock(in); got != want {
			t.Fatalf("formatClock(%d) = %q, want %q", in, got, want)
		}
	}
}
