package agentloop

import (
	"bytes"
	"strings"
	"testing"
)

func TestDisplayTranscriptOfARun(t *testing.T) {
	var buf bytes.Buffer
	d := NewDisplay(&buf)

	d.Goal("count files")
	d.Separator()
	d.Context("counting")
	d.Command(0, "ls | wc -l")
	d.Result(&ExecResult{Output: "3", ExitCode: 0})
	d.Command(1, "false")
	d.Result(&ExecResult{ExitCode: 1})
	d.Separator()
	d.Outcome(Terminal{Status: StatusSuccess, Context: "3 files"})

	out := buf.String()
	for _, want := range []string{
		"Goal:", "count files",
		"\n----------\n",
		"Context:", "counting",
		"Command:", "ls | wc -l",
		"Exit code:", "3",
		"✅ Goal successfully achieved.", "3 files",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "❌") {
		t.Errorf("unexpected failure banner:\n%s", out)
	}
}

func TestDisplayFailureAndError(t *testing.T) {
	var buf bytes.Buffer
	d := NewDisplay(&buf)

	d.Outcome(Terminal{Status: StatusFailure})
	d.Error(msgNoNextStep)

	out := buf.String()
	if !strings.Contains(out, "❌ Goal failed.") {
		t.Errorf("expected failure banner in %q", out)
	}
	if !strings.Contains(out, "ERROR: No further commands provided, and no success/failure status was provided") {
		t.Errorf("expected protocol error line in %q", out)
	}
}

func TestDisplaySkipsEmptyContextAndOutput(t *testing.T) {
	var buf bytes.Buffer
	d := NewDisplay(&buf)
	d.Context("")
	if buf.Len() != 0 {
		t.Errorf("expected nothing for empty context, got %q", buf.String())
	}
	d.Result(&ExecResult{ExitCode: 0})
	if lines := strings.Count(buf.String(), "\n"); lines != 1 {
		t.Errorf("expected only the exit code line, got %q", buf.String())
	}
}

func TestPaintLineByLine(t *testing.T) {
	var buf bytes.Buffer
	d := NewDisplay(&buf)
	got := paint(d.dim, "a\nb")
	if strings.Count(got, "\n") != 1 {
		t.Errorf("expected line structure preserved, got %q", got)
	}
}
