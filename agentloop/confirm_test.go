package agentloop

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestReaderConfirmerAnswers(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    bool
		prompts int
	}{
		{"empty is yes", "\n", true, 1},
		{"y", "y\n", true, 1},
		{"upper Y", "Y\n", true, 1},
		{"n", "n\n", false, 1},
		{"spaces", "  n  \n", false, 1},
		{"re-prompts on garbage", "maybe\nyes\nn\n", false, 3},
		{"unterminated last line", "y", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			confirm := NewReaderConfirmer(strings.NewReader(tt.input), &out)
			got, err := confirm("ls")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if n := strings.Count(out.String(), ConfirmPrompt); n != tt.prompts {
				t.Errorf("expected %d prompts, got %d", tt.prompts, n)
			}
		})
	}
}

func TestReaderConfirmerEOF(t *testing.T) {
	for _, input := range []string{"", "what", "what\n"} {
		confirm := NewReaderConfirmer(strings.NewReader(input), io.Discard)
		ok, err := confirm("ls")
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("input %q: expected ErrUnexpectedEOF, got %v", input, err)
		}
		if ok {
			t.Errorf("input %q: EOF must not confirm", input)
		}
	}
}

func TestReaderConfirmerSequential(t *testing.T) {
	confirm := NewReaderConfirmer(strings.NewReader("y\nn\n"), io.Discard)
	first, _ := confirm("one")
	second, _ := confirm("two")
	if !first || second {
		t.Errorf("expected yes then no, got %v then %v", first, second)
	}
}

func TestAlwaysConfirm(t *testing.T) {
	ok, err := AlwaysConfirm("rm -rf /")
	if !ok || err != nil {
		t.Errorf("expected unconditional yes, got %v, %v", ok, err)
	}
}

func TestClearPrevLine(t *testing.T) {
	var buf bytes.Buffer
	clearPrevLine(&buf)
	if got := buf.String(); got != "\x1b[A\x1b[2K" {
		t.Errorf("expected cursor-up then erase-line, got %q", got)
	}
}
