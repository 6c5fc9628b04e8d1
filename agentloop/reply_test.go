package agentloop

import (
	"errors"
	"strings"
	"testing"
)

func TestParseReplyTerminal(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		succeeded bool
		context   string
	}{
		{"success", `{"status": "success", "context": "done"}`, true, "done"},
		{"failure", `{"status": "failure"}`, false, ""},
		{"status wins over commands", `{"status": "success", "commands": ["rm -rf /tmp/x"]}`, true, ""},
		{"fenced", "```json\n{\"status\": \"failure\", \"context\": \"no\"}\n```", false, "no"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := ParseReply(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			term, ok := reply.(Terminal)
			if !ok {
				t.Fatalf("expected Terminal, got %T", reply)
			}
			if term.Succeeded() != tt.succeeded {
				t.Errorf("expected succeeded=%v, got %v", tt.succeeded, term.Succeeded())
			}
			if term.Context != tt.context {
				t.Errorf("expected context %q, got %q", tt.context, term.Context)
			}
		})
	}
}

func TestParseReplyContinue(t *testing.T) {
	reply, err := ParseReply(`{
		"context": "listing files",
		"commands": ["ls -la", "pwd"],
		"convo-file-name": "list-files"
	}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, ok := reply.(Continue)
	if !ok {
		t.Fatalf("expected Continue, got %T", reply)
	}
	if len(c.Commands) != 2 || c.Commands[0] != "ls -la" || c.Commands[1] != "pwd" {
		t.Errorf("unexpected commands: %v", c.Commands)
	}
	if c.Context != "listing files" {
		t.Errorf("unexpected context %q", c.Context)
	}
	if c.FileName() != "list-files" {
		t.Errorf("unexpected file name %q", c.FileName())
	}
}

func TestParseReplyEmptyStatusIsRejected(t *testing.T) {
	reply, err := ParseReply(`{"status": "", "commands": ["rm -rf x"]}`)
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
	if reply != nil {
		t.Errorf("expected no reply, got %T", reply)
	}
	if !strings.Contains(err.Error(), `unrecognized status ""`) {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestParseReplyIgnoresNonStringOptionalFields(t *testing.T) {
	reply, err := ParseReply(`{"context": 42, "convo-file-name": ["x"], "commands": ["true"]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := reply.(Continue)
	if c.Context != "" || c.FileName() != "" {
		t.Errorf("expected non-string fields to be ignored, got %+v", c)
	}
}

func TestParseReplyProtocolErrors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantMsg string
	}{
		{"not json", `sure, here you go`, "not valid JSON"},
		{"array", `["ls"]`, "not valid JSON"},
		{"null", `null`, "not a JSON object"},
		{"empty object", `{}`, msgNoNextStep},
		{"null commands", `{"commands": null}`, msgNoNextStep},
		{"empty commands", `{"commands": [], "context": "thinking"}`, msgNoNextStep},
		{"blank command", `{"commands": ["ls", "  "]}`, "command 2 is empty"},
		{"commands not list", `{"commands": "ls"}`, "list of strings"},
		{"non-string command", `{"commands": ["ls", 3]}`, "list of strings"},
		{"unknown status", `{"status": "done"}`, `unrecognized status "done"`},
		{"status not string", `{"status": true}`, "status must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := ParseReply(tt.raw)
			if err == nil {
				t.Fatalf("expected error, got %#v", reply)
			}
			if !errors.Is(err, ErrProtocol) {
				t.Errorf("expected ErrProtocol, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected %q in %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestParseReplyProtocolErrorKeepsFileName(t *testing.T) {
	_, err := ParseReply(`{"convo-file-name": "stuck", "context": "hmm"}`)
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProtocolError, got %T", err)
	}
	if pe.FileName != "stuck" {
		t.Errorf("expected file name to survive, got %q", pe.FileName)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}\n", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"```json\n{\"a\":1}\n```\n", `{"a":1}`},
		{"```{\"a\":1}```", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
