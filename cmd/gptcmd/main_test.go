package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// newChatServer answers chat completions with replies in order.
func newChatServer(t *testing.T, replies ...string) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if len(replies) == 0 {
			http.Error(w, `{"error": {"message": "no more replies"}}`, http.StatusInternalServerError)
			return
		}
		content := replies[0]
		replies = replies[1:]
		body, _ := json.Marshal(map[string]any{
			"id":    "chatcmpl-test",
			"model": "gpt-4o",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func projectRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "system-prompt.txt"), []byte("Reply in JSON.\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return root
}

func testEnviron(root, baseURL string) map[string]string {
	return map[string]string{
		"GPT_CMD_PROJECT_ROOT":             root,
		"GPT_CMD_DANGEROUSLY_SKIP_PROMPTS": "true",
		"GPT_CMD_TOKEN":                    "sk-test",
		"GPT_CMD_BASE_URL":                 baseURL,
		"GPT_CMD_LOG_LEVEL":                "error",
	}
}

func convoFiles(t *testing.T, root string) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(root, ".convos", "*.json"))
	if err != nil {
		t.Fatal(err)
	}
	return files
}

func TestRunHelp(t *testing.T) {
	for _, flag := range []string{"--help", "-h"} {
		var stdout, stderr bytes.Buffer
		code := run(context.Background(), []string{flag}, nil, &stdout, &stderr, map[string]string{})
		if code != 0 {
			t.Errorf("%s: expected exit 0, got %d", flag, code)
		}
		for _, want := range []string{"Usage:", "gptcmd <goal>", "--get-convos-dir", "GPT_CMD_TOKEN_FILE_PATH", "GPT_CMD_DANGEROUSLY_SKIP_PROMPTS"} {
			if !strings.Contains(stdout.String(), want) {
				t.Errorf("%s: expected %q in help:\n%s", flag, want, stdout.String())
			}
		}
	}
}

func TestRunGetConvosDir(t *testing.T) {
	root := t.TempDir()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--get-convos-dir"}, nil, &stdout, &stderr, map[string]string{
		"GPT_CMD_PROJECT_ROOT": root,
	})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}
	if got := strings.TrimSpace(stdout.String()); got != filepath.Join(root, ".convos") {
		t.Errorf("unexpected convos dir %q", got)
	}
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", nil},
		{"two args", []string{"one", "two"}},
		{"empty goal", []string{"  "}},
		{"unknown flag", []string{"--bogus", "goal"}},
		{"convos dir with goal", []string{"--get-convos-dir", "goal"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, nil, &stdout, &stderr, map[string]string{})
			if code != 1 {
				t.Errorf("expected exit 1, got %d", code)
			}
			if !strings.Contains(stderr.String(), "Usage:") {
				t.Errorf("expected usage on stderr, got %q", stderr.String())
			}
		})
	}
}

func TestRunGoalSucceeds(t *testing.T) {
	root := projectRoot(t)
	srv := newChatServer(t,
		`{"convo-file-name": "say-hi", "context": "greeting", "commands": ["echo hi"]}`,
		`{"status": "success", "context": "said hi"}`,
	)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"say hi"}, nil, &stdout, &stderr, testEnviron(root, srv.URL+"/v1"))
	if code != 0 {
		t.Fatalf("expected exit 0, got %d\nstdout:\n%s\nstderr:\n%s", code, stdout.String(), stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{"Goal:", "say hi", "Command:", "echo hi", "Exit code:", "✅ Goal successfully achieved.", "said hi"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	files := convoFiles(t, root)
	if len(files) != 1 {
		t.Fatalf("expected one transcript, got %v", files)
	}
	if !strings.HasPrefix(filepath.Base(files[0]), "say-hi_") {
		t.Errorf("expected named transcript, got %s", files[0])
	}
}

func TestRunGoalStartingWithDash(t *testing.T) {
	for _, goal := range []string{"-rf cleanup", "--verbose listing"} {
		t.Run(goal, func(t *testing.T) {
			root := projectRoot(t)
			srv := newChatServer(t, `{"status": "success"}`)

			var stdout, stderr bytes.Buffer
			code := run(context.Background(), []string{goal}, nil, &stdout, &stderr, testEnviron(root, srv.URL+"/v1"))
			if code != 0 {
				t.Fatalf("expected exit 0, got %d\nstdout:\n%s\nstderr:\n%s", code, stdout.String(), stderr.String())
			}
			if !strings.Contains(stdout.String(), goal) {
				t.Errorf("expected goal %q in output:\n%s", goal, stdout.String())
			}
			if files := convoFiles(t, root); len(files) != 1 {
				t.Errorf("expected one transcript, got %v", files)
			}
		})
	}
}

func TestRunGoalFails(t *testing.T) {
	root := projectRoot(t)
	srv := newChatServer(t, `{"status": "failure", "context": "cannot"}`)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"do the impossible"}, nil, &stdout, &stderr, testEnviron(root, srv.URL+"/v1"))
	if code != 1 {
		t.Errorf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stdout.String(), "❌ Goal failed.") {
		t.Errorf("expected failure banner:\n%s", stdout.String())
	}
	if len(convoFiles(t, root)) != 1 {
		t.Error("expected transcript to be saved")
	}
}

func TestRunProtocolError(t *testing.T) {
	root := projectRoot(t)
	srv := newChatServer(t, `{"context": "thinking"}`)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"goal"}, nil, &stdout, &stderr, testEnviron(root, srv.URL+"/v1"))
	if code != 1 {
		t.Errorf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stdout.String(), "ERROR: No further commands provided") {
		t.Errorf("expected protocol error line:\n%s", stdout.String())
	}
	if len(convoFiles(t, root)) != 1 {
		t.Error("expected transcript to be saved")
	}
}

func TestRunMissingSystemPrompt(t *testing.T) {
	root := t.TempDir()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"goal"}, nil, &stdout, &stderr, testEnviron(root, "http://127.0.0.1:1/v1"))
	if code != 1 {
		t.Errorf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "system prompt") {
		t.Errorf("expected system prompt error, got %q", stderr.String())
	}
	if len(convoFiles(t, root)) != 0 {
		t.Error("no transcript expected before the loop starts")
	}
}

func TestRunMissingTokenPersists(t *testing.T) {
	root := projectRoot(t)
	environ := testEnviron(root, "http://127.0.0.1:1/v1")
	delete(environ, "GPT_CMD_TOKEN")
	environ["GPT_CMD_TOKEN_FILE_PATH"] = filepath.Join(root, "missing-token")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"goal"}, nil, &stdout, &stderr, environ)
	if code != 1 {
		t.Errorf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stdout.String(), "unable to resolve credential") {
		t.Errorf("expected credential error in output:\n%s", stdout.String())
	}
	if len(convoFiles(t, root)) != 1 {
		t.Error("expected transcript to be saved after a model call failure")
	}
}
