package agentloop

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/martinemde/gptcmd/unifiedllm"
)

// TimestampFormat names transcript files: YYYY-MM-DD_HH-MM-SS.
const TimestampFormat = "2006-01-02_15-04-05"

// Transcript is the append-only message sequence of one run.
type Transcript struct {
	messages  []unifiedllm.Message
	name      string
	timestamp string
}

// NewTranscript seeds a transcript with the system prompt and the goal.
func NewTranscript(systemPrompt, goal string, started time.Time) *Transcript {
	return &Transcript{
		messages: []unifiedllm.Message{
			unifiedllm.SystemMessage(systemPrompt),
			unifiedllm.UserMessage(goal),
		},
		timestamp: started.Format(TimestampFormat),
	}
}

// Append adds a message to the end of the transcript.
func (t *Transcript) Append(msg unifiedllm.Message) {
	t.messages = append(t.messages, msg)
}

// Messages returns a copy of the message sequence.
func (t *Transcript) Messages() []unifiedllm.Message {
	m := make([]unifiedllm.Message, len(t.messages))
	copy(m, t.messages)
	return m
}

// Len returns the number of messages.
func (t *Transcript) Len() int { return len(t.messages) }

// CaptureName records the suggested file stem. The first non-empty name wins;
// it reports whether name was taken.
func (t *Transcript) CaptureName(name string) bool {
	name = sanitizeFileStem(name)
	if t.name != "" || name == "" {
		return false
	}
	t.name = name
	return true
}

// Name returns the captured file stem, or "".
func (t *Transcript) Name() string { return t.name }

// FileName is {name_}{timestamp}.json.
func (t *Transcript) FileName() string {
	if t.name == "" {
		return t.timestamp + ".json"
	}
	return t.name + "_" + t.timestamp + ".json"
}

// MarshalJSON encodes the transcript as an indented message array.
func (t *Transcript) MarshalJSON() ([]byte, error) {
	return encodeJSON(t.messages, "  ")
}

// sanitizeFileStem keeps a model-provided name inside the transcript
// directory.
func sanitizeFileStem(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r < ' ':
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	return strings.Trim(name, ".")
}

// CommandResult is one executed command as reported back to the model.
type CommandResult struct {
	Command  string `json:"command"`
	Stdout   string `json:"stdout"`
	ExitCode int    `json:"exit_code"`
}

// ResultsMessage encodes a batch of results as the next user turn.
func ResultsMessage(results []CommandResult) (unifiedllm.Message, error) {
	if results == nil {
		results = []CommandResult{}
	}
	data, err := encodeJSON(results, "")
	if err != nil {
		return unifiedllm.Message{}, fmt.Errorf("encode command results: %w", err)
	}
	return unifiedllm.UserMessage(string(data)), nil
}

func encodeJSON(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// TranscriptStore persists a finished transcript and returns where it went.
type TranscriptStore interface {
	Save(t *Transcript) (string, error)
}

// DirStore writes transcripts as JSON files under Dir.
type DirStore struct {
	Dir string
}

var _ TranscriptStore = DirStore{}

// Save creates Dir if needed and writes the transcript to it.
func (s DirStore) Save(t *Transcript) (string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("create transcript directory: %w", err)
	}
	data, err := t.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encode transcript: %w", err)
	}
	path := filepath.Join(s.Dir, t.FileName())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return path, nil
}
