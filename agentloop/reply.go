package agentloop

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Status is the terminal signal of a reply.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// ErrProtocol is matched by every reply that fits neither reply shape.
var ErrProtocol = errors.New("protocol error")

// msgNoNextStep is shown when a reply carries neither a status nor commands.
const msgNoNextStep = "No further commands provided, and no success/failure status was provided"

// ProtocolError describes a model reply that could not be accepted. FileName
// holds the convo-file-name when the reply was a JSON object that carried one.
type ProtocolError struct {
	Msg      string
	FileName string
	Err      error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }

// Reply is a parsed model turn: either Terminal or Continue.
type Reply interface {
	// FileName is the suggested transcript file stem, or "".
	FileName() string
	isReply()
}

// Terminal ends the loop.
type Terminal struct {
	Status   Status
	Context  string
	fileName string
}

func (t Terminal) FileName() string { return t.fileName }
func (Terminal) isReply()           {}

// Succeeded reports whether the goal was achieved.
func (t Terminal) Succeeded() bool { return t.Status == StatusSuccess }

// Continue carries the next command batch.
type Continue struct {
	Context  string
	Commands []string
	fileName string
}

func (c Continue) FileName() string { return c.fileName }
func (Continue) isReply()           {}

// ParseReply decodes the raw text of an assistant turn. A recognized status
// wins over commands. Anything that is neither a Terminal nor a Continue with
// at least one non-blank command is a *ProtocolError.
func ParseReply(raw string) (Reply, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &fields); err != nil {
		return nil, &ProtocolError{Msg: "model reply is not valid JSON", Err: err}
	}
	if fields == nil {
		return nil, &ProtocolError{Msg: "model reply is not a JSON object"}
	}

	fileName, _ := optionalString(fields["convo-file-name"])
	context, _ := optionalString(fields["context"])

	if rawStatus, ok := present(fields["status"]); ok {
		var status string
		if err := json.Unmarshal(rawStatus, &status); err != nil {
			return nil, &ProtocolError{Msg: "status must be a string", FileName: fileName}
		}
		switch Status(status) {
		case StatusSuccess, StatusFailure:
			return Terminal{Status: Status(status), Context: context, fileName: fileName}, nil
		default:
			return nil, &ProtocolError{Msg: fmt.Sprintf("unrecognized status %q", status), FileName: fileName}
		}
	}

	rawCommands, ok := present(fields["commands"])
	if !ok {
		return nil, &ProtocolError{Msg: msgNoNextStep, FileName: fileName}
	}
	var commands []string
	if err := json.Unmarshal(rawCommands, &commands); err != nil {
		return nil, &ProtocolError{Msg: "commands must be a list of strings", FileName: fileName}
	}
	if len(commands) == 0 {
		return nil, &ProtocolError{Msg: msgNoNextStep, FileName: fileName}
	}
	for i, command := range commands {
		if strings.TrimSpace(command) == "" {
			return nil, &ProtocolError{Msg: fmt.Sprintf("command %d is empty", i+1), FileName: fileName}
		}
	}

	return Continue{Context: context, Commands: commands, fileName: fileName}, nil
}

// present returns raw unless the field is absent or null.
func present(raw json.RawMessage) (json.RawMessage, bool) {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

// optionalString decodes raw when it holds a JSON string. Other types are
// ignored.
func optionalString(raw json.RawMessage) (string, bool) {
	raw, ok := present(raw)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// stripCodeFence removes a surrounding markdown code fence, which some
// providers add even when asked for bare JSON.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
