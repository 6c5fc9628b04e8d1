package agentloop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/martinemde/gptcmd/unifiedllm"
)

// LoopState represents the current lifecycle state of a loop.
type LoopState string

const (
	StateAwaitingModel   LoopState = "awaiting_model"
	StateProcessingReply LoopState = "processing_reply"
	StateTerminated      LoopState = "terminated"
)

// Outcome is how a run ended.
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeFailed
	OutcomeDeclined
	OutcomeProtocolError
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeDeclined:
		return "declined"
	case OutcomeProtocolError:
		return "protocol_error"
	case OutcomeAborted:
		return "aborted"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// ExitCode is 0 for a succeeded goal and 1 otherwise.
func (o Outcome) ExitCode() int {
	if o == OutcomeSucceeded {
		return 0
	}
	return 1
}

// ErrDeclined is returned when the user refuses to run a command.
var ErrDeclined = errors.New("command declined")

// Completer produces the next assistant turn. *unifiedllm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, req unifiedllm.Request) (*unifiedllm.Response, error)
}

// Options holds everything a Loop needs. Client and Store are required;
// Confirm is required unless SkipPrompts is set.
type Options struct {
	Goal         string
	SystemPrompt string
	Model        string

	Client   Completer
	Executor Executor
	Confirm  Confirmer
	Display  *Display
	Store    TranscriptStore
	Logger   *slog.Logger

	// SkipPrompts runs every command without asking.
	SkipPrompts bool
	// Now stamps the transcript file name. Defaults to time.Now.
	Now func() time.Time
}

// Loop drives one goal from the first model call to a terminal outcome.
type Loop struct {
	opts       Options
	transcript *Transcript
	logger     *slog.Logger
	display    *Display

	mu             sync.Mutex
	state          LoopState
	ran            bool
	rounds         int
	transcriptPath string
}

// New validates opts and seeds the transcript with the system prompt and goal.
func New(opts Options) (*Loop, error) {
	if opts.Goal == "" {
		return nil, errors.New("goal is required")
	}
	if opts.Client == nil {
		return nil, errors.New("model client is required")
	}
	if opts.Store == nil {
		return nil, errors.New("transcript store is required")
	}
	if opts.Confirm == nil && !opts.SkipPrompts {
		return nil, errors.New("confirmer is required unless prompts are skipped")
	}
	if opts.Executor == nil {
		opts.Executor = NewShellExecutor("")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	display := opts.Display
	if display == nil {
		display = NewDisplay(io.Discard)
	}

	return &Loop{
		opts:       opts,
		transcript: NewTranscript(opts.SystemPrompt, opts.Goal, opts.Now()),
		logger:     logger,
		display:    display,
		state:      StateAwaitingModel,
	}, nil
}

// State returns the current lifecycle state.
func (l *Loop) State() LoopState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loop) setState(s LoopState) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// Transcript returns the message sequence of the run.
func (l *Loop) Transcript() *Transcript { return l.transcript }

// Rounds returns the number of command batches reported back to the model.
func (l *Loop) Rounds() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rounds
}

// TranscriptPath returns where the transcript was saved, once Run returned.
func (l *Loop) TranscriptPath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transcriptPath
}

// Run talks to the model until it reports a status, the user declines a
// command, or an error ends the run. The transcript is saved exactly once
// before Run returns, whatever the outcome. A save failure is joined into the
// returned error without changing the outcome.
func (l *Loop) Run(ctx context.Context) (outcome Outcome, err error) {
	l.mu.Lock()
	if l.ran {
		l.mu.Unlock()
		return OutcomeAborted, errors.New("loop has already run")
	}
	l.ran = true
	l.mu.Unlock()

	defer func() {
		l.setState(StateTerminated)
		if saveErr := l.save(); saveErr != nil {
			err = errors.Join(err, saveErr)
		}
		l.logger.Info("run finished",
			"outcome", outcome.String(),
			"rounds", l.Rounds(),
			"messages", l.transcript.Len(),
		)
	}()

	l.display.Goal(l.opts.Goal)

	for {
		if err := ctx.Err(); err != nil {
			return OutcomeAborted, err
		}

		// 1. Ask the model for the next step.
		l.setState(StateAwaitingModel)
		l.display.Separator()
		raw, err := l.callModel(ctx)
		if err != nil {
			l.display.Error(err.Error())
			return OutcomeAborted, err
		}

		// 2. Record the assistant turn before interpreting it.
		l.setState(StateProcessingReply)
		l.transcript.Append(unifiedllm.AssistantMessage(raw))

		reply, err := ParseReply(raw)
		if err != nil {
			var pe *ProtocolError
			if errors.As(err, &pe) {
				l.captureName(pe.FileName)
			}
			l.display.Error(err.Error())
			l.logger.Warn("unusable model reply", "error", err)
			return OutcomeProtocolError, err
		}
		l.captureName(reply.FileName())

		switch r := reply.(type) {
		case Terminal:
			l.logger.Debug("model reported status", "status", string(r.Status))
			l.display.Outcome(r)
			if r.Succeeded() {
				return OutcomeSucceeded, nil
			}
			return OutcomeFailed, nil

		case Continue:
			l.logger.Debug("model proposed commands", "count", len(r.Commands))
			l.display.Context(r.Context)

			// 3. Run the batch, stopping at the first failure.
			results, err := l.runBatch(ctx, r.Commands)
			if errors.Is(err, ErrDeclined) {
				return OutcomeDeclined, err
			}
			if err != nil {
				return OutcomeAborted, err
			}

			// 4. Report the results as the next user turn.
			msg, err := ResultsMessage(results)
			if err != nil {
				return OutcomeAborted, err
			}
			l.transcript.Append(msg)
			l.mu.Lock()
			l.rounds++
			l.mu.Unlock()
		}
	}
}

func (l *Loop) callModel(ctx context.Context) (string, error) {
	messages := l.transcript.Messages()
	l.logger.Debug("calling model", "model", l.opts.Model, "messages", len(messages))

	start := time.Now()
	resp, err := l.opts.Client.Complete(ctx, unifiedllm.Request{
		Model:          l.opts.Model,
		Messages:       messages,
		ResponseFormat: unifiedllm.JSONObjectFormat(),
	})
	if err != nil {
		return "", fmt.Errorf("model call: %w", err)
	}
	l.logger.Debug("model replied",
		"model", resp.Model,
		"duration", time.Since(start),
		"output_tokens", resp.Usage.OutputTokens,
	)
	return resp.Text(), nil
}

// runBatch executes commands in order. A non-zero exit ends the batch but
// not the run; the model sees the failure and decides what to do.
func (l *Loop) runBatch(ctx context.Context, commands []string) ([]CommandResult, error) {
	results := make([]CommandResult, 0, len(commands))
	for i, command := range commands {
		l.display.Command(i, command)

		if !l.opts.SkipPrompts {
			ok, err := l.opts.Confirm(command)
			if errors.Is(err, ErrConfirmAborted) {
				return nil, err
			}
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrDeclined, err)
			}
			if !ok {
				l.logger.Debug("command declined", "command", command)
				return nil, ErrDeclined
			}
		}

		res, err := l.opts.Executor.ExecCommand(ctx, command)
		if err != nil {
			return nil, fmt.Errorf("run command: %w", err)
		}
		l.logger.Debug("command finished",
			"command", command,
			"exit_code", res.ExitCode,
			"duration_ms", res.DurationMs,
		)
		l.display.Result(res)

		results = append(results, CommandResult{
			Command:  command,
			Stdout:   res.Output,
			ExitCode: res.ExitCode,
		})
		if res.ExitCode != 0 {
			break
		}
	}
	return results, nil
}

func (l *Loop) captureName(name string) {
	if l.transcript.CaptureName(name) {
		l.logger.Debug("transcript name captured", "name", l.transcript.Name())
	}
}

func (l *Loop) save() error {
	path, err := l.opts.Store.Save(l.transcript)
	if err != nil {
		l.logger.Error("saving transcript failed", "error", err)
		return err
	}
	l.mu.Lock()
	l.transcriptPath = path
	l.mu.Unlock()
	l.logger.Info("transcript saved", "path", path)
	return nil
}
