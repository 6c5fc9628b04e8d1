// Command gptcmd asks a language model to reach a goal by running shell
// commands on this machine, one confirmed command at a time.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/martinemde/gptcmd/agentloop"
	"github.com/martinemde/gptcmd/config"
	"github.com/martinemde/gptcmd/logs"
	"github.com/martinemde/gptcmd/unifiedllm"
)

const envHelp = `Environment:
  GPT_CMD_DANGEROUSLY_SKIP_PROMPTS  run commands without asking when "true"
  GPT_CMD_MODEL                     model id or alias (default gpt-4o)
  GPT_CMD_PROVIDER                  provider name (default: inferred from the model)
  GPT_CMD_TOKEN                     API token, overrides the token file
  GPT_CMD_TOKEN_FILE_PATH           API token file (default ~/OPENAI_TOKEN)
  GPT_CMD_BASE_URL                  OpenAI-compatible endpoint override
  GPT_CMD_PROJECT_ROOT              directory holding system-prompt.txt and .convos
                                    (default: the executable's directory)
  GPT_CMD_LOG_LEVEL                 debug, info, warn or error (default warn)`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, nil)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code. environ replaces
// the process environment when non-nil.
func run(ctx context.Context, args []string, stdin *os.File, stdout, stderr io.Writer, environ map[string]string) int {
	exitCode := 0
	var getConvosDir bool

	root := &cobra.Command{
		Use:   "gptcmd <goal>",
		Short: "Reach a goal by running model-proposed shell commands",
		Long: "gptcmd sends the goal to a language model, shows each shell command it\n" +
			"proposes, runs it once you agree, and reports the output back until the\n" +
			"model declares success or failure.\n\n" + envHelp,
		Example:       "  gptcmd \"create a hello world go module in ./hello\"\n  gptcmd --get-convos-dir",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if getConvosDir {
				return cobra.NoArgs(cmd, args)
			}
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return err
			}
			if strings.TrimSpace(args[0]) == "" {
				return errors.New("goal must not be empty")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFrom(environ)
			if err != nil {
				return err
			}
			if getConvosDir {
				fmt.Fprintln(stdout, cfg.ConvosDir())
				return nil
			}
			exitCode = runGoal(cmd.Context(), cfg, args[0], stdin, stdout, stderr)
			return nil
		},
	}
	root.Flags().BoolVar(&getConvosDir, "get-convos-dir", false, "print the transcript directory and exit")
	// A lone argument is the goal even when it starts with a dash.
	if len(args) == 1 && !isRootFlag(args[0]) {
		args = []string{"--", args[0]}
	}
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n\n%s", err, root.UsageString())
		return 1
	}
	return exitCode
}

func isRootFlag(arg string) bool {
	switch arg {
	case "--help", "-h", "--get-convos-dir":
		return true
	}
	return false
}

func runGoal(ctx context.Context, cfg *config.Config, goal string, stdin *os.File, stdout, stderr io.Writer) int {
	logger := logs.New(stderr, cfg.LogLevel).With("run_id", uuid.NewString())

	basePrompt, err := cfg.ReadSystemPrompt()
	if err != nil {
		logger.Error("cannot start", "error", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	executor := agentloop.NewShellExecutor("")
	systemPrompt := agentloop.BuildSystemPrompt(basePrompt, agentloop.DetectEnvironment(executor.Shell(), time.Now()))

	adapter := unifiedllm.NewLazyAdapter(cfg.AdapterConfig())
	client := unifiedllm.NewClient(adapter, unifiedllm.WithMiddleware(unifiedllm.LoggingMiddleware(logger)))

	var confirm agentloop.Confirmer
	if !cfg.SkipPrompts() {
		confirm = agentloop.NewTerminalConfirmer(stdin, stdout)
	}

	loop, err := agentloop.New(agentloop.Options{
		Goal:         goal,
		SystemPrompt: systemPrompt,
		Model:        cfg.Model,
		Client:       client,
		Executor:     executor,
		Confirm:      confirm,
		Display:      agentloop.NewDisplay(stdout),
		Store:        agentloop.DirStore{Dir: cfg.ConvosDir()},
		Logger:       logger,
		SkipPrompts:  cfg.SkipPrompts(),
	})
	if err != nil {
		logger.Error("cannot start", "error", err)
		return 1
	}

	outcome, err := loop.Run(ctx)
	if err != nil && !errors.Is(err, agentloop.ErrDeclined) {
		logger.Error("run ended with error", "outcome", outcome.String(), "error", err)
	}
	if err != nil {
		return 1
	}
	return outcome.ExitCode()
}
