// Package agentloop drives a goal to completion by alternating model turns
// with shell command batches.
//
// Each model turn must be a JSON object that either reports a terminal status
// or proposes a non-empty list of commands. ParseReply turns the raw text into
// a Terminal or a Continue and rejects everything else with ErrProtocol.
//
// A Loop runs commands from a Continue in order, asking a Confirmer before
// each one, and stops the batch at the first non-zero exit. The results go
// back to the model as the next user turn. The run ends when the model
// reports a status, the user declines a command, or an error occurs; in every
// case the transcript is handed to the TranscriptStore once.
//
// # Quick Start
//
//	loop, err := agentloop.New(agentloop.Options{
//		Goal:         "list the largest files in this directory",
//		SystemPrompt: prompt,
//		Model:        "gpt-4o",
//		Client:       client,
//		Confirm:      agentloop.NewTerminalConfirmer(os.Stdin, os.Stdout),
//		Display:      agentloop.NewDisplay(os.Stdout),
//		Store:        agentloop.DirStore{Dir: ".convos"},
//	})
//	if err != nil {
//		return err
//	}
//	outcome, err := loop.Run(ctx)
//	os.Exit(outcome.ExitCode())
package agentloop
