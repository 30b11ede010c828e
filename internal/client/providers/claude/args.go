package claude

// buildArgs constructs command line arguments for the Claude Code CLI.
//
// For new sessions:
//
//	claude -p --verbose --output-format stream-json --model <model> "prompt"
//
// For resume sessions:
//
//	claude -p --verbose --output-format stream-json --resume <id> --model <model> "prompt"
//
// --verbose is required: without it the CLI suppresses the intermediate
// stream-json events and only prints the final result.
func buildArgs(cfg Config) []string {
	args := []string{
		"-p",
		"--verbose",
		"--output-format", "stream-json",
	}

	if cfg.SessionID != "" {
		args = append(args, "--resume", cfg.SessionID)
	}

	if cfg.Model != "" {
		args = append(args, "--model", cfg.Model)
	}

	if cfg.SystemPrompt != "" {
		args = append(args, "--append-system-prompt", cfg.SystemPrompt)
	}

	if cfg.SkipPermissions {
		args = append(args, "--dangerously-skip-permissions")
	}

	// Prompt as final positional argument
	if cfg.Prompt != "" {
		args = append(args, cfg.Prompt)
	}

	return args
}
