package codex

// buildArgs constructs command line arguments for the Codex CLI.
//
// For new sessions:
//
//	codex --ask-for-approval never --sandbox read-only exec --json -m <model> "prompt"
//
// For resume sessions:
//
//	codex --ask-for-approval never --sandbox read-only exec resume <id> --json -m <model> "prompt"
//
// Global flags go before the exec subcommand; exec-specific flags after.
func buildArgs(cfg Config) []string {
	var args []string

	if cfg.Approvals != "" {
		args = append(args, "--ask-for-approval", cfg.Approvals)
	}
	if cfg.Sandbox != "" {
		args = append(args, "--sandbox", cfg.Sandbox)
	}

	args = append(args, "exec")

	if cfg.SessionID != "" {
		args = append(args, "resume", cfg.SessionID)
	}

	args = append(args, "--json")

	if cfg.Model != "" {
		args = append(args, "-m", cfg.Model)
	}

	if cfg.SkipGitCheck {
		args = append(args, "--skip-git-repo-check")
	}

	// Prompt as final positional argument
	if cfg.Prompt != "" {
		args = append(args, cfg.Prompt)
	}

	return args
}
