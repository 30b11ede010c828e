package client

import (
	"fmt"
	"os"
	"sort"
	"time"
)

// Env var names injected into every spawned generation so that CLI
// programs (and test stubs) can vary output per generation.
const (
	EnvGenerationIndex  = "CLI_GENERATION_INDEX"
	EnvTotalGenerations = "CLI_TOTAL_GENERATIONS"
)

// Extension keys for provider-specific settings carried in
// Config.Extensions. Core code never interprets these; the typed
// accessors below give providers defaulted access.
const (
	ExtClaudeModel        = "claude.model"
	ExtCodexModel         = "codex.model"
	ExtCodexSandbox       = "codex.sandbox"
	ExtCodexApprovals     = "codex.approvals"
	ExtCodexSkipGitCheck  = "codex.skip_git_check"
	ExtCommandStdinFormat = "command.stdin_format"
)

// Default models used when no extension overrides them.
const (
	DefaultClaudeModel  = "sonnet"
	DefaultCodexModel   = "gpt-5-codex"
	DefaultCodexSandbox = "read-only"
)

// Config is the provider-independent spawn configuration.
type Config struct {
	// Command is the argv for the generic command provider. The other
	// providers locate their own binaries and ignore it.
	Command []string

	// WorkDir is the working directory for the spawned CLI.
	WorkDir string

	// Prompt is the flattened prompt text to send.
	Prompt string

	// SystemPrompt is prepended or passed via a dedicated flag,
	// depending on what the provider's CLI supports.
	SystemPrompt string

	// SessionID resumes an existing CLI session when non-empty.
	SessionID string

	// SkipPermissions disables the CLI's interactive permission
	// prompts (maps to provider-specific flags).
	SkipPermissions bool

	// Timeout bounds the whole process run. Zero means no limit.
	Timeout time.Duration

	// Env is overlaid on the parent environment.
	Env map[string]string

	// GenerationIndex / GenerationTotal describe this spawn's position
	// in an n-generation request and are exported to the child via
	// CLI_GENERATION_INDEX / CLI_TOTAL_GENERATIONS.
	GenerationIndex int
	GenerationTotal int

	// Extensions carries provider-specific settings keyed by the Ext*
	// constants.
	Extensions map[string]any
}

// SetExtension stores a provider-specific setting, allocating the map on
// first use.
func (c *Config) SetExtension(key string, value any) {
	if c.Extensions == nil {
		c.Extensions = make(map[string]any)
	}
	c.Extensions[key] = value
}

// stringExt returns the string extension for key, or fallback when the
// key is absent, empty, or not a string.
func (c Config) stringExt(key, fallback string) string {
	if c.Extensions == nil {
		return fallback
	}
	if v, ok := c.Extensions[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// boolExt returns the bool extension for key, or false when absent or
// mistyped.
func (c Config) boolExt(key string) bool {
	if c.Extensions == nil {
		return false
	}
	v, _ := c.Extensions[key].(bool)
	return v
}

// ClaudeModel returns the Claude model alias to request.
func (c Config) ClaudeModel() string {
	return c.stringExt(ExtClaudeModel, DefaultClaudeModel)
}

// CodexModel returns the Codex model to request.
func (c Config) CodexModel() string {
	return c.stringExt(ExtCodexModel, DefaultCodexModel)
}

// CodexSandbox returns the Codex sandbox policy.
func (c Config) CodexSandbox() string {
	return c.stringExt(ExtCodexSandbox, DefaultCodexSandbox)
}

// CodexApprovals returns the Codex approval policy ("never" by default:
// headless runs cannot answer approval prompts).
func (c Config) CodexApprovals() string {
	return c.stringExt(ExtCodexApprovals, "never")
}

// CodexSkipGitCheck reports whether to pass --skip-git-repo-check.
func (c Config) CodexSkipGitCheck() bool {
	return c.boolExt(ExtCodexSkipGitCheck)
}

// BuildEnvVars composes the child environment: the parent environment,
// the user overlay, then the generation coordinates. User keys are
// emitted in sorted order so spawns are deterministic.
func BuildEnvVars(cfg Config) []string {
	env := os.Environ()

	keys := make([]string, 0, len(cfg.Env))
	for k := range cfg.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+cfg.Env[k])
	}

	if cfg.GenerationTotal > 0 {
		env = append(env,
			fmt.Sprintf("%s=%d", EnvGenerationIndex, cfg.GenerationIndex),
			fmt.Sprintf("%s=%d", EnvTotalGenerations, cfg.GenerationTotal),
		)
	}
	return env
}
