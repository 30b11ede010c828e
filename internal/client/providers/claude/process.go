package claude

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zjrosen/clilm/internal/client"
	"github.com/zjrosen/clilm/internal/log"
)

// defaultKnownPaths lists where the claude binary is commonly installed,
// checked before PATH lookup.
var defaultKnownPaths = []string{
	"~/.claude/local/{name}",   // claude-managed install
	"~/.local/bin/{name}",      // common binary location
	"/opt/homebrew/bin/{name}", // Apple Silicon Mac (Homebrew)
	"/usr/local/bin/{name}",    // Intel Mac / Linux
}

// Process represents a headless Claude Code CLI process.
type Process struct {
	*client.BaseProcess
}

// extractSession extracts the session ID from a system/init event.
func extractSession(event client.OutputEvent, rawLine []byte) string {
	if event.Type == client.EventSystem && event.SubType == "init" {
		var initData struct {
			SessionID string `json:"session_id"`
		}
		if err := json.Unmarshal(rawLine, &initData); err == nil && initData.SessionID != "" {
			return initData.SessionID
		}
	}
	return ""
}

// Spawn creates and starts a new headless Claude process.
func Spawn(ctx context.Context, cfg Config) (*Process, error) {
	return spawnProcess(ctx, cfg)
}

// Resume continues an existing Claude session using the --resume flag.
func Resume(ctx context.Context, sessionID string, cfg Config) (*Process, error) {
	cfg.SessionID = sessionID
	return spawnProcess(ctx, cfg)
}

func spawnProcess(ctx context.Context, cfg Config) (*Process, error) {
	execPath, err := client.NewExecutableFinder("claude",
		client.WithKnownPaths(defaultKnownPaths...),
	).Find()
	if err != nil {
		return nil, err
	}
	log.Debug(log.CatClient, "found claude executable",
		"subsystem", "claude", "path", execPath)

	args := buildArgs(cfg)
	env := client.BuildEnvVars(client.Config{
		Env:             cfg.Env,
		GenerationIndex: cfg.GenerationIndex,
		GenerationTotal: cfg.GenerationTotal,
	})

	log.Debug(log.CatClient, "spawning claude process",
		"subsystem", "claude", "workDir", cfg.WorkDir,
		"model", cfg.Model, "sessionID", cfg.SessionID)

	base, err := client.NewSpawnBuilder(ctx).
		WithExecutable(execPath, args).
		WithWorkDir(cfg.WorkDir).
		WithSessionRef(cfg.SessionID).
		WithTimeout(cfg.Timeout).
		WithParser(NewParser()).
		WithSessionExtractor(extractSession).
		WithStderrCapture(true).
		WithProviderName("claude").
		WithEnv(env).
		Build()
	if err != nil {
		return nil, fmt.Errorf("claude: %w", err)
	}

	return &Process{BaseProcess: base}, nil
}

// SessionID returns the session ID (may be empty until the init event is
// received).
func (p *Process) SessionID() string {
	return p.SessionRef()
}
