package codex

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zjrosen/clilm/internal/client"
	"github.com/zjrosen/clilm/internal/log"
)

// defaultKnownPaths lists where the codex binary is commonly installed,
// checked before PATH lookup.
var defaultKnownPaths = []string{
	"~/.local/bin/{name}",      // common binary location
	"/opt/homebrew/bin/{name}", // Apple Silicon Mac (Homebrew)
	"/usr/local/bin/{name}",    // Intel Mac / Linux
}

// Process represents a headless Codex CLI process.
type Process struct {
	*client.BaseProcess
}

// extractSession extracts the thread ID from a thread.started event.
// The parser normalizes thread.started to the system/init shape, so the
// raw line still carries the native thread_id key.
func extractSession(event client.OutputEvent, rawLine []byte) string {
	if event.Type == client.EventSystem && event.SubType == "init" {
		if event.SessionID != "" {
			return event.SessionID
		}
		var initData struct {
			ThreadID string `json:"thread_id"`
		}
		if err := json.Unmarshal(rawLine, &initData); err == nil {
			return initData.ThreadID
		}
	}
	return ""
}

// Spawn creates and starts a new headless Codex process.
func Spawn(ctx context.Context, cfg Config) (*Process, error) {
	return spawnProcess(ctx, cfg)
}

// Resume continues an existing Codex thread using "exec resume".
func Resume(ctx context.Context, sessionID string, cfg Config) (*Process, error) {
	cfg.SessionID = sessionID
	return spawnProcess(ctx, cfg)
}

func spawnProcess(ctx context.Context, cfg Config) (*Process, error) {
	execPath, err := client.NewExecutableFinder("codex",
		client.WithKnownPaths(defaultKnownPaths...),
	).Find()
	if err != nil {
		return nil, err
	}
	log.Debug(log.CatClient, "found codex executable",
		"subsystem", "codex", "path", execPath)

	args := buildArgs(cfg)
	env := client.BuildEnvVars(client.Config{
		Env:             cfg.Env,
		GenerationIndex: cfg.GenerationIndex,
		GenerationTotal: cfg.GenerationTotal,
	})

	log.Debug(log.CatClient, "spawning codex process",
		"subsystem", "codex", "workDir", cfg.WorkDir,
		"model", cfg.Model, "sandbox", cfg.Sandbox, "sessionID", cfg.SessionID)

	base, err := client.NewSpawnBuilder(ctx).
		WithExecutable(execPath, args).
		WithWorkDir(cfg.WorkDir).
		WithSessionRef(cfg.SessionID).
		WithTimeout(cfg.Timeout).
		WithParser(NewParser()).
		WithSessionExtractor(extractSession).
		WithStderrCapture(true).
		WithProviderName("codex").
		WithEnv(env).
		Build()
	if err != nil {
		return nil, fmt.Errorf("codex: %w", err)
	}

	return &Process{BaseProcess: base}, nil
}

// ThreadID returns the Codex thread ID (may be empty until the
// thread.started event is received).
func (p *Process) ThreadID() string {
	return p.SessionRef()
}
