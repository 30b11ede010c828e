package command

import (
	"context"
	"fmt"
	"time"

	"github.com/zjrosen/clilm/internal/client"
	"github.com/zjrosen/clilm/internal/log"
)

// Config holds configuration for spawning a generic command process.
type Config struct {
	Command         []string // argv; Command[0] may be a bare name resolved via PATH
	WorkDir         string
	Prompt          string // written to the child's stdin
	SystemPrompt    string // prepended to the prompt
	Timeout         time.Duration
	Env             map[string]string
	GenerationIndex int
	GenerationTotal int
}

// Process represents a generic command process.
type Process struct {
	*client.BaseProcess
}

// configFromClient converts a client.Config to a command.Config.
func configFromClient(cfg client.Config) Config {
	prompt := cfg.Prompt
	if cfg.SystemPrompt != "" && prompt != "" {
		prompt = cfg.SystemPrompt + "\n\n" + prompt
	} else if cfg.SystemPrompt != "" {
		prompt = cfg.SystemPrompt
	}

	return Config{
		Command:         cfg.Command,
		WorkDir:         cfg.WorkDir,
		Prompt:          prompt,
		Timeout:         cfg.Timeout,
		Env:             cfg.Env,
		GenerationIndex: cfg.GenerationIndex,
		GenerationTotal: cfg.GenerationTotal,
	}
}

// Spawn starts the configured command with the prompt on stdin.
func Spawn(ctx context.Context, cfg Config) (*Process, error) {
	if len(cfg.Command) == 0 {
		return nil, fmt.Errorf("command: empty argv")
	}

	execPath, err := client.NewExecutableFinder(cfg.Command[0]).Find()
	if err != nil {
		return nil, err
	}

	env := client.BuildEnvVars(client.Config{
		Env:             cfg.Env,
		GenerationIndex: cfg.GenerationIndex,
		GenerationTotal: cfg.GenerationTotal,
	})

	log.Debug(log.CatClient, "spawning command process",
		"subsystem", "command", "argv0", cfg.Command[0], "workDir", cfg.WorkDir)

	base, err := client.NewSpawnBuilder(ctx).
		WithExecutable(execPath, cfg.Command[1:]).
		WithWorkDir(cfg.WorkDir).
		WithStdin(cfg.Prompt).
		WithTimeout(cfg.Timeout).
		WithParser(NewParser()).
		WithStderrCapture(true).
		WithProviderName("command").
		WithEnv(env).
		Build()
	if err != nil {
		return nil, fmt.Errorf("command: %w", err)
	}

	return &Process{BaseProcess: base}, nil
}
