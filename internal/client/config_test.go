package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEnvVars_InheritsParentEnv(t *testing.T) {
	t.Setenv("CLILM_PARENT_VAR", "inherited")

	env := BuildEnvVars(Config{})
	assert.Contains(t, env, "CLILM_PARENT_VAR=inherited")
}

func TestBuildEnvVars_UserEnvSorted(t *testing.T) {
	env := BuildEnvVars(Config{
		Env: map[string]string{
			"ZEBRA": "z",
			"ALPHA": "a",
			"MIKE":  "m",
		},
	})

	var zebraIdx, alphaIdx, mikeIdx int
	for i, kv := range env {
		switch kv {
		case "ALPHA=a":
			alphaIdx = i
		case "MIKE=m":
			mikeIdx = i
		case "ZEBRA=z":
			zebraIdx = i
		}
	}
	require.NotZero(t, alphaIdx)
	assert.Less(t, alphaIdx, mikeIdx)
	assert.Less(t, mikeIdx, zebraIdx)
}

func TestBuildEnvVars_GenerationCoordinates(t *testing.T) {
	env := BuildEnvVars(Config{GenerationIndex: 2, GenerationTotal: 5})
	assert.Contains(t, env, "CLI_GENERATION_INDEX=2")
	assert.Contains(t, env, "CLI_TOTAL_GENERATIONS=5")
}

func TestBuildEnvVars_NoCoordinatesForSingleShot(t *testing.T) {
	env := BuildEnvVars(Config{})
	for _, kv := range env {
		assert.NotContains(t, kv, EnvGenerationIndex)
		assert.NotContains(t, kv, EnvTotalGenerations)
	}
}

func TestConfig_SetExtension_AllocatesMap(t *testing.T) {
	var cfg Config
	require.Nil(t, cfg.Extensions)

	cfg.SetExtension(ExtClaudeModel, "opus")
	assert.Equal(t, "opus", cfg.Extensions[ExtClaudeModel])
}

func TestConfig_ExtensionAccessors(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		check func(t *testing.T, cfg Config)
	}{
		{
			name: "claude model default",
			cfg:  Config{},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "sonnet", cfg.ClaudeModel())
			},
		},
		{
			name: "claude model override",
			cfg:  Config{Extensions: map[string]any{ExtClaudeModel: "opus"}},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "opus", cfg.ClaudeModel())
			},
		},
		{
			name: "codex model default",
			cfg:  Config{},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "gpt-5-codex", cfg.CodexModel())
			},
		},
		{
			name: "codex sandbox default",
			cfg:  Config{},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "read-only", cfg.CodexSandbox())
			},
		},
		{
			name: "codex approvals default",
			cfg:  Config{},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "never", cfg.CodexApprovals())
			},
		},
		{
			name: "empty string extension falls back",
			cfg:  Config{Extensions: map[string]any{ExtCodexModel: ""}},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "gpt-5-codex", cfg.CodexModel())
			},
		},
		{
			name: "mistyped extension falls back",
			cfg:  Config{Extensions: map[string]any{ExtClaudeModel: 42}},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "sonnet", cfg.ClaudeModel())
			},
		},
		{
			name: "skip git check bool",
			cfg:  Config{Extensions: map[string]any{ExtCodexSkipGitCheck: true}},
			check: func(t *testing.T, cfg Config) {
				assert.True(t, cfg.CodexSkipGitCheck())
			},
		},
		{
			name: "skip git check default false",
			cfg:  Config{},
			check: func(t *testing.T, cfg Config) {
				assert.False(t, cfg.CodexSkipGitCheck())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, tt.cfg)
		})
	}
}

func TestConfig_TimeoutZeroMeansNoLimit(t *testing.T) {
	var cfg Config
	assert.Equal(t, time.Duration(0), cfg.Timeout)
}
