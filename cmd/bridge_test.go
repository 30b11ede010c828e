package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBridgeCommand builds a detached command with captured streams so
// bridge can run without touching the process's stdio.
func newBridgeCommand(stdin string) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	return cmd, &out, &errOut
}

// stubCLI installs a shell script as the only binary on PATH.
func stubCLI(t *testing.T, name, script string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, name), []byte("#!/bin/sh\n"+script+"\n"), 0755))
	t.Setenv("PATH", dir)
}

func resetBridgeFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		bridgeJSON = false
		bridgeModel = ""
	})
}

func TestBridge_EmptyPromptExitCode(t *testing.T) {
	cmd, _, errOut := newBridgeCommand("   \n")

	code := bridge(cmd, "claude")

	assert.Equal(t, exitEmptyPrompt, code)
	assert.Contains(t, errOut.String(), "empty prompt")
}

func TestBridge_MissingBinaryExitCode(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	cmd, _, errOut := newBridgeCommand("hello")

	code := bridge(cmd, "claude")

	assert.Equal(t, exitMissingBinary, code)
	assert.Contains(t, errOut.String(), "claude not found on PATH")
}

func TestBridge_PropagatesCLIExitCode(t *testing.T) {
	stubCLI(t, "claude", "exit 7")
	cmd, _, errOut := newBridgeCommand("hello")

	code := bridge(cmd, "claude")

	assert.Equal(t, 7, code)
	assert.Contains(t, errOut.String(), "Error:")
}

func TestBridge_ClaudeResultExtracted(t *testing.T) {
	stubCLI(t, "claude", `echo '{"result":"the answer"}'`)
	cmd, out, _ := newBridgeCommand("hello")

	code := bridge(cmd, "claude")

	assert.Equal(t, 0, code)
	assert.Equal(t, "the answer\n", out.String())
}

func TestBridge_ClaudeRawFallback(t *testing.T) {
	stubCLI(t, "claude", `echo "plain text response"`)
	cmd, out, _ := newBridgeCommand("hello")

	code := bridge(cmd, "claude")

	assert.Equal(t, 0, code)
	assert.Equal(t, "plain text response\n", out.String())
}

func TestBridge_ModelFlagPassedThrough(t *testing.T) {
	resetBridgeFlags(t)
	bridgeModel = "sonnet"
	stubCLI(t, "claude", `printf '{"result":"args: %s"}\n' "$*"`)
	cmd, out, _ := newBridgeCommand("hello")

	code := bridge(cmd, "claude")

	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "--model sonnet")
}

func TestBridge_JSONModeEmitsEventLine(t *testing.T) {
	resetBridgeFlags(t)
	bridgeJSON = true
	stubCLI(t, "claude", `echo '{"result":"wrapped"}'`)
	cmd, out, _ := newBridgeCommand("hello")

	code := bridge(cmd, "claude")
	require.Equal(t, 0, code)

	var event struct {
		Type string `json:"type"`
		Item struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"item"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &event))
	assert.Equal(t, "item.completed", event.Type)
	assert.Equal(t, "agent_message", event.Item.Type)
	assert.Equal(t, "wrapped", event.Item.Text)
}

func TestBridge_CodexLastAgentMessageWins(t *testing.T) {
	stubCLI(t, "codex", strings.Join([]string{
		`echo '{"type":"thread.started","thread_id":"th_1"}'`,
		`echo 'not json at all'`,
		`echo '{"type":"item.completed","item":{"type":"agent_message","text":"first"}}'`,
		`echo '{"type":"item.completed","item":{"type":"agent_message","text":"second"}}'`,
	}, "\n"))
	cmd, out, _ := newBridgeCommand("hello")

	code := bridge(cmd, "codex")

	assert.Equal(t, 0, code)
	assert.Equal(t, "second\n", out.String())
}

func TestBridge_CodexRawFallback(t *testing.T) {
	stubCLI(t, "codex", `echo "no structured events here"`)
	cmd, out, _ := newBridgeCommand("hello")

	code := bridge(cmd, "codex")

	assert.Equal(t, 0, code)
	assert.Equal(t, "no structured events here\n", out.String())
}

func TestBridgeExitCode_NonExitError(t *testing.T) {
	assert.Equal(t, 1, bridgeExitCode(errors.New("something else")))
}
