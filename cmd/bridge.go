package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/clilm/internal/client"
	"github.com/zjrosen/clilm/internal/log"
)

// Bridge exit codes. Distinct from normal failures so callers can tell
// a usage error from a missing binary.
const (
	exitEmptyPrompt   = 2
	exitMissingBinary = 127
)

var (
	bridgeJSON  bool
	bridgeModel string
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge <claude|codex>",
	Short: "Adapt a coding-agent CLI to the stdin-prompt protocol",
	Long: `Read a prompt from stdin, run it through the named CLI, and print
the response text on stdout.

With --json the response is emitted as a normalized event line:

  {"type":"item.completed","item":{"type":"agent_message","text":"..."}}

which the command provider understands. This lets claude or codex be
driven through any harness that only knows the stdin protocol.

Exit codes: 2 for an empty prompt, 127 when the CLI binary is missing;
otherwise the CLI's own exit code is propagated.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"claude", "codex"},
	Run:       runBridge,
}

func init() {
	bridgeCmd.Flags().BoolVar(&bridgeJSON, "json", false, "emit a normalized event line instead of plain text")
	bridgeCmd.Flags().StringVar(&bridgeModel, "bridge-model", "", "model flag passed to the underlying CLI")
	rootCmd.AddCommand(bridgeCmd)
}

func runBridge(cmd *cobra.Command, args []string) {
	if code := bridge(cmd, args[0]); code != 0 {
		os.Exit(code)
	}
}

// bridge runs the target CLI against the stdin prompt and returns the
// process exit code.
func bridge(cmd *cobra.Command, target string) int {
	errOut := cmd.ErrOrStderr()

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		fmt.Fprintf(errOut, "Error: reading prompt: %v\n", err)
		return 1
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		fmt.Fprintln(errOut, "Error: empty prompt")
		return exitEmptyPrompt
	}

	path, err := client.NewExecutableFinder(target).Find()
	if err != nil {
		fmt.Fprintf(errOut, "Error: %s not found on PATH\n", target)
		return exitMissingBinary
	}

	var text string
	switch target {
	case "claude":
		text, err = runClaudeBridge(cmd, path, prompt)
	case "codex":
		text, err = runCodexBridge(cmd, path, prompt)
	default:
		fmt.Fprintf(errOut, "Error: unknown bridge target %q\n", target)
		return 1
	}
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return bridgeExitCode(err)
	}

	out := cmd.OutOrStdout()
	if bridgeJSON {
		line, err := json.Marshal(map[string]any{
			"type": "item.completed",
			"item": map[string]any{"type": "agent_message", "text": text},
		})
		if err != nil {
			fmt.Fprintf(errOut, "Error: encoding event: %v\n", err)
			return 1
		}
		fmt.Fprintln(out, string(line))
		return 0
	}
	fmt.Fprintln(out, text)
	return 0
}

// runClaudeBridge invokes claude in print mode with JSON output and
// extracts the response text.
func runClaudeBridge(cmd *cobra.Command, path, prompt string) (string, error) {
	args := []string{"-p", "--output-format", "json"}
	if bridgeModel != "" {
		args = append(args, "--model", bridgeModel)
	}
	args = append(args, prompt)

	stdout, err := runBridgeCommand(cmd, path, args)
	if err != nil {
		return "", err
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		// Not JSON after all; fall back to the raw output.
		return strings.TrimSpace(stdout), nil
	}
	for _, key := range []string{"result", "output", "text"} {
		if v, ok := payload[key].(string); ok && v != "" {
			return strings.TrimSpace(v), nil
		}
	}
	return strings.TrimSpace(stdout), nil
}

// runCodexBridge invokes codex exec with JSONL output and extracts the
// last agent message.
func runCodexBridge(cmd *cobra.Command, path, prompt string) (string, error) {
	args := []string{"exec", "--json"}
	if bridgeModel != "" {
		args = append(args, "-m", bridgeModel)
	}
	args = append(args, prompt)

	stdout, err := runBridgeCommand(cmd, path, args)
	if err != nil {
		return "", err
	}

	var last string
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var event struct {
			Type string `json:"type"`
			Item struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"item"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		if event.Type == "item.completed" && event.Item.Type == "agent_message" {
			last = event.Item.Text
		}
	}
	if last == "" {
		// No structured message; the raw stream is better than nothing.
		return strings.TrimSpace(stdout), nil
	}
	return strings.TrimSpace(last), nil
}

// runBridgeCommand executes the CLI, passing stderr through.
func runBridgeCommand(cmd *cobra.Command, path string, args []string) (string, error) {
	log.Debug(log.CatCmd, "bridge exec", "path", path, "args", args)

	c := exec.CommandContext(cmd.Context(), path, args...)
	c.Stderr = cmd.ErrOrStderr()
	out, err := c.Output()
	if err != nil {
		return "", fmt.Errorf("running %s: %w", path, err)
	}
	return string(out), nil
}

// bridgeExitCode propagates the CLI's own exit code when it failed.
func bridgeExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return exitErr.ExitCode()
	}
	return 1
}
