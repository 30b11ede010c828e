package lm_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/clilm/internal/client"
	"github.com/zjrosen/clilm/internal/lm"

	_ "github.com/zjrosen/clilm/internal/client/providers/command"
)

// eventLine is a minimal agent_message event in the normalized JSONL
// protocol the command provider parses.
const eventLine = `{"type":"item.completed","item":{"type":"agent_message","text":"hello from stub"}}`

// stubCommand returns an argv that prints the given shell script's output.
func stubCommand(script string) []string {
	return []string{"sh", "-c", script}
}

func newLM(t *testing.T, opts lm.Options) *lm.LM {
	t.Helper()
	model, err := lm.New(client.ClientCommand, opts)
	require.NoError(t, err)
	return model
}

func TestNew_CommandRequiresArgv(t *testing.T) {
	_, err := lm.New(client.ClientCommand, lm.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-empty command")
}

func TestGenerate_StructuredEvent(t *testing.T) {
	model := newLM(t, lm.Options{
		Command: stubCommand("echo '" + eventLine + "'"),
	})

	resp, err := model.Generate(context.Background(), lm.Request{Prompt: "hi"})
	require.NoError(t, err)

	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "hello from stub", resp.Choices[0].Message.Content)
	assert.Equal(t, "assistant", resp.Choices[0].Message.Role)
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)
	assert.Equal(t, 0, resp.Choices[0].Index)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "command", resp.Provider)
	assert.NotZero(t, resp.Created)
}

func TestGenerate_RawStdoutFallback(t *testing.T) {
	// CLIs that know nothing of the event protocol still work: their
	// raw stdout becomes the completion.
	model := newLM(t, lm.Options{
		Command: stubCommand("echo 'plain text output'"),
	})

	resp, err := model.Generate(context.Background(), lm.Request{Prompt: "hi"})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "plain text output", resp.Choices[0].Message.Content)
}

func TestGenerate_MultipleGenerations(t *testing.T) {
	// The stub varies its output by the generation coordinates exported
	// to every spawn.
	script := `printf '{"type":"item.completed","item":{"type":"agent_message","text":"gen %s of %s"}}\n' "$CLI_GENERATION_INDEX" "$CLI_TOTAL_GENERATIONS"`
	model := newLM(t, lm.Options{Command: stubCommand(script)})

	resp, err := model.Generate(context.Background(), lm.Request{Prompt: "hi", N: 3})
	require.NoError(t, err)

	require.Len(t, resp.Choices, 3)
	assert.Equal(t, []string{"gen 0 of 3", "gen 1 of 3", "gen 2 of 3"}, resp.Outputs())
	for i, choice := range resp.Choices {
		assert.Equal(t, i, choice.Index)
	}
}

func TestGenerate_PromptOnStdin(t *testing.T) {
	// Newlines in the flattened prompt are collapsed so the stub can
	// echo it back inside a single JSON line.
	script := `text=$(cat | tr '\n' ' '); printf '{"type":"item.completed","item":{"type":"agent_message","text":"got: %s"}}\n' "$text"`
	model := newLM(t, lm.Options{Command: stubCommand(script)})

	resp, err := model.Generate(context.Background(), lm.Request{Prompt: "the prompt"})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "got: USER: the prompt", resp.Choices[0].Message.Content)
}

func TestGenerate_EmptyRequest(t *testing.T) {
	model := newLM(t, lm.Options{Command: stubCommand("echo hi")})

	_, err := model.Generate(context.Background(), lm.Request{})
	require.Error(t, err)

	var cliErr *lm.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Contains(t, cliErr.Message, "no prompt or messages provided")
}

func TestGenerate_ExitError(t *testing.T) {
	model := newLM(t, lm.Options{
		Command: stubCommand("echo 'some output'; echo 'boom' >&2; exit 3"),
	})

	_, err := model.Generate(context.Background(), lm.Request{Prompt: "hi"})
	require.Error(t, err)

	var cliErr *lm.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Contains(t, cliErr.Message, "exited with status 3")
	assert.Contains(t, cliErr.Stdout, "some output")
	assert.Contains(t, cliErr.Stderr, "boom")
}

func TestGenerate_MissingBinary(t *testing.T) {
	model := newLM(t, lm.Options{
		Command: []string{"clilm-test-binary-that-does-not-exist"},
	})

	_, err := model.Generate(context.Background(), lm.Request{Prompt: "hi"})
	require.Error(t, err)

	var cliErr *lm.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Contains(t, cliErr.Message, "CLI command not found")
	assert.Contains(t, cliErr.Message, "clilm-test-binary-that-does-not-exist")
	require.ErrorIs(t, err, client.ErrExecutableNotFound)
}

func TestGenerate_Timeout(t *testing.T) {
	model := newLM(t, lm.Options{
		Command: stubCommand("sleep 10"),
		Timeout: 100 * time.Millisecond,
	})

	start := time.Now()
	_, err := model.Generate(context.Background(), lm.Request{Prompt: "hi"})
	require.Error(t, err)
	require.Less(t, time.Since(start), 5*time.Second)

	var cliErr *lm.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Contains(t, cliErr.Message, "timed out after")
}

func TestGenerate_CacheHit(t *testing.T) {
	// Each spawn appends to a counter file; a cache hit must not spawn.
	counter := filepath.Join(t.TempDir(), "count")
	script := "echo run >> " + counter + "; echo '" + eventLine + "'"

	model := newLM(t, lm.Options{
		Command:  stubCommand(script),
		CacheTTL: time.Minute,
	})

	for i := 0; i < 3; i++ {
		resp, err := model.Generate(context.Background(), lm.Request{Prompt: "same prompt"})
		require.NoError(t, err)
		assert.Equal(t, "hello from stub", resp.Choices[0].Message.Content)
	}

	data, err := os.ReadFile(counter)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "run"), "cached requests must not spawn")
}

func TestGenerate_CacheMissOnDifferentPrompt(t *testing.T) {
	counter := filepath.Join(t.TempDir(), "count")
	script := "echo run >> " + counter + "; echo '" + eventLine + "'"

	model := newLM(t, lm.Options{
		Command:  stubCommand(script),
		CacheTTL: time.Minute,
	})

	_, err := model.Generate(context.Background(), lm.Request{Prompt: "one"})
	require.NoError(t, err)
	_, err = model.Generate(context.Background(), lm.Request{Prompt: "two"})
	require.NoError(t, err)

	data, err := os.ReadFile(counter)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "run"))
}

func TestGenerate_EnvOverlay(t *testing.T) {
	script := `printf '{"type":"item.completed","item":{"type":"agent_message","text":"%s"}}\n' "$CLILM_TEST_VALUE"`
	model := newLM(t, lm.Options{
		Command: stubCommand(script),
		Env:     map[string]string{"CLILM_TEST_VALUE": "from options"},
	})

	resp, err := model.Generate(context.Background(), lm.Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "from options", resp.Choices[0].Message.Content)

	// Request env overrides the configured env for that call.
	resp, err = model.Generate(context.Background(), lm.Request{
		Prompt: "hi again",
		Env:    map[string]string{"CLILM_TEST_VALUE": "from request"},
	})
	require.NoError(t, err)
	assert.Equal(t, "from request", resp.Choices[0].Message.Content)
}

// memRecorder collects entries in memory.
type memRecorder struct {
	entries []lm.HistoryEntry
}

func (r *memRecorder) Record(entry lm.HistoryEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func TestGenerate_RecordsHistory(t *testing.T) {
	rec := &memRecorder{}
	model := newLM(t, lm.Options{
		Command:  stubCommand("echo '" + eventLine + "'"),
		Recorder: rec,
	})

	_, err := model.Generate(context.Background(), lm.Request{Prompt: "hi"})
	require.NoError(t, err)

	require.Len(t, rec.entries, 1)
	entry := rec.entries[0]
	assert.NotEmpty(t, entry.GUID)
	assert.Equal(t, "command", entry.Provider)
	assert.Equal(t, "USER:\nhi", entry.Prompt)
	assert.Empty(t, entry.Err)
	require.NotNil(t, entry.Response)
	assert.Equal(t, "hello from stub", entry.Response.Choices[0].Message.Content)

	history := model.History()
	require.Len(t, history, 1)
	assert.Equal(t, entry.GUID, history[0].GUID)

	model.ClearHistory()
	assert.Empty(t, model.History())
}

func TestGenerate_RecordsFailures(t *testing.T) {
	rec := &memRecorder{}
	model := newLM(t, lm.Options{
		Command:  stubCommand("exit 1"),
		Recorder: rec,
	})

	_, err := model.Generate(context.Background(), lm.Request{Prompt: "hi"})
	require.Error(t, err)

	require.Len(t, rec.entries, 1)
	assert.NotEmpty(t, rec.entries[0].Err)
	assert.Nil(t, rec.entries[0].Response)
}
