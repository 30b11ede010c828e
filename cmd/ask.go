package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/zjrosen/clilm/internal/adapter"
	"github.com/zjrosen/clilm/internal/client"
	"github.com/zjrosen/clilm/internal/history"
	"github.com/zjrosen/clilm/internal/lm"
	"github.com/zjrosen/clilm/internal/telemetry"
)

var (
	askSignature string
	askInputs    []string
	askN         int
	askSession   string
	askSystem    string
	askPlain     bool
	askNoCache   bool
	askSkipPerms bool
)

var choiceHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("12"))

var askCmd = &cobra.Command{
	Use:   "ask [prompt]",
	Short: "Run a prompt through the configured CLI backend",
	Long: `Send a prompt to the configured CLI backend and print the response.

With --signature, the prompt is structured through field markers:

  clilm ask --signature "question -> answer" --input question="What is 2+2?"

Without a prompt argument, the prompt is read from stdin.`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askSignature, "signature", "", `structured signature, e.g. "question -> answer"`)
	askCmd.Flags().StringArrayVar(&askInputs, "input", nil, "signature input as name=value (repeatable)")
	askCmd.Flags().IntVarP(&askN, "generations", "n", 0, "number of completions (default from config)")
	askCmd.Flags().StringVar(&askSession, "session", "", "resume the given provider session")
	askCmd.Flags().StringVar(&askSystem, "system", "", "system prompt")
	askCmd.Flags().BoolVar(&askPlain, "plain", false, "print raw text without markdown rendering")
	askCmd.Flags().BoolVar(&askNoCache, "no-cache", false, "bypass the response cache")
	askCmd.Flags().BoolVar(&askSkipPerms, "skip-permissions", false, "skip the CLI's permission prompts")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	shutdown, err := telemetry.Init(ctx, cfg.Telemetry, Version)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(ctx) }()

	model, closeHistory, err := buildLM()
	if err != nil {
		return err
	}
	defer closeHistory()

	n := askN
	if n == 0 {
		n = cfg.Generations
	}

	if askSignature != "" {
		return runStructured(cmd, model, n)
	}

	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading prompt from stdin: %w", err)
		}
		prompt = strings.TrimSpace(string(data))
	}
	if prompt == "" {
		return fmt.Errorf("no prompt provided")
	}

	req := lm.Request{Prompt: prompt, N: n, SessionID: askSession}
	if askSystem != "" {
		req = lm.Request{
			Messages: []lm.Message{
				{Role: "system", Content: askSystem},
				{Role: "user", Content: prompt},
			},
			N:         n,
			SessionID: askSession,
		}
	}

	resp, err := model.Generate(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, choice := range resp.Choices {
		if len(resp.Choices) > 1 {
			fmt.Fprintln(out, choiceHeaderStyle.Render(fmt.Sprintf("── completion %d ──", choice.Index+1)))
		}
		fmt.Fprintln(out, renderText(choice.Message.Content))
	}
	if resp.SessionRef != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "session: %s\n", resp.SessionRef)
	}
	return nil
}

// runStructured drives the field-marker adapter path.
func runStructured(cmd *cobra.Command, model *lm.LM, n int) error {
	predictor, err := adapter.NewPredictor(askSignature, model)
	if err != nil {
		return err
	}

	inputs := make(map[string]string, len(askInputs))
	for _, raw := range askInputs {
		name, value, found := strings.Cut(raw, "=")
		if !found {
			return fmt.Errorf("invalid --input %q (want name=value)", raw)
		}
		inputs[name] = value
	}

	results, err := predictor.Predict(cmd.Context(), inputs, n)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, outputs := range results {
		if len(results) > 1 {
			fmt.Fprintln(out, choiceHeaderStyle.Render(fmt.Sprintf("── completion %d ──", i+1)))
		}
		for _, name := range predictor.Signature().OutputNames() {
			if len(predictor.Signature().Outputs) > 1 {
				fmt.Fprintf(out, "%s:\n", name)
			}
			fmt.Fprintln(out, renderText(outputs[name]))
		}
	}
	return nil
}

// buildLM assembles the LM from config, wiring the history store when
// enabled. The returned closer releases the store's database.
func buildLM() (*lm.LM, func(), error) {
	opts := lm.Options{
		Command:           cfg.Command,
		Model:             cfg.Model,
		WorkDir:           cfg.WorkDir,
		Env:               cfg.Env,
		Timeout:           cfg.Timeout,
		SkipPermissions:   cfg.SkipPermissions || askSkipPerms,
		SplitSystemPrompt: cfg.SplitSystemPrompt,
	}
	if !askNoCache {
		opts.CacheTTL = cfg.CacheTTL()
	}

	closer := func() {}
	if cfg.History.Enabled {
		path, err := cfg.HistoryPath()
		if err != nil {
			return nil, nil, err
		}
		db, err := history.NewDB(path)
		if err != nil {
			return nil, nil, err
		}
		opts.Recorder = db.Store()
		closer = func() { _ = db.Close() }
	}

	model, err := lm.New(client.ClientType(cfg.Provider), opts)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return model, closer, nil
}

// renderText renders markdown for terminals and passes text through
// otherwise.
func renderText(text string) string {
	if askPlain || !isatty.IsTerminal(os.Stdout.Fd()) {
		return text
	}
	rendered, err := glamour.Render(text, "auto")
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n")
}
