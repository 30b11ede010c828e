package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zjrosen/clilm/internal/history"
)

var historyLimitFlag int

var (
	historyGUIDStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	historyErrStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded LM invocations",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded invocations, newest first",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <guid>",
	Short: "Show one invocation in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded invocations",
	RunE:  runHistoryClear,
}

func init() {
	historyListCmd.Flags().IntVar(&historyLimitFlag, "limit", 20, "maximum entries to show (0 for all)")
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

// openStore opens the history database at the configured path.
func openStore() (*history.DB, *history.Store, error) {
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, nil, err
	}
	db, err := history.NewDB(path)
	if err != nil {
		return nil, nil, err
	}
	return db, db.Store(), nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	db, store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	entries, err := store.List(historyLimitFlag)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No invocations recorded.")
		return nil
	}

	for _, e := range entries {
		status := "ok"
		if e.Err != "" {
			status = historyErrStyle.Render("error")
		}
		fmt.Fprintf(out, "%s  %-8s %-12s %6s  %s  %s\n",
			e.Created.Format(time.DateTime),
			e.Provider,
			valueOr(e.Model, "-"),
			e.Duration.Round(time.Millisecond),
			status,
			historyGUIDStyle.Render(e.GUID),
		)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	db, store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	entry, err := store.FindByGUID(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "GUID:     %s\n", entry.GUID)
	fmt.Fprintf(out, "Provider: %s\n", entry.Provider)
	if entry.Model != "" {
		fmt.Fprintf(out, "Model:    %s\n", entry.Model)
	}
	fmt.Fprintf(out, "When:     %s\n", entry.Created.Format(time.RFC1123))
	fmt.Fprintf(out, "Duration: %s\n", entry.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "\nPrompt:\n%s\n", indent(entry.Prompt))

	if entry.Err != "" {
		fmt.Fprintf(out, "\nError:\n%s\n", indent(entry.Err))
	}
	if entry.Response != nil {
		for _, choice := range entry.Response.Choices {
			fmt.Fprintf(out, "\nCompletion %d:\n%s\n", choice.Index+1, indent(choice.Message.Content))
		}
		if entry.Response.TotalCostUSD > 0 {
			fmt.Fprintf(out, "\nCost: $%.4f\n", entry.Response.TotalCostUSD)
		}
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	db, store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
	return nil
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
