package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var showSources bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question and exit",
	Long: `Build the index from the tracker database, answer one question and print
the answer. With --sources the retrieved records are printed after the answer
together with their similarity scores.

Examples:
  projectrag ask "Who owns Project Alpha?"
  projectrag ask "Which tasks are still open?" --sources`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&showSources, "sources", false, "Print the retrieved records with their scores")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, resolveEnv())
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.chat.Respond(ctx, strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("answer question: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, resp.Text)
	if showSources {
		fmt.Fprintf(out, "\nSources (index %s):\n", resp.IndexID)
		for i, h := range resp.Sources {
			fmt.Fprintf(out, "  %d. [%s #%d] %.3f  %s\n", i+1, h.Document.Type(), h.Document.ID(), h.Score, h.Document.Text())
		}
	}
	return nil
}
