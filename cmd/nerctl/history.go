package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var undoCmd = &cobra.Command{
	Use:   "undo FILE",
	Short: "Revert the most recent extraction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return step(cmd.Context(), args[0], "Undid")
	},
}

var redoCmd = &cobra.Command{
	Use:   "redo FILE",
	Short: "Re-apply the most recently undone extraction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return step(cmd.Context(), args[0], "Redid")
	},
}

var historyCmd = &cobra.Command{
	Use:   "history FILE",
	Short: "List the recorded extractions of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer ws.Close()

		entries := ws.ledger.Entries()
		if len(entries) == 0 {
			fmt.Println("No history.")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SEQ\tSTATE\tCREATED\tDESCRIPTION")
		for _, e := range entries {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.Seq, e.State, e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Description)
		}
		return tw.Flush()
	},
}

func step(ctx context.Context, path, verb string) error {
	ws, err := openWorkspace(ctx, path)
	if err != nil {
		return err
	}
	defer ws.Close()

	entry, err := ws.step(ctx, verb == "Undid")
	if err != nil {
		return err
	}
	fmt.Printf("%s #%d %s\n", verb, entry.Seq, entry.Description)
	return nil
}
