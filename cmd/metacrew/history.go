package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jllopis/metacrew/pkg/store"
)

var historyFilter store.Filter

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded collaboration results, newest first",
	Long: `List recorded collaboration results, newest first. Results persist
across runs only with the sqlite store, for example:

  metacrew --set store.driver=sqlite --set store.dsn=file:metacrew.db history`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historyFilter.TaskName, "task", "", "only results for this task")
	f.StringVar(&historyFilter.Status, "status", "", "only results with this status (success, error)")
	f.IntVar(&historyFilter.Limit, "limit", 20, "maximum number of results")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rs, closeStore, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return NewStoreError(err, cfg.Store.Driver)
	}
	defer func() { _ = closeStore() }()

	records, err := rs.List(ctx, historyFilter)
	if err != nil {
		return NewStoreError(err, cfg.Store.Driver)
	}
	if global.JSON {
		printJSON(cmd.OutOrStdout(), records)
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tTASK\tMODE\tSTATUS\tIMPROVEMENT\tSCORE\tERROR")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f%%\t%.2f\t%s\n",
			rec.StartedAt.Format(time.RFC3339),
			rec.TaskName,
			rec.Mode,
			rec.Status,
			rec.ImprovementPct,
			rec.CollaborationScore,
			rec.ErrorCode,
		)
	}
	return tw.Flush()
}
