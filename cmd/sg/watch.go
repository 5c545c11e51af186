package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/scholargraph/internal/analysis"
)

var (
	watchNotify    bool
	watchYearStart int
	watchFields    []string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Manage saved searches the backend re-runs periodically",
}

var watchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List watch queries",
	Args:  cobra.NoArgs,
	Run:   runWatchList,
}

var watchAddCmd = &cobra.Command{
	Use:   "add <query>",
	Short: "Create a watch query",
	Args:  cobra.MinimumNArgs(1),
	Run:   runWatchAdd,
}

var watchCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Re-run every watch query now",
	Args:  cobra.NoArgs,
	Run:   runWatchCheck,
}

var watchRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a watch query",
	Args:  cobra.ExactArgs(1),
	Run:   runWatchRm,
}

func init() {
	watchAddCmd.Flags().BoolVar(&watchNotify, "notify", false, "Send an email when new papers appear")
	watchAddCmd.Flags().IntVar(&watchYearStart, "year-start", 0, "Earliest publication year")
	watchAddCmd.Flags().StringSliceVar(&watchFields, "field", nil, "Restrict to fields of study (repeatable)")
	watchCmd.AddCommand(watchListCmd)
	watchCmd.AddCommand(watchAddCmd)
	watchCmd.AddCommand(watchRmCmd)
	watchCmd.AddCommand(watchCheckCmd)
	rootCmd.AddCommand(watchCmd)
}

// WatchListResponse lists watch queries.
type WatchListResponse struct {
	Queries []analysis.WatchQuery `json:"queries"`
	Count   int                   `json:"count"`
}

func runWatchList(cmd *cobra.Command, args []string) {
	a := mustOpenApp(false)
	ctx, cancel := commandContext()
	defer cancel()

	qs, err := a.session.RefreshWatchQueries(ctx)
	if err != nil {
		a.fail("list watch queries", err)
	}
	a.close()

	if qs == nil {
		qs = []analysis.WatchQuery{}
	}
	if !humanOutput {
		outputJSON(WatchListResponse{Queries: qs, Count: len(qs)})
		return
	}
	if len(qs) == 0 {
		fmt.Println("No watch queries")
		return
	}
	table := newTable("ID", "Query", "New", "Last checked")
	for _, q := range qs {
		checked := "never"
		if q.LastChecked != nil {
			checked = q.LastChecked.Local().Format("2006-01-02 15:04")
		}
		newCount := fmt.Sprint(q.NewPaperCount)
		if q.NewPaperCount > 0 {
			newCount = goodStyle.Sprint(newCount)
		}
		table.Append(q.ID, truncateString(q.Query, TitleMaxLen), newCount, checked)
	}
	table.Render()
}

func runWatchAdd(cmd *cobra.Command, args []string) {
	a := mustOpenApp(false)
	ctx, cancel := commandContext()
	defer cancel()

	var filters map[string]any
	if watchYearStart > 0 || len(watchFields) > 0 {
		filters = make(map[string]any)
		if watchYearStart > 0 {
			filters["year_start"] = watchYearStart
		}
		if len(watchFields) > 0 {
			filters["fields_of_study"] = watchFields
		}
	}

	wq, err := a.session.CreateWatchQuery(ctx, strings.Join(args, " "), filters, watchNotify)
	if err != nil {
		a.fail("create watch query", err)
	}
	a.close()

	if humanOutput {
		fmt.Printf("Watching %q as %s\n", wq.Query, wq.ID)
		return
	}
	outputJSON(wq)
}

func runWatchCheck(cmd *cobra.Command, args []string) {
	a := mustOpenApp(false)
	ctx, cancel := commandContext()
	defer cancel()

	res, err := a.session.CheckWatchQueries(ctx)
	if err != nil {
		a.fail("check watch queries", err)
	}
	a.close()

	if humanOutput {
		found := fmt.Sprint(res.NewPapersFound)
		if res.NewPapersFound > 0 {
			found = goodStyle.Sprint(found)
		}
		fmt.Printf("Checked %d queries: %s new papers, %d emails sent\n", res.TotalQueries, found, res.EmailsSent)
		return
	}
	outputJSON(res)
}

func runWatchRm(cmd *cobra.Command, args []string) {
	a := mustOpenApp(false)
	ctx, cancel := commandContext()
	defer cancel()

	if err := a.session.DeleteWatchQuery(ctx, args[0]); err != nil {
		a.fail("delete watch query", err)
	}
	a.close()

	if humanOutput {
		fmt.Printf("Deleted watch query %s\n", args[0])
		return
	}
	outputJSON(StatusResponse{Status: "deleted", ID: args[0]})
}
