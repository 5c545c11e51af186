package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/scholargraph/internal/client"
	"github.com/matsen/scholargraph/internal/graph"
)

var expandLimit int

var expandCmd = &cobra.Command{
	Use:   "expand <paper-id>",
	Short: "Merge a paper's references and citations into the graph",
	Long: `Fetch the references and citing papers of a paper already in the graph
and merge them in. New papers are placed on rings around the parent and
inherit its cluster. Papers and edges already present are kept as they are,
including papers the graph knows under a different id.

--limit caps the references and the citations fetched (at most 100 each);
0 leaves the page size to the backend.`,
	Args: cobra.ExactArgs(1),
	Run:  runExpand,
}

func init() {
	expandCmd.Flags().IntVarP(&expandLimit, "limit", "n", 0, "Maximum references and citations to fetch (0 for backend default)")
	rootCmd.AddCommand(expandCmd)
}

// ExpandResponse reports what an expansion merged.
type ExpandResponse struct {
	PaperID string           `json:"paper_id"`
	Stats   graph.MergeStats `json:"stats"`
	Graph   GraphSummary     `json:"graph"`
}

func runExpand(cmd *cobra.Command, args []string) {
	if expandLimit < 0 || expandLimit > client.MaxExpandLimit {
		exitWithError(ExitError, "--limit must be between 0 and %d", client.MaxExpandLimit)
	}
	a := mustOpenApp(false)
	ctx, cancel := commandContext()
	defer cancel()

	stats, err := a.session.Expand(ctx, args[0], expandLimit)
	if err != nil {
		a.fail("expand", err)
	}
	a.close()

	resp := ExpandResponse{PaperID: args[0], Stats: stats, Graph: summarize(a.store.Graph())}
	if humanOutput {
		fmt.Printf("Expanded %s: %s papers, %s edges added",
			args[0],
			goodStyle.Sprintf("+%d", stats.NodesAdded),
			goodStyle.Sprintf("+%d", stats.EdgesAdded))
		if n := stats.Dropped(); n > 0 {
			fmt.Printf(" (%s)", warnStyle.Sprintf("%d dropped", n))
		}
		fmt.Printf("\nGraph now has %d papers and %d edges\n", resp.Graph.Nodes, resp.Graph.Edges)
		return
	}
	outputJSON(resp)
}
