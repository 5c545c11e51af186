package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/scholargraph/internal/client"
	"github.com/matsen/scholargraph/internal/graph"
)

var (
	searchLimit     int
	searchYearStart int
	searchYearEnd   int
	searchFields    []string
	searchNatural   bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search papers and replace the current graph",
	Long: `Search the backend and install the result as the current graph.

The previous graph is replaced and every overlay computed against it
(selection, highlights, analyses, conceptual edges, chat) is reset.
Visibility and effect toggles persist.

With --natural the query is a free-form question that the backend turns
into search parameters. The configured LLM key is forwarded when the
provider is groq; otherwise the backend falls back to a keyword search.
Year and field filters do not apply to natural searches.`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", DefaultSearchLimit, "Maximum papers to return")
	searchCmd.Flags().IntVar(&searchYearStart, "year-start", 0, "Earliest publication year")
	searchCmd.Flags().IntVar(&searchYearEnd, "year-end", 0, "Latest publication year")
	searchCmd.Flags().StringSliceVar(&searchFields, "field", nil, "Restrict to fields of study (repeatable)")
	searchCmd.Flags().BoolVar(&searchNatural, "natural", false, "Treat the query as a natural-language question")
	searchCmd.MarkFlagsMutuallyExclusive("natural", "year-start")
	searchCmd.MarkFlagsMutuallyExclusive("natural", "year-end")
	searchCmd.MarkFlagsMutuallyExclusive("natural", "field")
	rootCmd.AddCommand(searchCmd)
}

// GraphSummary summarizes a graph after a command changed it.
type GraphSummary struct {
	Query    string `json:"query,omitempty"`
	Nodes    int    `json:"nodes"`
	Edges    int    `json:"edges"`
	Clusters int    `json:"clusters"`
}

func summarize(g *graph.GraphData) GraphSummary {
	if g == nil {
		return GraphSummary{}
	}
	return GraphSummary{
		Query:    g.Meta.Query,
		Nodes:    len(g.Nodes),
		Edges:    len(g.Edges),
		Clusters: len(g.Clusters),
	}
}

func runSearch(cmd *cobra.Command, args []string) {
	a := mustOpenApp(false)
	ctx, cancel := commandContext()
	defer cancel()

	query := strings.Join(args, " ")
	var g *graph.GraphData
	var err error
	if searchNatural {
		g, err = a.session.NaturalSearch(ctx, query, searchLimit)
	} else {
		g, err = a.session.Search(ctx, query, client.SearchOptions{
			Limit:         searchLimit,
			YearStart:     searchYearStart,
			YearEnd:       searchYearEnd,
			FieldsOfStudy: searchFields,
		})
	}
	if err != nil {
		a.fail("search", err)
	}
	a.close()

	if humanOutput {
		printGraphHuman(g)
		return
	}
	outputJSON(summarize(g))
}

// printGraphHuman prints a cluster table followed by the most cited papers.
func printGraphHuman(g *graph.GraphData) {
	s := summarize(g)
	fmt.Printf("%s %d papers, %d edges, %d clusters\n",
		headingStyle.Sprintf("%q:", s.Query), s.Nodes, s.Edges, s.Clusters)
	if len(g.Clusters) == 0 {
		return
	}
	fmt.Println()
	table := newTable("ID", "Label", "Papers")
	for _, c := range g.Clusters {
		table.Append(fmt.Sprint(c.ID), truncateString(c.Label, LabelMaxLen), fmt.Sprint(c.PaperCount))
	}
	table.Render()
}
