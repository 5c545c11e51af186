package main

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matsen/scholargraph/internal/author"
	"github.com/matsen/scholargraph/internal/paper"
)

var (
	papersAuthors     []string
	papersCluster     int
	papersYearStart   int
	papersHighlighted bool
	papersLimit       int
)

var papersCmd = &cobra.Command{
	Use:   "papers",
	Short: "List papers in the current graph",
	Long: `List papers in the current graph, most cited first.

Author filters match the last name exactly and the first name by prefix,
so --author "Tim Yu" matches "Timothy C Yu" but --author Yu never matches
"Yujia Chan". Repeated --author flags must all match.`,
	Args: cobra.NoArgs,
	Run:  runPapers,
}

func init() {
	papersCmd.Flags().StringArrayVarP(&papersAuthors, "author", "a", nil, "Filter by author (repeatable, AND)")
	papersCmd.Flags().IntVar(&papersCluster, "cluster", -1, "Only papers in this cluster")
	papersCmd.Flags().IntVar(&papersYearStart, "year-start", 0, "Only papers from this year on")
	papersCmd.Flags().BoolVar(&papersHighlighted, "highlighted", false, "Only highlighted papers")
	papersCmd.Flags().IntVarP(&papersLimit, "limit", "n", DefaultSearchLimit, "Maximum papers to list (0 for all)")
	rootCmd.AddCommand(papersCmd)
}

// PapersResponse lists matching papers.
type PapersResponse struct {
	Papers []paper.Paper `json:"papers"`
	Count  int           `json:"count"`
	Total  int           `json:"total"` // Matches before the limit
}

func runPapers(cmd *cobra.Command, args []string) {
	a := mustOpenApp(false)
	st := a.mustGraph()
	a.close()

	queries := make([]author.Query, 0, len(papersAuthors))
	for _, s := range papersAuthors {
		q := author.ParseQuery(s)
		if q.IsEmpty() {
			exitWithCode(ExitDataError, codeInvalidInput, fmt.Sprintf("invalid author filter %q", s))
		}
		queries = append(queries, q)
	}

	var matched []paper.Paper
	for _, p := range author.Filter(st.Graph.Nodes, queries) {
		if papersCluster >= 0 && p.ClusterID != papersCluster {
			continue
		}
		if papersYearStart > 0 && p.Year < papersYearStart {
			continue
		}
		if papersHighlighted && !st.IsHighlighted(p.ID) {
			continue
		}
		matched = append(matched, p)
	}
	slices.SortStableFunc(matched, func(x, y paper.Paper) int {
		return cmp.Compare(y.CitationCount, x.CitationCount)
	})

	total := len(matched)
	if papersLimit > 0 && len(matched) > papersLimit {
		matched = matched[:papersLimit]
	}
	if matched == nil {
		matched = []paper.Paper{}
	}

	if !humanOutput {
		outputJSON(PapersResponse{Papers: matched, Count: len(matched), Total: total})
		return
	}
	if len(matched) == 0 {
		fmt.Println("No matching papers")
		return
	}
	table := newTable("Paper", "Title", "Year", "Cluster", "Cites")
	for _, p := range matched {
		table.Append(p.ID, truncateString(p.Title, TitleMaxLen), yearString(p.Year),
			fmt.Sprint(p.ClusterID), fmt.Sprint(p.CitationCount))
	}
	table.Render()
	if total > len(matched) {
		fmt.Println(subtleStyle.Sprintf("%d of %d shown", len(matched), total))
	}
}
