package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/scholargraph/internal/client"
)

var (
	seedDepth        int
	seedMaxPapers    int
	seedNoReferences bool
	seedNoCitations  bool
)

var seedCmd = &cobra.Command{
	Use:   "seed <paper-id>",
	Short: "Build a graph around one paper and replace the current graph",
	Long: `Grow a citation graph outward from a seed paper and install it like a
search result. The paper is a Semantic Scholar id or a DOI written as
DOI:10.1234/abcd.

--depth sets how many citation hops to follow and --max-papers caps the
graph size; 0 takes the backend defaults.`,
	Args: cobra.ExactArgs(1),
	Run:  runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedDepth, "depth", 0, "Citation hops to follow (0 for backend default)")
	seedCmd.Flags().IntVarP(&seedMaxPapers, "max-papers", "n", 0, "Maximum papers in the graph (0 for backend default)")
	seedCmd.Flags().BoolVar(&seedNoReferences, "no-references", false, "Do not follow references")
	seedCmd.Flags().BoolVar(&seedNoCitations, "no-citations", false, "Do not follow citing papers")
	seedCmd.MarkFlagsMutuallyExclusive("no-references", "no-citations")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) {
	if seedDepth < 0 || seedMaxPapers < 0 {
		exitWithError(ExitError, "--depth and --max-papers must not be negative")
	}
	opts := client.SeedOptions{PaperID: args[0], Depth: seedDepth, MaxPapers: seedMaxPapers}
	exclude := false
	if seedNoReferences {
		opts.IncludeReferences = &exclude
	}
	if seedNoCitations {
		opts.IncludeCitations = &exclude
	}

	a := mustOpenApp(false)
	ctx, cancel := commandContext()
	defer cancel()

	g, err := a.session.SeedExplore(ctx, opts)
	if err != nil {
		a.fail("seed explore", err)
	}
	a.close()

	if humanOutput {
		printGraphHuman(g)
		return
	}
	outputJSON(summarize(g))
}
