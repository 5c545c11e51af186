package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/scholargraph/internal/analysis"
	"github.com/matsen/scholargraph/internal/viz"
)

var gapsCached bool

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Find structural gaps between clusters",
	Long: `Ask the backend for structural gaps: pairs of clusters with few links
between them relative to their size. Gaps are listed strongest first.

Use --cached to show the last analysis without contacting the backend.`,
	Args: cobra.NoArgs,
	Run:  runGaps,
}

var gapsSelectCmd = &cobra.Command{
	Use:   "select <gap-id>",
	Short: "Highlight the papers of a gap",
	Long: `Highlight every bridge paper of the gap plus every paper in either of
its two clusters. The highlight replaces any previous one.`,
	Args: cobra.ExactArgs(1),
	Run:  runGapsSelect,
}

var gapsHypothesesCmd = &cobra.Command{
	Use:   "hypotheses <gap-id>",
	Short: "Generate research questions for a gap",
	Args:  cobra.ExactArgs(1),
	Run:   runGapsHypotheses,
}

func init() {
	gapsCmd.Flags().BoolVar(&gapsCached, "cached", false, "Show the last analysis instead of running a new one")
	gapsCmd.AddCommand(gapsSelectCmd)
	gapsCmd.AddCommand(gapsHypothesesCmd)
	rootCmd.AddCommand(gapsCmd)
}

// GapsResponse lists gaps strongest first.
type GapsResponse struct {
	Gaps  []analysis.StructuralGap `json:"gaps"`
	Count int                      `json:"count"`
}

// HighlightResponse lists highlighted paper ids.
type HighlightResponse struct {
	Highlighted []string `json:"highlighted"`
	Count       int      `json:"count"`
}

func runGaps(cmd *cobra.Command, args []string) {
	a := mustOpenApp(false)
	var ga *analysis.GapAnalysis
	if gapsCached {
		ga = a.mustGraph().Gaps
		a.close()
		if ga == nil {
			exitWithCode(ExitDataError, codeInvalidInput, "no gap analysis: run sg gaps first")
		}
	} else {
		ctx, cancel := commandContext()
		defer cancel()
		var err error
		ga, err = a.session.AnalyzeGaps(ctx)
		if err != nil {
			a.fail("gap analysis", err)
		}
		a.close()
	}

	gaps := viz.SortGaps(ga.Gaps)
	if gaps == nil {
		gaps = []analysis.StructuralGap{}
	}
	if humanOutput {
		if len(gaps) == 0 {
			fmt.Println("No structural gaps found")
			return
		}
		table := newTable("ID", "Cluster A", "Cluster B", "Strength", "Bridges")
		for _, g := range gaps {
			table.Append(g.GapID,
				truncateString(g.ClusterA.Label, LabelMaxLen),
				truncateString(g.ClusterB.Label, LabelMaxLen),
				fmt.Sprintf("%.2f", g.GapStrength),
				fmt.Sprint(len(g.BridgePapers)))
		}
		table.Render()
		return
	}
	outputJSON(GapsResponse{Gaps: gaps, Count: len(gaps)})
}

func runGapsSelect(cmd *cobra.Command, args []string) {
	a := mustOpenApp(false)
	ids, err := a.session.SelectGap(args[0])
	if err != nil {
		a.fail("select gap", err)
	}
	a.close()

	if humanOutput {
		fmt.Printf("Highlighted %d papers for gap %s\n", len(ids), args[0])
		return
	}
	outputJSON(HighlightResponse{Highlighted: ids, Count: len(ids)})
}

func runGapsHypotheses(cmd *cobra.Command, args []string) {
	a := mustOpenApp(false)
	ctx, cancel := commandContext()
	defer cancel()

	h, err := a.session.GenerateHypotheses(ctx, args[0])
	if err != nil {
		a.fail("hypothesis generation", err)
	}
	a.close()

	if humanOutput {
		fmt.Println(headingStyle.Sprintf("Research questions for %s", h.GapID))
		for i, q := range h.Hypotheses {
			fmt.Printf("%2d. %s\n", i+1, q)
		}
		return
	}
	outputJSON(h)
}
