package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matsen/scholargraph/internal/analysis"
	"github.com/matsen/scholargraph/internal/client"
)

var (
	conceptualQuiet bool
	intentsEnhanced bool
)

var conceptualCmd = &cobra.Command{
	Use:   "conceptual",
	Short: "Stream inferred conceptual links between papers",
	Long: `Stream conceptual relations (shared methodology, shared theory, supporting
or contradicting claims, shared context) for every paper in the graph.

Edges are committed in batches as they arrive, so an interrupted stream
keeps what it delivered. Progress goes to stderr unless --quiet is set.`,
	Args: cobra.NoArgs,
	Run:  runConceptual,
}

var intentsCmd = &cobra.Command{
	Use:   "intents <paper-id>",
	Short: "Classify why papers cite a paper",
	Long: `Fetch the citation intents of every paper citing a paper in the graph.

With --enhanced the backend refines the intents with the configured LLM
provider and key, which must both be set.`,
	Args: cobra.ExactArgs(1),
	Run:  runIntents,
}

func init() {
	conceptualCmd.Flags().BoolVarP(&conceptualQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.AddCommand(conceptualCmd)
	intentsCmd.Flags().BoolVar(&intentsEnhanced, "enhanced", false, "Refine intents with the configured LLM")
	rootCmd.AddCommand(intentsCmd)
}

// ConceptualResponse reports a finished stream.
type ConceptualResponse struct {
	client.StreamResult
	Stored    int            `json:"stored"`
	Relations map[string]int `json:"relations"`
}

// IntentsResponse lists citation intents for a paper.
type IntentsResponse struct {
	PaperID string                    `json:"paper_id"`
	Intents []analysis.CitationIntent `json:"intents"`
	Count   int                       `json:"count"`
}

func runConceptual(cmd *cobra.Command, args []string) {
	a := mustOpenApp(false)
	ctx, cancel := commandContext()
	defer cancel()

	var progress client.ProgressFunc
	if !conceptualQuiet {
		progress = func(stage, message string) {
			fmt.Fprintf(os.Stderr, "%s %s\n", subtleStyle.Sprintf("[%s]", stage), message)
		}
	}

	res, err := a.session.StreamConceptualEdges(ctx, progress)
	if err != nil {
		a.fail("conceptual analysis", err)
	}
	st := a.store.Snapshot()
	a.close()

	resp := ConceptualResponse{StreamResult: res, Stored: len(st.ConceptualEdges), Relations: make(map[string]int)}
	for _, ce := range st.ConceptualEdges {
		resp.Relations[ce.RelationType]++
	}

	if !humanOutput {
		outputJSON(resp)
		return
	}
	state := goodStyle.Sprint("complete")
	if !res.Completed {
		state = warnStyle.Sprint("incomplete")
	}
	fmt.Printf("Stream %s: %d delivered, %d stored", state, res.Delivered, resp.Stored)
	if n := res.Quarantined.Len(); n > 0 {
		fmt.Printf(", %s", warnStyle.Sprintf("%d rejected", n))
	}
	fmt.Println()
	if len(resp.Relations) == 0 {
		return
	}
	relations := make([]string, 0, len(resp.Relations))
	for r := range resp.Relations {
		relations = append(relations, r)
	}
	sort.Strings(relations)
	table := newTable("Relation", "Edges")
	for _, r := range relations {
		table.Append(r, fmt.Sprint(resp.Relations[r]))
	}
	table.Render()
}

func runIntents(cmd *cobra.Command, args []string) {
	a := mustOpenApp(false)
	ctx, cancel := commandContext()
	defer cancel()

	intents, err := a.session.FetchCitationIntents(ctx, args[0], intentsEnhanced)
	if err != nil {
		a.fail("citation intents", err)
	}
	a.close()

	if intents == nil {
		intents = []analysis.CitationIntent{}
	}
	if !humanOutput {
		outputJSON(IntentsResponse{PaperID: args[0], Intents: intents, Count: len(intents)})
		return
	}
	if len(intents) == 0 {
		fmt.Println("No citation intents")
		return
	}
	table := newTable("Citing", "Title", "Intent", "Influential", "Source")
	for _, ci := range intents {
		intent := ci.Intent
		if ci.EnhancedIntent != "" {
			intent = ci.EnhancedIntent
		}
		influential := ""
		if ci.IsInfluential {
			influential = goodStyle.Sprint("yes")
		}
		table.Append(ci.CitingID, truncateString(ci.CitingTitle, TitleMaxLen), intent, influential, ci.Source)
	}
	table.Render()
}
