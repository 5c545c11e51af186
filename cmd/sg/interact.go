package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/scholargraph/internal/store"
)

// toggle describes one named visibility or effect flag.
type toggle struct {
	get  func(st store.State) bool
	flip func(s *store.Store)
}

var toggles = map[string]toggle{
	"citation": {
		get:  func(st store.State) bool { return st.Visibility.CitationEdges },
		flip: (*store.Store).ToggleCitationEdges,
	},
	"similarity": {
		get:  func(st store.State) bool { return st.Visibility.SimilarityEdges },
		flip: (*store.Store).ToggleSimilarityEdges,
	},
	"hulls": {
		get:  func(st store.State) bool { return st.Visibility.ClusterHulls },
		flip: (*store.Store).ToggleClusterHulls,
	},
	"labels": {
		get:  func(st store.State) bool { return st.Visibility.Labels },
		flip: (*store.Store).ToggleLabels,
	},
	"bloom": {
		get:  func(st store.State) bool { return st.Effects.Bloom },
		flip: (*store.Store).ToggleBloom,
	},
	"ghost": {
		get:  func(st store.State) bool { return st.Effects.GhostEdges },
		flip: (*store.Store).ToggleGhostEdges,
	},
	"gap-overlay": {
		get:  func(st store.State) bool { return st.Effects.GapOverlay },
		flip: (*store.Store).ToggleGapOverlay,
	},
	"particles": {
		get:  func(st store.State) bool { return st.Effects.Particles },
		flip: (*store.Store).ToggleParticles,
	},
}

var toggleNames = func() []string {
	names := make([]string, 0, len(toggles))
	for name := range toggles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}()

func toggleValues(st store.State) map[string]bool {
	out := make(map[string]bool, len(toggles))
	for name, t := range toggles {
		out[name] = t.get(st)
	}
	return out
}

var (
	highlightClear bool
	selectCluster  int
	selectMulti    bool
	selectClear    bool
)

var toggleCmd = &cobra.Command{
	Use:       "toggle <name>",
	Short:     "Flip a visibility or effect toggle",
	Long:      "Flip a visibility or effect toggle. Names: " + strings.Join(toggleNames, ", ") + ".",
	Args:      cobra.ExactArgs(1),
	ValidArgs: toggleNames,
	Run:       runToggle,
}

var hideCmd = &cobra.Command{
	Use:   "hide <cluster-id>",
	Short: "Hide a visible cluster or show a hidden one",
	Args:  cobra.ExactArgs(1),
	Run:   runHide,
}

var highlightCmd = &cobra.Command{
	Use:   "highlight [paper-id...]",
	Short: "Replace the highlighted papers",
	Args:  cobra.ArbitraryArgs,
	Run:   runHighlight,
}

var selectCmd = &cobra.Command{
	Use:   "select [paper-id]",
	Short: "Select a paper or cluster",
	Long: `Select a paper, or a cluster with --cluster. With --multi the paper is
added to the multi-select list, or removed if already there. --clear drops
every selection.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runSelect,
}

var bridgesCmd = &cobra.Command{
	Use:   "bridges [paper-id...]",
	Short: "Show or replace the bridge papers",
	Args:  cobra.ArbitraryArgs,
	Run:   runBridges,
}

func init() {
	highlightCmd.Flags().BoolVar(&highlightClear, "clear", false, "Clear all highlights")
	selectCmd.Flags().IntVar(&selectCluster, "cluster", -1, "Select a cluster by id")
	selectCmd.Flags().BoolVar(&selectMulti, "multi", false, "Toggle the paper in the multi-select list")
	selectCmd.Flags().BoolVar(&selectClear, "clear", false, "Clear paper, cluster and multi selection")
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(hideCmd)
	rootCmd.AddCommand(highlightCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(bridgesCmd)
}

// ToggleResponse reports the new value of a toggle.
type ToggleResponse struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// SelectionResponse reports the selection after a change.
type SelectionResponse struct {
	SelectedPaper   string   `json:"selected_paper,omitempty"`
	SelectedCluster *int     `json:"selected_cluster,omitempty"`
	MultiSelect     []string `json:"multi_select,omitempty"`
}

func runToggle(cmd *cobra.Command, args []string) {
	t, ok := toggles[args[0]]
	if !ok {
		exitWithCode(ExitDataError, codeInvalidInput,
			fmt.Sprintf("unknown toggle %q (valid: %s)", args[0], strings.Join(toggleNames, ", ")))
	}

	a := mustOpenApp(false)
	t.flip(a.store)
	enabled := t.get(a.store.Snapshot())
	a.close()

	if humanOutput {
		fmt.Printf("%s %s\n", args[0], onOff(enabled))
		return
	}
	outputJSON(ToggleResponse{Name: args[0], Enabled: enabled})
}

func runHide(cmd *cobra.Command, args []string) {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		exitWithCode(ExitDataError, codeInvalidInput, fmt.Sprintf("invalid cluster id %q", args[0]))
	}

	a := mustOpenApp(false)
	st := a.mustGraph()
	if _, ok := st.Graph.ClusterByID(id); !ok {
		a.close()
		exitWithCode(ExitDataError, codeInvalidInput, fmt.Sprintf("cluster %d not in graph", id))
	}
	a.store.ToggleHiddenCluster(id)
	st = a.store.Snapshot()
	a.close()

	hidden := st.IsClusterHidden(id)
	if humanOutput {
		state := "shown"
		if hidden {
			state = "hidden"
		}
		fmt.Printf("Cluster %d %s\n", id, state)
		return
	}
	outputJSON(struct {
		ClusterID int  `json:"cluster_id"`
		Hidden    bool `json:"hidden"`
	}{id, hidden})
}

func runHighlight(cmd *cobra.Command, args []string) {
	a := mustOpenApp(false)
	if highlightClear || len(args) == 0 {
		a.store.ClearHighlightedPapers()
	} else {
		st := a.mustGraph()
		for _, id := range args {
			if !st.Graph.HasNode(id) {
				a.close()
				exitWithCode(ExitDataError, codeInvalidInput, fmt.Sprintf("paper %s not in graph", id))
			}
		}
		a.store.SetHighlightedPapers(args)
	}
	st := a.store.Snapshot()
	a.close()

	ids := st.HighlightedIDs()
	if ids == nil {
		ids = []string{}
	}
	if humanOutput {
		fmt.Printf("%d papers highlighted\n", len(ids))
		return
	}
	outputJSON(HighlightResponse{Highlighted: ids, Count: len(ids)})
}

func runSelect(cmd *cobra.Command, args []string) {
	a := mustOpenApp(false)
	switch {
	case selectClear:
		a.store.SelectPaper("")
		a.store.ClearSelectedCluster()
		a.store.ClearMultiSelect()
	case selectCluster >= 0:
		st := a.mustGraph()
		if _, ok := st.Graph.ClusterByID(selectCluster); !ok {
			a.close()
			exitWithCode(ExitDataError, codeInvalidInput, fmt.Sprintf("cluster %d not in graph", selectCluster))
		}
		a.store.SelectCluster(selectCluster)
	case len(args) == 1:
		st := a.mustGraph()
		if !st.Graph.HasNode(args[0]) {
			a.close()
			exitWithCode(ExitDataError, codeInvalidInput, fmt.Sprintf("paper %s not in graph", args[0]))
		}
		if selectMulti {
			a.store.ToggleMultiSelect(args[0])
		} else {
			a.store.SelectPaper(args[0])
		}
	}
	st := a.store.Snapshot()
	a.close()

	resp := SelectionResponse{
		SelectedPaper:   st.SelectedPaper,
		SelectedCluster: st.SelectedCluster,
		MultiSelect:     st.MultiSelect,
	}
	if !humanOutput {
		outputJSON(resp)
		return
	}
	if resp.SelectedPaper == "" && resp.SelectedCluster == nil && len(resp.MultiSelect) == 0 {
		fmt.Println("Nothing selected")
		return
	}
	if resp.SelectedPaper != "" {
		if p, ok := st.Graph.NodeByID(resp.SelectedPaper); ok {
			printPaperHuman(p.ID, p.Title, p.Year, p.Abstract)
		}
	}
	if resp.SelectedCluster != nil {
		fmt.Printf("Cluster %d selected\n", *resp.SelectedCluster)
	}
	if len(resp.MultiSelect) > 0 {
		fmt.Printf("Multi-select: %s\n", strings.Join(resp.MultiSelect, ", "))
	}
}

func runBridges(cmd *cobra.Command, args []string) {
	a := mustOpenApp(false)
	if len(args) > 0 {
		a.mustGraph()
		a.store.SetBridgeNodes(args)
	}
	st := a.store.Snapshot()
	a.close()

	ids := make([]string, 0, len(st.BridgeNodes))
	for id := range st.BridgeNodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if humanOutput {
		if len(ids) == 0 {
			fmt.Println("No bridge papers")
			return
		}
		for _, id := range ids {
			title := ""
			if p, ok := st.Graph.NodeByID(id); ok {
				title = truncateString(p.Title, TitleMaxLen)
			}
			fmt.Printf("%s  %s\n", infoStyle.Sprint(id), title)
		}
		return
	}
	outputJSON(struct {
		Bridges []string `json:"bridges"`
		Count   int      `json:"count"`
	}{ids, len(ids)})
}

// printPaperHuman prints a paper header and wrapped abstract.
func printPaperHuman(id, title string, year int, abstract string) {
	fmt.Println(headingStyle.Sprint(title))
	fmt.Printf("%s  %s\n", subtleStyle.Sprint(id), yearString(year))
	if abstract != "" {
		fmt.Println()
		fmt.Println(wrapText(abstract, DetailMaxLen, "  "))
	}
}
