package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/scholargraph/internal/viz"
)

var statsTop int

var densityCmd = &cobra.Command{
	Use:   "density",
	Short: "Show the fraction of edges internal to each cluster",
	Args:  cobra.NoArgs,
	Run:   runDensity,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show component structure and the most central papers",
	Args:  cobra.NoArgs,
	Run:   runStats,
}

var visibleCmd = &cobra.Command{
	Use:   "visible",
	Short: "Print the graph as a renderer would draw it",
	Long: `Print the nodes and edges that survive the hidden-cluster set and the
visibility toggles, with conceptual and ghost edges and the highlight set.`,
	Args: cobra.NoArgs,
	Run:  runVisible,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the workspace state",
	Args:  cobra.NoArgs,
	Run:   runStatus,
}

func init() {
	statsCmd.Flags().IntVar(&statsTop, "top", viz.DefaultTopN, "Number of leading papers to list")
	rootCmd.AddCommand(densityCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(visibleCmd)
	rootCmd.AddCommand(statusCmd)
}

// WorkspaceStatus summarizes the whole workspace.
type WorkspaceStatus struct {
	Graph           *GraphSummary   `json:"graph,omitempty"`
	SelectedPaper   string          `json:"selected_paper,omitempty"`
	SelectedCluster *int            `json:"selected_cluster,omitempty"`
	MultiSelect     []string        `json:"multi_select,omitempty"`
	Highlighted     int             `json:"highlighted"`
	HiddenClusters  int             `json:"hidden_clusters"`
	BridgeNodes     int             `json:"bridge_nodes"`
	ConceptualEdges int             `json:"conceptual_edges"`
	ChatMessages    int             `json:"chat_messages"`
	HasTrends       bool            `json:"has_trends"`
	HasGaps         bool            `json:"has_gaps"`
	HasLitReview    bool            `json:"has_lit_review"`
	WatchQueries    int             `json:"watch_queries"`
	Toggles         map[string]bool `json:"toggles"`
	Error           string          `json:"error,omitempty"`
}

func runDensity(cmd *cobra.Command, args []string) {
	a := mustOpenApp(false)
	st := a.mustGraph()
	a.close()

	densities := viz.ClusterDensities(st.Graph)
	if humanOutput {
		table := newTable("Cluster", "Label", "Internal edges", "Density")
		for _, d := range densities {
			table.Append(fmt.Sprint(d.ClusterID), truncateString(d.Label, LabelMaxLen),
				fmt.Sprint(d.IntraEdges), fmt.Sprintf("%.2f", d.Ratio))
		}
		table.Render()
		return
	}
	outputJSON(densities)
}

func runStats(cmd *cobra.Command, args []string) {
	a := mustOpenApp(false)
	st := a.mustGraph()
	a.close()

	stats := viz.ComputeStats(st.Graph, statsTop)
	if !humanOutput {
		outputJSON(stats)
		return
	}

	fmt.Println(headingStyle.Sprint("Graph"))
	fmt.Printf("  papers %d, edges %d, clusters %d, unclustered %d\n",
		stats.Nodes, stats.Edges, stats.Clusters, stats.Unclustered)
	fmt.Printf("  components %d, largest %d, isolated %d\n",
		stats.Components, stats.LargestComp, len(stats.Isolated))
	printRanked := func(title string, nodes []viz.RankedNode, format string) {
		if len(nodes) == 0 {
			return
		}
		fmt.Println()
		fmt.Println(headingStyle.Sprint(title))
		table := newTable("Paper", "Title", "Score")
		for _, n := range nodes {
			table.Append(n.ID, truncateString(n.Title, TitleMaxLen), fmt.Sprintf(format, n.Score))
		}
		table.Render()
	}
	printRanked("Highest degree", stats.TopDegree, "%.0f")
	printRanked("Highest PageRank", stats.TopPageRank, "%.4f")
}

func runVisible(cmd *cobra.Command, args []string) {
	a := mustOpenApp(false)
	st := a.store.Snapshot()
	a.close()

	view := viz.VisibleGraph(st)
	if !humanOutput {
		outputJSON(view)
		return
	}

	highlighted := make(map[string]bool, len(view.Highlighted))
	for _, id := range view.Highlighted {
		highlighted[id] = true
	}
	fmt.Printf("%d papers, %d edges, %d conceptual, %d ghost\n\n",
		len(view.Nodes), len(view.Edges), len(view.ConceptualEdges), len(view.GhostEdges))
	if len(view.Nodes) == 0 {
		return
	}
	table := newTable("", "Paper", "Title", "Year", "Cluster", "Cites")
	for _, n := range view.Nodes {
		mark := ""
		switch {
		case n.ID == st.SelectedPaper:
			mark = goodStyle.Sprint(">")
		case highlighted[n.ID]:
			mark = warnStyle.Sprint("*")
		case st.BridgeNodes[n.ID]:
			mark = infoStyle.Sprint("b")
		}
		table.Append(mark, n.ID, truncateString(n.Title, TitleMaxLen), yearString(n.Year),
			fmt.Sprint(n.ClusterID), fmt.Sprint(n.CitationCount))
	}
	table.Render()
}

func runStatus(cmd *cobra.Command, args []string) {
	a := mustOpenApp(false)
	st := a.store.Snapshot()
	a.close()

	status := WorkspaceStatus{
		SelectedPaper:   st.SelectedPaper,
		SelectedCluster: st.SelectedCluster,
		MultiSelect:     st.MultiSelect,
		Highlighted:     len(st.Highlighted),
		HiddenClusters:  len(st.HiddenClusters),
		BridgeNodes:     len(st.BridgeNodes),
		ConceptualEdges: len(st.ConceptualEdges),
		ChatMessages:    len(st.Chat),
		HasTrends:       st.Trends != nil,
		HasGaps:         st.Gaps != nil,
		HasLitReview:    st.LitReview != nil,
		WatchQueries:    len(st.WatchQueries),
		Toggles:         toggleValues(st),
		Error:           st.Error,
	}
	if st.HasGraph() {
		s := summarize(st.Graph)
		status.Graph = &s
	}

	if !humanOutput {
		outputJSON(status)
		return
	}

	if status.Graph == nil {
		fmt.Println(subtleStyle.Sprint("No graph loaded"))
	} else {
		fmt.Printf("%s %q: %d papers, %d edges, %d clusters\n", headingStyle.Sprint("Graph"),
			status.Graph.Query, status.Graph.Nodes, status.Graph.Edges, status.Graph.Clusters)
	}
	if status.SelectedPaper != "" {
		fmt.Printf("Selected paper: %s\n", status.SelectedPaper)
	}
	if status.SelectedCluster != nil {
		fmt.Printf("Selected cluster: %d\n", *status.SelectedCluster)
	}
	if len(status.MultiSelect) > 0 {
		fmt.Printf("Multi-select: %v\n", status.MultiSelect)
	}
	fmt.Printf("Highlighted %d, hidden clusters %d, bridges %d, conceptual edges %d\n",
		status.Highlighted, status.HiddenClusters, status.BridgeNodes, status.ConceptualEdges)
	fmt.Printf("Trends %s, gaps %s, review %s, chat messages %d, watch queries %d\n",
		onOff(status.HasTrends), onOff(status.HasGaps), onOff(status.HasLitReview),
		status.ChatMessages, status.WatchQueries)
	fmt.Println()
	table := newTable("Toggle", "State")
	for _, name := range toggleNames {
		table.Append(name, onOff(status.Toggles[name]))
	}
	table.Render()
	if status.Error != "" {
		fmt.Println(badStyle.Sprint(status.Error))
	}
}
