package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/scholargraph/internal/graph"
	"github.com/matsen/scholargraph/internal/storage"
)

var (
	graphsLocal     bool
	graphsFindLimit int
	graphsRename    string
)

var graphsCmd = &cobra.Command{
	Use:   "graphs",
	Short: "Manage saved graphs",
	Long: `Save, list, load and delete named graphs.

Saved graphs live on the backend by default. With --local they are kept in
the SQLite database in the workspace directory, which also supports full
text search over the saved papers (sg graphs find).`,
}

var graphsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved graphs, most recently updated first",
	Args:  cobra.NoArgs,
	Run:   runGraphsList,
}

var graphsSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the current graph under a name",
	Args:  cobra.MinimumNArgs(1),
	Run:   runGraphsSave,
}

var graphsLoadCmd = &cobra.Command{
	Use:   "load <id>",
	Short: "Replace the current graph with a saved one",
	Args:  cobra.ExactArgs(1),
	Run:   runGraphsLoad,
}

var graphsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved graph",
	Args:  cobra.ExactArgs(1),
	Run:   runGraphsDelete,
}

var graphsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Overwrite a saved graph with the current graph",
	Long: `Replace the papers and layout of a saved graph with the current graph.
The saved name is kept unless --name is given.`,
	Args: cobra.ExactArgs(1),
	Run:  runGraphsUpdate,
}

var graphsFindCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Full-text search papers across locally saved graphs",
	Args:  cobra.MinimumNArgs(1),
	Run:   runGraphsFind,
}

func init() {
	graphsCmd.PersistentFlags().BoolVar(&graphsLocal, "local", false, "Use the local saved-graph database")
	graphsFindCmd.Flags().IntVarP(&graphsFindLimit, "limit", "n", 20, "Maximum results")
	graphsUpdateCmd.Flags().StringVar(&graphsRename, "name", "", "Rename the saved graph")
	graphsCmd.AddCommand(graphsListCmd)
	graphsCmd.AddCommand(graphsSaveCmd)
	graphsCmd.AddCommand(graphsLoadCmd)
	graphsCmd.AddCommand(graphsUpdateCmd)
	graphsCmd.AddCommand(graphsDeleteCmd)
	graphsCmd.AddCommand(graphsFindCmd)
	rootCmd.AddCommand(graphsCmd)
}

// GraphsListResponse lists saved graphs.
type GraphsListResponse struct {
	Graphs []graph.SavedSummary `json:"graphs"`
	Count  int                  `json:"count"`
}

// FindResponse lists full-text matches in saved graphs.
type FindResponse struct {
	Query string             `json:"query"`
	Hits  []storage.PaperHit `json:"hits"`
	Count int                `json:"count"`
}

func runGraphsList(cmd *cobra.Command, args []string) {
	a := mustOpenApp(graphsLocal)
	ctx, cancel := commandContext()
	defer cancel()

	graphs, err := a.session.ListSaved(ctx)
	if err != nil {
		a.fail("list graphs", err)
	}
	a.close()

	if graphs == nil {
		graphs = []graph.SavedSummary{}
	}
	if humanOutput {
		if len(graphs) == 0 {
			fmt.Println("No saved graphs")
			return
		}
		table := newTable("ID", "Name", "Papers", "Updated")
		for _, s := range graphs {
			table.Append(s.ID, truncateString(s.Name, TitleMaxLen), fmt.Sprint(s.PaperCount),
				s.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		table.Render()
		return
	}
	outputJSON(GraphsListResponse{Graphs: graphs, Count: len(graphs)})
}

func runGraphsSave(cmd *cobra.Command, args []string) {
	a := mustOpenApp(graphsLocal)
	ctx, cancel := commandContext()
	defer cancel()

	saved, err := a.session.SaveCurrent(ctx, strings.Join(args, " "))
	if err != nil {
		a.fail("save graph", err)
	}
	a.close()

	if humanOutput {
		fmt.Printf("Saved %q (%d papers) as %s\n", saved.Name, saved.PaperCount, saved.ID)
		return
	}
	outputJSON(saved.SavedSummary)
}

func runGraphsUpdate(cmd *cobra.Command, args []string) {
	a := mustOpenApp(graphsLocal)
	ctx, cancel := commandContext()
	defer cancel()

	saved, err := a.session.UpdateSaved(ctx, args[0], graphsRename)
	if err != nil {
		a.fail("update graph", err)
	}
	a.close()

	if humanOutput {
		fmt.Printf("Updated %q (%d papers)\n", saved.Name, saved.PaperCount)
		return
	}
	outputJSON(saved.SavedSummary)
}

func runGraphsLoad(cmd *cobra.Command, args []string) {
	a := mustOpenApp(graphsLocal)
	ctx, cancel := commandContext()
	defer cancel()

	saved, err := a.session.LoadSaved(ctx, args[0])
	if err != nil {
		a.fail("load graph", err)
	}
	a.close()

	if humanOutput {
		printGraphHuman(saved.Graph)
		return
	}
	outputJSON(struct {
		graph.SavedSummary
		Graph GraphSummary `json:"graph"`
	}{saved.SavedSummary, summarize(saved.Graph)})
}

func runGraphsDelete(cmd *cobra.Command, args []string) {
	a := mustOpenApp(graphsLocal)
	ctx, cancel := commandContext()
	defer cancel()

	if err := a.session.DeleteSaved(ctx, args[0]); err != nil {
		a.fail("delete graph", err)
	}
	a.close()

	if humanOutput {
		fmt.Printf("Deleted %s\n", args[0])
		return
	}
	outputJSON(StatusResponse{Status: "deleted", ID: args[0]})
}

func runGraphsFind(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	query := strings.Join(args, " ")
	ctx, cancel := commandContext()
	defer cancel()

	hits, err := db.FindPapers(ctx, query, graphsFindLimit)
	if err != nil {
		exitWithError(ExitDataError, "searching saved graphs: %v", err)
	}
	if hits == nil {
		hits = []storage.PaperHit{}
	}

	if humanOutput {
		if len(hits) == 0 {
			fmt.Println("No matches")
			return
		}
		table := newTable("Graph", "Paper", "Title")
		for _, h := range hits {
			table.Append(truncateString(h.GraphName, LabelMaxLen), h.PaperID, truncateString(h.Title, TitleMaxLen))
		}
		table.Render()
		return
	}
	outputJSON(FindResponse{Query: query, Hits: hits, Count: len(hits)})
}
