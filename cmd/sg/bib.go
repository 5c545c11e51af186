package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/scholargraph/internal/clipboard"
	"github.com/matsen/scholargraph/internal/export"
)

var (
	bibHighlighted bool
	bibAppend      string
	bibCopy        bool
)

var bibCmd = &cobra.Command{
	Use:   "bib",
	Short: "Export graph papers as BibTeX",
	Long: `Export the papers of the current graph as BibTeX.

With --highlighted only highlighted papers are exported. With --append the
entries are appended to an existing .bib file, skipping papers it already
holds (matched by DOI, then by citation key). With --copy the entries go
to the system clipboard instead of stdout.`,
	Args: cobra.NoArgs,
	Run:  runBib,
}

func init() {
	bibCmd.Flags().BoolVar(&bibHighlighted, "highlighted", false, "Export only highlighted papers")
	bibCmd.Flags().StringVar(&bibAppend, "append", "", "Append new entries to this .bib file")
	bibCmd.Flags().BoolVar(&bibCopy, "copy", false, "Copy the entries to the clipboard")
	bibCmd.MarkFlagsMutuallyExclusive("append", "copy")
	rootCmd.AddCommand(bibCmd)
}

// BibResponse reports an append to a .bib file or a clipboard copy.
type BibResponse struct {
	Path     string `json:"path,omitempty"`
	Exported int    `json:"exported"`
	Skipped  int    `json:"skipped"`
}

func runBib(cmd *cobra.Command, args []string) {
	a := mustOpenApp(false)
	st := a.mustGraph()
	a.close()

	papers := st.Graph.Nodes
	if bibHighlighted {
		papers = nil
		for _, n := range st.Graph.Nodes {
			if st.IsHighlighted(n.ID) {
				papers = append(papers, n)
			}
		}
	}

	if bibAppend == "" {
		entries := export.NewBibTeXIndex().FilterNew(papers)
		text := export.ToBibTeXList(entries)
		if !bibCopy {
			fmt.Print(text)
			return
		}
		ctx, cancel := commandContext()
		defer cancel()
		if err := clipboard.Copy(ctx, text); err != nil {
			exitWithError(ExitError, "copying to clipboard: %v", err)
		}
		if humanOutput {
			fmt.Printf("Copied %d entries to the clipboard\n", len(entries))
			return
		}
		outputJSON(BibResponse{Exported: len(entries), Skipped: len(papers) - len(entries)})
		return
	}

	idx, err := export.ParseBibTeXFile(bibAppend)
	if err != nil {
		exitWithError(ExitDataError, "reading %s: %v", bibAppend, err)
	}
	fresh := idx.FilterNew(papers)
	if len(fresh) > 0 {
		if err := export.AppendToBibFile(bibAppend, export.ToBibTeXList(fresh)); err != nil {
			exitWithError(ExitError, "writing %s: %v", bibAppend, err)
		}
	}

	resp := BibResponse{Path: bibAppend, Exported: len(fresh), Skipped: len(papers) - len(fresh)}
	if humanOutput {
		fmt.Printf("Appended %d entries to %s (%d already present)\n", resp.Exported, resp.Path, resp.Skipped)
		return
	}
	outputJSON(resp)
}
