package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/scholargraph/internal/analysis"
)

var (
	chatClear     bool
	reviewOutFile string
)

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask a question about the current graph",
	Long: `Ask a question about the papers in the current graph. The transcript is
kept in the workspace and sent with each question. Papers the answer
points at become the highlighted set.

Without a question the transcript is printed. --clear empties it.`,
	Args: cobra.ArbitraryArgs,
	Run:  runChat,
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Generate a literature review of the current graph",
	Long: `Generate a literature review of the current graph. The last trend and
gap analyses are included when present. Use --out to write the Markdown
to a file.`,
	Args: cobra.NoArgs,
	Run:  runReview,
}

func init() {
	chatCmd.Flags().BoolVar(&chatClear, "clear", false, "Clear the chat transcript")
	reviewCmd.Flags().StringVarP(&reviewOutFile, "out", "o", "", "Write the review Markdown to a file")
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(reviewCmd)
}

func runChat(cmd *cobra.Command, args []string) {
	a := mustOpenApp(false)

	if chatClear {
		a.store.ClearChat()
		a.close()
		if humanOutput {
			fmt.Println("Chat cleared")
			return
		}
		outputJSON(StatusResponse{Status: "cleared"})
		return
	}

	if len(args) == 0 {
		chat := a.store.Snapshot().Chat
		a.close()
		if !humanOutput {
			outputJSON(chat)
			return
		}
		for _, m := range chat {
			role := infoStyle.Sprint("you")
			if m.Role != analysis.RoleUser {
				role = headingStyle.Sprint("sg")
			}
			fmt.Printf("%s\n%s\n\n", role, wrapText(m.Content, DetailMaxLen, "  "))
		}
		return
	}

	ctx, cancel := commandContext()
	defer cancel()

	reply, err := a.session.Chat(ctx, strings.Join(args, " "))
	if err != nil {
		a.fail("chat", err)
	}
	a.close()

	if !humanOutput {
		outputJSON(reply)
		return
	}
	fmt.Println(wrapText(reply.Content, DetailMaxLen, ""))
	if len(reply.Citations) > 0 {
		fmt.Println()
		for _, c := range reply.Citations {
			fmt.Printf("  [%d] %s %s\n", c.Index, subtleStyle.Sprint(c.PaperID), truncateString(c.Title, TitleMaxLen))
		}
	}
	if len(reply.HighlightedPapers) > 0 {
		fmt.Printf("\n%s\n", warnStyle.Sprintf("%d papers highlighted", len(reply.HighlightedPapers)))
	}
	if len(reply.Followups) > 0 {
		fmt.Println()
		fmt.Println(subtleStyle.Sprint("Follow-ups:"))
		for _, f := range reply.Followups {
			fmt.Printf("  - %s\n", f)
		}
	}
}

func runReview(cmd *cobra.Command, args []string) {
	a := mustOpenApp(false)
	ctx, cancel := commandContext()
	defer cancel()

	lr, err := a.session.GenerateLitReview(ctx)
	if err != nil {
		a.fail("literature review", err)
	}
	a.close()

	if reviewOutFile != "" {
		if err := os.WriteFile(reviewOutFile, []byte(lr.Markdown), 0644); err != nil {
			exitWithError(ExitError, "writing review: %v", err)
		}
	}

	if !humanOutput {
		outputJSON(lr)
		return
	}
	if reviewOutFile != "" {
		fmt.Printf("Wrote %q (%d sections) to %s\n", lr.Title, len(lr.Sections), reviewOutFile)
		return
	}
	fmt.Println(lr.Markdown)
}
