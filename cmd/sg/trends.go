package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/scholargraph/internal/analysis"
	"github.com/matsen/scholargraph/internal/viz"
)

var trendsCached bool

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Classify clusters as emerging, stable or declining",
	Long: `Ask the backend for the temporal profile of every cluster. Clusters are
reported in the three buckets the backend assigns, each with a sparkline
of papers per year.

Use --cached to show the last analysis without contacting the backend.`,
	Args: cobra.NoArgs,
	Run:  runTrends,
}

func init() {
	trendsCmd.Flags().BoolVar(&trendsCached, "cached", false, "Show the last analysis instead of running a new one")
	rootCmd.AddCommand(trendsCmd)
}

// TrendsResponse holds the buckets and their sparklines.
type TrendsResponse struct {
	Buckets    []viz.Bucket      `json:"buckets"`
	Sparklines map[int][]viz.Bar `json:"sparklines"`
	Summary    map[string]any    `json:"summary,omitempty"`
}

// sparkRunes are the block characters used for sparklines, lowest first.
var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// renderSparkline draws bars as block characters.
func renderSparkline(bars []viz.Bar) string {
	var b strings.Builder
	for _, bar := range bars {
		i := int(bar.Height / 100 * float64(len(sparkRunes)-1))
		i = max(0, min(i, len(sparkRunes)-1))
		b.WriteRune(sparkRunes[i])
	}
	return b.String()
}

func bucketStyle(classification string) func(format string, a ...interface{}) string {
	switch classification {
	case analysis.Emerging:
		return goodStyle.Sprintf
	case analysis.Declining:
		return badStyle.Sprintf
	default:
		return infoStyle.Sprintf
	}
}

func runTrends(cmd *cobra.Command, args []string) {
	a := mustOpenApp(false)
	var ta *analysis.TrendAnalysis
	if trendsCached {
		ta = a.mustGraph().Trends
		a.close()
		if ta == nil {
			exitWithCode(ExitDataError, codeInvalidInput, "no trend analysis: run sg trends first")
		}
	} else {
		ctx, cancel := commandContext()
		defer cancel()
		var err error
		ta, err = a.session.AnalyzeTrends(ctx)
		if err != nil {
			a.fail("trend analysis", err)
		}
		a.close()
	}

	resp := TrendsResponse{
		Buckets:    viz.TrendBuckets(ta),
		Sparklines: make(map[int][]viz.Bar),
		Summary:    ta.Summary,
	}
	for _, tr := range ta.All() {
		resp.Sparklines[tr.ClusterID] = viz.Sparkline(tr.YearDistribution)
	}

	if humanOutput {
		for _, b := range resp.Buckets {
			style := bucketStyle(b.Classification)
			fmt.Printf("%s (%d)\n", style("%s", strings.ToUpper(b.Classification)), len(b.Trends))
			if len(b.Trends) == 0 {
				fmt.Println(subtleStyle.Sprint("  none"))
				fmt.Println()
				continue
			}
			table := newTable("Cluster", "Label", "Papers", "Years", "Velocity", "Trend")
			for _, tr := range b.Trends {
				table.Append(fmt.Sprint(tr.ClusterID),
					truncateString(tr.ClusterLabel, LabelMaxLen),
					fmt.Sprint(tr.PaperCount),
					fmt.Sprintf("%d-%d", tr.YearRange[0], tr.YearRange[1]),
					fmt.Sprintf("%+.2f", tr.Velocity),
					renderSparkline(resp.Sparklines[tr.ClusterID]))
			}
			table.Render()
			fmt.Println()
		}
		return
	}
	outputJSON(resp)
}
