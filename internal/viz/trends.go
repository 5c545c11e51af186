package viz

import (
	"math"
	"slices"

	"github.com/matsen/scholargraph/internal/analysis"
)

// MinBarHeight keeps zero-count years visible on a rendered scale.
const MinBarHeight = 2.0

// Bar is one year of a trend sparkline. Height is on a 0-100 scale.
type Bar struct {
	Year   int     `json:"year"`
	Count  int     `json:"count"`
	Height float64 `json:"height"`
}

// Sparkline converts a year distribution into bars sorted by year.
func Sparkline(dist map[int]int) []Bar {
	if len(dist) == 0 {
		return nil
	}

	years := make([]int, 0, len(dist))
	maxCount := 0
	for year, n := range dist {
		years = append(years, year)
		maxCount = max(maxCount, n)
	}
	slices.Sort(years)

	bars := make([]Bar, len(years))
	for i, year := range years {
		h := 0.0
		if maxCount > 0 {
			h = float64(dist[year]) / float64(maxCount) * 100
		}
		bars[i] = Bar{Year: year, Count: dist[year], Height: math.Max(MinBarHeight, h)}
	}
	return bars
}

// Bucket is one classification of a trend analysis.
type Bucket struct {
	Classification string                  `json:"classification"`
	Trends         []analysis.ClusterTrend `json:"trends"`
}

// TrendBuckets returns the emerging, stable and declining buckets in that
// fixed order, exactly as supplied by the analysis payload.
func TrendBuckets(t *analysis.TrendAnalysis) []Bucket {
	if t == nil {
		return nil
	}
	return []Bucket{
		{Classification: analysis.Emerging, Trends: t.Emerging},
		{Classification: analysis.Stable, Trends: t.Stable},
		{Classification: analysis.Declining, Trends: t.Declining},
	}
}
