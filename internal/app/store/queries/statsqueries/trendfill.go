package statsqueries

import (
	"fmt"
	"time"
)

// FillTrend expands raw buckets into a dense window ending at now:
// the last 7 days, 12 months or 5 years depending on timeframe.
// Buckets with no movements appear with a zero count, oldest first.
func FillTrend(raw []TrendPoint, timeframe string, now time.Time) []TrendPoint {
	byDate := make(map[string]int64, len(raw))
	for _, p := range raw {
		byDate[p.Date] = p.Count
	}

	var labels []string
	switch timeframe {
	case TimeframeYear:
		for i := 4; i >= 0; i-- {
			labels = append(labels, fmt.Sprintf("%d", now.Year()-i))
		}
	case TimeframeMonth:
		for i := 11; i >= 0; i-- {
			m := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
			labels = append(labels, m.Format("2006-01"))
		}
	default:
		for i := 6; i >= 0; i-- {
			labels = append(labels, now.AddDate(0, 0, -i).Format("2006-01-02"))
		}
	}

	out := make([]TrendPoint, 0, len(labels))
	for _, l := range labels {
		out = append(out, TrendPoint{Date: l, Count: byDate[l]})
	}
	return out
}
