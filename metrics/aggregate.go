package metrics

import (
	"math"

	"github.com/gramboard/instagram-insights/model"
)

// Totals are sums across a collection. A nil metric value contributes zero to
// its sum; that is the documented behavior for sums, and only for sums.
type Totals struct {
	Likes      int     `json:"likes"`
	Comments   int     `json:"comments"`
	Reach      float64 `json:"reach"`
	Views      float64 `json:"views"`
	Saves      float64 `json:"saves"`
	Shares     float64 `json:"shares"`
	Engagement int     `json:"engagement"`
	Score      int     `json:"score"`
}

// Averages are computed only over the subset of items where the metric is
// non-nil. An empty subset yields a nil average, never zero and never NaN.
type Averages struct {
	ER                       *float64 `json:"er"`
	ReachRate                *float64 `json:"reach_rate"`
	InteractionsPer1000Reach *float64 `json:"interactions_per_1000_reach"`
}

// Aggregate is the rollup over a set of normalized media items.
type Aggregate struct {
	Items    int      `json:"items"`
	Totals   Totals   `json:"totals"`
	Averages Averages `json:"averages"`
}

// AggregateItems rolls up a collection of normalized items. Items that were
// never normalized (nil Computed) are skipped; the builder normalizes every
// item before aggregation, so in practice this only guards synthetic inputs.
func AggregateItems(items []model.MediaItem) Aggregate {
	agg := Aggregate{}

	var (
		erSum, reachRateSum, ipmSum float64
		erN, reachRateN, ipmN       int
	)

	for i := range items {
		cm := items[i].Computed
		if cm == nil {
			continue
		}
		agg.Items++

		agg.Totals.Likes += cm.Likes
		agg.Totals.Comments += cm.Comments
		agg.Totals.Engagement += cm.Engagement
		agg.Totals.Score += cm.Score
		if cm.Reach != nil {
			agg.Totals.Reach += *cm.Reach
		}
		if cm.Views != nil {
			agg.Totals.Views += *cm.Views
		}
		if cm.Saves != nil {
			agg.Totals.Saves += *cm.Saves
		}
		if cm.Shares != nil {
			agg.Totals.Shares += *cm.Shares
		}

		if cm.ER != nil {
			erSum += *cm.ER
			erN++
		}
		if cm.ReachRate != nil {
			reachRateSum += *cm.ReachRate
			reachRateN++
		}
		if cm.InteractionsPer1000Reach != nil {
			ipmSum += *cm.InteractionsPer1000Reach
			ipmN++
		}
	}

	if erN > 0 {
		agg.Averages.ER = fptr(erSum / float64(erN))
	}
	if reachRateN > 0 {
		agg.Averages.ReachRate = fptr(reachRateSum / float64(reachRateN))
	}
	if ipmN > 0 {
		agg.Averages.InteractionsPer1000Reach = fptr(ipmSum / float64(ipmN))
	}

	return agg
}

// AggregateStories sums story insights across all active stories. The
// completion rate falls back to zero when no views were recorded: it is a
// presentation-only figure and this is the one documented place where zero
// stands in for "no data".
func AggregateStories(stories []model.StoryItem) model.StoriesAggregate {
	agg := model.StoriesAggregate{TotalStories: len(stories)}

	for i := range stories {
		ins := stories[i].Insights
		agg.TotalViews += ins.Views
		agg.TotalReach += ins.Reach
		agg.TotalReplies += ins.Replies
		agg.TotalExits += ins.Exits
		agg.TotalTapsForward += ins.TapsForward
		agg.TotalTapsBack += ins.TapsBack
	}

	if agg.TotalViews > 0 {
		agg.AvgCompletionRate = math.Round((1 - agg.TotalExits/agg.TotalViews) * 100)
	}

	return agg
}
