package filter

import (
	"math"
	"sort"

	"github.com/gramboard/instagram-insights/model"
)

// Sort metric keys. Unknown keys fall back to score.
const (
	SortByLikes               = "likes"
	SortByComments            = "comments"
	SortBySaves               = "saves"
	SortByShares              = "shares"
	SortByReach               = "reach"
	SortByViews               = "views"
	SortByEngagement          = "engagement"
	SortByScore               = "score"
	SortByER                  = "er"
	SortByReachRate           = "reach_rate"
	SortByViewsRate           = "views_rate"
	SortByInteractionsPer1000 = "interactions_per_1000_reach"
)

// SortByMetric returns a copy of items ranked by the named derived metric,
// descending by default. The sort is stable: ties keep input order. Items
// with a nil metric value rank below every real value, including zero.
func SortByMetric(items []model.MediaItem, metric string, ascending bool) []model.MediaItem {
	out := make([]model.MediaItem, len(items))
	copy(out, items)

	sort.SliceStable(out, func(i, j int) bool {
		vi := metricValue(&out[i], metric)
		vj := metricValue(&out[j], metric)
		if ascending {
			return vi < vj
		}
		return vi > vj
	})
	return out
}

// metricValue extracts the named metric from an item's computed record. Nil
// values map to -Inf so they sink to the bottom of a descending ranking.
func metricValue(item *model.MediaItem, metric string) float64 {
	cm := item.Computed
	if cm == nil {
		return math.Inf(-1)
	}

	switch metric {
	case SortByLikes:
		return float64(cm.Likes)
	case SortByComments:
		return float64(cm.Comments)
	case SortBySaves:
		return deref(cm.Saves)
	case SortByShares:
		return deref(cm.Shares)
	case SortByReach:
		return deref(cm.Reach)
	case SortByViews:
		return deref(cm.Views)
	case SortByEngagement:
		return float64(cm.Engagement)
	case SortByER:
		return deref(cm.ER)
	case SortByReachRate:
		return deref(cm.ReachRate)
	case SortByViewsRate:
		return deref(cm.ViewsRate)
	case SortByInteractionsPer1000:
		return deref(cm.InteractionsPer1000Reach)
	default:
		return float64(cm.Score)
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return math.Inf(-1)
	}
	return *v
}
