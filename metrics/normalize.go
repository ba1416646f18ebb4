package metrics

import (
	"math"

	"github.com/gramboard/instagram-insights/model"
)

// Score weights for the internal ranking heuristic. These are ranking policy
// carried over from the product, not derived from anything measurable:
// a share is worth four likes, a save three, a comment two.
const (
	scoreWeightLikes    = 1
	scoreWeightComments = 2
	scoreWeightSaves    = 3
	scoreWeightShares   = 4
)

// expectedMetrics lists the insight metrics every item is expected to report,
// in the order missing_metrics is populated. Views is always expected, even
// for media types the upstream never reports views for; the resulting
// "missing" entry is a deliberate caveat in the dashboard.
var expectedMetrics = []string{"saves", "shares", "reach", "views"}

// Normalize converts an item's native counters plus a raw insights bag into
// the canonical ComputedMetrics record. It is a pure function: no branch ever
// returns an error, missing data degrades to nil fields and is tracked in
// MissingMetrics. followersCount <= 0 is treated as "followers unknown", so
// every follower-denominated rate comes back nil rather than dividing by an
// unusable value.
func Normalize(likeCount, commentsCount int, bag model.RawInsightsBag, followersCount int64) model.ComputedMetrics {
	cm := model.ComputedMetrics{
		Likes:    likeCount,
		Comments: commentsCount,
	}

	saves, _, savesOK := Pick(bag, savesKeys...)
	shares, _, sharesOK := Pick(bag, sharesKeys...)
	reach, _, reachOK := Pick(bag, reachKeys...)
	views, viewsSource, viewsOK := Pick(bag, viewsKeys...)
	totalInteractions, _, tiOK := Pick(bag, totalInteractionsKeys...)

	if savesOK {
		cm.Saves = fptr(saves)
	}
	if sharesOK {
		cm.Shares = fptr(shares)
	}
	if reachOK {
		cm.Reach = fptr(reach)
	}
	if viewsOK {
		cm.Views = fptr(views)
		cm.ViewsSource = sptr(viewsSource)
	}
	if tiOK {
		cm.TotalInteractions = fptr(totalInteractions)
	}

	// Engagement is always computable: nil insight components count as zero.
	savesPart := 0
	if savesOK {
		savesPart = int(saves)
	}
	sharesPart := 0
	if sharesOK {
		sharesPart = int(shares)
	}
	cm.Engagement = likeCount + commentsCount + savesPart + sharesPart
	cm.Score = likeCount*scoreWeightLikes +
		commentsCount*scoreWeightComments +
		savesPart*scoreWeightSaves +
		sharesPart*scoreWeightShares

	haveFollowers := followersCount > 0
	if haveFollowers {
		cm.ER = fptr(float64(cm.Engagement) / float64(followersCount) * 100)
	}
	if haveFollowers && reachOK {
		cm.ReachRate = fptr(reach / float64(followersCount) * 100)
	}
	if reachOK && reach > 0 && viewsOK {
		cm.ViewsRate = fptr(views / reach * 100)
	}
	if reachOK && reach > 0 {
		cm.InteractionsPer1000Reach = fptr(float64(cm.Engagement) / reach * 1000)
	}

	resolved := map[string]bool{
		"saves":  savesOK,
		"shares": sharesOK,
		"reach":  reachOK,
		"views":  viewsOK,
	}
	for _, name := range expectedMetrics {
		if !resolved[name] {
			cm.MissingMetrics = append(cm.MissingMetrics, name)
		}
	}

	cm.HasInsights = len(bag) > 0
	cm.IsPartial = len(cm.MissingMetrics) > 0

	return cm
}

// MergeBag produces the normalized insights bag stored on the item: the
// original bag plus the resolved canonical keys, so that downstream readers
// (and a re-normalization over the stored bag) see a stable shape regardless
// of which synonym the upstream happened to use.
func MergeBag(bag model.RawInsightsBag, cm model.ComputedMetrics) model.RawInsightsBag {
	merged := make(model.RawInsightsBag, len(bag)+5)
	for k, v := range bag {
		merged[k] = v
	}
	if cm.Saves != nil {
		merged["saved"] = *cm.Saves
	}
	if cm.Shares != nil {
		merged["shares"] = *cm.Shares
	}
	if cm.Reach != nil {
		merged["reach"] = *cm.Reach
	}
	if cm.Views != nil {
		merged["views"] = *cm.Views
	}
	if cm.TotalInteractions != nil {
		merged["total_interactions"] = *cm.TotalInteractions
	}
	return merged
}

// NormalizeItem runs Normalize over an item's native counters and the given
// raw bag, then attaches both the computed record and the merged bag to the
// item. This is the single enrichment step; afterwards the item is read-only.
func NormalizeItem(item *model.MediaItem, bag model.RawInsightsBag, followersCount int64) {
	cm := Normalize(item.LikeCount, item.CommentsCount, bag, followersCount)
	item.Computed = &cm
	item.Insights = MergeBag(bag, cm)
}

func fptr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func sptr(s string) *string {
	return &s
}
