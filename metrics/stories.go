package metrics

import (
	"math"

	"github.com/gramboard/instagram-insights/model"
)

// Story metric synonym lists. Story views were reported as impressions before
// the views rename; both shapes still occur depending on API version.
var (
	storyViewsKeys = []string{"views", "impressions"}
)

// NormalizeStory converts a story's raw insights bag into the fixed
// StoryInsights record. Stories do not carry null-vs-zero semantics: they are
// a 24-hour presentation surface and absent metrics read as zero.
func NormalizeStory(bag model.RawInsightsBag) model.StoryInsights {
	ins := model.StoryInsights{}

	if v, _, ok := Pick(bag, storyViewsKeys...); ok {
		ins.Views = v
	}
	if v, _, ok := Pick(bag, "reach"); ok {
		ins.Reach = v
	}
	if v, _, ok := Pick(bag, "replies"); ok {
		ins.Replies = v
	}
	if v, _, ok := Pick(bag, "exits"); ok {
		ins.Exits = v
	}
	if v, _, ok := Pick(bag, "taps_forward"); ok {
		ins.TapsForward = v
	}
	if v, _, ok := Pick(bag, "taps_back"); ok {
		ins.TapsBack = v
	}

	if ins.Views > 0 {
		ins.CompletionRate = math.Round((1 - ins.Exits/ins.Views) * 100)
	}

	return ins
}
