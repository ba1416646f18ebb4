package client

import "github.com/gramboard/instagram-insights/model"

// Media classification for candidate selection. The Graph API rejects certain
// metric combinations for certain media types, and which combinations work is
// not documented, so each classification carries its own ordered list of
// metric sets to try, from most complete to least complete.
type mediaClass string

const (
	classCarousel mediaClass = "carousel"
	classReel     mediaClass = "reel"
	classVideo    mediaClass = "video"
	classImage    mediaClass = "image"
)

// classifyMedia maps the item's media_type/media_product_type pair onto the
// candidate-table classification. The product type wins for reels because
// reels report media_type VIDEO.
func classifyMedia(mediaType, mediaProductType string) mediaClass {
	if mediaProductType == model.MediaProductTypeReels || mediaType == model.MediaTypeReels {
		return classReel
	}
	switch mediaType {
	case model.MediaTypeCarousel:
		return classCarousel
	case model.MediaTypeVideo:
		return classVideo
	default:
		return classImage
	}
}

// mediaCandidates is the ordered fallback table per classification. The first
// candidate whose response parses and yields at least one recognized metric
// wins; later candidates progressively drop the metrics most often rejected.
var mediaCandidates = map[mediaClass][]string{
	classReel: {
		"views,reach,saved,shares,total_interactions",
		"views,reach,saved,shares",
		"plays,reach,saved,shares",
		"reach,saved",
		"reach",
	},
	classCarousel: {
		"views,reach,saved,shares,total_interactions",
		"impressions,reach,saved,shares",
		"reach,saved",
		"reach",
	},
	classVideo: {
		"views,reach,saved,shares,total_interactions",
		"views,reach,saved",
		"impressions,reach,saved",
		"reach,saved",
		"reach",
	},
	classImage: {
		"views,reach,saved,shares,total_interactions",
		"impressions,reach,saved,shares",
		"impressions,reach,saved",
		"reach,saved",
		"reach",
	},
}

// storyCandidates is the fallback table for story insights. Stories moved
// from impressions/taps metrics to views/navigation across API versions.
var storyCandidates = []string{
	"views,reach,replies,exits,taps_forward,taps_back",
	"impressions,reach,replies,exits,taps_forward,taps_back",
	"views,reach,replies",
	"reach,replies",
	"reach",
}

// recognizedMetrics gates candidate acceptance: a response counts as usable
// only if it yields at least one of these keys. Anything else in a response
// is kept in the bag but does not count toward acceptance.
var recognizedMetrics = map[string]bool{
	"views":              true,
	"plays":              true,
	"impressions":        true,
	"reach":              true,
	"saved":              true,
	"saves":              true,
	"shares":             true,
	"total_interactions": true,
	"engagement":         true,
	"replies":            true,
	"exits":              true,
	"taps_forward":       true,
	"taps_back":          true,
}

// hasRecognizedMetric reports whether the bag contains at least one metric
// key the pipeline knows how to use.
func hasRecognizedMetric(bag model.RawInsightsBag) bool {
	for key := range bag {
		if recognizedMetrics[key] {
			return true
		}
	}
	return false
}
