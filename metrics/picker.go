// Package metrics implements the metric normalization and derivation core:
// resolving raw insight bags against synonym key lists, computing the
// canonical per-item derived metrics, and rolling collections up into
// totals, averages and bucketed aggregates.
package metrics

import (
	"math"

	"github.com/gramboard/instagram-insights/model"
)

// Synonym priority lists for metric resolution. The Graph API has renamed
// metrics across versions (saved -> saves, impressions -> views), so the
// lists are kept as data rather than scattered conditionals. Order matters:
// the first present key wins.
var (
	savesKeys             = []string{"saved", "saves"}
	sharesKeys            = []string{"shares"}
	reachKeys             = []string{"reach"}
	viewsKeys             = []string{"views"}
	totalInteractionsKeys = []string{"total_interactions", "engagement"}
)

// Pick resolves the first of keys that is present in the bag as a finite
// number. It returns the matched value, the key that supplied it, and whether
// any key matched. It never guesses or defaults to zero: absence of every key
// is reported as ok=false with a zero value the caller must not use.
func Pick(bag model.RawInsightsBag, keys ...string) (value float64, source string, ok bool) {
	for _, key := range keys {
		v, present := bag[key]
		if !present {
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		return v, key, true
	}
	return 0, "", false
}
