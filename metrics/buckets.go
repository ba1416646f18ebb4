package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/gramboard/instagram-insights/model"
)

// Bucket is one keyed slot of a bucketed aggregation. Buckets with zero items
// are never emitted; an absent bucket means "no posts", which is different
// from "posts with zero metrics".
type Bucket struct {
	Key string `json:"key"`
	Aggregate
}

// aggregateBy groups items by keyFn and aggregates each group. Keys are
// sorted so the output ordering never depends on map iteration order; the
// per-bucket numbers are independent of ordering either way.
func aggregateBy(items []model.MediaItem, keyFn func(*model.MediaItem) string) []Bucket {
	groups := make(map[string][]model.MediaItem)
	for i := range items {
		key := keyFn(&items[i])
		groups[key] = append(groups[key], items[i])
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	buckets := make([]Bucket, 0, len(keys))
	for _, key := range keys {
		buckets = append(buckets, Bucket{Key: key, Aggregate: AggregateItems(groups[key])})
	}
	return buckets
}

// AggregateByWeekday buckets items by the weekday of their timestamp,
// ordered Monday through Sunday.
func AggregateByWeekday(items []model.MediaItem) []Bucket {
	buckets := aggregateBy(items, func(m *model.MediaItem) string {
		return m.Timestamp.Weekday().String()
	})

	order := map[string]int{
		time.Monday.String():    0,
		time.Tuesday.String():   1,
		time.Wednesday.String(): 2,
		time.Thursday.String():  3,
		time.Friday.String():    4,
		time.Saturday.String():  5,
		time.Sunday.String():    6,
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return order[buckets[i].Key] < order[buckets[j].Key]
	})
	return buckets
}

// AggregateByHour buckets items by the hour of day of their timestamp,
// keyed "00".."23" so lexical order is chronological order.
func AggregateByHour(items []model.MediaItem) []Bucket {
	return aggregateBy(items, func(m *model.MediaItem) string {
		return fmt.Sprintf("%02d", m.Timestamp.Hour())
	})
}

// AggregateByMediaType buckets items by their effective media type. Reels are
// keyed as REELS via the product-type override rather than the raw media_type.
func AggregateByMediaType(items []model.MediaItem) []Bucket {
	return aggregateBy(items, func(m *model.MediaItem) string {
		if m.IsReel() {
			return model.MediaTypeReels
		}
		return m.MediaType
	})
}

// AggregateByWeek buckets items by ISO year and week ("2026-W35"), sorted
// ascending. The zero-padded week number keeps lexical order chronological.
func AggregateByWeek(items []model.MediaItem) []Bucket {
	return aggregateBy(items, func(m *model.MediaItem) string {
		year, week := m.Timestamp.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	})
}
