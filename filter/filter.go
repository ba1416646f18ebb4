// Package filter applies date-range, weekday, media-type and search filters
// to normalized media items and ranks them by derived metrics.
package filter

import (
	"strings"
	"time"

	"github.com/gramboard/instagram-insights/model"
)

// Filters describes one filtering pass over a media collection. Zero values
// mean "no constraint" for each field.
type Filters struct {
	// From/To bound the item timestamp, inclusive on both ends. When either
	// is set, items with a missing (zero) timestamp are excluded.
	From *time.Time
	To   *time.Time

	// Weekday restricts to items posted on a given day of week.
	Weekday *time.Weekday

	// MediaType restricts to one media type. REELS is matched via the
	// product-type override, and conversely VIDEO does not match reels.
	MediaType string

	// WeekOfMonth restricts to the Nth week of the month, 1-based, where
	// week N covers days (N-1)*7+1 through N*7.
	WeekOfMonth int

	// Search is a case-insensitive substring match over caption and ID.
	Search string
}

// Apply returns the items passing every active filter, preserving input
// order. The input slice is not modified.
func (f Filters) Apply(items []model.MediaItem) []model.MediaItem {
	out := make([]model.MediaItem, 0, len(items))
	for i := range items {
		if f.matches(&items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}

func (f Filters) matches(item *model.MediaItem) bool {
	if f.From != nil || f.To != nil {
		if item.Timestamp.IsZero() {
			return false
		}
		if f.From != nil && item.Timestamp.Before(*f.From) {
			return false
		}
		if f.To != nil && item.Timestamp.After(*f.To) {
			return false
		}
	}

	if f.Weekday != nil {
		if item.Timestamp.IsZero() || item.Timestamp.Weekday() != *f.Weekday {
			return false
		}
	}

	if f.MediaType != "" {
		if effectiveType(item) != f.MediaType {
			return false
		}
	}

	if f.WeekOfMonth > 0 {
		if item.Timestamp.IsZero() || weekOfMonth(item.Timestamp) != f.WeekOfMonth {
			return false
		}
	}

	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(item.Caption), needle) &&
			!strings.Contains(strings.ToLower(item.ID), needle) {
			return false
		}
	}

	return true
}

// effectiveType is the media type used for filtering, with the reels
// product-type override applied.
func effectiveType(item *model.MediaItem) string {
	if item.IsReel() {
		return model.MediaTypeReels
	}
	return item.MediaType
}

// weekOfMonth is ceil(dayOfMonth / 7), so the 1st through 7th are week 1.
func weekOfMonth(ts time.Time) int {
	return (ts.Day() + 6) / 7
}
