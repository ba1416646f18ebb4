package model

import "time"

// RawInsightsBag is the flat metric name -> value mapping produced by a single
// insights query. Keys vary by media type and by which candidate metric set
// succeeded upstream. Bags are ephemeral: they exist between fetch and
// normalization, after which the merged bag lives on the item.
type RawInsightsBag map[string]float64

// Media type values as reported by the Graph API.
const (
	MediaTypeImage    = "IMAGE"
	MediaTypeVideo    = "VIDEO"
	MediaTypeCarousel = "CAROUSEL_ALBUM"
	MediaTypeReels    = "REELS"

	// MediaProductTypeReels distinguishes reels from plain videos; the
	// media_type field alone is not reliable for this.
	MediaProductTypeReels = "REELS"
)

// MediaItem represents one post, reel or carousel fetched from the account's
// media edge. It is enriched in place by the normalizer and treated as
// read-only by the filtering, sorting and aggregation layers.
type MediaItem struct {
	ID               string           `json:"id"`
	Caption          string           `json:"caption,omitempty"`
	MediaType        string           `json:"media_type"`
	MediaProductType string           `json:"media_product_type,omitempty"`
	MediaURL         string           `json:"media_url,omitempty"`
	ThumbnailURL     string           `json:"thumbnail_url,omitempty"`
	Permalink        string           `json:"permalink,omitempty"`
	Timestamp        time.Time        `json:"timestamp"`
	LikeCount        int              `json:"like_count"`
	CommentsCount    int              `json:"comments_count"`
	Insights         RawInsightsBag   `json:"insights,omitempty"`
	Computed         *ComputedMetrics `json:"computed,omitempty"`
}

// IsReel reports whether the item should be treated as a reel. The product
// type overrides media_type because the API reports reels as VIDEO.
func (m *MediaItem) IsReel() bool {
	return m.MediaProductType == MediaProductTypeReels || m.MediaType == MediaTypeReels
}

// ComputedMetrics is the canonical derived-metric record for a media item.
// Pointer fields distinguish "not available from the API" (nil) from
// "available and zero" (pointer to 0); the two must never be conflated.
type ComputedMetrics struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`

	Saves             *float64 `json:"saves"`
	Shares            *float64 `json:"shares"`
	Reach             *float64 `json:"reach"`
	Views             *float64 `json:"views"`
	ViewsSource       *string  `json:"views_source"`
	TotalInteractions *float64 `json:"total_interactions"`

	// Engagement and Score are always computable from the native counters
	// alone, so they are plain ints.
	Engagement int `json:"engagement"`
	Score      int `json:"score"`

	ER                       *float64 `json:"er"`
	ReachRate                *float64 `json:"reach_rate"`
	ViewsRate                *float64 `json:"views_rate"`
	InteractionsPer1000Reach *float64 `json:"interactions_per_1000_reach"`

	HasInsights    bool     `json:"has_insights"`
	IsPartial      bool     `json:"is_partial"`
	MissingMetrics []string `json:"missing_metrics"`
}

// StoryInsights holds the per-story metrics the stories endpoint reports.
// Stories expire upstream after 24 hours, so these are only ever a point-in-
// time capture.
type StoryInsights struct {
	Views          float64 `json:"views"`
	Reach          float64 `json:"reach"`
	Replies        float64 `json:"replies"`
	Exits          float64 `json:"exits"`
	TapsForward    float64 `json:"taps_forward"`
	TapsBack       float64 `json:"taps_back"`
	CompletionRate float64 `json:"completion_rate"`
}

// StoryItem represents one active story frame.
type StoryItem struct {
	ID        string        `json:"id"`
	MediaType string        `json:"media_type"`
	MediaURL  string        `json:"media_url,omitempty"`
	Permalink string        `json:"permalink,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Insights  StoryInsights `json:"insights"`
}

// StoriesAggregate is the rollup across all active stories.
type StoriesAggregate struct {
	TotalStories      int     `json:"total_stories"`
	TotalViews        float64 `json:"total_views"`
	TotalReach        float64 `json:"total_reach"`
	TotalReplies      float64 `json:"total_replies"`
	TotalExits        float64 `json:"total_exits"`
	TotalTapsForward  float64 `json:"total_taps_forward"`
	TotalTapsBack     float64 `json:"total_taps_back"`
	AvgCompletionRate float64 `json:"avg_completion_rate"`
}

// Profile holds the business account profile fields used by the dashboard.
type Profile struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Name              string `json:"name,omitempty"`
	Biography         string `json:"biography,omitempty"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
	Website           string `json:"website,omitempty"`
	FollowersCount    int64  `json:"followers_count"`
	FollowsCount      int64  `json:"follows_count"`
	MediaCount        int64  `json:"media_count"`
}

// Demographics is the follower distribution broken down by dimension, as
// reported by the audience insights endpoint. Empty maps mean the upstream
// returned nothing (small accounts), which is an expected absence.
type Demographics struct {
	Age     map[string]float64 `json:"age"`
	Gender  map[string]float64 `json:"gender"`
	Country map[string]float64 `json:"country"`
	City    map[string]float64 `json:"city"`
}

// Empty reports whether no breakdown carries any data.
func (d Demographics) Empty() bool {
	return len(d.Age) == 0 && len(d.Gender) == 0 && len(d.Country) == 0 && len(d.City) == 0
}

// OnlineFollowers maps hour-of-day ("0".."23") to the follower count online
// in that hour.
type OnlineFollowers map[string]float64

// DashboardPayload is the complete normalized payload handed to the
// presentation layer. Messages is a required diagnostics channel: any
// systemic limitation (insights truncated, demographics empty, N items
// partial) is surfaced there rather than silently dropped.
type DashboardPayload struct {
	Profile          Profile          `json:"profile"`
	Media            []MediaItem      `json:"media"`
	Stories          []StoryItem      `json:"stories"`
	StoriesAggregate StoriesAggregate `json:"stories_aggregate"`
	Demographics     Demographics     `json:"demographics"`
	OnlineFollowers  OnlineFollowers  `json:"online_followers"`
	Messages         []string         `json:"messages"`
	GeneratedAt      time.Time        `json:"generated_at"`
}
