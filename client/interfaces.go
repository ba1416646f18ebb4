// Package client implements the Instagram Graph API client used to fetch
// profile data, media, stories, per-item insights and audience demographics.
package client

import (
	"context"

	"github.com/gramboard/instagram-insights/model"
)

// Client is the upstream API surface the dashboard builder depends on.
// Implementations must honor the error taxonomy: profile/media/stories/
// demographics calls return request-level errors (auth failures are
// distinguishable via IsAuthError), while the per-item insight calls never
// fail: they degrade to an empty bag.
type Client interface {
	// GetProfile retrieves the business account profile.
	GetProfile(ctx context.Context) (*model.Profile, error)

	// GetMedia retrieves the account's media items, most recent first,
	// following pagination up to limit items. Items carry native counters
	// but no insights yet.
	GetMedia(ctx context.Context, limit int) ([]model.MediaItem, error)

	// GetMediaInsights fetches the richest available raw insights bag for
	// one media item, trying candidate metric sets in order. Exhaustion of
	// all candidates returns an empty bag; this call never reports an error
	// because absence of insights is an expected outcome for single items.
	GetMediaInsights(ctx context.Context, mediaID, mediaType, mediaProductType string) model.RawInsightsBag

	// GetStories retrieves the currently active stories (no insights yet).
	GetStories(ctx context.Context) ([]model.StoryItem, error)

	// GetStoryInsights fetches the raw insights bag for one story, with the
	// same degrade-to-empty semantics as GetMediaInsights.
	GetStoryInsights(ctx context.Context, storyID string) model.RawInsightsBag

	// GetDemographics retrieves the follower demographic breakdowns. Empty
	// breakdowns (small accounts) are returned as empty maps, not errors.
	GetDemographics(ctx context.Context) (model.Demographics, error)

	// GetOnlineFollowers retrieves the hour-of-day online follower counts.
	GetOnlineFollowers(ctx context.Context) (model.OnlineFollowers, error)
}
