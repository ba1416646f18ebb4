// Package dashboard orchestrates the full dashboard build: profile, media,
// per-item insight fan-out, normalization, stories, demographics and the
// aggregate rollups, with diagnostics collected along the way.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/gramboard/instagram-insights/client"
	"github.com/gramboard/instagram-insights/common"
	"github.com/gramboard/instagram-insights/metrics"
	"github.com/gramboard/instagram-insights/model"
)

// Builder assembles dashboard payloads from an upstream client.
type Builder struct {
	client client.Client
	cfg    common.Config
}

// NewBuilder creates a Builder. The config is copied; defaults are applied
// for unset limits.
func NewBuilder(c client.Client, cfg common.Config) *Builder {
	cfg.ApplyDefaults()
	return &Builder{client: c, cfg: cfg}
}

// Build fetches everything and assembles the normalized dashboard payload.
//
// Failure semantics follow the bulkhead pattern: profile, media-list and
// demographics failures abort the build (aggregation is meaningless without
// them), while per-item insight failures, story failures and online-follower
// failures degrade to partial data plus a diagnostic message.
func (b *Builder) Build(ctx context.Context) (*model.DashboardPayload, error) {
	started := time.Now()
	diag := newDiagnostics()

	profile, err := b.client.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard build failed: %w", err)
	}

	items, err := b.client.GetMedia(ctx, b.cfg.MediaLimit)
	if err != nil {
		return nil, fmt.Errorf("dashboard build failed: %w", err)
	}

	b.enrichMedia(ctx, items, profile.FollowersCount, diag)

	stories := b.buildStories(ctx, diag)

	demographics, err := b.client.GetDemographics(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard build failed: %w", err)
	}
	if demographics.Empty() {
		diag.add("demographic breakdowns are empty; the account may be too small for audience insights")
	}

	online, err := b.client.GetOnlineFollowers(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch online followers, continuing without")
		diag.add("online follower data unavailable")
		online = model.OnlineFollowers{}
	}

	payload := &model.DashboardPayload{
		Profile:          *profile,
		Media:            items,
		Stories:          stories,
		StoriesAggregate: metrics.AggregateStories(stories),
		Demographics:     demographics,
		OnlineFollowers:  online,
		Messages:         diag.messages(),
		GeneratedAt:      time.Now().UTC(),
	}

	log.Info().
		Int("media", len(items)).
		Int("stories", len(stories)).
		Dur("took", time.Since(started)).
		Msg("Dashboard payload built")

	return payload, nil
}

// enrichMedia runs the bounded insight fan-out and normalizes every item.
// Only the insightLimit most recent items are queried upstream; the rest are
// normalized against an empty bag so they still carry a computed record.
func (b *Builder) enrichMedia(ctx context.Context, items []model.MediaItem, followers int64, diag *diagnostics) {
	insightLimit := b.cfg.InsightsLimit
	if insightLimit > len(items) {
		insightLimit = len(items)
	}
	if insightLimit < len(items) {
		diag.addf("insights limited to %d most recent posts (%d posts listed)", insightLimit, len(items))
	}

	// Batches run sequentially to respect upstream rate limits; fetches
	// within a batch run in parallel. Each goroutine owns exactly one item
	// slot, so no locking is needed.
	for start := 0; start < insightLimit; start += b.cfg.BatchSize {
		end := start + b.cfg.BatchSize
		if end > insightLimit {
			end = insightLimit
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			item := &items[i]
			g.Go(func() error {
				itemCtx, cancel := context.WithTimeout(gctx, b.cfg.RequestTimeout)
				defer cancel()

				bag := b.client.GetMediaInsights(itemCtx, item.ID, item.MediaType, item.MediaProductType)
				metrics.NormalizeItem(item, bag, followers)
				return nil
			})
		}
		// The goroutines never return errors; insight failures already
		// degraded to empty bags inside the client.
		_ = g.Wait()
	}

	for i := insightLimit; i < len(items); i++ {
		metrics.NormalizeItem(&items[i], model.RawInsightsBag{}, followers)
	}

	noInsights := 0
	partial := 0
	for i := 0; i < insightLimit; i++ {
		cm := items[i].Computed
		if !cm.HasInsights {
			noInsights++
		} else if cm.IsPartial {
			partial++
		}
	}
	if noInsights > 0 {
		diag.addf("no insights available for %d of %d posts", noInsights, insightLimit)
	}
	if partial > 0 {
		diag.addf("%d of %d posts returned partial insights", partial, insightLimit)
	}
}

// buildStories fetches the active stories and their insights. Story failures
// never abort the dashboard; they degrade to an empty story list.
func (b *Builder) buildStories(ctx context.Context, diag *diagnostics) []model.StoryItem {
	stories, err := b.client.GetStories(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch stories, continuing without")
		diag.add("story data unavailable")
		return nil
	}

	for start := 0; start < len(stories); start += b.cfg.BatchSize {
		end := start + b.cfg.BatchSize
		if end > len(stories) {
			end = len(stories)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			story := &stories[i]
			g.Go(func() error {
				storyCtx, cancel := context.WithTimeout(gctx, b.cfg.RequestTimeout)
				defer cancel()

				bag := b.client.GetStoryInsights(storyCtx, story.ID)
				story.Insights = metrics.NormalizeStory(bag)
				return nil
			})
		}
		_ = g.Wait()
	}

	return stories
}
