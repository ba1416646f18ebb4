package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gramboard/instagram-insights/common"
	"github.com/gramboard/instagram-insights/model"
)

// fakeClient implements client.Client with overridable behavior per call.
type fakeClient struct {
	profile         *model.Profile
	profileErr      error
	media           []model.MediaItem
	mediaErr        error
	stories         []model.StoryItem
	storiesErr      error
	demographics    model.Demographics
	demographicsErr error
	online          model.OnlineFollowers
	onlineErr       error

	insightsFn      func(mediaID string) model.RawInsightsBag
	storyInsightsFn func(storyID string) model.RawInsightsBag

	insightCalls int64
	inFlight     int64
	maxInFlight  int64
	mu           sync.Mutex
}

func (f *fakeClient) GetProfile(ctx context.Context) (*model.Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	if f.profile == nil {
		return &model.Profile{ID: "acct", Username: "acme", FollowersCount: 1000}, nil
	}
	return f.profile, nil
}

func (f *fakeClient) GetMedia(ctx context.Context, limit int) ([]model.MediaItem, error) {
	if f.mediaErr != nil {
		return nil, f.mediaErr
	}
	if limit < len(f.media) {
		return f.media[:limit], nil
	}
	return f.media, nil
}

func (f *fakeClient) GetMediaInsights(ctx context.Context, mediaID, mediaType, mediaProductType string) model.RawInsightsBag {
	cur := atomic.AddInt64(&f.inFlight, 1)
	defer atomic.AddInt64(&f.inFlight, -1)
	for {
		prev := atomic.LoadInt64(&f.maxInFlight)
		if cur <= prev || atomic.CompareAndSwapInt64(&f.maxInFlight, prev, cur) {
			break
		}
	}
	atomic.AddInt64(&f.insightCalls, 1)

	if f.insightsFn != nil {
		return f.insightsFn(mediaID)
	}
	return model.RawInsightsBag{"reach": 100, "saved": 2, "shares": 1, "views": 300}
}

func (f *fakeClient) GetStories(ctx context.Context) ([]model.StoryItem, error) {
	if f.storiesErr != nil {
		return nil, f.storiesErr
	}
	return f.stories, nil
}

func (f *fakeClient) GetStoryInsights(ctx context.Context, storyID string) model.RawInsightsBag {
	if f.storyInsightsFn != nil {
		return f.storyInsightsFn(storyID)
	}
	return model.RawInsightsBag{"views": 100, "exits": 20}
}

func (f *fakeClient) GetDemographics(ctx context.Context) (model.Demographics, error) {
	if f.demographicsErr != nil {
		return model.Demographics{}, f.demographicsErr
	}
	return f.demographics, nil
}

func (f *fakeClient) GetOnlineFollowers(ctx context.Context) (model.OnlineFollowers, error) {
	if f.onlineErr != nil {
		return nil, f.onlineErr
	}
	return f.online, nil
}

func mediaItems(n int) []model.MediaItem {
	items := make([]model.MediaItem, n)
	for i := range items {
		items[i] = model.MediaItem{
			ID:            strings.Repeat("0", 3) + string(rune('a'+i%26)),
			MediaType:     model.MediaTypeImage,
			Timestamp:     time.Date(2026, 8, 1+i%28, 10, 0, 0, 0, time.UTC),
			LikeCount:     i + 1,
			CommentsCount: 1,
		}
	}
	return items
}

func testConfig() common.Config {
	return common.Config{
		MediaLimit:     100,
		InsightsLimit:  50,
		BatchSize:      5,
		RequestTimeout: time.Second,
	}
}

func TestBuildHappyPath(t *testing.T) {
	fc := &fakeClient{
		media:   mediaItems(3),
		stories: []model.StoryItem{{ID: "s1"}, {ID: "s2"}},
		demographics: model.Demographics{
			Country: map[string]float64{"US": 10},
		},
		online: model.OnlineFollowers{"12": 40},
	}

	payload, err := NewBuilder(fc, testConfig()).Build(context.Background())
	require.NoError(t, err)

	require.Len(t, payload.Media, 3)
	for _, item := range payload.Media {
		require.NotNil(t, item.Computed)
		assert.True(t, item.Computed.HasInsights)
	}
	assert.Equal(t, 2, payload.StoriesAggregate.TotalStories)
	assert.Equal(t, 200.0, payload.StoriesAggregate.TotalViews)
	assert.Equal(t, 80.0, payload.StoriesAggregate.AvgCompletionRate)
	assert.NotNil(t, payload.Messages)
	assert.False(t, payload.GeneratedAt.IsZero())
}

func TestBuildProfileFailureIsFatal(t *testing.T) {
	fc := &fakeClient{profileErr: errors.New("boom")}

	_, err := NewBuilder(fc, testConfig()).Build(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestBuildMediaListFailureIsFatal(t *testing.T) {
	fc := &fakeClient{mediaErr: errors.New("media edge down")}

	_, err := NewBuilder(fc, testConfig()).Build(context.Background())

	require.Error(t, err)
}

func TestBuildDemographicsFailureIsFatal(t *testing.T) {
	fc := &fakeClient{media: mediaItems(1), demographicsErr: errors.New("insights edge down")}

	_, err := NewBuilder(fc, testConfig()).Build(context.Background())

	require.Error(t, err)
}

func TestBuildOneBadItemDoesNotFailTheBatch(t *testing.T) {
	items := mediaItems(4)
	items[2].ID = "bad-item"
	fc := &fakeClient{
		media: items,
		insightsFn: func(mediaID string) model.RawInsightsBag {
			if mediaID == "bad-item" {
				return model.RawInsightsBag{} // exhausted candidates upstream
			}
			return model.RawInsightsBag{"reach": 50}
		},
	}

	payload, err := NewBuilder(fc, testConfig()).Build(context.Background())
	require.NoError(t, err)

	bad := payload.Media[2]
	require.NotNil(t, bad.Computed)
	assert.False(t, bad.Computed.HasInsights)
	assert.Equal(t, []string{"saves", "shares", "reach", "views"}, bad.Computed.MissingMetrics)

	// The degraded item is surfaced as a message, not an error.
	joined := strings.Join(payload.Messages, "\n")
	assert.Contains(t, joined, "no insights available for 1 of 4 posts")
}

func TestBuildInsightTruncationMessage(t *testing.T) {
	cfg := testConfig()
	cfg.InsightsLimit = 2
	fc := &fakeClient{media: mediaItems(6)}

	payload, err := NewBuilder(fc, cfg).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), atomic.LoadInt64(&fc.insightCalls))

	// Items beyond the limit are still normalized, just with empty bags.
	for _, item := range payload.Media[2:] {
		require.NotNil(t, item.Computed)
		assert.False(t, item.Computed.HasInsights)
	}

	joined := strings.Join(payload.Messages, "\n")
	assert.Contains(t, joined, "insights limited to 2 most recent posts")
}

func TestBuildBatchBound(t *testing.T) {
	cfg := testConfig()
	cfg.BatchSize = 3
	fc := &fakeClient{media: mediaItems(12)}

	_, err := NewBuilder(fc, cfg).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(12), atomic.LoadInt64(&fc.insightCalls))
	assert.LessOrEqual(t, atomic.LoadInt64(&fc.maxInFlight), int64(3))
}

func TestBuildStoriesFailureDegrades(t *testing.T) {
	fc := &fakeClient{
		media:      mediaItems(1),
		storiesErr: errors.New("stories edge down"),
	}

	payload, err := NewBuilder(fc, testConfig()).Build(context.Background())
	require.NoError(t, err)

	assert.Empty(t, payload.Stories)
	assert.Equal(t, 0, payload.StoriesAggregate.TotalStories)
	joined := strings.Join(payload.Messages, "\n")
	assert.Contains(t, joined, "story data unavailable")
}

func TestBuildEmptyDemographicsMessage(t *testing.T) {
	fc := &fakeClient{media: mediaItems(1)}

	payload, err := NewBuilder(fc, testConfig()).Build(context.Background())
	require.NoError(t, err)

	joined := strings.Join(payload.Messages, "\n")
	assert.Contains(t, joined, "demographic breakdowns are empty")
}
