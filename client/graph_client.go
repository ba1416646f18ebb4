package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gramboard/instagram-insights/model"
)

const (
	defaultBaseURL    = "https://graph.facebook.com"
	defaultAPIVersion = "v23.0"
	defaultTimeout    = 15 * time.Second

	// pageSize is the per-request limit on the media edge; the overall item
	// limit is enforced across pages.
	pageSize = 50
)

// mediaFields are the fields requested on the media edge. Native counters
// default to zero when the API omits them.
const mediaFields = "id,caption,media_type,media_product_type,media_url,thumbnail_url,permalink,timestamp,like_count,comments_count"

const profileFields = "id,username,name,biography,profile_picture_url,website,followers_count,follows_count,media_count"

const storyFields = "id,media_type,media_url,permalink,timestamp"

// GraphConfig configures a GraphClient.
type GraphConfig struct {
	// BaseURL overrides the Graph API host, used by tests. Empty means the
	// production host.
	BaseURL     string
	APIVersion  string
	AccessToken string
	UserID      string
	Timeout     time.Duration
}

// GraphClient implements Client against the Instagram Business Graph API.
type GraphClient struct {
	baseURL     string
	apiVersion  string
	accessToken string
	userID      string
	httpClient  *http.Client
}

// NewGraphClient creates a Graph API client. A missing access token or user
// ID is an auth-kind failure so the caller can surface it as such.
func NewGraphClient(cfg GraphConfig) (*GraphClient, error) {
	if cfg.AccessToken == "" || cfg.UserID == "" {
		return nil, ErrNoAccount
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &GraphClient{
		baseURL:     baseURL,
		apiVersion:  apiVersion,
		accessToken: cfg.AccessToken,
		userID:      cfg.UserID,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

// get issues a GET against the given node/edge path and decodes the JSON
// body into out. Non-2xx responses are decoded into *APIError.
func (c *GraphClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", c.accessToken)

	endpoint := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, c.apiVersion, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope errorEnvelope
		if jsonErr := json.Unmarshal(body, &envelope); jsonErr == nil {
			apiErr.Message = envelope.Error.Message
			apiErr.Type = envelope.Error.Type
			apiErr.Code = envelope.Error.Code
			apiErr.Subcode = envelope.Error.ErrorSubcode
			apiErr.FBTraceID = envelope.Error.FBTraceID
		}
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetProfile retrieves the business account profile.
func (c *GraphClient) GetProfile(ctx context.Context) (*model.Profile, error) {
	params := url.Values{}
	params.Set("fields", profileFields)

	var record profileRecord
	if err := c.get(ctx, c.userID, params, &record); err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	log.Debug().Str("username", record.Username).Int64("followers", record.FollowersCount).Msg("Fetched profile")
	return record.toModel(), nil
}

// GetMedia retrieves up to limit media items, following cursor pagination.
func (c *GraphClient) GetMedia(ctx context.Context, limit int) ([]model.MediaItem, error) {
	if limit <= 0 {
		limit = pageSize
	}

	var items []model.MediaItem
	after := ""

	for len(items) < limit {
		remaining := limit - len(items)
		perPage := pageSize
		if remaining < perPage {
			perPage = remaining
		}

		params := url.Values{}
		params.Set("fields", mediaFields)
		params.Set("limit", strconv.Itoa(perPage))
		if after != "" {
			params.Set("after", after)
		}

		var page mediaListResponse
		if err := c.get(ctx, c.userID+"/media", params, &page); err != nil {
			return nil, fmt.Errorf("failed to fetch media list: %w", err)
		}

		for i := range page.Data {
			items = append(items, page.Data[i].toModel())
		}

		if len(page.Data) == 0 || page.Paging.Next == "" {
			break
		}
		after = page.Paging.Cursors.After
		if after == "" {
			break
		}
	}

	log.Info().Int("count", len(items)).Msg("Fetched media items")
	return items, nil
}

// GetMediaInsights tries the candidate metric sets for the item's
// classification in order and returns the first usable bag. Candidate
// failures (rejected metric combination, network error, malformed body) mean
// "try the next candidate"; exhaustion returns an empty bag, never an error.
func (c *GraphClient) GetMediaInsights(ctx context.Context, mediaID, mediaType, mediaProductType string) model.RawInsightsBag {
	class := classifyMedia(mediaType, mediaProductType)
	return c.fetchInsightsWithFallback(ctx, mediaID, mediaCandidates[class])
}

// GetStoryInsights fetches story insights with the story candidate table.
func (c *GraphClient) GetStoryInsights(ctx context.Context, storyID string) model.RawInsightsBag {
	return c.fetchInsightsWithFallback(ctx, storyID, storyCandidates)
}

func (c *GraphClient) fetchInsightsWithFallback(ctx context.Context, mediaID string, candidates []string) model.RawInsightsBag {
	for _, metricSet := range candidates {
		params := url.Values{}
		params.Set("metric", metricSet)

		var resp insightsResponse
		if err := c.get(ctx, mediaID+"/insights", params, &resp); err != nil {
			log.Debug().Err(err).Str("media_id", mediaID).Str("metrics", metricSet).Msg("Insight candidate failed, trying next")
			continue
		}

		bag := resp.toBag()
		if !hasRecognizedMetric(bag) {
			log.Debug().Str("media_id", mediaID).Str("metrics", metricSet).Msg("Insight candidate returned no usable metrics")
			continue
		}
		return bag
	}

	log.Debug().Str("media_id", mediaID).Msg("All insight candidates exhausted, returning empty bag")
	return model.RawInsightsBag{}
}

// GetStories retrieves the currently active stories.
func (c *GraphClient) GetStories(ctx context.Context) ([]model.StoryItem, error) {
	params := url.Values{}
	params.Set("fields", storyFields)

	var page mediaListResponse
	if err := c.get(ctx, c.userID+"/stories", params, &page); err != nil {
		return nil, fmt.Errorf("failed to fetch stories: %w", err)
	}

	stories := make([]model.StoryItem, 0, len(page.Data))
	for i := range page.Data {
		stories = append(stories, page.Data[i].toStory())
	}

	log.Info().Int("count", len(stories)).Msg("Fetched stories")
	return stories, nil
}

// demographicMetrics maps the audience insight metric names onto the
// breakdown dimensions of the Demographics record.
var demographicMetrics = []struct {
	metric    string
	dimension string
}{
	{"audience_gender_age", "gender_age"},
	{"audience_country", "country"},
	{"audience_city", "city"},
}

// GetDemographics retrieves the follower demographic breakdowns. The
// gender/age metric arrives combined ("M.25-34") and is split into the two
// dimensions. Missing breakdowns come back as empty maps.
func (c *GraphClient) GetDemographics(ctx context.Context) (model.Demographics, error) {
	demo := model.Demographics{
		Age:     map[string]float64{},
		Gender:  map[string]float64{},
		Country: map[string]float64{},
		City:    map[string]float64{},
	}

	params := url.Values{}
	params.Set("metric", "audience_gender_age,audience_country,audience_city")
	params.Set("period", "lifetime")

	var resp insightsResponse
	if err := c.get(ctx, c.userID+"/insights", params, &resp); err != nil {
		return demo, fmt.Errorf("failed to fetch demographics: %w", err)
	}

	for key, value := range resp.breakdown("audience_gender_age") {
		gender, age, ok := splitGenderAge(key)
		if !ok {
			continue
		}
		demo.Gender[gender] += value
		demo.Age[age] += value
	}
	for key, value := range resp.breakdown("audience_country") {
		demo.Country[key] = value
	}
	for key, value := range resp.breakdown("audience_city") {
		demo.City[key] = value
	}

	return demo, nil
}

// splitGenderAge splits an "M.25-34" style key into gender and age range.
func splitGenderAge(key string) (gender, age string, ok bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			return key[:i], key[i+1:], true
		}
	}
	return "", "", false
}

// GetOnlineFollowers retrieves the hour-of-day online follower counts.
func (c *GraphClient) GetOnlineFollowers(ctx context.Context) (model.OnlineFollowers, error) {
	params := url.Values{}
	params.Set("metric", "online_followers")
	params.Set("period", "lifetime")

	var resp insightsResponse
	if err := c.get(ctx, c.userID+"/insights", params, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch online followers: %w", err)
	}

	online := resp.breakdown("online_followers")
	if online == nil {
		online = model.OnlineFollowers{}
	}
	return online, nil
}
