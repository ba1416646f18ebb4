package client

import (
	"encoding/json"
	"time"

	"github.com/gramboard/instagram-insights/model"
)

// Wire shapes for the Graph API responses. These stay inside the client
// package; everything downstream works with the model package types.

// errorEnvelope is the standard Graph API error body.
type errorEnvelope struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		FBTraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}

// insightValue is one entry of a metric's values array. Value is either a
// plain number (media insights) or an object keyed by breakdown dimension
// (demographics, online followers), so it is kept raw until the caller knows
// which shape it wants.
type insightValue struct {
	Value   json.RawMessage `json:"value"`
	EndTime string          `json:"end_time,omitempty"`
}

type insightEntry struct {
	Name   string         `json:"name"`
	Period string         `json:"period,omitempty"`
	Values []insightValue `json:"values"`
}

type insightsResponse struct {
	Data []insightEntry `json:"data"`
}

// toBag flattens the response into a metric bag, taking the LAST value of
// each metric's values array (period-aggregated responses append the most
// recent period last). Non-numeric values are skipped.
func (r *insightsResponse) toBag() model.RawInsightsBag {
	bag := make(model.RawInsightsBag, len(r.Data))
	for _, entry := range r.Data {
		if len(entry.Values) == 0 {
			continue
		}
		last := entry.Values[len(entry.Values)-1]
		var v float64
		if err := json.Unmarshal(last.Value, &v); err != nil {
			continue
		}
		bag[entry.Name] = v
	}
	return bag
}

// breakdown extracts the last object-shaped value of the named metric as a
// dimension -> count map. Missing metric or non-object value yields nil.
func (r *insightsResponse) breakdown(name string) map[string]float64 {
	for _, entry := range r.Data {
		if entry.Name != name || len(entry.Values) == 0 {
			continue
		}
		last := entry.Values[len(entry.Values)-1]
		var m map[string]float64
		if err := json.Unmarshal(last.Value, &m); err != nil {
			return nil
		}
		return m
	}
	return nil
}

// profileRecord is the IG user node with the dashboard's profile fields.
type profileRecord struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Name              string `json:"name"`
	Biography         string `json:"biography"`
	ProfilePictureURL string `json:"profile_picture_url"`
	Website           string `json:"website"`
	FollowersCount    int64  `json:"followers_count"`
	FollowsCount      int64  `json:"follows_count"`
	MediaCount        int64  `json:"media_count"`
}

func (p *profileRecord) toModel() *model.Profile {
	return &model.Profile{
		ID:                p.ID,
		Username:          p.Username,
		Name:              p.Name,
		Biography:         p.Biography,
		ProfilePictureURL: p.ProfilePictureURL,
		Website:           p.Website,
		FollowersCount:    p.FollowersCount,
		FollowsCount:      p.FollowsCount,
		MediaCount:        p.MediaCount,
	}
}

// mediaRecord is one element of the media edge.
type mediaRecord struct {
	ID               string `json:"id"`
	Caption          string `json:"caption"`
	MediaType        string `json:"media_type"`
	MediaProductType string `json:"media_product_type"`
	MediaURL         string `json:"media_url"`
	ThumbnailURL     string `json:"thumbnail_url"`
	Permalink        string `json:"permalink"`
	Timestamp        string `json:"timestamp"`
	LikeCount        int    `json:"like_count"`
	CommentsCount    int    `json:"comments_count"`
}

// graphTimeLayout is the ISO8601 variant the Graph API emits, with a
// colon-less zone offset that RFC3339 does not accept.
const graphTimeLayout = "2006-01-02T15:04:05-0700"

// parseTimestamp accepts both the Graph API's offset format and strict
// RFC3339. An unparseable timestamp yields the zero time, which the filter
// layer treats as "timestamp missing".
func parseTimestamp(s string) time.Time {
	if ts, err := time.Parse(graphTimeLayout, s); err == nil {
		return ts
	}
	ts, _ := time.Parse(time.RFC3339, s)
	return ts
}

func (m *mediaRecord) toModel() model.MediaItem {
	ts := parseTimestamp(m.Timestamp)
	return model.MediaItem{
		ID:               m.ID,
		Caption:          m.Caption,
		MediaType:        m.MediaType,
		MediaProductType: m.MediaProductType,
		MediaURL:         m.MediaURL,
		ThumbnailURL:     m.ThumbnailURL,
		Permalink:        m.Permalink,
		Timestamp:        ts,
		LikeCount:        m.LikeCount,
		CommentsCount:    m.CommentsCount,
	}
}

func (m *mediaRecord) toStory() model.StoryItem {
	ts := parseTimestamp(m.Timestamp)
	return model.StoryItem{
		ID:        m.ID,
		MediaType: m.MediaType,
		MediaURL:  m.MediaURL,
		Permalink: m.Permalink,
		Timestamp: ts,
	}
}

type paging struct {
	Cursors struct {
		Before string `json:"before"`
		After  string `json:"after"`
	} `json:"cursors"`
	Next string `json:"next,omitempty"`
}

type mediaListResponse struct {
	Data   []mediaRecord `json:"data"`
	Paging paging        `json:"paging"`
}
