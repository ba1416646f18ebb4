package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*GraphClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewGraphClient(GraphConfig{
		BaseURL:     server.URL,
		AccessToken: "test-token",
		UserID:      "17841400000000000",
	})
	require.NoError(t, err)
	return client, server
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func TestNewGraphClientRequiresCredentials(t *testing.T) {
	tests := []struct {
		name    string
		cfg     GraphConfig
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     GraphConfig{AccessToken: "tok", UserID: "123"},
			wantErr: false,
		},
		{
			name:    "missing token",
			cfg:     GraphConfig{UserID: "123"},
			wantErr: true,
		},
		{
			name:    "missing user id",
			cfg:     GraphConfig{AccessToken: "tok"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraphClient(tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoAccount)
				assert.True(t, IsAuthError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetProfile(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.URL.Query().Get("access_token"))
		writeJSON(w, 200, `{"id":"17841400000000000","username":"acme","followers_count":1000,"media_count":42}`)
	}))

	profile, err := client.GetProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acme", profile.Username)
	assert.Equal(t, int64(1000), profile.FollowersCount)
}

func TestGetProfileAuthError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 400, `{"error":{"message":"Invalid OAuth access token","type":"OAuthException","code":190,"fbtrace_id":"Axxx"}}`)
	}))

	_, err := client.GetProfile(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthError(err))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 190, apiErr.Code)
}

func TestGetMediaPagination(t *testing.T) {
	var requests int
	client, server := newTestClient(t, nil)
	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		after := r.URL.Query().Get("after")
		if after == "" {
			writeJSON(w, 200, `{
				"data":[{"id":"m1","media_type":"IMAGE","timestamp":"2026-08-20T10:00:00+0000","like_count":5,"comments_count":1}],
				"paging":{"cursors":{"after":"cursor1"},"next":"https://next"}
			}`)
			return
		}
		assert.Equal(t, "cursor1", after)
		writeJSON(w, 200, `{
			"data":[{"id":"m2","media_type":"VIDEO","media_product_type":"REELS","timestamp":"2026-08-19T09:00:00+0000"}],
			"paging":{"cursors":{"after":"cursor2"}}
		}`)
	})

	items, err := client.GetMedia(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 2, requests)
	assert.Equal(t, "m1", items[0].ID)
	assert.Equal(t, 5, items[0].LikeCount)
	assert.True(t, items[1].IsReel())
}

func TestGetMediaStopsAtLimit(t *testing.T) {
	client, server := newTestClient(t, nil)
	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		writeJSON(w, 200, `{
			"data":[
				{"id":"m1","media_type":"IMAGE","timestamp":"2026-08-20T10:00:00+0000"},
				{"id":"m2","media_type":"IMAGE","timestamp":"2026-08-19T10:00:00+0000"}
			],
			"paging":{"cursors":{"after":"c"},"next":"https://next"}
		}`)
	})

	items, err := client.GetMedia(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestGetMediaInsightsFallback(t *testing.T) {
	var tried []string
	client, server := newTestClient(t, nil)
	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metric := r.URL.Query().Get("metric")
		tried = append(tried, metric)

		// The richest candidate is rejected the way the Graph API rejects
		// unsupported metric combinations per media type.
		if strings.Contains(metric, "total_interactions") {
			writeJSON(w, 400, `{"error":{"message":"metric not supported","type":"GraphMethodException","code":100}}`)
			return
		}
		writeJSON(w, 200, `{"data":[
			{"name":"views","values":[{"value":100},{"value":400}]},
			{"name":"reach","values":[{"value":250}]}
		]}`)
	})

	bag := client.GetMediaInsights(context.Background(), "m1", "IMAGE", "")

	require.Len(t, tried, 2)
	assert.Contains(t, tried[0], "total_interactions")
	// Last value of the values array wins for period-aggregated responses.
	assert.Equal(t, 400.0, bag["views"])
	assert.Equal(t, 250.0, bag["reach"])
}

func TestGetMediaInsightsExhaustionReturnsEmptyBag(t *testing.T) {
	client, server := newTestClient(t, nil)
	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 400, `{"error":{"message":"nope","code":100}}`)
	})

	bag := client.GetMediaInsights(context.Background(), "m1", "VIDEO", "")

	assert.NotNil(t, bag)
	assert.Empty(t, bag)
}

func TestGetMediaInsightsMalformedBodyDegrades(t *testing.T) {
	first := true
	client, server := newTestClient(t, nil)
	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if first {
			first = false
			writeJSON(w, 200, `{"data": [garbage`)
			return
		}
		writeJSON(w, 200, `{"data":[{"name":"reach","values":[{"value":10}]}]}`)
	})

	bag := client.GetMediaInsights(context.Background(), "m1", "IMAGE", "")
	assert.Equal(t, 10.0, bag["reach"])
}

func TestGetMediaInsightsUnrecognizedMetricsRejected(t *testing.T) {
	var requests int
	client, server := newTestClient(t, nil)
	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		// A 200 with only unknown keys must not be accepted as a usable bag.
		writeJSON(w, 200, `{"data":[{"name":"some_new_metric","values":[{"value":1}]}]}`)
	})

	bag := client.GetMediaInsights(context.Background(), "m1", "IMAGE", "")

	assert.Empty(t, bag)
	assert.Equal(t, len(mediaCandidates[classImage]), requests)
}

func TestGetStories(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"data":[{"id":"s1","media_type":"IMAGE","timestamp":"2026-08-29T08:00:00+0000"}]}`)
	}))

	stories, err := client.GetStories(context.Background())
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "s1", stories[0].ID)
}

func TestGetDemographics(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"data": []map[string]interface{}{
				{
					"name": "audience_gender_age",
					"values": []map[string]interface{}{
						{"value": map[string]float64{"M.25-34": 120, "F.25-34": 180, "F.35-44": 60}},
					},
				},
				{
					"name": "audience_country",
					"values": []map[string]interface{}{
						{"value": map[string]float64{"US": 200, "DE": 100}},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))

	demo, err := client.GetDemographics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 300.0, demo.Gender["F"])
	assert.Equal(t, 120.0, demo.Gender["M"])
	assert.Equal(t, 300.0, demo.Age["25-34"])
	assert.Equal(t, 200.0, demo.Country["US"])
	assert.False(t, demo.Empty())
}

func TestGetDemographicsEmptyAccount(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"data":[]}`)
	}))

	demo, err := client.GetDemographics(context.Background())
	require.NoError(t, err)
	assert.True(t, demo.Empty())
}

func TestGetOnlineFollowers(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"data":[{"name":"online_followers","values":[{"value":{"0":10,"12":55}}]}]}`)
	}))

	online, err := client.GetOnlineFollowers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 55.0, online["12"])
}
