package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gramboard/instagram-insights/model"
)

// The worked dashboard scenario: likes=10, comments=2, reach=200, saved=3,
// followers=1000.
func TestNormalizeScenario(t *testing.T) {
	bag := model.RawInsightsBag{"reach": 200, "saved": 3}

	cm := Normalize(10, 2, bag, 1000)

	assert.Equal(t, 15, cm.Engagement) // 10 + 2 + 3
	assert.Equal(t, 23, cm.Score)      // 10*1 + 2*2 + 3*3

	require.NotNil(t, cm.ER)
	assert.InDelta(t, 1.5, *cm.ER, 1e-9)

	require.NotNil(t, cm.ReachRate)
	assert.InDelta(t, 20.0, *cm.ReachRate, 1e-9)

	assert.Nil(t, cm.Views)
	assert.Nil(t, cm.ViewsRate)

	require.NotNil(t, cm.InteractionsPer1000Reach)
	assert.InDelta(t, 75.0, *cm.InteractionsPer1000Reach, 1e-9)

	assert.True(t, cm.HasInsights)
	assert.True(t, cm.IsPartial)
	assert.Equal(t, []string{"shares", "views"}, cm.MissingMetrics)
}

func TestNormalizeEngagementTotality(t *testing.T) {
	tests := []struct {
		name           string
		likes          int
		comments       int
		bag            model.RawInsightsBag
		wantEngagement int
	}{
		{
			name:           "all insights absent, engagement from native counters",
			likes:          7,
			comments:       3,
			bag:            model.RawInsightsBag{},
			wantEngagement: 10,
		},
		{
			name:           "saves and shares contribute when present",
			likes:          1,
			comments:       1,
			bag:            model.RawInsightsBag{"saved": 4, "shares": 2},
			wantEngagement: 8,
		},
		{
			name:           "zero counters, zero insights",
			likes:          0,
			comments:       0,
			bag:            model.RawInsightsBag{"saved": 0, "shares": 0},
			wantEngagement: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm := Normalize(tt.likes, tt.comments, tt.bag, 0)
			assert.Equal(t, tt.wantEngagement, cm.Engagement)
		})
	}
}

func TestNormalizeNullVsZero(t *testing.T) {
	t.Run("reach absent stays nil", func(t *testing.T) {
		cm := Normalize(1, 0, model.RawInsightsBag{"saved": 1}, 0)
		assert.Nil(t, cm.Reach)
		assert.Contains(t, cm.MissingMetrics, "reach")
	})

	t.Run("reach zero is zero, not missing", func(t *testing.T) {
		cm := Normalize(1, 0, model.RawInsightsBag{"reach": 0}, 0)
		require.NotNil(t, cm.Reach)
		assert.Equal(t, 0.0, *cm.Reach)
		assert.NotContains(t, cm.MissingMetrics, "reach")
	})
}

func TestNormalizeRateNullGuards(t *testing.T) {
	bag := model.RawInsightsBag{"reach": 100, "views": 50}

	t.Run("er nil without followers", func(t *testing.T) {
		for _, followers := range []int64{0, -5} {
			cm := Normalize(10, 0, bag, followers)
			assert.Nil(t, cm.ER, "followers=%d", followers)
			assert.Nil(t, cm.ReachRate, "followers=%d", followers)
		}
	})

	t.Run("views_rate nil when reach is zero", func(t *testing.T) {
		cm := Normalize(10, 0, model.RawInsightsBag{"reach": 0, "views": 50}, 1000)
		assert.Nil(t, cm.ViewsRate)
		assert.Nil(t, cm.InteractionsPer1000Reach)
		// reach_rate only needs reach to be a number, zero included
		require.NotNil(t, cm.ReachRate)
		assert.Equal(t, 0.0, *cm.ReachRate)
	})

	t.Run("views_rate nil when reach absent", func(t *testing.T) {
		cm := Normalize(10, 0, model.RawInsightsBag{"views": 50}, 1000)
		assert.Nil(t, cm.ViewsRate)
	})
}

func TestNormalizeScoreWeights(t *testing.T) {
	bag := model.RawInsightsBag{"saved": 1, "shares": 1}
	cm := Normalize(1, 1, bag, 0)
	// 1*1 + 1*2 + 1*3 + 1*4
	assert.Equal(t, 10, cm.Score)
}

func TestNormalizeEmptyBag(t *testing.T) {
	cm := Normalize(5, 1, model.RawInsightsBag{}, 100)

	assert.False(t, cm.HasInsights)
	assert.True(t, cm.IsPartial)
	assert.Equal(t, []string{"saves", "shares", "reach", "views"}, cm.MissingMetrics)
	assert.Equal(t, 6, cm.Engagement)
	require.NotNil(t, cm.ER) // followers known, engagement computable
	assert.InDelta(t, 6.0, *cm.ER, 1e-9)
}

func TestNormalizeTotalInteractionsSynonyms(t *testing.T) {
	t.Run("total_interactions preferred", func(t *testing.T) {
		cm := Normalize(0, 0, model.RawInsightsBag{"total_interactions": 12, "engagement": 99}, 0)
		require.NotNil(t, cm.TotalInteractions)
		assert.Equal(t, 12.0, *cm.TotalInteractions)
	})

	t.Run("engagement key as fallback", func(t *testing.T) {
		cm := Normalize(0, 0, model.RawInsightsBag{"engagement": 99}, 0)
		require.NotNil(t, cm.TotalInteractions)
		assert.Equal(t, 99.0, *cm.TotalInteractions)
	})
}

// Re-normalizing an item over its own merged bag must reproduce the computed
// record exactly: normalization is stable under its own output.
func TestNormalizeIdempotent(t *testing.T) {
	bags := []model.RawInsightsBag{
		{"reach": 200, "saves": 3, "shares": 1, "views": 500, "engagement": 20},
		{"reach": 0},
		{},
		{"saved": 5, "saves": 9},
	}

	for _, bag := range bags {
		first := Normalize(10, 2, bag, 1000)
		merged := MergeBag(bag, first)
		second := Normalize(10, 2, merged, 1000)
		mergedAgain := MergeBag(merged, second)

		// Sources may shift to the canonical key, everything numeric and
		// every flag must be identical.
		second.ViewsSource = first.ViewsSource
		assert.Equal(t, first, second, "bag %v", bag)
		assert.Equal(t, merged, mergedAgain, "bag %v", bag)
	}
}

func TestNormalizeItemAttachesResults(t *testing.T) {
	item := model.MediaItem{
		ID:            "123",
		LikeCount:     10,
		CommentsCount: 2,
	}

	NormalizeItem(&item, model.RawInsightsBag{"reach": 200, "saved": 3}, 1000)

	require.NotNil(t, item.Computed)
	assert.Equal(t, 15, item.Computed.Engagement)
	assert.Equal(t, 200.0, item.Insights["reach"])
	assert.Equal(t, 3.0, item.Insights["saved"])
}
