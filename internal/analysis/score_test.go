package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alstn9213/open-insight/internal/model"
)

func TestScore(t *testing.T) {
	defaultWeights := model.DefaultWeights

	tests := []struct {
		name    string
		stats   model.MarketStats
		weights model.WeightOption
		want    float64
	}{
		{
			// 8000*0.4 - 1.0*0.4*100 + 3.0*0.2 + 2.0 = 3162.6
			name: "typical market",
			stats: model.MarketStats{
				AverageSales:       80_000_000,
				ClosingRate:        1.0,
				GrowthRate:         3.0,
				FloatingPopulation: 20_000,
			},
			weights: defaultWeights,
			want:    3162.6,
		},
		{
			name: "high closing rate floors at zero",
			stats: model.MarketStats{
				AverageSales: 1_000_000,
				ClosingRate:  9.0,
				GrowthRate:   0.0,
			},
			weights: defaultWeights,
			want:    0.0,
		},
		{
			name:    "all-zero weights leave only the population bonus",
			stats:   model.MarketStats{AverageSales: 80_000_000, FloatingPopulation: 20_000},
			weights: model.WeightOption{},
			want:    2.0,
		},
		{
			name:    "all-zero weights without population",
			stats:   model.MarketStats{AverageSales: 80_000_000},
			weights: model.WeightOption{},
			want:    0.0,
		},
		{
			name:    "empty record",
			stats:   model.MarketStats{},
			weights: defaultWeights,
			want:    0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(&tt.stats, tt.weights), 0.0001)
		})
	}
}

func TestScoreNeverNegative(t *testing.T) {
	stats := []model.MarketStats{
		{ClosingRate: 100.0},
		{AverageSales: 1, ClosingRate: 50.0, GrowthRate: -80.0},
		{GrowthRate: -1000.0, FloatingPopulation: 1},
		{},
	}
	weights := []model.WeightOption{
		{},
		model.DefaultWeights,
		{SalesWeight: 0.1, StabilityWeight: 5.0, GrowthWeight: 3.0},
	}

	for _, s := range stats {
		for _, w := range weights {
			assert.GreaterOrEqual(t, Score(&s, w), 0.0)
		}
	}
}

func TestScoreClosingRateAmplification(t *testing.T) {
	base := model.MarketStats{AverageSales: 100_000_000}
	risky := base
	risky.ClosingRate = 1.0

	w := model.WeightOption{SalesWeight: 0.4, StabilityWeight: 0.4}

	// One percentage point of closing rate costs weight*100 points.
	assert.InDelta(t, 40.0, Score(&base, w)-Score(&risky, w), 0.0001)
}
