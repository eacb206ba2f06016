package analysis

import (
	"math"

	"github.com/alstn9213/open-insight/internal/model"
)

// Score computes the composite recommendation score for one market under
// the given weights. Pure function; the same inputs always yield the same
// score.
//
// The closing-rate term is multiplied by 100 beyond its natural percentage
// scale so that the stability weight pulls with comparable force to the
// sales term at typical weight magnitudes. That amplification is a tuning
// constant, not an error.
func Score(stats *model.MarketStats, weights model.WeightOption) float64 {
	salesScore := float64(stats.AverageSales) / 10000.0

	// One bonus point per 10k of floating population.
	populationBonus := float64(stats.FloatingPopulation) / 1000.0 * 0.1

	score := salesScore*weights.SalesWeight -
		stats.ClosingRate*weights.StabilityWeight*100 +
		stats.GrowthRate*weights.GrowthWeight +
		populationBonus

	// Never surface a negative composite score.
	return math.Max(score, 0.0)
}
