package analysis

import (
	"math"

	"github.com/alstn9213/open-insight/internal/model"
)

// PopulationPerStore returns floating population divided by store count,
// substituting 1 for a zero store count so the division is always defined.
// Ranking comparators use this variant.
func PopulationPerStore(stats *model.MarketStats) float64 {
	return float64(stats.FloatingPopulation) / float64(max(stats.StoreCount, 1))
}

// PopulationPerStoreStrict is the display variant: a market with no stores
// reports a density of exactly 0 rather than its raw population.
func PopulationPerStoreStrict(stats *model.MarketStats) float64 {
	if stats.StoreCount <= 0 {
		return 0.0
	}
	return float64(stats.FloatingPopulation) / float64(stats.StoreCount)
}

// GenderPercents returns the male and female shares of the floating
// population as whole percentages. Male is rounded half-up and female is
// the complement, so the two always sum to 100. Both are 0 when the total
// population is 0.
func GenderPercents(stats *model.MarketStats) (malePercent, femalePercent int) {
	total := stats.FloatingPopulation
	if total <= 0 {
		return 0, 0
	}
	malePercent = int(math.Round(float64(stats.MalePopulation) / float64(total) * 100))
	femalePercent = 100 - malePercent
	return malePercent, femalePercent
}

// Round1 rounds to one decimal place. Every derived float surfaced to a
// caller (densities, scores) goes through this.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
