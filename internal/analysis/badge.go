package analysis

import "github.com/alstn9213/open-insight/internal/model"

// Badge strings for the score-based ranking mode.
const (
	BadgeHotPlace          = "hot place"
	BadgeBestProfitability = "best profitability"
	BadgeBestStability     = "best stability"
	BadgeRisingMarket      = "rising market"
)

// Badge strings for the density-based ranking mode.
const (
	BadgeOpportunity = "opportunity"
	BadgeOvercrowded = "overcrowded"
	BadgeNormal      = "normal"
)

// Thresholds for ClassifyByThreshold, in precedence order.
const (
	hotPlacePopulation = 50_000
	highSalesThreshold = 50_000_000
	lowClosingRate     = 2.0
	highGrowthRate     = 5.0
)

// Density thresholds for ClassifyByDensity.
const (
	densityOpportunity = 500.0
	densityOvercrowded = 50.0
)

// ClassifyByThreshold assigns the badge for the score-based ranking mode.
// The checks run in a fixed precedence order and the first match wins; a
// market can qualify for several badges but is only ever shown the highest
// one. Returns "" when nothing stands out.
func ClassifyByThreshold(stats *model.MarketStats) string {
	switch {
	case stats.FloatingPopulation >= hotPlacePopulation:
		return BadgeHotPlace
	case stats.AverageSales >= highSalesThreshold:
		return BadgeBestProfitability
	case stats.ClosingRate <= lowClosingRate:
		return BadgeBestStability
	case stats.GrowthRate >= highGrowthRate:
		return BadgeRisingMarket
	}
	return ""
}

// ClassifyByDensity assigns the badge for the density-based ranking modes,
// purely from population per store. Unlike ClassifyByThreshold it always
// returns a badge. The two vocabularies belong to different ranking modes
// and are deliberately kept apart.
func ClassifyByDensity(popPerStore float64) string {
	if popPerStore >= densityOpportunity {
		return BadgeOpportunity
	}
	if popPerStore < densityOvercrowded {
		return BadgeOvercrowded
	}
	return BadgeNormal
}
