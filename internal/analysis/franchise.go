package analysis

import (
	"fmt"
	"math"

	"github.com/alstn9213/open-insight/internal/model"
)

// Baselines for the franchise comparison. Lifespan and startup cost are
// nationwide independent-store averages; the closing risk baseline is the
// franchise-sector figure compared against the local market's closing rate.
const (
	localAverageLifespanMonths = 36.0
	localAverageInitialCost    = 50_000_000.0
	franchiseClosingRisk       = 15.0
)

// CompareFranchise contrasts one franchise brand with the local market the
// statistics row describes.
func CompareFranchise(f model.Franchise, stats *model.MarketStats) model.FranchiseComparison {
	lifespan := model.ComparisonItem{
		FranchiseValue: float64(f.AverageLifespan),
		LocalAverage:   localAverageLifespanMonths,
		DiffMessage:    diffMessage(float64(f.AverageLifespan), localAverageLifespanMonths, "lifespan"),
	}
	initialCost := model.ComparisonItem{
		FranchiseValue: float64(f.InitialCost),
		LocalAverage:   localAverageInitialCost,
		DiffMessage:    diffMessage(float64(f.InitialCost), localAverageInitialCost, "startup cost"),
	}
	risk := model.ComparisonItem{
		FranchiseValue: franchiseClosingRisk,
		LocalAverage:   stats.ClosingRate,
		DiffMessage:    diffMessage(franchiseClosingRisk, stats.ClosingRate, "closing risk"),
	}

	return model.FranchiseComparison{
		BrandName:   f.BrandName,
		Lifespan:    lifespan,
		InitialCost: initialCost,
		Risk:        risk,
	}
}

func diffMessage(value, baseline float64, metric string) string {
	if baseline == 0 {
		return fmt.Sprintf("no local average for %s", metric)
	}
	diffPct := (value - baseline) / baseline * 100
	switch {
	case math.Abs(diffPct) < 1:
		return fmt.Sprintf("%s close to the local average", metric)
	case diffPct > 0:
		return fmt.Sprintf("%s %.0f%% above the local average", metric, diffPct)
	default:
		return fmt.Sprintf("%s %.0f%% below the local average", metric, -diffPct)
	}
}
