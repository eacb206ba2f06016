package etl

import (
	"math"
	"time"

	"github.com/alstn9213/open-insight/internal/model"
)

// Grade thresholds on floating population per store. These classify raw
// collection output and are looser than the badge cutoffs the ranking view
// applies on top of stored rows.
const (
	gradeGreenThreshold = 500.0
	gradeRedThreshold   = 100.0
)

// ComputeGrade classifies a market by its population-per-store ratio.
func ComputeGrade(popPerStore float64) model.Grade {
	switch {
	case popPerStore >= gradeGreenThreshold:
		return model.GradeGreen
	case popPerStore <= gradeRedThreshold:
		return model.GradeRed
	default:
		return model.GradeYellow
	}
}

// Round2 rounds to two decimal places for stored ratios.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// BuildStats assembles one market_stats row from the two API feeds. Missing
// feeds arrive as nil and degrade to zero figures.
func BuildStats(region model.Region, category model.Category, figures *StoreFigures, pop *PopulationFigures) model.MarketStats {
	if figures == nil {
		figures = &StoreFigures{}
	}
	if pop == nil {
		pop = &PopulationFigures{}
	}

	divisor := figures.StoreCount
	if divisor < 1 {
		divisor = 1
	}
	popPerStore := Round2(float64(pop.Floating) / float64(divisor))

	return model.MarketStats{
		Region:             region,
		Category:           category,
		StoreCount:         figures.StoreCount,
		FloatingPopulation: pop.Floating,
		MalePopulation:     pop.Male,
		FemalePopulation:   pop.Female,
		AgeGroup:           pop.AgeGroup,
		AverageSales:       figures.AverageSales,
		GrowthRate:         figures.GrowthRate,
		ClosingRate:        figures.ClosingRate,
		NetGrowthRate:      Round2(figures.GrowthRate - figures.ClosingRate),
		Grade:              ComputeGrade(popPerStore),
		UpdatedAt:          time.Now().UTC(),
	}
}
