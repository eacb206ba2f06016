package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alstn9213/open-insight/internal/model"
)

func TestBuildDetail(t *testing.T) {
	stats := model.MarketStats{
		ID: 7,
		Region: model.Region{
			Province: "Seoul", District: "Gangnam", Town: "Yeoksam", AdmCode: "1168051000",
		},
		Category:           model.Category{ID: 1, Name: "cafe"},
		StoreCount:         128,
		FloatingPopulation: 48_000,
		MalePopulation:     26_400,
		AgeGroup:           "30s",
		AverageSales:       62_000_000,
		GrowthRate:         4.2,
		ClosingRate:        1.8,
		NetGrowthRate:      2.4,
		Grade:              model.GradeGreen,
	}

	got := BuildDetail(&stats)

	assert.Equal(t, int64(7), got.StatsID)
	assert.Equal(t, "Seoul Gangnam Yeoksam", got.RegionName)
	assert.Equal(t, "cafe", got.CategoryName)
	assert.InDelta(t, 375.0, got.PopulationPerStore, 0.0001)
	assert.Equal(t, 55, got.MalePercent)
	assert.Equal(t, 45, got.FemalePercent)
	assert.Equal(t, "30s", got.AgeGroup)
	assert.Equal(t, model.GradeGreen, got.Grade)
	assert.Equal(t, "recommended market", got.GradeInfo.Description)
	assert.Equal(t, "#00FF00", got.GradeInfo.Color)
}

func TestBuildDetailZeroStores(t *testing.T) {
	stats := model.MarketStats{
		Region:             model.Region{Province: "Seoul", District: "Mapo"},
		Category:           model.Category{Name: "nail shop"},
		StoreCount:         0,
		FloatingPopulation: 12_000,
		Grade:              model.GradeRed,
	}

	got := BuildDetail(&stats)

	assert.Equal(t, 0.0, got.PopulationPerStore)
	assert.Equal(t, "Seoul Mapo", got.RegionName)
}

func TestBuildDetailDefaultsAgeGroup(t *testing.T) {
	stats := model.MarketStats{Grade: model.GradeYellow}
	assert.Equal(t, "analysis pending", BuildDetail(&stats).AgeGroup)
}

func TestBuildMapPoints(t *testing.T) {
	stats := []model.MarketStats{
		{
			Region:     model.Region{AdmCode: "1168000000", District: "Gangnam"},
			StoreCount: 300,
			Grade:      model.GradeGreen,
		},
		{
			Region:     model.Region{AdmCode: "1144000000", District: "Mapo"},
			StoreCount: 120,
			Grade:      model.GradeYellow,
		},
	}

	locate := func(admCode string) (float64, float64, bool) {
		if admCode == "1168000000" {
			return 37.5172, 127.0473, true
		}
		return 0, 0, false
	}

	got := BuildMapPoints(stats, locate)

	assert.Len(t, got, 2)
	assert.Equal(t, "Gangnam", got[0].District)
	assert.InDelta(t, 37.5172, got[0].Lat, 0.0001)
	assert.Zero(t, got[1].Lat)
	assert.Equal(t, model.GradeYellow, got[1].Grade)
}

func TestBuildMapPointsNilLocator(t *testing.T) {
	stats := []model.MarketStats{{Region: model.Region{AdmCode: "X", District: "D"}}}
	got := BuildMapPoints(stats, nil)
	assert.Len(t, got, 1)
	assert.Zero(t, got[0].Lat)
}

func TestBuildMapPointsEmpty(t *testing.T) {
	assert.Empty(t, BuildMapPoints(nil, nil))
}
