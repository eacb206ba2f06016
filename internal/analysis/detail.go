package analysis

import "github.com/alstn9213/open-insight/internal/model"

// BuildDetail assembles the display-ready detail view for one market:
// joined region name, raw metrics, derived density figures and grade
// metadata. Total over any well-formed record; a zero store count yields a
// density of 0 instead of an error.
func BuildDetail(stats *model.MarketStats) model.MarketDetail {
	malePercent, femalePercent := GenderPercents(stats)

	ageGroup := stats.AgeGroup
	if ageGroup == "" {
		ageGroup = "analysis pending"
	}

	return model.MarketDetail{
		StatsID:            stats.ID,
		RegionName:         stats.Region.DisplayName(),
		CategoryName:       stats.Category.Name,
		StoreCount:         stats.StoreCount,
		FloatingPopulation: stats.FloatingPopulation,
		PopulationPerStore: Round1(PopulationPerStoreStrict(stats)),
		AverageSales:       stats.AverageSales,
		GrowthRate:         stats.GrowthRate,
		ClosingRate:        stats.ClosingRate,
		NetGrowthRate:      stats.NetGrowthRate,
		Grade:              stats.Grade,
		GradeInfo:          stats.Grade.Info(),
		MalePercent:        malePercent,
		FemalePercent:      femalePercent,
		AgeGroup:           ageGroup,
	}
}

// BuildMapPoints projects statistics rows onto map overlay points. The
// optional locate callback supplies district centroid coordinates by
// administrative code; pass nil when no boundary data is loaded.
func BuildMapPoints(stats []model.MarketStats, locate func(admCode string) (lat, lng float64, ok bool)) []model.MapPoint {
	points := make([]model.MapPoint, 0, len(stats))
	for i := range stats {
		s := &stats[i]
		p := model.MapPoint{
			AdmCode:    s.Region.AdmCode,
			District:   s.Region.District,
			StoreCount: s.StoreCount,
			Grade:      s.Grade,
		}
		if locate != nil {
			if lat, lng, ok := locate(s.Region.AdmCode); ok {
				p.Lat = lat
				p.Lng = lng
			}
		}
		points = append(points, p)
	}
	return points
}
