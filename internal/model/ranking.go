package model

// SortOption selects the comparator used by the ranking endpoint when the
// request does not carry custom weights.
type SortOption string

const (
	// SortOpportunity orders by population per store, descending: markets
	// with the most customers per competing store first.
	SortOpportunity SortOption = "OPPORTUNITY"
	// SortOvercrowded orders by population per store, ascending.
	SortOvercrowded SortOption = "OVERCROWDED"
	// SortPopulation orders by floating population, descending.
	SortPopulation SortOption = "POPULATION"
	// SortStoreCount orders by store count, descending.
	SortStoreCount SortOption = "STORE_COUNT"
)

// Valid reports whether s is a known sort option.
func (s SortOption) Valid() bool {
	switch s {
	case SortOpportunity, SortOvercrowded, SortPopulation, SortStoreCount:
		return true
	}
	return false
}

// WeightOption holds the caller-supplied score weights. The three weights
// are free multipliers; nothing forces them to sum to 1.
type WeightOption struct {
	SalesWeight     float64 `json:"sales_weight"`
	StabilityWeight float64 `json:"stability_weight"`
	GrowthWeight    float64 `json:"growth_weight"`
}

// DefaultWeights is used when a ranking request carries no weight option.
var DefaultWeights = WeightOption{
	SalesWeight:     0.4,
	StabilityWeight: 0.4,
	GrowthWeight:    0.2,
}

// RankingRequest describes one ranking query. AdmCode narrows the candidate
// set to a single region; empty means all ingested regions. Exactly one of
// SortOption or Weights drives the ordering: when Weights is non-nil the
// ranking is score-based, otherwise SortOption must be set.
type RankingRequest struct {
	AdmCode    string        `json:"adm_code,omitempty"`
	CategoryID int64         `json:"category_id,omitempty"`
	SortOption SortOption    `json:"sort_option,omitempty"`
	Weights    *WeightOption `json:"weight_option,omitempty"`
}

// RankedResult is one row of the ranking response. Score is set in the
// score-based mode, PopulationPerStore in the density-based modes. Badge is
// empty when the record has no notable distinction.
type RankedResult struct {
	Rank               int     `json:"rank"`
	RegionName         string  `json:"region_name"`
	CategoryName       string  `json:"category_name"`
	StoreCount         int     `json:"store_count"`
	FloatingPopulation int     `json:"floating_population"`
	PopulationPerStore float64 `json:"population_per_store,omitempty"`
	Score              float64 `json:"total_score,omitempty"`
	Badge              string  `json:"badge,omitempty"`
}

// MarketDetail is the single-record analysis view.
type MarketDetail struct {
	StatsID            int64     `json:"stats_id"`
	RegionName         string    `json:"region_name"`
	CategoryName       string    `json:"category_name"`
	StoreCount         int       `json:"store_count"`
	FloatingPopulation int       `json:"floating_population"`
	PopulationPerStore float64   `json:"population_per_store"`
	AverageSales       int64     `json:"average_sales"`
	GrowthRate         float64   `json:"growth_rate"`
	ClosingRate        float64   `json:"closing_rate"`
	NetGrowthRate      float64   `json:"net_growth_rate"`
	Grade              Grade     `json:"grade"`
	GradeInfo          GradeInfo `json:"grade_info"`
	MalePercent        int       `json:"male_percent"`
	FemalePercent      int       `json:"female_percent"`
	AgeGroup           string    `json:"age_group"`
}

// MapPoint is one district entry of the map overlay. Lat/Lng are zero when
// no boundary data is loaded for the district.
type MapPoint struct {
	AdmCode    string  `json:"adm_code"`
	District   string  `json:"district"`
	StoreCount int     `json:"store_count"`
	Grade      Grade   `json:"grade"`
	Lat        float64 `json:"lat,omitempty"`
	Lng        float64 `json:"lng,omitempty"`
}
