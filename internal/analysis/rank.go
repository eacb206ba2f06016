package analysis

import (
	"sort"

	"github.com/alstn9213/open-insight/internal/model"
)

// DefaultTopN is the ranking cutoff used when no override is configured.
const DefaultTopN = 10

// Rank filters, orders and truncates the candidate statistics and assigns
// dense 1-based ranks. Markets without stores are excluded up front so the
// density figures stay meaningful. The sort is stable: ties keep the order
// of the input collection, which makes repeated calls with the same input
// byte-identical. topN values below 1 fall back to DefaultTopN.
//
// When the request carries weights the ordering is by composite score,
// descending, and badges come from the threshold vocabulary. Otherwise the
// request's sort option picks a density comparator and badges come from
// the density vocabulary.
func Rank(stats []model.MarketStats, req model.RankingRequest, topN int) []model.RankedResult {
	if topN < 1 {
		topN = DefaultTopN
	}

	candidates := make([]model.MarketStats, 0, len(stats))
	for _, s := range stats {
		if s.StoreCount > 0 {
			candidates = append(candidates, s)
		}
	}

	if req.Weights != nil {
		return rankByScore(candidates, *req.Weights, topN)
	}
	return rankByDensity(candidates, req.SortOption, topN)
}

func rankByScore(candidates []model.MarketStats, weights model.WeightOption, topN int) []model.RankedResult {
	scores := make([]float64, len(candidates))
	for i := range candidates {
		scores[i] = Score(&candidates[i], weights)
	}

	order := sortedIndexes(len(candidates), func(a, b int) bool {
		return scores[a] > scores[b]
	})
	order = order[:min(topN, len(order))]

	results := make([]model.RankedResult, len(order))
	for rank, idx := range order {
		s := &candidates[idx]
		results[rank] = model.RankedResult{
			Rank:               rank + 1,
			RegionName:         s.Region.Province + " " + s.Region.District,
			CategoryName:       s.Category.Name,
			StoreCount:         s.StoreCount,
			FloatingPopulation: s.FloatingPopulation,
			Score:              Round1(scores[idx]),
			Badge:              ClassifyByThreshold(s),
		}
	}
	return results
}

func rankByDensity(candidates []model.MarketStats, sortOption model.SortOption, topN int) []model.RankedResult {
	less := densityComparator(candidates, sortOption)

	order := sortedIndexes(len(candidates), less)
	order = order[:min(topN, len(order))]

	results := make([]model.RankedResult, len(order))
	for rank, idx := range order {
		s := &candidates[idx]
		popPerStore := PopulationPerStore(s)
		results[rank] = model.RankedResult{
			Rank:               rank + 1,
			RegionName:         s.Region.Province + " " + s.Region.District,
			CategoryName:       s.Category.Name,
			StoreCount:         s.StoreCount,
			FloatingPopulation: s.FloatingPopulation,
			PopulationPerStore: Round1(popPerStore),
			Badge:              ClassifyByDensity(popPerStore),
		}
	}
	return results
}

func densityComparator(candidates []model.MarketStats, sortOption model.SortOption) func(a, b int) bool {
	switch sortOption {
	case model.SortOvercrowded:
		return func(a, b int) bool {
			return PopulationPerStore(&candidates[a]) < PopulationPerStore(&candidates[b])
		}
	case model.SortPopulation:
		return func(a, b int) bool {
			return candidates[a].FloatingPopulation > candidates[b].FloatingPopulation
		}
	case model.SortStoreCount:
		return func(a, b int) bool {
			return candidates[a].StoreCount > candidates[b].StoreCount
		}
	default: // OPPORTUNITY
		return func(a, b int) bool {
			return PopulationPerStore(&candidates[a]) > PopulationPerStore(&candidates[b])
		}
	}
}

// sortedIndexes stable-sorts index positions instead of the records, so
// input order survives as the tie-break without copying MarketStats values
// around.
func sortedIndexes(n int, less func(a, b int) bool) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return less(order[i], order[j])
	})
	return order
}
