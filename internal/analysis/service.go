package analysis

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/alstn9213/open-insight/internal/model"
)

// StatsReader is the slice of the statistics store the analyzer reads from.
type StatsReader interface {
	FindStats(ctx context.Context, admCode string, categoryID int64) (*model.MarketStats, error)
	ListStatsByRegion(ctx context.Context, admCode string) ([]model.MarketStats, error)
	ListStatsByProvince(ctx context.Context, province string, categoryID int64) ([]model.MarketStats, error)
	ListAllStats(ctx context.Context) ([]model.MarketStats, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListFranchisesByCategory(ctx context.Context, categoryID int64) ([]model.Franchise, error)
}

// Locator resolves a district centroid by administrative code. The geo
// package provides one when boundary data is configured.
type Locator interface {
	Centroid(admCode string) (lat, lng float64, ok bool)
}

// Analyzer answers the market analysis queries over a point-in-time
// statistics snapshot. It holds no state beyond its collaborators and is
// safe for concurrent use.
type Analyzer struct {
	store   StatsReader
	locator Locator
	topN    int
}

// NewAnalyzer creates an Analyzer. locator may be nil; topN values below 1
// fall back to DefaultTopN.
func NewAnalyzer(store StatsReader, locator Locator, topN int) *Analyzer {
	if topN < 1 {
		topN = DefaultTopN
	}
	return &Analyzer{store: store, locator: locator, topN: topN}
}

// GetDetail returns the detail view for one region and category. The
// store's ErrNotFound passes through wrapped so the handler can map it to
// a 404.
func (a *Analyzer) GetDetail(ctx context.Context, admCode string, categoryID int64) (*model.MarketDetail, error) {
	stats, err := a.store.FindStats(ctx, admCode, categoryID)
	if err != nil {
		return nil, eris.Wrapf(err, "analysis: find stats %s/%d", admCode, categoryID)
	}
	detail := BuildDetail(stats)
	return &detail, nil
}

// GetMapOverlay returns one overlay point per district of the province for
// the given category. An empty result is a valid answer, not an error.
func (a *Analyzer) GetMapOverlay(ctx context.Context, province string, categoryID int64) ([]model.MapPoint, error) {
	stats, err := a.store.ListStatsByProvince(ctx, province, categoryID)
	if err != nil {
		return nil, eris.Wrapf(err, "analysis: list stats for province %s", province)
	}

	var locate func(string) (float64, float64, bool)
	if a.locator != nil {
		locate = a.locator.Centroid
	}
	return BuildMapPoints(stats, locate), nil
}

// GetRankings resolves the candidate set for the request and delegates to
// Rank. An empty candidate set yields an empty ranking.
func (a *Analyzer) GetRankings(ctx context.Context, req model.RankingRequest) ([]model.RankedResult, error) {
	stats, err := a.fetchCandidates(ctx, req)
	if err != nil {
		return nil, err
	}

	results := Rank(stats, req, a.topN)

	zap.L().Debug("analysis: ranking computed",
		zap.String("adm_code", req.AdmCode),
		zap.String("sort", string(req.SortOption)),
		zap.Bool("weighted", req.Weights != nil),
		zap.Int("candidates", len(stats)),
		zap.Int("ranked", len(results)),
	)
	return results, nil
}

func (a *Analyzer) fetchCandidates(ctx context.Context, req model.RankingRequest) ([]model.MarketStats, error) {
	if req.AdmCode == "" {
		stats, err := a.store.ListAllStats(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "analysis: list all stats")
		}
		return stats, nil
	}
	stats, err := a.store.ListStatsByRegion(ctx, req.AdmCode)
	if err != nil {
		return nil, eris.Wrapf(err, "analysis: list stats for region %s", req.AdmCode)
	}
	return stats, nil
}

// Categories lists the business categories available for analysis.
func (a *Analyzer) Categories(ctx context.Context) ([]model.Category, error) {
	categories, err := a.store.ListCategories(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "analysis: list categories")
	}
	return categories, nil
}

// CompareFranchise contrasts every franchise brand of the category with
// the local market identified by admCode. Returns ErrNotFound (wrapped)
// when the market has no statistics row.
func (a *Analyzer) CompareFranchise(ctx context.Context, admCode string, categoryID int64) ([]model.FranchiseComparison, error) {
	stats, err := a.store.FindStats(ctx, admCode, categoryID)
	if err != nil {
		return nil, eris.Wrapf(err, "analysis: find stats %s/%d", admCode, categoryID)
	}
	franchises, err := a.store.ListFranchisesByCategory(ctx, categoryID)
	if err != nil {
		return nil, eris.Wrapf(err, "analysis: list franchises for category %d", categoryID)
	}

	comparisons := make([]model.FranchiseComparison, 0, len(franchises))
	for _, f := range franchises {
		comparisons = append(comparisons, CompareFranchise(f, stats))
	}
	return comparisons, nil
}
