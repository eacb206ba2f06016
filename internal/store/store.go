package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/alstn9213/open-insight/internal/model"
)

// ErrNotFound is returned by single-record lookups when no row matches the
// requested key. Batch listings return empty slices instead.
var ErrNotFound = eris.New("not found")

// Store is the persistence interface backing the analysis service, the
// ingestion job and the auth layer.
type Store interface {
	// Market statistics
	FindStats(ctx context.Context, admCode string, categoryID int64) (*model.MarketStats, error)
	ListStatsByRegion(ctx context.Context, admCode string) ([]model.MarketStats, error)
	ListStatsByProvince(ctx context.Context, province string, categoryID int64) ([]model.MarketStats, error)
	ListAllStats(ctx context.Context) ([]model.MarketStats, error)
	UpsertStats(ctx context.Context, rows []model.MarketStats) (int64, error)

	// Reference data
	ListRegions(ctx context.Context) ([]model.Region, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	UpsertRegions(ctx context.Context, regions []model.Region) (int64, error)
	UpsertCategories(ctx context.Context, categories []model.Category) (int64, error)

	// Franchises
	ListFranchisesByCategory(ctx context.Context, categoryID int64) ([]model.Franchise, error)

	// Members
	CreateMember(ctx context.Context, member model.Member) error
	FindMemberByEmail(ctx context.Context, email string) (*model.Member, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
