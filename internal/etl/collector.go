package etl

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alstn9213/open-insight/internal/model"
)

// CollectorStore is the subset of the store the collector needs.
type CollectorStore interface {
	ListRegions(ctx context.Context) ([]model.Region, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	UpsertStats(ctx context.Context, rows []model.MarketStats) (int64, error)
}

// Report summarizes one collection run.
type Report struct {
	Regions    int
	Categories int
	Pairs      int
	Failures   int64
	Upserted   int64
	Elapsed    time.Duration
}

// Collector runs the nightly statistics collection: population figures per
// region, store figures per region and category, then one bulk upsert.
type Collector struct {
	store       CollectorStore
	client      *Client
	concurrency int
}

func NewCollector(st CollectorStore, client *Client, concurrency int) *Collector {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Collector{store: st, client: client, concurrency: concurrency}
}

// Run collects statistics for every region and category pair. Individual
// API failures degrade that pair to zero figures rather than aborting the
// run; the failure count is reported so operators can spot a bad night.
func (c *Collector) Run(ctx context.Context) (*Report, error) {
	started := time.Now()

	regions, err := c.store.ListRegions(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "etl: list regions")
	}
	categories, err := c.store.ListCategories(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "etl: list categories")
	}
	if len(regions) == 0 || len(categories) == 0 {
		return nil, eris.New("etl: regions and categories must be seeded before collection")
	}

	var failures int64

	// Population is per region, so fetch it once and share it across the
	// region's category pairs.
	populations := make(map[string]*PopulationFigures, len(regions))
	var popMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, region := range regions {
		g.Go(func() error {
			pop, err := c.client.FetchPopulation(gctx, region.AdmCode)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				atomic.AddInt64(&failures, 1)
				zap.L().Warn("population fetch failed, degrading to zero",
					zap.String("adm_code", region.AdmCode),
					zap.Error(err),
				)
				pop = &PopulationFigures{}
			}
			popMu.Lock()
			populations[region.AdmCode] = pop
			popMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "etl: collect population")
	}

	rows := make([]model.MarketStats, 0, len(regions)*len(categories))
	var rowsMu sync.Mutex

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, region := range regions {
		for _, category := range categories {
			g.Go(func() error {
				figures, err := c.client.FetchStoreFigures(gctx, region.AdmCode, category.Name)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					atomic.AddInt64(&failures, 1)
					zap.L().Warn("store fetch failed, degrading to zero",
						zap.String("adm_code", region.AdmCode),
						zap.String("category", category.Name),
						zap.Error(err),
					)
					figures = &StoreFigures{}
				}

				row := BuildStats(region, category, figures, populations[region.AdmCode])
				rowsMu.Lock()
				rows = append(rows, row)
				rowsMu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "etl: collect store figures")
	}

	upserted, err := c.store.UpsertStats(ctx, rows)
	if err != nil {
		return nil, eris.Wrap(err, "etl: upsert stats")
	}

	report := &Report{
		Regions:    len(regions),
		Categories: len(categories),
		Pairs:      len(rows),
		Failures:   atomic.LoadInt64(&failures),
		Upserted:   upserted,
		Elapsed:    time.Since(started),
	}
	zap.L().Info("collection run complete",
		zap.Int("regions", report.Regions),
		zap.Int("categories", report.Categories),
		zap.Int("pairs", report.Pairs),
		zap.Int64("failures", report.Failures),
		zap.Int64("upserted", report.Upserted),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}
