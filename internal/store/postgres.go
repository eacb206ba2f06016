package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/alstn9213/open-insight/internal/db"
	"github.com/alstn9213/open-insight/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// statsColumns is the join projection shared by every statistics query.
const statsColumns = `
	s.stats_id, s.store_count, COALESCE(s.floating_population, 0),
	COALESCE(s.male_population, 0), COALESCE(s.female_population, 0),
	COALESCE(s.age_group, ''), COALESCE(s.average_sales, 0),
	COALESCE(s.growth_rate, 0), COALESCE(s.closing_rate, 0),
	COALESCE(s.net_growth_rate, 0), s.market_grade, s.created_at, s.updated_at,
	r.region_id, r.province, r.district, COALESCE(r.town, ''), r.adm_code,
	c.category_id, c.name`

const statsFrom = `
	FROM market_stats s
	JOIN regions r ON r.region_id = s.region_id
	JOIN categories c ON c.category_id = s.category_id`

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hottest store operations.
var preparedStatements = map[string]string{
	"find_stats":        "SELECT" + statsColumns + statsFrom + " WHERE r.adm_code = $1 AND c.category_id = $2",
	"stats_by_region":   "SELECT" + statsColumns + statsFrom + " WHERE r.adm_code = $1 ORDER BY s.stats_id",
	"stats_by_province": "SELECT" + statsColumns + statsFrom + " WHERE r.province = $1 AND c.category_id = $2 ORDER BY s.stats_id",
	"all_stats":         "SELECT" + statsColumns + statsFrom + " ORDER BY s.stats_id",
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need
// direct query access (e.g., bulk ingestion).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS regions (
	region_id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	province  TEXT NOT NULL,
	district  TEXT NOT NULL,
	town      TEXT,
	adm_code  TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS categories (
	category_id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS market_stats (
	stats_id            BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	region_id           BIGINT NOT NULL REFERENCES regions(region_id),
	category_id         BIGINT NOT NULL REFERENCES categories(category_id),
	store_count         INT NOT NULL DEFAULT 0,
	floating_population INT NOT NULL DEFAULT 0,
	male_population     INT NOT NULL DEFAULT 0,
	female_population   INT NOT NULL DEFAULT 0,
	age_group           TEXT,
	average_sales       BIGINT NOT NULL DEFAULT 0,
	growth_rate         DOUBLE PRECISION NOT NULL DEFAULT 0,
	closing_rate        DOUBLE PRECISION NOT NULL DEFAULT 0,
	net_growth_rate     DOUBLE PRECISION NOT NULL DEFAULT 0,
	market_grade        TEXT NOT NULL DEFAULT 'YELLOW',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (region_id, category_id)
);

CREATE TABLE IF NOT EXISTS franchises (
	franchise_id     BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	category_id      BIGINT NOT NULL REFERENCES categories(category_id),
	brand_name       TEXT NOT NULL,
	average_lifespan INT NOT NULL DEFAULT 0,
	initial_cost     BIGINT NOT NULL DEFAULT 0,
	franchise_fee    BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS members (
	member_id     TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	nickname      TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'USER',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_market_stats_region ON market_stats(region_id);
CREATE INDEX IF NOT EXISTS idx_market_stats_category ON market_stats(category_id);
CREATE INDEX IF NOT EXISTS idx_regions_province ON regions(province);
CREATE INDEX IF NOT EXISTS idx_franchises_category ON franchises(category_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func scanStats(row pgx.Row) (*model.MarketStats, error) {
	var m model.MarketStats
	err := row.Scan(
		&m.ID, &m.StoreCount, &m.FloatingPopulation,
		&m.MalePopulation, &m.FemalePopulation,
		&m.AgeGroup, &m.AverageSales,
		&m.GrowthRate, &m.ClosingRate,
		&m.NetGrowthRate, &m.Grade, &m.CreatedAt, &m.UpdatedAt,
		&m.Region.ID, &m.Region.Province, &m.Region.District, &m.Region.Town, &m.Region.AdmCode,
		&m.Category.ID, &m.Category.Name,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *PostgresStore) FindStats(ctx context.Context, admCode string, categoryID int64) (*model.MarketStats, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT"+statsColumns+statsFrom+" WHERE r.adm_code = $1 AND c.category_id = $2",
		admCode, categoryID)

	m, err := scanStats(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "postgres: find stats")
	}
	return m, nil
}

func (s *PostgresStore) listStats(ctx context.Context, sql string, args ...any) ([]model.MarketStats, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MarketStats
	for rows.Next() {
		m, err := scanStats(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListStatsByRegion(ctx context.Context, admCode string) ([]model.MarketStats, error) {
	out, err := s.listStats(ctx,
		"SELECT"+statsColumns+statsFrom+" WHERE r.adm_code = $1 ORDER BY s.stats_id", admCode)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list stats for region %s", admCode)
	}
	return out, nil
}

func (s *PostgresStore) ListStatsByProvince(ctx context.Context, province string, categoryID int64) ([]model.MarketStats, error) {
	out, err := s.listStats(ctx,
		"SELECT"+statsColumns+statsFrom+" WHERE r.province = $1 AND c.category_id = $2 ORDER BY s.stats_id",
		province, categoryID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list stats for province %s", province)
	}
	return out, nil
}

func (s *PostgresStore) ListAllStats(ctx context.Context) ([]model.MarketStats, error) {
	out, err := s.listStats(ctx, "SELECT"+statsColumns+statsFrom+" ORDER BY s.stats_id")
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list all stats")
	}
	return out, nil
}

// statsUpsertColumns is the column order UpsertStats feeds into BulkUpsert.
var statsUpsertColumns = []string{
	"region_id", "category_id", "store_count", "floating_population",
	"male_population", "female_population", "age_group", "average_sales",
	"growth_rate", "closing_rate", "net_growth_rate", "market_grade", "updated_at",
}

func (s *PostgresStore) UpsertStats(ctx context.Context, statsRows []model.MarketStats) (int64, error) {
	if len(statsRows) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(statsRows))
	for _, m := range statsRows {
		rows = append(rows, []any{
			m.Region.ID, m.Category.ID, m.StoreCount, m.FloatingPopulation,
			m.MalePopulation, m.FemalePopulation, m.AgeGroup, m.AverageSales,
			m.GrowthRate, m.ClosingRate, m.NetGrowthRate, string(m.Grade), now,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "market_stats",
		Columns:      statsUpsertColumns,
		ConflictKeys: []string{"region_id", "category_id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert stats")
	}
	return n, nil
}

func (s *PostgresStore) ListRegions(ctx context.Context) ([]model.Region, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT region_id, province, district, COALESCE(town, ''), adm_code FROM regions ORDER BY region_id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list regions")
	}
	defer rows.Close()

	var out []model.Region
	for rows.Next() {
		var r model.Region
		if err := rows.Scan(&r.ID, &r.Province, &r.District, &r.Town, &r.AdmCode); err != nil {
			return nil, eris.Wrap(err, "postgres: scan region")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT category_id, name FROM categories ORDER BY category_id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list categories")
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan category")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpsertRegions(ctx context.Context, regions []model.Region) (int64, error) {
	var n int64
	for _, r := range regions {
		tag, err := s.pool.Exec(ctx, `
			INSERT INTO regions (province, district, town, adm_code)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (adm_code) DO UPDATE SET
				province = EXCLUDED.province,
				district = EXCLUDED.district,
				town = EXCLUDED.town`,
			r.Province, r.District, r.Town, r.AdmCode)
		if err != nil {
			return n, eris.Wrapf(err, "postgres: upsert region %s", r.AdmCode)
		}
		n += tag.RowsAffected()
	}
	return n, nil
}

func (s *PostgresStore) UpsertCategories(ctx context.Context, categories []model.Category) (int64, error) {
	var n int64
	for _, c := range categories {
		tag, err := s.pool.Exec(ctx, `
			INSERT INTO categories (name)
			VALUES ($1)
			ON CONFLICT (name) DO NOTHING`,
			c.Name)
		if err != nil {
			return n, eris.Wrapf(err, "postgres: upsert category %s", c.Name)
		}
		n += tag.RowsAffected()
	}
	return n, nil
}

func (s *PostgresStore) ListFranchisesByCategory(ctx context.Context, categoryID int64) ([]model.Franchise, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT franchise_id, category_id, brand_name, average_lifespan, initial_cost, franchise_fee
		FROM franchises WHERE category_id = $1 ORDER BY franchise_id`, categoryID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list franchises")
	}
	defer rows.Close()

	var out []model.Franchise
	for rows.Next() {
		var f model.Franchise
		if err := rows.Scan(&f.ID, &f.CategoryID, &f.BrandName, &f.AverageLifespan, &f.InitialCost, &f.FranchiseFee); err != nil {
			return nil, eris.Wrap(err, "postgres: scan franchise")
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateMember(ctx context.Context, member model.Member) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO members (member_id, email, password_hash, nickname, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		member.ID, member.Email, member.PasswordHash, member.Nickname, string(member.Role), member.CreatedAt)
	return eris.Wrap(err, "postgres: create member")
}

func (s *PostgresStore) FindMemberByEmail(ctx context.Context, email string) (*model.Member, error) {
	var m model.Member
	err := s.pool.QueryRow(ctx, `
		SELECT member_id, email, password_hash, nickname, role, created_at
		FROM members WHERE email = $1`, email).
		Scan(&m.ID, &m.Email, &m.PasswordHash, &m.Nickname, &m.Role, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "postgres: find member")
	}
	return &m, nil
}
