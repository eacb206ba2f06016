package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/alstn9213/open-insight/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs local
// development and tests; production deployments use PostgresStore.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS regions (
	region_id INTEGER PRIMARY KEY AUTOINCREMENT,
	province  TEXT NOT NULL,
	district  TEXT NOT NULL,
	town      TEXT DEFAULT '',
	adm_code  TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS categories (
	category_id INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS market_stats (
	stats_id            INTEGER PRIMARY KEY AUTOINCREMENT,
	region_id           INTEGER NOT NULL REFERENCES regions(region_id),
	category_id         INTEGER NOT NULL REFERENCES categories(category_id),
	store_count         INTEGER NOT NULL DEFAULT 0,
	floating_population INTEGER NOT NULL DEFAULT 0,
	male_population     INTEGER NOT NULL DEFAULT 0,
	female_population   INTEGER NOT NULL DEFAULT 0,
	age_group           TEXT DEFAULT '',
	average_sales       INTEGER NOT NULL DEFAULT 0,
	growth_rate         REAL NOT NULL DEFAULT 0,
	closing_rate        REAL NOT NULL DEFAULT 0,
	net_growth_rate     REAL NOT NULL DEFAULT 0,
	market_grade        TEXT NOT NULL DEFAULT 'YELLOW',
	created_at          DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at          DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (region_id, category_id)
);

CREATE TABLE IF NOT EXISTS franchises (
	franchise_id     INTEGER PRIMARY KEY AUTOINCREMENT,
	category_id      INTEGER NOT NULL REFERENCES categories(category_id),
	brand_name       TEXT NOT NULL,
	average_lifespan INTEGER NOT NULL DEFAULT 0,
	initial_cost     INTEGER NOT NULL DEFAULT 0,
	franchise_fee    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS members (
	member_id     TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	nickname      TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'USER',
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_market_stats_region ON market_stats(region_id);
CREATE INDEX IF NOT EXISTS idx_market_stats_category ON market_stats(category_id);
CREATE INDEX IF NOT EXISTS idx_regions_province ON regions(province);
CREATE INDEX IF NOT EXISTS idx_franchises_category ON franchises(category_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteStatsSelect = `
	SELECT s.stats_id, s.store_count, s.floating_population,
		s.male_population, s.female_population,
		COALESCE(s.age_group, ''), s.average_sales,
		s.growth_rate, s.closing_rate, s.net_growth_rate,
		s.market_grade, s.created_at, s.updated_at,
		r.region_id, r.province, r.district, COALESCE(r.town, ''), r.adm_code,
		c.category_id, c.name
	FROM market_stats s
	JOIN regions r ON r.region_id = s.region_id
	JOIN categories c ON c.category_id = s.category_id`

type sqliteRowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteStats(row sqliteRowScanner) (*model.MarketStats, error) {
	var m model.MarketStats
	err := row.Scan(
		&m.ID, &m.StoreCount, &m.FloatingPopulation,
		&m.MalePopulation, &m.FemalePopulation,
		&m.AgeGroup, &m.AverageSales,
		&m.GrowthRate, &m.ClosingRate, &m.NetGrowthRate,
		&m.Grade, &m.CreatedAt, &m.UpdatedAt,
		&m.Region.ID, &m.Region.Province, &m.Region.District, &m.Region.Town, &m.Region.AdmCode,
		&m.Category.ID, &m.Category.Name,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SQLiteStore) FindStats(ctx context.Context, admCode string, categoryID int64) (*model.MarketStats, error) {
	row := s.db.QueryRowContext(ctx,
		sqliteStatsSelect+" WHERE r.adm_code = ? AND c.category_id = ?", admCode, categoryID)

	m, err := scanSQLiteStats(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "sqlite: find stats")
	}
	return m, nil
}

func (s *SQLiteStore) listStats(ctx context.Context, query string, args ...any) ([]model.MarketStats, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MarketStats
	for rows.Next() {
		m, err := scanSQLiteStats(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListStatsByRegion(ctx context.Context, admCode string) ([]model.MarketStats, error) {
	out, err := s.listStats(ctx, sqliteStatsSelect+" WHERE r.adm_code = ? ORDER BY s.stats_id", admCode)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list stats for region %s", admCode)
	}
	return out, nil
}

func (s *SQLiteStore) ListStatsByProvince(ctx context.Context, province string, categoryID int64) ([]model.MarketStats, error) {
	out, err := s.listStats(ctx,
		sqliteStatsSelect+" WHERE r.province = ? AND c.category_id = ? ORDER BY s.stats_id",
		province, categoryID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list stats for province %s", province)
	}
	return out, nil
}

func (s *SQLiteStore) ListAllStats(ctx context.Context) ([]model.MarketStats, error) {
	out, err := s.listStats(ctx, sqliteStatsSelect+" ORDER BY s.stats_id")
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list all stats")
	}
	return out, nil
}

func (s *SQLiteStore) UpsertStats(ctx context.Context, statsRows []model.MarketStats) (int64, error) {
	if len(statsRows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert stats: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO market_stats (
			region_id, category_id, store_count, floating_population,
			male_population, female_population, age_group, average_sales,
			growth_rate, closing_rate, net_growth_rate, market_grade, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (region_id, category_id) DO UPDATE SET
			store_count = excluded.store_count,
			floating_population = excluded.floating_population,
			male_population = excluded.male_population,
			female_population = excluded.female_population,
			age_group = excluded.age_group,
			average_sales = excluded.average_sales,
			growth_rate = excluded.growth_rate,
			closing_rate = excluded.closing_rate,
			net_growth_rate = excluded.net_growth_rate,
			market_grade = excluded.market_grade,
			updated_at = excluded.updated_at`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert stats: prepare")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	var n int64
	for _, m := range statsRows {
		if _, err := stmt.ExecContext(ctx,
			m.Region.ID, m.Category.ID, m.StoreCount, m.FloatingPopulation,
			m.MalePopulation, m.FemalePopulation, m.AgeGroup, m.AverageSales,
			m.GrowthRate, m.ClosingRate, m.NetGrowthRate, string(m.Grade), now,
		); err != nil {
			return n, eris.Wrapf(err, "sqlite: upsert stats row %d/%d", m.Region.ID, m.Category.ID)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return n, eris.Wrap(err, "sqlite: upsert stats: commit")
	}
	return n, nil
}

func (s *SQLiteStore) ListRegions(ctx context.Context) ([]model.Region, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT region_id, province, district, COALESCE(town, ''), adm_code FROM regions ORDER BY region_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list regions")
	}
	defer rows.Close()

	var out []model.Region
	for rows.Next() {
		var r model.Region
		if err := rows.Scan(&r.ID, &r.Province, &r.District, &r.Town, &r.AdmCode); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan region")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category_id, name FROM categories ORDER BY category_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list categories")
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan category")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpsertRegions(ctx context.Context, regions []model.Region) (int64, error) {
	var n int64
	for _, r := range regions {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO regions (province, district, town, adm_code)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (adm_code) DO UPDATE SET
				province = excluded.province,
				district = excluded.district,
				town = excluded.town`,
			r.Province, r.District, r.Town, r.AdmCode)
		if err != nil {
			return n, eris.Wrapf(err, "sqlite: upsert region %s", r.AdmCode)
		}
		affected, _ := res.RowsAffected()
		n += affected
	}
	return n, nil
}

func (s *SQLiteStore) UpsertCategories(ctx context.Context, categories []model.Category) (int64, error) {
	var n int64
	for _, c := range categories {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO categories (name) VALUES (?)
			ON CONFLICT (name) DO NOTHING`, c.Name)
		if err != nil {
			return n, eris.Wrapf(err, "sqlite: upsert category %s", c.Name)
		}
		affected, _ := res.RowsAffected()
		n += affected
	}
	return n, nil
}

func (s *SQLiteStore) ListFranchisesByCategory(ctx context.Context, categoryID int64) ([]model.Franchise, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT franchise_id, category_id, brand_name, average_lifespan, initial_cost, franchise_fee
		FROM franchises WHERE category_id = ? ORDER BY franchise_id`, categoryID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list franchises")
	}
	defer rows.Close()

	var out []model.Franchise
	for rows.Next() {
		var f model.Franchise
		if err := rows.Scan(&f.ID, &f.CategoryID, &f.BrandName, &f.AverageLifespan, &f.InitialCost, &f.FranchiseFee); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan franchise")
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateMember(ctx context.Context, member model.Member) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (member_id, email, password_hash, nickname, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		member.ID, member.Email, member.PasswordHash, member.Nickname, string(member.Role), member.CreatedAt.UTC())
	return eris.Wrap(err, "sqlite: create member")
}

func (s *SQLiteStore) FindMemberByEmail(ctx context.Context, email string) (*model.Member, error) {
	var m model.Member
	err := s.db.QueryRowContext(ctx, `
		SELECT member_id, email, password_hash, nickname, role, created_at
		FROM members WHERE email = ?`, email).
		Scan(&m.ID, &m.Email, &m.PasswordHash, &m.Nickname, &m.Role, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "sqlite: find member")
	}
	return &m, nil
}
