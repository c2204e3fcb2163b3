package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/madmatrix/tickethub/internal/domain"
)

// RegistryRepository stores registry rows as JSONB, grouped by sheet.
type RegistryRepository struct {
	pool *pgxpool.Pool
}

func NewRegistryRepository(pool *pgxpool.Pool) *RegistryRepository {
	return &RegistryRepository{pool: pool}
}

func (r *RegistryRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// Rows returns the rows of sheet in import order.
func (r *RegistryRepository) Rows(ctx context.Context, sheet string) ([]domain.RegistryRow, error) {
	const query = `SELECT data FROM registry_rows WHERE sheet = $1 ORDER BY position`

	rows, err := conn(ctx, r.pool).Query(ctx, query, sheet)
	if err != nil {
		return nil, fmt.Errorf("query registry rows: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.RegistryRow, error) {
		var data map[string]any
		if err := row.Scan(&data); err != nil {
			return nil, err
		}
		return domain.RegistryRow(data), nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan registry rows: %w", err)
	}
	return out, nil
}

// ReplaceSheet swaps the content of sheet for rows atomically and records the
// import. It returns the number of rows stored.
func (r *RegistryRepository) ReplaceSheet(ctx context.Context, sheet, origin string, rows []domain.RegistryRow, at time.Time) (int, error) {
	err := r.WithTx(ctx, func(txCtx context.Context) error {
		q := conn(txCtx, r.pool)
		if _, err := q.Exec(txCtx, `DELETE FROM registry_rows WHERE sheet = $1`, sheet); err != nil {
			return fmt.Errorf("clear sheet: %w", err)
		}

		batch := &pgx.Batch{}
		for i, row := range rows {
			batch.Queue(
				`INSERT INTO registry_rows (sheet, position, data) VALUES ($1, $2, $3)`,
				sheet, i, map[string]any(row),
			)
		}
		if batch.Len() > 0 {
			br := txFromContext(txCtx).SendBatch(txCtx, batch)
			for i := 0; i < batch.Len(); i++ {
				if _, err := br.Exec(); err != nil {
					_ = br.Close()
					return fmt.Errorf("insert row %d: %w", i, err)
				}
			}
			if err := br.Close(); err != nil {
				return fmt.Errorf("insert rows: %w", err)
			}
		}

		if _, err := q.Exec(txCtx,
			`INSERT INTO registry_imports (sheet, origin, row_count, imported_at) VALUES ($1, $2, $3, $4)`,
			sheet, origin, len(rows), at,
		); err != nil {
			return fmt.Errorf("record import: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Sheets lists the sheets that currently hold rows.
func (r *RegistryRepository) Sheets(ctx context.Context) ([]string, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT DISTINCT sheet FROM registry_rows ORDER BY sheet`)
	if err != nil {
		return nil, fmt.Errorf("query sheets: %w", err)
	}
	sheets, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan sheets: %w", err)
	}
	return sheets, nil
}

// RegistrySource exposes one sheet of the repository as a registry source.
type RegistrySource struct {
	name  string
	sheet string
	repo  *RegistryRepository
}

func NewRegistrySource(name, sheet string, repo *RegistryRepository) *RegistrySource {
	if sheet == "" {
		sheet = name
	}
	return &RegistrySource{name: name, sheet: sheet, repo: repo}
}

func (s *RegistrySource) Name() string { return s.name }

func (s *RegistrySource) Fetch(ctx context.Context) ([]domain.RegistryRow, error) {
	return s.repo.Rows(ctx, s.sheet)
}
