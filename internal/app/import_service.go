package app

import (
	"context"
	"strings"
	"time"

	"github.com/madmatrix/tickethub/internal/clock"
	"github.com/madmatrix/tickethub/internal/domain"
)

type RegistryStore interface {
	ReplaceSheet(ctx context.Context, sheet, origin string, rows []domain.RegistryRow, at time.Time) (int, error)
	Sheets(ctx context.Context) ([]string, error)
}

// ImportService loads registry snapshots into the database.
type ImportService struct {
	store RegistryStore
	clock clock.Clock
}

func NewImportService(store RegistryStore, clk clock.Clock) *ImportService {
	return &ImportService{store: store, clock: clk}
}

type ImportInput struct {
	Sheet  string
	Origin string
	Rows   []domain.RegistryRow
}

// Import replaces the stored rows of a sheet and returns how many were written.
func (s *ImportService) Import(ctx context.Context, in ImportInput) (int, error) {
	sheet := strings.TrimSpace(in.Sheet)
	if sheet == "" {
		return 0, domain.ErrSheetRequired
	}
	if len(in.Rows) == 0 {
		return 0, domain.ErrNoRows
	}
	return s.store.ReplaceSheet(ctx, sheet, in.Origin, in.Rows, s.clock.Now())
}

func (s *ImportService) Sheets(ctx context.Context) ([]string, error) {
	return s.store.Sheets(ctx)
}
