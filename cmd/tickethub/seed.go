package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/madmatrix/tickethub/internal/app"
	"github.com/madmatrix/tickethub/internal/clock"
	"github.com/madmatrix/tickethub/internal/domain"
	"github.com/madmatrix/tickethub/internal/registry"
	"github.com/madmatrix/tickethub/internal/storage/postgres"
	"github.com/madmatrix/tickethub/migrations"
)

var (
	seedSheet     string
	seedFile      string
	seedFileSheet string
	seedList      bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a registry sheet snapshot (xlsx or json) into the database",
	Long: `Replaces the stored rows of one registry sheet with the rows of a file.
A .xlsx workbook uses its first row as the header; a .json file holds an array
of objects, the same shape SheetDB answers with. --list prints the stored
sheet names instead.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedSheet, "sheet", "", "Registry sheet name to replace")
	seedCmd.Flags().StringVar(&seedFile, "file", "", "Path to a .xlsx or .json file")
	seedCmd.Flags().StringVar(&seedFileSheet, "xlsx-sheet", "", "Workbook sheet to read (default: first)")
	seedCmd.Flags().BoolVar(&seedList, "list", false, "List the stored sheets and exit")
	seedCmd.MarkFlagsRequiredTogether("sheet", "file")
	seedCmd.MarkFlagsOneRequired("file", "list")
	seedCmd.MarkFlagsMutuallyExclusive("file", "list")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var rows []domain.RegistryRow
	if !seedList {
		if rows, err = readRows(seedFile, seedFileSheet); err != nil {
			return err
		}
	}

	if cfg.Database.URL == "" {
		return errors.New("database.url (or DATABASE_URL) is required")
	}
	pool, err := openPool(cmd.Context(), cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if _, err := migrations.Apply(cmd.Context(), pool); err != nil {
		return err
	}

	svc := app.NewImportService(postgres.NewRegistryRepository(pool), clock.NewSystem())
	if seedList {
		return listSheets(cmd.Context(), cmd.OutOrStdout(), svc)
	}
	n, err := svc.Import(cmd.Context(), app.ImportInput{
		Sheet:  seedSheet,
		Origin: filepath.Base(seedFile),
		Rows:   rows,
	})
	if err != nil {
		return err
	}
	logger.Info("registry sheet seeded", zap.String("sheet", seedSheet), zap.Int("rows", n))
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d rows into %q\n", n, seedSheet)
	return nil
}

type sheetLister interface {
	Sheets(ctx context.Context) ([]string, error)
}

func listSheets(ctx context.Context, w io.Writer, svc sheetLister) error {
	sheets, err := svc.Sheets(ctx)
	if err != nil {
		return fmt.Errorf("list sheets: %w", err)
	}
	if len(sheets) == 0 {
		fmt.Fprintln(w, "no stored sheets")
		return nil
	}
	for _, name := range sheets {
		fmt.Fprintln(w, name)
	}
	return nil
}

func readRows(path, sheet string) ([]domain.RegistryRow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		defer f.Close()
		return registry.ReadSheet(f, sheet)
	case ".json":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var rows []domain.RegistryRow
		if err := json.Unmarshal(b, &rows); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("unsupported file type %q, want .xlsx or .json", filepath.Ext(path))
	}
}
