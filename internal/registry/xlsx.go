package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/madmatrix/tickethub/internal/domain"
)

// XLSXSource reads registry rows from a local workbook. The first row of the
// sheet is the header.
type XLSXSource struct {
	name  string
	path  string
	sheet string
}

func NewXLSXSource(name, path, sheet string) *XLSXSource {
	return &XLSXSource{name: name, path: path, sheet: sheet}
}

func (s *XLSXSource) Name() string { return s.name }

func (s *XLSXSource) Fetch(ctx context.Context) ([]domain.RegistryRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%s: open workbook: %w", s.name, err)
	}
	defer f.Close()

	return ReadSheet(f, s.sheet)
}

// ReadSheet converts a sheet (the first one when sheet is empty) into rows keyed
// by header text. Blank header cells are skipped and fully blank rows dropped.
func ReadSheet(f *excelize.File, sheet string) ([]domain.RegistryRow, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	out := make([]domain.RegistryRow, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		row := make(domain.RegistryRow, len(header))
		blank := true
		for i, col := range header {
			col = strings.TrimSpace(col)
			if col == "" {
				continue
			}
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			if strings.TrimSpace(val) != "" {
				blank = false
			}
			row[col] = val
		}
		if !blank {
			out = append(out, row)
		}
	}
	return out, nil
}
