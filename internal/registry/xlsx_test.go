package registry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "registry.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestXLSXSource_Fetch(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, "ON STAGE", [][]any{
		{"Name", "Reg No", "", "Email"},
		{"Alice K", "MM26-001", "ignored", "alice@example.com"},
		{"", "", "", ""},
		{"Bob", "MM26-002"},
	})

	src := NewXLSXSource("on-stage", path, "ON STAGE")
	rows, err := src.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "Alice K", rows[0]["Name"])
	assert.Equal(t, "alice@example.com", rows[0]["Email"])
	assert.NotContains(t, rows[0], "")
	assert.Equal(t, "", rows[1]["Email"])

	a := Normalize(rows[0], "alice@example.com")
	assert.Equal(t, "MM26-001", a.RegistrationNumber)
}

func TestXLSXSource_DefaultsToFirstSheet(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, "Sheet1", [][]any{
		{"Name", "Email"},
		{"Carol", "carol@example.com"},
	})

	rows, err := NewXLSXSource("main", path, "").Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Carol", rows[0]["Name"])
}

func TestXLSXSource_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewXLSXSource("missing", filepath.Join(t.TempDir(), "nope.xlsx"), "").Fetch(context.Background())
	assert.Error(t, err)

	path := writeWorkbook(t, "Sheet1", [][]any{{"Name"}})
	_, err = NewXLSXSource("bad-sheet", path, "DOES NOT EXIST").Fetch(context.Background())
	assert.Error(t, err)
}
