package fetcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "cards.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX_Basic(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Cards": {
			{"ID", "STAGE_ID"},
			{"1", " DT1052_16:NEW "},
		},
	})

	rows, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"ID", "STAGE_ID"}, rows[0])
	assert.Equal(t, []string{"1", "DT1052_16:NEW"}, rows[1])
}

func TestReadXLSX_SheetName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Cards": {{"card"}},
		"Mesas": {{"desk"}},
	})

	rows, err := ReadXLSX(path, XLSXOptions{SheetName: "Mesas"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"desk"}}, rows)

	_, err = ReadXLSX(path, XLSXOptions{SheetName: "Nope"})
	assert.ErrorContains(t, err, `sheet "Nope" not found`)
}

func TestReadXLSX_SheetIndexOutOfRange(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Cards": {{"x"}}})

	_, err := ReadXLSX(path, XLSXOptions{SheetIndex: 3})
	assert.ErrorContains(t, err, "out of range")

	_, err = ReadXLSX(path, XLSXOptions{SheetIndex: -1})
	assert.ErrorContains(t, err, "out of range")
}

func TestReadXLSX_FileErrors(t *testing.T) {
	_, err := ReadXLSX(filepath.Join(t.TempDir(), "missing.xlsx"), XLSXOptions{})
	assert.ErrorContains(t, err, "xlsx: open file")

	bad := filepath.Join(t.TempDir(), "bad.xlsx")
	require.NoError(t, os.WriteFile(bad, []byte("not a zip"), 0o644))
	_, err = ReadXLSX(bad, XLSXOptions{})
	assert.ErrorContains(t, err, "xlsx: open file")
}
