package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wardRecords/models"
)

func TestSpreadsheets_DecodeXLS(t *testing.T) {
	rows, err := Spreadsheets{}.Decode(filepath.Join("testdata", "table.xls"), models.MIMESpreadsheetXLS)
	require.NoError(t, err)
	require.Len(t, rows, 11)
	assert.Equal(t, Row{"Code": "code1", "Name": "name1", "Description": "description1"}, rows[0])
	assert.Equal(t, Row{"Code": "code11", "Name": "name11", "Description": "description11"}, rows[10])
}

func TestSpreadsheets_DecodeXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maquinas.xlsx")
	require.NoError(t, os.WriteFile(path, xlsxBytes(t, [][]string{
		{"equipo", "estado"},
		{"Monitor", "activo"},
		{},
		{"Bomba", ""},
	}), 0o644))

	rows, err := Spreadsheets{}.Decode(path, models.MIMESpreadsheetXLSX+"; charset=binary")
	require.NoError(t, err)
	assert.Equal(t, []Row{{"equipo": "Monitor", "estado": "activo"}, {"equipo": "Bomba"}}, rows)
}

func TestSpreadsheets_RejectsOtherTypes(t *testing.T) {
	_, err := Spreadsheets{}.Decode(filepath.Join("testdata", "table.xls"), models.MIMEPDF)
	assert.Error(t, err)
}

func TestRowsFromGrid(t *testing.T) {
	grid := [][]string{
		{"nombre", ""},
		nil,
		{"Ana", "extra"},
		{"", "", "tercera"},
	}
	assert.Equal(t, []Row{
		{"nombre": "Ana", "column_2": "extra"},
		{"column_3": "tercera"},
	}, rowsFromGrid(grid))
	assert.Nil(t, rowsFromGrid(nil))
}
