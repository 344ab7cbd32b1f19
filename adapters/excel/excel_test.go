package excel

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"surveydash/domain/dataset"
)

func TestReadCSV(t *testing.T) {
	src := "\xef\xbb\xbf province , score,notes\nKabul, 10 ,\nBalkh,20\n"

	table, err := Read(strings.NewReader(src), FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, []string{"province", "score", "notes"}, table.Columns())
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "10", table.Row(0).Get("score").Text())
	assert.True(t, table.Row(0).Get("notes").IsMissing())
	assert.True(t, table.Row(1).Get("notes").IsMissing())
}

func TestReadEmpty(t *testing.T) {
	_, err := Read(strings.NewReader(""), FormatCSV)
	assert.Error(t, err)
}

func TestWriteThenReadWorkbook(t *testing.T) {
	table := dataset.New("Province", "Total HHs")
	table.AppendRow(map[string]dataset.Value{"Province": dataset.NewString("Kabul"), "Total HHs": dataset.NewNumber(12)})
	table.AppendRow(map[string]dataset.Value{"Province": dataset.NewString("Herat")})

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, table, "Results"))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Results"}, f.GetSheetList())
	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Province", "Total HHs"}, {"Kabul", "12"}, {"Herat"}}, rows)

	read, err := Read(bytes.NewReader(buf.Bytes()), FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, 2, read.Len())
	assert.True(t, read.Row(1).Get("Total HHs").IsMissing())
}

func TestDataReaderFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "survey.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644))

	table, err := NewDataReader(path).ReadTable()
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	_, err = NewDataReader(filepath.Join(dir, "missing.xlsx")).ReadTable()
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatCSV, FormatFromPath("export.CSV"))
	assert.Equal(t, FormatXLSX, FormatFromPath("export.xlsx"))
}
