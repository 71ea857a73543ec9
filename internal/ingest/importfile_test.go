package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Searches")
	require.NoError(t, err)
	for _, cells := range rows {
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}
	path := filepath.Join(t.TempDir(), "searches.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestParseSearchFile_XLSX(t *testing.T) {
	path := writeXLSX(t, [][]string{
		{"Search", "Type"},
		{"plumbers in Denver, CO", "plumber"},
		{"HVAC contractors in Boise, ID"},
		{""},
	})

	list, err := ParseSearchFile(path)
	require.NoError(t, err)
	require.Len(t, list.Searches, 2)
	assert.Equal(t, "plumbers in Denver, CO", list.Searches[0].TextQuery)
	assert.Equal(t, "plumber", list.Searches[0].IncludedType)
	assert.Equal(t, "HVAC contractors in Boise, ID", list.Searches[1].TextQuery)
	assert.Empty(t, list.Searches[1].IncludedType)
}

func TestParseSearchFile_XLSX_NoHeader(t *testing.T) {
	path := writeXLSX(t, [][]string{
		{"electricians in Salt Lake City, UT"},
	})

	list, err := ParseSearchFile(path)
	require.NoError(t, err)
	require.Len(t, list.Searches, 1)
	assert.Equal(t, "electricians in Salt Lake City, UT", list.Searches[0].TextQuery)
}

func TestParseSearchFile_XLSX_Empty(t *testing.T) {
	path := writeXLSX(t, [][]string{{"text_query", "included_type"}})

	_, err := ParseSearchFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no phrases")
}

func TestParseSearchFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "searches.yaml")
	content := `searches:
  - text_query: "plumbers in Denver, CO"
    included_type: plumber
  - text_query: "roofing companies in Austin, TX"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	list, err := ParseSearchFile(path)
	require.NoError(t, err)
	require.Len(t, list.Searches, 2)
	assert.Equal(t, "plumber", list.Searches[0].IncludedType)
	assert.Equal(t, "roofing companies in Austin, TX", list.Searches[1].TextQuery)
}

func TestParseSearchFile_YAML_BareList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "searches.yml")
	content := `- text_query: "landscapers in Phoenix, AZ"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	list, err := ParseSearchFile(path)
	require.NoError(t, err)
	require.Len(t, list.Searches, 1)
	assert.Equal(t, "landscapers in Phoenix, AZ", list.Searches[0].TextQuery)
}

func TestParseSearchFile_UnsupportedExtension(t *testing.T) {
	_, err := ParseSearchFile("searches.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported search file extension")
}
