package csvexport_test

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refinener/internal/csvexport"
	"refinener/internal/dataset"
	"refinener/internal/domain"
)

func sampleTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := dataset.NewTable("City", "Note")
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow("Paris", "capital"))
	require.NoError(t, tbl.AppendRow("", "blank city"))
	return tbl
}

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := csvexport.NewWriter(&buf)
	require.NoError(t, w.WriteHeader(sampleTable(t)))
	w.Flush()
	require.NoError(t, w.Error())

	row, err := csv.NewReader(&buf).Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"City", "Note"}, row)
}

func TestWriteRows_BlankAndErrorCells(t *testing.T) {
	tbl := sampleTable(t)
	slot, err := tbl.InsertColumn("Spotlight", 1)
	require.NoError(t, err)
	require.NoError(t, tbl.SetCell(0, slot, domain.ErrorCell("quota exceeded")))

	var buf bytes.Buffer
	w := csvexport.NewWriter(&buf)
	require.NoError(t, w.WriteRows(tbl))
	w.Flush()
	require.NoError(t, w.Error())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Paris", "quota exceeded", "capital"}, rows[0])
	assert.Equal(t, []string{"", "", "blank city"}, rows[1])
}

func TestExport_WritesBOMAndRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, csvexport.Export(&buf, sampleTable(t)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), csvexport.BOM))

	header, rows, err := csvexport.Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"City", "Note"}, header)
	assert.Equal(t, [][]string{{"Paris", "capital"}, {"", "blank city"}}, rows)
}

func TestRead_RejectsLongRows(t *testing.T) {
	_, _, err := csvexport.Read(strings.NewReader("a,b\n1,2,3\n"))
	assert.Error(t, err)
}

func TestRead_ShortRowsAllowed(t *testing.T) {
	header, rows, err := csvexport.Read(strings.NewReader("a,b\n1\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, header)
	assert.Equal(t, [][]string{{"1"}}, rows)
}

func TestRead_Empty(t *testing.T) {
	_, _, err := csvexport.Read(strings.NewReader(""))
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "MyProject", "MyProject"},
		{"spaces", "My Project", "My_Project"},
		{"special chars", "cities (2024)!.csv", "cities_2024_csv"},
		{"consecutive specials", "a---b___c", "a---b_c"},
		{"leading trailing", "__test__", "test"},
		{"empty", "", "dataset"},
		{"only specials", "!!!", "dataset"},
		{"long", strings.Repeat("a", 150), strings.Repeat("a", 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, csvexport.SanitizeFilename(tt.input))
		})
	}
}

func TestBuildFilename(t *testing.T) {
	date := time.Now().Format("2006-01-02")
	assert.Equal(t, "My_Project_"+date+".csv", csvexport.BuildFilename("My Project", "csv"))
	assert.Equal(t, "dataset_"+date+".xlsx", csvexport.BuildFilename("", "xlsx"))
}
