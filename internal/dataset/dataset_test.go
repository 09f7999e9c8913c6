package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "crimecast/internal/errors"
	"crimecast/internal/shared/testutil"
	"crimecast/pkg/contracts/domain"
)

func TestLoadCSV_SourceLayout(t *testing.T) {
	ds, err := LoadCSV(strings.NewReader(testutil.SampleCSV), "sample.csv", Options{})
	require.NoError(t, err)

	stats := ds.Stats()
	assert.Equal(t, 12, stats.Records)
	assert.Equal(t, 1, stats.States)
	assert.Equal(t, 2, stats.Categories)
	assert.Equal(t, 2000, stats.MinYear)
	assert.Equal(t, 2005, stats.MaxYear)
	assert.Equal(t, 0, stats.SkippedRows)

	assert.Equal(t, []string{"Alpha"}, ds.States())
	cats, err := ds.Categories("Alpha")
	require.NoError(t, err)
	assert.Equal(t, []string{"Murder", "Rape"}, cats)

	agg := ds.Aggregate()
	for i, want := range testutil.AlphaCounts {
		assert.Equal(t, want, agg[domain.StateYear{State: "Alpha", Year: 2000 + i}])
	}
}

func TestLoadCSV_DirtyRows(t *testing.T) {
	input := "\ufeff Area_Name , Year ,Group_Name,Trial_of_Violent_Crimes_by_Courts_Total\n" +
		"Alpha,2001,Murder,4\n" +
		",2002,Murder,3\n" + // empty state: skipped
		"Alpha,twenty,Murder,3\n" + // bad year: skipped
		"Alpha,2.001e7,Murder,5\n" + // year out of range: skipped
		"Alpha,1e9,Murder,5\n" + // year out of range: skipped
		"Alpha,-2001,Murder,5\n" + // negative year: skipped
		"Alpha,2003.0,Murder,n/a\n" + // float year accepted, count coerced
		"Alpha,2004,,-2\n" + // empty category, negative count coerced
		",,,\n" // blank: ignored

	ds, err := LoadCSV(strings.NewReader(input), "dirty.csv", Options{})
	require.NoError(t, err)

	records := ds.Records()
	require.Len(t, records, 3)
	assert.Equal(t, domain.RawRecord{State: "Alpha", Year: 2003, Category: "Murder", Count: 0}, records[1])
	assert.Equal(t, UnspecifiedCategory, records[2].Category)
	assert.Equal(t, 0.0, records[2].Count)

	stats := ds.Stats()
	assert.Equal(t, 5, stats.SkippedRows)
	assert.Equal(t, 2, stats.CoercedCounts)
	assert.Equal(t, 2001, stats.MinYear)
	assert.Equal(t, 2004, stats.MaxYear)
}

func TestLoadCSV_ColumnOverrides(t *testing.T) {
	input := "Region,Period,Offence,Cases\nNorth,2010,Theft,7\n"

	_, err := LoadCSV(strings.NewReader(input), "custom.csv", Options{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeParsing, apperrors.TypeOf(err))

	ds, err := LoadCSV(strings.NewReader(input), "custom.csv", Options{Columns: map[string]string{
		"Region":  "state",
		"Period":  "year",
		"Offence": "category",
		"Cases":   "count",
	}})
	require.NoError(t, err)
	assert.Equal(t, []domain.RawRecord{{State: "North", Year: 2010, Category: "Theft", Count: 7}}, ds.Records())
}

func TestLoadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty input", input: ""},
		{name: "missing count column", input: "State,Year,Category\nA,2000,X\n"},
		{name: "unterminated quote", input: "State,Year,Count\n\"A,2000,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSV(strings.NewReader(tt.input), "bad.csv", Options{})
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrTypeParsing, apperrors.TypeOf(err))
		})
	}
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Trials"
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	rows := [][]interface{}{
		{"Area_Name", "Year", "Group_Name", "Trial_of_Violent_Crimes_by_Courts_Total"},
		{"Beta", 2001, "Murder", 10},
		{"Beta", 2002, "Murder", 12.5},
		{"Beta", 2002, "Dacoity", "-"},
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2) // leave row 1 blank
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	ds, err := LoadXLSX(&buf, "trials.xlsx", Options{Sheet: sheet})
	require.NoError(t, err)

	assert.Equal(t, 3, ds.Stats().Records)
	assert.Equal(t, 1, ds.Stats().CoercedCounts)
	agg := ds.Aggregate()
	assert.Equal(t, 12.5, agg[domain.StateYear{State: "Beta", Year: 2002}])
}

func TestLoad_DispatchByExtension(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "crime.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(testutil.SampleCSV), 0644))
	ds, err := Load(csvPath, Options{})
	require.NoError(t, err)
	assert.Equal(t, csvPath, ds.Source())

	_, err = Load(filepath.Join(dir, "missing.csv"), Options{})
	assert.Equal(t, apperrors.ErrTypeStorage, apperrors.TypeOf(err))

	jsonPath := filepath.Join(dir, "crime.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte("{}"), 0644))
	_, err = Load(jsonPath, Options{})
	assert.Equal(t, apperrors.ErrTypeParsing, apperrors.TypeOf(err))
}

func TestDataset_Lookups(t *testing.T) {
	ds := New("fixture", testutil.SampleRecords())

	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, ds.States())
	assert.True(t, ds.HasState("Beta"))
	assert.False(t, ds.HasState("beta"))
	assert.True(t, ds.HasCategory("Beta", "Dacoity"))
	assert.False(t, ds.HasCategory("Alpha", "Dacoity"))

	_, err := ds.Categories("Nowhere")
	assert.True(t, apperrors.IsNotFound(err))

	assert.Len(t, ds.RecordsFor("Gamma"), 2)
}
