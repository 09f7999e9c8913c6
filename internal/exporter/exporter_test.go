package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"crimecast/internal/config"
	"crimecast/internal/shared/testutil"
	"crimecast/pkg/contracts/domain"
)

func sampleReport() *domain.Report {
	ts := testutil.SeriesOf("Alpha", 2000, 10, 20, 0)
	change := 100.0
	minus := -100.0
	r := &domain.Report{
		Selection: domain.Selection{State: "Alpha", Horizon: 2},
		Series:    ts,
		Forecast: &domain.ForecastResult{
			State:      "Alpha",
			Horizon:    2,
			HistoryLen: 3,
		},
		YoY: []domain.YoYPoint{
			{Timestamp: domain.YearStart(2000), Value: 10},
			{Timestamp: domain.YearStart(2001), Value: 20, Change: &change},
			{Timestamp: domain.YearStart(2002), Value: 0, Change: &minus},
		},
		Distribution: &domain.CategoryDistribution{
			State: "Alpha", Year: 2002, Total: 4,
			Shares: []domain.CategoryShare{
				{Category: "Rape", Count: 3, Percentage: 75},
				{Category: "Murder", Count: 1, Percentage: 25},
			},
		},
		Insight: &domain.TrendInsight{Direction: domain.TrendIncreasing, ProjectedChangePct: 12.5, Message: "up"},
	}
	for i := 0; i < 5; i++ {
		v := float64(10 + i)
		r.Forecast.Points = append(r.Forecast.Points, domain.ForecastPoint{
			Timestamp:  domain.YearStart(2000 + i),
			Predicted:  v + 0.4,
			Lower:      v - 1.6,
			Upper:      v + 2.6,
			Trend:      v,
			Yearly:     0.4,
			Historical: i < 3,
		})
	}
	return r
}

func TestEncode_BOMAndRows(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, WriteOptions{
		Headers:   []string{"a", "b"},
		Records:   [][]string{{"1", "x,y"}},
		BOMPrefix: true,
	})
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))
	assert.Equal(t, "a,b\n1,\"x,y\"\n", string(buf.Bytes()[len(utf8BOM):]))
}

func TestCSVWriter_WriteAndAppend(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(&config.Paths{ReportsDir: dir})

	require.NoError(t, w.WriteSimpleCSV("out.csv", []string{"h"}, [][]string{{"1"}}))
	require.NoError(t, w.WriteCSV("out.csv", WriteOptions{Records: [][]string{{"2"}}, Append: true}))

	data, err := os.ReadFile(filepath.Join(dir, "out.csv"))
	require.NoError(t, err)
	assert.Equal(t, "\ufeffh\n1\n2\n", string(data))
}

func TestReportExporter_WriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReportExporter(nil, nil).WriteCSV(&buf, sampleReport()))

	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Year", "Predicted Crimes", "Lower Bound", "Upper Bound"}, rows[0])
	assert.Equal(t, []string{"2003", "13", "11", "16"}, rows[1])
	assert.Equal(t, []string{"2004", "14", "12", "17"}, rows[2])
}

func TestReportExporter_SaveFiles(t *testing.T) {
	dir := t.TempDir()
	logger, _ := testutil.NewTestLogger(t)
	exp := NewReportExporter(&config.Paths{ReportsDir: dir}, logger)

	csvPath, err := exp.SaveCSV(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "forecast_alpha_h2.csv"), csvPath)
	assert.True(t, config.FileExists(csvPath))

	xlsxPath, err := exp.SaveXLSX(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "forecast_alpha_h2.xlsx"), xlsxPath)

	f, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Summary", "Forecast", "Model", "Year over Year", "Distribution 2002", "Seasonality"}, f.GetSheetList())
}

func TestWorkbook_Contents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReportExporter(nil, nil).WriteXLSX(&buf, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Year over Year")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"2000", "10"}, rows[1])
	assert.Equal(t, "100", rows[2][2])

	dist, err := f.GetRows("Distribution 2002")
	require.NoError(t, err)
	assert.Equal(t, []string{"Rape", "3", "75"}, dist[1])

	model, err := f.GetRows("Model")
	require.NoError(t, err)
	require.Len(t, model, 6)
	assert.Equal(t, "20", model[2][1])
	assert.Equal(t, "", cellOrEmpty(model[4], 1))
}

func TestTables_WithoutForecast(t *testing.T) {
	r := sampleReport()
	r.Forecast = nil
	r.Insight = nil
	r.Distribution = nil
	r.AddWarning(domain.WarningModelFit, "constant series")

	assert.Empty(t, ForecastTable(r).Rows)
	assert.Len(t, HistoryTable(r).Rows, 3)
	assert.Equal(t, "Distribution", DistributionTable(r).Name)

	summary := SummaryTable(r).Strings()
	assert.Equal(t, []string{"Crime Group", "All"}, summary[1])
	assert.Equal(t, []string{"Warning (model_fit)", "constant series"}, summary[len(summary)-1])
}

func TestCellString(t *testing.T) {
	v := 1.234
	assert.Equal(t, "", cellString(nil))
	assert.Equal(t, "1.23", cellString(v))
	assert.Equal(t, "1.23", cellString(&v))
	assert.Equal(t, "", cellString((*float64)(nil)))
	assert.Equal(t, "2", cellString(count(1.6)))
	assert.Equal(t, "7", cellString(7))
	assert.Equal(t, "true", cellString(true))
}

func cellOrEmpty(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
