// Package exporter writes forecast reports as CSV and XLSX.
//
// CSVWriter is the low-level writer: headers, records and an optional UTF-8
// BOM so that Excel detects the encoding. ReportExporter turns a
// domain.Report into tables (future forecast, full history, year-over-year,
// category distribution and seasonality) and writes them either as a CSV of
// the forecast summary or as a workbook with one sheet per table.
//
// Example usage:
//
//	exp := exporter.NewReportExporter(paths)
//	csvPath, err := exp.SaveCSV(report)
//	xlsxPath, err := exp.SaveXLSX(report)
package exporter
