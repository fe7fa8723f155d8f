package services

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"twstock-dashboard/internal/labels"
	"twstock-dashboard/internal/models"
)

// WriteWorkbook writes the series and its summary as an xlsx workbook with two sheets.
func WriteWorkbook(w io.Writer, series *models.PriceSeries, l *labels.Set) error {
	f := excelize.NewFile()
	defer f.Close()

	dataSheet := l.PriceSection
	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := []interface{}{l.Date}
	for _, c := range models.NumericColumns {
		header = append(header, l.Column(c))
	}
	if err := f.SetSheetRow(dataSheet, "A1", &header); err != nil {
		return err
	}
	for i, b := range series.Bars {
		row := []interface{}{b.Date, b.Open, b.High, b.Low, b.Close, b.AdjClose, b.Volume}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(dataSheet, cell, &row); err != nil {
			return err
		}
	}

	summarySheet := l.Summary
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	table := FormatSummary(Summarize(series), l)
	summaryHeader := []interface{}{""}
	for _, h := range table.Header {
		summaryHeader = append(summaryHeader, h)
	}
	if err := f.SetSheetRow(summarySheet, "A1", &summaryHeader); err != nil {
		return err
	}
	for i, r := range table.Rows {
		row := []interface{}{r.Label}
		for _, c := range r.Cells {
			row = append(row, c)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
