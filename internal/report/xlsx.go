package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/material-tracker/internal/domain/materials"
)

const SheetName = "Materials"

var header = []any{"ID", "Name", "Code", "Quantity", "Expiry date", "Days left", "Status"}

// WriteXLSX выгружает материалы в книгу Excel; today нужен для колонок «Days left»/«Status».
func WriteXLSX(w io.Writer, items []materials.Material, today time.Time) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return err
	}

	for i, m := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			m.ID,
			m.Name,
			m.Code,
			m.Quantity,
			m.ExpiryDate.Format(materials.DateLayout),
			m.DaysLeft(today),
			statusLabel(m, today),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(SheetName, "B", "C", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "E", "E", 14); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func statusLabel(m materials.Material, today time.Time) string {
	switch {
	case m.Expired(today):
		return "expired"
	case m.DaysLeft(today) <= materials.NearExpiryDays:
		return "near expiry"
	default:
		return "active"
	}
}
