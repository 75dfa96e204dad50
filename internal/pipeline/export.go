package pipeline

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"vaquero/internal"
)

// ExportRecordsToXLSX writes the operator review workbook: one row per record
// in interchange column order.
func ExportRecordsToXLSX(records []internal.DiscountRecord, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range InterchangeHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, rec := range records {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		roles := make([]string, 0, len(rec.WhoCanRedeem))
		for _, role := range rec.WhoCanRedeem {
			roles = append(roles, string(role))
		}

		set(1, rec.ID)
		set(2, rec.BusinessName)
		set(3, string(rec.Category))
		set(4, rec.DiscountAmount)
		set(5, strings.Join(roles, ListSeparator))
		set(6, rec.HowToRedeem)
		set(7, rec.Description)
		set(8, rec.Address)
		set(9, rec.Phone)
		set(10, rec.Email)
		set(11, rec.Website)
		set(12, rec.CampusProximity)
		set(13, strconv.FormatBool(rec.IsFeatured))
		set(14, strings.Join(rec.Tags, ListSeparator))
		set(15, rec.JoinDate)
		set(16, rec.AuthorizedBy)
		set(17, rec.ContactTitle)
	}

	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
