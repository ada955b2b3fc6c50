package stats

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	xlsx "github.com/360EntSecGroup-Skylar/excelize/v2"
	"github.com/anrid/xls"
)

// ExtractDataFromFile calls handler for every row of the file's sheet. An
// empty File.Sheet selects the first sheet.
func ExtractDataFromFile(f *File, handler func(r []string)) error {
	if strings.HasSuffix(strings.ToLower(f.URL), ".xls") {
		return ExtractDataFromXLS(f, handler)
	}
	return ExtractDataFromXLSX(f, handler)
}

func ExtractDataFromXLS(f *File, handler func(r []string)) error {
	slog.Debug("Loading XLS data", "url", f.URL)

	rawData, err := f.Content()
	if err != nil {
		return err
	}
	wb, err := xls.OpenReader(bytes.NewReader(rawData), "utf-8")
	if err != nil {
		return fmt.Errorf("could not read XLS file '%s' (%s): %w", f.Title, f.URL, err)
	}

	var sheet *xls.WorkSheet
	for i := 0; i < wb.NumSheets(); i++ {
		s := wb.GetSheet(i)
		if s != nil && (f.Sheet == "" || s.Name == f.Sheet) {
			sheet = s
			break
		}
	}
	if sheet == nil {
		return fmt.Errorf("sheet '%s' not found in XLS file '%s'", f.Sheet, f.Title)
	}

	slog.Debug("Sheet", "name", sheet.Name, "rows", sheet.MaxRow)

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row != nil {
			var cols []string
			for j := 0; j <= row.LastCol(); j++ {
				cols = append(cols, row.Col(j))
			}
			handler(cols)
		}
	}
	return nil
}

func ExtractDataFromXLSX(f *File, handler func(r []string)) error {
	slog.Debug("Loading XLSX data", "url", f.URL)

	rawData, err := f.Content()
	if err != nil {
		return err
	}
	wb, err := xlsx.OpenReader(bytes.NewReader(rawData))
	if err != nil {
		return fmt.Errorf("could not read XLSX file '%s' (%s): %w", f.Title, f.URL, err)
	}

	sheet := f.Sheet
	if sheet == "" {
		sheets := wb.GetSheetList()
		if len(sheets) == 0 {
			return fmt.Errorf("XLSX file '%s' has no sheets", f.Title)
		}
		sheet = sheets[0]
	}

	rows, err := wb.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("could not get rows for sheet '%s' : %w", sheet, err)
	}

	slog.Debug("Sheet", "name", sheet, "rows", len(rows))

	for _, r := range rows {
		handler(r)
	}
	return nil
}
