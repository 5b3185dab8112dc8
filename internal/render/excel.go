package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/guregu/null/v5"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"MacroMonitor/internal/model"
)

const maxSheetName = 31

// Excel writes one worksheet per section.
type Excel struct {
	Path string
	log  zerolog.Logger
}

// NewExcel creates the workbook renderer.
func NewExcel(path string, log zerolog.Logger) *Excel {
	return &Excel{Path: path, log: log.With().Str("renderer", "excel").Logger()}
}

func (e *Excel) Name() string   { return "excel" }
func (e *Excel) Output() string { return e.Path }

func (e *Excel) Render(_ context.Context, r *model.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	number, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	names := SheetNames(r.Sections)
	if len(names) == 0 {
		if err := f.SetSheetName("Sheet1", "Report"); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
		if err := writePlaceholder(f, "Report", bold); err != nil {
			return err
		}
	}

	for i, sec := range r.Sections {
		sheet := names[i]
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %q: %w", sheet, err)
		}

		switch {
		case sec.Empty():
			err = writePlaceholder(f, sheet, bold)
		case sec.Kind == model.SectionValuation:
			err = writeValuations(f, sheet, sec.Valuations, bold, number)
		default:
			err = writeReturns(f, sheet, r.Horizons, sec.Rows, bold, number)
		}
		if err != nil {
			return fmt.Errorf("sheet %q: %w", sheet, err)
		}
	}

	if err := f.SaveAs(e.Path); err != nil {
		return fmt.Errorf("write %s: %w", e.Path, err)
	}
	e.log.Info().Str("path", e.Path).Int("sheets", len(f.GetSheetList())).Msg("workbook written")
	return nil
}

func writePlaceholder(f *excelize.File, sheet string, bold int) error {
	if err := f.SetSheetRow(sheet, "A1", &[]any{"Notice"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", bold); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A2", &[]any{"No data available for this section"}); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "A", 40)
}

func writeHeader(f *excelize.File, sheet string, head []any, bold int) error {
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(head), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "A", 32)
}

func writeReturns(f *excelize.File, sheet string, horizons []string, rows []model.SeriesRow, bold, number int) error {
	head := []any{"Series", "ID", "Current", "Last Date"}
	for _, h := range horizons {
		head = append(head, h)
	}
	if err := writeHeader(f, sheet, head, bold); err != nil {
		return err
	}

	for i, row := range rows {
		rowNum := i + 2
		cells := []any{row.Name, row.ID.String()}
		if row.Available {
			cells = append(cells, cellValue(row.Current), row.LastDate.Format("2006-01-02"))
			for _, h := range horizons {
				cells = append(cells, cellValue(row.Return(h)))
			}
		} else {
			cells = append(cells, "No data available")
		}
		if err := setRow(f, sheet, rowNum, cells, number); err != nil {
			return err
		}
	}
	return nil
}

func writeValuations(f *excelize.File, sheet string, rows []model.ValuationRow, bold, number int) error {
	head := []any{"Series", "ID", "Current", "Last Date", "Long-run Median", "Discount/Premium %", "Sigma"}
	if err := writeHeader(f, sheet, head, bold); err != nil {
		return err
	}
	for i, v := range rows {
		cells := []any{v.Name, v.ID.String()}
		if v.Available {
			cells = append(cells,
				cellValue(v.Current), v.LastDate.Format("2006-01-02"),
				cellValue(v.LongRunMedian), cellValue(v.DiscountPremium), cellValue(v.Sigma))
		} else {
			cells = append(cells, "No data available")
		}
		if err := setRow(f, sheet, i+2, cells, number); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, cells []any, number int) error {
	start, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, start, &cells); err != nil {
		return err
	}
	if len(cells) > 2 {
		from, _ := excelize.CoordinatesToCellName(3, rowNum)
		to, _ := excelize.CoordinatesToCellName(len(cells), rowNum)
		return f.SetCellStyle(sheet, from, to, number)
	}
	return nil
}

// cellValue keeps defined values numeric and marks undefined ones.
func cellValue(v null.Float) any {
	if !v.Valid {
		return NA
	}
	return v.Float64
}

// SheetNames derives valid, unique worksheet names from section titles.
func SheetNames(sections []model.SectionReport) []string {
	seen := make(map[string]bool, len(sections))
	names := make([]string, 0, len(sections))
	for _, sec := range sections {
		base := sanitizeSheetName(sec.Title)
		name := base
		for n := 2; seen[strings.ToLower(name)]; n++ {
			suffix := fmt.Sprintf(" (%d)", n)
			name = truncateRunes(base, maxSheetName-len(suffix)) + suffix
		}
		seen[strings.ToLower(name)] = true
		names = append(names, name)
	}
	return names
}

func sanitizeSheetName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, strings.TrimSpace(title))
	name = strings.Trim(name, "'")
	if name == "" {
		name = "Section"
	}
	return truncateRunes(name, maxSheetName)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
