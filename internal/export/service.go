// Package export renders dashboard results as an XLSX workbook so the
// catalog team can pull the current numbers into their own sheets.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/gamedash/api/internal/analytics"
	"github.com/gamedash/api/internal/domain"
)

// Service builds export workbooks from live query results.
type Service struct {
	analytics *analytics.Service
	now       func() time.Time
}

// NewService creates a new export service.
func NewService(svc *analytics.Service) *Service {
	return &Service{analytics: svc, now: time.Now}
}

// FileName returns the download name for a workbook generated now.
func (s *Service) FileName() string {
	return fmt.Sprintf("gamedash-%s.xlsx", s.now().UTC().Format("2006-01-02"))
}

// BuildWorkbook runs the dashboard and sales queries under the given
// filters and lays each payload out on its own sheet.
func (s *Service) BuildWorkbook(ctx context.Context, gf domain.GameFilter, sf domain.SalesFilter) (*excelize.File, error) {
	dashboard := s.analytics.Overview(ctx, gf)
	sales := s.analytics.SalesKPIs(ctx, sf)

	f := excelize.NewFile()

	if err := writeOverviewSheet(f, dashboard, sales); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeCountSheet(f, "Genres", dashboard.Genres); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeCountSheet(f, "Platforms", dashboard.Platforms); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeYearSheet(f, dashboard.Years); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeTopRatedSheet(f, dashboard.TopRated); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeSalesSheet(f, sales); err != nil {
		_ = f.Close()
		return nil, err
	}

	// The default sheet excelize creates is replaced by Overview.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex("Overview"); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	return f, nil
}

func writeOverviewSheet(f *excelize.File, dashboard analytics.DashboardSummary, sales analytics.SalesSummary) error {
	const sheet = "Overview"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	rows := [][]any{
		{"Metric", "Value"},
		{"Total games", dashboard.TotalGames},
		{"Genres", len(dashboard.Genres)},
		{"Platforms", len(dashboard.Platforms)},
		{"Sales records", sales.TotalSales},
		{"Units sold", sales.TotalUnits},
		{"Total revenue", sales.TotalRevenue},
		{"Average price", sales.AvgPrice},
	}
	return writeRows(f, sheet, rows)
}

func writeCountSheet(f *excelize.File, sheet string, counts []analytics.DimensionCount) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	rows := [][]any{{"Label", "Count"}}
	for _, c := range counts {
		rows = append(rows, []any{c.Label, c.Count})
	}
	return writeRows(f, sheet, rows)
}

func writeYearSheet(f *excelize.File, years []analytics.YearCount) error {
	const sheet = "Years"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	rows := [][]any{{"Year", "Releases"}}
	for _, y := range years {
		rows = append(rows, []any{y.Year, y.Count})
	}
	return writeRows(f, sheet, rows)
}

func writeTopRatedSheet(f *excelize.File, games []analytics.RatedGame) error {
	const sheet = "Top Rated"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	rows := [][]any{{"Title", "Rating", "Category"}}
	for _, g := range games {
		rows = append(rows, []any{g.Title, g.Rating, g.Category})
	}
	return writeRows(f, sheet, rows)
}

func writeSalesSheet(f *excelize.File, sales analytics.SalesSummary) error {
	const sheet = "Sales"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	rows := [][]any{{"Platform", "Units", "Revenue"}}
	for _, p := range sales.Platforms {
		rows = append(rows, []any{p.Platform, p.Units, p.Revenue})
	}
	rows = append(rows, []any{}, []any{"Region", "Units", "Revenue"})
	for _, r := range sales.Regions {
		rows = append(rows, []any{r.Region, r.Units, r.Revenue})
	}
	rows = append(rows, []any{}, []any{"Top seller", "Units", "Revenue"})
	for _, t := range sales.TopSellers {
		rows = append(rows, []any{t.Title, t.Units, t.Revenue})
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name for row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d on %s: %w", i+1, sheet, err)
		}
	}
	return nil
}
