// Package tracker mutates the weekly tracker workbook in place: one
// backed-up, atomically committed row insert or update per run, preserving
// formatting, formulas, and the rolling window of visible history rows.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/rajveerkhosa/sscs/internal/common"
	"github.com/rajveerkhosa/sscs/internal/config"
	"github.com/rajveerkhosa/sscs/internal/model"
	"github.com/rajveerkhosa/sscs/internal/service"
)

// Updater applies one aggregated week to every enabled sheet of the
// tracker workbook.
type Updater struct {
	cfg config.Tracker
	now func() time.Time
}

var _ service.TrackerUpdater = (*Updater)(nil)

// New creates an Updater for the configured workbook.
func New(cfg config.Tracker) *Updater {
	return &Updater{
		cfg: cfg,
		now: time.Now,
	}
}

// Update backs up the workbook, applies the week's row to each enabled
// sheet against the in-memory document, and commits atomically. On any
// error before the commit the workbook on disk is untouched.
func (u *Updater) Update(ctx context.Context, agg model.AggregatedWeek) ([]service.SheetSummary, error) {
	backupPath, err := u.backup()
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(u.cfg.Workbook)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", u.cfg.Workbook, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("Failed to close workbook", "error", closeErr)
		}
	}()

	var summaries []service.SheetSummary
	for _, sheet := range u.cfg.Sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !sheet.Enabled {
			slog.Info("Skipping disabled sheet", "sheet", sheet.Name)
			continue
		}

		summary, err := u.updateSheet(f, sheet, agg)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet.Name, err)
		}
		summary.BackupPath = backupPath
		summaries = append(summaries, summary)
	}

	if err := u.commit(f); err != nil {
		return nil, err
	}

	slog.Info("Tracker saved", "workbook", u.cfg.Workbook, "sheets", len(summaries))
	return summaries, nil
}

func (u *Updater) updateSheet(f *excelize.File, sheet config.Sheet, agg model.AggregatedWeek) (service.SheetSummary, error) {
	if idx, err := f.GetSheetIndex(sheet.Name); err != nil || idx < 0 {
		return service.SheetSummary{}, fmt.Errorf("%w: sheet not in workbook", common.ErrAnchorRowNotFound)
	}

	rows, err := f.GetRows(sheet.Name)
	if err != nil {
		return service.SheetSummary{}, fmt.Errorf("reading rows: %w", err)
	}

	weekCol, err := excelize.ColumnNameToNumber(sheet.WeekColumn)
	if err != nil {
		return service.SheetSummary{}, fmt.Errorf("%w: week column %q", common.ErrInvalidConfig, sheet.WeekColumn)
	}

	anchorRow, err := findAnchorRow(rows, weekCol, sheet.AnchorLabel)
	if err != nil {
		return service.SheetSummary{}, err
	}

	summary := service.SheetSummary{Sheet: sheet.Name}
	label := agg.Window.Label

	if existing := findWeekRow(rows, weekCol, anchorRow, label); existing > 0 {
		// Re-run for the same week: overwrite in place, no new row.
		slog.Info("Week already present, updating in place",
			"sheet", sheet.Name,
			"week", label,
			"row", existing)
		summary.Row = existing
	} else {
		target, err := u.insertWeekRow(f, sheet, weekCol, anchorRow, label)
		if err != nil {
			return service.SheetSummary{}, err
		}
		summary.Row = target
		summary.Inserted = true

		// Inserting shifted the anchor and the history down one row.
		rows, err = f.GetRows(sheet.Name)
		if err != nil {
			return service.SheetSummary{}, fmt.Errorf("re-reading rows: %w", err)
		}

		hidden, err := u.enforceRollingWindow(f, sheet.Name, rows, weekCol, anchorRow+1)
		if err != nil {
			return service.SheetSummary{}, err
		}
		summary.HiddenRow = hidden
	}

	if err := u.writeMetrics(f, sheet, summary.Row, agg); err != nil {
		return service.SheetSummary{}, err
	}

	return summary, nil
}

// insertWeekRow inserts a row directly above the anchor and makes it
// visually identical to its neighbor: the donor row's cell styles and row
// height are copied before the label is written. Formula cells in other
// rows are never touched, so their ranges keep following the anchor.
func (u *Updater) insertWeekRow(f *excelize.File, sheet config.Sheet, weekCol, anchorRow int, label string) (int, error) {
	target := anchorRow
	donor := anchorRow - 1

	if err := f.InsertRows(sheet.Name, target, 1); err != nil {
		return 0, fmt.Errorf("inserting row at %d: %w", target, err)
	}

	cols, err := f.GetCols(sheet.Name)
	if err != nil {
		return 0, fmt.Errorf("counting columns: %w", err)
	}

	for col := 1; col <= len(cols); col++ {
		donorCell, _ := excelize.CoordinatesToCellName(col, donor)
		targetCell, _ := excelize.CoordinatesToCellName(col, target)

		styleID, err := f.GetCellStyle(sheet.Name, donorCell)
		if err != nil {
			return 0, fmt.Errorf("reading style of %s: %w", donorCell, err)
		}
		if err := f.SetCellStyle(sheet.Name, targetCell, targetCell, styleID); err != nil {
			return 0, fmt.Errorf("applying style to %s: %w", targetCell, err)
		}
	}

	if height, err := f.GetRowHeight(sheet.Name, donor); err == nil {
		if err := f.SetRowHeight(sheet.Name, target, height); err != nil {
			return 0, fmt.Errorf("setting row height: %w", err)
		}
	}

	labelCell, _ := excelize.CoordinatesToCellName(weekCol, target)
	if err := f.SetCellValue(sheet.Name, labelCell, label); err != nil {
		return 0, fmt.Errorf("writing week label: %w", err)
	}

	slog.Info("Inserted week row",
		"sheet", sheet.Name,
		"week", label,
		"row", target)

	return target, nil
}

// enforceRollingWindow hides the oldest visible data row once the visible
// history exceeds the configured window. Hidden rows stay in the file so
// full-history formulas keep summing them.
func (u *Updater) enforceRollingWindow(f *excelize.File, sheet string, rows [][]string, weekCol, anchorRow int) (int, error) {
	oldest, visible, err := oldestVisibleDataRow(f, sheet, rows, weekCol, anchorRow)
	if err != nil {
		return 0, err
	}

	if visible <= u.cfg.RollingWindow || oldest == 0 {
		return 0, nil
	}

	if err := f.SetRowVisible(sheet, oldest, false); err != nil {
		return 0, fmt.Errorf("hiding row %d: %w", oldest, err)
	}

	slog.Info("Hid oldest visible week",
		"sheet", sheet,
		"row", oldest,
		"visible", visible-1,
		"window", u.cfg.RollingWindow)

	return oldest, nil
}

// writeMetrics writes the mapped metric cells for the target row. Only
// configured columns are written; everything else in the row, formula
// cells included, is left alone.
func (u *Updater) writeMetrics(f *excelize.File, sheet config.Sheet, row int, agg model.AggregatedWeek) error {
	values := map[model.Category]float64{
		model.CategoryDiesel:  agg.Diesel,
		model.CategoryRegular: agg.Regular,
		model.CategoryDEF:     agg.DEF,
	}

	for cat, col := range sheet.Columns {
		cell := fmt.Sprintf("%s%d", col, row)
		if err := f.SetCellFloat(sheet.Name, cell, values[cat], 2, 64); err != nil {
			return fmt.Errorf("writing %s to %s: %w", cat, cell, err)
		}
	}

	if sheet.TotalColumn != "" {
		cell := fmt.Sprintf("%s%d", sheet.TotalColumn, row)
		if err := f.SetCellFloat(sheet.Name, cell, agg.GrandTotal, 2, 64); err != nil {
			return fmt.Errorf("writing grand total to %s: %w", cell, err)
		}
	}

	return nil
}

// commit writes the mutated document next to the target and renames it
// into place, so the workbook on disk is either the old version or the
// fully updated one. A rename refused by the OS means another process
// holds the file.
func (u *Updater) commit(f *excelize.File) error {
	dir := filepath.Dir(u.cfg.Workbook)
	// The temp name must keep the workbook extension: excelize.SaveAs
	// rejects paths whose extension it does not recognize.
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp%s", filepath.Base(u.cfg.Workbook), filepath.Ext(u.cfg.Workbook)))

	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("writing temporary workbook: %w", err)
	}

	if err := os.Rename(tmp, u.cfg.Workbook); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil {
			slog.Warn("Failed to remove temporary workbook", "path", tmp, "error", rmErr)
		}
		return fmt.Errorf("%w: %v", common.ErrFileLocked, err)
	}

	return nil
}
