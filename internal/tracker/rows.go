package tracker

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/rajveerkhosa/sscs/internal/common"
)

// headerKeywords mark rows in the week column that belong to the sheet's
// heading block rather than its data history.
var headerKeywords = []string{
	"week", "total", "diesel", "gas", "def", "gallons", "this week", "last year",
}

// findAnchorRow returns the 1-based row whose week-column cell equals the
// anchor sentinel label.
func findAnchorRow(rows [][]string, weekCol int, label string) (int, error) {
	for i, row := range rows {
		if cellAt(row, weekCol) == label {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: sentinel %q not in week column", common.ErrAnchorRowNotFound, label)
}

// findWeekRow returns the 1-based row above the anchor already carrying the
// week label, or 0 when the week has not been written yet.
func findWeekRow(rows [][]string, weekCol, anchorRow int, label string) int {
	for i := 0; i < anchorRow-1 && i < len(rows); i++ {
		if cellAt(rows[i], weekCol) == label {
			return i + 1
		}
	}
	return 0
}

// oldestVisibleDataRow returns the topmost visible data row above the
// anchor, and the count of visible data rows. Data rows are recognized by a
// week-style label: contains a digit, not a heading keyword.
func oldestVisibleDataRow(f *excelize.File, sheet string, rows [][]string, weekCol, anchorRow int) (oldest, visible int, err error) {
	for i := 0; i < anchorRow-1 && i < len(rows); i++ {
		if !isDataLabel(cellAt(rows[i], weekCol)) {
			continue
		}

		rowVisible, vErr := f.GetRowVisible(sheet, i+1)
		if vErr != nil {
			return 0, 0, fmt.Errorf("reading row visibility: %w", vErr)
		}
		if !rowVisible {
			continue
		}

		if oldest == 0 {
			oldest = i + 1
		}
		visible++
	}
	return oldest, visible, nil
}

// isDataLabel reports whether a week-column cell looks like a week label
// rather than a heading.
func isDataLabel(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return false
	}
	for _, kw := range headerKeywords {
		if strings.Contains(text, kw) {
			return false
		}
	}
	return strings.ContainsFunc(text, unicode.IsDigit)
}

func cellAt(row []string, col int) string {
	if col-1 < len(row) {
		return strings.TrimSpace(row[col-1])
	}
	return ""
}
