package portal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rajveerkhosa/sscs/internal/common"
)

// maxPlausibleQuantity rejects cells that parse as numbers but cannot be a
// weekly volume, such as timestamps rendered without separators.
const maxPlausibleQuantity = 1_000_000

// resultsTable is a parsed snapshot of the portal's rendered results table.
// Parsing is separated from the browser session so it can be exercised
// against plain HTML.
type resultsTable struct {
	headers []string
	footer  []string
}

// parseResultsTable extracts the header labels and the footer/summary cells
// from the table's outer HTML. The footer is the tfoot row when present,
// otherwise the last tbody row carrying footer-classed cells.
func parseResultsTable(html string) (*resultsTable, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing results table: %w", err)
	}

	t := &resultsTable{}

	// Header cells may be <th> or <td>; multi-row headers keep the column
	// labels in the last row.
	headerRow := doc.Find("table thead tr").Last()
	headerRow.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		t.headers = append(t.headers, collapseWhitespace(cell.Text()))
	})
	if len(t.headers) == 0 {
		doc.Find("table tr").First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			t.headers = append(t.headers, collapseWhitespace(cell.Text()))
		})
	}

	footerRow := doc.Find("table tfoot tr").First()
	if footerRow.Length() == 0 {
		// Fall back to a summary row inside tbody, scanning bottom-up.
		rows := doc.Find("table tbody tr")
		for i := rows.Length() - 1; i >= 0; i-- {
			row := rows.Eq(i)
			if row.Find(`td[class*="footer"]`).Length() > 0 {
				footerRow = row
				break
			}
		}
	}

	footerRow.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
		t.footer = append(t.footer, collapseWhitespace(cell.Text()))
	})

	return t, nil
}

// quantityColumn returns the index of the header matching the configured
// quantity label. Matching is a case-insensitive substring test so "Qty"
// finds headers like "Qty (gal)".
func (t *resultsTable) quantityColumn(label string) (int, error) {
	want := strings.ToLower(label)
	for i, h := range t.headers {
		if strings.Contains(strings.ToLower(h), want) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: header %q not among %v", common.ErrColumnNotFound, label, t.headers)
}

// footerEmpty reports whether the footer row is absent or every cell in it
// is blank. The portal renders the row before its totals arrive, so an
// empty footer means "not loaded yet", not "no data".
func (t *resultsTable) footerEmpty() bool {
	for _, cell := range t.footer {
		if cell != "" {
			return false
		}
	}
	return true
}

// footerQuantity reads the quantity total from the footer. It prefers the
// cell under the header's column index and falls back to scanning the
// footer for the one cell that looks like a volume, which covers tables
// whose footer has fewer cells than the header.
func (t *resultsTable) footerQuantity(col int) (float64, error) {
	if col < len(t.footer) {
		text := t.footer[col]
		if isNoData(text) {
			return 0, nil
		}
		if looksLikeQuantity(text) {
			return parseQuantity(text)
		}
	}

	for _, text := range t.footer {
		if looksLikeQuantity(text) {
			return parseQuantity(text)
		}
	}

	return 0, fmt.Errorf("%w: no quantity value in footer %v", common.ErrFooterMissing, t.footer)
}

// isNoData reports whether a footer cell explicitly marks an empty result
// set. Distinct from a blank cell, which means the totals have not rendered.
func isNoData(text string) bool {
	switch text {
	case "-", "--", "---":
		return true
	}
	return false
}

// looksLikeQuantity reports whether text is a plausible volume figure:
// numeric, optionally comma-grouped, no currency sign.
func looksLikeQuantity(text string) bool {
	if text == "" || strings.Contains(text, "$") || isNoData(text) {
		return false
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
	if err != nil {
		return false
	}
	return v >= 0 && v < maxPlausibleQuantity
}

func parseQuantity(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(text), ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing quantity %q: %w", text, err)
	}
	return v, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
