package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rajveerkhosa/sscs/internal/service"
)

// RenderRunResult writes the human-readable summary of a completed run:
// the category totals, the per-prefix breakdown, and what happened to each
// sheet.
func RenderRunResult(w io.Writer, result service.RunResult) {
	fmt.Fprintln(w, FormatTitle(fmt.Sprintf("Week ending %s", result.Window.Label)))

	totals := table.NewWriter()
	totals.SetOutputMirror(w)
	totals.AppendHeader(table.Row{"Category", "Gallons"})
	totals.AppendRows([]table.Row{
		{"Diesel", Gallons(result.Aggregate.Diesel)},
		{"Regular", Gallons(result.Aggregate.Regular)},
		{"DEF", Gallons(result.Aggregate.DEF)},
	})
	totals.AppendFooter(table.Row{"Total", Gallons(result.Aggregate.GrandTotal)})
	totals.Render()

	if len(result.Aggregate.Prefixes) > 0 {
		fmt.Fprintln(w, SubtleStyle.Render("Prefix breakdown"))
		breakdown := table.NewWriter()
		breakdown.SetOutputMirror(w)
		breakdown.AppendHeader(table.Row{"Prefix", "Gallons"})
		for _, p := range result.Aggregate.Prefixes {
			breakdown.AppendRow(table.Row{p.Prefix, Gallons(p.Quantity)})
		}
		breakdown.Render()
	}

	for _, s := range result.Sheets {
		action := "updated"
		if s.Inserted {
			action = "inserted"
		}
		line := fmt.Sprintf("%s: row %d %s", s.Sheet, s.Row, action)
		if s.HiddenRow > 0 {
			line += fmt.Sprintf(", row %d hidden", s.HiddenRow)
		}
		fmt.Fprintln(w, FormatSuccess(line))
	}

	fmt.Fprintln(w, SubtleStyle.Render(fmt.Sprintf("completed in %s", result.Duration.Round(time.Millisecond))))
}

// Gallons renders a volume with thousands separators, e.g. "11,989.79".
func Gallons(v float64) string {
	s := fmt.Sprintf("%.2f", v)

	dot := strings.IndexByte(s, '.')
	intPart, fracPart := s[:dot], s[dot:]

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String() + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
