package model

// Category is a named grouping of one or more product-line prefixes.
type Category string

// Fuel categories tracked by the weekly report.
const (
	CategoryDiesel  Category = "diesel"
	CategoryRegular Category = "regular"
	CategoryDEF     Category = "def"
)

// PrefixTotal is the quantity scraped from the portal for one product-line
// prefix over one reporting window. Transient; produced once per prefix per run.
type PrefixTotal struct {
	Prefix   string
	Quantity float64
}

// AggregatedWeek holds the per-category totals for one reporting window.
// GrandTotal is always Diesel + Regular + DEF.
type AggregatedWeek struct {
	Window     ReportingWindow
	Diesel     float64
	Regular    float64
	DEF        float64
	GrandTotal float64
	// Prefixes keeps the raw per-prefix quantities for logging and the
	// secondary sanity check.
	Prefixes []PrefixTotal
}

// PrefixSum returns the sum of every raw prefix quantity, used to
// cross-check the category totals.
func (a AggregatedWeek) PrefixSum() float64 {
	var sum float64
	for _, p := range a.Prefixes {
		sum += p.Quantity
	}
	return sum
}
