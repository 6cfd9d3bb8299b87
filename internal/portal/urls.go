// Package portal drives an authenticated browser session against the SSCS
// transaction-analysis portal and extracts per-prefix quantity totals from
// its client-side rendered tables.
package portal

import (
	"fmt"

	"github.com/rajveerkhosa/sscs/internal/model"
	"github.com/rajveerkhosa/sscs/internal/week"
)

// lineItemsURL builds the transaction-line-items query URL. The portal is a
// single-page app routed through the fragment, so parameters ride in the
// fragment's query string and autosubmit triggers the search on arrival.
func lineItemsURL(baseURL, siteCode, department, prefix string, w model.ReportingWindow) string {
	return fmt.Sprintf(
		"%s/#!/transactionlineitems/?startDate=%s&endDate=%s&selectedSites=%s&department=%s&idstartswith=%s&autosubmit=true",
		baseURL,
		week.PortalTimestamp(w.Start),
		week.PortalTimestamp(w.End),
		siteCode,
		department,
		prefix,
	)
}
