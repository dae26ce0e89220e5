package edgar

import (
	"context"
	"strings"

	"github.com/seenimoa/edgarfacts/internal/markup"
)

// ResolveInstanceDoc walks a filing's index page to the URL of its
// XBRL instance document: the row of the "Data Files" table whose type
// column carries the INS marker. Filings without one return
// *ErrFilingNotFound with FilingURL set.
func ResolveInstanceDoc(ctx context.Context, fetcher Fetcher, filingURL string) (string, error) {
	body, err := fetcher.Fetch(ctx, filingURL)
	if err != nil {
		return "", err
	}
	doc, err := markup.Parse(body)
	if err != nil {
		return "", err
	}

	table := doc.Find("table", map[string]string{"class": "tableFile", "summary": "Data Files"})
	if table == nil {
		return "", &ErrFilingNotFound{FilingURL: filingURL}
	}

	for _, row := range table.FindAll("tr", nil) {
		cells := row.FindAll("td", nil)
		if len(cells) < 4 {
			continue
		}
		if !strings.Contains(cells[3].Text(), "INS") {
			continue
		}
		anchor := cells[2].Find("a", nil)
		if anchor == nil {
			continue
		}
		return siteRelative(anchor.AttrOr("href", "")), nil
	}
	return "", &ErrFilingNotFound{FilingURL: filingURL}
}
