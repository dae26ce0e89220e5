// Package edgar locates filings on the SEC's EDGAR site: it walks the
// company browse listing to the filing for a target period, then the
// filing's index page to its XBRL instance document.
package edgar

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/seenimoa/edgarfacts/internal/config"
	"github.com/seenimoa/edgarfacts/internal/markup"
)

const siteURL = "https://www.sec.gov"

// Fetcher retrieves a document body by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Locator finds filings by scraping the EDGAR company browse page.
type Locator struct {
	fetcher  Fetcher
	criteria config.FilingConfig
}

// NewLocator builds a Locator over the given filing search criteria.
func NewLocator(fetcher Fetcher, criteria config.FilingConfig) *Locator {
	return &Locator{fetcher: fetcher, criteria: criteria}
}

// Locate returns the filing index URL for the company's filing in the
// target period (YYYY-MM). When the listing has no entry for that
// period the returned *ErrFilingNotFound carries every period label
// the listing did show.
func (l *Locator) Locate(ctx context.Context, cik, targetPeriod string) (string, error) {
	candidates, err := l.Candidates(ctx, cik)
	if err != nil {
		return "", err
	}
	return selectPeriod(candidates, cik, targetPeriod)
}

// Candidates returns the filing index URL per period label (YYYY-MM)
// from the company browse listing. When a company files twice in one
// month the row later in the listing wins; at quarterly and annual
// cadence that doesn't come up.
func (l *Locator) Candidates(ctx context.Context, cik string) (map[string]string, error) {
	body, err := l.fetcher.Fetch(ctx, BrowseURL(l.criteria, cik, false))
	if err != nil {
		return nil, err
	}
	doc, err := markup.Parse(body)
	if err != nil {
		return nil, err
	}

	candidates := make(map[string]string)
	table := doc.Find("table", map[string]string{"class": "tableFile2"})
	if table == nil {
		return candidates, nil
	}

	for _, row := range table.FindAll("tr", nil) {
		cells := row.FindAll("td", nil)
		// Header rows and malformed rows don't have the four cells a
		// filing entry carries.
		if len(cells) < 4 {
			log.Ctx(ctx).Debug().Str("cik", cik).Int("cells", len(cells)).Msg("listing row skipped")
			continue
		}
		anchor := cells[1].Find("a", nil)
		if anchor == nil {
			log.Ctx(ctx).Debug().Str("cik", cik).Msg("listing row has no document link")
			continue
		}
		dateText := cells[len(cells)-2].Text()
		if len(dateText) < 7 {
			log.Ctx(ctx).Debug().Str("cik", cik).Str("date", dateText).Msg("listing row has no filing date")
			continue
		}
		candidates[dateText[:7]] = siteRelative(anchor.AttrOr("href", ""))
	}
	return candidates, nil
}

// BrowseURL builds the EDGAR company browse URL for the criteria. With
// atom set the listing comes back as an Atom feed instead of HTML.
func BrowseURL(criteria config.FilingConfig, cik string, atom bool) string {
	q := url.Values{}
	q.Set("action", "getcompany")
	q.Set("CIK", PadCIK(cik))
	q.Set("type", criteria.Type)
	q.Set("dateb", criteria.NotAfter)
	q.Set("owner", criteria.Ownership)
	q.Set("count", strconv.Itoa(criteria.MaxCount))
	if atom {
		q.Set("output", "atom")
	}
	return siteURL + "/cgi-bin/browse-edgar?" + q.Encode()
}

// PadCIK left-pads a CIK with zeros to EDGAR's canonical 10 digits.
func PadCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	if len(cik) >= 10 {
		return cik
	}
	return strings.Repeat("0", 10-len(cik)) + cik
}

func selectPeriod(candidates map[string]string, cik, targetPeriod string) (string, error) {
	if u, ok := candidates[targetPeriod]; ok {
		return u, nil
	}
	seen := make([]string, 0, len(candidates))
	for label := range candidates {
		seen = append(seen, label)
	}
	sort.Strings(seen)
	return "", &ErrFilingNotFound{CIK: cik, Period: targetPeriod, Seen: seen}
}

func siteRelative(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return siteURL + href
}
