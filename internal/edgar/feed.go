package edgar

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"

	"github.com/seenimoa/edgarfacts/internal/config"
)

// FeedLocator finds filings through the Atom flavor of the company
// browse listing (output=atom) instead of scraping the HTML table.
// Same contract as Locator: period labels are the filing date
// truncated to YYYY-MM, entry links point at the filing index page.
type FeedLocator struct {
	fetcher  Fetcher
	parser   *gofeed.Parser
	criteria config.FilingConfig
}

// NewFeedLocator builds a FeedLocator over the given filing search
// criteria.
func NewFeedLocator(fetcher Fetcher, criteria config.FilingConfig) *FeedLocator {
	return &FeedLocator{
		fetcher:  fetcher,
		parser:   gofeed.NewParser(),
		criteria: criteria,
	}
}

// Locate returns the filing index URL for the company's filing in the
// target period (YYYY-MM).
func (l *FeedLocator) Locate(ctx context.Context, cik, targetPeriod string) (string, error) {
	candidates, err := l.Candidates(ctx, cik)
	if err != nil {
		return "", err
	}
	return selectPeriod(candidates, cik, targetPeriod)
}

// Candidates returns the filing index URL per period label from the
// Atom listing.
func (l *FeedLocator) Candidates(ctx context.Context, cik string) (map[string]string, error) {
	body, err := l.fetcher.Fetch(ctx, BrowseURL(l.criteria, cik, true))
	if err != nil {
		return nil, err
	}
	feed, err := l.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parsing filing feed: %w", err)
	}

	candidates := make(map[string]string)
	for _, item := range feed.Items {
		ts := item.UpdatedParsed
		if ts == nil {
			ts = item.PublishedParsed
		}
		if ts == nil || item.Link == "" {
			log.Ctx(ctx).Debug().Str("cik", cik).Str("entry", item.Title).Msg("feed entry skipped")
			continue
		}
		candidates[ts.Format("2006-01")] = siteRelative(item.Link)
	}
	return candidates, nil
}
