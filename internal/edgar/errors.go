package edgar

import (
	"fmt"
	"strings"
)

// ErrFilingNotFound reports that no filing could be pinned down for a
// company: either the listing had no entry for the target period, or a
// located filing's index page listed no instance document (FilingURL
// set). The caller records it and moves on to the next company.
type ErrFilingNotFound struct {
	CIK       string
	Period    string
	Seen      []string // period labels the listing did offer
	FilingURL string
}

func (e *ErrFilingNotFound) Error() string {
	if e.FilingURL != "" {
		return fmt.Sprintf("no instance document listed at %s", e.FilingURL)
	}
	if len(e.Seen) == 0 {
		return fmt.Sprintf("no filings listed for CIK %s", e.CIK)
	}
	return fmt.Sprintf("no filing for CIK %s matching period %s (listed: %s)",
		e.CIK, e.Period, strings.Join(e.Seen, ", "))
}
