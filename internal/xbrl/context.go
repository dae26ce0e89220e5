// Package xbrl decodes facts out of parsed XBRL instance documents.
//
// Filers embed the reporting window of each fact in its context
// reference string rather than anywhere structured, e.g.
// "Duration_Sep01_2018_Nov30_2018_srt_ProductOrServiceAxis_ProductMember".
// This package pulls dates, segment qualifiers, and numeric values back
// out of that encoding.
package xbrl

import (
	"regexp"
	"time"

	"github.com/seenimoa/edgarfacts/pkg/models"
)

var (
	// Date tokens look like Nov30_2018: month abbreviation, day, year.
	dateTokenRe = regexp.MustCompile(`[A-Z][a-z]{2}\d{2}_\d{4}`)
	// Segment qualifiers start at the first srt_ axis and run to the end.
	qualifierRe = regexp.MustCompile(`srt_.*`)
)

const dateTokenLayout = "Jan02_2006"

// DecodeContext interprets a context reference string. One date token
// means an instant (a balance as of that date), two mean a duration
// (primary = start, secondary = end). Tokens that look like dates but
// don't parse are ignored, as are tokens past the second; keys with no
// date tokens at all come back with both dates unset. DecodeContext is
// pure: same key, same dimensions.
func DecodeContext(key string) models.ContextDimensions {
	var dims models.ContextDimensions

	var dates []time.Time
	for _, tok := range dateTokenRe.FindAllString(key, -1) {
		ts, err := time.Parse(dateTokenLayout, tok)
		if err != nil {
			continue
		}
		dates = append(dates, ts)
		if len(dates) == 2 {
			break
		}
	}
	switch len(dates) {
	case 1:
		dims.PrimaryDate = &dates[0]
	case 2:
		dims.PrimaryDate = &dates[0]
		dims.SecondaryDate = &dates[1]
	}

	dims.EntityQualifier = qualifierRe.FindString(key)
	return dims
}
