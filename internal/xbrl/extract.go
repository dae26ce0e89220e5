package xbrl

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/seenimoa/edgarfacts/internal/markup"
	"github.com/seenimoa/edgarfacts/pkg/models"
)

// Extract pulls every fact tagged for the metric out of an instance
// document, in document order. Tag matching is a prefix match on the
// lowercased metric under the us-gaap namespace, so "Revenues" finds
// us-gaap:revenues in a document that tagged it Us-Gaap:Revenues.
//
// A fact's value is its tag text scaled by the decimals attribute:
// negative decimals divide by 10^|decimals| (decimals="-6" turns
// "-5000000" into millions, -5.0); zero, positive, INF, or absent
// decimals leave the text value as is. Value text may carry comma
// separators. Facts whose text still doesn't parse as a number are
// dropped one at a time and reported in the second return value. A
// document with no tag for the metric at all returns *ErrMissingMetric.
func Extract(doc *markup.Document, metric, cik string) ([]models.Fact, []error, error) {
	re := regexp.MustCompile("^us-gaap:" + regexp.QuoteMeta(strings.ToLower(metric)))
	nodes := doc.FindAllMatching(re)
	if len(nodes) == 0 {
		return nil, nil, &ErrMissingMetric{Metric: metric, CIK: cik}
	}

	var (
		facts   []models.Fact
		dropped []error
	)
	for _, node := range nodes {
		raw := node.Text()
		value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			dropped = append(dropped, &ErrMalformedFact{Metric: metric, Raw: raw, Err: err})
			continue
		}
		if d, err := strconv.Atoi(node.AttrOr(models.AttrDecimals, "")); err == nil && d < 0 {
			value /= math.Pow(10, float64(-d))
		}
		facts = append(facts, models.Fact{
			TagName: node.Name(),
			Value:   value,
			RawText: raw,
			Attrs:   node.Attrs(),
		})
	}
	return facts, dropped, nil
}

// Ancillary returns the text of the dei tag named exactly for the
// field, e.g. field "DocumentType" reads dei:documenttype. Unlike
// metric matching this is not a prefix lookup: dei fields name one
// designated tag, and a longer tag such as dei:documenttypelongversion
// must not stand in for it. Fields the filer didn't tag return
// *ErrMissingAncillaryField.
func Ancillary(doc *markup.Document, field string) (string, error) {
	node := doc.Find("dei:"+field, nil)
	if node == nil {
		return "", &ErrMissingAncillaryField{Field: field}
	}
	return node.Text(), nil
}
