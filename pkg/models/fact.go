package models

import "time"

// Reserved fact attribute keys. Attribute names arrive lowercased from the
// markup parser, so these match the on-document spelling.
const (
	AttrDecimals   = "decimals"
	AttrContextRef = "contextref"
	AttrUnitRef    = "unitref"
)

// Fact represents one reported financial datum extracted from a filing.
// Filings attach arbitrary attribute sets per tag, so everything beyond the
// tag name and value lives in the Attrs bag.
type Fact struct {
	TagName string            `json:"tag_name"` // raw tag name, e.g. "us-gaap:netincomeloss"
	Value   float64           `json:"value"`    // numeric value after decimals rescaling
	RawText string            `json:"raw_text"` // original tag text before rescaling
	Attrs   map[string]string `json:"attrs"`    // every attribute present on the source tag
}

// ContextRef returns the fact's context identifier, or "" if absent.
func (f *Fact) ContextRef() string { return f.Attrs[AttrContextRef] }

// UnitRef returns the fact's unit reference, or "" if absent.
func (f *Fact) UnitRef() string { return f.Attrs[AttrUnitRef] }

// DecimalsAttr returns the raw decimals attribute, or "" if absent.
// The scaled Value already accounts for it.
func (f *Fact) DecimalsAttr() string { return f.Attrs[AttrDecimals] }

// ContextDimensions holds the semantic dimensions decoded from a fact's
// context identifier.
type ContextDimensions struct {
	PrimaryDate     *time.Time `json:"primary_date,omitempty"`
	SecondaryDate   *time.Time `json:"secondary_date,omitempty"`   // set only for duration contexts
	EntityQualifier string     `json:"entity_qualifier,omitempty"` // "" = consolidated entity
}

// HasDates reports whether any reporting date was decoded.
func (c ContextDimensions) HasDates() bool { return c.PrimaryDate != nil }

// IsInstant reports whether the context is a point-in-time context.
func (c ContextDimensions) IsInstant() bool {
	return c.PrimaryDate != nil && c.SecondaryDate == nil
}

// IsDuration reports whether the context covers a date range.
func (c ContextDimensions) IsDuration() bool {
	return c.PrimaryDate != nil && c.SecondaryDate != nil
}

// IsSegment reports whether the fact applies to a sub-segment rather than
// the consolidated entity.
func (c ContextDimensions) IsSegment() bool { return c.EntityQualifier != "" }
