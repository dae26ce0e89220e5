package xbrl

import "fmt"

// ErrMissingMetric reports that a filing carries no fact for a
// requested metric. The metric is simply absent from that company's
// rows; the rest of the extraction proceeds.
type ErrMissingMetric struct {
	Metric string
	CIK    string
}

func (e *ErrMissingMetric) Error() string {
	return fmt.Sprintf("metric %q: no matching facts for CIK %s", e.Metric, e.CIK)
}

// ErrMalformedFact reports a single fact whose text could not be read
// as a number. Only that fact is dropped.
type ErrMalformedFact struct {
	Metric string
	Raw    string
	Err    error
}

func (e *ErrMalformedFact) Error() string {
	return fmt.Sprintf("metric %q: unparseable fact value %q: %v", e.Metric, e.Raw, e.Err)
}

func (e *ErrMalformedFact) Unwrap() error { return e.Err }

// ErrMissingAncillaryField reports a descriptive dei tag absent from a
// filing. The field stays empty for that company's rows.
type ErrMissingAncillaryField struct {
	Field string
}

func (e *ErrMissingAncillaryField) Error() string {
	return fmt.Sprintf("ancillary field %q not present in filing", e.Field)
}
