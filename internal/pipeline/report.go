package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Stage names the step of company processing an entry came from.
type Stage string

const (
	StageLocate    Stage = "locate"
	StageFetch     Stage = "fetch"
	StageParse     Stage = "parse"
	StageExtract   Stage = "extract"
	StageFact      Stage = "fact"
	StageContext   Stage = "context"
	StageAncillary Stage = "ancillary"
)

// ReportEntry records one anomaly or failure. Metric is empty for
// company-level stages; for ancillary entries it holds the field name.
type ReportEntry struct {
	Company string
	Metric  string
	Stage   Stage
	Err     error
}

// RunReport accompanies every build: what ran, what each company
// contributed, and everything that went wrong along the way. Safe for
// concurrent writes from company workers.
type RunReport struct {
	RunID     uuid.UUID
	StartedAt time.Time

	mu         sync.Mutex
	finishedAt time.Time
	entries    []ReportEntry
	rows       map[string]int
}

// NewRunReport starts a report for a fresh run.
func NewRunReport() *RunReport {
	return &RunReport{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
		rows:      make(map[string]int),
	}
}

// Add records an anomaly.
func (r *RunReport) Add(company, metric string, stage Stage, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, ReportEntry{Company: company, Metric: metric, Stage: stage, Err: err})
}

// SetRows records how many rows a company contributed.
func (r *RunReport) SetRows(company string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[company] = n
}

// Finish stamps the end of the run.
func (r *RunReport) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finishedAt = time.Now()
}

// FinishedAt returns the end timestamp, zero until Finish.
func (r *RunReport) FinishedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finishedAt
}

// Entries returns a copy of the recorded anomalies.
func (r *RunReport) Entries() []ReportEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ReportEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// RowsByCompany returns a copy of the per-company row counts.
func (r *RunReport) RowsByCompany() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.rows))
	for k, v := range r.rows {
		out[k] = v
	}
	return out
}

// Summary renders a human-readable digest of the run.
func (r *RunReport) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	companies := make([]string, 0, len(r.rows))
	total := 0
	for name, n := range r.rows {
		companies = append(companies, name)
		total += n
	}
	sort.Strings(companies)

	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %d rows from %d companies", r.RunID, total, len(companies))
	if !r.finishedAt.IsZero() {
		fmt.Fprintf(&b, " in %s", r.finishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}
	b.WriteString("\n")

	for _, name := range companies {
		fmt.Fprintf(&b, "  %s: %d rows\n", name, r.rows[name])
	}

	if len(r.entries) > 0 {
		fmt.Fprintf(&b, "%d items need attention:\n", len(r.entries))
		for _, e := range r.entries {
			if e.Metric != "" {
				fmt.Fprintf(&b, "  [%s] %s/%s: %v\n", e.Stage, e.Company, e.Metric, e.Err)
			} else {
				fmt.Fprintf(&b, "  [%s] %s: %v\n", e.Stage, e.Company, e.Err)
			}
		}
	}
	return b.String()
}
