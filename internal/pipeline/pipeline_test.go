package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/seenimoa/edgarfacts/internal/config"
	"github.com/seenimoa/edgarfacts/internal/edgar"
	"github.com/seenimoa/edgarfacts/internal/xbrl"
	"github.com/seenimoa/edgarfacts/pkg/models"
)

type fakeLocator struct {
	urls map[string]string // cik → filing index URL
	errs map[string]error  // cik → forced failure
}

func (l *fakeLocator) Locate(ctx context.Context, cik, targetPeriod string) (string, error) {
	if err, ok := l.errs[cik]; ok {
		return "", err
	}
	u, ok := l.urls[cik]
	if !ok {
		return "", &edgar.ErrFilingNotFound{CIK: cik, Period: targetPeriod}
	}
	return u, nil
}

type fakeFetcher struct {
	pages map[string][]byte
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("no fixture for %s", url)
	}
	return body, nil
}

func filingIndex(instanceURL string) []byte {
	return []byte(fmt.Sprintf(`<html><body>
<table class="tableFile" summary="Data Files">
  <tr><th>Seq</th><th>Description</th><th>Document</th><th>Type</th><th>Size</th></tr>
  <tr><td>2</td><td>XBRL INSTANCE DOCUMENT</td><td><a href="%s">doc.xml</a></td><td>EX-101.INS</td><td>1</td></tr>
</table>
</body></html>`, instanceURL))
}

const alphaIndexURL = "https://www.sec.gov/alpha/index.htm"
const alphaInstanceURL = "https://www.sec.gov/alpha/alpha-20181130.xml"

const alphaInstance = `<html><body>
<us-gaap:NetIncomeLoss contextRef="Duration_Sep01_2018_Nov30_2018" unitRef="usd" decimals="-6">-5000000</us-gaap:NetIncomeLoss>
<us-gaap:Revenues contextRef="Duration_Sep01_2018_Nov30_2018" unitRef="usd" decimals="-6">7000000</us-gaap:Revenues>
<dei:DocumentType contextRef="D1">10-Q</dei:DocumentType>
</body></html>`

func testPipelineConfig(companies map[string]string) *config.Config {
	return &config.Config{
		Companies:       companies,
		TargetPeriod:    "2018-11",
		Metrics:         []string{"NetIncomeLoss", "Revenues"},
		AncillaryFields: []string{"DocumentType", "TradingSymbol"},
		Filing:          config.FilingConfig{Type: "10-Q", MaxCount: 100, Ownership: "include", Source: "html"},
		Pipeline:        config.PipelineConfig{Workers: 1, UndatedContexts: "report"},
	}
}

// ── BuildTable ──

func TestBuildTableBatchContinuesPastCompanyFailure(t *testing.T) {
	cfg := testPipelineConfig(map[string]string{
		"Alpha": "0000000001",
		"Beta":  "0000000002",
	})
	locator := &fakeLocator{
		urls: map[string]string{"0000000001": alphaIndexURL},
		errs: map[string]error{"0000000002": &edgar.ErrFilingNotFound{CIK: "0000000002", Period: "2018-11", Seen: []string{"2018-08"}}},
	}
	fetcher := &fakeFetcher{pages: map[string][]byte{
		alphaIndexURL:    filingIndex(alphaInstanceURL),
		alphaInstanceURL: []byte(alphaInstance),
	}}

	table, report, err := New(cfg, fetcher, locator).BuildTable(context.Background())
	if err != nil {
		t.Fatalf("BuildTable() error: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("table rows: got %d, want 2 (Alpha only)", table.Len())
	}

	row := table.Rows[0]
	if row.Company != "Alpha" || row.CIK != "0000000001" {
		t.Errorf("row 0 identity: got %s/%s", row.Company, row.CIK)
	}
	if row.MetricName != "NetIncomeLoss" {
		t.Errorf("row 0 MetricName: got %q, want %q", row.MetricName, "NetIncomeLoss")
	}
	if row.MetricValue != -5.0 {
		t.Errorf("row 0 MetricValue: got %v, want -5.0", row.MetricValue)
	}
	if !row.Context.IsDuration() {
		t.Error("row 0 context should be a duration")
	}
	if got := row.Context.PrimaryDate.Format("2006-01-02"); got != "2018-09-01" {
		t.Errorf("row 0 PrimaryDate: got %s", got)
	}
	if row.PeriodLabel != "2018-11" || row.FilingType != "10-Q" {
		t.Errorf("row 0 period/type: got %s/%s", row.PeriodLabel, row.FilingType)
	}
	if got := row.Ancillary["DocumentType"]; got != "10-Q" {
		t.Errorf("row 0 ancillary DocumentType: got %q", got)
	}

	if table.Rows[1].MetricName != "Revenues" || table.Rows[1].MetricValue != 7.0 {
		t.Errorf("row 1: got %s=%v", table.Rows[1].MetricName, table.Rows[1].MetricValue)
	}

	rows := report.RowsByCompany()
	if rows["Alpha"] != 2 || rows["Beta"] != 0 {
		t.Errorf("RowsByCompany: got %v", rows)
	}

	var sawBetaLocate, sawAncillary bool
	for _, e := range report.Entries() {
		switch {
		case e.Company == "Beta" && e.Stage == StageLocate:
			var nf *edgar.ErrFilingNotFound
			if !errors.As(e.Err, &nf) {
				t.Errorf("Beta locate entry error: got %T", e.Err)
			}
			sawBetaLocate = true
		case e.Company == "Alpha" && e.Stage == StageAncillary && e.Metric == "TradingSymbol":
			var aerr *xbrl.ErrMissingAncillaryField
			if !errors.As(e.Err, &aerr) {
				t.Errorf("ancillary entry error: got %T", e.Err)
			}
			sawAncillary = true
		}
	}
	if !sawBetaLocate {
		t.Error("report missing Beta locate entry")
	}
	if !sawAncillary {
		t.Error("report missing Alpha TradingSymbol ancillary entry")
	}

	if report.FinishedAt().IsZero() {
		t.Error("report FinishedAt not stamped")
	}
}

func TestBuildTableContinuesPastAbsentMetric(t *testing.T) {
	// A metric the filer never tagged contributes zero rows and one
	// extract-stage report entry; the other metrics still come through.
	cfg := testPipelineConfig(map[string]string{"Alpha": "0000000001"})
	cfg.Metrics = []string{"NetIncomeLoss", "Revenues", "Assets"}
	cfg.AncillaryFields = nil
	locator := &fakeLocator{urls: map[string]string{"0000000001": alphaIndexURL}}
	fetcher := &fakeFetcher{pages: map[string][]byte{
		alphaIndexURL:    filingIndex(alphaInstanceURL),
		alphaInstanceURL: []byte(alphaInstance),
	}}

	table, report, err := New(cfg, fetcher, locator).BuildTable(context.Background())
	if err != nil {
		t.Fatalf("BuildTable() error: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("table rows: got %d, want 2 (absent metric contributes none)", table.Len())
	}
	for i, row := range table.Rows {
		if row.MetricName == "Assets" {
			t.Errorf("row %d: absent metric produced a row", i)
		}
	}
	if table.Rows[0].MetricName != "NetIncomeLoss" || table.Rows[1].MetricName != "Revenues" {
		t.Errorf("surviving metrics: got %s, %s", table.Rows[0].MetricName, table.Rows[1].MetricName)
	}
	if rows := report.RowsByCompany(); rows["Alpha"] != 2 {
		t.Errorf("RowsByCompany[Alpha]: got %d, want 2", rows["Alpha"])
	}

	var extracts []ReportEntry
	for _, e := range report.Entries() {
		if e.Stage == StageExtract {
			extracts = append(extracts, e)
		}
	}
	if len(extracts) != 1 {
		t.Fatalf("extract entries: got %d, want 1", len(extracts))
	}
	entry := extracts[0]
	if entry.Company != "Alpha" || entry.Metric != "Assets" {
		t.Errorf("extract entry: got company %q metric %q", entry.Company, entry.Metric)
	}
	var merr *xbrl.ErrMissingMetric
	if !errors.As(entry.Err, &merr) {
		t.Fatalf("extract entry error: got %T (%v), want *ErrMissingMetric", entry.Err, entry.Err)
	}
	if merr.Metric != "Assets" || merr.CIK != "0000000001" {
		t.Errorf("ErrMissingMetric fields: got metric %q cik %q", merr.Metric, merr.CIK)
	}
}

func instanceWithRevenue(value string) []byte {
	return []byte(fmt.Sprintf(`<html><body>
<us-gaap:Revenues contextRef="Duration_Sep01_2018_Nov30_2018" decimals="0">%s</us-gaap:Revenues>
</body></html>`, value))
}

func TestBuildTableParallelKeepsCompanyOrder(t *testing.T) {
	companies := map[string]string{
		"Alpha": "0000000001",
		"Beta":  "0000000002",
		"Gamma": "0000000003",
	}
	locator := &fakeLocator{urls: map[string]string{
		"0000000001": "https://www.sec.gov/1/index.htm",
		"0000000002": "https://www.sec.gov/2/index.htm",
		"0000000003": "https://www.sec.gov/3/index.htm",
	}}
	fetcher := &fakeFetcher{pages: map[string][]byte{
		"https://www.sec.gov/1/index.htm": filingIndex("https://www.sec.gov/1/doc.xml"),
		"https://www.sec.gov/2/index.htm": filingIndex("https://www.sec.gov/2/doc.xml"),
		"https://www.sec.gov/3/index.htm": filingIndex("https://www.sec.gov/3/doc.xml"),
		"https://www.sec.gov/1/doc.xml":   instanceWithRevenue("1"),
		"https://www.sec.gov/2/doc.xml":   instanceWithRevenue("2"),
		"https://www.sec.gov/3/doc.xml":   instanceWithRevenue("3"),
	}}

	build := func(workers int) *models.MetricTable {
		cfg := testPipelineConfig(companies)
		cfg.Metrics = []string{"Revenues"}
		cfg.AncillaryFields = nil
		cfg.Pipeline.Workers = workers

		table, _, err := New(cfg, fetcher, locator).BuildTable(context.Background())
		if err != nil {
			t.Fatalf("BuildTable(workers=%d) error: %v", workers, err)
		}
		return table
	}

	sequential := build(1)
	parallel := build(3)

	wantOrder := []string{"Alpha", "Beta", "Gamma"}
	for _, table := range []*models.MetricTable{sequential, parallel} {
		if table.Len() != 3 {
			t.Fatalf("table rows: got %d, want 3", table.Len())
		}
		for i, want := range wantOrder {
			if table.Rows[i].Company != want {
				t.Errorf("row %d company: got %q, want %q", i, table.Rows[i].Company, want)
			}
		}
	}
	for i := range sequential.Rows {
		if sequential.Rows[i].MetricValue != parallel.Rows[i].MetricValue {
			t.Errorf("row %d value differs between worker counts: %v vs %v",
				i, sequential.Rows[i].MetricValue, parallel.Rows[i].MetricValue)
		}
	}
}

func TestBuildTableUndatedContextPolicy(t *testing.T) {
	companies := map[string]string{"Alpha": "0000000001"}
	locator := &fakeLocator{urls: map[string]string{"0000000001": alphaIndexURL}}
	fetcher := &fakeFetcher{pages: map[string][]byte{
		alphaIndexURL: filingIndex(alphaInstanceURL),
		alphaInstanceURL: []byte(`<html><body>
<us-gaap:Revenues contextRef="FI2018Q3" decimals="0">10</us-gaap:Revenues>
</body></html>`),
	}}

	run := func(policy string) (*models.MetricTable, *RunReport) {
		cfg := testPipelineConfig(companies)
		cfg.Metrics = []string{"Revenues"}
		cfg.AncillaryFields = nil
		cfg.Pipeline.UndatedContexts = policy

		table, report, err := New(cfg, fetcher, locator).BuildTable(context.Background())
		if err != nil {
			t.Fatalf("BuildTable(policy=%s) error: %v", policy, err)
		}
		return table, report
	}

	countContextEntries := func(report *RunReport) int {
		n := 0
		for _, e := range report.Entries() {
			if e.Stage == StageContext {
				n++
			}
		}
		return n
	}

	table, report := run("report")
	if table.Len() != 1 {
		t.Fatalf("policy report: rows got %d, want 1 (row kept)", table.Len())
	}
	if table.Rows[0].Context.HasDates() {
		t.Error("policy report: context should have no dates")
	}
	if got := countContextEntries(report); got != 1 {
		t.Errorf("policy report: context entries got %d, want 1", got)
	}

	table, report = run("allow")
	if table.Len() != 1 {
		t.Fatalf("policy allow: rows got %d, want 1", table.Len())
	}
	if got := countContextEntries(report); got != 0 {
		t.Errorf("policy allow: context entries got %d, want 0", got)
	}
}

func TestCanonicalMetricName(t *testing.T) {
	tests := []struct {
		metric  string
		tagName string
		want    string
	}{
		{"NetIncomeLoss", "us-gaap:netincomeloss", "NetIncomeLoss"},
		{"Revenues", "us-gaap:revenues", "Revenues"},
		// Prefix-extended matches keep the document spelling.
		{"Revenues", "us-gaap:revenuesnetofinterestexpense", "revenuesnetofinterestexpense"},
	}
	for _, tt := range tests {
		if got := canonicalMetricName(tt.metric, tt.tagName); got != tt.want {
			t.Errorf("canonicalMetricName(%q, %q) = %q, want %q", tt.metric, tt.tagName, got, tt.want)
		}
	}
}

func TestSortedCompanies(t *testing.T) {
	cfg := &config.Config{Companies: map[string]string{
		"Travelers": "0000086312",
		"AIG":       "0000005272",
		"Chubb":     "0000896159",
	}}
	got := SortedCompanies(cfg)
	want := []models.Company{
		{Name: "AIG", CIK: "0000005272"},
		{Name: "Chubb", CIK: "0000896159"},
		{Name: "Travelers", CIK: "0000086312"},
	}
	if len(got) != len(want) {
		t.Fatalf("len: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("company %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}
