// Package pipeline drives a full extraction run: locate each company's
// filing, fetch and parse its instance document, extract the requested
// metrics, and assemble everything into one table plus a run report.
//
// A company failing never costs the others their rows. Anything short
// of a configuration error lands in the report and the batch keeps
// going.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/edgarfacts/internal/config"
	"github.com/seenimoa/edgarfacts/internal/edgar"
	"github.com/seenimoa/edgarfacts/internal/markup"
	"github.com/seenimoa/edgarfacts/internal/xbrl"
	"github.com/seenimoa/edgarfacts/pkg/models"
)

// Fetcher retrieves a document body by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Locator resolves the filing index URL for a company and target
// period. Both the HTML and the Atom locators satisfy it.
type Locator interface {
	Locate(ctx context.Context, cik, targetPeriod string) (string, error)
}

// Pipeline runs extractions against an immutable configuration.
type Pipeline struct {
	cfg     *config.Config
	fetcher Fetcher
	locator Locator
}

// New wires a Pipeline from its collaborators.
func New(cfg *config.Config, fetcher Fetcher, locator Locator) *Pipeline {
	return &Pipeline{cfg: cfg, fetcher: fetcher, locator: locator}
}

// SortedCompanies returns the configured companies in name order, the
// order companies appear in every run's output.
func SortedCompanies(cfg *config.Config) []models.Company {
	companies := make([]models.Company, 0, len(cfg.Companies))
	for name, cik := range cfg.Companies {
		companies = append(companies, models.Company{Name: name, CIK: cik})
	}
	sort.Slice(companies, func(i, j int) bool { return companies[i].Name < companies[j].Name })
	return companies
}

// BuildTable processes every configured company and concatenates their
// rows in sorted company order, re-indexed contiguously. The report
// always accompanies the table, whatever went wrong along the way.
func (p *Pipeline) BuildTable(ctx context.Context) (*models.MetricTable, *RunReport, error) {
	report := NewRunReport()
	companies := SortedCompanies(p.cfg)
	tables := make([]*models.MetricTable, len(companies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Pipeline.Workers)

	for i, company := range companies {
		g.Go(func() error {
			tables[i] = p.companyTable(gctx, company, report)
			return nil // company failures live in the report, never abort the batch
		})
	}
	if err := g.Wait(); err != nil {
		return nil, report, err
	}

	final := models.Concat(tables...)
	report.Finish()
	return final, report, nil
}

// companyTable builds one company's rows. Every failure is recorded
// and logged; the returned table is empty when the company's filing
// could not be located, fetched, or parsed.
func (p *Pipeline) companyTable(ctx context.Context, company models.Company, report *RunReport) *models.MetricTable {
	logger := log.Ctx(ctx).With().Str("company", company.Name).Str("cik", company.CIK).Logger()
	ctx = logger.WithContext(ctx)

	table := &models.MetricTable{}
	defer func() { report.SetRows(company.Name, table.Len()) }()

	filingURL, err := p.locator.Locate(ctx, company.CIK, p.cfg.TargetPeriod)
	if err != nil {
		report.Add(company.Name, "", StageLocate, err)
		logger.Warn().Err(err).Msg("filing not located")
		return table
	}

	instanceURL, err := edgar.ResolveInstanceDoc(ctx, p.fetcher, filingURL)
	if err != nil {
		report.Add(company.Name, "", StageLocate, err)
		logger.Warn().Err(err).Msg("instance document not resolved")
		return table
	}

	body, err := p.fetcher.Fetch(ctx, instanceURL)
	if err != nil {
		report.Add(company.Name, "", StageFetch, err)
		logger.Warn().Err(err).Msg("instance document fetch failed")
		return table
	}

	doc, err := markup.Parse(body)
	if err != nil {
		report.Add(company.Name, "", StageParse, err)
		logger.Warn().Err(err).Msg("instance document parse failed")
		return table
	}

	ancillary := p.ancillaryValues(ctx, doc, company, report)

	for _, metric := range p.cfg.Metrics {
		facts, dropped, err := xbrl.Extract(doc, metric, company.CIK)
		if err != nil {
			report.Add(company.Name, metric, StageExtract, err)
			logger.Info().Err(err).Msg("metric absent")
			continue
		}
		for _, derr := range dropped {
			report.Add(company.Name, metric, StageFact, derr)
			logger.Warn().Err(derr).Msg("fact dropped")
		}
		for _, fact := range facts {
			dims := xbrl.DecodeContext(fact.ContextRef())
			if !dims.HasDates() && p.cfg.Pipeline.UndatedContexts == "report" {
				report.Add(company.Name, metric, StageContext,
					fmt.Errorf("context %q carries no dates", fact.ContextRef()))
				logger.Debug().Str("context", fact.ContextRef()).Msg("undated context")
			}
			table.Append(models.MetricRow{
				Company:     company.Name,
				CIK:         company.CIK,
				PeriodLabel: p.cfg.TargetPeriod,
				FilingType:  p.cfg.Filing.Type,
				MetricName:  canonicalMetricName(metric, fact.TagName),
				MetricValue: fact.Value,
				Context:     dims,
				Attrs:       fact.Attrs,
				Ancillary:   ancillary,
			})
		}
	}

	logger.Info().Int("rows", table.Len()).Msg("company processed")
	return table
}

// canonicalMetricName strips the namespace prefix from a fact's tag
// name. The parser stores tag names lowercased; when the stripped name
// is the requested metric itself the caller's spelling is restored, so
// "NetIncomeLoss" in config stays "NetIncomeLoss" in the output. Tags
// matched through prefix extension keep their document spelling.
func canonicalMetricName(metric, tagName string) string {
	name := strings.TrimPrefix(tagName, "us-gaap:")
	if strings.EqualFold(name, metric) {
		return metric
	}
	return name
}

// ancillaryValues resolves the configured descriptive fields once per
// company; the same values attach to every row.
func (p *Pipeline) ancillaryValues(ctx context.Context, doc *markup.Document, company models.Company, report *RunReport) map[string]string {
	values := make(map[string]string, len(p.cfg.AncillaryFields))
	for _, field := range p.cfg.AncillaryFields {
		text, err := xbrl.Ancillary(doc, field)
		if err != nil {
			report.Add(company.Name, field, StageAncillary, err)
			log.Ctx(ctx).Debug().Err(err).Msg("ancillary field absent")
			continue
		}
		values[field] = text
	}
	return values
}
