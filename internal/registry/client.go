// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry queries the ClinicalTrials.gov v2 studies API and
// projects its records into trial summaries.
//
// A query walks the registry's continuation tokens one page at a time,
// pausing between pages, until it has enough records, the registry runs
// dry, or a page fails. A failure on the first page aborts the query with
// an error result; a failure on a later page keeps what was gathered.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/trialscope/internal/httputil"
	"github.com/pdiddy/trialscope/internal/metrics"
	"github.com/pdiddy/trialscope/pkg/types"
)

// registryBase is the ClinicalTrials.gov API root used when a Client has no
// BaseURL. Declared as a var so tests can substitute an httptest server.
var registryBase = "https://clinicaltrials.gov/api/v2"

const (
	maxPageSize = 1000
	sortOrder   = "LastUpdatePostDate:desc"
	serviceName = "ClinicalTrials.gov API"
)

// Pacer blocks between consecutive page fetches of one query.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Delay is a Pacer that sleeps for a fixed duration.
type Delay time.Duration

// Wait sleeps for d or until ctx is done.
func (d Delay) Wait(ctx context.Context) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(d))
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// QueryOptions controls one registry query.
type QueryOptions struct {
	ApplyFilters bool
	YearsBack    int
	MaxStudies   int
}

// Filters restricts a query. The study type and sponsor clauses go to the
// registry; the completion cutoff is applied to the returned records.
type Filters struct {
	InterventionalOnly  bool
	IndustrySponsorOnly bool
	CompletionCutoff    *time.Time
}

// FiltersFor derives the filters for a query. Nothing is restricted unless
// apply is set, and the cutoff needs a positive yearsBack.
func FiltersFor(apply bool, yearsBack int, now time.Time) Filters {
	if !apply {
		return Filters{}
	}
	f := Filters{InterventionalOnly: true, IndustrySponsorOnly: true}
	if yearsBack > 0 {
		cutoff := CompletionCutoff(now, yearsBack)
		f.CompletionCutoff = &cutoff
	}
	return f
}

// Expression builds the query.term value for subject.
func (f Filters) Expression(subject string) string {
	parts := []string{strconv.Quote(strings.ToLower(subject))}
	if f.InterventionalOnly {
		parts = append(parts, "AREA[StudyType]Interventional")
	}
	if f.IndustrySponsorOnly {
		parts = append(parts, "AREA[LeadSponsorClass]Industry")
	}
	return strings.Join(parts, " AND ")
}

// Keep reports whether rec survives the completion cutoff. A record whose
// completion date is missing or unparseable is always kept.
func (f Filters) Keep(rec Record) bool {
	if f.CompletionCutoff == nil {
		return true
	}
	raw := rec.String("protocolSection", "statusModule", "completionDateStruct", "date")
	if raw == "" {
		return true
	}
	d, err := ParseDate(raw)
	if err != nil {
		return true
	}
	return !d.Before(*f.CompletionCutoff)
}

// Client queries the registry. The zero value is usable: it talks to the
// public API with http.DefaultClient and no delay between pages.
type Client struct {
	HTTP      *http.Client
	BaseURL   string
	UserAgent string
	Pacer     Pacer
	Now       func() time.Time
	Log       *slog.Logger
	Metrics   *metrics.Recorder
}

// NewClient builds a Client from cfg with a bounded per-request timeout.
func NewClient(cfg types.RegistryConfig, log *slog.Logger, m *metrics.Recorder) *Client {
	return &Client{
		HTTP:      &http.Client{Timeout: cfg.Timeout},
		BaseURL:   cfg.BaseURL,
		UserAgent: cfg.UserAgent,
		Pacer:     Delay(cfg.RateLimitDelay),
		Log:       log,
		Metrics:   m,
	}
}

// page is one decoded registry response.
type page struct {
	raw       map[string]any
	records   []Record
	nextToken string
}

// Query fetches up to opts.MaxStudies records for subject. Transport and
// HTTP failures never surface as errors: a first-page failure is reported
// in the result's Error field, a later one ends pagination early. The
// returned error is reserved for invalid arguments.
func (c *Client) Query(ctx context.Context, subject string, opts QueryOptions) (types.QueryResult, error) {
	if strings.TrimSpace(subject) == "" {
		return types.QueryResult{}, fmt.Errorf("empty search term")
	}
	if opts.MaxStudies <= 0 {
		return types.QueryResult{}, fmt.Errorf("max studies must be positive, got %d", opts.MaxStudies)
	}

	log := c.logger().With("term", subject)
	filters := FiltersFor(opts.ApplyFilters, opts.YearsBack, c.now())

	params := url.Values{
		"query.term": {filters.Expression(subject)},
		"pageSize":   {strconv.Itoa(min(maxPageSize, opts.MaxStudies))},
		"sort":       {sortOrder},
		"format":     {"json"},
	}

	result := types.QueryResult{
		Disease:        subject,
		Studies:        []types.TrialSummary{},
		RawAPIResponse: map[string]any{},
		QueryParams:    flatten(params),
	}

	var all []Record
	token := ""
	for n := 1; ; n++ {
		p, err := c.fetchPage(ctx, params, token)
		if err != nil {
			c.Metrics.PageFailed(n == 1)
			if n == 1 {
				log.Error("registry query failed", "error", err)
				result.Error = err.Error()
				return result, nil
			}
			log.Warn("stopping pagination after page error", "page", n, "kept", len(all), "error", err)
			break
		}
		c.Metrics.PageFetched()
		result.Pages = n
		result.RawAPIResponse = p.raw

		if len(p.records) == 0 {
			break
		}
		all = append(all, p.records...)
		log.Debug("fetched registry page", "page", n, "records", len(p.records), "total", len(all))

		token = p.nextToken
		if token == "" || len(all) >= opts.MaxStudies {
			break
		}
		if err := c.pacer().Wait(ctx); err != nil {
			log.Warn("stopping pagination", "page", n, "error", err)
			break
		}
	}

	if len(all) > opts.MaxStudies {
		c.Metrics.Records("truncated", len(all)-opts.MaxStudies)
		all = all[:opts.MaxStudies]
	}

	kept := make([]map[string]any, 0, len(all))
	for _, rec := range all {
		if filters.Keep(rec) {
			kept = append(kept, rec)
		}
	}
	if dropped := len(all) - len(kept); dropped > 0 {
		c.Metrics.Records("cutoff", dropped)
		log.Info("dropped trials completed before cutoff", "dropped", dropped, "cutoff", filters.CompletionCutoff.Format("2006-01-02"))
	}
	c.Metrics.Records("kept", len(kept))

	result.RawRecords = kept
	result.TotalCount = len(kept)
	log.Info("registry query complete", "studies", len(kept), "pages", result.Pages)
	return result, nil
}

func (c *Client) fetchPage(ctx context.Context, params url.Values, token string) (page, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	if token != "" {
		q.Set("pageToken", token)
	}

	req, err := httputil.NewJSONRequest(ctx, http.MethodGet, c.baseURL()+"/studies?"+q.Encode(), nil, c.UserAgent)
	if err != nil {
		return page{}, err
	}

	var raw map[string]any
	if err := httputil.DoJSON(c.httpClient(), req, serviceName, &raw); err != nil {
		return page{}, err
	}

	body := Record(raw)
	next, _ := raw["nextPageToken"].(string)
	return page{
		raw:       raw,
		records:   body.Records("studies"),
		nextToken: next,
	}, nil
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return registryBase
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) pacer() Pacer {
	if c.Pacer != nil {
		return c.Pacer
	}
	return Delay(0)
}

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Client) logger() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.New(slog.DiscardHandler)
}

func flatten(v url.Values) map[string]string {
	out := make(map[string]string, len(v))
	for k := range v {
		out[k] = v.Get(k)
	}
	return out
}
