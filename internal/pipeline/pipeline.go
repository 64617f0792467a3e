// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives a full run: raw names are deduplicated or
// normalized into search terms, each term is queried in turn, and the
// trials found are gathered into a RunResult with summary statistics.
//
// Terms are processed one at a time so that a single rate limit covers the
// whole run. A term whose query fails is recorded and skipped; partial
// success is the normal outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/ratelimit"

	"github.com/pdiddy/trialscope/internal/metrics"
	"github.com/pdiddy/trialscope/internal/registry"
	"github.com/pdiddy/trialscope/internal/terms"
	"github.com/pdiddy/trialscope/pkg/types"
)

// ErrNoNames is returned when the input holds no usable disease name.
var ErrNoNames = errors.New("no disease names to query")

// sortedBy describes the registry ordering recorded in run metadata.
const sortedBy = "LastUpdatePostDate (descending)"

// Querier runs one registry query. *registry.Client implements it.
type Querier interface {
	Query(ctx context.Context, subject string, opts registry.QueryOptions) (types.QueryResult, error)
}

// NameNormalizer turns raw names into search terms. *normalize.Normalizer
// implements it.
type NameNormalizer interface {
	Normalize(ctx context.Context, names []string) types.Normalization
}

// Options configures a Runner.
type Options struct {
	MaxStudies   int
	ApplyFilters bool
	YearsBack    int

	// UseLLM routes names through the NameNormalizer when there are fewer
	// than MaxLLMNames of them. Otherwise the rule-based deduplicator runs.
	UseLLM      bool
	MaxLLMNames int

	// TermDelay is the minimum spacing between the starts of consecutive
	// term queries. Zero disables pacing.
	TermDelay time.Duration

	SourceFile   string
	ColumnHeader string
}

// Runner executes pipeline runs.
type Runner struct {
	Registry   Querier
	Normalizer NameNormalizer
	Options    Options

	// Progress receives one human-readable line per term. Nil discards.
	Progress io.Writer
	Log      *slog.Logger
	Metrics  *metrics.Recorder
	Now      func() time.Time

	limiter *ratelimit.Bucket
}

// New builds a Runner. The term pacing bucket holds a single token so the
// first query starts at once and later ones wait out TermDelay.
func New(q Querier, n NameNormalizer, opts Options, log *slog.Logger, m *metrics.Recorder) *Runner {
	r := &Runner{
		Registry:   q,
		Normalizer: n,
		Options:    opts,
		Log:        log,
		Metrics:    m,
	}
	if opts.TermDelay > 0 {
		r.limiter = ratelimit.NewBucket(opts.TermDelay, 1)
	}
	return r
}

// Run processes rawNames end to end. It fails only when rawNames holds no
// non-blank name, before any network activity, or when ctx is cancelled;
// in the latter case the partial result is returned with the error.
func (r *Runner) Run(ctx context.Context, rawNames []string) (*types.RunResult, error) {
	names := nonBlank(rawNames)
	if len(names) == 0 {
		return nil, ErrNoNames
	}

	log := r.logger()
	started := r.now()
	runID := uuid.NewString()
	log = log.With("run_id", runID)
	log.Info("starting run", "names", len(names))

	norm := r.normalize(ctx, names)
	fmt.Fprintf(r.progress(), "search terms: %d (from %d names)\n", len(norm.Terms), len(names))

	result := &types.RunResult{
		RawNames:         names,
		Normalization:    norm,
		ResultsByDisease: make(map[string]*types.QueryResult, len(norm.Terms)),
		FailedQueries:    []string{},
	}

	opts := registry.QueryOptions{
		ApplyFilters: r.Options.ApplyFilters,
		YearsBack:    r.Options.YearsBack,
		MaxStudies:   r.Options.MaxStudies,
	}

	var runErr error
	for i, term := range norm.Terms {
		if err := r.pace(ctx); err != nil {
			runErr = err
			break
		}

		begin := time.Now()
		qr, err := r.Registry.Query(ctx, term, opts)
		if err == nil && qr.Failed() {
			err = errors.New(qr.Error)
		}
		r.Metrics.QueryDone(err == nil, time.Since(begin))

		if err != nil {
			result.FailedQueries = append(result.FailedQueries, term)
			log.Warn("query failed", "term", term, "error", err)
			fmt.Fprintf(r.progress(), "failed:  [%d/%d] %s (%v)\n", i+1, len(norm.Terms), term, err)
			if ctxErr := ctx.Err(); ctxErr != nil {
				runErr = ctxErr
				break
			}
			continue
		}

		qr.Studies = extractAll(qr.RawRecords, r.now(), log)
		result.ResultsByDisease[term] = &qr
		fmt.Fprintf(r.progress(), "queried: [%d/%d] %s (%d trials)\n", i+1, len(norm.Terms), term, len(qr.Studies))
	}

	result.SummaryStatistics = ComputeStatistics(result.ResultsByDisease)
	result.Metadata = r.metadata(runID, started, result)

	log.Info("run complete",
		"terms", len(norm.Terms),
		"succeeded", len(result.ResultsByDisease),
		"failed", len(result.FailedQueries),
		"trials", result.SummaryStatistics.TotalTrials)
	fmt.Fprintf(r.progress(), "\nRun summary: %d queried, %d failed, %d trials (terms: %d)\n",
		len(result.ResultsByDisease), len(result.FailedQueries),
		result.SummaryStatistics.TotalTrials, len(norm.Terms))

	return result, runErr
}

func (r *Runner) normalize(ctx context.Context, names []string) types.Normalization {
	if r.Normalizer != nil && r.Options.UseLLM && len(names) < r.Options.MaxLLMNames {
		return r.Normalizer.Normalize(ctx, names)
	}
	if r.Options.UseLLM {
		r.logger().Info("too many names for the model, using rule-based deduplication",
			"names", len(names), "limit", r.Options.MaxLLMNames)
	}

	unique, groups := terms.Deduplicate(names)
	r.Metrics.Normalized("rules")
	r.logger().Info("deduplicated names", "names", len(names), "terms", len(unique), "merged", groups.Merged())
	return types.Normalization{
		Terms:   unique,
		Mapping: []types.TermMapping{},
		Groups:  groups.Map(),
	}
}

// pace blocks until the term bucket releases a token or ctx is done.
func (r *Runner) pace(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.limiter == nil {
		return nil
	}
	wait := r.limiter.Take(1)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) metadata(runID string, started time.Time, res *types.RunResult) types.RunMetadata {
	withTrials := 0
	for _, qr := range res.ResultsByDisease {
		if len(qr.Studies) > 0 {
			withTrials++
		}
	}
	return types.RunMetadata{
		RunID:                     runID,
		Timestamp:                 started,
		SourceFile:                r.Options.SourceFile,
		ColumnHeader:              r.Options.ColumnHeader,
		TotalDiseasesExtracted:    len(res.RawNames),
		TotalDiseasesDeduplicated: len(res.Normalization.Terms),
		TotalDiseasesWithTrials:   withTrials,
		TotalTrials:               res.SummaryStatistics.TotalTrials,
		MaxTrialsPerDisease:       r.Options.MaxStudies,
		SortedBy:                  sortedBy,
		FiltersApplied:            r.Options.ApplyFilters,
		YearsBack:                 r.Options.YearsBack,
		UsedLLM:                   res.Normalization.UsedLLM,
		DiseasesQueried:           append([]string(nil), res.Normalization.Terms...),
	}
}

func extractAll(records []map[string]any, now time.Time, log *slog.Logger) []types.TrialSummary {
	out := make([]types.TrialSummary, 0, len(records))
	for _, rec := range records {
		out = append(out, registry.ExtractTrial(registry.Record(rec), now, log))
	}
	return out
}

func nonBlank(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func (r *Runner) progress() io.Writer {
	if r.Progress != nil {
		return r.Progress
	}
	return io.Discard
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.New(slog.DiscardHandler)
}
