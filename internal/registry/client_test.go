// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/trialscope/internal/metrics"
)

// countingPacer records how often a query paused between pages.
type countingPacer struct {
	mu    sync.Mutex
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waits++
	return ctx.Err()
}

func study(id, completion string) map[string]any {
	status := map[string]any{"overallStatus": "COMPLETED"}
	if completion != "" {
		status["completionDateStruct"] = map[string]any{"date": completion, "type": "ACTUAL"}
	}
	return map[string]any{
		"protocolSection": map[string]any{
			"identificationModule": map[string]any{"nctId": id},
			"statusModule":         status,
		},
	}
}

func studies(prefix string, n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = study(fmt.Sprintf("%s%d", prefix, i+1), "")
	}
	return out
}

// pagedServer serves pages in order, keyed by the pageToken it handed out.
// A nil page makes the server answer 500 for that position.
func pagedServer(t *testing.T, pages ...[]map[string]any) (*httptest.Server, *[]map[string]string) {
	t.Helper()
	var mu sync.Mutex
	var seen []map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/studies", r.URL.Path)
		q := r.URL.Query()

		mu.Lock()
		seen = append(seen, map[string]string{
			"query.term": q.Get("query.term"),
			"pageSize":   q.Get("pageSize"),
			"sort":       q.Get("sort"),
			"format":     q.Get("format"),
			"pageToken":  q.Get("pageToken"),
		})
		mu.Unlock()

		idx := 0
		if tok := q.Get("pageToken"); tok != "" {
			fmt.Sscanf(tok, "tok-%d", &idx)
		}
		if idx >= len(pages) || pages[idx] == nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body := map[string]any{"studies": pages[idx]}
		if idx+1 < len(pages) {
			body["nextPageToken"] = fmt.Sprintf("tok-%d", idx+1)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(ts.Close)
	return ts, &seen
}

func testClient(ts *httptest.Server, pacer Pacer) *Client {
	return &Client{
		HTTP:    ts.Client(),
		BaseURL: ts.URL,
		Pacer:   pacer,
		Now:     func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func ids(records []map[string]any) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = Record(r).String("protocolSection", "identificationModule", "nctId")
	}
	return out
}

func TestQuery_TwoPages(t *testing.T) {
	ts, seen := pagedServer(t, studies("A", 3), studies("B", 2))
	pacer := &countingPacer{}
	m := metrics.New()
	c := testClient(ts, pacer)
	c.Metrics = m

	res, err := c.Query(context.Background(), "Asthma", QueryOptions{MaxStudies: 10})
	require.NoError(t, err)

	assert.Empty(t, res.Error)
	assert.Equal(t, []string{"A1", "A2", "A3", "B1", "B2"}, ids(res.RawRecords))
	assert.Equal(t, 5, res.TotalCount)
	assert.Equal(t, 2, res.Pages)
	// One pause between the two pages; none after the last.
	assert.Equal(t, 1, pacer.waits)

	require.Len(t, *seen, 2)
	first := (*seen)[0]
	assert.Equal(t, `"asthma"`, first["query.term"])
	assert.Equal(t, "10", first["pageSize"])
	assert.Equal(t, "LastUpdatePostDate:desc", first["sort"])
	assert.Equal(t, "json", first["format"])
	assert.Empty(t, first["pageToken"])
	assert.Equal(t, "tok-1", (*seen)[1]["pageToken"])

	assert.Equal(t, `"asthma"`, res.QueryParams["query.term"])
	assert.NotContains(t, res.QueryParams, "pageToken")
	assert.Contains(t, res.RawAPIResponse, "studies")
}

func TestQuery_TruncatesToMax(t *testing.T) {
	ts, seen := pagedServer(t, studies("A", 3), studies("B", 2))
	pacer := &countingPacer{}

	res, err := testClient(ts, pacer).Query(context.Background(), "asthma", QueryOptions{MaxStudies: 3})
	require.NoError(t, err)

	assert.Equal(t, []string{"A1", "A2", "A3"}, ids(res.RawRecords))
	assert.Equal(t, 3, res.TotalCount)
	assert.Equal(t, "3", (*seen)[0]["pageSize"])
	// The cap was reached on page one, so page two is never requested.
	assert.Len(t, *seen, 1)
	assert.Zero(t, pacer.waits)
}

func TestQuery_TruncatesAcrossPages(t *testing.T) {
	ts, _ := pagedServer(t, studies("A", 3), studies("B", 3), studies("C", 3))

	res, err := testClient(ts, nil).Query(context.Background(), "asthma", QueryOptions{MaxStudies: 4})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2", "A3", "B1"}, ids(res.RawRecords))
}

func TestQuery_PageSizeCapped(t *testing.T) {
	ts, seen := pagedServer(t, studies("A", 1))

	_, err := testClient(ts, nil).Query(context.Background(), "asthma", QueryOptions{MaxStudies: 5000})
	require.NoError(t, err)
	assert.Equal(t, "1000", (*seen)[0]["pageSize"])
}

func TestQuery_StopsOnEmptyPage(t *testing.T) {
	ts, seen := pagedServer(t, studies("A", 2), []map[string]any{}, studies("C", 2))
	pacer := &countingPacer{}

	res, err := testClient(ts, pacer).Query(context.Background(), "asthma", QueryOptions{MaxStudies: 50})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, ids(res.RawRecords))
	assert.Len(t, *seen, 2)
	assert.Equal(t, 1, pacer.waits)
}

func TestQuery_FirstPageFailure(t *testing.T) {
	ts, _ := pagedServer(t, nil)
	m := metrics.New()
	c := testClient(ts, nil)
	c.Metrics = m

	res, err := c.Query(context.Background(), "asthma", QueryOptions{MaxStudies: 10})
	require.NoError(t, err)

	assert.True(t, res.Failed())
	assert.Contains(t, res.Error, "HTTP 500")
	assert.NotNil(t, res.Studies)
	assert.Empty(t, res.Studies)
	assert.Empty(t, res.RawRecords)
	assert.Zero(t, res.TotalCount)
	assert.Equal(t, `"asthma"`, res.QueryParams["query.term"])
}

func TestQuery_LaterPageFailureKeepsPartial(t *testing.T) {
	ts, _ := pagedServer(t, studies("A", 3), nil)

	res, err := testClient(ts, &countingPacer{}).Query(context.Background(), "asthma", QueryOptions{MaxStudies: 10})
	require.NoError(t, err)

	assert.False(t, res.Failed())
	assert.Equal(t, []string{"A1", "A2", "A3"}, ids(res.RawRecords))
	assert.Equal(t, 1, res.Pages)
}

func TestQuery_TimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	c := testClient(ts, nil)
	c.HTTP.Timeout = 20 * time.Millisecond

	res, err := c.Query(context.Background(), "asthma", QueryOptions{MaxStudies: 10})
	require.NoError(t, err)
	assert.True(t, res.Failed())
}

func TestQuery_InvalidArguments(t *testing.T) {
	c := &Client{}
	_, err := c.Query(context.Background(), "  ", QueryOptions{MaxStudies: 10})
	assert.Error(t, err)
	_, err = c.Query(context.Background(), "asthma", QueryOptions{MaxStudies: 0})
	assert.Error(t, err)
}

func TestQuery_FiltersExpressionAndCutoff(t *testing.T) {
	page := []map[string]any{
		study("OLD", "2015-01"),
		study("NODATE", ""),
		study("RECENT", "2022-03-15"),
		study("BAD", "sometime"),
		study("EDGE", "2019"),
	}
	ts, seen := pagedServer(t, page)

	res, err := testClient(ts, nil).Query(context.Background(), "Heart Failure", QueryOptions{
		ApplyFilters: true,
		YearsBack:    5,
		MaxStudies:   10,
	})
	require.NoError(t, err)

	assert.Equal(t,
		`"heart failure" AND AREA[StudyType]Interventional AND AREA[LeadSponsorClass]Industry`,
		(*seen)[0]["query.term"])
	// now is 2024-06-01 so the cutoff lands on 2019-06-03.
	assert.Equal(t, []string{"NODATE", "RECENT", "BAD"}, ids(res.RawRecords))
	assert.Equal(t, 3, res.TotalCount)
}

func TestQuery_NoCutoffWithoutFilters(t *testing.T) {
	ts, _ := pagedServer(t, []map[string]any{study("OLD", "2001-01-01")})

	res, err := testClient(ts, nil).Query(context.Background(), "asthma", QueryOptions{
		ApplyFilters: false,
		YearsBack:    5,
		MaxStudies:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"OLD"}, ids(res.RawRecords))
}

func TestFiltersFor(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	off := FiltersFor(false, 10, now)
	assert.False(t, off.InterventionalOnly)
	assert.Nil(t, off.CompletionCutoff)

	noCutoff := FiltersFor(true, 0, now)
	assert.True(t, noCutoff.IndustrySponsorOnly)
	assert.Nil(t, noCutoff.CompletionCutoff)

	on := FiltersFor(true, 5, now)
	require.NotNil(t, on.CompletionCutoff)
	assert.Equal(t, now.AddDate(0, 0, -5*365), *on.CompletionCutoff)
}

func TestFiltersKeep(t *testing.T) {
	f := FiltersFor(true, 5, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	assert.False(t, f.Keep(Record(study("X", "2015-01"))))
	assert.True(t, f.Keep(Record(study("X", ""))), "missing completion date is kept")
	assert.True(t, f.Keep(Record(study("X", "n/a"))), "unparseable completion date is kept")
	assert.True(t, f.Keep(Record(study("X", "2023"))))
}

func TestDelayHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Delay(time.Hour).Wait(ctx), context.Canceled)
	assert.NoError(t, Delay(time.Millisecond).Wait(context.Background()))
}
