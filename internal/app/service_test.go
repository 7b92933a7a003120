package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/tvrate/internal/domain"
	"github.com/John-Robertt/tvrate/internal/extract"
	"github.com/John-Robertt/tvrate/internal/imdb"
	"github.com/John-Robertt/tvrate/internal/imdb/imdbtest"
	"github.com/John-Robertt/tvrate/internal/infra/httpx"
)

var (
	showA = imdbtest.Show{Query: "Show A", ID: "tt0000011", Title: "Show A", Official: "8.0", Seasons: [][]string{{"8.0"}}}
	showB = imdbtest.Show{Query: "Show B", ID: "tt0000012", Title: "Show B", Official: "7.0", Seasons: [][]string{{"6.0", "8.0"}}}
)

func newService(t *testing.T, site *imdbtest.Site, threads int) *Service {
	t.Helper()
	c, err := httpx.NewClient(httpx.Options{Timeout: 5 * time.Second})
	require.NoError(t, err)
	ex, err := extract.New(extract.BackendStrict)
	require.NoError(t, err)
	return &Service{
		Resolver: &imdb.Resolver{BaseURL: site.URL, HTTP: c, Extractor: ex, Threads: threads, Log: zerolog.Nop()},
		Threads:  threads,
		Log:      zerolog.Nop(),
	}
}

func TestReport_OKAndHumanizedFailure(t *testing.T) {
	site := imdbtest.NewSite(showA)
	defer site.Close()
	svc := newService(t, site, 2)

	text, err := svc.Report(context.Background(), "  Show A ")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(text, "Show A\n-----------------------------\n"))

	_, err = svc.Report(context.Background(), "Missing Show")
	require.Error(t, err)
	// 搜索页 404：网络错误，阶段为 search。
	require.Equal(t, domain.KindNetwork, domain.KindOf(err))

	msg := svc.ReportText(context.Background(), "Missing Show")
	require.Contains(t, msg, "搜索失败")
	require.Contains(t, msg, "404")

	_, err = svc.Report(context.Background(), "   ")
	require.Equal(t, domain.KindSeries, domain.KindOf(err))
}

type batchRecorder struct {
	mu      sync.Mutex
	total   int
	workers int
	idx     []int
}

func (r *batchRecorder) OnBatchStart(total, workers int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total, r.workers = total, workers
}

func (r *batchRecorder) OnItemDone(idx, _ int, _ domain.BatchItem, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idx = append(r.idx, idx)
}

func TestBatch_OrderPreservingAndIsolated(t *testing.T) {
	site := imdbtest.NewSite(showA, showB)
	defer site.Close()
	site.SetPage(imdbtest.SearchURI("Nope"), imdbtest.EmptySearchPage)

	svc := newService(t, site, 3)
	rec := &batchRecorder{}
	svc.Observer = rec

	br := svc.Batch(context.Background(), []string{"Show B", "", "Nope", "Show A"})
	require.Len(t, br.Items, 3)
	require.Equal(t, []string{"Show B", "Nope", "Show A"}, []string{br.Items[0].Series, br.Items[1].Series, br.Items[2].Series})

	require.Equal(t, domain.StatusOK, br.Items[0].Status)
	require.Equal(t, "Show B", br.Items[0].Title)
	require.Contains(t, br.Items[0].Report, "Episode average rating: 7.0")

	require.Equal(t, domain.StatusFailed, br.Items[1].Status)
	require.Equal(t, string(domain.KindSeries), br.Items[1].ErrorKind)
	require.NotEmpty(t, br.Items[1].ErrorMsg)

	require.Equal(t, domain.StatusOK, br.Items[2].Status)
	require.Equal(t, domain.BatchSummary{OK: 2, Failed: 1}, br.Summary)
	require.False(t, br.FinishedAt.Before(br.StartedAt))

	require.Equal(t, 3, rec.total)
	require.Equal(t, 3, rec.workers)
	require.ElementsMatch(t, []int{1, 2, 3}, rec.idx)

	text := BatchText(br)
	require.True(t, strings.HasPrefix(text, "Show B\n"))
	require.Less(t, strings.Index(text, "Show B"), strings.Index(text, "Show A\n---"))
	require.Contains(t, text, "\n\n\nNope\n")
}

func TestBatch_CanceledContext(t *testing.T) {
	site := imdbtest.NewSite(showA)
	defer site.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	br := newService(t, site, 1).Batch(ctx, []string{"Show A"})
	require.Len(t, br.Items, 1)
	require.Equal(t, domain.StatusFailed, br.Items[0].Status)
	require.Equal(t, 0, site.Requests())
}

func TestSplitQuoted(t *testing.T) {
	require.Equal(t, []string{"Show A", "Show B"}, SplitQuoted(`"Show A" "Show B"`))
	require.Equal(t, []string{"Show A", "Show B"}, SplitQuoted(`  "Show A"    "Show B"  `))
	require.Equal(t, []string{"Single"}, SplitQuoted("Single"))
	require.Empty(t, SplitQuoted(`"" " "`))
}

func TestReadSeriesFileAndSaveText(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "series.txt")
	require.NoError(t, os.WriteFile(in, []byte("# watch list\nNathan for You\n\n  Breaking   Bad \n"), 0o644))

	names, err := ReadSeriesFile(in)
	require.NoError(t, err)
	require.Equal(t, []string{"Nathan for You", "Breaking Bad"}, names)

	_, err = ReadSeriesFile(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)

	out := filepath.Join(dir, "out", "report.txt")
	require.NoError(t, SaveText(out, "hello\n", false))
	err = SaveText(out, "again\n", false)
	require.True(t, errors.Is(err, os.ErrExist))
	require.NoError(t, SaveText(out, "again\n", true))
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "again\n", string(b))
}
