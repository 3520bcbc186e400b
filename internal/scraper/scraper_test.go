package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markwatch/journal-cli/internal/fetcher"
	"github.com/markwatch/journal-cli/internal/model"
	"github.com/markwatch/journal-cli/internal/store"
)

// testRegistry serves a single-row listing with two PDF parts and counts
// download hits.
type testRegistry struct {
	srv       *httptest.Server
	downloads atomic.Int32
}

func newTestRegistry(t *testing.T) *testRegistry {
	t.Helper()
	reg := &testRegistry{}

	mux := http.NewServeMux()
	mux.HandleFunc("/listing", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<table><tbody><tr>
			<td>1</td><td>JR001</td><td>10/06/2024</td><td>12/06/2024</td>
			<td>
				<form action="/download" method="post">
					<input type="hidden" name="FileName" value="Journal\JR001\Part 1.pdf"/>
					<button>Class 1-34</button>
				</form>
				<form action="/download" method="post">
					<input type="hidden" name="FileName" value="Journal\JR001\Part 2.pdf"/>
					<button>Class 35-45</button>
				</form>
			</td>
		</tr></tbody></table>`)
	})
	mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		reg.downloads.Add(1)
		require.NoError(t, r.ParseForm())
		fmt.Fprintf(w, "%%PDF-1.4 content of %s", r.Form.Get("FileName"))
	})

	reg.srv = httptest.NewServer(mux)
	t.Cleanup(reg.srv.Close)
	return reg
}

func newTestScraper(t *testing.T, reg *testRegistry, dir string) (*Scraper, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second, MaxRetries: 2})
	s := New(st, f, Options{
		ListingURL:      reg.srv.URL + "/listing",
		DownloadDir:     dir,
		MaxJournals:     2,
		DownloadTimeout: 5 * time.Second,
	})
	return s, st
}

func TestDiscoverAndFetch_FullRun(t *testing.T) {
	reg := newTestRegistry(t)
	dir := t.TempDir()
	s, st := newTestScraper(t, reg, dir)
	ctx := context.Background()

	result, err := s.DiscoverAndFetch(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.JournalsFound)
	assert.Equal(t, 1, result.JournalsAcquired)
	assert.Equal(t, 2, result.PDFsDownloaded)
	assert.Equal(t, int32(2), reg.downloads.Load())

	journal, err := st.GetJournalByNumber(ctx, "JR001")
	require.NoError(t, err)
	require.NotNil(t, journal)
	assert.Equal(t, model.JournalStatusCompleted, journal.Status)
	assert.Equal(t, 2, journal.PDFCount)

	files, err := st.ListPDFFiles(ctx, journal.ID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "Part_1.pdf", files[0].FileName)
	assert.Equal(t, "1-34", files[0].ClassRange)
	assert.Equal(t, model.ExtractionStatusPending, files[0].ExtractionStatus)
	assert.Equal(t, "35-45", files[1].ClassRange)

	for _, f := range files {
		fi, err := os.Stat(f.FilePath)
		require.NoError(t, err)
		assert.Equal(t, f.FileSizeBytes, fi.Size())
		assert.Positive(t, fi.Size())
	}
}

func TestDiscoverAndFetch_Idempotency(t *testing.T) {
	reg := newTestRegistry(t)
	dir := t.TempDir()
	s, st := newTestScraper(t, reg, dir)
	ctx := context.Background()

	_, err := s.DiscoverAndFetch(ctx)
	require.NoError(t, err)
	require.Equal(t, int32(2), reg.downloads.Load())

	// Second pass against the unchanged listing: no new rows, no new
	// downloads.
	result, err := s.DiscoverAndFetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), reg.downloads.Load())
	assert.Equal(t, 1, result.JournalsFound)

	journal, err := st.GetJournalByNumber(ctx, "JR001")
	require.NoError(t, err)
	files, err := st.ListPDFFiles(ctx, journal.ID)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestDiscoverAndFetch_Reconciliation(t *testing.T) {
	reg := newTestRegistry(t)
	dir := t.TempDir()
	s, st := newTestScraper(t, reg, dir)
	ctx := context.Background()

	// Both files pre-exist on disk with no store rows.
	journalDir := filepath.Join(dir, "JR001")
	require.NoError(t, os.MkdirAll(journalDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(journalDir, "Part_1.pdf"), []byte("%PDF existing one"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(journalDir, "Part_2.pdf"), []byte("%PDF existing two"), 0644))

	result, err := s.DiscoverAndFetch(ctx)
	require.NoError(t, err)

	// Reconciled from disk metadata: rows created, zero download calls.
	assert.Equal(t, int32(0), reg.downloads.Load())
	assert.Equal(t, 2, result.PDFsDownloaded)

	journal, err := st.GetJournalByNumber(ctx, "JR001")
	require.NoError(t, err)
	files, err := st.ListPDFFiles(ctx, journal.ID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, int64(len("%PDF existing one")), files[0].FileSizeBytes)
}

func TestDiscoverAndFetch_ZeroLengthFileRedownloaded(t *testing.T) {
	reg := newTestRegistry(t)
	dir := t.TempDir()
	s, st := newTestScraper(t, reg, dir)
	ctx := context.Background()

	journalDir := filepath.Join(dir, "JR001")
	require.NoError(t, os.MkdirAll(journalDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(journalDir, "Part_1.pdf"), nil, 0644))

	_, err := s.DiscoverAndFetch(ctx)
	require.NoError(t, err)

	// The corrupt empty file was deleted and re-downloaded.
	assert.Equal(t, int32(2), reg.downloads.Load())

	journal, err := st.GetJournalByNumber(ctx, "JR001")
	require.NoError(t, err)
	files, err := st.ListPDFFiles(ctx, journal.ID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Positive(t, files[0].FileSizeBytes)
}

func TestDiscoverAndFetch_RetryJournalWithZeroParts(t *testing.T) {
	reg := newTestRegistry(t)
	dir := t.TempDir()
	s, st := newTestScraper(t, reg, dir)
	ctx := context.Background()

	// Journal exists from a failed earlier run, no parts downloaded.
	_, err := st.CreateJournal(ctx, model.Journal{
		JournalNumber:   "JR001",
		PublicationDate: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		AvailableDate:   time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC),
		Status:          model.JournalStatusError,
	})
	require.NoError(t, err)

	_, err = s.DiscoverAndFetch(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(2), reg.downloads.Load())
	journal, err := st.GetJournalByNumber(ctx, "JR001")
	require.NoError(t, err)
	assert.Equal(t, model.JournalStatusCompleted, journal.Status)
	assert.Equal(t, 2, journal.PDFCount)
}

func TestDiscoverAndFetch_ListingUnreachable(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 2 * time.Second, MaxRetries: 1})
	s := New(st, f, Options{
		ListingURL:  srv.URL + "/listing",
		DownloadDir: t.TempDir(),
	})

	_, err = s.DiscoverAndFetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch listing page")
}

func TestDiscoverAndFetch_NoPartsMarksError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<table><tbody><tr>
			<td>1</td><td>JR002</td><td>10/06/2024</td><td>12/06/2024</td>
			<td></td>
		</tr></tbody></table>`)
	}))
	defer srv.Close()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 2 * time.Second, MaxRetries: 1})
	s := New(st, f, Options{ListingURL: srv.URL, DownloadDir: t.TempDir()})

	result, err := s.DiscoverAndFetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.JournalsFound)
	assert.Equal(t, 0, result.JournalsAcquired)

	journal, err := st.GetJournalByNumber(context.Background(), "JR002")
	require.NoError(t, err)
	assert.Equal(t, model.JournalStatusError, journal.Status)
	assert.Equal(t, "no PDFs downloaded", journal.ErrorMessage)
}
