package pipeline

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markwatch/journal-cli/internal/model"
	"github.com/markwatch/journal-cli/internal/scraper"
	"github.com/markwatch/journal-cli/internal/store"
)

const twoRecordText = `5012345 15/03/2021
SUNRISE GLOW
SUNRISE TEXTILES PRIVATE LIMITED
45, M G MARG, KANPUR
5012346 16/03/2021
MOONBEAM
MOONBEAM FOODS LLP
7 RING ROAD, PUNE
`

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// fakeAcquirer seeds the store the way a real acquisition pass would and
// reports matching counts.
type fakeAcquirer struct {
	store store.Store
	parts []string // file "paths"; extraction is faked so no disk content is needed
	err   error

	// block, when set, holds DiscoverAndFetch until released; started is
	// signalled when the blocked call is entered.
	block   chan struct{}
	started sync.Once
	enter   chan struct{}
}

func (f *fakeAcquirer) DiscoverAndFetch(ctx context.Context) (*scraper.Result, error) {
	if f.enter != nil {
		f.started.Do(func() { close(f.enter) })
	}
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}

	journal, err := f.store.CreateJournal(ctx, model.Journal{
		JournalNumber:   "JR001",
		PublicationDate: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		AvailableDate:   time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC),
		Status:          model.JournalStatusCompleted,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for i, path := range f.parts {
		_, err := f.store.CreatePDFFile(ctx, model.PDFFile{
			JournalID:     journal.ID,
			FileName:      filepath.Base(path),
			FilePath:      path,
			ClassRange:    "Part-" + string(rune('1'+i)),
			FileSizeBytes: 1024,
			DownloadedAt:  &now,
		})
		if err != nil {
			return nil, err
		}
	}
	if err := f.store.SetJournalPDFCount(ctx, journal.ID, len(f.parts)); err != nil {
		return nil, err
	}
	journal.PDFCount = len(f.parts)

	return &scraper.Result{
		Journals:         []model.Journal{*journal},
		JournalsFound:    1,
		JournalsAcquired: 1,
		PDFsDownloaded:   len(f.parts),
	}, nil
}

// fakeExtractor maps PDF path to canned text or an error.
type fakeExtractor struct {
	texts map[string]string
	errs  map[string]error
}

func (f *fakeExtractor) ExtractText(_ context.Context, path string) (string, error) {
	if err, ok := f.errs[path]; ok {
		return "", err
	}
	return f.texts[path], nil
}

func TestRun_FullScenario(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	acq := &fakeAcquirer{store: st, parts: []string{"/pdfs/part1.pdf", "/pdfs/part2.pdf"}}
	ext := &fakeExtractor{texts: map[string]string{
		"/pdfs/part1.pdf": twoRecordText,
		"/pdfs/part2.pdf": "5099999 01/02/2022\nSTARLIGHT\nSTARLIGHT TRADERS\n",
	}}

	p := New(st, acq, ext, nil)
	audit, err := p.Run(ctx, model.TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusSuccess, audit.Status)
	assert.Equal(t, model.TriggerManual, audit.Trigger)
	assert.Equal(t, 1, audit.JournalsFound)
	assert.Equal(t, 1, audit.JournalsAcquired)
	assert.Equal(t, 2, audit.PDFsDownloaded)
	assert.Equal(t, 3, audit.RecordsExtracted)

	journal, err := st.GetJournalByNumber(ctx, "JR001")
	require.NoError(t, err)
	assert.Equal(t, model.JournalStatusCompleted, journal.Status)
	assert.Equal(t, 2, journal.PDFCount)
	assert.Equal(t, 3, journal.TotalTrademarks)

	files, err := st.ListPDFFiles(ctx, journal.ID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, f := range files {
		assert.Equal(t, model.ExtractionStatusCompleted, f.ExtractionStatus)
	}
	assert.Equal(t, 2, files[0].RecordsExtracted)
	assert.Equal(t, 1, files[1].RecordsExtracted)

	// The audit row is persisted.
	latest, err := st.LatestRunAudit(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, audit.ID, latest.ID)
	assert.Equal(t, []any{"JR001"}, latest.Details["journals"])
}

func TestRun_ExtractionErrorIsolated(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	acq := &fakeAcquirer{store: st, parts: []string{"/pdfs/a.pdf", "/pdfs/b.pdf", "/pdfs/c.pdf"}}
	ext := &fakeExtractor{
		texts: map[string]string{
			"/pdfs/a.pdf": twoRecordText,
			"/pdfs/c.pdf": twoRecordText,
		},
		errs: map[string]error{
			"/pdfs/b.pdf": eris.New("ocr: pdftotext failed"),
		},
	}

	p := New(st, acq, ext, nil)
	audit, err := p.Run(ctx, model.TriggerScheduled)
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusPartial, audit.Status)
	assert.Equal(t, 4, audit.RecordsExtracted)

	journal, err := st.GetJournalByNumber(ctx, "JR001")
	require.NoError(t, err)
	files, err := st.ListPDFFiles(ctx, journal.ID)
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, model.ExtractionStatusCompleted, files[0].ExtractionStatus)
	assert.Equal(t, model.ExtractionStatusError, files[1].ExtractionStatus)
	assert.Contains(t, files[1].ErrorMessage, "pdftotext failed")
	assert.Equal(t, model.ExtractionStatusCompleted, files[2].ExtractionStatus)
}

func TestRun_EmptyDocumentCompletes(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	acq := &fakeAcquirer{store: st, parts: []string{"/pdfs/empty.pdf"}}
	ext := &fakeExtractor{texts: map[string]string{"/pdfs/empty.pdf": "no boundaries in this text\n"}}

	p := New(st, acq, ext, nil)
	audit, err := p.Run(ctx, model.TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusSuccess, audit.Status)
	assert.Equal(t, 0, audit.RecordsExtracted)

	journal, err := st.GetJournalByNumber(ctx, "JR001")
	require.NoError(t, err)
	files, err := st.ListPDFFiles(ctx, journal.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, model.ExtractionStatusCompleted, files[0].ExtractionStatus)
	assert.Equal(t, 0, files[0].RecordsExtracted)
}

func TestRun_AcquisitionFailurePersistsAudit(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	acq := &fakeAcquirer{store: st, err: eris.New("scraper: fetch listing page: connection refused")}
	p := New(st, acq, &fakeExtractor{}, nil)

	audit, err := p.Run(ctx, model.TriggerScheduled)
	require.Error(t, err)
	require.NotNil(t, audit)
	assert.Equal(t, model.RunStatusFailure, audit.Status)
	assert.Contains(t, audit.ErrorMessage, "connection refused")

	latest, lerr := st.LatestRunAudit(ctx)
	require.NoError(t, lerr)
	require.NotNil(t, latest)
	assert.Equal(t, model.RunStatusFailure, latest.Status)
	assert.Equal(t, model.TriggerScheduled, latest.Trigger)
}

func TestExtractPending_Standalone(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// Seed pending files without going through acquisition.
	acq := &fakeAcquirer{store: st, parts: []string{"/pdfs/part1.pdf"}}
	_, err := acq.DiscoverAndFetch(ctx)
	require.NoError(t, err)

	ext := &fakeExtractor{texts: map[string]string{"/pdfs/part1.pdf": twoRecordText}}
	p := New(st, acq, ext, nil)

	summary, err := p.ExtractPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 2, summary.Records)
	assert.Equal(t, 0, summary.Errors)

	journal, err := st.GetJournalByNumber(ctx, "JR001")
	require.NoError(t, err)
	assert.Equal(t, 2, journal.TotalTrademarks)

	// Nothing left to claim on a second pass.
	summary, err = p.ExtractPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total)
}

func TestRun_SingleSlotGuard(t *testing.T) {
	st := newTestStore(t)

	acq := &fakeAcquirer{store: st, block: make(chan struct{}), enter: make(chan struct{})}
	p := New(st, acq, &fakeExtractor{}, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = p.Run(context.Background(), model.TriggerManual)
	}()

	// Wait for the first run to hold the slot, then a second trigger is
	// rejected immediately.
	<-acq.enter
	_, err := p.Run(context.Background(), model.TriggerManual)
	require.ErrorIs(t, err, ErrRunActive)

	close(acq.block)
	wg.Wait()

	// Slot is free again after the run finishes.
	_, err = p.Run(context.Background(), model.TriggerManual)
	assert.NotErrorIs(t, err, ErrRunActive)
}
