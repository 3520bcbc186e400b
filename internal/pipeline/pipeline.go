package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/markwatch/journal-cli/internal/extract"
	"github.com/markwatch/journal-cli/internal/model"
	"github.com/markwatch/journal-cli/internal/ocr"
	"github.com/markwatch/journal-cli/internal/scraper"
	"github.com/markwatch/journal-cli/internal/store"
)

// ErrRunActive is returned when a run is requested while another is in
// progress. Acquisition shares one download directory, so runs never
// overlap.
var ErrRunActive = eris.New("pipeline: a run is already active")

// Acquirer discovers and downloads journal PDFs.
type Acquirer interface {
	DiscoverAndFetch(ctx context.Context) (*scraper.Result, error)
}

// Pipeline sequences acquisition and extraction and writes one audit
// entry per run.
type Pipeline struct {
	store     store.Store
	acquirer  Acquirer
	extractor ocr.Extractor
	parser    *extract.Parser
	runSlot   *semaphore.Weighted
	running   atomic.Bool
}

// New creates a Pipeline.
func New(st store.Store, acq Acquirer, ext ocr.Extractor, parser *extract.Parser) *Pipeline {
	if parser == nil {
		parser = extract.NewParser(nil)
	}
	return &Pipeline{
		store:     st,
		acquirer:  acq,
		extractor: ext,
		parser:    parser,
		runSlot:   semaphore.NewWeighted(1),
	}
}

// Running reports whether a pipeline run is currently in progress.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// Run executes one full pipeline pass: acquisition, then extraction of
// every pending PDF. Exactly one audit entry is persisted no matter how
// the run ends. A concurrent invocation returns ErrRunActive immediately.
func (p *Pipeline) Run(ctx context.Context, trigger model.TriggerKind) (*model.RunAudit, error) {
	if !p.runSlot.TryAcquire(1) {
		return nil, ErrRunActive
	}
	p.running.Store(true)
	defer func() {
		p.running.Store(false)
		p.runSlot.Release(1)
	}()

	start := time.Now()
	audit := model.RunAudit{
		ExecutedAt: start.UTC(),
		Trigger:    trigger,
		Status:     model.RunStatusSuccess,
	}
	details := map[string]any{}

	zap.L().Info("pipeline run started", zap.String("trigger", string(trigger)))

	var fatal error
	result, err := p.acquirer.DiscoverAndFetch(ctx)
	if err != nil {
		fatal = err
		audit.Status = model.RunStatusFailure
		audit.ErrorMessage = err.Error()
		zap.L().Error("acquisition failed", zap.Error(err))
	} else {
		audit.JournalsFound = result.JournalsFound
		audit.JournalsAcquired = result.JournalsAcquired
		audit.PDFsDownloaded = result.PDFsDownloaded

		numbers := make([]string, 0, len(result.Journals))
		for _, j := range result.Journals {
			numbers = append(numbers, j.JournalNumber)
		}
		details["journals"] = numbers

		stats := p.extractPending(ctx)
		audit.RecordsExtracted = stats.records
		if stats.errors > 0 {
			audit.Status = model.RunStatusPartial
		}
		details["extraction"] = map[string]any{
			"pdfs_total":     stats.total,
			"pdfs_processed": stats.processed,
			"records":        stats.records,
			"errors":         stats.errors,
		}

		p.refreshTotals(ctx, stats.journalIDs)
	}

	audit.DurationSecs = int(time.Since(start).Seconds())
	audit.Details = details

	saved, err := p.store.CreateRunAudit(ctx, audit)
	if err != nil {
		zap.L().Error("failed to persist run audit", zap.Error(err))
		return &audit, eris.Wrap(err, "pipeline: persist audit")
	}

	zap.L().Info("pipeline run finished",
		zap.String("status", string(saved.Status)),
		zap.Int("journals_found", saved.JournalsFound),
		zap.Int("pdfs_downloaded", saved.PDFsDownloaded),
		zap.Int("records_extracted", saved.RecordsExtracted),
		zap.Int("duration_secs", saved.DurationSecs),
	)
	return saved, fatal
}

// ExtractionSummary reports one extraction-only pass.
type ExtractionSummary struct {
	Total     int `json:"pdfs_total"`
	Processed int `json:"pdfs_processed"`
	Records   int `json:"records"`
	Errors    int `json:"errors"`
}

// ExtractPending processes every pending PDF without running
// acquisition. It takes the same run slot as Run, so it cannot overlap
// a full pipeline pass.
func (p *Pipeline) ExtractPending(ctx context.Context) (*ExtractionSummary, error) {
	if !p.runSlot.TryAcquire(1) {
		return nil, ErrRunActive
	}
	p.running.Store(true)
	defer func() {
		p.running.Store(false)
		p.runSlot.Release(1)
	}()

	stats := p.extractPending(ctx)
	p.refreshTotals(ctx, stats.journalIDs)

	return &ExtractionSummary{
		Total:     stats.total,
		Processed: stats.processed,
		Records:   stats.records,
		Errors:    stats.errors,
	}, nil
}

type extractionStats struct {
	total      int
	processed  int
	records    int
	errors     int
	journalIDs map[string]struct{}
}

// extractPending claims every PENDING PDF and parses it. The claim marks
// files PROCESSING atomically, so a concurrent extraction pass cannot pick
// up the same file. One bad file never aborts the batch.
func (p *Pipeline) extractPending(ctx context.Context) extractionStats {
	stats := extractionStats{journalIDs: map[string]struct{}{}}

	files, err := p.store.ClaimPendingPDFFiles(ctx, 0)
	if err != nil {
		zap.L().Error("failed to claim pending PDFs", zap.Error(err))
		stats.errors++
		return stats
	}
	stats.total = len(files)

	for _, file := range files {
		stats.journalIDs[file.JournalID] = struct{}{}

		count, err := p.extractOne(ctx, file)
		if err != nil {
			stats.errors++
			zap.L().Error("extraction failed",
				zap.String("file", file.FileName),
				zap.Error(err),
			)
			if ferr := p.store.FailPDFFile(ctx, file.ID, err.Error()); ferr != nil {
				zap.L().Error("failed to mark PDF error", zap.Error(ferr))
			}
			continue
		}
		stats.processed++
		stats.records += count
	}

	return stats
}

// extractOne parses one PDF's text into records and persists them. A
// record that fails to persist is skipped; the rest of the file's records
// still land.
func (p *Pipeline) extractOne(ctx context.Context, file model.PDFFile) (int, error) {
	text, err := p.extractor.ExtractText(ctx, file.FilePath)
	if err != nil {
		return 0, err
	}

	records := p.parser.Parse(text)
	persisted := 0
	for _, rec := range records {
		rec.PDFFileID = file.ID
		rec.JournalID = file.JournalID
		if _, err := p.store.CreateTrademark(ctx, rec); err != nil {
			zap.L().Warn("skipping unpersistable record",
				zap.String("application_number", rec.ApplicationNumber),
				zap.Error(err),
			)
			continue
		}
		persisted++
	}

	if err := p.store.CompletePDFFile(ctx, file.ID, persisted); err != nil {
		return persisted, err
	}

	zap.L().Info("pdf extracted",
		zap.String("file", file.FileName),
		zap.Int("records", persisted),
	)
	return persisted, nil
}

func (p *Pipeline) refreshTotals(ctx context.Context, journalIDs map[string]struct{}) {
	for id := range journalIDs {
		if _, err := p.store.RefreshJournalTotals(ctx, id); err != nil {
			zap.L().Error("failed to refresh journal totals",
				zap.String("journal_id", id),
				zap.Error(err),
			)
		}
	}
}
