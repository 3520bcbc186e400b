package scraper

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/markwatch/journal-cli/internal/fetcher"
	"github.com/markwatch/journal-cli/internal/model"
	"github.com/markwatch/journal-cli/internal/store"
)

// Options configures the acquisition engine.
type Options struct {
	ListingURL      string
	DownloadDir     string
	MaxJournals     int
	DownloadTimeout time.Duration
}

// Result summarizes one acquisition pass.
type Result struct {
	Journals         []model.Journal
	JournalsFound    int
	JournalsAcquired int
	PDFsDownloaded   int
}

// Scraper discovers journal issues on the registry listing page and
// downloads their PDF parts idempotently.
type Scraper struct {
	store   store.Store
	fetcher *fetcher.HTTPFetcher
	opts    Options
}

// New creates a Scraper.
func New(st store.Store, f *fetcher.HTTPFetcher, opts Options) *Scraper {
	if opts.MaxJournals <= 0 {
		opts.MaxJournals = 2
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = 5 * time.Minute
	}
	return &Scraper{store: st, fetcher: f, opts: opts}
}

// DiscoverAndFetch loads the listing page, reconciles each leading row
// against the store, and downloads any missing PDF parts. A failure on one
// journal is recorded on that journal and does not abort the others; only
// an unreachable or unparseable listing page is fatal.
func (s *Scraper) DiscoverAndFetch(ctx context.Context) (*Result, error) {
	if err := os.MkdirAll(s.opts.DownloadDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "scraper: create download dir")
	}

	body, err := s.fetcher.Get(ctx, s.opts.ListingURL)
	if err != nil {
		return nil, eris.Wrap(err, "scraper: fetch listing page")
	}
	rows, err := ParseListing(body, s.opts.ListingURL, s.opts.MaxJournals)
	_ = body.Close()
	if err != nil {
		return nil, err
	}

	zap.L().Info("listing parsed", zap.Int("rows", len(rows)))

	result := &Result{JournalsFound: len(rows)}
	for _, row := range rows {
		journal, err := s.acquireJournal(ctx, row)
		if err != nil {
			zap.L().Error("journal acquisition failed",
				zap.String("journal", row.JournalNumber),
				zap.Error(err),
			)
			continue
		}
		result.Journals = append(result.Journals, *journal)
		if journal.PDFCount > 0 {
			result.JournalsAcquired++
			result.PDFsDownloaded += journal.PDFCount
		}
	}

	return result, nil
}

// acquireJournal reconciles one listing row. An existing journal that
// already holds parts is skipped outright; one with zero parts is retried.
func (s *Scraper) acquireJournal(ctx context.Context, row ListingRow) (*model.Journal, error) {
	journal, err := s.store.GetJournalByNumber(ctx, row.JournalNumber)
	if err != nil {
		return nil, err
	}

	if journal != nil && journal.PDFCount > 0 {
		zap.L().Info("journal already acquired, skipping",
			zap.String("journal", journal.JournalNumber),
			zap.Int("pdf_count", journal.PDFCount),
		)
		return journal, nil
	}

	if journal == nil {
		journal, err = s.store.CreateJournal(ctx, model.Journal{
			JournalNumber:   row.JournalNumber,
			PublicationDate: row.PublicationDate,
			AvailableDate:   row.AvailableDate,
			Status:          model.JournalStatusPending,
		})
		if err != nil {
			return nil, err
		}
		zap.L().Info("journal created", zap.String("journal", journal.JournalNumber))
	}

	if err := s.downloadParts(ctx, journal, row.Parts); err != nil {
		// The failure is recorded on the journal; surface it to the
		// caller's log but keep the run going.
		if uerr := s.store.UpdateJournalStatus(ctx, journal.ID, model.JournalStatusError, err.Error()); uerr != nil {
			zap.L().Error("failed to record journal error", zap.Error(uerr))
		}
		journal.Status = model.JournalStatusError
		journal.ErrorMessage = err.Error()
		return journal, nil
	}

	return journal, nil
}

func (s *Scraper) downloadParts(ctx context.Context, journal *model.Journal, parts []PartControl) error {
	if err := s.store.UpdateJournalStatus(ctx, journal.ID, model.JournalStatusProcessing, ""); err != nil {
		return err
	}
	journal.Status = model.JournalStatusProcessing

	journalDir := filepath.Join(s.opts.DownloadDir, journal.JournalNumber)
	if err := os.MkdirAll(journalDir, 0o755); err != nil {
		return eris.Wrapf(err, "scraper: create journal dir %s", journalDir)
	}

	count := 0
	for i, part := range parts {
		pdf, err := s.acquirePart(ctx, journal, journalDir, part, i)
		if err != nil {
			zap.L().Warn("part download failed",
				zap.String("journal", journal.JournalNumber),
				zap.String("file", part.FileName),
				zap.Error(err),
			)
			continue
		}
		if pdf != nil {
			count++
		}
	}

	if err := s.store.SetJournalPDFCount(ctx, journal.ID, count); err != nil {
		return err
	}
	journal.PDFCount = count

	status := model.JournalStatusCompleted
	errMsg := ""
	if count == 0 {
		status = model.JournalStatusError
		errMsg = "no PDFs downloaded"
	}
	if err := s.store.UpdateJournalStatus(ctx, journal.ID, status, errMsg); err != nil {
		return err
	}
	journal.Status = status
	journal.ErrorMessage = errMsg

	zap.L().Info("journal parts processed",
		zap.String("journal", journal.JournalNumber),
		zap.Int("pdf_count", count),
	)
	return nil
}

// acquirePart applies the three-way idempotency check for one PDF part:
// reuse an existing row whose file is still on disk, reconcile a file
// already on disk into a new row, or download.
func (s *Scraper) acquirePart(ctx context.Context, journal *model.Journal, dir string, part PartControl, index int) (*model.PDFFile, error) {
	safeName := sanitizeFileName(part.FileName)
	path := filepath.Join(dir, safeName)
	label := classRange(part.Label, index)

	existing, err := s.store.GetPDFFile(ctx, journal.ID, safeName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if fileExists(existing.FilePath) {
			zap.L().Debug("part already downloaded, skipping",
				zap.String("file", safeName),
			)
			return existing, nil
		}
		// Row exists but the file vanished: re-download into the stored
		// path rather than creating a duplicate row.
		if _, err := s.download(ctx, part, existing.FilePath); err != nil {
			return nil, err
		}
		return existing, nil
	}

	if fi, err := os.Stat(path); err == nil {
		if fi.Size() > 0 {
			zap.L().Info("file on disk without store row, reconciling",
				zap.String("file", safeName),
			)
			return s.createPartRow(ctx, journal, safeName, path, label, part.FileName, fi.Size())
		}
		// Zero-length leftovers from an interrupted download are garbage.
		if err := os.Remove(path); err != nil {
			return nil, eris.Wrapf(err, "scraper: remove corrupt file %s", path)
		}
	}

	size, err := s.download(ctx, part, path)
	if err != nil {
		return nil, err
	}
	zap.L().Info("part downloaded",
		zap.String("file", safeName),
		zap.Int64("bytes", size),
	)
	return s.createPartRow(ctx, journal, safeName, path, label, part.FileName, size)
}

func (s *Scraper) download(ctx context.Context, part PartControl, path string) (int64, error) {
	dctx, cancel := context.WithTimeout(ctx, s.opts.DownloadTimeout)
	defer cancel()

	form := url.Values{"FileName": {part.FileName}}
	return s.fetcher.PostFormToFile(dctx, part.Action, form, path)
}

func (s *Scraper) createPartRow(ctx context.Context, journal *model.Journal, name, path, label, sourceURL string, size int64) (*model.PDFFile, error) {
	now := time.Now().UTC()
	return s.store.CreatePDFFile(ctx, model.PDFFile{
		JournalID:        journal.ID,
		FileName:         name,
		FilePath:         path,
		ClassRange:       label,
		FileSizeBytes:    size,
		SourceURL:        sourceURL,
		DownloadedAt:     &now,
		ExtractionStatus: model.ExtractionStatusPending,
	})
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Size() > 0
}
