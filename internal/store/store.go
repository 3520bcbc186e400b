package store

import (
	"context"

	"github.com/markwatch/journal-cli/internal/model"
)

// JournalFilter specifies criteria for listing journals.
type JournalFilter struct {
	Status model.JournalStatus `json:"status,omitempty"`
	Page   int                 `json:"page,omitempty"`
	Limit  int                 `json:"limit,omitempty"`
}

// TrademarkFilter specifies criteria for listing trademarks.
type TrademarkFilter struct {
	Search      string `json:"search,omitempty"`
	ClassNumber int    `json:"class_number,omitempty"`
	JournalID   string `json:"journal_id,omitempty"`
	Applicant   string `json:"applicant,omitempty"`
	Page        int    `json:"page,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

// BucketCount is one group-by bucket in the stats queries.
type BucketCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Totals holds the top-level entity counts.
type Totals struct {
	Journals   int `json:"journals"`
	PDFFiles   int `json:"pdf_files"`
	Trademarks int `json:"trademarks"`
}

// Store defines the persistence interface for the ingestion pipeline.
// Lookup methods return (nil, nil) when the entity does not exist.
type Store interface {
	// Journals
	CreateJournal(ctx context.Context, j model.Journal) (*model.Journal, error)
	GetJournal(ctx context.Context, id string) (*model.Journal, error)
	GetJournalByNumber(ctx context.Context, number string) (*model.Journal, error)
	ListJournals(ctx context.Context, filter JournalFilter) ([]model.Journal, int, error)
	LatestJournals(ctx context.Context, n int) ([]model.Journal, error)
	UpdateJournalStatus(ctx context.Context, id string, status model.JournalStatus, errMsg string) error
	SetJournalPDFCount(ctx context.Context, id string, count int) error
	RefreshJournalTotals(ctx context.Context, id string) (int, error)

	// PDF files
	CreatePDFFile(ctx context.Context, f model.PDFFile) (*model.PDFFile, error)
	GetPDFFile(ctx context.Context, journalID, fileName string) (*model.PDFFile, error)
	ListPDFFiles(ctx context.Context, journalID string) ([]model.PDFFile, error)
	ClaimPendingPDFFiles(ctx context.Context, limit int) ([]model.PDFFile, error)
	CompletePDFFile(ctx context.Context, id string, records int) error
	FailPDFFile(ctx context.Context, id string, errMsg string) error

	// Trademarks
	CreateTrademark(ctx context.Context, tm model.Trademark) (*model.Trademark, error)
	GetTrademark(ctx context.Context, id string) (*model.Trademark, error)
	ListTrademarks(ctx context.Context, filter TrademarkFilter) ([]model.Trademark, int, error)

	// Stats
	GetTotals(ctx context.Context) (*Totals, error)
	ClassDistribution(ctx context.Context) ([]BucketCount, error)
	TopApplicants(ctx context.Context, n int) ([]BucketCount, error)
	OfficeDistribution(ctx context.Context) ([]BucketCount, error)

	// Run audits
	CreateRunAudit(ctx context.Context, audit model.RunAudit) (*model.RunAudit, error)
	ListRunAudits(ctx context.Context, limit int) ([]model.RunAudit, error)
	LatestRunAudit(ctx context.Context) (*model.RunAudit, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
