package model

import "time"

// JournalStatus represents the acquisition state of a journal issue.
type JournalStatus string

const (
	JournalStatusPending    JournalStatus = "PENDING"
	JournalStatusProcessing JournalStatus = "PROCESSING"
	JournalStatusCompleted  JournalStatus = "COMPLETED"
	JournalStatusError      JournalStatus = "ERROR"
)

// ExtractionStatus represents the extraction state of a PDF part.
type ExtractionStatus string

const (
	ExtractionStatusPending    ExtractionStatus = "PENDING"
	ExtractionStatusProcessing ExtractionStatus = "PROCESSING"
	ExtractionStatusCompleted  ExtractionStatus = "COMPLETED"
	ExtractionStatusError      ExtractionStatus = "ERROR"
)

// Journal is one published bulletin issue discovered on the registry
// listing page. A journal owns its PDF parts and the trademarks
// extracted from them.
type Journal struct {
	ID              string        `json:"id"`
	JournalNumber   string        `json:"journal_number"`
	PublicationDate time.Time     `json:"publication_date"`
	AvailableDate   time.Time     `json:"available_date"`
	ScrapedAt       time.Time     `json:"scraped_at"`
	PDFCount        int           `json:"pdf_count"`
	TotalTrademarks int           `json:"total_trademarks"`
	Status          JournalStatus `json:"status"`
	ErrorMessage    string        `json:"error_message,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// PDFFile is one downloadable part of a journal. Bulletins are split by
// class range, so one journal usually has several parts.
type PDFFile struct {
	ID               string           `json:"id"`
	JournalID        string           `json:"journal_id"`
	FileName         string           `json:"file_name"`
	FilePath         string           `json:"file_path"`
	ClassRange       string           `json:"class_range"`
	FileSizeBytes    int64            `json:"file_size_bytes"`
	SourceURL        string           `json:"source_url"`
	DownloadedAt     *time.Time       `json:"downloaded_at,omitempty"`
	ExtractionStatus ExtractionStatus `json:"extraction_status"`
	ExtractedAt      *time.Time       `json:"extracted_at,omitempty"`
	RecordsExtracted int              `json:"records_extracted"`
	ErrorMessage     string           `json:"error_message,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Trademark is one structured application record extracted from a PDF
// part. Every extracted field is best-effort and may be absent; only the
// application number, page number, and raw text are always present.
type Trademark struct {
	ID                string     `json:"id"`
	PDFFileID         string     `json:"pdf_file_id"`
	JournalID         string     `json:"journal_id"`
	ApplicationNumber string     `json:"application_number"`
	FilingDate        *time.Time `json:"filing_date,omitempty"`
	TrademarkName     string     `json:"trademark_name,omitempty"`
	ApplicantName     string     `json:"applicant_name,omitempty"`
	ApplicantAddress  string     `json:"applicant_address,omitempty"`
	ApplicantType     string     `json:"applicant_type,omitempty"`
	ClassNumber       *int       `json:"class_number,omitempty"`
	GoodsServices     string     `json:"goods_services,omitempty"`
	AttorneyAddress   string     `json:"attorney_address,omitempty"`
	UsedSince         string     `json:"used_since,omitempty"`
	AssociatedWith    string     `json:"associated_with,omitempty"`
	OfficeLocation    string     `json:"office_location,omitempty"`
	PageNumber        int        `json:"page_number"`
	RawText           string     `json:"raw_text"`
	CreatedAt         time.Time  `json:"created_at"`
}
