package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/markwatch/journal-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS journals (
	id               TEXT PRIMARY KEY,
	journal_number   TEXT NOT NULL UNIQUE,
	publication_date DATETIME NOT NULL,
	available_date   DATETIME NOT NULL,
	scraped_at       DATETIME NOT NULL,
	pdf_count        INTEGER NOT NULL DEFAULT 0,
	total_trademarks INTEGER NOT NULL DEFAULT 0,
	status           TEXT NOT NULL DEFAULT 'PENDING',
	error_message    TEXT,
	created_at       DATETIME NOT NULL,
	updated_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS pdf_files (
	id                TEXT PRIMARY KEY,
	journal_id        TEXT NOT NULL REFERENCES journals(id),
	file_name         TEXT NOT NULL,
	file_path         TEXT NOT NULL DEFAULT '',
	class_range       TEXT NOT NULL DEFAULT '',
	file_size_bytes   INTEGER NOT NULL DEFAULT 0,
	source_url        TEXT NOT NULL DEFAULT '',
	downloaded_at     DATETIME,
	extraction_status TEXT NOT NULL DEFAULT 'PENDING',
	extracted_at      DATETIME,
	records_extracted INTEGER NOT NULL DEFAULT 0,
	error_message     TEXT,
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL,
	UNIQUE (journal_id, file_name)
);

CREATE TABLE IF NOT EXISTS trademarks (
	id                 TEXT PRIMARY KEY,
	pdf_file_id        TEXT NOT NULL REFERENCES pdf_files(id),
	journal_id         TEXT NOT NULL REFERENCES journals(id),
	application_number TEXT NOT NULL,
	filing_date        DATETIME,
	trademark_name     TEXT NOT NULL DEFAULT '',
	applicant_name     TEXT NOT NULL DEFAULT '',
	applicant_address  TEXT NOT NULL DEFAULT '',
	applicant_type     TEXT NOT NULL DEFAULT '',
	class_number       INTEGER,
	goods_services     TEXT NOT NULL DEFAULT '',
	attorney_address   TEXT NOT NULL DEFAULT '',
	used_since         TEXT NOT NULL DEFAULT '',
	associated_with    TEXT NOT NULL DEFAULT '',
	office_location    TEXT NOT NULL DEFAULT '',
	page_number        INTEGER NOT NULL DEFAULT 0,
	raw_text           TEXT NOT NULL DEFAULT '',
	created_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS run_audits (
	id                TEXT PRIMARY KEY,
	executed_at       DATETIME NOT NULL,
	trigger_kind      TEXT NOT NULL,
	status            TEXT NOT NULL,
	journals_found    INTEGER NOT NULL DEFAULT 0,
	journals_acquired INTEGER NOT NULL DEFAULT 0,
	pdfs_downloaded   INTEGER NOT NULL DEFAULT 0,
	records_extracted INTEGER NOT NULL DEFAULT 0,
	duration_secs     INTEGER NOT NULL DEFAULT 0,
	error_message     TEXT,
	details           TEXT
);

CREATE INDEX IF NOT EXISTS idx_journals_status ON journals(status);
CREATE INDEX IF NOT EXISTS idx_journals_publication_date ON journals(publication_date);
CREATE INDEX IF NOT EXISTS idx_pdf_files_journal_id ON pdf_files(journal_id);
CREATE INDEX IF NOT EXISTS idx_pdf_files_extraction_status ON pdf_files(extraction_status);
CREATE INDEX IF NOT EXISTS idx_trademarks_journal_id ON trademarks(journal_id);
CREATE INDEX IF NOT EXISTS idx_trademarks_application_number ON trademarks(application_number);
CREATE INDEX IF NOT EXISTS idx_trademarks_class_number ON trademarks(class_number);
CREATE INDEX IF NOT EXISTS idx_run_audits_executed_at ON run_audits(executed_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Journals ---

const journalColumns = `id, journal_number, publication_date, available_date, scraped_at,
	pdf_count, total_trademarks, status, error_message, created_at, updated_at`

func (s *SQLiteStore) CreateJournal(ctx context.Context, j model.Journal) (*model.Journal, error) {
	now := time.Now().UTC()
	j.ID = uuid.New().String()
	if j.Status == "" {
		j.Status = model.JournalStatusPending
	}
	if j.ScrapedAt.IsZero() {
		j.ScrapedAt = now
	}
	j.CreatedAt = now
	j.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO journals (`+journalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.JournalNumber, j.PublicationDate, j.AvailableDate, j.ScrapedAt,
		j.PDFCount, j.TotalTrademarks, string(j.Status), nullString(j.ErrorMessage), j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert journal %s", j.JournalNumber)
	}
	return &j, nil
}

func (s *SQLiteStore) GetJournal(ctx context.Context, id string) (*model.Journal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+journalColumns+` FROM journals WHERE id = ?`, id)
	return scanJournal(row)
}

func (s *SQLiteStore) GetJournalByNumber(ctx context.Context, number string) (*model.Journal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+journalColumns+` FROM journals WHERE journal_number = ?`, number)
	return scanJournal(row)
}

func (s *SQLiteStore) ListJournals(ctx context.Context, filter JournalFilter) ([]model.Journal, int, error) {
	where := ` WHERE 1=1`
	var args []any
	if filter.Status != "" {
		where += ` AND status = ?`
		args = append(args, string(filter.Status))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM journals`+where, args...).Scan(&total); err != nil {
		return nil, 0, eris.Wrap(err, "sqlite: count journals")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}
	query := `SELECT ` + journalColumns + ` FROM journals` + where +
		` ORDER BY publication_date DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, eris.Wrap(err, "sqlite: list journals")
	}
	defer rows.Close()

	var journals []model.Journal
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, 0, err
		}
		journals = append(journals, *j)
	}
	return journals, total, eris.Wrap(rows.Err(), "sqlite: list journals iterate")
}

func (s *SQLiteStore) LatestJournals(ctx context.Context, n int) ([]model.Journal, error) {
	if n <= 0 {
		n = 5
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+journalColumns+` FROM journals ORDER BY publication_date DESC LIMIT ?`, n)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest journals")
	}
	defer rows.Close()

	var journals []model.Journal
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		journals = append(journals, *j)
	}
	return journals, eris.Wrap(rows.Err(), "sqlite: latest journals iterate")
}

func (s *SQLiteStore) UpdateJournalStatus(ctx context.Context, id string, status model.JournalStatus, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE journals SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(status), nullString(errMsg), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update journal status %s", id)
	}
	return checkRowsAffected(res, "journal", id)
}

func (s *SQLiteStore) SetJournalPDFCount(ctx context.Context, id string, count int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE journals SET pdf_count = ?, updated_at = ? WHERE id = ?`,
		count, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set journal pdf count %s", id)
	}
	return checkRowsAffected(res, "journal", id)
}

func (s *SQLiteStore) RefreshJournalTotals(ctx context.Context, id string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trademarks WHERE journal_id = ?`, id).Scan(&count)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: count trademarks for journal %s", id)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE journals SET total_trademarks = ?, updated_at = ? WHERE id = ?`,
		count, time.Now().UTC(), id,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: refresh journal totals %s", id)
	}
	return count, checkRowsAffected(res, "journal", id)
}

// --- PDF files ---

const pdfFileColumns = `id, journal_id, file_name, file_path, class_range, file_size_bytes,
	source_url, downloaded_at, extraction_status, extracted_at, records_extracted,
	error_message, created_at, updated_at`

func (s *SQLiteStore) CreatePDFFile(ctx context.Context, f model.PDFFile) (*model.PDFFile, error) {
	now := time.Now().UTC()
	f.ID = uuid.New().String()
	if f.ExtractionStatus == "" {
		f.ExtractionStatus = model.ExtractionStatusPending
	}
	f.CreatedAt = now
	f.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pdf_files (`+pdfFileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.JournalID, f.FileName, f.FilePath, f.ClassRange, f.FileSizeBytes,
		f.SourceURL, nullTime(f.DownloadedAt), string(f.ExtractionStatus), nullTime(f.ExtractedAt),
		f.RecordsExtracted, nullString(f.ErrorMessage), f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert pdf file %s", f.FileName)
	}
	return &f, nil
}

func (s *SQLiteStore) GetPDFFile(ctx context.Context, journalID, fileName string) (*model.PDFFile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+pdfFileColumns+` FROM pdf_files WHERE journal_id = ? AND file_name = ?`,
		journalID, fileName)
	return scanPDFFile(row)
}

func (s *SQLiteStore) ListPDFFiles(ctx context.Context, journalID string) ([]model.PDFFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pdfFileColumns+` FROM pdf_files WHERE journal_id = ? ORDER BY created_at`, journalID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list pdf files")
	}
	defer rows.Close()

	var files []model.PDFFile
	for rows.Next() {
		f, err := scanPDFFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, eris.Wrap(rows.Err(), "sqlite: list pdf files iterate")
}

// ClaimPendingPDFFiles marks up to limit PENDING files as PROCESSING and
// returns them. The mark happens in the same statement, so two concurrent
// extraction passes never claim the same file.
func (s *SQLiteStore) ClaimPendingPDFFiles(ctx context.Context, limit int) ([]model.PDFFile, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`UPDATE pdf_files SET extraction_status = ?, updated_at = ?
		 WHERE id IN (
			SELECT id FROM pdf_files WHERE extraction_status = ? ORDER BY created_at LIMIT ?
		 )
		 RETURNING `+pdfFileColumns,
		string(model.ExtractionStatusProcessing), time.Now().UTC(),
		string(model.ExtractionStatusPending), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: claim pending pdf files")
	}
	defer rows.Close()

	var files []model.PDFFile
	for rows.Next() {
		f, err := scanPDFFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, eris.Wrap(rows.Err(), "sqlite: claim pending iterate")
}

func (s *SQLiteStore) CompletePDFFile(ctx context.Context, id string, records int) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE pdf_files SET extraction_status = ?, extracted_at = ?, records_extracted = ?,
		 error_message = NULL, updated_at = ? WHERE id = ?`,
		string(model.ExtractionStatusCompleted), now, records, now, id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete pdf file %s", id)
	}
	return checkRowsAffected(res, "pdf file", id)
}

func (s *SQLiteStore) FailPDFFile(ctx context.Context, id string, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pdf_files SET extraction_status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(model.ExtractionStatusError), errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail pdf file %s", id)
	}
	return checkRowsAffected(res, "pdf file", id)
}

// --- Trademarks ---

const trademarkColumns = `id, pdf_file_id, journal_id, application_number, filing_date,
	trademark_name, applicant_name, applicant_address, applicant_type, class_number,
	goods_services, attorney_address, used_since, associated_with, office_location,
	page_number, raw_text, created_at`

func (s *SQLiteStore) CreateTrademark(ctx context.Context, tm model.Trademark) (*model.Trademark, error) {
	tm.ID = uuid.New().String()
	tm.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trademarks (`+trademarkColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tm.ID, tm.PDFFileID, tm.JournalID, tm.ApplicationNumber, nullTime(tm.FilingDate),
		tm.TrademarkName, tm.ApplicantName, tm.ApplicantAddress, tm.ApplicantType, nullInt(tm.ClassNumber),
		tm.GoodsServices, tm.AttorneyAddress, tm.UsedSince, tm.AssociatedWith, tm.OfficeLocation,
		tm.PageNumber, tm.RawText, tm.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert trademark %s", tm.ApplicationNumber)
	}
	return &tm, nil
}

func (s *SQLiteStore) GetTrademark(ctx context.Context, id string) (*model.Trademark, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+trademarkColumns+` FROM trademarks WHERE id = ?`, id)
	return scanTrademark(row)
}

func (s *SQLiteStore) ListTrademarks(ctx context.Context, filter TrademarkFilter) ([]model.Trademark, int, error) {
	where := ` WHERE 1=1`
	var args []any
	if filter.Search != "" {
		where += ` AND (trademark_name LIKE ? OR applicant_name LIKE ? OR application_number LIKE ? OR goods_services LIKE ?)`
		like := "%" + filter.Search + "%"
		args = append(args, like, like, like, like)
	}
	if filter.ClassNumber > 0 {
		where += ` AND class_number = ?`
		args = append(args, filter.ClassNumber)
	}
	if filter.JournalID != "" {
		where += ` AND journal_id = ?`
		args = append(args, filter.JournalID)
	}
	if filter.Applicant != "" {
		where += ` AND applicant_name LIKE ?`
		args = append(args, "%"+filter.Applicant+"%")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trademarks`+where, args...).Scan(&total); err != nil {
		return nil, 0, eris.Wrap(err, "sqlite: count trademarks")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}
	query := `SELECT ` + trademarkColumns + ` FROM trademarks` + where +
		` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, eris.Wrap(err, "sqlite: list trademarks")
	}
	defer rows.Close()

	var tms []model.Trademark
	for rows.Next() {
		tm, err := scanTrademark(rows)
		if err != nil {
			return nil, 0, err
		}
		tms = append(tms, *tm)
	}
	return tms, total, eris.Wrap(rows.Err(), "sqlite: list trademarks iterate")
}

// --- Stats ---

func (s *SQLiteStore) GetTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	row := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM journals),
		        (SELECT COUNT(*) FROM pdf_files),
		        (SELECT COUNT(*) FROM trademarks)`)
	if err := row.Scan(&t.Journals, &t.PDFFiles, &t.Trademarks); err != nil {
		return nil, eris.Wrap(err, "sqlite: totals")
	}
	return &t, nil
}

func (s *SQLiteStore) ClassDistribution(ctx context.Context) ([]BucketCount, error) {
	return s.bucketQuery(ctx,
		`SELECT CAST(class_number AS TEXT), COUNT(*) FROM trademarks
		 WHERE class_number IS NOT NULL GROUP BY class_number ORDER BY class_number`)
}

func (s *SQLiteStore) TopApplicants(ctx context.Context, n int) ([]BucketCount, error) {
	if n <= 0 {
		n = 10
	}
	return s.bucketQuery(ctx,
		`SELECT applicant_name, COUNT(*) AS c FROM trademarks
		 WHERE applicant_name != '' GROUP BY applicant_name ORDER BY c DESC LIMIT ?`, n)
}

func (s *SQLiteStore) OfficeDistribution(ctx context.Context) ([]BucketCount, error) {
	return s.bucketQuery(ctx,
		`SELECT office_location, COUNT(*) FROM trademarks
		 WHERE office_location != '' GROUP BY office_location`)
}

func (s *SQLiteStore) bucketQuery(ctx context.Context, query string, args ...any) ([]BucketCount, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: bucket query")
	}
	defer rows.Close()

	var buckets []BucketCount
	for rows.Next() {
		var b BucketCount
		if err := rows.Scan(&b.Key, &b.Count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan bucket")
		}
		buckets = append(buckets, b)
	}
	return buckets, eris.Wrap(rows.Err(), "sqlite: bucket iterate")
}

// --- Run audits ---

const auditColumns = `id, executed_at, trigger_kind, status, journals_found, journals_acquired,
	pdfs_downloaded, records_extracted, duration_secs, error_message, details`

func (s *SQLiteStore) CreateRunAudit(ctx context.Context, audit model.RunAudit) (*model.RunAudit, error) {
	audit.ID = uuid.New().String()
	if audit.ExecutedAt.IsZero() {
		audit.ExecutedAt = time.Now().UTC()
	}

	var detailsJSON sql.NullString
	if audit.Details != nil {
		raw, err := json.Marshal(audit.Details)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal audit details")
		}
		detailsJSON = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_audits (`+auditColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		audit.ID, audit.ExecutedAt, string(audit.Trigger), string(audit.Status),
		audit.JournalsFound, audit.JournalsAcquired, audit.PDFsDownloaded, audit.RecordsExtracted,
		audit.DurationSecs, nullString(audit.ErrorMessage), detailsJSON,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run audit")
	}
	return &audit, nil
}

func (s *SQLiteStore) ListRunAudits(ctx context.Context, limit int) ([]model.RunAudit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+auditColumns+` FROM run_audits ORDER BY executed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list run audits")
	}
	defer rows.Close()

	var audits []model.RunAudit
	for rows.Next() {
		a, err := scanRunAudit(rows)
		if err != nil {
			return nil, err
		}
		audits = append(audits, *a)
	}
	return audits, eris.Wrap(rows.Err(), "sqlite: list run audits iterate")
}

func (s *SQLiteStore) LatestRunAudit(ctx context.Context) (*model.RunAudit, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+auditColumns+` FROM run_audits ORDER BY executed_at DESC LIMIT 1`)
	return scanRunAudit(row)
}

// --- scan helpers ---

type scannable interface {
	Scan(dest ...any) error
}

func scanJournal(row scannable) (*model.Journal, error) {
	var j model.Journal
	var status string
	var errMsg sql.NullString

	err := row.Scan(&j.ID, &j.JournalNumber, &j.PublicationDate, &j.AvailableDate, &j.ScrapedAt,
		&j.PDFCount, &j.TotalTrademarks, &status, &errMsg, &j.CreatedAt, &j.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan journal")
	}
	j.Status = model.JournalStatus(status)
	j.ErrorMessage = errMsg.String
	return &j, nil
}

func scanPDFFile(row scannable) (*model.PDFFile, error) {
	var f model.PDFFile
	var status string
	var downloadedAt, extractedAt sql.NullTime
	var errMsg sql.NullString

	err := row.Scan(&f.ID, &f.JournalID, &f.FileName, &f.FilePath, &f.ClassRange, &f.FileSizeBytes,
		&f.SourceURL, &downloadedAt, &status, &extractedAt, &f.RecordsExtracted,
		&errMsg, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan pdf file")
	}
	f.ExtractionStatus = model.ExtractionStatus(status)
	f.ErrorMessage = errMsg.String
	if downloadedAt.Valid {
		t := downloadedAt.Time
		f.DownloadedAt = &t
	}
	if extractedAt.Valid {
		t := extractedAt.Time
		f.ExtractedAt = &t
	}
	return &f, nil
}

func scanTrademark(row scannable) (*model.Trademark, error) {
	var tm model.Trademark
	var filingDate sql.NullTime
	var classNumber sql.NullInt64

	err := row.Scan(&tm.ID, &tm.PDFFileID, &tm.JournalID, &tm.ApplicationNumber, &filingDate,
		&tm.TrademarkName, &tm.ApplicantName, &tm.ApplicantAddress, &tm.ApplicantType, &classNumber,
		&tm.GoodsServices, &tm.AttorneyAddress, &tm.UsedSince, &tm.AssociatedWith, &tm.OfficeLocation,
		&tm.PageNumber, &tm.RawText, &tm.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan trademark")
	}
	if filingDate.Valid {
		t := filingDate.Time
		tm.FilingDate = &t
	}
	if classNumber.Valid {
		n := int(classNumber.Int64)
		tm.ClassNumber = &n
	}
	return &tm, nil
}

func scanRunAudit(row scannable) (*model.RunAudit, error) {
	var a model.RunAudit
	var trigger, status string
	var errMsg, detailsJSON sql.NullString

	err := row.Scan(&a.ID, &a.ExecutedAt, &trigger, &status, &a.JournalsFound, &a.JournalsAcquired,
		&a.PDFsDownloaded, &a.RecordsExtracted, &a.DurationSecs, &errMsg, &detailsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run audit")
	}
	a.Trigger = model.TriggerKind(trigger)
	a.Status = model.RunStatus(status)
	a.ErrorMessage = errMsg.String
	if detailsJSON.Valid {
		if err := json.Unmarshal([]byte(detailsJSON.String), &a.Details); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal audit details")
		}
	}
	return &a, nil
}

// --- value helpers ---

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
