package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/markwatch/journal-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs; pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hottest store operations.
var preparedStatements = map[string]string{
	"get_journal_by_number": `SELECT ` + journalColumns + ` FROM journals WHERE journal_number = $1`,
	"get_pdf_file":          `SELECT ` + pdfFileColumns + ` FROM pdf_files WHERE journal_id = $1 AND file_name = $2`,
	"insert_trademark": `INSERT INTO trademarks (` + trademarkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS journals (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	journal_number   TEXT NOT NULL UNIQUE,
	publication_date TIMESTAMPTZ NOT NULL,
	available_date   TIMESTAMPTZ NOT NULL,
	scraped_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	pdf_count        INTEGER NOT NULL DEFAULT 0,
	total_trademarks INTEGER NOT NULL DEFAULT 0,
	status           TEXT NOT NULL DEFAULT 'PENDING',
	error_message    TEXT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS pdf_files (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	journal_id        TEXT NOT NULL REFERENCES journals(id),
	file_name         TEXT NOT NULL,
	file_path         TEXT NOT NULL DEFAULT '',
	class_range       TEXT NOT NULL DEFAULT '',
	file_size_bytes   BIGINT NOT NULL DEFAULT 0,
	source_url        TEXT NOT NULL DEFAULT '',
	downloaded_at     TIMESTAMPTZ,
	extraction_status TEXT NOT NULL DEFAULT 'PENDING',
	extracted_at      TIMESTAMPTZ,
	records_extracted INTEGER NOT NULL DEFAULT 0,
	error_message     TEXT,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (journal_id, file_name)
);

CREATE TABLE IF NOT EXISTS trademarks (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	pdf_file_id        TEXT NOT NULL REFERENCES pdf_files(id),
	journal_id         TEXT NOT NULL REFERENCES journals(id),
	application_number TEXT NOT NULL,
	filing_date        TIMESTAMPTZ,
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
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_audits (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	executed_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	trigger_kind      TEXT NOT NULL,
	status            TEXT NOT NULL,
	journals_found    INTEGER NOT NULL DEFAULT 0,
	journals_acquired INTEGER NOT NULL DEFAULT 0,
	pdfs_downloaded   INTEGER NOT NULL DEFAULT 0,
	records_extracted INTEGER NOT NULL DEFAULT 0,
	duration_secs     INTEGER NOT NULL DEFAULT 0,
	error_message     TEXT,
	details           JSONB
);

CREATE INDEX IF NOT EXISTS idx_journals_status ON journals(status);
CREATE INDEX IF NOT EXISTS idx_journals_publication_date ON journals(publication_date DESC);
CREATE INDEX IF NOT EXISTS idx_pdf_files_journal_id ON pdf_files(journal_id);
CREATE INDEX IF NOT EXISTS idx_pdf_files_extraction_status ON pdf_files(extraction_status);
CREATE INDEX IF NOT EXISTS idx_trademarks_journal_id ON trademarks(journal_id);
CREATE INDEX IF NOT EXISTS idx_trademarks_application_number ON trademarks(application_number);
CREATE INDEX IF NOT EXISTS idx_trademarks_class_number ON trademarks(class_number);
CREATE INDEX IF NOT EXISTS idx_run_audits_executed_at ON run_audits(executed_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// --- Journals ---

func (s *PostgresStore) CreateJournal(ctx context.Context, j model.Journal) (*model.Journal, error) {
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

	_, err := s.pool.Exec(ctx,
		`INSERT INTO journals (`+journalColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		j.ID, j.JournalNumber, j.PublicationDate, j.AvailableDate, j.ScrapedAt,
		j.PDFCount, j.TotalTrademarks, string(j.Status), nullString(j.ErrorMessage), j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert journal %s", j.JournalNumber)
	}
	return &j, nil
}

func (s *PostgresStore) GetJournal(ctx context.Context, id string) (*model.Journal, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+journalColumns+` FROM journals WHERE id = $1`, id)
	return scanJournalPgx(row)
}

func (s *PostgresStore) GetJournalByNumber(ctx context.Context, number string) (*model.Journal, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+journalColumns+` FROM journals WHERE journal_number = $1`, number)
	return scanJournalPgx(row)
}

func (s *PostgresStore) ListJournals(ctx context.Context, filter JournalFilter) ([]model.Journal, int, error) {
	where := ` WHERE 1=1`
	var args []any
	if filter.Status != "" {
		where += ` AND status = $1`
		args = append(args, string(filter.Status))
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM journals`+where, args...).Scan(&total); err != nil {
		return nil, 0, eris.Wrap(err, "postgres: count journals")
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
		` ORDER BY publication_date DESC LIMIT ` + placeholder(len(args)+1) +
		` OFFSET ` + placeholder(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, eris.Wrap(err, "postgres: list journals")
	}
	defer rows.Close()

	var journals []model.Journal
	for rows.Next() {
		j, err := scanJournalPgx(rows)
		if err != nil {
			return nil, 0, err
		}
		journals = append(journals, *j)
	}
	return journals, total, eris.Wrap(rows.Err(), "postgres: list journals iterate")
}

func (s *PostgresStore) LatestJournals(ctx context.Context, n int) ([]model.Journal, error) {
	if n <= 0 {
		n = 5
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+journalColumns+` FROM journals ORDER BY publication_date DESC LIMIT $1`, n)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest journals")
	}
	defer rows.Close()

	var journals []model.Journal
	for rows.Next() {
		j, err := scanJournalPgx(rows)
		if err != nil {
			return nil, err
		}
		journals = append(journals, *j)
	}
	return journals, eris.Wrap(rows.Err(), "postgres: latest journals iterate")
}

func (s *PostgresStore) UpdateJournalStatus(ctx context.Context, id string, status model.JournalStatus, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE journals SET status = $1, error_message = $2, updated_at = $3 WHERE id = $4`,
		string(status), nullString(errMsg), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update journal status %s", id)
	}
	return checkTagAffected(tag, "journal", id)
}

func (s *PostgresStore) SetJournalPDFCount(ctx context.Context, id string, count int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE journals SET pdf_count = $1, updated_at = $2 WHERE id = $3`,
		count, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set journal pdf count %s", id)
	}
	return checkTagAffected(tag, "journal", id)
}

func (s *PostgresStore) RefreshJournalTotals(ctx context.Context, id string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`UPDATE journals SET total_trademarks = sub.c, updated_at = now()
		 FROM (SELECT COUNT(*) AS c FROM trademarks WHERE journal_id = $1) sub
		 WHERE id = $1 RETURNING total_trademarks`, id).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, eris.Errorf("journal not found: %s", id)
	}
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: refresh journal totals %s", id)
	}
	return count, nil
}

// --- PDF files ---

func (s *PostgresStore) CreatePDFFile(ctx context.Context, f model.PDFFile) (*model.PDFFile, error) {
	now := time.Now().UTC()
	f.ID = uuid.New().String()
	if f.ExtractionStatus == "" {
		f.ExtractionStatus = model.ExtractionStatusPending
	}
	f.CreatedAt = now
	f.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO pdf_files (`+pdfFileColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		f.ID, f.JournalID, f.FileName, f.FilePath, f.ClassRange, f.FileSizeBytes,
		f.SourceURL, nullTime(f.DownloadedAt), string(f.ExtractionStatus), nullTime(f.ExtractedAt),
		f.RecordsExtracted, nullString(f.ErrorMessage), f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert pdf file %s", f.FileName)
	}
	return &f, nil
}

func (s *PostgresStore) GetPDFFile(ctx context.Context, journalID, fileName string) (*model.PDFFile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pdfFileColumns+` FROM pdf_files WHERE journal_id = $1 AND file_name = $2`,
		journalID, fileName)
	return scanPDFFilePgx(row)
}

func (s *PostgresStore) ListPDFFiles(ctx context.Context, journalID string) ([]model.PDFFile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pdfFileColumns+` FROM pdf_files WHERE journal_id = $1 ORDER BY created_at`, journalID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list pdf files")
	}
	defer rows.Close()

	var files []model.PDFFile
	for rows.Next() {
		f, err := scanPDFFilePgx(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, eris.Wrap(rows.Err(), "postgres: list pdf files iterate")
}

// ClaimPendingPDFFiles marks up to limit PENDING files as PROCESSING and
// returns them. FOR UPDATE SKIP LOCKED keeps concurrent claimers from
// taking the same rows.
func (s *PostgresStore) ClaimPendingPDFFiles(ctx context.Context, limit int) ([]model.PDFFile, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`UPDATE pdf_files SET extraction_status = $1, updated_at = now()
		 WHERE id IN (
			SELECT id FROM pdf_files WHERE extraction_status = $2
			ORDER BY created_at LIMIT $3
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING `+pdfFileColumns,
		string(model.ExtractionStatusProcessing), string(model.ExtractionStatusPending), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: claim pending pdf files")
	}
	defer rows.Close()

	var files []model.PDFFile
	for rows.Next() {
		f, err := scanPDFFilePgx(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, eris.Wrap(rows.Err(), "postgres: claim pending iterate")
}

func (s *PostgresStore) CompletePDFFile(ctx context.Context, id string, records int) error {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE pdf_files SET extraction_status = $1, extracted_at = $2, records_extracted = $3,
		 error_message = NULL, updated_at = $4 WHERE id = $5`,
		string(model.ExtractionStatusCompleted), now, records, now, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete pdf file %s", id)
	}
	return checkTagAffected(tag, "pdf file", id)
}

func (s *PostgresStore) FailPDFFile(ctx context.Context, id string, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE pdf_files SET extraction_status = $1, error_message = $2, updated_at = $3 WHERE id = $4`,
		string(model.ExtractionStatusError), errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail pdf file %s", id)
	}
	return checkTagAffected(tag, "pdf file", id)
}

// --- Trademarks ---

func (s *PostgresStore) CreateTrademark(ctx context.Context, tm model.Trademark) (*model.Trademark, error) {
	tm.ID = uuid.New().String()
	tm.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO trademarks (`+trademarkColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		tm.ID, tm.PDFFileID, tm.JournalID, tm.ApplicationNumber, nullTime(tm.FilingDate),
		tm.TrademarkName, tm.ApplicantName, tm.ApplicantAddress, tm.ApplicantType, nullInt(tm.ClassNumber),
		tm.GoodsServices, tm.AttorneyAddress, tm.UsedSince, tm.AssociatedWith, tm.OfficeLocation,
		tm.PageNumber, tm.RawText, tm.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert trademark %s", tm.ApplicationNumber)
	}
	return &tm, nil
}

func (s *PostgresStore) GetTrademark(ctx context.Context, id string) (*model.Trademark, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+trademarkColumns+` FROM trademarks WHERE id = $1`, id)
	return scanTrademarkPgx(row)
}

func (s *PostgresStore) ListTrademarks(ctx context.Context, filter TrademarkFilter) ([]model.Trademark, int, error) {
	where := ` WHERE 1=1`
	var args []any
	next := func() string { return placeholder(len(args) + 1) }

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		p := next()
		where += ` AND (trademark_name ILIKE ` + p + ` OR applicant_name ILIKE ` + p +
			` OR application_number ILIKE ` + p + ` OR goods_services ILIKE ` + p + `)`
		args = append(args, like)
	}
	if filter.ClassNumber > 0 {
		where += ` AND class_number = ` + next()
		args = append(args, filter.ClassNumber)
	}
	if filter.JournalID != "" {
		where += ` AND journal_id = ` + next()
		args = append(args, filter.JournalID)
	}
	if filter.Applicant != "" {
		where += ` AND applicant_name ILIKE ` + next()
		args = append(args, "%"+filter.Applicant+"%")
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM trademarks`+where, args...).Scan(&total); err != nil {
		return nil, 0, eris.Wrap(err, "postgres: count trademarks")
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
		` ORDER BY created_at DESC LIMIT ` + placeholder(len(args)+1) +
		` OFFSET ` + placeholder(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, eris.Wrap(err, "postgres: list trademarks")
	}
	defer rows.Close()

	var tms []model.Trademark
	for rows.Next() {
		tm, err := scanTrademarkPgx(rows)
		if err != nil {
			return nil, 0, err
		}
		tms = append(tms, *tm)
	}
	return tms, total, eris.Wrap(rows.Err(), "postgres: list trademarks iterate")
}

// --- Stats ---

func (s *PostgresStore) GetTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	row := s.pool.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM journals),
		        (SELECT COUNT(*) FROM pdf_files),
		        (SELECT COUNT(*) FROM trademarks)`)
	if err := row.Scan(&t.Journals, &t.PDFFiles, &t.Trademarks); err != nil {
		return nil, eris.Wrap(err, "postgres: totals")
	}
	return &t, nil
}

func (s *PostgresStore) ClassDistribution(ctx context.Context) ([]BucketCount, error) {
	return s.bucketQuery(ctx,
		`SELECT class_number::text, COUNT(*) FROM trademarks
		 WHERE class_number IS NOT NULL GROUP BY class_number ORDER BY class_number`)
}

func (s *PostgresStore) TopApplicants(ctx context.Context, n int) ([]BucketCount, error) {
	if n <= 0 {
		n = 10
	}
	return s.bucketQuery(ctx,
		`SELECT applicant_name, COUNT(*) AS c FROM trademarks
		 WHERE applicant_name != '' GROUP BY applicant_name ORDER BY c DESC LIMIT $1`, n)
}

func (s *PostgresStore) OfficeDistribution(ctx context.Context) ([]BucketCount, error) {
	return s.bucketQuery(ctx,
		`SELECT office_location, COUNT(*) FROM trademarks
		 WHERE office_location != '' GROUP BY office_location`)
}

func (s *PostgresStore) bucketQuery(ctx context.Context, query string, args ...any) ([]BucketCount, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: bucket query")
	}
	defer rows.Close()

	var buckets []BucketCount
	for rows.Next() {
		var b BucketCount
		if err := rows.Scan(&b.Key, &b.Count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan bucket")
		}
		buckets = append(buckets, b)
	}
	return buckets, eris.Wrap(rows.Err(), "postgres: bucket iterate")
}

// --- Run audits ---

func (s *PostgresStore) CreateRunAudit(ctx context.Context, audit model.RunAudit) (*model.RunAudit, error) {
	audit.ID = uuid.New().String()
	if audit.ExecutedAt.IsZero() {
		audit.ExecutedAt = time.Now().UTC()
	}

	var detailsJSON []byte
	if audit.Details != nil {
		raw, err := json.Marshal(audit.Details)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal audit details")
		}
		detailsJSON = raw
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO run_audits (`+auditColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		audit.ID, audit.ExecutedAt, string(audit.Trigger), string(audit.Status),
		audit.JournalsFound, audit.JournalsAcquired, audit.PDFsDownloaded, audit.RecordsExtracted,
		audit.DurationSecs, nullString(audit.ErrorMessage), detailsJSON,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run audit")
	}
	return &audit, nil
}

func (s *PostgresStore) ListRunAudits(ctx context.Context, limit int) ([]model.RunAudit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+auditColumns+` FROM run_audits ORDER BY executed_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list run audits")
	}
	defer rows.Close()

	var audits []model.RunAudit
	for rows.Next() {
		a, err := scanRunAuditPgx(rows)
		if err != nil {
			return nil, err
		}
		audits = append(audits, *a)
	}
	return audits, eris.Wrap(rows.Err(), "postgres: list run audits iterate")
}

func (s *PostgresStore) LatestRunAudit(ctx context.Context) (*model.RunAudit, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+auditColumns+` FROM run_audits ORDER BY executed_at DESC LIMIT 1`)
	return scanRunAuditPgx(row)
}

// --- scan helpers ---

func scanJournalPgx(row pgx.Row) (*model.Journal, error) {
	var j model.Journal
	var status string
	var errMsg sql.NullString

	err := row.Scan(&j.ID, &j.JournalNumber, &j.PublicationDate, &j.AvailableDate, &j.ScrapedAt,
		&j.PDFCount, &j.TotalTrademarks, &status, &errMsg, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan journal")
	}
	j.Status = model.JournalStatus(status)
	j.ErrorMessage = errMsg.String
	return &j, nil
}

func scanPDFFilePgx(row pgx.Row) (*model.PDFFile, error) {
	var f model.PDFFile
	var status string
	var downloadedAt, extractedAt sql.NullTime
	var errMsg sql.NullString

	err := row.Scan(&f.ID, &f.JournalID, &f.FileName, &f.FilePath, &f.ClassRange, &f.FileSizeBytes,
		&f.SourceURL, &downloadedAt, &status, &extractedAt, &f.RecordsExtracted,
		&errMsg, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan pdf file")
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

func scanTrademarkPgx(row pgx.Row) (*model.Trademark, error) {
	var tm model.Trademark
	var filingDate sql.NullTime
	var classNumber sql.NullInt64

	err := row.Scan(&tm.ID, &tm.PDFFileID, &tm.JournalID, &tm.ApplicationNumber, &filingDate,
		&tm.TrademarkName, &tm.ApplicantName, &tm.ApplicantAddress, &tm.ApplicantType, &classNumber,
		&tm.GoodsServices, &tm.AttorneyAddress, &tm.UsedSince, &tm.AssociatedWith, &tm.OfficeLocation,
		&tm.PageNumber, &tm.RawText, &tm.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan trademark")
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

func scanRunAuditPgx(row pgx.Row) (*model.RunAudit, error) {
	var a model.RunAudit
	var trigger, status string
	var errMsg sql.NullString
	var detailsJSON []byte

	err := row.Scan(&a.ID, &a.ExecutedAt, &trigger, &status, &a.JournalsFound, &a.JournalsAcquired,
		&a.PDFsDownloaded, &a.RecordsExtracted, &a.DurationSecs, &errMsg, &detailsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan run audit")
	}
	a.Trigger = model.TriggerKind(trigger)
	a.Status = model.RunStatus(status)
	a.ErrorMessage = errMsg.String
	if len(detailsJSON) > 0 {
		if err := json.Unmarshal(detailsJSON, &a.Details); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal audit details")
		}
	}
	return &a, nil
}

func checkTagAffected(tag pgconn.CommandTag, entity, id string) error {
	if tag.RowsAffected() == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
