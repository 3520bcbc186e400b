package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markwatch/journal-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func journalRow(mock pgxmock.PgxPoolIface, id, number string) *pgxmock.Rows {
	now := time.Now().UTC()
	return mock.NewRows([]string{
		"id", "journal_number", "publication_date", "available_date", "scraped_at",
		"pdf_count", "total_trademarks", "status", "error_message", "created_at", "updated_at",
	}).AddRow(id, number, now, now, now, 2, 0, "PENDING", nil, now, now)
}

func TestPostgres_GetJournal_Found(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM journals WHERE id = \$1`).
		WithArgs("j-1").
		WillReturnRows(journalRow(mock, "j-1", "2156"))

	j, err := s.GetJournal(context.Background(), "j-1")
	require.NoError(t, err)
	require.NotNil(t, j)
	assert.Equal(t, "2156", j.JournalNumber)
	assert.Equal(t, model.JournalStatusPending, j.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetJournal_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM journals WHERE id = \$1`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	j, err := s.GetJournal(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, j)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetJournalByNumber_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM journals WHERE journal_number = \$1`).
		WithArgs("9999").
		WillReturnError(pgx.ErrNoRows)

	j, err := s.GetJournalByNumber(context.Background(), "9999")
	require.NoError(t, err)
	assert.Nil(t, j)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateJournal(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO journals`).
		WithArgs(pgxmock.AnyArg(), "2156", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			0, 0, "PENDING", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	j, err := s.CreateJournal(context.Background(), model.Journal{
		JournalNumber:   "2156",
		PublicationDate: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		AvailableDate:   time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, j.ID)
	assert.Equal(t, model.JournalStatusPending, j.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateJournalStatus_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE journals SET status`).
		WithArgs("COMPLETED", pgxmock.AnyArg(), pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateJournalStatus(context.Background(), "missing", model.JournalStatusCompleted, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "journal not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ClaimPendingPDFFiles(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	rows := mock.NewRows([]string{
		"id", "journal_id", "file_name", "file_path", "class_range", "file_size_bytes",
		"source_url", "downloaded_at", "extraction_status", "extracted_at", "records_extracted",
		"error_message", "created_at", "updated_at",
	}).AddRow("f-1", "j-1", "Part_1.pdf", "downloads/Part_1.pdf", "1-34", int64(1024),
		"https://registry.example/download", now, "PROCESSING", nil, 0, nil, now, now)

	mock.ExpectQuery(`UPDATE pdf_files SET extraction_status = \$1`).
		WithArgs("PROCESSING", "PENDING", 5).
		WillReturnRows(rows)

	claimed, err := s.ClaimPendingPDFFiles(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, "f-1", claimed[0].ID)
	assert.Equal(t, model.ExtractionStatusProcessing, claimed[0].ExtractionStatus)
	require.NotNil(t, claimed[0].DownloadedAt)
	assert.Nil(t, claimed[0].ExtractedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CompletePDFFile(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE pdf_files SET extraction_status`).
		WithArgs("COMPLETED", pgxmock.AnyArg(), 42, pgxmock.AnyArg(), "f-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.CompletePDFFile(context.Background(), "f-1", 42))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FailPDFFile_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE pdf_files SET extraction_status`).
		WithArgs("ERROR", "boom", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.FailPDFFile(context.Background(), "missing", "boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdf file not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateTrademark(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO trademarks`).
		WithArgs(pgxmock.AnyArg(), "f-1", "j-1", "5012345", pgxmock.AnyArg(),
			"SUNRISE", "SUNRISE TEXTILES", "", "", pgxmock.AnyArg(),
			"", "", "", "", "MUMBAI", 12, "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tm, err := s.CreateTrademark(context.Background(), model.Trademark{
		PDFFileID:         "f-1",
		JournalID:         "j-1",
		ApplicationNumber: "5012345",
		TrademarkName:     "SUNRISE",
		ApplicantName:     "SUNRISE TEXTILES",
		OfficeLocation:    "MUMBAI",
		PageNumber:        12,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tm.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetTotals(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT \(SELECT COUNT\(\*\) FROM journals\)`).
		WillReturnRows(mock.NewRows([]string{"journals", "pdf_files", "trademarks"}).
			AddRow(3, 7, 240))

	totals, err := s.GetTotals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Totals{Journals: 3, PDFFiles: 7, Trademarks: 240}, *totals)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateRunAudit_WithDetails(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO run_audits`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "MANUAL", "SUCCESS",
			2, 1, 3, 120, 45, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	audit, err := s.CreateRunAudit(context.Background(), model.RunAudit{
		Trigger:          model.TriggerManual,
		Status:           model.RunStatusSuccess,
		JournalsFound:    2,
		JournalsAcquired: 1,
		PDFsDownloaded:   3,
		RecordsExtracted: 120,
		DurationSecs:     45,
		Details:          map[string]any{"journal_numbers": []string{"2156"}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, audit.ID)
	assert.False(t, audit.ExecutedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LatestRunAudit_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM run_audits ORDER BY executed_at DESC LIMIT 1`).
		WillReturnError(pgx.ErrNoRows)

	audit, err := s.LatestRunAudit(context.Background())
	require.NoError(t, err)
	assert.Nil(t, audit)
	assert.NoError(t, mock.ExpectationsWereMet())
}
