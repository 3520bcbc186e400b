package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/markwatch/journal-cli/internal/model"
	"github.com/markwatch/journal-cli/internal/store"
)

// Service produces XLSX workbooks from stored journal data.
type Service struct {
	store store.Store
}

// NewService creates an export Service.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

var trademarkHeaders = []string{
	"Application Number",
	"Filing Date",
	"Trademark Name",
	"Applicant Name",
	"Applicant Address",
	"Applicant Type",
	"Class",
	"Goods/Services",
	"Attorney Address",
	"Used Since",
	"Associated With",
	"Office",
	"Page",
}

// ExportByJournal builds a workbook with a summary sheet plus one sheet
// per journal. Journals without extracted trademarks get no sheet of
// their own.
func (s *Service) ExportByJournal(ctx context.Context) ([]byte, error) {
	journals, _, err := s.store.ListJournals(ctx, store.JournalFilter{Limit: 1000})
	if err != nil {
		return nil, eris.Wrap(err, "export: list journals")
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := s.writeSummarySheet(f, journals); err != nil {
		return nil, err
	}

	for _, journal := range journals {
		if err := s.writeJournalSheet(ctx, f, journal); err != nil {
			return nil, err
		}
	}

	return workbookBytes(f)
}

// ExportTrademarks builds a single-sheet workbook of trademarks matching
// the filter.
func (s *Service) ExportTrademarks(ctx context.Context, filter store.TrademarkFilter) ([]byte, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50000
	}
	trademarks, total, err := s.store.ListTrademarks(ctx, filter)
	if err != nil {
		return nil, eris.Wrap(err, "export: list trademarks")
	}
	zap.L().Info("exporting trademarks", zap.Int("rows", len(trademarks)), zap.Int("total", total))

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	const sheet = "Trademarks"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, eris.Wrap(err, "export: rename sheet")
	}
	if err := writeTrademarkRows(f, sheet, trademarks); err != nil {
		return nil, err
	}

	return workbookBytes(f)
}

func (s *Service) writeSummarySheet(f *excelize.File, journals []model.Journal) error {
	const sheet = "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return eris.Wrap(err, "export: rename summary sheet")
	}

	headers := []string{"Journal Number", "Publication Date", "PDF Count", "Total Trademarks", "Status", "Scraped At"}
	if err := writeRow(f, sheet, 1, toAny(headers)); err != nil {
		return err
	}

	for i, j := range journals {
		row := []any{
			j.JournalNumber,
			j.PublicationDate.Format("2006-01-02"),
			j.PDFCount,
			j.TotalTrademarks,
			string(j.Status),
			j.ScrapedAt.Format("2006-01-02 15:04"),
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	return setColumnWidths(f, sheet, []float64{16, 16, 10, 16, 12, 18})
}

func (s *Service) writeJournalSheet(ctx context.Context, f *excelize.File, journal model.Journal) error {
	trademarks, _, err := s.store.ListTrademarks(ctx, store.TrademarkFilter{
		JournalID: journal.ID,
		Limit:     50000,
	})
	if err != nil {
		return eris.Wrapf(err, "export: list trademarks for journal %s", journal.JournalNumber)
	}
	if len(trademarks) == 0 {
		return nil
	}

	sheet := sheetName("J_" + journal.JournalNumber)
	if _, err := f.NewSheet(sheet); err != nil {
		return eris.Wrapf(err, "export: create sheet %s", sheet)
	}
	return writeTrademarkRows(f, sheet, trademarks)
}

func writeTrademarkRows(f *excelize.File, sheet string, trademarks []model.Trademark) error {
	if err := writeRow(f, sheet, 1, toAny(trademarkHeaders)); err != nil {
		return err
	}

	for i, tm := range trademarks {
		filingDate := ""
		if tm.FilingDate != nil {
			filingDate = tm.FilingDate.Format("2006-01-02")
		}
		class := ""
		if tm.ClassNumber != nil {
			class = fmt.Sprintf("%d", *tm.ClassNumber)
		}

		row := []any{
			tm.ApplicationNumber,
			filingDate,
			tm.TrademarkName,
			tm.ApplicantName,
			tm.ApplicantAddress,
			tm.ApplicantType,
			class,
			tm.GoodsServices,
			tm.AttorneyAddress,
			tm.UsedSince,
			tm.AssociatedWith,
			tm.OfficeLocation,
			tm.PageNumber,
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	return setColumnWidths(f, sheet, []float64{18, 12, 28, 28, 40, 16, 8, 50, 40, 12, 14, 24, 8})
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return eris.Wrap(err, "export: cell name")
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return eris.Wrapf(err, "export: set cell %s", cell)
		}
	}
	return nil
}

func setColumnWidths(f *excelize.File, sheet string, widths []float64) error {
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return eris.Wrap(err, "export: column name")
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return eris.Wrapf(err, "export: set width %s", col)
		}
	}
	return nil
}

// sheetName trims to Excel's 31-character limit.
func sheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	return name
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func workbookBytes(f *excelize.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, eris.Wrap(err, "export: write workbook")
	}
	return buf.Bytes(), nil
}

// FileName builds a timestamped download name for an export kind.
func FileName(kind string) string {
	return fmt.Sprintf("trademark_%s_%s.xlsx", kind, time.Now().UTC().Format("20060102_150405"))
}
