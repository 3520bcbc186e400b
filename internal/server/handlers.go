package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/markwatch/journal-cli/internal/export"
	"github.com/markwatch/journal-cli/internal/model"
	"github.com/markwatch/journal-cli/internal/pipeline"
	"github.com/markwatch/journal-cli/internal/store"
)

// queryInt reads an integer query parameter, falling back to def and
// clamping to [1, max] when max is positive.
func queryInt(r *http.Request, name string, def, max int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 1 {
		return def
	}
	if max > 0 && v > max {
		return max
	}
	return v
}

func pages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

func (s *Server) handleListJournals(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1, 0)
	limit := queryInt(r, "limit", 20, 100)

	journals, total, err := s.store.ListJournals(r.Context(), store.JournalFilter{
		Status: model.JournalStatus(r.URL.Query().Get("status")),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		zap.L().Error("failed to list journals", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list journals")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"journals": journals,
		"total":    total,
		"page":     page,
		"limit":    limit,
		"pages":    pages(total, limit),
	})
}

func (s *Server) handleLatestJournals(w http.ResponseWriter, r *http.Request) {
	count := queryInt(r, "count", 5, 20)

	journals, err := s.store.LatestJournals(r.Context(), count)
	if err != nil {
		zap.L().Error("failed to fetch latest journals", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch latest journals")
		return
	}
	respondJSON(w, http.StatusOK, journals)
}

func (s *Server) handleGetJournal(w http.ResponseWriter, r *http.Request) {
	journal, err := s.store.GetJournal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		zap.L().Error("failed to fetch journal", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch journal")
		return
	}
	if journal == nil {
		respondError(w, http.StatusNotFound, "journal not found")
		return
	}
	respondJSON(w, http.StatusOK, journal)
}

func (s *Server) handleJournalPDFs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	journal, err := s.store.GetJournal(r.Context(), id)
	if err != nil {
		zap.L().Error("failed to fetch journal", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch journal")
		return
	}
	if journal == nil {
		respondError(w, http.StatusNotFound, "journal not found")
		return
	}

	files, err := s.store.ListPDFFiles(r.Context(), id)
	if err != nil {
		zap.L().Error("failed to list pdf files", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list pdf files")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"journal":   journal,
		"pdf_files": files,
	})
}

func (s *Server) handleJournalTrademarks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	page := queryInt(r, "page", 1, 0)
	limit := queryInt(r, "limit", 50, 200)

	journal, err := s.store.GetJournal(r.Context(), id)
	if err != nil {
		zap.L().Error("failed to fetch journal", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch journal")
		return
	}
	if journal == nil {
		respondError(w, http.StatusNotFound, "journal not found")
		return
	}

	trademarks, total, err := s.store.ListTrademarks(r.Context(), store.TrademarkFilter{
		JournalID: id,
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		zap.L().Error("failed to list trademarks", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list trademarks")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"journal":    journal,
		"trademarks": trademarks,
		"total":      total,
		"page":       page,
		"limit":      limit,
		"pages":      pages(total, limit),
	})
}

func trademarkFilterFromQuery(r *http.Request) store.TrademarkFilter {
	q := r.URL.Query()
	class, _ := strconv.Atoi(q.Get("class_number"))
	return store.TrademarkFilter{
		Search:      q.Get("search"),
		ClassNumber: class,
		JournalID:   q.Get("journal_id"),
		Applicant:   q.Get("applicant"),
	}
}

func (s *Server) handleListTrademarks(w http.ResponseWriter, r *http.Request) {
	filter := trademarkFilterFromQuery(r)
	filter.Page = queryInt(r, "page", 1, 0)
	filter.Limit = queryInt(r, "limit", 20, 100)

	trademarks, total, err := s.store.ListTrademarks(r.Context(), filter)
	if err != nil {
		zap.L().Error("failed to list trademarks", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list trademarks")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"trademarks": trademarks,
		"total":      total,
		"page":       filter.Page,
		"limit":      filter.Limit,
		"pages":      pages(total, filter.Limit),
	})
}

func (s *Server) handleGetTrademark(w http.ResponseWriter, r *http.Request) {
	tm, err := s.store.GetTrademark(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		zap.L().Error("failed to fetch trademark", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch trademark")
		return
	}
	if tm == nil {
		respondError(w, http.StatusNotFound, "trademark not found")
		return
	}
	respondJSON(w, http.StatusOK, tm)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totals, err := s.store.GetTotals(ctx)
	if err != nil {
		zap.L().Error("failed to fetch totals", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch statistics")
		return
	}
	classes, err := s.store.ClassDistribution(ctx)
	if err != nil {
		zap.L().Error("failed to fetch class distribution", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch statistics")
		return
	}
	applicants, err := s.store.TopApplicants(ctx, 10)
	if err != nil {
		zap.L().Error("failed to fetch top applicants", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch statistics")
		return
	}
	offices, err := s.store.OfficeDistribution(ctx)
	if err != nil {
		zap.L().Error("failed to fetch office distribution", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch statistics")
		return
	}
	latest, err := s.store.LatestJournals(ctx, 1)
	if err != nil {
		zap.L().Error("failed to fetch latest journal", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch statistics")
		return
	}

	var latestJournal *model.Journal
	if len(latest) > 0 {
		latestJournal = &latest[0]
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"totals":              totals,
		"latest_journal":      latestJournal,
		"class_distribution":  classes,
		"top_applicants":      applicants,
		"office_distribution": offices,
	})
}

func (s *Server) handleScraperRun(w http.ResponseWriter, _ *http.Request) {
	if s.pipeline.Running() {
		respondError(w, http.StatusConflict, "a run is already active")
		return
	}

	// The run outlives the request; a concurrent trigger that slips past
	// the check above is still rejected by the pipeline itself.
	go func() {
		if _, err := s.pipeline.Run(context.Background(), model.TriggerManual); err != nil {
			if !eris.Is(err, pipeline.ErrRunActive) {
				zap.L().Error("manual pipeline run failed", zap.Error(err))
			}
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status":  "started",
		"trigger": string(model.TriggerManual),
	})
}

func (s *Server) handleScraperStatus(w http.ResponseWriter, r *http.Request) {
	latest, err := s.store.LatestRunAudit(r.Context())
	if err != nil {
		zap.L().Error("failed to fetch latest run", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to fetch scraper status")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"running":  s.pipeline.Running(),
		"last_run": latest,
	})
}

func (s *Server) handleScraperLogs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20, 100)

	audits, err := s.store.ListRunAudits(r.Context(), limit)
	if err != nil {
		zap.L().Error("failed to list run audits", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list scraper logs")
		return
	}
	respondJSON(w, http.StatusOK, audits)
}

func (s *Server) handleExportJournals(w http.ResponseWriter, r *http.Request) {
	data, err := s.exporter.ExportByJournal(r.Context())
	if err != nil {
		zap.L().Error("journal export failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "export failed")
		return
	}
	serveWorkbook(w, export.FileName("journals"), data)
}

func (s *Server) handleExportTrademarks(w http.ResponseWriter, r *http.Request) {
	data, err := s.exporter.ExportTrademarks(r.Context(), trademarkFilterFromQuery(r))
	if err != nil {
		zap.L().Error("trademark export failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "export failed")
		return
	}
	serveWorkbook(w, export.FileName("trademarks"), data)
}

func serveWorkbook(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		zap.L().Error("failed to write workbook response", zap.Error(err))
	}
}
