package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/markwatch/journal-cli/internal/model"
)

// boundaryRe marks the start of a record: a 7-10 digit application number
// followed by a DD/MM/YYYY filing date.
var boundaryRe = regexp.MustCompile(`^(\d{7,10})\s+(\d{2}/\d{2}/\d{4})`)

// Line is one trimmed, non-empty text line tagged with its source page.
type Line struct {
	Text string
	Page int
}

// SplitPages breaks extracted PDF text into lines with page numbers.
// pdftotext separates pages with form feeds; pages are 1-based.
func SplitPages(text string) []Line {
	var out []Line
	for pageIdx, page := range strings.Split(text, "\f") {
		for _, raw := range strings.Split(page, "\n") {
			line := strings.TrimSpace(raw)
			if line == "" {
				continue
			}
			out = append(out, Line{Text: line, Page: pageIdx + 1})
		}
	}
	return out
}

// recordState carries the in-progress record through the segmenter. The
// sticky attorney-section flag lives here so it resets on every flush.
type recordState struct {
	record     model.Trademark
	lines      []string
	inAttorney bool
}

// Parser turns raw document text into structured trademark records.
type Parser struct {
	tables *Tables
}

// NewParser creates a Parser. A nil tables uses the defaults.
func NewParser(tables *Tables) *Parser {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Parser{tables: tables}
}

// Parse extracts all trademark records from a document's text. A document
// with no boundary line yields zero records, which is not an error.
func (p *Parser) Parse(text string) []model.Trademark {
	return p.Segment(SplitPages(text))
}

// Segment runs the single-pass state machine over the line stream. A
// boundary line starts a new record; every other line is accumulated and
// dispatched to the field extractors. Records may span pages.
func (p *Parser) Segment(lines []Line) []model.Trademark {
	var records []model.Trademark
	var st *recordState

	flush := func() {
		// A boundary with nothing after it before the next boundary or
		// EOF is discarded.
		if st == nil || len(st.lines) < 2 {
			return
		}
		st.record.RawText = strings.Join(st.lines, "\n")
		p.postProcess(st)
		records = append(records, st.record)
	}

	for _, line := range lines {
		if m := boundaryRe.FindStringSubmatch(line.Text); m != nil {
			flush()
			st = &recordState{
				record: model.Trademark{
					ApplicationNumber: m[1],
					FilingDate:        parseDate(m[2]),
					PageNumber:        line.Page,
				},
				lines: []string{line.Text},
			}
			continue
		}
		if st == nil {
			continue
		}
		st.lines = append(st.lines, line.Text)
		p.extractFields(line.Text, st)
	}
	flush()

	return records
}

// parseDate parses DD/MM/YYYY; malformed dates yield nil rather than an
// error since every extracted field is best-effort.
func parseDate(s string) *time.Time {
	t, err := time.Parse("02/01/2006", s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
