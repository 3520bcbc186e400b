package scraper

import (
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// PartControl is one download form inside a listing row: a hidden input
// carrying the server-side file name plus a labelled submit button.
type PartControl struct {
	FileName string // raw value of the FileName input
	Label    string // button text, used to derive the class range
	Action   string // resolved form action URL
}

// ListingRow is one journal entry on the registry listing page.
type ListingRow struct {
	SeqNo           string
	JournalNumber   string
	PublicationDate time.Time
	AvailableDate   time.Time
	Parts           []PartControl
}

// ParseListing reads the registry listing page and returns up to max rows,
// most recent first. A malformed row is logged and skipped; a page without
// a journal table is unparseable and fatal.
func ParseListing(r io.Reader, baseURL string, max int) ([]ListingRow, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "scraper: parse listing html")
	}

	table := doc.Find("table")
	if table.Length() == 0 {
		return nil, eris.New("scraper: no journal table in listing page")
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, eris.Wrapf(err, "scraper: parse base url %s", baseURL)
	}

	var rows []ListingRow
	doc.Find("table tbody tr").EachWithBreak(func(i int, tr *goquery.Selection) bool {
		if max > 0 && i >= max {
			return false
		}

		row, err := parseRow(tr, base)
		if err != nil {
			zap.L().Warn("skipping malformed listing row",
				zap.Int("row", i),
				zap.Error(err),
			)
			return true
		}
		rows = append(rows, *row)
		return true
	})

	return rows, nil
}

func parseRow(tr *goquery.Selection, base *url.URL) (*ListingRow, error) {
	cells := tr.Find("td")
	if cells.Length() < 4 {
		return nil, eris.Errorf("expected at least 4 cells, got %d", cells.Length())
	}

	cellText := func(i int) string {
		return strings.TrimSpace(cells.Eq(i).Text())
	}

	pubDate, err := time.Parse("02/01/2006", cellText(2))
	if err != nil {
		return nil, eris.Wrap(err, "parse publication date")
	}
	availDate, err := time.Parse("02/01/2006", cellText(3))
	if err != nil {
		return nil, eris.Wrap(err, "parse availability date")
	}

	row := &ListingRow{
		SeqNo:           cellText(0),
		JournalNumber:   cellText(1),
		PublicationDate: pubDate.UTC(),
		AvailableDate:   availDate.UTC(),
	}

	// Download controls live in the last cell, one form per PDF part.
	cells.Last().Find("form").Each(func(_ int, form *goquery.Selection) {
		fileName, ok := form.Find(`input[name="FileName"]`).Attr("value")
		button := form.Find("button")
		if !ok || button.Length() == 0 {
			return
		}

		action := base.String()
		if raw, ok := form.Attr("action"); ok && raw != "" {
			if resolved, err := base.Parse(raw); err == nil {
				action = resolved.String()
			}
		}

		row.Parts = append(row.Parts, PartControl{
			FileName: fileName,
			Label:    strings.TrimSpace(button.Text()),
			Action:   action,
		})
	})

	return row, nil
}
