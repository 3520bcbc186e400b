package extract

import (
	"strings"
	"unicode"
)

// postProcess runs once per finalized record, over its full line list.
// It routes lines after the identity block into either the applicant
// address or the goods/services description, and fills the trademark
// name by a best-effort scan. Absent fields stay empty, never an error.
func (p *Parser) postProcess(st *recordState) {
	rec := &st.record
	lines := st.lines

	var addressLines, goodsLines []string
	inGoods := false

	for i, line := range lines {
		// The first three lines are the boundary, the mark line, and
		// the applicant name.
		if i < 3 {
			continue
		}

		if containsAny(line, p.tables.SectionMarkers) || containsAny(line, p.tables.Offices) {
			inGoods = true
			if containsAny(line, p.tables.Offices) {
				rec.OfficeLocation = strings.TrimSpace(line)
			}
			continue
		}

		if !inGoods && len(addressLines) < 5 && !p.tables.isAddressSkip(line) {
			addressLines = append(addressLines, line)
		}

		if inGoods {
			if containsAny(line, p.tables.GoodsStop) {
				break
			}
			goodsLines = append(goodsLines, line)
		}
	}

	if len(addressLines) > 0 && rec.ApplicantAddress == "" {
		rec.ApplicantAddress = strings.Join(addressLines[:min(3, len(addressLines))], ", ")
	}
	if len(goodsLines) > 0 {
		rec.GoodsServices = strings.Join(goodsLines[:min(10, len(goodsLines))], " ")
	}

	if rec.TrademarkName == "" {
		rec.TrademarkName = p.scanName(lines)
	}
}

// scanName looks through lines 3-8 for the first plausible mark name: more
// than three characters, not digit-leading, and free of structural words.
func (p *Parser) scanName(lines []string) string {
	end := min(8, len(lines))
	for i := 2; i < end; i++ {
		line := lines[i]
		if len(line) <= 3 {
			continue
		}
		if r := []rune(line); len(r) > 0 && unicode.IsDigit(r[0]) {
			continue
		}
		lower := strings.ToLower(line)
		if containsAny(lower, p.tables.NameBlacklist) {
			continue
		}
		return line
	}
	return ""
}
