package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	classRe      = regexp.MustCompile(`(?i)Class\s+(\d+)`)
	usedSinceRe  = regexp.MustCompile(`(?i)Used Since\s*:?\s*(\d{2}/\d{2}/\d{4})`)
	associatedRe = regexp.MustCompile(`(?i)To be associated with\s*:?\s*(\d+)`)
)

// extractFields runs every field extractor against one accumulated line.
// Extractors are independent and non-exclusive: several may fire on the
// same line.
func (p *Parser) extractFields(line string, st *recordState) {
	rec := &st.record
	upper := strings.ToUpper(line)

	// The applicant name is conventionally the second content line after
	// the boundary. First match wins.
	if rec.ApplicantName == "" && len(st.lines) == 3 {
		rec.ApplicantName = st.lines[2]
	}

	if m := classRe.FindStringSubmatch(line); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			rec.ClassNumber = &n
		}
	}

	for _, office := range p.tables.Offices {
		if strings.Contains(upper, office) {
			rec.OfficeLocation = office
			break
		}
	}

	for _, kind := range p.tables.PartyTypes {
		if strings.Contains(upper, kind) {
			rec.ApplicantType = kind
			break
		}
	}

	if m := usedSinceRe.FindStringSubmatch(line); m != nil {
		rec.UsedSince = m[1]
	}

	if m := associatedRe.FindStringSubmatch(line); m != nil {
		rec.AssociatedWith = m[1]
	}

	if containsAny(line, p.tables.AttorneyMarkers) {
		st.inAttorney = true
	}
	if st.inAttorney && !containsAny(line, p.tables.AttorneySkip) {
		if rec.AttorneyAddress == "" {
			rec.AttorneyAddress = line
		} else {
			rec.AttorneyAddress += " " + line
		}
	}
}
