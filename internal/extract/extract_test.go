package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRecord = `5012345    15/03/2021
SUNRISE GLOW
SUNRISE TEXTILES PRIVATE LIMITED
trading as SUNRISE TEXTILES
45, M G MARG, KANPUR - 208001
UTTAR PRADESH
Address for service in India/Agents address:
LEGAL ASSOCIATES & CO.
12 LAW CHAMBERS, KANPUR
Used Since :01/04/2015
MUMBAI
Proposed to be Used
Clothing, footwear and headgear included in Class 25
To be associated with: 4321098
Associated with the registered mark
`

func TestParse_SingleRecord(t *testing.T) {
	p := NewParser(nil)
	records := p.Parse(sampleRecord)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "5012345", rec.ApplicationNumber)
	require.NotNil(t, rec.FilingDate)
	assert.Equal(t, time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC), *rec.FilingDate)
	assert.Equal(t, 1, rec.PageNumber)

	assert.Equal(t, "SUNRISE TEXTILES PRIVATE LIMITED", rec.ApplicantName)
	assert.Equal(t, "PRIVATE LIMITED", rec.ApplicantType)
	require.NotNil(t, rec.ClassNumber)
	assert.Equal(t, 25, *rec.ClassNumber)
	assert.Equal(t, "01/04/2015", rec.UsedSince)
	assert.Equal(t, "4321098", rec.AssociatedWith)
	assert.Equal(t, "MUMBAI", rec.OfficeLocation)

	assert.Equal(t,
		"trading as SUNRISE TEXTILES, 45, M G MARG, KANPUR - 208001, UTTAR PRADESH",
		rec.ApplicantAddress)
	assert.True(t, strings.HasPrefix(rec.AttorneyAddress, "LEGAL ASSOCIATES & CO. 12 LAW CHAMBERS, KANPUR"))
	assert.Contains(t, rec.GoodsServices, "Clothing, footwear and headgear")
	assert.NotContains(t, rec.GoodsServices, "Associated with the registered mark")

	assert.True(t, strings.HasPrefix(rec.RawText, "5012345    15/03/2021\nSUNRISE GLOW"))
}

func TestParse_BoundaryRoundTrip(t *testing.T) {
	p := NewParser(nil)

	records := p.Parse("1234567 01/01/2024 rest of line\nfollow-up text\n")
	require.Len(t, records, 1)
	assert.Equal(t, "1234567", records[0].ApplicationNumber)
	require.NotNil(t, records[0].FilingDate)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *records[0].FilingDate)
}

func TestParse_ShortIdentifierIsNotBoundary(t *testing.T) {
	p := NewParser(nil)

	// A 2-digit leading number is ordinary text, not a record start.
	records := p.Parse("12 01/01/2024\nsome other text\n")
	assert.Empty(t, records)
}

func TestParse_EmptyDocument(t *testing.T) {
	p := NewParser(nil)

	assert.Empty(t, p.Parse(""))
	assert.Empty(t, p.Parse("no boundaries here\njust prose\n"))
}

func TestParse_BareBoundaryDiscarded(t *testing.T) {
	p := NewParser(nil)

	// A boundary immediately followed by another boundary has no content
	// and is dropped; the second record keeps its own lines.
	text := "5012345 01/01/2024\n5012346 02/01/2024\nMARK NAME\nAPPLICANT NAME\n"
	records := p.Parse(text)
	require.Len(t, records, 1)
	assert.Equal(t, "5012346", records[0].ApplicationNumber)
}

func TestParse_SegmentationDeterminism(t *testing.T) {
	p := NewParser(nil)

	// Three boundaries, but only two are followed by content.
	text := strings.Join([]string{
		"5012345 01/01/2024",
		"content a",
		"5012346 02/01/2024",
		"5012347 03/01/2024",
		"content b",
		"content c",
	}, "\n")

	records := p.Parse(text)
	require.Len(t, records, 2)
	assert.Equal(t, "5012345", records[0].ApplicationNumber)
	assert.Equal(t, "5012347", records[1].ApplicationNumber)
}

func TestParse_RecordSpansPages(t *testing.T) {
	p := NewParser(nil)

	// Page break mid-record: the record keeps its starting page and its
	// raw text includes lines from both pages.
	text := "5012345 01/01/2024\nMARK ONE\nAPPLICANT ONE\fcontinued address line\n5099999 05/05/2024\nMARK TWO\n"
	records := p.Parse(text)
	require.Len(t, records, 2)

	assert.Equal(t, 1, records[0].PageNumber)
	assert.Contains(t, records[0].RawText, "continued address line")
	assert.Equal(t, 2, records[1].PageNumber)
}

func TestParse_MalformedFilingDate(t *testing.T) {
	p := NewParser(nil)

	// Matches the boundary shape but is not a real date.
	records := p.Parse("5012345 99/99/2024\nMARK\nAPPLICANT\n")
	require.Len(t, records, 1)
	assert.Nil(t, records[0].FilingDate)
}

func TestParse_ApplicantNameFirstMatchWins(t *testing.T) {
	p := NewParser(nil)

	text := "5012345 01/01/2024\nMARK LINE\nFIRST APPLICANT\nSECOND LINE\n"
	records := p.Parse(text)
	require.Len(t, records, 1)
	assert.Equal(t, "FIRST APPLICANT", records[0].ApplicantName)
}

func TestParse_AttorneyAccumulation(t *testing.T) {
	p := NewParser(nil)

	text := strings.Join([]string{
		"5012345 01/01/2024",
		"MARK",
		"APPLICANT",
		"Attorney address:",
		"FIRST LINE OF AGENT",
		"SECOND LINE OF AGENT",
	}, "\n")

	records := p.Parse(text)
	require.Len(t, records, 1)
	assert.Equal(t, "FIRST LINE OF AGENT SECOND LINE OF AGENT", records[0].AttorneyAddress)
}

func TestParse_AttorneyFlagResetsOnFlush(t *testing.T) {
	p := NewParser(nil)

	text := strings.Join([]string{
		"5012345 01/01/2024",
		"MARK",
		"Address for service:",
		"AGENT LINE",
		"5012346 02/01/2024",
		"SECOND MARK",
		"SECOND APPLICANT",
	}, "\n")

	records := p.Parse(text)
	require.Len(t, records, 2)
	assert.Equal(t, "AGENT LINE", records[0].AttorneyAddress)
	assert.Empty(t, records[1].AttorneyAddress)
}

func TestParse_AddressSkipsMetadataPrefixes(t *testing.T) {
	p := NewParser(nil)

	text := strings.Join([]string{
		"5012345 01/01/2024",
		"MARK",
		"APPLICANT",
		"Class 30",
		"12 STATION LANE",
		"PUNE 411001",
	}, "\n")

	records := p.Parse(text)
	require.Len(t, records, 1)
	assert.Equal(t, "12 STATION LANE, PUNE 411001", records[0].ApplicantAddress)
	require.NotNil(t, records[0].ClassNumber)
	assert.Equal(t, 30, *records[0].ClassNumber)
}

func TestParse_NameFallbackSkipsStructuralLines(t *testing.T) {
	p := NewParser(nil)

	text := strings.Join([]string{
		"5012345 01/01/2024",
		"MK", // too short for the fallback scan
		"22 STATION ROAD",
		"PLAIN CANDIDATE NAME",
	}, "\n")

	records := p.Parse(text)
	require.Len(t, records, 1)
	// "22 STATION ROAD" is digit-leading and contains "road".
	assert.Equal(t, "PLAIN CANDIDATE NAME", records[0].TrademarkName)
}

func TestSplitPages(t *testing.T) {
	lines := SplitPages("a\n\n  b  \fc\n")
	require.Len(t, lines, 3)
	assert.Equal(t, Line{Text: "a", Page: 1}, lines[0])
	assert.Equal(t, Line{Text: "b", Page: 1}, lines[1])
	assert.Equal(t, Line{Text: "c", Page: 2}, lines[2])
}

func TestLoadTables_Defaults(t *testing.T) {
	tables, err := LoadTables("")
	require.NoError(t, err)
	assert.Contains(t, tables.Offices, "MUMBAI")
	assert.Contains(t, tables.PartyTypes, "LLP")
}

func TestLoadTables_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	yaml := `
offices:
  - MUMBAI
  - NAGPUR
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	tables, err := LoadTables(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"MUMBAI", "NAGPUR"}, tables.Offices)
	// Untouched lists keep their defaults.
	assert.Contains(t, tables.PartyTypes, "PARTNERSHIP")

	p := NewParser(tables)
	records := p.Parse("5012345 01/01/2024\nMARK\nAPPLICANT\nNAGPUR\n")
	require.Len(t, records, 1)
	assert.Equal(t, "NAGPUR", records[0].OfficeLocation)
}

func TestLoadTables_MissingFile(t *testing.T) {
	_, err := LoadTables("/nonexistent/tables.yaml")
	require.Error(t, err)
}
