package extract

import (
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Tables holds the keyword lists the parser matches against. The journal's
// layout is conventional rather than schematic, so these are data, not
// logic: a new office or party type is a config change, not a code change.
type Tables struct {
	// Offices are the registry office cities, matched case-insensitively
	// and stored upper-cased.
	Offices []string `yaml:"offices"`

	// PartyTypes are applicant legal forms, matched upper-cased in list
	// order with first match winning within a line.
	PartyTypes []string `yaml:"party_types"`

	// AttorneyMarkers open the representative-address section.
	AttorneyMarkers []string `yaml:"attorney_markers"`

	// AttorneySkip lines are never accumulated into the representative
	// address even while the section is open.
	AttorneySkip []string `yaml:"attorney_skip"`

	// SectionMarkers switch post-processing from the applicant-address
	// bucket to the goods/services bucket.
	SectionMarkers []string `yaml:"section_markers"`

	// GoodsStop markers terminate goods/services collection.
	GoodsStop []string `yaml:"goods_stop"`

	// AddressSkipPrefixes are metadata line prefixes excluded from the
	// applicant-address bucket.
	AddressSkipPrefixes []string `yaml:"address_skip_prefixes"`

	// NameBlacklist words disqualify a line from the trademark-name
	// fallback scan (matched lower-cased).
	NameBlacklist []string `yaml:"name_blacklist"`

	addressSkipRe *regexp.Regexp
}

// DefaultTables returns the keyword tables for the India trademark journal
// layout.
func DefaultTables() *Tables {
	t := &Tables{
		Offices: []string{"MUMBAI", "DELHI", "KOLKATA", "CHENNAI", "AHMEDABAD"},
		PartyTypes: []string{
			"INDIVIDUAL", "PARTNERSHIP", "PRIVATE LIMITED", "LIMITED COMPANY",
			"LLP", "PROPRIETORSHIP", "BODY INCORPORATE", "HUF",
		},
		AttorneyMarkers: []string{"Address for service", "Attorney address", "Agents address"},
		AttorneySkip:    []string{"Address for service", "Attorney", "Proposed", "Used Since"},
		SectionMarkers:  []string{"Address for service", "Proposed to be Used"},
		GoodsStop:       []string{"Associated with", "Mark can be", "Registration of", "THIS IS CONDITION"},
		AddressSkipPrefixes: []string{
			"Class", "Individual", "Partnership", "Private", "Limited", "LLP", "Used Since",
		},
		NameBlacklist: []string{"address", "service", "mumbai", "delhi", "road", "floor"},
	}
	t.compile()
	return t
}

// LoadTables reads table overrides from a YAML file. Missing path returns
// the defaults; fields absent from the file keep their default values.
func LoadTables(path string) (*Tables, error) {
	t := DefaultTables()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: read tables %s", path)
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, eris.Wrapf(err, "extract: parse tables %s", path)
	}
	t.compile()
	return t, nil
}

func (t *Tables) compile() {
	escaped := make([]string, len(t.AddressSkipPrefixes))
	for i, p := range t.AddressSkipPrefixes {
		escaped[i] = regexp.QuoteMeta(p)
	}
	t.addressSkipRe = regexp.MustCompile(`(?i)^(` + strings.Join(escaped, "|") + `)`)
}

func (t *Tables) isAddressSkip(line string) bool {
	return t.addressSkipRe.MatchString(line)
}

func containsAny(line string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}
