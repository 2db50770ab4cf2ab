package screening

import "strings"

// CountryRiskTable holds the GAFI/FATF high-risk and increased-
// monitoring jurisdictions, keyed by ISO 3166-1 alpha-2 code. The
// built-in set tracks the FATF public statements and is periodically
// updated with releases; deployments can append codes via config.
type CountryRiskTable struct {
	highRisk map[string]struct{}
}

var defaultHighRiskJurisdictions = []string{
	// Call-for-action list
	"IR", "KP", "MM",
	// Increased-monitoring list
	"BF", "CM", "CD", "HR", "HT", "KE", "LB", "ML", "MZ",
	"NA", "NG", "PH", "SN", "SS", "SY", "TZ", "VE", "VN", "YE",
}

// NewCountryRiskTable builds the table from the built-in jurisdictions
// plus any extra codes.
func NewCountryRiskTable(extra []string) *CountryRiskTable {
	t := &CountryRiskTable{highRisk: make(map[string]struct{})}
	for _, code := range defaultHighRiskJurisdictions {
		t.highRisk[code] = struct{}{}
	}
	for _, code := range extra {
		code = strings.ToUpper(strings.TrimSpace(code))
		if len(code) == 2 {
			t.highRisk[code] = struct{}{}
		}
	}
	return t
}

// IsHighRisk reports whether the country code is on the GAFI table.
func (t *CountryRiskTable) IsHighRisk(countryCode string) bool {
	_, ok := t.highRisk[strings.ToUpper(strings.TrimSpace(countryCode))]
	return ok
}
