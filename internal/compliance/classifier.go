package compliance

import (
	"fmt"
	"gossip_scan/internal/dataType"
	"sort"
	"strings"
	"time"
)

// euCountries is the ISO 3166-1 alpha-2 membership of the EU region
// bucket used in the summary breakdown.
var euCountries = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "HR": {}, "CY": {}, "CZ": {}, "DK": {},
	"EE": {}, "FI": {}, "FR": {}, "DE": {}, "GR": {}, "HU": {}, "IE": {},
	"IT": {}, "LV": {}, "LT": {}, "LU": {}, "MT": {}, "NL": {}, "PL": {},
	"PT": {}, "RO": {}, "SK": {}, "SI": {}, "ES": {}, "SE": {},
}

// Classifier tallies resolved country codes against a restricted set.
// The set is injected, never read from ambient state, so a test can run
// any jurisdiction list it likes.
type Classifier struct {
	restricted    map[string]struct{}
	restrictedIdx []string

	countryCounts   map[string]int
	countryNames    map[string]string
	restrictedCount int
	resolved        int
}

func NewClassifier(restricted []string) *Classifier {
	set := make(map[string]struct{}, len(restricted))
	idx := make([]string, 0, len(restricted))
	for _, code := range restricted {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if _, ok := set[code]; ok {
			continue
		}
		set[code] = struct{}{}
		idx = append(idx, code)
	}
	sort.Strings(idx)

	return &Classifier{
		restricted:    set,
		restrictedIdx: idx,
		countryCounts: make(map[string]int),
		countryNames:  make(map[string]string),
	}
}

// IsRestricted reports case-insensitive exact membership in the
// restricted set.
func (c *Classifier) IsRestricted(countryCode string) bool {
	_, ok := c.restricted[strings.ToUpper(strings.TrimSpace(countryCode))]
	return ok
}

// Observe tallies one resolved node and reports whether it fell in a
// restricted jurisdiction.
func (c *Classifier) Observe(res dataType.GeoResult) bool {
	code := strings.ToUpper(strings.TrimSpace(res.CountryCode))
	c.resolved++
	c.countryCounts[code]++
	if res.CountryName != "" {
		c.countryNames[code] = res.CountryName
	}

	if _, ok := c.restricted[code]; ok {
		c.restrictedCount++
		return true
	}
	return false
}

// Summary freezes the tallies into the run's report. totalSampled is
// the sample size before lookup failures; resolved counts only nodes
// that produced a country code.
func (c *Classifier) Summary(runID string, ts time.Time, totalSampled int) dataType.SummaryReport {
	counts := make(map[string]int, len(c.countryCounts))
	names := make(map[string]string, len(c.countryNames))
	for code, n := range c.countryCounts {
		counts[code] = n
	}
	for code, name := range c.countryNames {
		names[code] = name
	}

	regions := map[string]int{"US": 0, "EU": 0, "Other": 0}
	for code, n := range c.countryCounts {
		switch {
		case code == "US":
			regions["US"] += n
		case isEU(code):
			regions["EU"] += n
		default:
			regions["Other"] += n
		}
	}

	return dataType.SummaryReport{
		RunID:             runID,
		Timestamp:         ts,
		TotalSampled:      totalSampled,
		TotalResolved:     c.resolved,
		RestrictedCount:   c.restrictedCount,
		CountryCounts:     counts,
		CountryNames:      names,
		RegionCounts:      regions,
		RestrictedSet:     append([]string(nil), c.restrictedIdx...),
		CompliancePercent: FormatPercent(c.restrictedCount, c.resolved),
	}
}

// FormatPercent renders restricted/resolved to one decimal. Zero
// resolved nodes is a defined outcome, not a division: the marker is
// the literal "N/A".
func FormatPercent(restricted, resolved int) string {
	if resolved == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", float64(restricted)/float64(resolved)*100)
}

func isEU(code string) bool {
	_, ok := euCountries[code]
	return ok
}
