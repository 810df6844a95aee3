package dataType

import "time"

// Node is one entry of the cluster's gossip view: the peer identity and
// the IP its gossip endpoint advertises. Version is the software version
// the node reports, when it reports one.
type Node struct {
	PubKey   string
	GossipIP string
	Version  string
}

// GeoResult is a successful geolocation of one gossip IP. Failed lookups
// never produce a GeoResult; the node is skipped instead.
type GeoResult struct {
	IP          string
	CountryCode string
	CountryName string
}

// ScanRecord is one appended history row. Once written it is never
// mutated or deleted.
type ScanRecord struct {
	Timestamp   time.Time
	IP          string
	CountryCode string
	PubKey      string
}

// SummaryReport holds the aggregate of a single run. It replaces the
// previous run's summary wholesale and never accumulates across runs.
type SummaryReport struct {
	RunID           string
	Timestamp       time.Time
	TotalSampled    int
	TotalResolved   int
	RestrictedCount int

	// CountryCounts is keyed by upper-case ISO 3166-1 alpha-2 code.
	CountryCounts map[string]int
	CountryNames  map[string]string
	RegionCounts  map[string]int
	RestrictedSet []string

	// CompliancePercent is pre-formatted to one decimal (e.g. "25.0%"),
	// or "N/A" when no lookup succeeded.
	CompliancePercent string
}
