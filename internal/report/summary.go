package report

import (
	"fmt"
	"gossip_scan/internal/dataType"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// WriteSummary replaces the summary file with this run's aggregate.
// The file reflects exactly one run; nothing carries over.
func WriteSummary(path string, s dataType.SummaryReport) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot write summary file %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(RenderSummary(s)); err != nil {
		return fmt.Errorf("summary write failed: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("summary sync failed: %w", err)
	}
	return nil
}

func RenderSummary(s dataType.SummaryReport) string {
	var b strings.Builder

	b.WriteString("--- Gossip Node Scan Summary ---\n")
	b.WriteString("Run ID: " + s.RunID + "\n")
	b.WriteString("Date: " + s.Timestamp.UTC().Format("2006-01-02 15:04:05") + " UTC\n")
	b.WriteString(fmt.Sprintf("Total Nodes Sampled: %d\n", s.TotalSampled))
	b.WriteString(fmt.Sprintf("Total Resolved: %d\n", s.TotalResolved))
	b.WriteString(fmt.Sprintf("Lookup Failures: %d\n", s.TotalSampled-s.TotalResolved))
	b.WriteString("---------------------------------------\n")
	b.WriteString(fmt.Sprintf("Restricted Nodes: %d\n", s.RestrictedCount))
	b.WriteString("Compliance Percentage: " + s.CompliancePercent + "\n")

	if len(s.RestrictedSet) > 0 {
		b.WriteString("Restricted Breakdown:\n")
		for _, code := range s.RestrictedSet {
			b.WriteString(fmt.Sprintf("  %s: %d\n", code, s.CountryCounts[code]))
		}
	}

	b.WriteString("---------------------------------------\n")
	b.WriteString("Regions:\n")
	for _, region := range []string{"US", "EU", "Other"} {
		b.WriteString(fmt.Sprintf("  %s: %d\n", region, s.RegionCounts[region]))
	}

	b.WriteString("Full Country Breakdown:\n")
	for _, code := range sortedByCount(s.CountryCounts) {
		line := fmt.Sprintf("  %s: %d", code, s.CountryCounts[code])
		if name := s.CountryNames[code]; name != "" {
			line += " (" + name + ")"
		}
		b.WriteString(line + "\n")
	}

	return b.String()
}

// sortedByCount orders codes by descending count, code ascending on ties
func sortedByCount(counts map[string]int) []string {
	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		if counts[codes[i]] != counts[codes[j]] {
			return counts[codes[i]] > counts[codes[j]]
		}
		return codes[i] < codes[j]
	})
	return codes
}
