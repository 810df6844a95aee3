package report

import (
	"encoding/csv"
	"gossip_scan/internal/dataType"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func record(ip, code, pubkey string) dataType.ScanRecord {
	return dataType.ScanRecord{
		Timestamp:   time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		IP:          ip,
		CountryCode: code,
		PubKey:      pubkey,
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse history: %v", err)
	}
	return rows
}

func TestAppendHistory_HeaderOnceAndAppendOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")

	first := []dataType.ScanRecord{
		record("1.1.1.1", "US", "A"),
		record("2.2.2.2", "RU", "B"),
	}
	if err := AppendHistory(path, first); err != nil {
		t.Fatalf("first append: %v", err)
	}

	second := []dataType.ScanRecord{
		record("3.3.3.3", "DE", "C"),
	}
	if err := AppendHistory(path, second); err != nil {
		t.Fatalf("second append: %v", err)
	}

	rows := readCSV(t, path)
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header + 3 data rows", len(rows))
	}
	if strings.Join(rows[0], ",") != "timestamp,ip,country_code,public_key" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	// Chronological append order preserved.
	if rows[1][3] != "A" || rows[2][3] != "B" || rows[3][3] != "C" {
		t.Errorf("rows out of order: %v", rows[1:])
	}
	if rows[1][1] != "1.1.1.1" || rows[1][2] != "US" {
		t.Errorf("row fields wrong: %v", rows[1])
	}
}

func TestAppendHistory_NoRecordsTouchesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	if err := AppendHistory(path, nil); err != nil {
		t.Fatalf("append with no records: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("empty append created the history file")
	}
}

func TestAppendHistory_LockHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")

	// Fresh lock held by a "concurrent run".
	lock := path + ".lock"
	if err := os.WriteFile(lock, []byte("held\n"), 0o644); err != nil {
		t.Fatalf("create lock: %v", err)
	}

	err := AppendHistory(path, []dataType.ScanRecord{record("1.1.1.1", "US", "A")})
	if err == nil {
		t.Fatalf("expected lock error")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("history file written despite held lock")
	}
}

func TestAppendHistory_StaleLockReclaimed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")

	lock := path + ".lock"
	if err := os.WriteFile(lock, []byte("stale\n"), 0o644); err != nil {
		t.Fatalf("create lock: %v", err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(lock, old, old); err != nil {
		t.Fatalf("age lock: %v", err)
	}

	if err := AppendHistory(path, []dataType.ScanRecord{record("1.1.1.1", "US", "A")}); err != nil {
		t.Fatalf("append with stale lock: %v", err)
	}
	if _, err := os.Stat(lock); !os.IsNotExist(err) {
		t.Errorf("lock not released after append")
	}
}

func TestWriteSummary_OverwritesPreviousRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.txt")

	s1 := dataType.SummaryReport{
		RunID:             "run-1",
		Timestamp:         time.Now(),
		TotalSampled:      10,
		TotalResolved:     8,
		RestrictedCount:   2,
		CountryCounts:     map[string]int{"RU": 2, "US": 6},
		RegionCounts:      map[string]int{"US": 6, "EU": 0, "Other": 2},
		RestrictedSet:     []string{"RU"},
		CompliancePercent: "25.0%",
	}
	if err := WriteSummary(path, s1); err != nil {
		t.Fatalf("first write: %v", err)
	}

	s2 := s1
	s2.RunID = "run-2"
	s2.TotalResolved = 5
	s2.RestrictedCount = 0
	s2.CountryCounts = map[string]int{"US": 5}
	s2.RegionCounts = map[string]int{"US": 5, "EU": 0, "Other": 0}
	s2.CompliancePercent = "0.0%"
	if err := WriteSummary(path, s2); err != nil {
		t.Fatalf("second write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	text := string(data)

	if strings.Contains(text, "run-1") || strings.Contains(text, "25.0%") {
		t.Errorf("summary still contains first run's data:\n%s", text)
	}
	if !strings.Contains(text, "run-2") || !strings.Contains(text, "Compliance Percentage: 0.0%") {
		t.Errorf("summary missing second run's data:\n%s", text)
	}
}

func TestRenderSummary_Content(t *testing.T) {
	s := dataType.SummaryReport{
		RunID:             "run-x",
		Timestamp:         time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC),
		TotalSampled:      10,
		TotalResolved:     8,
		RestrictedCount:   2,
		CountryCounts:     map[string]int{"RU": 2, "US": 4, "DE": 2},
		CountryNames:      map[string]string{"RU": "Russia"},
		RegionCounts:      map[string]int{"US": 4, "EU": 2, "Other": 2},
		RestrictedSet:     []string{"IR", "RU"},
		CompliancePercent: "25.0%",
	}

	text := RenderSummary(s)

	for _, want := range []string{
		"Run ID: run-x",
		"Date: 2026-08-25 09:30:00 UTC",
		"Total Nodes Sampled: 10",
		"Total Resolved: 8",
		"Lookup Failures: 2",
		"Restricted Nodes: 2",
		"Compliance Percentage: 25.0%",
		"  IR: 0",
		"  RU: 2 (Russia)",
		"  US: 4",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}

	// Full breakdown sorted by count descending.
	if strings.Index(text, "US: 4") > strings.Index(text, "DE: 2") {
		t.Errorf("breakdown not sorted by count:\n%s", text)
	}
}

func TestRenderSummary_NoData(t *testing.T) {
	s := dataType.SummaryReport{
		RunID:             "run-empty",
		Timestamp:         time.Now(),
		TotalSampled:      10,
		CountryCounts:     map[string]int{},
		RegionCounts:      map[string]int{"US": 0, "EU": 0, "Other": 0},
		CompliancePercent: "N/A",
	}
	text := RenderSummary(s)
	if !strings.Contains(text, "Compliance Percentage: N/A") {
		t.Errorf("no-data marker missing:\n%s", text)
	}
}
