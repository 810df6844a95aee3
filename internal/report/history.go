package report

import (
	"encoding/csv"
	"fmt"
	"gossip_scan/internal/dataType"
	"os"
	"path/filepath"
	"time"
)

var historyHeader = []string{"timestamp", "ip", "country_code", "public_key"}

const (
	lockStaleAfter   = 10 * time.Minute
	lockAttempts     = 5
	lockRetryBackoff = 200 * time.Millisecond
)

// AppendHistory appends one row per resolved node to the history file,
// creating it with a header first. Existing rows are never rewritten;
// the file only grows. A sidecar lock guards against an overlapping
// invocation interleaving partial appends.
func AppendHistory(path string, records []dataType.ScanRecord) error {
	if len(records) == 0 {
		return nil
	}

	release, err := acquireLock(path + ".lock")
	if err != nil {
		return err
	}
	defer release()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	writeHeader := false
	if info, err := os.Stat(path); os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		writeHeader = true
	} else if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("cannot open history file %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(historyHeader); err != nil {
			return err
		}
	}
	for _, rec := range records {
		row := []string{
			rec.Timestamp.UTC().Format(time.RFC3339),
			rec.IP,
			rec.CountryCode,
			rec.PubKey,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("history write failed: %w", err)
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("history sync failed: %w", err)
	}
	return nil
}

// acquireLock takes the sidecar lock via exclusive create. A lock older
// than lockStaleAfter is treated as left behind by a dead run and
// reclaimed.
func acquireLock(lockPath string) (func(), error) {
	for attempt := 0; attempt < lockAttempts; attempt++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return func() { os.Remove(lockPath) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("cannot create history lock %s: %w", lockPath, err)
		}

		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > lockStaleAfter {
			os.Remove(lockPath)
			continue
		}
		time.Sleep(lockRetryBackoff)
	}
	return nil, fmt.Errorf("history file is locked by another run: %s", lockPath)
}
