package discovery

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Ledger is the append-only record of app ids that reached a terminal
// evaluation (success or permanent failure). The physical log may contain
// duplicates; Load collapses it to a set. Single-writer only: nothing here
// guards against two concurrent runs appending to the same file.
type Ledger struct {
	path string
	f    *os.File
}

// OpenLedger opens (creating if needed) the ledger file for appending.
func OpenLedger(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &Ledger{path: path, f: f}, nil
}

// Load reads the whole log into a set. Blank or malformed lines (a torn
// write from a crash) are skipped rather than treated as corruption.
func (l *Ledger) Load() (map[int64]struct{}, error) {
	ids := make(map[int64]struct{})

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ids, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			continue
		}
		ids[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

// Record appends one id and syncs it to stable storage before returning, so
// an interruption right after leaves the ledger consistent with exactly the
// entries that actually finished. Recording the same id twice is harmless.
func (l *Ledger) Record(id int64) error {
	if _, err := fmt.Fprintf(l.f, "%d\n", id); err != nil {
		return err
	}
	return l.f.Sync()
}

func (l *Ledger) Close() error {
	if l == nil || l.f == nil {
		return nil
	}
	return l.f.Close()
}
