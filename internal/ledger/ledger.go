// Package ledger persists the executor's trades, orders and paper balance as
// a single JSON document.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"dipper/internal/logger"
)

// File writes the whole ledger on every save. Writes go to a temp file in the
// same directory followed by an atomic rename, so a crash mid-write leaves the
// previous ledger intact.
type File struct {
	path string
}

func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	return &File{path: path}, nil
}

func (f *File) Path() string { return f.path }

// Save serializes v and atomically replaces the ledger file.
func (f *File) Save(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

// LoadBalance restores only the paper_balance mapping. Trades and orders are
// persisted but never replayed into memory on startup. Parsing is lenient: a
// missing, corrupt or partial file reports no balance rather than failing.
func (f *File) LoadBalance() (map[string]float64, bool) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("ledger: read %s failed: %v", f.path, err)
		}
		return nil, false
	}
	raw := string(data)
	if !gjson.Valid(raw) {
		logger.Warnf("ledger: %s is not valid json, ignoring", f.path)
		return nil, false
	}
	node := gjson.Get(raw, "paper_balance")
	if !node.Exists() || !node.IsObject() {
		logger.Warnf("ledger: %s has no paper_balance object, ignoring", f.path)
		return nil, false
	}
	balance := make(map[string]float64)
	node.ForEach(func(key, value gjson.Result) bool {
		balance[key.String()] = value.Float()
		return true
	})
	if len(balance) == 0 {
		return nil, false
	}
	return balance, true
}
