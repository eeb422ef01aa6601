// Package storage persists scan reports to a local bbolt database with
// an in-memory btree index over scan start times for fast latest/listing
// queries.
package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/btree"
	"go.etcd.io/bbolt"

	"github.com/kulucloud/kulu/types"
)

// Bucket names in bbolt
var (
	bucketReports = []byte("reports")
	bucketMeta    = []byte("meta")
)

// scanEntry is one report's index record, ordered by start time then ID
// so listing newest-first is a descending btree walk.
type scanEntry struct {
	StartedAt time.Time
	ScanID    string
}

func entryLess(a, b scanEntry) bool {
	if !a.StartedAt.Equal(b.StartedAt) {
		return a.StartedAt.Before(b.StartedAt)
	}
	return a.ScanID < b.ScanID
}

// ReportStore is the bbolt-backed scan report archive.
type ReportStore struct {
	mu sync.RWMutex

	// In-memory index for time-ordered lookups
	index *btree.BTreeG[scanEntry]

	// On-disk storage
	db *bbolt.DB

	dir string
}

// Open opens (or creates) the report database under dir.
func Open(dir string) (*ReportStore, error) {
	dbPath := filepath.Join(dir, "kulu.db")

	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{bucketReports, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	store := &ReportStore{
		index: btree.NewG[scanEntry](32, entryLess),
		db:    db,
		dir:   dir,
	}

	if err := store.rebuildIndex(); err != nil {
		db.Close()
		return nil, fmt.Errorf("rebuilding scan index: %w", err)
	}

	return store, nil
}

// Close closes the store.
func (s *ReportStore) Close() error {
	return s.db.Close()
}

// Put persists one report, keyed by scan ID.
func (s *ReportStore) Put(report *types.ScanReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report %s: %w", report.ScanID, err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketReports).Put([]byte(report.ScanID), value)
	})
	if err != nil {
		return err
	}

	s.index.ReplaceOrInsert(scanEntry{StartedAt: report.StartedAt, ScanID: report.ScanID})
	return nil
}

// Get loads one report by scan ID.
func (s *ReportStore) Get(scanID string) (*types.ScanReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var report *types.ScanReport
	err := s.db.View(func(tx *bbolt.Tx) error {
		value := tx.Bucket(bucketReports).Get([]byte(scanID))
		if value == nil {
			return fmt.Errorf("report %s not found", scanID)
		}
		report = &types.ScanReport{}
		return json.Unmarshal(value, report)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Latest returns the most recently started report.
func (s *ReportStore) Latest() (*types.ScanReport, error) {
	s.mu.RLock()
	entry, ok := s.index.Max()
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no reports stored")
	}
	return s.Get(entry.ScanID)
}

// List returns up to n reports, newest first.
func (s *ReportStore) List(n int) ([]*types.ScanReport, error) {
	s.mu.RLock()
	ids := make([]string, 0, n)
	s.index.Descend(func(entry scanEntry) bool {
		ids = append(ids, entry.ScanID)
		return len(ids) < n
	})
	s.mu.RUnlock()

	reports := make([]*types.ScanReport, 0, len(ids))
	for _, id := range ids {
		report, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Previous returns the newest report started before the given one, for
// scan-over-scan diffing. ok=false when it is the oldest report.
func (s *ReportStore) Previous(report *types.ScanReport) (*types.ScanReport, bool) {
	s.mu.RLock()
	var prev scanEntry
	found := false
	pivot := scanEntry{StartedAt: report.StartedAt, ScanID: report.ScanID}
	s.index.DescendLessOrEqual(pivot, func(entry scanEntry) bool {
		if entry.ScanID == report.ScanID {
			return true
		}
		prev = entry
		found = true
		return false
	})
	s.mu.RUnlock()

	if !found {
		return nil, false
	}
	loaded, err := s.Get(prev.ScanID)
	if err != nil {
		return nil, false
	}
	return loaded, true
}

// Prune deletes all but the newest keep reports.
func (s *ReportStore) Prune(keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var victims []scanEntry
	seen := 0
	s.index.Descend(func(entry scanEntry) bool {
		seen++
		if seen > keep {
			victims = append(victims, entry)
		}
		return true
	})
	if len(victims) == 0 {
		return nil
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketReports)
		for _, victim := range victims {
			if err := bucket.Delete([]byte(victim.ScanID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, victim := range victims {
		s.index.Delete(victim)
	}
	return nil
}

// rebuildIndex scans the reports bucket and reconstructs the time index.
func (s *ReportStore) rebuildIndex() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketReports).ForEach(func(k, v []byte) error {
			var header struct {
				ScanID    string    `json:"scan_id"`
				StartedAt time.Time `json:"started_at"`
			}
			if err := json.Unmarshal(v, &header); err != nil {
				return fmt.Errorf("corrupt report %s: %w", string(k), err)
			}
			s.index.ReplaceOrInsert(scanEntry{StartedAt: header.StartedAt, ScanID: header.ScanID})
			return nil
		})
	})
}
