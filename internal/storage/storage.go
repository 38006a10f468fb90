// Package storage keeps a persistent history of dataset preparation
// runs. It uses BoltDB as the underlying storage engine so that
// operators can audit when a dataset was prepared, from which input,
// and with what row counts, and verify that reruns over the same
// input are reproducible via the recorded checksum.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const runsBucket = "runs" // Bucket name for preparation run records

// Run records one completed dataset preparation.
type Run struct {
	Ts           time.Time `json:"ts"`
	InputPath    string    `json:"input_path"`
	InputSHA256  string    `json:"input_sha256"`
	TrainPath    string    `json:"train_path"`
	TestPath     string    `json:"test_path"`
	BodyRows     int       `json:"body_rows"`
	TrainRows    int       `json:"train_rows"`
	TestRows     int       `json:"test_rows"`
	PositiveRows int       `json:"positive_rows"`
	DurationMs   int64     `json:"duration_ms"`
}

// Store provides persistent storage for run history using BoltDB.
type Store struct {
	db *bbolt.DB
}

// New creates a new storage instance with the specified data path.
// It initializes the BoltDB database and creates the runs bucket.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "recprep-runs.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(runsBucket)); err != nil {
			return fmt.Errorf("create runs bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StoreRun appends a run record. The key is the zero-padded UnixNano
// timestamp, so byte order equals chronological order for cursor scans.
func (s *Store) StoreRun(run Run) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))

		data, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("marshal run: %w", err)
		}

		return b.Put(runKey(run.Ts), data)
	})
}

// GetRuns retrieves all run records at or after the given time,
// ordered oldest first.
func (s *Store) GetRuns(since time.Time) ([]Run, error) {
	var runs []Run

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(runsBucket)).Cursor()

		for k, v := c.Seek(runKey(since)); k != nil; k, v = c.Next() {
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				continue // Skip malformed records
			}
			runs = append(runs, run)
		}

		return nil
	})

	return runs, err
}

// LastRun returns the most recent run record, or nil if the history
// is empty.
func (s *Store) LastRun() (*Run, error) {
	var last *Run

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(runsBucket)).Cursor()

		k, v := c.Last()
		if k == nil {
			return nil
		}

		var run Run
		if err := json.Unmarshal(v, &run); err != nil {
			return fmt.Errorf("unmarshal run: %w", err)
		}
		last = &run
		return nil
	})

	return last, err
}

func runKey(ts time.Time) []byte {
	return []byte(fmt.Sprintf("%020d", ts.UnixNano()))
}

// HashFile returns the hex SHA-256 of a file's contents. Used to
// record the input checksum alongside a run.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
