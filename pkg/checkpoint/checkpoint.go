// Package checkpoint tracks per-item completion of ingestion batches so an
// interrupted batch can resume without re-learning finished items.
package checkpoint

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// ErrEmptyBatchID is returned when a batch id is missing.
var ErrEmptyBatchID = errors.New("batch id cannot be empty")

// ItemRecord is the stored state of one completed batch item. Items are
// keyed by scope and text content, not by position, so a resumed run with a
// reordered or edited item list only skips texts that actually finished.
type ItemRecord struct {
	BatchID     string    `json:"batch_id"`
	ScopeID     string    `json:"scope_id"`
	TextHash    string    `json:"text_hash"`
	DocumentID  string    `json:"document_id,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// Store persists batch item completion markers in an embedded Badger
// database.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens (or creates) a checkpoint store under dir. An empty dir falls
// back to a directory under the system temp dir.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "memograph-checkpoints")
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint store: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func textHash(scopeID, text string) string {
	sum := sha256.Sum256([]byte(scopeID + "\x00" + text))
	return fmt.Sprintf("%x", sum)
}

func itemKey(batchID, scopeID, text string) []byte {
	return []byte(fmt.Sprintf("batch/%s/%s", batchID, textHash(scopeID, text)))
}

// MarkCompleted records that the item with the given text finished
// successfully under batchID and scopeID.
func (s *Store) MarkCompleted(batchID, scopeID, text, documentID string) error {
	if batchID == "" {
		return ErrEmptyBatchID
	}
	rec := ItemRecord{
		BatchID:     batchID,
		ScopeID:     scopeID,
		TextHash:    textHash(scopeID, text),
		DocumentID:  documentID,
		CompletedAt: time.Now().UTC(),
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint record: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(itemKey(batchID, scopeID, text), value)
	})
}

// IsCompleted reports whether the item with the given text already finished
// under batchID and scopeID.
func (s *Store) IsCompleted(batchID, scopeID, text string) (bool, error) {
	if batchID == "" {
		return false, ErrEmptyBatchID
	}
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(itemKey(batchID, scopeID, text))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	return true, nil
}

// CompletedCount returns how many items of batchID have completion markers.
func (s *Store) CompletedCount(batchID string) (int, error) {
	if batchID == "" {
		return 0, ErrEmptyBatchID
	}
	prefix := []byte(fmt.Sprintf("batch/%s/", batchID))
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count checkpoints: %w", err)
	}
	return count, nil
}

// Clear removes all completion markers for batchID, typically after the
// batch finishes cleanly.
func (s *Store) Clear(batchID string) error {
	if batchID == "" {
		return ErrEmptyBatchID
	}
	prefix := []byte(fmt.Sprintf("batch/%s/", batchID))
	return s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
