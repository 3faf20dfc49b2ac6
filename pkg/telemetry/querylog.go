// Package telemetry persists per-query retrieval statistics as Parquet files
// for offline analysis.
package telemetry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"

	"github.com/soundprediction/memograph/pkg/types"
)

// QueryRecord is a single query measurement in Parquet storage.
type QueryRecord struct {
	ID                    string    `parquet:"id"`
	Timestamp             time.Time `parquet:"timestamp"`
	ScopeID               string    `parquet:"scope_id"`
	Query                 string    `parquet:"query"`
	Strategy              string    `parquet:"strategy"`
	DocumentsFound        int32     `parquet:"documents_found"`
	EntitiesFound         int32     `parquet:"entities_found"`
	SubgraphEntities      int32     `parquet:"subgraph_entities"`
	SubgraphRelationships int32     `parquet:"subgraph_relationships"`
	SearchMillis          int64     `parquet:"search_millis"`
	SubgraphMillis        int64     `parquet:"subgraph_millis"`
	AnswerMillis          int64     `parquet:"answer_millis"`
	TotalMillis           int64     `parquet:"total_millis"`
}

// QueryLog buffers query records and flushes them to timestamped Parquet
// files. Record never blocks a query on disk I/O failure; write errors are
// logged and the batch dropped.
type QueryLog struct {
	outputDir string
	batchSize int
	logger    *slog.Logger

	mu     sync.Mutex
	buffer []QueryRecord
}

// NewQueryLog creates a query log writing under outputDir.
func NewQueryLog(outputDir string, logger *slog.Logger) (*QueryLog, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryLog{
		outputDir: outputDir,
		batchSize: 100,
		logger:    logger,
		buffer:    make([]QueryRecord, 0, 100),
	}, nil
}

// Record buffers one query measurement, flushing when the batch fills.
func (q *QueryLog) Record(scopeID, query, strategy string, stats types.QueryStatistics) {
	rec := QueryRecord{
		ID:                    uuid.New().String(),
		Timestamp:             time.Now().UTC(),
		ScopeID:               scopeID,
		Query:                 query,
		Strategy:              strategy,
		DocumentsFound:        int32(stats.DocumentsFound),
		EntitiesFound:         int32(stats.EntitiesFound),
		SubgraphEntities:      int32(stats.SubgraphEntities),
		SubgraphRelationships: int32(stats.SubgraphRelationships),
		SearchMillis:          stats.SearchTime.Milliseconds(),
		SubgraphMillis:        stats.SubgraphTime.Milliseconds(),
		AnswerMillis:          stats.AnswerTime.Milliseconds(),
		TotalMillis:           stats.TotalTime.Milliseconds(),
	}

	q.mu.Lock()
	q.buffer = append(q.buffer, rec)
	shouldFlush := len(q.buffer) >= q.batchSize
	q.mu.Unlock()

	if shouldFlush {
		if err := q.Flush(); err != nil {
			q.logger.Error("failed to flush query telemetry", "error", err)
		}
	}
}

// Flush writes buffered records to a new Parquet file.
func (q *QueryLog) Flush() error {
	q.mu.Lock()
	if len(q.buffer) == 0 {
		q.mu.Unlock()
		return nil
	}
	batch := q.buffer
	q.buffer = make([]QueryRecord, 0, q.batchSize)
	q.mu.Unlock()

	filename := filepath.Join(q.outputDir, fmt.Sprintf("queries_%s.parquet", time.Now().UTC().Format("20060102_150405.000")))
	if err := parquet.WriteFile(filename, batch); err != nil {
		return fmt.Errorf("failed to write parquet file %s: %w", filename, err)
	}
	return nil
}

// Close flushes any remaining buffered records.
func (q *QueryLog) Close() error {
	return q.Flush()
}
