package memograph

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/soundprediction/memograph/pkg/checkpoint"
	"github.com/soundprediction/memograph/pkg/events"
)

// previewCap bounds the truncated input text carried in progress reports and
// batch errors.
const previewCap = 200

// Progress describes the state of a batch after one item finished.
type Progress struct {
	// Index is the zero-based index of the just-processed item.
	Index int
	// Total is the number of items in the batch.
	Total int
	// Completed and Failed are running counts including this item.
	Completed int
	Failed    int
	// Preview is the just-processed text, truncated.
	Preview string
	// ETA estimates time remaining from elapsed time and completed count.
	// Nil until at least one item has completed successfully.
	ETA *time.Duration
}

// ProgressFunc receives a progress report synchronously after every item.
type ProgressFunc func(Progress)

// BatchOptions holds the optional parameters of a LearnBatch call.
type BatchOptions struct {
	// ContextName labels the per-item context records.
	ContextName string
	// ValidFrom and ValidTo are forwarded to every item's Learn call.
	ValidFrom *time.Time
	ValidTo   *time.Time
	// Progress, when set, is invoked after each item.
	Progress ProgressFunc
	// Checkpoint and BatchID enable resume: items whose scope and text are
	// already marked complete under BatchID are skipped, and successes are
	// marked as they finish.
	Checkpoint *checkpoint.Store
	BatchID    string
}

// BatchError records one failed item. The batch itself never fails because
// of it.
type BatchError struct {
	Index int    `json:"index"`
	Input string `json:"input"`
	Err   error  `json:"-"`
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("item %d (%q): %v", e.Index, e.Input, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// BatchSummary aggregates outcomes across all items of a batch.
type BatchSummary struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Created   CreatedCounts `json:"created"`
	Reused    ReusedCounts  `json:"reused"`
}

// BatchResult is the outcome of a LearnBatch call. Results is indexed like
// the input items; failed or skipped items hold nil.
type BatchResult struct {
	Results []*LearnResult `json:"results"`
	Summary BatchSummary   `json:"summary"`
	Errors  []*BatchError  `json:"errors,omitempty"`
}

// LearnBatch ingests items strictly sequentially. Each item fully completes,
// success or failure, before the next begins; a failing item is recorded in
// Errors and processing continues. Requires a configured scope up front.
func (c *Client) LearnBatch(ctx context.Context, items []string, options *BatchOptions) (*BatchResult, error) {
	if _, err := c.requireScope(ctx); err != nil {
		return nil, err
	}
	if options == nil {
		options = &BatchOptions{}
	}
	if options.Checkpoint != nil && options.BatchID == "" {
		return nil, checkpoint.ErrEmptyBatchID
	}

	result := &BatchResult{
		Results: make([]*LearnResult, len(items)),
		Summary: BatchSummary{Total: len(items)},
	}
	started := time.Now()

	for i, text := range items {
		if options.Checkpoint != nil {
			done, err := options.Checkpoint.IsCompleted(options.BatchID, c.config.ScopeID, text)
			if err != nil {
				return nil, err
			}
			if done {
				result.Summary.Skipped++
				c.logger.Debug("skipping checkpointed item", "batch_id", options.BatchID, "index", i)
				continue
			}
		}

		learnResult, err := c.Learn(ctx, text, &LearnOptions{
			ContextName: options.ContextName,
			ValidFrom:   options.ValidFrom,
			ValidTo:     options.ValidTo,
		})
		if err != nil {
			result.Summary.Failed++
			result.Errors = append(result.Errors, &BatchError{
				Index: i,
				Input: truncate(text, previewCap),
				Err:   err,
			})
			c.logger.Warn("batch item failed", "index", i, "error", err)
		} else {
			result.Summary.Succeeded++
			result.Results[i] = learnResult
			result.Summary.Created.Add(learnResult.Created)
			result.Summary.Reused.Add(learnResult.Reused)
			if options.Checkpoint != nil {
				if err := options.Checkpoint.MarkCompleted(options.BatchID, c.config.ScopeID, text, learnResult.Document.ID); err != nil {
					c.logger.Warn("failed to checkpoint item", "batch_id", options.BatchID, "index", i, "error", err)
				}
			}
		}

		c.emitter.Emit(events.Event{
			Type:    events.TypeBatchItemDone,
			ScopeID: c.config.ScopeID,
			Payload: map[string]interface{}{
				"index":     i,
				"total":     len(items),
				"succeeded": err == nil,
			},
		})

		if options.Progress != nil {
			options.Progress(Progress{
				Index:     i,
				Total:     len(items),
				Completed: result.Summary.Succeeded,
				Failed:    result.Summary.Failed,
				Preview:   truncate(text, previewCap),
				ETA:       estimateRemaining(started, result.Summary.Succeeded, len(items), i),
			})
		}
	}

	c.logger.Info("batch finished",
		"total", result.Summary.Total,
		"succeeded", result.Summary.Succeeded,
		"failed", result.Summary.Failed,
		"skipped", result.Summary.Skipped,
		"elapsed", time.Since(started))
	return result, nil
}

// estimateRemaining projects time left from the average duration of completed
// items. Returns nil before the first successful completion.
func estimateRemaining(started time.Time, completed, total, index int) *time.Duration {
	if completed == 0 {
		return nil
	}
	elapsed := time.Since(started)
	perItem := elapsed / time.Duration(completed)
	remaining := perItem * time.Duration(total-index-1)
	return &remaining
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
