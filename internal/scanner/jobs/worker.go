package jobs

import (
	"context"
	"errors"

	"github.com/biznesyordam/scanner-service/internal/queue"
	"github.com/biznesyordam/scanner-service/internal/scanner/events"
)

// StartWorker drains the task queue until the context is cancelled or the
// queue is closed. One worker is enough: pacing against the AI backend is
// the bottleneck, not CPU.
func (m *Manager) StartWorker(ctx context.Context) {
	m.logger.Info("job worker started")

	for {
		task, err := m.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, queue.ErrQueueClosed) {
				m.logger.Info("job worker stopping")
				return
			}
			m.logger.Error("failed to pop task", "error", err)
			continue
		}

		if err := m.limiter.Wait(ctx); err != nil {
			m.logger.Info("job worker stopping")
			return
		}

		m.processTask(ctx, task)
	}
}

// processTask runs one batch item through the pipeline and updates the job
// counters.
func (m *Manager) processTask(ctx context.Context, task *queue.Task) {
	m.markJobRunning(ctx, task.JobID)

	result, err := m.pipeline.Process(ctx, task.Request)
	if err != nil {
		m.logger.Error("batch item failed", "job", task.JobID, "task", task.ID, "error", err)
		m.recordItemResult(ctx, task.JobID, false)
		return
	}

	scan := NewScanRecord(task.Request, result, "batch")

	if err := m.scans.Insert(ctx, scan); err != nil {
		m.logger.Error("failed to record batch scan", "job", task.JobID, "error", err)
	} else if err := m.publisher.PublishScanCompleted(ctx, &events.ScanCompletedPayload{
		ScanID:          scan.ID.String(),
		PartnerID:       scan.PartnerID,
		ProductName:     scan.ProductName,
		Brand:           scan.Brand,
		Category:        scan.Category,
		SKU:             scan.SKU,
		IKPUCode:        scan.IKPUCode,
		OptimalPrice:    scan.OptimalPrice,
		ActualMargin:    scan.ActualMargin,
		SEOScore:        scan.SEOScore,
		ValidationScore: scan.ValidationScore,
		Source:          "batch",
	}); err != nil {
		m.logger.Error("failed to publish scan event", "job", task.JobID, "error", err)
	}

	m.recordItemResult(ctx, task.JobID, true)
}

// markJobRunning flips a pending job to running on its first item.
func (m *Manager) markJobRunning(ctx context.Context, jobID string) {
	_, err := m.db.Exec(ctx, `
		UPDATE scan_jobs
		SET status = 'running', started_at = NOW()
		WHERE id = $1 AND status = 'pending'`, jobID)
	if err != nil {
		m.logger.Error("failed to mark job running", "job", jobID, "error", err)
	}
}

// recordItemResult bumps the job counters and completes the job once every
// item is accounted for.
func (m *Manager) recordItemResult(ctx context.Context, jobID string, ok bool) {
	column := "items_done"
	if !ok {
		column = "items_failed"
	}

	query := `
		UPDATE scan_jobs
		SET ` + column + ` = ` + column + ` + 1
		WHERE id = $1`
	if _, err := m.db.Exec(ctx, query, jobID); err != nil {
		m.logger.Error("failed to update job progress", "job", jobID, "error", err)
		return
	}

	_, err := m.db.Exec(ctx, `
		UPDATE scan_jobs
		SET status = 'completed', completed_at = NOW()
		WHERE id = $1
			AND status = 'running'
			AND items_done + items_failed >= items_total`, jobID)
	if err != nil {
		m.logger.Error("failed to finalize job", "job", jobID, "error", err)
		return
	}

	m.logger.Info("batch item processed", "job", jobID, "ok", ok)
}
