// Package worker processes receipt-scan jobs: fetch the stored image,
// run extraction, and persist the resulting expense.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"splitdash/internal/amqp"
	"splitdash/internal/core"
	"splitdash/internal/receipt"
	"splitdash/internal/store"
)

// ScanWorker turns pending scan jobs into draft expenses.
type ScanWorker struct {
	store     store.Store
	extractor receipt.Extractor
	batchSize int
}

func NewScanWorker(s store.Store, extractor receipt.Extractor, batchSize int) *ScanWorker {
	return &ScanWorker{
		store:     s,
		extractor: extractor,
		batchSize: batchSize,
	}
}

// HandleScanMessage processes a single scan-job message from AMQP.
// A failed extraction marks the job failed and acks the message; only
// infrastructure errors propagate so the delivery gets requeued.
func (w *ScanWorker) HandleScanMessage(ctx context.Context, msg *amqp.ScanJobMessage) error {
	slog.InfoContext(ctx, "Processing scan message",
		"job_id", msg.JobID,
		"user_id", msg.UserID)

	job, err := w.store.GetScanJob(ctx, msg.JobID)
	if err != nil {
		return fmt.Errorf("get scan job from storage: %w", err)
	}
	if job.State != store.ScanJobPending {
		slog.InfoContext(ctx, "Scan job already processed",
			"job_id", job.ID, "state", job.State)
		return nil
	}

	return w.process(ctx, job)
}

func (w *ScanWorker) process(ctx context.Context, job store.ScanJob) error {
	// The consumer and the periodic drain may both see the job as
	// pending; only the claim winner runs extraction.
	claimed, err := w.store.ClaimScanJob(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("claim scan job: %w", err)
	}
	if !claimed {
		slog.InfoContext(ctx, "Scan job claimed elsewhere", "job_id", job.ID)
		return nil
	}

	extraction, err := w.extractor.Extract(ctx, job.Image)
	if err != nil {
		if errors.Is(err, receipt.ErrExtractionFailed) {
			slog.WarnContext(ctx, "Extraction failed for scan job",
				"job_id", job.ID, "error", err)
			if markErr := w.store.FailScanJob(ctx, job.ID, err.Error()); markErr != nil {
				return fmt.Errorf("mark scan job failed: %w", markErr)
			}
			return nil
		}
		return fmt.Errorf("extract receipt: %w", err)
	}

	// The scanning user is both payer and, until edited, the only
	// participant of the draft.
	self := core.Participant{ID: job.UserID, Name: job.UserID}
	draft, err := extraction.Draft(job.UserID, []core.Participant{self})
	if err != nil {
		if markErr := w.store.FailScanJob(ctx, job.ID, err.Error()); markErr != nil {
			return fmt.Errorf("mark scan job failed: %w", markErr)
		}
		return nil
	}

	expense := draft.Expense(uuid.NewString(), core.StatusPending)
	if err := w.store.CreateExpense(ctx, job.UserID, expense); err != nil {
		return fmt.Errorf("store extracted expense: %w", err)
	}
	if err := w.store.CompleteScanJob(ctx, job.ID, expense.ID); err != nil {
		return fmt.Errorf("complete scan job: %w", err)
	}

	slog.InfoContext(ctx, "Scan job produced expense",
		"job_id", job.ID,
		"expense_id", expense.ID,
		"title", expense.Title,
		"amount_cents", expense.Amount.Cents)

	return nil
}

// ProcessPendingJobs drains pending jobs that never got a message, up
// to the batch size, with bounded concurrency. This is the recovery
// path for deliveries lost while the worker was down.
func (w *ScanWorker) ProcessPendingJobs(ctx context.Context) error {
	jobs, err := w.store.ListPendingScanJobs(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending scan jobs: %w", err)
	}
	if len(jobs) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending scan jobs", "count", len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, job := range jobs {
		g.Go(func() error {
			if err := w.process(ctx, job); err != nil {
				slog.ErrorContext(ctx, "Failed to process pending scan job",
					"job_id", job.ID, "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// RunPeriodic drains pending jobs on the given interval until ctx is
// cancelled.
func (w *ScanWorker) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping periodic scan processing", "reason", ctx.Err())
			return
		case <-ticker.C:
			if err := w.ProcessPendingJobs(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic scan processing failed", "error", err)
			}
		}
	}
}
