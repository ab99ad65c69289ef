// Package store defines the persistence ports for expenses, payments
// and scan jobs, plus the in-memory backend used by tests and local
// development.
package store

import (
	"context"
	"errors"
	"time"

	"splitdash/internal/core"
)

var (
	ErrExpenseNotFound = errors.New("expense not found")
	ErrScanJobNotFound = errors.New("scan job not found")
)

// ScanJobState is the lifecycle of a stored receipt-scan job.
type ScanJobState string

const (
	ScanJobPending    ScanJobState = "pending"
	ScanJobProcessing ScanJobState = "processing"
	ScanJobDone       ScanJobState = "done"
	ScanJobFailed     ScanJobState = "failed"
)

// ScanJob is a receipt image waiting for (or finished with) extraction.
// The image bytes live here, not on the queue.
type ScanJob struct {
	ID        string
	UserID    string
	Source    string
	Filename  string
	Image     []byte
	State     ScanJobState
	ExpenseID string // set when extraction produced an expense
	Error     string // set when extraction failed
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExpenseReader reads the expense collection for a user.
type ExpenseReader interface {
	ListExpenses(ctx context.Context, userID string) ([]core.Expense, error)
	GetExpense(ctx context.Context, id string) (core.Expense, error)
}

// ParticipantReader lists everyone who can be attached to an expense.
type ParticipantReader interface {
	ListParticipants(ctx context.Context) ([]core.Participant, error)
}

// ExpenseWriter mutates the expense collection.
type ExpenseWriter interface {
	CreateExpense(ctx context.Context, userID string, e core.Expense) error
	DeleteExpense(ctx context.Context, id string) error
}

// PaymentStore records and reads the payment ledger.
type PaymentStore interface {
	RecordPayment(ctx context.Context, p core.Payment) error
	ListPayments(ctx context.Context, expenseIDs ...string) ([]core.Payment, error)
}

// ScanJobStore persists receipt-scan jobs across the publish/consume
// boundary. ClaimScanJob moves a job from pending to processing and
// reports whether the caller won the claim; the queue consumer and the
// periodic drain both go through it so a job is only ever processed
// once.
type ScanJobStore interface {
	CreateScanJob(ctx context.Context, job ScanJob) error
	GetScanJob(ctx context.Context, id string) (ScanJob, error)
	ClaimScanJob(ctx context.Context, id string) (bool, error)
	CompleteScanJob(ctx context.Context, id, expenseID string) error
	FailScanJob(ctx context.Context, id, reason string) error
	ListPendingScanJobs(ctx context.Context, limit int) ([]ScanJob, error)
}

// Store is the unified persistence interface the HTTP layer and the
// scan worker program against.
type Store interface {
	ExpenseReader
	ParticipantReader
	ExpenseWriter
	PaymentStore
	ScanJobStore
}
