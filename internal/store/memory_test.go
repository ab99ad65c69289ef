package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"splitdash/internal/core"
)

func seededStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	if err := SeedDemoData(context.Background(), s); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

func TestSeedDemoData(t *testing.T) {
	s := seededStore(t)

	expenses, err := s.ListExpenses(context.Background(), DemoUserID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(expenses) != 4 {
		t.Fatalf("seeded %d expenses, want 4", len(expenses))
	}

	// Stored statuses must agree with what the ledger derives.
	for _, e := range expenses {
		payments, err := s.ListPayments(context.Background(), e.ID)
		if err != nil {
			t.Fatalf("payments for %s: %v", e.ID, err)
		}
		if derived := core.DeriveStatus(e, payments); derived != e.Status {
			t.Errorf("%s: stored status %q, ledger derives %q", e.ID, e.Status, derived)
		}
		if err := e.Validate(); err != nil {
			t.Errorf("%s: seeded expense invalid: %v", e.ID, err)
		}
	}
}

func TestCreateAndGetExpense(t *testing.T) {
	s := NewMemoryStore()
	people := demoParticipants()[:2]
	shares, _ := core.EqualShares(core.Money{Cents: 2000}, participantIDs(people))
	e := core.Expense{
		ID: "exp-new", Title: "Lunch", Date: core.NewDate(2024, 6, 1),
		Amount: core.Money{Cents: 2000}, PaidBy: "user-1",
		Participants: people, Status: core.StatusPending,
		Split: core.SplitEqual, Shares: shares,
	}

	if err := s.CreateExpense(context.Background(), "user-1", e); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := s.GetExpense(context.Background(), "exp-new")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Lunch" {
		t.Errorf("title = %q", got.Title)
	}
}

func TestListParticipantsCollectsRegistry(t *testing.T) {
	s := seededStore(t)

	people, err := s.ListParticipants(context.Background())
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(people) != 4 {
		t.Fatalf("registry has %d participants, want 4", len(people))
	}
	// Insertion order, no duplicates across shared expenses.
	if people[0].Name != "Alex" || people[1].Name != "Jamie" {
		t.Errorf("registry order = %q, %q", people[0].Name, people[1].Name)
	}

	empty := NewMemoryStore()
	people, err = empty.ListParticipants(context.Background())
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(people) != 0 {
		t.Errorf("empty store lists %d participants", len(people))
	}
}

func TestClaimScanJobIsExclusive(t *testing.T) {
	s := NewMemoryStore()
	err := s.CreateScanJob(context.Background(), ScanJob{
		ID: "job-1", UserID: "user-1", Source: "camera", Image: []byte("img"),
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	claimed, err := s.ClaimScanJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !claimed {
		t.Fatal("first claim should win")
	}

	claimed, err = s.ClaimScanJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if claimed {
		t.Error("second claim must lose")
	}

	// A claimed job no longer shows up in the pending drain.
	pending, _ := s.ListPendingScanJobs(context.Background(), 10)
	if len(pending) != 0 {
		t.Errorf("%d jobs pending after claim, want 0", len(pending))
	}

	if _, err := s.ClaimScanJob(context.Background(), "ghost"); !errors.Is(err, ErrScanJobNotFound) {
		t.Errorf("claiming unknown job: err = %v", err)
	}
}

func TestCreateExpenseRejectsInvalid(t *testing.T) {
	s := NewMemoryStore()
	err := s.CreateExpense(context.Background(), "user-1", core.Expense{ID: "bad"})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestDeleteExpenseIsSoft(t *testing.T) {
	s := seededStore(t)

	if err := s.DeleteExpense(context.Background(), "exp-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetExpense(context.Background(), "exp-1"); !errors.Is(err, ErrExpenseNotFound) {
		t.Errorf("deleted expense still readable: %v", err)
	}
	expenses, _ := s.ListExpenses(context.Background(), DemoUserID)
	if len(expenses) != 3 {
		t.Errorf("list returned %d expenses after delete, want 3", len(expenses))
	}

	if err := s.DeleteExpense(context.Background(), "exp-1"); !errors.Is(err, ErrExpenseNotFound) {
		t.Errorf("second delete should report not found, got %v", err)
	}
}

func TestRecordPaymentRequiresExpense(t *testing.T) {
	s := NewMemoryStore()
	err := s.RecordPayment(context.Background(), core.Payment{
		ID: "pay-x", ExpenseID: "ghost", ParticipantID: "user-1",
		Amount: core.Money{Cents: 100}, PaidAt: time.Now(),
	})
	if !errors.Is(err, ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound, got %v", err)
	}
}

func TestListPaymentsFiltersByExpense(t *testing.T) {
	s := seededStore(t)

	payments, err := s.ListPayments(context.Background(), "exp-2")
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(payments) != 1 || payments[0].ExpenseID != "exp-2" {
		t.Errorf("payments = %+v", payments)
	}

	all, err := s.ListPayments(context.Background())
	if err != nil {
		t.Fatalf("list all payments: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("total payments = %d, want 2", len(all))
	}
}

func TestScanJobLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	job := ScanJob{ID: "job-1", UserID: "user-1", Source: "camera", Image: []byte("img")}
	if err := s.CreateScanJob(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}

	got, err := s.GetScanJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.State != ScanJobPending {
		t.Errorf("new job state = %q, want pending", got.State)
	}

	pending, err := s.ListPendingScanJobs(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}

	if err := s.CompleteScanJob(ctx, "job-1", "exp-9"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, _ = s.GetScanJob(ctx, "job-1")
	if got.State != ScanJobDone || got.ExpenseID != "exp-9" {
		t.Errorf("completed job = %+v", got)
	}

	pending, _ = s.ListPendingScanJobs(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("completed job still pending")
	}
}

func TestFailScanJobRecordsReason(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.CreateScanJob(ctx, ScanJob{ID: "job-1", UserID: "user-1", Image: []byte("img")}); err != nil {
		t.Fatalf("create job: %v", err)
	}
	if err := s.FailScanJob(ctx, "job-1", "extraction failed"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	got, _ := s.GetScanJob(ctx, "job-1")
	if got.State != ScanJobFailed || got.Error != "extraction failed" {
		t.Errorf("failed job = %+v", got)
	}

	if err := s.FailScanJob(ctx, "ghost", "x"); !errors.Is(err, ErrScanJobNotFound) {
		t.Errorf("expected ErrScanJobNotFound, got %v", err)
	}
}
