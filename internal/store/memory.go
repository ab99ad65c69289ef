package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"splitdash/internal/core"
)

// MemoryStore is a mutex-protected in-memory Store. It backs local
// development and tests, and can be pre-seeded with demo data.
type MemoryStore struct {
	mu           sync.RWMutex
	expenses     []core.Expense     // insertion order preserved
	owners       map[string]string  // expense id -> user id
	deleted      map[string]bool    // soft-deleted expense ids
	participants []core.Participant // registry, insertion order
	knownPeople  map[string]bool
	payments     []core.Payment
	jobs         map[string]ScanJob
	jobOrder     []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		owners:      make(map[string]string),
		deleted:     make(map[string]bool),
		knownPeople: make(map[string]bool),
		jobs:        make(map[string]ScanJob),
	}
}

func (m *MemoryStore) ListExpenses(_ context.Context, userID string) ([]core.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Expense, 0, len(m.expenses))
	for _, e := range m.expenses {
		if m.deleted[e.ID] {
			continue
		}
		if userID != "" && m.owners[e.ID] != userID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *MemoryStore) GetExpense(_ context.Context, id string) (core.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.deleted[id] {
		return core.Expense{}, ErrExpenseNotFound
	}
	for _, e := range m.expenses {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, ErrExpenseNotFound
}

func (m *MemoryStore) CreateExpense(_ context.Context, userID string, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses = append(m.expenses, e)
	m.owners[e.ID] = userID
	for _, p := range e.Participants {
		if !m.knownPeople[p.ID] {
			m.knownPeople[p.ID] = true
			m.participants = append(m.participants, p)
		}
	}
	return nil
}

func (m *MemoryStore) ListParticipants(_ context.Context) ([]core.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Participant, len(m.participants))
	copy(out, m.participants)
	return out, nil
}

func (m *MemoryStore) DeleteExpense(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.expenses {
		if e.ID == id && !m.deleted[id] {
			m.deleted[id] = true
			return nil
		}
	}
	return ErrExpenseNotFound
}

func (m *MemoryStore) RecordPayment(_ context.Context, p core.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	for _, e := range m.expenses {
		if e.ID == p.ExpenseID && !m.deleted[e.ID] {
			found = true
			break
		}
	}
	if !found {
		return ErrExpenseNotFound
	}

	m.payments = append(m.payments, p)
	return nil
}

func (m *MemoryStore) ListPayments(_ context.Context, expenseIDs ...string) ([]core.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(expenseIDs) == 0 {
		out := make([]core.Payment, len(m.payments))
		copy(out, m.payments)
		return out, nil
	}

	want := make(map[string]bool, len(expenseIDs))
	for _, id := range expenseIDs {
		want[id] = true
	}
	var out []core.Payment
	for _, p := range m.payments {
		if want[p.ExpenseID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) CreateScanJob(_ context.Context, job ScanJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	if job.State == "" {
		job.State = ScanJobPending
	}
	if _, exists := m.jobs[job.ID]; !exists {
		m.jobOrder = append(m.jobOrder, job.ID)
	}
	m.jobs[job.ID] = job
	return nil
}

func (m *MemoryStore) GetScanJob(_ context.Context, id string) (ScanJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return ScanJob{}, ErrScanJobNotFound
	}
	return job, nil
}

func (m *MemoryStore) ClaimScanJob(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return false, ErrScanJobNotFound
	}
	if job.State != ScanJobPending {
		return false, nil
	}
	job.State = ScanJobProcessing
	job.UpdatedAt = time.Now()
	m.jobs[id] = job
	return true, nil
}

func (m *MemoryStore) CompleteScanJob(_ context.Context, id, expenseID string) error {
	return m.updateJob(id, func(job *ScanJob) {
		job.State = ScanJobDone
		job.ExpenseID = expenseID
		job.Error = ""
	})
}

func (m *MemoryStore) FailScanJob(_ context.Context, id, reason string) error {
	return m.updateJob(id, func(job *ScanJob) {
		job.State = ScanJobFailed
		job.Error = reason
	})
}

func (m *MemoryStore) updateJob(id string, apply func(*ScanJob)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return ErrScanJobNotFound
	}
	apply(&job)
	job.UpdatedAt = time.Now()
	m.jobs[id] = job
	return nil
}

func (m *MemoryStore) ListPendingScanJobs(_ context.Context, limit int) ([]ScanJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ScanJob
	for _, id := range m.jobOrder {
		job := m.jobs[id]
		if job.State != ScanJobPending {
			continue
		}
		out = append(out, job)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
