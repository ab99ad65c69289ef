// Package storage is the SQLite persistence backend. It implements the
// same ports as the in-memory store, with embedded migrations run at
// open time.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"splitdash/internal/core"
	"splitdash/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const dateLayout = "2006-01-02"

func (r *SQLiteRepository) CreateExpense(ctx context.Context, userID string, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}

	itemsJSON, err := json.Marshal(e.Items)
	if err != nil {
		return fmt.Errorf("marshal line items: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, title, description, expense_date,
			amount_cents, paid_by, split_method, status, items_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, userID, e.Title, e.Description, e.Date.Format(dateLayout),
		e.Amount.Cents, e.PaidBy, string(e.Split), string(e.Status), string(itemsJSON))
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	for _, p := range e.Participants {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO participants (id, name, avatar_url) VALUES (?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name, avatar_url = excluded.avatar_url`,
			p.ID, p.Name, p.AvatarURL)
		if err != nil {
			return fmt.Errorf("upsert participant %s: %w", p.ID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO expense_participants (expense_id, participant_id, share_cents)
			VALUES (?, ?, ?)`,
			e.ID, p.ID, e.Shares[p.ID].Cents)
		if err != nil {
			return fmt.Errorf("insert share for %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"title", e.Title,
		"amount_cents", e.Amount.Cents,
		"participants", len(e.Participants))

	return nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	expenses, err := r.queryExpenses(ctx,
		`WHERE e.id = ? AND e.deleted_at IS NULL`, id)
	if err != nil {
		return core.Expense{}, err
	}
	if len(expenses) == 0 {
		return core.Expense{}, store.ErrExpenseNotFound
	}
	return expenses[0], nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	return r.queryExpenses(ctx,
		`WHERE e.user_id = ? AND e.deleted_at IS NULL ORDER BY e.created_at`, userID)
}

func (r *SQLiteRepository) queryExpenses(ctx context.Context, where string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.id, e.title, e.description, e.expense_date, e.amount_cents,
			e.paid_by, e.split_method, e.status, e.items_json
		FROM expenses e `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var (
			e           core.Expense
			dateStr     string
			amountCents int64
			split       string
			status      string
			itemsJSON   string
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &dateStr,
			&amountCents, &e.PaidBy, &split, &status, &itemsJSON); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Date, err = core.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("stored date %q: %w", dateStr, err)
		}
		e.Amount = core.Money{Cents: amountCents}
		e.Split = core.SplitMethod(split)
		e.Status = core.Status(status)
		if err := json.Unmarshal([]byte(itemsJSON), &e.Items); err != nil {
			return nil, fmt.Errorf("unmarshal line items for %s: %w", e.ID, err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	for i := range expenses {
		if err := r.loadParticipants(ctx, &expenses[i]); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

func (r *SQLiteRepository) loadParticipants(ctx context.Context, e *core.Expense) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.avatar_url, ep.share_cents
		FROM expense_participants ep
		JOIN participants p ON p.id = ep.participant_id
		WHERE ep.expense_id = ?
		ORDER BY p.name`, e.ID)
	if err != nil {
		return fmt.Errorf("query participants for %s: %w", e.ID, err)
	}
	defer rows.Close()

	e.Shares = make(map[string]core.Money)
	for rows.Next() {
		var p core.Participant
		var shareCents int64
		if err := rows.Scan(&p.ID, &p.Name, &p.AvatarURL, &shareCents); err != nil {
			return fmt.Errorf("scan participant: %w", err)
		}
		e.Participants = append(e.Participants, p)
		e.Shares[p.ID] = core.Money{Cents: shareCents}
	}
	return rows.Err()
}

func (r *SQLiteRepository) ListParticipants(ctx context.Context) ([]core.Participant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, avatar_url FROM participants ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	var people []core.Participant
	for rows.Next() {
		var p core.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		people = append(people, p)
	}
	return people, rows.Err()
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET deleted_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrExpenseNotFound
	}

	slog.InfoContext(ctx, "Expense soft-deleted", "id", id)
	return nil
}

func (r *SQLiteRepository) RecordPayment(ctx context.Context, p core.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}

	var exists int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM expenses WHERE id = ? AND deleted_at IS NULL`,
		p.ExpenseID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check expense: %w", err)
	}
	if exists == 0 {
		return store.ErrExpenseNotFound
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO payments (id, expense_id, participant_id, amount_cents, paid_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.ExpenseID, p.ParticipantID, p.Amount.Cents, p.PaidAt.UTC())
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	slog.InfoContext(ctx, "Payment recorded",
		"id", p.ID,
		"expense_id", p.ExpenseID,
		"participant_id", p.ParticipantID,
		"amount_cents", p.Amount.Cents)

	return nil
}

func (r *SQLiteRepository) ListPayments(ctx context.Context, expenseIDs ...string) ([]core.Payment, error) {
	query := `SELECT id, expense_id, participant_id, amount_cents, paid_at FROM payments`
	var args []any
	if len(expenseIDs) > 0 {
		query += ` WHERE expense_id IN (?` + strings.Repeat(",?", len(expenseIDs)-1) + `)`
		for _, id := range expenseIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY paid_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var payments []core.Payment
	for rows.Next() {
		var p core.Payment
		var amountCents int64
		if err := rows.Scan(&p.ID, &p.ExpenseID, &p.ParticipantID, &amountCents, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Amount = core.Money{Cents: amountCents}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *SQLiteRepository) CreateScanJob(ctx context.Context, job store.ScanJob) error {
	state := job.State
	if state == "" {
		state = store.ScanJobPending
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scan_jobs (id, user_id, source, filename, image, state)
		VALUES (?, ?, ?, ?, ?, ?)`,
		job.ID, job.UserID, job.Source, job.Filename, job.Image, string(state))
	if err != nil {
		return fmt.Errorf("insert scan job: %w", err)
	}

	slog.InfoContext(ctx, "Scan job stored",
		"id", job.ID,
		"user_id", job.UserID,
		"source", job.Source,
		"image_bytes", len(job.Image))

	return nil
}

func (r *SQLiteRepository) GetScanJob(ctx context.Context, id string) (store.ScanJob, error) {
	var (
		job   store.ScanJob
		state string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, source, filename, image, state, expense_id, error,
			created_at, updated_at
		FROM scan_jobs WHERE id = ?`, id).Scan(
		&job.ID, &job.UserID, &job.Source, &job.Filename, &job.Image,
		&state, &job.ExpenseID, &job.Error, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ScanJob{}, store.ErrScanJobNotFound
	}
	if err != nil {
		return store.ScanJob{}, fmt.Errorf("get scan job: %w", err)
	}
	job.State = store.ScanJobState(state)
	return job, nil
}

// ClaimScanJob wins or loses the job in a single conditional update, so
// the queue consumer and the periodic drain cannot both process it.
func (r *SQLiteRepository) ClaimScanJob(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scan_jobs SET state = ?, updated_at = ?
		WHERE id = ? AND state = ?`,
		string(store.ScanJobProcessing), time.Now().UTC(), id, string(store.ScanJobPending))
	if err != nil {
		return false, fmt.Errorf("claim scan job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) CompleteScanJob(ctx context.Context, id, expenseID string) error {
	return r.updateScanJob(ctx, id, string(store.ScanJobDone), expenseID, "")
}

func (r *SQLiteRepository) FailScanJob(ctx context.Context, id, reason string) error {
	return r.updateScanJob(ctx, id, string(store.ScanJobFailed), "", reason)
}

func (r *SQLiteRepository) updateScanJob(ctx context.Context, id, state, expenseID, reason string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scan_jobs
		SET state = ?, expense_id = ?, error = ?, updated_at = ?
		WHERE id = ?`,
		state, expenseID, reason, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update scan job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrScanJobNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListPendingScanJobs(ctx context.Context, limit int) ([]store.ScanJob, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, source, filename, image, state, expense_id, error,
			created_at, updated_at
		FROM scan_jobs WHERE state = ? ORDER BY created_at LIMIT ?`,
		string(store.ScanJobPending), limit)
	if err != nil {
		return nil, fmt.Errorf("query pending scan jobs: %w", err)
	}
	defer rows.Close()

	var jobs []store.ScanJob
	for rows.Next() {
		var (
			job   store.ScanJob
			state string
		)
		if err := rows.Scan(&job.ID, &job.UserID, &job.Source, &job.Filename,
			&job.Image, &state, &job.ExpenseID, &job.Error,
			&job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan pending job: %w", err)
		}
		job.State = store.ScanJobState(state)
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
