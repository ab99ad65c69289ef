package http

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"splitdash/internal/core"
	"splitdash/internal/entry"
	"splitdash/internal/receipt"
	"splitdash/internal/store"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		_ = NewHTMXResponse().
			Status(http.StatusBadRequest).
			ErrorNotification("Invalid request format").
			Write(w)
		return
	}

	form := ParseExpenseForm(r.Form)
	userID := s.currentUserID()

	var created core.Expense
	fieldErrs, err := entry.Submit(form, func(req core.CreateRequest) {
		created = req.Manual.Expense(uuid.NewString(), core.StatusPending)
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Expense draft error", "error", err)
		_ = NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			ErrorNotification("Could not build the expense from the form").
			Write(w)
		return
	}
	if fieldErrs.Any() {
		_ = NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			Body(renderFieldErrors(fieldErrs)).
			Write(w)
		return
	}

	if err := s.store.CreateExpense(r.Context(), userID, created); err != nil {
		slog.ErrorContext(r.Context(), "Expense create error",
			"error", err, "title", created.Title, "amount_cents", created.Amount.Cents)
		_ = NewHTMXResponse().
			Status(http.StatusInternalServerError).
			ErrorNotification("Could not save the expense").
			Write(w)
		return
	}

	s.invalidateUser(userID)
	_ = NewHTMXResponse().
		TriggerExpenseCreated(created.ID).
		TriggerFormReset().
		SuccessNotification("Added " + created.Title + " for " + created.Amount.String()).
		Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	userID := s.currentUserID()

	if err := s.store.DeleteExpense(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrExpenseNotFound) {
			_ = NewHTMXResponse().
				Status(http.StatusNotFound).
				ErrorNotification("Expense not found").
				Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Expense delete error", "error", err, "id", id)
		_ = NewHTMXResponse().
			Status(http.StatusInternalServerError).
			ErrorNotification("Could not delete the expense").
			Write(w)
		return
	}

	s.invalidateUser(userID)
	_ = NewHTMXResponse().
		TriggerExpenseDeleted(id).
		SuccessNotification("Expense deleted").
		Write(w)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		_ = NewHTMXResponse().
			Status(http.StatusBadRequest).
			ErrorNotification("Invalid request format").
			Write(w)
		return
	}

	amount, err := core.ParseMoney(r.Form.Get("amount"))
	if err != nil {
		_ = NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			ErrorNotification("Enter a valid payment amount").
			Write(w)
		return
	}

	payment := core.Payment{
		ID:            uuid.NewString(),
		ExpenseID:     strings.TrimSpace(r.Form.Get("expense_id")),
		ParticipantID: strings.TrimSpace(r.Form.Get("participant_id")),
		Amount:        amount,
		PaidAt:        time.Now().UTC(),
	}
	if err := payment.Validate(); err != nil {
		_ = NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			ErrorNotification("Payment needs an expense and a participant").
			Write(w)
		return
	}

	if err := s.store.RecordPayment(r.Context(), payment); err != nil {
		if errors.Is(err, store.ErrExpenseNotFound) {
			_ = NewHTMXResponse().
				Status(http.StatusNotFound).
				ErrorNotification("Expense not found").
				Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Payment record error", "error", err, "expense_id", payment.ExpenseID)
		_ = NewHTMXResponse().
			Status(http.StatusInternalServerError).
			ErrorNotification("Could not record the payment").
			Write(w)
		return
	}

	// Status is derived from the ledger, so the cached list is stale now.
	s.invalidateUser(s.currentUserID())
	_ = NewHTMXResponse().
		TriggerPaymentRecorded(payment.ExpenseID).
		SuccessNotification("Recorded payment of " + amount.String()).
		Write(w)
}

func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	source, filename, image, err := ReadReceiptUpload(r)
	if err != nil {
		slog.WarnContext(r.Context(), "Receipt upload rejected", "error", err)
		_ = NewHTMXResponse().
			Status(http.StatusBadRequest).
			ErrorNotification("Could not read the receipt image").
			Write(w)
		return
	}

	payload, err := receipt.Acquire(r.Context(), receipt.Source(source), filename, image)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusRequestTimeout
		}
		_ = NewHTMXResponse().
			Status(status).
			ErrorNotification("Could not acquire the receipt: " + err.Error()).
			Write(w)
		return
	}

	userID := s.currentUserID()
	job := store.ScanJob{
		ID:       uuid.NewString(),
		UserID:   userID,
		Source:   payload.Source,
		Filename: payload.Filename,
		Image:    payload.Image,
	}
	if err := s.store.CreateScanJob(r.Context(), job); err != nil {
		slog.ErrorContext(r.Context(), "Scan job store error", "error", err)
		_ = NewHTMXResponse().
			Status(http.StatusInternalServerError).
			ErrorNotification("Could not queue the receipt").
			Write(w)
		return
	}

	if s.publisher != nil {
		if err := s.publisher.PublishScanJob(r.Context(), job.ID, userID, job.Source); err != nil {
			// The job is stored; the periodic drain will pick it up.
			slog.WarnContext(r.Context(), "Scan job publish failed, relying on periodic drain",
				"job_id", job.ID, "error", err)
		}
	}

	_ = NewHTMXResponse().
		Status(http.StatusAccepted).
		TriggerScanQueued(job.ID).
		SuccessNotification("Receipt queued for scanning").
		Write(w)
}

func renderFieldErrors(errs entry.FieldErrors) []byte {
	var b strings.Builder
	b.WriteString(`<div class="notification error"><ul class="field-errors">`)
	for field, msg := range errs {
		b.WriteString(`<li data-field="` + template.HTMLEscapeString(field) + `">` +
			template.HTMLEscapeString(msg) + `</li>`)
	}
	b.WriteString(`</ul></div>`)
	return []byte(b.String())
}
