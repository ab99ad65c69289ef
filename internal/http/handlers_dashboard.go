package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"splitdash/internal/core"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	_, user, profile := s.currentUser()
	data := struct {
		SignedIn    bool
		DisplayName string
		AvatarURL   string
	}{}
	if user != nil {
		data.SignedIn = true
		data.DisplayName = user.Email
		if profile != nil {
			data.DisplayName = profile.Name
			data.AvatarURL = profile.AvatarURL
		}
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// loadExpenses returns the user's expenses with settlement status
// derived from the payment ledger, serving from cache when possible.
func (s *Server) loadExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	if items, found := s.expenseCache.Get(userID); found {
		slog.DebugContext(ctx, "Expense cache hit", "user_id", userID, "count", len(items))
		out := make([]core.Expense, len(items))
		copy(out, items)
		return out, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()

	expenses, err := s.store.ListExpenses(cctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses for %s: %w", userID, err)
	}
	payments, err := s.store.ListPayments(cctx)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	for i := range expenses {
		expenses[i].Status = core.DeriveStatus(expenses[i], payments)
	}

	s.expenseCache.Set(userID, expenses)
	return expenses, nil
}

func (s *Server) loadSnapshot(ctx context.Context, userID string) (core.BalanceSnapshot, error) {
	if snap, found := s.snapshotCache.Get(userID); found {
		slog.DebugContext(ctx, "Snapshot cache hit", "user_id", userID)
		return snap, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()

	expenses, err := s.store.ListExpenses(cctx, userID)
	if err != nil {
		return core.BalanceSnapshot{}, fmt.Errorf("list expenses for %s: %w", userID, err)
	}
	payments, err := s.store.ListPayments(cctx)
	if err != nil {
		return core.BalanceSnapshot{}, fmt.Errorf("list payments: %w", err)
	}

	snap := core.SnapshotFor(userID, expenses, payments)
	s.snapshotCache.Set(userID, snap)
	return snap, nil
}

// handleBalanceSummary renders the three balance cards partial.
func (s *Server) handleBalanceSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	userID := s.currentUserID()

	snap, err := s.loadSnapshot(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Balance summary error", "error", err, "user_id", userID)
		_, _ = w.Write([]byte(`<section id="balance-summary" class="balance-summary"><div class="placeholder">Could not load balances</div></section>`))
		return
	}

	data := struct {
		Total     string
		Positive  bool
		YouOwe    string
		OwedToYou string
	}{
		Total:     core.Money{Cents: snap.TotalBalance}.String(),
		Positive:  snap.TotalBalance >= 0,
		YouOwe:    snap.YouOwe.String(),
		OwedToYou: snap.OwedToYou.String(),
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="balance-summary" class="balance-summary"><div class="placeholder">Total: ` + data.Total + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "balance_summary.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "balance_summary.html")
		_, _ = w.Write([]byte(`<section id="balance-summary" class="balance-summary"><div class="placeholder">Could not render balances</div></section>`))
	}
}

// handleParticipants renders the participant picker used by the
// manual-entry form: one checkbox per registry member plus the paid-by
// select, with the current user preselected.
func (s *Server) handleParticipants(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	people, err := s.store.ListParticipants(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Participant list error", "error", err)
		_, _ = w.Write([]byte(`<div class="placeholder">Could not load participants</div>`))
		return
	}

	data := struct {
		People        []core.Participant
		CurrentUserID string
	}{
		People:        people,
		CurrentUserID: s.currentUserID(),
	}

	if s.templates == nil {
		fmt.Fprintf(w, `<div class="placeholder">%d participants</div>`, len(people))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "participants.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "participants.html")
		_, _ = w.Write([]byte(`<div class="placeholder">Could not render participants</div>`))
	}
}

// handleExpenseList renders the filtered, sorted expense list partial.
func (s *Server) handleExpenseList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	userID := s.currentUserID()
	filter := ParseFilterState(r.URL.Query())

	expenses, err := s.loadExpenses(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Expense list error", "error", err, "user_id", userID)
		_, _ = w.Write([]byte(`<section id="expense-list" class="expense-list"><div class="placeholder">Could not load expenses</div></section>`))
		return
	}

	visible := core.ApplyFilter(expenses, filter)

	type expenseRow struct {
		ID           string
		Title        string
		Date         string
		Amount       string
		Status       string
		PaidBy       string
		YourShare    string
		Participants []core.Participant
	}
	data := struct {
		Status  string
		Query   string
		Sort    string
		Count   int
		Rows    []expenseRow
		Empty   bool
		Matched bool
	}{
		Status:  string(filter.Status),
		Query:   filter.Query,
		Sort:    string(filter.Sort),
		Count:   len(visible),
		Empty:   len(expenses) == 0,
		Matched: len(visible) > 0,
	}
	for _, e := range visible {
		row := expenseRow{
			ID:           e.ID,
			Title:        e.Title,
			Date:         e.Date.Format("Jan 2, 2006"),
			Amount:       e.Amount.String(),
			Status:       string(e.Status),
			PaidBy:       e.PaidBy,
			Participants: e.Participants,
		}
		if share, ok := e.Shares[userID]; ok {
			row.YourShare = share.String()
		}
		for _, p := range e.Participants {
			if p.ID == e.PaidBy {
				row.PaidBy = p.Name
				break
			}
		}
		data.Rows = append(data.Rows, row)
	}

	if s.templates == nil {
		fmt.Fprintf(w, `<section id="expense-list" class="expense-list"><div class="placeholder">%d expenses</div></section>`, data.Count)
		return
	}
	if err := s.templates.ExecuteTemplate(w, "expense_list.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "expense_list.html")
		_, _ = w.Write([]byte(`<section id="expense-list" class="expense-list"><div class="placeholder">Could not render expenses</div></section>`))
	}
}
