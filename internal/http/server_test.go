package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"splitdash/internal/authsvc"
	"splitdash/internal/core"
	"splitdash/internal/session"
	"splitdash/internal/store"
)

type fakeAuthClient struct {
	signInErr error
}

func (f *fakeAuthClient) SignInWithPassword(_ context.Context, email, _ string) (*authsvc.Session, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &authsvc.Session{AccessToken: "tok", User: authsvc.User{ID: "user-1", Email: email}}, nil
}

func (f *fakeAuthClient) SignUp(_ context.Context, email, _, _ string) (*authsvc.Session, error) {
	return &authsvc.Session{AccessToken: "tok", User: authsvc.User{ID: "user-1", Email: email}}, nil
}

func (f *fakeAuthClient) SignOut(context.Context, string) error { return nil }

func (f *fakeAuthClient) GetCurrentUser(context.Context, string) (*authsvc.User, error) {
	return nil, nil
}

func (f *fakeAuthClient) GetUserProfile(_ context.Context, _, userID string) (*core.UserProfile, error) {
	return &core.UserProfile{ID: userID, Name: "Alex"}, nil
}

func newTestServer(t *testing.T) (*Server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	if err := store.SeedDemoData(context.Background(), st); err != nil {
		t.Fatalf("seed: %v", err)
	}
	sessions := session.NewStore(&fakeAuthClient{})
	srv := NewServer(":0", st, sessions, nil)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, st
}

func do(t *testing.T, srv *Server, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestIndexServesDashboard(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"balance-summary", "expense-list", "/receipts/scan"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("security headers not applied")
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("trace middleware not applied")
	}
}

func TestBalanceSummaryPartial(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/ui/balance-summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	// Demo fixture from the anonymous (demo) user's perspective:
	// owed 52.33 + 60.37, owes 66.67, total 46.03.
	body := rec.Body.String()
	for _, want := range []string{"$46.03", "$66.67", "$112.70"} {
		if !strings.Contains(body, want) {
			t.Errorf("balance summary missing %q in:\n%s", want, body)
		}
	}
}

func TestExpenseListQueryFilter(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/ui/expenses?q=movie", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Movie Night") {
		t.Error("query should match Movie Night")
	}
	for _, absent := range []string{"Dinner at Italian Restaurant", "Grocery Shopping", "Concert Tickets"} {
		if strings.Contains(body, absent) {
			t.Errorf("query %q should not match %q", "movie", absent)
		}
	}
}

func TestParticipantsPartial(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/ui/participants", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body := rec.Body.String()
	// Checkbox values feed ParseExpenseForm's id|name|avatar shape.
	if !strings.Contains(body, `name="participant"`) {
		t.Error("picker missing participant checkboxes")
	}
	if !strings.Contains(body, `name="paid_by"`) {
		t.Error("picker missing paid-by select")
	}
	if !strings.Contains(body, "user-1|Alex|") {
		t.Errorf("picker missing encoded participant value in:\n%s", body)
	}
	for _, name := range []string{"Alex", "Jamie", "Taylor", "Jordan"} {
		if !strings.Contains(body, name) {
			t.Errorf("picker missing %q", name)
		}
	}
}

func TestExpenseListStatusFilter(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/ui/expenses?status=settled", nil)
	body := rec.Body.String()
	if !strings.Contains(body, "Movie Night") {
		t.Error("settled filter should include Movie Night")
	}
	if strings.Contains(body, "Concert Tickets") {
		t.Error("settled filter should exclude pending expenses")
	}
}

func validExpenseForm() url.Values {
	return url.Values{
		"title":       {"Lunch"},
		"date":        {"2024-06-01"},
		"amount":      {"20.00"},
		"paid_by":     {"user-1"},
		"split":       {"equal"},
		"participant": {"user-1|Alex|", "user-2|Jamie|"},
	}
}

func TestCreateExpense(t *testing.T) {
	srv, st := newTestServer(t)
	rec := do(t, srv, http.MethodPost, "/expenses", validExpenseForm())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("HX-Trigger"), "expense:created") {
		t.Errorf("HX-Trigger = %q", rec.Header().Get("HX-Trigger"))
	}

	expenses, _ := st.ListExpenses(context.Background(), store.DemoUserID)
	if len(expenses) != 5 {
		t.Errorf("store has %d expenses, want 5", len(expenses))
	}
}

func TestCreateExpenseRejectsEmptyTitle(t *testing.T) {
	srv, st := newTestServer(t)
	form := validExpenseForm()
	form.Set("title", "")

	rec := do(t, srv, http.MethodPost, "/expenses", form)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `data-field="title"`) {
		t.Errorf("body missing title field error: %s", rec.Body.String())
	}

	expenses, _ := st.ListExpenses(context.Background(), store.DemoUserID)
	if len(expenses) != 4 {
		t.Errorf("invalid form must not create an expense, store has %d", len(expenses))
	}
}

func TestCreateExpenseRequiresPickerFields(t *testing.T) {
	srv, st := newTestServer(t)

	// The dialog's own inputs without the picker's contribution.
	form := url.Values{
		"title":  {"Lunch"},
		"date":   {"2024-06-01"},
		"amount": {"20.00"},
		"split":  {"equal"},
	}
	rec := do(t, srv, http.MethodPost, "/expenses", form)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `data-field="participants"`) {
		t.Errorf("missing participants field error in:\n%s", body)
	}
	if !strings.Contains(body, `data-field="paid_by"`) {
		t.Errorf("missing paid_by field error in:\n%s", body)
	}

	expenses, _ := st.ListExpenses(context.Background(), store.DemoUserID)
	if len(expenses) != 4 {
		t.Errorf("incomplete form must not create an expense, store has %d", len(expenses))
	}
}

func TestExpenseListRendersPaymentControl(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/ui/expenses?status=pending", nil)
	body := rec.Body.String()
	if !strings.Contains(body, `hx-post="/payments"`) {
		t.Error("pending rows should carry a record-payment form")
	}
	if !strings.Contains(body, `name="expense_id" value="exp-1"`) {
		t.Errorf("payment form missing expense id in:\n%s", body)
	}

	rec = do(t, srv, http.MethodGet, "/ui/expenses?status=settled", nil)
	if strings.Contains(rec.Body.String(), `hx-post="/payments"`) {
		t.Error("settled rows should not offer a payment form")
	}
}

func TestDeleteExpense(t *testing.T) {
	srv, st := newTestServer(t)
	rec := do(t, srv, http.MethodDelete, "/expenses/exp-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	expenses, _ := st.ListExpenses(context.Background(), store.DemoUserID)
	if len(expenses) != 3 {
		t.Errorf("store has %d expenses after delete, want 3", len(expenses))
	}

	rec = do(t, srv, http.MethodDelete, "/expenses/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleting unknown expense: status = %d, want 404", rec.Code)
	}
}

func TestRecordPayment(t *testing.T) {
	srv, st := newTestServer(t)
	form := url.Values{
		"expense_id":     {"exp-4"},
		"participant_id": {"user-1"},
		"amount":         {"66.67"},
	}
	rec := do(t, srv, http.MethodPost, "/payments", form)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	expense, _ := st.GetExpense(context.Background(), "exp-4")
	payments, _ := st.ListPayments(context.Background(), "exp-4")
	if status := core.DeriveStatus(expense, payments); status != core.StatusPartial {
		t.Errorf("derived status = %q, want partial", status)
	}
}

func TestSignInRefreshesSession(t *testing.T) {
	srv, _ := newTestServer(t)
	form := url.Values{"email": {"alex@example.com"}, "password": {"secret"}}
	rec := do(t, srv, http.MethodPost, "/auth/signin", form)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("HX-Refresh") != "true" {
		t.Error("sign-in should request a full refresh")
	}
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	st := store.NewMemoryStore()
	sessions := session.NewStore(&fakeAuthClient{
		signInErr: &authsvc.AuthError{Status: 400, Message: "Invalid login credentials"},
	})
	srv := NewServer(":0", st, sessions, nil)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	form := url.Values{"email": {"alex@example.com"}, "password": {"wrong"}}
	rec := do(t, srv, http.MethodPost, "/auth/signin", form)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
