package core

import (
	"errors"
	"testing"
)

var testParticipants = []Participant{
	{ID: "1", Name: "Alex", AvatarURL: "https://api.dicebear.com/7.x/avataaars/svg?seed=Alex"},
	{ID: "2", Name: "Jamie", AvatarURL: "https://api.dicebear.com/7.x/avataaars/svg?seed=Jamie"},
	{ID: "3", Name: "Taylor", AvatarURL: "https://api.dicebear.com/7.x/avataaars/svg?seed=Taylor"},
	{ID: "4", Name: "Jordan", AvatarURL: "https://api.dicebear.com/7.x/avataaars/svg?seed=Jordan"},
}

func validExpense(t *testing.T) Expense {
	t.Helper()
	participants := testParticipants[:2]
	shares, err := EqualShares(Money{Cents: 2000}, []string{"1", "2"})
	if err != nil {
		t.Fatalf("EqualShares: %v", err)
	}
	return Expense{
		ID:           "exp-1",
		Title:        "Lunch",
		Date:         NewDate(2023, 6, 1),
		Amount:       Money{Cents: 2000},
		PaidBy:       "1",
		Participants: participants,
		Status:       StatusPending,
		Split:        SplitEqual,
		Shares:       shares,
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2023-05-15")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year() != 2023 || int(d.Month()) != 5 || d.Day() != 15 {
		t.Errorf("unexpected date: %v", d)
	}

	for _, bad := range []string{"", "15/05/2023", "2023-13-01", "yesterday"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) expected ErrInvalidDate, got %v", bad, err)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Expense)
		wantErr error
	}{
		{
			name:   "valid expense",
			mutate: func(e *Expense) {},
		},
		{
			name:    "empty title",
			mutate:  func(e *Expense) { e.Title = "   " },
			wantErr: ErrEmptyTitle,
		},
		{
			name:    "zero date",
			mutate:  func(e *Expense) { e.Date = Date{} },
			wantErr: ErrInvalidDate,
		},
		{
			name:    "negative amount",
			mutate:  func(e *Expense) { e.Amount = Money{Cents: -1} },
			wantErr: ErrInvalidAmount,
		},
		{
			name: "no participants",
			mutate: func(e *Expense) {
				e.Participants = nil
				e.Shares = nil
				e.Amount = Money{}
			},
			wantErr: ErrNoParticipants,
		},
		{
			name:    "unknown split method",
			mutate:  func(e *Expense) { e.Split = "weighted" },
			wantErr: ErrUnknownSplit,
		},
		{
			name:    "shares do not sum",
			mutate:  func(e *Expense) { e.Shares = map[string]Money{"1": {Cents: 100}} },
			wantErr: ErrSharesMismatch,
		},
		{
			name:    "share for stranger",
			mutate:  func(e *Expense) { e.Shares = map[string]Money{"99": {Cents: 2000}} },
			wantErr: ErrUnknownParticipant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExpense(t)
			tt.mutate(&e)
			err := e.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateRequestValidate(t *testing.T) {
	e := validExpense(t)
	draft := ExpenseDraft{
		Title:        e.Title,
		Date:         e.Date,
		Amount:       e.Amount,
		PaidBy:       e.PaidBy,
		Participants: e.Participants,
		Split:        e.Split,
		Shares:       e.Shares,
	}

	tests := []struct {
		name string
		req  CreateRequest
		ok   bool
	}{
		{"manual with payload", CreateRequest{Kind: CreateManual, Manual: &draft}, true},
		{"scan with payload", CreateRequest{Kind: CreateScan, Scan: &ScanPayload{Source: "camera", Image: []byte{0x1}}}, true},
		{"manual missing payload", CreateRequest{Kind: CreateManual}, false},
		{"scan with empty image", CreateRequest{Kind: CreateScan, Scan: &ScanPayload{Source: "file"}}, false},
		{"both payloads set", CreateRequest{Kind: CreateManual, Manual: &draft, Scan: &ScanPayload{Image: []byte{0x1}}}, false},
		{"unknown kind", CreateRequest{Kind: "import"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.ok && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if !tt.ok && err == nil {
				t.Fatal("Validate() = nil, want error")
			}
		})
	}
}
