package store

import (
	"context"
	"fmt"
	"time"

	"splitdash/internal/core"
)

// DemoUserID is the account the demo fixture belongs to.
const DemoUserID = "user-1"

func demoParticipants() []core.Participant {
	names := []struct{ id, name string }{
		{"user-1", "Alex"},
		{"user-2", "Jamie"},
		{"user-3", "Taylor"},
		{"user-4", "Jordan"},
	}
	out := make([]core.Participant, len(names))
	for i, n := range names {
		out[i] = core.Participant{
			ID:        n.id,
			Name:      n.name,
			AvatarURL: "https://api.dicebear.com/7.x/avataaars/svg?seed=" + n.name,
		}
	}
	return out
}

// SeedDemoData loads the four-expense demo collection plus the payments
// that make the stored statuses match what the ledger derives.
func SeedDemoData(ctx context.Context, s Store) error {
	people := demoParticipants()
	alex, jamie, taylor, jordan := people[0], people[1], people[2], people[3]

	expenses := []struct {
		id       string
		title    string
		date     core.Date
		amount   core.Money
		paidBy   string
		among    []core.Participant
		status   core.Status
		payments []core.Payment
	}{
		{
			id:     "exp-1",
			title:  "Dinner at Italian Restaurant",
			date:   core.NewDate(2024, 5, 15),
			amount: core.Money{Cents: 7850},
			paidBy: alex.ID,
			among:  []core.Participant{alex, jamie, taylor},
			status: core.StatusPending,
		},
		{
			id:     "exp-2",
			title:  "Movie Night",
			date:   core.NewDate(2024, 5, 10),
			amount: core.Money{Cents: 4500},
			paidBy: jamie.ID,
			among:  []core.Participant{alex, jamie},
			status: core.StatusSettled,
			payments: []core.Payment{{
				ID:            "pay-1",
				ExpenseID:     "exp-2",
				ParticipantID: alex.ID,
				Amount:        core.Money{Cents: 2250},
				PaidAt:        time.Date(2024, 5, 12, 18, 0, 0, 0, time.UTC),
			}},
		},
		{
			id:     "exp-3",
			title:  "Grocery Shopping",
			date:   core.NewDate(2024, 5, 5),
			amount: core.Money{Cents: 12075},
			paidBy: alex.ID,
			among:  people,
			status: core.StatusPartial,
			payments: []core.Payment{{
				ID:            "pay-2",
				ExpenseID:     "exp-3",
				ParticipantID: jamie.ID,
				Amount:        core.Money{Cents: 3019},
				PaidAt:        time.Date(2024, 5, 7, 9, 30, 0, 0, time.UTC),
			}},
		},
		{
			id:     "exp-4",
			title:  "Concert Tickets",
			date:   core.NewDate(2024, 4, 28),
			amount: core.Money{Cents: 20000},
			paidBy: taylor.ID,
			among:  []core.Participant{alex, taylor, jordan},
			status: core.StatusPending,
		},
	}

	for _, e := range expenses {
		shares, err := core.EqualShares(e.amount, participantIDs(e.among))
		if err != nil {
			return fmt.Errorf("seed %s: %w", e.id, err)
		}
		expense := core.Expense{
			ID:           e.id,
			Title:        e.title,
			Date:         e.date,
			Amount:       e.amount,
			PaidBy:       e.paidBy,
			Participants: e.among,
			Status:       e.status,
			Split:        core.SplitEqual,
			Shares:       shares,
		}
		if err := s.CreateExpense(ctx, DemoUserID, expense); err != nil {
			return fmt.Errorf("seed %s: %w", e.id, err)
		}
		for _, p := range e.payments {
			if err := s.RecordPayment(ctx, p); err != nil {
				return fmt.Errorf("seed payment %s: %w", p.ID, err)
			}
		}
	}
	return nil
}

func participantIDs(people []core.Participant) []string {
	ids := make([]string, len(people))
	for i, p := range people {
		ids[i] = p.ID
	}
	return ids
}
