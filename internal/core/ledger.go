package core

import (
	"errors"
	"time"
)

// Payment records that a participant reimbursed part of their share of an
// expense. The ledger is the source of truth for settlement status.
type Payment struct {
	ID            string
	ExpenseID     string
	ParticipantID string
	Amount        Money
	PaidAt        time.Time
}

var ErrInvalidPayment = errors.New("invalid payment")

func (p Payment) Validate() error {
	if p.ExpenseID == "" || p.ParticipantID == "" {
		return ErrInvalidPayment
	}
	if p.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// paidByParticipant sums ledger payments for one expense, keyed by
// participant ID.
func paidByParticipant(expenseID string, payments []Payment) map[string]int64 {
	paid := make(map[string]int64)
	for _, p := range payments {
		if p.ExpenseID == expenseID {
			paid[p.ParticipantID] += p.Amount.Cents
		}
	}
	return paid
}

// DeriveStatus computes the settlement status of an expense from the
// payment ledger. The payer's own share is considered settled by the act
// of paying; only the other participants' shares count as outstanding.
//
//   - every outstanding share fully reimbursed -> settled
//   - at least one payment recorded            -> partial
//   - otherwise                                -> pending
func DeriveStatus(e Expense, payments []Payment) Status {
	paid := paidByParticipant(e.ID, payments)

	outstanding := false
	anyPaid := false
	for id, share := range e.Shares {
		if id == e.PaidBy {
			continue
		}
		if paid[id] > 0 {
			anyPaid = true
		}
		if paid[id] < share.Cents {
			outstanding = true
		}
	}
	if !outstanding {
		return StatusSettled
	}
	if anyPaid {
		return StatusPartial
	}
	return StatusPending
}
