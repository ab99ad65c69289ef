package core

// BalanceSnapshot is the current user's net position at a point in time.
// TotalBalance is signed cents and always equals OwedToYou - YouOwe.
type BalanceSnapshot struct {
	TotalBalance int64
	YouOwe       Money
	OwedToYou    Money
}

// NewBalanceSnapshot builds a snapshot from the two non-negative legs,
// deriving the total so the invariant cannot be violated by construction.
func NewBalanceSnapshot(youOwe, owedToYou Money) BalanceSnapshot {
	return BalanceSnapshot{
		TotalBalance: owedToYou.Cents - youOwe.Cents,
		YouOwe:       youOwe,
		OwedToYou:    owedToYou,
	}
}

// Validate checks the snapshot invariant.
func (b BalanceSnapshot) Validate() error {
	if err := b.YouOwe.Validate(); err != nil {
		return err
	}
	if err := b.OwedToYou.Validate(); err != nil {
		return err
	}
	if b.TotalBalance != b.OwedToYou.Cents-b.YouOwe.Cents {
		return ErrSharesMismatch
	}
	return nil
}

// SnapshotFor folds the expense collection and payment ledger into the
// balance snapshot for one user. Settled expenses contribute nothing.
// For a non-settled expense:
//
//   - if the user fronted the cost, every other participant's unpaid
//     share is owed to the user
//   - if another participant fronted it, the user owes their own unpaid
//     share
//
// An empty collection yields the zero snapshot.
func SnapshotFor(userID string, expenses []Expense, payments []Payment) BalanceSnapshot {
	var youOwe, owedToYou int64

	for _, e := range expenses {
		if DeriveStatus(e, payments) == StatusSettled {
			continue
		}
		paid := paidByParticipant(e.ID, payments)

		if e.PaidBy == userID {
			for id, share := range e.Shares {
				if id == userID {
					continue
				}
				if unpaid := share.Cents - paid[id]; unpaid > 0 {
					owedToYou += unpaid
				}
			}
			continue
		}

		share, ok := e.Shares[userID]
		if !ok {
			continue
		}
		if unpaid := share.Cents - paid[userID]; unpaid > 0 {
			youOwe += unpaid
		}
	}

	return NewBalanceSnapshot(Money{Cents: youOwe}, Money{Cents: owedToYou})
}
