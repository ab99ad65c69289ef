// Package entry validates the manual expense-entry form and turns it
// into a domain draft. It owns the field-by-field error reporting the
// dialog renders next to each input.
package entry

import (
	"strings"

	"splitdash/internal/core"
)

// Form carries the raw string values exactly as submitted. Nothing is
// parsed until Validate runs, so the same form can round-trip back to
// the template with the user's input intact.
type Form struct {
	Title        string
	Description  string
	Date         string
	Amount       string
	PaidBy       string
	Participants []core.Participant
	Split        core.SplitMethod
	CustomShares map[string]string // participant id -> raw amount
	Items        []ItemInput
}

// ItemInput is one receipt line in the individual-split mode.
type ItemInput struct {
	Description    string
	Amount         string
	ParticipantIDs []string
}

// FieldErrors maps form field names to user-facing messages. An empty
// map means the form passed.
type FieldErrors map[string]string

func (fe FieldErrors) Any() bool { return len(fe) > 0 }

// Validate checks every field and collects all failures, so the dialog
// can show them at once instead of one per submission.
func (f Form) Validate() FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(f.Title) == "" {
		errs["title"] = "Title is required"
	} else if len(f.Title) > 200 {
		errs["title"] = "Title must be at most 200 characters"
	}

	if _, err := core.ParseDate(f.Date); err != nil {
		errs["date"] = "Enter a date as YYYY-MM-DD"
	}

	amount, err := core.ParseMoney(f.Amount)
	if err != nil {
		errs["amount"] = "Enter a valid amount, like 20.00"
	}

	if len(f.Participants) == 0 {
		errs["participants"] = "Select at least one participant"
	}

	if f.PaidBy == "" {
		errs["paid_by"] = "Select who paid"
	} else if len(f.Participants) > 0 && !f.hasParticipant(f.PaidBy) {
		errs["paid_by"] = "The payer must be one of the participants"
	}

	if !f.Split.Valid() {
		errs["split"] = "Choose how to split this expense"
		return errs
	}

	switch f.Split {
	case core.SplitCustom:
		f.validateCustomShares(amount, errs)
	case core.SplitIndividual:
		f.validateItems(amount, errs)
	}

	return errs
}

func (f Form) validateCustomShares(total core.Money, errs FieldErrors) {
	if len(f.CustomShares) == 0 {
		errs["shares"] = "Enter each person's share"
		return
	}
	var sum int64
	for id, raw := range f.CustomShares {
		if !f.hasParticipant(id) {
			errs["shares"] = "Shares include someone who is not a participant"
			return
		}
		share, err := core.ParseMoney(raw)
		if err != nil {
			errs["shares"] = "Each share must be a valid amount"
			return
		}
		sum += share.Cents
	}
	if _, ok := errs["amount"]; !ok && sum != total.Cents {
		errs["shares"] = "Shares must add up to the total amount"
	}
}

func (f Form) validateItems(total core.Money, errs FieldErrors) {
	if len(f.Items) == 0 {
		errs["items"] = "Add at least one item"
		return
	}
	var sum int64
	for _, item := range f.Items {
		amount, err := core.ParseMoney(item.Amount)
		if err != nil {
			errs["items"] = "Each item needs a valid amount"
			return
		}
		if len(item.ParticipantIDs) == 0 {
			errs["items"] = "Assign each item to at least one person"
			return
		}
		for _, id := range item.ParticipantIDs {
			if !f.hasParticipant(id) {
				errs["items"] = "Items include someone who is not a participant"
				return
			}
		}
		sum += amount.Cents
	}
	if _, ok := errs["amount"]; !ok && sum != total.Cents {
		errs["items"] = "Item amounts must add up to the total"
	}
}

func (f Form) hasParticipant(id string) bool {
	for _, p := range f.Participants {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Draft converts a validated form into a domain draft with shares
// materialized. Call Validate first; Draft reports parse failures it
// hits anyway, so a skipped validation cannot produce a corrupt draft.
func (f Form) Draft() (core.ExpenseDraft, error) {
	date, err := core.ParseDate(f.Date)
	if err != nil {
		return core.ExpenseDraft{}, err
	}
	amount, err := core.ParseMoney(f.Amount)
	if err != nil {
		return core.ExpenseDraft{}, err
	}

	custom, err := f.parsedCustomShares()
	if err != nil {
		return core.ExpenseDraft{}, err
	}
	items, err := f.parsedItems()
	if err != nil {
		return core.ExpenseDraft{}, err
	}

	ids := make([]string, len(f.Participants))
	for i, p := range f.Participants {
		ids[i] = p.ID
	}
	shares, err := core.SharesFor(f.Split, amount, ids, custom, items)
	if err != nil {
		return core.ExpenseDraft{}, err
	}

	return core.ExpenseDraft{
		Title:        strings.TrimSpace(f.Title),
		Description:  strings.TrimSpace(f.Description),
		Date:         date,
		Amount:       amount,
		PaidBy:       f.PaidBy,
		Participants: f.Participants,
		Split:        f.Split,
		Shares:       shares,
		Items:        items,
	}, nil
}

func (f Form) parsedCustomShares() (map[string]core.Money, error) {
	if f.Split != core.SplitCustom {
		return nil, nil
	}
	out := make(map[string]core.Money, len(f.CustomShares))
	for id, raw := range f.CustomShares {
		share, err := core.ParseMoney(raw)
		if err != nil {
			return nil, err
		}
		out[id] = share
	}
	return out, nil
}

func (f Form) parsedItems() ([]core.LineItem, error) {
	if f.Split != core.SplitIndividual {
		return nil, nil
	}
	out := make([]core.LineItem, len(f.Items))
	for i, item := range f.Items {
		amount, err := core.ParseMoney(item.Amount)
		if err != nil {
			return nil, err
		}
		out[i] = core.LineItem{
			Description:    strings.TrimSpace(item.Description),
			Amount:         amount,
			ParticipantIDs: item.ParticipantIDs,
		}
	}
	return out, nil
}
