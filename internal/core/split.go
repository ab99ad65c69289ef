package core

import (
	"errors"
	"fmt"
)

var ErrNoAssignees = errors.New("line item has no assigned participants")

// EqualShares divides amount evenly across the given participant IDs.
// Remainder cents are assigned one each to the earliest participants, so
// the shares always sum exactly to amount.
func EqualShares(amount Money, participantIDs []string) (map[string]Money, error) {
	if len(participantIDs) == 0 {
		return nil, ErrNoParticipants
	}
	if err := amount.Validate(); err != nil {
		return nil, err
	}
	n := int64(len(participantIDs))
	base := amount.Cents / n
	remainder := amount.Cents % n
	shares := make(map[string]Money, len(participantIDs))
	for i, id := range participantIDs {
		cents := base
		if int64(i) < remainder {
			cents++
		}
		shares[id] = Money{Cents: cents}
	}
	return shares, nil
}

// CustomShares validates an explicit per-participant amount map against the
// expense total. The caller supplies every share; nothing is inferred.
func CustomShares(amount Money, shares map[string]Money) (map[string]Money, error) {
	if len(shares) == 0 {
		return nil, ErrNoParticipants
	}
	var sum int64
	for id, share := range shares {
		if share.Cents < 0 {
			return nil, fmt.Errorf("share for %s: %w", id, ErrInvalidAmount)
		}
		sum += share.Cents
	}
	if sum != amount.Cents {
		return nil, ErrSharesMismatch
	}
	out := make(map[string]Money, len(shares))
	for id, share := range shares {
		out[id] = share
	}
	return out, nil
}

// ItemShares computes per-participant shares from individually assigned
// line items. Each item is split equally among its assignees, remainder
// cents to the earliest assignee. The item amounts must sum to the expense
// total.
func ItemShares(amount Money, items []LineItem) (map[string]Money, error) {
	if len(items) == 0 {
		return nil, errors.New("individual split needs at least one line item")
	}
	var itemSum int64
	shares := make(map[string]Money)
	for i, item := range items {
		if item.Amount.Cents < 0 {
			return nil, fmt.Errorf("item %d: %w", i, ErrInvalidAmount)
		}
		if len(item.ParticipantIDs) == 0 {
			return nil, fmt.Errorf("item %d: %w", i, ErrNoAssignees)
		}
		itemSum += item.Amount.Cents
		perItem, err := EqualShares(item.Amount, item.ParticipantIDs)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		for id, share := range perItem {
			shares[id] = Money{Cents: shares[id].Cents + share.Cents}
		}
	}
	if itemSum != amount.Cents {
		return nil, ErrSharesMismatch
	}
	return shares, nil
}

// SharesFor materializes the share map for the given split method.
// For SplitEqual the participant list drives the division; SplitCustom
// requires the explicit share map; SplitIndividual requires line items.
func SharesFor(method SplitMethod, amount Money, participantIDs []string, custom map[string]Money, items []LineItem) (map[string]Money, error) {
	switch method {
	case SplitEqual:
		return EqualShares(amount, participantIDs)
	case SplitCustom:
		return CustomShares(amount, custom)
	case SplitIndividual:
		return ItemShares(amount, items)
	default:
		return nil, ErrUnknownSplit
	}
}
