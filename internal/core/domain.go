package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusPending Status = "pending"
	StatusPartial Status = "partial"
	StatusSettled Status = "settled"
)

const (
	SplitEqual      SplitMethod = "equal"
	SplitCustom     SplitMethod = "custom"
	SplitIndividual SplitMethod = "individual"
)

type (
	// Status is the settlement state of an expense, derived from the
	// payment ledger (see DeriveStatus).
	Status string

	// SplitMethod is the rule used to divide an expense among its participants.
	SplitMethod string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Participant is a person attached to an expense. Immutable once
	// created; identity is ID.
	Participant struct {
		ID        string
		Name      string
		AvatarURL string
	}

	// LineItem is a single item on a receipt, split equally among the
	// participants it is assigned to.
	LineItem struct {
		Description    string
		Amount         Money
		ParticipantIDs []string
	}

	Expense struct {
		ID           string
		Title        string
		Description  string
		Date         Date
		Amount       Money
		PaidBy       string // participant ID of whoever fronted the cost
		Participants []Participant
		Status       Status
		Split        SplitMethod
		// Shares maps participant ID to that participant's portion of
		// Amount. Materialized at construction for every split method;
		// the values always sum to Amount.
		Shares map[string]Money
		Items  []LineItem
	}

	// UserProfile mirrors the profile row the auth/database service
	// creates at sign-up. Read at session start, never mutated locally.
	UserProfile struct {
		ID        string
		Name      string
		AvatarURL string
		CreatedAt time.Time
		UpdatedAt time.Time
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyTitle         = errors.New("empty title")
	ErrNoParticipants     = errors.New("expense needs at least one participant")
	ErrUnknownSplit       = errors.New("unknown split method")
	ErrSharesMismatch     = errors.New("shares do not sum to the expense amount")
	ErrUnknownParticipant = errors.New("share references an unknown participant")
)

// ParseDate parses an ISO calendar date (2006-01-02). Dates are validated
// here, at construction time, never at sort or display time.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// ISO returns the date formatted as 2006-01-02.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPartial, StatusSettled:
		return true
	}
	return false
}

func (s SplitMethod) Valid() bool {
	switch s {
	case SplitEqual, SplitCustom, SplitIndividual:
		return true
	}
	return false
}

func (p Participant) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("participant ID cannot be empty")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("participant name cannot be empty")
	}
	return nil
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if len(e.Participants) == 0 {
		return ErrNoParticipants
	}
	for _, p := range e.Participants {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	if !e.Split.Valid() {
		return ErrUnknownSplit
	}
	if !e.Status.Valid() {
		return errors.New("invalid settlement status")
	}
	ids := make(map[string]struct{}, len(e.Participants))
	for _, p := range e.Participants {
		ids[p.ID] = struct{}{}
	}
	var sum int64
	for id, share := range e.Shares {
		if _, ok := ids[id]; !ok {
			return ErrUnknownParticipant
		}
		if share.Cents < 0 {
			return ErrInvalidAmount
		}
		sum += share.Cents
	}
	if sum != e.Amount.Cents {
		return ErrSharesMismatch
	}
	return nil
}

// ParticipantIDs returns the IDs of the expense's participants in order.
func (e Expense) ParticipantIDs() []string {
	ids := make([]string, len(e.Participants))
	for i, p := range e.Participants {
		ids[i] = p.ID
	}
	return ids
}
