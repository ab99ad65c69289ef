package core

import "errors"

const (
	CreateManual CreateKind = "manual"
	CreateScan   CreateKind = "scan"
)

type (
	// CreateKind tags the origin of an expense-creation request.
	CreateKind string

	// ExpenseDraft is a validated candidate expense produced by the
	// manual-entry flow or by receipt extraction. It carries everything
	// needed to construct an Expense except the generated ID.
	ExpenseDraft struct {
		Title        string
		Description  string
		Date         Date
		Amount       Money
		PaidBy       string
		Participants []Participant
		Split        SplitMethod
		Shares       map[string]Money
		Items        []LineItem
	}

	// ScanPayload is the image handed over by the receipt-scan flow.
	ScanPayload struct {
		Source   string // camera, gallery or file
		Filename string
		Image    []byte
	}

	// CreateRequest is the tagged expense-creation variant that reaches
	// shared state. Exactly one payload is set, matching Kind.
	CreateRequest struct {
		Kind   CreateKind
		Manual *ExpenseDraft
		Scan   *ScanPayload
	}
)

var ErrMalformedRequest = errors.New("create request payload does not match its kind")

func (r CreateRequest) Validate() error {
	switch r.Kind {
	case CreateManual:
		if r.Manual == nil || r.Scan != nil {
			return ErrMalformedRequest
		}
		return r.Manual.Expense("", StatusPending).Validate()
	case CreateScan:
		if r.Scan == nil || r.Manual != nil {
			return ErrMalformedRequest
		}
		if len(r.Scan.Image) == 0 {
			return errors.New("scan payload has no image data")
		}
		return nil
	default:
		return ErrMalformedRequest
	}
}

// Expense materializes the draft into an Expense with the given ID and
// derived status.
func (d ExpenseDraft) Expense(id string, status Status) Expense {
	return Expense{
		ID:           id,
		Title:        d.Title,
		Description:  d.Description,
		Date:         d.Date,
		Amount:       d.Amount,
		PaidBy:       d.PaidBy,
		Participants: d.Participants,
		Status:       status,
		Split:        d.Split,
		Shares:       d.Shares,
		Items:        d.Items,
	}
}
