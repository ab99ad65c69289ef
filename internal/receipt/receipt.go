// Package receipt implements the scan flow: acquiring an image from one
// of the supported sources and extracting a draft expense from it.
package receipt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"splitdash/internal/core"
)

// Source identifies where a receipt image comes from.
type Source string

const (
	SourceCamera  Source = "camera"
	SourceGallery Source = "gallery"
	SourceFile    Source = "file"
)

var (
	ErrUnknownSource = errors.New("unknown receipt source")

	// ErrExtractionFailed covers both hard extraction failures and
	// results below the confidence floor. Callers treat them the same:
	// the receipt needs manual entry.
	ErrExtractionFailed = errors.New("could not extract an expense from the receipt")
)

// Valid reports whether s is a supported source.
func (s Source) Valid() bool {
	switch s {
	case SourceCamera, SourceGallery, SourceFile:
		return true
	}
	return false
}

// Extraction is what the extractor reads off a receipt image.
type Extraction struct {
	Title string
	Total core.Money
	Items []core.LineItem
}

// Extractor turns a receipt image into a candidate expense.
type Extractor interface {
	Extract(ctx context.Context, image []byte) (Extraction, error)
}

// acquisitionDelay simulates the time each source takes to hand over an
// image. Camera is the slowest: the user has to frame and shoot.
var acquisitionDelay = map[Source]time.Duration{
	SourceCamera:  1500 * time.Millisecond,
	SourceGallery: 800 * time.Millisecond,
	SourceFile:    300 * time.Millisecond,
}

// Acquire obtains an image payload from the given source. Cancelling ctx
// abandons the acquisition: a closed scan dialog must not deliver a late
// image into shared state.
func Acquire(ctx context.Context, source Source, filename string, image []byte) (core.ScanPayload, error) {
	if !source.Valid() {
		return core.ScanPayload{}, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	if len(image) == 0 {
		return core.ScanPayload{}, errors.New("receipt image is empty")
	}

	select {
	case <-ctx.Done():
		return core.ScanPayload{}, ctx.Err()
	case <-time.After(acquisitionDelay[source]):
	}

	return core.ScanPayload{
		Source:   string(source),
		Filename: filename,
		Image:    image,
	}, nil
}

// StubExtractor is a placeholder until a real OCR backend lands. It
// produces a fixed low-detail extraction so the rest of the pipeline can
// be exercised end to end.
type StubExtractor struct {
	// FailAll makes every extraction fail; used to test the error path.
	FailAll bool
}

func (s StubExtractor) Extract(ctx context.Context, image []byte) (Extraction, error) {
	if err := ctx.Err(); err != nil {
		return Extraction{}, err
	}
	if s.FailAll || len(image) == 0 {
		return Extraction{}, ErrExtractionFailed
	}
	return Extraction{
		Title: "Scanned receipt",
		Total: core.Money{Cents: 0},
	}, nil
}

// Draft converts an extraction into an expense draft dated today, paid
// by and split among the given participants. Zero-total extractions are
// allowed; the user fixes the amount in the edit dialog.
func (e Extraction) Draft(paidBy string, participants []core.Participant) (core.ExpenseDraft, error) {
	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}
	shares, err := core.EqualShares(e.Total, ids)
	if err != nil {
		return core.ExpenseDraft{}, err
	}

	title := e.Title
	if title == "" {
		title = "Scanned receipt"
	}

	now := time.Now()
	return core.ExpenseDraft{
		Title:        title,
		Date:         core.NewDate(now.Year(), int(now.Month()), now.Day()),
		Amount:       e.Total,
		PaidBy:       paidBy,
		Participants: participants,
		Split:        core.SplitEqual,
		Shares:       shares,
		Items:        e.Items,
	}, nil
}
