package http

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"splitdash/internal/core"
	"splitdash/internal/entry"
)

// maxReceiptBytes bounds uploaded receipt images (8 MiB).
const maxReceiptBytes = 8 << 20

// ParseFilterState reads the list-view filter from query parameters.
// Unknown values fall back to the defaults, never to an error: a stale
// bookmark should still render the dashboard.
func ParseFilterState(query url.Values) core.FilterState {
	return core.FilterState{
		Status: core.ParseStatusFilter(query.Get("status")),
		Query:  strings.TrimSpace(query.Get("q")),
		Sort:   core.ParseSortOrder(query.Get("sort")),
	}
}

// ParseExpenseForm maps the manual-entry dialog's form fields onto an
// entry.Form. Participants come as repeated "participant" values of the
// shape id|name|avatar_url; custom shares as share_<id> fields; items as
// parallel item_desc/item_amount/item_assignees lists.
func ParseExpenseForm(form url.Values) entry.Form {
	f := entry.Form{
		Title:       sanitizeInput(form.Get("title")),
		Description: sanitizeInput(form.Get("description")),
		Date:        strings.TrimSpace(form.Get("date")),
		Amount:      strings.TrimSpace(form.Get("amount")),
		PaidBy:      strings.TrimSpace(form.Get("paid_by")),
		Split:       core.SplitMethod(strings.TrimSpace(form.Get("split"))),
	}

	for _, raw := range form["participant"] {
		parts := strings.SplitN(raw, "|", 3)
		p := core.Participant{ID: strings.TrimSpace(parts[0])}
		if len(parts) > 1 {
			p.Name = sanitizeInput(parts[1])
		}
		if len(parts) > 2 {
			p.AvatarURL = strings.TrimSpace(parts[2])
		}
		if p.ID != "" {
			f.Participants = append(f.Participants, p)
		}
	}

	if f.Split == core.SplitCustom {
		f.CustomShares = make(map[string]string)
		for key, values := range form {
			if id, ok := strings.CutPrefix(key, "share_"); ok && len(values) > 0 {
				f.CustomShares[id] = strings.TrimSpace(values[0])
			}
		}
	}

	if f.Split == core.SplitIndividual {
		descs := form["item_desc"]
		amounts := form["item_amount"]
		assignees := form["item_assignees"]
		for i := range descs {
			item := entry.ItemInput{Description: sanitizeInput(descs[i])}
			if i < len(amounts) {
				item.Amount = strings.TrimSpace(amounts[i])
			}
			if i < len(assignees) {
				for _, id := range strings.Split(assignees[i], ",") {
					if id = strings.TrimSpace(id); id != "" {
						item.ParticipantIDs = append(item.ParticipantIDs, id)
					}
				}
			}
			f.Items = append(f.Items, item)
		}
	}

	return f
}

// ReadReceiptUpload extracts the receipt image from a multipart form.
func ReadReceiptUpload(r *http.Request) (source, filename string, image []byte, err error) {
	if err := r.ParseMultipartForm(maxReceiptBytes); err != nil {
		return "", "", nil, fmt.Errorf("parse multipart form: %w", err)
	}

	source = strings.TrimSpace(r.FormValue("source"))

	file, header, err := r.FormFile("image")
	if err != nil {
		return "", "", nil, fmt.Errorf("read image field: %w", err)
	}
	defer file.Close()

	image, err = io.ReadAll(io.LimitReader(file, maxReceiptBytes+1))
	if err != nil {
		return "", "", nil, fmt.Errorf("read image data: %w", err)
	}
	if len(image) > maxReceiptBytes {
		return "", "", nil, fmt.Errorf("receipt image exceeds %d bytes", maxReceiptBytes)
	}
	return source, header.Filename, image, nil
}

// sanitizeInput trims whitespace and strips control characters except
// tab, newline and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
