package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// HTMXResponseBuilder assembles HX-Trigger headers and notification
// fragments for htmx form endpoints.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       []byte
	headers    map[string]string
}

func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named client event to the HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerExpenseCreated fires the event the balance summary and list
// partials listen on to refresh themselves.
func (b *HTMXResponseBuilder) TriggerExpenseCreated(expenseID string) *HTMXResponseBuilder {
	return b.Trigger("expense:created", map[string]string{"id": expenseID})
}

func (b *HTMXResponseBuilder) TriggerExpenseDeleted(expenseID string) *HTMXResponseBuilder {
	return b.Trigger("expense:deleted", map[string]string{"id": expenseID})
}

func (b *HTMXResponseBuilder) TriggerPaymentRecorded(expenseID string) *HTMXResponseBuilder {
	return b.Trigger("payment:recorded", map[string]string{"expense_id": expenseID})
}

func (b *HTMXResponseBuilder) TriggerScanQueued(jobID string) *HTMXResponseBuilder {
	return b.Trigger("scan:queued", map[string]string{"job_id": jobID})
}

func (b *HTMXResponseBuilder) TriggerSessionChanged() *HTMXResponseBuilder {
	return b.Trigger("session:changed", struct{}{})
}

func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger("form:reset", struct{}{})
}

// Header sets an extra response header.
func (b *HTMXResponseBuilder) Header(key, value string) *HTMXResponseBuilder {
	b.headers[key] = value
	return b
}

// SuccessNotification sets the body to a success fragment. The message
// is HTML-escaped.
func (b *HTMXResponseBuilder) SuccessNotification(message string) *HTMXResponseBuilder {
	b.body = []byte(`<div class="notification success">` + template.HTMLEscapeString(message) + `</div>`)
	return b
}

// ErrorNotification sets the body to an error fragment.
func (b *HTMXResponseBuilder) ErrorNotification(message string) *HTMXResponseBuilder {
	b.body = []byte(`<div class="notification error">` + template.HTMLEscapeString(message) + `</div>`)
	return b
}

// Body sets a raw, pre-rendered body.
func (b *HTMXResponseBuilder) Body(body []byte) *HTMXResponseBuilder {
	b.body = body
	return b
}

// Write emits the accumulated response. Triggers are JSON-encoded into
// a single HX-Trigger header.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) error {
	if len(b.triggers) > 0 {
		payload, err := json.Marshal(b.triggers)
		if err != nil {
			return err
		}
		w.Header().Set("HX-Trigger", string(payload))
	}
	for key, value := range b.headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, err := w.Write(b.body)
		return err
	}
	return nil
}
