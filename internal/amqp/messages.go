package amqp

import (
	"encoding/json"
	"time"
)

// ScanJobMessage asks the scan worker to extract an expense from a
// stored receipt. It carries only the job ID; the worker fetches the
// image from storage, so the queue never holds image bytes.
type ScanJobMessage struct {
	JobID     string    `json:"job_id"`
	UserID    string    `json:"user_id"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// NewScanJobMessage creates a scan-job message stamped with now.
func NewScanJobMessage(jobID, userID, source string) *ScanJobMessage {
	return &ScanJobMessage{
		JobID:     jobID,
		UserID:    userID,
		Source:    source,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ScanJobMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ScanJobMessageFromJSON creates a message from JSON bytes.
func ScanJobMessageFromJSON(data []byte) (*ScanJobMessage, error) {
	var msg ScanJobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
