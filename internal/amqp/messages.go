package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"salaryreport/internal/core"
)

// EventReportCreated is the message type of ReportCreatedMessage.
const EventReportCreated = "report.created"

// ReportCreatedMessage announces a newly stored report. It carries only the
// id; consumers load the full record from the store.
type ReportCreatedMessage struct {
	Event     string    `json:"event"`
	ReportID  string    `json:"report_id"`
	CreatedAt time.Time `json:"created_at"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReportCreatedMessage(rec core.StoredReport) *ReportCreatedMessage {
	return &ReportCreatedMessage{
		Event:     EventReportCreated,
		ReportID:  rec.ID,
		CreatedAt: rec.CreatedAt,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ReportCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportCreatedMessageFromJSON decodes and validates a message body.
func ReportCreatedMessageFromJSON(data []byte) (*ReportCreatedMessage, error) {
	var msg ReportCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Event != EventReportCreated {
		return nil, errors.New("unexpected event type " + msg.Event)
	}
	if _, err := core.ParseReportID(msg.ReportID); err != nil {
		return nil, err
	}
	return &msg, nil
}
