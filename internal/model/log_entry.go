package model

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"
)

// ISOMillis is the UTC millisecond timestamp layout shared by log lines and /health.
const ISOMillis = "2006-01-02T15:04:05.000Z07:00"

type SubmissionStatus string

const (
	StatusSuccess         SubmissionStatus = "success"
	StatusValidationError SubmissionStatus = "validation_error"
	StatusError           SubmissionStatus = "error"
)

func (s SubmissionStatus) String() string {
	return string(s)
}

func (s SubmissionStatus) Valid() bool {
	return s == StatusSuccess || s == StatusValidationError || s == StatusError
}

// LogEntry is one line of the daily submission log.
type LogEntry struct {
	ID        string           `json:"id"` // ULID
	Timestamp time.Time        `json:"timestamp"`
	Status    SubmissionStatus `json:"status"`
	Data      Submission       `json:"data"`
	Error     *string          `json:"error"`
	MessageID string           `json:"messageId,omitempty"`
}

type logEntryAlias LogEntry

type logEntryJSON struct {
	logEntryAlias
	Timestamp string `json:"timestamp"`
}

// MarshalJSON writes Timestamp as UTC with millisecond precision.
func (e LogEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(logEntryJSON{
		logEntryAlias: logEntryAlias(e),
		Timestamp:     e.Timestamp.UTC().Format(ISOMillis),
	})
}

// UnmarshalJSON accepts any RFC 3339 timestamp, so older lines still parse.
func (e *LogEntry) UnmarshalJSON(b []byte) error {
	var raw logEntryJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = LogEntry(raw.logEntryAlias)
	if raw.Timestamp == "" {
		e.Timestamp = time.Time{}
		return nil
	}
	ts, err := time.Parse(time.RFC3339Nano, raw.Timestamp)
	if err != nil {
		return fmt.Errorf("parse timestamp: %w", err)
	}
	e.Timestamp = ts
	return nil
}

// TruncateMessage cuts s to max runes and marks the cut with "...".
func TruncateMessage(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "..."
}
