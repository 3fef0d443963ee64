package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// StatusExam enumerates attempt states as reported by the server.
type StatusExam int

const (
	StatusExamCreated    StatusExam = 0
	StatusExamInProgress StatusExam = 1
	StatusExamCompleted  StatusExam = 2
)

func (s StatusExam) String() string {
	switch s {
	case StatusExamCreated:
		return "CREATED"
	case StatusExamInProgress:
		return "IN_PROGRESS"
	case StatusExamCompleted:
		return "COMPLETED"
	default:
		return fmt.Sprintf("STATUS(%d)", int(s))
	}
}

// ExamOfTrainee is one attempt record of a trainee at a lecture exam.
type ExamOfTrainee struct {
	ID                string     `json:"id"`
	LectureTraineeID  string     `json:"lectureTraineeId"`
	LectureExamID     string     `json:"lectureExamId"`
	TimeStartExam     Timestamp  `json:"timeStartExam"`
	TimeCompletedExam *Timestamp `json:"timeCompletedExam"`
	StatusExam        StatusExam `json:"statusExam"`
	AttemptNumber     int        `json:"attemptNumber"`
	Score             *float64   `json:"score,omitempty"`
}

// Timestamp accepts the date formats the API emits. Values without an offset
// are read in local time.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized format %q", raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// NewTimestamp wraps a time value.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}
