package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
)

// EventType represents the kinds of test lifecycle events
type EventType string

const (
	// Test lifecycle events
	EventTestGenerated EventType = "test.generated"
	EventTestStarted   EventType = "test.started"
	EventTestCompleted EventType = "test.completed"
	EventTestReset     EventType = "test.reset"

	// Exercise events
	EventExerciseSubmitted EventType = "exercise.submitted"
)

const (
	EventSource  = "exam-prep-service"
	EventVersion = "1.0"
)

// TestEvent is the envelope of every published event
type TestEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	SessionID string                 `json:"session_id"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

func NewTestEvent(eventType EventType, sessionID string, data interface{}) *TestEvent {
	return &TestEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    EventSource,
		Version:   EventVersion,
		SessionID: sessionID,
		Data:      data,
	}
}

// Test event payloads

type TestGeneratedEvent struct {
	UserID              string           `json:"user_id,omitempty"`
	SelectedExerciseIDs []string         `json:"selected_exercise_ids"`
	AllPartsReady       bool             `json:"all_parts_ready"`
	EmptyParts          []models.PartRef `json:"empty_parts,omitempty"`
	IsDemo              bool             `json:"is_demo"`
}

type TestStartedEvent struct {
	UserID      string    `json:"user_id,omitempty"`
	ExerciseIDs []string  `json:"exercise_ids"`
	StartedAt   time.Time `json:"started_at"`
}

type ExerciseScore struct {
	ExerciseID string             `json:"exercise_id"`
	Kind       models.PayloadKind `json:"kind"`
	Correct    int                `json:"correct"`
	Total      int                `json:"total"`
	Percentage int                `json:"percentage"`
	AutoScored bool               `json:"auto_scored"`
	TimedOut   bool               `json:"timed_out"`
}

type TestCompletedEvent struct {
	UserID            string          `json:"user_id,omitempty"`
	CompletedAt       time.Time       `json:"completed_at"`
	Exercises         []ExerciseScore `json:"exercises"`
	Correct           int             `json:"correct"`
	Total             int             `json:"total"`
	OverallPercentage int             `json:"overall_percentage"`
}

type TestResetEvent struct {
	UserID     string    `json:"user_id,omitempty"`
	PriorState string    `json:"prior_state"`
	ResetAt    time.Time `json:"reset_at"`
}

// Exercise event payloads

type ExerciseSubmittedEvent struct {
	UserID   string        `json:"user_id,omitempty"`
	Score    ExerciseScore `json:"score"`
	Practice bool          `json:"practice"`
}
