// Package repository persists consultation, prediction and conversation
// records behind a storage-agnostic Store interface, with SQLite and
// Postgres implementations.
package repository

import (
	"context"
	"time"

	"github.com/Artemisxxx37/my-health/internal/domain"
)

// Default list limits served to the API layer.
const (
	ConsultationListLimit = 50
	PredictionListLimit   = 5
	ConversationListLimit = 50
)

// Consultation is one stored consultation outcome.
type Consultation struct {
	ID        string                      `json:"id"`
	UserID    string                      `json:"user_id"`
	Message   string                      `json:"message"`
	Symptoms  []string                    `json:"symptoms"`
	Diagnosis []domain.DiagnosisCandidate `json:"diagnosis"`
	Emergency bool                        `json:"emergency"`
	Timestamp time.Time                   `json:"timestamp"`
}

// Prediction is one stored predictive-analysis outcome.
type Prediction struct {
	ID            string                  `json:"id"`
	UserID        string                  `json:"user_id"`
	Predictions   []domain.RiskPrediction `json:"predictions"`
	Report        string                  `json:"report"`
	PriorityLevel string                  `json:"priority_level"`
	NextCheckup   string                  `json:"next_checkup"`
	Timestamp     time.Time               `json:"timestamp"`
}

// ConversationTurn is one stored exchange of the dialogue manager.
type ConversationTurn struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Intent    string    `json:"intent"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is the persistence interface the API layer depends on.
type Store interface {
	SaveConsultation(ctx context.Context, c *Consultation) error
	ListConsultations(ctx context.Context, userID string, limit int) ([]*Consultation, error)

	SavePrediction(ctx context.Context, p *Prediction) error
	ListPredictions(ctx context.Context, userID string, limit int) ([]*Prediction, error)

	SaveConversation(ctx context.Context, t *ConversationTurn) error
	ListConversations(ctx context.Context, userID string, limit int) ([]*ConversationTurn, error)

	Health(ctx context.Context) error
	Close() error
}

// ConsultationHistory converts stored consultations into the read-only
// records the history analyzer consumes.
func ConsultationHistory(consultations []*Consultation) []domain.ConsultationRecord {
	records := make([]domain.ConsultationRecord, len(consultations))
	for i, c := range consultations {
		records[i] = domain.ConsultationRecord{
			UserID:    c.UserID,
			Timestamp: c.Timestamp,
			Symptoms:  c.Symptoms,
			Diagnosis: c.Diagnosis,
		}
	}
	return records
}
