package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Artemisxxx37/my-health/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS consultations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		message TEXT DEFAULT '',
		symptoms TEXT NOT NULL DEFAULT '[]',
		diagnosis TEXT NOT NULL DEFAULT '[]',
		emergency INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS predictions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		predictions TEXT NOT NULL DEFAULT '[]',
		report TEXT DEFAULT '',
		priority_level TEXT DEFAULT '',
		next_checkup TEXT DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		message TEXT DEFAULT '',
		response TEXT DEFAULT '',
		intent TEXT DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_consultations_user ON consultations(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_predictions_user ON predictions(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id, created_at);
	`

	_, err := db.Exec(schema)
	return err
}

func scanConsultation(s scanner) (*Consultation, error) {
	c := &Consultation{}
	var symptomsJSON, diagnosisJSON string

	err := s.Scan(&c.ID, &c.UserID, &c.Message, &symptomsJSON, &diagnosisJSON, &c.Emergency, &c.Timestamp)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(symptomsJSON), &c.Symptoms); err != nil {
		return nil, fmt.Errorf("failed to decode symptoms: %w", err)
	}
	if err := json.Unmarshal([]byte(diagnosisJSON), &c.Diagnosis); err != nil {
		return nil, fmt.Errorf("failed to decode diagnosis: %w", err)
	}
	return c, nil
}

func scanPrediction(s scanner) (*Prediction, error) {
	p := &Prediction{}
	var predictionsJSON string

	err := s.Scan(&p.ID, &p.UserID, &predictionsJSON, &p.Report, &p.PriorityLevel, &p.NextCheckup, &p.Timestamp)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(predictionsJSON), &p.Predictions); err != nil {
		return nil, fmt.Errorf("failed to decode predictions: %w", err)
	}
	return p, nil
}

func scanConversation(s scanner) (*ConversationTurn, error) {
	t := &ConversationTurn{}
	err := s.Scan(&t.ID, &t.UserID, &t.Message, &t.Response, &t.Intent, &t.Timestamp)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// SaveConsultation stores a consultation record, assigning an ID and
// timestamp when absent.
func (s *SQLiteStore) SaveConsultation(ctx context.Context, c *Consultation) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now().UTC()
	}

	symptomsJSON, err := json.Marshal(sliceOrEmpty(c.Symptoms))
	if err != nil {
		return fmt.Errorf("failed to encode symptoms: %w", err)
	}
	diagnosisJSON, err := json.Marshal(candidatesOrEmpty(c.Diagnosis))
	if err != nil {
		return fmt.Errorf("failed to encode diagnosis: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO consultations (id, user_id, message, symptoms, diagnosis, emergency, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.UserID, c.Message, string(symptomsJSON), string(diagnosisJSON), c.Emergency, c.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert consultation: %w", err)
	}
	return nil
}

// ListConsultations returns a user's consultations, most recent first.
func (s *SQLiteStore) ListConsultations(ctx context.Context, userID string, limit int) ([]*Consultation, error) {
	if limit <= 0 {
		limit = ConsultationListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, message, symptoms, diagnosis, emergency, created_at
		FROM consultations
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query consultations: %w", err)
	}
	defer rows.Close()

	var result []*Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// SavePrediction stores a predictive-analysis record.
func (s *SQLiteStore) SavePrediction(ctx context.Context, p *Prediction) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now().UTC()
	}

	predictionsJSON, err := json.Marshal(predictionsOrEmpty(p.Predictions))
	if err != nil {
		return fmt.Errorf("failed to encode predictions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO predictions (id, user_id, predictions, report, priority_level, next_checkup, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.UserID, string(predictionsJSON), p.Report, p.PriorityLevel, p.NextCheckup, p.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}
	return nil
}

// ListPredictions returns a user's predictions, most recent first.
func (s *SQLiteStore) ListPredictions(ctx context.Context, userID string, limit int) ([]*Prediction, error) {
	if limit <= 0 {
		limit = PredictionListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, predictions, report, priority_level, next_checkup, created_at
		FROM predictions
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var result []*Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// SaveConversation stores one dialogue exchange.
func (s *SQLiteStore) SaveConversation(ctx context.Context, t *ConversationTurn) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, message, response, intent, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.UserID, t.Message, t.Response, t.Intent, t.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

// ListConversations returns a user's dialogue history, most recent first.
func (s *SQLiteStore) ListConversations(ctx context.Context, userID string, limit int) ([]*ConversationTurn, error) {
	if limit <= 0 {
		limit = ConversationListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, message, response, intent, created_at
		FROM conversations
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var result []*ConversationTurn
	for rows.Next() {
		t, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// Health pings the underlying database.
func (s *SQLiteStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func sliceOrEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func candidatesOrEmpty(in []domain.DiagnosisCandidate) []domain.DiagnosisCandidate {
	if in == nil {
		return []domain.DiagnosisCandidate{}
	}
	return in
}

func predictionsOrEmpty(in []domain.RiskPrediction) []domain.RiskPrediction {
	if in == nil {
		return []domain.RiskPrediction{}
	}
	return in
}
