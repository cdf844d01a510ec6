package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements the Store interface on PostgreSQL through the
// pgx stdlib driver.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool against dsn and bootstraps the
// schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.createSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return store, nil
}

// NewPostgresStoreWithDB wraps an existing connection without schema
// bootstrap. Used in tests.
func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) createSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS consultations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		message TEXT DEFAULT '',
		symptoms JSONB NOT NULL DEFAULT '[]',
		diagnosis JSONB NOT NULL DEFAULT '[]',
		emergency BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS predictions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		predictions JSONB NOT NULL DEFAULT '[]',
		report TEXT DEFAULT '',
		priority_level TEXT DEFAULT '',
		next_checkup TEXT DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		message TEXT DEFAULT '',
		response TEXT DEFAULT '',
		intent TEXT DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_consultations_user ON consultations(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_predictions_user ON predictions(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id, created_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveConsultation stores a consultation record.
func (s *PostgresStore) SaveConsultation(ctx context.Context, c *Consultation) error {
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
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.UserID, c.Message, string(symptomsJSON), string(diagnosisJSON), c.Emergency, c.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert consultation: %w", err)
	}
	return nil
}

// ListConsultations returns a user's consultations, most recent first.
func (s *PostgresStore) ListConsultations(ctx context.Context, userID string, limit int) ([]*Consultation, error) {
	if limit <= 0 {
		limit = ConsultationListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, message, symptoms, diagnosis, emergency, created_at
		FROM consultations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
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
func (s *PostgresStore) SavePrediction(ctx context.Context, p *Prediction) error {
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
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.UserID, string(predictionsJSON), p.Report, p.PriorityLevel, p.NextCheckup, p.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}
	return nil
}

// ListPredictions returns a user's predictions, most recent first.
func (s *PostgresStore) ListPredictions(ctx context.Context, userID string, limit int) ([]*Prediction, error) {
	if limit <= 0 {
		limit = PredictionListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, predictions, report, priority_level, next_checkup, created_at
		FROM predictions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
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
func (s *PostgresStore) SaveConversation(ctx context.Context, t *ConversationTurn) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, message, response, intent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.ID, t.UserID, t.Message, t.Response, t.Intent, t.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

// ListConversations returns a user's dialogue history, most recent first.
func (s *PostgresStore) ListConversations(ctx context.Context, userID string, limit int) ([]*ConversationTurn, error) {
	if limit <= 0 {
		limit = ConversationListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, message, response, intent, created_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
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
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
