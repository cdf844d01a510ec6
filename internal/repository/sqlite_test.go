package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Artemisxxx37/my-health/internal/domain"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	store, err := NewSQLiteStore(dbPath)

	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "database file should exist")
}

func TestSQLiteStore_SaveConsultation(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	c := &Consultation{
		UserID:   "u1",
		Message:  "j'ai de la fièvre et de la toux",
		Symptoms: []string{"fièvre", "toux"},
		Diagnosis: []domain.DiagnosisCandidate{
			{Disease: "grippe", Confidence: 66.67, Severity: domain.SeverityModerate, Method: domain.MethodRules},
		},
	}

	err := store.SaveConsultation(ctx, c)

	require.NoError(t, err)
	assert.NotEmpty(t, c.ID, "ID should be assigned")
	assert.False(t, c.Timestamp.IsZero(), "Timestamp should be set")
}

func TestSQLiteStore_ListConsultations(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.SaveConsultation(ctx, &Consultation{
			UserID:    "u1",
			Message:   "consultation",
			Symptoms:  []string{"toux"},
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, store.SaveConsultation(ctx, &Consultation{UserID: "other"}))

	result, err := store.ListConsultations(ctx, "u1", 0)

	require.NoError(t, err)
	require.Len(t, result, 3, "only the requested user's records")

	// Most recent first.
	for i := 1; i < len(result); i++ {
		assert.True(t, !result[i-1].Timestamp.Before(result[i].Timestamp))
	}
	assert.Equal(t, []string{"toux"}, result[0].Symptoms)
}

func TestSQLiteStore_ListConsultations_Limit(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.SaveConsultation(ctx, &Consultation{UserID: "u1"}))
	}

	result, err := store.ListConsultations(ctx, "u1", 2)

	require.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestSQLiteStore_RoundTripDiagnosis(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	diagnosis := []domain.DiagnosisCandidate{
		{
			Disease:         "grippe",
			Confidence:      73.34,
			Severity:        domain.SeverityModerate,
			Recommendations: []string{"Repos au lit pendant 5-7 jours"},
			Method:          domain.MethodHybrid,
		},
		{Disease: "rhume", Confidence: 25, Severity: domain.SeverityLight, Method: domain.MethodRules},
	}
	require.NoError(t, store.SaveConsultation(ctx, &Consultation{
		UserID:    "u1",
		Symptoms:  []string{"fièvre", "toux"},
		Diagnosis: diagnosis,
	}))

	result, err := store.ListConsultations(ctx, "u1", 1)

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, diagnosis, result[0].Diagnosis)
}

func TestSQLiteStore_Predictions(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	p := &Prediction{
		UserID: "u1",
		Predictions: []domain.RiskPrediction{
			{Disease: "allergie", RiskScore: 100, RiskLevel: domain.RiskHigh, Occurrences: 3},
		},
		Report:        "rapport",
		PriorityLevel: "high",
		NextCheckup:   "Prochain contrôle: URGENT - Consultation médicale dans les 2 semaines",
	}

	require.NoError(t, store.SavePrediction(ctx, p))
	assert.NotEmpty(t, p.ID)

	result, err := store.ListPredictions(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, p.Predictions, result[0].Predictions)
	assert.Equal(t, "high", result[0].PriorityLevel)
}

func TestSQLiteStore_Conversations(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveConversation(ctx, &ConversationTurn{
		UserID:   "u1",
		Message:  "bonjour",
		Response: "Bonjour ! Comment puis-je vous aider ?",
		Intent:   "greeting",
	}))

	result, err := store.ListConversations(ctx, "u1", 0)

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "greeting", result[0].Intent)
}

func TestSQLiteStore_EmptyListsForUnknownUser(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	consultations, err := store.ListConsultations(ctx, "nobody", 0)
	require.NoError(t, err)
	assert.Empty(t, consultations)

	predictions, err := store.ListPredictions(ctx, "nobody", 0)
	require.NoError(t, err)
	assert.Empty(t, predictions)
}

func TestSQLiteStore_Health(t *testing.T) {
	store := createTestStore(t)
	assert.NoError(t, store.Health(context.Background()))
}

func TestConsultationHistory(t *testing.T) {
	ts := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	consultations := []*Consultation{
		{
			UserID:    "u1",
			Timestamp: ts,
			Symptoms:  []string{"toux"},
			Diagnosis: []domain.DiagnosisCandidate{{Disease: "grippe"}},
		},
	}

	records := ConsultationHistory(consultations)

	require.Len(t, records, 1)
	assert.Equal(t, "u1", records[0].UserID)
	assert.Equal(t, ts, records[0].Timestamp)
	assert.Equal(t, []string{"toux"}, records[0].Symptoms)
}
