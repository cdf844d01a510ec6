package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Artemisxxx37/my-health/internal/agent"
	"github.com/Artemisxxx37/my-health/internal/config"
	"github.com/Artemisxxx37/my-health/internal/diagnosis"
	"github.com/Artemisxxx37/my-health/internal/domain"
	"github.com/Artemisxxx37/my-health/internal/ensemble"
	"github.com/Artemisxxx37/my-health/internal/extractor"
	"github.com/Artemisxxx37/my-health/internal/history"
	"github.com/Artemisxxx37/my-health/internal/repository"
	"github.com/Artemisxxx37/my-health/internal/risk"
)

type testEnv struct {
	router *gin.Engine
	store  repository.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	classifier := ensemble.New(logger, 42)
	_, err = classifier.Train()
	require.NoError(t, err)

	historyStore, err := agent.NewMemoryHistoryStore(100)
	require.NoError(t, err)
	conversationalAgent := agent.New(logger, agent.Config{History: historyStore})

	handler := NewHandler(
		logger,
		extractor.New(logger, "fr"),
		classifier,
		diagnosis.New(logger),
		history.New(logger),
		risk.NewScorer(logger),
		conversationalAgent,
		store,
		filepath.Join(t.TempDir(), "model.json"),
	)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host: "127.0.0.1", Port: 8080,
			ShutdownTimeout: time.Second,
			RateLimit:       1000, RateBurst: 1000,
		},
		Logging: config.LoggingConfig{Level: "error"},
	}

	server := NewServer(cfg, logger, handler)
	return &testEnv{router: server.Router(), store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "loaded", body["ml_model"])
	assert.Equal(t, "connected", body["database"])
	assert.Equal(t, "degraded", body["conversational_agent"])
}

func TestChat_MissingMessage(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/api/chat", map[string]string{"user_id": "u1"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_Emergency(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/api/chat", map[string]string{
		"message": "j'ai une douleur thoracique très forte",
		"user_id": "u1",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["emergency"])
	assert.Equal(t, "emergency", body["intent"])
	assert.Contains(t, body["message"], "URGENCE")

	// The emergency consultation is persisted.
	consultations, err := env.store.ListConsultations(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, consultations, 1)
	assert.True(t, consultations[0].Emergency)
}

func TestChat_Conversational(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/api/chat", map[string]string{
		"message": "bonjour",
		"user_id": "u1",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["conversational"])
	assert.Equal(t, false, body["needs_analysis"])
	assert.Equal(t, "greeting", body["intent"])

	conversations, err := env.store.ListConversations(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Len(t, conversations, 1)
}

func TestChat_SymptomAnalysis(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/api/chat", map[string]string{
		"message": "j'ai de la fièvre, de la toux, de la fatigue et des courbatures",
		"user_id": "u1",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["emergency"])

	diseases, ok := body["possible_diseases"].([]interface{})
	require.True(t, ok, "analysis response carries the ranked diagnosis list")
	require.NotEmpty(t, diseases)

	top := diseases[0].(map[string]interface{})
	assert.Equal(t, "grippe", top["disease"])

	// The consultation with its diagnosis was persisted.
	consultations, err := env.store.ListConsultations(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, consultations, 1)
	assert.NotEmpty(t, consultations[0].Diagnosis)
	assert.Contains(t, consultations[0].Symptoms, "fièvre")
}

func TestChat_AnalysisWithoutCataloguedSymptoms(t *testing.T) {
	env := newTestEnv(t)

	// Enough symptom mentions to trigger analysis, but none of them maps to
	// a catalogued symptom: the pipeline must ask for more detail instead of
	// answering with a diagnosis.
	rec, body := env.do(t, http.MethodPost, "/api/chat", map[string]string{
		"message": "j'ai des vertiges, des palpitations et des sueurs depuis hier",
		"user_id": "u1",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["needs_more_info"])
	assert.NotEmpty(t, body["message"])
	assert.Empty(t, body["symptoms"])
}

func TestPredictHealth_InsufficientData(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/api/predict-health", map[string]interface{}{
		"user_id": "new-user",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["has_predictions"])
	assert.Contains(t, body["message"], "DONNÉES INSUFFISANTES")
}

func TestPredictHealth_RecurringDisease(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, env.store.SaveConsultation(ctx, &repository.Consultation{
			UserID:    "u1",
			Symptoms:  []string{"éternuements"},
			Diagnosis: []domain.DiagnosisCandidate{{Disease: "allergie"}},
			Timestamp: base.AddDate(0, i, 0),
		}))
	}

	rec, body := env.do(t, http.MethodPost, "/api/predict-health", map[string]interface{}{
		"user_id": "u1",
		"user_data": map[string]interface{}{
			"age":       25,
			"lifestyle": "active",
		},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["has_predictions"])
	assert.Equal(t, "high", body["priority_level"])
	assert.Contains(t, body["next_checkup"], "2 semaines")

	predictions, ok := body["predictions"].([]interface{})
	require.True(t, ok)
	require.Len(t, predictions, 1)
	top := predictions[0].(map[string]interface{})
	assert.Equal(t, "allergie", top["disease"])
	assert.Equal(t, 100.0, top["risk_score"])

	// The analysis was persisted.
	stored, err := env.store.ListPredictions(ctx, "u1", 5)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestHistoryEndpoint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.SaveConsultation(ctx, &repository.Consultation{
		UserID:   "u1",
		Symptoms: []string{"toux"},
	}))

	rec, body := env.do(t, http.MethodGet, "/api/history/u1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	consultations, ok := body["consultations"].([]interface{})
	require.True(t, ok)
	assert.Len(t, consultations, 1)
}

func TestHistoryEndpoint_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodGet, "/api/history/nobody", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	consultations, ok := body["consultations"].([]interface{})
	require.True(t, ok, "empty history renders as an empty list, not null")
	assert.Empty(t, consultations)
}

func TestConversationsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/chat", map[string]string{
		"message": "bonjour",
		"user_id": "u1",
	})

	rec, body := env.do(t, http.MethodGet, "/api/conversations/u1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	conversations, ok := body["conversations"].([]interface{})
	require.True(t, ok)
	assert.Len(t, conversations, 1)
}

func TestRetrainEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/api/retrain", nil)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "accepted", body["status"])
}

func TestCorrelationIDHeader(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodGet, "/api/health", nil)

	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}
