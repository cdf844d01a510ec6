package api

import (
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Artemisxxx37/my-health/internal/agent"
	"github.com/Artemisxxx37/my-health/internal/diagnosis"
	"github.com/Artemisxxx37/my-health/internal/domain"
	"github.com/Artemisxxx37/my-health/internal/ensemble"
	"github.com/Artemisxxx37/my-health/internal/extractor"
	"github.com/Artemisxxx37/my-health/internal/history"
	"github.com/Artemisxxx37/my-health/internal/repository"
	"github.com/Artemisxxx37/my-health/internal/risk"
)

const emergencyMessage = "URGENCE MÉDICALE DÉTECTÉE\n\n" +
	"Vos symptômes nécessitent une attention médicale IMMÉDIATE.\n\n" +
	"Appelez le 15 (SAMU) maintenant\n" +
	"Ou rendez-vous aux urgences les plus proches\n\n" +
	"ATTENTION: Ne perdez pas de temps, chaque minute compte !"

// Handler bundles the triage pipeline behind the HTTP endpoints.
type Handler struct {
	logger       *logrus.Logger
	extractor    *extractor.Extractor
	classifier   *ensemble.Classifier
	aggregator   *diagnosis.Aggregator
	analyzer     *history.Analyzer
	scorer       *risk.Scorer
	agent        *agent.Agent
	store        repository.Store
	artifactPath string
	retraining   atomic.Bool
}

// NewHandler wires the pipeline components into a handler set.
func NewHandler(
	logger *logrus.Logger,
	ext *extractor.Extractor,
	clf *ensemble.Classifier,
	agg *diagnosis.Aggregator,
	analyzer *history.Analyzer,
	scorer *risk.Scorer,
	ag *agent.Agent,
	store repository.Store,
	artifactPath string,
) *Handler {
	return &Handler{
		logger:       logger,
		extractor:    ext,
		classifier:   clf,
		aggregator:   agg,
		analyzer:     analyzer,
		scorer:       scorer,
		agent:        ag,
		store:        store,
		artifactPath: artifactPath,
	}
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
	UserID  string `json:"user_id"`
}

// Chat is the main conversational endpoint. Emergencies short-circuit the
// dialogue; otherwise the agent decides whether to run a full analysis.
func (h *Handler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	if req.UserID == "" {
		req.UserID = "anonymous"
	}

	h.logger.WithFields(logrus.Fields{
		"user_id": req.UserID,
	}).Info("chat request")

	if h.extractor.CheckEmergency(req.Message) {
		h.saveConversation(c, req.UserID, req.Message, emergencyMessage, "emergency")
		h.saveConsultation(c, &repository.Consultation{
			UserID:    req.UserID,
			Message:   req.Message,
			Emergency: true,
		})
		c.JSON(http.StatusOK, gin.H{
			"message":   emergencyMessage,
			"emergency": true,
			"intent":    "emergency",
			"severity":  "critique",
		})
		return
	}

	turn := h.agent.HandleConversation(c.Request.Context(), req.UserID, req.Message)

	if turn.NeedsAnalysis {
		h.performSymptomAnalysis(c, req.UserID, req.Message, turn)
		return
	}

	h.saveConversation(c, req.UserID, req.Message, turn.Response, turn.Intent)
	c.JSON(http.StatusOK, gin.H{
		"message":        turn.Response,
		"intent":         turn.Intent,
		"conversational": true,
		"needs_analysis": false,
	})
}

// performSymptomAnalysis runs extraction, classification and aggregation,
// persists the consultation and renders the diagnostic narrative.
func (h *Handler) performSymptomAnalysis(c *gin.Context, userID, message string, turn *agent.TurnResult) {
	extraction := h.extractor.Extract(message)

	var classification *domain.ClassificationResult
	if cls, err := h.classifier.Predict(message); err != nil {
		h.logger.WithError(err).Warn("ML prediction unavailable")
	} else {
		classification = cls
	}

	candidates, err := h.aggregator.Aggregate(extraction.Symptoms, classification)
	if err != nil {
		if domain.IsInsufficientInput(err) {
			prompt := h.agent.GenerateSymptomPrompt()
			h.saveConversation(c, userID, message, prompt, "no_symptoms")
			c.JSON(http.StatusOK, gin.H{
				"message":         prompt,
				"symptoms":        []string{},
				"needs_more_info": true,
			})
			return
		}
		h.logger.WithError(err).Error("diagnosis aggregation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.saveConsultation(c, &repository.Consultation{
		UserID:    userID,
		Message:   message,
		Symptoms:  extraction.Symptoms,
		Diagnosis: candidates,
	})

	response := h.renderDiagnosis(turn.Response, extraction.Symptoms, candidates)
	response = h.agent.EnhanceDiagnosisResponse(c.Request.Context(), response, extraction.Symptoms)
	response += fmt.Sprintf("\n%s\n", strings.Repeat("=", 40))
	response += "AVERTISSEMENT\n"
	response += "Cette analyse est préliminaire et automatisée.\n"
	response += "Consultez un professionnel de santé pour un diagnostic définitif.\n"

	h.saveConversation(c, userID, message, response, "diagnosis")

	c.JSON(http.StatusOK, gin.H{
		"message":           response,
		"symptoms":          extraction.Symptoms,
		"possible_diseases": candidates,
		"ml_prediction":     classification,
		"emergency":         false,
		"conversational":    true,
	})
}

// renderDiagnosis builds the French diagnostic narrative.
func (h *Handler) renderDiagnosis(preamble string, symptoms []string, candidates []domain.DiagnosisCandidate) string {
	top := candidates[0]

	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("ANALYSE DIAGNOSTIQUE\n")
	b.WriteString(strings.Repeat("=", 40))
	b.WriteString("\n\n")

	if len(symptoms) > 0 {
		fmt.Fprintf(&b, "Symptômes identifiés:\n   %s\n\n", strings.Join(symptoms, ", "))
	}

	b.WriteString("Diagnostic le plus probable:\n")
	fmt.Fprintf(&b, "   -> %s\n", strings.ToUpper(top.Disease))
	fmt.Fprintf(&b, "   -> Confiance: %.1f%%\n", top.Confidence)
	fmt.Fprintf(&b, "   -> Gravité: %s\n", top.Severity)
	fmt.Fprintf(&b, "   -> Méthode: %s\n\n", methodLabel(top.Method))

	b.WriteString("RECOMMANDATIONS:\n")
	for i, rec := range top.Recommendations {
		fmt.Fprintf(&b, "   %d. %s\n", i+1, rec)
	}

	if len(candidates) > 1 {
		b.WriteString("\nAutres diagnostics possibles:\n")
		for _, cand := range candidates[1:min(3, len(candidates))] {
			fmt.Fprintf(&b, "   • %s (%.1f%%)\n", cand.Disease, cand.Confidence)
		}
	}

	return b.String()
}

func methodLabel(m domain.DiagnosisMethod) string {
	switch m {
	case domain.MethodHybrid:
		return "IA + Règles"
	case domain.MethodML:
		return "IA"
	default:
		return "Règles"
	}
}

type predictRequest struct {
	UserID   string `json:"user_id"`
	UserData struct {
		Age       int    `json:"age"`
		Lifestyle string `json:"lifestyle"`
	} `json:"user_data"`
}

// PredictHealth runs the longitudinal risk analysis over a user's stored
// consultation history.
func (h *Handler) PredictHealth(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.UserID == "" {
		req.UserID = "anonymous"
	}

	consultations, err := h.store.ListConsultations(c.Request.Context(), req.UserID, repository.ConsultationListLimit)
	if err != nil {
		h.logger.WithError(err).Error("failed to fetch history")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Impossible de récupérer l'historique",
			"message": err.Error(),
		})
		return
	}

	summary := h.analyzer.Analyze(repository.ConsultationHistory(consultations))

	if !summary.SufficientData {
		c.JSON(http.StatusOK, gin.H{
			"has_predictions": false,
			"message": fmt.Sprintf("DONNÉES INSUFFISANTES\n\n"+
				"Pour une analyse prédictive fiable, j'ai besoin de plus de consultations.\n\n"+
				"Consultations actuelles: %d\n"+
				"Minimum requis: 2-3 consultations\n\n"+
				"Continuez à utiliser DiagnoX et revenez dans quelques semaines !", len(consultations)),
			"consultations_count": len(consultations),
			"minimum_required":    2,
		})
		return
	}

	user := domain.UserAttributes{
		Age:       req.UserData.Age,
		Lifestyle: req.UserData.Lifestyle,
	}

	predictions := h.scorer.Score(user, summary)
	report := risk.GenerateReport(predictions, user, summary.TotalConsultations)
	nextCheckup := risk.NextCheckup(predictions)

	record := &repository.Prediction{
		UserID:        req.UserID,
		Predictions:   predictions,
		Report:        report.Message,
		PriorityLevel: string(report.PriorityLevel),
		NextCheckup:   nextCheckup,
	}
	if err := h.store.SavePrediction(c.Request.Context(), record); err != nil {
		h.logger.WithError(err).Warn("failed to save prediction")
	}

	c.JSON(http.StatusOK, gin.H{
		"has_predictions": report.HasPredictions,
		"message":         report.Message,
		"predictions":     predictions,
		"priority_level":  report.PriorityLevel,
		"next_checkup":    nextCheckup,
		"history_summary": gin.H{
			"total_consultations": summary.TotalConsultations,
			"recurring_symptoms":  summary.RecurringSymptoms,
			"avg_frequency_days":  summary.AvgIntervalDays,
		},
	})
}

// History returns a user's stored consultations, most recent first.
func (h *Handler) History(c *gin.Context) {
	userID := c.Param("user_id")

	consultations, err := h.store.ListConsultations(c.Request.Context(), userID, 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if consultations == nil {
		consultations = []*repository.Consultation{}
	}

	c.JSON(http.StatusOK, gin.H{"consultations": consultations})
}

// Predictions returns a user's stored predictive analyses.
func (h *Handler) Predictions(c *gin.Context) {
	userID := c.Param("user_id")

	predictions, err := h.store.ListPredictions(c.Request.Context(), userID, repository.PredictionListLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if predictions == nil {
		predictions = []*repository.Prediction{}
	}

	c.JSON(http.StatusOK, gin.H{"predictions": predictions})
}

// Conversations returns a user's dialogue history.
func (h *Handler) Conversations(c *gin.Context) {
	userID := c.Param("user_id")

	conversations, err := h.store.ListConversations(c.Request.Context(), userID, repository.ConversationListLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if conversations == nil {
		conversations = []*repository.ConversationTurn{}
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// Health reports the status of every subsystem.
func (h *Handler) Health(c *gin.Context) {
	mlStatus := "not loaded"
	if h.classifier.IsTrained() {
		mlStatus = "loaded"
	}

	dbStatus := "connected"
	if err := h.store.Health(c.Request.Context()); err != nil {
		dbStatus = "disconnected"
	}

	agentStatus := "degraded"
	if h.agent.Active() {
		agentStatus = "active"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":               "healthy",
		"ml_model":             mlStatus,
		"database":             dbStatus,
		"conversational_agent": agentStatus,
		"classifier":           h.classifier.Info(),
		"timestamp":            time.Now().UTC().Format(time.RFC3339),
	})
}

// Retrain rebuilds the model panel on a background goroutine. Prediction
// keeps serving the previous model until the swap. Only one retrain runs
// at a time.
func (h *Handler) Retrain(c *gin.Context) {
	if !h.retraining.CompareAndSwap(false, true) {
		c.JSON(http.StatusConflict, gin.H{
			"status":  "busy",
			"message": "Un réentraînement est déjà en cours",
		})
		return
	}

	go func() {
		defer h.retraining.Store(false)

		report, err := h.classifier.Train()
		if err != nil {
			h.logger.WithError(err).Error("retraining failed")
			return
		}

		if h.artifactPath != "" {
			if err := h.classifier.Save(h.artifactPath); err != nil {
				h.logger.WithError(err).Error("failed to save model artifact")
				return
			}
		}

		h.logger.WithFields(logrus.Fields{
			"dataset_size":  report.DatasetSize,
			"disease_count": report.DiseaseCount,
		}).Info("model retrained")
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": "Réentraînement du modèle lancé",
	})
}

func (h *Handler) saveConversation(c *gin.Context, userID, message, response, intent string) {
	err := h.store.SaveConversation(c.Request.Context(), &repository.ConversationTurn{
		UserID:   userID,
		Message:  message,
		Response: response,
		Intent:   intent,
	})
	if err != nil {
		h.logger.WithError(err).Warn("failed to save conversation")
	}
}

func (h *Handler) saveConsultation(c *gin.Context, record *repository.Consultation) {
	if err := h.store.SaveConsultation(c.Request.Context(), record); err != nil {
		h.logger.WithError(err).Warn("failed to save consultation")
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
