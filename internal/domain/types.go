// Package domain contains the core business entities for conversational
// symptom triage: symptom extraction results, ensemble classification
// results, diagnosis candidates, consultation history summaries and
// longitudinal risk predictions.
package domain

import (
	"time"
)

// Severity represents the clinical severity attached to a disease in the
// knowledge base.
type Severity string

const (
	SeverityLight    Severity = "léger"
	SeverityModerate Severity = "modéré"
	SeveritySevere   Severity = "grave"
)

// IsValid reports whether the severity is one of the catalogued levels.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLight, SeverityModerate, SeveritySevere:
		return true
	default:
		return false
	}
}

// DiagnosisMethod identifies which reasoning path produced a diagnosis
// candidate.
type DiagnosisMethod string

const (
	MethodRules  DiagnosisMethod = "rules"
	MethodML     DiagnosisMethod = "ml"
	MethodHybrid DiagnosisMethod = "hybrid"
)

// RiskLevel is the three-tier bucket derived from a numeric risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskLevelForScore buckets a risk score using the fixed 40/70 thresholds.
func RiskLevelForScore(score float64) RiskLevel {
	switch {
	case score >= 70:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ExtractionResult is the outcome of rule-based symptom extraction over one
// input text. Symptoms carries no ordering guarantee.
type ExtractionResult struct {
	Symptoms    []string `json:"symptoms_detected"`
	IsEmergency bool     `json:"is_emergency"`
}

// ModelVote is one panel member's prediction for a single input.
type ModelVote struct {
	Disease    string  `json:"disease"`
	Confidence float64 `json:"confidence"`
}

// ClassificationResult is the outcome of one ensemble prediction.
type ClassificationResult struct {
	PredictedDisease string               `json:"predicted_disease"`
	Confidence       float64              `json:"confidence"`
	VotingDetails    map[string]int       `json:"voting_details"`
	ModelPredictions map[string]ModelVote `json:"model_predictions"`
	Consensus        bool                 `json:"consensus"`
}

// DiagnosisCandidate is one ranked entry of the aggregated diagnosis list.
// At most one candidate exists per disease name.
type DiagnosisCandidate struct {
	Disease         string          `json:"disease"`
	Confidence      float64         `json:"confidence"`
	Severity        Severity        `json:"severity"`
	Recommendations []string        `json:"recommendations"`
	Method          DiagnosisMethod `json:"method"`
}

// ConsultationRecord is a past consultation as handed to the core by the
// storage layer. The core only reads these.
type ConsultationRecord struct {
	UserID    string               `json:"user_id"`
	Timestamp interface{}          `json:"timestamp"`
	Symptoms  []string             `json:"symptoms"`
	Diagnosis []DiagnosisCandidate `json:"diagnosis"`
}

// HistorySummary aggregates a user's consultation history into recurrence
// statistics. SufficientData is true iff at least two records were usable.
type HistorySummary struct {
	SufficientData      bool           `json:"sufficient_data"`
	TotalConsultations  int            `json:"total_consultations"`
	UniqueSymptoms      int            `json:"unique_symptoms,omitempty"`
	UniqueDiseases      int            `json:"unique_diseases,omitempty"`
	RecurringSymptoms   map[string]int `json:"recurring_symptoms,omitempty"`
	RecurringDiseases   map[string]int `json:"recurring_diseases,omitempty"`
	AvgIntervalDays     float64        `json:"avg_consultation_interval_days"`
	MostCommonSymptoms  []NameCount    `json:"most_common_symptoms,omitempty"`
	MostCommonDiseases  []NameCount    `json:"most_common_diseases,omitempty"`
}

// NameCount pairs a symptom or disease name with its occurrence count.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RiskPrediction is one entry of the risk scorer's ranked output.
type RiskPrediction struct {
	Disease         string    `json:"disease"`
	RiskScore       float64   `json:"risk_score"`
	RiskLevel       RiskLevel `json:"risk_level"`
	Occurrences     int       `json:"occurrences"`
	Recommendations []string  `json:"recommendations"`
}

// UserAttributes carries the demographic inputs of risk scoring.
// Lifestyle values outside the known set fall back to a neutral multiplier.
type UserAttributes struct {
	Age       int    `json:"age"`
	Lifestyle string `json:"lifestyle"`
}

// Report is the narrative output of the report generator.
type Report struct {
	HasPredictions bool      `json:"has_predictions"`
	Message        string    `json:"message"`
	PriorityLevel  RiskLevel `json:"priority_level,omitempty"`
}

// TrainingReport holds per-model evaluation metrics produced during
// training. The metrics are diagnostic only; every panel member votes at
// prediction time regardless of its scores here.
type TrainingReport struct {
	DatasetSize  int                     `json:"dataset_size"`
	DiseaseCount int                     `json:"disease_count"`
	TrainedAt    time.Time               `json:"trained_at"`
	Models       map[string]ModelMetrics `json:"models"`
}

// ModelMetrics are the evaluation scores of one panel member.
type ModelMetrics struct {
	TrainAccuracy float64 `json:"train_accuracy"`
	TestAccuracy  float64 `json:"test_accuracy"`
	CVMean        float64 `json:"cv_mean"`
	CVStd         float64 `json:"cv_std"`
}
