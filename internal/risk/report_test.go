package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Artemisxxx37/my-health/internal/domain"
)

func TestGenerateReport_NoPredictions(t *testing.T) {
	report := GenerateReport(nil, domain.UserAttributes{Age: 30}, 5)

	assert.False(t, report.HasPredictions)
	assert.NotEmpty(t, report.Message)
	assert.Empty(t, report.PriorityLevel)
}

func TestGenerateReport_GroupsByLevel(t *testing.T) {
	predictions := []domain.RiskPrediction{
		{Disease: "grippe", RiskScore: 85, RiskLevel: domain.RiskHigh, Occurrences: 3, Recommendations: []string{"Vaccination antigrippale annuelle"}},
		{Disease: "migraine", RiskScore: 55, RiskLevel: domain.RiskMedium, Occurrences: 2},
		{Disease: "rhume", RiskScore: 20, RiskLevel: domain.RiskLow, Occurrences: 2},
	}

	report := GenerateReport(predictions, domain.UserAttributes{Age: 45, Lifestyle: "sedentary"}, 8)

	require.True(t, report.HasPredictions)
	assert.Equal(t, domain.RiskHigh, report.PriorityLevel)

	assert.Contains(t, report.Message, "PRIORITÉ ÉLEVÉE")
	assert.Contains(t, report.Message, "GRIPPE")
	assert.Contains(t, report.Message, "PRIORITÉ MOYENNE")
	assert.Contains(t, report.Message, "Migraine")
	assert.Contains(t, report.Message, "RISQUE FAIBLE")
	assert.Contains(t, report.Message, "Rhume")

	// The leading high-risk prediction drives the recommendation block.
	assert.Contains(t, report.Message, "Vaccination antigrippale annuelle")

	// Profile section.
	assert.Contains(t, report.Message, "Age: 45")
	assert.Contains(t, report.Message, "sedentary")
	assert.Contains(t, report.Message, "Consultations analysées: 8")
}

func TestGenerateReport_Deterministic(t *testing.T) {
	predictions := []domain.RiskPrediction{
		{Disease: "grippe", RiskScore: 85, RiskLevel: domain.RiskHigh},
		{Disease: "rhume", RiskScore: 20, RiskLevel: domain.RiskLow},
	}
	user := domain.UserAttributes{Age: 30, Lifestyle: "active"}

	first := GenerateReport(predictions, user, 4)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, GenerateReport(predictions, user, 4))
	}
}

func TestPriorityLevel(t *testing.T) {
	tests := []struct {
		name        string
		predictions []domain.RiskPrediction
		want        domain.RiskLevel
	}{
		{"empty", nil, domain.RiskLow},
		{"only low", []domain.RiskPrediction{{RiskLevel: domain.RiskLow}}, domain.RiskLow},
		{"medium dominates low", []domain.RiskPrediction{{RiskLevel: domain.RiskLow}, {RiskLevel: domain.RiskMedium}}, domain.RiskMedium},
		{"high dominates all", []domain.RiskPrediction{{RiskLevel: domain.RiskMedium}, {RiskLevel: domain.RiskHigh}}, domain.RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PriorityLevel(tt.predictions))
		})
	}
}

func TestNextCheckup(t *testing.T) {
	tests := []struct {
		name        string
		predictions []domain.RiskPrediction
		contains    string
	}{
		{"no predictions", nil, "6 mois"},
		{"high risk", []domain.RiskPrediction{{RiskLevel: domain.RiskHigh}}, "2 semaines"},
		{"medium risk", []domain.RiskPrediction{{RiskLevel: domain.RiskMedium}}, "1-2 mois"},
		{"low risk", []domain.RiskPrediction{{RiskLevel: domain.RiskLow}}, "3-6 mois"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, NextCheckup(tt.predictions), tt.contains)
		})
	}
}
