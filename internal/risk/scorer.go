// Package risk turns recurrence statistics and user attributes into
// risk-scored predictions, a narrative report, and a next-checkup interval.
package risk

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/Artemisxxx37/my-health/internal/domain"
)

// ChronicConditionDisease labels the synthetic prediction emitted when
// symptoms recur without any recurring disease.
const ChronicConditionDisease = "condition_chronique"

// Scorer computes disease risk predictions from a history summary.
type Scorer struct {
	logger *logrus.Logger
}

// NewScorer creates a scorer.
func NewScorer(logger *logrus.Logger) *Scorer {
	return &Scorer{logger: logger}
}

// Score ranks risk predictions by descending score, ties keeping discovery
// order. For each recurring disease: base risk = occurrences/total*100,
// adjusted by age and lifestyle multipliers, clamped to [0,100]. When no
// disease recurs but at least one symptom does, a single generic chronic
// condition prediction at 50/medium anchors the most frequent symptom so
// recurrence is never silently dropped.
func (s *Scorer) Score(user domain.UserAttributes, summary domain.HistorySummary) []domain.RiskPrediction {
	ageMult := ageMultiplier(user.Age)
	lifestyleMult := lifestyleMultiplier(user.Lifestyle)

	diseases := make([]string, 0, len(summary.RecurringDiseases))
	for disease := range summary.RecurringDiseases {
		diseases = append(diseases, disease)
	}
	sort.Strings(diseases)

	var predictions []domain.RiskPrediction
	for _, disease := range diseases {
		count := summary.RecurringDiseases[disease]
		baseRisk := float64(count) / float64(summary.TotalConsultations) * 100
		score := clamp(baseRisk*ageMult*lifestyleMult, 0, 100)
		level := domain.RiskLevelForScore(score)

		predictions = append(predictions, domain.RiskPrediction{
			Disease:         disease,
			RiskScore:       math.Round(score*100) / 100,
			RiskLevel:       level,
			Occurrences:     count,
			Recommendations: Recommendations(disease, level),
		})
	}

	if len(predictions) == 0 && len(summary.RecurringSymptoms) > 0 {
		symptom, count := mostFrequent(summary.RecurringSymptoms)
		predictions = append(predictions, domain.RiskPrediction{
			Disease:     ChronicConditionDisease,
			RiskScore:   50.0,
			RiskLevel:   domain.RiskMedium,
			Occurrences: count,
			Recommendations: []string{
				"Symptôme récurrent détecté: " + symptom,
				"Consultation médicale recommandée pour bilan",
				"Tenir un journal des symptômes",
				"Identifier les facteurs déclenchants",
			},
		})
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].RiskScore > predictions[j].RiskScore
	})

	s.logger.WithFields(logrus.Fields{
		"predictions": len(predictions),
		"age":         user.Age,
		"lifestyle":   user.Lifestyle,
	}).Debug("Risk scoring completed")

	return predictions
}

func ageMultiplier(age int) float64 {
	switch {
	case age < 18:
		return 0.8
	case age < 40:
		return 1.0
	case age < 60:
		return 1.2
	default:
		return 1.5
	}
}

func lifestyleMultiplier(lifestyle string) float64 {
	switch lifestyle {
	case "very_active":
		return 0.8
	case "active":
		return 1.0
	case "sedentary":
		return 1.3
	default:
		return 1.0
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// mostFrequent picks the highest-count entry, lexicographically smallest
// name on ties so the anchor symptom is deterministic.
func mostFrequent(counts map[string]int) (string, int) {
	var bestName string
	bestCount := -1
	for name, count := range counts {
		if count > bestCount || (count == bestCount && name < bestName) {
			bestName, bestCount = name, count
		}
	}
	return bestName, bestCount
}
