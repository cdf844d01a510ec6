// Package diagnosis merges rule-based symptom matches and ensemble
// classification output into a single ranked, deduplicated diagnosis list.
package diagnosis

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/Artemisxxx37/my-health/internal/domain"
	"github.com/Artemisxxx37/my-health/internal/knowledge"
)

// Aggregator combines the two reasoning paths into diagnosis candidates.
type Aggregator struct {
	logger *logrus.Logger
}

// New creates an aggregator.
func New(logger *logrus.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Aggregate ranks candidate diseases. For each disease with at least one
// matched symptom, rule confidence is matched/total*100. A classifier hit
// on a disease already present from rules averages the two confidences and
// marks the candidate hybrid; a classifier hit on a new catalogued disease
// is appended with its own confidence. An empty outcome is surfaced as
// InsufficientInputError, never as an empty success.
func (a *Aggregator) Aggregate(symptoms []string, classification *domain.ClassificationResult) ([]domain.DiagnosisCandidate, error) {
	symptomSet := make(map[string]struct{}, len(symptoms))
	for _, s := range symptoms {
		symptomSet[s] = struct{}{}
	}

	var candidates []domain.DiagnosisCandidate
	for _, entry := range knowledge.Base {
		matches := 0
		for _, s := range entry.Symptoms {
			if _, ok := symptomSet[s]; ok {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		confidence := float64(matches) / float64(len(entry.Symptoms)) * 100
		candidates = append(candidates, domain.DiagnosisCandidate{
			Disease:         entry.Disease,
			Confidence:      round2(confidence),
			Severity:        entry.Severity,
			Recommendations: entry.Recommendations,
			Method:          domain.MethodRules,
		})
	}

	if classification != nil {
		if entry := knowledge.Lookup(classification.PredictedDisease); entry != nil {
			merged := false
			for i := range candidates {
				if candidates[i].Disease == entry.Disease {
					candidates[i].Confidence = round2((candidates[i].Confidence + classification.Confidence) / 2)
					candidates[i].Method = domain.MethodHybrid
					merged = true
					break
				}
			}
			if !merged {
				candidates = append(candidates, domain.DiagnosisCandidate{
					Disease:         entry.Disease,
					Confidence:      round2(classification.Confidence),
					Severity:        entry.Severity,
					Recommendations: entry.Recommendations,
					Method:          domain.MethodML,
				})
			}
		}
	}

	if len(candidates) == 0 {
		return nil, &domain.InsufficientInputError{Symptoms: symptoms}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	a.logger.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"top":        candidates[0].Disease,
	}).Debug("Diagnosis aggregation completed")

	return candidates, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
