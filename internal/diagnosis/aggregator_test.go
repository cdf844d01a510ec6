package diagnosis

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Artemisxxx37/my-health/internal/domain"
)

func newTestAggregator(t *testing.T) *Aggregator {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return New(logger)
}

func findCandidate(candidates []domain.DiagnosisCandidate, disease string) *domain.DiagnosisCandidate {
	for i := range candidates {
		if candidates[i].Disease == disease {
			return &candidates[i]
		}
	}
	return nil
}

func TestAggregate_RulesOnly(t *testing.T) {
	agg := newTestAggregator(t)

	// 4 of grippe's 6 catalogued symptoms.
	symptoms := []string{"fièvre", "toux", "fatigue", "courbatures"}

	candidates, err := agg.Aggregate(symptoms, nil)

	require.NoError(t, err)
	require.NotEmpty(t, candidates)

	assert.Equal(t, "grippe", candidates[0].Disease, "grippe must rank first")
	assert.InDelta(t, 66.67, candidates[0].Confidence, 0.01)
	assert.Equal(t, domain.MethodRules, candidates[0].Method)
	assert.Equal(t, domain.SeverityModerate, candidates[0].Severity)
	assert.NotEmpty(t, candidates[0].Recommendations)
}

func TestAggregate_SortedByConfidenceDescending(t *testing.T) {
	agg := newTestAggregator(t)

	candidates, err := agg.Aggregate([]string{"fièvre", "toux", "mal de gorge"}, nil)

	require.NoError(t, err)
	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].Confidence, candidates[i].Confidence)
	}
}

func TestAggregate_HybridMerge(t *testing.T) {
	agg := newTestAggregator(t)

	symptoms := []string{"fièvre", "toux", "fatigue", "courbatures"}
	classification := &domain.ClassificationResult{
		PredictedDisease: "grippe",
		Confidence:       80.0,
	}

	candidates, err := agg.Aggregate(symptoms, classification)

	require.NoError(t, err)
	grippe := findCandidate(candidates, "grippe")
	require.NotNil(t, grippe)

	// Rule confidence 4/6*100 = 66.67, averaged with 80.
	assert.Equal(t, domain.MethodHybrid, grippe.Method)
	assert.InDelta(t, (66.67+80.0)/2, grippe.Confidence, 0.01)
}

func TestAggregate_DisagreementKeepsBoth(t *testing.T) {
	agg := newTestAggregator(t)

	symptoms := []string{"fièvre", "toux", "fatigue", "courbatures"}
	classification := &domain.ClassificationResult{
		PredictedDisease: "allergie",
		Confidence:       72.5,
	}

	candidates, err := agg.Aggregate(symptoms, classification)

	require.NoError(t, err)

	grippe := findCandidate(candidates, "grippe")
	require.NotNil(t, grippe)
	assert.Equal(t, domain.MethodRules, grippe.Method)

	allergie := findCandidate(candidates, "allergie")
	require.NotNil(t, allergie)
	assert.Equal(t, domain.MethodML, allergie.Method)
	assert.Equal(t, 72.5, allergie.Confidence)
	assert.Equal(t, domain.SeverityLight, allergie.Severity)
}

func TestAggregate_UncataloguedClassifierDiseaseIgnored(t *testing.T) {
	agg := newTestAggregator(t)

	classification := &domain.ClassificationResult{
		PredictedDisease: "maladie_inconnue",
		Confidence:       90.0,
	}

	candidates, err := agg.Aggregate([]string{"fièvre"}, classification)

	require.NoError(t, err)
	assert.Nil(t, findCandidate(candidates, "maladie_inconnue"))
}

func TestAggregate_EmptyOutcome(t *testing.T) {
	agg := newTestAggregator(t)

	tests := []struct {
		name           string
		symptoms       []string
		classification *domain.ClassificationResult
	}{
		{"no symptoms no classification", nil, nil},
		{"unknown symptoms only", []string{"symptome_inexistant"}, nil},
		{
			"unknown symptoms with uncatalogued classification",
			[]string{"symptome_inexistant"},
			&domain.ClassificationResult{PredictedDisease: "inconnue", Confidence: 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates, err := agg.Aggregate(tt.symptoms, tt.classification)
			assert.Nil(t, candidates)
			require.Error(t, err)
			assert.True(t, domain.IsInsufficientInput(err))
		})
	}
}

func TestAggregate_AtMostOneCandidatePerDisease(t *testing.T) {
	agg := newTestAggregator(t)

	classification := &domain.ClassificationResult{
		PredictedDisease: "grippe",
		Confidence:       55.0,
	}

	candidates, err := agg.Aggregate([]string{"fièvre", "toux", "frissons"}, classification)

	require.NoError(t, err)
	seen := make(map[string]int)
	for _, c := range candidates {
		seen[c.Disease]++
	}
	for disease, n := range seen {
		assert.Equal(t, 1, n, "disease %q listed more than once", disease)
	}
}
