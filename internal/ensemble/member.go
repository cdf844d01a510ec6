package ensemble

import (
	"fmt"
	"math/rand"
)

// Member is one tagged panel entry: the model kind, whether it exposes
// calibrated probabilities (recorded at training time), and exactly one
// populated trained state matching the kind.
type Member struct {
	Kind             ModelKind           `json:"kind"`
	HasProbabilities bool                `json:"has_probabilities"`
	Forest           *RandomForest       `json:"forest,omitempty"`
	Boosted          *BoostedTrees       `json:"boosted,omitempty"`
	Logistic         *LogisticRegression `json:"logistic,omitempty"`
	Bayes            *NaiveBayes         `json:"bayes,omitempty"`
}

// panelKinds fixes the panel composition and its iteration order. Vote
// tie-breaks resolve to the first label encountered in this order.
var panelKinds = []ModelKind{
	KindRandomForest,
	KindGradientBoosting,
	KindLogisticRegression,
	KindNaiveBayes,
}

// newMember creates an untrained member of the given kind. The boosted
// member is the only one without calibrated probabilities.
func newMember(kind ModelKind) *Member {
	m := &Member{Kind: kind, HasProbabilities: kind != KindGradientBoosting}
	switch kind {
	case KindRandomForest:
		m.Forest = newRandomForest()
	case KindGradientBoosting:
		m.Boosted = newBoostedTrees()
	case KindLogisticRegression:
		m.Logistic = newLogisticRegression()
	case KindNaiveBayes:
		m.Bayes = newNaiveBayes()
	}
	return m
}

// fit trains the member's underlying model.
func (m *Member) fit(x [][]float64, y []int, numClasses int, rng *rand.Rand) {
	switch m.Kind {
	case KindRandomForest:
		m.Forest.Fit(x, y, numClasses, rng)
	case KindGradientBoosting:
		m.Boosted.Fit(x, y, numClasses, rng)
	case KindLogisticRegression:
		m.Logistic.Fit(x, y, numClasses, rng)
	case KindNaiveBayes:
		m.Bayes.Fit(x, y, numClasses, rng)
	}
}

// predict returns the member's predicted class index.
func (m *Member) predict(x []float64) int {
	switch m.Kind {
	case KindRandomForest:
		return m.Forest.Predict(x)
	case KindGradientBoosting:
		return m.Boosted.Predict(x)
	case KindLogisticRegression:
		return m.Logistic.Predict(x)
	case KindNaiveBayes:
		return m.Bayes.Predict(x)
	}
	return 0
}

// confidence returns the member's confidence in its prediction on a 0-100
// scale. Members without calibrated probabilities contribute the fixed
// neutral 50.0 rather than abstaining.
func (m *Member) confidence(x []float64) float64 {
	if !m.HasProbabilities {
		return 50.0
	}
	var probs []float64
	switch m.Kind {
	case KindRandomForest:
		probs = m.Forest.Proba(x)
	case KindLogisticRegression:
		probs = m.Logistic.Proba(x)
	case KindNaiveBayes:
		probs = m.Bayes.Proba(x)
	default:
		return 50.0
	}
	return probs[argmax(probs)] * 100
}

// validate checks that the member carries exactly the trained state its tag
// promises. Used when restoring a persisted artifact.
func (m *Member) validate() error {
	var populated bool
	switch m.Kind {
	case KindRandomForest:
		populated = m.Forest != nil && len(m.Forest.Trees) > 0
	case KindGradientBoosting:
		populated = m.Boosted != nil && len(m.Boosted.Trees) > 0
	case KindLogisticRegression:
		populated = m.Logistic != nil && len(m.Logistic.Weights) > 0
	case KindNaiveBayes:
		populated = m.Bayes != nil && len(m.Bayes.FeatureLogProb) > 0
	default:
		return fmt.Errorf("unknown model kind %q", m.Kind)
	}
	if !populated {
		return fmt.Errorf("member %q has no trained state", m.Kind)
	}
	return nil
}
