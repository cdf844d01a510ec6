package ensemble

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Artemisxxx37/my-health/internal/domain"
	"github.com/Artemisxxx37/my-health/internal/knowledge"
)

const (
	testSplitRatio = 0.2
	cvFolds        = 5
	topImportance  = 20
)

// trainedState is the immutable artifact value behind the classifier's
// swappable reference. Retraining builds a fresh state off to the side and
// swaps; in-flight predictions keep reading the old one.
type trainedState struct {
	Vectorizer        *Vectorizer
	Labels            []string
	Members           []*Member
	FeatureImportance map[string]float64
	TrainedAt         time.Time
	Report            *domain.TrainingReport
}

// Classifier is the ensemble disease classifier. Safe for concurrent
// Predict calls; Train and Load serialize among themselves.
type Classifier struct {
	logger *logrus.Logger
	seed   int64

	trainMu sync.Mutex
	state   atomic.Pointer[trainedState]
}

// New creates an untrained classifier. Predict fails with ErrNotTrained
// until Train or Load succeeds.
func New(logger *logrus.Logger, seed int64) *Classifier {
	return &Classifier{logger: logger, seed: seed}
}

// IsTrained reports whether a trained artifact is installed.
func (c *Classifier) IsTrained() bool { return c.state.Load() != nil }

// Train fits the shared vectorizer and the full panel over the embedded
// corpus and atomically installs the resulting artifact. The returned
// report carries diagnostic metrics only; it never gates which members
// vote.
func (c *Classifier) Train() (*domain.TrainingReport, error) {
	return c.TrainWith(knowledge.TrainingCorpus())
}

// TrainWith trains from an explicit labeled corpus.
func (c *Classifier) TrainWith(examples []knowledge.LabeledExample) (*domain.TrainingReport, error) {
	c.trainMu.Lock()
	defer c.trainMu.Unlock()

	if len(examples) < 2 {
		return nil, fmt.Errorf("training requires at least 2 examples, got %d", len(examples))
	}

	start := time.Now()
	docs := make([]string, len(examples))
	labels := make([]string, len(examples))
	for i, ex := range examples {
		docs[i] = ex.Symptoms
		labels[i] = ex.Disease
	}

	labelNames, y := encodeLabels(labels)
	c.logger.WithFields(logrus.Fields{
		"examples": len(docs),
		"diseases": len(labelNames),
	}).Info("Starting ensemble training")

	vectorizer := &Vectorizer{}
	vectorizer.Fit(docs)
	x := vectorizer.TransformAll(docs)

	rng := rand.New(rand.NewSource(c.seed))
	trainIdx, testIdx := stratifiedSplit(y, len(labelNames), testSplitRatio, rng)

	report := &domain.TrainingReport{
		DatasetSize:  len(docs),
		DiseaseCount: len(labelNames),
		Models:       make(map[string]domain.ModelMetrics),
	}

	members := make([]*Member, 0, len(panelKinds))
	for _, kind := range panelKinds {
		member := newMember(kind)
		member.fit(subset(x, trainIdx), subsetInt(y, trainIdx), len(labelNames), rng)

		metrics := domain.ModelMetrics{
			TrainAccuracy: accuracy(member, x, y, trainIdx),
			TestAccuracy:  accuracy(member, x, y, testIdx),
		}
		metrics.CVMean, metrics.CVStd = c.crossValidate(kind, x, y, trainIdx, len(labelNames), rng)
		report.Models[string(kind)] = metrics

		c.logger.WithFields(logrus.Fields{
			"model":   kind,
			"train":   metrics.TrainAccuracy,
			"test":    metrics.TestAccuracy,
			"cv_mean": metrics.CVMean,
			"cv_std":  metrics.CVStd,
		}).Info("Panel member trained")
		members = append(members, member)
	}

	report.TrainedAt = time.Now().UTC()

	state := &trainedState{
		Vectorizer:        vectorizer,
		Labels:            labelNames,
		Members:           members,
		FeatureImportance: topFeatureImportance(members[0].Forest, vectorizer),
		TrainedAt:         report.TrainedAt,
		Report:            report,
	}
	c.state.Store(state)

	c.logger.WithField("duration", time.Since(start)).Info("Ensemble training completed")
	return report, nil
}

// Predict vectorizes the input once, runs every panel member, and combines
// votes by majority with the documented tie-break: among tied labels, the
// first encountered in panel order wins. Confidence is the mean of the
// confidences contributed by members that voted for the winner.
func (c *Classifier) Predict(text string) (*domain.ClassificationResult, error) {
	state := c.state.Load()
	if state == nil {
		return nil, domain.ErrNotTrained
	}

	vec := state.Vectorizer.Transform(text)

	votes := make(map[string]int, len(state.Members))
	modelPredictions := make(map[string]domain.ModelVote, len(state.Members))
	var voteOrder []string

	for _, member := range state.Members {
		disease := state.Labels[member.predict(vec)]
		if _, seen := votes[disease]; !seen {
			voteOrder = append(voteOrder, disease)
		}
		votes[disease]++
		modelPredictions[string(member.Kind)] = domain.ModelVote{
			Disease:    disease,
			Confidence: member.confidence(vec),
		}
	}

	winner := voteOrder[0]
	for _, disease := range voteOrder {
		if votes[disease] > votes[winner] {
			winner = disease
		}
	}

	var confSum float64
	var confCount int
	for _, vote := range modelPredictions {
		if vote.Disease == winner {
			confSum += vote.Confidence
			confCount++
		}
	}
	confidence := round2(confSum / float64(confCount))

	return &domain.ClassificationResult{
		PredictedDisease: winner,
		Confidence:       confidence,
		VotingDetails:    votes,
		ModelPredictions: modelPredictions,
		Consensus:        len(votes) == 1,
	}, nil
}

// Explanation describes why an input was classified as it was.
type Explanation struct {
	PredictedDisease  string             `json:"predicted_disease"`
	KeySymptoms       []ExplainedFeature `json:"key_symptoms_detected"`
	TotalFeaturesUsed int                `json:"total_features_used"`
}

// ExplainedFeature is one active feature with its input weight and its
// forest importance.
type ExplainedFeature struct {
	Symptom    string  `json:"symptom"`
	Weight     float64 `json:"weight"`
	Importance float64 `json:"importance"`
}

// Explain lists the input's active features ranked by forest importance.
func (c *Classifier) Explain(text string) (*Explanation, error) {
	state := c.state.Load()
	if state == nil {
		return nil, domain.ErrNotTrained
	}

	result, err := c.Predict(text)
	if err != nil {
		return nil, err
	}

	vec := state.Vectorizer.Transform(text)
	var active []ExplainedFeature
	for i, w := range vec {
		if w == 0 {
			continue
		}
		term := state.Vectorizer.Terms[i]
		active = append(active, ExplainedFeature{
			Symptom:    term,
			Weight:     math.Round(w*1000) / 1000,
			Importance: math.Round(state.FeatureImportance[term]*10000) / 10000,
		})
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].Importance != active[j].Importance {
			return active[i].Importance > active[j].Importance
		}
		return active[i].Symptom < active[j].Symptom
	})

	total := len(active)
	if len(active) > 5 {
		active = active[:5]
	}
	return &Explanation{
		PredictedDisease:  result.PredictedDisease,
		KeySymptoms:       active,
		TotalFeaturesUsed: total,
	}, nil
}

// Info summarizes the installed artifact for health reporting.
func (c *Classifier) Info() map[string]interface{} {
	state := c.state.Load()
	if state == nil {
		return map[string]interface{}{"status": "not_trained"}
	}
	kinds := make([]string, len(state.Members))
	for i, m := range state.Members {
		kinds[i] = string(m.Kind)
	}
	return map[string]interface{}{
		"status":     "trained",
		"models":     kinds,
		"diseases":   state.Labels,
		"n_features": state.Vectorizer.NumFeatures(),
		"trained_at": state.TrainedAt,
	}
}

// crossValidate runs k-fold cross-validation for one member kind over the
// training subset. Diagnostic only.
func (c *Classifier) crossValidate(kind ModelKind, x [][]float64, y []int, trainIdx []int, numClasses int, rng *rand.Rand) (mean, std float64) {
	folds := assignFolds(len(trainIdx), cvFolds, rng)
	scores := make([]float64, 0, cvFolds)

	for fold := 0; fold < cvFolds; fold++ {
		var fitIdx, evalIdx []int
		for i, f := range folds {
			if f == fold {
				evalIdx = append(evalIdx, trainIdx[i])
			} else {
				fitIdx = append(fitIdx, trainIdx[i])
			}
		}
		if len(evalIdx) == 0 || len(fitIdx) == 0 {
			continue
		}
		member := newMember(kind)
		member.fit(subset(x, fitIdx), subsetInt(y, fitIdx), numClasses, rng)
		scores = append(scores, accuracy(member, x, y, evalIdx))
	}

	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))
	for _, s := range scores {
		std += (s - mean) * (s - mean)
	}
	std = math.Sqrt(std / float64(len(scores)))
	return mean, std
}

// encodeLabels maps disease names to indices in sorted name order.
func encodeLabels(labels []string) ([]string, []int) {
	uniq := make(map[string]struct{})
	for _, l := range labels {
		uniq[l] = struct{}{}
	}
	names := make([]string, 0, len(uniq))
	for l := range uniq {
		names = append(names, l)
	}
	sort.Strings(names)
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}
	y := make([]int, len(labels))
	for i, l := range labels {
		y[i] = index[l]
	}
	return names, y
}

// stratifiedSplit holds out testRatio of each class.
func stratifiedSplit(y []int, numClasses int, testRatio float64, rng *rand.Rand) (trainIdx, testIdx []int) {
	byClass := make([][]int, numClasses)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	for _, indices := range byClass {
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		nTest := int(math.Round(testRatio * float64(len(indices))))
		if nTest == 0 && len(indices) > 1 {
			nTest = 1
		}
		testIdx = append(testIdx, indices[:nTest]...)
		trainIdx = append(trainIdx, indices[nTest:]...)
	}
	sort.Ints(trainIdx)
	sort.Ints(testIdx)
	return trainIdx, testIdx
}

// assignFolds deals fold numbers round-robin after a shuffle.
func assignFolds(n, k int, rng *rand.Rand) []int {
	order := rng.Perm(n)
	folds := make([]int, n)
	for i, pos := range order {
		folds[pos] = i % k
	}
	return folds
}

func accuracy(m *Member, x [][]float64, y []int, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	correct := 0
	for _, i := range idx {
		if m.predict(x[i]) == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(idx))
}

func topFeatureImportance(forest *RandomForest, v *Vectorizer) map[string]float64 {
	importance := forest.FeatureImportance(v.NumFeatures())
	type pair struct {
		term  string
		value float64
	}
	pairs := make([]pair, len(importance))
	for i, val := range importance {
		pairs[i] = pair{term: v.Terms[i], value: val}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].value != pairs[j].value {
			return pairs[i].value > pairs[j].value
		}
		return pairs[i].term < pairs[j].term
	})
	if len(pairs) > topImportance {
		pairs = pairs[:topImportance]
	}
	out := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		out[p.term] = p.value
	}
	return out
}

func subset(x [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = x[j]
	}
	return out
}

func subsetInt(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
