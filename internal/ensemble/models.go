package ensemble

import (
	"math"
	"math/rand"
)

// ModelKind identifies a panel member. The panel is a fixed ordered set;
// vote aggregation switches exhaustively over these kinds.
type ModelKind string

const (
	KindRandomForest       ModelKind = "random_forest"
	KindGradientBoosting   ModelKind = "gradient_boosting"
	KindLogisticRegression ModelKind = "logistic_regression"
	KindNaiveBayes         ModelKind = "naive_bayes"
)

// RandomForest is a bagged ensemble of CART trees with bootstrap sampling
// and sqrt-feature subsampling at each split.
type RandomForest struct {
	Trees      []*TreeNode `json:"trees"`
	NumClasses int         `json:"num_classes"`

	numTrees        int
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
}

func newRandomForest() *RandomForest {
	return &RandomForest{
		numTrees:        200,
		maxDepth:        15,
		minSamplesSplit: 5,
		minSamplesLeaf:  2,
	}
}

// Fit trains the forest. Each tree sees a bootstrap resample and a random
// sqrt(features) subset per split.
func (f *RandomForest) Fit(x [][]float64, y []int, numClasses int, rng *rand.Rand) {
	f.NumClasses = numClasses
	f.Trees = make([]*TreeNode, 0, f.numTrees)
	weights := uniformWeights(len(y))
	maxFeat := int(math.Sqrt(float64(len(x[0]))))
	if maxFeat < 1 {
		maxFeat = 1
	}

	for t := 0; t < f.numTrees; t++ {
		samples := make([]int, len(y))
		for i := range samples {
			samples[i] = rng.Intn(len(y))
		}
		builder := &treeBuilder{
			x: x, y: y, weights: weights, numClasses: numClasses,
			params: treeParams{
				maxDepth:        f.maxDepth,
				minSamplesSplit: f.minSamplesSplit,
				minSamplesLeaf:  f.minSamplesLeaf,
				maxFeatures:     maxFeat,
			},
			rng: rng,
		}
		f.Trees = append(f.Trees, builder.build(samples, 0))
	}
}

// Proba averages the leaf distributions across all trees.
func (f *RandomForest) Proba(x []float64) []float64 {
	probs := make([]float64, f.NumClasses)
	for _, tree := range f.Trees {
		for c, p := range tree.predictDist(x) {
			probs[c] += p
		}
	}
	for c := range probs {
		probs[c] /= float64(len(f.Trees))
	}
	return probs
}

// Predict returns the class with highest averaged probability.
func (f *RandomForest) Predict(x []float64) int { return argmax(f.Proba(x)) }

// FeatureImportance accumulates how often each feature is used for a split,
// weighted by tree depth (shallower splits count more).
func (f *RandomForest) FeatureImportance(numFeatures int) []float64 {
	importance := make([]float64, numFeatures)
	var walk func(n *TreeNode, depth int)
	walk = func(n *TreeNode, depth int) {
		if n == nil || n.IsLeaf() {
			return
		}
		importance[n.Feature] += 1.0 / float64(depth+1)
		walk(n.Left, depth+1)
		walk(n.Right, depth+1)
	}
	for _, tree := range f.Trees {
		walk(tree, 0)
	}
	var total float64
	for _, v := range importance {
		total += v
	}
	if total > 0 {
		for i := range importance {
			importance[i] /= total
		}
	}
	return importance
}

// BoostedTrees is a boosted ensemble of shallow CART trees (multiclass
// AdaBoost, SAMME). Its weighted-vote scores are not calibrated
// probabilities, so the panel records it as the member without a native
// probability estimate.
type BoostedTrees struct {
	Trees      []*TreeNode `json:"trees"`
	Alphas     []float64   `json:"alphas"`
	NumClasses int         `json:"num_classes"`

	numRounds int
	maxDepth  int
}

func newBoostedTrees() *BoostedTrees {
	return &BoostedTrees{
		numRounds: 150,
		maxDepth:  5,
	}
}

// Fit runs boosting rounds, reweighting misclassified samples after each
// round. Stops early when a round is perfect or no better than chance.
func (g *BoostedTrees) Fit(x [][]float64, y []int, numClasses int, rng *rand.Rand) {
	g.NumClasses = numClasses
	n := len(y)
	weights := uniformWeights(n)
	samples := make([]int, n)
	for i := range samples {
		samples[i] = i
	}

	for round := 0; round < g.numRounds; round++ {
		builder := &treeBuilder{
			x: x, y: y, weights: weights, numClasses: numClasses,
			params: treeParams{
				maxDepth:        g.maxDepth,
				minSamplesSplit: 2,
				minSamplesLeaf:  1,
			},
			rng: rng,
		}
		tree := builder.build(samples, 0)

		var errSum, total float64
		miss := make([]bool, n)
		for i := range samples {
			total += weights[i]
			if argmax(tree.predictDist(x[i])) != y[i] {
				miss[i] = true
				errSum += weights[i]
			}
		}
		errRate := errSum / total

		if errRate >= 1-1/float64(numClasses) {
			break
		}
		if errRate == 0 {
			g.Trees = append(g.Trees, tree)
			g.Alphas = append(g.Alphas, 10) // perfect learner dominates
			break
		}

		alpha := math.Log((1-errRate)/errRate) + math.Log(float64(numClasses)-1)
		g.Trees = append(g.Trees, tree)
		g.Alphas = append(g.Alphas, alpha)

		var norm float64
		for i := range weights {
			if miss[i] {
				weights[i] *= math.Exp(alpha)
			}
			norm += weights[i]
		}
		for i := range weights {
			weights[i] /= norm
		}
	}
}

// scores accumulates alpha-weighted votes per class.
func (g *BoostedTrees) scores(x []float64) []float64 {
	scores := make([]float64, g.NumClasses)
	for t, tree := range g.Trees {
		scores[argmax(tree.predictDist(x))] += g.Alphas[t]
	}
	return scores
}

// Predict returns the class with the highest boosted vote score.
func (g *BoostedTrees) Predict(x []float64) int { return argmax(g.scores(x)) }

// LogisticRegression is a multinomial (softmax) classifier trained by
// batch gradient descent with balanced class weights.
type LogisticRegression struct {
	Weights    [][]float64 `json:"weights"` // [class][feature]
	Bias       []float64   `json:"bias"`
	NumClasses int         `json:"num_classes"`

	learningRate float64
	iterations   int
	l2           float64
}

func newLogisticRegression() *LogisticRegression {
	return &LogisticRegression{
		learningRate: 0.5,
		iterations:   1000,
		l2:           1e-4,
	}
}

// Fit trains the softmax weights. Class weights are balanced:
// n / (numClasses * count(class)).
func (l *LogisticRegression) Fit(x [][]float64, y []int, numClasses int, _ *rand.Rand) {
	l.NumClasses = numClasses
	numFeatures := len(x[0])
	l.Weights = make([][]float64, numClasses)
	for c := range l.Weights {
		l.Weights[c] = make([]float64, numFeatures)
	}
	l.Bias = make([]float64, numClasses)

	counts := make([]float64, numClasses)
	for _, label := range y {
		counts[label]++
	}
	classWeight := make([]float64, numClasses)
	for c := range classWeight {
		classWeight[c] = float64(len(y)) / (float64(numClasses) * counts[c])
	}

	n := float64(len(y))
	for iter := 0; iter < l.iterations; iter++ {
		gradW := make([][]float64, numClasses)
		for c := range gradW {
			gradW[c] = make([]float64, numFeatures)
		}
		gradB := make([]float64, numClasses)

		for i, xi := range x {
			probs := l.Proba(xi)
			w := classWeight[y[i]]
			for c := 0; c < numClasses; c++ {
				diff := probs[c]
				if c == y[i] {
					diff -= 1
				}
				diff *= w
				gradB[c] += diff
				for j, v := range xi {
					if v != 0 {
						gradW[c][j] += diff * v
					}
				}
			}
		}

		for c := 0; c < numClasses; c++ {
			l.Bias[c] -= l.learningRate * gradB[c] / n
			for j := 0; j < numFeatures; j++ {
				l.Weights[c][j] -= l.learningRate * (gradW[c][j]/n + l.l2*l.Weights[c][j])
			}
		}
	}
}

// Proba returns softmax class probabilities.
func (l *LogisticRegression) Proba(x []float64) []float64 {
	logits := make([]float64, l.NumClasses)
	for c := 0; c < l.NumClasses; c++ {
		sum := l.Bias[c]
		for j, v := range x {
			if v != 0 {
				sum += l.Weights[c][j] * v
			}
		}
		logits[c] = sum
	}
	return softmax(logits)
}

// Predict returns the most probable class.
func (l *LogisticRegression) Predict(x []float64) int { return argmax(l.Proba(x)) }

// NaiveBayes is a multinomial naive Bayes classifier with additive
// smoothing over TF-IDF feature weights.
type NaiveBayes struct {
	ClassLogPrior  []float64   `json:"class_log_prior"`
	FeatureLogProb [][]float64 `json:"feature_log_prob"` // [class][feature]
	NumClasses     int         `json:"num_classes"`

	alpha float64
}

func newNaiveBayes() *NaiveBayes {
	return &NaiveBayes{alpha: 0.1}
}

// Fit estimates per-class feature log-probabilities and log-priors.
func (nb *NaiveBayes) Fit(x [][]float64, y []int, numClasses int, _ *rand.Rand) {
	nb.NumClasses = numClasses
	numFeatures := len(x[0])

	counts := make([]float64, numClasses)
	featureSums := make([][]float64, numClasses)
	for c := range featureSums {
		featureSums[c] = make([]float64, numFeatures)
	}
	for i, xi := range x {
		counts[y[i]]++
		for j, v := range xi {
			featureSums[y[i]][j] += v
		}
	}

	nb.ClassLogPrior = make([]float64, numClasses)
	nb.FeatureLogProb = make([][]float64, numClasses)
	for c := 0; c < numClasses; c++ {
		nb.ClassLogPrior[c] = math.Log(counts[c] / float64(len(y)))
		var total float64
		for _, s := range featureSums[c] {
			total += s
		}
		denom := total + nb.alpha*float64(numFeatures)
		nb.FeatureLogProb[c] = make([]float64, numFeatures)
		for j := 0; j < numFeatures; j++ {
			nb.FeatureLogProb[c][j] = math.Log((featureSums[c][j] + nb.alpha) / denom)
		}
	}
}

// Proba returns normalized posterior probabilities.
func (nb *NaiveBayes) Proba(x []float64) []float64 {
	logPost := make([]float64, nb.NumClasses)
	for c := 0; c < nb.NumClasses; c++ {
		sum := nb.ClassLogPrior[c]
		for j, v := range x {
			if v != 0 {
				sum += nb.FeatureLogProb[c][j] * v
			}
		}
		logPost[c] = sum
	}
	return softmax(logPost)
}

// Predict returns the class with highest posterior.
func (nb *NaiveBayes) Predict(x []float64) int { return argmax(nb.Proba(x)) }

func softmax(logits []float64) []float64 {
	max := logits[argmax(logits)]
	probs := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		probs[i] = math.Exp(l - max)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

func uniformWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / float64(n)
	}
	return w
}
