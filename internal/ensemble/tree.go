package ensemble

import (
	"math"
	"math/rand"
	"sort"
)

// TreeNode is one node of a CART decision tree. Leaves carry the weighted
// class distribution of the training samples that reached them; internal
// nodes split on Feature <= Threshold.
type TreeNode struct {
	Feature   int       `json:"f,omitempty"`
	Threshold float64   `json:"t,omitempty"`
	Left      *TreeNode `json:"l,omitempty"`
	Right     *TreeNode `json:"r,omitempty"`
	Dist      []float64 `json:"d,omitempty"`
}

// IsLeaf reports whether the node carries a class distribution.
func (n *TreeNode) IsLeaf() bool { return n.Dist != nil }

// treeParams bound tree growth.
type treeParams struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	// maxFeatures limits the features examined per split; 0 means all.
	maxFeatures int
}

// treeBuilder grows a single tree over a dense feature matrix.
type treeBuilder struct {
	x          [][]float64
	y          []int
	weights    []float64
	numClasses int
	params     treeParams
	rng        *rand.Rand
}

// build grows a tree from the given sample indices.
func (b *treeBuilder) build(samples []int, depth int) *TreeNode {
	dist := b.classDistribution(samples)
	if depth >= b.params.maxDepth ||
		len(samples) < b.params.minSamplesSplit ||
		isPure(dist) {
		return &TreeNode{Dist: dist}
	}

	feature, threshold, ok := b.bestSplit(samples)
	if !ok {
		return &TreeNode{Dist: dist}
	}

	var left, right []int
	for _, i := range samples {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < b.params.minSamplesLeaf || len(right) < b.params.minSamplesLeaf {
		return &TreeNode{Dist: dist}
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      b.build(left, depth+1),
		Right:     b.build(right, depth+1),
	}
}

// bestSplit scans candidate features for the split with the lowest weighted
// gini impurity. Candidate thresholds are midpoints between consecutive
// distinct sample values.
func (b *treeBuilder) bestSplit(samples []int) (int, float64, bool) {
	numFeatures := len(b.x[samples[0]])
	features := b.candidateFeatures(numFeatures)

	bestGini := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	vals := make([]float64, 0, len(samples))
	for _, f := range features {
		vals = vals[:0]
		for _, i := range samples {
			vals = append(vals, b.x[i][f])
		}
		sort.Float64s(vals)

		for k := 0; k+1 < len(vals); k++ {
			if vals[k] == vals[k+1] {
				continue
			}
			threshold := (vals[k] + vals[k+1]) / 2
			gini := b.splitGini(samples, f, threshold)
			if gini < bestGini {
				bestGini = gini
				bestFeature = f
				bestThreshold = threshold
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

// candidateFeatures returns the feature subset examined at a split: all
// features, or a random draw of maxFeatures when subsampling is enabled.
func (b *treeBuilder) candidateFeatures(numFeatures int) []int {
	if b.params.maxFeatures <= 0 || b.params.maxFeatures >= numFeatures {
		all := make([]int, numFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}
	perm := b.rng.Perm(numFeatures)
	return perm[:b.params.maxFeatures]
}

// splitGini computes the weighted gini impurity of splitting samples on
// feature <= threshold.
func (b *treeBuilder) splitGini(samples []int, feature int, threshold float64) float64 {
	leftDist := make([]float64, b.numClasses)
	rightDist := make([]float64, b.numClasses)
	var leftTotal, rightTotal float64
	for _, i := range samples {
		w := b.weights[i]
		if b.x[i][feature] <= threshold {
			leftDist[b.y[i]] += w
			leftTotal += w
		} else {
			rightDist[b.y[i]] += w
			rightTotal += w
		}
	}
	total := leftTotal + rightTotal
	if total == 0 {
		return math.Inf(1)
	}
	return (leftTotal*gini(leftDist, leftTotal) + rightTotal*gini(rightDist, rightTotal)) / total
}

// gini computes the impurity of a weighted class distribution.
func gini(dist []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	impurity := 1.0
	for _, d := range dist {
		p := d / total
		impurity -= p * p
	}
	return impurity
}

// classDistribution returns the normalized weighted class distribution of
// the samples.
func (b *treeBuilder) classDistribution(samples []int) []float64 {
	dist := make([]float64, b.numClasses)
	var total float64
	for _, i := range samples {
		dist[b.y[i]] += b.weights[i]
		total += b.weights[i]
	}
	if total > 0 {
		for c := range dist {
			dist[c] /= total
		}
	}
	return dist
}

func isPure(dist []float64) bool {
	nonZero := 0
	for _, d := range dist {
		if d > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

// predictDist walks the tree and returns the leaf class distribution.
func (n *TreeNode) predictDist(x []float64) []float64 {
	node := n
	for !node.IsLeaf() {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Dist
}

// argmax returns the index of the largest value, preferring the lowest
// index on ties.
func argmax(vals []float64) int {
	best := 0
	for i, v := range vals {
		if v > vals[best] {
			best = i
		}
	}
	return best
}
