// Package ensemble implements the multi-model disease classifier: a shared
// TF-IDF vectorizer fit once over a fixed labeled corpus, a four-member
// panel of independently parameterized classifiers combined by majority
// vote, and a versioned persistence artifact with atomic swap semantics for
// retraining under concurrent prediction load.
package ensemble

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// Vectorizer hyperparameters, matching the fitted transform the panel
// shares: unigrams through trigrams, vocabulary capped at 500 terms,
// document-frequency bounds [2, 0.8].
const (
	maxFeatures = 500
	minNgram    = 1
	maxNgram    = 3
	minDocFreq  = 2
	maxDocRatio = 0.8
)

var tokenPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)

// Vectorizer is a TF-IDF text-to-feature transform. Fit once over the
// training corpus; never refit on prediction inputs. Exported fields make
// the fitted state part of the persisted artifact.
type Vectorizer struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
	Terms      []string       `json:"terms"`
}

// tokenize lower-cases, strips punctuation and keeps tokens of at least two
// characters.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	text = tokenPattern.ReplaceAllString(text, "")
	fields := strings.Fields(text)
	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// ngrams expands a token sequence into space-joined n-grams for
// n in [minNgram, maxNgram].
func ngrams(tokens []string) []string {
	var out []string
	for n := minNgram; n <= maxNgram; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// Fit builds the vocabulary and idf weights from the corpus. Terms below
// the document-frequency floor or above the ceiling are excluded; the
// remaining terms are ranked by total corpus count (lexicographic
// tie-break) and capped at maxFeatures.
func (v *Vectorizer) Fit(docs []string) {
	docFreq := make(map[string]int)
	totalCount := make(map[string]int)

	for _, doc := range docs {
		grams := ngrams(tokenize(doc))
		inDoc := make(map[string]struct{})
		for _, g := range grams {
			totalCount[g]++
			inDoc[g] = struct{}{}
		}
		for g := range inDoc {
			docFreq[g]++
		}
	}

	maxDocFreq := int(maxDocRatio * float64(len(docs)))
	var candidates []string
	for term, df := range docFreq {
		if df >= minDocFreq && df <= maxDocFreq {
			candidates = append(candidates, term)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		ci, cj := totalCount[candidates[i]], totalCount[candidates[j]]
		if ci != cj {
			return ci > cj
		}
		return candidates[i] < candidates[j]
	})
	if len(candidates) > maxFeatures {
		candidates = candidates[:maxFeatures]
	}
	// Vocabulary indices are assigned in lexicographic term order so the
	// fitted transform is independent of map iteration.
	sort.Strings(candidates)

	v.Terms = candidates
	v.Vocabulary = make(map[string]int, len(candidates))
	v.IDF = make([]float64, len(candidates))
	n := float64(len(docs))
	for i, term := range candidates {
		v.Vocabulary[term] = i
		// Smoothed idf: ln((1+n)/(1+df)) + 1.
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}
}

// Transform converts a single text into a dense, L2-normalized TF-IDF
// vector over the fitted vocabulary. Unknown terms are ignored; an empty or
// fully out-of-vocabulary input yields the all-zero vector.
func (v *Vectorizer) Transform(text string) []float64 {
	vec := make([]float64, len(v.Terms))
	for _, g := range ngrams(tokenize(text)) {
		if idx, ok := v.Vocabulary[g]; ok {
			vec[idx]++
		}
	}
	var norm float64
	for i := range vec {
		vec[i] *= v.IDF[i]
		norm += vec[i] * vec[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// TransformAll vectorizes a corpus row by row.
func (v *Vectorizer) TransformAll(docs []string) [][]float64 {
	rows := make([][]float64, len(docs))
	for i, doc := range docs {
		rows[i] = v.Transform(doc)
	}
	return rows
}

// NumFeatures returns the fitted vocabulary size.
func (v *Vectorizer) NumFeatures() int { return len(v.Terms) }
