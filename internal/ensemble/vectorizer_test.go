package ensemble

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fitTestVectorizer(t *testing.T) *Vectorizer {
	t.Helper()
	docs := []string{
		"fièvre et toux persistante",
		"fièvre avec frissons et fatigue",
		"toux grasse et fatigue intense",
		"éternuements et nez qui coule",
		"éternuements avec yeux rouges",
	}
	v := &Vectorizer{}
	v.Fit(docs)
	return v
}

func TestVectorizer_Fit(t *testing.T) {
	v := fitTestVectorizer(t)

	require.NotZero(t, v.NumFeatures())
	assert.Equal(t, len(v.Terms), v.NumFeatures())
	assert.Equal(t, len(v.Vocabulary), v.NumFeatures())
	assert.Equal(t, len(v.IDF), v.NumFeatures())

	// min_df=2 excludes terms seen in a single document.
	_, ok := v.Vocabulary["grasse"]
	assert.False(t, ok, "single-document terms must be pruned")

	// Terms appearing in at least two documents survive.
	_, ok = v.Vocabulary["fièvre"]
	assert.True(t, ok)
}

func TestVectorizer_TransformIsL2Normalized(t *testing.T) {
	v := fitTestVectorizer(t)

	vec := v.Transform("fièvre et toux avec fatigue")

	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestVectorizer_UnknownInputYieldsZeroVector(t *testing.T) {
	v := fitTestVectorizer(t)

	vec := v.Transform("mots totalement inconnus du corpus dentrainement")

	require.Len(t, vec, v.NumFeatures())
	for i, x := range vec {
		assert.Zero(t, x, "component %d", i)
	}
}

func TestVectorizer_Deterministic(t *testing.T) {
	a := fitTestVectorizer(t)
	b := fitTestVectorizer(t)

	assert.Equal(t, a.Terms, b.Terms)
	assert.Equal(t, a.Vocabulary, b.Vocabulary)
	assert.Equal(t, a.IDF, b.IDF)
}
