// Package extractor implements rule-based symptom extraction and emergency
// detection over free-text symptom descriptions.
package extractor

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Artemisxxx37/my-health/internal/domain"
	"github.com/Artemisxxx37/my-health/internal/knowledge"
)

// nonWord matches everything that is neither a letter, a digit, an
// underscore nor whitespace, so accented characters survive stripping.
var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)

// Extractor normalizes input text and matches it against the knowledge
// base symptom vocabulary. Extraction never fails; when no stopword
// resources exist for the configured language it degrades to a plain
// whitespace split.
type Extractor struct {
	logger    *logrus.Logger
	stopwords map[string]struct{}
}

// New creates an extractor for the given language ("fr" is the only
// language with stopword resources).
func New(logger *logrus.Logger, language string) *Extractor {
	stopwords, ok := stopwordsFor(language)
	if !ok {
		logger.WithField("language", language).Warn("No stopword resources, extraction degrades to whitespace split")
	}
	return &Extractor{
		logger:    logger,
		stopwords: stopwords,
	}
}

// Preprocess lower-cases the text, strips punctuation, tokenizes on
// whitespace and removes stopwords when a stopword set is loaded.
func (e *Extractor) Preprocess(text string) []string {
	text = strings.ToLower(text)
	text = nonWord.ReplaceAllString(text, "")
	fields := strings.Fields(text)
	if len(e.stopwords) == 0 {
		return fields
	}
	tokens := fields[:0]
	for _, f := range fields {
		if _, stop := e.stopwords[f]; !stop {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Extract returns the deduplicated set of knowledge-base symptoms matched in
// the text plus the emergency flag. Matching is token-overlap: a symptom
// phrase is detected as soon as any one of its tokens appears in the input
// token set, a recall-favoring trade-off that accepts false positives from
// shared common words.
func (e *Extractor) Extract(text string) domain.ExtractionResult {
	tokenSet := make(map[string]struct{})
	for _, t := range e.Preprocess(text) {
		tokenSet[t] = struct{}{}
	}

	seen := make(map[string]struct{})
	var detected []string
	for _, entry := range knowledge.Base {
		for _, symptom := range entry.Symptoms {
			if _, dup := seen[symptom]; dup {
				continue
			}
			for _, st := range e.Preprocess(symptom) {
				if _, ok := tokenSet[st]; ok {
					seen[symptom] = struct{}{}
					detected = append(detected, symptom)
					break
				}
			}
		}
	}

	result := domain.ExtractionResult{
		Symptoms:    detected,
		IsEmergency: e.CheckEmergency(text),
	}

	e.logger.WithFields(logrus.Fields{
		"symptoms_detected": len(result.Symptoms),
		"is_emergency":      result.IsEmergency,
	}).Debug("Symptom extraction completed")

	return result
}

// CheckEmergency reports whether the raw input contains any critical phrase.
// This is plain substring containment on the lower-cased text, independent
// of tokenization.
func (e *Extractor) CheckEmergency(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range knowledge.EmergencyPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
