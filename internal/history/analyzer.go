// Package history summarizes sequences of past consultation records into
// recurrence statistics and consultation cadence.
package history

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Artemisxxx37/my-health/internal/domain"
)

// recurringThreshold is the minimum occurrence count for a symptom or
// disease to be treated as a historical pattern.
const recurringThreshold = 2

// Analyzer computes history summaries.
type Analyzer struct {
	logger *logrus.Logger
}

// New creates an analyzer.
func New(logger *logrus.Logger) *Analyzer {
	return &Analyzer{logger: logger}
}

// Analyze summarizes the records. Fewer than two records yields
// SufficientData=false with only the count filled in; that is a normal
// answer, not an error. Individually malformed records are skipped without
// aborting the rest.
func (a *Analyzer) Analyze(records []domain.ConsultationRecord) domain.HistorySummary {
	if len(records) < recurringThreshold {
		return domain.HistorySummary{
			SufficientData:     false,
			TotalConsultations: len(records),
		}
	}

	symptomCounts := make(map[string]int)
	diseaseCounts := make(map[string]int)
	var dates []time.Time

	for _, record := range records {
		for _, s := range record.Symptoms {
			symptomCounts[s]++
		}
		for _, d := range record.Diagnosis {
			if d.Disease != "" {
				diseaseCounts[d.Disease]++
			}
		}
		if ts, ok := parseTimestamp(record.Timestamp); ok {
			dates = append(dates, ts)
		}
	}

	// Span divided by record count, not by count-1 gaps: a known
	// approximation of the true mean inter-arrival time, preserved as-is.
	var avgInterval float64
	if len(dates) > 1 {
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		span := dates[len(dates)-1].Sub(dates[0])
		avgInterval = span.Hours() / 24 / float64(len(dates))
	}

	summary := domain.HistorySummary{
		SufficientData:     true,
		TotalConsultations: len(records),
		UniqueSymptoms:     len(symptomCounts),
		UniqueDiseases:     len(diseaseCounts),
		RecurringSymptoms:  recurring(symptomCounts),
		RecurringDiseases:  recurring(diseaseCounts),
		AvgIntervalDays:    avgInterval,
		MostCommonSymptoms: topCounts(symptomCounts, 5),
		MostCommonDiseases: topCounts(diseaseCounts, 3),
	}

	a.logger.WithFields(logrus.Fields{
		"consultations":      summary.TotalConsultations,
		"recurring_symptoms": len(summary.RecurringSymptoms),
		"recurring_diseases": len(summary.RecurringDiseases),
	}).Debug("History analysis completed")

	return summary
}

// parseTimestamp accepts already-parsed time.Time values or ISO-8601
// strings. Anything else marks the record's timestamp as unusable.
func parseTimestamp(v interface{}) (time.Time, bool) {
	switch ts := v.(type) {
	case time.Time:
		return ts, true
	case *time.Time:
		if ts == nil {
			return time.Time{}, false
		}
		return *ts, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, ts); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func recurring(counts map[string]int) map[string]int {
	out := make(map[string]int)
	for name, count := range counts {
		if count >= recurringThreshold {
			out[name] = count
		}
	}
	return out
}

func topCounts(counts map[string]int, n int) []domain.NameCount {
	pairs := make([]domain.NameCount, 0, len(counts))
	for name, count := range counts {
		pairs = append(pairs, domain.NameCount{Name: name, Count: count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Count != pairs[j].Count {
			return pairs[i].Count > pairs[j].Count
		}
		return pairs[i].Name < pairs[j].Name
	})
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}
