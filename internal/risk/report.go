package risk

import (
	"fmt"
	"strings"

	"github.com/Artemisxxx37/my-health/internal/domain"
)

// Next-checkup intervals by global priority level.
const (
	checkupHigh   = "Prochain contrôle: URGENT - Consultation médicale dans les 2 semaines"
	checkupMedium = "Prochain contrôle: Dans 1-2 mois pour suivi"
	checkupLow    = "Prochain contrôle: Dans 3-6 mois pour surveillance"
	checkupNone   = "Prochain contrôle: Dans 6 mois pour un bilan de routine"
)

// GenerateReport renders the narrative risk report. Output is deterministic
// for a given prediction list and ordering: predictions are grouped by risk
// level in descending severity.
func GenerateReport(predictions []domain.RiskPrediction, user domain.UserAttributes, totalConsultations int) domain.Report {
	if len(predictions) == 0 {
		return domain.Report{
			HasPredictions: false,
			Message:        "Aucune prédiction de risque identifiée pour le moment.",
		}
	}

	var high, medium, low []domain.RiskPrediction
	for _, p := range predictions {
		switch p.RiskLevel {
		case domain.RiskHigh:
			high = append(high, p)
		case domain.RiskMedium:
			medium = append(medium, p)
		default:
			low = append(low, p)
		}
	}

	var b strings.Builder
	separator := strings.Repeat("=", 40)

	b.WriteString("ANALYSE PRÉDICTIVE DE SANTÉ\n")
	b.WriteString(separator + "\n\n")

	b.WriteString("Profil:\n")
	fmt.Fprintf(&b, "   Age: %d\n", user.Age)
	lifestyle := user.Lifestyle
	if lifestyle == "" {
		lifestyle = "Non spécifié"
	}
	fmt.Fprintf(&b, "   Style de vie: %s\n", lifestyle)
	fmt.Fprintf(&b, "   Consultations analysées: %d\n\n", totalConsultations)

	b.WriteString("RISQUES IDENTIFIÉS:\n\n")

	if len(high) > 0 {
		b.WriteString("PRIORITÉ ÉLEVÉE:\n")
		for _, p := range high {
			fmt.Fprintf(&b, "   • %s\n", strings.ToUpper(p.Disease))
			fmt.Fprintf(&b, "     Score de risque: %.2f%%\n", p.RiskScore)
			fmt.Fprintf(&b, "     Occurrences: %d\n", p.Occurrences)
		}
	}
	if len(medium) > 0 {
		b.WriteString("\nPRIORITÉ MOYENNE:\n")
		for _, p := range medium {
			fmt.Fprintf(&b, "   • %s\n", capitalize(p.Disease))
			fmt.Fprintf(&b, "     Score de risque: %.2f%%\n", p.RiskScore)
		}
	}
	if len(low) > 0 {
		b.WriteString("\nRISQUE FAIBLE:\n")
		for _, p := range low {
			fmt.Fprintf(&b, "   • %s (%.2f%%)\n", capitalize(p.Disease), p.RiskScore)
		}
	}

	b.WriteString("\n" + separator + "\n")
	b.WriteString("RECOMMANDATIONS PRINCIPALES:\n\n")
	if len(high) > 0 {
		fmt.Fprintf(&b, "Pour %s:\n", high[0].Disease)
		for i, rec := range high[0].Recommendations {
			fmt.Fprintf(&b, "   %d. %s\n", i+1, rec)
		}
	}

	b.WriteString("\n" + separator + "\n")
	b.WriteString("AVERTISSEMENT:\n")
	b.WriteString("Cette analyse est basée sur votre historique et des facteurs généraux.\n")
	b.WriteString("Elle ne remplace pas un avis médical professionnel.\n")

	return domain.Report{
		HasPredictions: true,
		Message:        b.String(),
		PriorityLevel:  PriorityLevel(predictions),
	}
}

// PriorityLevel is high when any prediction is high-risk, else medium when
// any is medium-risk, else low.
func PriorityLevel(predictions []domain.RiskPrediction) domain.RiskLevel {
	level := domain.RiskLow
	for _, p := range predictions {
		switch p.RiskLevel {
		case domain.RiskHigh:
			return domain.RiskHigh
		case domain.RiskMedium:
			level = domain.RiskMedium
		}
	}
	return level
}

// NextCheckup maps the prediction list's priority to a fixed human-readable
// interval.
func NextCheckup(predictions []domain.RiskPrediction) string {
	if len(predictions) == 0 {
		return checkupNone
	}
	switch PriorityLevel(predictions) {
	case domain.RiskHigh:
		return checkupHigh
	case domain.RiskMedium:
		return checkupMedium
	default:
		return checkupLow
	}
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}
