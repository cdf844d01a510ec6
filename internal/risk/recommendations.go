package risk

import "github.com/Artemisxxx37/my-health/internal/domain"

// recommendationTable maps catalogued diseases to per-level
// recommendations. Diseases not listed fall back to the generic three-tier
// defaults.
var recommendationTable = map[string]map[domain.RiskLevel][]string{
	"grippe": {
		domain.RiskHigh: {
			"Vaccination antigrippale annuelle fortement recommandée",
			"Consultation médicale pour évaluer le système immunitaire",
			"Renforcer les mesures d'hygiène (lavage des mains)",
			"Éviter les lieux publics en période épidémique",
		},
		domain.RiskMedium: {
			"Envisager la vaccination antigrippale",
			"Repos adéquat et alimentation équilibrée",
			"Hygiène des mains régulière",
		},
		domain.RiskLow: {
			"Maintenir une bonne hygiène de vie",
			"Vaccination si personne à risque",
		},
	},
	"allergie": {
		domain.RiskHigh: {
			"Consultation allergologue pour tests cutanés",
			"Traitement de désensibilisation possible",
			"Éviction stricte des allergènes identifiés",
			"Avoir un plan d'action d'urgence",
		},
		domain.RiskMedium: {
			"Identifier les allergènes déclencheurs",
			"Antihistaminiques préventifs si nécessaire",
			"Aération régulière du domicile",
		},
		domain.RiskLow: {
			"Surveiller les symptômes saisonniers",
			"Antihistaminiques occasionnels",
		},
	},
	"migraine": {
		domain.RiskHigh: {
			"Consultation neurologique recommandée",
			"Tenir un journal des migraines (déclencheurs)",
			"Traitement de fond à envisager",
			"Éviter les facteurs déclenchants connus",
		},
		domain.RiskMedium: {
			"Identifier les déclencheurs (stress, aliments)",
			"Traitement préventif si crises fréquentes",
			"Techniques de relaxation",
		},
		domain.RiskLow: {
			"Gérer le stress",
			"Antalgiques dès les premiers signes",
		},
	},
}

// defaultRecommendations is the generic fallback for uncatalogued diseases.
var defaultRecommendations = map[domain.RiskLevel][]string{
	domain.RiskHigh: {
		"Consultation médicale recommandée",
		"Suivi régulier nécessaire",
		"Maintenir un mode de vie sain",
	},
	domain.RiskMedium: {
		"Surveillance des symptômes",
		"Consultation si aggravation",
	},
	domain.RiskLow: {
		"Prévention et hygiène de vie",
	},
}

// Recommendations looks up the curated per-disease, per-level entries,
// falling back to the generic table (and its medium tier for unknown
// levels).
func Recommendations(disease string, level domain.RiskLevel) []string {
	table, ok := recommendationTable[disease]
	if !ok {
		table = defaultRecommendations
	}
	if recs, ok := table[level]; ok {
		return recs
	}
	return defaultRecommendations[domain.RiskMedium]
}
