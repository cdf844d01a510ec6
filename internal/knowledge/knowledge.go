// Package knowledge holds the static medical knowledge base: the disease
// catalogue with symptom sets and recommendations, the emergency phrase
// list, and the labeled training corpus for the ensemble classifier.
// Everything here is immutable after process start; administrative additions
// are an external concern.
package knowledge

import (
	"github.com/Artemisxxx37/my-health/internal/domain"
)

// Entry describes one disease of the knowledge base.
type Entry struct {
	Disease         string
	Symptoms        []string
	Severity        domain.Severity
	Recommendations []string
}

// Base is the fixed disease catalogue, keyed and matched by disease name.
// Symptom phrases are French and matched by token overlap.
var Base = []Entry{
	{
		Disease:  "grippe",
		Symptoms: []string{"fièvre", "toux", "fatigue", "courbatures", "maux de tête", "frissons"},
		Severity: domain.SeverityModerate,
		Recommendations: []string{
			"Repos au lit pendant 5-7 jours",
			"Hydratation abondante (2-3 litres/jour)",
			"Paracétamol 1g toutes les 6h pour la fièvre",
			"Consulter si symptômes persistent > 7 jours",
			"Isolement pour éviter la contagion",
		},
	},
	{
		Disease:  "rhume",
		Symptoms: []string{"nez bouché", "éternuements", "mal de gorge", "toux légère"},
		Severity: domain.SeverityLight,
		Recommendations: []string{
			"Repos relatif",
			"Boissons chaudes (tisanes, bouillon)",
			"Décongestionnants nasaux (spray nasal)",
			"Consultation si aggravation ou fièvre",
			"Durée normale: 7-10 jours",
		},
	},
	{
		Disease:  "angine",
		Symptoms: []string{"mal de gorge intense", "difficulté à avaler", "fièvre", "ganglions"},
		Severity: domain.SeverityModerate,
		Recommendations: []string{
			"IMPORTANT: Consulter un médecin dans les 24h",
			"Test streptocoque nécessaire (angine bactérienne?)",
			"Antibiotiques si streptocoque confirmé",
			"Antidouleurs: paracétamol ou ibuprofène",
			"Aliments froids pour soulager (glace, yaourt)",
		},
	},
	{
		Disease:  "gastro-entérite",
		Symptoms: []string{"diarrhée", "vomissements", "nausées", "crampes abdominales", "fièvre légère"},
		Severity: domain.SeverityModerate,
		Recommendations: []string{
			"PRIORITAIRE: Réhydratation (SRO, eau, bouillon)",
			"Régime BRAT: Banane, Riz, Compote, Toast",
			"Repos complet",
			"Smecta ou Tiorfan pour la diarrhée",
			"URGENCE si: déshydratation sévère, sang dans les selles",
		},
	},
	{
		Disease:  "migraine",
		Symptoms: []string{"maux de tête intenses", "sensibilité à la lumière", "nausées", "vision troublée"},
		Severity: domain.SeverityModerate,
		Recommendations: []string{
			"Repos dans une pièce sombre et calme",
			"Antalgiques spécifiques (triptans si prescrits)",
			"Éviter les déclencheurs (stress, certains aliments)",
			"Compresse froide sur le front",
			"Consulter un neurologue si crises fréquentes (>4/mois)",
		},
	},
	{
		Disease:  "allergie",
		Symptoms: []string{"éternuements", "démangeaisons", "yeux rouges", "nez qui coule"},
		Severity: domain.SeverityLight,
		Recommendations: []string{
			"Antihistaminiques (Cétirizine, Loratadine)",
			"Éviter les allergènes identifiés",
			"Lavage nasal au sérum physiologique",
			"Aération quotidienne du logement",
			"Consultation allergologue pour bilan si symptômes chroniques",
		},
	},
	{
		Disease:  "bronchite",
		Symptoms: []string{"toux grasse", "expectorations", "fatigue", "fièvre légère", "essoufflement"},
		Severity: domain.SeverityModerate,
		Recommendations: []string{
			"Repos et hydratation",
			"Antitussifs pour toux sèche, expectorants pour toux grasse",
			"Inhalations de vapeur",
			"Consulter si fièvre persistante ou essoufflement",
			"Durée normale: 7-21 jours",
		},
	},
	{
		Disease:  "sinusite",
		Symptoms: []string{"douleur faciale", "nez bouché", "maux de tête", "pression sinusale"},
		Severity: domain.SeverityModerate,
		Recommendations: []string{
			"Lavages nasaux fréquents (sérum physiologique)",
			"Décongestionnants nasaux (max 5 jours)",
			"Antalgiques pour la douleur",
			"Inhalations de vapeur",
			"Consulter si douleur intense ou fièvre élevée",
		},
	},
	{
		Disease:  "otite",
		Symptoms: []string{"douleur oreille", "fièvre", "diminution audition", "écoulement"},
		Severity: domain.SeverityModerate,
		Recommendations: []string{
			"Consultation médicale recommandée",
			"Antalgiques pour la douleur",
			"Éviter l'eau dans l'oreille",
			"Ne pas utiliser de coton-tige",
			"Antibiotiques si otite bactérienne (sur prescription)",
		},
	},
	{
		Disease:  "conjonctivite",
		Symptoms: []string{"yeux rouges", "larmoiement", "démangeaisons", "sécrétions"},
		Severity: domain.SeverityLight,
		Recommendations: []string{
			"Lavage oculaire au sérum physiologique",
			"Collyres antiseptiques",
			"Éviter le port de lentilles",
			"Ne pas se frotter les yeux",
			"Consulter si aggravation ou douleur intense",
		},
	},
	{
		Disease:  "cystite",
		Symptoms: []string{"brûlures mictionnelles", "envies fréquentes", "douleurs bas ventre"},
		Severity: domain.SeverityModerate,
		Recommendations: []string{
			"Hydratation massive (2-3 litres/jour)",
			"Jus de canneberge",
			"Consultation médicale pour ECBU",
			"Antibiotiques sur prescription médicale",
			"Consulter rapidement si fièvre ou sang dans les urines",
		},
	},
	{
		Disease:  "varicelle",
		Symptoms: []string{"éruption cutanée", "vésicules", "démangeaisons", "fièvre"},
		Severity: domain.SeverityModerate,
		Recommendations: []string{
			"Éviter de gratter les lésions",
			"Antihistaminiques pour les démangeaisons",
			"Bains tièdes à l'amidon",
			"Paracétamol pour la fièvre (PAS d'aspirine)",
			"Isolement jusqu'à guérison complète",
		},
	},
}

// EmergencyPhrases are matched against the raw lower-cased input by plain
// substring containment. Any hit bypasses diagnostic processing entirely.
var EmergencyPhrases = []string{
	"douleur thoracique", "difficulté respiratoire", "perte de conscience",
	"convulsions", "hémorragie", "paralysie", "confusion mentale",
	"douleur abdominale sévère", "vomissement de sang", "paralysie faciale",
	"trouble de la parole", "perte de sensibilité", "crise cardiaque",
	"avc", "accident vasculaire", "saignement abondant", "essoufflement sévère",
}

// Lookup returns the catalogue entry for a disease name, or nil when the
// disease is not catalogued.
func Lookup(disease string) *Entry {
	for i := range Base {
		if Base[i].Disease == disease {
			return &Base[i]
		}
	}
	return nil
}

// Diseases returns the catalogued disease names in catalogue order.
func Diseases() []string {
	names := make([]string, len(Base))
	for i, e := range Base {
		names[i] = e.Disease
	}
	return names
}

// SymptomVocabulary returns every symptom phrase of the catalogue, in
// catalogue order, without deduplication across diseases.
func SymptomVocabulary() []string {
	var vocab []string
	for _, e := range Base {
		vocab = append(vocab, e.Symptoms...)
	}
	return vocab
}
