package knowledge

// LabeledExample is one training phrase with its disease label.
type LabeledExample struct {
	Symptoms string
	Disease  string
}

// trainingCorpus is the hand-curated labeled corpus for the ensemble
// classifier: eight phrase variants per disease, covering the eight
// diseases the classifier is trained on. Reconstructed deterministically by
// TrainingCorpus on every call.
var trainingCorpus = map[string][]string{
	"grippe": {
		"fièvre élevée toux sèche fatigue intense courbatures maux de tête frissons",
		"forte fièvre courbatures toux fatigue maux de tête",
		"fièvre courbatures toux frissons fatigue",
		"température élevée courbatures généralisées toux sèche",
		"fièvre 39 courbatures fatigue intense maux de tête",
		"syndrome grippal fièvre courbatures toux",
		"fièvre courbatures articulaires fatigue extrême",
		"fièvre haute toux sèche courbatures maux de tête intenses",
	},
	"rhume": {
		"nez bouché éternuements mal de gorge toux légère",
		"nez qui coule éternuements gorge qui gratte",
		"rhinite éternuements nez bouché légère toux",
		"nez congestionné éternuements fréquents mal de gorge",
		"écoulement nasal éternuements gorge irritée",
		"nez bouché éternuements toux légère gorge qui gratte",
		"rhinite aiguë éternuements nez qui coule",
		"congestion nasale éternuements mal de gorge léger",
	},
	"angine": {
		"mal de gorge intense difficulté à avaler fièvre ganglions",
		"gorge très douloureuse fièvre ganglions gonflés",
		"douleur gorge intense déglutition difficile fièvre",
		"mal de gorge sévère fièvre ganglions cervicaux",
		"pharyngite aiguë douleur gorge fièvre",
		"gorge enflammée difficulté avaler fièvre élevée",
		"amygdales gonflées mal de gorge intense fièvre",
		"douleur gorge aiguë fièvre ganglions palpables",
	},
	"gastro-entérite": {
		"diarrhée vomissements nausées crampes abdominales",
		"diarrhée aiguë vomissements douleurs ventre",
		"vomissements diarrhée crampes abdominales nausées",
		"troubles digestifs diarrhée vomissements crampes",
		"diarrhée liquide vomissements douleurs abdominales",
		"gastro diarrhée vomissements crampes intestinales",
		"vomissements répétés diarrhée aiguë crampes ventre",
		"diarrhée vomissements déshydratation crampes abdominales",
	},
	"migraine": {
		"maux de tête intenses sensibilité lumière nausées",
		"céphalées pulsatiles photophobie nausées",
		"mal de tête sévère lumière insupportable nausées",
		"migraine intense sensibilité au bruit nausées",
		"douleur crânienne pulsatile photophobie phonophobie",
		"céphalée intense lumière gênante nausées vomissements",
		"mal de tête unilatéral sensibilité lumière son",
		"migraine sévère aura visuelle nausées",
	},
	"allergie": {
		"éternuements démangeaisons yeux rouges nez qui coule",
		"rhinite allergique éternuements yeux qui piquent",
		"yeux irrités éternuements nez qui coule démangeaisons",
		"allergie saisonnière éternuements larmoiement",
		"éternuements fréquents yeux rouges nez qui coule",
		"rhinite allergique éternuements démangeaisons nasales",
		"yeux qui pleurent éternuements nez bouché démangeaisons",
		"allergie pollen éternuements yeux irrités nez qui coule",
	},
	"bronchite": {
		"toux grasse expectorations fatigue légère fièvre",
		"toux productive mucus fièvre modérée",
		"bronchite aiguë toux grasse expectorations",
		"toux avec glaires fièvre fatigue respiration sifflante",
		"toux productive fièvre légère essoufflement",
		"toux grasse persistante fatigue fièvre",
		"expectorations abondantes toux grasse fièvre",
		"bronchite toux productive difficultés respiratoires légères",
	},
	"sinusite": {
		"douleur faciale nez bouché maux de tête pression sinusale",
		"sinusite frontale douleur front nez congestionné",
		"pression au niveau des sinus douleur faciale nez bouché",
		"douleur sinus maxillaires nez bouché maux de tête",
		"congestion nasale douleur pression faciale",
		"sinusite aiguë douleur front joues nez bouché",
		"pression sinusale douleur faciale sécrétions nasales",
		"douleur sinus nez bouché maux de tête frontaux",
	},
}

// corpusOrder fixes the label iteration order so the reconstructed corpus is
// byte-for-byte identical across runs.
var corpusOrder = []string{
	"grippe", "rhume", "angine", "gastro-entérite",
	"migraine", "allergie", "bronchite", "sinusite",
}

// TrainingCorpus reconstructs the fixed labeled corpus in deterministic
// order.
func TrainingCorpus() []LabeledExample {
	var examples []LabeledExample
	for _, disease := range corpusOrder {
		for _, phrase := range trainingCorpus[disease] {
			examples = append(examples, LabeledExample{Symptoms: phrase, Disease: disease})
		}
	}
	return examples
}
