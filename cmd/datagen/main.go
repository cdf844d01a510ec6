// Command datagen writes a one-hot symptom/diagnosis CSV dataset for
// offline experimentation.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"
)

type diseaseProfile struct {
	name     string
	symptoms []string
	severity string
}

// profiles is the static disease/symptom catalogue the generator expands
// into training rows.
var profiles = []diseaseProfile{
	{"Grippe", []string{"fièvre", "toux", "fatigue", "courbatures", "mal_tete", "frissons"}, "modéré"},
	{"Rhume", []string{"nez_bouche", "toux_legere", "mal_gorge", "fatigue"}, "léger"},
	{"Gastro", []string{"nausée", "vomissement", "diarrhée", "crampes_abdominales"}, "modéré"},
	{"Angine", []string{"mal_gorge_intense", "fièvre", "ganglions", "difficulté_avaler"}, "modéré"},
	{"Migraine", []string{"mal_tete_intense", "sensibilité_lumière", "nausée", "vision_troublée"}, "modéré"},
	{"Allergie", []string{"éternuements", "démangeaisons", "yeux_rouges", "nez_qui_coule"}, "léger"},
	{"Bronchite", []string{"toux", "fièvre", "essoufflement", "poitrine_douloureuse"}, "grave"},
	{"Diabète", []string{"fatigue", "soif_excessive", "mictions_fréquentes", "perte_poids"}, "modéré"},
	{"Hypertension", []string{"mal_tete", "vertiges", "essoufflement", "douleur_poitrine"}, "modéré"},
	{"Pneumonie", []string{"toux", "fièvre", "essoufflement", "douleur_poitrine", "mal_tete"}, "grave"},
	{"Arthrite", []string{"douleurs_articulations", "gonflement", "raideur", "fatigue"}, "modéré"},
	{"Sinusite", []string{"mal_tete", "nez_bouche", "congestion_nasale", "mal_gorge"}, "léger"},
}

func main() {
	output := flag.String("output", "data/training_data.csv", "output CSV path")
	variations := flag.Bool("variations", true, "emit light/severe/minimal variants per disease")
	seed := flag.Int64("seed", 42, "random seed for the severe-variant extra symptom")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	allSymptoms := symptomUniverse()
	rng := rand.New(rand.NewSource(*seed))

	rows := buildRows(allSymptoms, *variations, rng)

	if err := writeCSV(*output, allSymptoms, rows); err != nil {
		logger.WithError(err).Fatal("failed to write dataset")
	}

	logger.WithFields(logrus.Fields{
		"file":     *output,
		"examples": len(rows),
		"diseases": len(profiles),
		"symptoms": len(allSymptoms),
	}).Info("dataset generated")
}

// symptomUniverse collects every catalogued symptom, sorted for a stable
// column order.
func symptomUniverse() []string {
	seen := make(map[string]bool)
	var all []string
	for _, p := range profiles {
		for _, s := range p.symptoms {
			if !seen[s] {
				seen[s] = true
				all = append(all, s)
			}
		}
	}
	sort.Strings(all)
	return all
}

type row struct {
	symptoms map[string]bool
	disease  string
	severity string
}

func buildRows(allSymptoms []string, variations bool, rng *rand.Rand) []row {
	var rows []row

	for _, p := range profiles {
		// Typical case carries the full symptom set.
		rows = append(rows, newRow(p.symptoms, p.name, p.severity))

		if !variations {
			continue
		}

		// Light case drops the last symptom.
		if len(p.symptoms) > 2 {
			rows = append(rows, newRow(p.symptoms[:len(p.symptoms)-1], p.name, "léger"))
		}

		// Severe case adds one random unrelated symptom.
		if others := complement(allSymptoms, p.symptoms); len(others) > 0 {
			severe := append(append([]string{}, p.symptoms...), others[rng.Intn(len(others))])
			rows = append(rows, newRow(severe, p.name, "grave"))
		}

		// Minimal case keeps the two leading symptoms.
		if len(p.symptoms) > 2 {
			rows = append(rows, newRow(p.symptoms[:2], p.name, "léger"))
		}
	}

	return rows
}

func newRow(symptoms []string, disease, severity string) row {
	set := make(map[string]bool, len(symptoms))
	for _, s := range symptoms {
		set[s] = true
	}
	return row{symptoms: set, disease: disease, severity: severity}
}

func complement(all, subset []string) []string {
	in := make(map[string]bool, len(subset))
	for _, s := range subset {
		in[s] = true
	}
	var out []string
	for _, s := range all {
		if !in[s] {
			out = append(out, s)
		}
	}
	return out
}

func writeCSV(path string, allSymptoms []string, rows []row) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := append(append([]string{}, allSymptoms...), "disease", "severity")
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		record := make([]string, 0, len(header))
		for _, s := range allSymptoms {
			record = append(record, strconv.Itoa(boolToInt(r.symptoms[s])))
		}
		record = append(record, r.disease, r.severity)
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
