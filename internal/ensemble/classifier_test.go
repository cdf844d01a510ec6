package ensemble

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Artemisxxx37/my-health/internal/domain"
	"github.com/Artemisxxx37/my-health/internal/knowledge"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return New(logger, 42)
}

func trainedClassifier(t *testing.T) *Classifier {
	t.Helper()
	c := newTestClassifier(t)
	_, err := c.Train()
	require.NoError(t, err)
	return c
}

func TestPredict_BeforeTraining(t *testing.T) {
	c := newTestClassifier(t)

	result, err := c.Predict("fièvre et toux")

	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotTrained))
}

func TestSave_BeforeTraining(t *testing.T) {
	c := newTestClassifier(t)

	err := c.Save(filepath.Join(t.TempDir(), "model.json"))

	assert.True(t, errors.Is(err, domain.ErrNotTrained))
}

func TestTrain(t *testing.T) {
	c := newTestClassifier(t)

	report, err := c.Train()

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.True(t, c.IsTrained())
	assert.Equal(t, len(knowledge.TrainingCorpus()), report.DatasetSize)
	assert.Len(t, report.Models, 4)

	for name, metrics := range report.Models {
		assert.GreaterOrEqual(t, metrics.TrainAccuracy, 0.0, name)
		assert.LessOrEqual(t, metrics.TrainAccuracy, 1.0, name)
	}
}

func TestPredict_AfterTraining(t *testing.T) {
	c := trainedClassifier(t)

	result, err := c.Predict("j'ai de la fièvre et des courbatures avec de la toux")

	require.NoError(t, err)
	assert.NotEmpty(t, result.PredictedDisease)
	assert.GreaterOrEqual(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, 100.0)
	assert.Len(t, result.ModelPredictions, 4)

	totalVotes := 0
	for _, n := range result.VotingDetails {
		totalVotes += n
	}
	assert.Equal(t, 4, totalVotes, "every panel member votes exactly once")

	// The winner has at least as many votes as any other label.
	winnerVotes := result.VotingDetails[result.PredictedDisease]
	for _, n := range result.VotingDetails {
		assert.LessOrEqual(t, n, winnerVotes)
	}
}

func TestPredict_ConsensusFlag(t *testing.T) {
	c := trainedClassifier(t)

	inputs := []string{
		"fièvre toux fatigue courbatures frissons",
		"éternuements démangeaisons yeux rouges",
		"texte sans rapport médical",
	}

	for _, input := range inputs {
		result, err := c.Predict(input)
		require.NoError(t, err)
		assert.Equal(t, len(result.VotingDetails) == 1, result.Consensus,
			"consensus must hold iff exactly one distinct label was voted")
	}
}

func TestPredict_BoostedMemberNeutralConfidence(t *testing.T) {
	c := trainedClassifier(t)

	result, err := c.Predict("fièvre et toux")
	require.NoError(t, err)

	vote, ok := result.ModelPredictions[string(KindGradientBoosting)]
	require.True(t, ok)
	assert.Equal(t, 50.0, vote.Confidence,
		"a member without probability estimates contributes the fixed neutral confidence")
}

func TestPredict_DegenerateInput(t *testing.T) {
	c := trainedClassifier(t)

	for _, input := range []string{"", "   ", "@@@ ###"} {
		result, err := c.Predict(input)
		require.NoError(t, err)
		assert.NotEmpty(t, result.PredictedDisease)
		assert.GreaterOrEqual(t, result.Confidence, 0.0)
		assert.LessOrEqual(t, result.Confidence, 100.0)
	}
}

func TestPredict_Deterministic(t *testing.T) {
	c := trainedClassifier(t)

	first, err := c.Predict("mal de tête intense et nausée")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := c.Predict("mal de tête intense et nausée")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	c := trainedClassifier(t)
	path := filepath.Join(t.TempDir(), "model.json")

	inputs := []string{
		"fièvre toux fatigue courbatures",
		"éternuements yeux rouges nez qui coule",
		"nausée vomissement diarrhée",
		"mal de gorge intense difficulté à avaler",
	}

	var before []*domain.ClassificationResult
	for _, input := range inputs {
		r, err := c.Predict(input)
		require.NoError(t, err)
		before = append(before, r)
	}

	require.NoError(t, c.Save(path))

	restored := newTestClassifier(t)
	require.NoError(t, restored.Load(path))
	assert.True(t, restored.IsTrained())

	for i, input := range inputs {
		r, err := restored.Predict(input)
		require.NoError(t, err)
		assert.Equal(t, before[i], r, "restored panel must reproduce predictions for %q", input)
	}
}

func TestSave_ReplacesExistingArtifact(t *testing.T) {
	c := trainedClassifier(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")

	require.NoError(t, c.Save(path))
	require.NoError(t, c.Save(path))

	// The artifact stays loadable and the replace leaves no stray files.
	restored := newTestClassifier(t)
	require.NoError(t, restored.Load(path))
	assert.True(t, restored.IsTrained())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "model.json", entries[0].Name())
}

func TestLoad_MissingFile(t *testing.T) {
	c := newTestClassifier(t)

	err := c.Load(filepath.Join(t.TempDir(), "absent.json"))

	require.Error(t, err)
	assert.True(t, domain.IsCorruptArtifact(err))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.False(t, c.IsTrained())
}

func TestLoad_MalformedPayload(t *testing.T) {
	c := newTestClassifier(t)
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	err := c.Load(path)

	require.Error(t, err)
	assert.True(t, domain.IsCorruptArtifact(err))
	assert.False(t, c.IsTrained())
}

func TestLoad_SchemaVersionMismatch(t *testing.T) {
	c := newTestClassifier(t)
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schema_version": 99}`), 0o644))

	err := c.Load(path)

	require.Error(t, err)
	assert.True(t, domain.IsCorruptArtifact(err))

	var corrupt *domain.CorruptArtifactError
	require.True(t, errors.As(err, &corrupt))
	assert.Contains(t, corrupt.Reason, "schema version")
}

func TestLoad_KeepsPreviousStateOnFailure(t *testing.T) {
	c := trainedClassifier(t)
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	before, err := c.Predict("fièvre et toux")
	require.NoError(t, err)

	require.Error(t, c.Load(path))

	after, err := c.Predict("fièvre et toux")
	require.NoError(t, err)
	assert.Equal(t, before, after, "a failed load must not disturb the installed panel")
}

func TestExplain(t *testing.T) {
	c := trainedClassifier(t)

	explanation, err := c.Explain("j'ai de la fièvre et de la toux")

	require.NoError(t, err)
	assert.NotEmpty(t, explanation.PredictedDisease)
	assert.LessOrEqual(t, len(explanation.KeySymptoms), 5)
}

func TestInfo(t *testing.T) {
	c := newTestClassifier(t)
	assert.Equal(t, "not_trained", c.Info()["status"])

	_, err := c.Train()
	require.NoError(t, err)
	assert.Equal(t, "trained", c.Info()["status"])
}

func TestTrainWith_TooFewExamples(t *testing.T) {
	c := newTestClassifier(t)

	_, err := c.TrainWith([]knowledge.LabeledExample{
		{Symptoms: "fièvre", Disease: "grippe"},
	})

	assert.Error(t, err)
	assert.False(t, c.IsTrained())
}
