package ensemble

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Artemisxxx37/my-health/internal/domain"
)

// ArtifactSchemaVersion identifies the persisted artifact layout. Loads of
// any other version fail with CorruptArtifactError so structural
// incompatibility is detected explicitly, not via decode accidents.
const ArtifactSchemaVersion = 1

// artifact is the self-describing on-disk form of a trained classifier.
type artifact struct {
	SchemaVersion     int                    `json:"schema_version"`
	TrainedAt         time.Time              `json:"trained_at"`
	Labels            []string               `json:"labels"`
	Vectorizer        *Vectorizer            `json:"vectorizer"`
	Members           []*Member              `json:"members"`
	FeatureImportance map[string]float64     `json:"feature_importance"`
	Report            *domain.TrainingReport `json:"training_report,omitempty"`
}

// Save serializes the entire trained state to path as one versioned JSON
// document, replacing any existing artifact atomically.
func (c *Classifier) Save(path string) error {
	state := c.state.Load()
	if state == nil {
		return domain.ErrNotTrained
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating artifact directory: %w", err)
		}
	}

	art := &artifact{
		SchemaVersion:     ArtifactSchemaVersion,
		TrainedAt:         state.TrainedAt,
		Labels:            state.Labels,
		Vectorizer:        state.Vectorizer,
		Members:           state.Members,
		FeatureImportance: state.FeatureImportance,
		Report:            state.Report,
	}
	// Write to a sibling temp file and rename, so a crash mid-write never
	// clobbers a valid artifact already on disk.
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating artifact file: %w", err)
	}
	tmp := f.Name()

	if err := json.NewEncoder(f).Encode(art); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encoding artifact: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flushing artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing artifact file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing artifact: %w", err)
	}

	c.logger.WithField("path", path).Info("Classifier artifact saved")
	return nil
}

// Load restores a persisted artifact and atomically installs it. A missing
// file, malformed payload, schema version mismatch or structurally invalid
// panel all yield a CorruptArtifactError; callers recover by retraining.
func (c *Classifier) Load(path string) error {
	c.trainMu.Lock()
	defer c.trainMu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return &domain.CorruptArtifactError{Path: path, Reason: "cannot open artifact", Err: err}
	}
	defer f.Close()

	var art artifact
	if err := json.NewDecoder(f).Decode(&art); err != nil {
		return &domain.CorruptArtifactError{Path: path, Reason: "malformed artifact payload", Err: err}
	}
	if art.SchemaVersion != ArtifactSchemaVersion {
		return &domain.CorruptArtifactError{
			Path:   path,
			Reason: fmt.Sprintf("schema version %d, expected %d", art.SchemaVersion, ArtifactSchemaVersion),
		}
	}
	if art.Vectorizer == nil || len(art.Vectorizer.Terms) == 0 {
		return &domain.CorruptArtifactError{Path: path, Reason: "artifact has no fitted vectorizer"}
	}
	if len(art.Labels) == 0 {
		return &domain.CorruptArtifactError{Path: path, Reason: "artifact has no label mapping"}
	}
	if len(art.Members) != len(panelKinds) {
		return &domain.CorruptArtifactError{
			Path:   path,
			Reason: fmt.Sprintf("artifact has %d panel members, expected %d", len(art.Members), len(panelKinds)),
		}
	}
	for _, m := range art.Members {
		if err := m.validate(); err != nil {
			return &domain.CorruptArtifactError{Path: path, Reason: "invalid panel member", Err: err}
		}
	}

	c.state.Store(&trainedState{
		Vectorizer:        art.Vectorizer,
		Labels:            art.Labels,
		Members:           art.Members,
		FeatureImportance: art.FeatureImportance,
		TrainedAt:         art.TrainedAt,
		Report:            art.Report,
	})

	c.logger.WithFields(logrus.Fields{
		"path":       path,
		"trained_at": art.TrainedAt,
	}).Info("Classifier artifact loaded")
	return nil
}
