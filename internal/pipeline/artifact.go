package pipeline

import (
	"bufio"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/vivienda/internal/forest"
	"github.com/wonny/vivienda/pkg/fileutil"
)

// FormatVersion is bumped whenever the encoded layout of Artifact changes
const FormatVersion = 1

const magic = "VIVIENDA-ARTIFACT\n"

var (
	// ErrArtifactCorrupt means the file is not a readable artifact of this format
	ErrArtifactCorrupt = errors.New("artifact is corrupt or of an unsupported format")
	// ErrSchemaMismatch means the artifact was fit against different columns
	ErrSchemaMismatch = errors.New("artifact schema does not match columns file")
)

// Meta describes how and when an artifact was produced
type Meta struct {
	FormatVersion      int                 `json:"format_version"`
	ID                 string              `json:"id"`
	CreatedAt          time.Time           `json:"created_at"`
	SchemaFingerprint  string              `json:"schema_fingerprint"`
	ConfigHash         string              `json:"config_hash"`
	Source             string              `json:"source"`
	Metrics            Metrics             `json:"metrics"`
	Params             forest.Params       `json:"params"`
	Forest             forest.Stats        `json:"forest"`
	FeatureImportances []FeatureImportance `json:"feature_importances"`
}

// Artifact is the immutable bundle served by the inference adapter
type Artifact struct {
	Meta     Meta
	Pipeline *Pipeline
}

// NewArtifact stamps a fitted pipeline with a fresh ID and its schema fingerprint
func NewArtifact(p *Pipeline, m Metrics, configHash, source string) (*Artifact, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	fp, err := p.Schema.Fingerprint()
	if err != nil {
		return nil, err
	}

	return &Artifact{
		Meta: Meta{
			FormatVersion:      FormatVersion,
			ID:                 uuid.NewString(),
			CreatedAt:          time.Now().UTC(),
			SchemaFingerprint:  fp,
			ConfigHash:         configHash,
			Source:             source,
			Metrics:            m,
			Params:             p.Model.Params,
			Forest:             p.Model.Stats(),
			FeatureImportances: p.Importances(),
		},
		Pipeline: p,
	}, nil
}

// Encode writes the magic header followed by the gob stream
func (a *Artifact) Encode(w io.Writer) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return fmt.Errorf("write artifact header: %w", err)
	}
	if err := gob.NewEncoder(w).Encode(a); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	return nil
}

// Save writes the artifact atomically; a failed save leaves any previous file intact
func (a *Artifact) Save(path string) error {
	return fileutil.WriteAtomic(path, a.Encode)
}

// Decode reads an artifact written by Encode
func Decode(r io.Reader) (*Artifact, error) {
	br := bufio.NewReader(r)

	header := make([]byte, len(magic))
	if _, err := io.ReadFull(br, header); err != nil || string(header) != magic {
		return nil, fmt.Errorf("%w: bad header", ErrArtifactCorrupt)
	}

	var a Artifact
	if err := gob.NewDecoder(br).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactCorrupt, err)
	}
	if a.Meta.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: format version %d, want %d", ErrArtifactCorrupt, a.Meta.FormatVersion, FormatVersion)
	}
	if err := a.Pipeline.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactCorrupt, err)
	}

	fp, err := a.Pipeline.Schema.Fingerprint()
	if err != nil || fp != a.Meta.SchemaFingerprint {
		return nil, fmt.Errorf("%w: schema fingerprint mismatch", ErrArtifactCorrupt)
	}
	return &a, nil
}

// Load opens and decodes an artifact file
func Load(path string) (*Artifact, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer file.Close()

	return Decode(file)
}

// Verify checks that the artifact was fit against exactly these columns, in order
func (a *Artifact) Verify(columns []string) error {
	if !a.Pipeline.Schema.MatchesColumns(columns) {
		return fmt.Errorf("%w: artifact has %v, columns file has %v", ErrSchemaMismatch, a.Pipeline.Schema.Names(), columns)
	}
	return nil
}
