// Package manifest records how a dataset was generated so that a run can be
// inspected or repeated later. It stores configuration only, never rows.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/lxb523532595/gendata/internal/expr"
	"github.com/lxb523532595/gendata/internal/noise"
	"github.com/lxb523532595/gendata/internal/utils"
)

// Manifest describes one generation run.
type Manifest struct {
	RunID        string          `yaml:"run_id"`
	Expression   string          `yaml:"expression"`
	Terms        expr.Expression `yaml:"terms"`
	Rows         int             `yaml:"rows"`
	Precision    int             `yaml:"precision"`
	Seed         int64           `yaml:"seed"`
	Format       string          `yaml:"format"`
	Namespace    string          `yaml:"namespace,omitempty"`
	ResultNoise  *noise.Bounds   `yaml:"result_noise,omitempty"`
	FeatureNoise *noise.Bounds   `yaml:"feature_noise,omitempty"`
	Output       string          `yaml:"output,omitempty"`
	CreatedAt    time.Time       `yaml:"created_at"`
}

// New starts a manifest for e with a fresh run ID.
func New(e expr.Expression) *Manifest {
	return &Manifest{
		RunID:      uuid.NewString(),
		Expression: e.String(),
		Terms:      e,
		CreatedAt:  time.Now().UTC(),
	}
}

// Save writes the manifest as YAML using an atomic write.
func (m *Manifest) Save(path string) error {
	if path == "" {
		return errors.New("manifest path not set")
	}
	b, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return utils.SafeWriteFile(path, b)
}

// Load reads a manifest written by Save.
func Load(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("manifest not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if _, err := uuid.Parse(m.RunID); err != nil {
		return nil, fmt.Errorf("parse manifest: invalid run_id %q: %w", m.RunID, err)
	}
	return &m, nil
}
