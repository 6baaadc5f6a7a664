package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/magmavol/internal/domain/composition"
)

// loadSample reads a YAML or JSON sample file.
func loadSample(path string) (*composition.Composition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sample: %w", err)
	}
	var s composition.Sample
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse sample %s: %w", path, err)
	}
	comp, err := s.Build()
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", path, err)
	}
	return comp, nil
}
