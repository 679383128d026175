package script

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/pyrate-build/pyrate/internal/pyrerr"
)

// Parse unmarshals a build script's YAML bytes into a Document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, pyrerr.New(pyrerr.UserScript, fmt.Errorf("parsing build script: %w", err))
	}
	return &doc, nil
}
