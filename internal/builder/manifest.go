package builder

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
)

// ErrConfig is returned for an invalid manifest, a missing input file, or an
// output-path collision.
var ErrConfig = errors.New("invalid build configuration")

// DocumentType selects the parsing path for a manifest entry.
type DocumentType string

const (
	TypeMarkdown DocumentType = "markdown"
	TypeText     DocumentType = "text"
)

// Entry is one document to index.
type Entry struct {
	Type  DocumentType `json:"type"`
	Work  string       `json:"work"`
	Title string       `json:"title"`
	File  string       `json:"file"`
}

// Manifest lists the documents of a corpus build and the output path.
type Manifest struct {
	Output    string  `json:"output"`
	Documents []Entry `json:"documents"`
}

var workPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read manifest: %v", ErrConfig, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: failed to parse manifest: %v", ErrConfig, err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the manifest before any work starts. The output path must
// not already exist; a finished database is never silently overwritten.
func (m *Manifest) Validate() error {
	if m.Output == "" {
		return fmt.Errorf("%w: output path is required", ErrConfig)
	}
	if _, err := os.Stat(m.Output); err == nil {
		return fmt.Errorf("%w: output path %s already exists", ErrConfig, m.Output)
	}
	if len(m.Documents) == 0 {
		return fmt.Errorf("%w: manifest lists no documents", ErrConfig)
	}

	for i, doc := range m.Documents {
		switch doc.Type {
		case TypeMarkdown, TypeText:
		default:
			return fmt.Errorf("%w: document %d has unknown type %q", ErrConfig, i, doc.Type)
		}
		if !workPattern.MatchString(doc.Work) {
			return fmt.Errorf("%w: document %d has invalid work %q", ErrConfig, i, doc.Work)
		}
		if doc.Title == "" {
			return fmt.Errorf("%w: document %d has no title", ErrConfig, i)
		}
		if doc.File == "" {
			return fmt.Errorf("%w: document %d has no input file", ErrConfig, i)
		}
		if _, err := os.Stat(doc.File); err != nil {
			return fmt.Errorf("%w: document %d input file %s: %v", ErrConfig, i, doc.File, err)
		}
	}

	return nil
}
