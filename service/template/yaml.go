package template

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/flowgate/model"
	"gopkg.in/yaml.v3"
)

// Document is a template authoring document. Steps use the same field names
// as the model; branch targets accept a step order or the keyword
// "terminate".
type Document struct {
	Name  string        `yaml:"name"`
	Steps []*model.Step `yaml:"steps"`
}

// DecodeYAML decodes a template document; validation happens when the
// document is registered with the store.
func DecodeYAML(encoded []byte) (*Document, error) {
	document := &Document{}
	if err := yaml.Unmarshal(encoded, document); err != nil {
		return nil, fmt.Errorf("failed to decode template document: %w", err)
	}
	if document.Name == "" {
		return nil, fmt.Errorf("template document has no name")
	}
	return document, nil
}

// Loader loads template documents from afs URLs (file, mem, s3, ...).
type Loader struct {
	fs afs.Service
}

// NewLoader creates a template document loader.
func NewLoader() *Loader {
	return &Loader{fs: afs.New()}
}

// Load reads and decodes the template document at the given URL. A document
// with no extension defaults to .yaml. The document name falls back to the
// file name.
func (l *Loader) Load(ctx context.Context, URL string) (*Document, error) {
	if filepath.Ext(URL) == "" {
		URL += ".yaml"
	}
	data, err := l.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load template from %s: %w", URL, err)
	}
	document := &Document{}
	if err := yaml.Unmarshal(data, document); err != nil {
		return nil, fmt.Errorf("failed to parse template from %s: %w", URL, err)
	}
	if document.Name == "" {
		base := filepath.Base(URL)
		document.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return document, nil
}
