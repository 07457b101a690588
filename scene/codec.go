package scene

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the document encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatForPath picks the encoding from a file extension: .yaml/.yml decode
// as YAML, everything else as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// EncodeDocument renders a document in the given format. JSON output is
// indented for diff-friendly scene files.
func EncodeDocument(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode scene yaml: %w", err)
		}
		return data, nil
	default:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode scene json: %w", err)
		}
		return data, nil
	}
}

// DecodeDocument parses a document in the given format.
func DecodeDocument(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: parse yaml: %v", ErrDeserialization, err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: parse json: %v", ErrDeserialization, err)
		}
	}
	if doc.Version > DocumentVersion {
		return nil, fmt.Errorf("%w: document version %d is newer than supported %d",
			ErrDeserialization, doc.Version, DocumentVersion)
	}
	return &doc, nil
}
