// Package export writes the node snapshot and biome summary to disk as JSON,
// YAML or zstd-compressed JSON.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"biome/internal/node"
	"biome/internal/zones"
)

// Format is an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatZstd Format = "zstd" // JSON compressed with zstd
)

// SchemaVersion is written into every document.
const SchemaVersion = 1

// Document is the exported snapshot.
type Document struct {
	SchemaVersion int             `json:"schemaVersion" yaml:"schemaVersion"`
	GeneratedAt   time.Time       `json:"generatedAt" yaml:"generatedAt"`
	Summary       zones.Summary   `json:"summary" yaml:"summary"`
	Nodes         []node.FileNode `json:"nodes" yaml:"nodes"`
	Usage         []UsageRecord   `json:"usage,omitempty" yaml:"usage,omitempty"`
}

// UsageRecord is one exported access pattern.
type UsageRecord struct {
	Path            string    `json:"path" yaml:"path"`
	AccessCount     int       `json:"accessCount" yaml:"accessCount"`
	LastAccess      time.Time `json:"lastAccess" yaml:"lastAccess"`
	AccessFrequency float64   `json:"accessFrequency" yaml:"accessFrequency"`
}

// NewDocument assembles a document from a node snapshot.
func NewDocument(nodes []node.FileNode, summary zones.Summary, generatedAt time.Time) *Document {
	if nodes == nil {
		nodes = []node.FileNode{}
	}
	return &Document{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   generatedAt.UTC(),
		Summary:       summary,
		Nodes:         nodes,
	}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatZstd, "zst":
		return FormatZstd, nil
	}
	return "", fmt.Errorf("unknown export format %q (want json, yaml or zstd)", s)
}

// FormatForPath infers the format from a file name.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".zst", ".zstd":
		return FormatZstd
	default:
		return FormatJSON
	}
}

// Write encodes doc to w.
func Write(w io.Writer, doc *Document, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatZstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return err
		}
		if err := json.NewEncoder(zw).Encode(doc); err != nil {
			_ = zw.Close()
			return err
		}
		return zw.Close()
	}
	return fmt.Errorf("unknown export format %q", format)
}

// Read decodes a document written by Write.
func Read(r io.Reader, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, err
		}
	case FormatZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		if err := json.NewDecoder(zr).Decode(&doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
	if doc.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("export schema version %d is newer than supported %d", doc.SchemaVersion, SchemaVersion)
	}
	return &doc, nil
}

// WriteFile writes doc to path atomically. An empty format is inferred from
// the file name.
func WriteFile(path string, doc *Document, format Format) error {
	if format == "" {
		format = FormatForPath(path)
	}
	var buf bytes.Buffer
	if err := Write(&buf, doc, format); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".biome-export-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadFile reads a document, inferring the format from the file name.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Read(f, FormatForPath(path))
}
