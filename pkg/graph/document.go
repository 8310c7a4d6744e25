package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/stacklayout/pkg/errors"
)

// Format selects the encoding of a [Document].
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// String returns the lowercase format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// FormatFromPath picks the format from a file extension (.json, .yaml, .yml).
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, errs.New(errs.ErrCodeInvalidInput, "unsupported graph file extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
}

// =============================================================================
// Document - Node-Link File Format
// =============================================================================

// Document is the node-link file format for graphs to be laid out. The same
// structure is written back with computed positions and sizes.
type Document struct {
	Bounds *DocumentBounds `json:"bounds,omitempty" yaml:"bounds,omitempty"`
	Nodes  []DocumentNode  `json:"nodes" yaml:"nodes"`
	Edges  []DocumentEdge  `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// DocumentBounds is the layout rectangle stored in a document.
type DocumentBounds struct {
	X float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y float64 `json:"y,omitempty" yaml:"y,omitempty"`
	W float64 `json:"w" yaml:"w"`
	H float64 `json:"h" yaml:"h"`
}

// DocumentNode is one entity in a document.
type DocumentNode struct {
	ID          string         `json:"id" yaml:"id"`
	X           float64        `json:"x" yaml:"x"`
	Y           float64        `json:"y" yaml:"y"`
	W           float64        `json:"w,omitempty" yaml:"w,omitempty"`
	H           float64        `json:"h,omitempty" yaml:"h,omitempty"`
	Pinned      bool           `json:"pinned,omitempty" yaml:"pinned,omitempty"`
	FixedSize   bool           `json:"fixed_size,omitempty" yaml:"fixed_size,omitempty"`
	AspectRatio float64        `json:"aspect_ratio,omitempty" yaml:"aspect_ratio,omitempty"`
	Meta        map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// DocumentEdge is one directed edge in a document.
type DocumentEdge struct {
	From   string  `json:"from" yaml:"from"`
	To     string  `json:"to" yaml:"to"`
	Weight float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// Build validates the document and converts it into a [Graph]. The document's
// bounds win over fallback when present. Nodes without an id receive a random
// UUID. All validation failures are INVALID_INPUT errors.
func (d Document) Build(fallback Rect) (*Graph, error) {
	bounds := fallback
	if d.Bounds != nil {
		bounds = Rect{X: d.Bounds.X, Y: d.Bounds.Y, W: d.Bounds.W, H: d.Bounds.H}
	}
	if err := errs.ValidateExtent("bounds", bounds.W, bounds.H); err != nil {
		return nil, err
	}

	g := New(bounds)
	for i, dn := range d.Nodes {
		if dn.ID == "" {
			dn.ID = uuid.NewString()
		}
		if err := validateDocumentNode(dn); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "node %d", i)
		}
		n := Node{
			Name:      dn.ID,
			Pos:       r2.Vec{X: dn.X, Y: dn.Y},
			Dim:       r2.Vec{X: dn.W, Y: dn.H},
			Pinned:    dn.Pinned,
			FixedSize: dn.FixedSize,
			Ratio:     dn.AspectRatio,
			Meta:      copyMeta(dn.Meta),
		}
		if _, err := g.AddNode(n); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "add node %s", dn.ID)
		}
	}

	for _, de := range d.Edges {
		if err := errs.ValidateFinite("edge weight", de.Weight); err != nil {
			return nil, err
		}
		if err := g.AddEdge(de.From, de.To, de.Weight); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "add edge %s→%s", de.From, de.To)
		}
	}
	return g, nil
}

func validateDocumentNode(dn DocumentNode) error {
	if err := errs.ValidateEntityID(dn.ID); err != nil {
		return err
	}
	if err := errs.ValidateFinite("x", dn.X); err != nil {
		return err
	}
	if err := errs.ValidateFinite("y", dn.Y); err != nil {
		return err
	}
	if err := errs.ValidateExtent("size", dn.W, dn.H); err != nil {
		return err
	}
	return errs.ValidateFinite("aspect ratio", dn.AspectRatio)
}

// FromGraph converts a graph back into a document, keeping insertion order.
func FromGraph(g *Graph) Document {
	b := g.Bounds()
	out := Document{
		Bounds: &DocumentBounds{X: b.X, Y: b.Y, W: b.W, H: b.H},
		Nodes:  make([]DocumentNode, 0, g.NodeCount()),
		Edges:  make([]DocumentEdge, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		out.Nodes = append(out.Nodes, DocumentNode{
			ID:          n.Name,
			X:           n.Pos.X,
			Y:           n.Pos.Y,
			W:           n.Dim.X,
			H:           n.Dim.Y,
			Pinned:      n.Pinned,
			FixedSize:   n.FixedSize,
			AspectRatio: n.Ratio,
			Meta:        copyMeta(n.Meta),
		})
	}
	for _, l := range g.Links() {
		out.Edges = append(out.Edges, DocumentEdge{From: l.From.Name, To: l.To.Name, Weight: l.W})
	}
	return out
}

// copyMeta creates a shallow copy of metadata to avoid mutation.
func copyMeta(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}

// =============================================================================
// Document Serialization API
// =============================================================================

// MarshalDocument encodes a document in the given format.
func MarshalDocument(d Document, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDocument(&buf, d, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseDocument decodes a document from bytes.
func ParseDocument(data []byte, f Format) (Document, error) {
	return ReadDocument(bytes.NewReader(data), f)
}

// WriteDocument encodes a document to w.
func WriteDocument(w io.Writer, d Document, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	default:
		return errs.New(errs.ErrCodeUnsupported, "unsupported document format %s", f)
	}
	return nil
}

// ReadDocument decodes a document from r.
func ReadDocument(r io.Reader, f Format) (Document, error) {
	var d Document
	switch f {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&d); err != nil {
			return Document{}, errs.Wrap(errs.ErrCodeInvalidInput, err, "decode json")
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&d); err != nil {
			return Document{}, errs.Wrap(errs.ErrCodeInvalidInput, err, "decode yaml")
		}
	default:
		return Document{}, errs.New(errs.ErrCodeUnsupported, "unsupported document format %s", f)
	}
	return d, nil
}

// ReadDocumentFile reads a document, picking the format from the extension.
func ReadDocumentFile(path string) (Document, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return Document{}, err
	}
	file, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	return ReadDocument(file, f)
}

// WriteDocumentFile writes a document, picking the format from the extension.
// The file is created with 0644 permissions.
func WriteDocumentFile(path string, d Document) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()
	return WriteDocument(file, d, f)
}
