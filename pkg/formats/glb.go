// Package formats loads and saves binary glTF (GLB) assets and exposes the
// mesh data the morph tools operate on.
package formats

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/morphkit/pkg/math"
)

// GLB format errors.
var (
	ErrNoMesh             = errors.New("asset contains no mesh")
	ErrMeshNotFound       = errors.New("mesh not found")
	ErrNoPositions        = errors.New("mesh has no POSITION data")
	ErrUnsupportedExtras  = errors.New("mesh extras is not an object")
	ErrAccessorOutOfRange = errors.New("accessor index out of range")
)

// targetNamesKey is the mesh extras key exporters use for morph target names.
const targetNamesKey = "targetNames"

// Asset is a decoded glTF document and the path it came from.
type Asset struct {
	Path string
	Doc  *gltf.Document
}

// MeshRef points at one mesh of an asset and the nodes instancing it.
type MeshRef struct {
	Index int
	Mesh  *gltf.Mesh
	Nodes []int // Node indices whose Mesh is Index
}

// PositionSet holds the vertex positions of one POSITION accessor. Primitives
// sharing an accessor share a set.
type PositionSet struct {
	Accessor   int
	Primitives []int
	Positions  [][3]float32
}

// Stats summarises an asset.
type Stats struct {
	Meshes       int
	Primitives   int
	Vertices     int
	MorphTargets int
	Nodes        int
	Skins        int
	Animations   int
	Materials    int
}

// LoadGLB reads a GLB (or .gltf with its resources) from disk.
func LoadGLB(path string) (*Asset, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading GLB file: %w", err)
	}
	return &Asset{Path: path, Doc: doc}, nil
}

// ParseGLB decodes a self-contained GLB from r.
func ParseGLB(r io.Reader) (*Asset, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("decoding GLB: %w", err)
	}
	return &Asset{Doc: doc}, nil
}

// SaveGLB writes the asset to path as a single binary GLB.
func (a *Asset) SaveGLB(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating GLB file: %w", err)
	}
	if err := a.WriteGLB(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteGLB encodes the asset as GLB to w.
func (a *Asset) WriteGLB(w io.Writer) error {
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(a.Doc); err != nil {
		return fmt.Errorf("encoding GLB: %w", err)
	}
	return nil
}

// FindMesh returns the mesh called name. With an empty name it returns the
// first mesh instanced by a node, in node order, or the first mesh if no node
// references one.
func (a *Asset) FindMesh(name string) (*MeshRef, error) {
	doc := a.Doc
	if len(doc.Meshes) == 0 {
		return nil, ErrNoMesh
	}

	idx := -1
	if name != "" {
		for i, m := range doc.Meshes {
			if m.Name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q", ErrMeshNotFound, name)
		}
	} else {
		for _, n := range doc.Nodes {
			if n.Mesh != nil {
				idx = *n.Mesh
				break
			}
		}
		if idx < 0 {
			idx = 0
		}
	}

	if idx >= len(doc.Meshes) {
		return nil, fmt.Errorf("%w: mesh %d", ErrMeshNotFound, idx)
	}

	ref := &MeshRef{Index: idx, Mesh: doc.Meshes[idx]}
	for i, n := range doc.Nodes {
		if n.Mesh != nil && *n.Mesh == idx {
			ref.Nodes = append(ref.Nodes, i)
		}
	}
	return ref, nil
}

// Positions reads the POSITION data of every primitive of the mesh, once per
// distinct accessor.
func (a *Asset) Positions(ref *MeshRef) ([]PositionSet, error) {
	var sets []PositionSet
	seen := make(map[int]int)

	for pi, prim := range ref.Mesh.Primitives {
		acc, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		if si, ok := seen[acc]; ok {
			sets[si].Primitives = append(sets[si].Primitives, pi)
			continue
		}
		if acc < 0 || acc >= len(a.Doc.Accessors) {
			return nil, fmt.Errorf("primitive %d: %w: %d", pi, ErrAccessorOutOfRange, acc)
		}

		pos, err := modeler.ReadPosition(a.Doc, a.Doc.Accessors[acc], nil)
		if err != nil {
			return nil, fmt.Errorf("reading positions of primitive %d: %w", pi, err)
		}

		seen[acc] = len(sets)
		sets = append(sets, PositionSet{
			Accessor:   acc,
			Primitives: []int{pi},
			Positions:  pos,
		})
	}

	if len(sets) == 0 {
		return nil, ErrNoPositions
	}
	return sets, nil
}

// Points flattens position sets into one list mapped into frame.
func Points(sets []PositionSet, frame math.Frame) []math.Vec3 {
	n := 0
	for _, s := range sets {
		n += len(s.Positions)
	}
	points := make([]math.Vec3, 0, n)
	for _, s := range sets {
		for _, p := range s.Positions {
			points = append(points, frame.ToFrame(math.Vec3From(p)))
		}
	}
	return points
}

// Stats returns element counts for the asset.
func (a *Asset) Stats() Stats {
	doc := a.Doc
	st := Stats{
		Meshes:     len(doc.Meshes),
		Nodes:      len(doc.Nodes),
		Skins:      len(doc.Skins),
		Animations: len(doc.Animations),
		Materials:  len(doc.Materials),
	}

	counted := make(map[int]bool)
	for _, m := range doc.Meshes {
		st.Primitives += len(m.Primitives)
		if len(m.Primitives) > 0 {
			st.MorphTargets += len(m.Primitives[0].Targets)
		}
		for _, p := range m.Primitives {
			acc, ok := p.Attributes[gltf.POSITION]
			if !ok || counted[acc] || acc < 0 || acc >= len(doc.Accessors) {
				continue
			}
			counted[acc] = true
			st.Vertices += doc.Accessors[acc].Count
		}
	}
	return st
}

// TargetNames returns the morph target names recorded in the mesh extras.
// Targets without a recorded name come back as "target_N".
func TargetNames(m *gltf.Mesh) []string {
	count := 0
	if len(m.Primitives) > 0 {
		count = len(m.Primitives[0].Targets)
	}

	names := make([]string, count)
	if extras, err := meshExtras(m); err == nil {
		switch raw := extras[targetNamesKey].(type) {
		case []any:
			for i, v := range raw {
				if s, ok := v.(string); ok && i < count {
					names[i] = s
				}
			}
		case []string:
			copy(names, raw)
		}
	}

	for i := range names {
		if names[i] == "" {
			names[i] = fmt.Sprintf("target_%d", i)
		}
	}
	return names
}

// SetTargetNames records morph target names in the mesh extras, keeping any
// other extras keys.
func SetTargetNames(m *gltf.Mesh, names []string) error {
	extras, err := meshExtras(m)
	if err != nil {
		return err
	}
	if extras == nil {
		extras = make(map[string]any)
	}
	extras[targetNamesKey] = names
	m.Extras = extras
	return nil
}

// meshExtras returns the mesh extras as a map, nil if unset.
func meshExtras(m *gltf.Mesh) (map[string]any, error) {
	switch ex := m.Extras.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return ex, nil
	case json.RawMessage:
		var out map[string]any
		if err := json.Unmarshal(ex, &out); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedExtras, err)
		}
		return out, nil
	default:
		return nil, ErrUnsupportedExtras
	}
}
