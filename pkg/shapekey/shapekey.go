// Package shapekey authors a morph target that displaces a band of vertices,
// such as a jaw-drop "MouthOpen" key on a character head.
package shapekey

import (
	"encoding/binary"
	"errors"
	"fmt"
	gomath "math"
	"slices"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/morphkit/pkg/formats"
	"github.com/Faultbox/morphkit/pkg/math"
)

// Authoring errors.
var (
	ErrEmptyName       = errors.New("morph target name is empty")
	ErrInvalidBand     = errors.New("band max must be greater than band min")
	ErrInvalidMidline  = errors.New("midline fraction must be positive")
	ErrTargetExists    = errors.New("morph target already exists")
	ErrTargetMismatch  = errors.New("primitives disagree on morph target count")
	ErrAnimatedWeights = errors.New("mesh morph weights are animated")
)

// Params selects the vertices to move and how far. Coordinates are in the
// analysis frame: X left/right, Y front(-)/back(+), Z up.
type Params struct {
	Name            string  `yaml:"name"`
	BandMinZ        float64 `yaml:"band_min_z"`       // Exclusive lower edge of the vertical band
	BandMaxZ        float64 `yaml:"band_max_z"`       // Exclusive upper edge of the vertical band
	FrontY          float64 `yaml:"front_y"`          // Only vertices with Y below this move
	MidlineFraction float64 `yaml:"midline_fraction"` // Half-width of the X band, as a share of mesh width
	MaxDrop         float64 `yaml:"max_drop"`         // Downward move at the band's lower edge
	ForwardShift    float64 `yaml:"forward_shift"`    // Constant move toward -Y
	Replace         bool    `yaml:"replace"`          // Overwrite an existing target with the same name
}

// DefaultParams returns the chin-drop values tuned for the Meshy biped export.
func DefaultParams() Params {
	return Params{
		Name:            "MouthOpen",
		BandMinZ:        100,
		BandMaxZ:        110,
		FrontY:          -15,
		MidlineFraction: 0.12,
		MaxDrop:         2.5,
		ForwardShift:    0.3,
	}
}

// Validate checks the parameters are usable.
func (p Params) Validate() error {
	if p.Name == "" {
		return ErrEmptyName
	}
	if p.BandMaxZ <= p.BandMinZ {
		return fmt.Errorf("%w: %v..%v", ErrInvalidBand, p.BandMinZ, p.BandMaxZ)
	}
	if p.MidlineFraction <= 0 {
		return ErrInvalidMidline
	}
	return nil
}

// Selector decides which vertices move, given the extent of the whole mesh.
// Thresholds are evaluated in float64 with positions widened first.
type Selector struct {
	params    Params
	centerX   float64
	halfWidth float64
}

// NewSelector measures points and returns a selector for them.
func NewSelector(points []math.Vec3, p Params) Selector {
	b := math.BoundsOf(points)
	minX, maxX := float64(b.Min.X), float64(b.Max.X)
	return Selector{
		params:    p,
		centerX:   (minX + maxX) / 2,
		halfWidth: (maxX - minX) * p.MidlineFraction,
	}
}

// Selected reports whether v lies in the band, in front of the cutoff and
// near the midline.
func (s Selector) Selected(v math.Vec3) bool {
	p := s.params
	if z := float64(v.Z); z <= p.BandMinZ || z >= p.BandMaxZ {
		return false
	}
	if float64(v.Y) >= p.FrontY {
		return false
	}
	return gomath.Abs(float64(v.X)-s.centerX) < s.halfWidth
}

// Displace returns the morphed position of a selected vertex. The drop is
// MaxDrop at the band's lower edge and falls linearly to zero at the top.
func (s Selector) Displace(v math.Vec3) math.Vec3 {
	p := s.params
	z := float64(v.Z)
	ratio := (z - p.BandMinZ) / (p.BandMaxZ - p.BandMinZ)
	drop := float64(p.MaxDrop * (1 - ratio))
	return math.Vec3{
		X: v.X,
		Y: float32(float64(v.Y) - p.ForwardShift),
		Z: float32(z - drop),
	}
}

// Select returns the indices of the selected points.
func Select(points []math.Vec3, p Params) []int {
	sel := NewSelector(points, p)
	var idx []int
	for i, v := range points {
		if sel.Selected(v) {
			idx = append(idx, i)
		}
	}
	return idx
}

// Result describes an authored target.
type Result struct {
	Name        string
	TargetIndex int
	Modified    int // Selected vertices
	Total       int // Vertices considered
	Replaced    bool
	Accessors   []int // POSITION target accessors written
}

// Author adds (or with Replace, rewrites) a POSITION morph target on the
// mesh. glTF targets hold displacements, so unselected vertices get a zero
// delta and keep their base position when the target is blended.
//
// A replaced target reuses its old accessor storage when nothing else
// references it and the layout fits; otherwise a new accessor is appended
// and the old one is left unreferenced.
func Author(asset *formats.Asset, ref *formats.MeshRef, frame math.Frame, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := checkWeightsAnimation(asset.Doc, ref); err != nil {
		return nil, err
	}

	mesh := ref.Mesh
	targetCount := 0
	for pi, prim := range mesh.Primitives {
		if _, ok := prim.Attributes[gltf.POSITION]; !ok {
			return nil, fmt.Errorf("primitive %d: %w", pi, formats.ErrNoPositions)
		}
		if pi == 0 {
			targetCount = len(prim.Targets)
		} else if len(prim.Targets) != targetCount {
			return nil, fmt.Errorf("%w: primitive %d has %d, want %d", ErrTargetMismatch, pi, len(prim.Targets), targetCount)
		}
	}

	names := formats.TargetNames(mesh)
	existing := slices.Index(names, p.Name)
	if existing >= 0 && !p.Replace {
		return nil, fmt.Errorf("%w: %q", ErrTargetExists, p.Name)
	}
	if existing >= targetCount {
		return nil, fmt.Errorf("%w: name %q at %d, %d targets", ErrTargetMismatch, p.Name, existing, targetCount)
	}

	sets, err := asset.Positions(ref)
	if err != nil {
		return nil, err
	}
	sel := NewSelector(formats.Points(sets, frame), p)

	res := &Result{Name: p.Name, TargetIndex: existing, Replaced: existing >= 0}
	targetAccessor := make(map[int]int, len(sets))

	for _, set := range sets {
		deltas := make([][3]float32, len(set.Positions))
		for i, pos := range set.Positions {
			v := frame.ToFrame(math.Vec3From(pos))
			if !sel.Selected(v) {
				continue
			}
			deltas[i] = frame.FromFrame(sel.Displace(v).Sub(v)).Array()
			res.Modified++
		}
		res.Total += len(set.Positions)

		acc := -1
		if res.Replaced {
			old, ok := mesh.Primitives[set.Primitives[0]].Targets[existing][gltf.POSITION]
			if ok && targetOnly(asset.Doc, old, set.Accessor) && overwritePositions(asset.Doc, old, deltas) {
				acc = old
			}
		}
		if acc < 0 {
			acc = modeler.WritePosition(asset.Doc, deltas)
		}
		asset.Doc.Accessors[acc].Name = p.Name
		targetAccessor[set.Accessor] = acc
		res.Accessors = append(res.Accessors, acc)
	}

	for _, prim := range mesh.Primitives {
		acc := targetAccessor[prim.Attributes[gltf.POSITION]]
		if res.Replaced {
			target := prim.Targets[existing]
			target[gltf.POSITION] = acc
			// Old normal and tangent deltas belong to the replaced shape.
			delete(target, gltf.NORMAL)
			delete(target, gltf.TANGENT)
			continue
		}
		prim.Targets = append(prim.Targets, map[string]int{gltf.POSITION: acc})
	}

	if res.Replaced {
		return res, nil
	}

	res.TargetIndex = targetCount
	if mesh.Weights != nil {
		mesh.Weights = append(mesh.Weights, 0)
	}
	for _, ni := range ref.Nodes {
		if n := asset.Doc.Nodes[ni]; n.Weights != nil {
			n.Weights = append(n.Weights, 0)
		}
	}
	if err := formats.SetTargetNames(mesh, append(names, p.Name)); err != nil {
		return nil, err
	}
	return res, nil
}

// checkWeightsAnimation refuses meshes whose morph weights are driven by an
// animation channel; a new target would not match the sampler output size.
func checkWeightsAnimation(doc *gltf.Document, ref *formats.MeshRef) error {
	for _, anim := range doc.Animations {
		for _, ch := range anim.Channels {
			if ch.Target.Path != gltf.TRSWeights || ch.Target.Node == nil {
				continue
			}
			if slices.Contains(ref.Nodes, *ch.Target.Node) {
				return fmt.Errorf("%w: animation %q", ErrAnimatedWeights, anim.Name)
			}
		}
	}
	return nil
}

// targetOnly reports whether acc is used solely as the POSITION target of
// primitives whose base POSITION accessor is base.
func targetOnly(doc *gltf.Document, acc, base int) bool {
	for _, m := range doc.Meshes {
		for _, prim := range m.Primitives {
			if prim.Indices != nil && *prim.Indices == acc {
				return false
			}
			for _, a := range prim.Attributes {
				if a == acc {
					return false
				}
			}
			for _, t := range prim.Targets {
				for sem, a := range t {
					if a == acc && (sem != gltf.POSITION || prim.Attributes[gltf.POSITION] != base) {
						return false
					}
				}
			}
		}
	}
	for _, sk := range doc.Skins {
		if sk.InverseBindMatrices != nil && *sk.InverseBindMatrices == acc {
			return false
		}
	}
	for _, anim := range doc.Animations {
		for _, smp := range anim.Samplers {
			if smp.Input == acc || smp.Output == acc {
				return false
			}
		}
	}
	return true
}

// overwritePositions writes data over the elements of an existing float VEC3
// accessor and refreshes its bounds. It returns false, leaving the document
// untouched, when the accessor cannot hold data in place.
func overwritePositions(doc *gltf.Document, index int, data [][3]float32) bool {
	if index < 0 || index >= len(doc.Accessors) {
		return false
	}
	acc := doc.Accessors[index]
	if acc.ComponentType != gltf.ComponentFloat || acc.Type != gltf.AccessorVec3 ||
		acc.Sparse != nil || acc.BufferView == nil || acc.Count != len(data) {
		return false
	}
	if *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews) {
		return false
	}
	view := doc.BufferViews[*acc.BufferView]
	if view.Buffer < 0 || view.Buffer >= len(doc.Buffers) {
		return false
	}
	buf := doc.Buffers[view.Buffer].Data

	const elem = 12
	stride := view.ByteStride
	if stride == 0 {
		stride = elem
	}
	if stride < elem {
		return false
	}
	start := view.ByteOffset + acc.ByteOffset
	if len(data) > 0 {
		end := start + (len(data)-1)*stride + elem
		if end > view.ByteOffset+view.ByteLength || end > len(buf) {
			return false
		}
	}

	lo := [3]float64{gomath.MaxFloat64, gomath.MaxFloat64, gomath.MaxFloat64}
	hi := [3]float64{-gomath.MaxFloat64, -gomath.MaxFloat64, -gomath.MaxFloat64}
	for i, v := range data {
		off := start + i*stride
		for c, x := range v {
			binary.LittleEndian.PutUint32(buf[off+4*c:], gomath.Float32bits(x))
			lo[c] = min(lo[c], float64(x))
			hi[c] = max(hi[c], float64(x))
		}
	}
	acc.Min = lo[:]
	acc.Max = hi[:]
	return true
}
