// Package region slices a character mesh along its vertical axis to locate
// anatomical regions (head, mouth, chin).
//
// Points are expected in a Z-up frame with the character facing -Y.
package region

import (
	"errors"
	"fmt"

	"github.com/Faultbox/morphkit/pkg/math"
)

// Analysis errors.
var (
	ErrNoVertices     = errors.New("no vertices to analyse")
	ErrInvalidOptions = errors.New("invalid analysis options")
)

// Options controls slice counts and head proportions.
type Options struct {
	Slices        int     `yaml:"slices"`         // Vertical bands over the full height
	HeadFraction  float64 `yaml:"head_fraction"`  // Top share of the height treated as head
	HeadSlices    int     `yaml:"head_slices"`    // Bands over the head
	MouthFraction float64 `yaml:"mouth_fraction"` // Share of head height, from the chin, suggested as mouth band
}

// DefaultOptions returns the proportions used for humanoid characters.
func DefaultOptions() Options {
	return Options{
		Slices:        20,
		HeadFraction:  0.20,
		HeadSlices:    10,
		MouthFraction: 0.30,
	}
}

// Validate checks slice counts and fractions.
func (o Options) Validate() error {
	if o.Slices <= 0 || o.HeadSlices <= 0 {
		return fmt.Errorf("%w: slice counts must be positive", ErrInvalidOptions)
	}
	if o.HeadFraction <= 0 || o.HeadFraction > 1 {
		return fmt.Errorf("%w: head fraction %v outside (0,1]", ErrInvalidOptions, o.HeadFraction)
	}
	if o.MouthFraction <= 0 || o.MouthFraction > 1 {
		return fmt.Errorf("%w: mouth fraction %v outside (0,1]", ErrInvalidOptions, o.MouthFraction)
	}
	return nil
}

// Range is a closed interval on one axis.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Len returns Max - Min.
func (r Range) Len() float64 {
	return r.Max - r.Min
}

// Slice is one vertical band of the whole mesh.
type Slice struct {
	Bottom         float64 `yaml:"bottom"`
	Top            float64 `yaml:"top"`
	PercentFromTop float64 `yaml:"percent_from_top"`
	Count          int     `yaml:"count"`
	AvgY           float64 `yaml:"avg_y"`
	Label          string  `yaml:"label"`
}

// HeadSlice is one vertical band of the head, split front/back.
type HeadSlice struct {
	Bottom    float64 `yaml:"bottom"`
	Top       float64 `yaml:"top"`
	PercentUp float64 `yaml:"percent_up"`
	Count     int     `yaml:"count"`
	Front     int     `yaml:"front"`
	Back      int     `yaml:"back"`
}

// Head describes the top share of the mesh.
type Head struct {
	Z      Range       `yaml:"z"`
	Y      Range       `yaml:"y"`
	Count  int         `yaml:"count"`
	Slices []HeadSlice `yaml:"slices"`
	Mouth  Range       `yaml:"suggested_mouth_z"`
}

// Report is the full analysis of one mesh.
type Report struct {
	Vertices int     `yaml:"vertices"`
	X        Range   `yaml:"x"`
	Y        Range   `yaml:"y"`
	Z        Range   `yaml:"z"`
	Slices   []Slice `yaml:"slices"`
	Head     *Head   `yaml:"head,omitempty"`
}

// rangeOf widens one axis of a float32 box to float64.
func rangeOf(lo, hi float32) Range {
	return Range{float64(lo), float64(hi)}
}

// Analyze computes the vertical and head slice statistics for points.
//
// Band edges, averages and thresholds are float64; positions are widened
// before comparison. Products are converted explicitly before being added so
// they are never fused into FMAs.
func Analyze(points []math.Vec3, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, ErrNoVertices
	}

	bounds := math.BoundsOf(points)
	rep := &Report{
		Vertices: len(points),
		X:        rangeOf(bounds.Min.X, bounds.Max.X),
		Y:        rangeOf(bounds.Min.Y, bounds.Max.Y),
		Z:        rangeOf(bounds.Min.Z, bounds.Max.Z),
	}

	height := rep.Z.Len()
	sliceHeight := height / float64(opts.Slices)

	rep.Slices = make([]Slice, opts.Slices)
	for i := range rep.Slices {
		bottom := rep.Z.Min + float64(float64(i)*sliceHeight)
		top := bottom + sliceHeight
		pctFromTop := 100 - float64(i)/float64(opts.Slices)*100

		s := Slice{
			Bottom:         bottom,
			Top:            top,
			PercentFromTop: pctFromTop,
			Label:          Label(pctFromTop),
		}

		var sumY float64
		for _, p := range points {
			if z := float64(p.Z); z >= bottom && z < top {
				s.Count++
				sumY += float64(p.Y)
			}
		}
		if s.Count > 0 {
			s.AvgY = sumY / float64(s.Count)
		}
		rep.Slices[i] = s
	}

	rep.Head = analyzeHead(points, rep.Z.Max-float64(height*opts.HeadFraction), opts)
	return rep, nil
}

// analyzeHead slices the vertices strictly above headBottom.
func analyzeHead(points []math.Vec3, headBottom float64, opts Options) *Head {
	var headPoints []math.Vec3
	for _, p := range points {
		if float64(p.Z) > headBottom {
			headPoints = append(headPoints, p)
		}
	}
	if len(headPoints) == 0 {
		return nil
	}

	bounds := math.BoundsOf(headPoints)
	head := &Head{
		Z:     rangeOf(bounds.Min.Z, bounds.Max.Z),
		Y:     rangeOf(bounds.Min.Y, bounds.Max.Y),
		Count: len(headPoints),
	}

	n := float64(opts.HeadSlices)
	headHeight := head.Z.Len()
	midY := head.Y.Min + float64(head.Y.Len()*0.5)

	head.Slices = make([]HeadSlice, opts.HeadSlices)
	for i := range head.Slices {
		bottom := head.Z.Min + float64(float64(i)*headHeight)/n
		top := bottom + headHeight/n

		hs := HeadSlice{
			Bottom:    bottom,
			Top:       top,
			PercentUp: (float64(i) + 0.5) / n * 100,
		}
		for _, p := range headPoints {
			if z := float64(p.Z); z < bottom || z >= top {
				continue
			}
			hs.Count++
			if float64(p.Y) < midY {
				hs.Front++
			} else {
				hs.Back++
			}
		}
		head.Slices[i] = hs
	}

	head.Mouth = Range{head.Z.Min, head.Z.Min + float64(headHeight*opts.MouthFraction)}
	return head
}

// Label guesses the body region for a band by its distance from the top.
func Label(pctFromTop float64) string {
	switch {
	case pctFromTop <= 10:
		return "TOP OF HEAD"
	case pctFromTop <= 15:
		return "UPPER HEAD"
	case pctFromTop <= 20:
		return "HEAD"
	case pctFromTop <= 25:
		return "NECK?"
	case pctFromTop <= 40:
		return "TORSO"
	case pctFromTop <= 60:
		return "BODY"
	default:
		return "LOWER"
	}
}
