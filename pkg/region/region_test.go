package region

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/morphkit/pkg/math"
)

// column returns one point per unit height from 0 to 10, with Y = -Z.
func column() []math.Vec3 {
	var pts []math.Vec3
	for z := 0; z <= 10; z++ {
		pts = append(pts, math.Vec3{X: float32(z % 2), Y: -float32(z), Z: float32(z)})
	}
	return pts
}

func testOptions() Options {
	return Options{Slices: 10, HeadFraction: 0.2, HeadSlices: 2, MouthFraction: 0.5}
}

func TestAnalyze_Bounds(t *testing.T) {
	rep, err := Analyze(column(), testOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if rep.Vertices != 11 {
		t.Errorf("expected 11 vertices, got %d", rep.Vertices)
	}
	if want := (Range{0, 1}); rep.X != want {
		t.Errorf("X = %v, want %v", rep.X, want)
	}
	if want := (Range{-10, 0}); rep.Y != want {
		t.Errorf("Y = %v, want %v", rep.Y, want)
	}
	if want := (Range{0, 10}); rep.Z != want {
		t.Errorf("Z = %v, want %v", rep.Z, want)
	}
}

func TestAnalyze_VerticalSlices(t *testing.T) {
	rep, err := Analyze(column(), testOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(rep.Slices) != 10 {
		t.Fatalf("expected 10 slices, got %d", len(rep.Slices))
	}

	total := 0
	for i, s := range rep.Slices {
		total += s.Count
		if s.Count != 1 {
			t.Errorf("slice %d: expected 1 vertex, got %d", i, s.Count)
		}
		if s.AvgY != -float64(i) {
			t.Errorf("slice %d: avg Y = %v, want %v", i, s.AvgY, -float64(i))
		}
	}

	// Bands are half-open, so the single top-most vertex is not counted.
	if total != 10 {
		t.Errorf("expected 10 vertices across slices, got %d", total)
	}

	if got := rep.Slices[0]; got.PercentFromTop != 100 || got.Label != "LOWER" {
		t.Errorf("bottom slice = %+v", got)
	}
	if got := rep.Slices[9]; got.PercentFromTop != 10 || got.Label != "TOP OF HEAD" {
		t.Errorf("top slice = %+v", got)
	}
}

func TestAnalyze_Head(t *testing.T) {
	rep, err := Analyze(column(), testOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if rep.Head == nil {
		t.Fatal("expected head detail")
	}

	want := &Head{
		Z:     Range{9, 10},
		Y:     Range{-10, -9},
		Count: 2,
		Slices: []HeadSlice{
			{Bottom: 9, Top: 9.5, PercentUp: 25, Count: 1, Front: 0, Back: 1},
			{Bottom: 9.5, Top: 10, PercentUp: 75},
		},
		Mouth: Range{9, 9.5},
	}
	if diff := cmp.Diff(want, rep.Head); diff != "" {
		t.Errorf("head mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name    string
		points  []math.Vec3
		opts    Options
		wantErr error
	}{
		{"no vertices", nil, DefaultOptions(), ErrNoVertices},
		{"zero slices", column(), Options{Slices: 0, HeadFraction: 0.2, HeadSlices: 10, MouthFraction: 0.3}, ErrInvalidOptions},
		{"head fraction too large", column(), Options{Slices: 20, HeadFraction: 1.5, HeadSlices: 10, MouthFraction: 0.3}, ErrInvalidOptions},
		{"zero mouth fraction", column(), Options{Slices: 20, HeadFraction: 0.2, HeadSlices: 10}, ErrInvalidOptions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Analyze(tt.points, tt.opts); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAnalyze_FlatMesh(t *testing.T) {
	pts := []math.Vec3{{X: 0, Y: 0, Z: 5}, {X: 1, Y: 1, Z: 5}}
	rep, err := Analyze(pts, DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for i, s := range rep.Slices {
		if s.Count != 0 {
			t.Errorf("slice %d: expected no vertices in zero-height band, got %d", i, s.Count)
		}
	}
	if rep.Head != nil {
		t.Errorf("expected no head for a flat mesh, got %+v", rep.Head)
	}
}

func TestAnalyze_BandEdgeDoublePrecision(t *testing.T) {
	// With Z spanning [0, 170.3] in 20 bands, band 11 starts at
	// 93.66500167846681 in double precision. The float32 vertex below sits
	// under that edge but would reach it if the edge were rounded to float32.
	edge := float32(93.665)
	pts := []math.Vec3{{Z: 0}, {Z: 170.3}, {Z: edge}}

	rep, err := Analyze(pts, Options{Slices: 20, HeadFraction: 0.2, HeadSlices: 10, MouthFraction: 0.3})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if got := rep.Slices[11].Bottom; float64(edge) >= got {
		t.Fatalf("vertex %v is not below band 11 bottom %v", float64(edge), got)
	}
	if rep.Slices[10].Count != 1 {
		t.Errorf("slice 10: expected the edge vertex, got %d", rep.Slices[10].Count)
	}
	if rep.Slices[11].Count != 0 {
		t.Errorf("slice 11: expected no vertices, got %d", rep.Slices[11].Count)
	}
}

func TestAnalyze_MatchesDoubleReference(t *testing.T) {
	pts := make([]math.Vec3, 0, 2000)
	for k := 0; k < 2000; k++ {
		z := float32(float64((k*7919)%17031) * 0.01)
		pts = append(pts, math.Vec3{Y: float32(k % 13), Z: z})
	}
	opts := Options{Slices: 20, HeadFraction: 0.2, HeadSlices: 10, MouthFraction: 0.3}

	rep, err := Analyze(pts, opts)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	minZ, maxZ := float64(pts[0].Z), float64(pts[0].Z)
	for _, p := range pts {
		z := float64(p.Z)
		if z < minZ {
			minZ = z
		}
		if z > maxZ {
			maxZ = z
		}
	}
	h := (maxZ - minZ) / float64(opts.Slices)
	for i := 0; i < opts.Slices; i++ {
		bottom := minZ + float64(float64(i)*h)
		top := bottom + h
		want := 0
		for _, p := range pts {
			if z := float64(p.Z); z >= bottom && z < top {
				want++
			}
		}
		if got := rep.Slices[i].Count; got != want {
			t.Errorf("slice %d: count = %d, want %d", i, got, want)
		}
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{5, "TOP OF HEAD"},
		{10, "TOP OF HEAD"},
		{15, "UPPER HEAD"},
		{20, "HEAD"},
		{25, "NECK?"},
		{35, "TORSO"},
		{40, "TORSO"},
		{55, "BODY"},
		{65, "LOWER"},
		{100, "LOWER"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Label(tt.pct); got != tt.want {
				t.Errorf("Label(%v) = %q, want %q", tt.pct, got, tt.want)
			}
		})
	}
}

func TestReport_WriteText(t *testing.T) {
	rep, err := Analyze(column(), testOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	var buf bytes.Buffer
	if err := rep.WriteText(&buf); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"MODEL ANALYSIS",
		"Total vertices: 11",
		"Z (up/down):    0.0 to 10.0 (height: 10.0)",
		"| TOP OF HEAD",
		"HEAD Z SLICES (from chin to top):",
		"front=0, back=1",
		"Try targeting Z range: 9.000 to 9.500",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}

	// The empty upper head slice is skipped.
	if strings.Contains(out, "75% up head") {
		t.Errorf("expected empty head slice to be skipped\n%s", out)
	}
}

func TestReport_WriteYAML(t *testing.T) {
	rep, err := Analyze(column(), testOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	var buf bytes.Buffer
	if err := rep.WriteYAML(&buf); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	var decoded Report
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decoding YAML report: %v", err)
	}
	if decoded.Vertices != 11 || len(decoded.Slices) != 10 {
		t.Errorf("unexpected decoded report: vertices=%d slices=%d", decoded.Vertices, len(decoded.Slices))
	}
	if decoded.Head == nil || decoded.Head.Mouth != rep.Head.Mouth {
		t.Errorf("expected head mouth range %v to survive", rep.Head.Mouth)
	}
}
