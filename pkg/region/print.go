package region

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	heavyRule = strings.Repeat("=", 60)
	lightRule = strings.Repeat("-", 60)
)

// WriteText prints the report in the same layout as the interactive analysis
// dump. Empty bands are skipped.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintln(&b, heavyRule)
	fmt.Fprintln(&b, "MODEL ANALYSIS")
	fmt.Fprintln(&b, heavyRule)
	fmt.Fprintf(&b, "Total vertices: %d\n", r.Vertices)
	fmt.Fprintf(&b, "X (left/right): %.1f to %.1f (width: %.1f)\n", r.X.Min, r.X.Max, r.X.Len())
	fmt.Fprintf(&b, "Y (front/back): %.1f to %.1f (depth: %.1f)\n", r.Y.Min, r.Y.Max, r.Y.Len())
	fmt.Fprintf(&b, "Z (up/down):    %.1f to %.1f (height: %.1f)\n", r.Z.Min, r.Z.Max, r.Z.Len())
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "VERTICAL SECTIONS (Z slices from bottom to top):")
	fmt.Fprintln(&b, lightRule)
	for _, s := range r.Slices {
		if s.Count == 0 {
			continue
		}
		fmt.Fprintf(&b, "Z %6.1f-%6.1f (%4.0f%% from top): %5d verts, avg Y=%6.1f | %s\n",
			s.Bottom, s.Top, s.PercentFromTop, s.Count, s.AvgY, s.Label)
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, heavyRule)
	fmt.Fprintln(&b, "HEAD REGION DETAIL")
	fmt.Fprintln(&b, heavyRule)

	if h := r.Head; h != nil {
		fmt.Fprintf(&b, "Head Z range: %.1f to %.1f\n", h.Z.Min, h.Z.Max)
		fmt.Fprintf(&b, "Head Y range: %.1f to %.1f\n", h.Y.Min, h.Y.Max)
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "HEAD Z SLICES (from chin to top):")
		for _, s := range h.Slices {
			if s.Count == 0 {
				continue
			}
			fmt.Fprintf(&b, "  %3.0f%% up head (Z %.1f-%.1f): %4d verts, front=%d, back=%d\n",
				s.PercentUp, s.Bottom, s.Top, s.Count, s.Front, s.Back)
		}
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Eyebrows are probably around 70-90% up the head")
		fmt.Fprintln(&b, "Mouth/jaw is probably around 10-30% up the head")
		fmt.Fprintf(&b, "Try targeting Z range: %.3f to %.3f\n", h.Mouth.Min, h.Mouth.Max)
	} else {
		fmt.Fprintln(&b, "No vertices in head region")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteYAML encodes the report as YAML.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}
