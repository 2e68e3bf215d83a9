package math

import "fmt"

// Frame is the coordinate convention mesh positions are analysed in.
type Frame int

const (
	// FrameNative uses glTF coordinates as stored: Y up, +Z toward the viewer.
	FrameNative Frame = iota
	// FrameZUp is the Z-up view DCC tools present for glTF assets:
	// X right, -Y front, Z up.
	FrameZUp
)

// ParseFrame parses "native" or "zup".
func ParseFrame(s string) (Frame, error) {
	switch s {
	case "native", "yup":
		return FrameNative, nil
	case "zup", "", "blender":
		return FrameZUp, nil
	default:
		return FrameNative, fmt.Errorf("unknown frame %q (want native or zup)", s)
	}
}

// String returns the config name of the frame.
func (f Frame) String() string {
	switch f {
	case FrameNative:
		return "native"
	case FrameZUp:
		return "zup"
	default:
		return fmt.Sprintf("Unknown(%d)", int(f))
	}
}

// ToFrame maps a glTF-space vector into the frame.
func (f Frame) ToFrame(v Vec3) Vec3 {
	if f == FrameZUp {
		return Vec3{v.X, -v.Z, v.Y}
	}
	return v
}

// FromFrame maps a frame-space vector back to glTF space. The mapping is
// linear, so it applies to positions and displacements alike.
func (f Frame) FromFrame(v Vec3) Vec3 {
	if f == FrameZUp {
		return Vec3{v.X, v.Z, -v.Y}
	}
	return v
}
