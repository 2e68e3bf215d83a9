package math

// Box3 is an axis-aligned bounding box. The zero value is empty.
type Box3 struct {
	Min, Max Vec3
	valid    bool
}

// BoundsOf returns the bounding box of points.
func BoundsOf(points []Vec3) Box3 {
	var b Box3
	for _, p := range points {
		b.Extend(p)
	}
	return b
}

// Extend grows the box to contain p.
func (b *Box3) Extend(p Vec3) {
	if !b.valid {
		b.Min, b.Max, b.valid = p, p, true
		return
	}
	b.Min = b.Min.Min(p)
	b.Max = b.Max.Max(p)
}

// Empty reports whether no point has been added.
func (b Box3) Empty() bool {
	return !b.valid
}

// Size returns the extent along each axis (width, depth, height in the Z-up frame).
func (b Box3) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b Box3) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}
