package math

import (
	"testing"
)

func TestVec3Add(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}
	got := a.Add(b)
	want := Vec3{5, 7, 9}
	if got != want {
		t.Errorf("Vec3.Add() = %v, want %v", got, want)
	}
}

func TestVec3MinMax(t *testing.T) {
	a := Vec3{1, -2, 3}
	b := Vec3{0, 5, 3}
	if got, want := a.Min(b), (Vec3{0, -2, 3}); got != want {
		t.Errorf("Vec3.Min() = %v, want %v", got, want)
	}
	if got, want := a.Max(b), (Vec3{1, 5, 3}); got != want {
		t.Errorf("Vec3.Max() = %v, want %v", got, want)
	}
}

func TestVec3ArrayRoundTrip(t *testing.T) {
	v := Vec3{1.5, -2, 7}
	if got := Vec3From(v.Array()); got != v {
		t.Errorf("Vec3From(Array()) = %v, want %v", got, v)
	}
}

func TestBoundsOf(t *testing.T) {
	b := BoundsOf([]Vec3{{1, 2, 3}, {-1, 5, 0}, {4, 0, 2}})
	if b.Empty() {
		t.Fatal("expected non-empty bounds")
	}
	if want := (Vec3{-1, 0, 0}); b.Min != want {
		t.Errorf("Min = %v, want %v", b.Min, want)
	}
	if want := (Vec3{4, 5, 3}); b.Max != want {
		t.Errorf("Max = %v, want %v", b.Max, want)
	}
	if want := (Vec3{5, 5, 3}); b.Size() != want {
		t.Errorf("Size() = %v, want %v", b.Size(), want)
	}
	if want := (Vec3{1.5, 2.5, 1.5}); b.Center() != want {
		t.Errorf("Center() = %v, want %v", b.Center(), want)
	}
}

func TestBoundsOfEmpty(t *testing.T) {
	if b := BoundsOf(nil); !b.Empty() {
		t.Error("expected empty bounds for no points")
	}
}

func TestFrameRoundTrip(t *testing.T) {
	v := Vec3{1, 2, 3}
	for _, f := range []Frame{FrameNative, FrameZUp} {
		t.Run(f.String(), func(t *testing.T) {
			if got := f.FromFrame(f.ToFrame(v)); got != v {
				t.Errorf("FromFrame(ToFrame(%v)) = %v", v, got)
			}
		})
	}
}

func TestFrameZUp(t *testing.T) {
	// glTF up (+Y) becomes +Z, glTF forward (+Z) becomes -Y.
	if got, want := FrameZUp.ToFrame(Vec3{0, 1, 0}), (Vec3{0, 0, 1}); got != want {
		t.Errorf("up: got %v, want %v", got, want)
	}
	if got, want := FrameZUp.ToFrame(Vec3{0, 0, 1}), (Vec3{0, -1, 0}); got != want {
		t.Errorf("forward: got %v, want %v", got, want)
	}
}

func TestParseFrame(t *testing.T) {
	tests := []struct {
		in      string
		want    Frame
		wantErr bool
	}{
		{"native", FrameNative, false},
		{"zup", FrameZUp, false},
		{"", FrameZUp, false},
		{"sideways", FrameNative, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFrame(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFrame(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseFrame(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
