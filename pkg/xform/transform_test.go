package xform

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const eps = 1e-4

func approx(a, b []float32) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > eps {
			return false
		}
	}
	return true
}

func vecNear(a, b mgl32.Vec3) bool {
	return approx(a[:], b[:])
}

func TestIdentity(t *testing.T) {
	id := Identity()
	p := mgl32.Vec3{1, 2, 3}
	if got := id.Apply(p); got != p {
		t.Errorf("Identity.Apply: got %v, want %v", got, p)
	}
	if !id.IsIdentity() {
		t.Error("Identity should report IsIdentity")
	}
	if id.Mat4() != mgl32.Ident4() {
		t.Errorf("Identity.Mat4: got %v", id.Mat4())
	}
}

func TestApply(t *testing.T) {
	tr := Transform{
		Translation: mgl32.Vec3{10, 20, 30},
		Rotation:    mgl32.Rotate3DZ(math.Pi / 2),
		Scale:       2,
	}
	// X axis rotates onto Y, then doubles, then translates.
	got := tr.Apply(mgl32.Vec3{1, 0, 0})
	want := mgl32.Vec3{10, 22, 30}
	if !vecNear(got, want) {
		t.Errorf("Apply: got %v, want %v", got, want)
	}
}

func TestInvert(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform
	}{
		{"identity", Identity()},
		{"translate", Transform{Translation: mgl32.Vec3{1, -2, 3}, Rotation: mgl32.Ident3(), Scale: 1}},
		{"full", New(mgl32.Vec3{0, 120, 5}, mgl32.Vec3{0.3, -0.7, 1.1}, 1.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mgl32.Vec3{4, 5, 6}
			back := tt.tr.Invert().Apply(tt.tr.Apply(p))
			if !vecNear(back, p) {
				t.Errorf("inverse round trip: got %v, want %v", back, p)
			}
			both := tt.tr.Mul(tt.tr.Invert())
			for _, q := range []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {-3, 50, 7}} {
				if got := both.Apply(q); !vecNear(got, q) {
					t.Errorf("t * t^-1 moves %v to %v", q, got)
				}
			}
		})
	}
}

func TestIsIdentity(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform
		want bool
	}{
		{"identity", Identity(), true},
		{"float drift", Transform{Translation: mgl32.Vec3{0, 1e-6, 0}, Rotation: mgl32.Ident3(), Scale: 1.000001}, true},
		{"z180 twice", Z180.Mul(Z180), true},
		{"translated", Transform{Translation: mgl32.Vec3{0, 0, 0.001}, Rotation: mgl32.Ident3(), Scale: 1}, false},
		{"scaled", Transform{Rotation: mgl32.Ident3(), Scale: 1.01}, false},
		{"turned", Transform{Rotation: mgl32.Rotate3DZ(0.01), Scale: 1}, false},
		{"zero value", Transform{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.IsIdentity(); got != tt.want {
				t.Errorf("IsIdentity(%+v) = %v, want %v", tt.tr, got, tt.want)
			}
		})
	}
}

func TestMulOrder(t *testing.T) {
	move := Transform{Translation: mgl32.Vec3{1, 0, 0}, Rotation: mgl32.Ident3(), Scale: 1}
	turn := Transform{Rotation: mgl32.Rotate3DZ(math.Pi / 2), Scale: 1}

	// turn.Mul(move) moves first, then turns.
	got := turn.Mul(move).Apply(mgl32.Vec3{})
	if !vecNear(got, mgl32.Vec3{0, 1, 0}) {
		t.Errorf("turn*move: got %v, want (0,1,0)", got)
	}
	got = move.Mul(turn).Apply(mgl32.Vec3{})
	if !vecNear(got, mgl32.Vec3{1, 0, 0}) {
		t.Errorf("move*turn: got %v, want (1,0,0)", got)
	}
}

func TestMat4RoundTrip(t *testing.T) {
	tr := New(mgl32.Vec3{3, 4, 5}, mgl32.Vec3{0.1, 0.2, 0.3}, 0.5)
	m := tr.Mat4()

	p := mgl32.Vec3{1, 1, 1}
	if got := mgl32.TransformCoordinate(p, m); !vecNear(got, tr.Apply(p)) {
		t.Errorf("Mat4 disagrees with Apply: %v vs %v", got, tr.Apply(p))
	}

	back := FromMat4(m)
	if !vecNear(back.Translation, tr.Translation) {
		t.Errorf("translation: got %v, want %v", back.Translation, tr.Translation)
	}
	if !approx([]float32{back.Scale}, []float32{tr.Scale}) {
		t.Errorf("scale: got %v, want %v", back.Scale, tr.Scale)
	}
	if !approx(back.Rotation[:], tr.Rotation[:]) {
		t.Errorf("rotation: got %v, want %v", back.Rotation, tr.Rotation)
	}
}

func TestEuler(t *testing.T) {
	tests := []struct {
		name  string
		euler mgl32.Vec3
	}{
		{"zero", mgl32.Vec3{}},
		{"x only", mgl32.Vec3{0.5, 0, 0}},
		{"mixed", mgl32.Vec3{0.3, -0.7, 1.1}},
		{"half turn z", mgl32.Vec3{0, 0, math.Pi / 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(mgl32.Vec3{}, tt.euler, 1)
			if got := tr.Euler(); !vecNear(got, tt.euler) {
				t.Errorf("Euler: got %v, want %v", got, tt.euler)
			}
		})
	}
}

func TestEulerDeg(t *testing.T) {
	tr := Transform{Rotation: FromEuler(0, 0, math.Pi/2), Scale: 1}
	if got := tr.EulerDeg(); !vecNear(got, mgl32.Vec3{0, 0, 90}) {
		t.Errorf("EulerDeg: got %v", got)
	}
}

func TestZ180(t *testing.T) {
	got := Z180.Apply(mgl32.Vec3{1, 2, 3})
	if !vecNear(got, mgl32.Vec3{-1, -2, 3}) {
		t.Errorf("Z180: got %v", got)
	}
}

func TestUniform(t *testing.T) {
	tests := []struct {
		scale mgl32.Vec3
		want  bool
	}{
		{mgl32.Vec3{1, 1, 1}, true},
		{mgl32.Vec3{1.00001, 1, 0.99999}, true},
		{mgl32.Vec3{1, 2, 1}, false},
		{mgl32.Vec3{1, 1, 1.001}, false},
	}

	for _, tt := range tests {
		s, ok := Uniform(tt.scale)
		if ok != tt.want {
			t.Errorf("Uniform(%v): got %v, want %v", tt.scale, ok, tt.want)
		}
		if s != tt.scale[0] {
			t.Errorf("Uniform(%v) scale: got %v", tt.scale, s)
		}
	}
}
