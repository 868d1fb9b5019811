// Package xform implements the rigid-plus-uniform-scale transform NIF files
// store on nodes, shapes and skin bones.
package xform

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/floats/scalar"
)

// identityTolerance bounds the float32 drift IsIdentity accepts in each
// component. It suits transforms as stored; composed transforms with large
// translations accumulate more error than this.
const identityTolerance = 1e-5

// Transform maps a point p to Scale * Rotation * p + Translation.
// Rotation is expected to be orthonormal.
type Transform struct {
	Translation mgl32.Vec3 `yaml:"translation"`
	Rotation    mgl32.Mat3 `yaml:"rotation"`
	Scale       float32    `yaml:"scale"`
}

// Identity returns the transform that changes nothing.
func Identity() Transform {
	return Transform{Rotation: mgl32.Ident3(), Scale: 1}
}

// Z180 is a half turn around Z. Editors and the game disagree on which way a
// model faces; importing with this applied turns the model around.
var Z180 = Transform{Rotation: mgl32.Rotate3DZ(math.Pi), Scale: 1}

// FromEuler builds a rotation from XYZ euler angles in radians: X is
// applied first, then Y, then Z.
func FromEuler(x, y, z float32) mgl32.Mat3 {
	return mgl32.Rotate3DZ(z).Mul3(mgl32.Rotate3DY(y)).Mul3(mgl32.Rotate3DX(x))
}

// New builds a transform from an object's location, euler rotation and
// uniform scale.
func New(location, euler mgl32.Vec3, scale float32) Transform {
	return Transform{
		Translation: location,
		Rotation:    FromEuler(euler[0], euler[1], euler[2]),
		Scale:       scale,
	}
}

// IsIdentity reports whether t is the identity within a small epsilon.
func (t Transform) IsIdentity() bool {
	id := mgl32.Ident3()
	return near(t.Translation[:], []float32{0, 0, 0}) &&
		near(t.Rotation[:], id[:]) &&
		near([]float32{t.Scale}, []float32{1})
}

func near(a, b []float32) bool {
	for i := range a {
		if !scalar.EqualWithinAbs(float64(a[i]), float64(b[i]), identityTolerance) {
			return false
		}
	}
	return true
}

// Apply transforms point p.
func (t Transform) Apply(p mgl32.Vec3) mgl32.Vec3 {
	return t.Rotation.Mul3x1(p).Mul(t.Scale).Add(t.Translation)
}

// Mul returns the transform that applies other first and then t.
func (t Transform) Mul(other Transform) Transform {
	return Transform{
		Translation: t.Rotation.Mul3x1(other.Translation).Mul(t.Scale).Add(t.Translation),
		Rotation:    t.Rotation.Mul3(other.Rotation),
		Scale:       t.Scale * other.Scale,
	}
}

// Invert returns the inverse of t. A zero scale yields a zero scale.
func (t Transform) Invert() Transform {
	rt := t.Rotation.Transpose()
	var s float32
	if t.Scale != 0 {
		s = 1 / t.Scale
	}
	return Transform{
		Translation: rt.Mul3x1(t.Translation).Mul(-s),
		Rotation:    rt,
		Scale:       s,
	}
}

// Mat4 returns t as a column-major 4x4 matrix.
func (t Transform) Mat4() mgl32.Mat4 {
	m := t.Rotation.Mul(t.Scale).Mat4()
	m.SetCol(3, t.Translation.Vec4(1))
	return m
}

// FromMat4 extracts a transform from an affine matrix. Scale is taken as the
// mean length of the basis columns, so any shear or non-uniform scale is
// lost.
func FromMat4(m mgl32.Mat4) Transform {
	basis := m.Mat3()
	s := (basis.Col(0).Len() + basis.Col(1).Len() + basis.Col(2).Len()) / 3
	rot := basis
	if s != 0 {
		rot = basis.Mul(1 / s)
	}
	return Transform{
		Translation: m.Col(3).Vec3(),
		Rotation:    rot,
		Scale:       s,
	}
}

// Euler returns XYZ euler angles in radians for t's rotation. It is the
// inverse of FromEuler away from gimbal lock.
func (t Transform) Euler() mgl32.Vec3 {
	r := t.Rotation
	sy := -r.At(2, 0)
	if sy > 1 {
		sy = 1
	} else if sy < -1 {
		sy = -1
	}
	y := float32(math.Asin(float64(sy)))

	if math.Abs(float64(sy)) > 0.99999 {
		// Gimbal lock: X and Z rotate about the same axis.
		z := float32(math.Atan2(float64(-r.At(0, 1)), float64(r.At(1, 1))))
		return mgl32.Vec3{0, y, z}
	}

	x := float32(math.Atan2(float64(r.At(2, 1)), float64(r.At(2, 2))))
	z := float32(math.Atan2(float64(r.At(1, 0)), float64(r.At(0, 0))))
	return mgl32.Vec3{x, y, z}
}

// EulerDeg returns Euler in degrees.
func (t Transform) EulerDeg() mgl32.Vec3 {
	e := t.Euler()
	return mgl32.Vec3{mgl32.RadToDeg(e[0]), mgl32.RadToDeg(e[1]), mgl32.RadToDeg(e[2])}
}

// Uniform reports whether the components of scale agree when rounded to 4
// decimal places, and returns the first component.
func Uniform(scale mgl32.Vec3) (float32, bool) {
	x := round4(scale[0])
	return scale[0], x == round4(scale[1]) && x == round4(scale[2])
}

func round4(f float32) float64 {
	return math.Round(float64(f)*10000) / 10000
}
