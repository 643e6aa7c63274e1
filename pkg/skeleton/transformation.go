package skeleton

import "github.com/Faultbox/boneanim/pkg/math"

// Transformation is a bone's local transform relative to its parent.
// Rotation holds (yaw, pitch, roll) in degrees.
type Transformation struct {
	Offset   math.Vec3
	Rotation math.Vec3
	Scale    math.Vec3
}

// IdentityTransformation returns a transform that changes nothing.
func IdentityTransformation() Transformation {
	return Transformation{Scale: math.One3()}
}

// Quat returns the rotation as a quaternion.
func (t Transformation) Quat() math.Quat {
	return math.QuatFromEulerDegrees(t.Rotation)
}

// Matrix returns the affine matrix that scales, then rotates, then translates.
func (t Transformation) Matrix() math.Mat4 {
	return math.Compose(t.Offset, t.Quat(), t.Scale)
}

// LerpTransformation interpolates offset, rotation and scale independently.
// Rotation is treated as a plain vector; no wraparound is applied.
func LerpTransformation(a, b Transformation, f float32) Transformation {
	return Transformation{
		Offset:   a.Offset.Lerp(b.Offset, f),
		Rotation: a.Rotation.Lerp(b.Rotation, f),
		Scale:    a.Scale.Lerp(b.Scale, f),
	}
}
