package math

import "github.com/chewxy/math32"

// Pi as a float32.
const Pi = float32(3.14159265358979323846)

// DegToRad is the number of radians per degree.
const DegToRad = Pi / 180

// RadToDeg is the number of degrees per radian.
const RadToDeg = 180 / Pi

// Quat represents a quaternion for 3D rotations.
// Components are stored as X, Y, Z, W where W is the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{X: 0, Y: 0, Z: 0, W: 1}
}

// QuatFromAxisAngle creates a quaternion from axis-angle rotation.
// axis should be normalized, angle is in radians.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	s, c := math32.Sincos(angle / 2)
	return Quat{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: c,
	}
}

// QuatFromYawPitchRoll builds the rotation Ry(yaw) * Rx(pitch) * Rz(roll).
// Angles are in radians; roll is applied first, yaw last.
func QuatFromYawPitchRoll(yaw, pitch, roll float32) Quat {
	sr, cr := math32.Sincos(roll / 2)
	sp, cp := math32.Sincos(pitch / 2)
	sy, cy := math32.Sincos(yaw / 2)

	return Quat{
		X: cy*sp*cr + sy*cp*sr,
		Y: sy*cp*cr - cy*sp*sr,
		Z: cy*cp*sr - sy*sp*cr,
		W: cy*cp*cr + sy*sp*sr,
	}
}

// QuatFromEulerDegrees converts a rotation vector in degrees, laid out as
// (yaw, pitch, roll), to a quaternion.
func QuatFromEulerDegrees(r Vec3) Quat {
	return QuatFromYawPitchRoll(r.X*DegToRad, r.Y*DegToRad, r.Z*DegToRad)
}

// YawPitchRoll is the inverse of QuatFromYawPitchRoll. Angles are in radians.
// At gimbal lock (pitch = ±90°) roll is folded into yaw.
func (q Quat) YawPitchRoll() (yaw, pitch, roll float32) {
	q = q.Normalize()

	sinp := 2 * (q.W*q.X - q.Y*q.Z)
	if math32.Abs(sinp) >= 0.99999 {
		pitch = math32.Copysign(Pi/2, sinp)
		yaw = math32.Atan2(-2*(q.X*q.Z-q.W*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z))
		return yaw, pitch, 0
	}
	pitch = math32.Asin(sinp)
	yaw = math32.Atan2(2*(q.W*q.Y+q.X*q.Z), 1-2*(q.X*q.X+q.Y*q.Y))
	roll = math32.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.X*q.X+q.Z*q.Z))
	return yaw, pitch, roll
}

// EulerDegrees returns the rotation as (yaw, pitch, roll) in degrees.
func (q Quat) EulerDegrees() Vec3 {
	yaw, pitch, roll := q.YawPitchRoll()
	return Vec3{yaw * RadToDeg, pitch * RadToDeg, roll * RadToDeg}
}

// Normalize returns a normalized quaternion.
func (q Quat) Normalize() Quat {
	length := math32.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if length < 0.0001 {
		return QuatIdentity()
	}
	invLen := 1.0 / length
	return Quat{
		X: q.X * invLen,
		Y: q.Y * invLen,
		Z: q.Z * invLen,
		W: q.W * invLen,
	}
}

// Dot returns the dot product of two quaternions.
func (q Quat) Dot(other Quat) float32 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// Negate flips every component. The result represents the same rotation.
func (q Quat) Negate() Quat {
	return Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: -q.W}
}

// Slerp performs spherical linear interpolation between two quaternions.
// t should be in range [0, 1].
func (q Quat) Slerp(other Quat, t float32) Quat {
	// Compute cos of angle between quaternions
	dot := q.Dot(other)

	// If dot is negative, negate one quaternion to take the shorter path
	if dot < 0 {
		other = other.Negate()
		dot = -dot
	}

	// If quaternions are very close, use linear interpolation to avoid division by zero
	if dot > 0.9995 {
		return Quat{
			X: q.X + t*(other.X-q.X),
			Y: q.Y + t*(other.Y-q.Y),
			Z: q.Z + t*(other.Z-q.Z),
			W: q.W + t*(other.W-q.W),
		}.Normalize()
	}

	theta0 := math32.Acos(dot)
	theta := theta0 * t
	sinTheta := math32.Sin(theta)
	sinTheta0 := math32.Sin(theta0)

	s0 := math32.Cos(theta) - dot*sinTheta/sinTheta0
	s1 := sinTheta / sinTheta0

	return Quat{
		X: q.X*s0 + other.X*s1,
		Y: q.Y*s0 + other.Y*s1,
		Z: q.Z*s0 + other.Z*s1,
		W: q.W*s0 + other.W*s1,
	}
}

// ToMat4 converts the quaternion to a 4x4 rotation matrix.
func (q Quat) ToMat4() Mat4 {
	q = q.Normalize()

	xx := q.X * q.X
	xy := q.X * q.Y
	xz := q.X * q.Z
	xw := q.X * q.W
	yy := q.Y * q.Y
	yz := q.Y * q.Z
	yw := q.Y * q.W
	zz := q.Z * q.Z
	zw := q.Z * q.W

	return Mat4{
		1 - 2*(yy+zz), 2 * (xy + zw), 2 * (xz - yw), 0,
		2 * (xy - zw), 1 - 2*(xx+zz), 2 * (yz + xw), 0,
		2 * (xz + yw), 2 * (yz - xw), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// Lerp performs normalized linear interpolation between two quaternions,
// taking the shorter path. Cheaper than Slerp and exact at the midpoint.
func (q Quat) Lerp(other Quat, t float32) Quat {
	if q.Dot(other) < 0 {
		other = other.Negate()
	}
	return Quat{
		X: q.X + t*(other.X-q.X),
		Y: q.Y + t*(other.Y-q.Y),
		Z: q.Z + t*(other.Z-q.Z),
		W: q.W + t*(other.W-q.W),
	}.Normalize()
}

// Mul multiplies two quaternions (combines rotations).
func (q Quat) Mul(other Quat) Quat {
	return Quat{
		X: q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y,
		Y: q.W*other.Y - q.X*other.Z + q.Y*other.W + q.Z*other.X,
		Z: q.W*other.Z + q.X*other.Y - q.Y*other.X + q.Z*other.W,
		W: q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
	}
}

// ApproxEqual reports whether q and other describe the same rotation within eps.
func (q Quat) ApproxEqual(other Quat, eps float32) bool {
	return 1-math32.Abs(q.Normalize().Dot(other.Normalize())) <= eps
}
