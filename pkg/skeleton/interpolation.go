package skeleton

import (
	"fmt"

	"github.com/Faultbox/boneanim/pkg/math"
	"github.com/tanema/gween/ease"
)

// Interpolation selects how a channel moves from one step to the next.
type Interpolation uint8

// Interpolation modes.
const (
	// Linear lerps vectors and normalized-lerps rotations.
	Linear Interpolation = iota
	// SmoothStep eases vectors with the cubic t²(3-2t). Not valid for rotation.
	SmoothStep
	// SmoothDamp eases with t(2-t), then lerps vectors or slerps rotations.
	SmoothDamp
	// SphericalLinear slerps rotations. Not valid for vectors.
	SphericalLinear
)

var interpolationNames = [...]string{
	Linear:          "Linear",
	SmoothStep:      "SmoothStep",
	SmoothDamp:      "SmoothDamp",
	SphericalLinear: "SphericalLinear",
}

// String returns the name used in the persisted format.
func (i Interpolation) String() string {
	if int(i) < len(interpolationNames) {
		return interpolationNames[i]
	}
	return fmt.Sprintf("Interpolation(%d)", uint8(i))
}

// ParseInterpolation converts a persisted name back to an Interpolation.
func ParseInterpolation(s string) (Interpolation, error) {
	for i, name := range interpolationNames {
		if name == s {
			return Interpolation(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidInterpolation, s)
}

// ValidForVector reports whether the mode can drive position or scale.
func (i Interpolation) ValidForVector() bool {
	return i == Linear || i == SmoothStep || i == SmoothDamp
}

// ValidForRotation reports whether the mode can drive rotation.
func (i Interpolation) ValidForRotation() bool {
	return i == Linear || i == SmoothDamp || i == SphericalLinear
}

func smoothStep(t float32) float32 {
	return t * t * (3 - 2*t)
}

func smoothDamp(t float32) float32 {
	return ease.OutQuad(t, 0, 1, 1)
}

func interpolateVec(a, b math.Vec3, t float32, mode Interpolation) (math.Vec3, error) {
	switch mode {
	case Linear:
		return a.Lerp(b, t), nil
	case SmoothStep:
		return a.Lerp(b, smoothStep(t)), nil
	case SmoothDamp:
		return a.Lerp(b, smoothDamp(t)), nil
	case SphericalLinear:
		return a, fmt.Errorf("%w: %s cannot interpolate vectors", ErrInvalidInterpolation, mode)
	}
	return a, fmt.Errorf("%w: %s", ErrInvalidInterpolation, mode)
}

func interpolateQuat(a, b math.Quat, t float32, mode Interpolation) (math.Quat, error) {
	switch mode {
	case Linear:
		return a.Lerp(b, t), nil
	case SmoothDamp:
		return a.Slerp(b, smoothDamp(t)), nil
	case SphericalLinear:
		return a.Slerp(b, t), nil
	case SmoothStep:
		return a, fmt.Errorf("%w: %s cannot interpolate rotations", ErrInvalidInterpolation, mode)
	}
	return a, fmt.Errorf("%w: %s", ErrInvalidInterpolation, mode)
}
