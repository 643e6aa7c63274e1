package skeleton

import "errors"

// Skeleton errors.
var (
	ErrMissingBone          = errors.New("missing bone")
	ErrBoneExists           = errors.New("bone already exists")
	ErrAnimationNotFound    = errors.New("animation not found")
	ErrAnimationExists      = errors.New("animation already exists")
	ErrInvalidInterpolation = errors.New("invalid interpolation")
	ErrInvalidDuration      = errors.New("step duration must be positive")
	ErrInvalidName          = errors.New("invalid name")
	ErrStepOutOfRange       = errors.New("step index out of range")
	ErrMalformedData        = errors.New("malformed skeleton data")
)
