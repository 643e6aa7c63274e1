package skeleton

import (
	"testing"

	"github.com/Faultbox/boneanim/pkg/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepInterpolationSetters(t *testing.T) {
	st := newStep(New(), "s", 1)

	assert.ErrorIs(t, st.SetRotationInterpolation(SmoothStep), ErrInvalidInterpolation)
	assert.ErrorIs(t, st.SetPositionInterpolation(SphericalLinear), ErrInvalidInterpolation)
	assert.ErrorIs(t, st.SetScaleInterpolation(SphericalLinear), ErrInvalidInterpolation)
	assert.ErrorIs(t, st.SetScaleInterpolation(Interpolation(42)), ErrInvalidInterpolation)

	require.NoError(t, st.SetRotationInterpolation(SphericalLinear))
	require.NoError(t, st.SetPositionInterpolation(SmoothStep))
	require.NoError(t, st.SetScaleInterpolation(SmoothDamp))
	assert.Equal(t, SphericalLinear, st.RotationInterpolation())
	assert.Equal(t, SmoothStep, st.PositionInterpolation())
	assert.Equal(t, SmoothDamp, st.ScaleInterpolation())
}

func TestStepDuration(t *testing.T) {
	st := newStep(New(), "s", 1)
	assert.ErrorIs(t, st.SetDuration(0), ErrInvalidDuration)
	assert.ErrorIs(t, st.SetDuration(-2), ErrInvalidDuration)
	require.NoError(t, st.SetDuration(0.5))
	assert.Equal(t, float32(0.5), st.Duration())
}

func TestStepFlattening(t *testing.T) {
	sk := newWaveSkeleton(t)
	a, err := sk.Animation("wave")
	require.NoError(t, err)
	st := a.Step(1, false)

	assert.Equal(t, 2, st.BoneCount())

	root, err := st.Bone(0)
	require.NoError(t, err)
	assert.Equal(t, -1, root.Parent)
	requireMatEqual(t, math.Identity(), root.World)

	arm, err := st.BoneByPath("root/arm", false)
	require.NoError(t, err)
	assert.Equal(t, 0, arm.Parent)
	assert.Equal(t, vec(0, 1, 0), arm.Translation)
	requireMatEqual(t, armWorld(90), arm.World)

	// Edits rebuild the table.
	root0 := IdentityTransformation()
	root0.Offset = vec(2, 0, 0)
	st.SetTransform("root", root0)
	arm, err = st.BoneByPath("root/arm", false)
	require.NoError(t, err)
	requireMatEqual(t, math.Translate(2, 0, 0).Mul(armWorld(90)), arm.World)

	_, err = st.Bone(5)
	assert.ErrorIs(t, err, ErrMissingBone)
	_, err = st.BoneByPath("root/leg", true)
	assert.ErrorIs(t, err, ErrMissingBone)
}

func TestStepDefaultsMemoized(t *testing.T) {
	sk := newWaveSkeleton(t)
	a, err := sk.Animation("wave")
	require.NoError(t, err)
	require.NoError(t, sk.AddBone("root/leg", vec(1, 0, 0), math.Zero3(), math.One3()))
	st := a.Step(0, false)

	_, ok := st.Transform("root/leg")
	assert.False(t, ok)
	_, err = st.BoneByPath("root/leg", false)
	assert.ErrorIs(t, err, ErrMissingBone)

	leg, err := st.BoneByPath("root/leg", true)
	require.NoError(t, err)
	assert.Equal(t, vec(1, 0, 0), leg.Translation)

	got, ok := st.Transform("root/leg")
	require.True(t, ok)
	assert.Equal(t, vec(1, 0, 0), got.Offset)
}

func TestStepClone(t *testing.T) {
	sk := newWaveSkeleton(t)
	a, err := sk.Animation("wave")
	require.NoError(t, err)
	st := a.Step(1, false)
	require.NoError(t, st.SetRotationInterpolation(SphericalLinear))

	c := st.Clone()
	assert.Equal(t, st.Name, c.Name)
	assert.Equal(t, st.Duration(), c.Duration())
	assert.Equal(t, SphericalLinear, c.RotationInterpolation())
	assert.Equal(t, st.Paths(), c.Paths())

	c.SetTransform("root/arm", IdentityTransformation())
	orig, _ := st.Transform("root/arm")
	assert.Equal(t, vec(0, 0, 90), orig.Rotation)
}

func TestSamplePoseRejectsInvalidModes(t *testing.T) {
	sk := newWaveSkeleton(t)
	a, err := sk.Animation("wave")
	require.NoError(t, err)
	cur := a.Step(0, false)
	cur.rotationInterp = SmoothStep

	_, err = samplePose(cur, a.Step(1, false), 1, 0.5)
	assert.ErrorIs(t, err, ErrInvalidInterpolation)
}
