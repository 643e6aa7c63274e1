package skeleton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnimationStepLookup(t *testing.T) {
	sk := newWaveSkeleton(t)
	a, err := sk.Animation("wave")
	require.NoError(t, err)

	assert.Equal(t, "down", a.Step(0, false).Name)
	assert.Equal(t, "up", a.Step(1, false).Name)
	assert.Equal(t, "down", a.Step(2, true).Name)
	assert.Equal(t, "up", a.Step(2, false).Name)
	assert.Equal(t, "up", a.Step(7, true).Name)
	assert.Equal(t, float32(2), a.Duration())

	empty, err := sk.CreateAnimation("empty")
	require.NoError(t, err)
	assert.Nil(t, empty.Step(0, true))
}

func TestAnimationAddStepSeeds(t *testing.T) {
	sk := newWaveSkeleton(t)
	a, err := sk.Animation("wave")
	require.NoError(t, err)

	seeded, err := a.AddStep("rest", 0.5, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "root/arm"}, seeded.Paths())
	arm, _ := seeded.Transform("root/arm")
	assert.Equal(t, vec(0, 1, 0), arm.Offset)
	assert.Equal(t, vec(0, 0, 0), arm.Rotation)

	copied, err := a.AddStep("up again", 0.25, a.Step(1, false))
	require.NoError(t, err)
	arm, _ = copied.Transform("root/arm")
	assert.Equal(t, vec(0, 0, 90), arm.Rotation)
	assert.Equal(t, float32(0.25), copied.Duration())
	assert.Equal(t, 4, a.Len())

	_, err = a.AddStep("bad", 0, nil)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestAnimationInsertRemoveSet(t *testing.T) {
	sk := newWaveSkeleton(t)
	a, err := sk.Animation("wave")
	require.NoError(t, err)

	_, err = a.InsertStep(1, "mid", 0.5, nil)
	require.NoError(t, err)
	assert.Equal(t, "mid", a.Step(1, false).Name)
	_, err = a.InsertStep(9, "x", 1, nil)
	assert.ErrorIs(t, err, ErrStepOutOfRange)

	require.NoError(t, a.RemoveStep(1))
	assert.Equal(t, 2, a.Len())
	assert.ErrorIs(t, a.RemoveStep(2), ErrStepOutOfRange)

	repl := a.Step(0, false).Clone()
	repl.Name = "replaced"
	require.NoError(t, a.SetStep(1, repl))
	assert.Equal(t, "replaced", a.Step(1, false).Name)
	assert.ErrorIs(t, a.SetStep(-1, repl), ErrStepOutOfRange)
}

func TestAnimationSplit(t *testing.T) {
	sk := newWaveSkeleton(t)
	a, err := sk.Animation("wave")
	require.NoError(t, err)

	s, err := sk.BeginAnimation("wave")
	require.NoError(t, err)
	s.Seek(0.25)
	before := boneAt(t, s, "root/arm")

	ok, err := a.Split(0.25)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, a.Len())
	assert.InDelta(t, 0.25, a.Step(0, false).Duration(), eps)
	assert.InDelta(t, 0.75, a.Step(1, false).Duration(), eps)
	assert.InDelta(t, 1, a.Step(0, false).Duration()+a.Step(1, false).Duration(), eps)
	assert.InDelta(t, 2, a.Duration(), eps)

	s.Seek(0.25)
	assert.Equal(t, 1, s.StepIndex())
	requireMatEqual(t, before, boneAt(t, s, "root/arm"))

	// The step end points are untouched.
	s.Seek(1)
	requireMatEqual(t, armWorld(90), boneAt(t, s, "root/arm"))
}

func TestAnimationSplitNoop(t *testing.T) {
	sk := newWaveSkeleton(t)
	a, err := sk.Animation("wave")
	require.NoError(t, err)

	for _, at := range []float32{0, 1, 2, 5, -1} {
		ok, err := a.Split(at)
		require.NoError(t, err)
		assert.False(t, ok, "split at %v", at)
	}
	assert.Equal(t, 2, a.Len())
}

func TestAnimationClone(t *testing.T) {
	sk := newWaveSkeleton(t)
	a, err := sk.Animation("wave")
	require.NoError(t, err)

	c := a.Clone("wave2")
	assert.Equal(t, "wave2", c.Name())
	assert.Equal(t, a.Repeats(), c.Repeats())
	require.Equal(t, a.Len(), c.Len())

	c.Step(1, false).SetTransform("root/arm", IdentityTransformation())
	arm, _ := a.Step(1, false).Transform("root/arm")
	assert.Equal(t, vec(0, 0, 90), arm.Rotation)
}
