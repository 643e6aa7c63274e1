package skeleton

import (
	"testing"

	"github.com/Faultbox/boneanim/pkg/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaveScenario(t *testing.T) {
	sk := newWaveSkeleton(t)
	s, err := sk.BeginAnimation("wave")
	require.NoError(t, err)

	requireMatEqual(t, armWorld(0), boneAt(t, s, "root/arm"))

	res := s.Update(0.5)
	assert.Equal(t, UpdateResult{}, res)
	assert.Equal(t, 0, s.StepIndex())
	assert.InDelta(t, 0.5, s.StepProgress(), eps)
	requireMatEqual(t, armWorld(45), boneAt(t, s, "root/arm"))

	res = s.Update(0.5)
	assert.Equal(t, UpdateResult{StepsFinished: 1}, res)
	assert.Equal(t, 1, s.StepIndex())
	assert.InDelta(t, 0, s.StepProgress(), eps)
	requireMatEqual(t, armWorld(90), boneAt(t, s, "root/arm"))

	// Heading back toward step 0 after the wrap.
	s.Update(0.5)
	assert.Equal(t, 1, s.StepIndex())
	requireMatEqual(t, armWorld(45), boneAt(t, s, "root/arm"))

	res = s.Update(0.5)
	assert.Equal(t, UpdateResult{DidFinish: true, StepsFinished: 1}, res)
	assert.Equal(t, 0, s.StepIndex())
	assert.Equal(t, StatePlaying, s.State())
}

func TestRootFollowsParent(t *testing.T) {
	sk := newWaveSkeleton(t)
	a, err := sk.Animation("wave")
	require.NoError(t, err)
	for _, st := range a.Steps() {
		root := IdentityTransformation()
		root.Offset = vec(5, 0, 0)
		st.SetTransform("root", root)
	}

	s, err := sk.BeginAnimation("wave")
	require.NoError(t, err)
	s.Update(0.5)
	requireMatEqual(t, math.Translate(5, 0, 0).Mul(armWorld(45)), boneAt(t, s, "root/arm"))
}

func TestUpdateHugeDeltaRepeating(t *testing.T) {
	sk := newWaveSkeleton(t)
	s, err := sk.BeginAnimation("wave")
	require.NoError(t, err)

	res := s.Update(10.25)
	assert.True(t, res.DidFinish)
	assert.Equal(t, 10, res.StepsFinished)
	assert.Equal(t, 0, s.StepIndex())
	assert.InDelta(t, 0.25, s.Elapsed(), eps)
}

func TestUpdateFreezesWithoutRepeat(t *testing.T) {
	sk := newWaveSkeleton(t)
	s, err := sk.BeginAnimation("wave")
	require.NoError(t, err)
	s.SetRepeats(false)

	res := s.Update(5)
	assert.Equal(t, UpdateResult{DidFinish: true, StepsFinished: 2}, res)
	assert.Equal(t, StateFrozen, s.State())
	assert.True(t, s.Finished())
	assert.Equal(t, 2, s.StepIndex())
	assert.Zero(t, s.Elapsed())

	// Holds the last keyframe.
	requireMatEqual(t, armWorld(90), boneAt(t, s, "root/arm"))

	assert.Equal(t, UpdateResult{}, s.Update(1))

	s.Reset(0)
	assert.Equal(t, StatePlaying, s.State())
	requireMatEqual(t, armWorld(0), boneAt(t, s, "root/arm"))
}

func TestUpdateElapsedInvariant(t *testing.T) {
	sk := newWaveSkeleton(t)
	a, err := sk.Animation("wave")
	require.NoError(t, err)
	s, err := sk.BeginAnimation("wave")
	require.NoError(t, err)

	for _, dt := range []float32{0.3, 0.7, 1.9, 0.01, 4.4, 0, -1} {
		s.Update(dt)
		cur := a.Step(s.StepIndex(), false)
		assert.GreaterOrEqual(t, s.Elapsed(), float32(0))
		assert.Less(t, s.Elapsed(), cur.Duration())
	}
}

func TestEmptyAnimation(t *testing.T) {
	sk := newWaveSkeleton(t)
	_, err := sk.CreateAnimation("idle")
	require.NoError(t, err)

	s, err := sk.BeginAnimation("idle")
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, s.State())
	assert.Equal(t, UpdateResult{DidFinish: true}, s.Update(1))

	requireMatEqual(t, math.Translate(0, 1, 0), boneAt(t, s, "root/arm"))
}

func TestBoneTransformAliasesAndErrors(t *testing.T) {
	sk := newWaveSkeleton(t)
	require.NoError(t, sk.SetAlias("arm", "root/arm"))
	s, err := sk.BeginAnimation("wave")
	require.NoError(t, err)
	s.Update(0.5)

	byAlias := boneAt(t, s, "arm")
	requireMatEqual(t, armWorld(45), byAlias)

	_, err = s.BoneTransform("arm", false)
	assert.ErrorIs(t, err, ErrMissingBone)
	_, err = s.BoneTransformAt(7)
	assert.ErrorIs(t, err, ErrMissingBone)
}

func TestCacheInvalidation(t *testing.T) {
	sk := newWaveSkeleton(t)
	a, err := sk.Animation("wave")
	require.NoError(t, err)
	s, err := sk.BeginAnimation("wave")
	require.NoError(t, err)

	requireMatEqual(t, armWorld(0), boneAt(t, s, "root/arm"))

	arm := rollZ(30)
	arm.Offset = vec(0, 1, 0)
	a.Step(0, false).SetTransform("root/arm", arm)

	// Served from cache until invalidated.
	requireMatEqual(t, armWorld(0), boneAt(t, s, "root/arm"))
	s.Invalidate()
	requireMatEqual(t, armWorld(30), boneAt(t, s, "root/arm"))

	// Structural edits resize the cache.
	require.NoError(t, sk.AddBone("root/arm/hand", vec(0, 1, 0), math.Zero3(), math.One3()))
	requireMatEqual(t, armWorld(30).Mul(math.Translate(0, 1, 0)), boneAt(t, s, "root/arm/hand"))
}

func TestInterpolationModesInPlayback(t *testing.T) {
	sk := newWaveSkeleton(t)
	a, err := sk.Animation("wave")
	require.NoError(t, err)
	st := a.Step(0, false)

	move := IdentityTransformation()
	move.Offset = vec(0, 1, 0)
	st.SetTransform("root/arm", move)
	move.Offset = vec(0, 3, 0)
	a.Step(1, false).SetTransform("root/arm", move)
	require.NoError(t, st.SetPositionInterpolation(SmoothStep))

	s, err := sk.BeginAnimation("wave")
	require.NoError(t, err)
	s.Update(0.25)

	// smoothstep(0.25) = 0.15625
	got := boneAt(t, s, "root/arm").Translation()
	assert.InDelta(t, 1+2*0.15625, got.Y, eps)

	require.NoError(t, st.SetPositionInterpolation(SmoothDamp))
	s.Invalidate()
	got = boneAt(t, s, "root/arm").Translation()
	// 0.25 * (2 - 0.25) = 0.4375
	assert.InDelta(t, 1+2*0.4375, got.Y, eps)
}

func TestSeek(t *testing.T) {
	sk := newWaveSkeleton(t)
	s, err := sk.BeginAnimation("wave")
	require.NoError(t, err)

	s.Update(0.8)
	res := s.Seek(1.5)
	assert.Equal(t, 1, res.StepsFinished)
	assert.Equal(t, 1, s.StepIndex())
	requireMatEqual(t, armWorld(45), boneAt(t, s, "root/arm"))
}

func TestPlayStateString(t *testing.T) {
	assert.Equal(t, "empty", StateEmpty.String())
	assert.Equal(t, "playing", StatePlaying.String())
	assert.Equal(t, "frozen", StateFrozen.String())
	assert.Equal(t, "PlayState(9)", PlayState(9).String())
}
