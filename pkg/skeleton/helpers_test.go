package skeleton

import (
	"testing"

	"github.com/Faultbox/boneanim/pkg/math"
	"github.com/stretchr/testify/require"
)

const eps = 1e-4

func vec(x, y, z float32) math.Vec3 { return math.Vec3{X: x, Y: y, Z: z} }

func rollZ(deg float32) Transformation {
	t := IdentityTransformation()
	t.Rotation = vec(0, 0, deg)
	return t
}

// armWorld is the expected world matrix of root/arm in the wave fixture.
func armWorld(rollDeg float32) math.Mat4 {
	return math.Translate(0, 1, 0).Mul(math.RotateZ(rollDeg * math.DegToRad))
}

// newWaveSkeleton builds root and root/arm (offset 0,1,0) with a repeating
// "wave" animation of two one-second steps rolling the arm 0° then 90°.
func newWaveSkeleton(t *testing.T) *Skeleton {
	t.Helper()
	sk := New()
	require.NoError(t, sk.AddBone("root", math.Zero3(), math.Zero3(), math.One3()))
	require.NoError(t, sk.AddBone("root/arm", vec(0, 1, 0), math.Zero3(), math.One3()))

	a, err := sk.CreateAnimation("wave")
	require.NoError(t, err)
	a.SetRepeats(true)

	s0, err := a.AddStep("down", 1, nil)
	require.NoError(t, err)
	s1, err := a.AddStep("up", 1, nil)
	require.NoError(t, err)

	arm := rollZ(0)
	arm.Offset = vec(0, 1, 0)
	s0.SetTransform("root/arm", arm)
	arm.Rotation = vec(0, 0, 90)
	s1.SetTransform("root/arm", arm)
	return sk
}

func requireMatEqual(t *testing.T, want, got math.Mat4) {
	t.Helper()
	require.True(t, want.ApproxEqual(got, eps), "want %v\ngot  %v", want, got)
}

func boneAt(t *testing.T, s *AnimationState, name string) math.Mat4 {
	t.Helper()
	m, err := s.BoneTransform(name, true)
	require.NoError(t, err)
	return m
}
