package skeleton

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/boneanim/pkg/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRichSkeleton(t *testing.T) *Skeleton {
	t.Helper()
	sk := newWaveSkeleton(t)
	require.NoError(t, sk.AddBone("root/arm/hand", vec(0, 0.5, 0), vec(10, 20, 30), vec(1, 2, 1)))
	require.NoError(t, sk.SetAlias("hand", "root/arm/hand"))
	_, err := sk.AddMesh(MeshPreview{Parent: "root/arm", Offset: vec(0, 0.5, 0), Scale: vec(0.2, 1, 0.2), Rotation: vec(0, 0, 15)})
	require.NoError(t, err)

	a, err := sk.Animation("wave")
	require.NoError(t, err)
	st := a.Step(1, false)
	require.NoError(t, st.SetRotationInterpolation(SphericalLinear))
	require.NoError(t, st.SetPositionInterpolation(SmoothStep))
	require.NoError(t, st.SetScaleInterpolation(SmoothDamp))

	idle, err := sk.CreateAnimation("idle")
	require.NoError(t, err)
	_, err = idle.AddStep("breathe", 0.75, nil)
	require.NoError(t, err)
	return sk
}

func TestSaveLoadRoundTrip(t *testing.T) {
	sk := newRichSkeleton(t)

	var buf bytes.Buffer
	require.NoError(t, sk.Save(&buf))
	text := buf.String()
	for _, want := range []string{"[bones]", "[meshes]", "[aliases]", "[animations]", "[animation_wave]", "[animation_idle]", "step_1_inter_rotation", "SphericalLinear", "bone_2_path"} {
		assert.Contains(t, text, want)
	}

	got, err := Load(strings.NewReader(text))
	require.NoError(t, err)

	assert.Equal(t, sk.Bones(), got.Bones())
	assert.Equal(t, sk.Aliases(), got.Aliases())
	assert.Equal(t, sk.Meshes(), got.Meshes())
	assert.Equal(t, sk.AnimationNames(), got.AnimationNames())

	for _, path := range sk.Bones() {
		want, err := sk.DefaultBoneTransform(path)
		require.NoError(t, err)
		have, err := got.DefaultBoneTransform(path)
		require.NoError(t, err)
		assert.Equal(t, want, have, path)
	}

	for _, name := range sk.AnimationNames() {
		a, err := sk.Animation(name)
		require.NoError(t, err)
		b, err := got.Animation(name)
		require.NoError(t, err)
		assert.Equal(t, a.Repeats(), b.Repeats())
		require.Equal(t, a.Len(), b.Len())
		for i := 0; i < a.Len(); i++ {
			sa, sb := a.Step(i, false), b.Step(i, false)
			assert.Equal(t, sa.Name, sb.Name)
			assert.Equal(t, sa.Duration(), sb.Duration())
			assert.Equal(t, sa.PositionInterpolation(), sb.PositionInterpolation())
			assert.Equal(t, sa.ScaleInterpolation(), sb.ScaleInterpolation())
			assert.Equal(t, sa.RotationInterpolation(), sb.RotationInterpolation())
		}

		want, err := sk.BeginAnimation(name)
		require.NoError(t, err)
		have, err := got.BeginAnimation(name)
		require.NoError(t, err)
		for _, dt := range []float32{0, 0.3, 0.45, 0.9} {
			want.Update(dt)
			have.Update(dt)
			for _, path := range sk.Bones() {
				requireMatEqual(t, boneAt(t, want, path), boneAt(t, have, path))
			}
		}
	}
}

func TestSaveFileLoadFile(t *testing.T) {
	sk := newRichSkeleton(t)
	path := filepath.Join(t.TempDir(), "arm.skel")
	require.NoError(t, sk.SaveFile(path))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sk.Bones(), got.Bones())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.skel"))
	assert.Error(t, err)
}

func TestLoadFillsMissingStepBones(t *testing.T) {
	const data = `
[bones]
count = 2
bone_0_path = root
bone_0_offset = 0,0,0
bone_0_rotation = 0,0,0
bone_0_scale = 1,1,1
bone_1_path = root/arm
bone_1_offset = (0, 1, 0)
bone_1_rotation = 0,0,0
bone_1_scale = 1,1,1

[animations]
keys = lift

[animation_lift]
steps_count = 1
repeats = false
step_0_name = only
step_0_duration = 0.5
step_0_inter_position = Linear
step_0_inter_scale = Linear
step_0_inter_rotation = Linear
step_0_bone_0_offset = 0,2,0
step_0_bone_0_rotation = 0,0,0
step_0_bone_0_scale = 1,1,1
`
	sk, err := Load(strings.NewReader(data))
	require.NoError(t, err)
	assert.Empty(t, sk.Meshes())
	assert.Empty(t, sk.Aliases())

	s, err := sk.BeginAnimation("lift")
	require.NoError(t, err)
	assert.False(t, s.Repeats())
	requireMatEqual(t, math.Translate(0, 3, 0), boneAt(t, s, "root/arm"))
}

func TestNamesSurviveSaveLoad(t *testing.T) {
	sk := newWaveSkeleton(t)
	zero := IdentityTransformation()

	// Names ini.v1 would read back as continuations or quoted strings.
	for _, path := range []string{"root/arm\\", `root/"q"`, "root/'q'"} {
		assert.ErrorIs(t, sk.AddBone(path, zero.Offset, zero.Rotation, zero.Scale), ErrInvalidName, path)
	}
	assert.ErrorIs(t, sk.SetAlias("hand\\", "root/arm"), ErrInvalidName)
	_, err := sk.CreateAnimation("wave\\")
	assert.ErrorIs(t, err, ErrInvalidName)

	a, err := sk.Animation("wave")
	require.NoError(t, err)
	for _, name := range []string{"x\\", `"""`, `"q"`, "'q'", " pad"} {
		_, err := a.AddStep(name, 1, nil)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
	odd := []string{"up again", "a=b", "x:y,z", "[tag]"}
	for _, name := range odd {
		_, err := a.AddStep(name, 0.5, nil)
		require.NoError(t, err, name)
	}

	var buf bytes.Buffer
	require.NoError(t, sk.Save(&buf))
	got, err := Load(&buf)
	require.NoError(t, err)
	b, err := got.Animation("wave")
	require.NoError(t, err)
	require.Equal(t, a.Len(), b.Len())
	for i, st := range b.Steps() {
		assert.Equal(t, a.Step(i, false).Name, st.Name)
	}

	// A name set on the field directly is caught by Save.
	a.Step(0, false).Name = `"q"`
	assert.ErrorIs(t, sk.Save(&bytes.Buffer{}), ErrInvalidName)
	assert.ErrorIs(t, a.SetStep(0, a.Step(0, false)), ErrInvalidName)
}

func TestLoadMalformed(t *testing.T) {
	base := "[bones]\ncount = 1\nbone_0_path = root\nbone_0_offset = 0,0,0\nbone_0_rotation = 0,0,0\nbone_0_scale = 1,1,1\n"
	anim := "[animations]\nkeys = a\n[animation_a]\nsteps_count = 1\nrepeats = true\nstep_0_name = s\n"
	modes := "step_0_inter_position = Linear\nstep_0_inter_scale = Linear\nstep_0_inter_rotation = Linear\n"

	tests := []struct {
		name string
		data string
	}{
		{"no bones section", "[meshes]\ncount = 0\n"},
		{"bad count", "[bones]\ncount = many\n"},
		{"negative count", "[bones]\ncount = -1\n"},
		{"missing bone key", "[bones]\ncount = 1\nbone_0_path = root\n"},
		{"short vector", strings.Replace(base, "bone_0_scale = 1,1,1", "bone_0_scale = 1,1", 1)},
		{"bad float", strings.Replace(base, "bone_0_offset = 0,0,0", "bone_0_offset = 0,x,0", 1)},
		{"duplicate bone", strings.Replace(base, "count = 1", "count = 2", 1) + "bone_1_path = root\nbone_1_offset = 0,0,0\nbone_1_rotation = 0,0,0\nbone_1_scale = 1,1,1\n"},
		{"mesh on unknown bone", base + "[meshes]\ncount = 1\nmesh_0_parent = ghost\nmesh_0_offset = 0,0,0\nmesh_0_scale = 1,1,1\nmesh_0_rotation = 0,0,0\n"},
		{"alias to unknown bone", base + "[aliases]\nhand = root/hand\n"},
		{"missing animation section", base + "[animations]\nkeys = a\n"},
		{"zero duration", base + anim + "step_0_duration = 0\n" + modes},
		{"unknown mode", base + anim + "step_0_duration = 1\n" + strings.Replace(modes, "= Linear\nstep_0_inter_scale", "= Cubic\nstep_0_inter_scale", 1)},
		{"smoothstep rotation", base + anim + "step_0_duration = 1\n" + strings.Replace(modes, "inter_rotation = Linear", "inter_rotation = SmoothStep", 1)},
		{"quoted step name", base + strings.Replace(anim, "step_0_name = s", "step_0_name = it's", 1) + "step_0_duration = 1\n" + modes},
		{"spherical position", base + anim + "step_0_duration = 1\n" + strings.Replace(modes, "inter_position = Linear", "inter_position = SphericalLinear", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.data))
			assert.ErrorIs(t, err, ErrMalformedData)
		})
	}
}

func TestParseVec3(t *testing.T) {
	tests := []struct {
		in   string
		want math.Vec3
	}{
		{"1,2,3", vec(1, 2, 3)},
		{" (1.5, -2, 0.25) ", vec(1.5, -2, 0.25)},
		{"1e-3,0,0", vec(0.001, 0, 0)},
	}
	for _, tt := range tests {
		got, err := parseVec3(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
	_, err := parseVec3("1,2")
	assert.Error(t, err)

	assert.Equal(t, "0.1,-2,1e+07", formatVec3(vec(0.1, -2, 1e7)))
}
