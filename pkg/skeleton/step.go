package skeleton

import (
	"fmt"
	"maps"
	"slices"

	"github.com/Faultbox/boneanim/pkg/math"
)

// FlatBone is one entry of a step's flattened bone table. Entries are indexed
// like the skeleton's bone table.
type FlatBone struct {
	Parent      int // -1 for roots
	Scale       math.Vec3
	Rotation    math.Quat
	Translation math.Vec3
	Local       math.Mat4
	World       math.Mat4 // Local composed with every ancestor
}

// AnimationStep is one authored keyframe: a pose snapshot plus the time it
// takes to reach the next step.
type AnimationStep struct {
	Name string

	duration       float32
	positionInterp Interpolation
	scaleInterp    Interpolation
	rotationInterp Interpolation
	transforms     map[string]Transformation

	skeleton *Skeleton
	version  uint64

	// Flattened table and the versions it was built from.
	flat          []FlatBone
	flatValid     bool
	flatVersion   uint64
	flatStructure uint64
}

func newStep(sk *Skeleton, name string, duration float32) *AnimationStep {
	return &AnimationStep{
		Name:           name,
		duration:       duration,
		positionInterp: Linear,
		scaleInterp:    Linear,
		rotationInterp: Linear,
		transforms:     make(map[string]Transformation),
		skeleton:       sk,
	}
}

// Duration returns how long the step lasts, in seconds.
func (s *AnimationStep) Duration() float32 {
	return s.duration
}

// SetDuration changes the step length. d must be positive.
func (s *AnimationStep) SetDuration(d float32) error {
	if !(d > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidDuration, d)
	}
	s.duration = d
	return nil
}

// PositionInterpolation returns the mode used for offsets.
func (s *AnimationStep) PositionInterpolation() Interpolation { return s.positionInterp }

// ScaleInterpolation returns the mode used for scale.
func (s *AnimationStep) ScaleInterpolation() Interpolation { return s.scaleInterp }

// RotationInterpolation returns the mode used for rotation.
func (s *AnimationStep) RotationInterpolation() Interpolation { return s.rotationInterp }

// SetPositionInterpolation sets the offset mode. SphericalLinear is rejected.
func (s *AnimationStep) SetPositionInterpolation(mode Interpolation) error {
	if !mode.ValidForVector() {
		return fmt.Errorf("%w: %s for position", ErrInvalidInterpolation, mode)
	}
	s.positionInterp = mode
	return nil
}

// SetScaleInterpolation sets the scale mode. SphericalLinear is rejected.
func (s *AnimationStep) SetScaleInterpolation(mode Interpolation) error {
	if !mode.ValidForVector() {
		return fmt.Errorf("%w: %s for scale", ErrInvalidInterpolation, mode)
	}
	s.scaleInterp = mode
	return nil
}

// SetRotationInterpolation sets the rotation mode. SmoothStep is rejected.
func (s *AnimationStep) SetRotationInterpolation(mode Interpolation) error {
	if !mode.ValidForRotation() {
		return fmt.Errorf("%w: %s for rotation", ErrInvalidInterpolation, mode)
	}
	s.rotationInterp = mode
	return nil
}

// Transform returns the authored transform for path.
func (s *AnimationStep) Transform(path string) (Transformation, bool) {
	t, ok := s.transforms[path]
	return t, ok
}

// SetTransform authors the transform for path and marks the flattened table stale.
// Intended for edit time, not per frame.
func (s *AnimationStep) SetTransform(path string, t Transformation) {
	s.transforms[path] = t
	s.touch()
}

// Paths returns the authored bone paths in sorted order.
func (s *AnimationStep) Paths() []string {
	paths := make([]string, 0, len(s.transforms))
	for path := range s.transforms {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths
}

// Clone returns a copy with the same transforms, duration and modes.
func (s *AnimationStep) Clone() *AnimationStep {
	c := newStep(s.skeleton, s.Name, s.duration)
	c.positionInterp = s.positionInterp
	c.scaleInterp = s.scaleInterp
	c.rotationInterp = s.rotationInterp
	c.transforms = maps.Clone(s.transforms)
	return c
}

// BoneCount returns the number of entries in the flattened table.
func (s *AnimationStep) BoneCount() int {
	return len(s.skeleton.bones)
}

// Bone returns the flattened record for the bone at index, rebuilding the
// table first if the step or the skeleton changed since the last build.
// Bones the step has no transform for are filled from the default pose.
func (s *AnimationStep) Bone(index int) (FlatBone, error) {
	if index < 0 || index >= len(s.skeleton.bones) {
		return FlatBone{}, fmt.Errorf("%w: index %d", ErrMissingBone, index)
	}
	if err := s.ensureFlat(); err != nil {
		return FlatBone{}, err
	}
	return s.flat[index], nil
}

// BoneByPath returns the flattened record for path. With createDefault unset a
// path the step has no transform for is an ErrMissingBone.
func (s *AnimationStep) BoneByPath(path string, createDefault bool) (FlatBone, error) {
	idx, ok := s.skeleton.index[path]
	if !ok {
		return FlatBone{}, fmt.Errorf("%w: %q", ErrMissingBone, path)
	}
	if _, authored := s.transforms[path]; !authored && !createDefault {
		return FlatBone{}, fmt.Errorf("%w: %q not set in step %q", ErrMissingBone, path, s.Name)
	}
	return s.Bone(idx)
}

func (s *AnimationStep) touch() {
	s.version++
}

func (s *AnimationStep) isDefaultPose() bool {
	return s.skeleton != nil && s.skeleton.defaultPose == s
}

func (s *AnimationStep) stale() bool {
	return !s.flatValid || s.flatVersion != s.version || s.flatStructure != s.skeleton.structure
}

func (s *AnimationStep) ensureFlat() error {
	if !s.stale() {
		return nil
	}
	return s.rebuild()
}

// rebuild flattens every skeleton bone, building parents before children.
func (s *AnimationStep) rebuild() error {
	bones := s.skeleton.bones
	if cap(s.flat) >= len(bones) {
		s.flat = s.flat[:len(bones)]
	} else {
		s.flat = make([]FlatBone, len(bones))
	}
	built := make([]bool, len(bones))

	var build func(i int) error
	build = func(i int) error {
		if built[i] {
			return nil
		}
		b := &bones[i]
		parentWorld := math.Identity()
		if b.parent >= 0 {
			if err := build(b.parent); err != nil {
				return err
			}
			parentWorld = s.flat[b.parent].World
		}

		t, err := s.resolve(b.path)
		if err != nil {
			return err
		}
		local := t.Matrix()
		s.flat[i] = FlatBone{
			Parent:      b.parent,
			Scale:       t.Scale,
			Rotation:    t.Quat(),
			Translation: t.Offset,
			Local:       local,
			World:       parentWorld.Mul(local),
		}
		built[i] = true
		return nil
	}

	for i := range bones {
		if err := build(i); err != nil {
			s.flatValid = false
			return err
		}
	}

	s.flatValid = true
	s.flatVersion = s.version
	s.flatStructure = s.skeleton.structure
	return nil
}

// resolve returns the transform for path, synthesizing it from the default
// pose and memoizing it when the step has none. Memoizing does not bump the
// step version: the pose it describes is unchanged.
func (s *AnimationStep) resolve(path string) (Transformation, error) {
	if t, ok := s.transforms[path]; ok {
		return t, nil
	}
	if s.isDefaultPose() {
		return Transformation{}, fmt.Errorf("%w: %q has no default pose", ErrMissingBone, path)
	}
	t, ok := s.skeleton.defaultPose.transforms[path]
	if !ok {
		return Transformation{}, fmt.Errorf("%w: %q has no default pose", ErrMissingBone, path)
	}
	s.transforms[path] = t
	return t, nil
}

// transformOrDefault reads without memoizing. Used by Save.
func (s *AnimationStep) transformOrDefault(path string) Transformation {
	if t, ok := s.transforms[path]; ok {
		return t
	}
	if t, ok := s.skeleton.defaultPose.transforms[path]; ok {
		return t
	}
	return IdentityTransformation()
}

// renameBone rewrites every key at or below from so it sits below to.
func (s *AnimationStep) renameBone(from, to string) {
	var moved []string
	for path := range s.transforms {
		if IsDescendantOrSelf(path, from) {
			moved = append(moved, path)
		}
	}
	if len(moved) == 0 {
		return
	}
	renamed := make(map[string]Transformation, len(moved))
	for _, path := range moved {
		renamed[rebase(path, from, to)] = s.transforms[path]
		delete(s.transforms, path)
	}
	maps.Copy(s.transforms, renamed)
	s.touch()
}

// removeSubtree drops every key at or below path.
func (s *AnimationStep) removeSubtree(path string) {
	n := len(s.transforms)
	maps.DeleteFunc(s.transforms, func(k string, _ Transformation) bool {
		return IsDescendantOrSelf(k, path)
	})
	if len(s.transforms) != n {
		s.touch()
	}
}

// localPose is a bone's interpolated local transform, still decomposed.
type localPose struct {
	translation math.Vec3
	rotation    math.Quat
	scale       math.Vec3
}

func (p localPose) matrix() math.Mat4 {
	return math.Compose(p.translation, p.rotation, p.scale)
}

func (p localPose) transformation() Transformation {
	return Transformation{
		Offset:   p.translation,
		Rotation: p.rotation.EulerDegrees(),
		Scale:    p.scale,
	}
}

// samplePose interpolates bone from cur toward next using cur's modes.
func samplePose(cur, next *AnimationStep, bone int, progress float32) (localPose, error) {
	a, err := cur.Bone(bone)
	if err != nil {
		return localPose{}, err
	}
	b, err := next.Bone(bone)
	if err != nil {
		return localPose{}, err
	}

	var p localPose
	if p.translation, err = interpolateVec(a.Translation, b.Translation, progress, cur.positionInterp); err != nil {
		return localPose{}, fmt.Errorf("position: %w", err)
	}
	if p.scale, err = interpolateVec(a.Scale, b.Scale, progress, cur.scaleInterp); err != nil {
		return localPose{}, fmt.Errorf("scale: %w", err)
	}
	if p.rotation, err = interpolateQuat(a.Rotation, b.Rotation, progress, cur.rotationInterp); err != nil {
		return localPose{}, fmt.Errorf("rotation: %w", err)
	}
	return p, nil
}
