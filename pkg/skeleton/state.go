package skeleton

import (
	"fmt"

	"github.com/Faultbox/boneanim/pkg/math"
)

// PlayState is the playback state of an AnimationState.
type PlayState uint8

// Playback states.
const (
	// StateEmpty means the animation has no steps. Terminal.
	StateEmpty PlayState = iota
	// StatePlaying is normal playback.
	StatePlaying
	// StateFrozen means a non-repeating animation consumed its last step.
	// Terminal until Reset.
	StateFrozen
)

// String returns the state name.
func (p PlayState) String() string {
	switch p {
	case StateEmpty:
		return "empty"
	case StatePlaying:
		return "playing"
	case StateFrozen:
		return "frozen"
	}
	return fmt.Sprintf("PlayState(%d)", uint8(p))
}

// UpdateResult reports what a single Update call did.
type UpdateResult struct {
	// DidFinish is set when the call ran past the last step (wrapping or freezing).
	DidFinish bool
	// StepsFinished counts the step boundaries crossed by the call.
	StepsFinished int
}

type cachedTransform struct {
	version uint64
	matrix  math.Mat4
}

// AnimationState is a playback cursor over one Animation. Each state owns its
// bone transform cache; the skeleton and animation are shared.
type AnimationState struct {
	animation *Animation
	skeleton  *Skeleton

	stepIndex int
	elapsed   float32
	repeats   bool
	frozen    bool

	// Cache entries are valid while their version equals poseVersion.
	poseVersion uint64
	structure   uint64
	cache       []cachedTransform
}

func newAnimationState(sk *Skeleton, anim *Animation) *AnimationState {
	s := &AnimationState{
		animation: anim,
		skeleton:  sk,
		repeats:   anim.repeats,
	}
	s.Reset(0)
	return s
}

// Animation returns the animation being played.
func (s *AnimationState) Animation() *Animation { return s.animation }

// Skeleton returns the skeleton the animation belongs to.
func (s *AnimationState) Skeleton() *Skeleton { return s.skeleton }

// StepIndex returns the current step index. It equals the step count once a
// non-repeating animation has finished.
func (s *AnimationState) StepIndex() int { return s.stepIndex }

// Elapsed returns the time spent in the current step.
func (s *AnimationState) Elapsed() float32 { return s.elapsed }

// Repeats reports whether playback wraps after the last step.
func (s *AnimationState) Repeats() bool { return s.repeats }

// SetRepeats overrides the animation's repeat flag for this state only.
func (s *AnimationState) SetRepeats(repeats bool) {
	s.repeats = repeats
	s.Invalidate()
}

// State returns the playback state.
func (s *AnimationState) State() PlayState {
	switch {
	case s.animation.Len() == 0:
		return StateEmpty
	case s.frozen:
		return StateFrozen
	}
	return StatePlaying
}

// Finished reports whether playback has reached a terminal state.
func (s *AnimationState) Finished() bool {
	return s.State() != StatePlaying
}

// StepProgress returns how far through the current step playback is, in [0, 1].
func (s *AnimationState) StepProgress() float32 {
	cur := s.animation.Step(s.stepIndex, false)
	if cur == nil || s.frozen {
		return 0
	}
	p := s.elapsed / cur.duration
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Reset moves playback to the start of step and leaves the frozen state.
func (s *AnimationState) Reset(step int) {
	if step < 0 {
		step = 0
	}
	if n := s.animation.Len(); n > 0 && step >= n {
		step = n - 1
	}
	s.stepIndex = step
	s.elapsed = 0
	s.frozen = false
	s.Invalidate()
}

// Seek restarts playback and advances it to the absolute time t.
func (s *AnimationState) Seek(t float32) UpdateResult {
	s.Reset(0)
	return s.Update(t)
}

// Invalidate drops every cached bone transform. Update and Reset do this
// already; call it after editing steps of an animation that is playing.
func (s *AnimationState) Invalidate() {
	s.poseVersion++
}

// Update advances playback by deltaTime seconds. A large delta may cross
// several step boundaries in one call. Negative deltas are ignored.
func (s *AnimationState) Update(deltaTime float32) UpdateResult {
	n := s.animation.Len()
	if n == 0 {
		return UpdateResult{DidFinish: true}
	}
	if s.frozen {
		return UpdateResult{}
	}

	s.Invalidate()
	if deltaTime > 0 {
		s.elapsed += deltaTime
	}

	var res UpdateResult
	for {
		cur := s.animation.Step(s.stepIndex, false)
		if s.elapsed < cur.duration {
			break
		}
		s.elapsed -= cur.duration
		s.stepIndex++
		res.StepsFinished++

		if s.stepIndex < n {
			continue
		}
		res.DidFinish = true
		if !s.repeats {
			s.frozen = true
			s.stepIndex = n
			s.elapsed = 0
			break
		}
		s.stepIndex = 0

		// Skip whole laps instead of walking every step again.
		if total := s.animation.Duration(); s.elapsed >= total {
			laps := int(s.elapsed / total)
			s.elapsed -= float32(laps) * total
			res.StepsFinished += laps * n
		}
	}
	return res
}

// BoneTransform returns the world transform of the bone named by path or,
// when useAliases is set, by alias.
func (s *AnimationState) BoneTransform(name string, useAliases bool) (math.Mat4, error) {
	idx, err := s.skeleton.ResolveBone(name, useAliases)
	if err != nil {
		return math.Mat4{}, err
	}
	return s.BoneTransformAt(idx)
}

// BoneTransformAt returns the world transform of the bone at index in the
// skeleton's bone table. The local pose is interpolated from the current step
// toward the next one and composed with the interpolated parent chain.
func (s *AnimationState) BoneTransformAt(index int) (math.Mat4, error) {
	s.syncStructure()
	if index < 0 || index >= len(s.cache) {
		return math.Mat4{}, fmt.Errorf("%w: index %d", ErrMissingBone, index)
	}
	if c := s.cache[index]; c.version == s.poseVersion {
		return c.matrix, nil
	}

	var local math.Mat4
	if s.animation.Len() == 0 {
		fb, err := s.skeleton.defaultPose.Bone(index)
		if err != nil {
			return math.Mat4{}, err
		}
		local = fb.Local
	} else {
		cur := s.animation.Step(s.stepIndex, false)
		next := s.animation.Step(s.stepIndex+1, s.repeats)
		pose, err := samplePose(cur, next, index, s.StepProgress())
		if err != nil {
			return math.Mat4{}, fmt.Errorf("animation %q bone %q: %w", s.animation.name, s.skeleton.bones[index].path, err)
		}
		local = pose.matrix()
	}

	world := local
	if parent := s.skeleton.bones[index].parent; parent >= 0 {
		pw, err := s.BoneTransformAt(parent)
		if err != nil {
			return math.Mat4{}, err
		}
		world = pw.Mul(local)
	}

	s.cache[index] = cachedTransform{version: s.poseVersion, matrix: world}
	return world, nil
}

// syncStructure resizes the cache after bones were added or removed.
func (s *AnimationState) syncStructure() {
	if s.structure == s.skeleton.structure && len(s.cache) == len(s.skeleton.bones) {
		return
	}
	s.structure = s.skeleton.structure
	if cap(s.cache) >= len(s.skeleton.bones) {
		s.cache = s.cache[:len(s.skeleton.bones)]
	} else {
		s.cache = make([]cachedTransform, len(s.skeleton.bones))
	}
	s.Invalidate()
}
