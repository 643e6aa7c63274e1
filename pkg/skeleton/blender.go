package skeleton

import (
	"github.com/Faultbox/boneanim/pkg/math"
)

// AnimationDone reports that one side of a blender ran past its last step.
type AnimationDone struct {
	FromSide  bool
	Animation string
}

// AnimationsBlender plays two states side by side and blends their bone
// transforms by a factor in [0, 1]. The factor is never advanced automatically.
type AnimationsBlender struct {
	from   *AnimationState
	to     *AnimationState
	factor float32
}

// NewAnimationsBlender pairs from and to with a blend factor of 0. Either side
// may be nil; a nil side yields identity transforms.
func NewAnimationsBlender(from, to *AnimationState) *AnimationsBlender {
	return &AnimationsBlender{from: from, to: to}
}

// From returns the state weighted by 1 - factor.
func (b *AnimationsBlender) From() *AnimationState { return b.from }

// To returns the state weighted by factor.
func (b *AnimationsBlender) To() *AnimationState { return b.to }

// BlendFactor returns the current weight of the to side.
func (b *AnimationsBlender) BlendFactor() float32 { return b.factor }

// SetBlendFactor clamps f to [0, 1]. NaN is treated as 0.
func (b *AnimationsBlender) SetBlendFactor(f float32) {
	switch {
	case f != f, f < 0:
		f = 0
	case f > 1:
		f = 1
	}
	b.factor = f
}

// Switch swaps the two sides. With invertFactor set the factor becomes
// 1 - factor, so the blended pose is the same right after the call.
func (b *AnimationsBlender) Switch(invertFactor bool) {
	b.from, b.to = b.to, b.from
	if invertFactor {
		b.factor = 1 - b.factor
	}
}

// SetNextAnimation replaces the to side. Combine with Switch to retarget a
// blend that is already under way.
func (b *AnimationsBlender) SetNextAnimation(state *AnimationState) {
	b.to = state
}

// Update advances both sides by deltaTime and returns one event per side that
// finished during the call, from side first.
func (b *AnimationsBlender) Update(deltaTime float32) []AnimationDone {
	var done []AnimationDone
	if b.from != nil && b.from.Update(deltaTime).DidFinish {
		done = append(done, AnimationDone{FromSide: true, Animation: b.from.animation.name})
	}
	if b.to != nil && b.to != b.from && b.to.Update(deltaTime).DidFinish {
		done = append(done, AnimationDone{FromSide: false, Animation: b.to.animation.name})
	}
	return done
}

// BoneTransform returns the blended world transform of a bone. Between the
// end points the two matrices are interpolated element-wise.
func (b *AnimationsBlender) BoneTransform(name string, useAliases bool) (math.Mat4, error) {
	switch {
	case b.factor <= 0:
		return sideTransform(b.from, name, useAliases)
	case b.factor >= 1:
		return sideTransform(b.to, name, useAliases)
	}
	from, err := sideTransform(b.from, name, useAliases)
	if err != nil {
		return math.Mat4{}, err
	}
	to, err := sideTransform(b.to, name, useAliases)
	if err != nil {
		return math.Mat4{}, err
	}
	return from.Lerp(to, b.factor), nil
}

func sideTransform(s *AnimationState, name string, useAliases bool) (math.Mat4, error) {
	if s == nil {
		return math.Identity(), nil
	}
	return s.BoneTransform(name, useAliases)
}
