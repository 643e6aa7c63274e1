package skeleton

import (
	"fmt"
	"slices"
)

// Animation is a named, ordered sequence of steps. Step order only changes
// through explicit insert, remove or split calls.
type Animation struct {
	name     string
	repeats  bool
	steps    []*AnimationStep
	skeleton *Skeleton
}

// Name returns the animation name.
func (a *Animation) Name() string { return a.name }

// Repeats reports whether playback wraps after the last step.
func (a *Animation) Repeats() bool { return a.repeats }

// SetRepeats changes the default wrap behavior for new playback states.
func (a *Animation) SetRepeats(repeats bool) { a.repeats = repeats }

// Len returns the number of steps.
func (a *Animation) Len() int { return len(a.steps) }

// Steps returns the steps in playback order.
func (a *Animation) Steps() []*AnimationStep {
	return slices.Clone(a.steps)
}

// Duration returns the summed duration of every step.
func (a *Animation) Duration() float32 {
	var total float32
	for _, st := range a.steps {
		total += st.duration
	}
	return total
}

// Step returns the step at i. Past the end it wraps (i mod Len) when wrap is
// set and clamps to the last step otherwise. Returns nil for an empty animation.
func (a *Animation) Step(i int, wrap bool) *AnimationStep {
	n := len(a.steps)
	if n == 0 {
		return nil
	}
	if i < 0 {
		i = 0
	}
	if i >= n {
		if wrap {
			i %= n
		} else {
			i = n - 1
		}
	}
	return a.steps[i]
}

// AddStep appends a step. It clones copyFrom when given, otherwise every bone
// currently in the skeleton starts at its default transform.
func (a *Animation) AddStep(name string, duration float32, copyFrom *AnimationStep) (*AnimationStep, error) {
	st, err := a.seedStep(name, duration, copyFrom)
	if err != nil {
		return nil, err
	}
	a.steps = append(a.steps, st)
	a.skeleton.log.Debug("step added", stepFields(a, len(a.steps)-1)...)
	return st, nil
}

// InsertStep adds a seeded step before index (index == Len appends).
func (a *Animation) InsertStep(index int, name string, duration float32, copyFrom *AnimationStep) (*AnimationStep, error) {
	if index < 0 || index > len(a.steps) {
		return nil, fmt.Errorf("%w: %d of %d", ErrStepOutOfRange, index, len(a.steps))
	}
	st, err := a.seedStep(name, duration, copyFrom)
	if err != nil {
		return nil, err
	}
	a.steps = slices.Insert(a.steps, index, st)
	return st, nil
}

func (a *Animation) seedStep(name string, duration float32, copyFrom *AnimationStep) (*AnimationStep, error) {
	if !(duration > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDuration, duration)
	}
	if err := validateStepName(name); err != nil {
		return nil, err
	}
	var st *AnimationStep
	if copyFrom != nil {
		st = copyFrom.Clone()
		st.skeleton = a.skeleton
		st.Name = name
		st.duration = duration
	} else {
		st = newStep(a.skeleton, name, duration)
		for _, b := range a.skeleton.bones {
			st.transforms[b.path] = a.skeleton.defaultPose.transformOrDefault(b.path)
		}
	}
	return st, nil
}

// RemoveStep deletes the step at index.
func (a *Animation) RemoveStep(index int) error {
	if index < 0 || index >= len(a.steps) {
		return fmt.Errorf("%w: %d of %d", ErrStepOutOfRange, index, len(a.steps))
	}
	a.steps = slices.Delete(a.steps, index, index+1)
	return nil
}

// SetStep replaces the step at index.
func (a *Animation) SetStep(index int, st *AnimationStep) error {
	if index < 0 || index >= len(a.steps) {
		return fmt.Errorf("%w: %d of %d", ErrStepOutOfRange, index, len(a.steps))
	}
	if !(st.duration > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidDuration, st.duration)
	}
	if err := validateStepName(st.Name); err != nil {
		return err
	}
	st.skeleton = a.skeleton
	a.steps[index] = st
	return nil
}

// Split cuts the step containing the absolute time t in two at t. The first
// part keeps its keyframe and ends at t; the new second part starts with the
// pose sampled at t and lasts for the remainder, so playback is unchanged.
// Returns false when t falls on an existing boundary or outside the animation.
func (a *Animation) Split(t float32) (bool, error) {
	var start float32
	for i, st := range a.steps {
		end := start + st.duration
		if t >= end {
			start = end
			continue
		}
		if t <= start {
			return false, nil
		}

		head := t - start
		progress := head / st.duration
		next := a.Step(i+1, a.repeats)

		tail := st.Clone()
		tail.duration = st.duration - head
		for bi, b := range a.skeleton.bones {
			pose, err := samplePose(st, next, bi, progress)
			if err != nil {
				return false, fmt.Errorf("sampling %q at %v: %w", b.path, t, err)
			}
			tail.transforms[b.path] = pose.transformation()
		}

		st.duration = head
		a.steps = slices.Insert(a.steps, i+1, tail)
		a.skeleton.log.Debug("step split", stepFields(a, i)...)
		return true, nil
	}
	return false, nil
}

// RenameBone rewrites the keys of every step at or below from to sit below to.
func (a *Animation) RenameBone(from, to string) {
	for _, st := range a.steps {
		st.renameBone(from, to)
	}
}

func (a *Animation) removeSubtree(path string) {
	for _, st := range a.steps {
		st.removeSubtree(path)
	}
}

// Clone returns a deep copy of the animation under a new name. The copy is
// not registered with the skeleton.
func (a *Animation) Clone(name string) *Animation {
	c := &Animation{
		name:     name,
		repeats:  a.repeats,
		steps:    make([]*AnimationStep, len(a.steps)),
		skeleton: a.skeleton,
	}
	for i, st := range a.steps {
		c.steps[i] = st.Clone()
	}
	return c
}
