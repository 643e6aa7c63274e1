// Package skeleton implements a skeletal pose and animation engine: a tree of
// named bones, keyframed animations over it, playback states that compute
// world transforms at any time, and a blender for two concurrent animations.
//
// A Skeleton is shared by every state created from it and is not safe for
// concurrent use. Steps are flattened lazily on first query, so goroutines
// that only read must either be serialized or run after Warm.
package skeleton

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Faultbox/boneanim/pkg/math"
	"go.uber.org/zap"
)

// Preview is editor-only display metadata for a bone.
type Preview struct {
	Visible bool
	Debug   Transformation
}

// MeshPreview places a debug mesh relative to a bone.
type MeshPreview struct {
	Parent   string
	Offset   math.Vec3
	Scale    math.Vec3
	Rotation math.Vec3
}

type bone struct {
	path    string
	parent  int // nearest existing ancestor, -1 for roots
	preview Preview
}

// Skeleton is the bone registry. It owns the default pose, aliases, debug
// meshes and every animation, and cascades structural edits into all of them.
type Skeleton struct {
	bones []bone
	index map[string]int

	// structure is bumped whenever bones are added, removed or renamed.
	structure uint64

	defaultPose *AnimationStep
	aliases     map[string]string
	meshes      []MeshPreview

	animations map[string]*Animation
	order      []string

	log *zap.Logger
}

// Option configures a Skeleton.
type Option func(*Skeleton)

// WithLogger sets the logger used for edit and load events.
func WithLogger(log *zap.Logger) Option {
	return func(s *Skeleton) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates an empty skeleton.
func New(opts ...Option) *Skeleton {
	s := &Skeleton{
		index:      make(map[string]int),
		aliases:    make(map[string]string),
		animations: make(map[string]*Animation),
		log:        zap.NewNop(),
	}
	s.defaultPose = newStep(s, "default", 1)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// reindex rebuilds the path index and parent links after a structural edit.
func (s *Skeleton) reindex() {
	clear(s.index)
	for i, b := range s.bones {
		s.index[b.path] = i
	}
	for i := range s.bones {
		s.bones[i].parent = s.nearestAncestor(s.bones[i].path)
	}
	s.structure++
}

func (s *Skeleton) nearestAncestor(path string) int {
	for p := ParentPath(path); p != ""; p = ParentPath(p) {
		if i, ok := s.index[p]; ok {
			return i
		}
	}
	return -1
}

func (s *Skeleton) boneIndex(path string) (int, error) {
	i, ok := s.index[path]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrMissingBone, path)
	}
	return i, nil
}

// AddBone registers path with its default pose. The parent is the nearest
// registered ancestor path; bones without one are roots.
func (s *Skeleton) AddBone(path string, offset, rotation, scale math.Vec3) error {
	if err := validatePath(path); err != nil {
		return err
	}
	if _, ok := s.index[path]; ok {
		return fmt.Errorf("%w: %q", ErrBoneExists, path)
	}
	s.bones = append(s.bones, bone{
		path:    path,
		preview: Preview{Visible: true, Debug: IdentityTransformation()},
	})
	s.defaultPose.SetTransform(path, Transformation{Offset: offset, Rotation: rotation, Scale: scale})
	s.reindex()
	s.log.Debug("bone added", zap.String("path", path), zap.Int("index", len(s.bones)-1))
	return nil
}

// CloneBone copies src and its whole subtree next to src under the leaf name
// newName. Default pose and preview are copied; animations see the copies at
// their default pose. Returns the new path.
func (s *Skeleton) CloneBone(src, newName string) (string, error) {
	if _, err := s.boneIndex(src); err != nil {
		return "", err
	}
	if err := validateName(newName); err != nil {
		return "", err
	}
	if strings.Contains(newName, PathSeparator) {
		return "", fmt.Errorf("%w: %q is not a leaf name", ErrInvalidName, newName)
	}
	dst := JoinPath(ParentPath(src), newName)
	if _, ok := s.index[dst]; ok {
		return "", fmt.Errorf("%w: %q", ErrBoneExists, dst)
	}

	var added []bone
	for _, b := range s.bones {
		if !IsDescendantOrSelf(b.path, src) {
			continue
		}
		path := rebase(b.path, src, dst)
		if _, ok := s.index[path]; ok {
			return "", fmt.Errorf("%w: %q", ErrBoneExists, path)
		}
		added = append(added, bone{path: path, preview: b.preview})
	}
	for _, b := range added {
		s.defaultPose.transforms[b.path] = s.defaultPose.transformOrDefault(rebase(b.path, dst, src))
	}
	s.bones = append(s.bones, added...)
	s.defaultPose.touch()
	s.reindex()
	s.log.Debug("bone cloned", zap.String("from", src), zap.String("to", dst), zap.Int("bones", len(added)))
	return dst, nil
}

// RenameBone moves from and its subtree to the path to. Default pose, every
// step of every animation, aliases and meshes follow.
func (s *Skeleton) RenameBone(from, to string) error {
	if _, err := s.boneIndex(from); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	if err := validatePath(to); err != nil {
		return err
	}
	if IsDescendantOrSelf(to, from) {
		return fmt.Errorf("%w: cannot move %q below itself", ErrInvalidName, from)
	}
	for _, b := range s.bones {
		if !IsDescendantOrSelf(b.path, from) {
			continue
		}
		if _, ok := s.index[rebase(b.path, from, to)]; ok {
			return fmt.Errorf("%w: %q", ErrBoneExists, rebase(b.path, from, to))
		}
	}

	for i := range s.bones {
		if IsDescendantOrSelf(s.bones[i].path, from) {
			s.bones[i].path = rebase(s.bones[i].path, from, to)
		}
	}
	s.defaultPose.renameBone(from, to)
	for _, name := range s.order {
		s.animations[name].RenameBone(from, to)
	}
	for alias, path := range s.aliases {
		if IsDescendantOrSelf(path, from) {
			s.aliases[alias] = rebase(path, from, to)
		}
	}
	for i := range s.meshes {
		if IsDescendantOrSelf(s.meshes[i].Parent, from) {
			s.meshes[i].Parent = rebase(s.meshes[i].Parent, from, to)
		}
	}
	s.reindex()
	s.log.Debug("bone renamed", zap.String("from", from), zap.String("to", to))
	return nil
}

// Delete removes path and its subtree from the bone table, the default pose,
// every step, the alias table and the mesh list.
func (s *Skeleton) Delete(path string) error {
	if _, err := s.boneIndex(path); err != nil {
		return err
	}
	n := len(s.bones)
	s.bones = slices.DeleteFunc(s.bones, func(b bone) bool {
		return IsDescendantOrSelf(b.path, path)
	})
	s.defaultPose.removeSubtree(path)
	for _, name := range s.order {
		s.animations[name].removeSubtree(path)
	}
	maps.DeleteFunc(s.aliases, func(_, target string) bool {
		return IsDescendantOrSelf(target, path)
	})
	s.meshes = slices.DeleteFunc(s.meshes, func(m MeshPreview) bool {
		return IsDescendantOrSelf(m.Parent, path)
	})
	s.reindex()
	s.log.Debug("bone deleted", zap.String("path", path), zap.Int("bones", n-len(s.bones)))
	return nil
}

// Bones returns every bone path in table order.
func (s *Skeleton) Bones() []string {
	paths := make([]string, len(s.bones))
	for i, b := range s.bones {
		paths[i] = b.path
	}
	return paths
}

// BoneCount returns the number of bones.
func (s *Skeleton) BoneCount() int { return len(s.bones) }

// BoneIndex returns the table index of path.
func (s *Skeleton) BoneIndex(path string) (int, bool) {
	i, ok := s.index[path]
	return i, ok
}

// HasBone reports whether path is registered.
func (s *Skeleton) HasBone(path string) bool {
	_, ok := s.index[path]
	return ok
}

// Parent returns the path of the bone's parent, or "" for a root.
func (s *Skeleton) Parent(path string) (string, error) {
	i, err := s.boneIndex(path)
	if err != nil {
		return "", err
	}
	if p := s.bones[i].parent; p >= 0 {
		return s.bones[p].path, nil
	}
	return "", nil
}

// Children returns the direct children of path in table order.
func (s *Skeleton) Children(path string) ([]string, error) {
	i, err := s.boneIndex(path)
	if err != nil {
		return nil, err
	}
	var children []string
	for _, b := range s.bones {
		if b.parent == i {
			children = append(children, b.path)
		}
	}
	return children, nil
}

// Preview returns the display metadata of path.
func (s *Skeleton) Preview(path string) (Preview, error) {
	i, err := s.boneIndex(path)
	if err != nil {
		return Preview{}, err
	}
	return s.bones[i].preview, nil
}

// SetPreview replaces the display metadata of path.
func (s *Skeleton) SetPreview(path string, p Preview) error {
	i, err := s.boneIndex(path)
	if err != nil {
		return err
	}
	s.bones[i].preview = p
	return nil
}

// SetBoneVisible toggles whether path is drawn in previews.
func (s *Skeleton) SetBoneVisible(path string, visible bool) error {
	i, err := s.boneIndex(path)
	if err != nil {
		return err
	}
	s.bones[i].preview.Visible = visible
	return nil
}

// SetAlias binds alias to a bone given by path or by another alias. Any alias
// the bone had before is dropped, and alias is unbound from its old bone.
func (s *Skeleton) SetAlias(alias, boneOrPath string) error {
	if err := validateName(alias); err != nil {
		return err
	}
	i, err := s.ResolveBone(boneOrPath, true)
	if err != nil {
		return err
	}
	path := s.bones[i].path
	maps.DeleteFunc(s.aliases, func(_, target string) bool { return target == path })
	s.aliases[alias] = path
	return nil
}

// RemoveAlias unbinds alias. Returns false if it was not bound.
func (s *Skeleton) RemoveAlias(alias string) bool {
	if _, ok := s.aliases[alias]; !ok {
		return false
	}
	delete(s.aliases, alias)
	return true
}

// ResolveAlias returns the bone path bound to alias.
func (s *Skeleton) ResolveAlias(alias string) (string, bool) {
	path, ok := s.aliases[alias]
	return path, ok
}

// BoneAlias returns the alias bound to path, if any.
func (s *Skeleton) BoneAlias(path string) (string, bool) {
	for alias, target := range s.aliases {
		if target == path {
			return alias, true
		}
	}
	return "", false
}

// Aliases returns a copy of the alias table.
func (s *Skeleton) Aliases() map[string]string {
	return maps.Clone(s.aliases)
}

// ResolveBone maps a name to a bone index. With useAliases set, an alias wins
// over a bone path of the same spelling.
func (s *Skeleton) ResolveBone(name string, useAliases bool) (int, error) {
	if useAliases {
		if path, ok := s.aliases[name]; ok {
			name = path
		}
	}
	return s.boneIndex(name)
}

// AddMesh attaches a debug mesh to an existing bone and returns its index.
func (s *Skeleton) AddMesh(m MeshPreview) (int, error) {
	if _, err := s.boneIndex(m.Parent); err != nil {
		return -1, err
	}
	s.meshes = append(s.meshes, m)
	return len(s.meshes) - 1, nil
}

// Meshes returns the debug meshes in insertion order.
func (s *Skeleton) Meshes() []MeshPreview {
	return slices.Clone(s.meshes)
}

// DefaultPose returns the bind pose. It belongs to no animation.
func (s *Skeleton) DefaultPose() *AnimationStep { return s.defaultPose }

// DefaultBoneTransform returns the bind pose transform of path.
func (s *Skeleton) DefaultBoneTransform(path string) (Transformation, error) {
	if _, err := s.boneIndex(path); err != nil {
		return Transformation{}, err
	}
	return s.defaultPose.transformOrDefault(path), nil
}

// SetDefaultBoneTransform changes the bind pose of path. Steps that already
// resolved path from the default pose keep the old value.
func (s *Skeleton) SetDefaultBoneTransform(path string, t Transformation) error {
	if _, err := s.boneIndex(path); err != nil {
		return err
	}
	s.defaultPose.SetTransform(path, t)
	return nil
}

// CreateAnimation adds an empty animation.
func (s *Skeleton) CreateAnimation(name string) (*Animation, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if _, ok := s.animations[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrAnimationExists, name)
	}
	a := &Animation{name: name, skeleton: s}
	s.register(a)
	return a, nil
}

func (s *Skeleton) register(a *Animation) {
	s.animations[a.name] = a
	s.order = append(s.order, a.name)
	s.log.Debug("animation added", zap.String("animation", a.name), zap.Int("steps", len(a.steps)))
}

// Animation returns the named animation.
func (s *Skeleton) Animation(name string) (*Animation, error) {
	a, ok := s.animations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAnimationNotFound, name)
	}
	return a, nil
}

// AnimationNames returns animation names in creation order.
func (s *Skeleton) AnimationNames() []string {
	return slices.Clone(s.order)
}

// DeleteAnimation removes the named animation. States already playing it keep
// working on their own reference.
func (s *Skeleton) DeleteAnimation(name string) error {
	if _, err := s.Animation(name); err != nil {
		return err
	}
	delete(s.animations, name)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })
	return nil
}

// RenameAnimation changes an animation's name, keeping its position.
func (s *Skeleton) RenameAnimation(from, to string) error {
	a, err := s.Animation(from)
	if err != nil {
		return err
	}
	if err := validateName(to); err != nil {
		return err
	}
	if _, ok := s.animations[to]; ok {
		return fmt.Errorf("%w: %q", ErrAnimationExists, to)
	}
	delete(s.animations, from)
	a.name = to
	s.animations[to] = a
	s.order[slices.Index(s.order, from)] = to
	return nil
}

// CloneAnimation registers a deep copy of src under name.
func (s *Skeleton) CloneAnimation(src, name string) (*Animation, error) {
	a, err := s.Animation(src)
	if err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if _, ok := s.animations[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrAnimationExists, name)
	}
	c := a.Clone(name)
	s.register(c)
	return c, nil
}

// BeginAnimation starts a playback state at the first step of the named animation.
func (s *Skeleton) BeginAnimation(name string) (*AnimationState, error) {
	a, err := s.Animation(name)
	if err != nil {
		return nil, err
	}
	return newAnimationState(s, a), nil
}

// Warm flattens the default pose and every step so later queries do not
// mutate shared data.
func (s *Skeleton) Warm() error {
	if err := s.defaultPose.ensureFlat(); err != nil {
		return fmt.Errorf("default pose: %w", err)
	}
	for _, name := range s.order {
		for i, st := range s.animations[name].steps {
			if err := st.ensureFlat(); err != nil {
				return fmt.Errorf("animation %q step %d: %w", name, i, err)
			}
		}
	}
	return nil
}

func stepFields(a *Animation, i int) []zap.Field {
	return []zap.Field{
		zap.String("animation", a.name),
		zap.Int("step", i),
		zap.Float32("duration", a.steps[i].duration),
	}
}
