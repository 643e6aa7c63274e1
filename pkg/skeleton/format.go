package skeleton

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/boneanim/pkg/math"
	"go.uber.org/zap"
	"gopkg.in/ini.v1"
)

// Section names of the persisted format.
const (
	sectionBones      = "bones"
	sectionMeshes     = "meshes"
	sectionAliases    = "aliases"
	sectionAnimations = "animations"
	animationPrefix   = "animation_"
)

// Names never contain a backtick, so no section is treated as a child of another.
var loadOptions = ini.LoadOptions{
	IgnoreInlineComment:   true,
	IgnoreContinuation:    true,
	ChildSectionDelimiter: "`",
}

// LoadFile reads a skeleton from the file at path.
func LoadFile(path string, opts ...Option) (*Skeleton, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skeleton: %w", err)
	}
	return Load(bytes.NewReader(data), opts...)
}

// Load parses a skeleton. Bones are read first so step records can be matched
// to bone indices. Either the whole skeleton loads or an error is returned.
func Load(r io.Reader, opts ...Option) (*Skeleton, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read skeleton: %w", err)
	}
	f, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedData, err)
	}

	sk := New(opts...)
	if err := loadBones(sk, f); err != nil {
		return nil, err
	}
	if err := loadMeshes(sk, f); err != nil {
		return nil, err
	}
	if err := loadAliases(sk, f); err != nil {
		return nil, err
	}
	if err := loadAnimations(sk, f); err != nil {
		return nil, err
	}

	sk.log.Debug("skeleton loaded",
		zap.Int("bones", len(sk.bones)),
		zap.Int("meshes", len(sk.meshes)),
		zap.Int("aliases", len(sk.aliases)),
		zap.Int("animations", len(sk.order)))
	return sk, nil
}

func loadBones(sk *Skeleton, f *ini.File) error {
	raw, err := f.GetSection(sectionBones)
	if err != nil {
		return fmt.Errorf("%w: missing [%s]", ErrMalformedData, sectionBones)
	}
	sec := section{raw}
	count, err := sec.count("count")
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		prefix := fmt.Sprintf("bone_%d_", i)
		path, err := sec.str(prefix + "path")
		if err != nil {
			return err
		}
		t, err := sec.transformation(prefix)
		if err != nil {
			return err
		}
		if err := sk.AddBone(path, t.Offset, t.Rotation, t.Scale); err != nil {
			return fmt.Errorf("%w: bone %d: %w", ErrMalformedData, i, err)
		}
	}
	return nil
}

func loadMeshes(sk *Skeleton, f *ini.File) error {
	raw, err := f.GetSection(sectionMeshes)
	if err != nil {
		return nil
	}
	sec := section{raw}
	count, err := sec.count("count")
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		prefix := fmt.Sprintf("mesh_%d_", i)
		var m MeshPreview
		if m.Parent, err = sec.str(prefix + "parent"); err != nil {
			return err
		}
		if m.Offset, err = sec.vec(prefix + "offset"); err != nil {
			return err
		}
		if m.Scale, err = sec.vec(prefix + "scale"); err != nil {
			return err
		}
		if m.Rotation, err = sec.vec(prefix + "rotation"); err != nil {
			return err
		}
		if _, err := sk.AddMesh(m); err != nil {
			return fmt.Errorf("%w: mesh %d: %w", ErrMalformedData, i, err)
		}
	}
	return nil
}

func loadAliases(sk *Skeleton, f *ini.File) error {
	sec, err := f.GetSection(sectionAliases)
	if err != nil {
		return nil
	}
	for _, k := range sec.Keys() {
		if err := sk.SetAlias(k.Name(), k.String()); err != nil {
			return fmt.Errorf("%w: alias %q: %w", ErrMalformedData, k.Name(), err)
		}
	}
	return nil
}

func loadAnimations(sk *Skeleton, f *ini.File) error {
	raw, err := f.GetSection(sectionAnimations)
	if err != nil {
		return nil
	}
	keys, err := section{raw}.str("keys")
	if err != nil || keys == "" {
		return nil
	}
	for _, name := range strings.Split(keys, ",") {
		name = strings.TrimSpace(name)
		a, err := sk.CreateAnimation(name)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedData, err)
		}
		raw, err := f.GetSection(animationPrefix + name)
		if err != nil {
			return fmt.Errorf("%w: missing [%s%s]", ErrMalformedData, animationPrefix, name)
		}
		if err := loadAnimation(sk, a, section{raw}); err != nil {
			return fmt.Errorf("animation %q: %w", name, err)
		}
	}
	return nil
}

func loadAnimation(sk *Skeleton, a *Animation, sec section) error {
	count, err := sec.count("steps_count")
	if err != nil {
		return err
	}
	if a.repeats, err = sec.bool("repeats"); err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		prefix := fmt.Sprintf("step_%d_", i)
		name, err := sec.str(prefix + "name")
		if err != nil {
			return err
		}
		if err := validateStepName(name); err != nil {
			return sec.bad(prefix+"name", err)
		}
		d, err := sec.float(prefix + "duration")
		if err != nil {
			return err
		}
		if !(d > 0) {
			return fmt.Errorf("%w: step %d: %w: %v", ErrMalformedData, i, ErrInvalidDuration, d)
		}
		st := newStep(sk, name, d)
		if err := sec.interpolations(st, prefix); err != nil {
			return err
		}

		// Bone records missing from the file fall back to the default pose.
		for j, b := range sk.bones {
			bp := fmt.Sprintf("%sbone_%d_", prefix, j)
			if !sec.raw.HasKey(bp + "offset") {
				continue
			}
			t, err := sec.transformation(bp)
			if err != nil {
				return err
			}
			st.transforms[b.path] = t
		}
		a.steps = append(a.steps, st)
	}
	return nil
}

// section reads typed values and reports missing or bad keys as ErrMalformedData.
type section struct {
	raw *ini.Section
}

func (s section) key(name string) (*ini.Key, error) {
	k, err := s.raw.GetKey(name)
	if err != nil {
		return nil, fmt.Errorf("%w: [%s] missing %s", ErrMalformedData, s.raw.Name(), name)
	}
	return k, nil
}

func (s section) bad(name string, err error) error {
	return fmt.Errorf("%w: [%s] %s: %w", ErrMalformedData, s.raw.Name(), name, err)
}

func (s section) str(name string) (string, error) {
	k, err := s.key(name)
	if err != nil {
		return "", err
	}
	return k.String(), nil
}

func (s section) count(name string) (int, error) {
	k, err := s.key(name)
	if err != nil {
		return 0, err
	}
	n, err := k.Int()
	if err != nil {
		return 0, s.bad(name, err)
	}
	if n < 0 {
		return 0, s.bad(name, fmt.Errorf("negative count %d", n))
	}
	return n, nil
}

func (s section) float(name string) (float32, error) {
	k, err := s.key(name)
	if err != nil {
		return 0, err
	}
	v, err := k.Float64()
	if err != nil {
		return 0, s.bad(name, err)
	}
	return float32(v), nil
}

func (s section) bool(name string) (bool, error) {
	k, err := s.key(name)
	if err != nil {
		return false, err
	}
	v, err := k.Bool()
	if err != nil {
		return false, s.bad(name, err)
	}
	return v, nil
}

func (s section) vec(name string) (math.Vec3, error) {
	k, err := s.key(name)
	if err != nil {
		return math.Vec3{}, err
	}
	v, err := parseVec3(k.String())
	if err != nil {
		return math.Vec3{}, s.bad(name, err)
	}
	return v, nil
}

func (s section) transformation(prefix string) (Transformation, error) {
	var t Transformation
	var err error
	if t.Offset, err = s.vec(prefix + "offset"); err != nil {
		return t, err
	}
	if t.Rotation, err = s.vec(prefix + "rotation"); err != nil {
		return t, err
	}
	if t.Scale, err = s.vec(prefix + "scale"); err != nil {
		return t, err
	}
	return t, nil
}

func (s section) interpolations(st *AnimationStep, prefix string) error {
	setters := []struct {
		key string
		set func(Interpolation) error
	}{
		{prefix + "inter_position", st.SetPositionInterpolation},
		{prefix + "inter_scale", st.SetScaleInterpolation},
		{prefix + "inter_rotation", st.SetRotationInterpolation},
	}
	for _, it := range setters {
		name, err := s.str(it.key)
		if err != nil {
			return err
		}
		mode, err := ParseInterpolation(name)
		if err != nil {
			return s.bad(it.key, err)
		}
		if err := it.set(mode); err != nil {
			return s.bad(it.key, err)
		}
	}
	return nil
}

func parseVec3(s string) (math.Vec3, error) {
	s = strings.Trim(strings.TrimSpace(s), "()")
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return math.Vec3{}, fmt.Errorf("want 3 components, got %q", s)
	}
	var v [3]float32
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return math.Vec3{}, err
		}
		v[i] = float32(f)
	}
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}

func formatVec3(v math.Vec3) string {
	return formatFloat(v.X) + "," + formatFloat(v.Y) + "," + formatFloat(v.Z)
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

// SaveFile writes the skeleton to path, replacing any existing file.
func (s *Skeleton) SaveFile(path string) error {
	var buf bytes.Buffer
	if err := s.Save(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write skeleton: %w", err)
	}
	return nil
}

// Save writes the skeleton. Bones are written in table order and every step
// carries a record for every bone, resolved from the default pose if needed.
// Step names set directly on the Name field are checked here.
func (s *Skeleton) Save(w io.Writer) error {
	for _, name := range s.order {
		for i, st := range s.animations[name].steps {
			if err := validateStepName(st.Name); err != nil {
				return fmt.Errorf("animation %q step %d: %w", name, i, err)
			}
		}
	}

	f := ini.Empty()
	sw := sectionWriter{f: f}

	sw.section(sectionBones)
	sw.set("count", strconv.Itoa(len(s.bones)))
	for i, b := range s.bones {
		prefix := fmt.Sprintf("bone_%d_", i)
		sw.set(prefix+"path", b.path)
		sw.transformation(prefix, s.defaultPose.transformOrDefault(b.path))
	}

	sw.section(sectionMeshes)
	sw.set("count", strconv.Itoa(len(s.meshes)))
	for i, m := range s.meshes {
		prefix := fmt.Sprintf("mesh_%d_", i)
		sw.set(prefix+"parent", m.Parent)
		sw.set(prefix+"offset", formatVec3(m.Offset))
		sw.set(prefix+"scale", formatVec3(m.Scale))
		sw.set(prefix+"rotation", formatVec3(m.Rotation))
	}

	// Aliases follow bone order so output is stable.
	sw.section(sectionAliases)
	for _, b := range s.bones {
		if alias, ok := s.BoneAlias(b.path); ok {
			sw.set(alias, b.path)
		}
	}

	sw.section(sectionAnimations)
	sw.set("keys", strings.Join(s.order, ","))
	for _, name := range s.order {
		a := s.animations[name]
		sw.section(animationPrefix + name)
		sw.set("steps_count", strconv.Itoa(len(a.steps)))
		sw.set("repeats", strconv.FormatBool(a.repeats))
		for i, st := range a.steps {
			prefix := fmt.Sprintf("step_%d_", i)
			sw.set(prefix+"name", st.Name)
			sw.set(prefix+"duration", formatFloat(st.duration))
			sw.set(prefix+"inter_position", st.positionInterp.String())
			sw.set(prefix+"inter_scale", st.scaleInterp.String())
			sw.set(prefix+"inter_rotation", st.rotationInterp.String())
			for j, b := range s.bones {
				sw.transformation(fmt.Sprintf("%sbone_%d_", prefix, j), st.transformOrDefault(b.path))
			}
		}
	}

	if sw.err != nil {
		return fmt.Errorf("encode skeleton: %w", sw.err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write skeleton: %w", err)
	}
	s.log.Debug("skeleton saved", zap.Int("bones", len(s.bones)), zap.Int("animations", len(s.order)))
	return nil
}

// sectionWriter keeps the first error so Save can emit keys without checking each one.
type sectionWriter struct {
	f   *ini.File
	sec *ini.Section
	err error
}

func (w *sectionWriter) section(name string) {
	if w.err != nil {
		return
	}
	w.sec, w.err = w.f.NewSection(name)
}

func (w *sectionWriter) set(key, value string) {
	if w.err != nil {
		return
	}
	_, w.err = w.sec.NewKey(key, value)
}

func (w *sectionWriter) transformation(prefix string, t Transformation) {
	w.set(prefix+"offset", formatVec3(t.Offset))
	w.set(prefix+"rotation", formatVec3(t.Rotation))
	w.set(prefix+"scale", formatVec3(t.Scale))
}
