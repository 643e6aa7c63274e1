package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Faultbox/boneanim/pkg/math"
	"github.com/Faultbox/boneanim/pkg/skeleton"
	"gopkg.in/yaml.v3"
)

type summary struct {
	File       string             `yaml:"file"`
	Bones      []boneSummary      `yaml:"bones,omitempty"`
	Meshes     []meshSummary      `yaml:"meshes,omitempty"`
	Aliases    map[string]string  `yaml:"aliases,omitempty"`
	Animations []animationSummary `yaml:"animations"`
}

type boneSummary struct {
	Path       string     `yaml:"path"`
	Parent     string     `yaml:"parent,omitempty"`
	Alias      string     `yaml:"alias,omitempty"`
	Visible    bool       `yaml:"visible"`
	Position   [3]float32 `yaml:"position,flow"`
	Axis       [3]float32 `yaml:"axis,flow"`
	Length     float32    `yaml:"length"`
	MarkerSize float32    `yaml:"marker_size"`
}

type meshSummary struct {
	Parent   string     `yaml:"parent"`
	Offset   [3]float32 `yaml:"offset,flow"`
	Position [3]float32 `yaml:"position,flow"`
}

type animationSummary struct {
	Name     string        `yaml:"name"`
	Repeats  bool          `yaml:"repeats"`
	Duration float32       `yaml:"duration"`
	Steps    []stepSummary `yaml:"steps"`
}

type stepSummary struct {
	Name     string  `yaml:"name"`
	Duration float32 `yaml:"duration"`
	Position string  `yaml:"position"`
	Scale    string  `yaml:"scale"`
	Rotation string  `yaml:"rotation"`
}

// boneAxis is the local direction a bone marker points along.
var boneAxis = [3]float32{0, 1, 0}

// summarize collects what info prints. Bones and meshes are included when
// the preview configuration shows them; positions are in the default pose.
// Length is the distance from the parent joint, 0 for roots.
func (a *app) summarize(path string, sk *skeleton.Skeleton) (summary, error) {
	s := summary{File: path, Aliases: sk.Aliases()}
	pose := sk.DefaultPose()

	if a.cfg.Preview.ShowBones {
		for i, bp := range sk.Bones() {
			fb, err := pose.Bone(i)
			if err != nil {
				return s, err
			}
			parent, _ := sk.Parent(bp)
			alias, _ := sk.BoneAlias(bp)
			preview, _ := sk.Preview(bp)

			pos := fb.World.Translation()
			var length float32
			if fb.Parent >= 0 {
				pb, err := pose.Bone(fb.Parent)
				if err != nil {
					return s, err
				}
				length = pos.Distance(pb.World.Translation())
			}
			s.Bones = append(s.Bones, boneSummary{
				Path:       bp,
				Parent:     parent,
				Alias:      alias,
				Visible:    preview.Visible,
				Position:   pos.Array(),
				Axis:       fb.World.TransformDirection(boneAxis),
				Length:     length,
				MarkerSize: a.cfg.Preview.BoneSize,
			})
		}
	}
	if a.cfg.Preview.ShowMeshes {
		for _, m := range sk.Meshes() {
			fb, err := pose.BoneByPath(m.Parent, true)
			if err != nil {
				return s, err
			}
			s.Meshes = append(s.Meshes, meshSummary{
				Parent:   m.Parent,
				Offset:   m.Offset.Array(),
				Position: fb.World.TransformVec3(m.Offset).Array(),
			})
		}
	}

	for _, name := range sk.AnimationNames() {
		anim, err := sk.Animation(name)
		if err != nil {
			return s, err
		}
		as := animationSummary{Name: name, Repeats: anim.Repeats(), Duration: anim.Duration()}
		for _, st := range anim.Steps() {
			as.Steps = append(as.Steps, stepSummary{
				Name:     st.Name,
				Duration: st.Duration(),
				Position: st.PositionInterpolation().String(),
				Scale:    st.ScaleInterpolation().String(),
				Rotation: st.RotationInterpolation().String(),
			})
		}
		s.Animations = append(s.Animations, as)
	}
	return s, nil
}

func (a *app) cmdInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	asYAML := fs.Bool("yaml", false, "Print the summary as YAML")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return usageError("info [-yaml] <file>")
	}
	sk, err := a.open(fs.Arg(0))
	if err != nil {
		return err
	}
	s, err := a.summarize(fs.Arg(0), sk)
	if err != nil {
		return err
	}

	if *asYAML {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(s)
	}

	fmt.Printf("Skeleton:   %s\n", s.File)
	fmt.Printf("Bones:      %d\n", sk.BoneCount())
	fmt.Printf("Meshes:     %d\n", len(sk.Meshes()))
	fmt.Printf("Animations: %d\n", len(s.Animations))

	if len(s.Bones) > 0 {
		fmt.Println()
		fmt.Println("Bones:")
		for _, b := range s.Bones {
			depth := strings.Count(b.Path, skeleton.PathSeparator)
			label := skeleton.LeafName(b.Path)
			if b.Alias != "" {
				label += " (" + b.Alias + ")"
			}
			if !b.Visible {
				label += " [hidden]"
			}
			fmt.Printf("  %s%-*s %s len=%.3f\n", strings.Repeat("  ", depth), 24-2*depth, label, formatVec(b.Position), b.Length)
		}
	}

	for _, as := range s.Animations {
		fmt.Println()
		fmt.Printf("Animation %s: %d steps, %.3fs, repeats=%t\n", as.Name, len(as.Steps), as.Duration, as.Repeats)
		for i, st := range as.Steps {
			fmt.Printf("  %2d %-12s %7.3fs  pos=%s scale=%s rot=%s\n", i, st.Name, st.Duration, st.Position, st.Scale, st.Rotation)
		}
	}
	return nil
}

func formatVec(v [3]float32) string {
	return fmt.Sprintf("(%7.3f, %7.3f, %7.3f)", v[0], v[1], v[2])
}

// translation returns where m places the local origin.
func translation(m math.Mat4) [3]float32 {
	return m.TransformVec3(math.Zero3()).Array()
}
