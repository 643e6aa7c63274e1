package main

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/Faultbox/boneanim/internal/logger"
	"github.com/Faultbox/boneanim/pkg/math"
	"github.com/Faultbox/boneanim/pkg/skeleton"
	"go.uber.org/zap"
)

func (a *app) cmdNew(args []string) error {
	fs := flag.NewFlagSet("new", flag.ExitOnError)
	demo := fs.Bool("demo", false, "Add an arm rig with a wave animation")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return usageError("new [-demo] <file>")
	}

	sk := skeleton.New(skeleton.WithLogger(logger.Named("skeleton")))
	if err := sk.AddBone("root", math.Zero3(), math.Zero3(), math.One3()); err != nil {
		return err
	}
	if *demo {
		if err := a.buildDemo(sk); err != nil {
			return err
		}
	}
	return a.save(sk, fs.Arg(0), "")
}

// buildDemo adds an arm that waves between 0° and 90° of roll.
func (a *app) buildDemo(sk *skeleton.Skeleton) error {
	up := math.Vec3{Y: 1}
	for _, path := range []string{"root/arm", "root/arm/hand"} {
		if err := sk.AddBone(path, up, math.Zero3(), math.One3()); err != nil {
			return err
		}
	}
	if err := sk.SetAlias("hand", "root/arm/hand"); err != nil {
		return err
	}
	if _, err := sk.AddMesh(skeleton.MeshPreview{
		Parent: "root/arm",
		Offset: math.Vec3{Y: 0.5},
		Scale:  math.Vec3{X: 0.2, Y: 1, Z: 0.2},
	}); err != nil {
		return err
	}

	wave, err := sk.CreateAnimation("wave")
	if err != nil {
		return err
	}
	wave.SetRepeats(a.cfg.Playback.Repeat)
	d := a.cfg.Playback.DefaultStepDuration
	for i, roll := range []float32{0, 90} {
		st, err := wave.AddStep(fmt.Sprintf("pose%d", i), d, nil)
		if err != nil {
			return err
		}
		st.SetTransform("root/arm", skeleton.Transformation{
			Offset:   up,
			Rotation: math.Vec3{Z: roll},
			Scale:    math.One3(),
		})
	}

	idle, err := sk.CreateAnimation("idle")
	if err != nil {
		return err
	}
	_, err = idle.AddStep("rest", d, nil)
	return err
}

func (a *app) cmdListAnims(args []string) error {
	if len(args) < 1 {
		return usageError("list-anims <file>")
	}
	sk, err := a.open(args[0])
	if err != nil {
		return err
	}
	for _, name := range sk.AnimationNames() {
		fmt.Println(name)
	}
	return nil
}

func (a *app) cmdRename(args []string) error {
	fs := flag.NewFlagSet("rename", flag.ExitOnError)
	out := fs.String("o", "", "Output file (default: overwrite input)")
	fs.Parse(args)

	if fs.NArg() < 3 {
		return usageError("rename [-o out] <file> <from> <to>")
	}
	sk, err := a.open(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := sk.RenameBone(fs.Arg(1), fs.Arg(2)); err != nil {
		return err
	}
	return a.save(sk, fs.Arg(0), *out)
}

func (a *app) cmdSplit(args []string) error {
	fs := flag.NewFlagSet("split", flag.ExitOnError)
	out := fs.String("o", "", "Output file (default: overwrite input)")
	fs.Parse(args)

	if fs.NArg() < 3 {
		return usageError("split [-o out] <file> <anim> <time>")
	}
	t, err := strconv.ParseFloat(fs.Arg(2), 32)
	if err != nil {
		return fmt.Errorf("time %q: %w", fs.Arg(2), err)
	}

	sk, err := a.open(fs.Arg(0))
	if err != nil {
		return err
	}
	anim, err := sk.Animation(fs.Arg(1))
	if err != nil {
		return err
	}
	split, err := anim.Split(float32(t))
	if err != nil {
		return err
	}
	if !split {
		fmt.Printf("%s: %.3fs is a step boundary or outside the animation, nothing to split\n", anim.Name(), t)
		return nil
	}
	a.log.Info("split", zap.String("animation", anim.Name()), zap.Float64("time", t), zap.Int("steps", anim.Len()))
	return a.save(sk, fs.Arg(0), *out)
}

func (a *app) cmdAlias(args []string) error {
	fs := flag.NewFlagSet("alias", flag.ExitOnError)
	out := fs.String("o", "", "Output file (default: overwrite input)")
	remove := fs.Bool("remove", false, "Remove the alias instead of binding it")
	fs.Parse(args)

	if fs.NArg() < 2 || (!*remove && fs.NArg() < 3) {
		return usageError("alias [-o out] [-remove] <file> <alias> [bone]")
	}
	sk, err := a.open(fs.Arg(0))
	if err != nil {
		return err
	}

	alias := fs.Arg(1)
	if *remove {
		if !sk.RemoveAlias(alias) {
			return fmt.Errorf("alias %q is not bound", alias)
		}
	} else if err := sk.SetAlias(alias, fs.Arg(2)); err != nil {
		return err
	}
	return a.save(sk, fs.Arg(0), *out)
}
