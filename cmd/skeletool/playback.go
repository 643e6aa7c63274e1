package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/Faultbox/boneanim/pkg/skeleton"
	"github.com/pkg/profile"
	"go.uber.org/zap"
)

// sampleLength picks how long to sample: the explicit length, else one pass
// of the animation, else one second for empty animations.
func sampleLength(explicit float64, anim *skeleton.Animation) float32 {
	if explicit > 0 {
		return float32(explicit)
	}
	if d := anim.Duration(); d > 0 {
		return d
	}
	return 1
}

func (a *app) cmdSample(args []string) error {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	start := fs.Float64("t", 0, "Start time in seconds")
	length := fs.Float64("len", 0, "Seconds to sample (default: one pass)")
	fs.Parse(args)

	if fs.NArg() < 3 {
		return usageError("sample [-t sec] [-len sec] <file> <anim> <bone>")
	}
	sk, err := a.open(fs.Arg(0))
	if err != nil {
		return err
	}
	state, err := sk.BeginAnimation(fs.Arg(1))
	if err != nil {
		return err
	}
	state.SetRepeats(a.cfg.Playback.Repeat)
	bone := fs.Arg(2)

	dt := 1 / float32(a.cfg.Playback.FPS)
	frames := int(sampleLength(*length, state.Animation())/dt) + 1
	state.Seek(float32(*start))

	fmt.Printf("%8s %4s %6s  %s\n", "time", "step", "prog", "position")
	now := float32(*start)
	for i := 0; i < frames; i++ {
		m, err := state.BoneTransform(bone, true)
		if err != nil {
			return err
		}
		fmt.Printf("%8.3f %4d %6.3f  %s\n", now, state.StepIndex(), state.StepProgress(), formatVec(translation(m)))

		res := state.Update(dt)
		now += dt
		if res.DidFinish {
			fmt.Printf("-- %s finished (%s)\n", state.Animation().Name(), state.State())
			if state.Finished() {
				break
			}
		}
	}
	return nil
}

func (a *app) cmdBlend(args []string) error {
	fs := flag.NewFlagSet("blend", flag.ExitOnError)
	length := fs.Float64("len", 0, "Fade length in seconds (default: the from animation)")
	fs.Parse(args)

	if fs.NArg() < 4 {
		return usageError("blend [-len sec] <file> <from> <to> <bone>")
	}
	sk, err := a.open(fs.Arg(0))
	if err != nil {
		return err
	}
	from, err := sk.BeginAnimation(fs.Arg(1))
	if err != nil {
		return err
	}
	to, err := sk.BeginAnimation(fs.Arg(2))
	if err != nil {
		return err
	}
	bone := fs.Arg(3)

	blender := skeleton.NewAnimationsBlender(from, to)
	fade := sampleLength(*length, from.Animation())
	dt := 1 / float32(a.cfg.Playback.FPS)

	fmt.Printf("%8s %6s  %s\n", "time", "factor", "position")
	for now := float32(0); now <= fade+dt/2; now += dt {
		blender.SetBlendFactor(now / fade)
		m, err := blender.BoneTransform(bone, true)
		if err != nil {
			return err
		}
		fmt.Printf("%8.3f %6.3f  %s\n", now, blender.BlendFactor(), formatVec(translation(m)))

		for _, done := range blender.Update(dt) {
			side := "to"
			if done.FromSide {
				side = "from"
			}
			fmt.Printf("-- %s side %s finished\n", side, done.Animation)
		}
	}
	return nil
}

func (a *app) cmdBench(args []string) error {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	frames := fs.Int("frames", 10000, "Frames to simulate")
	cpuProfile := fs.Bool("profile", false, "Write a CPU profile to the working directory")
	fs.Parse(args)

	if fs.NArg() < 2 {
		return usageError("bench [-frames n] [-profile] <file> <anim>")
	}
	sk, err := a.open(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := sk.Warm(); err != nil {
		return err
	}
	state, err := sk.BeginAnimation(fs.Arg(1))
	if err != nil {
		return err
	}
	state.SetRepeats(true)

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	dt := 1 / float32(a.cfg.Playback.FPS)
	bones := sk.BoneCount()
	begin := time.Now()
	for i := 0; i < *frames; i++ {
		state.Update(dt)
		for b := 0; b < bones; b++ {
			if _, err := state.BoneTransformAt(b); err != nil {
				return err
			}
		}
	}
	elapsed := time.Since(begin)

	queries := *frames * bones
	fmt.Printf("Frames:     %d (%d bones)\n", *frames, bones)
	fmt.Printf("Total:      %v\n", elapsed)
	if *frames > 0 {
		fmt.Printf("Per frame:  %v\n", elapsed/time.Duration(*frames))
	}
	if queries > 0 {
		fmt.Printf("Per bone:   %v\n", elapsed/time.Duration(queries))
	}
	a.log.Debug("bench done", zap.Int("frames", *frames), zap.Duration("elapsed", elapsed))
	return nil
}
