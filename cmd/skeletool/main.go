// skeletool is a CLI utility for inspecting, editing and sampling skeleton files.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Faultbox/boneanim/internal/config"
	"github.com/Faultbox/boneanim/internal/logger"
	"github.com/Faultbox/boneanim/pkg/skeleton"
	"go.uber.org/zap"
)

type app struct {
	cfg *config.Config
	log *zap.Logger
}

func main() {
	config.ParseFlags()
	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	a := &app{cfg: cfg, log: logger.Named("skeletool")}
	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "new":
		err = a.cmdNew(args)
	case "info":
		err = a.cmdInfo(args)
	case "list-anims", "anims":
		err = a.cmdListAnims(args)
	case "sample":
		err = a.cmdSample(args)
	case "blend":
		err = a.cmdBlend(args)
	case "rename":
		err = a.cmdRename(args)
	case "split":
		err = a.cmdSplit(args)
	case "alias":
		err = a.cmdAlias(args)
	case "bench":
		err = a.cmdBench(args)
	case "import":
		err = a.cmdImport(args)
	case "export":
		err = a.cmdExport(args)
	case "library", "lib":
		err = a.cmdLibrary(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		a.log.Debug("command failed", zap.String("command", command), zap.Error(err))
		logger.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`skeletool - skeletal animation file utility

Usage:
  skeletool [-config file] [-debug] [-fps n] [-app name] <command> [options]

Commands:
  new [-demo] <file>                          Create a skeleton file
  info [-yaml] <file>                         Show bones, aliases, meshes and animations
  list-anims <file>                           List animation names
  sample [-t sec] [-len sec] <file> <anim> <bone>
                                              Print a bone's world position over time
  blend [-len sec] <file> <from> <to> <bone>  Cross-fade two animations and print a bone
  rename [-o out] <file> <from> <to>          Rename a bone and its subtree
  split [-o out] <file> <anim> <time>         Split the step containing time
  alias [-o out] [-remove] <file> <alias> [bone]
                                              Bind or remove a bone alias
  bench [-frames n] [-profile] <file> <anim>  Time playback of every bone
  import <name> <file>                        Copy a file into the skeleton library
  export <name> <file>                        Write a library skeleton to a file
  library                                     List the skeleton library

Examples:
  skeletool new -demo arm.skel
  skeletool info -yaml arm.skel
  skeletool -fps 10 sample arm.skel wave root/arm/hand
  skeletool rename arm.skel root/arm root/limb
  skeletool bench -frames 100000 -profile arm.skel wave`)
}

// usageError reports wrong arguments for a subcommand.
func usageError(usage string) error {
	return fmt.Errorf("usage: skeletool %s", usage)
}

func (a *app) open(path string) (*skeleton.Skeleton, error) {
	return skeleton.LoadFile(path, skeleton.WithLogger(logger.Named("skeleton")))
}

// save writes sk to out, or back to path when out is empty.
func (a *app) save(sk *skeleton.Skeleton, path, out string) error {
	if out == "" {
		out = path
	}
	if err := sk.SaveFile(out); err != nil {
		return err
	}
	a.log.Info("saved", zap.String("file", out))
	return nil
}
