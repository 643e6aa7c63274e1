package main

import (
	"fmt"

	"github.com/Faultbox/boneanim/internal/logger"
	"github.com/Faultbox/boneanim/internal/store"
	"github.com/Faultbox/boneanim/pkg/skeleton"
)

func (a *app) library() (*store.Library, error) {
	return store.Open(a.cfg.Store.AppName, logger.Named("store"))
}

func (a *app) cmdImport(args []string) error {
	if len(args) < 2 {
		return usageError("import <name> <file>")
	}
	sk, err := a.open(args[1])
	if err != nil {
		return err
	}
	lib, err := a.library()
	if err != nil {
		return err
	}
	return lib.Save(args[0], sk)
}

func (a *app) cmdExport(args []string) error {
	if len(args) < 2 {
		return usageError("export <name> <file>")
	}
	lib, err := a.library()
	if err != nil {
		return err
	}
	sk, err := lib.Load(args[0], skeleton.WithLogger(logger.Named("skeleton")))
	if err != nil {
		return err
	}
	return a.save(sk, args[1], "")
}

func (a *app) cmdLibrary(args []string) error {
	lib, err := a.library()
	if err != nil {
		return err
	}
	names, err := lib.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Printf("Library %s is empty\n", a.cfg.Store.AppName)
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
