package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v2"

	"vfptrap"
	"vfptrap/emu"
	"vfptrap/internal/trace"
)

func main() {
	app := &cli.App{
		Name:  "vfptrap",
		Usage: "ARM VFP software-emulation instrumentation engine",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug-level trace logging",
			},
		},
		Before: func(c *cli.Context) error {
			trace.SetVerbose(c.Bool("verbose"))
			return nil
		},
		Commands: []*cli.Command{
			scanCommand(),
			installCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "dry-run the engine against a file, reporting what would be patched",
		ArgsUsage: "file baseaddr",
		Action: func(c *cli.Context) error {
			args := c.Args()
			if args.Len() < 2 {
				return cli.Exit("Insufficient arguments", 1)
			}

			data, err := os.ReadFile(args.Get(0))
			if err != nil {
				return cli.Exit(err, 1)
			}
			var base uint64
			if _, err := fmt.Sscanf(args.Get(1), "0x%x", &base); err != nil {
				if _, err := fmt.Sscanf(args.Get(1), "%d", &base); err != nil {
					return cli.Exit("Could not parse baseaddr", 1)
				}
			}

			bank := emu.NewBank()
			factory := vfptrap.NewFactory(fakeDryRunAllocator{}, vfptrap.DefaultRoutines(bank))
			installer := vfptrap.NewInstaller(fakeDryRunWriter{})
			mem := vfptrap.FileMemory{Base: uintptr(base), Data: data}

			mapping := vfptrap.Mapping{
				Start: uintptr(base),
				End:   uintptr(base) + uintptr(len(data)),
				Read:  true,
				Exec:  true,
				Rest:  args.Get(0),
			}
			engine, err := vfptrap.New(
				fakeSingleMappingSource{mapping},
				fakeWholeFileMetaSource{data: data, base: uintptr(base)},
				vfptrap.ArmClassifier{},
				factory,
				installer,
				mem,
				vfptrap.Options{ContinueOnPlacementFailure: true},
			)
			if err != nil {
				return cli.Exit(err, 1)
			}

			n, err := engine.Run(context.Background())
			fmt.Printf("would install %d probe(s)\n", n)
			if err != nil {
				return cli.Exit(err, 1)
			}
			return nil
		},
	}
}

func installCommand() *cli.Command {
	return &cli.Command{
		Name:  "install",
		Usage: "run the engine against the current process's own mappings",
		Action: func(c *cli.Context) error {
			bank := emu.NewBank()
			factory := vfptrap.NewFactory(vfptrap.NewPageAllocator(), vfptrap.DefaultRoutines(bank))
			installer := vfptrap.NewInstaller(vfptrap.NewMemWriter())

			engine, err := vfptrap.New(
				vfptrap.ProcSelfMappings{},
				vfptrap.NewELFFileMetaSource(),
				vfptrap.ArmClassifier{},
				factory,
				installer,
				vfptrap.NewLiveMemory(),
				vfptrap.Options{},
			)
			if err != nil {
				return cli.Exit(err, 1)
			}

			n, err := engine.Run(context.Background())
			if err != nil {
				return cli.Exit(err, 1)
			}
			fmt.Printf("installed %d probe(s)\n", n)
			return nil
		},
	}
}
