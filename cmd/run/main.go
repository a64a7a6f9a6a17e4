package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/urfave/cli/v2"
)

// pairlab CLI：對名冊做單次配對、Monte Carlo 模擬或兩人評分。
//
//	go run ./cmd/run match --rid 1 --seed 42
//	go run ./cmd/run --pprof cpu sim --rid 1 --runs 100000 --workers 8
//	go run ./cmd/run score --roster ./rosters/campus.yaml --a Avery --b Blake
func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error: ", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "pairlab",
		Usage: "Stable one-to-one matching over questionnaire rosters",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "pprof",
				Usage: "profile the command: cpu, heap or allocs",
			},
			&cli.StringFlag{
				Name:  "pprof-dir",
				Usage: "directory for profile output",
			},
			&cli.StringFlag{
				Name:  "log-mode",
				Value: "silence",
				Usage: "log mode: dev, prod or silence",
			},
		},
		Commands: []*cli.Command{
			rostersCmd,
			matchCmd,
			simCmd,
			scoreCmd,
		},
	}
}

var rosterFlag = &cli.StringFlag{
	Name:    "roster",
	Aliases: []string{"r"},
	Usage:   "roster file or directory (default: embedded demo rosters)",
}

var ridFlag = &cli.UintFlag{
	Name:  "rid",
	Value: 1,
	Usage: "roster id",
}

var formatFlag = &cli.StringFlag{
	Name:    "format",
	Aliases: []string{"f"},
	Value:   "text",
	Usage:   "output format: text, json or yaml",
}

var seedFlag = &cli.Int64Flag{
	Name:  "seed",
	Usage: "int64 seed for the random number generator (0 = random)",
}

var filterFlag = &cli.StringFlag{
	Name:  "filter",
	Usage: "candidate filter: score or orientation (default: roster setting)",
}

var maxRoundsFlag = &cli.IntFlag{
	Name:  "max-rounds",
	Usage: "fail when proposals need more rounds than this (0 = unlimited)",
}

var rostersCmd = &cli.Command{
	Name:    "rosters",
	Usage:   "List registered rosters",
	Aliases: []string{"ls"},
	Flags:   []cli.Flag{rosterFlag, formatFlag},
	Action: func(c *cli.Context) error {
		return profiled(c, func() error { return doRosters(c) })
	},
}

var matchCmd = &cli.Command{
	Name:    "match",
	Usage:   "Partition a roster and run one deferred-acceptance matching",
	Aliases: []string{"m"},
	Flags: []cli.Flag{
		rosterFlag, ridFlag, seedFlag, filterFlag, maxRoundsFlag, formatFlag,
		&cli.StringFlag{
			Name:  "matrix",
			Usage: "match a whitespace separated score matrix file instead of a roster",
		},
		&cli.StringSliceFlag{
			Name:  "genders",
			Usage: "gender identity per member, used with --matrix",
		},
		&cli.StringSliceFlag{
			Name:  "prefs",
			Usage: "orientation preference per member, used with --matrix",
		},
		&cli.StringFlag{
			Name:  "state-in",
			Usage: "replay from an RNG snapshot file written by --state-out",
		},
		&cli.StringFlag{
			Name:  "state-out",
			Usage: "write the RNG snapshot taken before partitioning",
		},
	},
	Action: func(c *cli.Context) error {
		return profiled(c, func() error { return doMatch(c) })
	},
}

var simCmd = &cli.Command{
	Name:    "sim",
	Usage:   "Run a Monte Carlo simulation of repeated matchings",
	Aliases: []string{"s"},
	Flags: []cli.Flag{
		rosterFlag, ridFlag, seedFlag, filterFlag, maxRoundsFlag, formatFlag,
		&cli.IntFlag{
			Name:  "runs",
			Value: 10000,
			Usage: "number of matchings",
		},
		&cli.IntFlag{
			Name:  "workers",
			Value: runtime.NumCPU(),
			Usage: "number of parallel workers",
		},
		&cli.BoolFlag{
			Name:  "members",
			Usage: "include per-member match rates",
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "hide the progress bar",
		},
	},
	Action: func(c *cli.Context) error {
		return profiled(c, func() error { return doSim(c) })
	},
}

var scoreCmd = &cli.Command{
	Name:  "score",
	Usage: "Show the score breakdown of two members, or dump the score matrix",
	Flags: []cli.Flag{
		rosterFlag, ridFlag, formatFlag,
		&cli.StringFlag{Name: "a", Usage: "first member name"},
		&cli.StringFlag{Name: "b", Usage: "second member name"},
		&cli.BoolFlag{Name: "dump", Usage: "print the whole score matrix as text"},
	},
	Action: func(c *cli.Context) error {
		return profiled(c, func() error { return doScore(c) })
	},
}
