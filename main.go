package main

import (
	"os"
	"time"

	"github.com/bruin-data/ecomstar/cmd"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = ""
)

func main() {
	isDebug := false
	color.NoColor = os.Getenv("NO_COLOR") != ""

	versionCommand := cmd.VersionCmd(commit)

	cli.VersionPrinter = func(cCtx *cli.Context) {
		err := versionCommand.Action(cCtx)
		if err != nil {
			panic(err)
		}
	}

	app := &cli.App{
		Name:     "ecomstar",
		Version:  version,
		Usage:    "Load, transform and model e-commerce orders into a star schema",
		Compiled: time.Now(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "debug",
				Value:       false,
				Usage:       "show debug information",
				Destination: &isDebug,
			},
		},
		Commands: []*cli.Command{
			cmd.Init(),
			cmd.Load(&isDebug),
			cmd.Run(&isDebug),
			cmd.Transform(&isDebug),
			cmd.Build(&isDebug),
			cmd.Report(&isDebug),
			cmd.Environments(&isDebug),
			versionCommand,
		},
	}

	_ = app.Run(os.Args)
}
