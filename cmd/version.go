package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func VersionCmd(commit string) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "print the ecomstar build",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "plain",
				Usage:   "the output type, possible values are: plain, json",
			},
		},
		Action: func(c *cli.Context) error {
			info := buildInfo{
				Version:   c.App.Version,
				Commit:    commit,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}

			return printBuildInfo(c.App.Writer, info, c.String("output"))
		},
	}
}

func printBuildInfo(w io.Writer, info buildInfo, output string) error {
	switch output {
	case "json":
		return json.NewEncoder(w).Encode(info)
	case "plain", "":
		if info.Commit == "" {
			_, err := fmt.Fprintf(w, "ecomstar %s (%s, %s)\n", info.Version, info.GoVersion, info.Platform)
			return err
		}
		_, err := fmt.Fprintf(w, "ecomstar %s, commit %s (%s, %s)\n", info.Version, info.Commit, info.GoVersion, info.Platform)
		return err
	default:
		return errors.Errorf("unknown output type '%s', expected 'plain' or 'json'", output)
	}
}
