package cmd

import (
	"os"

	"github.com/bruin-data/ecomstar/pkg/report"
	"github.com/urfave/cli/v2"
)

func Report(isDebug *bool) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "print the sales analytics of the star schema",
		Flags: []cli.Flag{
			configFlag(),
			environmentFlag(),
			logFileFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "the number of rows of the ranked breakdowns",
				Value: report.DefaultLimit,
			},
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "run the queries of this SQL file instead, the report tables are available as variables, e.g. {{ fact_table }}",
			},
		},
		Action: func(c *cli.Context) error {
			defer RecoverFromPanic()

			s, err := openSession(c, *isDebug)
			if err != nil {
				return err
			}
			defer s.Close()

			reporter := report.NewReporter(s.client, fs, c.Int("limit"), s.logger)

			if file := c.String("file"); file != "" {
				tables, err := reporter.RunFile(c.Context, file)
				if err != nil {
					errorPrinter.Printf("Failed to run '%s': %v\n", file, err)
					return cli.Exit("", 1)
				}

				report.RenderTables(os.Stdout, tables)
				return nil
			}

			rep, err := reporter.Build(c.Context)
			if err != nil {
				errorPrinter.Printf("Failed to build the report: %v\n", err)
				return cli.Exit("", 1)
			}

			rep.Render(os.Stdout)
			return nil
		},
	}
}
