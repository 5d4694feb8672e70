package cmd

import (
	"os"

	"github.com/bruin-data/ecomstar/pkg/loader"
	"github.com/bruin-data/ecomstar/pkg/path"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"
)

func Load(isDebug *bool) *cli.Command {
	return &cli.Command{
		Name:      "load",
		Usage:     "load CSV exports into raw tables, one table per file named after it",
		ArgsUsage: "[csv files or directories]",
		Flags: []cli.Flag{
			configFlag(),
			environmentFlag(),
			logFileFlag(),
			forceFlag(),
		},
		Action: func(c *cli.Context) error {
			defer RecoverFromPanic()

			if c.NArg() == 0 {
				errorPrinter.Println("Please give at least one CSV file or directory to load.")
				return cli.Exit("", 1)
			}

			files, err := path.ExpandFiles(fs, c.Args().Slice(), csvSuffixes)
			if err != nil {
				errorPrinter.Printf("Failed to list the files to load: %v\n", err)
				return cli.Exit("", 1)
			}

			s, err := openSession(c, *isDebug)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := confirmEnvironment(s.config.SelectedEnvironmentName, c.Bool("force"), os.Stdin); err != nil {
				return err
			}

			l := loader.NewLoader(fs, s.client, s.options.InsertBatchSize, s.logger)
			results := l.LoadAll(c.Context, files)

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"File", "Table", "Columns", "Rows", "Error"})

			failed := 0
			for _, res := range results {
				errMessage := ""
				if res.Err != nil {
					failed++
					errMessage = res.Err.Error()
				}
				t.AppendRow(table.Row{faint(res.File), res.Table, len(res.Columns), res.Rows, errMessage})
			}
			t.Render()

			if failed > 0 {
				errorPrinter.Printf("%d of %d file(s) failed to load\n", failed, len(results))
				return cli.Exit("", 1)
			}

			successPrinter.Printf("Loaded %d file(s)\n", len(results))
			return nil
		},
	}
}
