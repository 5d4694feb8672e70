package cmd

import (
	"os"

	"github.com/bruin-data/ecomstar/pkg/dimension"
	"github.com/bruin-data/ecomstar/pkg/fact"
	"github.com/bruin-data/ecomstar/pkg/pipeline"
	"github.com/bruin-data/ecomstar/pkg/staging"
	"github.com/urfave/cli/v2"
)

func Run(isDebug *bool) *cli.Command {
	return stageCommand(isDebug, "run", "transform the raw tables and rebuild the star schema", pipeline.AllStages)
}

func Transform(isDebug *bool) *cli.Command {
	return stageCommand(isDebug, "transform", "transform the raw tables into the transformed_* tables", []pipeline.Stage{pipeline.StageTransform})
}

func Build(isDebug *bool) *cli.Command {
	return stageCommand(isDebug, "build", "rebuild the dimensions and the fact table from the transformed_* tables", []pipeline.Stage{pipeline.StageDimensions, pipeline.StageFact})
}

func stageCommand(isDebug *bool, name, usage string, stages []pipeline.Stage) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{
			configFlag(),
			environmentFlag(),
			logFileFlag(),
			forceFlag(),
			&cli.StringFlag{
				Name:  "fact-failure-mode",
				Usage: "what to do when the fact table cannot be populated: 'best-effort' keeps the empty table and reports the error, 'fail-fast' fails the run",
			},
		},
		Action: func(c *cli.Context) error {
			defer RecoverFromPanic()

			s, err := openSession(c, *isDebug)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := confirmEnvironment(s.config.SelectedEnvironmentName, c.Bool("force"), os.Stdin); err != nil {
				return err
			}

			if mode := c.String("fact-failure-mode"); mode != "" {
				s.options.FactFailureMode, err = fact.ParseFailureMode(mode)
				if err != nil {
					errorPrinter.Println(err.Error())
					return cli.Exit("", 1)
				}
			}

			runner := newRunner(s)
			infoPrinter.Printf("Running %v against the '%s' environment\n", stages, s.config.SelectedEnvironmentName)

			summary, err := runner.Run(c.Context, stages...)
			if summary != nil {
				summary.Render(os.Stdout)
			}

			return runOutcome(summary, err)
		},
	}
}

// runOutcome maps a finished run to the command result. Tolerated fact failures are reported but
// keep the exit status at zero.
func runOutcome(summary *pipeline.Summary, err error) error {
	if err != nil {
		errorPrinter.Printf("Run failed: %v\n", err)
		return cli.Exit("", 1)
	}

	if failures := summary.Failures(); failures > 0 {
		warningPrinter.Printf("Run %s finished with %d failed table(s)\n", summary.RunID, failures)
		return cli.Exit("", 1)
	}

	if tolerated := summary.Tolerated(); tolerated > 0 {
		warningPrinter.Printf("Run %s finished in %s, %d table(s) could not be populated\n", summary.RunID, summary.Duration, tolerated)
		return nil
	}

	successPrinter.Printf("Run %s finished in %s\n", summary.RunID, summary.Duration)
	return nil
}

func newRunner(s *session) *pipeline.Runner {
	writer := staging.NewWriter(s.client, s.options.InsertBatchSize, s.logger)
	builder := dimension.NewBuilder(s.client, dimension.Config{
		KeyWidth:  s.options.KeyWidth,
		BatchSize: s.options.InsertBatchSize,
		DateRange: s.options.DateRange,
	}, s.logger)
	assembler := fact.NewAssembler(s.client, s.options.KeyWidth, s.options.FactFailureMode, s.logger)

	return pipeline.NewRunner(s.client, writer, builder, assembler, s.logger)
}
