// Package pipeline runs the warehouse stages in order: transform, dimensions and fact.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/bruin-data/ecomstar/pkg/dimension"
	"github.com/bruin-data/ecomstar/pkg/entity"
	"github.com/bruin-data/ecomstar/pkg/fact"
	"github.com/bruin-data/ecomstar/pkg/frame"
	"github.com/bruin-data/ecomstar/pkg/logger"
	"github.com/bruin-data/ecomstar/pkg/staging"
	"github.com/bruin-data/ecomstar/pkg/transform"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var ErrMissingDependency = errors.New("missing dependency")

type Stage string

const (
	StageTransform  Stage = "transform"
	StageDimensions Stage = "dimensions"
	StageFact       Stage = "fact"
)

// AllStages lists the stages in the only order they can run in.
var AllStages = []Stage{StageTransform, StageDimensions, StageFact}

type source interface {
	ReadTable(ctx context.Context, table string) (*frame.Frame, error)
	TableExists(ctx context.Context, table string) (bool, error)
}

type tableWriter interface {
	WriteAll(ctx context.Context, results transform.Results) []*staging.TableResult
}

type dimensionBuilder interface {
	BuildAll(ctx context.Context) ([]*dimension.Result, error)
}

type factAssembler interface {
	Build(ctx context.Context) (*fact.Result, error)
}

type Runner struct {
	source     source
	writer     tableWriter
	dimensions dimensionBuilder
	fact       factAssembler
	logger     logger.Logger
}

func NewRunner(s source, w tableWriter, d dimensionBuilder, f factAssembler, log logger.Logger) *Runner {
	return &Runner{
		source:     s,
		writer:     w,
		dimensions: d,
		fact:       f,
		logger:     log,
	}
}

// Run executes the given stages, all of them when none are given. Transform failures are recorded
// per entity and never stop the run. Dimension and fact failures are returned together with the
// summary collected so far, except a fact population failure the assembler tolerated, which is
// only recorded as a tolerated row.
func (r *Runner) Run(ctx context.Context, stages ...Stage) (*Summary, error) {
	if len(stages) == 0 {
		stages = AllStages
	}
	if err := validateStages(stages); err != nil {
		return nil, err
	}

	summary := &Summary{RunID: uuid.NewString(), Started: time.Now()}
	r.logger.Infow("starting run", "run_id", summary.RunID, "stages", stages)
	defer func() {
		summary.Duration = time.Since(summary.Started)
	}()

	for _, stage := range stages {
		var err error
		switch stage {
		case StageTransform:
			r.runTransform(ctx, summary)
		case StageDimensions:
			err = r.runDimensions(ctx, summary)
		case StageFact:
			err = r.runFact(ctx, summary)
		}

		if err != nil {
			r.logger.Errorw("stage failed", "run_id", summary.RunID, "stage", stage, "error", err)
			return summary, errors.Wrapf(err, "stage '%s' failed", stage)
		}
	}

	r.logger.Infow("run finished", "run_id", summary.RunID, "failures", summary.Failures(), "tolerated", summary.Tolerated())
	return summary, nil
}

func validateStages(stages []Stage) error {
	last := -1
	for _, s := range stages {
		idx := lo.IndexOf(AllStages, s)
		if idx == -1 {
			return errors.Errorf("unknown stage '%s'", s)
		}
		if idx <= last {
			return errors.Errorf("stage '%s' is out of order, stages run as %v", s, AllStages)
		}
		last = idx
	}

	return nil
}

func (r *Runner) runTransform(ctx context.Context, summary *Summary) {
	raw := make(map[entity.Name]*frame.Frame, len(entity.All))
	loadErrors := make(map[entity.Name]error)
	for _, name := range entity.All {
		f, err := r.source.ReadTable(ctx, name.RawTable())
		if err != nil {
			r.logger.Errorw("failed to load raw table", "table", name.RawTable(), "error", err)
			loadErrors[name] = err
			continue
		}
		raw[name] = f
	}

	results := transform.Run(raw, loadErrors, r.logger)
	written := r.writer.WriteAll(ctx, results)

	for _, w := range written {
		res := results[w.Entity]
		row := Row{
			Stage:    StageTransform,
			Table:    w.Table,
			Rows:     w.Rows,
			Status:   StatusSucceeded,
			Duration: w.Duration,
		}
		if res != nil {
			row.Duration += res.Duration
		}

		switch {
		case res != nil && res.Err != nil:
			row.Status = StatusFailed
			row.Err = res.Err
		case w.Err != nil:
			row.Status = StatusFailed
			row.Err = w.Err
		}

		summary.add(row)
	}
}

func (r *Runner) runDimensions(ctx context.Context, summary *Summary) error {
	sources := lo.Map(dimension.Entities, func(s dimension.Spec, _ int) string {
		return s.Source()
	})
	if err := r.checkDependencies(ctx, StageDimensions, sources); err != nil {
		return err
	}

	results, err := r.dimensions.BuildAll(ctx)
	for _, res := range results {
		row := Row{Stage: StageDimensions, Table: res.Table, Rows: res.Rows, Status: StatusSucceeded, Duration: res.Duration}
		if res.Err != nil {
			row.Status = StatusFailed
			row.Err = res.Err
		}
		summary.add(row)
	}

	return err
}

func (r *Runner) runFact(ctx context.Context, summary *Summary) error {
	if err := r.checkDependencies(ctx, StageFact, fact.RequiredTables()); err != nil {
		return err
	}

	res, err := r.fact.Build(ctx)
	if res != nil {
		row := Row{Stage: StageFact, Table: res.Table, Rows: res.Rows, Status: StatusSucceeded, Duration: res.Duration}
		switch {
		case err != nil:
			row.Status = StatusFailed
			row.Err = err
		case res.Err != nil:
			// best-effort population: the empty fact table stays and the run goes on
			row.Status = StatusTolerated
			row.Err = res.Err
			r.logger.Warnw("fact table population failed, tolerated", "run_id", summary.RunID, "table", res.Table, "error", res.Err)
		}
		summary.add(row)
	}

	return err
}

// checkDependencies fails with every missing table at once rather than the first one.
func (r *Runner) checkDependencies(ctx context.Context, stage Stage, tables []string) error {
	missing := make([]string, 0)
	for _, table := range tables {
		exists, err := r.source.TableExists(ctx, table)
		if err != nil {
			return err
		}
		if !exists {
			missing = append(missing, table)
		}
	}

	if len(missing) > 0 {
		summary := strings.Join(missing, ", ")
		r.logger.Errorw("stage dependencies are missing", "stage", stage, "tables", summary)
		return errors.Wrapf(ErrMissingDependency, "stage '%s' needs %s", stage, summary)
	}

	return nil
}
