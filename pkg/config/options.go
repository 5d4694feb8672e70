package config

import (
	"time"

	"github.com/bruin-data/ecomstar/pkg/dimension"
	"github.com/bruin-data/ecomstar/pkg/fact"
	"github.com/bruin-data/ecomstar/pkg/staging"
	"github.com/pkg/errors"
)

type DateRange struct {
	Start string `yaml:"start" validate:"required,datetime=2006-01-02"`
	End   string `yaml:"end" validate:"required,datetime=2006-01-02"`
}

type PipelineOptions struct {
	DateRange       *DateRange `yaml:"date_range,omitempty"`
	KeyWidth        int        `yaml:"key_width,omitempty" validate:"omitempty,min=8,max=255"`
	InsertBatchSize int        `yaml:"insert_batch_size,omitempty" validate:"omitempty,min=1,max=10000"`
	FactFailureMode string     `yaml:"fact_failure_mode,omitempty" validate:"omitempty,oneof=fail-fast best-effort"`
}

// Options are the pipeline settings with every default filled in.
type Options struct {
	DateRange       dimension.DateRange
	KeyWidth        int
	InsertBatchSize int
	FactFailureMode fact.FailureMode
}

func (p PipelineOptions) Resolve() (*Options, error) {
	opts := &Options{
		DateRange:       dimension.DefaultDateRange,
		KeyWidth:        dimension.DefaultKeyWidth,
		InsertBatchSize: staging.DefaultBatchSize,
	}

	if p.KeyWidth > 0 {
		opts.KeyWidth = p.KeyWidth
	}
	if p.InsertBatchSize > 0 {
		opts.InsertBatchSize = p.InsertBatchSize
	}

	mode, err := fact.ParseFailureMode(p.FactFailureMode)
	if err != nil {
		return nil, err
	}
	opts.FactFailureMode = mode

	if p.DateRange != nil {
		start, err := time.Parse(time.DateOnly, p.DateRange.Start)
		if err != nil {
			return nil, errors.Wrap(err, "invalid date_range.start")
		}
		end, err := time.Parse(time.DateOnly, p.DateRange.End)
		if err != nil {
			return nil, errors.Wrap(err, "invalid date_range.end")
		}

		opts.DateRange = dimension.DateRange{Start: start, End: end}
	}

	if err := opts.DateRange.Validate(); err != nil {
		return nil, err
	}

	return opts, nil
}
