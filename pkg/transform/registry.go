package transform

import (
	"fmt"
	"time"

	"github.com/bruin-data/ecomstar/pkg/entity"
	"github.com/bruin-data/ecomstar/pkg/frame"
	"github.com/bruin-data/ecomstar/pkg/logger"
	"github.com/pkg/errors"
)

// Spec binds an entity to its transformation. Needs lists entities whose transformed output the
// transformation reads, they must appear earlier in the registry.
type Spec struct {
	Entity  entity.Name
	Columns []frame.Column
	Needs   []entity.Name
	Apply   func(raw *frame.Frame, done Results) (*frame.Frame, error)
}

var Registry = []Spec{
	{Entity: entity.Payments, Columns: PaymentColumns, Apply: single(Payments)},
	{Entity: entity.Feedbacks, Columns: FeedbackColumns, Apply: single(Feedbacks)},
	{Entity: entity.Products, Columns: ProductColumns, Apply: single(Products)},
	{Entity: entity.Sellers, Columns: SellerColumns, Apply: single(Sellers)},
	{Entity: entity.OrderItems, Columns: OrderItemColumns, Apply: single(OrderItems)},
	{Entity: entity.Users, Columns: UserColumns, Apply: single(Users)},
	{
		Entity:  entity.Orders,
		Columns: OrderColumns,
		Needs:   []entity.Name{entity.Feedbacks},
		Apply: func(raw *frame.Frame, done Results) (*frame.Frame, error) {
			return Orders(raw, done.Frame(entity.Feedbacks))
		},
	},
}

func single(fn func(*frame.Frame) (*frame.Frame, error)) func(*frame.Frame, Results) (*frame.Frame, error) {
	return func(raw *frame.Frame, _ Results) (*frame.Frame, error) {
		return fn(raw)
	}
}

func Lookup(name entity.Name) (Spec, error) {
	for _, s := range Registry {
		if s.Entity == name {
			return s, nil
		}
	}

	return Spec{}, errors.Wrapf(entity.ErrUnknownEntity, "no transformation registered for '%s'", name)
}

type Result struct {
	Entity   entity.Name
	Frame    *frame.Frame
	RowsIn   int
	Err      error
	Duration time.Duration
}

func (r *Result) Succeeded() bool {
	return r != nil && r.Err == nil && r.Frame != nil
}

type Results map[entity.Name]*Result

// Frame returns the transformed frame of an entity, nil when it failed or never ran.
func (r Results) Frame(name entity.Name) *frame.Frame {
	res, ok := r[name]
	if !ok || !res.Succeeded() {
		return nil
	}

	return res.Frame
}

// Run applies every registered transformation. A failing entity is logged and recorded in its
// result, the remaining entities still run.
func Run(raw map[entity.Name]*frame.Frame, loadErrors map[entity.Name]error, log logger.Logger) Results {
	results := make(Results, len(Registry))
	for _, spec := range Registry {
		start := time.Now()
		res := &Result{Entity: spec.Entity}
		results[spec.Entity] = res

		if err, failed := loadErrors[spec.Entity]; failed {
			res.Err = errors.Wrapf(err, "failed to load raw table '%s'", spec.Entity.RawTable())
			log.Errorw("failed to transform entity", "entity", spec.Entity, "error", res.Err)
			continue
		}

		input, ok := raw[spec.Entity]
		if !ok || input == nil {
			res.Err = errors.Errorf("raw table '%s' was not loaded", spec.Entity.RawTable())
			log.Errorw("failed to transform entity", "entity", spec.Entity, "error", res.Err)
			continue
		}

		for _, need := range spec.Needs {
			if !results[need].Succeeded() {
				log.Warnw("dependency failed to transform, continuing without it", "entity", spec.Entity, "dependency", need)
			}
		}

		res.RowsIn = input.Len()
		res.Frame, res.Err = safeApply(spec, input, results)
		res.Duration = time.Since(start)
		if res.Err != nil {
			res.Frame = nil
			log.Errorw("failed to transform entity", "entity", spec.Entity, "error", res.Err)
			continue
		}

		log.Infow("transformed entity", "entity", spec.Entity, "rows_in", res.RowsIn, "rows_out", res.Frame.Len(), "duration", res.Duration)
	}

	return results
}

func safeApply(spec Spec, input *frame.Frame, done Results) (out *frame.Frame, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while transforming %s: %v", spec.Entity, r)
		}
	}()

	out, err = spec.Apply(input, done)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to transform %s", spec.Entity)
	}

	return out, nil
}
