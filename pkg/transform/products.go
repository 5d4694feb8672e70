package transform

import (
	"github.com/bruin-data/ecomstar/pkg/frame"
	"github.com/pkg/errors"
)

var productMeasures = []string{
	"ProductNameLength",
	"ProductDescriptionLength",
	"ProductPhotosQuantity",
	"ProductWeightInGrams",
	"ProductLengthInCm",
	"ProductHeightInCm",
	"ProductWidthInCm",
}

var ProductColumns = func() []frame.Column {
	columns := []frame.Column{
		{Name: "ProductID", Type: frame.TypeText},
		{Name: "ProductCategory", Type: frame.TypeText},
	}
	for _, m := range productMeasures {
		columns = append(columns, frame.Column{Name: m, Type: frame.TypeFloat})
	}
	return columns
}()

// Products keeps the first row of every product and turns categories like "bed_bath_table" into
// "Bed Bath Table".
func Products(raw *frame.Frame) (*frame.Frame, error) {
	idx, err := raw.Indexes(append([]string{"ProductID", "ProductCategory"}, productMeasures...)...)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	out := frame.New(ProductColumns...)
	for i, row := range raw.Rows {
		productID, ok := frame.Text(row[idx["ProductID"]])
		if !ok {
			continue
		}
		if _, dup := seen[productID]; dup {
			continue
		}
		seen[productID] = struct{}{}

		var category any
		if c, ok := frame.Text(row[idx["ProductCategory"]]); ok {
			category = humanize(c)
		}

		values := []any{productID, category}
		for _, m := range productMeasures {
			v, err := frame.NullableFloat(row[idx[m]])
			if err != nil {
				return nil, errors.Wrapf(err, "row %d: invalid %s", i, m)
			}
			values = append(values, v)
		}

		if err := out.Append(values...); err != nil {
			return nil, err
		}
	}

	return out, nil
}
