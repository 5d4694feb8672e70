package transform

import (
	"github.com/bruin-data/ecomstar/pkg/frame"
)

var SellerColumns = []frame.Column{
	{Name: "SellerID", Type: frame.TypeText},
	{Name: "SellerZIPCode", Type: frame.TypeText},
	{Name: "SellerCity", Type: frame.TypeText},
	{Name: "SellerState", Type: frame.TypeText},
}

func Sellers(raw *frame.Frame) (*frame.Frame, error) {
	idx, err := raw.Indexes("SellerID", "SellerZIPCode", "SellerCity", "SellerState")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	out := frame.New(SellerColumns...)
	for _, row := range raw.Rows {
		sellerID, ok := frame.Text(row[idx["SellerID"]])
		if !ok {
			continue
		}
		if _, dup := seen[sellerID]; dup {
			continue
		}
		seen[sellerID] = struct{}{}

		err := out.Append(
			sellerID,
			nullableText(row[idx["SellerZIPCode"]]),
			nullableTitle(row[idx["SellerCity"]]),
			nullableTitle(row[idx["SellerState"]]),
		)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

func nullableTitle(v any) any {
	s, ok := frame.Text(v)
	if !ok {
		return nil
	}

	return titleCase(s)
}
