package transform

import (
	"sort"
	"strconv"
	"strings"

	"github.com/bruin-data/ecomstar/pkg/frame"
	"github.com/pkg/errors"
)

var PaymentColumns = []frame.Column{
	{Name: "PaymentID", Type: frame.TypeText},
	{Name: "PaymentSequential", Type: frame.TypeText},
	{Name: "PaymentType", Type: frame.TypeText},
	{Name: "PaymentInstallments", Type: frame.TypeText},
	{Name: "PaymentValue", Type: frame.TypeFloat},
}

type paymentLeg struct {
	sequential   int64
	paymentType  string
	installments int64
	value        float64
}

// Payments collapses the payment legs of every order into one row keyed by the order id. Legs are
// ordered by their sequential index, ties keep their original row order.
func Payments(raw *frame.Frame) (*frame.Frame, error) {
	idx, err := raw.Indexes("OrderID", "PaymentSequential", "PaymentType", "PaymentInstallments", "PaymentValue")
	if err != nil {
		return nil, err
	}

	byOrder := newGroups[paymentLeg]()
	for i, row := range raw.Rows {
		orderID, ok := frame.Text(row[idx["OrderID"]])
		if !ok {
			continue
		}

		sequential, err := frame.Int(row[idx["PaymentSequential"]])
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: invalid PaymentSequential", i)
		}

		paymentType, ok := frame.Text(row[idx["PaymentType"]])
		if !ok {
			return nil, errors.Errorf("row %d: PaymentType is null", i)
		}

		installments, err := frame.Int(row[idx["PaymentInstallments"]])
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: invalid PaymentInstallments", i)
		}

		value, _, err := frame.Float(row[idx["PaymentValue"]])
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: invalid PaymentValue", i)
		}

		byOrder.add(orderID, paymentLeg{
			sequential:   sequential,
			paymentType:  paymentType,
			installments: installments,
			value:        value,
		})
	}

	out := frame.New(PaymentColumns...)
	for _, orderID := range byOrder.sortedKeys() {
		legs := byOrder.members[orderID]
		sort.SliceStable(legs, func(i, j int) bool {
			return legs[i].sequential < legs[j].sequential
		})

		sequentials := make([]string, len(legs))
		types := make([]string, len(legs))
		installments := make([]string, len(legs))
		total := 0.0
		for i, leg := range legs {
			sequentials[i] = strconv.FormatInt(leg.sequential, 10)
			types[i] = leg.paymentType
			installments[i] = strconv.FormatInt(leg.installments, 10)
			total += leg.value
		}

		err := out.Append(
			orderID,
			strings.Join(sequentials, listSeparator),
			humanize(strings.Join(types, listSeparator)),
			strings.Join(installments, listSeparator),
			total,
		)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}
