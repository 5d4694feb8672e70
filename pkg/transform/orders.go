package transform

import (
	"github.com/bruin-data/ecomstar/pkg/frame"
)

// OrderDateColumns are the five order lifecycle timestamps.
var OrderDateColumns = []string{"OrderDate", "OrderApprovedDate", "PickupDate", "DeliveredDate", "EstimatedDeliveryDate"}

var OrderColumns = []frame.Column{
	{Name: "OrderID", Type: frame.TypeText},
	{Name: "UserID", Type: frame.TypeText},
	{Name: "OrderStatus", Type: frame.TypeText},
	{Name: "OrderDate", Type: frame.TypeDateTime},
	{Name: "OrderApprovedDate", Type: frame.TypeDateTime},
	{Name: "PickupDate", Type: frame.TypeDateTime},
	{Name: "DeliveredDate", Type: frame.TypeDateTime},
	{Name: "EstimatedDeliveryDate", Type: frame.TypeDateTime},
	{Name: "FeedbackID", Type: frame.TypeText},
}

// Orders normalizes the order timestamps and attaches the feedback left for each order. feedbacks
// is the transformed feedback frame, a nil frame leaves every FeedbackID empty.
func Orders(raw *frame.Frame, feedbacks *frame.Frame) (*frame.Frame, error) {
	idx, err := raw.Indexes(append([]string{"OrderID", "UserID", "OrderStatus"}, OrderDateColumns...)...)
	if err != nil {
		return nil, err
	}

	feedbackByOrder, err := firstFeedbackPerOrder(feedbacks)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	out := frame.New(OrderColumns...)
	for _, row := range raw.Rows {
		orderID, ok := frame.Text(row[idx["OrderID"]])
		if !ok {
			continue
		}
		if _, dup := seen[orderID]; dup {
			continue
		}
		seen[orderID] = struct{}{}

		values := []any{
			orderID,
			nullableText(row[idx["UserID"]]),
			nullableText(row[idx["OrderStatus"]]),
		}
		for _, c := range OrderDateColumns {
			values = append(values, nullableTimestamp(row[idx[c]]))
		}

		var feedbackID any
		if id, ok := feedbackByOrder[orderID]; ok {
			feedbackID = id
		}
		values = append(values, feedbackID)

		if err := out.Append(values...); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func firstFeedbackPerOrder(feedbacks *frame.Frame) (map[string]string, error) {
	out := make(map[string]string)
	if feedbacks == nil {
		return out, nil
	}

	idx, err := feedbacks.Indexes("OrderID", "FeedbackID")
	if err != nil {
		return nil, err
	}

	for _, row := range feedbacks.Rows {
		orderID, ok := frame.Text(row[idx["OrderID"]])
		if !ok {
			continue
		}
		if _, exists := out[orderID]; exists {
			continue
		}
		if feedbackID, ok := frame.Text(row[idx["FeedbackID"]]); ok {
			out[orderID] = feedbackID
		}
	}

	return out, nil
}
