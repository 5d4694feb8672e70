package transform

import (
	"strconv"

	"github.com/bruin-data/ecomstar/pkg/date"
	"github.com/bruin-data/ecomstar/pkg/frame"
	"github.com/pkg/errors"
)

var FeedbackColumns = []frame.Column{
	{Name: "FeedbackID", Type: frame.TypeText},
	{Name: "OrderID", Type: frame.TypeText},
	{Name: "FeedbackScore", Type: frame.TypeInt},
	{Name: "FeedbackFormSentDate", Type: frame.TypeDateTime},
	{Name: "FeedbackAnswerDate", Type: frame.TypeDateTime},
}

// Feedbacks keeps every feedback row and makes the ids unique by prefixing how many times the same
// id was already seen: F1, F1, F2 become 0_F1, 1_F1, 0_F2.
func Feedbacks(raw *frame.Frame) (*frame.Frame, error) {
	idx, err := raw.Indexes("FeedbackID", "OrderID", "FeedbackScore", "FeedbackFormSentDate", "FeedbackAnswerDate")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int)
	out := frame.New(FeedbackColumns...)
	for i, row := range raw.Rows {
		feedbackID, ok := frame.Text(row[idx["FeedbackID"]])
		if !ok {
			continue
		}

		score, err := frame.Int(row[idx["FeedbackScore"]])
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: invalid FeedbackScore", i)
		}

		occurrence := seen[feedbackID]
		seen[feedbackID] = occurrence + 1

		err = out.Append(
			strconv.Itoa(occurrence)+"_"+feedbackID,
			nullableText(row[idx["OrderID"]]),
			score,
			nullableTimestamp(row[idx["FeedbackFormSentDate"]]),
			nullableTimestamp(row[idx["FeedbackAnswerDate"]]),
		)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

func nullableText(v any) any {
	s, ok := frame.Text(v)
	if !ok {
		return nil
	}

	return s
}

func nullableTimestamp(v any) any {
	s, ok := date.Normalize(v)
	if !ok {
		return nil
	}

	return s
}
