package transform

import (
	"github.com/bruin-data/ecomstar/pkg/frame"
)

var UserColumns = []frame.Column{
	{Name: "UserID", Type: frame.TypeText},
	{Name: "UserZIPCode", Type: frame.TypeText},
	{Name: "UserCity", Type: frame.TypeText},
	{Name: "UserState", Type: frame.TypeText},
}

type userAddress struct {
	zip, city, state *string
}

// Users collapses every address a user was seen with into one row, each field holding the sorted
// distinct values joined by a comma.
func Users(raw *frame.Frame) (*frame.Frame, error) {
	idx, err := raw.Indexes("UserID", "UserZIPCode", "UserCity", "UserState")
	if err != nil {
		return nil, err
	}

	byUser := newGroups[userAddress]()
	for _, row := range raw.Rows {
		userID, ok := frame.Text(row[idx["UserID"]])
		if !ok {
			continue
		}

		byUser.add(userID, userAddress{
			zip:   textPtr(row[idx["UserZIPCode"]], false),
			city:  textPtr(row[idx["UserCity"]], true),
			state: textPtr(row[idx["UserState"]], true),
		})
	}

	out := frame.New(UserColumns...)
	for _, userID := range byUser.sortedKeys() {
		var zips, cities, states []string
		for _, a := range byUser.members[userID] {
			zips = appendPresent(zips, a.zip)
			cities = appendPresent(cities, a.city)
			states = appendPresent(states, a.state)
		}

		if err := out.Append(userID, joinedOrNil(zips), joinedOrNil(cities), joinedOrNil(states)); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func textPtr(v any, title bool) *string {
	s, ok := frame.Text(v)
	if !ok {
		return nil
	}
	if title {
		s = titleCase(s)
	}

	return &s
}

func appendPresent(values []string, v *string) []string {
	if v == nil {
		return values
	}

	return append(values, *v)
}

func joinedOrNil(values []string) any {
	if len(values) == 0 {
		return nil
	}

	return sortedUnique(values)
}
