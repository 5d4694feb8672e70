package transform

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/samber/lo"
)

const listSeparator = ", "

// titleCase upper-cases the first letter of every run of letters and lower-cases the rest, over the
// whole field: "SAO PAULO" and "sao paulo" both become "Sao Paulo".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inWord := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if inWord {
				r = unicode.ToLower(r)
			} else {
				r = unicode.ToTitle(r)
			}
			inWord = true
		} else {
			inWord = false
		}
		b.WriteRune(r)
	}

	return b.String()
}

// humanize turns snake_case categories such as "credit_card" into "Credit Card".
func humanize(s string) string {
	return titleCase(strings.ReplaceAll(s, "_", " "))
}

// sortedUnique joins the distinct values in ascending order.
func sortedUnique(values []string) string {
	unique := lo.Uniq(values)
	sort.Strings(unique)
	return strings.Join(unique, listSeparator)
}

// sortTokens orders item ids numerically when every token is an integer, lexically otherwise.
func sortTokens(tokens []string) []string {
	out := append([]string(nil), tokens...)

	numeric := lo.EveryBy(out, func(s string) bool {
		_, err := strconv.ParseInt(s, 10, 64)
		return err == nil
	})
	if !numeric {
		sort.Strings(out)
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, _ := strconv.ParseInt(out[i], 10, 64)
		b, _ := strconv.ParseInt(out[j], 10, 64)
		return a < b
	})
	return out
}

// groups keeps rows grouped by key while remembering the order keys were first seen.
type groups[T any] struct {
	keys    []string
	members map[string][]T
}

func newGroups[T any]() *groups[T] {
	return &groups[T]{members: make(map[string][]T)}
}

func (g *groups[T]) add(key string, v T) {
	if _, ok := g.members[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.members[key] = append(g.members[key], v)
}

// sortedKeys returns the group keys in ascending order, the order grouped output is written in.
func (g *groups[T]) sortedKeys() []string {
	keys := append([]string(nil), g.keys...)
	sort.Strings(keys)
	return keys
}
