package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_titleCase(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"sao paulo":            "Sao Paulo",
		"SAO PAULO":            "Sao Paulo",
		"rio de janeiro":       "Rio De Janeiro",
		"sp":                   "Sp",
		"santa barbara d'oeste": "Santa Barbara D'Oeste",
		"mogi-guacu":           "Mogi-Guacu",
		"3rd street":           "3Rd Street",
		"":                     "",
		"são josé":             "São José",
	}

	for input, want := range tests {
		assert.Equal(t, want, titleCase(input), input)
	}
}

func Test_humanize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Credit Card", humanize("credit_card"))
	assert.Equal(t, "Bed Bath Table", humanize("bed_bath_table"))
	assert.Equal(t, "Credit Card, Boleto", humanize("credit_card, boleto"))
}

func Test_sortedUnique(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Campinas, Sao Paulo", sortedUnique([]string{"Sao Paulo", "Campinas", "Sao Paulo"}))
	assert.Equal(t, "", sortedUnique(nil))
}

func Test_sortTokens(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"1", "2", "10"}, sortTokens([]string{"10", "2", "1"}))
	assert.Equal(t, []string{"a", "b", "c"}, sortTokens([]string{"c", "a", "b"}))
	assert.Equal(t, []string{"10", "2", "x"}, sortTokens([]string{"x", "2", "10"}))
}

func Test_groups(t *testing.T) {
	t.Parallel()

	g := newGroups[int]()
	g.add("b", 1)
	g.add("a", 2)
	g.add("b", 3)

	assert.Equal(t, []string{"b", "a"}, g.keys)
	assert.Equal(t, []string{"a", "b"}, g.sortedKeys())
	assert.Equal(t, []int{1, 3}, g.members["b"])
}
