// Package jinja renders the SQL templates behind the fact population and the reports.
package jinja

import (
	"regexp"
	"sort"
	"strings"

	"github.com/nikolalohinski/gonja/v2"
	"github.com/nikolalohinski/gonja/v2/exec"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

func init() { //nolint: gochecknoinits
	gonja.DefaultConfig.StrictUndefined = true
}

var undefinedNameRegex = regexp.MustCompile(`Unable to evaluate name\s+"([^"]+)"`)

type Context map[string]any

type Renderer struct {
	variables []string
	context   *exec.Context
}

func NewRenderer(context Context) *Renderer {
	variables := lo.Keys(context)
	sort.Strings(variables)

	return &Renderer{
		variables: variables,
		context:   exec.NewContext(context),
	}
}

// Render renders a SQL template. Undefined variables are an error naming the ones that exist.
func (r *Renderer) Render(template string) (string, error) {
	tpl, err := gonja.FromString(template)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse the SQL template")
	}

	out, err := tpl.ExecuteToString(r.context)
	if err != nil {
		if match := undefinedNameRegex.FindStringSubmatch(err.Error()); len(match) == 2 {
			return "", errors.Errorf("missing variable '%s', available variables are %s", match[1], strings.Join(r.variables, ", "))
		}

		return "", errors.Wrap(err, "failed to render the SQL template")
	}

	return out, nil
}
