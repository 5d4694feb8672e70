package path

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

var validate = newValidator()

// newValidator reports fields by their YAML keys so errors point at the line to fix.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// ReadYaml decodes the file into out and checks it against its `validate` tags.
func ReadYaml(fs afero.Fs, path string, out any) error {
	buf, err := afero.ReadFile(fs, path)
	if err != nil {
		return errors.Wrapf(err, "failed to read '%s'", path)
	}

	if err := yaml.Unmarshal(buf, out); err != nil {
		return errors.Wrapf(err, "failed to parse '%s'", path)
	}

	if err := validate.Struct(out); err != nil {
		return errors.Wrapf(describeValidation(err), "invalid '%s'", path)
	}

	return nil
}

// WriteYaml writes content to path, creating the parent directory when needed.
func WriteYaml(fs afero.Fs, path string, content any) error {
	buf, err := yaml.Marshal(content)
	if err != nil {
		return errors.Wrap(err, "failed to marshal object to yaml")
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create the directory of '%s'", path)
	}

	if err := afero.WriteFile(fs, path, buf, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write '%s'", path)
	}

	return nil
}

func describeValidation(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	messages := lo.Map(fieldErrors, func(e validator.FieldError, _ int) string {
		field := e.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}

		if e.Param() != "" {
			return fmt.Sprintf("'%s' must satisfy '%s=%s'", field, e.Tag(), e.Param())
		}
		return fmt.Sprintf("'%s' must satisfy '%s'", field, e.Tag())
	})

	return errors.New(strings.Join(messages, ", "))
}
