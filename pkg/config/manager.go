// Package config reads the environments of a .ecomstar.yml file and resolves the warehouse
// connection and pipeline options of the selected one.
package config

import (
	"bufio"
	"bytes"
	fs2 "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	path2 "github.com/bruin-data/ecomstar/pkg/path"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const (
	DefaultConfigFile  = ".ecomstar.yml"
	DefaultEnvironment = "default"
)

// LookupFunc resolves an environment variable, see os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type Environment struct {
	Connection Connection      `yaml:"connection"`
	Pipeline   PipelineOptions `yaml:"pipeline"`
}

type Config struct {
	fs   afero.Fs
	path string

	DefaultEnvironmentName  string                  `yaml:"default_environment"`
	SelectedEnvironmentName string                  `yaml:"-"`
	SelectedEnvironment     *Environment            `yaml:"-"`
	Environments            map[string]*Environment `yaml:"environments" validate:"required,min=1,dive,required"`
}

func (c *Config) Path() string {
	return c.path
}

func (c *Config) EnvironmentNames() []string {
	names := make([]string, 0, len(c.Environments))
	for name := range c.Environments {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func (c *Config) SelectEnvironment(name string) error {
	if name == "" {
		name = c.DefaultEnvironmentName
	}

	e, ok := c.Environments[name]
	if !ok {
		return errors.Errorf("environment '%s' not found in the configuration file '%s', available environments: %v", name, c.path, c.EnvironmentNames())
	}
	if err := e.Connection.validate(); err != nil {
		return errors.Wrapf(err, "invalid environment '%s'", name)
	}

	c.SelectedEnvironment = e
	c.SelectedEnvironmentName = name
	return nil
}

func (c *Config) Persist() error {
	return path2.WriteYaml(c.fs, c.path, c)
}

// ApplyEnv overrides the credentials of every environment with ECOMSTAR_DB_* variables.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	for _, name := range c.EnvironmentNames() {
		if err := c.Environments[name].Connection.applyEnv(lookup); err != nil {
			return errors.Wrapf(err, "failed to apply the environment variables to '%s'", name)
		}
	}

	return nil
}

// LoadFromFile reads and validates the config file and selects its default environment.
func LoadFromFile(fs afero.Fs, path string) (*Config, error) {
	var config Config

	err := path2.ReadYaml(fs, path, &config)
	if err != nil {
		return nil, err
	}

	config.fs = fs
	config.path = path
	if config.DefaultEnvironmentName == "" {
		config.DefaultEnvironmentName = DefaultEnvironment
	}

	return &config, nil
}

// Load reads the config file, applies the .env file next to it and the process environment on
// top, then selects the given environment or the default one.
func Load(fs afero.Fs, path, environment string) (*Config, error) {
	config, err := LoadFromFile(fs, path)
	if err != nil {
		return nil, err
	}

	dotenv, err := ReadDotEnv(fs, filepath.Join(filepath.Dir(path), ".env"))
	if err != nil {
		return nil, err
	}

	if err := config.ApplyEnv(Lookup(os.LookupEnv, dotenv)); err != nil {
		return nil, err
	}

	if err := config.SelectEnvironment(environment); err != nil {
		return nil, err
	}

	return config, nil
}

// ReadDotEnv parses a .env file, a missing file gives no variables.
func ReadDotEnv(fs afero.Fs, path string) (map[string]string, error) {
	buf, err := afero.ReadFile(fs, path)
	if errors.Is(err, fs2.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	vars, err := godotenv.Parse(bytes.NewReader(buf))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	return vars, nil
}

// Lookup resolves variables from the process first and from the .env values otherwise, the same
// precedence godotenv.Load gives.
func Lookup(process LookupFunc, dotenv map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		if v, ok := process(key); ok {
			return v, true
		}

		v, ok := dotenv[key]
		return v, ok
	}
}

// Init writes a starter config file with a single default environment and makes sure git ignores
// it, since it holds credentials.
func Init(fs afero.Fs, path string, connectionType string) (*Config, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.Errorf("config file '%s' already exists", path)
	}

	env := &Environment{}
	switch connectionType {
	case "mysql", "":
		env.Connection.MySQL = &MySQLConnection{Username: "root", Host: "localhost", Port: 3306, Database: "ecommerce"}
	case "postgres":
		env.Connection.Postgres = &PostgresConnection{Username: "postgres", Host: "localhost", Port: 5432, Database: "ecommerce", Schema: "public", SslMode: "disable"}
	default:
		return nil, errors.Errorf("unknown connection type '%s', expected 'mysql' or 'postgres'", connectionType)
	}

	config := &Config{
		fs:   fs,
		path: path,

		DefaultEnvironmentName:  DefaultEnvironment,
		SelectedEnvironment:     env,
		SelectedEnvironmentName: DefaultEnvironment,
		Environments: map[string]*Environment{
			DefaultEnvironment: env,
		},
	}

	if err := config.Persist(); err != nil {
		return nil, errors.Wrap(err, "failed to persist config")
	}

	return config, ensureConfigIsInGitignore(fs, path)
}

func ensureConfigIsInGitignore(fs afero.Fs, filePath string) error {
	gitignorePath := filepath.Join(filepath.Dir(filePath), ".gitignore")
	fileNameToIgnore := filepath.Base(filePath)

	content, err := afero.ReadFile(fs, gitignorePath)
	if errors.Is(err, fs2.ErrNotExist) {
		return afero.WriteFile(fs, gitignorePath, []byte(fileNameToIgnore+"\n"), 0o644)
	}
	if err != nil {
		return errors.Wrap(err, "failed to read .gitignore")
	}

	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == fileNameToIgnore {
			return nil
		}
	}

	if len(content) > 0 && !bytes.HasSuffix(content, []byte("\n")) {
		content = append(content, '\n')
	}
	content = append(content, []byte(fileNameToIgnore+"\n")...)

	return afero.WriteFile(fs, gitignorePath, content, 0o644)
}
