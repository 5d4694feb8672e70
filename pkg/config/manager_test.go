package config

import (
	"testing"
	"time"

	"github.com/bruin-data/ecomstar/pkg/fact"
	"github.com/bruin-data/ecomstar/pkg/mysql"
	"github.com/bruin-data/ecomstar/pkg/postgres"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simpleConfig = `default_environment: dev
environments:
  dev:
    connection:
      mysql:
        username: root
        password: secret
        host: localhost
        database: ecommerce
  prod:
    connection:
      postgres:
        username: etl
        host: warehouse.internal
        port: 6432
        database: analytics
        schema: star
        ssl_mode: require
    pipeline:
      date_range:
        start: 2017-01-01
        end: 2017-12-31
      key_width: 64
      insert_batch_size: 1000
      fact_failure_mode: fail-fast
`

func writeConfig(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func noEnv(string) (string, bool) {
	return "", false
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "/project/.ecomstar.yml", simpleConfig)

	config, err := LoadFromFile(fs, "/project/.ecomstar.yml")
	require.NoError(t, err)

	assert.Equal(t, "dev", config.DefaultEnvironmentName)
	assert.Equal(t, []string{"dev", "prod"}, config.EnvironmentNames())
	assert.Equal(t, &MySQLConnection{Username: "root", Password: "secret", Host: "localhost", Database: "ecommerce"}, config.Environments["dev"].Connection.MySQL)
	assert.Equal(t, "postgres", config.Environments["prod"].Connection.Type())
	assert.Equal(t, &DateRange{Start: "2017-01-01", End: "2017-12-31"}, config.Environments["prod"].Pipeline.DateRange)
	assert.Equal(t, "/project/.ecomstar.yml", config.Path())
}

func TestLoadFromFile_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "no environments",
			content: "default_environment: dev\n",
		},
		{
			name: "missing host",
			content: `environments:
  default:
    connection:
      mysql:
        username: root
        database: ecommerce
`,
		},
		{
			name: "unknown failure mode",
			content: `environments:
  default:
    connection:
      mysql: {username: root, host: localhost, database: ecommerce}
    pipeline:
      fact_failure_mode: sometimes
`,
		},
		{
			name: "malformed date",
			content: `environments:
  default:
    connection:
      mysql: {username: root, host: localhost, database: ecommerce}
    pipeline:
      date_range: {start: 2017/01/01, end: 2017-12-31}
`,
		},
		{
			name:    "invalid yaml",
			content: "environments: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := afero.NewMemMapFs()
			writeConfig(t, fs, ".ecomstar.yml", tt.content)

			_, err := LoadFromFile(fs, ".ecomstar.yml")
			require.Error(t, err)
		})
	}
}

func TestConfig_SelectEnvironment(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeConfig(t, fs, ".ecomstar.yml", simpleConfig+`  broken:
    connection: {}
`)

	config, err := LoadFromFile(fs, ".ecomstar.yml")
	require.NoError(t, err)

	require.NoError(t, config.SelectEnvironment(""))
	assert.Equal(t, "dev", config.SelectedEnvironmentName)

	require.NoError(t, config.SelectEnvironment("prod"))
	assert.Equal(t, "prod", config.SelectedEnvironmentName)
	assert.Equal(t, "analytics", config.SelectedEnvironment.Connection.Postgres.Database)

	err = config.SelectEnvironment("staging")
	require.ErrorContains(t, err, "environment 'staging' not found in the configuration file '.ecomstar.yml'")

	err = config.SelectEnvironment("broken")
	require.ErrorContains(t, err, "no warehouse connection configured")
}

func TestLoad_AppliesDotEnvAndProcessEnvironment(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "/project/.ecomstar.yml", simpleConfig)
	writeConfig(t, fs, "/project/.env", "ECOMSTAR_DB_PASSWORD=from-dotenv\nECOMSTAR_DB_HOST=db.local\n")

	dotenv, err := ReadDotEnv(fs, "/project/.env")
	require.NoError(t, err)

	config, err := LoadFromFile(fs, "/project/.ecomstar.yml")
	require.NoError(t, err)

	process := func(key string) (string, bool) {
		if key == "ECOMSTAR_DB_HOST" {
			return "db.prod", true
		}
		return "", false
	}
	require.NoError(t, config.ApplyEnv(Lookup(process, dotenv)))

	dev := config.Environments["dev"].Connection.MySQL
	assert.Equal(t, "from-dotenv", dev.Password)
	assert.Equal(t, "db.prod", dev.Host)
}

func TestReadDotEnv_MissingFile(t *testing.T) {
	t.Parallel()

	vars, err := ReadDotEnv(afero.NewMemMapFs(), "/nowhere/.env")
	require.NoError(t, err)
	assert.Empty(t, vars)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "/project/.ecomstar.yml", simpleConfig)

	config, err := Load(fs, "/project/.ecomstar.yml", "prod")
	require.NoError(t, err)

	connector, dialect, err := config.SelectedEnvironment.Connection.Warehouse()
	require.NoError(t, err)
	assert.Equal(t, postgres.Dialect{}, dialect)
	assert.Equal(t, "pgx", connector.DriverName())

	opts, err := config.SelectedEnvironment.Pipeline.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 64, opts.KeyWidth)
	assert.Equal(t, 1000, opts.InsertBatchSize)
	assert.Equal(t, fact.FailFast, opts.FactFailureMode)
	assert.Equal(t, time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC), opts.DateRange.Start)

	_, err = Load(fs, "/project/missing.yml", "")
	require.Error(t, err)
}

func TestInit(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "/project/.gitignore", "bin/")

	config, err := Init(fs, "/project/.ecomstar.yml", "postgres")
	require.NoError(t, err)
	assert.Equal(t, "postgres", config.SelectedEnvironment.Connection.Type())

	loaded, err := LoadFromFile(fs, "/project/.ecomstar.yml")
	require.NoError(t, err)
	require.NoError(t, loaded.SelectEnvironment(""))
	assert.Equal(t, "ecommerce", loaded.SelectedEnvironment.Connection.Postgres.Database)

	gitignore, err := afero.ReadFile(fs, "/project/.gitignore")
	require.NoError(t, err)
	assert.Equal(t, "bin/\n.ecomstar.yml\n", string(gitignore))

	_, err = Init(fs, "/project/.ecomstar.yml", "mysql")
	require.ErrorContains(t, err, "already exists")

	_, err = Init(fs, "/other/.ecomstar.yml", "oracle")
	require.ErrorContains(t, err, "unknown connection type 'oracle'")
}

func TestInit_CreatesGitignore(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	_, err := Init(fs, "/project/.ecomstar.yml", "")
	require.NoError(t, err)

	gitignore, err := afero.ReadFile(fs, "/project/.gitignore")
	require.NoError(t, err)
	assert.Equal(t, ".ecomstar.yml\n", string(gitignore))

	config, err := Load(fs, "/project/.ecomstar.yml", "")
	require.NoError(t, err)

	_, dialect, err := config.SelectedEnvironment.Connection.Warehouse()
	require.NoError(t, err)
	assert.Equal(t, mysql.Dialect{}, dialect)
}

func TestEnsureConfigIsInGitignore_IsIdempotent(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "/project/.gitignore", ".env\n.ecomstar.yml\n")

	require.NoError(t, ensureConfigIsInGitignore(fs, "/project/.ecomstar.yml"))

	gitignore, err := afero.ReadFile(fs, "/project/.gitignore")
	require.NoError(t, err)
	assert.Equal(t, ".env\n.ecomstar.yml\n", string(gitignore))
}
