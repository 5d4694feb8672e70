package config

import (
	"strconv"

	"github.com/bruin-data/ecomstar/pkg/mysql"
	"github.com/bruin-data/ecomstar/pkg/postgres"
	"github.com/bruin-data/ecomstar/pkg/warehouse"
	"github.com/pkg/errors"
)

const envPrefix = "ECOMSTAR_"

type MySQLConnection struct {
	Username string `yaml:"username" validate:"required"`
	Password string `yaml:"password"`
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"omitempty,min=1,max=65535"`
	Database string `yaml:"database" validate:"required"`
}

type PostgresConnection struct {
	Username string `yaml:"username" validate:"required"`
	Password string `yaml:"password"`
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"omitempty,min=1,max=65535"`
	Database string `yaml:"database" validate:"required"`
	Schema   string `yaml:"schema"`
	SslMode  string `yaml:"ssl_mode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
}

// Connection is the warehouse of an environment, exactly one of the stores is set.
type Connection struct {
	MySQL    *MySQLConnection    `yaml:"mysql,omitempty"`
	Postgres *PostgresConnection `yaml:"postgres,omitempty"`
}

func (c *Connection) Type() string {
	switch {
	case c.MySQL != nil && c.Postgres == nil:
		return "mysql"
	case c.Postgres != nil && c.MySQL == nil:
		return "postgres"
	default:
		return ""
	}
}

func (c *Connection) validate() error {
	if c.MySQL == nil && c.Postgres == nil {
		return errors.New("no warehouse connection configured, add a 'mysql' or a 'postgres' connection")
	}
	if c.MySQL != nil && c.Postgres != nil {
		return errors.New("both a 'mysql' and a 'postgres' connection are configured, keep only one")
	}

	return nil
}

// Warehouse returns the connection details and the SQL dialect of the configured store.
func (c *Connection) Warehouse() (warehouse.Connector, warehouse.Dialect, error) {
	if err := c.validate(); err != nil {
		return nil, nil, err
	}

	if c.MySQL != nil {
		return mysql.Config{
			Username: c.MySQL.Username,
			Password: c.MySQL.Password,
			Host:     c.MySQL.Host,
			Port:     c.MySQL.Port,
			Database: c.MySQL.Database,
		}, mysql.Dialect{}, nil
	}

	return postgres.Config{
		Username: c.Postgres.Username,
		Password: c.Postgres.Password,
		Host:     c.Postgres.Host,
		Port:     c.Postgres.Port,
		Database: c.Postgres.Database,
		Schema:   c.Postgres.Schema,
		SslMode:  c.Postgres.SslMode,
	}, postgres.Dialect{}, nil
}

// applyEnv overrides the credentials with ECOMSTAR_DB_* variables, e.g. ECOMSTAR_DB_PASSWORD.
func (c *Connection) applyEnv(lookup LookupFunc) error {
	var username, password, host, database *string
	var port *int
	switch {
	case c.MySQL != nil:
		username, password, host, database, port = &c.MySQL.Username, &c.MySQL.Password, &c.MySQL.Host, &c.MySQL.Database, &c.MySQL.Port
	case c.Postgres != nil:
		username, password, host, database, port = &c.Postgres.Username, &c.Postgres.Password, &c.Postgres.Host, &c.Postgres.Database, &c.Postgres.Port
		if v, ok := lookup(envPrefix + "DB_SCHEMA"); ok {
			c.Postgres.Schema = v
		}
	default:
		return nil
	}

	for key, target := range map[string]*string{
		"DB_USERNAME": username,
		"DB_PASSWORD": password,
		"DB_HOST":     host,
		"DB_DATABASE": database,
	} {
		if v, ok := lookup(envPrefix + key); ok {
			*target = v
		}
	}

	if v, ok := lookup(envPrefix + "DB_PORT"); ok {
		p, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %sDB_PORT '%s'", envPrefix, v)
		}
		*port = p
	}

	return nil
}
