package postgres

import (
	"net"
	"net/url"
	"strconv"
)

const defaultPort = 5432

type Config struct {
	Username string
	Password string
	Host     string
	Port     int
	Database string
	Schema   string
	SslMode  string
}

// DriverName is the database/sql driver registered by pgx's stdlib package.
func (c Config) DriverName() string {
	return "pgx"
}

// ToDBConnectionURI returns a connection URI to be used with the pgx package.
func (c Config) ToDBConnectionURI() string {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.SslMode == "" {
		c.SslMode = "disable"
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   c.Database,
	}

	q := url.Values{}
	q.Set("sslmode", c.SslMode)
	if c.Schema != "" {
		q.Set("search_path", c.Schema)
	}
	u.RawQuery = q.Encode()

	return u.String()
}
