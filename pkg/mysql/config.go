package mysql

import (
	"net"
	"strconv"

	driver "github.com/go-sql-driver/mysql"
)

const defaultPort = 3306

type Config struct {
	Username string
	Password string
	Host     string
	Port     int
	Database string
}

func (c Config) DriverName() string {
	return "mysql"
}

// ToDBConnectionURI returns a DSN in the go-sql-driver format, e.g. user:pass@tcp(host:3306)/db.
func (c Config) ToDBConnectionURI() string {
	if c.Port == 0 {
		c.Port = defaultPort
	}

	cfg := driver.NewConfig()
	cfg.User = c.Username
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	cfg.DBName = c.Database

	return cfg.FormatDSN()
}
