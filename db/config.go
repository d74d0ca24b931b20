package db

import (
	"fmt"
	"net/url"
)

const (
	// DriverSQLite selects the embedded SQLite backend
	DriverSQLite = "sqlite3"
	// DriverPostgres selects the Postgres backend
	DriverPostgres = "postgres"
)

// Config provide fields to configure the storage
type Config struct {
	// Driver is the database backend, "sqlite3" or "postgres"
	Driver string `jsonschema:"enum=sqlite3,enum=postgres" mapstructure:"Driver"`

	// Path is the file path of the SQLite database
	Path string `mapstructure:"Path"`

	// User is the Postgres user
	User string `mapstructure:"User"`

	// Password is the Postgres password
	Password string `mapstructure:"Password"`

	// Name is the Postgres database name
	Name string `mapstructure:"Name"`

	// Host is the Postgres host
	Host string `mapstructure:"Host"`

	// Port is the Postgres port
	Port string `mapstructure:"Port"`

	// EnableLog routes driver logs to the node logger
	EnableLog bool `mapstructure:"EnableLog"`

	// MaxConns is the maximum number of open connections, 0 means unlimited
	MaxConns int `mapstructure:"MaxConns"`
}

func (c Config) postgresURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:   c.Name,
	}
	return u.String()
}
