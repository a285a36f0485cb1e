package batch

import (
	"strconv"
	"strings"
)

// Dialect captures the differences between the SQL engines a filter can be
// compiled for.
type Dialect interface {
	Name() string
	// Placeholder returns the parameter marker for the n'th argument,
	// counting from one.
	Placeholder(n int) string
	// Float returns col cast for comparison with a float parameter.
	Float(col string) string
	// Binary returns col under a byte-wise collation for string ordering.
	Binary(col string) string
}

var (
	SQLite   Dialect = sqlite{}
	Postgres Dialect = postgres{}
)

// LookupDialect returns the dialect for a database/sql driver name.
func LookupDialect(driver string) (Dialect, bool) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return SQLite, true
	case "pgx", "postgres", "postgresql":
		return Postgres, true
	}
	return nil, false
}

type sqlite struct{}

func (sqlite) Name() string { return "sqlite" }
func (sqlite) Placeholder(int) string { return "?" }
func (sqlite) Float(col string) string { return "CAST(" + col + " AS REAL)" }
func (sqlite) Binary(col string) string { return col }

type postgres struct{}

func (postgres) Name() string { return "postgres" }
func (postgres) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (postgres) Float(col string) string { return "CAST(" + col + " AS DOUBLE PRECISION)" }
func (postgres) Binary(col string) string { return col + ` COLLATE "C"` }
