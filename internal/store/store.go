package store

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	appdb "github.com/yourorg/habitgrid/internal/db"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken is returned when registration hits the username unique constraint.
	ErrUsernameTaken = errors.New("username already exists")
)

const mysqlDuplicateEntry = 1062

// Store issues flat, auto-committed statements against the habit tables.
type Store struct {
	db      *sql.DB
	dialect appdb.Dialect
}

// New wraps an open connection.
func New(db *sql.DB, dialect appdb.Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// DB exposes the underlying connection for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the SQL flavour of the connection.
func (s *Store) Dialect() appdb.Dialect {
	return s.dialect
}

func isUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
