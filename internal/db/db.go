package db

import (
	"log/slog"
	"os"
	"strings"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Connect opens the database. MySQL DSNs are the production path; a DSN
// prefixed with "sqlite://" (or "file:") opens an embedded sqlite database
// for local development.
func Connect(dsn string) *gorm.DB {
	var dial gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		dial = gormsqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "file:"):
		dial = gormsqlite.Open(dsn)
	default:
		dial = mysql.Open(dsn)
	}

	gdb, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		slog.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	return gdb
}
