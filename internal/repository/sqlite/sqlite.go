// Package sqlite implements the domain repositories on SQLite using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/msomdec/taskdeck/internal/domain"
	"github.com/msomdec/taskdeck/internal/repository/sqlite/migrations"
)

// DB wraps the sql.DB handle and hands out repository instances.
// One DB is opened at process startup and shared by all requests.
type DB struct {
	SqlDB *sql.DB
}

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign keys.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL improves concurrent read performance.
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// A single connection sidesteps SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{SqlDB: db}, nil
}

// Migrate applies all pending schema migrations.
func (d *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, d.SqlDB)
}

// Close closes the underlying database handle.
func (d *DB) Close() error {
	return d.SqlDB.Close()
}

// Users returns the user repository backed by this database.
func (d *DB) Users() domain.UserRepository {
	return NewUserRepository(d)
}

// Sessions returns the session repository backed by this database.
func (d *DB) Sessions() domain.SessionRepository {
	return NewSessionRepository(d)
}

// Tasks returns the task repository backed by this database.
func (d *DB) Tasks() domain.TaskRepository {
	return NewTaskRepository(d)
}
