// Package history persists LM invocations to SQLite. It handles
// connection lifecycle, migrations, and the invocation store.
package history

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zjrosen/clilm/internal/history/migrations"
	"github.com/zjrosen/clilm/internal/log"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB manages the SQLite connection for the invocation history.
type DB struct {
	conn *sql.DB
	path string
}

// NewDB opens a database connection, configures pragmas, and runs migrations.
// Creates the parent directory if it doesn't exist. An existing database
// file is backed up to {path}.bak before migrations run.
func NewDB(path string) (*DB, error) {
	log.Debug(log.CatDB, "Opening history database", "path", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		log.ErrorErr(log.CatDB, "Failed to create database directory", err, "path", dir)
		return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}

	// Pre-migration backup
	if _, err := os.Stat(path); err == nil {
		backupPath := path + ".bak"
		if err := copyFile(path, backupPath); err != nil {
			log.ErrorErr(log.CatDB, "Failed to create pre-migration backup", err, "path", path, "backup", backupPath)
			return nil, fmt.Errorf("failed to create pre-migration backup: %w", err)
		}
		log.Debug(log.CatDB, "Created pre-migration backup", "backup", backupPath)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		log.ErrorErr(log.CatDB, "Failed to open database", err, "path", path)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		log.ErrorErr(log.CatDB, "Failed to ping database", err, "path", path)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode for better concurrent access
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = conn.Close()
		log.ErrorErr(log.CatDB, "Failed to enable WAL mode", err)
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = conn.Close()
		log.ErrorErr(log.CatDB, "Failed to enable foreign keys", err)
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = conn.Close()
		log.ErrorErr(log.CatDB, "Failed to set busy timeout", err)
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := migrations.RunMigrations(conn); err != nil {
		_ = conn.Close()
		log.ErrorErr(log.CatDB, "Failed to run migrations", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info(log.CatDB, "History database initialized", "path", path)

	return &DB{
		conn: conn,
		path: path,
	}, nil
}

// Close releases database resources.
func (db *DB) Close() error {
	if db.conn != nil {
		log.Debug(log.CatDB, "Closing history database", "path", db.path)
		return db.conn.Close()
	}
	return nil
}

// Store returns an invocation Store backed by this connection.
func (db *DB) Store() *Store {
	return newStore(db.conn)
}

// Connection returns the underlying *sql.DB for testing purposes.
func (db *DB) Connection() *sql.DB {
	return db.conn
}

// copyFile copies a file from src to dst, overwriting dst if present.
// Errors from closing the destination are reported so a backup that
// failed to flush is not silently trusted.
func copyFile(src, dst string) (retErr error) {
	sourceFile, err := os.Open(src) //nolint:gosec // G304: src is the database path, controlled by application
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sourceFile.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("failed to close source file: %w", closeErr)
		}
	}()

	sourceInfo, err := sourceFile.Stat()
	if err != nil {
		return err
	}

	destFile, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, sourceInfo.Mode()) //nolint:gosec // G304: dst is backup path derived from database path
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := destFile.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("failed to close backup file: %w", closeErr)
		}
	}()

	_, err = io.Copy(destFile, sourceFile)
	return err
}
