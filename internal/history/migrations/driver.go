package migrations

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/golang-migrate/migrate/v4/database"
)

// DefaultMigrationsTable is the default table name for migration tracking.
const DefaultMigrationsTable = "schema_migrations"

// ErrNilConfig indicates no config was provided.
var ErrNilConfig = errors.New("no config")

// Config holds configuration for the SQLite migration driver.
type Config struct {
	MigrationsTable string
	NoTxWrap        bool
}

// Driver is a golang-migrate database.Driver for ncruces/go-sqlite3.
// It mirrors golang-migrate's sqlite3 driver without the mattn import.
type Driver struct {
	db       *sql.DB
	isLocked atomic.Bool
	config   *Config
}

// WithInstance creates a Driver from an existing sql.DB connection.
// The connection should be opened with the ncruces driver.
func WithInstance(instance *sql.DB, config *Config) (database.Driver, error) {
	if config == nil {
		return nil, ErrNilConfig
	}

	if err := instance.Ping(); err != nil {
		return nil, err
	}

	if len(config.MigrationsTable) == 0 {
		config.MigrationsTable = DefaultMigrationsTable
	}

	d := &Driver{
		db:     instance,
		config: config,
	}
	if err := d.ensureVersionTable(); err != nil {
		return nil, err
	}
	return d, nil
}

// ensureVersionTable creates the migrations tracking table if it doesn't exist.
func (d *Driver) ensureVersionTable() (err error) {
	if err = d.Lock(); err != nil {
		return err
	}

	defer func() {
		if e := d.Unlock(); e != nil {
			err = errors.Join(err, e)
		}
	}()

	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (version uint64, dirty bool);
	CREATE UNIQUE INDEX IF NOT EXISTS version_unique ON %s (version);
	`, d.config.MigrationsTable, d.config.MigrationsTable)

	if _, err := d.db.Exec(query); err != nil {
		return err
	}
	return nil
}

// Open is not implemented; use WithInstance with a pre-opened connection.
func (d *Driver) Open(_ string) (database.Driver, error) {
	return nil, errors.New("Open not implemented; use WithInstance with ncruces driver")
}

// Close closes the database connection.
func (d *Driver) Close() error {
	return d.db.Close()
}

// Lock acquires an in-memory lock for migration operations.
func (d *Driver) Lock() error {
	if !d.isLocked.CompareAndSwap(false, true) {
		return database.ErrLocked
	}
	return nil
}

// Unlock releases the in-memory lock.
func (d *Driver) Unlock() error {
	if !d.isLocked.CompareAndSwap(true, false) {
		return database.ErrNotLocked
	}
	return nil
}

// Run executes a migration.
func (d *Driver) Run(migration io.Reader) error {
	migr, err := io.ReadAll(migration)
	if err != nil {
		return err
	}
	query := string(migr)

	if d.config.NoTxWrap {
		return d.executeQueryNoTx(query)
	}
	return d.executeQuery(query)
}

func (d *Driver) executeQuery(query string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return &database.Error{OrigErr: err, Err: "transaction start failed"}
	}
	if _, err := tx.Exec(query); err != nil {
		if errRollback := tx.Rollback(); errRollback != nil {
			err = errors.Join(err, errRollback)
		}
		return &database.Error{OrigErr: err, Query: []byte(query)}
	}
	if err := tx.Commit(); err != nil {
		return &database.Error{OrigErr: err, Err: "transaction commit failed"}
	}
	return nil
}

func (d *Driver) executeQueryNoTx(query string) error {
	if _, err := d.db.Exec(query); err != nil {
		return &database.Error{OrigErr: err, Query: []byte(query)}
	}
	return nil
}

// SetVersion sets the current migration version.
func (d *Driver) SetVersion(version int, dirty bool) error {
	tx, err := d.db.Begin()
	if err != nil {
		return &database.Error{OrigErr: err, Err: "transaction start failed"}
	}

	query := "DELETE FROM " + d.config.MigrationsTable //nolint:gosec // table name is from trusted config, not user input
	if _, err := tx.Exec(query); err != nil {
		if errRollback := tx.Rollback(); errRollback != nil {
			err = errors.Join(err, errRollback)
		}
		return &database.Error{OrigErr: err, Query: []byte(query)}
	}

	// Re-write the version even for nil dirty versions so a failed down
	// migration on the first migration does not leave an empty table.
	// See: https://github.com/golang-migrate/migrate/issues/330
	if version >= 0 || (version == database.NilVersion && dirty) {
		query := fmt.Sprintf(`INSERT INTO %s (version, dirty) VALUES (?, ?)`, d.config.MigrationsTable) //nolint:gosec // table name is from trusted config, not user input
		if _, err := tx.Exec(query, version, dirty); err != nil {
			if errRollback := tx.Rollback(); errRollback != nil {
				err = errors.Join(err, errRollback)
			}
			return &database.Error{OrigErr: err, Query: []byte(query)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &database.Error{OrigErr: err, Err: "transaction commit failed"}
	}

	return nil
}

// Version returns the current migration version.
func (d *Driver) Version() (version int, dirty bool, err error) {
	query := "SELECT version, dirty FROM " + d.config.MigrationsTable + " LIMIT 1"
	err = d.db.QueryRow(query).Scan(&version, &dirty)
	if err != nil {
		return database.NilVersion, false, nil
	}
	return version, dirty, nil
}

// Drop drops all tables in the database.
func (d *Driver) Drop() (err error) {
	query := `SELECT name FROM sqlite_master WHERE type = 'table';`
	tables, err := d.db.Query(query)
	if err != nil {
		return &database.Error{OrigErr: err, Query: []byte(query)}
	}
	defer func() {
		if errClose := tables.Close(); errClose != nil {
			err = errors.Join(err, errClose)
		}
	}()

	tableNames := make([]string, 0)
	for tables.Next() {
		var tableName string
		if err := tables.Scan(&tableName); err != nil {
			return err
		}
		if len(tableName) > 0 {
			tableNames = append(tableNames, tableName)
		}
	}
	if err := tables.Err(); err != nil {
		return &database.Error{OrigErr: err, Query: []byte(query)}
	}

	for _, t := range tableNames {
		query := "DROP TABLE " + t
		err = d.executeQuery(query)
		if err != nil {
			return &database.Error{OrigErr: err, Query: []byte(query)}
		}
	}
	if len(tableNames) > 0 {
		query := "VACUUM"
		_, err = d.db.Exec(query)
		if err != nil {
			return &database.Error{OrigErr: err, Query: []byte(query)}
		}
	}

	return nil
}
