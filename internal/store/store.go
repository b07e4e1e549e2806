package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gitlab.com/dirk.krummacker/contactbook/internal/config"
	"gitlab.com/dirk.krummacker/contactbook/internal/model"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no contact has the requested id.
var ErrNotFound = errors.New("contact not found")

// schema is the only table of the application. The statement is idempotent and runs whenever a
// store is created. Timestamps are stored as text in model.TimeLayout.
const schema = `
	CREATE TABLE IF NOT EXISTS contacts (
		id VARCHAR(36) PRIMARY KEY,
		firstname VARCHAR(255) NOT NULL,
		lastname VARCHAR(255) NOT NULL,
		emailaddress VARCHAR(255) NOT NULL,
		notes TEXT NOT NULL,
		createdat VARCHAR(32) NOT NULL,
		updatedat VARCHAR(32) NOT NULL
	)
`

func init() {
	// The modernc driver registers itself as "sqlite", which sqlx does not know yet.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// DriverName maps the configured database kind to the name of the database/sql driver.
func DriverName(kind string) (string, error) {
	switch kind {
	case config.DriverMySQL:
		return "mysql", nil
	case config.DriverPostgres:
		return "pgx", nil
	case config.DriverSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", kind)
	}
}

// CreateDatabase opens a connection pool to the configured database. It returns the pool together
// with the name of the driver, which sqlx needs to pick the placeholder style.
func CreateDatabase(cfg config.Database) (*sql.DB, string, error) {
	driverName, err := DriverName(cfg.Driver)
	if err != nil {
		return nil, "", err
	}
	var dsn string
	switch cfg.Driver {
	case config.DriverMySQL:
		dsn = fmt.Sprintf("%s:%s@tcp(%s)/%s?clientFoundRows=true", cfg.User, cfg.Password, cfg.Host, cfg.Name)
	case config.DriverPostgres:
		dsn = (&url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(cfg.User, cfg.Password),
			Host:   cfg.Host,
			Path:   "/" + cfg.Name,
		}).String()
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, "", fmt.Errorf("could not create database directory: %w", err)
			}
		}
		dsn = cfg.Path + "?_pragma=busy_timeout(5000)"
	}
	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("could not open %s database: %w", cfg.Driver, err)
	}
	return sqlDB, driverName, nil
}

// SQLStore persists contacts in a relational database.
type SQLStore struct {
	db *sqlx.DB

	// Prepared statements offer a significant speed increase if executed many times.
	insert        *sqlx.NamedStmt
	update        *sqlx.NamedStmt
	selectAll     *sqlx.Stmt
	selectWhereId *sqlx.Stmt
	deleteWhereId *sqlx.Stmt
}

// New wraps the specified database, creates the contacts table if it does not exist yet and then
// prepares all statements. The database argument can be a real database for production use or a
// mock database within unit tests.
func New(ctx context.Context, sqlDB *sql.DB, driverName string) (*SQLStore, error) {
	db := sqlx.NewDb(sqlDB, driverName)
	if err := EnsureSchema(ctx, db); err != nil {
		return nil, err
	}
	s := &SQLStore{db: db}
	var err error
	s.insert, err = db.PrepareNamedContext(ctx, `
		INSERT INTO contacts (id, firstname, lastname, emailaddress, notes, createdat, updatedat)
		VALUES (:id, :firstname, :lastname, :emailaddress, :notes, :createdat, :updatedat)
	`)
	if err != nil {
		return nil, fmt.Errorf("could not prepare insert: %w", err)
	}
	s.selectAll, err = db.PreparexContext(ctx, `
		SELECT * FROM contacts
	`)
	if err != nil {
		return nil, fmt.Errorf("could not prepare select: %w", err)
	}
	s.selectWhereId, err = db.PreparexContext(ctx, db.Rebind(`
		SELECT * FROM contacts WHERE id = ?
	`))
	if err != nil {
		return nil, fmt.Errorf("could not prepare select by id: %w", err)
	}
	s.update, err = db.PrepareNamedContext(ctx, `
		UPDATE contacts
		SET firstname = :firstname, lastname = :lastname, emailaddress = :emailaddress,
			notes = :notes, updatedat = :updatedat
		WHERE id = :id
	`)
	if err != nil {
		return nil, fmt.Errorf("could not prepare update: %w", err)
	}
	s.deleteWhereId, err = db.PreparexContext(ctx, db.Rebind(`
		DELETE FROM contacts WHERE id = ?
	`))
	if err != nil {
		return nil, fmt.Errorf("could not prepare delete: %w", err)
	}
	return s, nil
}

// EnsureSchema creates the contacts table unless it exists.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("could not create contacts table: %w", err)
	}
	return nil
}

// GetAll returns all contacts in the order the database delivers them.
func (s *SQLStore) GetAll(ctx context.Context) ([]model.Contact, error) {
	contacts := []model.Contact{}
	if err := s.selectAll.SelectContext(ctx, &contacts); err != nil {
		return nil, fmt.Errorf("could not select contacts: %w", err)
	}
	return contacts, nil
}

// GetByID returns the contact with the given id, or ErrNotFound.
func (s *SQLStore) GetByID(ctx context.Context, id string) (*model.Contact, error) {
	var contacts []model.Contact
	if err := s.selectWhereId.SelectContext(ctx, &contacts, id); err != nil {
		return nil, fmt.Errorf("could not select contact %s: %w", id, err)
	}
	if len(contacts) == 0 {
		return nil, ErrNotFound
	}
	return &contacts[0], nil
}

// Insert stores a new contact. It fails if a contact with the same id exists.
func (s *SQLStore) Insert(ctx context.Context, contact *model.Contact) error {
	if _, err := s.insert.ExecContext(ctx, contact); err != nil {
		return fmt.Errorf("could not insert contact %s: %w", contact.Id, err)
	}
	return nil
}

// UpdateByID overwrites the editable fields and the update timestamp of an existing contact. The
// creation timestamp is never written. It returns ErrNotFound if no contact has the id.
func (s *SQLStore) UpdateByID(ctx context.Context, contact *model.Contact) error {
	result, err := s.update.ExecContext(ctx, contact)
	if err != nil {
		return fmt.Errorf("could not update contact %s: %w", contact.Id, err)
	}
	return expectOneRow(result, contact.Id)
}

// DeleteByID removes a contact. It returns ErrNotFound if no contact has the id.
func (s *SQLStore) DeleteByID(ctx context.Context, id string) error {
	result, err := s.deleteWhereId.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("could not delete contact %s: %w", id, err)
	}
	return expectOneRow(result, id)
}

func expectOneRow(result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not count affected rows for contact %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the prepared statements and the connection pool.
func (s *SQLStore) Close() error {
	for _, stmt := range []interface{ Close() error }{s.insert, s.update, s.selectAll, s.selectWhereId, s.deleteWhereId} {
		stmt.Close()
	}
	return s.db.Close()
}
