package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/dirk.krummacker/contactbook/internal/config"
	"gitlab.com/dirk.krummacker/contactbook/internal/model"
)

var columns = []string{"id", "firstname", "lastname", "emailaddress", "notes", "createdat", "updatedat"}

// createMockObjects builds a mock database handle and a mock object for defining our expected SQL
// calls.
func createMockObjects(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	return db, mock
}

// expectSetup instructs the mock object to expect the schema creation followed by the preparation
// of all statements.
func expectSetup(mock sqlmock.Sqlmock) {
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS contacts").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectPrepare("INSERT INTO contacts")
	mock.ExpectPrepare("SELECT \\* FROM contacts")
	mock.ExpectPrepare("SELECT \\* FROM contacts WHERE id = \\?")
	mock.ExpectPrepare("UPDATE contacts")
	mock.ExpectPrepare("DELETE FROM contacts WHERE id = \\?")
}

// createStore sets up a store on top of the mock database.
func createStore(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock) *SQLStore {
	expectSetup(mock)
	s, err := New(context.Background(), db, "mysql")
	require.NoError(t, err)
	return s
}

func timestamp(s string) model.Timestamp {
	ts, err := model.ParseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return ts
}

func erika() *model.Contact {
	return &model.Contact{
		Id:           "2f1a8b9e-4c3d-4e5f-8a7b-1c2d3e4f5a6b",
		FirstName:    "Erika",
		LastName:     "Mustermann",
		EmailAddress: "erika@example.com",
		Notes:        "<b>neighbour</b>",
		CreatedAt:    timestamp("2024-03-02T09:04:05.123Z"),
		UpdatedAt:    timestamp("2024-03-02T09:04:05.123Z"),
	}
}

func assertExpectations(t *testing.T, mock sqlmock.Sqlmock) {
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestSetupFailsWithoutSchema expects that a store cannot be created if the table cannot be.
func TestSetupFailsWithoutSchema(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS contacts").
		WillReturnError(errors.New("permission denied"))

	_, err := New(context.Background(), db, "mysql")
	assert.ErrorContains(t, err, "permission denied")
	assertExpectations(t, mock)
}

// TestGetAll expects all rows in the order of the database.
func TestGetAll(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	s := createStore(t, db, mock)

	rows := mock.NewRows(columns).
		AddRow("b", "Berta", "Brown", "", "", "2024-01-02T00:00:00.000Z", "2024-01-02T00:00:00.000Z").
		AddRow("a", "Aaron", "Adams", "aaron@example.com", "<i>x</i>", "2024-01-01T00:00:00.000Z", "2024-01-03T00:00:00.000Z")
	mock.ExpectQuery("SELECT \\* FROM contacts").WillReturnRows(rows)

	contacts, err := s.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "b", contacts[0].Id)
	assert.Equal(t, "Aaron", contacts[1].FirstName)
	assert.Equal(t, "aaron@example.com", contacts[1].EmailAddress)
	assert.Equal(t, "<i>x</i>", contacts[1].Notes)
	assert.Equal(t, "2024-01-03T00:00:00.000Z", contacts[1].UpdatedAt.String())
	assertExpectations(t, mock)
}

// TestGetAllEmpty expects an empty, non-nil list.
func TestGetAllEmpty(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	s := createStore(t, db, mock)

	mock.ExpectQuery("SELECT \\* FROM contacts").WillReturnRows(mock.NewRows(columns))

	contacts, err := s.GetAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, contacts)
	assert.Empty(t, contacts)
	assertExpectations(t, mock)
}

// TestGetByID expects the matching row.
func TestGetByID(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	s := createStore(t, db, mock)

	want := erika()
	rows := mock.NewRows(columns).AddRow(want.Id, want.FirstName, want.LastName, want.EmailAddress,
		want.Notes, want.CreatedAt.String(), want.UpdatedAt.String())
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE id = \\?").
		WithArgs(want.Id).
		WillReturnRows(rows)

	got, err := s.GetByID(context.Background(), want.Id)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assertExpectations(t, mock)
}

// TestGetByIDNotFound expects ErrNotFound for an unknown id.
func TestGetByIDNotFound(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	s := createStore(t, db, mock)

	mock.ExpectQuery("SELECT \\* FROM contacts WHERE id = \\?").
		WithArgs("9999").
		WillReturnRows(mock.NewRows(columns))

	_, err := s.GetByID(context.Background(), "9999")
	assert.ErrorIs(t, err, ErrNotFound)
	assertExpectations(t, mock)
}

// TestInsert expects that all columns are written in order.
func TestInsert(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	s := createStore(t, db, mock)

	contact := erika()
	mock.ExpectExec("INSERT INTO contacts").
		WithArgs(contact.Id, "Erika", "Mustermann", "erika@example.com", "<b>neighbour</b>",
			"2024-03-02T09:04:05.123Z", "2024-03-02T09:04:05.123Z").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Insert(context.Background(), contact))
	assertExpectations(t, mock)
}

// TestInsertFailure expects that a database error is passed on.
func TestInsertFailure(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	s := createStore(t, db, mock)

	mock.ExpectExec("INSERT INTO contacts").
		WillReturnError(errors.New("Duplicate entry"))

	err := s.Insert(context.Background(), erika())
	assert.ErrorContains(t, err, "Duplicate entry")
	assert.NotErrorIs(t, err, ErrNotFound)
	assertExpectations(t, mock)
}

// TestUpdateByID expects that the creation timestamp is not part of the update.
func TestUpdateByID(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	s := createStore(t, db, mock)

	contact := erika()
	contact.FirstName = "Rudi"
	contact.UpdatedAt = timestamp("2024-04-13T00:00:00.000Z")
	mock.ExpectExec("UPDATE contacts").
		WithArgs("Rudi", "Mustermann", "erika@example.com", "<b>neighbour</b>",
			"2024-04-13T00:00:00.000Z", contact.Id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.UpdateByID(context.Background(), contact))
	assertExpectations(t, mock)
}

// TestUpdateByIDNotFound expects ErrNotFound if no row was touched.
func TestUpdateByIDNotFound(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	s := createStore(t, db, mock)

	mock.ExpectExec("UPDATE contacts").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, s.UpdateByID(context.Background(), erika()), ErrNotFound)
	assertExpectations(t, mock)
}

// TestDeleteByID expects that exactly one row is removed.
func TestDeleteByID(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	s := createStore(t, db, mock)

	mock.ExpectExec("DELETE FROM contacts").
		WithArgs("42").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM contacts").
		WithArgs("9999").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, s.DeleteByID(context.Background(), "42"))
	assert.ErrorIs(t, s.DeleteByID(context.Background(), "9999"), ErrNotFound)
	assertExpectations(t, mock)
}

// TestDeleteByIDFailure expects that a database error is not mistaken for a missing contact.
func TestDeleteByIDFailure(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	s := createStore(t, db, mock)

	mock.ExpectExec("DELETE FROM contacts").
		WillReturnError(sql.ErrConnDone)

	err := s.DeleteByID(context.Background(), "42")
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NotErrorIs(t, err, ErrNotFound)
	assertExpectations(t, mock)
}

// TestDriverName checks the mapping from configuration to database/sql driver names.
func TestDriverName(t *testing.T) {
	for kind, want := range map[string]string{
		config.DriverMySQL:    "mysql",
		config.DriverPostgres: "pgx",
		config.DriverSQLite:   "sqlite",
	} {
		got, err := DriverName(kind)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := DriverName("oracle")
	assert.Error(t, err)
}

// openSQLite creates a store on a fresh sqlite file.
func openSQLite(t *testing.T) *SQLStore {
	cfg := config.Database{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "db", "contacts.db")}
	sqlDB, driverName, err := CreateDatabase(cfg)
	require.NoError(t, err)
	s, err := New(context.Background(), sqlDB, driverName)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// TestSQLiteRoundTrip runs all store operations against a real sqlite database.
func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)
	require.NoError(t, s.Ping(ctx))

	contact := erika()
	require.NoError(t, s.Insert(ctx, contact))
	assert.Error(t, s.Insert(ctx, contact), "duplicate ids must be rejected")

	got, err := s.GetByID(ctx, contact.Id)
	require.NoError(t, err)
	assert.Equal(t, contact, got)

	updated := *contact
	updated.LastName = "Musterfrau"
	updated.CreatedAt = model.NewTimestamp(time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC))
	updated.UpdatedAt = timestamp("2024-03-02T09:04:05.124Z")
	require.NoError(t, s.UpdateByID(ctx, &updated))

	got, err = s.GetByID(ctx, contact.Id)
	require.NoError(t, err)
	assert.Equal(t, "Musterfrau", got.LastName)
	assert.Equal(t, contact.CreatedAt, got.CreatedAt, "creation timestamp must not change")
	assert.Equal(t, updated.UpdatedAt, got.UpdatedAt)

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.DeleteByID(ctx, contact.Id))
	_, err = s.GetByID(ctx, contact.Id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteByID(ctx, contact.Id), ErrNotFound)
	assert.ErrorIs(t, s.UpdateByID(ctx, contact), ErrNotFound)
}

// TestSchemaIsIdempotent expects that opening a store twice on the same file keeps the data.
func TestSchemaIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contacts.db")
	cfg := config.Database{Driver: config.DriverSQLite, Path: path}

	sqlDB, driverName, err := CreateDatabase(cfg)
	require.NoError(t, err)
	first, err := New(ctx, sqlDB, driverName)
	require.NoError(t, err)
	require.NoError(t, first.Insert(ctx, erika()))
	require.NoError(t, first.Close())

	sqlDB, driverName, err = CreateDatabase(cfg)
	require.NoError(t, err)
	second, err := New(ctx, sqlDB, driverName)
	require.NoError(t, err)
	defer second.Close()

	all, err := second.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
