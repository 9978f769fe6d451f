package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"eb-go/internal/catalog/migrations"
	"eb-go/internal/engine"
	"eb-go/internal/model"

	"github.com/mattn/go-sqlite3"
)

// ErrPathExists reports an insert that violated the catalog's unique-path
// constraint. The catalog does not support re-scanning paths in place.
var ErrPathExists = errors.New("path already exists in catalog")

// ErrEntryNotFound reports an update that matched no entry row.
var ErrEntryNotFound = errors.New("entry not found in catalog")

// SQLiteCatalog implements the engine.Catalog interface using SQLite.
// Every mutation is a single autocommitted statement, so the store never
// exposes a partially-written entry.
type SQLiteCatalog struct {
	db   *sql.DB
	path string
}

// NewSQLiteCatalog opens a catalog at path and brings its schema up to date.
// path can be a file path or ":memory:" for an in-memory catalog.
func NewSQLiteCatalog(path string) (*SQLiteCatalog, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating catalog schema: %w", err)
	}

	return &SQLiteCatalog{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection with appropriate
// PRAGMAs. Exported for tools and tests that need a raw configured connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	// Foreign keys are OFF by default in SQLite for backward compatibility.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

const entryColumns = "id, name, path, size, kind, status, parent_id, hash, content_owner_id"

// scanEntry reads one entry row. The row must have been selected with entryColumns.
func scanEntry(row interface{ Scan(...any) error }) (*model.Entry, error) {
	var e model.Entry
	var kind, status string
	var parentID, ownerID sql.NullInt64
	var hash sql.NullString

	err := row.Scan(&e.ID, &e.Name, &e.Path, &e.Size, &kind, &status, &parentID, &hash, &ownerID)
	if err != nil {
		return nil, err
	}

	e.Kind = model.Kind(kind)
	e.Status = model.Status(status)
	if parentID.Valid {
		e.ParentID = &parentID.Int64
	}
	if hash.Valid {
		e.Hash = &hash.String
	}
	if ownerID.Valid {
		e.ContentOwnerID = &ownerID.Int64
	}
	return &e, nil
}

// Entry operations

func (c *SQLiteCatalog) InsertEntry(entry *model.Entry) (*model.Entry, error) {
	var parentID, ownerID sql.NullInt64
	if entry.ParentID != nil {
		parentID = sql.NullInt64{Int64: *entry.ParentID, Valid: true}
	}
	if entry.ContentOwnerID != nil {
		ownerID = sql.NullInt64{Int64: *entry.ContentOwnerID, Valid: true}
	}
	var hash sql.NullString
	if entry.Hash != nil {
		hash = sql.NullString{String: *entry.Hash, Valid: true}
	}

	res, err := c.db.Exec(
		"INSERT INTO entries (name, path, size, kind, status, parent_id, hash, content_owner_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		entry.Name, entry.Path, entry.Size, string(entry.Kind), string(entry.Status), parentID, hash, ownerID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("inserting entry %s: %w", entry.Path, ErrPathExists)
		}
		return nil, fmt.Errorf("inserting entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading inserted entry id: %w", err)
	}

	inserted := *entry
	inserted.ID = id
	return &inserted, nil
}

func (c *SQLiteCatalog) FindEntryByID(id int64) (*model.Entry, error) {
	row := c.db.QueryRow("SELECT "+entryColumns+" FROM entries WHERE id = ?", id)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding entry by id: %w", err)
	}
	return e, nil
}

func (c *SQLiteCatalog) FindEntryByPath(path string) (*model.Entry, error) {
	row := c.db.QueryRow("SELECT "+entryColumns+" FROM entries WHERE path = ?", path)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding entry by path: %w", err)
	}
	return e, nil
}

func (c *SQLiteCatalog) FindChildren(parentID int64) ([]*model.Entry, error) {
	rows, err := c.db.Query("SELECT "+entryColumns+" FROM entries WHERE parent_id = ? ORDER BY id", parentID)
	if err != nil {
		return nil, fmt.Errorf("finding children: %w", err)
	}
	return collectEntries(rows)
}

func (c *SQLiteCatalog) AllEntries() ([]*model.Entry, error) {
	rows, err := c.db.Query("SELECT " + entryColumns + " FROM entries ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return collectEntries(rows)
}

func (c *SQLiteCatalog) FindEntriesByStatus(statuses ...model.Status) ([]*model.Entry, error) {
	placeholders, args := statusArgs(statuses)
	rows, err := c.db.Query(
		"SELECT "+entryColumns+" FROM entries WHERE status IN ("+placeholders+") ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("finding entries by status: %w", err)
	}
	return collectEntries(rows)
}

func (c *SQLiteCatalog) CountEntriesByStatus(statuses ...model.Status) (int64, error) {
	placeholders, args := statusArgs(statuses)
	var count int64
	err := c.db.QueryRow(
		"SELECT COUNT(*) FROM entries WHERE status IN ("+placeholders+")", args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting entries by status: %w", err)
	}
	return count, nil
}

func (c *SQLiteCatalog) CountEntries() (int64, error) {
	var count int64
	if err := c.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return count, nil
}

func (c *SQLiteCatalog) UpdateEntryStatus(id int64, status model.Status) error {
	if err := c.updateEntry("UPDATE entries SET status = ? WHERE id = ?", string(status), id); err != nil {
		return fmt.Errorf("updating entry status: %w", err)
	}
	return nil
}

func (c *SQLiteCatalog) UpdateEntryHash(id int64, hash string) error {
	if err := c.updateEntry("UPDATE entries SET hash = ? WHERE id = ?", hash, id); err != nil {
		return fmt.Errorf("updating entry hash: %w", err)
	}
	return nil
}

func (c *SQLiteCatalog) UpdateEntryContentOwner(id int64, ownerID int64) error {
	if err := c.updateEntry("UPDATE entries SET content_owner_id = ? WHERE id = ?", ownerID, id); err != nil {
		return fmt.Errorf("updating entry content owner: %w", err)
	}
	return nil
}

// updateEntry runs a single-row UPDATE and fails with ErrEntryNotFound when
// no row matched. The id is the last placeholder in every update statement.
func (c *SQLiteCatalog) updateEntry(query string, args ...any) error {
	res, err := c.db.Exec(query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (c *SQLiteCatalog) Reset() error {
	if _, err := c.db.Exec("DELETE FROM entries"); err != nil {
		return fmt.Errorf("resetting catalog: %w", err)
	}
	return nil
}

// Run history

func (c *SQLiteCatalog) CreateRun(operation string) (*model.Run, error) {
	started := time.Now()
	res, err := c.db.Exec(
		"INSERT INTO runs (operation, started_at, status) VALUES (?, ?, ?)",
		operation, started, "running",
	)
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading run id: %w", err)
	}
	return &model.Run{ID: id, Operation: operation, StartedAt: started, Status: "running"}, nil
}

func (c *SQLiteCatalog) FinishRun(id int64, status string) error {
	_, err := c.db.Exec(
		"UPDATE runs SET finished_at = ?, status = ? WHERE id = ?",
		time.Now(), status, id,
	)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	return nil
}

func (c *SQLiteCatalog) ListRuns(limit int) ([]*model.Run, error) {
	rows, err := c.db.Query(
		"SELECT id, operation, started_at, finished_at, status FROM runs ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		var r model.Run
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Operation, &r.StartedAt, &finished, &r.Status); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if finished.Valid {
			r.FinishedAt = &finished.Time
		}
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// Path returns the catalog file path (or ":memory:" for in-memory catalogs).
func (c *SQLiteCatalog) Path() string {
	return c.path
}

// CheckSchema verifies the catalog schema is up-to-date.
func (c *SQLiteCatalog) CheckSchema() error {
	return migrations.Check(c.db)
}

// Close closes the catalog connection.
func (c *SQLiteCatalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// collectEntries drains rows into a slice, closing them.
func collectEntries(rows *sql.Rows) ([]*model.Entry, error) {
	defer rows.Close()

	var entries []*model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading entries: %w", err)
	}
	return entries, nil
}

// statusArgs expands a status set into an IN-clause placeholder list and args.
func statusArgs(statuses []model.Status) (string, []any) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	args := make([]any, len(statuses))
	for i, s := range statuses {
		args[i] = string(s)
	}
	return placeholders, args
}

// isUniqueViolation reports whether err is SQLite's UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// Compile-time check that SQLiteCatalog implements engine.Catalog.
var _ engine.Catalog = (*SQLiteCatalog)(nil)
