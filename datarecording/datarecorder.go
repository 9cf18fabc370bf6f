// Package datarecording stores flat records produced during a run into an
// SQLite database.
package datarecording

import (
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/fatih/structs"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	// Pure-Go SQLite, registered as "sqlite".
	_ "github.com/glebarez/go-sqlite"

	// cgo SQLite, registered as "sqlite3".
	_ "github.com/mattn/go-sqlite3"
)

// Driver names accepted by Open.
const (
	DriverCGo    = "sqlite3"
	DriverPureGo = "sqlite"
)

const defaultBatchSize = 100000

// DataRecorder is a backend that can record and store data.
type DataRecorder interface {
	// CreateTable creates a new table whose columns are the fields of
	// sampleEntry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry for a table that already exists. The entry
	// must have the same type as the table's sample entry.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all tables created so far.
	ListTables() []string

	// Flush writes all buffered entries into the database.
	Flush()

	// Close flushes and closes the database.
	Close() error
}

// New creates a recorder writing into path + ".sqlite3" with the cgo
// driver. An empty path picks a unique name.
func New(path string) (DataRecorder, error) {
	return Open(DriverCGo, path)
}

// NewPureGo is New without cgo.
func NewPureGo(path string) (DataRecorder, error) {
	return Open(DriverPureGo, path)
}

// Open creates a recorder writing into path + ".sqlite3" with the given
// driver. The file must not exist yet. Buffered entries are flushed when the
// process exits through atexit.
func Open(driver, path string) (DataRecorder, error) {
	if path == "" {
		path = "avrtester_recording_" + xid.New().String()
	}

	filename := path + ".sqlite3"

	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open(driver, filename)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}

	fmt.Fprintf(os.Stderr, "Database created for recording: %s\n", filename)

	w := newSQLiteWriter(db)
	w.filename = filename

	atexit.Register(func() { w.Flush() })

	return w, nil
}

// NewWithDB creates a recorder on top of an open database.
func NewWithDB(db *sql.DB) DataRecorder {
	return newSQLiteWriter(db)
}

type table struct {
	structType reflect.Type
	entries    []any
}

// sqliteWriter is the writer that writes data into SQLite database
type sqliteWriter struct {
	*sql.DB

	filename   string
	tables     map[string]*table
	batchSize  int
	entryCount int
	closed     bool
}

func newSQLiteWriter(db *sql.DB) *sqliteWriter {
	return &sqliteWriter{
		DB:        db,
		tables:    make(map[string]*table),
		batchSize: defaultBatchSize,
	}
}

func isAllowedKind(kind reflect.Kind) bool {
	switch kind {
	case
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Float32,
		reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func checkStructFields(entry any) error {
	t := reflect.TypeOf(entry)
	if t == nil || t.Kind() != reflect.Struct {
		return fmt.Errorf("entry must be a struct, got %T", entry)
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if !field.IsExported() {
			return fmt.Errorf("field %s of %s is not exported", field.Name, t)
		}

		if !isAllowedKind(field.Type.Kind()) {
			return fmt.Errorf("field %s of %s has unsupported type %s",
				field.Name, t, field.Type)
		}
	}

	return nil
}

func (w *sqliteWriter) CreateTable(tableName string, sampleEntry any) {
	if err := checkStructFields(sampleEntry); err != nil {
		panic(err)
	}

	if _, exists := w.tables[tableName]; exists {
		panic(fmt.Sprintf("table %s already exists", tableName))
	}

	fields := strings.Join(structs.Names(sampleEntry), ", \n\t")

	createTableSQL := `CREATE TABLE ` + tableName +
		` (` + "\n\t" + fields + "\n" + `);`
	w.mustExecute(createTableSQL)

	w.tables[tableName] = &table{
		structType: reflect.TypeOf(sampleEntry),
	}
}

func (w *sqliteWriter) InsertData(tableName string, entry any) {
	t, exists := w.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != t.structType {
		panic(fmt.Sprintf("table %s stores %s, got %T",
			tableName, t.structType, entry))
	}

	t.entries = append(t.entries, entry)

	w.entryCount++
	if w.entryCount >= w.batchSize {
		w.Flush()
	}
}

func (w *sqliteWriter) ListTables() []string {
	tables := make([]string, 0, len(w.tables))
	for name := range w.tables {
		tables = append(tables, name)
	}

	sort.Strings(tables)

	return tables
}

func (w *sqliteWriter) Flush() {
	if w.entryCount == 0 || w.closed {
		return
	}

	tx, err := w.Begin()
	if err != nil {
		panic(err)
	}

	for _, name := range w.ListTables() {
		t := w.tables[name]
		if len(t.entries) == 0 {
			continue
		}

		stmt := w.prepareStatement(tx, name, t.entries[0])

		for _, entry := range t.entries {
			if _, err := stmt.Exec(structs.Values(entry)...); err != nil {
				panic(err)
			}
		}

		stmt.Close()

		t.entries = nil
	}

	if err := tx.Commit(); err != nil {
		panic(err)
	}

	w.entryCount = 0
}

func (w *sqliteWriter) Close() error {
	if w.closed {
		return nil
	}

	w.Flush()
	w.closed = true

	return w.DB.Close()
}

func (w *sqliteWriter) mustExecute(query string) sql.Result {
	res, err := w.Exec(query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute: %s\n", query)
		panic(err)
	}

	return res
}

func (w *sqliteWriter) prepareStatement(
	tx *sql.Tx,
	tableName string,
	entry any,
) *sql.Stmt {
	n := structs.Names(entry)
	for i := range n {
		n[i] = "?"
	}

	sqlStr := "INSERT INTO " + tableName +
		" VALUES (" + strings.Join(n, ", ") + ")"

	stmt, err := tx.Prepare(sqlStr)
	if err != nil {
		panic(err)
	}

	return stmt
}
