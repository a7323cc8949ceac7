package record

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/sim"
)

// TableName is the table SQLiteRecorder writes to.
const TableName = "accesses"

// SQLiteRecorder writes accesses into an SQLite database, one transaction
// per batch.
type SQLiteRecorder struct {
	db        *sql.DB
	geometry  cache.Geometry
	rows      []Row
	batchSize int
	seq       uint64
	err       error
}

// NewSQLite creates the database at path and its accesses table. Addresses
// and tags are stored as hex text and sizes as decimal text, because SQLite
// integers are signed 64-bit.
func NewSQLite(path string, g cache.Geometry) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open record database: %w", err)
	}

	createTableSQL := `CREATE TABLE ` + TableName + ` (
	seq INTEGER PRIMARY KEY,
	time INTEGER NOT NULL,
	op TEXT NOT NULL,
	address TEXT NOT NULL,
	size TEXT NOT NULL,
	set_index INTEGER NOT NULL,
	tag TEXT NOT NULL,
	outcome TEXT NOT NULL,
	extra_hit BOOLEAN NOT NULL
);`
	if _, err := db.Exec(createTableSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create %s table: %w", TableName, err)
	}

	return &SQLiteRecorder{
		db:        db,
		geometry:  g,
		batchSize: 100000,
	}, nil
}

// Observe buffers one access.
func (r *SQLiteRecorder) Observe(res sim.Result) {
	r.seq++
	r.rows = append(r.rows, newRow(r.seq, r.geometry, res))
	if len(r.rows) >= r.batchSize {
		_ = r.Flush()
	}
}

// Flush inserts the buffered rows in a single transaction.
func (r *SQLiteRecorder) Flush() error {
	if r.err != nil || r.db == nil || len(r.rows) == 0 {
		return r.err
	}

	r.err = r.insert()
	r.rows = r.rows[:0]

	return r.err
}

func (r *SQLiteRecorder) insert() error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.Prepare(`INSERT INTO ` + TableName +
		` (` + strings.Join(columns, ", ") + `) VALUES (` + placeholders + `)`)
	if err != nil {
		return errors.Join(err, tx.Rollback())
	}
	defer func() { _ = stmt.Close() }()

	for _, row := range r.rows {
		_, err := stmt.Exec(
			int64(row.Seq),
			int64(row.Time),
			row.Op,
			fmt.Sprintf("%#x", row.Address),
			strconv.FormatUint(row.Size, 10),
			int64(row.SetIndex),
			fmt.Sprintf("%#x", row.Tag),
			row.Outcome,
			row.ExtraHit,
		)
		if err != nil {
			return errors.Join(err, tx.Rollback())
		}
	}

	return tx.Commit()
}

// Close flushes and closes the database.
func (r *SQLiteRecorder) Close() error {
	if r.db == nil {
		return r.err
	}

	err := errors.Join(r.Flush(), r.db.Close())
	r.db = nil

	return err
}
