package app

import (
	_ "github.com/mattn/go-sqlite3"

	"database/sql"

	"k8s.io/klog/v2"

	// use deadlock detector mutexes here since deadlocks in database operations
	// will be common
	sync "github.com/sasha-s/go-deadlock"
)

var db *Database

type Database struct {
	db *sql.DB
	mu sync.Mutex
}

func checkErr(err error) {
	if err != nil {
		panic(err)
	}
}

func OpenDatabase(fname string) (*Database, error) {
	sdb, err := sql.Open("sqlite3", fname)
	if err != nil {
		return nil, err
	}
	if err := sdb.Ping(); err != nil {
		sdb.Close()
		return nil, err
	}
	return &Database{db: sdb}, nil
}

func (this *Database) Query(q string, args ...interface{}) *Rows {
	this.mu.Lock()
	klog.V(3).Infof("[db] Query: %v", q)
	rows, err := this.db.Query(q, args...)
	if err != nil {
		this.mu.Unlock()
		panic(err)
	}
	return &Rows{this, true, rows}
}

func (this *Database) QueryRow(q string, args ...interface{}) *Row {
	this.mu.Lock()
	klog.V(3).Infof("[db] QueryRow: %v", q)
	row := this.db.QueryRow(q, args...)
	return &Row{this, true, row}
}

func (this *Database) Exec(q string, args ...interface{}) Result {
	this.mu.Lock()
	defer this.mu.Unlock()
	klog.V(3).Infof("[db] Exec: %v", q)
	result, err := this.db.Exec(q, args...)
	checkErr(err)
	return Result{result}
}

func (this *Database) Close() error {
	this.mu.Lock()
	defer this.mu.Unlock()
	return this.db.Close()
}

type Rows struct {
	db     *Database
	locked bool
	rows   *sql.Rows
}

func (r *Rows) Close() {
	err := r.rows.Close()
	if r.locked {
		r.db.mu.Unlock()
		r.locked = false
	}
	checkErr(err)
}

func (r *Rows) Next() bool {
	hasNext := r.rows.Next()
	if !hasNext && r.locked {
		r.db.mu.Unlock()
		r.locked = false
	}
	return hasNext
}

func (r *Rows) Scan(dest ...interface{}) {
	err := r.rows.Scan(dest...)
	checkErr(err)
}

type Row struct {
	db     *Database
	locked bool
	row    *sql.Row
}

// Scan returns sql.ErrNoRows if the query matched nothing; other errors panic.
func (r *Row) Scan(dest ...interface{}) error {
	err := r.row.Scan(dest...)
	if r.locked {
		r.db.mu.Unlock()
		r.locked = false
	}
	if err == sql.ErrNoRows {
		return err
	}
	checkErr(err)
	return nil
}

type Result struct {
	result sql.Result
}

func (r Result) RowsAffected() int {
	count, err := r.result.RowsAffected()
	checkErr(err)
	return int(count)
}
