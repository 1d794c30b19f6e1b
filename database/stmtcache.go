package database

import (
	"database/sql"
	"sync"
)

// Runner is satisfied by both *sql.DB and *sql.Tx so that stores can run
// the same queries inside or outside a transaction.
type Runner interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// to cache prepared sql statement, which maps query string to stmt.
type StmtCache struct {
	db *sql.DB
	m  sync.Map
}

func NewStmtCache(db *sql.DB) *StmtCache {
	return &StmtCache{db: db}
}

func (sc *StmtCache) Prepare(query string) (*sql.Stmt, error) {
	cached, _ := sc.m.Load(query)
	if cached == nil {
		stmt, err := sc.db.Prepare(query)
		if err != nil {
			return nil, err
		}
		sc.m.Store(query, stmt)
		cached = stmt
	}
	return cached.(*sql.Stmt), nil
}

// PrepareAll warms the cache. Stores call it from their constructors so
// that no statement has to be prepared on the pool while a transaction
// holds the only connection.
func (sc *StmtCache) PrepareAll(queries ...string) error {
	for _, q := range queries {
		if _, err := sc.Prepare(q); err != nil {
			return err
		}
	}
	return nil
}

// Stmt returns a statement usable with r. For a transaction the cached
// statement is rebound to it; a query that was never cached is prepared
// on the transaction itself and dies with it.
func (sc *StmtCache) Stmt(r Runner, query string) (*sql.Stmt, error) {
	tx, ok := r.(*sql.Tx)
	if !ok {
		return sc.Prepare(query)
	}

	if cached, _ := sc.m.Load(query); cached != nil {
		return tx.Stmt(cached.(*sql.Stmt)), nil
	}
	return tx.Prepare(query)
}

func (sc *StmtCache) Clear() {
	sc.m.Range(func(k, v interface{}) bool {
		_ = v.(*sql.Stmt).Close()
		sc.m.Delete(k)
		return true
	})
}
