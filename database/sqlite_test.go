package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*sql.DB, *StmtCache) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value TEXT NOT NULL);`)
	require.NoError(t, err)

	sc := NewStmtCache(db)
	require.NoError(t, sc.PrepareAll(
		`INSERT INTO kv (key, value) VALUES (?, ?)`,
		`SELECT value FROM kv WHERE key = ?`,
	))

	t.Cleanup(func() {
		sc.Clear()
		db.Close()
	})
	return db, sc
}

func get(t *testing.T, r Runner, sc *StmtCache, key string) (string, bool) {
	stmt, err := sc.Stmt(r, `SELECT value FROM kv WHERE key = ?`)
	require.NoError(t, err)

	var v string
	err = stmt.QueryRow(key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false
	}
	require.NoError(t, err)
	return v, true
}

func TestWithTxCommit(t *testing.T) {
	db, sc := newTestDB(t)

	err := WithTx(context.Background(), db, func(tx *sql.Tx) error {
		stmt, err := sc.Stmt(tx, `INSERT INTO kv (key, value) VALUES (?, ?)`)
		if err != nil {
			return err
		}
		_, err = stmt.Exec("a", "1")
		return err
	})
	assert.NoError(t, err)

	v, ok := get(t, db, sc, "a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestWithTxRollback(t *testing.T) {
	db, sc := newTestDB(t)
	errBoom := errors.New("boom")

	err := WithTx(context.Background(), db, func(tx *sql.Tx) error {
		stmt, err := sc.Stmt(tx, `INSERT INTO kv (key, value) VALUES (?, ?)`)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec("a", "1"); err != nil {
			return err
		}

		// visible inside the transaction
		v, ok := get(t, tx, sc, "a")
		assert.True(t, ok)
		assert.Equal(t, "1", v)

		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	_, ok := get(t, db, sc, "a")
	assert.False(t, ok)
}

func TestWithTxPanicRollsBack(t *testing.T) {
	db, sc := newTestDB(t)

	assert.Panics(t, func() {
		_ = WithTx(context.Background(), db, func(tx *sql.Tx) error {
			stmt, _ := sc.Stmt(tx, `INSERT INTO kv (key, value) VALUES (?, ?)`)
			_, _ = stmt.Exec("a", "1")
			panic("boom")
		})
	})

	_, ok := get(t, db, sc, "a")
	assert.False(t, ok)
}

func TestStmtUncachedQueryInTx(t *testing.T) {
	db, sc := newTestDB(t)

	err := WithTx(context.Background(), db, func(tx *sql.Tx) error {
		stmt, err := sc.Stmt(tx, `SELECT COUNT(*) FROM kv`)
		if err != nil {
			return err
		}
		var n int
		if err := stmt.QueryRow().Scan(&n); err != nil {
			return err
		}
		assert.Equal(t, 0, n)
		return nil
	})
	assert.NoError(t, err)
}

func TestIsConstraintErr(t *testing.T) {
	db, _ := newTestDB(t)

	_, err := db.Exec(`INSERT INTO kv (key, value) VALUES ('a', '1')`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO kv (key, value) VALUES ('a', '2')`)
	assert.True(t, IsConstraintErr(err))
	assert.False(t, IsConstraintErr(errors.New("other")))
	assert.False(t, IsConstraintErr(nil))
}
