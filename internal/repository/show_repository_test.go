package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// commitLossDriver simulates a connection whose COMMIT is rejected server
// side, e.g. a deadlock victim discovered only at commit time. Reads return
// one existing show with no cash reports.
type commitLossDriver struct{}

var errCommitLost = errors.New("driver: commit lost")

func (commitLossDriver) Open(string) (driver.Conn, error) { return &commitLossConn{}, nil }

type commitLossConn struct{}

func (c *commitLossConn) Prepare(query string) (driver.Stmt, error) {
	return &commitLossStmt{query: query}, nil
}
func (c *commitLossConn) Close() error              { return nil }
func (c *commitLossConn) Begin() (driver.Tx, error) { return commitLossTx{}, nil }

type commitLossTx struct{}

func (commitLossTx) Commit() error   { return errCommitLost }
func (commitLossTx) Rollback() error { return nil }

type commitLossStmt struct{ query string }

func (s *commitLossStmt) Close() error  { return nil }
func (s *commitLossStmt) NumInput() int { return -1 }

func (s *commitLossStmt) Exec([]driver.Value) (driver.Result, error) {
	return driver.RowsAffected(1), nil
}

func (s *commitLossStmt) Query([]driver.Value) (driver.Rows, error) {
	if strings.Contains(s.query, "COUNT(*)") {
		return &singleValueRows{value: int64(0)}, nil
	}
	return &singleValueRows{value: int64(1)}, nil
}

type singleValueRows struct {
	value int64
	done  bool
}

func (r *singleValueRows) Columns() []string { return []string{"v"} }
func (r *singleValueRows) Close() error      { return nil }
func (r *singleValueRows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	dest[0] = r.value
	r.done = true
	return nil
}

func init() { sql.Register("commitloss", commitLossDriver{}) }

// A commit rejected by the server must surface as Delete's error: the row
// survives the rollback, so reporting success would let the handler answer
// 204 for a show that still exists.
func TestDeleteReturnsCommitError(t *testing.T) {
	db, err := sql.Open("commitloss", "")
	require.NoError(t, err)
	defer db.Close()

	err = NewShowRepo(db).Delete(context.Background(), 1)
	assert.ErrorIs(t, err, errCommitLost)
}
