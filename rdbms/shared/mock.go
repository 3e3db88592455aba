package shared

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MockResult satisfies Result.
type MockResult struct {
	Rows int64
	Tag  string
}

func (r MockResult) RowsAffected() int64 { return r.Rows }
func (r MockResult) String() string      { return r.Tag }

// MockConnection records every statement it is asked to execute.
// Statements containing any key of FailOn return the mapped error.
type MockConnection struct {
	mu         sync.Mutex
	Statements []string
	FailOn     map[string]error
	Closed     bool
	DbType     string
}

// NewMockConnection returns a Connector that records SQL.
func NewMockConnection() *MockConnection {
	return &MockConnection{FailOn: make(map[string]error), DbType: "mock"}
}

func (c *MockConnection) record(query string) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Statements = append(c.Statements, query)
	for k, err := range c.FailOn {
		if strings.Contains(query, k) {
			return nil, err
		}
	}
	return MockResult{Tag: strings.SplitN(strings.TrimSpace(query), " ", 2)[0]}, nil
}

// GetStatements returns a copy of the statements seen so far.
func (c *MockConnection) GetStatements() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.Statements...)
}

func (c *MockConnection) Exec(ctx context.Context, query string, args ...interface{}) (Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.record(query)
}

func (c *MockConnection) Begin(ctx context.Context) (Transacter, error) {
	if _, err := c.record("BEGIN"); err != nil {
		return nil, err
	}
	return &MockTx{conn: c}, nil
}

func (c *MockConnection) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
	return nil
}

func (c *MockConnection) GetType() string {
	return c.DbType
}

// MockTx records statements on its parent MockConnection.
type MockTx struct {
	conn   *MockConnection
	closed bool
}

func (t *MockTx) Exec(ctx context.Context, query string, args ...interface{}) (Result, error) {
	if t.closed {
		return nil, pgx.ErrTxClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.conn.record(query)
}

func (t *MockTx) Commit(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	_, err := t.conn.record("COMMIT")
	return err
}

func (t *MockTx) Rollback(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	_, err := t.conn.record("ROLLBACK")
	return err
}

// MockSource answers queries from canned rows and CopyTo calls from canned payloads.
// QueryResults is keyed by a substring of the SQL; CopyResults by a substring of the COPY statement.
type MockSource struct {
	mu           sync.Mutex
	QueryResults map[string][][]interface{}
	QueryErr     error
	CopyResults  map[string]string
	CopyErr      error
	CopyQueries  []string
	Closed       bool
}

func (s *MockSource) Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error) {
	if s.QueryErr != nil {
		return nil, s.QueryErr
	}
	for k, v := range s.QueryResults {
		if strings.Contains(query, k) {
			return NewMockRows(v), nil
		}
	}
	return NewMockRows(nil), nil
}

// CopyTo writes the payload matching query into w.
// When CopyErr is set, half of the payload is written before the error is returned.
func (s *MockSource) CopyTo(ctx context.Context, w io.Writer, query string) (Result, error) {
	s.mu.Lock()
	s.CopyQueries = append(s.CopyQueries, query)
	s.mu.Unlock()
	payload := ""
	for k, v := range s.CopyResults {
		if strings.Contains(query, k) {
			payload = v
		}
	}
	if s.CopyErr != nil {
		_, _ = io.WriteString(w, payload[:len(payload)/2])
		return nil, s.CopyErr
	}
	if _, err := io.WriteString(w, payload); err != nil {
		return nil, err
	}
	return MockResult{Rows: int64(strings.Count(payload, "\n")), Tag: "COPY"}, nil
}

func (s *MockSource) Close() {
	s.Closed = true
}

// MockRows is a minimal pgx.Rows over in-memory values.
// Scan assigns by reflection so destinations must have matching types, or be pointers to them for NULL-able values.
type MockRows struct {
	rows [][]interface{}
	idx  int
	err  error
}

func NewMockRows(rows [][]interface{}) *MockRows {
	return &MockRows{rows: rows, idx: -1}
}

func (r *MockRows) Close()                                       {}
func (r *MockRows) Err() error                                   { return r.err }
func (r *MockRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *MockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *MockRows) RawValues() [][]byte                          { return nil }
func (r *MockRows) Conn() *pgx.Conn                              { return nil }

func (r *MockRows) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *MockRows) Values() ([]interface{}, error) {
	return r.rows[r.idx], nil
}

func (r *MockRows) Scan(dest ...interface{}) error {
	row := r.rows[r.idx]
	if len(dest) != len(row) {
		return fmt.Errorf("mock rows: expected %v destinations; got %v", len(row), len(dest))
	}
	for i, d := range dest {
		dv := reflect.ValueOf(d).Elem()
		if row[i] == nil { // if the value is NULL...
			dv.Set(reflect.Zero(dv.Type()))
			continue
		}
		sv := reflect.ValueOf(row[i])
		switch {
		case sv.Type().AssignableTo(dv.Type()):
			dv.Set(sv)
		case dv.Kind() == reflect.Ptr && sv.Type().AssignableTo(dv.Type().Elem()):
			p := reflect.New(dv.Type().Elem())
			p.Elem().Set(sv)
			dv.Set(p)
		default:
			return fmt.Errorf("mock rows: cannot scan %T into %v", row[i], dv.Type())
		}
	}
	return nil
}
