package orm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Test entities
type (
	userPK struct{ ID int64 }

	color int

	mood string

	testUser struct {
		Id       *userPK
		Name     string
		Email    *string
		Color    color
		Bio      string
		Birthday time.Time
		Weight   float64
		Balance  decimal.Decimal
	}

	teamPK struct{ ID int64 }

	team struct {
		Id   *teamPK
		Name string
	}

	member struct {
		Id     int64
		Team   team
		Mentor *testUser
		Mood   *mood
	}

	counter struct {
		Id *int64
	}
)

const (
	red color = iota
	green
	blue
)

const (
	happy mood = "HAPPY"
	sad   mood = "SAD"
)

func (color) EnumConstants() []string { return []string{"RED", "GREEN", "BLUE"} }

func (mood) EnumConstants() []string { return []string{"HAPPY", "SAD"} }

func stringPtr(s string) *string { return &s }

// fakeConn is a scripted Connection. Each Query or Execute consumes the next
// result; every statement and transaction call is recorded.
type (
	fakeConn struct {
		results     []fakeResult
		statements  []*fakeStatement
		log         []string
		beginErr    error
		rollbackErr error
	}

	fakeResult struct {
		rows        []fakeRow
		rowsUpdated int64
		err         error // returned by Query or Execute
		rowsErr     error // returned by Rows.Err
	}

	fakeStatement struct {
		conn    *fakeConn
		sql     string
		values  map[int]interface{}
		nulls   map[int]reflect.Type
		bindErr error
		rows    *fakeRows
	}

	fakeRows struct {
		conn   *fakeConn
		rows   []fakeRow
		pos    int
		err    error
		closed bool
	}

	fakeRow map[string]interface{}

	loggedRow struct {
		fakeRow
		conn *fakeConn
	}

	fakeLOB struct {
		conn      *fakeConn
		column    string
		chunks    []string
		err       error
		discarded int
	}
)

func (c *fakeConn) CreateStatement(sql string) Statement {
	s := &fakeStatement{
		conn:   c,
		sql:    sql,
		values: map[int]interface{}{},
		nulls:  map[int]reflect.Type{},
	}
	c.statements = append(c.statements, s)
	return s
}

func (c *fakeConn) BeginTransaction(ctx context.Context) error {
	c.log = append(c.log, "BEGIN")
	return c.beginErr
}

func (c *fakeConn) CommitTransaction(ctx context.Context) error {
	c.log = append(c.log, "COMMIT")
	return nil
}

func (c *fakeConn) RollbackTransaction(ctx context.Context) error {
	c.log = append(c.log, "ROLLBACK")
	return c.rollbackErr
}

func (c *fakeConn) next() fakeResult {
	if len(c.results) == 0 {
		return fakeResult{err: errors.New("no scripted result")}
	}
	r := c.results[0]
	c.results = c.results[1:]
	return r
}

func (s *fakeStatement) Bind(index int, value interface{}) error {
	if s.bindErr != nil {
		return s.bindErr
	}
	s.values[index] = value
	return nil
}

func (s *fakeStatement) BindNull(index int, dbType reflect.Type) error {
	if s.bindErr != nil {
		return s.bindErr
	}
	s.values[index] = nil
	s.nulls[index] = dbType
	return nil
}

func (s *fakeStatement) Execute(ctx context.Context) (Result, error) {
	s.conn.log = append(s.conn.log, s.sql)
	r := s.conn.next()
	if r.err != nil {
		return nil, r.err
	}
	return r, nil
}

func (s *fakeStatement) Query(ctx context.Context) (Rows, error) {
	s.conn.log = append(s.conn.log, s.sql)
	r := s.conn.next()
	if r.err != nil {
		return nil, r.err
	}
	s.rows = &fakeRows{conn: s.conn, rows: r.rows, err: r.rowsErr}
	return s.rows, nil
}

// args returns the bound values ordered by index.
func (s *fakeStatement) args() []interface{} {
	args := make([]interface{}, len(s.values))
	for i, v := range s.values {
		if i < len(args) {
			args[i] = v
		}
	}
	return args
}

func (r fakeResult) RowsUpdated() (int64, error) {
	return r.rowsUpdated, nil
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Row() Row {
	return loggedRow{fakeRow: r.rows[r.pos-1], conn: r.conn}
}

func (r *fakeRows) Err() error {
	return r.err
}

func (r *fakeRows) Close() error {
	r.closed = true
	return nil
}

func (r loggedRow) Get(column string) (interface{}, error) {
	r.conn.log = append(r.conn.log, "get "+column)
	v, ok := r.fakeRow[column]
	if !ok {
		return nil, fmt.Errorf("no column %s", column)
	}
	if lob, ok := v.(*fakeLOB); ok {
		lob.conn = r.conn
		lob.column = column
	}
	return v, nil
}

func (l *fakeLOB) ReadChunk(ctx context.Context) (string, error) {
	l.conn.log = append(l.conn.log, "read "+l.column)
	if len(l.chunks) == 0 {
		if l.err != nil {
			return "", l.err
		}
		return "", io.EOF
	}
	chunk := l.chunks[0]
	l.chunks = l.chunks[1:]
	return chunk, nil
}

func (l *fakeLOB) Discard(ctx context.Context) error {
	l.discarded++
	return nil
}

// userRow returns the columns of a test_users row with the given id.
func userRow(id int64, name string) fakeRow {
	return fakeRow{
		"id":       id,
		"name":     name,
		"email":    nil,
		"color":    "GREEN",
		"bio":      "",
		"birthday": time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC),
		"weight":   70.5,
		"balance":  "12.34",
	}
}

func statementSQL(conn *fakeConn) []string {
	sqls := []string{}
	for _, s := range conn.statements {
		sqls = append(sqls, s.sql)
	}
	return sqls
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
