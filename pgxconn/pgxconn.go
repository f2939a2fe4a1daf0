// Package pgxconn implements orm.Connection with github.com/jackc/pgx/v5.
//
//	pool, err := pgxpool.New(ctx, connStr)
//	...
//	conn := pgxconn.New(pool, logger.StandardLogger)
//	user, err := users.Create(ctx, conn, User{Name: "Alice"})
package pgxconn

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/gopsql/logger"
	"github.com/gopsql/orm"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrInTransaction = errors.New("transaction already started")
	ErrNoTransaction = errors.New("no transaction started")
)

type (
	// Querier is implemented by *pgx.Conn, *pgxpool.Pool and pgx.Tx.
	Querier interface {
		Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
		Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	}

	// Beginner is implemented by *pgx.Conn and *pgxpool.Pool.
	Beginner interface {
		Querier
		Begin(ctx context.Context) (pgx.Tx, error)
	}

	// Conn is an orm.Connection. It must not be used by more than one
	// goroutine at a time.
	Conn struct {
		db     Beginner
		tx     pgx.Tx
		logger logger.Logger
	}

	statement struct {
		conn *Conn
		sql  string
		args []any
	}

	result struct {
		tag pgconn.CommandTag
	}

	rows struct {
		rows    pgx.Rows
		columns []string
		row     row
		err     error
	}

	row map[string]any
)

// New creates a connection on db. Options can be a logger.Logger.
func New(db Beginner, options ...interface{}) *Conn {
	c := &Conn{db: db}
	for _, option := range options {
		switch o := option.(type) {
		case logger.Logger:
			c.logger = o
		}
	}
	return c
}

func (c *Conn) querier() Querier {
	if c.tx != nil {
		return c.tx
	}
	return c.db
}

func (c *Conn) CreateStatement(sql string) orm.Statement {
	return &statement{conn: c, sql: sql}
}

func (c *Conn) BeginTransaction(ctx context.Context) error {
	if c.tx != nil {
		return ErrInTransaction
	}
	c.log("BEGIN", nil)
	tx, err := c.db.Begin(ctx)
	if err != nil {
		return err
	}
	c.tx = tx
	return nil
}

func (c *Conn) CommitTransaction(ctx context.Context) error {
	if c.tx == nil {
		return ErrNoTransaction
	}
	c.log("COMMIT", nil)
	tx := c.tx
	c.tx = nil
	return tx.Commit(ctx)
}

func (c *Conn) RollbackTransaction(ctx context.Context) error {
	if c.tx == nil {
		return ErrNoTransaction
	}
	c.log("ROLLBACK", nil)
	tx := c.tx
	c.tx = nil
	return tx.Rollback(ctx)
}

func (c *Conn) log(sql string, args []any) {
	if c.logger == nil {
		return
	}
	if len(args) == 0 {
		c.logger.Debug(sql)
		return
	}
	c.logger.Debug(sql, args)
}

func (s *statement) Bind(index int, value interface{}) error {
	if index < 0 {
		return fmt.Errorf("bind index %d out of range", index)
	}
	for len(s.args) <= index {
		s.args = append(s.args, nil)
	}
	s.args[index] = value
	return nil
}

func (s *statement) BindNull(index int, dbType reflect.Type) error {
	return s.Bind(index, orm.NullValue(dbType))
}

func (s *statement) Execute(ctx context.Context) (orm.Result, error) {
	s.conn.log(s.sql, s.args)
	tag, err := s.conn.querier().Exec(ctx, s.sql, s.args...)
	if err != nil {
		return nil, err
	}
	return result{tag}, nil
}

func (s *statement) Query(ctx context.Context) (orm.Rows, error) {
	s.conn.log(s.sql, s.args)
	r, err := s.conn.querier().Query(ctx, s.sql, s.args...)
	if err != nil {
		return nil, err
	}
	return newRows(r), nil
}

func (r result) RowsUpdated() (int64, error) {
	return r.tag.RowsAffected(), nil
}

func newRows(r pgx.Rows) *rows {
	fields := r.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}
	return &rows{rows: r, columns: columns}
}

func (r *rows) Next() bool {
	if r.err != nil || !r.rows.Next() {
		return false
	}
	values, err := r.rows.Values()
	if err != nil {
		r.err = err
		return false
	}
	r.row = make(row, len(r.columns))
	for i, column := range r.columns {
		if i < len(values) {
			r.row[column] = values[i]
		}
	}
	return true
}

func (r *rows) Row() orm.Row {
	return r.row
}

func (r *rows) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.rows.Err()
}

func (r *rows) Close() error {
	r.rows.Close()
	return nil
}

func (r row) Get(column string) (interface{}, error) {
	value, ok := r[column]
	if !ok {
		return nil, fmt.Errorf("no column %s in result", column)
	}
	return value, nil
}
