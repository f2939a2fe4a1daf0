package orm

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gopsql/db"
	"github.com/gopsql/logger"
)

var (
	ErrInTransaction  = errors.New("transaction already started")
	ErrNoTransaction  = errors.New("no transaction started")
	ErrBindOutOfRange = errors.New("bind index out of range")
)

type (
	// DBConnection is a Connection over a github.com/gopsql/db connection,
	// such as the ones created by github.com/gopsql/pq, github.com/gopsql/pgx
	// or github.com/gopsql/standard. Between BeginTransaction and
	// CommitTransaction or RollbackTransaction, statements run inside the
	// transaction.
	DBConnection struct {
		connection db.DB
		tx         db.Tx
		logger     logger.Logger
	}

	dbStatement struct {
		conn   *DBConnection
		sql    string
		values []interface{}
	}

	dbResult struct {
		result db.Result
	}

	dbRows struct {
		rows    db.Rows
		columns []string
		row     dbRow
		err     error
	}

	dbRow map[string]interface{}
)

// NewConnection creates a Connection over conn. Pass logger.StandardLogger
// (or any logger.Logger) as an option to print statements and their
// arguments.
//
//	conn := orm.NewConnection(pq.MustOpen(connStr), logger.StandardLogger)
func NewConnection(conn db.DB, options ...interface{}) *DBConnection {
	c := &DBConnection{connection: conn}
	c.SetOptions(options...)
	return c
}

// SetOptions sets the database connection and/or logger.
func (c *DBConnection) SetOptions(options ...interface{}) *DBConnection {
	for _, option := range options {
		switch o := option.(type) {
		case db.DB:
			c.connection = o
		case logger.Logger:
			c.logger = o
		}
	}
	return c
}

// Quiet returns a copy of the connection without logger. The copy shares the
// current transaction.
func (c *DBConnection) Quiet() *DBConnection {
	return &DBConnection{connection: c.connection, tx: c.tx}
}

func (c *DBConnection) CreateStatement(sql string) Statement {
	return &dbStatement{
		conn: c,
		sql:  strings.TrimSpace(sql),
	}
}

func (c *DBConnection) BeginTransaction(ctx context.Context) error {
	if c.connection == nil {
		return ErrNoConnection
	}
	if c.tx != nil {
		return ErrInTransaction
	}
	c.log("BEGIN", nil)
	tx, err := c.connection.BeginTx(ctx, "", false)
	if err != nil {
		return err
	}
	c.tx = tx
	return nil
}

func (c *DBConnection) CommitTransaction(ctx context.Context) error {
	if c.tx == nil {
		return ErrNoTransaction
	}
	c.log("COMMIT", nil)
	tx := c.tx
	c.tx = nil
	return tx.Commit(ctx)
}

func (c *DBConnection) RollbackTransaction(ctx context.Context) error {
	if c.tx == nil {
		return ErrNoTransaction
	}
	c.log("ROLLBACK", nil)
	tx := c.tx
	c.tx = nil
	return tx.Rollback(ctx)
}

func (c *DBConnection) log(sql string, args []interface{}) {
	if c.logger == nil {
		return
	}
	if len(args) == 0 {
		c.logger.Debug(sql)
		return
	}
	c.logger.Debug(sql, args)
}

func (s *dbStatement) Bind(index int, value interface{}) error {
	if index < 0 {
		return ErrBindOutOfRange
	}
	for len(s.values) <= index {
		s.values = append(s.values, nil)
	}
	s.values[index] = value
	return nil
}

func (s *dbStatement) BindNull(index int, dbType reflect.Type) error {
	return s.Bind(index, NullValue(dbType))
}

// prepare converts parameters for connections implementing
// db.ConvertParameters.
func (s *dbStatement) prepare() (string, []interface{}, error) {
	if s.conn.connection == nil {
		return "", nil, ErrNoConnection
	}
	sql, values := s.sql, s.values
	if c, ok := s.conn.connection.(db.ConvertParameters); ok {
		sql, values = c.ConvertParameters(sql, values)
	}
	s.conn.log(sql, values)
	return sql, values, nil
}

func (s *dbStatement) Execute(ctx context.Context) (Result, error) {
	sql, values, err := s.prepare()
	if err != nil {
		return nil, err
	}
	var result db.Result
	if s.conn.tx != nil {
		result, err = s.conn.tx.ExecContext(ctx, sql, values...)
	} else {
		result, err = s.conn.connection.ExecContext(ctx, sql, values...)
	}
	if err != nil {
		return nil, err
	}
	return dbResult{result}, nil
}

func (s *dbStatement) Query(ctx context.Context) (Rows, error) {
	sql, values, err := s.prepare()
	if err != nil {
		return nil, err
	}
	var rows db.Rows
	if s.conn.tx != nil {
		rows, err = s.conn.tx.QueryContext(ctx, sql, values...)
	} else {
		rows, err = s.conn.connection.QueryContext(ctx, sql, values...)
	}
	if err != nil {
		return nil, err
	}
	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, err
	}
	return &dbRows{rows: rows, columns: columns}, nil
}

func (r dbResult) RowsUpdated() (int64, error) {
	return r.result.RowsAffected()
}

func (r *dbRows) Next() bool {
	if r.err != nil || !r.rows.Next() {
		return false
	}
	values := make([]interface{}, len(r.columns))
	dests := make([]interface{}, len(r.columns))
	for i := range values {
		dests[i] = &values[i]
	}
	if err := r.rows.Scan(dests...); err != nil {
		r.err = err
		return false
	}
	r.row = make(dbRow, len(r.columns))
	for i, column := range r.columns {
		r.row[column] = values[i]
	}
	return true
}

func (r *dbRows) Row() Row {
	return r.row
}

func (r *dbRows) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.rows.Err()
}

func (r *dbRows) Close() error {
	return r.rows.Close()
}

func (r dbRow) Get(column string) (interface{}, error) {
	value, ok := r[column]
	if !ok {
		return nil, fmt.Errorf("no column %s in result", column)
	}
	return value, nil
}
