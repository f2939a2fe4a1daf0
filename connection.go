package orm

import (
	"context"
	"reflect"
)

type (
	// Connection is a borrowed database connection. A Repository issues
	// statements against it for the duration of one call and never closes
	// it. A Connection must not run statements concurrently; use one
	// connection per unit of work. See NewConnection for an implementation
	// on top of github.com/gopsql/db.
	Connection interface {
		// CreateStatement prepares sql with positional parameters
		// ($1, $2, ...) for binding.
		CreateStatement(sql string) Statement
		BeginTransaction(ctx context.Context) error
		CommitTransaction(ctx context.Context) error
		RollbackTransaction(ctx context.Context) error
	}

	// Statement is a single SQL statement. Bind indexes are zero based:
	// index 0 is placeholder $1.
	Statement interface {
		Bind(index int, value interface{}) error
		// BindNull binds NULL to the parameter. dbType is the Go type of
		// the column value (string for enums, int64 for keys); drivers
		// that need a typed null use it, see NullValue.
		BindNull(index int, dbType reflect.Type) error
		// Execute runs a statement that returns no rows.
		Execute(ctx context.Context) (Result, error)
		// Query runs a statement that returns rows.
		Query(ctx context.Context) (Rows, error)
	}

	Result interface {
		RowsUpdated() (int64, error)
	}

	// Rows is a forward-only cursor. Close must be called when the caller
	// stops early.
	Rows interface {
		Next() bool
		Row() Row
		Err() error
		Close() error
	}

	// Row gives access to the current row by column name. Get returns
	// either a plain value or a LargeObject.
	Row interface {
		Get(column string) (interface{}, error)
	}

	// LargeObject is a handle to column content that is streamed in
	// chunks instead of being read with the row.
	LargeObject interface {
		// ReadChunk returns the next chunk, or io.EOF when done.
		ReadChunk(ctx context.Context) (string, error)
		// Discard releases driver resources. It is called once the object
		// was read, or when it is abandoned unread.
		Discard(ctx context.Context) error
	}
)
