package orm

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"
	"sync/atomic"
)

type (
	// Condition is an equality predicate over one entity field. Conditions
	// passed to CreateQuery are joined with AND; the n-th condition takes the
	// n-th value passed to With.
	Condition struct {
		field string
	}

	// QueryFactory creates queries for entity type T. Queries are cached by
	// their list of fields, so creating the same query twice returns the same
	// *Query.
	QueryFactory[T any] struct {
		info    *ClassInfo
		queries sync.Map // "col1,col2" -> *Query[T]
	}

	// Query is a SELECT statement over all columns of T with a WHERE clause.
	// It is immutable and may be shared between goroutines.
	Query[T any] struct {
		info   *ClassInfo
		fields []*Field
		sql    string
	}

	// BoundQuery is a Query with a connection and parameter values. Its
	// results can be read once.
	BoundQuery[T any] struct {
		query    *Query[T]
		conn     Connection
		values   []interface{}
		consumed atomic.Bool
	}
)

// Equals creates a condition "<column> = $n". field is a struct field name
// or a column name.
func Equals(field string) Condition {
	return Condition{field: field}
}

// CreateQuery returns the query selecting entities matching all conditions.
func (qf *QueryFactory[T]) CreateQuery(conditions ...Condition) (*Query[T], error) {
	if len(conditions) == 0 {
		return nil, configError("query on %s needs at least one condition", qf.info.TableName)
	}
	fields := make([]*Field, len(conditions))
	columns := make([]string, len(conditions))
	for i, c := range conditions {
		f := qf.info.FieldByName(c.field)
		if f == nil {
			return nil, configError("unknown field %s of %s", c.field, qf.info.Name)
		}
		fields[i] = f
		columns[i] = f.ColumnName
	}
	shape := strings.Join(columns, ",")
	if q, ok := qf.queries.Load(shape); ok {
		return q.(*Query[T]), nil
	}
	where := make([]string, len(columns))
	for i, column := range columns {
		where[i] = fmt.Sprintf("%s = $%d", column, i+1)
	}
	q := &Query[T]{
		info:   qf.info,
		fields: fields,
		sql: "SELECT " + strings.Join(qf.info.columnNames(), ", ") + " FROM " + qf.info.TableName +
			" WHERE " + strings.Join(where, " AND "),
	}
	actual, _ := qf.queries.LoadOrStore(shape, q)
	return actual.(*Query[T]), nil
}

// MustCreateQuery is like CreateQuery but panics if the query cannot be
// created.
func (qf *QueryFactory[T]) MustCreateQuery(conditions ...Condition) *Query[T] {
	q, err := qf.CreateQuery(conditions...)
	if err != nil {
		panic(err)
	}
	return q
}

func (q Query[T]) String() string {
	return q.sql
}

// With binds the query to a connection and one value per condition. Values
// may be of the field's declared type, a pointer to it, or, for keys and
// references, a raw integer id. Nil values are rejected when the query runs,
// since "column = NULL" matches no row.
func (q *Query[T]) With(conn Connection, values ...interface{}) *BoundQuery[T] {
	return &BoundQuery[T]{
		query:  q,
		conn:   conn,
		values: values,
	}
}

// Find runs the query and yields the mapped rows. The sequence can be ranged
// over once; ranging again yields ErrConsumed. Breaking out of the loop closes
// the rows. After an error nothing more is yielded.
//
//	for user, err := range query.With(conn, "Alice").Find(ctx) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(user.Name)
//	}
func (b *BoundQuery[T]) Find(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		if !b.consumed.CompareAndSwap(false, true) {
			yield(zero, ErrConsumed)
			return
		}
		rows, err := b.query.run(ctx, b.conn, b.values)
		if err != nil {
			yield(zero, err)
			return
		}
		defer rows.Close()
		for rows.Next() {
			v, err := b.query.info.mapRow(ctx, rows.Row())
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(v.Interface().(T), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, statementError(b.query.sql, err, "error reading rows"))
		}
	}
}

// All runs the query and returns all mapped rows.
func (b *BoundQuery[T]) All(ctx context.Context) ([]T, error) {
	results := []T{}
	for result, err := range b.Find(ctx) {
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// MustAll is like All but panics if the query fails.
func (b *BoundQuery[T]) MustAll(ctx context.Context) []T {
	results, err := b.All(ctx)
	if err != nil {
		panic(err)
	}
	return results
}

func (q *Query[T]) run(ctx context.Context, conn Connection, values []interface{}) (Rows, error) {
	if conn == nil {
		return nil, ErrNoConnection
	}
	if len(values) != len(q.fields) {
		return nil, bindingError(nil, "query on %s expects %d values, got %d", q.info.TableName, len(q.fields), len(values))
	}
	stmt := conn.CreateStatement(q.sql)
	for i, f := range q.fields {
		value, err := f.queryValue(values[i])
		if err != nil {
			return nil, bindingError(err, "error binding value %v to field %s with index %d", values[i], f.Name, i)
		}
		if value == nil {
			return nil, bindingError(nil, "nil value for field %s with index %d never matches", f.Name, i)
		}
		if err := f.bindValue(stmt, i, value); err != nil {
			return nil, err
		}
	}
	rows, err := stmt.Query(ctx)
	if err != nil {
		return nil, statementError(q.sql, err, "error executing query")
	}
	return rows, nil
}
