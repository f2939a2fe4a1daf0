package orm

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

type (
	// insertSQL inserts all non-key fields of an entity and reads back the
	// generated key.
	insertSQL struct {
		info   *ClassInfo
		fields []*Field
		sql    string
	}
)

func newInsertSQL(ci *ClassInfo) *insertSQL {
	s := &insertSQL{info: ci}
	columns := []string{}
	numbers := []string{}
	for i := range ci.Fields {
		f := &ci.Fields[i]
		if f.Kind == PrimaryKeyField {
			continue
		}
		s.fields = append(s.fields, f)
		columns = append(columns, f.ColumnName)
		numbers = append(numbers, fmt.Sprintf("$%d", len(numbers)+1))
	}
	key := ci.Key().ColumnName
	if len(columns) == 0 {
		s.sql = "INSERT INTO " + ci.TableName + " DEFAULT VALUES RETURNING " + key
	} else {
		s.sql = "INSERT INTO " + ci.TableName + " (" + strings.Join(columns, ", ") +
			") VALUES (" + strings.Join(numbers, ", ") + ") RETURNING " + key
	}
	return s
}

func (s insertSQL) String() string {
	return s.sql
}

// create inserts instance and returns a copy of it with the generated key
// set. instance is left unchanged.
func (s insertSQL) create(ctx context.Context, conn Connection, instance reflect.Value) (reflect.Value, error) {
	if conn == nil {
		return reflect.Value{}, ErrNoConnection
	}
	out := addressable(instance)
	stmt := conn.CreateStatement(s.sql)
	for i, f := range s.fields {
		if err := f.bind(stmt, i, out); err != nil {
			return reflect.Value{}, err
		}
	}
	rows, err := stmt.Query(ctx)
	if err != nil {
		return reflect.Value{}, statementError(s.sql, err, "error inserting into %s", s.info.TableName)
	}
	defer rows.Close()
	if !rows.Next() {
		return reflect.Value{}, statementError(s.sql, rows.Err(), "no id returned by insert into %s", s.info.TableName)
	}
	key := s.info.Key()
	value, err := rows.Row().Get(key.ColumnName)
	if err != nil {
		return reflect.Value{}, statementError(s.sql, err, "error reading id of %s", s.info.TableName)
	}
	if value == nil {
		return reflect.Value{}, mappingError(nil, "null id returned by insert into %s", s.info.TableName)
	}
	id, err := key.fromDB(value)
	if err != nil {
		return reflect.Value{}, mappingError(err, "error reading id of %s", s.info.TableName)
	}
	key.fieldOf(out).Set(id)
	return out, nil
}

// addressable returns an addressable copy of v.
func addressable(v reflect.Value) reflect.Value {
	out := reflect.New(v.Type()).Elem()
	out.Set(v)
	return out
}
