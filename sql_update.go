package orm

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

type (
	// updateSQL overwrites all non-key columns of the row with the entity's
	// key.
	updateSQL struct {
		info   *ClassInfo
		fields []*Field
		sql    string
	}
)

func newUpdateSQL(ci *ClassInfo) *updateSQL {
	s := &updateSQL{info: ci}
	key := ci.Key().ColumnName
	sets := []string{}
	for i := range ci.Fields {
		f := &ci.Fields[i]
		if f.Kind == PrimaryKeyField {
			continue
		}
		s.fields = append(s.fields, f)
		sets = append(sets, fmt.Sprintf("%s = $%d", f.ColumnName, len(sets)+1))
	}
	if len(sets) == 0 {
		sets = append(sets, key+" = "+key)
	}
	s.sql = fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d", ci.TableName, strings.Join(sets, ", "), key, len(s.fields)+1)
	return s
}

func (s updateSQL) String() string {
	return s.sql
}

// update binds the non-key fields in declaration order, then the key. A row
// count of zero is reported as not found.
func (s updateSQL) update(ctx context.Context, conn Connection, instance reflect.Value) error {
	if conn == nil {
		return ErrNoConnection
	}
	instance = addressable(instance)
	key := s.info.Key()
	raw, ok := key.idHandler.ExtractRaw(key.fieldOf(instance))
	if !ok {
		return bindingError(ErrNoID, "cannot update %s without id", s.info.TableName)
	}
	stmt := conn.CreateStatement(s.sql)
	for i, f := range s.fields {
		if err := f.bind(stmt, i, instance); err != nil {
			return err
		}
	}
	if err := key.bindValue(stmt, len(s.fields), raw); err != nil {
		return err
	}
	return execute(ctx, stmt, s.sql, s.info.TableName, raw)
}

// execute runs a statement that must affect the row with id raw.
func execute(ctx context.Context, stmt Statement, sql, table string, raw int64) error {
	result, err := stmt.Execute(ctx)
	if err != nil {
		return statementError(sql, err, "error executing statement")
	}
	n, err := result.RowsUpdated()
	if err != nil {
		return statementError(sql, err, "error reading rows affected")
	}
	if n == 0 {
		return notFoundError(table, raw)
	}
	return nil
}
