package orm

import (
	"context"
)

type (
	deleteSQL struct {
		info *ClassInfo
		sql  string
	}
)

func newDeleteSQL(ci *ClassInfo) *deleteSQL {
	return &deleteSQL{
		info: ci,
		sql:  "DELETE FROM " + ci.TableName + " WHERE " + ci.Key().ColumnName + " = $1",
	}
}

func (s deleteSQL) String() string {
	return s.sql
}

func (s deleteSQL) delete(ctx context.Context, conn Connection, id interface{}) error {
	if conn == nil {
		return ErrNoConnection
	}
	key := s.info.Key()
	raw, err := key.idHandler.RawID(id)
	if err != nil {
		return err
	}
	stmt := conn.CreateStatement(s.sql)
	if err := key.bindValue(stmt, 0, raw); err != nil {
		return err
	}
	return execute(ctx, stmt, s.sql, s.info.TableName, raw)
}
