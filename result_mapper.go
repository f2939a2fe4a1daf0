package orm

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"strings"
)

// mapRow builds an instance from the current row. Plain column values are
// read first; large objects found among them are streamed afterwards, so
// drivers that require scalar columns to be consumed before a large object is
// materialized are satisfied. Every large object is discarded before mapRow
// returns.
func (ci *ClassInfo) mapRow(ctx context.Context, row Row) (reflect.Value, error) {
	raw := make([]interface{}, len(ci.Fields))
	var deferred []int
	for i := range ci.Fields {
		v, err := row.Get(ci.Fields[i].ColumnName)
		if err != nil {
			discardAll(ctx, raw, deferred)
			return reflect.Value{}, mappingError(err, "error reading column %s of %s", ci.Fields[i].ColumnName, ci.TableName)
		}
		if _, ok := v.(LargeObject); ok {
			deferred = append(deferred, i)
		}
		raw[i] = v
	}

	for n, i := range deferred {
		content, err := readLargeObject(ctx, raw[i].(LargeObject))
		if err != nil {
			discardAll(ctx, raw, deferred[n+1:])
			return reflect.Value{}, mappingError(err, "error reading large object in column %s of %s", ci.Fields[i].ColumnName, ci.TableName)
		}
		raw[i] = content
	}

	params := make(map[string]interface{}, len(raw))
	for i := range ci.Fields {
		params[ci.Fields[i].ColumnName] = raw[i]
	}
	values := make(map[string]reflect.Value, len(raw))
	for i := range ci.Fields {
		f := &ci.Fields[i]
		v, err := f.fromDB(raw[i])
		if err != nil {
			return reflect.Value{}, mappingError(fmt.Errorf("column %s: %w", f.ColumnName, err),
				"error constructing %s from parameters %v", ci.TableName, params)
		}
		values[f.ColumnName] = v
	}
	instance, err := ci.construct(values)
	if err != nil {
		return reflect.Value{}, mappingError(err, "error constructing %s from parameters %v", ci.TableName, params)
	}
	return instance, nil
}

// readLargeObject concatenates all chunks of lob and discards it.
func readLargeObject(ctx context.Context, lob LargeObject) (content string, err error) {
	defer func() {
		if derr := lob.Discard(ctx); err == nil && derr != nil {
			err = derr
		}
	}()
	var b strings.Builder
	for {
		chunk, err := lob.ReadChunk(ctx)
		if err == io.EOF {
			return b.String(), nil
		}
		if err != nil {
			return "", err
		}
		b.WriteString(chunk)
	}
}

func discardAll(ctx context.Context, raw []interface{}, indexes []int) {
	for _, i := range indexes {
		if lob, ok := raw[i].(LargeObject); ok {
			lob.Discard(ctx)
		}
	}
}
