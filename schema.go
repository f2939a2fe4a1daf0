package orm

import (
	"reflect"
	"strings"
)

// Schema generates the CREATE TABLE statement of the entity type. A field's
// column type can be overridden with a "dataType" tag. Statements can be
// added before or after it by defining "BeforeCreateSchema() string" or
// "AfterCreateSchema() string" on the entity type.
//
//	type User struct {
//		Id   *UserPK
//		Name string `dataType:"varchar(100) NOT NULL UNIQUE"`
//	}
func (ci *ClassInfo) Schema() string {
	sql := []string{}
	for i := range ci.Fields {
		f := &ci.Fields[i]
		sql = append(sql, "\t"+f.ColumnName+" "+f.DataType())
	}
	out := "CREATE TABLE " + ci.TableName + " (\n" + strings.Join(sql, ",\n") + "\n);\n"
	n := reflect.New(ci.structType).Interface()
	if a, ok := n.(interface{ BeforeCreateSchema() string }); ok {
		out = a.BeforeCreateSchema() + "\n\n" + out
	}
	if a, ok := n.(interface{ AfterCreateSchema() string }); ok {
		out += "\n" + a.AfterCreateSchema() + "\n"
	}
	return out
}

// DropSchema generates "DROP TABLE IF EXISTS <table_name>;".
func (ci *ClassInfo) DropSchema() string {
	return "DROP TABLE IF EXISTS " + ci.TableName + ";\n"
}

// DataType returns the column type used by Schema.
func (f *Field) DataType() string {
	if f.dataType != "" {
		return f.dataType
	}
	var dataType string
	switch f.Kind {
	case PrimaryKeyField:
		return "BIGSERIAL PRIMARY KEY"
	case ReferenceField:
		dataType = "bigint REFERENCES " + ToTableName(f.base) + " (id)"
	case EnumField:
		dataType = "text"
	default:
		switch f.base {
		case timeType:
			dataType = "timestamptz"
		case decimalType:
			dataType = "numeric(20, 2)"
		default:
			switch f.base.Kind() {
			case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
				dataType = "integer"
			case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
				dataType = "bigint"
			case reflect.Float32, reflect.Float64:
				dataType = "double precision"
			case reflect.Bool:
				dataType = "boolean"
			case reflect.Slice:
				dataType = "bytea"
			default:
				dataType = "text"
			}
		}
	}
	if !f.Nullable {
		dataType += " NOT NULL"
	}
	return dataType
}

// Schema generates the CREATE TABLE statement of T, see ClassInfo.Schema.
func (r *Repository[T]) Schema() string {
	return r.info.Schema()
}

// DropSchema generates the DROP TABLE statement of T.
func (r *Repository[T]) DropSchema() string {
	return r.info.DropSchema()
}
