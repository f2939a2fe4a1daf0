package orm

import (
	"database/sql"
	"database/sql/driver"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// FieldKind tells how a field is bound to and read from its column.
type FieldKind int

const (
	ScalarField FieldKind = iota
	EnumField
	ReferenceField
	PrimaryKeyField
)

func (k FieldKind) String() string {
	switch k {
	case ScalarField:
		return "scalar"
	case EnumField:
		return "enum"
	case ReferenceField:
		return "reference"
	case PrimaryKeyField:
		return "primary key"
	}
	return "unknown"
}

// Enum is implemented by types stored as the name of one of their constants.
// EnumConstants lists the constant names in declaration order. If the
// underlying type is an integer, a value is the index of its name in that
// list; if it is a string, a value is the name itself.
//
//	type Color int
//
//	const (
//		Red Color = iota
//		Blue
//	)
//
//	func (Color) EnumConstants() []string { return []string{"RED", "BLUE"} }
type Enum interface {
	EnumConstants() []string
}

type (
	// Field describes how one struct field maps to its column. Fields are
	// computed once per entity type and shared; they must not be changed.
	Field struct {
		Name       string       // struct field name
		ColumnName string       // column name in database
		Kind       FieldKind    // how values are converted
		Type       reflect.Type // declared Go type
		Nullable   bool         // true for pointer fields

		index     []int
		base      reflect.Type // Type without pointer
		dbType    reflect.Type // type of the column value, used for typed NULLs
		idHandler *IDHandler   // own key, or the referenced entity's key
		refIndex  []int        // index of the id field in the referenced struct
		enumNames []string
		dataType  string // "dataType" tag, used by Schema
	}

	// ClassInfo is the field table of an entity type.
	ClassInfo struct {
		Name      string
		TableName string
		Fields    []Field // declaration order, including the key

		structType reflect.Type
		references references
		keyIndex   int
	}

	references []reflect.Type
)

var (
	classInfosMu sync.RWMutex
	classInfos   = map[reflect.Type][]*ClassInfo{}

	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
	bytesType   = reflect.TypeOf([]byte(nil))
	int64Type   = reflect.TypeOf(int64(0))
	stringType  = reflect.TypeOf("")
	enumType    = reflect.TypeOf((*Enum)(nil)).Elem()
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	valuerType  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
)

// References declares entity types that other entities may refer to. Pass it
// to NewRepository; a field whose type is one of these structs (or a pointer
// to one) is stored as a foreign key column named "<column>_id".
//
//	orm.NewRepository[Membership](orm.References(User{}, Team{}))
func References(entities ...interface{}) interface{} {
	refs := references{}
	for _, e := range entities {
		t := reflect.TypeOf(e)
		if t == nil {
			continue
		}
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		refs = append(refs, t)
	}
	return refs
}

// classInfoFor returns the cached ClassInfo of t, describing it on first use.
// Entries are matched on the struct type and the exact reference types.
func classInfoFor(t reflect.Type, refs references) (*ClassInfo, error) {
	classInfosMu.RLock()
	ci := cachedClassInfo(t, refs)
	classInfosMu.RUnlock()
	if ci != nil {
		return ci, nil
	}
	ci, err := describe(t, refs)
	if err != nil {
		return nil, err
	}
	ci.references = slices.Clone(refs)
	classInfosMu.Lock()
	defer classInfosMu.Unlock()
	if cached := cachedClassInfo(t, refs); cached != nil {
		return cached, nil
	}
	classInfos[t] = append(classInfos[t], ci)
	return ci, nil
}

func cachedClassInfo(t reflect.Type, refs references) *ClassInfo {
	for _, ci := range classInfos[t] {
		if slices.Equal(ci.references, refs) {
			return ci
		}
	}
	return nil
}

func describe(t reflect.Type, refs references) (*ClassInfo, error) {
	if t.Kind() != reflect.Struct {
		return nil, configError("type %s not supported: entities must be structs", typeName(t))
	}
	ci := &ClassInfo{
		Name:       t.Name(),
		TableName:  ToTableName(t),
		structType: t,
		keyIndex:   -1,
	}
	if err := ci.parseStruct(t, nil, refs); err != nil {
		return nil, err
	}
	if ci.keyIndex < 0 {
		return nil, configError("type %s has no id field", typeName(t))
	}
	return ci, nil
}

// parseStruct collects fields of t in declaration order, flattening embedded
// structs.
func (ci *ClassInfo) parseStruct(t reflect.Type, index []int, refs references) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		path := append(append([]int(nil), index...), i)
		tag := sf.Tag.Get("column")
		if tag == "-" {
			continue
		}
		if idx := strings.Index(tag, ","); idx != -1 {
			tag = tag[:idx]
		}
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && tag == "" &&
			!isScalar(sf.Type) && !refs.contains(sf.Type) {
			if err := ci.parseStruct(sf.Type, path, refs); err != nil {
				return err
			}
			continue
		}
		if sf.PkgPath != "" {
			continue // ignore unexported field
		}
		field, err := newField(sf, path, tag, refs)
		if err != nil {
			return err
		}
		if field.Kind == PrimaryKeyField {
			if ci.keyIndex >= 0 {
				return configError("type %s has more than one id field", typeName(t))
			}
			ci.keyIndex = len(ci.Fields)
		}
		ci.Fields = append(ci.Fields, field)
	}
	return nil
}

func newField(sf reflect.StructField, index []int, column string, refs references) (Field, error) {
	f := Field{
		Name:     sf.Name,
		Type:     sf.Type,
		Nullable: sf.Type.Kind() == reflect.Ptr,
		index:    index,
		base:     sf.Type,
		dataType: sf.Tag.Get("dataType"),
	}
	if f.Nullable {
		f.base = sf.Type.Elem()
	}
	if column == "" {
		column = ToColumnName(sf.Name)
		if refs.contains(f.base) {
			column += "_id"
		}
	}
	f.ColumnName = column

	switch {
	case column == "id":
		h, err := newIDHandler(sf.Type)
		if err != nil {
			return f, err
		}
		f.Kind = PrimaryKeyField
		f.idHandler = h
		f.dbType = int64Type
	case refs.contains(f.base):
		keyField, ok := findKeyField(f.base)
		if !ok {
			return f, configError("referenced type %s of field %s has no id field", typeName(f.base), sf.Name)
		}
		h, err := newIDHandler(keyField.Type)
		if err != nil {
			return f, err
		}
		f.Kind = ReferenceField
		f.idHandler = h
		f.refIndex = keyField.Index
		f.dbType = int64Type
	case f.base.Kind() != reflect.Ptr && f.base.Implements(enumType):
		names := reflect.Zero(f.base).Interface().(Enum).EnumConstants()
		switch f.base.Kind() {
		case reflect.String, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		default:
			return f, configError("type %s not supported", typeName(f.base))
		}
		if len(names) == 0 {
			return f, configError("type %s not supported: enum has no constants", typeName(f.base))
		}
		f.Kind = EnumField
		f.enumNames = names
		f.dbType = stringType
	case isScalar(f.base):
		f.Kind = ScalarField
		f.dbType = builtinType(f.base)
	default:
		return f, configError("type %s not supported", typeName(f.base))
	}
	return f, nil
}

// findKeyField returns the field of t stored in column "id".
func findKeyField(t reflect.Type) (reflect.StructField, bool) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		column := sf.Tag.Get("column")
		if idx := strings.Index(column, ","); idx != -1 {
			column = column[:idx]
		}
		if column == "" {
			column = ToColumnName(sf.Name)
		}
		if column == "id" {
			return sf, true
		}
	}
	return reflect.StructField{}, false
}

func isScalar(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice:
		return t.Elem().Kind() == reflect.Uint8
	}
	if t == timeType || t == decimalType {
		return true
	}
	return reflect.PointerTo(t).Implements(scannerType) && t.Implements(valuerType)
}

// builtinType returns the type drivers receive for values of t.
func builtinType(t reflect.Type) reflect.Type {
	switch t.Kind() {
	case reflect.Bool:
		return reflect.TypeOf(false)
	case reflect.String:
		return stringType
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int64Type
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return reflect.TypeOf(uint64(0))
	case reflect.Float32, reflect.Float64:
		return reflect.TypeOf(float64(0))
	case reflect.Slice:
		return bytesType
	}
	return t
}

func (refs references) contains(t reflect.Type) bool {
	for _, r := range refs {
		if r == t {
			return true
		}
	}
	return false
}

// Key returns the primary key field.
func (ci *ClassInfo) Key() *Field {
	return &ci.Fields[ci.keyIndex]
}

// FieldByName returns the field with struct field name or column name equal
// to name, or nil if there is no such field.
func (ci *ClassInfo) FieldByName(name string) *Field {
	for i := range ci.Fields {
		if ci.Fields[i].Name == name || ci.Fields[i].ColumnName == name {
			return &ci.Fields[i]
		}
	}
	return nil
}

func (ci *ClassInfo) columnNames() []string {
	columns := make([]string, len(ci.Fields))
	for i, f := range ci.Fields {
		columns[i] = f.ColumnName
	}
	return columns
}

// construct builds a new instance from converted column values keyed by
// column name. Every field must have a value.
func (ci *ClassInfo) construct(values map[string]reflect.Value) (reflect.Value, error) {
	if len(values) != len(ci.Fields) {
		return reflect.Value{}, mappingError(nil, "expected %d values, got %d", len(ci.Fields), len(values))
	}
	instance := reflect.New(ci.structType).Elem()
	for i := range ci.Fields {
		f := &ci.Fields[i]
		v, ok := values[f.ColumnName]
		if !ok {
			return reflect.Value{}, mappingError(nil, "missing value for column %s", f.ColumnName)
		}
		if !v.Type().AssignableTo(f.Type) {
			return reflect.Value{}, mappingError(nil, "value of type %s is not assignable to field %s of type %s", v.Type(), f.Name, f.Type)
		}
		f.fieldOf(instance).Set(v)
	}
	return instance, nil
}
