package orm

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/shopspring/decimal"
)

var errNullValue = errors.New("null value for non-nullable field")

// fieldOf returns the settable value of f inside an addressable instance.
func (f *Field) fieldOf(instance reflect.Value) reflect.Value {
	return settable(instance.FieldByIndex(f.index))
}

// bind binds the value of f in instance to the statement parameter index.
func (f *Field) bind(stmt Statement, index int, instance reflect.Value) error {
	value, err := f.bindable(f.fieldOf(instance))
	if err != nil {
		return bindingError(err, "error binding field %s with index %d", f.Name, index)
	}
	return f.bindValue(stmt, index, value)
}

func (f *Field) bindValue(stmt Statement, index int, value interface{}) (err error) {
	if value == nil {
		err = stmt.BindNull(index, f.dbType)
	} else {
		err = stmt.Bind(index, value)
	}
	if err != nil {
		return bindingError(err, "error binding value %v to field %s with index %d", value, f.Name, index)
	}
	return nil
}

// bindable converts a value of the declared field type to the value sent to
// the driver. nil means NULL.
func (f *Field) bindable(v reflect.Value) (interface{}, error) {
	if f.Nullable {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	return f.baseBindable(v)
}

func (f *Field) baseBindable(v reflect.Value) (interface{}, error) {
	switch f.Kind {
	case PrimaryKeyField:
		raw, _ := f.idHandler.ExtractRaw(v)
		return raw, nil
	case ReferenceField:
		raw, ok := f.idHandler.ExtractRaw(v.FieldByIndex(f.refIndex))
		if !ok {
			return nil, fmt.Errorf("referenced %s is not persisted: %w", typeName(f.base), ErrNoID)
		}
		return raw, nil
	case EnumField:
		return f.enumName(v)
	case ScalarField:
		return scalarBindable(v), nil
	}
	return nil, fmt.Errorf("unknown field kind %d", f.Kind)
}

func (f *Field) enumName(v reflect.Value) (string, error) {
	var ordinal int64
	switch v.Kind() {
	case reflect.String:
		name := v.String()
		for _, n := range f.enumNames {
			if n == name {
				return name, nil
			}
		}
		return "", fmt.Errorf("%q is not a constant of %s", name, typeName(f.base))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		ordinal = int64(v.Uint())
	default:
		ordinal = v.Int()
	}
	if ordinal < 0 || ordinal >= int64(len(f.enumNames)) {
		return "", fmt.Errorf("%d is not a constant of %s", ordinal, typeName(f.base))
	}
	return f.enumNames[ordinal], nil
}

func scalarBindable(v reflect.Value) interface{} {
	if v.Type().Implements(valuerType) {
		return v.Interface()
	}
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool()
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Slice:
		return v.Bytes()
	}
	return v.Interface()
}

// queryValue converts a value passed to a query into its bindable form. It
// accepts the declared field type, its base type or a pointer to it; other
// values are passed to the driver as they are.
func (f *Field) queryValue(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	if f.Kind == PrimaryKeyField {
		return f.idHandler.RawID(value)
	}
	rv := reflect.ValueOf(value)
	switch rv.Type() {
	case f.base:
		return f.baseBindable(rv)
	case reflect.PointerTo(f.base):
		if rv.IsNil() {
			return nil, nil
		}
		return f.baseBindable(rv.Elem())
	}
	if f.Kind == ReferenceField {
		return f.idHandler.RawID(value)
	}
	return value, nil
}

// fromDB converts a column value read from the driver to a value of the
// declared field type.
func (f *Field) fromDB(src interface{}) (reflect.Value, error) {
	if src == nil {
		if f.Nullable || f.Kind == PrimaryKeyField && f.Type.Kind() == reflect.Ptr {
			return reflect.Zero(f.Type), nil
		}
		return reflect.Value{}, errNullValue
	}
	if f.Kind == PrimaryKeyField {
		raw, err := toInt64(src)
		if err != nil {
			return reflect.Value{}, err
		}
		return f.idHandler.CreateID(raw), nil
	}
	base := reflect.New(f.base).Elem()
	switch f.Kind {
	case ReferenceField:
		raw, err := toInt64(src)
		if err != nil {
			return reflect.Value{}, err
		}
		settable(base.FieldByIndex(f.refIndex)).Set(f.idHandler.CreateID(raw))
	case EnumField:
		name, err := toString(src)
		if err != nil {
			return reflect.Value{}, err
		}
		ordinal := -1
		for i, n := range f.enumNames {
			if n == name {
				ordinal = i
				break
			}
		}
		if ordinal < 0 {
			return reflect.Value{}, fmt.Errorf("unknown value %q for enum %s", name, typeName(f.base))
		}
		switch base.Kind() {
		case reflect.String:
			base.SetString(name)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			base.SetUint(uint64(ordinal))
		default:
			base.SetInt(int64(ordinal))
		}
	case ScalarField:
		if err := convertScalar(base, src); err != nil {
			return reflect.Value{}, err
		}
	}
	if f.Nullable {
		return base.Addr(), nil
	}
	return base, nil
}

// convertScalar stores src into the addressable dst.
func convertScalar(dst reflect.Value, src interface{}) error {
	if scanner, ok := dst.Addr().Interface().(sql.Scanner); ok {
		if valuer, ok := src.(driver.Valuer); ok {
			v, err := valuer.Value()
			if err != nil {
				return err
			}
			src = v
		}
		return scanner.Scan(src)
	}
	if valuer, ok := src.(driver.Valuer); ok {
		v, err := valuer.Value()
		if err != nil {
			return err
		}
		src = v
	}
	switch dst.Kind() {
	case reflect.String:
		s, err := toString(src)
		if err != nil {
			return err
		}
		dst.SetString(s)
		return nil
	case reflect.Bool:
		switch b := src.(type) {
		case bool:
			dst.SetBool(b)
			return nil
		case int64:
			dst.SetBool(b != 0)
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt64(src)
		if err != nil {
			return err
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("value %d overflows %s", n, dst.Type())
		}
		dst.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := toInt64(src)
		if err != nil {
			return err
		}
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return fmt.Errorf("value %d overflows %s", n, dst.Type())
		}
		dst.SetUint(uint64(n))
		return nil
	case reflect.Float32, reflect.Float64:
		n, err := toFloat64(src)
		if err != nil {
			return err
		}
		dst.SetFloat(n)
		return nil
	case reflect.Slice:
		switch b := src.(type) {
		case []byte:
			dst.SetBytes(append([]byte(nil), b...))
			return nil
		case string:
			dst.SetBytes([]byte(b))
			return nil
		}
	}
	sv := reflect.ValueOf(src)
	if sv.Type().ConvertibleTo(dst.Type()) {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("cannot convert %T to %s", src, dst.Type())
}

func toString(src interface{}) (string, error) {
	switch s := src.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	}
	return "", fmt.Errorf("cannot convert %T to string", src)
}

func toInt64(src interface{}) (int64, error) {
	switch n := src.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", n)
		}
		return int64(n), nil
	case float64:
		if n == float64(int64(n)) {
			return int64(n), nil
		}
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	case driver.Valuer:
		v, err := n.Value()
		if err != nil {
			return 0, err
		}
		return toInt64(v)
	}
	return 0, fmt.Errorf("cannot convert %T to int64", src)
}

func toFloat64(src interface{}) (float64, error) {
	switch n := src.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case []byte:
		return strconv.ParseFloat(string(n), 64)
	case string:
		return strconv.ParseFloat(n, 64)
	}
	return 0, fmt.Errorf("cannot convert %T to float64", src)
}

// NullValue returns the typed NULL drivers should receive for a column whose
// values have type dbType, for example sql.NullString{} for string. It
// returns nil for types without a typed NULL.
func NullValue(dbType reflect.Type) interface{} {
	switch dbType {
	case timeType:
		return sql.NullTime{}
	case decimalType:
		return decimal.NullDecimal{}
	}
	switch dbType.Kind() {
	case reflect.String:
		return sql.NullString{}
	case reflect.Bool:
		return sql.NullBool{}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return sql.NullInt64{}
	case reflect.Float32, reflect.Float64:
		return sql.NullFloat64{}
	case reflect.Slice:
		return []byte(nil)
	}
	return nil
}
