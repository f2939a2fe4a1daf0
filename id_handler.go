package orm

import (
	"fmt"
	"math"
	"reflect"
	"unsafe"
)

const pkShapeMessage = "PK classes must have a single field of type long"

// IDHandler converts between raw int64 ids and the key type declared by an
// entity. A key type is either int64 (or a named int64), or a struct with a
// single int64 field such as
//
//	type UserPK struct{ ID int64 }
//
// Either may be declared through a pointer, which makes the key nullable
// before the entity is persisted.
type IDHandler struct {
	keyType reflect.Type
	base    reflect.Type
	wrapped bool
}

func newIDHandler(keyType reflect.Type) (*IDHandler, error) {
	base := keyType
	if base.Kind() == reflect.Ptr {
		base = base.Elem()
	}
	h := &IDHandler{keyType: keyType, base: base}
	switch base.Kind() {
	case reflect.Int64:
	case reflect.Struct:
		if base.NumField() != 1 || base.Field(0).Type.Kind() != reflect.Int64 {
			return nil, configError("%s: %s, but %s has %d field(s)", typeName(base), pkShapeMessage, typeName(base), base.NumField())
		}
		h.wrapped = true
	default:
		return nil, configError("%s: %s", typeName(base), pkShapeMessage)
	}
	return h, nil
}

// KeyType returns the declared key type.
func (h *IDHandler) KeyType() reflect.Type {
	return h.keyType
}

// CreateID wraps raw into a value of the declared key type.
func (h *IDHandler) CreateID(raw int64) reflect.Value {
	v := reflect.New(h.base).Elem()
	if h.wrapped {
		settable(v.Field(0)).SetInt(raw)
	} else {
		v.SetInt(raw)
	}
	if h.keyType.Kind() == reflect.Ptr {
		return v.Addr()
	}
	return v
}

// ExtractRaw returns the raw id of a key value. It returns false for a nil
// key.
func (h *IDHandler) ExtractRaw(v reflect.Value) (int64, bool) {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return 0, false
		}
		v = v.Elem()
	}
	if h.wrapped {
		return v.Field(0).Int(), true
	}
	return v.Int(), true
}

// RawID accepts an id as the declared key type, a pointer to it, or any
// integer, and returns its raw value.
func (h *IDHandler) RawID(id interface{}) (int64, error) {
	rv := reflect.ValueOf(id)
	if !rv.IsValid() {
		return 0, bindingError(ErrNoID, "id is nil")
	}
	switch rv.Type() {
	case h.keyType, h.base, reflect.PointerTo(h.base):
		if raw, ok := h.ExtractRaw(rv); ok {
			return raw, nil
		}
		return 0, bindingError(ErrNoID, "id is nil")
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt64 {
			return 0, bindingError(nil, "id %d overflows int64", rv.Uint())
		}
		return int64(rv.Uint()), nil
	}
	return 0, bindingError(nil, "id of type %s does not match key type %s", rv.Type(), h.keyType)
}

// settable returns v itself when it can be set, or a settable view of an
// unexported struct field otherwise. v must be addressable.
func settable(v reflect.Value) reflect.Value {
	if v.CanSet() {
		return v
	}
	return reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem()
}

func typeName(t reflect.Type) string {
	if t.Name() != "" {
		return t.Name()
	}
	return fmt.Sprint(t)
}
