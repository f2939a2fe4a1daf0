package orm

import (
	"context"
	"reflect"
)

type (
	// Repository creates, updates, finds and deletes entities of type T. T
	// must be a struct with a key field stored in column "id" (see IDHandler)
	// and other fields of supported types (see ClassInfo). A Repository holds
	// no connection; each operation uses the connection it is given.
	Repository[T any] struct {
		info    *ClassInfo
		insert  *insertSQL
		update  *updateSQL
		delete  *deleteSQL
		queries *QueryFactory[T]
		byID    *Query[T]
	}
)

// NewRepository describes T and prepares its statements. It fails with a
// configuration error if T has an invalid shape. Options can be the result of
// References().
//
//	type UserPK struct{ ID int64 }
//
//	type User struct {
//		Id    *UserPK
//		Name  string
//		Email *string
//	}
//
//	users, err := orm.NewRepository[User]()
func NewRepository[T any](options ...interface{}) (*Repository[T], error) {
	var refs references
	for _, option := range options {
		switch o := option.(type) {
		case references:
			refs = append(refs, o...)
		}
	}
	ci, err := classInfoFor(reflect.TypeOf((*T)(nil)).Elem(), refs)
	if err != nil {
		return nil, err
	}
	r := &Repository[T]{
		info:    ci,
		insert:  newInsertSQL(ci),
		update:  newUpdateSQL(ci),
		delete:  newDeleteSQL(ci),
		queries: &QueryFactory[T]{info: ci},
	}
	r.byID, err = r.queries.CreateQuery(Equals(ci.Key().Name))
	if err != nil {
		return nil, err
	}
	return r, nil
}

// MustNewRepository is like NewRepository but panics if T has an invalid
// shape.
func MustNewRepository[T any](options ...interface{}) *Repository[T] {
	r, err := NewRepository[T](options...)
	if err != nil {
		panic(err)
	}
	return r
}

// ClassInfo returns the field table of T.
func (r *Repository[T]) ClassInfo() *ClassInfo {
	return r.info
}

// TableName returns the table name of T.
func (r *Repository[T]) TableName() string {
	return r.info.TableName
}

// Fields returns a copy of the field descriptors of T in declaration order.
func (r *Repository[T]) Fields() []Field {
	return append([]Field(nil), r.info.Fields...)
}

// QueryFactory returns the factory of queries on T.
func (r *Repository[T]) QueryFactory() *QueryFactory[T] {
	return r.queries
}

// Create inserts entity and returns a copy of it with the generated key.
func (r *Repository[T]) Create(ctx context.Context, conn Connection, entity T) (T, error) {
	var zero T
	v, err := r.insert.create(ctx, conn, reflect.ValueOf(entity))
	if err != nil {
		return zero, err
	}
	return v.Interface().(T), nil
}

// MustCreate is like Create but panics if the insert fails.
func (r *Repository[T]) MustCreate(ctx context.Context, conn Connection, entity T) T {
	created, err := r.Create(ctx, conn, entity)
	if err != nil {
		panic(err)
	}
	return created
}

// Update overwrites every column of the row with the key of entity. The key
// must be set. A not-found error is returned if no row has that key.
func (r *Repository[T]) Update(ctx context.Context, conn Connection, entity T) error {
	return r.update.update(ctx, conn, reflect.ValueOf(entity))
}

// MustUpdate is like Update but panics if the update fails.
func (r *Repository[T]) MustUpdate(ctx context.Context, conn Connection, entity T) {
	if err := r.Update(ctx, conn, entity); err != nil {
		panic(err)
	}
}

// FindByID returns the entity with key id. id can be of the key type, a
// pointer to it, or an integer. A not-found error is returned if no row has
// that key.
func (r *Repository[T]) FindByID(ctx context.Context, conn Connection, id interface{}) (T, error) {
	var zero T
	raw, err := r.info.Key().idHandler.RawID(id)
	if err != nil {
		return zero, err
	}
	var found *T
	for entity, err := range r.byID.With(conn, raw).Find(ctx) {
		if err != nil {
			return zero, err
		}
		if found != nil {
			return zero, mappingError(nil, "expected one %s row for id %d, got more", r.info.TableName, raw)
		}
		found = &entity
	}
	if found == nil {
		return zero, notFoundError(r.info.TableName, raw)
	}
	return *found, nil
}

// MustFindByID is like FindByID but panics if the entity cannot be found.
func (r *Repository[T]) MustFindByID(ctx context.Context, conn Connection, id interface{}) T {
	entity, err := r.FindByID(ctx, conn, id)
	if err != nil {
		panic(err)
	}
	return entity
}

// FindBy returns the entities whose field equals value. field is a struct
// field name or a column name.
func (r *Repository[T]) FindBy(ctx context.Context, conn Connection, field string, value interface{}) ([]T, error) {
	q, err := r.queries.CreateQuery(Equals(field))
	if err != nil {
		return nil, err
	}
	return q.With(conn, value).All(ctx)
}

// Delete deletes the row with key id. A not-found error is returned if no
// row has that key.
func (r *Repository[T]) Delete(ctx context.Context, conn Connection, id interface{}) error {
	return r.delete.delete(ctx, conn, id)
}

// MustDelete is like Delete but panics if the delete fails.
func (r *Repository[T]) MustDelete(ctx context.Context, conn Connection, id interface{}) {
	if err := r.Delete(ctx, conn, id); err != nil {
		panic(err)
	}
}
