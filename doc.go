// Package orm maps Go structs to relational rows over a borrowed connection.
//
// # Overview
//
// An entity type is described once, when its Repository is created. The
// description (see ClassInfo) fixes the table name, the column of every field
// and how each value is converted, and rejects invalid shapes right away with
// a configuration error. The generated SQL uses positional parameters ($1,
// $2, ...) and is built once per entity type or query shape.
//
// Key features include:
//   - Typed keys: a struct with a single int64 field, or int64 itself
//   - Nullable fields through pointers, enums stored as constant names
//   - References to other entities stored as foreign keys
//   - Large objects read in chunks after the other columns of a row
//   - Lazy single-pass query results as iter.Seq2
//   - Transactions bracketing a block of operations
//
// # Basic Usage
//
//	type UserPK struct{ ID int64 }
//
//	type Color int
//
//	const (
//		Red Color = iota
//		Green
//	)
//
//	func (Color) EnumConstants() []string { return []string{"RED", "GREEN"} }
//
//	type User struct {
//		Id       *UserPK
//		Name     string
//		Email    *string
//		Color    Color
//		Birthday time.Time
//	}
//
//	users := orm.MustNewRepository[User]()
//	conn := orm.NewConnection(pq.MustOpen(connStr), logger.StandardLogger)
//
//	// INSERT INTO users (name, email, color, birthday) VALUES ($1, $2, $3, $4) RETURNING id
//	user, err := users.Create(ctx, conn, User{Name: "Alice", Color: Green})
//
//	// UPDATE users SET name = $1, email = $2, color = $3, birthday = $4 WHERE id = $5
//	user.Name = "Bob"
//	err = users.Update(ctx, conn, user)
//
//	// SELECT id, name, email, color, birthday FROM users WHERE id = $1
//	user, err = users.FindByID(ctx, conn, user.Id)
//
// # Queries
//
// Queries are conjunctions of equality conditions. The n-th value given to
// With is bound to the n-th condition:
//
//	q := users.QueryFactory().MustCreateQuery(orm.Equals("Name"), orm.Equals("Color"))
//	for user, err := range q.With(conn, "Alice", Green).Find(ctx) {
//		...
//	}
//
// # Table and Column Naming
//
// Table names are derived from the struct name and converted to plural form
// by default (e.g., User becomes users). You can customize this by:
//   - Adding a __TABLE_NAME__ field with a tag specifying the table name
//   - Implementing a TableName() string method on the struct
//   - Setting DefaultTableNamer to a custom function
//
// Column names are derived from struct field names. Customize with:
//   - The "column" struct tag
//   - DefaultColumnNamer for global naming
//
// # Errors
//
// Every operation returns an *Error whose kind can be tested with errors.Is
// against ErrConfiguration, ErrBinding, ErrStatement, ErrMapping and
// ErrNotFound. The driver error that caused it is kept in the chain.
//
// # Drivers
//
// A Connection is implemented by NewConnection over any github.com/gopsql/db
// connection (pq, pgx or database/sql through gopsql/standard), and by package
// github.com/gopsql/orm/pgxconn over a native pgx connection or pool.
package orm
