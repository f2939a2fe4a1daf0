package orm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies errors returned by a Repository.
type ErrorKind int

const (
	// KindConfiguration is reported once, when an entity or key type has
	// an invalid shape. The Repository for that type cannot be created.
	KindConfiguration ErrorKind = iota + 1
	// KindBinding is reported when a value cannot be bound to its
	// statement parameter.
	KindBinding
	// KindStatement is reported when the driver fails to prepare or
	// execute a statement.
	KindStatement
	// KindMapping is reported when a row cannot be turned back into an
	// entity.
	KindMapping
	// KindNotFound is reported when no row matches a requested id.
	KindNotFound
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrBinding       = errors.New("binding error")
	ErrStatement     = errors.New("statement error")
	ErrMapping       = errors.New("mapping error")
	ErrNotFound      = errors.New("not found")

	ErrNoID         = errors.New("entity has no id")
	ErrConsumed     = errors.New("query result already consumed")
	ErrNoConnection = errors.New("no connection")
)

var kindSentinels = map[ErrorKind]error{
	KindConfiguration: ErrConfiguration,
	KindBinding:       ErrBinding,
	KindStatement:     ErrStatement,
	KindMapping:       ErrMapping,
	KindNotFound:      ErrNotFound,
}

func (k ErrorKind) String() string {
	if err, ok := kindSentinels[k]; ok {
		return err.Error()
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the error type returned by every Repository operation. Match its
// kind with errors.Is(err, ErrNotFound) and friends; the driver error that
// caused it is available through errors.Unwrap.
type Error struct {
	Kind    ErrorKind
	Message string
	SQL     string // failing statement, if any
	Err     error  // cause
}

func (e *Error) Error() string {
	msg := e.Message
	if e.SQL != "" {
		msg += ": " + e.SQL
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func configError(format string, args ...interface{}) error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

func bindingError(cause error, format string, args ...interface{}) error {
	return &Error{Kind: KindBinding, Message: fmt.Sprintf(format, args...), Err: cause}
}

func statementError(sql string, cause error, format string, args ...interface{}) error {
	return &Error{Kind: KindStatement, Message: fmt.Sprintf(format, args...), SQL: sql, Err: cause}
}

func mappingError(cause error, format string, args ...interface{}) error {
	return &Error{Kind: KindMapping, Message: fmt.Sprintf(format, args...), Err: cause}
}

func notFoundError(table string, id int64) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("No %s found for id %d", table, id)}
}
