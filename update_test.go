package orm

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestUpdateSQL(t *testing.T) {
	t.Parallel()
	counters, err := classInfoFor(reflect.TypeOf(counter{}), nil)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		info    *ClassInfo
		wantSQL string
	}{
		{userInfo(t), "UPDATE test_users SET name = $1, email = $2, color = $3, bio = $4, birthday = $5, weight = $6, balance = $7 WHERE id = $8"},
		{memberInfo(t), "UPDATE members SET team_id = $1, mentor_id = $2, mood = $3 WHERE id = $4"},
		{counters, "UPDATE counters SET id = id WHERE id = $1"},
	}
	for _, test := range tests {
		if got := newUpdateSQL(test.info).String(); got != test.wantSQL {
			t.Errorf("SQL = %q, want %q", got, test.wantSQL)
		}
	}
}

func TestUpdate(t *testing.T) {
	t.Parallel()
	users := MustNewRepository[testUser]()
	conn := &fakeConn{results: []fakeResult{{rowsUpdated: 1}}}
	user := testUser{Id: &userPK{5}, Name: "Bob", Email: stringPtr("bob@example.com"), Color: blue}
	if err := users.Update(context.Background(), conn, user); err != nil {
		t.Fatal(err)
	}
	args := conn.statements[0].args()
	if len(args) != 8 {
		t.Fatalf("bound %d values, want 8", len(args))
	}
	if args[0] != "Bob" || args[1] != "bob@example.com" || args[2] != "BLUE" {
		t.Errorf("args = %#v", args)
	}
	if args[7] != int64(5) {
		t.Errorf("key bound as %#v, want int64(5)", args[7])
	}
}

func TestUpdateNotFound(t *testing.T) {
	t.Parallel()
	users := MustNewRepository[testUser]()
	conn := &fakeConn{results: []fakeResult{{rowsUpdated: 0}}}
	err := users.Update(context.Background(), conn, testUser{Id: &userPK{5}, Name: "Bob"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want not found", err)
	}
	if err.Error() != "No test_users found for id 5" {
		t.Errorf("error = %q, want %q", err.Error(), "No test_users found for id 5")
	}
}

func TestUpdateWithoutID(t *testing.T) {
	t.Parallel()
	users := MustNewRepository[testUser]()
	conn := &fakeConn{}
	err := users.Update(context.Background(), conn, testUser{Name: "Bob"})
	if !errors.Is(err, ErrBinding) || !errors.Is(err, ErrNoID) {
		t.Errorf("error = %v, want binding error for missing id", err)
	}
	if len(conn.statements) != 0 {
		t.Errorf("statements = %v, want none", statementSQL(conn))
	}
}

func TestUpdateStatementError(t *testing.T) {
	t.Parallel()
	users := MustNewRepository[testUser]()
	errLost := errors.New("connection lost")
	conn := &fakeConn{results: []fakeResult{{err: errLost}}}
	err := users.Update(context.Background(), conn, testUser{Id: &userPK{5}})
	if !errors.Is(err, ErrStatement) || !errors.Is(err, errLost) {
		t.Errorf("error = %v, want statement error caused by %v", err, errLost)
	}
	var e *Error
	if !errors.As(err, &e) || e.SQL != newUpdateSQL(users.ClassInfo()).String() {
		t.Errorf("error should carry the SQL, got %v", err)
	}
}
