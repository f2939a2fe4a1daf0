package orm

import (
	"context"
	"errors"
	"testing"
)

func TestDelete(t *testing.T) {
	t.Parallel()
	users := MustNewRepository[testUser]()
	if got, want := newDeleteSQL(users.ClassInfo()).String(), "DELETE FROM test_users WHERE id = $1"; got != want {
		t.Errorf("SQL = %q, want %q", got, want)
	}

	tests := []struct {
		name    string
		id      interface{}
		result  fakeResult
		wantErr error
	}{
		{"by key", &userPK{3}, fakeResult{rowsUpdated: 1}, nil},
		{"by integer", 3, fakeResult{rowsUpdated: 1}, nil},
		{"missing row", 3, fakeResult{rowsUpdated: 0}, ErrNotFound},
		{"nil key", (*userPK)(nil), fakeResult{}, ErrNoID},
	}
	for _, test := range tests {
		conn := &fakeConn{results: []fakeResult{test.result}}
		err := users.Delete(context.Background(), conn, test.id)
		if test.wantErr == nil {
			if err != nil {
				t.Errorf("%s: %v", test.name, err)
				continue
			}
			if got := conn.statements[0].args(); len(got) != 1 || got[0] != int64(3) {
				t.Errorf("%s: args = %#v", test.name, got)
			}
			continue
		}
		if !errors.Is(err, test.wantErr) {
			t.Errorf("%s: error = %v, want %v", test.name, err, test.wantErr)
		}
	}
}

func TestMustDelete(t *testing.T) {
	t.Parallel()
	users := MustNewRepository[testUser]()
	defer func() {
		if recover() == nil {
			t.Error("MustDelete should panic")
		}
	}()
	users.MustDelete(context.Background(), &fakeConn{results: []fakeResult{{}}}, 1)
}
