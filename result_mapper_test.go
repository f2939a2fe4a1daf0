package orm

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestMapRow(t *testing.T) {
	t.Parallel()
	ci := userInfo(t)
	conn := &fakeConn{}
	row := userRow(7, "Alice")
	long := strings.Repeat("x", 9000)
	bio := &fakeLOB{chunks: []string{long[:4000], long[4000:8000], long[8000:]}}
	row["bio"] = bio
	row["email"] = "alice@example.com"
	v, err := ci.mapRow(context.Background(), loggedRow{fakeRow: row, conn: conn})
	if err != nil {
		t.Fatal(err)
	}
	user := v.Interface().(testUser)
	if user.Bio != long {
		t.Errorf("Bio has %d characters, want %d", len(user.Bio), len(long))
	}
	if user.Id == nil || user.Id.ID != 7 {
		t.Errorf("Id = %v, want 7", user.Id)
	}
	if user.Email == nil || *user.Email != "alice@example.com" {
		t.Errorf("Email = %v", user.Email)
	}
	if user.Color != green {
		t.Errorf("Color = %v, want %v", user.Color, green)
	}
	if bio.discarded != 1 {
		t.Errorf("large object discarded %d times, want 1", bio.discarded)
	}
	// every column is read before the large object is streamed
	wantLog := []string{
		"get id", "get name", "get email", "get color", "get bio", "get birthday", "get weight", "get balance",
		"read bio", "read bio", "read bio", "read bio",
	}
	if !reflect.DeepEqual(conn.log, wantLog) {
		t.Errorf("log = %v, want %v", conn.log, wantLog)
	}
}

func TestMapRowLargeObjectError(t *testing.T) {
	t.Parallel()
	ci := userInfo(t)
	errBroken := errors.New("stream broken")
	bio := &fakeLOB{chunks: []string{"abc"}, err: errBroken}
	row := userRow(7, "Alice")
	row["bio"] = bio
	_, err := ci.mapRow(context.Background(), loggedRow{fakeRow: row, conn: &fakeConn{}})
	if !errors.Is(err, ErrMapping) || !errors.Is(err, errBroken) {
		t.Errorf("error = %v, want mapping error caused by %v", err, errBroken)
	}
	if bio.discarded != 1 {
		t.Errorf("large object discarded %d times, want 1", bio.discarded)
	}
}

func TestMapRowAbandonedLargeObjects(t *testing.T) {
	t.Parallel()
	ci := userInfo(t)
	errBroken := errors.New("stream broken")
	name := &fakeLOB{err: errBroken}
	bio := &fakeLOB{chunks: []string{"abc"}}
	row := userRow(7, "")
	row["name"] = name
	row["bio"] = bio
	_, err := ci.mapRow(context.Background(), loggedRow{fakeRow: row, conn: &fakeConn{}})
	if !errors.Is(err, errBroken) {
		t.Errorf("error = %v, want %v", err, errBroken)
	}
	if name.discarded != 1 || bio.discarded != 1 {
		t.Errorf("discarded = %d, %d, want 1, 1", name.discarded, bio.discarded)
	}
	if len(bio.chunks) != 1 {
		t.Error("abandoned large object should not be read")
	}

	// a failing column abandons the large objects read so far
	bio = &fakeLOB{chunks: []string{"abc"}}
	row = userRow(7, "Alice")
	row["bio"] = bio
	delete(row, "weight")
	_, err = ci.mapRow(context.Background(), loggedRow{fakeRow: row, conn: &fakeConn{}})
	if !errors.Is(err, ErrMapping) {
		t.Errorf("error = %v, want mapping error", err)
	}
	if bio.discarded != 1 {
		t.Errorf("large object discarded %d times, want 1", bio.discarded)
	}
}

func TestMapRowErrors(t *testing.T) {
	t.Parallel()
	ci := userInfo(t)
	tests := []struct {
		name    string
		column  string
		value   interface{}
		wantErr []string
	}{
		{"unknown enum", "color", "PURPLE", []string{"error constructing test_users from parameters map[", "column color", `"PURPLE"`}},
		{"lower-case enum", "color", "green", []string{"column color", `"green"`}},
		{"null name", "name", nil, []string{"error constructing test_users", "column name", "null value"}},
		{"wrong id type", "id", "seven", []string{"column id"}},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			row := userRow(7, "Alice")
			row[test.column] = test.value
			_, err := ci.mapRow(context.Background(), loggedRow{fakeRow: row, conn: &fakeConn{}})
			if !errors.Is(err, ErrMapping) {
				t.Fatalf("error = %v, want mapping error", err)
			}
			if !containsAll(err.Error(), test.wantErr...) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), test.wantErr)
			}
		})
	}
}
