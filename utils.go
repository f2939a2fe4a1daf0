package orm

import (
	"reflect"
	"strings"
	"unicode"
)

var (
	// DefaultColumnNamer converts a struct field name to its column name.
	// Default is ToUnderscore, so "FavoriteColor" becomes "favorite_color".
	DefaultColumnNamer func(string) string = ToUnderscore

	// DefaultTableNamer converts a struct type name to its table name.
	// Default is ToPluralUnderscore, so "PostComment" becomes
	// "post_comments".
	DefaultTableNamer func(string) string = ToPluralUnderscore
)

const (
	tableNameField = "__TABLE_NAME__"
)

// ToTableName returns table name of a struct. If struct has "TableName()
// string" receiver method, its return value is used. If name is empty and
// struct has a __TABLE_NAME__ field, its tag value is used. If it is still
// empty, struct's name converted by DefaultTableNamer is used. Anonymous
// structs have no name and "error_no_table_name" is returned.
func ToTableName(object interface{}) (name string) {
	if o, ok := object.(interface{ TableName() string }); ok {
		name = o.TableName()
		if name != "" {
			return
		}
	}
	var rt reflect.Type
	if t, ok := object.(reflect.Type); ok {
		rt = t
	} else {
		rt = reflect.TypeOf(object)
	}
	if rt == nil {
		return "error_no_table_name"
	}
	if rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt.Kind() == reflect.Struct {
		if o, ok := reflect.New(rt).Interface().(interface{ TableName() string }); ok {
			if name = o.TableName(); name != "" {
				return
			}
		}
		if f, ok := rt.FieldByName(tableNameField); ok {
			name = string(f.Tag)
			if name != "" {
				return
			}
		}
		name = rt.Name()
		if DefaultTableNamer != nil {
			name = DefaultTableNamer(name)
		}
	}
	if name == "" { // anonymous struct has no name
		return "error_no_table_name"
	}
	return
}

// ToColumnName converts a struct field name to its column name using
// DefaultColumnNamer. The name is returned as is if DefaultColumnNamer is nil.
func ToColumnName(in string) string {
	if DefaultColumnNamer == nil {
		return in
	}
	return DefaultColumnNamer(in)
}

// Convert a word to its plural form. Add "es" for "s", "x", "ch", "sh" or
// "o" ending, "y" ending after a consonant will be replaced with "ies", for
// other endings, add "s". For example, "product" will be converted to
// "products" and "category" to "categories".
func ToPlural(in string) string {
	if in == "" {
		return ""
	}
	if strings.HasSuffix(in, "y") && len(in) > 1 && !strings.ContainsRune("aeiouAEIOU", rune(in[len(in)-2])) {
		return in[:len(in)-1] + "ies"
	}
	for _, suffix := range []string{"s", "x", "ch", "sh", "o"} {
		if strings.HasSuffix(in, suffix) {
			return in + "es"
		}
	}
	return in + "s"
}

// Convert a "CamelCase" word to its plural "snake_case" (underscore) form.
// For example, "PostComment" will be converted to "post_comments".
func ToPluralUnderscore(in string) string {
	return ToPlural(ToUnderscore(in))
}

// Convert "CamelCase" word to its "snake_case" (underscore) form. For example,
// "FullName" will be converted to "full_name". Runs of upper case letters are
// kept together, so "ID" becomes "id" and "HTTPServer" becomes "http_server".
func ToUnderscore(str string) string {
	runes := []rune(str)
	var output []rune
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prev != '_' && (unicode.IsLower(prev) || unicode.IsNumber(prev) ||
				(unicode.IsUpper(prev) && nextIsLower)) {
				output = append(output, '_')
			}
		}
		output = append(output, unicode.ToLower(r))
	}
	return string(output)
}
