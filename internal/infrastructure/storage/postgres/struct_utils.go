package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns returns the column names declared by "db" tags on T,
// flattening embedded structs in declaration order.
//
//	cols := ExtractDBColumns[contract.Contract]()
//	// ["id", "numero", "inquilino_id", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	return metadataOf(reflect.TypeOf(zero)).columns
}

// QualifiedColumns prefixes every column of T with alias, for joined selects.
func QualifiedColumns[T any](alias string) []string {
	cols := ExtractDBColumns[T]()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return out
}

type fieldInfo struct {
	path  []int
	dbTag string
}

type typeMetadata struct {
	fields  []fieldInfo
	columns []string
}

var typeCache sync.Map // map[reflect.Type]*typeMetadata

func metadataOf(t reflect.Type) *typeMetadata {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	if t.Kind() == reflect.Struct {
		collectFields(t, nil, meta)
	}
	typeCache.Store(t, meta)
	return meta
}

func collectFields(t reflect.Type, prefix []int, meta *typeMetadata) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		path := append(append([]int(nil), prefix...), i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			collectFields(field.Type, path, meta)
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		meta.fields = append(meta.fields, fieldInfo{path: path, dbTag: tag})
		meta.columns = append(meta.columns, tag)
	}
}

// StructToMap converts a struct to a column→value map using "db" tags.
// Embedded value structs are flattened; embedded pointers are skipped.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := metadataOf(rv.Type())
	res := make(map[string]any, len(meta.fields))
	for _, fi := range meta.fields {
		res[fi.dbTag] = rv.FieldByIndex(fi.path).Interface()
	}
	return res
}

// PickColumns keeps only the listed columns of m, in the given order of names.
// Used to build insert/update maps restricted to writable columns.
func PickColumns(m map[string]any, cols []string) map[string]any {
	out := make(map[string]any, len(cols))
	for _, c := range cols {
		if v, ok := m[c]; ok {
			out[c] = v
		}
	}
	return out
}
