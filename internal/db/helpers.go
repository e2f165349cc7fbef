package db

import (
	"reflect"
	"sort"
	"strings"
)

// buildSet turns a column → optional-value map into a SET clause. Nil
// pointers are skipped; column order is fixed so queries stay deterministic.
func buildSet(columns map[string]any) (string, []any) {
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	clauses := make([]string, 0, len(names))
	args := make([]any, 0, len(names))
	for _, name := range names {
		value := reflect.ValueOf(columns[name])
		if value.Kind() == reflect.Ptr && value.IsNil() {
			continue
		}
		clauses = append(clauses, name+" = ?")
		args = append(args, value.Elem().Interface())
	}
	return strings.Join(clauses, ", "), args
}
