package util

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// IsStructInitialized returns an error naming every exported field of s that holds a nil
// pointer, interface, map, slice, func or channel. Fields tagged `wire:"-"` are checked too.
func IsStructInitialized(s any) error {
	v := reflect.ValueOf(s)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return errors.New("struct is nil")
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return errors.Errorf("expected struct, got %s", v.Kind())
	}

	var missing []string
	t := v.Type()
	for i := range v.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		switch v.Field(i).Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			if v.Field(i).IsNil() {
				missing = append(missing, field.Name)
			}
		default:
		}
	}

	if len(missing) > 0 {
		return errors.Errorf("uninitialized fields: %s", strings.Join(missing, ", "))
	}

	return nil
}
