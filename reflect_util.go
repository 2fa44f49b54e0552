package ecs

import "reflect"

// reflectTypeOf returns the dynamic ComponentType of a component value,
// dereferencing one level of pointer so *T and T are treated as the same
// component type (components are stored and compared as values).
func reflectTypeOf(v any) ComponentType {
	t := reflect.TypeOf(v)
	if t != nil && t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}
