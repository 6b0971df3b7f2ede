// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package opool

import (
	"fmt"
	"reflect"
)

// verifyTrivialLayout walks t recursively and fails if any reachable
// field carries a pointer, an interface, or anything else whose bytes
// are meaningless once copied into another address space (spec §4.5:
// "trivially copyable" / "standard layout"). Go has no compile-time
// trait for this, so the check runs once, at construction time, never
// on the allocate/free hot path. Only CreateShared and AttachShared call
// this: local pools never leave this process's address space, so §4.5
// leaves process-local pointers there as a caller obligation instead of
// a checked one.
func verifyTrivialLayout(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return nil
	case reflect.Array:
		if err := verifyTrivialLayout(t.Elem()); err != nil {
			return fmt.Errorf("[%d]%s: %w", t.Len(), t.Elem(), err)
		}
		return nil
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if err := verifyTrivialLayout(f.Type); err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("%s kind %s: %w", t, t.Kind(), ErrInvalidElementType)
	}
}
