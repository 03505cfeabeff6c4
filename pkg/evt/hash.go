package evt

import (
	"encoding/binary"
	"fmt"
	"io"
	"reflect"

	"golang.org/x/crypto/blake2b"
)

// Hash computes a stable blake2b digest of v. Struct fields and map
// entries are combined by XOR-ing their individual digests, so the
// result doesn't depend on iteration order and zero fields don't
// contribute at all. A blank struct field carries the type's hash
// name via its `hash` tag.
func Hash(v interface{}) ([]byte, error) {
	h, _ := blake2b.New256(nil)

	err := hashVal(reflect.ValueOf(v), h)
	if err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}

// HashInto writes v's hash material into an existing writer.
func HashInto(v interface{}, h io.Writer) error {
	return hashVal(reflect.ValueOf(v), h)
}

func hashVal(v reflect.Value, h io.Writer) error {
	// Unwrap any stack of pointers and interfaces. Interfaces first
	// since a nil may hide inside one.
	for {
		if v.Kind() == reflect.Interface {
			v = v.Elem()
			continue
		}

		if v.Kind() == reflect.Ptr {
			v = reflect.Indirect(v)
			continue
		}

		break
	}

	// Nil reads as a zero int.
	if !v.IsValid() {
		v = reflect.Zero(reflect.TypeOf(0))
	}

	// binary.Write needs sized values, widen to 64 bits.
	switch v.Kind() {
	case reflect.Int, reflect.Int16, reflect.Int32:
		v = reflect.ValueOf(int64(v.Int()))
	case reflect.Uint, reflect.Uint16, reflect.Uint32:
		v = reflect.ValueOf(uint64(v.Uint()))
	case reflect.Bool:
		var tmp int8
		if v.Bool() {
			tmp = 1
		}
		v = reflect.ValueOf(tmp)
	}

	k := v.Kind()

	if k >= reflect.Int && k <= reflect.Complex64 {
		return binary.Write(h, binary.LittleEndian, v.Interface())
	}

	switch k {
	case reflect.String:
		_, err := h.Write([]byte(v.String()))
		return err
	case reflect.Array, reflect.Slice:
		l := v.Len()
		for i := 0; i < l; i++ {
			err := hashVal(v.Index(i), h)
			if err != nil {
				return err
			}
		}

		return nil
	case reflect.Map:
		return hashMap(v, h)
	case reflect.Struct:
		return hashStruct(v, h)
	}

	return fmt.Errorf("unknown kind to hash: %s", k)
}

func hashMap(v reflect.Value, h io.Writer) error {
	var agg []byte

	for _, key := range v.MapKeys() {
		eh, _ := blake2b.New256(nil)

		err := hashVal(key, eh)
		if err != nil {
			return err
		}

		err = hashVal(v.MapIndex(key), eh)
		if err != nil {
			return err
		}

		agg = xorInto(agg, eh.Sum(nil))
	}

	_, err := h.Write(agg)
	return err
}

func hashStruct(v reflect.Value, h io.Writer) error {
	t := v.Type()

	err := hashVal(reflect.ValueOf(structHashName(t)), h)
	if err != nil {
		return err
	}

	var agg []byte

	l := v.NumField()

	for i := 0; i < l; i++ {
		field := t.Field(i)

		if field.Name == "_" || field.PkgPath != "" {
			continue
		}

		tag := field.Tag.Get("hash")
		if tag == "ignore" || tag == "-" {
			continue
		}

		inner := v.Field(i)

		// Zero fields don't contribute, so adding an unset field
		// to a struct later can't shift old hashes.
		if inner.IsZero() {
			continue
		}

		eh, _ := blake2b.New256(nil)

		err := hashVal(reflect.ValueOf(field.Name), eh)
		if err != nil {
			return err
		}

		err = hashVal(inner, eh)
		if err != nil {
			return err
		}

		agg = xorInto(agg, eh.Sum(nil))
	}

	_, err = h.Write(agg)
	return err
}

// structHashName is the type name unless a blank field's hash tag
// overrides it.
func structHashName(t reflect.Type) string {
	name := t.Name()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Name != "_" {
			continue
		}

		tag := field.Tag.Get("hash")
		if tag == "ignore" || tag == "-" {
			continue
		}

		name = tag
	}

	return name
}

func xorInto(agg, sum []byte) []byte {
	if agg == nil {
		return sum
	}

	for i, x := range sum {
		agg[i] ^= x
	}

	return agg
}
