// Package codec converts cached values to and from bytes.
//
// The default Tagged codec writes a small self-describing envelope:
//
//	0xCA | version | kind | payload
//
// Strings and byte slices are stored raw, protobuf messages travel as an
// anypb.Any (carrying their type URL) and every other value is written with
// encoding/gob, whose stream embeds its own type description. No type has to
// be registered before it can be decoded into a typed target.
//
// Values passed as a pointer to an interface (as Do does for interface-typed
// results) are written as gob interface values carrying the concrete type
// name, so they decode into an interface target. The concrete type is
// registered with gob on encode; a process that never encoded or registered
// it (gob.Register) cannot decode such an entry and reports an *Error.
//
// Values are rejected before encoding when any reachable type is a channel,
// a function, an unsafe pointer or a struct with unexported fields, unless
// the type encodes itself (gob.GobEncoder or encoding.BinaryMarshaler).
//
// Gob does not distinguish a nil slice or map from an empty one: an empty
// container decodes as nil. Both have length zero and range identically;
// callers that compare decoded values must treat them as equal.
package codec

import (
	"bytes"
	"encoding"
	"encoding/gob"
	"errors"
	"fmt"
	"reflect"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
)

// ErrSerialization is matched by every *Error.
var ErrSerialization = errors.New("codec: serialization failed")

// Error describes a value that could not be encoded or decoded.
type Error struct {
	Op   string // "marshal" or "unmarshal"
	Type string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("codec: %s %s", e.Op, e.Type)
	}
	return fmt.Sprintf("codec: %s %s: %v", e.Op, e.Type, e.Err)
}

func (e *Error) Unwrap() []error { return []error{ErrSerialization, e.Err} }

// Codec converts values to and from their stored representation.
type Codec interface {
	Marshal(v any) ([]byte, error)
	// Unmarshal decodes data into target, which must be a non-nil pointer.
	Unmarshal(data []byte, target any) error
}

const (
	magic   byte = 0xCA
	version byte = 1
)

type kind byte

const (
	kindString kind = iota + 1
	kindBytes
	kindProto
	kindGob
	kindGobIface
)

func (k kind) String() string {
	switch k {
	case kindString:
		return "string"
	case kindBytes:
		return "bytes"
	case kindProto:
		return "proto"
	case kindGob:
		return "gob"
	case kindGobIface:
		return "gob-interface"
	}
	return fmt.Sprintf("kind(%d)", byte(k))
}

// Tagged is the default Codec. Its zero value is ready to use.
type Tagged struct{}

var _ Codec = Tagged{}

// Marshal encodes v into a tagged envelope. A pointer to an interface is
// encoded as the interface value it holds.
func (t Tagged) Marshal(v any) ([]byte, error) {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Kind() == reflect.Interface {
		return t.marshalInterface(rv.Elem())
	}

	switch x := v.(type) {
	case nil:
		return nil, &Error{Op: "marshal", Type: "nil", Err: errors.New("nil value")}
	case string:
		return frame(kindString, []byte(x)), nil
	case []byte:
		return frame(kindBytes, x), nil
	case proto.Message:
		return marshalProto(x)
	}

	if err := checkEncodable(reflect.ValueOf(v)); err != nil {
		return nil, &Error{Op: "marshal", Type: typeName(v), Err: err}
	}
	var buf bytes.Buffer
	buf.Write([]byte{magic, version, byte(kindGob)})
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, &Error{Op: "marshal", Type: typeName(v), Err: err}
	}
	return buf.Bytes(), nil
}

// marshalInterface encodes the dynamic value of iv. Strings, byte slices and
// protobuf messages keep their own kinds since those decode into an
// interface target already.
func (t Tagged) marshalInterface(iv reflect.Value) ([]byte, error) {
	if iv.IsNil() {
		return nil, &Error{Op: "marshal", Type: iv.Type().String(), Err: errors.New("nil value")}
	}
	concrete := iv.Elem()
	switch concrete.Interface().(type) {
	case string, []byte, proto.Message:
		return t.Marshal(concrete.Interface())
	}
	if err := checkEncodable(concrete); err != nil {
		return nil, &Error{Op: "marshal", Type: concrete.Type().String(), Err: err}
	}
	register(concrete.Interface())

	box := concrete.Interface()
	var buf bytes.Buffer
	buf.Write([]byte{magic, version, byte(kindGobIface)})
	if err := gob.NewEncoder(&buf).Encode(&box); err != nil {
		return nil, &Error{Op: "marshal", Type: concrete.Type().String(), Err: err}
	}
	return buf.Bytes(), nil
}

// register makes v's concrete type known to gob under its default name. A
// type the caller already registered under another name makes gob panic;
// that registration stays in effect and the panic is dropped.
func register(v any) {
	defer func() { _ = recover() }()
	gob.Register(v)
}

func marshalProto(m proto.Message) ([]byte, error) {
	a, err := anypb.New(m)
	if err != nil {
		return nil, &Error{Op: "marshal", Type: typeName(m), Err: err}
	}
	b, err := proto.Marshal(a)
	if err != nil {
		return nil, &Error{Op: "marshal", Type: typeName(m), Err: err}
	}
	return frame(kindProto, b), nil
}

// Unmarshal decodes an envelope produced by Marshal into target.
func (Tagged) Unmarshal(data []byte, target any) error {
	rv := reflect.ValueOf(target)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &Error{Op: "unmarshal", Type: typeName(target), Err: errors.New("target must be a non-nil pointer")}
	}
	k, payload, err := unframe(data)
	if err != nil {
		return &Error{Op: "unmarshal", Type: typeName(target), Err: err}
	}

	switch k {
	case kindString:
		return assign(rv, reflect.ValueOf(string(payload)), target)
	case kindBytes:
		return assign(rv, reflect.ValueOf(bytes.Clone(payload)), target)
	case kindProto:
		return unmarshalProto(rv, payload, target)
	case kindGob:
		if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(target); err != nil {
			return &Error{Op: "unmarshal", Type: typeName(target), Err: err}
		}
		return nil
	case kindGobIface:
		var box any
		if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&box); err != nil {
			return &Error{Op: "unmarshal", Type: typeName(target), Err: err}
		}
		if box == nil {
			return &Error{Op: "unmarshal", Type: typeName(target), Err: errors.New("nil interface value")}
		}
		return assign(rv, reflect.ValueOf(box), target)
	}
	return &Error{Op: "unmarshal", Type: typeName(target), Err: fmt.Errorf("unknown kind %s", k)}
}

// DecodeAny decodes data without a typed target. Strings, byte slices,
// protobuf messages (looked up in the global protobuf registry) and interface
// values of registered gob types are supported; plain gob payloads need a
// typed target.
func DecodeAny(data []byte) (any, error) {
	k, payload, err := unframe(data)
	if err != nil {
		return nil, &Error{Op: "unmarshal", Type: "any", Err: err}
	}
	switch k {
	case kindString:
		return string(payload), nil
	case kindBytes:
		return bytes.Clone(payload), nil
	case kindProto:
		a := &anypb.Any{}
		if err := proto.Unmarshal(payload, a); err != nil {
			return nil, &Error{Op: "unmarshal", Type: "any", Err: err}
		}
		m, err := a.UnmarshalNew()
		if err != nil {
			return nil, &Error{Op: "unmarshal", Type: a.GetTypeUrl(), Err: err}
		}
		return m, nil
	case kindGobIface:
		var box any
		if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&box); err != nil {
			return nil, &Error{Op: "unmarshal", Type: "any", Err: err}
		}
		return box, nil
	}
	return nil, &Error{Op: "unmarshal", Type: "any", Err: fmt.Errorf("%s payload requires a typed target", k)}
}

// Encode is a convenience wrapper around c.Marshal.
func Encode[T any](c Codec, v T) ([]byte, error) {
	return c.Marshal(v)
}

// Decode unmarshals data into a freshly allocated T.
func Decode[T any](c Codec, data []byte) (T, error) {
	var out T
	err := c.Unmarshal(data, &out)
	return out, err
}

func frame(k kind, payload []byte) []byte {
	out := make([]byte, 0, 3+len(payload))
	out = append(out, magic, version, byte(k))
	return append(out, payload...)
}

func unframe(data []byte) (kind, []byte, error) {
	if len(data) < 3 {
		return 0, nil, errors.New("short envelope")
	}
	if data[0] != magic {
		return 0, nil, fmt.Errorf("bad magic byte 0x%02x", data[0])
	}
	if data[1] != version {
		return 0, nil, fmt.Errorf("unsupported envelope version %d", data[1])
	}
	return kind(data[2]), data[3:], nil
}

// assign stores v into the pointer rv, accepting *T and *any targets.
func assign(rv, v reflect.Value, target any) error {
	elem := rv.Elem()
	if !v.Type().AssignableTo(elem.Type()) {
		return &Error{Op: "unmarshal", Type: typeName(target), Err: fmt.Errorf("stored %s does not fit target", v.Type())}
	}
	elem.Set(v)
	return nil
}

var protoMessageType = reflect.TypeFor[proto.Message]()

func unmarshalProto(rv reflect.Value, payload []byte, target any) error {
	a := &anypb.Any{}
	if err := proto.Unmarshal(payload, a); err != nil {
		return &Error{Op: "unmarshal", Type: typeName(target), Err: err}
	}

	// *Msg target.
	if m, ok := target.(proto.Message); ok {
		if err := a.UnmarshalTo(m); err != nil {
			return &Error{Op: "unmarshal", Type: typeName(target), Err: err}
		}
		return nil
	}

	elem := rv.Elem()
	switch {
	case elem.Kind() == reflect.Pointer && elem.Type().Implements(protoMessageType):
		// **Msg target, as produced by Decode[*Msg].
		m := reflect.New(elem.Type().Elem())
		if err := a.UnmarshalTo(m.Interface().(proto.Message)); err != nil {
			return &Error{Op: "unmarshal", Type: typeName(target), Err: err}
		}
		elem.Set(m)
		return nil
	case elem.Kind() == reflect.Interface:
		m, err := a.UnmarshalNew()
		if err != nil {
			return &Error{Op: "unmarshal", Type: typeName(target), Err: err}
		}
		return assign(rv, reflect.ValueOf(m), target)
	}
	return &Error{Op: "unmarshal", Type: typeName(target), Err: fmt.Errorf("stored %s does not fit target", a.GetTypeUrl())}
}

var (
	gobEncoderType    = reflect.TypeFor[gob.GobEncoder]()
	binaryMarshalType = reflect.TypeFor[encoding.BinaryMarshaler]()
)

// checkEncodable rejects values gob would encode lossily or not at all:
// channels, functions, unsafe pointers and structs with unexported fields,
// at any depth. Interface values are checked through their dynamic value.
func checkEncodable(v reflect.Value) error {
	w := walker{shape: map[reflect.Type]shape{}}
	return w.value(v, v.Type().String())
}

// shape is the cached result of checking a type statically.
type shape struct {
	err error
	// dynamic is set when the type reaches an interface, whose contents can
	// only be checked on a value.
	dynamic bool
}

type walker struct {
	shape map[reflect.Type]shape
}

func selfEncoding(t reflect.Type) bool {
	return t.Implements(gobEncoderType) || t.Implements(binaryMarshalType) ||
		reflect.PointerTo(t).Implements(gobEncoderType) || reflect.PointerTo(t).Implements(binaryMarshalType)
}

// typ checks t without a value. Types on the current path are skipped, so
// recursive types terminate.
func (w *walker) typ(t reflect.Type, path string, onPath map[reflect.Type]bool) shape {
	if sh, ok := w.shape[t]; ok {
		return sh
	}
	if onPath[t] || selfEncoding(t) {
		return shape{}
	}
	onPath[t] = true
	defer delete(onPath, t)

	var sh shape
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		sh.err = fmt.Errorf("%s: unsupported kind %s", path, t.Kind())
	case reflect.Interface:
		sh.dynamic = true
	case reflect.Pointer, reflect.Slice, reflect.Array:
		sh = w.typ(t.Elem(), path+"[]", onPath)
	case reflect.Map:
		if sh = w.typ(t.Key(), path+"{key}", onPath); sh.err == nil {
			elem := w.typ(t.Elem(), path+"{}", onPath)
			sh = shape{err: elem.err, dynamic: sh.dynamic || elem.dynamic}
		}
	case reflect.Struct:
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				sh = shape{err: fmt.Errorf("%s.%s: unexported field", path, f.Name)}
				break
			}
			fs := w.typ(f.Type, path+"."+f.Name, onPath)
			if fs.err != nil {
				sh = fs
				break
			}
			sh.dynamic = sh.dynamic || fs.dynamic
		}
	}
	if len(onPath) == 1 || sh.err != nil {
		w.shape[t] = sh
	}
	return sh
}

// value checks v, descending into the parts of it that hold interfaces.
func (w *walker) value(v reflect.Value, path string) error {
	t := v.Type()
	sh := w.typ(t, path, map[reflect.Type]bool{})
	if sh.err != nil {
		return sh.err
	}
	if !sh.dynamic {
		return nil
	}
	switch t.Kind() {
	case reflect.Interface, reflect.Pointer:
		if !v.IsNil() {
			return w.value(v.Elem(), path)
		}
	case reflect.Slice, reflect.Array:
		for i := range v.Len() {
			if err := w.value(v.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		it := v.MapRange()
		for it.Next() {
			if err := w.value(it.Key(), path+"{key}"); err != nil {
				return err
			}
			if err := w.value(it.Value(), fmt.Sprintf("%s{%v}", path, it.Key())); err != nil {
				return err
			}
		}
	case reflect.Struct:
		for i := range t.NumField() {
			if err := w.value(v.Field(i), path+"."+t.Field(i).Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
