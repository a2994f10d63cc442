package interceptors

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/Keksclan/rawrcache"
)

// Key template parameters always available to method policies.
const (
	ParamMethod  = "method"
	ParamRequest = "request"
)

// requestParams derives key template parameters from a request: the full
// method name, a digest of the deterministic encoding of the whole request,
// and every populated top-level scalar field under its proto name. Fields
// named like ParamMethod or ParamRequest are shadowed by them.
func requestParams(fullMethod string, req proto.Message) (rawrcache.Params, error) {
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(req)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(b)

	params := rawrcache.Params{}
	m := req.ProtoReflect()
	// Unset scalars read as their zero value so templates naming them still
	// expand.
	fields := m.Descriptor().Fields()
	for i := range fields.Len() {
		fd := fields.Get(i)
		if s, ok := scalar(fd, m.Get(fd)); ok {
			params[string(fd.Name())] = s
		}
	}
	params[ParamMethod] = fullMethod
	params[ParamRequest] = hex.EncodeToString(sum[:])
	return params, nil
}

func scalar(fd protoreflect.FieldDescriptor, v protoreflect.Value) (string, bool) {
	if fd.IsList() || fd.IsMap() {
		return "", false
	}
	switch fd.Kind() {
	case protoreflect.StringKind:
		return v.String(), true
	case protoreflect.BoolKind:
		return strconv.FormatBool(v.Bool()), true
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return strconv.FormatInt(v.Int(), 10), true
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return strconv.FormatUint(v.Uint(), 10), true
	case protoreflect.FloatKind:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32), true
	case protoreflect.DoubleKind:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), true
	case protoreflect.EnumKind:
		if ev := fd.Enum().Values().ByNumber(v.Enum()); ev != nil {
			return string(ev.Name()), true
		}
		return strconv.Itoa(int(v.Enum())), true
	case protoreflect.BytesKind:
		return hex.EncodeToString(v.Bytes()), true
	}
	return "", false
}
