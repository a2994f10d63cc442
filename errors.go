package rawrcache

import (
	"errors"

	"github.com/Keksclan/rawrcache/cache"
	"github.com/Keksclan/rawrcache/codec"
	"github.com/Keksclan/rawrcache/keytmpl"
)

var (
	// ErrMissingKey is returned when a call has no key template. It is a
	// misconfiguration and is reported before the store is touched.
	ErrMissingKey = errors.New("rawrcache: missing key template")

	// ErrNilCompute is returned when Do is called without a computation.
	ErrNilCompute = errors.New("rawrcache: nil compute function")

	// ErrMissingParameter matches key templates that reference an unbound
	// parameter. See keytmpl.MissingParameterError.
	ErrMissingParameter = keytmpl.ErrMissingParameter

	// ErrSerialization matches values that cannot be encoded or decoded.
	ErrSerialization = codec.ErrSerialization

	// ErrStoreUnavailable matches store failures. Do never returns it; Evict
	// does.
	ErrStoreUnavailable = cache.ErrUnavailable
)
