package digest

import "errors"

var (
	ErrNonFiniteNumber = errors.New("non-finite numbers cannot be encoded")
	ErrInvalidNumber   = errors.New("invalid json number")
	ErrNonStringMapKey = errors.New("map keys must be strings")
	ErrUnsupportedType = errors.New("unsupported type for canonicalization")
	ErrKeyCollision    = errors.New("normalized map key collision")
)
