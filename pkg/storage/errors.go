package storage

import "errors"

var (
	ErrInvalidType     = errors.New("stored value has unexpected type")
	ErrUnsupportedType = errors.New("unsupported storage type")
)
