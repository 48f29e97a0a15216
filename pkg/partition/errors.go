package partition

import "errors"

// ErrInvalidArity is returned when K <= 0.
var ErrInvalidArity = errors.New("partition: K must be at least 1")
