package artifact

import "errors"

// ErrNotFound is returned when no artifact exists for a run / id pair.
var ErrNotFound = errors.New("artifact not found")
