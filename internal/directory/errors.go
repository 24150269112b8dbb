package directory

import "errors"

// ErrProviderNotFound is returned when the catalog has no provider with the given id.
var ErrProviderNotFound = errors.New("provider not found")
