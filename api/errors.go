package api

import "errors"

// ErrServiceRequired is returned when the server is constructed without a service.
var ErrServiceRequired = errors.New("service required")
