package fuzzy

import "errors"

// ErrUnknownMetric is returned by ParseMetric for unrecognized names.
var ErrUnknownMetric = errors.New("unknown similarity metric")
