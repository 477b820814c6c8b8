package match

import "errors"

// ErrRatioRequired is returned when WithRatio is given a nil function.
var ErrRatioRequired = errors.New("ratio function required")
