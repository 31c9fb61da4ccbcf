package clob

import "errors"

// ErrOrderNotFound is the sole book invariant-violation error removal can
// raise; matching itself never fails (§4.3).
var ErrOrderNotFound = errors.New("clob: order not found")
