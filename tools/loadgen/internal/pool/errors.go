package pool

import "errors"

// ErrPoolClosed is returned by every pool operation once Close has been
// called. Misses are not errors; lookups report them as a nil value.
var ErrPoolClosed = errors.New("parameter pool is closed")
