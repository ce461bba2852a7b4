package replay

import "errors"

// ErrBadRecord is returned for a recording line that cannot be decoded.
var ErrBadRecord = errors.New("replay: bad record")
