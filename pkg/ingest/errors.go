package ingest

import "errors"

// ErrSourceNotConnected is returned when sending to an unknown source.
var ErrSourceNotConnected = errors.New("ingest: source not connected")
