package datasource

import "errors"

// ErrSourceClosed indicates a subscription attempt on a closed source.
var ErrSourceClosed = errors.New("data source closed")
