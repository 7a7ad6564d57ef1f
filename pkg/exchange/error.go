package exchange

import "errors"

var (
	errNilRequest  = errors.New("nil place request")
	errInvalidSide = errors.New("side must be BUY or SELL")
	errStopped     = errors.New("exchange stopped")
)
