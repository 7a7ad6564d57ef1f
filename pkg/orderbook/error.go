package orderbook

import "errors"

var (
	errNilManagerConfig    = errors.New("nil manager config")
	errNilProtectionConfig = errors.New("nil entry protection config")
	errInvalidFeeRate      = errors.New("fee rate must be in [0, 1)")
)
