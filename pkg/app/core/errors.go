package core

import "errors"

var (
	// ErrInvalidAmount is returned for trade amounts that are not finite and positive.
	// It marks a malformed request, not a business rejection.
	ErrInvalidAmount = errors.New("trade amount must be a positive finite number")

	ErrNegativeQuantity = errors.New("negative quantity")
	ErrReserveBreached  = errors.New("village wheat below reserve")
	ErrPriceOutOfBounds = errors.New("price out of bounds")
)
