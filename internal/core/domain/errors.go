package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrCheckoutTooLong = errors.New("checkout link too long")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidItem     = errors.New("invalid item")
	ErrUnknownKind     = errors.New("unknown item kind")
	ErrInvalidCartID   = errors.New("invalid cart id")
)
