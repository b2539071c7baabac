package domain

import "errors"

var (
	ErrProductNotFound       = errors.New("product not found")
	ErrStockNotFound         = errors.New("stock record not found")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrStaleHold             = errors.New("stale hold")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrOrderIDRequired       = errors.New("order id required")
	ErrOrganizationRequired  = errors.New("organization id required")
	ErrIdentifierRequired    = errors.New("product identifier required")
	ErrTitleRequired         = errors.New("title required")
	ErrProductAlreadyExists  = errors.New("product already exists")
	ErrReservedExceedsAmount = errors.New("reserved exceeds amount")
	ErrInvalidID             = errors.New("invalid id")
)
