package service

import "errors"

// 写路径上的业务错误，controller 按 errors.Is 映射 HTTP 状态码
var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrAttributeNotFound = errors.New("attribute not found")
	ErrOptionNotFound    = errors.New("option not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrOrderNotFound     = errors.New("order not found")

	ErrInvalidOption = errors.New("option does not belong to attribute")
	ErrInvalidValue  = errors.New("invalid attribute value")

	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrOrderAlreadyPaid      = errors.New("order already paid")
	ErrRateSourceUnavailable = errors.New("rate source unavailable")
)
