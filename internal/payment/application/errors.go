package application

import "errors"

var (
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInvalidMethod     = errors.New("payment method invalid or inactive")
	ErrUnsupportedMethod = errors.New("payment method type not supported")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrMethodNotFound    = errors.New("payment method not found")
	ErrDuplicatePayment  = errors.New("payment id already exists")
)
