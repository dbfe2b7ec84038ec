package utils

import "errors"

var (
	ErrNotFound         = errors.New("record not found")
	ErrConflict         = errors.New("conflicting state")
	ErrValidation       = errors.New("invalid input")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrGateway          = errors.New("payment gateway error")
	ErrDatabaseError    = errors.New("database error")
)
