package domain

import "errors"

// Domain errors
var (
	ErrRecordNotFound = errors.New("thesis record not found")
	ErrStoreBusy      = errors.New("store is busy")
)
