// errors/resource_errors.go

package errors

import "errors"

var (
	ErrResourceNotFound    = errors.New("resource not found")
	ErrResourceConflict    = errors.New("resource conflict")
	ErrInvalidResourceData = errors.New("invalid resource data")
	ErrInvalidUsageData    = errors.New("invalid usage data")
	ErrInsufficientStock   = errors.New("insufficient stock")
)
