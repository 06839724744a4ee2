// errors/request_errors.go

package errors

import "errors"

var (
	ErrRequestNotFound    = errors.New("request not found")
	ErrRequestConflict    = errors.New("request conflict")
	ErrInvalidRequestData = errors.New("invalid request data")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrRequestNotEditable = errors.New("request is not editable")
)
