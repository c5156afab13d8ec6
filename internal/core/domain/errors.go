package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUpstream      = errors.New("upstream service error")
	ErrRateLimited   = errors.New("rate limited")
	ErrNotConfigured = errors.New("not configured")
)
