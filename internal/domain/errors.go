package domain

import "errors"

var (
	ErrEmptyPrompt      = errors.New("prompt is empty")
	ErrInvalidSettings  = errors.New("invalid settings")
	ErrInvalidImage     = errors.New("invalid source image")
	ErrTooManyImages    = errors.New("too many source images")
	ErrJobNotFound      = errors.New("job not found")
	ErrJobNotRetryable  = errors.New("job is not in a failed state")
	ErrResultNotFound   = errors.New("result not found")
	ErrSchedulerStopped = errors.New("scheduler stopped")
)
