package pipeline

import "errors"

var (
	// ErrRateLimited means the client exceeded its request window. It is
	// reported to the caller distinctly from generation failures and is
	// never fatal to the process.
	ErrRateLimited = errors.New("too many requests")

	// ErrEmptyQuery means there was nothing to answer.
	ErrEmptyQuery = errors.New("query is required")
)
