package model

import "errors"

// Sentinel kinds shared by the service and its transports.
var (
	ErrInvalidAnswers = errors.New("invalid quiz answers")
	ErrInvalidClick   = errors.New("invalid click")
	ErrBackpressure   = errors.New("click queue is full")
	ErrNotStarted     = errors.New("ingestion not started")
)
