package booking

import "errors"

var (
	ErrInvalidGrid     = errors.New("hall grid dimensions must be positive")
	ErrSeatOutOfRange  = errors.New("seat outside hall grid")
	ErrSeatBooked      = errors.New("seat already booked")
	ErrSeatUnavailable = errors.New("seat is not available right now")
	ErrProbeInFlight   = errors.New("another seat check is in progress")
	ErrEmptySelection  = errors.New("no seats selected")
	ErrCommitInFlight  = errors.New("booking already in progress")
)
