package entities

import "time"

type Cinema struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	City string `json:"city,omitempty"`
}

type Movie struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// SessionSummary is a session decorated with hall geometry and live
// occupancy, produced by the browse fan-out.
type SessionSummary struct {
	Session     Session `json:"session"`
	Rows        int     `json:"rows"`
	SeatsPerRow int     `json:"seatsPerRow"`
	TotalSeats  int     `json:"totalSeats"`
	BookedSeats int     `json:"bookedSeats"`
}

// SeatsLeft is TotalSeats minus BookedSeats, floored at zero for backends
// that report more occupying tickets than the hall holds.
func (s SessionSummary) SeatsLeft() int {
	left := s.TotalSeats - s.BookedSeats
	if left < 0 {
		return 0
	}
	return left
}

// WatchItem is one occupancy sample taken after a session starts.
type WatchItem struct {
	Session     Session   `json:"session"`
	BookedSeats int       `json:"bookedSeats"`
	TotalSeats  int       `json:"totalSeats"`
	SampledAt   time.Time `json:"sampledAt"`
}
