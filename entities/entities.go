package entities

import (
	"time"
)

// Session is one screening as reported by GET /api/sessions/{id}.
type Session struct {
	ID         int64   `json:"id"`
	MovieTitle string  `json:"movieTitle"`
	CinemaName string  `json:"cinemaName"`
	HallID     int64   `json:"hallId"`
	HallName   string  `json:"hallName"`
	StartTime  string  `json:"startTime"`
	Price      float64 `json:"price"`
}

// Hall carries the seat geometry used to build the seat grid.
type Hall struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Rows        int    `json:"rows"`
	SeatsPerRow int    `json:"seatsPerRow"`
}

type TicketStatus string

const (
	TicketConfirmed TicketStatus = "CONFIRMED"
	TicketPending   TicketStatus = "PENDING"
	TicketCancelled TicketStatus = "CANCELLED"
)

// Occupying reports whether a ticket in this status blocks its seat.
func (s TicketStatus) Occupying() bool {
	return s == TicketConfirmed || s == TicketPending
}

type Ticket struct {
	ID         int64        `json:"id"`
	UserID     int64        `json:"userId"`
	SessionID  int64        `json:"sessionId"`
	RowNumber  int          `json:"rowNumber"`
	SeatNumber int          `json:"seatNumber"`
	Status     TicketStatus `json:"status"`
	Price      float64      `json:"price"`
	CreatedAt  string       `json:"createdAt,omitempty"`
}

// CreateTicketRequest is the body of POST /api/tickets. RequestID is a
// client-generated idempotency key; backends that ignore it are unaffected.
type CreateTicketRequest struct {
	UserID     int64  `json:"userId"`
	SessionID  int64  `json:"sessionId"`
	RowNumber  int    `json:"rowNumber"`
	SeatNumber int    `json:"seatNumber"`
	RequestID  string `json:"requestId,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// BookingRecord is one journal entry: a committed ticket, a cancellation,
// or an occupancy sample taken by the watch command.
type BookingRecord struct {
	Kind        string    `json:"kind"` // "ticket", "cancel" or "occupancy"
	SessionID   int64     `json:"sessionId"`
	MovieTitle  string    `json:"movieTitle,omitempty"`
	CinemaName  string    `json:"cinemaName,omitempty"`
	TicketID    int64     `json:"ticketId,omitempty"`
	RowNumber   int       `json:"rowNumber,omitempty"`
	SeatNumber  int       `json:"seatNumber,omitempty"`
	BookedSeats int       `json:"bookedSeats,omitempty"`
	TotalSeats  int       `json:"totalSeats,omitempty"`
	LoggedAt    time.Time `json:"loggedAt"`
}
