package booking

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/mbltya/cinebook/entities"
	"github.com/mbltya/cinebook/logger"
)

// TicketLister fetches the tickets the booked set is derived from.
type TicketLister interface {
	SessionTickets(ctx context.Context, sessionID int64) ([]entities.Ticket, error)
}

// Sync rebuilds the booked set from the backend. Only CONFIRMED and
// PENDING tickets occupy seats; cancelled ones free them again.
type Sync struct {
	api TicketLister
	log logger.Logger
}

func NewSync(api TicketLister, log logger.Logger) *Sync {
	return &Sync{api: api, log: log}
}

// Refresh fetches the authoritative booked set for one session.
func (s *Sync) Refresh(ctx context.Context, sessionID int64) (mapset.Set[SeatKey], error) {
	tickets, err := s.api.SessionTickets(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	booked := mapset.NewSet[SeatKey]()
	for _, t := range tickets {
		if t.Status.Occupying() {
			booked.Add(SeatKey{Row: t.RowNumber, Number: t.SeatNumber})
		}
	}
	return booked, nil
}

// RefreshInto merges a fresh booked set into the seat map and returns the
// seats the user lost to other actors. A fetch failure leaves the map
// stale but usable: the error is logged, never surfaced, and the second
// return value reports whether the merge happened.
func (s *Sync) RefreshInto(ctx context.Context, m *SeatMap) ([]SeatKey, bool) {
	booked, err := s.Refresh(ctx, m.SessionID())
	if err != nil {
		s.log.Warn("availability refresh failed, keeping stale booked set",
			"session_id", m.SessionID(),
			"error", err,
		)
		return nil, false
	}
	lost := m.ApplyBookedSet(booked)
	if len(lost) > 0 {
		s.log.Info("seats lost to other bookings", "session_id", m.SessionID(), "lost", len(lost))
	}
	return lost, true
}
