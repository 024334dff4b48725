package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mbltya/cinebook/apierror"
	"github.com/mbltya/cinebook/entities"
	"github.com/mbltya/cinebook/logger"
	"github.com/mbltya/cinebook/persistence"
)

// TicketCreator is the single backend call the sequencer depends on.
type TicketCreator interface {
	CreateTicket(ctx context.Context, req entities.CreateTicketRequest) (*entities.Ticket, error)
}

// Sequencer turns a frozen selection snapshot into tickets, one request
// per seat. The backend has no batch or transactional endpoint, so the
// calls run strictly sequentially and abort on the first failure: that
// bounds how many seats are wrongly claimed when a conflict hits partway
// through.
type Sequencer struct {
	api     TicketCreator
	journal persistence.Persistence
	log     logger.Logger
}

func NewSequencer(api TicketCreator, journal persistence.Persistence, log logger.Logger) *Sequencer {
	return &Sequencer{api: api, journal: journal, log: log}
}

type CommitInput struct {
	UserID       int64
	SessionID    int64
	Seats        []SeatKey
	PricePerSeat float64
	// MovieTitle and CinemaName only decorate journal entries.
	MovieTitle string
	CinemaName string
}

// CommitResult reports exactly what happened, including partial success:
// tickets already created server-side stay created when a later seat
// fails, and the caller must be able to tell the user so.
type CommitResult struct {
	Committed   []entities.Ticket
	Unconfirmed []SeatKey
	// ConflictSeat is set when the abort was a seat conflict.
	ConflictSeat *SeatKey
	TotalPrice   float64
}

// Partial reports whether some but not all seats were committed.
func (r *CommitResult) Partial() bool {
	return len(r.Committed) > 0 && len(r.Unconfirmed) > 0
}

// Commit drains the snapshot in insertion order. The returned result is
// never nil: on failure it carries the committed prefix and the seats that
// remain unconfirmed. There are no retries and no compensation of already
// created tickets; the caller decides how to present a partial booking.
func (s *Sequencer) Commit(ctx context.Context, in CommitInput) (*CommitResult, error) {
	result := &CommitResult{}
	if len(in.Seats) == 0 {
		return result, ErrEmptySelection
	}
	if in.UserID == 0 {
		return result, fmt.Errorf("commit requires an authenticated user: %w", apierror.ErrUnauthenticated)
	}

	for i, seat := range in.Seats {
		ticket, err := s.api.CreateTicket(ctx, entities.CreateTicketRequest{
			UserID:     in.UserID,
			SessionID:  in.SessionID,
			RowNumber:  seat.Row,
			SeatNumber: seat.Number,
			RequestID:  uuid.NewString(),
		})
		if err != nil {
			result.Unconfirmed = in.Seats[i:]
			result.TotalPrice = in.PricePerSeat * float64(len(result.Committed))
			if errors.Is(err, apierror.ErrSeatConflict) {
				conflict := seat
				result.ConflictSeat = &conflict
				s.log.Warn("commit aborted on seat conflict",
					"session_id", in.SessionID,
					"seat", seat.String(),
					"committed", len(result.Committed),
				)
				return result, fmt.Errorf("seat %s was booked by someone else: %w", seat, err)
			}
			s.log.Error("commit aborted",
				"session_id", in.SessionID,
				"seat", seat.String(),
				"committed", len(result.Committed),
				"error", err,
			)
			return result, fmt.Errorf("booking failed at seat %s: %w", seat, err)
		}

		result.Committed = append(result.Committed, *ticket)
		s.journalTicket(ctx, in, ticket)
	}

	result.TotalPrice = in.PricePerSeat * float64(len(result.Committed))
	s.log.Info("commit completed",
		"session_id", in.SessionID,
		"tickets", len(result.Committed),
		"total_price", result.TotalPrice,
	)
	return result, nil
}

// journalTicket is best-effort: a journal failure must never undo or
// block a booking the backend already accepted.
func (s *Sequencer) journalTicket(ctx context.Context, in CommitInput, ticket *entities.Ticket) {
	if s.journal == nil {
		return
	}
	err := s.journal.WriteRecord(ctx, entities.BookingRecord{
		Kind:       "ticket",
		SessionID:  in.SessionID,
		MovieTitle: in.MovieTitle,
		CinemaName: in.CinemaName,
		TicketID:   ticket.ID,
		RowNumber:  ticket.RowNumber,
		SeatNumber: ticket.SeatNumber,
		LoggedAt:   time.Now(),
	})
	if err != nil {
		s.log.Warn("failed to journal ticket", "ticket_id", ticket.ID, "error", err)
	}
}
