package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mbltya/cinebook/entities"
	"github.com/mbltya/cinebook/logger"
)

type mockTicketLister struct {
	tickets []entities.Ticket
	err     error
	calls   int
}

func (m *mockTicketLister) SessionTickets(ctx context.Context, sessionID int64) ([]entities.Ticket, error) {
	m.calls++
	return m.tickets, m.err
}

func TestRefreshOnlyOccupyingTickets(t *testing.T) {
	t.Parallel()
	api := &mockTicketLister{tickets: []entities.Ticket{
		{RowNumber: 1, SeatNumber: 1, Status: entities.TicketConfirmed},
		{RowNumber: 1, SeatNumber: 2, Status: entities.TicketPending},
		{RowNumber: 1, SeatNumber: 3, Status: entities.TicketCancelled},
	}}
	s := NewSync(api, logger.NewNop())

	booked, err := s.Refresh(context.Background(), 42)

	assert.NoError(t, err)
	assert.Equal(t, 2, booked.Cardinality())
	assert.True(t, booked.Contains(SeatKey{Row: 1, Number: 1}))
	assert.True(t, booked.Contains(SeatKey{Row: 1, Number: 2}))
	assert.False(t, booked.Contains(SeatKey{Row: 1, Number: 3}))
}

func TestRefreshEmptySession(t *testing.T) {
	t.Parallel()
	s := NewSync(&mockTicketLister{}, logger.NewNop())

	booked, err := s.Refresh(context.Background(), 42)
	assert.NoError(t, err)
	assert.Equal(t, 0, booked.Cardinality())
}

func TestRefreshIntoKeepsStaleOnFailure(t *testing.T) {
	t.Parallel()
	m, err := NewSeatMap(42, 5, 5, &mockProber{available: true}, logger.NewNop())
	assert.NoError(t, err)
	m.ApplyBookedSet(BookedSetFromKeys(SeatKey{Row: 1, Number: 1}))

	s := NewSync(&mockTicketLister{err: assert.AnError}, logger.NewNop())
	lost, refreshed := s.RefreshInto(context.Background(), m)

	assert.False(t, refreshed)
	assert.Empty(t, lost)
	// The stale booked set survives the failed fetch
	assert.Equal(t, SeatBooked, m.StatusAt(SeatKey{Row: 1, Number: 1}))
}

func TestRefreshIntoReportsLostSeats(t *testing.T) {
	t.Parallel()
	m, err := NewSeatMap(42, 5, 5, &mockProber{available: true}, logger.NewNop())
	assert.NoError(t, err)
	assert.NoError(t, m.ToggleSeat(context.Background(), SeatKey{Row: 2, Number: 3}))

	api := &mockTicketLister{tickets: []entities.Ticket{
		{RowNumber: 2, SeatNumber: 3, Status: entities.TicketConfirmed},
	}}
	s := NewSync(api, logger.NewNop())

	lost, refreshed := s.RefreshInto(context.Background(), m)

	assert.True(t, refreshed)
	assert.Equal(t, []SeatKey{{Row: 2, Number: 3}}, lost)
	assert.Equal(t, SeatBooked, m.StatusAt(SeatKey{Row: 2, Number: 3}))
	assert.Equal(t, 0, m.SelectionSize())
}
