package booking

import (
	"context"
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/mbltya/cinebook/logger"
)

// AvailabilityProber is the live seat check behind every select click.
// client.BookingClient satisfies it.
type AvailabilityProber interface {
	CheckSeat(ctx context.Context, sessionID int64, row, seat int) (bool, error)
}

// SeatMap owns the client-side view of one hall's seat grid for one
// session. Every state change goes through an explicit transition method,
// so the whole machine is testable without any rendering environment.
//
// Two sets drive the transitions: the booked set, authoritative and only
// ever replaced wholesale by the availability sync, and the selection,
// which keeps insertion order because the commit sequencer issues requests
// in the order seats were picked.
type SeatMap struct {
	mu          sync.Mutex
	sessionID   int64
	rows        int
	seatsPerRow int
	status      map[SeatKey]SeatStatus
	selection   []SeatKey
	selected    mapset.Set[SeatKey]
	booked      mapset.Set[SeatKey]
	probing     bool
	prober      AvailabilityProber
	log         logger.Logger
}

// NewSeatMap builds an all-available R×S grid. Non-positive dimensions are
// a configuration error surfaced to the caller, never silently defaulted.
func NewSeatMap(sessionID int64, rows, seatsPerRow int, prober AvailabilityProber, log logger.Logger) (*SeatMap, error) {
	if rows <= 0 || seatsPerRow <= 0 {
		return nil, fmt.Errorf("%w: rows=%d seatsPerRow=%d", ErrInvalidGrid, rows, seatsPerRow)
	}
	status := make(map[SeatKey]SeatStatus, rows*seatsPerRow)
	for row := 1; row <= rows; row++ {
		for seat := 1; seat <= seatsPerRow; seat++ {
			status[SeatKey{Row: row, Number: seat}] = SeatAvailable
		}
	}
	return &SeatMap{
		sessionID:   sessionID,
		rows:        rows,
		seatsPerRow: seatsPerRow,
		status:      status,
		selected:    mapset.NewSet[SeatKey](),
		booked:      mapset.NewSet[SeatKey](),
		prober:      prober,
		log:         log,
	}, nil
}

// ToggleSeat mediates one seat click.
//
// Booked seats reject without touching state. Selected seats deselect
// synchronously. Anything else runs the availability probe and selects
// only on an explicit true; every probe failure fails closed, because an
// unverifiable seat must never reach a booking attempt.
//
// While one probe is outstanding the whole grid is locked: the probe
// answers with a bare boolean that cannot be attributed to a seat, so a
// second click mid-probe returns ErrProbeInFlight instead of racing.
func (m *SeatMap) ToggleSeat(ctx context.Context, key SeatKey) error {
	m.mu.Lock()
	if m.probing {
		m.mu.Unlock()
		return ErrProbeInFlight
	}
	if key.Row < 1 || key.Row > m.rows || key.Number < 1 || key.Number > m.seatsPerRow {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s in %dx%d hall", ErrSeatOutOfRange, key, m.rows, m.seatsPerRow)
	}
	if m.booked.Contains(key) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSeatBooked, key)
	}
	if m.selected.Contains(key) {
		m.deselect(key)
		m.mu.Unlock()
		return nil
	}
	m.probing = true
	m.mu.Unlock()

	available, err := m.prober.CheckSeat(ctx, m.sessionID, key.Row, key.Number)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.probing = false
	if err != nil {
		return fmt.Errorf("seat %s check failed: %w", key, err)
	}
	if !available {
		return fmt.Errorf("%w: %s", ErrSeatUnavailable, key)
	}
	// The booked set may have been replaced while the probe was in flight.
	if m.booked.Contains(key) {
		return fmt.Errorf("%w: %s", ErrSeatBooked, key)
	}
	m.selection = append(m.selection, key)
	m.selected.Add(key)
	m.status[key] = SeatSelected
	return nil
}

// ClearSelection resets every selected seat back to available.
func (m *SeatMap) ClearSelection() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range m.selection {
		m.status[key] = SeatAvailable
	}
	m.selection = nil
	m.selected.Clear()
}

// ApplyBookedSet replaces the booked set wholesale. Seats newly booked are
// reclassified booked whatever they were before; a selected seat taken by
// another actor is silently dropped from the selection and returned as a
// lost seat so an in-flight commit can account for it.
func (m *SeatMap) ApplyBookedSet(newBooked mapset.Set[SeatKey]) []SeatKey {
	m.mu.Lock()
	defer m.mu.Unlock()

	var lost []SeatKey
	kept := m.selection[:0]
	for _, key := range m.selection {
		if newBooked.Contains(key) {
			lost = append(lost, key)
			m.selected.Remove(key)
		} else {
			kept = append(kept, key)
		}
	}
	m.selection = kept

	for key, st := range m.status {
		switch {
		case newBooked.Contains(key):
			m.status[key] = SeatBooked
		case st == SeatBooked:
			// Booked before, absent now: a cancellation freed it.
			m.status[key] = SeatAvailable
		}
	}
	m.booked = newBooked.Clone()
	return lost
}

func (m *SeatMap) deselect(key SeatKey) {
	for i, k := range m.selection {
		if k == key {
			m.selection = append(m.selection[:i], m.selection[i+1:]...)
			break
		}
	}
	m.selected.Remove(key)
	m.status[key] = SeatAvailable
}

// Selection returns the chosen seats in click order.
func (m *SeatMap) Selection() []SeatKey {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SeatKey, len(m.selection))
	copy(out, m.selection)
	return out
}

func (m *SeatMap) SelectionSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.selection)
}

func (m *SeatMap) StatusAt(key SeatKey) SeatStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.status[key]
	if !ok {
		return SeatUnavailable
	}
	return st
}

func (m *SeatMap) Rows() int        { return m.rows }
func (m *SeatMap) SeatsPerRow() int { return m.seatsPerRow }
func (m *SeatMap) SessionID() int64 { return m.sessionID }

// SeatCount returns the grid size; always rows × seatsPerRow.
func (m *SeatMap) SeatCount() int {
	return m.rows * m.seatsPerRow
}

func (m *SeatMap) BookedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.booked.Cardinality()
}
