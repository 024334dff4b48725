package booking

import (
	"context"
	"fmt"
	"sync"

	"github.com/mbltya/cinebook/entities"
	"github.com/mbltya/cinebook/logger"
	"github.com/mbltya/cinebook/persistence"
)

// API is the slice of the backend surface one booking view consumes.
type API interface {
	AvailabilityProber
	TicketCreator
	TicketLister
}

// View is one booking-view instance: the seat map, the commit sequencer
// and the availability sync for a single session, owned together. Nothing
// is shared across views or processes; the hall's real inventory lives in
// the backend, and re-probing plus re-syncing is the only defense against
// races with other clients.
type View struct {
	mu         sync.Mutex
	session    entities.Session
	hall       entities.Hall
	user       entities.User
	seatMap    *SeatMap
	sequencer  *Sequencer
	sync       *Sync
	log        logger.Logger
	committing bool
}

// NewView builds the seat grid from the hall geometry and runs the mount
// refresh. A refresh failure at mount is tolerated: the view starts from
// an empty booked set and stays usable.
func NewView(ctx context.Context, api API, session entities.Session, hall entities.Hall, user entities.User, journal persistence.Persistence, log logger.Logger) (*View, error) {
	seatMap, err := NewSeatMap(session.ID, hall.Rows, hall.SeatsPerRow, api, log)
	if err != nil {
		return nil, fmt.Errorf("hall %d: %w", hall.ID, err)
	}
	v := &View{
		session:   session,
		hall:      hall,
		user:      user,
		seatMap:   seatMap,
		sequencer: NewSequencer(api, journal, log),
		sync:      NewSync(api, log),
		log:       log,
	}
	v.sync.RefreshInto(ctx, v.seatMap)
	return v, nil
}

func (v *View) SeatMap() *SeatMap {
	return v.seatMap
}

func (v *View) Session() entities.Session {
	return v.session
}

// Refresh is the explicit user-invoked availability refresh.
func (v *View) Refresh(ctx context.Context) []SeatKey {
	lost, _ := v.sync.RefreshInto(ctx, v.seatMap)
	return lost
}

func (v *View) Toggle(ctx context.Context, key SeatKey) error {
	return v.seatMap.ToggleSeat(ctx, key)
}

func (v *View) ClearSelection() {
	v.seatMap.ClearSelection()
}

// CommitOutcome extends the sequencer result with the seats dropped by the
// pre-commit reconciliation: seats another actor took between selection
// and confirmation are aborted individually, never silently booked.
type CommitOutcome struct {
	*CommitResult
	LostSeats []SeatKey
}

// Commit freezes the selection and drives it through the sequencer.
//
// The booked set can go stale between selection and confirmation, so the
// selection is reconciled against a fresh booked set first; lost seats
// leave the snapshot and are reported. On success the selection is
// cleared and the map refreshed; an aborted commit that still created
// tickets, or hit a seat conflict, also triggers a refresh so the grid
// shows the true backend state before a retry.
func (v *View) Commit(ctx context.Context) (*CommitOutcome, error) {
	v.mu.Lock()
	if v.committing {
		v.mu.Unlock()
		return nil, ErrCommitInFlight
	}
	v.committing = true
	v.mu.Unlock()
	defer func() {
		v.mu.Lock()
		v.committing = false
		v.mu.Unlock()
	}()

	lost, _ := v.sync.RefreshInto(ctx, v.seatMap)
	outcome := &CommitOutcome{LostSeats: lost}

	snapshot := v.seatMap.Selection()
	if len(snapshot) == 0 {
		outcome.CommitResult = &CommitResult{}
		if len(lost) > 0 {
			return outcome, fmt.Errorf("%w: all chosen seats were booked by others", ErrSeatBooked)
		}
		return outcome, ErrEmptySelection
	}

	result, err := v.sequencer.Commit(ctx, CommitInput{
		UserID:       v.user.ID,
		SessionID:    v.session.ID,
		Seats:        snapshot,
		PricePerSeat: v.session.Price,
		MovieTitle:   v.session.MovieTitle,
		CinemaName:   v.session.CinemaName,
	})
	outcome.CommitResult = result
	if err != nil {
		// A partial commit left tickets on the backend; pull them back in
		// so the grid stops showing those seats as merely selected.
		if result.ConflictSeat != nil || len(result.Committed) > 0 {
			v.sync.RefreshInto(ctx, v.seatMap)
		}
		return outcome, err
	}

	v.seatMap.ClearSelection()
	v.sync.RefreshInto(ctx, v.seatMap)
	return outcome, nil
}
