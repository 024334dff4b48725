package integrationtests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbltya/cinebook/apierror"
	"github.com/mbltya/cinebook/auth"
	"github.com/mbltya/cinebook/booking"
	"github.com/mbltya/cinebook/client"
	"github.com/mbltya/cinebook/endpoint"
	"github.com/mbltya/cinebook/entities"
	"github.com/mbltya/cinebook/logger"
)

// fakeBackend is an in-memory cinema backend covering the routes the
// client talks to.
type fakeBackend struct {
	mu       sync.Mutex
	nextID   int64
	tickets  []entities.Ticket
	sessions map[int64]entities.Session
	halls    map[int64]entities.Hall
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		sessions: map[int64]entities.Session{
			42: {ID: 42, MovieTitle: "Dune", CinemaName: "Odeon", HallID: 7, HallName: "Sala 1", StartTime: "2026-08-30T20:00:00", Price: 10.5},
		},
		halls: map[int64]entities.Hall{
			7: {ID: 7, Name: "Sala 1", Rows: 5, SeatsPerRow: 5},
		},
	}
}

func (b *fakeBackend) seatTaken(sessionID int64, row, seat int) bool {
	for _, t := range b.tickets {
		if t.SessionID == sessionID && t.RowNumber == row && t.SeatNumber == seat && t.Status.Occupying() {
			return true
		}
	}
	return false
}

func (b *fakeBackend) book(sessionID int64, row, seat int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.tickets = append(b.tickets, entities.Ticket{
		ID: b.nextID, UserID: 99, SessionID: sessionID,
		RowNumber: row, SeatNumber: seat, Status: entities.TicketConfirmed,
	})
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req entities.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "ada@example.com" || req.Password != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "bad credentials"})
			return
		}
		json.NewEncoder(w).Encode(entities.LoginResponse{
			Token: "integration-token",
			User:  entities.User{ID: 3, Email: req.Email},
		})
	})

	mux.HandleFunc("/api/sessions/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id, _ := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), 10, 64)
		b.mu.Lock()
		session, ok := b.sessions[id]
		b.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "session not found"})
			return
		}
		json.NewEncoder(w).Encode(session)
	})

	mux.HandleFunc("/api/halls/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id, _ := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/api/halls/"), 10, 64)
		b.mu.Lock()
		hall, ok := b.halls[id]
		b.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(hall)
	})

	mux.HandleFunc("/api/tickets/session/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id, _ := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/api/tickets/session/"), 10, 64)
		b.mu.Lock()
		var out []entities.Ticket
		for _, tk := range b.tickets {
			if tk.SessionID == id {
				out = append(out, tk)
			}
		}
		b.mu.Unlock()
		json.NewEncoder(w).Encode(out)
	})

	mux.HandleFunc("/api/tickets/check-seat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		q := r.URL.Query()
		sessionID, _ := strconv.ParseInt(q.Get("sessionId"), 10, 64)
		row, _ := strconv.Atoi(q.Get("rowNumber"))
		seat, _ := strconv.Atoi(q.Get("seatNumber"))
		b.mu.Lock()
		taken := b.seatTaken(sessionID, row, seat)
		b.mu.Unlock()
		json.NewEncoder(w).Encode(!taken)
	})

	mux.HandleFunc("/api/tickets", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req entities.CreateTicketRequest
		json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.seatTaken(req.SessionID, req.RowNumber, req.SeatNumber) {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"message": "seat already booked"})
			return
		}
		b.nextID++
		ticket := entities.Ticket{
			ID: b.nextID, UserID: 3, SessionID: req.SessionID,
			RowNumber: req.RowNumber, SeatNumber: req.SeatNumber,
			Status: entities.TicketConfirmed, Price: 10.5,
		}
		b.tickets = append(b.tickets, ticket)
		json.NewEncoder(w).Encode(ticket)
	})

	mux.HandleFunc("/api/tickets/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			// This backend has no DELETE route for tickets
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		// Cancellation fallback route: /api/tickets/{id}/cancel
		path := strings.TrimPrefix(r.URL.Path, "/api/tickets/")
		id, _ := strconv.ParseInt(strings.TrimSuffix(path, "/cancel"), 10, 64)
		b.mu.Lock()
		defer b.mu.Unlock()
		for i := range b.tickets {
			if b.tickets[i].ID == id {
				b.tickets[i].Status = entities.TicketCancelled
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})

	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		fmt.Fprint(w, "ok")
	})

	return mux
}

func newStack(t *testing.T, srv *httptest.Server) (*client.BookingClient, *auth.TokenManager) {
	t.Helper()
	endpoints, err := endpoint.New(&endpoint.ManagerOptions{BaseURLs: []string{srv.URL}})
	require.NoError(t, err)
	tokens := auth.New(auth.Options{
		Email:    "ada@example.com",
		Password: "hunter2",
		BaseURL:  srv.URL,
	})
	return client.New(endpoints, tokens, 5*time.Second), tokens
}

func TestBookingFlow(t *testing.T) {
	t.Parallel()
	backend := newFakeBackend()
	backend.book(42, 1, 1)
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	api, tokens := newStack(t, srv)
	ctx := context.Background()

	user, err := tokens.User(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), user.ID)

	session, err := api.GetSession(ctx, 42)
	require.NoError(t, err)
	hall, err := api.GetHall(ctx, session.HallID)
	require.NoError(t, err)

	view, err := booking.NewView(ctx, api, *session, *hall, user, nil, logger.NewNop())
	require.NoError(t, err)

	// The pre-booked seat arrived through the mount refresh
	assert.Equal(t, booking.SeatBooked, view.SeatMap().StatusAt(booking.SeatKey{Row: 1, Number: 1}))

	require.NoError(t, view.Toggle(ctx, booking.SeatKey{Row: 3, Number: 4}))
	require.NoError(t, view.Toggle(ctx, booking.SeatKey{Row: 3, Number: 5}))

	outcome, err := view.Commit(ctx)
	require.NoError(t, err)
	assert.Len(t, outcome.Committed, 2)
	assert.Equal(t, 21.0, outcome.TotalPrice)
	assert.Equal(t, 0, view.SeatMap().SelectionSize())
	assert.Equal(t, booking.SeatBooked, view.SeatMap().StatusAt(booking.SeatKey{Row: 3, Number: 4}))

	// The backend agrees
	tickets, err := api.SessionTickets(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, tickets, 3)
}

func TestBookingFlowConflict(t *testing.T) {
	t.Parallel()
	backend := newFakeBackend()
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	api, tokens := newStack(t, srv)
	ctx := context.Background()
	user, err := tokens.User(ctx)
	require.NoError(t, err)

	session, err := api.GetSession(ctx, 42)
	require.NoError(t, err)
	hall, err := api.GetHall(ctx, session.HallID)
	require.NoError(t, err)
	view, err := booking.NewView(ctx, api, *session, *hall, user, nil, logger.NewNop())
	require.NoError(t, err)

	require.NoError(t, view.Toggle(ctx, booking.SeatKey{Row: 2, Number: 2}))

	// Another customer sneaks in before commit
	backend.book(42, 2, 2)

	outcome, err := view.Commit(ctx)
	assert.Error(t, err)
	assert.Empty(t, outcome.Committed)
	// Reconciliation caught the theft before any request went out
	assert.Equal(t, []booking.SeatKey{{Row: 2, Number: 2}}, outcome.LostSeats)
	assert.Equal(t, booking.SeatBooked, view.SeatMap().StatusAt(booking.SeatKey{Row: 2, Number: 2}))
}

func TestCancellationFallbackAgainstBackend(t *testing.T) {
	t.Parallel()
	backend := newFakeBackend()
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	api, _ := newStack(t, srv)
	ctx := context.Background()

	ticket, err := api.CreateTicket(ctx, entities.CreateTicketRequest{
		UserID: 3, SessionID: 42, RowNumber: 4, SeatNumber: 4, RequestID: "it-1",
	})
	require.NoError(t, err)

	// DELETE answers 404 here; the client must recover through PUT
	require.NoError(t, api.CancelTicket(ctx, ticket.ID))

	tickets, err := api.SessionTickets(ctx, 42)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, entities.TicketCancelled, tickets[0].Status)

	// A cancelled seat is free to book again
	available, err := api.CheckSeat(ctx, 42, 4, 4)
	require.NoError(t, err)
	assert.True(t, available)
}

func TestSessionNotFoundNormalized(t *testing.T) {
	t.Parallel()
	backend := newFakeBackend()
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	api, _ := newStack(t, srv)
	_, err := api.GetSession(context.Background(), 777)
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}
