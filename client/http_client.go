package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mbltya/cinebook/apierror"
	"github.com/mbltya/cinebook/auth"
	"github.com/mbltya/cinebook/constant"
	"github.com/mbltya/cinebook/endpoint"
	"github.com/mbltya/cinebook/entities"
)

// BookingAPI is the backend surface the booking flows consume.
type BookingAPI interface {
	GetSession(ctx context.Context, id int64) (*entities.Session, error)
	GetHall(ctx context.Context, id int64) (*entities.Hall, error)
	ListSessions(ctx context.Context) ([]entities.Session, error)
	ListMovies(ctx context.Context) ([]entities.Movie, error)
	ListCinemas(ctx context.Context) ([]entities.Cinema, error)
	SessionTickets(ctx context.Context, sessionID int64) ([]entities.Ticket, error)
	UserTickets(ctx context.Context, userID int64) ([]entities.Ticket, error)
	CheckSeat(ctx context.Context, sessionID int64, row, seat int) (bool, error)
	CreateTicket(ctx context.Context, req entities.CreateTicketRequest) (*entities.Ticket, error)
	CancelTicket(ctx context.Context, ticketID int64) error
}

// BookingClient talks to the cinema backend over its REST surface.
// Failures are normalized into the apierror taxonomy at this boundary;
// nothing above it ever sees a raw status code or payload shape.
type BookingClient struct {
	pool      *Pool
	tokens    *auth.TokenManager
	endpoints *endpoint.Manager
}

func New(endpoints *endpoint.Manager, tokens *auth.TokenManager, timeout time.Duration) *BookingClient {
	return &BookingClient{
		pool:      NewPool(timeout),
		tokens:    tokens,
		endpoints: endpoints,
	}
}

func (c *BookingClient) GetSession(ctx context.Context, id int64) (*entities.Session, error) {
	var session entities.Session
	if err := c.getJSON(ctx, authNone, &session, constant.SESSION_URL, id); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *BookingClient) GetHall(ctx context.Context, id int64) (*entities.Hall, error) {
	var hall entities.Hall
	if err := c.getJSON(ctx, authNone, &hall, constant.HALL_URL, id); err != nil {
		return nil, err
	}
	return &hall, nil
}

func (c *BookingClient) ListSessions(ctx context.Context) ([]entities.Session, error) {
	var sessions []entities.Session
	if err := c.getJSON(ctx, authNone, &sessions, constant.SESSIONS_URL); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *BookingClient) ListMovies(ctx context.Context) ([]entities.Movie, error) {
	var movies []entities.Movie
	if err := c.getJSON(ctx, authNone, &movies, constant.MOVIES_URL); err != nil {
		return nil, err
	}
	return movies, nil
}

func (c *BookingClient) ListCinemas(ctx context.Context) ([]entities.Cinema, error) {
	var cinemas []entities.Cinema
	if err := c.getJSON(ctx, authNone, &cinemas, constant.CINEMAS_URL); err != nil {
		return nil, err
	}
	return cinemas, nil
}

// SessionTickets backs the availability sync. Auth is optional here: some
// deployments let anonymous users read booked seats, so a missing credential
// degrades to an unauthenticated request.
func (c *BookingClient) SessionTickets(ctx context.Context, sessionID int64) ([]entities.Ticket, error) {
	var tickets []entities.Ticket
	if err := c.getJSON(ctx, authOptional, &tickets, constant.SESSION_TICKETS_URL, sessionID); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (c *BookingClient) UserTickets(ctx context.Context, userID int64) ([]entities.Ticket, error) {
	var tickets []entities.Ticket
	if err := c.getJSON(ctx, authRequired, &tickets, constant.USER_TICKETS_URL, userID); err != nil {
		return nil, err
	}
	return tickets, nil
}

// CheckSeat asks the backend whether one seat is still free. Requires an
// authenticated caller; the missing-credential case never reaches the wire.
func (c *BookingClient) CheckSeat(ctx context.Context, sessionID int64, row, seat int) (bool, error) {
	var available bool
	if err := c.getJSON(ctx, authRequired, &available, constant.CHECK_SEAT_URL, sessionID, row, seat); err != nil {
		return false, err
	}
	return available, nil
}

func (c *BookingClient) CreateTicket(ctx context.Context, req entities.CreateTicketRequest) (*entities.Ticket, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ticket request: %w", err)
	}
	respBody, err := c.do(ctx, http.MethodPost, body, authRequired, constant.TICKETS_URL)
	if err != nil {
		return nil, err
	}
	var ticket entities.Ticket
	if err := json.Unmarshal(respBody, &ticket); err != nil {
		return nil, fmt.Errorf("failed to parse created ticket: %w", err)
	}
	return &ticket, nil
}

// CancelTicket tries DELETE /tickets/{id} first. Backends without that
// route answer 404 (or 403 behind a route-level guard); those are retried
// through PUT /tickets/{id}/cancel. Failure of both paths is a definitive
// cancellation failure, never silent success.
func (c *BookingClient) CancelTicket(ctx context.Context, ticketID int64) error {
	_, err := c.do(ctx, http.MethodDelete, nil, authRequired, constant.TICKET_URL, ticketID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apierror.ErrNotFound) && !errors.Is(err, apierror.ErrForbidden) {
		return err
	}
	if _, fallbackErr := c.do(ctx, http.MethodPut, nil, authRequired, constant.TICKET_CANCEL_URL, ticketID); fallbackErr != nil {
		return fmt.Errorf("cancellation failed on both paths: %w", fallbackErr)
	}
	return nil
}

// Health pings the backend; used as a startup check.
func (c *BookingClient) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, nil, authNone, constant.HEALTH_URL)
	return err
}

type authMode int

const (
	authNone authMode = iota
	authOptional
	authRequired
)

func (c *BookingClient) getJSON(ctx context.Context, mode authMode, out any, urlTemplate string, args ...any) error {
	body, err := c.do(ctx, http.MethodGet, nil, mode, urlTemplate, args...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// do is the internal helper for all backend calls. It picks a replica,
// runs the request, reports the outcome to the endpoint manager, and
// normalizes failures.
func (c *BookingClient) do(ctx context.Context, method string, body []byte, mode authMode, urlTemplate string, args ...any) ([]byte, error) {
	base := c.endpoints.Pick()
	url := fmt.Sprintf(urlTemplate, append([]any{base}, args...)...)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	switch mode {
	case authRequired:
		headers, err := c.tokens.Headers(ctx)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
	case authOptional:
		if headers, err := c.tokens.Headers(ctx); err == nil {
			for k, v := range headers {
				req.Header.Set(k, v)
			}
		} else if !errors.Is(err, apierror.ErrUnauthenticated) {
			return nil, err
		}
	}

	start := time.Now()
	resp, err := c.pool.For(base).Do(req)
	if err != nil {
		c.endpoints.Report(base, time.Since(start), false)
		return nil, apierror.Transport(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.endpoints.Report(base, time.Since(start), false)
		return nil, apierror.Transport(err)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	c.endpoints.Report(base, time.Since(start), ok || resp.StatusCode < 500)
	if !ok {
		return nil, apierror.Normalize(resp.StatusCode, respBody)
	}
	return respBody, nil
}
