package constant

const (
	SESSION_URL         = "%s/api/sessions/%d"
	SESSIONS_URL        = "%s/api/sessions"
	HALL_URL            = "%s/api/halls/%d"
	MOVIES_URL          = "%s/api/movies"
	CINEMAS_URL         = "%s/api/cinemas"
	SESSION_TICKETS_URL = "%s/api/tickets/session/%d"
	USER_TICKETS_URL    = "%s/api/tickets/user/%d"
	CHECK_SEAT_URL      = "%s/api/tickets/check-seat?sessionId=%d&rowNumber=%d&seatNumber=%d"
	TICKETS_URL         = "%s/api/tickets"
	TICKET_URL          = "%s/api/tickets/%d"
	TICKET_CANCEL_URL   = "%s/api/tickets/%d/cancel"
	LOGIN_URL           = "%s/api/auth/login"
	HEALTH_URL          = "%s/api/health"
)
